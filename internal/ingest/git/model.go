// Package git loads a corpus snapshot from a Git repository, so the
// document tree can be versioned and ingested straight from a remote.
package git

import "time"

// Author represents Git author information
type Author struct {
	Name  string    `json:"name"`
	Email string    `json:"email"`
	When  time.Time `json:"when"`
}

// File is one blob from the snapshot tree. Path is slash-separated and
// relative to the requested subdirectory.
type File struct {
	Path    string `json:"path"`
	Content []byte `json:"-"`
}

// Snapshot is the corpus as of a single commit
type Snapshot struct {
	Source      string    `json:"source"`
	Branch      string    `json:"branch,omitempty"`
	Commit      string    `json:"commit"`
	ShortCommit string    `json:"short_commit"` // First 8 chars for display
	Author      Author    `json:"author"`
	CommittedAt time.Time `json:"committed_at"`
	Files       []File    `json:"files"`
}

// Options select what a snapshot contains.
type Options struct {
	// Branch to check out; empty means the remote's default branch
	Branch string

	// Subdir limits the snapshot to one directory of the repository
	// (e.g. "data/categories")
	Subdir string

	// Keep filters files by their path relative to Subdir; nil keeps all
	Keep func(path string) bool
}
