package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/go-git/go-git/v6/storage/memory"
	"github.com/rs/zerolog/log"
)

var ErrEmptySnapshot = errors.New("no corpus files in snapshot")

// OpenRepository opens a Git repository from a local path
func OpenRepository(path string) (*git.Repository, error) {
	return git.PlainOpen(path)
}

// CloneRepository clones a single branch of a Git repository to memory.
// An empty branch clones the remote's default branch.
func CloneRepository(url, branch string) (*git.Repository, error) {
	opts := &git.CloneOptions{
		URL:          url,
		Depth:        1,
		SingleBranch: true,
	}
	if branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(branch)
	}
	return git.Clone(memory.NewStorage(), nil, opts)
}

// ParseAuthor converts go-git Signature to Author
func ParseAuthor(sig object.Signature) Author {
	return Author{
		Name:  sig.Name,
		Email: sig.Email,
		When:  sig.When,
	}
}

// Load reads the corpus at HEAD of source. A source naming an existing local
// directory is opened in place; anything else is cloned into memory.
func Load(ctx context.Context, source string, opts Options) (*Snapshot, error) {
	var (
		repo *git.Repository
		err  error
	)
	if info, statErr := os.Stat(source); statErr == nil && info.IsDir() {
		repo, err = OpenRepository(source)
	} else {
		repo, err = CloneRepository(source, opts.Branch)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", source, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap, err := ReadSnapshot(ctx, repo, opts)
	if err != nil {
		return nil, err
	}
	snap.Source = source
	snap.Branch = opts.Branch
	return snap, nil
}

// ReadSnapshot collects the files of the HEAD commit of repo.
func ReadSnapshot(ctx context.Context, repo *git.Repository, opts Options) (*Snapshot, error) {
	ref, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}
	commit, err := repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to read commit %s: %w", ref.Hash(), err)
	}

	files, err := commit.Files()
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	prefix := strings.Trim(path.Clean("/"+opts.Subdir), "/")
	if prefix != "" {
		prefix += "/"
	}

	var out []File
	err = files.ForEach(func(f *object.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !strings.HasPrefix(f.Name, prefix) {
			return nil
		}
		rel := strings.TrimPrefix(f.Name, prefix)
		if opts.Keep != nil && !opts.Keep(rel) {
			return nil
		}
		if binary, err := f.IsBinary(); err != nil || binary {
			return nil
		}
		content, err := f.Contents()
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", f.Name, err)
		}
		out = append(out, File{Path: rel, Content: []byte(content)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate files: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w under %q", ErrEmptySnapshot, opts.Subdir)
	}

	hash := commit.Hash.String()
	log.Debug().
		Str("component", "git").
		Str("commit", hash[:8]).
		Int("files", len(out)).
		Msg("snapshot read")

	return &Snapshot{
		Commit:      hash,
		ShortCommit: hash[:8],
		Author:      ParseAuthor(commit.Author),
		CommittedAt: commit.Committer.When,
		Files:       out,
	}, nil
}
