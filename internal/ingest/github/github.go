// Package github reads a corpus snapshot through the GitHub REST API. It
// fetches a single tree and its blobs, so no clone is needed and private
// repositories work with a token alone.
package github

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/go-github/v77/github"
	"github.com/rs/zerolog/log"

	"github.com/Yates-Labs/beacon/internal/ingest/git"
)

// Scheme prefixes corpus sources served by the API, as in "github:owner/repo".
const Scheme = "github:"

var ErrInvalidSource = errors.New("invalid GitHub source")

// NewClient creates a GitHub API client. An empty token gives an
// unauthenticated client with the lower public rate limit.
func NewClient(token string) *github.Client {
	client := github.NewClient(nil)
	if token == "" {
		return client
	}
	return client.WithAuthToken(token)
}

// IsSource reports whether source uses the github: scheme.
func IsSource(source string) bool {
	return strings.HasPrefix(source, Scheme)
}

// ParseSource splits "github:owner/repo" into owner and repository.
func ParseSource(source string) (owner, repo string, err error) {
	rest, ok := strings.CutPrefix(source, Scheme)
	if !ok {
		return "", "", fmt.Errorf("%w: %q lacks the %s prefix", ErrInvalidSource, source, Scheme)
	}
	owner, repo, ok = strings.Cut(strings.Trim(rest, "/"), "/")
	repo = strings.TrimSuffix(repo, ".git")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("%w: want %sowner/repo, got %q", ErrInvalidSource, Scheme, source)
	}
	return owner, repo, nil
}

// Load reads the corpus files at the head of opts.Branch, or of the default
// branch when none is given.
func Load(ctx context.Context, client *github.Client, source string, opts git.Options) (*git.Snapshot, error) {
	owner, repo, err := ParseSource(source)
	if err != nil {
		return nil, err
	}

	ref := opts.Branch
	if ref == "" {
		r, _, err := client.Repositories.Get(ctx, owner, repo)
		if err != nil {
			return nil, handleAPIError(err, "failed to get repository")
		}
		ref = r.GetDefaultBranch()
	}

	commit, _, err := client.Repositories.GetCommit(ctx, owner, repo, ref, nil)
	if err != nil {
		return nil, handleAPIError(err, fmt.Sprintf("failed to resolve %s", ref))
	}
	sha := commit.GetSHA()

	tree, _, err := client.Git.GetTree(ctx, owner, repo, sha, true)
	if err != nil {
		return nil, handleAPIError(err, "failed to get tree")
	}
	if tree.GetTruncated() {
		log.Warn().Str("component", "github").Str("repo", owner+"/"+repo).Msg("tree listing truncated; some files are missing")
	}

	prefix := strings.Trim(opts.Subdir, "/")
	if prefix != "" {
		prefix += "/"
	}

	snap := &git.Snapshot{
		Source: source,
		Branch: ref,
		Commit: sha,
	}
	if len(sha) >= 8 {
		snap.ShortCommit = sha[:8]
	}
	if a := commit.GetCommit().GetAuthor(); a != nil {
		snap.Author = git.Author{Name: a.GetName(), Email: a.GetEmail(), When: a.GetDate().Time}
		snap.CommittedAt = a.GetDate().Time
	}

	for _, entry := range tree.Entries {
		if entry.GetType() != "blob" || !strings.HasPrefix(entry.GetPath(), prefix) {
			continue
		}
		rel := strings.TrimPrefix(entry.GetPath(), prefix)
		if opts.Keep != nil && !opts.Keep(rel) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		content, _, err := client.Git.GetBlobRaw(ctx, owner, repo, entry.GetSHA())
		if err != nil {
			return nil, handleAPIError(err, "failed to get "+entry.GetPath())
		}
		snap.Files = append(snap.Files, git.File{Path: path.Clean(rel), Content: content})
	}

	if len(snap.Files) == 0 {
		return nil, fmt.Errorf("%w: %s/%s@%s under %q", git.ErrEmptySnapshot, owner, repo, ref, opts.Subdir)
	}

	log.Debug().
		Str("component", "github").
		Str("repo", owner+"/"+repo).
		Str("commit", snap.ShortCommit).
		Int("files", len(snap.Files)).
		Msg("read snapshot")
	return snap, nil
}

// handleAPIError wraps API errors with context and detects rate limiting
func handleAPIError(err error, msg string) error {
	if err == nil {
		return nil
	}

	var rateLimitErr *github.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return fmt.Errorf("%s: hit primary rate limit (used %d of %d, resets at %v): %w",
			msg, rateLimitErr.Rate.Used, rateLimitErr.Rate.Limit, rateLimitErr.Rate.Reset.Time, err)
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		retryAfter := abuseErr.GetRetryAfter()
		return fmt.Errorf("%s: hit secondary rate limit (retry after %v): %w",
			msg, retryAfter, err)
	}

	return fmt.Errorf("%s: %w", msg, err)
}
