package orchestrator

import "strings"

// extractRepoName extracts the repository name from a path or URL
func extractRepoName(repo string) string {
	repo = strings.TrimSuffix(repo, "/")

	name := repo
	if i := strings.LastIndexAny(repo, "/:"); i >= 0 && i < len(repo)-1 {
		name = repo[i+1:]
	}
	return strings.TrimSuffix(name, ".git")
}

// isHiddenPath reports whether any segment of a slash-separated path starts
// with a dot or underscore.
func isHiddenPath(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if strings.HasPrefix(seg, ".") || strings.HasPrefix(seg, "_") {
			return true
		}
	}
	return false
}
