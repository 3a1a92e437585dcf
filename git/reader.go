// Package git implements the RevisionReader collaborator by shelling out to
// git. The engine itself carries no VCS knowledge.
package git

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/mrtimdog/diffedit"
)

// Compile-time interface verification.
var _ diffedit.RevisionReader = (*Reader)(nil)

// Reader retrieves file text at a revision via git show.
type Reader struct {
	repoPath string
}

// NewReader creates a Reader for the repository at repoPath.
func NewReader(repoPath string) *Reader {
	return &Reader{repoPath: repoPath}
}

// Read returns the content of path at revision. An empty revision reads the
// working tree through git's index-free show of HEAD.
func (r *Reader) Read(ctx context.Context, path, revision string) (string, error) {
	if revision == "" {
		revision = "HEAD"
	}
	cmd := exec.CommandContext(ctx, "git", "-C", r.repoPath, "show", revision+":"+path)
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("git show failed: %s", string(exitErr.Stderr))
		}
		return "", fmt.Errorf("git show failed: %w", err)
	}
	return string(output), nil
}
