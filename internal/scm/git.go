package scm

import (
	"errors"
	"fmt"
	"log/slog"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// GitRevisionSource reads HEAD from the git work tree enclosing a directory.
type GitRevisionSource struct{}

// NewGitRevisionSource creates a new GitRevisionSource.
func NewGitRevisionSource() *GitRevisionSource {
	return &GitRevisionSource{}
}

// HeadRevision returns the commit hash HEAD points to for the repository containing dir.
// A directory outside any repository, or a repository without commits, yields "".
func (g *GitRevisionSource) HeadRevision(dir string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		slog.Debug("Directory is not inside a git repository", "dir", dir)
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to open git repository: %w", err)
	}

	head, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	return head.Hash().String(), nil
}
