package team

import (
	"context"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"go.uber.org/zap"

	"github.com/temirov/depbump/internal/githubauth"
)

const (
	cloneStartedMessageConstant   = "cloning repository"
	cloneCompletedMessageConstant = "repository cloned"
	urlLogFieldConstant           = "url"
	destinationLogFieldConstant   = "destination"
	branchLogFieldConstant        = "branch"
)

// CloneRequest describes one repository clone.
type CloneRequest struct {
	Repository  string
	URL         string
	Destination string
	Branch      string
}

// RepositoryCloner clones a remote repository into a local directory.
type RepositoryCloner interface {
	Clone(executionContext context.Context, request CloneRequest) error
}

// GoGitCloner clones repositories in process with go-git.
type GoGitCloner struct {
	logger *zap.Logger
}

// NewGoGitCloner constructs a GoGitCloner. A nil logger disables logging.
func NewGoGitCloner(logger *zap.Logger) *GoGitCloner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoGitCloner{logger: logger}
}

// Clone clones request.URL into request.Destination and checks out
// request.Branch when one is given. https remotes authenticate with a GitHub
// token from the environment when one is set.
func (cloner *GoGitCloner) Clone(executionContext context.Context, request CloneRequest) error {
	cloneOptions := &git.CloneOptions{URL: request.URL, Auth: githubauth.CloneAuth(request.URL, nil)}
	branchName := strings.TrimSpace(request.Branch)
	if len(branchName) > 0 {
		cloneOptions.ReferenceName = plumbing.NewBranchReferenceName(branchName)
	}

	cloner.logger.Debug(
		cloneStartedMessageConstant,
		zap.String(urlLogFieldConstant, request.URL),
		zap.String(destinationLogFieldConstant, request.Destination),
		zap.String(branchLogFieldConstant, branchName),
	)

	if _, cloneError := git.PlainCloneContext(executionContext, request.Destination, false, cloneOptions); cloneError != nil {
		return CloneError{Repository: request.Repository, Cause: cloneError}
	}

	cloner.logger.Debug(cloneCompletedMessageConstant, zap.String(destinationLogFieldConstant, request.Destination))
	return nil
}
