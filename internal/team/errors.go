package team

import (
	"errors"
	"fmt"
)

const (
	githubClientMissingMessageConstant = "github client not configured"
	presenterMissingMessageConstant    = "presenter not configured"
	organisationRequiredMessage        = "organisation required"
	teamRequiredMessage                = "team required"
	usernameRequiredMessage            = "username required"
	destinationExistsTemplateConstant  = "Destination already exists: %s"
	cloneFailedTemplateConstant        = "clone of %s failed: %v"
)

var (
	// ErrGitHubClientNotConfigured indicates the GitHub API dependency was missing.
	ErrGitHubClientNotConfigured = errors.New(githubClientMissingMessageConstant)
	// ErrPresenterNotConfigured indicates the presenter dependency was missing.
	ErrPresenterNotConfigured = errors.New(presenterMissingMessageConstant)
	// ErrOrganisationRequired indicates an operation without an organisation.
	ErrOrganisationRequired = errors.New(organisationRequiredMessage)
	// ErrTeamRequired indicates a team-scoped operation without a team slug.
	ErrTeamRequired = errors.New(teamRequiredMessage)
	// ErrUsernameRequired indicates a membership change without a username.
	ErrUsernameRequired = errors.New(usernameRequiredMessage)
)

// DestinationExistsError reports a clone target that is already present.
type DestinationExistsError struct {
	Path string
}

func (existsError DestinationExistsError) Error() string {
	return fmt.Sprintf(destinationExistsTemplateConstant, existsError.Path)
}

// CloneError wraps a failed clone of one repository.
type CloneError struct {
	Repository string
	Cause      error
}

func (cloneError CloneError) Error() string {
	return fmt.Sprintf(cloneFailedTemplateConstant, cloneError.Repository, cloneError.Cause)
}

// Unwrap exposes the underlying cause.
func (cloneError CloneError) Unwrap() error {
	return cloneError.Cause
}
