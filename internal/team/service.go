package team

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/depbump/internal/githubcli"
	"github.com/temirov/depbump/internal/gitrepo"
	"github.com/temirov/depbump/internal/ui"
)

const (
	teamsEndpointTemplate           = "orgs/%s/teams"
	membersEndpointTemplate         = "orgs/%s/teams/%s/members"
	repositoriesEndpointTemplate    = "orgs/%s/teams/%s/repos"
	membershipEndpointTemplate      = "orgs/%s/teams/%s/memberships/%s"
	branchesEndpointTemplate        = "repos/%s/%s/branches"
	pullRequestsEndpointTemplate    = "repos/%s/%s/pulls"
	roleFieldConstant               = "role"
	nameFieldConstant               = "name"
	archivedFieldConstant           = "archived"
	retrievingTeamsTemplate         = "Retrieving teams for organisation: %s"
	retrievingRepositoriesTemplate  = "Retrieving repositories for team: %s"
	retrievingMembersTemplate       = "Retrieving team members for %s"
	retrievingBranchesTemplate      = "Retrieving active/stale branches for repository: %s"
	retrievingPullRequestsTemplate  = "Retrieving pull requests for repository: %s"
	addingMemberTemplate            = "Adding %s to team %s as %s"
	removingMemberTemplate          = "Removing %s from team %s"
	noRepositoriesNotification      = "No repositories found."
	cloningNotificationTemplate     = "Cloning %s... (%d/%d)"
	cloningCompletedTemplate        = "Cloning completed (%d repositories)."
	repositoryRequestErrorTemplate  = "%s: %w"
	repositoryLogField              = "repository"
	cloneFailedLogMessage           = "repository clone failed"
	membershipChangedLogMessage     = "team membership changed"
	userLogField                    = "user"
	defaultCloneDestinationConstant = "."
)

// GitHubAPI is the subset of the gh api client used for team operations.
type GitHubAPI interface {
	Get(executionContext context.Context, endpoint string) (githubcli.Response, error)
	Put(executionContext context.Context, endpoint string, payload any) (githubcli.Response, error)
	Delete(executionContext context.Context, endpoint string) error
}

// Dependencies enumerates the collaborators of a Service.
type Dependencies struct {
	Logger    *zap.Logger
	Presenter ui.Presenter
	GitHub    GitHubAPI
	Cloner    RepositoryCloner
}

// RepositoryBranches lists the branches of one repository.
type RepositoryBranches struct {
	Repository string           `json:"repository" yaml:"repository"`
	Branches   []githubcli.Item `json:"branches" yaml:"branches"`
}

// RepositoryPullRequests lists the open pull requests of one repository.
type RepositoryPullRequests struct {
	Repository   string           `json:"repository" yaml:"repository"`
	PullRequests []githubcli.Item `json:"pull requests" yaml:"pull requests"`
}

// CloneResult is the outcome of cloning one repository.
type CloneResult struct {
	Repository  string `json:"repository" yaml:"repository"`
	Destination string `json:"destination" yaml:"destination"`
	Success     bool   `json:"success" yaml:"success"`
	Message     string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Service performs GitHub team operations for one organisation and team.
type Service struct {
	logger        *zap.Logger
	presenter     ui.Presenter
	github        GitHubAPI
	cloner        RepositoryCloner
	configuration Configuration
}

// NewService validates dependencies and constructs a Service.
func NewService(dependencies Dependencies, configuration Configuration) (*Service, error) {
	if dependencies.GitHub == nil {
		return nil, ErrGitHubClientNotConfigured
	}
	if dependencies.Presenter == nil {
		return nil, ErrPresenterNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cloner := dependencies.Cloner
	if cloner == nil {
		cloner = NewGoGitCloner(logger)
	}

	return &Service{
		logger:        logger,
		presenter:     dependencies.Presenter,
		github:        dependencies.GitHub,
		cloner:        cloner,
		configuration: configuration.Sanitize(),
	}, nil
}

// ListTeams returns the teams of the organisation.
func (service *Service) ListTeams(executionContext context.Context) (githubcli.Response, error) {
	if len(service.configuration.Organisation) == 0 {
		return githubcli.Response{}, ErrOrganisationRequired
	}
	service.presenter.Notify(fmt.Sprintf(retrievingTeamsTemplate, service.configuration.Organisation), ui.SeverityInfo)
	return service.github.Get(executionContext, fmt.Sprintf(teamsEndpointTemplate, url.PathEscape(service.configuration.Organisation)))
}

// ListMembers returns the members of the team.
func (service *Service) ListMembers(executionContext context.Context) (githubcli.Response, error) {
	if validationError := service.validateTeam(); validationError != nil {
		return githubcli.Response{}, validationError
	}
	service.presenter.Notify(fmt.Sprintf(retrievingMembersTemplate, service.configuration.Team), ui.SeverityInfo)
	return service.github.Get(executionContext, service.teamEndpoint(membersEndpointTemplate))
}

// ListRepositories returns the team repositories, excluding ignored ones and,
// unless configured otherwise, archived ones.
func (service *Service) ListRepositories(executionContext context.Context) (githubcli.Response, error) {
	if validationError := service.validateTeam(); validationError != nil {
		return githubcli.Response{}, validationError
	}
	service.presenter.Notify(fmt.Sprintf(retrievingRepositoriesTemplate, service.configuration.Team), ui.SeverityInfo)

	response, requestError := service.github.Get(executionContext, service.teamEndpoint(repositoriesEndpointTemplate))
	if requestError != nil {
		return githubcli.Response{}, requestError
	}

	ignoredRepositories := make(map[string]struct{}, len(service.configuration.IgnoredRepositories))
	for _, repositoryName := range service.configuration.IgnoredRepositories {
		ignoredRepositories[repositoryName] = struct{}{}
	}
	response = response.Filter(func(item githubcli.Item) bool {
		_, ignored := ignoredRepositories[item.String(nameFieldConstant)]
		return !ignored
	})

	if service.configuration.IncludeArchivedRepositories {
		return response, nil
	}
	return response.Filter(func(item githubcli.Item) bool {
		return !item.Bool(archivedFieldConstant)
	}), nil
}

// ListBranches returns the branches of every team repository.
func (service *Service) ListBranches(executionContext context.Context) ([]RepositoryBranches, error) {
	repositoryNames, namesError := service.repositoryNames(executionContext)
	if namesError != nil {
		return nil, namesError
	}

	branchListings := make([]RepositoryBranches, 0, len(repositoryNames))
	for _, repositoryName := range repositoryNames {
		service.presenter.Notify(fmt.Sprintf(retrievingBranchesTemplate, repositoryName), ui.SeverityInfo)
		response, requestError := service.github.Get(executionContext, service.repositoryEndpoint(branchesEndpointTemplate, repositoryName))
		if requestError != nil {
			return nil, fmt.Errorf(repositoryRequestErrorTemplate, repositoryName, requestError)
		}
		branchListings = append(branchListings, RepositoryBranches{Repository: repositoryName, Branches: nonNilItems(response)})
	}
	return branchListings, nil
}

// ListPullRequests returns the open pull requests of every team repository,
// omitting repositories without any.
func (service *Service) ListPullRequests(executionContext context.Context) ([]RepositoryPullRequests, error) {
	repositoryNames, namesError := service.repositoryNames(executionContext)
	if namesError != nil {
		return nil, namesError
	}

	pullRequestListings := make([]RepositoryPullRequests, 0, len(repositoryNames))
	for _, repositoryName := range repositoryNames {
		service.presenter.Notify(fmt.Sprintf(retrievingPullRequestsTemplate, repositoryName), ui.SeverityInfo)
		response, requestError := service.github.Get(executionContext, service.repositoryEndpoint(pullRequestsEndpointTemplate, repositoryName))
		if requestError != nil {
			return nil, fmt.Errorf(repositoryRequestErrorTemplate, repositoryName, requestError)
		}
		if response.Len() == 0 {
			continue
		}
		pullRequestListings = append(pullRequestListings, RepositoryPullRequests{Repository: repositoryName, PullRequests: response.Items})
	}
	return pullRequestListings, nil
}

// AddMember adds username to the team with role.
func (service *Service) AddMember(executionContext context.Context, username string, role string) (githubcli.Response, error) {
	if validationError := service.validateTeam(); validationError != nil {
		return githubcli.Response{}, validationError
	}
	trimmedUsername := strings.TrimSpace(username)
	if len(trimmedUsername) == 0 {
		return githubcli.Response{}, ErrUsernameRequired
	}

	service.presenter.Notify(fmt.Sprintf(addingMemberTemplate, trimmedUsername, service.configuration.Team, role), ui.SeverityInfo)
	response, requestError := service.github.Put(executionContext, service.membershipEndpoint(trimmedUsername), map[string]string{roleFieldConstant: role})
	if requestError != nil {
		return githubcli.Response{}, requestError
	}
	service.logger.Info(membershipChangedLogMessage, zap.String(userLogField, trimmedUsername))
	return response, nil
}

// RemoveMember removes username from the team.
func (service *Service) RemoveMember(executionContext context.Context, username string) error {
	if validationError := service.validateTeam(); validationError != nil {
		return validationError
	}
	trimmedUsername := strings.TrimSpace(username)
	if len(trimmedUsername) == 0 {
		return ErrUsernameRequired
	}

	service.presenter.Notify(fmt.Sprintf(removingMemberTemplate, trimmedUsername, service.configuration.Team), ui.SeverityInfo)
	if requestError := service.github.Delete(executionContext, service.membershipEndpoint(trimmedUsername)); requestError != nil {
		return requestError
	}
	service.logger.Info(membershipChangedLogMessage, zap.String(userLogField, trimmedUsername))
	return nil
}

// CloneRepositories clones every team repository into destination/<name>
// under a bounded pool. A failed clone is reported for that repository only.
func (service *Service) CloneRepositories(executionContext context.Context, destination string) ([]CloneResult, error) {
	protocol, protocolError := gitrepo.ParseRemoteProtocol(service.configuration.CloneProtocol)
	if protocolError != nil {
		return nil, protocolError
	}

	repositoryNames, namesError := service.repositoryNames(executionContext)
	if namesError != nil {
		return nil, namesError
	}
	if len(repositoryNames) == 0 {
		return nil, nil
	}

	destinationRoot := strings.TrimSpace(destination)
	if len(destinationRoot) == 0 {
		destinationRoot = defaultCloneDestinationConstant
	}

	results := make([]CloneResult, len(repositoryNames))
	var startedCount atomic.Int64
	var cloneGroup errgroup.Group
	cloneGroup.SetLimit(service.configuration.CloneWorkers)
	for repositoryIndex, repositoryName := range repositoryNames {
		repositoryIndex, repositoryName := repositoryIndex, repositoryName
		cloneGroup.Go(func() error {
			position := startedCount.Add(1)
			service.presenter.Notify(fmt.Sprintf(cloningNotificationTemplate, repositoryName, position, len(repositoryNames)), ui.SeverityInfo)
			results[repositoryIndex] = service.cloneRepository(executionContext, protocol, destinationRoot, repositoryName)
			return nil
		})
	}
	_ = cloneGroup.Wait()

	for _, result := range results {
		if !result.Success {
			service.presenter.Notify(result.Message, ui.SeverityError)
		}
	}
	service.presenter.Notify(fmt.Sprintf(cloningCompletedTemplate, len(repositoryNames)), ui.SeverityInfo)
	return results, nil
}

func (service *Service) cloneRepository(executionContext context.Context, protocol gitrepo.RemoteProtocol, destinationRoot string, repositoryName string) CloneResult {
	repositoryDestination := filepath.Join(destinationRoot, repositoryName)
	result := CloneResult{Repository: repositoryName, Destination: repositoryDestination}

	if _, statError := os.Stat(repositoryDestination); statError == nil || !errors.Is(statError, os.ErrNotExist) {
		result.Message = DestinationExistsError{Path: repositoryDestination}.Error()
		return result
	}

	remoteURL, formatError := gitrepo.FormatRemoteURL(gitrepo.RemoteURL{
		Protocol:   protocol,
		Owner:      service.configuration.Organisation,
		Repository: repositoryName,
	})
	if formatError != nil {
		result.Message = formatError.Error()
		return result
	}

	cloneError := service.cloner.Clone(executionContext, CloneRequest{
		Repository:  repositoryName,
		URL:         remoteURL,
		Destination: repositoryDestination,
		Branch:      service.configuration.CloneBranch,
	})
	if cloneError != nil {
		service.logger.Warn(cloneFailedLogMessage, zap.String(repositoryLogField, repositoryName), zap.Error(cloneError))
		result.Message = cloneError.Error()
		return result
	}

	result.Success = true
	return result
}

func (service *Service) repositoryNames(executionContext context.Context) ([]string, error) {
	response, requestError := service.ListRepositories(executionContext)
	if requestError != nil {
		return nil, requestError
	}
	repositoryNames := response.Strings(nameFieldConstant)
	if len(repositoryNames) == 0 {
		service.presenter.Notify(noRepositoriesNotification, ui.SeverityWarning)
	}
	return repositoryNames, nil
}

func (service *Service) validateTeam() error {
	if len(service.configuration.Organisation) == 0 {
		return ErrOrganisationRequired
	}
	if len(service.configuration.Team) == 0 {
		return ErrTeamRequired
	}
	return nil
}

func (service *Service) teamEndpoint(template string) string {
	return fmt.Sprintf(template, url.PathEscape(service.configuration.Organisation), url.PathEscape(service.configuration.Team))
}

func (service *Service) repositoryEndpoint(template string, repositoryName string) string {
	return fmt.Sprintf(template, url.PathEscape(service.configuration.Organisation), url.PathEscape(repositoryName))
}

func (service *Service) membershipEndpoint(username string) string {
	return fmt.Sprintf(
		membershipEndpointTemplate,
		url.PathEscape(service.configuration.Organisation),
		url.PathEscape(service.configuration.Team),
		url.PathEscape(username),
	)
}

func nonNilItems(response githubcli.Response) []githubcli.Item {
	if response.Items == nil {
		return []githubcli.Item{}
	}
	return response.Items
}
