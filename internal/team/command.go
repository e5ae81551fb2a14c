package team

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/depbump/internal/execshell"
	"github.com/temirov/depbump/internal/githubcli"
	"github.com/temirov/depbump/internal/ui"
	"github.com/temirov/depbump/internal/utils/flags"
	pathutils "github.com/temirov/depbump/internal/utils/path"
)

const (
	teamCommandUseConstant                 = "team"
	teamCommandShortDescriptionConstant    = "Inspect and manage a GitHub team"
	teamCommandLongDescriptionConstant     = "team lists the teams, members, repositories, branches and pull requests of a GitHub organisation team, manages memberships, and clones the team repositories."
	teamsCommandUseConstant                = "teams"
	teamsCommandShortDescriptionConstant   = "List the teams of the organisation"
	membersCommandUseConstant              = "members"
	membersCommandShortDescriptionConstant = "List the team members"
	reposCommandUseConstant                = "repos"
	reposCommandShortDescriptionConstant   = "List the team repositories"
	branchesCommandUseConstant             = "branches"
	branchesCommandShortDescription        = "List the branches of every team repository"
	prsCommandUseConstant                  = "prs"
	prsCommandShortDescriptionConstant     = "List the open pull requests of every team repository"
	cloneCommandUseConstant                = "clone"
	cloneCommandShortDescriptionConstant   = "Clone every team repository"
	addMemberCommandUseConstant            = "add-member <username>"
	addMemberCommandShortDescription       = "Add a user to the team"
	removeMemberCommandUseConstant         = "remove-member <username>"
	removeMemberCommandShortDescription    = "Remove a user from the team"
	organisationFlagNameConstant           = "organisation"
	organisationFlagDescriptionConstant    = "GitHub organisation"
	teamFlagNameConstant                   = "team"
	teamFlagDescriptionConstant            = "GitHub team slug"
	destinationFlagNameConstant            = "destination"
	destinationFlagDescriptionConstant     = "Directory receiving the clones"
	roleFlagNameConstant                   = "role"
	roleFlagDescriptionConstant            = "Team role"
	memberRoleConstant                     = "member"
	maintainerRoleConstant                 = "maintainer"
	teamsResultNameConstant                = "org_teams"
	membersResultNameConstant              = "team_members"
	reposResultNameConstant                = "team_repos"
	branchesResultNameConstant             = "team_branches"
	prsResultNameConstant                  = "team_pull_requests"
	cloneResultNameConstant                = "team_clone"
	membershipResultNameConstant           = "team_membership"
	memberRemovedTemplateConstant          = "Removed %s from team %s."
	commandExecutionErrorTemplateConstant  = "team %s failed: %w"
)

var supportedRoles = []string{memberRoleConstant, maintainerRoleConstant}

var teamHomeDirectoryExpander = pathutils.NewHomeExpander()

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// PresenterProvider supplies the presenter receiving results and notifications.
type PresenterProvider func() ui.Presenter

// ConfigurationProvider returns the current team configuration.
type ConfigurationProvider func() Configuration

// CommandEventObserverProvider supplies an observer for executed commands.
type CommandEventObserverProvider func() execshell.CommandEventObserver

// CommandBuilder assembles the team command group.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	PresenterProvider            PresenterProvider
	ConfigurationProvider        ConfigurationProvider
	CommandEventObserverProvider CommandEventObserverProvider
	GitHubClient                 GitHubAPI
	Cloner                       RepositoryCloner
}

// Build constructs the team command with its subcommands.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	teamCommand := &cobra.Command{
		Use:   teamCommandUseConstant,
		Short: teamCommandShortDescriptionConstant,
		Long:  teamCommandLongDescriptionConstant,
	}
	teamCommand.PersistentFlags().String(organisationFlagNameConstant, "", organisationFlagDescriptionConstant)
	teamCommand.PersistentFlags().String(teamFlagNameConstant, "", teamFlagDescriptionConstant)

	teamCommand.AddCommand(builder.listCommand(teamsCommandUseConstant, teamsCommandShortDescriptionConstant, teamsResultNameConstant, func(executionContext context.Context, service *Service) (any, error) {
		response, requestError := service.ListTeams(executionContext)
		return response.Items, requestError
	}))
	teamCommand.AddCommand(builder.listCommand(membersCommandUseConstant, membersCommandShortDescriptionConstant, membersResultNameConstant, func(executionContext context.Context, service *Service) (any, error) {
		response, requestError := service.ListMembers(executionContext)
		return response.Items, requestError
	}))
	teamCommand.AddCommand(builder.listCommand(reposCommandUseConstant, reposCommandShortDescriptionConstant, reposResultNameConstant, func(executionContext context.Context, service *Service) (any, error) {
		response, requestError := service.ListRepositories(executionContext)
		return response.Items, requestError
	}))
	teamCommand.AddCommand(builder.listCommand(branchesCommandUseConstant, branchesCommandShortDescription, branchesResultNameConstant, func(executionContext context.Context, service *Service) (any, error) {
		return service.ListBranches(executionContext)
	}))
	teamCommand.AddCommand(builder.listCommand(prsCommandUseConstant, prsCommandShortDescriptionConstant, prsResultNameConstant, func(executionContext context.Context, service *Service) (any, error) {
		return service.ListPullRequests(executionContext)
	}))

	cloneCommand := &cobra.Command{
		Use:   cloneCommandUseConstant,
		Short: cloneCommandShortDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.runClone,
	}
	cloneCommand.Flags().String(destinationFlagNameConstant, defaultCloneDestinationConstant, destinationFlagDescriptionConstant)
	teamCommand.AddCommand(cloneCommand)

	addMemberCommand := &cobra.Command{
		Use:   addMemberCommandUseConstant,
		Short: addMemberCommandShortDescription,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.runAddMember,
	}
	addMemberCommand.Flags().String(roleFlagNameConstant, memberRoleConstant, flags.FormatChoiceUsage(memberRoleConstant, supportedRoles, roleFlagDescriptionConstant))
	teamCommand.AddCommand(addMemberCommand)

	teamCommand.AddCommand(&cobra.Command{
		Use:   removeMemberCommandUseConstant,
		Short: removeMemberCommandShortDescription,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.runRemoveMember,
	})

	return teamCommand, nil
}

type listOperation func(executionContext context.Context, service *Service) (any, error)

func (builder *CommandBuilder) listCommand(use string, shortDescription string, resultName string, operation listOperation) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: shortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			service, presenter, serviceError := builder.resolveService(command)
			if serviceError != nil {
				return serviceError
			}
			payload, operationError := operation(command.Context(), service)
			if operationError != nil {
				return fmt.Errorf(commandExecutionErrorTemplateConstant, command.Name(), operationError)
			}
			presenter.ShowResult(resultName, payload)
			return nil
		},
	}
}

func (builder *CommandBuilder) runClone(command *cobra.Command, arguments []string) error {
	service, presenter, serviceError := builder.resolveService(command)
	if serviceError != nil {
		return serviceError
	}

	destinationValue, destinationError := command.Flags().GetString(destinationFlagNameConstant)
	if destinationError != nil {
		return destinationError
	}
	resolvedDestination, resolveError := teamHomeDirectoryExpander.Resolve(destinationValue)
	if resolveError != nil {
		return resolveError
	}

	results, cloneError := service.CloneRepositories(command.Context(), resolvedDestination)
	if cloneError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, command.Name(), cloneError)
	}
	if len(results) > 0 {
		presenter.ShowResult(cloneResultNameConstant, results)
	}
	return nil
}

func (builder *CommandBuilder) runAddMember(command *cobra.Command, arguments []string) error {
	roleValue, roleFlagError := command.Flags().GetString(roleFlagNameConstant)
	if roleFlagError != nil {
		return roleFlagError
	}
	role, roleError := flags.NormalizeChoice(roleFlagNameConstant, roleValue, memberRoleConstant, supportedRoles)
	if roleError != nil {
		return roleError
	}

	service, presenter, serviceError := builder.resolveService(command)
	if serviceError != nil {
		return serviceError
	}

	response, addError := service.AddMember(command.Context(), arguments[0], role)
	if addError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, command.Name(), addError)
	}
	presenter.ShowResult(membershipResultNameConstant, response.Items)
	return nil
}

func (builder *CommandBuilder) runRemoveMember(command *cobra.Command, arguments []string) error {
	service, presenter, serviceError := builder.resolveService(command)
	if serviceError != nil {
		return serviceError
	}

	if removeError := service.RemoveMember(command.Context(), arguments[0]); removeError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, command.Name(), removeError)
	}
	presenter.Notify(fmt.Sprintf(memberRemovedTemplateConstant, arguments[0], service.configuration.Team), ui.SeverityInfo)
	return nil
}

func (builder *CommandBuilder) resolveService(command *cobra.Command) (*Service, ui.Presenter, error) {
	logger := builder.resolveLogger()
	presenter := builder.resolvePresenter(command, logger)

	configuration, configurationError := builder.resolveConfiguration(command)
	if configurationError != nil {
		return nil, nil, configurationError
	}

	githubClient, clientError := builder.resolveGitHubClient(logger)
	if clientError != nil {
		return nil, nil, clientError
	}

	service, serviceError := NewService(Dependencies{
		Logger:    logger,
		Presenter: presenter,
		GitHub:    githubClient,
		Cloner:    builder.Cloner,
	}, configuration)
	if serviceError != nil {
		return nil, nil, serviceError
	}
	return service, presenter, nil
}

func (builder *CommandBuilder) resolveConfiguration(command *cobra.Command) (Configuration, error) {
	configuration := DefaultConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	flagSet := command.Flags()
	if flagSet.Changed(organisationFlagNameConstant) {
		organisationValue, organisationError := flagSet.GetString(organisationFlagNameConstant)
		if organisationError != nil {
			return Configuration{}, organisationError
		}
		configuration.Organisation = organisationValue
	}
	if flagSet.Changed(teamFlagNameConstant) {
		teamValue, teamError := flagSet.GetString(teamFlagNameConstant)
		if teamError != nil {
			return Configuration{}, teamError
		}
		configuration.Team = teamValue
	}
	return configuration.Sanitize(), nil
}

func (builder *CommandBuilder) resolveGitHubClient(logger *zap.Logger) (GitHubAPI, error) {
	if builder.GitHubClient != nil {
		return builder.GitHubClient, nil
	}

	var observers []execshell.CommandEventObserver
	if builder.CommandEventObserverProvider != nil {
		if observer := builder.CommandEventObserverProvider(); observer != nil {
			observers = append(observers, observer)
		}
	}

	shellExecutor, executorError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner(), observers...)
	if executorError != nil {
		return nil, executorError
	}
	githubClient, clientError := githubcli.NewClient(shellExecutor)
	if clientError != nil {
		return nil, clientError
	}
	return githubClient, nil
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}

	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}

	return logger
}

func (builder *CommandBuilder) resolvePresenter(command *cobra.Command, logger *zap.Logger) ui.Presenter {
	if builder.PresenterProvider != nil {
		if presenter := builder.PresenterProvider(); presenter != nil {
			return presenter
		}
	}
	return ui.NewConsolePresenter(command.OutOrStdout(), logger, ui.OutputFormatYAML)
}
