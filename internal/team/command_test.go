package team_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/depbump/internal/githubcli"
	"github.com/temirov/depbump/internal/team"
	"github.com/temirov/depbump/internal/ui"
)

func executeTeamCommand(testInstance *testing.T, builder team.CommandBuilder, arguments []string) error {
	testInstance.Helper()
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	var output bytes.Buffer
	command.SetOut(&output)
	command.SetErr(&output)
	command.SetArgs(arguments)
	command.SetContext(context.Background())
	return command.Execute()
}

func TestTeamCommandListings(testInstance *testing.T) {
	testCases := []struct {
		name              string
		arguments         []string
		expectedResult    string
		expectedEndpoints []string
	}{
		{
			name:              "teams",
			arguments:         []string{"teams"},
			expectedResult:    "org_teams",
			expectedEndpoints: []string{"orgs/acme/teams"},
		},
		{
			name:              "members",
			arguments:         []string{"members"},
			expectedResult:    "team_members",
			expectedEndpoints: []string{"orgs/acme/teams/platform/members"},
		},
		{
			name:              "repos",
			arguments:         []string{"repos"},
			expectedResult:    "team_repos",
			expectedEndpoints: []string{testRepositoriesEndpoint},
		},
		{
			name:              "branches",
			arguments:         []string{"branches"},
			expectedResult:    "team_branches",
			expectedEndpoints: []string{testRepositoriesEndpoint, "repos/acme/billing/branches"},
		},
		{
			name:              "prs",
			arguments:         []string{"prs"},
			expectedResult:    "team_pull_requests",
			expectedEndpoints: []string{testRepositoriesEndpoint, "repos/acme/billing/pulls"},
		},
		{
			name:              "flag_overrides_configuration",
			arguments:         []string{"members", "--organisation", "umbrella", "--team", "core"},
			expectedResult:    "team_members",
			expectedEndpoints: []string{"orgs/umbrella/teams/core/members"},
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			api := &stubGitHubAPI{responses: map[string]githubcli.Response{testRepositoriesEndpoint: repositoryItems("billing")}}
			presenter := &recordingPresenter{}
			builder := team.CommandBuilder{
				PresenterProvider:     func() ui.Presenter { return presenter },
				ConfigurationProvider: testConfiguration,
				GitHubClient:          api,
				Cloner:                &recordingCloner{},
			}

			require.NoError(testInstance, executeTeamCommand(testInstance, builder, testCase.arguments))
			require.Equal(testInstance, testCase.expectedEndpoints, api.getEndpoints)
			require.Len(testInstance, presenter.results, 1)
			require.Equal(testInstance, testCase.expectedResult, presenter.results[0].name)
		})
	}
}

func TestTeamCommandMembership(testInstance *testing.T) {
	api := &stubGitHubAPI{}
	presenter := &recordingPresenter{}
	builder := team.CommandBuilder{
		PresenterProvider:     func() ui.Presenter { return presenter },
		ConfigurationProvider: testConfiguration,
		GitHubClient:          api,
	}

	require.NoError(testInstance, executeTeamCommand(testInstance, builder, []string{"add-member", "octocat", "--role", "MAINTAINER"}))
	require.Equal(testInstance, []putInvocation{{
		endpoint: "orgs/acme/teams/platform/memberships/octocat",
		payload:  map[string]string{"role": "maintainer"},
	}}, api.putInvocations)

	require.NoError(testInstance, executeTeamCommand(testInstance, builder, []string{"remove-member", "octocat"}))
	require.Equal(testInstance, []string{"orgs/acme/teams/platform/memberships/octocat"}, api.deleteEndpoints)
	require.Contains(testInstance, presenter.messages(), "Removed octocat from team platform.")

	roleError := executeTeamCommand(testInstance, builder, []string{"add-member", "octocat", "--role", "owner"})
	require.ErrorContains(testInstance, roleError, "unsupported role")
	require.Len(testInstance, api.putInvocations, 1)
}

func TestTeamCommandClone(testInstance *testing.T) {
	destination := testInstance.TempDir()
	api := &stubGitHubAPI{responses: map[string]githubcli.Response{testRepositoriesEndpoint: repositoryItems("billing")}}
	cloner := &recordingCloner{}
	presenter := &recordingPresenter{}
	builder := team.CommandBuilder{
		PresenterProvider:     func() ui.Presenter { return presenter },
		ConfigurationProvider: testConfiguration,
		GitHubClient:          api,
		Cloner:                cloner,
	}

	require.NoError(testInstance, executeTeamCommand(testInstance, builder, []string{"clone", "--destination", destination}))
	require.Len(testInstance, cloner.sortedRequests(), 1)
	require.Len(testInstance, presenter.results, 1)
	require.Equal(testInstance, "team_clone", presenter.results[0].name)
}

func TestTeamCommandReportsMissingTeam(testInstance *testing.T) {
	builder := team.CommandBuilder{
		PresenterProvider: func() ui.Presenter { return &recordingPresenter{} },
		GitHubClient:      &stubGitHubAPI{},
	}

	executionError := executeTeamCommand(testInstance, builder, []string{"members", "--organisation", "acme"})

	require.ErrorIs(testInstance, executionError, team.ErrTeamRequired)
}

func TestConfigurationSanitize(testInstance *testing.T) {
	sanitized := team.Configuration{
		Organisation:        " acme ",
		Team:                " platform ",
		IgnoredRepositories: []string{" legacy ", " "},
		CloneProtocol:       " https ",
	}.Sanitize()

	require.Equal(testInstance, "acme", sanitized.Organisation)
	require.Equal(testInstance, "platform", sanitized.Team)
	require.Equal(testInstance, []string{"legacy"}, sanitized.IgnoredRepositories)
	require.Equal(testInstance, 4, sanitized.CloneWorkers)
	require.Equal(testInstance, "https", sanitized.CloneProtocol)

	defaults := team.DefaultConfigurationValues("tools.team")
	require.Equal(testInstance, 4, defaults["tools.team.clone_workers"])
	require.Equal(testInstance, "ssh", defaults["tools.team.clone_protocol"])
	require.Equal(testInstance, "main", defaults["tools.team.clone_branch"])
}
