package githubcli

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/temirov/depbump/internal/execshell"
)

const (
	pullRequestSubcommandConstant      = "pr"
	createSubcommandConstant           = "create"
	apiSubcommandConstant              = "api"
	titleFlagConstant                  = "--title"
	bodyFlagConstant                   = "--body"
	headFlagConstant                   = "--head"
	baseFlagConstant                   = "--base"
	paginateFlagConstant               = "--paginate"
	methodFlagConstant                 = "-X"
	inputFlagConstant                  = "--input"
	stdinReferenceConstant             = "-"
	acceptHeaderFlagConstant           = "-H"
	acceptHeaderValueConstant          = "Accept: application/vnd.github+json"
	httpMethodPutConstant              = "PUT"
	httpMethodDeleteConstant           = "DELETE"
	endpointPathSeparatorConstant      = "/"
	workingDirectoryFieldNameConstant  = "working_directory"
	titleFieldNameConstant             = "title"
	headBranchFieldNameConstant        = "head_branch"
	endpointFieldNameConstant          = "endpoint"
	createPullRequestOperationConstant = OperationName("CreatePullRequest")
	getOperationNameConstant           = OperationName("Get")
	putOperationNameConstant           = OperationName("Put")
	deleteOperationNameConstant        = OperationName("Delete")
)

// PullRequestRequest describes a pull request to open from a pushed branch.
type PullRequestRequest struct {
	WorkingDirectory string
	Title            string
	Body             string
	HeadBranch       string
	BaseBranch       string
}

// GitHubCommandExecutor is the minimal interface required from execshell.ShellExecutor.
type GitHubCommandExecutor interface {
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Client coordinates gh invocations through execshell.
type Client struct {
	executor GitHubCommandExecutor
}

// NewClient constructs a GitHub CLI client.
func NewClient(executor GitHubCommandExecutor) (*Client, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &Client{executor: executor}, nil
}

// CreatePullRequest opens a pull request with gh pr create inside the
// repository working directory and returns the URL gh prints.
func (client *Client) CreatePullRequest(executionContext context.Context, request PullRequestRequest) (string, error) {
	if len(strings.TrimSpace(request.WorkingDirectory)) == 0 {
		return "", InvalidInputError{FieldName: workingDirectoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(request.Title)) == 0 {
		return "", InvalidInputError{FieldName: titleFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(request.HeadBranch)) == 0 {
		return "", InvalidInputError{FieldName: headBranchFieldNameConstant, Message: requiredValueMessageConstant}
	}

	arguments := []string{
		pullRequestSubcommandConstant,
		createSubcommandConstant,
		titleFlagConstant,
		request.Title,
		bodyFlagConstant,
		request.Body,
		headFlagConstant,
		request.HeadBranch,
	}
	if baseBranch := strings.TrimSpace(request.BaseBranch); len(baseBranch) > 0 {
		arguments = append(arguments, baseFlagConstant, baseBranch)
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: request.WorkingDirectory,
	})
	if executionError != nil {
		return "", OperationError{Operation: createPullRequestOperationConstant, Cause: executionError}
	}

	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// Get issues a paginated GET request against the GitHub REST API.
func (client *Client) Get(executionContext context.Context, endpoint string) (Response, error) {
	normalizedEndpoint, validationError := normalizeEndpoint(endpoint)
	if validationError != nil {
		return Response{}, validationError
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{
		Arguments: []string{
			apiSubcommandConstant,
			normalizedEndpoint,
			paginateFlagConstant,
			acceptHeaderFlagConstant,
			acceptHeaderValueConstant,
		},
	})
	if executionError != nil {
		return Response{}, OperationError{Operation: getOperationNameConstant, Cause: executionError}
	}

	response, decodingError := decodeResponse(executionResult.StandardOutput)
	if decodingError != nil {
		return Response{}, ResponseDecodingError{Operation: getOperationNameConstant, Cause: decodingError}
	}
	return response, nil
}

// Put sends payload as a JSON body.
func (client *Client) Put(executionContext context.Context, endpoint string, payload any) (Response, error) {
	normalizedEndpoint, validationError := normalizeEndpoint(endpoint)
	if validationError != nil {
		return Response{}, validationError
	}

	payloadBytes, encodingError := json.Marshal(payload)
	if encodingError != nil {
		return Response{}, PayloadEncodingError{Operation: putOperationNameConstant, Cause: encodingError}
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{
		Arguments: []string{
			apiSubcommandConstant,
			normalizedEndpoint,
			methodFlagConstant,
			httpMethodPutConstant,
			inputFlagConstant,
			stdinReferenceConstant,
			acceptHeaderFlagConstant,
			acceptHeaderValueConstant,
		},
		StandardInput: payloadBytes,
	})
	if executionError != nil {
		return Response{}, OperationError{Operation: putOperationNameConstant, Cause: executionError}
	}

	response, decodingError := decodeResponse(executionResult.StandardOutput)
	if decodingError != nil {
		return Response{}, ResponseDecodingError{Operation: putOperationNameConstant, Cause: decodingError}
	}
	return response, nil
}

// Delete issues a DELETE request. GitHub answers these with an empty body.
func (client *Client) Delete(executionContext context.Context, endpoint string) error {
	normalizedEndpoint, validationError := normalizeEndpoint(endpoint)
	if validationError != nil {
		return validationError
	}

	_, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{
		Arguments: []string{
			apiSubcommandConstant,
			normalizedEndpoint,
			methodFlagConstant,
			httpMethodDeleteConstant,
			acceptHeaderFlagConstant,
			acceptHeaderValueConstant,
		},
	})
	if executionError != nil {
		return OperationError{Operation: deleteOperationNameConstant, Cause: executionError}
	}
	return nil
}

func normalizeEndpoint(endpoint string) (string, error) {
	normalizedEndpoint := strings.TrimLeft(strings.TrimSpace(endpoint), endpointPathSeparatorConstant)
	if len(normalizedEndpoint) == 0 {
		return "", InvalidInputError{FieldName: endpointFieldNameConstant, Message: requiredValueMessageConstant}
	}
	return normalizedEndpoint, nil
}
