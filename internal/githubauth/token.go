// Package githubauth resolves GitHub credentials for in-process git transports.
package githubauth

import (
	"os"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

// Environment variable names consulted for a GitHub token, in preference order.
const (
	EnvGitHubCLIToken = "GH_TOKEN"
	EnvGitHubToken    = "GITHUB_TOKEN"
	EnvGitHubAPIToken = "GITHUB_API_TOKEN"
)

const (
	httpsSchemePrefixConstant = "https://"
	tokenUsernameConstant     = "x-access-token"
)

var tokenPreference = []string{
	EnvGitHubCLIToken,
	EnvGitHubToken,
	EnvGitHubAPIToken,
}

// ResolveToken returns the first non-empty token found in environment, then in
// the process environment.
func ResolveToken(environment map[string]string) (string, bool) {
	for _, key := range tokenPreference {
		if value, ok := lookup(environment, key); ok {
			return value, true
		}
	}
	for _, key := range tokenPreference {
		if value, ok := os.LookupEnv(key); ok {
			value = strings.TrimSpace(value)
			if len(value) > 0 {
				return value, true
			}
		}
	}
	return "", false
}

// CloneAuth returns token basic auth for https remotes when a token is
// available. Other remotes get nil so go-git falls back to its ssh agent.
func CloneAuth(remoteURL string, environment map[string]string) transport.AuthMethod {
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(remoteURL)), httpsSchemePrefixConstant) {
		return nil
	}
	token, found := ResolveToken(environment)
	if !found {
		return nil
	}
	return &githttp.BasicAuth{Username: tokenUsernameConstant, Password: token}
}

func lookup(environment map[string]string, key string) (string, bool) {
	if environment == nil {
		return "", false
	}
	value, exists := environment[key]
	if !exists {
		return "", false
	}
	value = strings.TrimSpace(value)
	if len(value) == 0 {
		return "", false
	}
	return value, true
}
