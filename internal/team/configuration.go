package team

import (
	"strings"

	"github.com/temirov/depbump/internal/gitrepo"
)

const (
	defaultCloneWorkersConstant        = 4
	defaultCloneBranchConstant         = "main"
	organisationConfigurationSuffix    = ".organisation"
	teamConfigurationSuffix            = ".team"
	ignoredConfigurationSuffix         = ".ignored_repositories"
	includeArchivedConfigurationSuffix = ".include_archived_repositories"
	cloneWorkersConfigurationSuffix    = ".clone_workers"
	cloneBranchConfigurationSuffix     = ".clone_branch"
	cloneProtocolConfigurationSuffix   = ".clone_protocol"
)

// Configuration stores the GitHub organisation, team and clone settings.
type Configuration struct {
	Organisation                string   `mapstructure:"organisation"`
	Team                        string   `mapstructure:"team"`
	IgnoredRepositories         []string `mapstructure:"ignored_repositories"`
	IncludeArchivedRepositories bool     `mapstructure:"include_archived_repositories"`
	CloneWorkers                int      `mapstructure:"clone_workers"`
	CloneBranch                 string   `mapstructure:"clone_branch"`
	CloneProtocol               string   `mapstructure:"clone_protocol"`
}

// DefaultConfiguration supplies baseline values for team commands.
func DefaultConfiguration() Configuration {
	return Configuration{
		CloneWorkers:  defaultCloneWorkersConstant,
		CloneBranch:   defaultCloneBranchConstant,
		CloneProtocol: string(gitrepo.RemoteProtocolSSH),
	}
}

// DefaultConfigurationValues exposes DefaultConfiguration as viper defaults under prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultConfiguration()
	return map[string]any{
		prefix + organisationConfigurationSuffix:    defaults.Organisation,
		prefix + teamConfigurationSuffix:            defaults.Team,
		prefix + ignoredConfigurationSuffix:         []string{},
		prefix + includeArchivedConfigurationSuffix: defaults.IncludeArchivedRepositories,
		prefix + cloneWorkersConfigurationSuffix:    defaults.CloneWorkers,
		prefix + cloneBranchConfigurationSuffix:     defaults.CloneBranch,
		prefix + cloneProtocolConfigurationSuffix:   defaults.CloneProtocol,
	}
}

// Sanitize trims values, drops blank ignored repositories and restores defaults.
func (configuration Configuration) Sanitize() Configuration {
	sanitized := configuration
	sanitized.Organisation = strings.TrimSpace(configuration.Organisation)
	sanitized.Team = strings.TrimSpace(configuration.Team)
	sanitized.IgnoredRepositories = nil
	for _, repositoryName := range configuration.IgnoredRepositories {
		trimmedName := strings.TrimSpace(repositoryName)
		if len(trimmedName) == 0 {
			continue
		}
		sanitized.IgnoredRepositories = append(sanitized.IgnoredRepositories, trimmedName)
	}
	if sanitized.CloneWorkers <= 0 {
		sanitized.CloneWorkers = defaultCloneWorkersConstant
	}
	sanitized.CloneBranch = strings.TrimSpace(configuration.CloneBranch)
	sanitized.CloneProtocol = strings.TrimSpace(configuration.CloneProtocol)
	return sanitized
}
