package upgrade

import (
	"strings"

	"github.com/temirov/depbump/internal/scanner"
	pathutils "github.com/temirov/depbump/internal/utils/path"
)

var upgradeConfigurationHomeDirectoryExpander = pathutils.NewHomeExpander()

const (
	defaultRemoteNameConstant     = "origin"
	rootConfigurationKeySuffix    = ".root"
	extensionsConfigurationSuffix = ".extensions"
	downgradeConfigurationSuffix  = ".only_downgrade_protect"
	skipMajorConfigurationSuffix  = ".skip_major"
	workersConfigurationSuffix    = ".workers"
	remoteConfigurationSuffix     = ".remote"
	defaultScalaExtensionConstant = ".scala"
	defaultSbtExtensionConstant   = ".sbt"
)

// Configuration stores defaults for the upgrade command.
type Configuration struct {
	Root                 string   `mapstructure:"root"`
	Extensions           []string `mapstructure:"extensions"`
	OnlyDowngradeProtect bool     `mapstructure:"only_downgrade_protect"`
	SkipMajor            bool     `mapstructure:"skip_major"`
	Workers              int      `mapstructure:"workers"`
	Remote               string   `mapstructure:"remote"`
}

// DefaultConfiguration supplies baseline values for the upgrade command.
func DefaultConfiguration() Configuration {
	return Configuration{
		Extensions: []string{defaultScalaExtensionConstant, defaultSbtExtensionConstant},
		SkipMajor:  true,
		Workers:    scanner.DefaultWorkerCount,
		Remote:     defaultRemoteNameConstant,
	}
}

// DefaultConfigurationValues exposes DefaultConfiguration as viper defaults under prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultConfiguration()
	return map[string]any{
		prefix + rootConfigurationKeySuffix:    defaults.Root,
		prefix + extensionsConfigurationSuffix: defaults.Extensions,
		prefix + downgradeConfigurationSuffix:  defaults.OnlyDowngradeProtect,
		prefix + skipMajorConfigurationSuffix:  defaults.SkipMajor,
		prefix + workersConfigurationSuffix:    defaults.Workers,
		prefix + remoteConfigurationSuffix:     defaults.Remote,
	}
}

// Sanitize trims values, expands the home directory and restores defaults for unset fields.
func (configuration Configuration) Sanitize() Configuration {
	sanitized := configuration
	sanitized.Root = strings.TrimSpace(configuration.Root)
	if len(sanitized.Root) > 0 {
		sanitized.Root = upgradeConfigurationHomeDirectoryExpander.Expand(sanitized.Root)
	}

	sanitized.Extensions = nil
	for _, extension := range configuration.Extensions {
		sanitized.Extensions = append(sanitized.Extensions, scanner.ParseExtensions(extension)...)
	}

	if sanitized.Workers <= 0 {
		sanitized.Workers = scanner.DefaultWorkerCount
	}
	sanitized.Remote = strings.TrimSpace(configuration.Remote)
	if len(sanitized.Remote) == 0 {
		sanitized.Remote = defaultRemoteNameConstant
	}
	return sanitized
}
