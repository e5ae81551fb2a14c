package searchreplace

import (
	"strings"

	"github.com/temirov/depbump/internal/scanner"
	pathutils "github.com/temirov/depbump/internal/utils/path"
)

var searchReplaceHomeDirectoryExpander = pathutils.NewHomeExpander()

const (
	rootConfigurationSuffix       = ".root"
	extensionsConfigurationSuffix = ".extensions"
	workersConfigurationSuffix    = ".workers"
)

var defaultExtensions = []string{".scala", ".sbt", ".txt", ".json"}

// Configuration stores defaults for the search-replace command.
type Configuration struct {
	Root       string   `mapstructure:"root"`
	Extensions []string `mapstructure:"extensions"`
	Workers    int      `mapstructure:"workers"`
}

// DefaultConfiguration supplies baseline values for the search-replace command.
func DefaultConfiguration() Configuration {
	return Configuration{
		Extensions: append([]string(nil), defaultExtensions...),
		Workers:    scanner.DefaultWorkerCount,
	}
}

// DefaultConfigurationValues exposes DefaultConfiguration as viper defaults under prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultConfiguration()
	return map[string]any{
		prefix + rootConfigurationSuffix:       defaults.Root,
		prefix + extensionsConfigurationSuffix: defaults.Extensions,
		prefix + workersConfigurationSuffix:    defaults.Workers,
	}
}

// Sanitize trims values and restores the default worker count.
func (configuration Configuration) Sanitize() Configuration {
	sanitized := configuration
	sanitized.Root = searchReplaceHomeDirectoryExpander.Expand(strings.TrimSpace(configuration.Root))
	sanitized.Extensions = nil
	for _, extension := range configuration.Extensions {
		sanitized.Extensions = append(sanitized.Extensions, scanner.ParseExtensions(extension)...)
	}
	if sanitized.Workers <= 0 {
		sanitized.Workers = scanner.DefaultWorkerCount
	}
	return sanitized
}
