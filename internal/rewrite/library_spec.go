package rewrite

import (
	"fmt"
	"strings"

	"github.com/temirov/depbump/internal/versions"
)

const (
	librarySpecSeparatorConstant      = ":"
	librarySpecPartCountConstant      = 3
	libraryKeyTemplateConstant        = "%s:%s"
	invalidLibraryFormatTemplate      = "Invalid format: %s"
	librarySpecLineSeparatorsConstant = "\r\n"
)

// LibrarySpec is one requested upgrade target.
type LibrarySpec struct {
	Group         string
	Artifact      string
	Version       string
	VersionTriple versions.Version
}

// NewLibrarySpec builds a LibrarySpec and parses its version triple.
func NewLibrarySpec(group string, artifact string, version string) LibrarySpec {
	return LibrarySpec{
		Group:         group,
		Artifact:      artifact,
		Version:       version,
		VersionTriple: versions.Parse(version),
	}
}

// Key identifies the library as group:artifact.
func (spec LibrarySpec) Key() string {
	return fmt.Sprintf(libraryKeyTemplateConstant, spec.Group, spec.Artifact)
}

// ParseLibrarySpecs parses group:artifact:version entries, one per line.
// Blank lines are ignored; malformed lines are dropped and reported as warnings.
func ParseLibrarySpecs(rawLines []string) ([]LibrarySpec, []string) {
	var specs []LibrarySpec
	var warnings []string

	for _, rawLine := range rawLines {
		for _, line := range strings.FieldsFunc(rawLine, isLineSeparator) {
			trimmedLine := strings.TrimSpace(line)
			if len(trimmedLine) == 0 {
				continue
			}

			parts := strings.Split(trimmedLine, librarySpecSeparatorConstant)
			if len(parts) != librarySpecPartCountConstant {
				warnings = append(warnings, fmt.Sprintf(invalidLibraryFormatTemplate, trimmedLine))
				continue
			}

			group := strings.TrimSpace(parts[0])
			artifact := strings.TrimSpace(parts[1])
			version := strings.TrimSpace(parts[2])
			if len(group) == 0 || len(artifact) == 0 || len(version) == 0 {
				warnings = append(warnings, fmt.Sprintf(invalidLibraryFormatTemplate, trimmedLine))
				continue
			}

			specs = append(specs, NewLibrarySpec(group, artifact, version))
		}
	}

	return specs, warnings
}

func isLineSeparator(character rune) bool {
	return strings.ContainsRune(librarySpecLineSeparatorsConstant, character)
}
