package gitworkflow

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/temirov/depbump/internal/rewrite"
)

const (
	branchNamePrefixConstant           = "upgrade-"
	branchNamePartTemplateConstant     = "%s-%s"
	branchNamePartSeparatorConstant    = "_"
	branchNameReplacementConstant      = "-"
	branchCollisionSuffixTemplate      = "%s-%d"
	singleLibraryTitleTemplate         = "Upgrade %s to %s"
	singleLibraryBodyTemplate          = "Bumps %s:%s to version %s."
	multipleLibrariesTitlePrefix       = "Upgrade libraries: "
	multipleLibrariesTitlePartTemplate = "%s → %s"
	multipleLibrariesTitleSeparator    = ", "
	multipleLibrariesBodyHeader        = "Bumps the following dependencies:"
	multipleLibrariesBodyLineTemplate  = "\n  - %s:%s → %s"
	commitMessageTemplate              = "%s\n\n%s"
	pullRequestBodyHeader              = "## Library Upgrades\n\n| Group | Artifact | New Version |\n|-------|----------|-------------|"
	pullRequestBodyRowTemplate         = "\n| `%s` | `%s` | `%s` |"
)

var branchNameDisallowedCharacters = regexp.MustCompile(`[^a-zA-Z0-9._/-]`)

// BuildBranchName joins "upgrade-" with artifact-version pairs and replaces
// every character outside [a-zA-Z0-9._/-] with "-".
func BuildBranchName(libraries []rewrite.LibrarySpec) string {
	parts := make([]string, 0, len(libraries))
	for _, library := range libraries {
		parts = append(parts, fmt.Sprintf(branchNamePartTemplateConstant, library.Artifact, library.Version))
	}
	rawName := branchNamePrefixConstant + strings.Join(parts, branchNamePartSeparatorConstant)
	return branchNameDisallowedCharacters.ReplaceAllString(rawName, branchNameReplacementConstant)
}

// CandidateBranchName returns the base name for attempt 1 and base-N afterwards.
func CandidateBranchName(baseName string, attempt int) string {
	if attempt <= 1 {
		return baseName
	}
	return fmt.Sprintf(branchCollisionSuffixTemplate, baseName, attempt)
}

// BuildCommitTitle renders the first line of the commit message, which is
// also the pull request title.
func BuildCommitTitle(libraries []rewrite.LibrarySpec) string {
	if len(libraries) == 1 {
		return fmt.Sprintf(singleLibraryTitleTemplate, libraries[0].Artifact, libraries[0].Version)
	}
	parts := make([]string, 0, len(libraries))
	for _, library := range libraries {
		parts = append(parts, fmt.Sprintf(multipleLibrariesTitlePartTemplate, library.Artifact, library.Version))
	}
	return multipleLibrariesTitlePrefix + strings.Join(parts, multipleLibrariesTitleSeparator)
}

// BuildCommitMessage renders the full commit message.
func BuildCommitMessage(libraries []rewrite.LibrarySpec) string {
	if len(libraries) == 1 {
		library := libraries[0]
		return fmt.Sprintf(commitMessageTemplate, BuildCommitTitle(libraries), fmt.Sprintf(singleLibraryBodyTemplate, library.Group, library.Artifact, library.Version))
	}

	var body strings.Builder
	body.WriteString(multipleLibrariesBodyHeader)
	for _, library := range libraries {
		fmt.Fprintf(&body, multipleLibrariesBodyLineTemplate, library.Group, library.Artifact, library.Version)
	}
	return fmt.Sprintf(commitMessageTemplate, BuildCommitTitle(libraries), body.String())
}

// BuildPullRequestBody renders the markdown table of upgraded libraries.
func BuildPullRequestBody(libraries []rewrite.LibrarySpec) string {
	var body strings.Builder
	body.WriteString(pullRequestBodyHeader)
	for _, library := range libraries {
		fmt.Fprintf(&body, pullRequestBodyRowTemplate, library.Group, library.Artifact, library.Version)
	}
	return body.String()
}
