package rewrite_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/depbump/internal/rewrite"
	"github.com/temirov/depbump/internal/versions"
)

func TestParseLibrarySpecs(testInstance *testing.T) {
	rawLines := []string{
		"org.mockito:mockito-core:6.1.2\norg.scalatest:scalatest:3.2.19",
		"   ",
		"broken-line",
		" uk.gov : play-json : 2.10.0-RC1 ",
		"a:b:c:d",
		"group::1.0.0",
	}

	specs, warnings := rewrite.ParseLibrarySpecs(rawLines)

	require.Len(testInstance, specs, 3)
	require.Equal(testInstance, "org.mockito:mockito-core", specs[0].Key())
	require.Equal(testInstance, "6.1.2", specs[0].Version)
	require.Equal(testInstance, versions.Version{Major: 3, Minor: 2, Patch: 19}, specs[1].VersionTriple)
	require.Equal(testInstance, "uk.gov", specs[2].Group)
	require.Equal(testInstance, "play-json", specs[2].Artifact)
	require.Equal(testInstance, "2.10.0-RC1", specs[2].Version)
	require.Equal(testInstance, []string{
		"Invalid format: broken-line",
		"Invalid format: a:b:c:d",
		"Invalid format: group::1.0.0",
	}, warnings)
}
