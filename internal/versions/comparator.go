package versions

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	preReleaseSeparatorConstant = "-"
	segmentSeparatorConstant    = "."
	versionSegmentCountConstant = 3
	versionStringTemplate       = "%d.%d.%d"
)

// Ordering describes the relation between two versions.
type Ordering int

// Ordering values returned by Compare.
const (
	OrderingLess    Ordering = -1
	OrderingEqual   Ordering = 0
	OrderingGreater Ordering = 1
)

// Version is a parsed (major, minor, patch) triple.
type Version struct {
	Major int
	Minor int
	Patch int
}

// Parse converts a raw version string into a Version. Anything after the
// first "-" is discarded, each dot separated segment contributes its leading
// digits, and the result is padded or truncated to three components.
func Parse(rawVersion string) Version {
	withoutSuffix, _, _ := strings.Cut(rawVersion, preReleaseSeparatorConstant)
	segments := strings.Split(withoutSuffix, segmentSeparatorConstant)

	components := make([]int, 0, versionSegmentCountConstant)
	for _, segment := range segments {
		if len(components) == versionSegmentCountConstant {
			break
		}
		components = append(components, leadingNumber(segment))
	}
	for len(components) < versionSegmentCountConstant {
		components = append(components, 0)
	}

	return Version{Major: components[0], Minor: components[1], Patch: components[2]}
}

func leadingNumber(segment string) int {
	digitCount := 0
	for digitCount < len(segment) && segment[digitCount] >= '0' && segment[digitCount] <= '9' {
		digitCount++
	}
	if digitCount == 0 {
		return 0
	}
	parsedValue, parseError := strconv.Atoi(segment[:digitCount])
	if parseError != nil {
		// overflowing digit runs saturate instead of wrapping
		return int(^uint(0) >> 1)
	}
	return parsedValue
}

// Compare orders two versions lexicographically by major, minor, then patch.
func Compare(left Version, right Version) Ordering {
	leftComponents := left.components()
	rightComponents := right.components()
	for index := range leftComponents {
		switch {
		case leftComponents[index] < rightComponents[index]:
			return OrderingLess
		case leftComponents[index] > rightComponents[index]:
			return OrderingGreater
		}
	}
	return OrderingEqual
}

// CompareStrings parses and compares two raw version strings.
func CompareStrings(leftRaw string, rightRaw string) Ordering {
	return Compare(Parse(leftRaw), Parse(rightRaw))
}

// IsMajorBump reports whether the new version has a higher major component than the old one.
func IsMajorBump(oldRaw string, newRaw string) bool {
	return Parse(newRaw).Major > Parse(oldRaw).Major
}

// GreaterThan reports whether version orders strictly after other.
func (version Version) GreaterThan(other Version) bool {
	return Compare(version, other) == OrderingGreater
}

// String renders the triple in dotted form.
func (version Version) String() string {
	return fmt.Sprintf(versionStringTemplate, version.Major, version.Minor, version.Patch)
}

func (version Version) components() [versionSegmentCountConstant]int {
	return [versionSegmentCountConstant]int{version.Major, version.Minor, version.Patch}
}
