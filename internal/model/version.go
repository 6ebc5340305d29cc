package model

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseVersionNumber splits a "major.minor" version string.
func ParseVersionNumber(version string) (major, minor int, err error) {
	parts := strings.SplitN(version, ".", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid version number: %q", version)
	}

	major, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid version number: %q", version)
	}

	minor, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid version number: %q", version)
	}

	return major, minor, nil
}

// NextVersionNumber computes the version number slot a new version of the
// given type would occupy. A new measure always starts its lineage at 1.0.
func NextVersionNumber(current string, versionType NewVersionType) (string, error) {
	if versionType == VersionTypeNewMeasure {
		return "1.0", nil
	}

	major, minor, err := ParseVersionNumber(current)
	if err != nil {
		return "", err
	}

	switch versionType {
	case VersionTypeMinor:
		return fmt.Sprintf("%d.%d", major, minor+1), nil
	case VersionTypeMajor:
		return fmt.Sprintf("%d.0", major+1), nil
	}

	return "", fmt.Errorf("unknown version type: %q", versionType)
}
