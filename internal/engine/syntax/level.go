package syntax

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// Feature is a language construct whose availability depends on the PHP version.
type Feature int

const (
	FeatureCoalesce Feature = iota
	FeatureCoalesceAssign
)

var featureSince = map[Feature]string{
	FeatureCoalesce:       "v7.0.0",
	FeatureCoalesceAssign: "v7.4.0",
}

// DefaultLevel is used when no php_version is configured.
var DefaultLevel = MustLevel("8.3")

// Level is a PHP language level such as "7.4" or "8.2".
type Level struct {
	canonical string
}

func ParseLevel(raw string) (Level, error) {
	v := strings.TrimPrefix(strings.TrimSpace(raw), "v")
	if v == "" {
		return Level{}, fmt.Errorf("php version must not be empty")
	}
	candidate := "v" + v
	if !semver.IsValid(candidate) {
		return Level{}, fmt.Errorf("invalid php version %q", raw)
	}
	return Level{canonical: semver.Canonical(candidate)}, nil
}

func MustLevel(raw string) Level {
	l, err := ParseLevel(raw)
	if err != nil {
		panic(err)
	}
	return l
}

func (l Level) String() string {
	if l.canonical == "" {
		return "unknown"
	}
	return strings.TrimPrefix(semver.MajorMinor(l.canonical), "v")
}

// Supports reports whether the level includes the feature. The zero Level supports nothing.
func (l Level) Supports(f Feature) bool {
	since, ok := featureSince[f]
	if !ok || l.canonical == "" {
		return false
	}
	return semver.Compare(l.canonical, since) >= 0
}
