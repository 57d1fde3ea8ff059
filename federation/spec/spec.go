package spec

import (
	"fmt"
	"strings"
)

// Spec identifies a versioned feature specification: a URL-shaped identity
// plus the version segment trailing it, and the default prefix a requesting
// schema uses when it does not rename the feature with `as:`.
type Spec struct {
	Identity string
	Version  Version
	Name     string
}

// ParseSpec parses a spec URL of the form ".../NAME/vMAJOR.MINOR".
// On success, Identity is the URL with the trailing version segment
// stripped, Name is the segment preceding it, and Version is MAJOR.MINOR.
func ParseSpec(url string) (Spec, error) {
	trimmed := strings.TrimRight(url, "/")
	segments := strings.Split(trimmed, "/")
	if len(segments) < 2 {
		return Spec{}, &SpecParseError{URL: url, Reason: ReasonNoVersionSegment}
	}

	versionSegment := segments[len(segments)-1]
	name := segments[len(segments)-2]

	rest := strings.TrimPrefix(versionSegment, "v")
	if rest == versionSegment || rest == "" {
		return Spec{}, &SpecParseError{URL: url, Reason: ReasonNoVersionSegment}
	}

	version, err := ParseVersion(rest)
	if err != nil {
		return Spec{}, &SpecParseError{URL: url, Reason: ReasonInvalidVersion, Err: err}
	}

	if name == "" {
		return Spec{}, &SpecParseError{URL: url, Reason: ReasonEmptyName}
	}

	identity := strings.Join(segments[:len(segments)-1], "/")
	return Spec{Identity: identity, Version: version, Name: name}, nil
}

func (s Spec) String() string {
	return fmt.Sprintf("%s/v%s", s.Identity, s.Version)
}
