package spec

import (
	"github.com/n9te9/graphql-parser/ast"
)

// SourcePos is a diagnostic-only source position. It is carried on a Feature
// for error reporting and never gates behavior.
type SourcePos struct {
	Line   int
	Column int
}

// Feature is a per-document request for a Spec, extracted from a directive's
// `feature` argument.
type Feature struct {
	Spec     Spec
	Name     string
	Position SourcePos
}

// FeatureFromDirective extracts a Feature from a directive's arguments.
//
// It returns (nil, nil) if the directive carries no string "feature"
// argument at all, (nil, err) if it does but the value fails to parse as a
// spec URL, and (feature, nil) on success. Name comes from the "as" string
// argument when present, otherwise from the spec's default name.
func FeatureFromDirective(dir *ast.Directive) (*Feature, error) {
	var featureURL string
	var haveFeature bool
	var prefix string
	var havePrefix bool

	for _, arg := range dir.Arguments {
		if arg.Name.String() == "feature" {
			if sv, ok := arg.Value.(*ast.StringValue); ok {
				featureURL = sv.Value
				haveFeature = true
			}
		}
		if arg.Name.String() == "as" {
			if sv, ok := arg.Value.(*ast.StringValue); ok {
				prefix = sv.Value
				havePrefix = true
			}
		}
	}

	if !haveFeature {
		return nil, nil
	}

	parsed, err := ParseSpec(featureURL)
	if err != nil {
		return nil, err
	}

	name := parsed.Name
	if havePrefix {
		name = prefix
	}

	// Position is left at its zero value: ast.Directive (see the teacher's
	// copyDirectives in federation/graph/super_graph_v2.go) only ever exposes
	// Name and Arguments, with no source position on the directive or its
	// Name. Nothing in the parser surface this package can see carries one.
	return &Feature{
		Spec: parsed,
		Name: name,
	}, nil
}
