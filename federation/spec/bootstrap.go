package spec

import (
	"fmt"

	"github.com/n9te9/graphql-parser/ast"
)

// Activations maps a feature's resolved prefix to the implementation chosen
// for it.
type Activations[T any] map[string]T

// Bootstrap extracts every Feature request from the schema document's
// top-level schema-definition directives, resolves each against impls, and
// returns the resolved Activations alongside the Feature list (for
// diagnostics). A schema document with no schema definition, or a feature
// request with no satisfying implementation, is a startup error — never a
// panic.
func Bootstrap[T any](doc *ast.Document, impls *Implementations[T]) (Activations[T], []*Feature, error) {
	sd, err := schemaDefinition(doc)
	if err != nil {
		return nil, nil, err
	}

	activations := make(Activations[T])
	var features []*Feature

	for _, dir := range sd.Directives {
		feature, err := FeatureFromDirective(dir)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap: %w", err)
		}
		if feature == nil {
			continue
		}

		found := impls.FindFeature(feature)
		first, _, ok := Bounds(found)
		if !ok {
			return nil, nil, fmt.Errorf("bootstrap: no implementation satisfies feature %s requested as %q", feature.Spec, feature.Name)
		}

		activations[feature.Name] = first.Impl
		features = append(features, feature)
	}

	return activations, features, nil
}

// DiscoverFeatures extracts every Feature request from the schema
// definition without resolving it against any Implementations. Useful for
// inspection tooling that wants to know what a schema asks for before any
// implementation set exists to bootstrap against.
func DiscoverFeatures(doc *ast.Document) ([]*Feature, error) {
	sd, err := schemaDefinition(doc)
	if err != nil {
		return nil, err
	}

	var features []*Feature
	for _, dir := range sd.Directives {
		feature, err := FeatureFromDirective(dir)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
		if feature == nil {
			continue
		}
		features = append(features, feature)
	}
	return features, nil
}

// GraphDeclaration is one `@graph(name: "...", url: "...")` entry on the
// schema definition, naming a subgraph the composed schema expects to find
// in the service map at execution time.
type GraphDeclaration struct {
	Name string
	URL  string
}

// ExtractGraphs reads every `@graph` directive on the schema definition and
// returns the declared subgraphs. A schema with no schema definition, or a
// @graph directive missing name or url, is a startup error.
func ExtractGraphs(doc *ast.Document) ([]GraphDeclaration, error) {
	sd, err := schemaDefinition(doc)
	if err != nil {
		return nil, err
	}

	var graphs []GraphDeclaration
	for _, dir := range sd.Directives {
		if dir.Name != "graph" {
			continue
		}

		var name, url string
		var haveName, haveURL bool
		for _, arg := range dir.Arguments {
			sv, ok := arg.Value.(*ast.StringValue)
			if !ok {
				continue
			}
			switch arg.Name.String() {
			case "name":
				name, haveName = sv.Value, true
			case "url":
				url, haveURL = sv.Value, true
			}
		}

		if !haveName || !haveURL {
			return nil, fmt.Errorf("%w: @graph directive missing name or url", ErrMalformedGraphDirective)
		}

		graphs = append(graphs, GraphDeclaration{Name: name, URL: url})
	}

	return graphs, nil
}

func schemaDefinition(doc *ast.Document) (*ast.SchemaDefinition, error) {
	var sd *ast.SchemaDefinition
	for _, def := range doc.Definitions {
		if s, ok := def.(*ast.SchemaDefinition); ok {
			sd = s
		}
	}
	if sd == nil {
		return nil, ErrNoSchemaDefinition
	}
	return sd, nil
}
