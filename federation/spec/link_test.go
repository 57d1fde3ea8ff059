package spec_test

import (
	"testing"

	"github.com/n9te9/stargate/federation/spec"
	"github.com/n9te9/graphql-parser/lexer"
	"github.com/n9te9/graphql-parser/parser"
)

func TestResolveLinkedDirectiveNames_AliasedImport(t *testing.T) {
	src := `
		schema @link(url: "https://specs.apollo.dev/federation/v2.0", import: ["@requires", {name: "@key", as: "@fedKey"}]) {
			query: Query
		}
		type Query { x: String }
	`
	l := lexer.New(src)
	p := parser.New(l)
	doc := p.ParseDocument()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse error: %v", p.Errors())
	}

	names := spec.ResolveLinkedDirectiveNames(doc)
	if got := spec.DirectiveName(names, "key"); got != "fedKey" {
		t.Errorf("expected key aliased to fedKey, got %q", got)
	}
	if got := spec.DirectiveName(names, "requires"); got != "requires" {
		t.Errorf("expected requires unaliased, got %q", got)
	}
	if got := spec.DirectiveName(names, "external"); got != "external" {
		t.Errorf("expected unmentioned directive to fall back to itself, got %q", got)
	}
}

func TestResolveLinkedDirectiveNames_NoLink(t *testing.T) {
	src := `
		schema { query: Query }
		type Query { x: String }
	`
	l := lexer.New(src)
	p := parser.New(l)
	doc := p.ParseDocument()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse error: %v", p.Errors())
	}

	names := spec.ResolveLinkedDirectiveNames(doc)
	if got := spec.DirectiveName(names, "key"); got != "key" {
		t.Errorf("expected key unaliased with no @link, got %q", got)
	}
}
