package spec

import (
	"strings"

	"github.com/n9te9/graphql-parser/ast"
)

// ResolveLinkedDirectiveNames reads every `@link(url: ..., import: [...])`
// directive on the schema definition and returns a map from a federation
// directive's canonical bare name (e.g. "key") to the local name it is
// written under in this document (e.g. "key", or "fedKey" for an entry
// imported as `{name: "@key", as: "@fedKey"}`). A canonical name absent from
// any @link import is left unmapped; DirectiveName falls back to the
// canonical name for those, matching a schema that uses the federation
// directives directly with no @link at all.
func ResolveLinkedDirectiveNames(doc *ast.Document) map[string]string {
	names := map[string]string{}

	sd, err := schemaDefinition(doc)
	if err != nil {
		return names
	}

	for _, dir := range sd.Directives {
		if dir.Name != "link" {
			continue
		}

		for _, arg := range dir.Arguments {
			if arg.Name.String() != "import" {
				continue
			}

			lv, ok := arg.Value.(*ast.ListValue)
			if !ok {
				continue
			}

			for _, item := range lv.Values {
				switch v := item.(type) {
				case *ast.StringValue:
					bare := strings.TrimPrefix(v.Value, "@")
					names[bare] = bare
				case *ast.ObjectValue:
					var name, as string
					for _, f := range v.Fields {
						sv, ok := f.Value.(*ast.StringValue)
						if !ok {
							continue
						}
						switch f.Name.String() {
						case "name":
							name = strings.TrimPrefix(sv.Value, "@")
						case "as":
							as = strings.TrimPrefix(sv.Value, "@")
						}
					}
					if name == "" {
						continue
					}
					if as == "" {
						as = name
					}
					names[name] = as
				}
			}
		}
	}

	return names
}

// DirectiveName returns the local name a canonical federation directive is
// written under, given a document's resolved link imports. A canonical name
// with no entry in names resolves to itself.
func DirectiveName(names map[string]string, canonical string) string {
	if local, ok := names[canonical]; ok {
		return local
	}
	return canonical
}
