package plan

import (
	"encoding/json"
	"fmt"
)

// MarshalJSON encodes the plan using the wire format's top-level
// {"kind":"QueryPlan","node":...} envelope.
func (p QueryPlan) MarshalJSON() ([]byte, error) {
	var node json.RawMessage
	if p.Node != nil {
		encoded, err := encodeNode(p.Node)
		if err != nil {
			return nil, err
		}
		node = encoded
	} else {
		node = []byte("null")
	}

	return json.Marshal(struct {
		Kind string          `json:"kind"`
		Node json.RawMessage `json:"node"`
	}{Kind: "QueryPlan", Node: node})
}

// UnmarshalJSON decodes a plan document produced by MarshalJSON (or by an
// external planner using the same wire format).
func (p *QueryPlan) UnmarshalJSON(data []byte) error {
	var envelope struct {
		Kind string          `json:"kind"`
		Node json.RawMessage `json:"node"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	if envelope.Kind != "QueryPlan" {
		return fmt.Errorf("plan: unexpected top-level kind %q", envelope.Kind)
	}
	if len(envelope.Node) == 0 || string(envelope.Node) == "null" {
		p.Node = nil
		return nil
	}

	node, err := decodeNode(envelope.Node)
	if err != nil {
		return err
	}
	p.Node = node
	return nil
}

type nodeKind struct {
	Kind string `json:"kind"`
}

func encodeNode(n PlanNode) (json.RawMessage, error) {
	switch v := n.(type) {
	case Sequence:
		return json.Marshal(struct {
			Kind  string     `json:"kind"`
			Nodes []encNode  `json:"nodes"`
		}{Kind: "Sequence", Nodes: encNodes(v.Nodes)})
	case Parallel:
		return json.Marshal(struct {
			Kind  string    `json:"kind"`
			Nodes []encNode `json:"nodes"`
		}{Kind: "Parallel", Nodes: encNodes(v.Nodes)})
	case Fetch:
		requires, err := encodeSelectionSet(v.Requires)
		if err != nil {
			return nil, err
		}
		return json.Marshal(struct {
			Kind           string          `json:"kind"`
			ServiceName    string          `json:"serviceName"`
			VariableUsages []string        `json:"variableUsages"`
			Requires       json.RawMessage `json:"requires,omitempty"`
			Operation      string          `json:"operation"`
		}{
			Kind:           "Fetch",
			ServiceName:    v.ServiceName,
			VariableUsages: nonNilStrings(v.VariableUsages),
			Requires:       requires,
			Operation:      v.Operation,
		})
	case Flatten:
		path, err := encodePath(v.Path)
		if err != nil {
			return nil, err
		}
		node, err := encodeNode(v.Node)
		if err != nil {
			return nil, err
		}
		return json.Marshal(struct {
			Kind string          `json:"kind"`
			Path json.RawMessage `json:"path"`
			Node json.RawMessage `json:"node"`
		}{Kind: "Flatten", Path: path, Node: node})
	default:
		return nil, fmt.Errorf("plan: unknown node type %T", n)
	}
}

// encNode carries a pre-encoded child so the outer json.Marshal call can
// embed it as a raw value inside a slice.
type encNode struct {
	raw json.RawMessage
}

func (e encNode) MarshalJSON() ([]byte, error) { return e.raw, nil }

func encNodes(nodes []PlanNode) []encNode {
	out := make([]encNode, len(nodes))
	for i, n := range nodes {
		raw, err := encodeNode(n)
		if err != nil {
			// encodeNode only fails on an unknown node type, which cannot
			// occur for a tree built through this package's constructors.
			raw = []byte("null")
		}
		out[i] = encNode{raw: raw}
	}
	return out
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func decodeNode(data json.RawMessage) (PlanNode, error) {
	var k nodeKind
	if err := json.Unmarshal(data, &k); err != nil {
		return nil, err
	}

	switch k.Kind {
	case "Sequence", "Parallel":
		var raw struct {
			Nodes []json.RawMessage `json:"nodes"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		nodes := make([]PlanNode, len(raw.Nodes))
		for i, n := range raw.Nodes {
			decoded, err := decodeNode(n)
			if err != nil {
				return nil, err
			}
			nodes[i] = decoded
		}
		if k.Kind == "Sequence" {
			return Sequence{Nodes: nodes}, nil
		}
		return Parallel{Nodes: nodes}, nil

	case "Fetch":
		var raw struct {
			ServiceName    string            `json:"serviceName"`
			VariableUsages []string          `json:"variableUsages"`
			Requires       json.RawMessage   `json:"requires"`
			Operation      string            `json:"operation"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		requires, err := decodeSelectionSet(raw.Requires)
		if err != nil {
			return nil, err
		}
		return Fetch{
			ServiceName:    raw.ServiceName,
			VariableUsages: raw.VariableUsages,
			Requires:       requires,
			Operation:      raw.Operation,
		}, nil

	case "Flatten":
		var raw struct {
			Path []json.RawMessage `json:"path"`
			Node json.RawMessage   `json:"node"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		path, err := decodePath(raw.Path)
		if err != nil {
			return nil, err
		}
		node, err := decodeNode(raw.Node)
		if err != nil {
			return nil, err
		}
		return Flatten{Path: path, Node: node}, nil

	default:
		return nil, fmt.Errorf("plan: unknown node kind %q", k.Kind)
	}
}

func encodeSelectionSet(s SelectionSet) (json.RawMessage, error) {
	if s == nil {
		return nil, nil
	}
	entries := make([]json.RawMessage, len(s))
	for i, sel := range s {
		raw, err := encodeSelection(sel)
		if err != nil {
			return nil, err
		}
		entries[i] = raw
	}
	return json.Marshal(entries)
}

func encodeSelection(s Selection) (json.RawMessage, error) {
	switch v := s.(type) {
	case Field:
		selections, err := encodeSelectionSet(v.Selections)
		if err != nil {
			return nil, err
		}
		return json.Marshal(struct {
			Kind       string          `json:"kind"`
			Alias      string          `json:"alias,omitempty"`
			Name       string          `json:"name"`
			Selections json.RawMessage `json:"selections,omitempty"`
		}{Kind: "Field", Alias: v.Alias, Name: v.Name, Selections: selections})
	case InlineFragment:
		selections, err := encodeSelectionSet(v.Selections)
		if err != nil {
			return nil, err
		}
		return json.Marshal(struct {
			Kind          string          `json:"kind"`
			TypeCondition string          `json:"typeCondition,omitempty"`
			Selections    json.RawMessage `json:"selections"`
		}{Kind: "InlineFragment", TypeCondition: v.TypeCondition, Selections: selections})
	default:
		return nil, fmt.Errorf("plan: unknown selection type %T", s)
	}
}

func decodeSelectionSet(data json.RawMessage) (SelectionSet, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	out := make(SelectionSet, len(entries))
	for i, e := range entries {
		sel, err := decodeSelection(e)
		if err != nil {
			return nil, err
		}
		out[i] = sel
	}
	return out, nil
}

func decodeSelection(data json.RawMessage) (Selection, error) {
	var k nodeKind
	if err := json.Unmarshal(data, &k); err != nil {
		return nil, err
	}

	switch k.Kind {
	case "Field":
		var raw struct {
			Alias      string          `json:"alias"`
			Name       string          `json:"name"`
			Selections json.RawMessage `json:"selections"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		selections, err := decodeSelectionSet(raw.Selections)
		if err != nil {
			return nil, err
		}
		return Field{Alias: raw.Alias, Name: raw.Name, Selections: selections}, nil

	case "InlineFragment":
		var raw struct {
			TypeCondition string          `json:"typeCondition"`
			Selections    json.RawMessage `json:"selections"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		selections, err := decodeSelectionSet(raw.Selections)
		if err != nil {
			return nil, err
		}
		return InlineFragment{TypeCondition: raw.TypeCondition, Selections: selections}, nil

	default:
		return nil, fmt.Errorf("plan: unknown selection kind %q", k.Kind)
	}
}

func encodePath(path []PathElement) (json.RawMessage, error) {
	entries := make([]json.RawMessage, len(path))
	for i, p := range path {
		switch p.Kind {
		case PathField:
			raw, err := json.Marshal(p.Field)
			if err != nil {
				return nil, err
			}
			entries[i] = raw
		case PathIndex:
			raw, err := json.Marshal(p.Index)
			if err != nil {
				return nil, err
			}
			entries[i] = raw
		default:
			return nil, fmt.Errorf("plan: unknown path element kind %v", p.Kind)
		}
	}
	return json.Marshal(entries)
}

func decodePath(raw []json.RawMessage) ([]PathElement, error) {
	out := make([]PathElement, len(raw))
	for i, r := range raw {
		var asString string
		if err := json.Unmarshal(r, &asString); err == nil {
			out[i] = PathElement{Kind: PathField, Field: asString}
			continue
		}
		var asInt int
		if err := json.Unmarshal(r, &asInt); err == nil {
			out[i] = PathElement{Kind: PathIndex, Index: asInt}
			continue
		}
		return nil, fmt.Errorf("plan: path element %s is neither a string nor an integer", string(r))
	}
	return out, nil
}
