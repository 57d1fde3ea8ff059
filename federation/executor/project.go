package executor

import (
	"fmt"

	"github.com/n9te9/stargate/federation/plan"
)

// project builds the object a Fetch's requires selection set picks out of
// source. A Field recurses into its own Selections, never the selection set
// it was found in — conflating the two was a bug in the implementation this
// projector was modeled on, reproducing it would silently drop fields
// whenever a nested list or object field carried its own sub-selections.
func project(source any, selections plan.SelectionSet) (any, error) {
	if source == nil {
		return nil, nil
	}

	result := make(map[string]any)
	for _, sel := range selections {
		switch s := sel.(type) {
		case plan.Field:
			obj, ok := source.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: %q requested on a non-object value", ErrFieldMissing, s.Name)
			}
			val, exists := obj[s.Name]
			if !exists {
				return nil, fmt.Errorf("%w: %q", ErrFieldMissing, s.Name)
			}

			key := s.ResponseKey()
			switch v := val.(type) {
			case []any:
				if len(s.Selections) == 0 {
					copied := make([]any, len(v))
					copy(copied, v)
					result[key] = copied
					continue
				}
				projected := make([]any, len(v))
				for i, elem := range v {
					p, err := project(elem, s.Selections)
					if err != nil {
						return nil, err
					}
					projected[i] = p
				}
				result[key] = projected
			case map[string]any:
				if len(s.Selections) == 0 {
					result[key] = v
					continue
				}
				p, err := project(v, s.Selections)
				if err != nil {
					return nil, err
				}
				result[key] = p
			default:
				result[key] = v
			}

		case plan.InlineFragment:
			obj, ok := source.(map[string]any)
			if !ok {
				continue
			}
			if s.TypeCondition != "" {
				typename, _ := obj["__typename"].(string)
				if typename != s.TypeCondition {
					continue
				}
			}
			sub, err := project(obj, s.Selections)
			if err != nil {
				return nil, err
			}
			if subObj, ok := sub.(map[string]any); ok {
				for k, v := range subObj {
					result[k] = v
				}
			}
		}
	}

	return result, nil
}

// buildRepresentations projects source (an object or an array of objects)
// through requires, keeping only the projections that resolved to an object
// carrying __typename, and records which entity in source each kept
// projection came from.
func buildRepresentations(source any, requires plan.SelectionSet) (representations []any, repsToEntity []int, err error) {
	representations = []any{}
	repsToEntity = []int{}

	switch v := source.(type) {
	case []any:
		for i, elem := range v {
			p, err := project(elem, requires)
			if err != nil {
				return nil, nil, err
			}
			if obj, ok := p.(map[string]any); ok {
				if _, hasTypename := obj["__typename"]; hasTypename {
					representations = append(representations, obj)
					repsToEntity = append(repsToEntity, i)
				}
			}
		}
	case map[string]any:
		p, err := project(v, requires)
		if err != nil {
			return nil, nil, err
		}
		if obj, ok := p.(map[string]any); ok {
			if _, hasTypename := obj["__typename"]; hasTypename {
				representations = append(representations, obj)
				repsToEntity = append(repsToEntity, 0)
			}
		}
	}

	return representations, repsToEntity, nil
}
