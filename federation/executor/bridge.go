package executor

import (
	"fmt"
	"strings"

	"github.com/n9te9/stargate/federation/graph"
	"github.com/n9te9/stargate/federation/plan"
	"github.com/n9te9/stargate/federation/planner"
	"github.com/n9te9/graphql-parser/ast"
)

// BuildQueryPlan translates a PlannerV2 step DAG into the tree-shaped
// Sequence/Parallel/Fetch/Flatten plan the Executor runs. A root step (or
// a group of independent root steps) becomes a Fetch, possibly wrapped in
// a Parallel; every step that DependsOn it becomes a Flatten over that
// dependency's boundary field, wrapped together with its own Fetch in a
// Sequence so the parent's data exists before the child is dispatched.
func BuildQueryPlan(superGraph *graph.SuperGraphV2, p *planner.PlanV2) (plan.QueryPlan, error) {
	if p == nil || len(p.Steps) == 0 {
		return plan.QueryPlan{}, nil
	}

	byID := make(map[int]*planner.StepV2, len(p.Steps))
	var children map[int][]*planner.StepV2 = make(map[int][]*planner.StepV2)
	for _, s := range p.Steps {
		byID[s.ID] = s
		for _, dep := range s.DependsOn {
			children[dep] = append(children[dep], s)
		}
	}

	qb := NewQueryBuilderV2(superGraph)

	roots := p.RootStepIndexes
	if len(roots) == 0 {
		for _, s := range p.Steps {
			if len(s.DependsOn) == 0 {
				roots = append(roots, s.ID)
			}
		}
	}

	nodes := make([]plan.PlanNode, 0, len(roots))
	for _, rootID := range roots {
		root, ok := byID[rootID]
		if !ok {
			return plan.QueryPlan{}, fmt.Errorf("bridge: unknown root step id %d", rootID)
		}
		node, err := buildStepNode(superGraph, qb, byID, children, root, p.OperationType)
		if err != nil {
			return plan.QueryPlan{}, err
		}
		nodes = append(nodes, node)
	}

	if len(nodes) == 1 {
		return plan.QueryPlan{Node: nodes[0]}, nil
	}
	return plan.QueryPlan{Node: plan.Parallel{Nodes: nodes}}, nil
}

func buildStepNode(
	sg *graph.SuperGraphV2,
	qb *QueryBuilderV2,
	byID map[int]*planner.StepV2,
	children map[int][]*planner.StepV2,
	step *planner.StepV2,
	operationType string,
) (plan.PlanNode, error) {
	fetch, err := buildFetch(qb, step, operationType)
	if err != nil {
		return nil, err
	}

	kids := children[step.ID]
	if len(kids) == 0 {
		return fetch, nil
	}

	flattens := make([]plan.PlanNode, 0, len(kids))
	for _, kid := range kids {
		childNode, err := buildStepNode(sg, qb, byID, children, kid, operationType)
		if err != nil {
			return nil, err
		}
		path := buildFlattenPath(sg, step, kid)
		flattens = append(flattens, plan.Flatten{Path: path, Node: childNode})
	}

	var after plan.PlanNode
	if len(flattens) == 1 {
		after = flattens[0]
	} else {
		after = plan.Parallel{Nodes: flattens}
	}

	return plan.Sequence{Nodes: []plan.PlanNode{fetch, after}}, nil
}

func buildFetch(qb *QueryBuilderV2, step *planner.StepV2, operationType string) (plan.Fetch, error) {
	varNames := qb.collectVariables(step.SelectionSet)

	if step.StepType == planner.StepTypeQuery {
		operation, _, err := qb.Build(step, nil, map[string]any{}, operationType)
		if err != nil {
			return plan.Fetch{}, err
		}
		return plan.Fetch{
			ServiceName:    step.SubGraph.Name,
			VariableUsages: varNames,
			Operation:      operation,
		}, nil
	}

	placeholder := []map[string]interface{}{{}}
	operation, _, err := qb.Build(step, placeholder, map[string]any{}, operationType)
	if err != nil {
		return plan.Fetch{}, err
	}

	requires := keyRequires(step)
	return plan.Fetch{
		ServiceName:    step.SubGraph.Name,
		VariableUsages: varNames,
		Requires:       requires,
		Operation:      operation,
	}, nil
}

// keyRequires builds the requires selection set (a single InlineFragment
// over the entity's first key fieldset) a Fetch projects the response tree
// through to produce _entities representations.
func keyRequires(step *planner.StepV2) plan.SelectionSet {
	entity, ok := step.SubGraph.GetEntity(step.ParentType)
	if !ok || len(entity.Keys) == 0 {
		return plan.SelectionSet{
			plan.InlineFragment{
				TypeCondition: step.ParentType,
				Selections:    plan.SelectionSet{plan.Field{Name: "__typename"}},
			},
		}
	}

	fieldSet := entity.Keys[0].FieldSet
	names := strings.Fields(fieldSet)
	fields := make(plan.SelectionSet, 0, len(names)+1)
	fields = append(fields, plan.Field{Name: "__typename"})
	for _, n := range names {
		fields = append(fields, plan.Field{Name: n})
	}

	return plan.SelectionSet{
		plan.InlineFragment{TypeCondition: step.ParentType, Selections: fields},
	}
}

// buildFlattenPath turns kid's InsertionPath (which is expressed relative to
// the overall document root) into a Flatten path relative to parent's own
// position in the response tree, inserting an ArrayMarker wherever the
// schema says the corresponding field returns a list.
func buildFlattenPath(sg *graph.SuperGraphV2, parent, kid *planner.StepV2) []plan.PathElement {
	segments := kid.InsertionPath
	if len(parent.InsertionPath) == 0 {
		if len(segments) > 0 && segments[0] == "Query" {
			segments = segments[1:]
		}
	} else if len(segments) >= len(parent.InsertionPath) {
		segments = segments[len(parent.InsertionPath):]
	}

	currentType := "Query"
	if parent.StepType == planner.StepTypeEntity {
		currentType = parent.ParentType
	}

	path := make([]plan.PathElement, 0, len(segments)*2)
	for _, seg := range segments {
		path = append(path, plan.FieldElement(seg))
		nextType, isList := fieldTypeInfo(sg.Schema, currentType, seg)
		if isList {
			path = append(path, plan.FieldElement(plan.ArrayMarker))
		}
		if nextType != "" {
			currentType = nextType
		}
	}
	return path
}

// fieldTypeInfo looks up fieldName on typeName in doc and reports its base
// type name and whether it is list-typed.
func fieldTypeInfo(doc *ast.Document, typeName, fieldName string) (string, bool) {
	if doc == nil {
		return "", false
	}
	for _, def := range doc.Definitions {
		var name string
		var fields []*ast.FieldDefinition
		switch d := def.(type) {
		case *ast.ObjectTypeDefinition:
			name, fields = d.Name.String(), d.Fields
		case *ast.ObjectTypeExtension:
			name, fields = d.Name.String(), d.Fields
		default:
			continue
		}
		if name != typeName {
			continue
		}
		for _, f := range fields {
			if f.Name.String() != fieldName {
				continue
			}
			typeStr := f.Type.String()
			isList := strings.Contains(typeStr, "[")
			base := strings.NewReplacer("[", "", "]", "", "!", "").Replace(typeStr)
			return base, isList
		}
	}
	return "", false
}
