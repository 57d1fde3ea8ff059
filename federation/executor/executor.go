// Package executor interprets a query-plan tree against a set of subgraph
// services, assembling one merged response.
package executor

import (
	"context"
	"fmt"
	"sync"

	"github.com/n9te9/stargate/federation/plan"
	"golang.org/x/sync/errgroup"
)

// Executor runs a plan.QueryPlan against a fixed set of named services.
type Executor struct {
	services ServiceMap
}

// NewExecutor builds an Executor that dispatches Fetch nodes to services.
func NewExecutor(services ServiceMap) *Executor {
	return &Executor{services: services}
}

// executionContext carries the per-request variables and accumulates
// GraphQL-style errors as nodes run. A Sequence stops at the first child
// that errors; a Parallel runs every child regardless and lets its own
// enclosing Sequence (if any) react to the combined failure.
type executionContext struct {
	variables map[string]any

	mu   sync.Mutex
	errs []GraphQLError
}

func (ec *executionContext) record(path []plan.PathElement, err error) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.errs = append(ec.errs, GraphQLError{Message: err.Error(), Path: pathToAny(path)})
}

func (ec *executionContext) snapshot() []GraphQLError {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	if len(ec.errs) == 0 {
		return nil
	}
	out := make([]GraphQLError, len(ec.errs))
	copy(out, ec.errs)
	return out
}

func pathToAny(path []plan.PathElement) []interface{} {
	if len(path) == 0 {
		return nil
	}
	out := make([]interface{}, len(path))
	for i, p := range path {
		if p.Kind == plan.PathIndex {
			out[i] = p.Index
		} else {
			out[i] = p.Field
		}
	}
	return out
}

// Execute runs qp and returns a GraphQL-shaped response: "data" holds
// whatever of the tree was assembled, "errors" (when present) lists what
// went wrong along the way. Introspection (a nil plan node) is rejected
// outright, since there is no tree to execute against.
func (e *Executor) Execute(ctx context.Context, qp plan.QueryPlan, variables map[string]any) (map[string]any, error) {
	if qp.Node == nil {
		return nil, ErrIntrospectionUnsupported
	}

	tree := NewTree(map[string]any{})
	ec := &executionContext{variables: variables}

	_ = e.executeNode(ctx, ec, qp.Node, tree, nil)

	data, _ := tree.Get().(map[string]any)
	resp := map[string]any{"data": data}
	if errs := ec.snapshot(); len(errs) > 0 {
		resp["errors"] = errs
	}
	return resp, nil
}

// executeNode dispatches on node kind. The returned error is purely a
// control-flow signal to the nearest enclosing Sequence (stop running
// further siblings); every error that can occur is already recorded on ec
// before it is returned.
func (e *Executor) executeNode(ctx context.Context, ec *executionContext, node plan.PlanNode, tree *Tree, path []plan.PathElement) error {
	switch n := node.(type) {
	case plan.Sequence:
		for _, child := range n.Nodes {
			if err := e.executeNode(ctx, ec, child, tree, path); err != nil {
				return err
			}
		}
		return nil

	case plan.Parallel:
		var g errgroup.Group
		for _, child := range n.Nodes {
			child := child
			g.Go(func() error {
				return e.executeNode(ctx, ec, child, tree, path)
			})
		}
		return g.Wait()

	case plan.Fetch:
		return e.executeFetch(ctx, ec, n, tree, path)

	case plan.Flatten:
		return e.executeFlatten(ctx, ec, n, tree, path)

	default:
		err := fmt.Errorf("executor: unknown plan node type %T", node)
		ec.record(path, err)
		return err
	}
}

// executeFetch implements the Fetch algorithm: gather the variables a
// subgraph operation needs (including, for an entity fetch, a
// representations list projected from the current tree), send the
// operation, and merge the response back into tree.
func (e *Executor) executeFetch(ctx context.Context, ec *executionContext, f plan.Fetch, tree *Tree, path []plan.PathElement) error {
	service, ok := e.services[f.ServiceName]
	if !ok {
		err := fmt.Errorf("%w: %q", ErrUnknownService, f.ServiceName)
		ec.record(path, err)
		return err
	}

	variables := make(map[string]any, len(f.VariableUsages))
	for _, name := range f.VariableUsages {
		if v, ok := ec.variables[name]; ok {
			variables[name] = v
		}
	}

	var repsToEntity []int
	if f.Requires != nil {
		if _, clash := variables["representations"]; clash {
			err := ErrReservedVariable
			ec.record(path, err)
			return err
		}

		reps, idxs, err := buildRepresentations(tree.Get(), f.Requires)
		if err != nil {
			ec.record(path, err)
			return err
		}
		variables["representations"] = reps
		repsToEntity = idxs
	}

	response, err := service.SendOperation(ctx, f.Operation, variables)
	if err != nil {
		wrapped := &SubgraphError{ServiceName: f.ServiceName, Err: err}
		ec.record(path, wrapped)
		return wrapped
	}

	if f.Requires == nil {
		tree.Merge(response)
		return nil
	}

	entities, ok := response["_entities"].([]any)
	if !ok {
		err := fmt.Errorf("%w: service %q", ErrMissingEntities, f.ServiceName)
		ec.record(path, err)
		return err
	}

	if _, isArray := tree.Get().([]any); isArray {
		for i, entityIdx := range repsToEntity {
			if i >= len(entities) {
				break
			}
			tree.MergeAt(entityIdx, entities[i])
		}
		return nil
	}

	if len(repsToEntity) > 0 && len(entities) > 0 {
		tree.Merge(entities[0])
	}
	return nil
}

// executeFlatten implements the Flatten algorithm: detach the sub-tree at
// Path into a private Tree, run Node against it, then stitch the result
// back in at the same Path.
func (e *Executor) executeFlatten(ctx context.Context, ec *executionContext, f plan.Flatten, tree *Tree, path []plan.PathElement) error {
	zipped := selectPath(tree.Get(), f.Path)
	zippedTree := NewTree(zipped)

	childPath := make([]plan.PathElement, 0, len(path)+len(f.Path))
	childPath = append(childPath, path...)
	childPath = append(childPath, f.Path...)

	err := e.executeNode(ctx, ec, f.Node, zippedTree, childPath)

	zippedFinal := zippedTree.Get()
	tree.Update(func(current any) any {
		return mergeFlattened(current, zippedFinal, f.Path)
	})

	return err
}
