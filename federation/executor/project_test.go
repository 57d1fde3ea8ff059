package executor

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/n9te9/stargate/federation/plan"
)

func bookRequires() plan.SelectionSet {
	return plan.SelectionSet{
		plan.InlineFragment{
			TypeCondition: "Book",
			Selections: plan.SelectionSet{
				plan.Field{Name: "__typename"},
				plan.Field{Name: "isbn"},
			},
		},
	}
}

func TestProject_InlineFragmentMatch(t *testing.T) {
	source := map[string]any{"__typename": "Book", "isbn": "0-00", "title": "Dune"}

	got, err := project(source, bookRequires())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]any{"__typename": "Book", "isbn": "0-00"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("project mismatch (-want +got):\n%s", diff)
	}
}

func TestProject_InlineFragmentNoMatch(t *testing.T) {
	source := map[string]any{"__typename": "Furniture", "name": "Chair"}

	got, err := project(source, bookRequires())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]any{}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("project mismatch (-want +got):\n%s", diff)
	}
}

func TestProject_NestedFieldRecursesOwnSelections(t *testing.T) {
	// Regression: a nested field with its own sub-selections must be
	// projected using its own selections, not the enclosing selection set.
	selections := plan.SelectionSet{
		plan.Field{
			Name: "author",
			Selections: plan.SelectionSet{
				plan.Field{Name: "name"},
			},
		},
	}
	source := map[string]any{
		"author": map[string]any{"name": "Herbert", "secret": "omit-me"},
	}

	got, err := project(source, selections)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]any{"author": map[string]any{"name": "Herbert"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("project mismatch (-want +got):\n%s", diff)
	}
}

func TestProject_ListFieldProjectsEachElement(t *testing.T) {
	selections := plan.SelectionSet{
		plan.Field{
			Name: "reviews",
			Selections: plan.SelectionSet{
				plan.Field{Name: "body"},
			},
		},
	}
	source := map[string]any{
		"reviews": []any{
			map[string]any{"body": "great", "author": "a"},
			map[string]any{"body": "meh", "author": "b"},
		},
	}

	got, err := project(source, selections)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]any{
		"reviews": []any{
			map[string]any{"body": "great"},
			map[string]any{"body": "meh"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("project mismatch (-want +got):\n%s", diff)
	}
}

func TestProject_MissingFieldIsFatal(t *testing.T) {
	selections := plan.SelectionSet{plan.Field{Name: "isbn"}}
	_, err := project(map[string]any{"title": "Dune"}, selections)
	if !errors.Is(err, ErrFieldMissing) {
		t.Fatalf("expected ErrFieldMissing, got %v", err)
	}
}

func TestBuildRepresentations_ArrayKeepsOnlyTypedEntries(t *testing.T) {
	source := []any{
		map[string]any{"__typename": "Book", "isbn": "1"},
		map[string]any{"title": "no typename"},
		map[string]any{"__typename": "Book", "isbn": "2"},
	}

	reps, idxs, err := buildRepresentations(source, bookRequires())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantReps := []any{
		map[string]any{"__typename": "Book", "isbn": "1"},
		map[string]any{"__typename": "Book", "isbn": "2"},
	}
	if diff := cmp.Diff(wantReps, reps); diff != "" {
		t.Errorf("representations mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 2}, idxs); diff != "" {
		t.Errorf("repsToEntity mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildRepresentations_ObjectWithoutTypenameIsEmpty(t *testing.T) {
	reps, idxs, err := buildRepresentations(map[string]any{"items": []any{}}, bookRequires())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reps) != 0 || len(idxs) != 0 {
		t.Fatalf("expected empty representations, got reps=%v idxs=%v", reps, idxs)
	}
}
