package plan_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/n9te9/stargate/federation/plan"
)

func bookFragment(fields ...string) plan.SelectionSet {
	set := make(plan.SelectionSet, len(fields))
	for i, f := range fields {
		set[i] = plan.Field{Name: f}
	}
	return plan.SelectionSet{
		plan.InlineFragment{TypeCondition: "Book", Selections: set},
	}
}

func samplePlan() plan.QueryPlan {
	flatten := func(path []plan.PathElement, service string, requires plan.SelectionSet, op string) plan.PlanNode {
		return plan.Flatten{
			Path: path,
			Node: plan.Fetch{
				ServiceName:    service,
				VariableUsages: []string{},
				Requires:       requires,
				Operation:      op,
			},
		}
	}

	topProductsPath := []plan.PathElement{plan.FieldElement("topProducts"), plan.FieldElement(plan.ArrayMarker)}
	productPath := []plan.PathElement{plan.FieldElement("product")}

	return plan.QueryPlan{
		Node: plan.Sequence{
			Nodes: []plan.PlanNode{
				plan.Fetch{
					ServiceName:    "product",
					VariableUsages: []string{},
					Operation:      `{topProducts{__typename ...on Book{__typename isbn}...on Furniture{name}}product(upc:"1"){__typename ...on Book{__typename isbn}...on Furniture{name}}}`,
				},
				plan.Parallel{
					Nodes: []plan.PlanNode{
						plan.Sequence{Nodes: []plan.PlanNode{
							flatten(topProductsPath, "books",
								bookFragment("__typename", "isbn"),
								`query($representations:[_Any!]!){_entities(representations:$representations){...on Book{__typename isbn title year}}}`),
							flatten(topProductsPath, "product",
								bookFragment("__typename", "isbn", "title", "year"),
								`query($representations:[_Any!]!){_entities(representations:$representations){...on Book{name}}}`),
						}},
						plan.Sequence{Nodes: []plan.PlanNode{
							flatten(productPath, "books",
								bookFragment("__typename", "isbn"),
								`query($representations:[_Any!]!){_entities(representations:$representations){...on Book{__typename isbn title year}}}`),
							flatten(productPath, "product",
								bookFragment("__typename", "isbn", "title", "year"),
								`query($representations:[_Any!]!){_entities(representations:$representations){...on Book{name}}}`),
						}},
					},
				},
			},
		},
	}
}

func TestQueryPlanRoundTrip(t *testing.T) {
	want := samplePlan()

	data, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got plan.QueryPlan
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestQueryPlan_IntrospectionHasNilNode(t *testing.T) {
	data, err := json.Marshal(plan.QueryPlan{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got plan.QueryPlan
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Node != nil {
		t.Fatalf("expected nil node, got %#v", got.Node)
	}
}

func TestPathElement_MixedKinds(t *testing.T) {
	f := plan.Flatten{
		Path: []plan.PathElement{plan.FieldElement("items"), plan.IndexElement(2), plan.FieldElement(plan.ArrayMarker)},
		Node: plan.Fetch{ServiceName: "a", VariableUsages: []string{}, Operation: "{x}"},
	}
	want := plan.QueryPlan{Node: f}

	data, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got plan.QueryPlan
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
