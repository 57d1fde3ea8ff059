package spec

import "testing"

func TestVersionSatisfies(t *testing.T) {
	cases := []struct {
		v, r Version
		want bool
	}{
		{Version{1, 0}, Version{1, 0}, true},
		{Version{1, 2}, Version{1, 0}, true},
		{Version{1, 0}, Version{1, 2}, false},
		{Version{2, 0}, Version{1, 0}, false},
		{Version{0, 9}, Version{0, 9}, true},
		{Version{0, 9}, Version{0, 8}, false},
		{Version{0, 8}, Version{0, 9}, false},
	}

	for _, c := range cases {
		if got := c.v.Satisfies(c.r); got != c.want {
			t.Errorf("%s.Satisfies(%s) = %v, want %v", c.v, c.r, got, c.want)
		}
	}
}

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("1.2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != (Version{1, 2}) {
		t.Fatalf("got %v, want 1.2", v)
	}

	if _, err := ParseVersion("1"); err == nil {
		t.Fatal("expected error for missing minor component")
	}

	if _, err := ParseVersion("a.b"); err == nil {
		t.Fatal("expected error for non-integer components")
	}
}
