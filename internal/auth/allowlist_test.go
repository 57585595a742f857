package auth

import "testing"

func TestAllowlistIsAdmin(t *testing.T) {
	list := NewAllowlist([]string{"A1", " B2 ", "", "A1"})

	cases := []struct {
		id   string
		want bool
	}{
		{"A1", true},
		{"B2", true},
		{"a1", false},
		{"A1 ", false},
		{"", false},
		{"C3", false},
	}
	for _, tc := range cases {
		if got := list.IsAdmin(tc.id); got != tc.want {
			t.Errorf("IsAdmin(%q) = %v, want %v", tc.id, got, tc.want)
		}
	}
	if list.Len() != 2 {
		t.Fatalf("expected 2 entries after dedupe, got %d", list.Len())
	}
}

func TestAllowlistEmpty(t *testing.T) {
	var nilList *Allowlist
	if nilList.IsAdmin("A1") {
		t.Fatalf("nil allowlist must not grant admin")
	}
	if NewAllowlist(nil).IsAdmin("A1") {
		t.Fatalf("empty allowlist must not grant admin")
	}
	if nilList.Len() != 0 {
		t.Fatalf("expected zero length")
	}
}
