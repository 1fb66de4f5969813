package compliance

import "testing"

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{"": Permissive, "permissive": Permissive, "strict": Strict}
	for in, want := range cases {
		got, err := ParseMode(in)
		if err != nil {
			t.Fatalf("ParseMode(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseMode(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseMode("lenient"); err == nil {
		t.Fatalf("expected unknown mode to fail")
	}
}

func TestModeTextRoundTrip(t *testing.T) {
	for _, m := range []Mode{Permissive, Strict} {
		var got Mode
		if err := got.UnmarshalText([]byte(m.String())); err != nil {
			t.Fatalf("UnmarshalText: %v", err)
		}
		if got != m {
			t.Fatalf("round trip: got %v want %v", got, m)
		}
	}
}
