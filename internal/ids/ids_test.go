package ids

import "testing"

func TestEncode(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{9, "9"},
		{10, "a"},
		{35, "z"},
		{36, "A"},
		{61, "Z"},
		{62, "10"},
		{3843, "ZZ"},
		{3844, "100"},
		{156627699, "aBc1d"},
	}
	for _, tt := range tests {
		if got := Encode(tt.n); got != tt.want {
			t.Errorf("Encode(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestDecodeInvalid(t *testing.T) {
	for _, id := range []string{"", "a b", "-1", "[x]", "é"} {
		if n, ok := Decode(id); ok {
			t.Errorf("Decode(%q) = %d, ok; want !ok", id, n)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	// Sweep small values exhaustively, then stride through the full safe
	// integer range up to 2^53.
	for n := int64(0); n < 10000; n++ {
		got, ok := Decode(Encode(n))
		if !ok || got != n {
			t.Fatalf("Decode(Encode(%d)) = %d, %v", n, got, ok)
		}
	}
	for n := int64(1); n < 1<<53; n = n*7 + 13 {
		got, ok := Decode(Encode(n))
		if !ok || got != n {
			t.Fatalf("Decode(Encode(%d)) = %d, %v", n, got, ok)
		}
	}
}
