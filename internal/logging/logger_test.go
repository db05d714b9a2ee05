package logging

import "testing"

func TestMaskPhone(t *testing.T) {
	cases := map[string]string{
		"+233201234567": "*********4567",
		"1234":          "****",
		"":              "",
	}
	for in, want := range cases {
		if got := MaskPhone(in); got != want {
			t.Fatalf("MaskPhone(%q) = %q, want %q", in, got, want)
		}
	}
}
