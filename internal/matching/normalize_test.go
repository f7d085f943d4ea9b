package matching

import "testing"

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect string
		ok     bool
	}{
		{name: "empty", input: "", ok: false},
		{name: "whitespace only", input: " \n\t  ", ok: false},
		{name: "control characters only", input: "\x00\x07", ok: false},
		{name: "trims", input: "  5 years Python  \n", expect: "5 years Python", ok: true},
		{name: "keeps inner newlines", input: "Python\nDjango", expect: "Python\nDjango", ok: true},
		{name: "drops control characters", input: "Go\x00lang", expect: "Golang", ok: true},
		{name: "nfkc folds compatibility forms", input: "ＰＹＴＨＯＮ ﬁle", expect: "PYTHON file", ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := Normalize(tt.input)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}
