package dispatch

import "testing"

func fakeResolve(tokens ...string) func(string) bool {
	set := map[string]bool{}
	for _, t := range tokens {
		set[t] = true
	}
	return func(tok string) bool { return set[tok] }
}

func TestClassifyDirective(t *testing.T) {
	c := Classify(":project create research", fakeResolve("calc"))
	if c.Kind != KindDirective {
		t.Fatalf("Kind = %v, want directive", c.Kind)
	}
	if c.Directive != "project" || c.DirectiveArg != "create research" {
		t.Errorf("Directive = %q, Arg = %q", c.Directive, c.DirectiveArg)
	}
}

func TestClassifyDirectiveNeverTouchesRegistry(t *testing.T) {
	// Even a directive named like a command stays on the directive path.
	resolved := false
	c := Classify(":calc 2+2", func(string) bool { resolved = true; return true })
	if c.Kind != KindDirective || c.Directive != "calc" {
		t.Errorf("classification = %+v", c)
	}
	if resolved {
		t.Error("leading-colon input must not consult the registry")
	}
}

func TestClassifyContextProvider(t *testing.T) {
	tests := []struct {
		input       string
		wantCommand string
		wantArg     string
		wantLeading string
	}{
		{"calc: 2 + 3 * 4", "calc", "2 + 3 * 4", ""},
		{"calc:2+2", "calc", "2+2", ""},
		{"calc:", "calc", "", ""},
		{"please summarize calc: 2+2", "calc", "2+2", "please summarize"},
		{"  calc: 1  ", "calc", "1", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			c := Classify(tt.input, fakeResolve("calc", "doc"))
			if c.Kind != KindContext {
				t.Fatalf("Kind = %v, want context", c.Kind)
			}
			if c.Command != tt.wantCommand || c.Arg != tt.wantArg || c.Leading != tt.wantLeading {
				t.Errorf("got command=%q arg=%q leading=%q", c.Command, c.Arg, c.Leading)
			}
		})
	}
}

func TestClassifyFirstMatchWins(t *testing.T) {
	c := Classify("calc: 2+2 doc: x", fakeResolve("calc", "doc"))
	if c.Kind != KindContext || c.Command != "calc" {
		t.Fatalf("classification = %+v", c)
	}
	if c.Arg != "2+2 doc: x" {
		t.Errorf("Arg = %q, later tokens must ride along as literal text", c.Arg)
	}
}

func TestClassifySkipsUnresolvableTokens(t *testing.T) {
	c := Classify("note: doc: readme.md", fakeResolve("doc"))
	if c.Kind != KindContext || c.Command != "doc" {
		t.Fatalf("classification = %+v", c)
	}
	if c.Arg != "readme.md" || c.Leading != "note:" {
		t.Errorf("arg=%q leading=%q", c.Arg, c.Leading)
	}
}

func TestClassifyChat(t *testing.T) {
	tests := []string{
		"hello there",
		"the meeting is at 10:30",
		"see https://example.com: interesting",
		"calc 2+2", // no colon, no invocation
	}
	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			c := Classify(input, fakeResolve("calc", "doc"))
			if c.Kind != KindChat {
				t.Errorf("Kind = %v, want chat (%+v)", c.Kind, c)
			}
		})
	}
}
