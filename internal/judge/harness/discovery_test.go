package harness

import (
	"reflect"
	"testing"

	"codeduel/internal/judge/language"
)

func TestDiscoverEntryPoints(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name           string
		family         language.Family
		code           string
		wantHint       string
		wantCandidates []string
	}{
		{
			name:   "python solution class skips helpers in other classes",
			family: language.FamilyPython,
			code: `class ListNode:
    def next_node(self):
        return None

class Solution:
    def __init__(self):
        self.cache = {}

    def maxDepth(self, root):
        return 0
`,
			wantHint: "maxDepth",
		},
		{
			name:   "python module function",
			family: language.FamilyPython,
			code: `def _helper(x):
    return x

def is_palindrome(s):
    return s == s[::-1]
`,
			wantHint:       "is_palindrome",
			wantCandidates: []string{"_helper", "is_palindrome"},
		},
		{
			name:   "javascript class",
			family: language.FamilyJavaScript,
			code: `class Solution {
  constructor() {
    this.memo = {};
  }

  climbStairs(n) {
    if (n < 3) {
      return n;
    }
    return 0;
  }
}
`,
			wantHint: "climbStairs",
		},
		{
			name:   "javascript functions and bindings",
			family: language.FamilyJavaScript,
			code: `function helper(a) { return a; }
const reverseString = function (s) { s.reverse(); };
let add = (a, b) => a + b;
const LIMIT = 10;
`,
			wantHint:       "helper",
			wantCandidates: []string{"helper", "reverseString", "add"},
		},
		{
			name:   "raw mode",
			family: language.FamilyNone,
			code:   "int main() { return 0; }",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ep := discoverEntryPoints(tt.family, tt.code)
			if ep.Hint != tt.wantHint {
				t.Fatalf("expected hint %q, got %q", tt.wantHint, ep.Hint)
			}
			if !reflect.DeepEqual(ep.Candidates, tt.wantCandidates) {
				t.Fatalf("expected candidates %v, got %v", tt.wantCandidates, ep.Candidates)
			}
		})
	}
}

func TestJSONText(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		`{"b": 1, "a": [1, 2]}`: `{"b":1,"a":[1,2]}`,
		` 6.0 `:                 `6.0`,
		`hello world`:           `"hello world"`,
		`1 2`:                   `"1 2"`,
		``:                      `""`,
	}
	for raw, want := range tests {
		got, err := jsonText(raw)
		if err != nil {
			t.Fatalf("jsonText(%q) failed: %v", raw, err)
		}
		if got != want {
			t.Fatalf("jsonText(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestLiteral(t *testing.T) {
	t.Parallel()
	if got := literal("a<b>\"c\"\n"); got != `"a<b>\"c\"\n"` {
		t.Fatalf("unexpected literal %s", got)
	}
	if got := literal([]string{}); got != `[]` {
		t.Fatalf("unexpected list literal %s", got)
	}
}
