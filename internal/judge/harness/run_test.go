package harness_test

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"codeduel/internal/judge/backend"
	"codeduel/internal/judge/compare"
	"codeduel/internal/judge/harness"
	"codeduel/internal/judge/language"
	"codeduel/internal/judge/verdict"
)

// interpreters are the local commands that stand in for the execution backend.
var interpreters = map[language.Family]struct{ bin, file string }{
	language.FamilyPython:     {bin: "python3", file: "main.py"},
	language.FamilyJavaScript: {bin: "node", file: "main.js"},
}

func runProgram(t *testing.T, family language.Family, src harness.Source) []string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping interpreter run in short mode")
	}
	interp := interpreters[family]
	bin, err := exec.LookPath(interp.bin)
	if err != nil {
		t.Skipf("%s is not installed", interp.bin)
	}
	prog, err := newGenerator(t, harness.Options{}).Generate(family, src)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), interp.file)
	if err := os.WriteFile(path, []byte(prog.Text), 0o600); err != nil {
		t.Fatalf("write program failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, path)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("%s exited with %v\nstdout:\n%s\nstderr:\n%s", interp.bin, err, stdout.String(), stderr.String())
	}
	return strings.Split(strings.TrimRight(stdout.String(), "\n"), "\n")
}

func hasLine(lines []string, want string) bool {
	for _, line := range lines {
		if line == want {
			return true
		}
	}
	return false
}

func hasPrefix(lines []string, prefix string) bool {
	for _, line := range lines {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

func TestGeneratedProgramsRun(t *testing.T) {
	t.Parallel()
	py, js := language.FamilyPython, language.FamilyJavaScript
	tests := []struct {
		name        string
		family      language.Family
		src         harness.Source
		wantLines   []string
		wantPrefix  string
		absentLines []string
		wantMessage string
	}{
		{
			name:   "python arbitrary method name",
			family: py,
			src: harness.Source{
				Code:     "class Solution:\n    def foo(self, a, b):\n        return a + b\n",
				Input:    `{"x": 2, "y": 4}`,
				Expected: `6`,
			},
			wantLines:   []string{"DEBUG: entry point foo", "RESULT: 6", "PASSED"},
			wantMessage: verdict.MessagePassed,
		},
		{
			name:   "javascript arbitrary method name",
			family: js,
			src: harness.Source{
				Code:     "class Solution {\n  foo(a, b) {\n    return a + b;\n  }\n}\n",
				Input:    `{"x": 2, "y": 4}`,
				Expected: `6`,
			},
			wantLines:   []string{"DEBUG: entry point foo", "RESULT: 6", "PASSED"},
			wantMessage: verdict.MessagePassed,
		},
		{
			name:        "python map input by parameter name",
			family:      py,
			src:         harness.Source{Code: pythonTwoSum, Input: `{"nums": [2, 7, 11, 15], "target": 9}`, Expected: `[0, 1]`},
			wantLines:   []string{"DEBUG: entry point twoSum", "PASSED"},
			wantMessage: verdict.MessagePassed,
		},
		{
			name:   "javascript map input by parameter name",
			family: js,
			src: harness.Source{
				Code:     "var twoSum = function(nums, target) {\n  const seen = new Map();\n  for (let i = 0; i < nums.length; i++) {\n    if (seen.has(target - nums[i])) return [seen.get(target - nums[i]), i];\n    seen.set(nums[i], i);\n  }\n};\n",
				Input:    `{"nums": [2, 7, 11, 15], "target": 9}`,
				Expected: `[0, 1]`,
			},
			wantLines:   []string{"DEBUG: entry point twoSum", "PASSED"},
			wantMessage: verdict.MessagePassed,
		},
		{
			name:        "python list spread",
			family:      py,
			src:         harness.Source{Code: "def mul(a, b):\n    return a * b\n", Input: `[3, 4]`, Expected: `12`},
			wantLines:   []string{"RESULT: 12", "PASSED"},
			wantMessage: verdict.MessagePassed,
		},
		{
			name:        "javascript list spread",
			family:      js,
			src:         harness.Source{Code: "function mul(a, b) {\n  return a * b;\n}\n", Input: `[3, 4]`, Expected: `12`},
			wantLines:   []string{"RESULT: 12", "PASSED"},
			wantMessage: verdict.MessagePassed,
		},
		{
			name:        "python single value map",
			family:      py,
			src:         harness.Source{Code: "def check(text):\n    return text == text[::-1]\n", Input: `{"s": "racecar"}`, Expected: `true`},
			wantLines:   []string{"RESULT: true", "PASSED"},
			wantMessage: verdict.MessagePassed,
		},
		{
			name:        "javascript single value map",
			family:      js,
			src:         harness.Source{Code: "const check = (text) => text === [...text].reverse().join('');\n", Input: `{"s": "racecar"}`, Expected: `true`},
			wantLines:   []string{"RESULT: true", "PASSED"},
			wantMessage: verdict.MessagePassed,
		},
		{
			name:        "python two_sum pair input",
			family:      py,
			src:         harness.Source{Code: pythonTwoSum, Input: `[[2, 7, 11, 15], 9]`, Expected: `[0, 1]`, ProblemType: "two_sum"},
			wantLines:   []string{"PASSED"},
			wantMessage: verdict.MessagePassed,
		},
		{
			name:   "javascript reverse in place",
			family: js,
			src: harness.Source{
				Code:           "var reverseString = function(s) {\n  s.reverse();\n};\n",
				Input:          `["h", "e", "y"]`,
				Expected:       `["y", "e", "h"]`,
				ProblemType:    "reverse_in_place",
				OrderSensitive: true,
			},
			wantLines:   []string{`RESULT: ["y","e","h"]`, "PASSED"},
			wantMessage: verdict.MessagePassed,
		},
		{
			name:        "python palindrome",
			family:      py,
			src:         harness.Source{Code: "class Solution:\n    def isPalindrome(self, s):\n        return s == s[::-1]\n", Input: `"racecar"`, Expected: `true`, ProblemType: "palindrome"},
			wantLines:   []string{"DEBUG: entry point isPalindrome", "PASSED"},
			wantMessage: verdict.MessagePassed,
		},
		{
			name:        "python runtime error",
			family:      py,
			src:         harness.Source{Code: "def f(x):\n    return 1 // 0\n", Input: `1`, Expected: `1`},
			wantPrefix:  "EXECUTION_ERROR: ZeroDivisionError",
			absentLines: []string{"PASSED", "FAILED"},
			wantMessage: verdict.MessageExecutionError,
		},
		{
			name:        "javascript runtime error",
			family:      js,
			src:         harness.Source{Code: "function f(x) {\n  return x.missing.deep;\n}\n", Input: `1`, Expected: `1`},
			wantPrefix:  "EXECUTION_ERROR: TypeError",
			absentLines: []string{"PASSED", "FAILED"},
			wantMessage: verdict.MessageExecutionError,
		},
		{
			name:        "python syntax error",
			family:      py,
			src:         harness.Source{Code: "def f(:\n", Input: `1`, Expected: `1`},
			wantPrefix:  "ERROR: SyntaxError",
			absentLines: []string{"PASSED", "FAILED"},
			wantMessage: verdict.MessageExecutionError,
		},
		{
			name:        "javascript syntax error",
			family:      js,
			src:         harness.Source{Code: "function f( {\n", Input: `1`, Expected: `1`},
			wantPrefix:  "ERROR: SyntaxError",
			absentLines: []string{"PASSED", "FAILED"},
			wantMessage: verdict.MessageExecutionError,
		},
		{
			name:        "python printed marker is debug output",
			family:      py,
			src:         harness.Source{Code: "def f(x):\n    print(\"PASSED\")\n    return x + 1\n", Input: `1`, Expected: `3`},
			wantLines:   []string{"DEBUG: PASSED", "RESULT: 2", "FAILED"},
			absentLines: []string{"PASSED"},
			wantMessage: verdict.MessageWrongAnswer,
		},
		{
			name:        "javascript printed marker is debug output",
			family:      js,
			src:         harness.Source{Code: "function f(x) {\n  console.log('PASSED');\n  return x + 1;\n}\n", Input: `1`, Expected: `3`},
			wantLines:   []string{"DEBUG: PASSED", "RESULT: 2", "FAILED"},
			absentLines: []string{"PASSED"},
			wantMessage: verdict.MessageWrongAnswer,
		},
		{
			name:        "python bool as text",
			family:      py,
			src:         harness.Source{Code: "def f(x):\n    return \"True\"\n", Input: `1`, Expected: `true`},
			wantLines:   []string{`RESULT: "True"`, "PASSED"},
			wantMessage: verdict.MessagePassed,
		},
		{
			name:        "javascript bool as text",
			family:      js,
			src:         harness.Source{Code: "function f(x) {\n  return 'TRUE';\n}\n", Input: `1`, Expected: `true`},
			wantLines:   []string{`RESULT: "TRUE"`, "PASSED"},
			wantMessage: verdict.MessagePassed,
		},
		{
			name:        "python number as decimal text",
			family:      py,
			src:         harness.Source{Code: "def f(x):\n    return \"6.0\"\n", Input: `1`, Expected: `6`},
			wantLines:   []string{`RESULT: "6.0"`, "PASSED"},
			wantMessage: verdict.MessagePassed,
		},
		{
			name:        "javascript number as decimal text",
			family:      js,
			src:         harness.Source{Code: "function f(x) {\n  return '6.0';\n}\n", Input: `1`, Expected: `6`},
			wantLines:   []string{`RESULT: "6.0"`, "PASSED"},
			wantMessage: verdict.MessagePassed,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			lines := runProgram(t, tt.family, tt.src)
			for _, want := range tt.wantLines {
				if !hasLine(lines, want) {
					t.Fatalf("expected line %q in %q", want, lines)
				}
			}
			if tt.wantPrefix != "" && !hasPrefix(lines, tt.wantPrefix) {
				t.Fatalf("expected a line starting with %q in %q", tt.wantPrefix, lines)
			}
			for _, absent := range tt.absentLines {
				if hasLine(lines, absent) {
					t.Fatalf("unexpected line %q in %q", absent, lines)
				}
			}
			v := verdict.Classify(backend.Result{
				StatusID: backend.StatusAccepted,
				Stdout:   strings.Join(lines, "\n") + "\n",
			}, verdict.Mode{UsedHarness: true})
			if v.Message != tt.wantMessage {
				t.Fatalf("expected verdict %q, got %q", tt.wantMessage, v.Message)
			}
		})
	}
}

// Every embedded comparator must agree with compare.Equal. The solution echoes
// the actual value back so the harness compares it against the expected one.
func TestEmbeddedComparatorsMatchCompare(t *testing.T) {
	t.Parallel()
	echo := map[language.Family]string{
		language.FamilyPython:     "def echo(value):\n    return value\n",
		language.FamilyJavaScript: "function echo(value) {\n  return value;\n}\n",
	}
	tests := []struct {
		expected string
		actual   string
		ordered  bool
		want     bool
	}{
		{expected: `[1,2,3]`, actual: `[3,1,2]`, want: true},
		{expected: `[1,2,3]`, actual: `[3,1,2]`, ordered: true, want: false},
		{expected: `true`, actual: `"TRUE"`, want: true},
		{expected: `true`, actual: `1`, want: false},
		{expected: `1`, actual: `true`, want: false},
		{expected: `6`, actual: `"6.0"`, want: true},
		{expected: `6`, actual: `6.0`, want: true},
		{expected: `0.1`, actual: `"0.10"`, want: true},
		{expected: `2.5`, actual: `"2.50"`, want: true},
		{expected: `1e2`, actual: `100`, want: true},
		{expected: `"abc"`, actual: `" abc "`, want: true},
		{expected: `"1"`, actual: `1`, want: false},
		{expected: `null`, actual: `null`, want: true},
		{expected: `null`, actual: `0`, want: false},
		{expected: `[[1,2],[3]]`, actual: `[[3],[1,2]]`, want: true},
		{expected: `[1,"a"]`, actual: `["a",1]`, want: false},
		{expected: `[true,false]`, actual: `[false,true]`, want: true},
		{expected: `[1,2]`, actual: `[1,2,3]`, want: false},
		{expected: `[1,2]`, actual: `"[1,2]"`, want: false},
		{expected: `false`, actual: `"no"`, want: false},
		{expected: `{"a":1,"b":[1,2]}`, actual: `{"b":[1,2],"a":1}`, want: true},
		{expected: `{"a":1}`, actual: `{"a":1.0}`, want: true},
		{expected: `{"a":1}`, actual: `{"a":2}`, want: false},
	}
	for _, tt := range tests {
		tt := tt
		opts := compare.Options{OrderSensitive: tt.ordered}
		if got := opts.Equal(compare.Decode(tt.expected), compare.Decode(tt.actual)); got != tt.want {
			t.Fatalf("compare %s vs %s (ordered=%v) = %v, want %v", tt.expected, tt.actual, tt.ordered, got, tt.want)
		}
		for family, code := range echo {
			family, code := family, code
			name := string(family) + " " + tt.expected + " vs " + tt.actual
			if tt.ordered {
				name += " ordered"
			}
			t.Run(name, func(t *testing.T) {
				t.Parallel()
				lines := runProgram(t, family, harness.Source{
					Code:           code,
					Input:          `{"value": ` + tt.actual + `}`,
					Expected:       tt.expected,
					OrderSensitive: tt.ordered,
				})
				got := lines[len(lines)-1]
				want := harness.MarkerFailed
				if tt.want {
					want = harness.MarkerPassed
				}
				if got != want {
					t.Fatalf("expected %s, got %q", want, lines)
				}
			})
		}
	}
}
