package model

// Problem is the catalog descriptor read by the engine.
type Problem struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	ProblemType    string     `json:"problemType"`
	OrderSensitive bool       `json:"orderSensitive"`
	TestCases      []TestCase `json:"testCases"`
}

// TestCase holds serialized input and expected output.
type TestCase struct {
	ID       string `json:"id"`
	Input    string `json:"input"`
	Expected string `json:"expected"`
	Hidden   bool   `json:"hidden"`
}

// CaseVerdict is the verdict of one test case.
type CaseVerdict struct {
	TestCaseID string       `json:"testCaseId"`
	Hidden     bool         `json:"hidden"`
	Verdict    JudgeVerdict `json:"verdict"`
}

// ProblemVerdict aggregates the verdicts of all judged test cases.
type ProblemVerdict struct {
	ProblemID   string `json:"problemId"`
	Passed      bool   `json:"passed"`
	Message     string `json:"message"`
	PassedCount int    `json:"passedCount"`
	TotalCount  int    `json:"totalCount"`
	// Error is set when the problem could not be judged at all.
	Error *string       `json:"error,omitempty"`
	Cases []CaseVerdict `json:"cases"`
}
