package model

// JudgeVerdict is the outcome of judging one submission against one test
// case. Values are not modified after construction.
type JudgeVerdict struct {
	Passed        bool     `json:"passed"`
	Message       string   `json:"message"`
	Stdout        string   `json:"stdout"`
	Stderr        string   `json:"stderr"`
	Error         *string  `json:"error"`
	ActualValue   any      `json:"actualValue"`
	Time          *float64 `json:"time"`
	Memory        *float64 `json:"memory"`
	CompileOutput string   `json:"compile_output"`
}
