package model

// VerdictEventType identifies verdict events.
type VerdictEventType string

const (
	// VerdictEventProblemJudged is emitted after a problem-level judgement.
	VerdictEventProblemJudged VerdictEventType = "problem_judged"
)

// VerdictEvent is published for leaderboard and lobby consumers.
type VerdictEvent struct {
	Type        VerdictEventType `json:"type"`
	ProblemID   string           `json:"problemId"`
	Language    string           `json:"language"`
	Passed      bool             `json:"passed"`
	PassedCount int              `json:"passedCount"`
	TotalCount  int              `json:"totalCount"`
	TraceID     string           `json:"traceId,omitempty"`
	CreatedAt   int64            `json:"createdAt"`
}
