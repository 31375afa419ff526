package repository

import (
	"context"
	"encoding/json"
	"strings"

	"codeduel/internal/common/cache"
	"codeduel/internal/judge/model"
	appErr "codeduel/pkg/errors"
)

const problemKeyPrefix = "judge:problem:"

// ProblemReader loads problem descriptors from the catalog.
type ProblemReader interface {
	Get(ctx context.Context, problemID string) (model.Problem, error)
}

// ProblemRepository reads catalog entries stored as JSON in Redis.
// The catalog is owned by another service; the engine never writes it.
type ProblemRepository struct {
	cache cache.Cache
}

// NewProblemRepository creates a new repository.
func NewProblemRepository(cacheClient cache.Cache) *ProblemRepository {
	return &ProblemRepository{cache: cacheClient}
}

// ProblemKey returns the catalog key of a problem.
func ProblemKey(problemID string) string {
	return problemKeyPrefix + problemID
}

// Get returns the problem by id.
func (r *ProblemRepository) Get(ctx context.Context, problemID string) (model.Problem, error) {
	problemID = strings.TrimSpace(problemID)
	if problemID == "" {
		return model.Problem{}, appErr.ValidationError("problemId", "required")
	}
	if r == nil || r.cache == nil {
		return model.Problem{}, appErr.ConfigError("problem catalog")
	}
	val, err := r.cache.Get(ctx, ProblemKey(problemID))
	if err != nil {
		return model.Problem{}, appErr.Wrapf(err, appErr.CacheError, "read problem %s failed", problemID)
	}
	if val == "" {
		return model.Problem{}, appErr.Newf(appErr.ProblemNotFound, "problem %s not found", problemID)
	}

	var problem model.Problem
	if err := json.Unmarshal([]byte(val), &problem); err != nil {
		return model.Problem{}, appErr.Wrapf(err, appErr.CacheError, "decode problem %s failed", problemID)
	}
	if problem.ID == "" {
		problem.ID = problemID
	}
	if len(problem.TestCases) == 0 {
		return model.Problem{}, appErr.Newf(appErr.TestCaseNotFound, "problem %s has no test cases", problemID)
	}
	for i, tc := range problem.TestCases {
		if tc.Input == "" || tc.Expected == "" {
			return model.Problem{}, appErr.Newf(appErr.TestCaseInvalid, "problem %s test case %d is incomplete", problemID, i)
		}
	}
	return problem, nil
}
