package service

import (
	"context"
	"time"

	"codeduel/internal/judge/harness"
	"codeduel/internal/judge/model"
	"codeduel/internal/judge/verdict"
	appErr "codeduel/pkg/errors"
	"codeduel/pkg/utils/contextkey"
	"codeduel/pkg/utils/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// JudgeProblem runs a submission against the test cases of a catalog problem.
// Without IncludeHidden only the visible cases are judged. Hidden case
// diagnostics are always redacted.
func (s *Service) JudgeProblem(ctx context.Context, req model.ProblemRequest) model.ProblemVerdict {
	start := time.Now()
	ctx = contextkey.With(ctx, contextkey.ProblemID, req.ProblemID)
	ctx = contextkey.With(ctx, contextkey.Language, req.Language)
	out, err := s.judgeProblem(ctx, req)
	if err != nil {
		s.logFailure(ctx, "judge problem failed", err)
		v := verdict.FromError(err)
		return model.ProblemVerdict{
			ProblemID: req.ProblemID,
			Message:   v.Message,
			Error:     v.Error,
			Cases:     []model.CaseVerdict{},
		}
	}
	logger.Info(ctx, "judge problem finished",
		zap.Int("passed", out.PassedCount),
		zap.Int("total", out.TotalCount),
		zap.Duration("latency", time.Since(start)),
	)
	if req.IncludeHidden {
		s.publishVerdict(ctx, req, out)
	}
	return out
}

func (s *Service) judgeProblem(ctx context.Context, req model.ProblemRequest) (model.ProblemVerdict, error) {
	if !s.backend.Configured() {
		return model.ProblemVerdict{}, appErr.ConfigError("JUDGE_BACKEND_API_KEY")
	}
	if err := req.Validate(); err != nil {
		return model.ProblemVerdict{}, err
	}
	lang, err := s.languages.Lookup(req.Language)
	if err != nil {
		return model.ProblemVerdict{}, err
	}
	problem, err := s.getProblem(ctx, req.ProblemID)
	if err != nil {
		return model.ProblemVerdict{}, err
	}
	if _, err := harness.ParseArchetype(problem.ProblemType); err != nil {
		return model.ProblemVerdict{}, err
	}

	selected := make([]model.TestCase, 0, len(problem.TestCases))
	for _, tc := range problem.TestCases {
		if tc.Hidden && !req.IncludeHidden {
			continue
		}
		selected = append(selected, tc)
	}
	if len(selected) == 0 {
		return model.ProblemVerdict{}, appErr.Newf(appErr.TestCaseNotFound, "problem %s has no visible test cases", problem.ID)
	}

	cases := make([]model.CaseVerdict, len(selected))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.caseConcurrency)
	for i, tc := range selected {
		i, tc := i, tc
		g.Go(func() error {
			v, err := s.run(gctx, lang, harness.Source{
				Code:           req.Code,
				Input:          tc.Input,
				Expected:       tc.Expected,
				ProblemType:    problem.ProblemType,
				OrderSensitive: problem.OrderSensitive,
			})
			if err != nil {
				v = verdict.FromError(err)
			}
			if tc.Hidden {
				v = verdict.Redact(v)
			}
			cases[i] = model.CaseVerdict{TestCaseID: tc.ID, Hidden: tc.Hidden, Verdict: v}
			return nil
		})
	}
	_ = g.Wait()

	out := model.ProblemVerdict{
		ProblemID:  problem.ID,
		TotalCount: len(cases),
		Cases:      cases,
	}
	for _, c := range cases {
		if c.Verdict.Passed {
			out.PassedCount++
		} else if out.Message == "" {
			out.Message = c.Verdict.Message
		}
	}
	out.Passed = out.PassedCount == out.TotalCount
	if out.Passed {
		out.Message = verdict.MessagePassed
	}
	return out, nil
}

func (s *Service) getProblem(ctx context.Context, problemID string) (model.Problem, error) {
	if s.problems == nil {
		return model.Problem{}, appErr.ConfigError("problem catalog")
	}
	now := time.Now()
	if problem, ok := s.problemCache.get(problemID, now); ok {
		return problem, nil
	}

	ctxRead := ctx
	if s.problemTimeout > 0 {
		var cancel context.CancelFunc
		ctxRead, cancel = context.WithTimeout(ctx, s.problemTimeout)
		defer cancel()
	}
	problem, err := s.problems.Get(ctxRead, problemID)
	if err != nil {
		return model.Problem{}, err
	}
	s.problemCache.put(problemID, problem, now)
	return problem, nil
}

// publishVerdict is best effort; failures are logged only.
func (s *Service) publishVerdict(ctx context.Context, req model.ProblemRequest, out model.ProblemVerdict) {
	if s.publisher == nil {
		return
	}
	event := model.VerdictEvent{
		Type:        model.VerdictEventProblemJudged,
		ProblemID:   out.ProblemID,
		Language:    req.Language,
		Passed:      out.Passed,
		PassedCount: out.PassedCount,
		TotalCount:  out.TotalCount,
		TraceID:     contextkey.Value(ctx, contextkey.TraceID),
		CreatedAt:   time.Now().Unix(),
	}
	ctxPublish := context.WithoutCancel(ctx)
	if s.publishTimeout > 0 {
		var cancel context.CancelFunc
		ctxPublish, cancel = context.WithTimeout(ctxPublish, s.publishTimeout)
		defer cancel()
	}
	if err := s.publisher.PublishVerdict(ctxPublish, event); err != nil {
		logger.Warn(ctx, "publish verdict event failed", zap.String("problem_id", out.ProblemID), zap.Error(err))
	}
}
