// Package service orchestrates judging: validate, generate, dispatch, classify.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"codeduel/internal/judge/backend"
	"codeduel/internal/judge/compare"
	"codeduel/internal/judge/harness"
	"codeduel/internal/judge/language"
	"codeduel/internal/judge/model"
	"codeduel/internal/judge/repository"
	"codeduel/internal/judge/verdict"
	appErr "codeduel/pkg/errors"
	"codeduel/pkg/utils/contextkey"
	"codeduel/pkg/utils/logger"

	"go.uber.org/zap"
)

const defaultCaseConcurrency = 4

// Dispatcher runs programs on the execution backend.
type Dispatcher interface {
	Configured() bool
	Dispatch(ctx context.Context, sub backend.Submission) (backend.Result, error)
}

// Service judges submissions. It is safe for concurrent use.
type Service struct {
	languages       *language.Registry
	generator       *harness.Generator
	backend         Dispatcher
	problems        repository.ProblemReader
	publisher       repository.VerdictEventPublisher
	caseConcurrency int
	problemTimeout  time.Duration
	publishTimeout  time.Duration
	problemCache    *problemCache
}

// Config holds service dependencies and settings.
type Config struct {
	Languages *language.Registry
	Generator *harness.Generator
	Backend   Dispatcher
	// Problems and Publisher are optional.
	Problems        repository.ProblemReader
	Publisher       repository.VerdictEventPublisher
	CaseConcurrency int
	ProblemTimeout  time.Duration
	PublishTimeout  time.Duration
	// ProblemCacheTTL keeps catalog reads in memory; zero disables it.
	ProblemCacheTTL time.Duration
}

// NewService creates a new judge service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Languages == nil {
		return nil, fmt.Errorf("language registry is required")
	}
	if cfg.Generator == nil {
		return nil, fmt.Errorf("harness generator is required")
	}
	if cfg.Backend == nil {
		return nil, fmt.Errorf("backend dispatcher is required")
	}
	concurrency := cfg.CaseConcurrency
	if concurrency <= 0 {
		concurrency = defaultCaseConcurrency
	}
	return &Service{
		languages:       cfg.Languages,
		generator:       cfg.Generator,
		backend:         cfg.Backend,
		problems:        cfg.Problems,
		publisher:       cfg.Publisher,
		caseConcurrency: concurrency,
		problemTimeout:  cfg.ProblemTimeout,
		publishTimeout:  cfg.PublishTimeout,
		problemCache:    newProblemCache(cfg.ProblemCacheTTL, maxCachedProblems),
	}, nil
}

// Languages returns the supported language descriptors.
func (s *Service) Languages() []language.Descriptor {
	return s.languages.List()
}

// Judge runs one submission against one test case. Every failure is reported
// as a verdict with passed=false.
func (s *Service) Judge(ctx context.Context, req model.SubmissionRequest) model.JudgeVerdict {
	start := time.Now()
	ctx = contextkey.With(ctx, contextkey.Language, req.Language)
	v, err := s.judge(ctx, req)
	if err != nil {
		s.logFailure(ctx, "judge request failed", err)
		return verdict.FromError(err)
	}
	logger.Info(ctx, "judge request finished",
		zap.Bool("passed", v.Passed),
		zap.String("message", v.Message),
		zap.Duration("latency", time.Since(start)),
	)
	return v
}

func (s *Service) judge(ctx context.Context, req model.SubmissionRequest) (model.JudgeVerdict, error) {
	if !s.backend.Configured() {
		return model.JudgeVerdict{}, appErr.ConfigError("JUDGE_BACKEND_API_KEY")
	}
	if err := req.Validate(); err != nil {
		return model.JudgeVerdict{}, err
	}
	lang, err := s.languages.Lookup(req.Language)
	if err != nil {
		return model.JudgeVerdict{}, err
	}
	return s.run(ctx, lang, harness.Source{
		Code:           req.Code,
		Input:          req.Input,
		Expected:       req.Expected,
		ProblemType:    req.ProblemType,
		OrderSensitive: req.OrderSensitive,
	})
}

// run generates the program for one test case, dispatches it and classifies
// the backend result.
func (s *Service) run(ctx context.Context, lang language.Descriptor, src harness.Source) (model.JudgeVerdict, error) {
	sub := backend.Submission{LanguageID: lang.BackendID}
	mode := verdict.Mode{}

	program, err := s.generator.Generate(lang.Family, src)
	switch {
	case errors.Is(err, harness.ErrNoHarness):
		// Raw mode: the program reads the input from stdin.
		sub.SourceCode = src.Code
		sub.Stdin = src.Input
		mode.Expected = src.Expected
	case err != nil:
		return model.JudgeVerdict{}, err
	default:
		sub.SourceCode = program.Text
		mode.UsedHarness = true
		logger.Debug(ctx, "harness generated",
			zap.String("language", lang.ID),
			zap.String("archetype", string(program.Archetype)),
			zap.String("entry_point", program.EntryPoint),
		)
	}

	res, err := s.backend.Dispatch(ctx, sub)
	if err != nil {
		return model.JudgeVerdict{}, err
	}
	return verdict.Classify(res, mode), nil
}

// Compare decides whether two serialized values are equivalent.
func (s *Service) Compare(req model.CompareRequest) (model.CompareResponse, error) {
	if err := req.Validate(); err != nil {
		return model.CompareResponse{}, err
	}
	opts := compare.Options{OrderSensitive: req.OrderSensitive}
	var actual any
	if req.Actual != "" {
		actual = compare.Decode(req.Actual)
	}
	return model.CompareResponse{Equal: opts.Equal(compare.Decode(req.Expected), actual)}, nil
}

func (s *Service) logFailure(ctx context.Context, msg string, err error) {
	fields := []zap.Field{
		zap.Int("code", int(appErr.GetCode(err))),
		zap.Error(err),
	}
	if appErr.IsServerSide(err) {
		logger.Error(ctx, msg, fields...)
		return
	}
	logger.Warn(ctx, msg, fields...)
}
