package repository_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"codeduel/internal/common/cache"
	"codeduel/internal/common/mq"
	"codeduel/internal/judge/model"
	"codeduel/internal/judge/repository"
	appErr "codeduel/pkg/errors"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRepo(t *testing.T) (*repository.ProblemRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	c, err := cache.NewRedisCacheWithClient(client)
	if err != nil {
		t.Fatalf("new cache failed: %v", err)
	}
	return repository.NewProblemRepository(c), mr
}

func TestProblemRepositoryGet(t *testing.T) {
	t.Parallel()
	repo, mr := newRepo(t)
	problem := model.Problem{
		Title:       "Two Sum",
		ProblemType: "two_sum",
		TestCases: []model.TestCase{
			{ID: "1", Input: `{"nums":[2,7,11,15],"target":9}`, Expected: `[0,1]`},
			{ID: "2", Input: `{"nums":[3,3],"target":6}`, Expected: `[0,1]`, Hidden: true},
		},
	}
	body, _ := json.Marshal(problem)
	mr.Set(repository.ProblemKey("p1"), string(body))

	got, err := repo.Get(context.Background(), "p1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.ID != "p1" || got.ProblemType != "two_sum" || len(got.TestCases) != 2 || !got.TestCases[1].Hidden {
		t.Fatalf("unexpected problem: %+v", got)
	}
}

func TestProblemRepositoryErrors(t *testing.T) {
	t.Parallel()
	repo, mr := newRepo(t)
	mr.Set(repository.ProblemKey("broken"), "{not json")
	mr.Set(repository.ProblemKey("empty"), `{"id":"empty","testCases":[]}`)
	mr.Set(repository.ProblemKey("partial"), `{"id":"partial","testCases":[{"id":"1","input":"1"}]}`)

	tests := []struct {
		id   string
		code appErr.ErrorCode
	}{
		{id: "", code: appErr.ValidationFailed},
		{id: "missing", code: appErr.ProblemNotFound},
		{id: "broken", code: appErr.CacheError},
		{id: "empty", code: appErr.TestCaseNotFound},
		{id: "partial", code: appErr.TestCaseInvalid},
	}
	for _, tt := range tests {
		if _, err := repo.Get(context.Background(), tt.id); !appErr.Is(err, tt.code) {
			t.Fatalf("Get(%q) expected code %d, got %v", tt.id, tt.code, err)
		}
	}
}

func TestProblemRepositoryUnavailable(t *testing.T) {
	t.Parallel()
	repo, mr := newRepo(t)
	mr.Close()
	if _, err := repo.Get(context.Background(), "p1"); !appErr.Is(err, appErr.CacheError) {
		t.Fatalf("expected cache error, got %v", err)
	}
	var nilRepo *repository.ProblemRepository
	if _, err := nilRepo.Get(context.Background(), "p1"); !appErr.Is(err, appErr.ConfigurationError) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

type fakeProducer struct {
	topic    string
	messages []*mq.Message
	err      error
}

func (f *fakeProducer) Publish(ctx context.Context, topic string, message *mq.Message) error {
	if f.err != nil {
		return f.err
	}
	f.topic = topic
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeProducer) Close() error { return nil }

func TestMQVerdictEventPublisher(t *testing.T) {
	t.Parallel()
	producer := &fakeProducer{}
	pub := repository.NewMQVerdictEventPublisher(producer, "judge.verdicts")
	event := model.VerdictEvent{
		Type:        model.VerdictEventProblemJudged,
		ProblemID:   "p1",
		Language:    "python",
		PassedCount: 1,
		TotalCount:  2,
		TraceID:     "trace-1",
		CreatedAt:   1700000000,
	}
	if err := pub.PublishVerdict(context.Background(), event); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if producer.topic != "judge.verdicts" || len(producer.messages) != 1 {
		t.Fatalf("unexpected publish: topic=%q count=%d", producer.topic, len(producer.messages))
	}
	msg := producer.messages[0]
	if msg.Key != "p1" || msg.Headers["event-type"] != "problem_judged" || msg.Headers["trace-id"] != "trace-1" {
		t.Fatalf("unexpected message metadata: %+v", msg)
	}
	var decoded model.VerdictEvent
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("decode body failed: %v", err)
	}
	if decoded != event {
		t.Fatalf("expected %+v, got %+v", event, decoded)
	}
}

func TestMQVerdictEventPublisherErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	event := model.VerdictEvent{Type: model.VerdictEventProblemJudged, ProblemID: "p1"}

	if err := repository.NewMQVerdictEventPublisher(nil, "t").PublishVerdict(ctx, event); !appErr.Is(err, appErr.ServiceUnavailable) {
		t.Fatalf("expected service unavailable, got %v", err)
	}
	if err := repository.NewMQVerdictEventPublisher(&fakeProducer{}, "").PublishVerdict(ctx, event); !appErr.Is(err, appErr.InvalidParams) {
		t.Fatalf("expected invalid params, got %v", err)
	}
	if err := repository.NewMQVerdictEventPublisher(&fakeProducer{}, "t").PublishVerdict(ctx, model.VerdictEvent{}); !appErr.Is(err, appErr.ValidationFailed) {
		t.Fatalf("expected validation error, got %v", err)
	}
	failing := &fakeProducer{err: errors.New("broker down")}
	if err := repository.NewMQVerdictEventPublisher(failing, "t").PublishVerdict(ctx, event); !appErr.Is(err, appErr.EventPublishFailed) {
		t.Fatalf("expected publish failure, got %v", err)
	}
}
