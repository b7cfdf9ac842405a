package producer_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/tailored-agentic-units/statecore/action"
	"github.com/tailored-agentic-units/statecore/observability"
	"github.com/tailored-agentic-units/statecore/producer"
	"github.com/tailored-agentic-units/statecore/slice"
	"github.com/tailored-agentic-units/statecore/store"
)

const resultType = "[search] result"

// gatedSearch yields "<query>-1", blocks on gates[query] if present, then
// yields "<query>-2". It reports whether the second yield was accepted and
// the context cause observed at that point.
type gatedSearch struct {
	gates   map[string]chan struct{}
	outcome chan searchOutcome
}

type searchOutcome struct {
	query    string
	accepted bool
	cause    error
}

func (g *gatedSearch) factory(query string) action.Producer {
	return func(ctx context.Context, yield func(action.Dispatchable) bool) error {
		if !yield(action.New(resultType, query+"-1")) {
			return action.ErrCancelled
		}
		if gate, ok := g.gates[query]; ok {
			<-gate
		}
		accepted := yield(action.New(resultType, query+"-2"))
		g.outcome <- searchOutcome{query: query, accepted: accepted, cause: context.Cause(ctx)}
		if !accepted {
			return action.ErrCancelled
		}
		return nil
	}
}

func collector() (func(action.Dispatchable) bool, chan string) {
	got := make(chan string, 16)
	return func(d action.Dispatchable) bool {
		got <- d.(action.Action).Payload.(string)
		return true
	}, got
}

func drain(ch chan string) []string {
	var out []string
	for {
		select {
		case v := <-ch:
			out = append(out, v)
		default:
			return out
		}
	}
}

func TestKeepLatest_SupersededRunStopsForwarding(t *testing.T) {
	g := &gatedSearch{
		gates:   map[string]chan struct{}{"first": make(chan struct{})},
		outcome: make(chan searchOutcome, 2),
	}
	search := producer.KeepLatest(g.factory)
	yield, got := collector()

	first := search("first")
	errCh := make(chan error, 1)
	go func() { errCh <- first(context.Background(), yield) }()

	if v := <-got; v != "first-1" {
		t.Fatalf("first forwarded %q, want %q", v, "first-1")
	}

	second := search("second")
	close(g.gates["first"])

	if err := <-errCh; err != nil {
		t.Errorf("superseded run returned %v, want nil", err)
	}
	outcome := <-g.outcome
	if outcome.accepted {
		t.Error("superseded run's yield was accepted")
	}
	if !errors.Is(outcome.cause, action.ErrCancelled) {
		t.Errorf("superseded run cause = %v, want %v", outcome.cause, action.ErrCancelled)
	}

	if err := second(context.Background(), yield); err != nil {
		t.Errorf("latest run returned %v, want nil", err)
	}

	if forwarded := drain(got); !slices.Equal(forwarded, []string{"second-1", "second-2"}) {
		t.Errorf("forwarded after supersession = %v, want [second-1 second-2]", forwarded)
	}
}

func TestKeepLatest_SupersededBeforeStart(t *testing.T) {
	g := &gatedSearch{outcome: make(chan searchOutcome, 2)}
	search := producer.KeepLatest(g.factory)
	yield, got := collector()

	first := search("first")
	second := search("second")

	if err := first(context.Background(), yield); err != nil {
		t.Errorf("superseded run returned %v, want nil", err)
	}
	if err := second(context.Background(), yield); err != nil {
		t.Errorf("latest run returned %v, want nil", err)
	}

	if forwarded := drain(got); !slices.Equal(forwarded, []string{"second-1", "second-2"}) {
		t.Errorf("forwarded = %v, want [second-1 second-2]", forwarded)
	}
}

func TestKeepLatest_IndependentWrappers(t *testing.T) {
	g := &gatedSearch{outcome: make(chan searchOutcome, 4)}
	searchA := producer.KeepLatest(g.factory)
	searchB := producer.KeepLatest(g.factory)
	yield, got := collector()

	a := searchA("a")
	_ = searchB("b")

	if err := a(context.Background(), yield); err != nil {
		t.Fatalf("run returned %v, want nil", err)
	}
	if forwarded := drain(got); !slices.Equal(forwarded, []string{"a-1", "a-2"}) {
		t.Errorf("forwarded = %v, want [a-1 a-2]", forwarded)
	}
}

func TestKeepLatest_PropagatesErrorsOfLatest(t *testing.T) {
	failing := producer.KeepLatest(func(msg string) action.Producer {
		return func(ctx context.Context, yield func(action.Dispatchable) bool) error {
			return errors.New(msg)
		}
	})

	err := failing("lookup failed")(context.Background(), func(action.Dispatchable) bool { return true })
	if err == nil || err.Error() != "lookup failed" {
		t.Errorf("got %v, want lookup failed", err)
	}
}

type searchState struct {
	Results []string
}

func TestKeepLatest_ThroughStore(t *testing.T) {
	results := slice.New[searchState]("search")
	found := slice.MustAddReducer(results, "result", func(s searchState, r string) searchState {
		return searchState{Results: append(slices.Clone(s.Results), r)}
	})

	s, err := store.New(nil, searchState{}, []*slice.Slice[searchState]{results},
		store.WithEventObserver(observability.NoOpObserver{}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer s.Shutdown(time.Second)
	if err := s.Init(searchState{}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	gate := make(chan struct{})
	firstYielded := make(chan struct{})
	search := producer.KeepLatest(func(query string) action.Producer {
		return func(ctx context.Context, yield func(action.Dispatchable) bool) error {
			if !yield(found.New(query + "-1")) {
				return action.ErrCancelled
			}
			if query == "first" {
				close(firstYielded)
				<-gate
			}
			if !yield(found.New(query + "-2")) {
				return action.ErrCancelled
			}
			return nil
		}
	})

	s.Dispatch(search("first"))
	<-firstYielded

	second := search("second")
	close(gate)
	s.Dispatch(second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Wait(ctx); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	got := s.GetState().Results
	if slices.Contains(got, "first-2") {
		t.Errorf("superseded result reached the store: %v", got)
	}
	for _, want := range []string{"first-1", "second-1", "second-2"} {
		if !slices.Contains(got, want) {
			t.Errorf("missing %q in %v", want, got)
		}
	}
	if i, j := slices.Index(got, "second-1"), slices.Index(got, "second-2"); i > j {
		t.Errorf("latest run applied out of order: %v", got)
	}

	m := s.Metrics()
	if m.ProducersCompleted != 2 || m.ProducersFailed != 0 || m.ProducersCancelled != 0 {
		t.Errorf("metrics = %+v, want 2 completed", m)
	}
}

func TestOf(t *testing.T) {
	yield, got := collector()
	p := producer.Of(action.New(resultType, "a"), action.New(resultType, "b"))

	if err := p(context.Background(), yield); err != nil {
		t.Fatalf("Of returned %v", err)
	}
	if forwarded := drain(got); !slices.Equal(forwarded, []string{"a", "b"}) {
		t.Errorf("forwarded = %v, want [a b]", forwarded)
	}
}

func TestFromSeq(t *testing.T) {
	seq := slices.Values([]action.Action{
		action.New(resultType, "a"),
		action.New(resultType, "b"),
		action.New(resultType, "c"),
	})

	t.Run("yields all", func(t *testing.T) {
		yield, got := collector()
		if err := producer.FromSeq(seq)(context.Background(), yield); err != nil {
			t.Fatalf("FromSeq returned %v", err)
		}
		if forwarded := drain(got); !slices.Equal(forwarded, []string{"a", "b", "c"}) {
			t.Errorf("forwarded = %v, want [a b c]", forwarded)
		}
	})

	t.Run("stops when rejected", func(t *testing.T) {
		var seen int
		err := producer.FromSeq(seq)(context.Background(), func(action.Dispatchable) bool {
			seen++
			return seen < 2
		})
		if !errors.Is(err, action.ErrCancelled) {
			t.Errorf("got %v, want %v", err, action.ErrCancelled)
		}
		if seen != 2 {
			t.Errorf("consumer saw %d values, want 2", seen)
		}
	})
}

func TestAwait(t *testing.T) {
	t.Run("returns result", func(t *testing.T) {
		got, err := producer.Await(context.Background(), func(ctx context.Context) (int, error) {
			return 42, nil
		})
		if err != nil || got != 42 {
			t.Errorf("got (%d, %v), want (42, nil)", got, err)
		}
	})

	t.Run("returns cause on cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancelCause(context.Background())
		block := make(chan struct{})
		defer close(block)

		go cancel(action.ErrCancelled)
		_, err := producer.Await(ctx, func(ctx context.Context) (int, error) {
			<-block
			return 0, nil
		})
		if !errors.Is(err, action.ErrCancelled) {
			t.Errorf("got %v, want %v", err, action.ErrCancelled)
		}
	})

	t.Run("recovers panic", func(t *testing.T) {
		_, err := producer.Await(context.Background(), func(ctx context.Context) (string, error) {
			panic("lookup crashed")
		})
		if err == nil || !strings.Contains(err.Error(), "lookup crashed") {
			t.Errorf("got %v, want panic error", err)
		}
	})
}
