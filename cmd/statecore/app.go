package main

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/tailored-agentic-units/statecore/action"
	"github.com/tailored-agentic-units/statecore/producer"
	"github.com/tailored-agentic-units/statecore/slice"
)

// AppState is the demo application state.
type AppState struct {
	Counter CounterState `json:"counter"`
	Stats   StatsState   `json:"stats"`
	Search  SearchState  `json:"search"`
}

type CounterState struct {
	Count int `json:"count"`
}

// StatsState reacts to counter actions owned by the counter slice.
type StatsState struct {
	Changes int   `json:"changes"`
	History []int `json:"history,omitempty"`
}

type SearchState struct {
	Query   string   `json:"query,omitempty"`
	Pending bool     `json:"pending"`
	Results []string `json:"results,omitempty"`
}

const historyLimit = 10

var (
	counterSlice = slice.New[AppState]("counter")
	statsSlice   = slice.New[AppState]("stats")
	searchSlice  = slice.New[AppState]("search")
)

var (
	Increment = slice.MustAddReducer(counterSlice, "increment", func(s AppState, n int) AppState {
		s.Counter = CounterState{Count: s.Counter.Count + n}
		return s
	})
	Decrement = slice.MustAddReducer(counterSlice, "decrement", func(s AppState, n int) AppState {
		s.Counter = CounterState{Count: s.Counter.Count - n}
		return s
	})
	Reset = slice.MustAddReducer(counterSlice, "reset", func(s AppState, _ struct{}) AppState {
		s.Counter = CounterState{}
		return s
	})

	SearchStarted = slice.MustAddReducer(searchSlice, "started", func(s AppState, query string) AppState {
		s.Search = SearchState{Query: query, Pending: true, Results: s.Search.Results}
		return s
	})
	SearchCompleted = slice.MustAddReducer(searchSlice, "completed", func(s AppState, results []string) AppState {
		s.Search = SearchState{Query: s.Search.Query, Results: results}
		return s
	})
)

func init() {
	slice.MustOn(statsSlice, Increment, func(s AppState, n int) AppState {
		s.Stats = recordChange(s.Stats, n)
		return s
	})
	slice.MustOn(statsSlice, Decrement, func(s AppState, n int) AppState {
		s.Stats = recordChange(s.Stats, -n)
		return s
	})
}

func recordChange(stats StatsState, delta int) StatsState {
	history := append(slices.Clone(stats.History), delta)
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}
	return StatsState{Changes: stats.Changes + 1, History: history}
}

func appSlices() []*slice.Slice[AppState] {
	return []*slice.Slice[AppState]{counterSlice, statsSlice, searchSlice}
}

var catalog = []string{
	"channel", "context", "gopher", "goroutine", "golang",
	"observer", "producer", "reducer", "select", "slice", "store",
}

// newSearch returns a keep-latest search producer factory. Each search
// simulates a lookup that takes latency.
func newSearch(latency time.Duration) func(string) action.Producer {
	return producer.KeepLatest(func(query string) action.Producer {
		return func(ctx context.Context, yield func(action.Dispatchable) bool) error {
			if !yield(SearchStarted.New(query)) {
				return action.ErrCancelled
			}

			results, err := producer.Await(ctx, func(ctx context.Context) ([]string, error) {
				return lookup(ctx, query, latency)
			})
			if err != nil {
				return err
			}

			if !yield(SearchCompleted.New(results)) {
				return action.ErrCancelled
			}
			return nil
		}
	})
}

func lookup(ctx context.Context, query string, latency time.Duration) ([]string, error) {
	select {
	case <-time.After(latency):
	case <-ctx.Done():
		return nil, context.Cause(ctx)
	}

	var matches []string
	for _, word := range catalog {
		if strings.HasPrefix(word, query) {
			matches = append(matches, word)
		}
	}
	return matches, nil
}
