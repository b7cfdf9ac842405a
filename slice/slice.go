// Package slice groups reducers under a namespace and mints the action
// factories that target them.
//
// A Slice owns one reducer per action type. Types declared locally are
// namespaced as "[<slice name>] <local type>"; a type that is already
// namespaced, typically obtained from another slice's factory, is registered
// verbatim so one slice can react to an action owned by another.
//
//	var counter = slice.New[State]("counter")
//
//	var Increment = slice.MustAddReducer(counter, "increment",
//	    func(s State, n int) State { return State{Count: s.Count + n} })
//
// Slices are built during package initialisation and are not safe for
// concurrent registration.
package slice

import (
	"fmt"
	"slices"
	"strings"

	"github.com/tailored-agentic-units/statecore/action"
)

// Reducer computes a new state from the current state and an action payload.
//
// Reducers must be pure: they return a new value and never mutate the state
// they receive. The store publishes the returned value as is, so a reducer
// that mutates shared structure in place changes what observers already hold.
type Reducer[S, P any] func(state S, payload P) S

// ReduceFunc is a Reducer with its payload type erased, as stored in a Slice.
// It fails with ErrPayloadType when the payload does not have the registered
// type.
type ReduceFunc[S any] func(state S, payload any) (S, error)

// Slice is a named set of reducers keyed by full action type.
type Slice[S any] struct {
	name     string
	reducers map[string]ReduceFunc[S]
	types    []string
}

// New creates an empty Slice.
func New[S any](name string) *Slice[S] {
	return &Slice[S]{
		name:     name,
		reducers: make(map[string]ReduceFunc[S]),
	}
}

// Name returns the slice namespace.
func (s *Slice[S]) Name() string {
	return s.name
}

// Types returns the registered action types in registration order.
func (s *Slice[S]) Types() []string {
	return slices.Clone(s.types)
}

// Reducer returns the type-erased reducer registered for typ.
func (s *Slice[S]) Reducer(typ string) (ReduceFunc[S], bool) {
	r, ok := s.reducers[typ]
	return r, ok
}

// TypeName returns the namespaced action type for a local type.
func TypeName(sliceName, localType string) string {
	return "[" + sliceName + "] " + localType
}

// IsNamespaced reports whether typ already carries a "[slice] " prefix.
func IsNamespaced(typ string) bool {
	if !strings.HasPrefix(typ, "[") {
		return false
	}
	end := strings.Index(typ, "] ")
	return end > 0 && end+2 < len(typ)
}

// AddReducer registers reducer under localType and returns the factory for
// the resolved full type.
//
// Returns ErrEmptyType for an empty type and ErrDuplicateReducer if the slice
// already has a reducer for the resolved type.
func AddReducer[S, P any](s *Slice[S], localType string, reducer Reducer[S, P]) (action.Factory[P], error) {
	if localType == "" {
		return action.Factory[P]{}, fmt.Errorf("%w: slice %s", ErrEmptyType, s.name)
	}

	typ := localType
	if !IsNamespaced(typ) {
		typ = TypeName(s.name, localType)
	}

	if _, exists := s.reducers[typ]; exists {
		return action.Factory[P]{}, fmt.Errorf("%w: %s in slice %s", ErrDuplicateReducer, typ, s.name)
	}

	s.reducers[typ] = erase[S](typ, reducer)
	s.types = append(s.types, typ)

	return action.NewFactory[P](typ), nil
}

// MustAddReducer is like AddReducer but panics on error. It is intended for
// package-level factory declarations.
func MustAddReducer[S, P any](s *Slice[S], localType string, reducer Reducer[S, P]) action.Factory[P] {
	f, err := AddReducer(s, localType, reducer)
	if err != nil {
		panic(err)
	}
	return f
}

// On registers reducer for an action owned by another slice. The factory's
// payload type binds the reducer's payload type.
func On[S, P any](s *Slice[S], factory action.Factory[P], reducer Reducer[S, P]) error {
	if !IsNamespaced(factory.Type()) {
		return fmt.Errorf("%w: %q", ErrNotNamespaced, factory.Type())
	}
	_, err := AddReducer(s, factory.Type(), reducer)
	return err
}

// MustOn is like On but panics on error.
func MustOn[S, P any](s *Slice[S], factory action.Factory[P], reducer Reducer[S, P]) {
	if err := On(s, factory, reducer); err != nil {
		panic(err)
	}
}

func erase[S, P any](typ string, reducer Reducer[S, P]) ReduceFunc[S] {
	return func(state S, payload any) (S, error) {
		if payload == nil {
			var zero P
			return reducer(state, zero), nil
		}
		p, ok := payload.(P)
		if !ok {
			var want P
			return state, fmt.Errorf("%w: %s expects %T, got %T", ErrPayloadType, typ, want, payload)
		}
		return reducer(state, p), nil
	}
}
