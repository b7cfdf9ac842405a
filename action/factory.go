package action

// Factory builds actions of one fixed type. The type parameter P records the
// payload type so reducers registered against the factory in other slices are
// checked against the same payload at compile time.
type Factory[P any] struct {
	typ string
}

// NewFactory creates a Factory for the given full action type.
func NewFactory[P any](typ string) Factory[P] {
	return Factory[P]{typ: typ}
}

// Type returns the full action type the factory produces.
func (f Factory[P]) Type() string {
	return f.typ
}

// New builds an Action carrying payload.
func (f Factory[P]) New(payload P) Action {
	return Action{Type: f.typ, Payload: payload}
}

// Match reports whether a was built for this factory's type and returns its
// payload. A nil payload matches with the zero value of P.
func (f Factory[P]) Match(a Action) (P, bool) {
	var zero P
	if a.Type != f.typ {
		return zero, false
	}
	if a.Payload == nil {
		return zero, true
	}
	p, ok := a.Payload.(P)
	return p, ok
}
