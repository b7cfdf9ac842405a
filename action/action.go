// Package action defines the values a store accepts: plain actions and
// action producers.
//
// An Action is an immutable {Type, Payload} record. A Producer is a routine
// that yields actions over time, possibly blocking on external work between
// yields. Both satisfy Dispatchable, so a store's Dispatch accepts either and
// a producer may yield further producers.
//
//	inc := action.NewFactory[int]("[counter] increment")
//	s.Dispatch(inc.New(5))
//	s.Dispatch(action.Producer(func(ctx context.Context, yield func(action.Dispatchable) bool) error {
//	    n, err := fetchDelta(ctx)
//	    if err != nil {
//	        return err
//	    }
//	    yield(inc.New(n))
//	    return nil
//	}))
package action

// Dispatchable is the tagged union of values a store can dispatch: an Action
// or a Producer. The marker method is unexported so no other type can join it.
type Dispatchable interface {
	dispatchable()
}

// Action is a request to change state. Type is the dispatch key.
type Action struct {
	Type    string
	Payload any
}

// New creates an Action with the given type and payload.
func New(typ string, payload any) Action {
	return Action{Type: typ, Payload: payload}
}

func (Action) dispatchable() {}
