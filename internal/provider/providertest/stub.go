// Package providertest provides a scripted in-memory wallet provider for tests.
package providertest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/cupcakedapp/cupcake/internal/provider"
)

// Handler answers one request. Params arrive JSON round-tripped, as a
// real provider would see them.
type Handler func(ctx context.Context, params []json.RawMessage) (any, error)

// Call is one recorded request.
type Call struct {
	Method string
	Params []json.RawMessage
}

// Stub is a provider.Requester driven by per-method handlers. Methods
// without a handler fail with code 4200.
type Stub struct {
	mu       sync.Mutex
	handlers map[string]Handler
	calls    []Call
}

var _ provider.Requester = (*Stub)(nil)

// New creates an empty stub.
func New() *Stub {
	return &Stub{handlers: make(map[string]Handler)}
}

// Handle installs fn for method, replacing any previous handler.
func (s *Stub) Handle(method string, fn Handler) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method] = fn
	return s
}

// Respond makes method always succeed with result.
func (s *Stub) Respond(method string, result any) *Stub {
	return s.Handle(method, func(context.Context, []json.RawMessage) (any, error) {
		return result, nil
	})
}

// RespondSeq makes method return results in order, repeating the last one.
func (s *Stub) RespondSeq(method string, results ...any) *Stub {
	var (
		mu sync.Mutex
		i  int
	)
	return s.Handle(method, func(context.Context, []json.RawMessage) (any, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(results) == 0 {
			return nil, nil
		}
		r := results[min(i, len(results)-1)]
		i++
		if err, ok := r.(error); ok {
			return nil, err
		}
		return r, nil
	})
}

// Fail makes method always fail with err.
func (s *Stub) Fail(method string, err error) *Stub {
	return s.Handle(method, func(context.Context, []json.RawMessage) (any, error) {
		return nil, err
	})
}

// Request implements provider.Requester.
func (s *Stub) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	raw := make([]json.RawMessage, 0, len(params))
	for _, p := range params {
		b, err := json.Marshal(p)
		if err != nil {
			return nil, err
		}
		raw = append(raw, b)
	}

	s.mu.Lock()
	s.calls = append(s.calls, Call{Method: method, Params: raw})
	fn, ok := s.handlers[method]
	s.mu.Unlock()

	if !ok {
		return nil, &provider.Error{Code: provider.CodeUnsupportedMethod, Message: "method not supported: " + method}
	}

	result, err := fn(ctx, raw)
	if err != nil {
		return nil, err
	}
	if rm, ok := result.(json.RawMessage); ok {
		return rm, nil
	}
	return json.Marshal(result)
}

// Calls returns the recorded requests for method, or every request when
// method is empty.
func (s *Stub) Calls(method string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Call
	for _, c := range s.calls {
		if method == "" || c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Count returns how many times method was requested.
func (s *Stub) Count(method string) int {
	return len(s.Calls(method))
}

// Methods returns the requested method names in order.
func (s *Stub) Methods() []string {
	calls := s.Calls("")
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Method
	}
	return out
}
