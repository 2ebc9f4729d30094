package rpc

import (
	"context"
	"encoding/json"
	"fmt"
)

// Caller issues a JSON-RPC call. requiresAuth tells the caller to make sure
// the session is authenticated first.
type Caller interface {
	Call(ctx context.Context, method string, params any, requiresAuth bool) (json.RawMessage, error)
}

// NoParams marks a method that takes no params object.
type NoParams struct{}

// Method binds a method name to its params and result types.
type Method[P, R any] struct {
	Name         string
	RequiresAuth bool
}

// NewMethod declares a method.
func NewMethod[P, R any](name string, requiresAuth bool) Method[P, R] {
	return Method[P, R]{Name: name, RequiresAuth: requiresAuth}
}

// Invoke calls m through c and decodes the result into R.
func Invoke[P, R any](ctx context.Context, c Caller, m Method[P, R], params P) (R, error) {
	var zero R

	var p any = params
	if _, ok := p.(NoParams); ok {
		p = nil
	}

	raw, err := c.Call(ctx, m.Name, p, m.RequiresAuth)
	if err != nil {
		return zero, err
	}

	var out R
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, fmt.Errorf("decode %s result: %w", m.Name, err)
	}
	return out, nil
}
