package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
)

// ServiceProxy is an ergonomic façade over Dispatch for one service: each
// Call turns a method name and arguments into a dispatched task, so
//
//	proxy.Call(ctx, "Foo", a, b)
//
// is equivalent to dispatching {ServiceName, MethodName: "Foo",
// MethodArguments: [a, b]}.
type ServiceProxy struct {
	dispatcher *Dispatcher
	service    string
	scope      string
}

// Service returns a proxy bound to the named service. An optional scope
// qualifies the service on the worker; it is passed through verbatim.
func (d *Dispatcher) Service(name string, scope ...string) *ServiceProxy {
	proxy := &ServiceProxy{dispatcher: d, service: name}
	if len(scope) > 0 {
		proxy.scope = scope[0]
	}
	return proxy
}

// Call invokes a method on the proxied service, preserving argument order
// verbatim, and returns the raw marshalled result.
func (p *ServiceProxy) Call(ctx context.Context, method string, args ...any) (json.RawMessage, error) {
	return p.dispatcher.Dispatch(ctx, Task{
		ServiceName:      p.service,
		ServiceScopeName: p.scope,
		MethodName:       method,
		MethodArguments:  args,
	})
}

// Invoke calls a method through a proxy and decodes the result into T.
func Invoke[T any](ctx context.Context, p *ServiceProxy, method string, args ...any) (T, error) {
	var out T
	raw, err := p.Call(ctx, method, args...)
	if err != nil {
		return out, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode result of %s.%s: %w", p.service, method, err)
	}
	return out, nil
}
