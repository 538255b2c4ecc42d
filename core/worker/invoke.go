package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"runtime/debug"
	"unicode"
	"unicode/utf8"
)

var errMethodNotFound = errors.New("method not found")

// panicError preserves the stack of a panic inside an invoked method so it
// can be reported back to the caller.
type panicError struct {
	value any
	stack string
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// invokeMethod resolves methodName on svc and calls it with the decoded
// arguments. The marshalled return value comes back as raw JSON.
//
// Method resolution is reflective, the way net/rpc resolves handlers: the
// wire-level method name is matched against the service's exported method
// set, trying the name as sent first and then with its first rune upper-cased
// so lower-cased names from foreign callers still resolve. An optional
// leading context.Context parameter receives ctx; a trailing error return is
// split off as the failure channel. Multiple non-error return values are
// marshalled as an array.
func invokeMethod(ctx context.Context, svc any, methodName string, args []json.RawMessage) (result json.RawMessage, err error) {
	method, ok := resolveMethod(reflect.ValueOf(svc), methodName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", errMethodNotFound, methodName)
	}

	in, err := buildArguments(ctx, method.Type(), methodName, args)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &panicError{value: r, stack: string(debug.Stack())}
		}
	}()

	out := method.Call(in)

	if n := len(out); n > 0 && method.Type().Out(n-1) == errorType {
		if callErr, _ := out[n-1].Interface().(error); callErr != nil {
			return nil, callErr
		}
		out = out[:n-1]
	}

	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return marshalResult(out[0].Interface())
	default:
		values := make([]any, len(out))
		for i, v := range out {
			values[i] = v.Interface()
		}
		return marshalResult(values)
	}
}

func resolveMethod(svc reflect.Value, name string) (reflect.Value, bool) {
	if name == "" {
		return reflect.Value{}, false
	}
	if m := svc.MethodByName(name); m.IsValid() {
		return m, true
	}
	if exported := exportedName(name); exported != name {
		if m := svc.MethodByName(exported); m.IsValid() {
			return m, true
		}
	}
	return reflect.Value{}, false
}

func exportedName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

func buildArguments(ctx context.Context, mt reflect.Type, methodName string, args []json.RawMessage) ([]reflect.Value, error) {
	offset := 0
	in := make([]reflect.Value, 0, mt.NumIn())
	if mt.NumIn() > 0 && mt.In(0) == contextType {
		in = append(in, reflect.ValueOf(ctx))
		offset = 1
	}

	want := mt.NumIn() - offset
	if mt.IsVariadic() {
		if len(args) < want-1 {
			return nil, fmt.Errorf("method %q expects at least %d arguments, got %d", methodName, want-1, len(args))
		}
	} else if len(args) != want {
		return nil, fmt.Errorf("method %q expects %d arguments, got %d", methodName, want, len(args))
	}

	for i, raw := range args {
		paramIndex := i + offset
		var paramType reflect.Type
		if mt.IsVariadic() && paramIndex >= mt.NumIn()-1 {
			paramType = mt.In(mt.NumIn() - 1).Elem()
		} else {
			paramType = mt.In(paramIndex)
		}

		value := reflect.New(paramType)
		if err := json.Unmarshal(raw, value.Interface()); err != nil {
			return nil, fmt.Errorf("decode argument %d of method %q: %w", i, methodName, err)
		}
		in = append(in, value.Elem())
	}
	return in, nil
}

func marshalResult(v any) (json.RawMessage, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return raw, nil
}
