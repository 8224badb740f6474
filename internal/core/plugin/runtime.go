package plugin

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/GoCodeAlone/yaegi/interp"
	"github.com/GoCodeAlone/yaegi/stdlib"

	"github.com/sindri-ai/sindri/sdk"
)

// Runtime executes a tool plugin file and resolves its constructor.
// The Discoverer only calls it for files whose static scan found a
// tool candidate.
type Runtime interface {
	Load(path string, src []byte, pkg, constructor string) (Factory, error)
}

// InterpreterRuntime runs plugin files in a fresh Go interpreter per file.
// Standard library packages on the import deny-list are not exposed, so a
// file importing them fails to load.
type InterpreterRuntime struct {
	symbols interp.Exports
}

// NewInterpreterRuntime creates a Runtime backed by the yaegi interpreter.
func NewInterpreterRuntime() *InterpreterRuntime {
	symbols := make(interp.Exports, len(stdlib.Symbols))
	for key, syms := range stdlib.Symbols {
		pkgPath := key
		if i := strings.LastIndex(key, "/"); i > 0 {
			pkgPath = key[:i]
		}
		if isDeniedImport(pkgPath) {
			continue
		}
		symbols[key] = syms
	}
	return &InterpreterRuntime{symbols: symbols}
}

// Load evaluates src and returns a Factory calling pkg.constructor.
func (r *InterpreterRuntime) Load(path string, src []byte, pkg, constructor string) (f Factory, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("interpreter panic: %v", rec)
		}
	}()

	i := interp.New(interp.Options{})
	if err := i.Use(r.symbols); err != nil {
		return nil, fmt.Errorf("loading standard library symbols: %w", err)
	}
	if err := i.Use(sdk.Symbols); err != nil {
		return nil, fmt.Errorf("loading sdk symbols: %w", err)
	}
	if _, err := i.Eval(string(src)); err != nil {
		return nil, fmt.Errorf("evaluating %s: %w", filepath.Base(path), err)
	}

	v, err := i.Eval(pkg + "." + constructor)
	if err != nil {
		return nil, fmt.Errorf("resolving %s.%s: %w", pkg, constructor, err)
	}
	return constructorFactory(constructor, v)
}

var (
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
	sdkToolType = reflect.TypeOf((*sdk.Tool)(nil)).Elem()
)

// constructorFactory adapts func(string) sdk.Tool and
// func(string) (sdk.Tool, error) values into a Factory.
func constructorFactory(name string, v reflect.Value) (Factory, error) {
	if !v.IsValid() || v.Kind() != reflect.Func {
		return nil, fmt.Errorf("%s is not a function", name)
	}
	t := v.Type()
	if t.NumIn() != 1 || t.In(0).Kind() != reflect.String {
		return nil, fmt.Errorf("%s must take a single string argument (the work dir)", name)
	}
	switch {
	case t.NumOut() == 1:
	case t.NumOut() == 2 && t.Out(1) == errorType:
	default:
		return nil, fmt.Errorf("%s must return sdk.Tool or (sdk.Tool, error)", name)
	}
	if !t.Out(0).Implements(sdkToolType) && t.Out(0) != sdkToolType {
		return nil, fmt.Errorf("%s returns %s, which does not implement sdk.Tool", name, t.Out(0))
	}

	return func(workDir string) (tool sdk.Tool, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("%s panicked: %v", name, rec)
			}
		}()
		out := v.Call([]reflect.Value{reflect.ValueOf(workDir).Convert(t.In(0))})
		if len(out) == 2 && !out[1].IsNil() {
			return nil, out[1].Interface().(error)
		}
		tool, ok := out[0].Interface().(sdk.Tool)
		if !ok || tool == nil {
			return nil, fmt.Errorf("%s returned a nil tool", name)
		}
		return tool, nil
	}, nil
}
