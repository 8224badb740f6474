package sdk

import (
	"context"
	"reflect"
)

// Symbols exposes this package to the plugin interpreter. The key follows
// the interpreter convention "<import path>/<package name>".
var Symbols = map[string]map[string]reflect.Value{
	ImportPath + "/sdk": {
		"BaseTool": reflect.ValueOf((*BaseTool)(nil)),
		"Result":   reflect.ValueOf((*Result)(nil)),
		"Tool":     reflect.ValueOf((*Tool)(nil)),
		"OK":       reflect.ValueOf(OK),
		"Fail":     reflect.ValueOf(Fail),

		"_Tool": reflect.ValueOf((*_sdk_Tool)(nil)),
	},
}

// _sdk_Tool lets interpreted values satisfy Tool.
type _sdk_Tool struct {
	IValue       interface{}
	WDescription func() string
	WExecute     func(ctx context.Context, args map[string]any) (*Result, error)
	WName        func() string
	WParameters  func() map[string]any
}

func (W _sdk_Tool) Description() string { return W.WDescription() }

func (W _sdk_Tool) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	return W.WExecute(ctx, args)
}

func (W _sdk_Tool) Name() string { return W.WName() }

func (W _sdk_Tool) Parameters() map[string]any { return W.WParameters() }
