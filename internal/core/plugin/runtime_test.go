package plugin

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sindri-ai/sindri/sdk"
)

func TestInterpreterRuntime_LoadsAndExecutes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "echo.go", echoSource)

	descs := NewDiscoverer(dir, "").DiscoverTools()
	require.Len(t, descs, 1)
	d := descs[0]
	require.Empty(t, d.LoadError)
	require.NotNil(t, d.Tool)

	tool, err := d.Tool.New("/work")
	require.NoError(t, err)
	assert.Equal(t, "echo", tool.Name())
	assert.Equal(t, "object", tool.Parameters()["type"])

	res, err := tool.Execute(context.Background(), map[string]any{"text": "hi"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "hi", res.Output)
}

func TestInterpreterRuntime_DeniedPackagesAreHidden(t *testing.T) {
	src := strings.Replace(echoSource, `"fmt"`, "\"fmt\"\n\t\"os/exec\"", 1)
	src = strings.Replace(src, "return sdk.OK(", "_ = exec.Command\n\treturn sdk.OK(", 1)

	_, err := NewInterpreterRuntime().Load("echo.go", []byte(src), "echo", "NewEchoTool")
	assert.Error(t, err)
}

func TestInterpreterRuntime_EvalError(t *testing.T) {
	_, err := NewInterpreterRuntime().Load("x.go", []byte("package x\n\nfunc New(workDir string) int { return undefinedThing }\n"), "x", "New")
	assert.Error(t, err)
}

func TestConstructorFactory_Signatures(t *testing.T) {
	ok := func(string) sdk.Tool { return &stubTool{name: "a"} }
	withErr := func(string) (sdk.Tool, error) { return &stubTool{name: "b"}, nil }
	panics := func(string) sdk.Tool { panic("nope") }
	nilTool := func(string) sdk.Tool { return nil }

	f, err := constructorFactory("ok", reflect.ValueOf(ok))
	require.NoError(t, err)
	tool, err := f("/w")
	require.NoError(t, err)
	assert.Equal(t, "a", tool.Name())

	f, err = constructorFactory("withErr", reflect.ValueOf(withErr))
	require.NoError(t, err)
	tool, err = f("/w")
	require.NoError(t, err)
	assert.Equal(t, "b", tool.Name())

	f, err = constructorFactory("panics", reflect.ValueOf(panics))
	require.NoError(t, err)
	_, err = f("/w")
	assert.ErrorContains(t, err, "panicked")

	f, err = constructorFactory("nilTool", reflect.ValueOf(nilTool))
	require.NoError(t, err)
	_, err = f("/w")
	assert.ErrorContains(t, err, "nil tool")

	_, err = constructorFactory("bad", reflect.ValueOf(func(int) sdk.Tool { return nil }))
	assert.Error(t, err)
	_, err = constructorFactory("bad", reflect.ValueOf(func(string) int { return 0 }))
	assert.Error(t, err)
	_, err = constructorFactory("bad", reflect.ValueOf(42))
	assert.Error(t, err)
}
