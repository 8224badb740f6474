package plugin

import (
	"go/ast"
	"strings"

	"github.com/sindri-ai/sindri/sdk"
)

// deniedImports give plugin code process, native or network access.
var deniedImports = map[string]bool{
	"os/exec":                  true,
	"syscall":                  true,
	"unsafe":                   true,
	"C":                        true,
	"plugin":                   true,
	"net":                      true,
	"net/rpc":                  true,
	"encoding/gob":             true,
	"runtime/cgo":              true,
	"golang.org/x/sys/unix":    true,
	"golang.org/x/sys/windows": true,
}

// allowedImports are utility packages that need no note.
var allowedImports = map[string]bool{
	"context":       true,
	"fmt":           true,
	"strings":       true,
	"strconv":       true,
	"errors":        true,
	"time":          true,
	"sort":          true,
	"slices":        true,
	"maps":          true,
	"math":          true,
	"bytes":         true,
	"unicode":       true,
	"regexp":        true,
	"encoding/json": true,
	"path":          true,
	"path/filepath": true,
	"net/url":       true,
	"text/template": true,
	sdk.ImportPath:  true,
}

func isDeniedImport(p string) bool {
	if deniedImports[p] {
		return true
	}
	return strings.HasSuffix(p, "/yaegi/interp") || strings.Contains(p, "/yaegi/interp/")
}

// dangerousCalls are package-qualified calls that spawn processes or load
// native or interpreted code.
var dangerousCalls = map[string]map[string]bool{
	"plugin":  {"Open": true},
	"os/exec": {"Command": true, "CommandContext": true},
	"syscall": {"Exec": true, "ForkExec": true, "StartProcess": true},
	"os":      {"StartProcess": true},
}

// rawFileCalls bypass the host's file tools.
var rawFileCalls = map[string]map[string]bool{
	"os":        {"Open": true, "OpenFile": true, "Create": true, "ReadFile": true, "WriteFile": true},
	"io/ioutil": {"ReadFile": true, "WriteFile": true},
}

// evalMethods run code through an interpreter, whatever the receiver.
var evalMethods = map[string]bool{"Eval": true, "EvalPath": true, "CompilePath": true}

func checkImports(s *sourceScan, o *Outcome) {
	for _, imp := range s.importPaths {
		switch {
		case isDeniedImport(imp.Path):
			o.errorf(ErrSecurityViolation, "line %d: import of %q is not allowed", imp.Line, imp.Path)
		case allowedImports[imp.Path]:
		default:
			o.infof("line %d: imports %q", imp.Line, imp.Path)
		}
	}
}

func checkCalls(s *sourceScan, o *Outcome) {
	ast.Inspect(s.file, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		fn := sel.Sel.Name
		line := s.line(call.Pos())

		if x, ok := sel.X.(*ast.Ident); ok {
			if pkg, imported := s.imports[x.Name]; imported && x.Obj == nil {
				switch {
				case dangerousCalls[pkg][fn]:
					o.errorf(ErrSecurityViolation, "line %d: call to %s.%s is not allowed", line, x.Name, fn)
				case isDeniedImport(pkg) && fn == "New":
					o.errorf(ErrSecurityViolation, "line %d: creating an interpreter is not allowed", line)
				case rawFileCalls[pkg][fn]:
					o.warnf("line %d: %s.%s accesses files directly; prefer the host file tools", line, x.Name, fn)
				}
				return true
			}
		}
		if evalMethods[fn] {
			o.errorf(ErrSecurityViolation, "line %d: dynamic evaluation via .%s is not allowed", line, fn)
		}
		return true
	})
}

// securityIssues returns the import and call errors for a scan. The
// discoverer uses it to refuse execution of files that would fail
// validation for security reasons anyway.
func securityIssues(s *sourceScan) []Issue {
	var o Outcome
	checkImports(s, &o)
	checkCalls(s, &o)
	return o.Errors
}

func checkToolContract(s *sourceScan, o *Outcome) {
	cand, err := s.candidate("")
	if err != nil {
		o.errorf(ErrMissingAttribute, "%v", err)
		return
	}

	for _, m := range []string{"Name", "Description", "Parameters", "Execute"} {
		if cand.Methods[m] == nil {
			o.errorf(ErrMissingAttribute, "%s is missing method %s", cand.Name, m)
		}
	}

	if cand.Constructor == nil {
		o.errorf(ErrMissingAttribute, "missing constructor New%s(workDir string) sdk.Tool", cand.Name)
	} else if !returnsTool(s, cand.Constructor.Type) {
		o.errorf(ErrInvalidSchema, "constructor %s must return sdk.Tool", cand.Constructor.Name.Name)
	}

	if fd := cand.Methods["Parameters"]; fd != nil {
		checkParameters(fd, o)
	}
	if fd := cand.Methods["Execute"]; fd != nil {
		if !firstParamIsContext(s, fd.Type) {
			o.errorf(ErrInvalidSchema, "%s.Execute must take context.Context as its first parameter", cand.Name)
		}
	}
}

func returnsTool(s *sourceScan, ft *ast.FuncType) bool {
	if ft.Results == nil || len(ft.Results.List) == 0 {
		return false
	}
	results := ft.Results.List
	if len(results) > 2 {
		return false
	}
	if len(results) == 2 {
		if id, ok := results[1].Type.(*ast.Ident); !ok || id.Name != "error" {
			return false
		}
	}
	return isQualified(s, results[0].Type, sdk.ImportPath, "Tool")
}

func checkParameters(fd *ast.FuncDecl, o *Outcome) {
	res := fd.Type.Results
	if res == nil || len(res.List) != 1 {
		o.errorf(ErrInvalidSchema, "Parameters must return map[string]any")
		return
	}
	if _, ok := res.List[0].Type.(*ast.MapType); !ok {
		o.errorf(ErrInvalidSchema, "Parameters must return a map, got %s", typeName(res.List[0].Type))
		return
	}
	if fd.Body == nil {
		return
	}
	for _, stmt := range fd.Body.List {
		ret, ok := stmt.(*ast.ReturnStmt)
		if !ok || len(ret.Results) != 1 {
			continue
		}
		lit, ok := ret.Results[0].(*ast.CompositeLit)
		if !ok {
			continue
		}
		if !hasStringKey(lit, "type") {
			o.warnf("Parameters schema has no \"type\" key")
		}
	}
}

func hasStringKey(lit *ast.CompositeLit, key string) bool {
	for _, elt := range lit.Elts {
		kv, ok := elt.(*ast.KeyValueExpr)
		if !ok {
			continue
		}
		if k, ok := stringLiteral(kv.Key); ok && k == key {
			return true
		}
	}
	return false
}

func firstParamIsContext(s *sourceScan, ft *ast.FuncType) bool {
	if ft.Params == nil || len(ft.Params.List) == 0 {
		return false
	}
	return isQualified(s, ft.Params.List[0].Type, "context", "Context")
}

// isQualified reports whether expr is pkg.name for the file's import of
// path pkgPath.
func isQualified(s *sourceScan, expr ast.Expr, pkgPath, name string) bool {
	sel, ok := expr.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != name {
		return false
	}
	x, ok := sel.X.(*ast.Ident)
	if !ok {
		return false
	}
	return s.imports[x.Name] == pkgPath
}
