package plugin

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"path"
	"strconv"
	"strings"
)

const directivePrefix = "//sindri:"

// sourceScan is the syntax-level view of a tool plugin file. Building it
// never executes the file.
type sourceScan struct {
	fset    *token.FileSet
	file    *ast.File
	pkgName string
	doc     string

	// imports maps the local name of each import to its path.
	imports map[string]string
	// importPaths lists imports in source order.
	importPaths []importSpec

	candidates []*toolType
	consts     map[string]string
	directives map[string]string
}

type importSpec struct {
	Path string
	Line int
}

// toolType is a struct declaration embedding a Tool marker.
type toolType struct {
	Name        string
	Marker      string
	Methods     map[string]*ast.FuncDecl
	Constructor *ast.FuncDecl
}

func (t *toolType) constructorName() string {
	if t.Constructor == nil {
		return ""
	}
	return t.Constructor.Name.Name
}

// scanToolSource parses src and collects tool candidates, package-level
// Version/Author constants and //sindri: directives.
func scanToolSource(filename string, src []byte) (*sourceScan, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, err
	}

	s := &sourceScan{
		fset:       fset,
		file:       file,
		pkgName:    file.Name.Name,
		imports:    make(map[string]string),
		consts:     make(map[string]string),
		directives: make(map[string]string),
	}
	if file.Doc != nil {
		s.doc = firstParagraph(file.Doc.Text())
	}

	for _, imp := range file.Imports {
		p, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		local := importLocalName(p)
		if imp.Name != nil {
			local = imp.Name.Name
		}
		s.imports[local] = p
		s.importPaths = append(s.importPaths, importSpec{Path: p, Line: fset.Position(imp.Pos()).Line})
	}

	for _, cg := range file.Comments {
		for _, c := range cg.List {
			if !strings.HasPrefix(c.Text, directivePrefix) {
				continue
			}
			rest := strings.TrimSpace(strings.TrimPrefix(c.Text, directivePrefix))
			key, value, _ := strings.Cut(rest, " ")
			if key != "" {
				s.directives[key] = strings.TrimSpace(value)
			}
		}
	}

	methods := make(map[string]map[string]*ast.FuncDecl)
	var funcs []*ast.FuncDecl

	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			s.collectGenDecl(d)
		case *ast.FuncDecl:
			if d.Recv == nil {
				funcs = append(funcs, d)
				continue
			}
			recv := receiverTypeName(d.Recv)
			if recv == "" {
				continue
			}
			if methods[recv] == nil {
				methods[recv] = make(map[string]*ast.FuncDecl)
			}
			methods[recv][d.Name.Name] = d
		}
	}

	for _, c := range s.candidates {
		c.Methods = methods[c.Name]
		if c.Methods == nil {
			c.Methods = make(map[string]*ast.FuncDecl)
		}
		c.Constructor = findConstructor(funcs, c.Name)
	}
	return s, nil
}

func (s *sourceScan) collectGenDecl(d *ast.GenDecl) {
	switch d.Tok {
	case token.CONST, token.VAR:
		for _, spec := range d.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}
			for i, name := range vs.Names {
				if i >= len(vs.Values) {
					break
				}
				if v, ok := stringLiteral(vs.Values[i]); ok {
					s.consts[name.Name] = v
				}
			}
		}
	case token.TYPE:
		for _, spec := range d.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			st, ok := ts.Type.(*ast.StructType)
			if !ok {
				continue
			}
			marker := toolMarker(st)
			if marker == "" {
				continue
			}
			s.candidates = append(s.candidates, &toolType{Name: ts.Name.Name, Marker: marker})
		}
	}
}

// toolMarker returns the name of an embedded field whose type name ends
// in "Tool", or "" when the struct has none.
func toolMarker(st *ast.StructType) string {
	for _, f := range st.Fields.List {
		if len(f.Names) != 0 {
			continue
		}
		name := typeName(f.Type)
		if strings.HasSuffix(name, "Tool") {
			return name
		}
	}
	return ""
}

// typeName renders a (possibly qualified or pointer) type expression.
func typeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return typeName(t.X)
	case *ast.SelectorExpr:
		if x, ok := t.X.(*ast.Ident); ok {
			return x.Name + "." + t.Sel.Name
		}
		return t.Sel.Name
	case *ast.IndexExpr:
		return typeName(t.X)
	}
	return ""
}

func receiverTypeName(recv *ast.FieldList) string {
	if recv == nil || len(recv.List) == 0 {
		return ""
	}
	name := typeName(recv.List[0].Type)
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// findConstructor prefers New<Type> over a bare New. Both must take a
// single string parameter.
func findConstructor(funcs []*ast.FuncDecl, typeName string) *ast.FuncDecl {
	var bare *ast.FuncDecl
	for _, fd := range funcs {
		if !takesSingleString(fd.Type) {
			continue
		}
		switch fd.Name.Name {
		case "New" + typeName:
			return fd
		case "New":
			bare = fd
		}
	}
	return bare
}

func takesSingleString(ft *ast.FuncType) bool {
	if ft.Params == nil || len(ft.Params.List) != 1 {
		return false
	}
	f := ft.Params.List[0]
	if len(f.Names) > 1 {
		return false
	}
	id, ok := f.Type.(*ast.Ident)
	return ok && id.Name == "string"
}

// returnedString extracts the literal from `return "x"` bodies.
func returnedString(fd *ast.FuncDecl) (string, bool) {
	if fd == nil || fd.Body == nil {
		return "", false
	}
	for _, stmt := range fd.Body.List {
		ret, ok := stmt.(*ast.ReturnStmt)
		if !ok || len(ret.Results) != 1 {
			continue
		}
		if v, ok := stringLiteral(ret.Results[0]); ok {
			return v, true
		}
	}
	return "", false
}

func stringLiteral(expr ast.Expr) (string, bool) {
	lit, ok := expr.(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return "", false
	}
	v, err := strconv.Unquote(lit.Value)
	if err != nil {
		return "", false
	}
	return v, true
}

// importLocalName is the default package name for an import path.
// Version suffixes such as yaml.v3 or /v2 are dropped.
func importLocalName(p string) string {
	base := path.Base(p)
	if strings.HasPrefix(base, "v") {
		if _, err := strconv.Atoi(base[1:]); err == nil && len(base) > 1 {
			base = path.Base(path.Dir(p))
		}
	}
	if i := strings.Index(base, ".v"); i > 0 {
		base = base[:i]
	}
	return strings.ReplaceAll(base, "-", "_")
}

func firstParagraph(doc string) string {
	doc = strings.TrimSpace(doc)
	if line, _, ok := strings.Cut(doc, "\n\n"); ok {
		doc = line
	}
	return strings.Join(strings.Fields(doc), " ")
}

func (s *sourceScan) line(pos token.Pos) int {
	return s.fset.Position(pos).Line
}

func (s *sourceScan) candidate(typeName string) (*toolType, error) {
	if len(s.candidates) == 0 {
		return nil, fmt.Errorf("no tool type found (expected a struct embedding sdk.BaseTool)")
	}
	if typeName == "" {
		return s.candidates[0], nil
	}
	for _, c := range s.candidates {
		if c.Name == typeName {
			return c, nil
		}
	}
	return s.candidates[0], nil
}

// metadata merges constants and directives into a descriptor metadata map.
func (s *sourceScan) metadata() map[string]any {
	md := make(map[string]any, len(s.directives)+2)
	for k, v := range s.directives {
		if k == "tags" || k == "dependencies" {
			md[k] = splitList(v)
			continue
		}
		md[k] = v
	}
	if v, ok := s.consts["Version"]; ok {
		md["version"] = v
	}
	if v, ok := s.consts["Author"]; ok {
		md["author"] = v
	}
	return md
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
