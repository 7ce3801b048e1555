package extractors

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/ternarybob/contexo/internal/identity"
	"github.com/ternarybob/contexo/internal/models"
)

// PythonExtractor extracts MODULE, CLASS, FUNCTION, METHOD, IMPORT, and CALL
// artifacts from Python source using tree-sitter. Lexical structure is
// encoded through a scope stack: every artifact records its enclosing
// definition as ParentID.
type PythonExtractor struct {
	relativePath string
	parser       *sitter.Parser

	source     []byte
	artifacts  []*models.Artifact
	scopeStack []scopeEntry
}

type scopeEntry struct {
	id      string
	isClass bool
	name    string
}

// NewPythonExtractor creates an extractor bound to a repo-relative file path
func NewPythonExtractor(relativePath string) *PythonExtractor {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	return &PythonExtractor{
		relativePath: relativePath,
		parser:       parser,
	}
}

// Extract parses the source and returns artifacts in document order,
// MODULE first.
func (e *PythonExtractor) Extract(source []byte) ([]*models.Artifact, error) {
	tree, err := e.parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", e.relativePath, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("syntax errors in %s", e.relativePath)
	}

	e.source = source
	e.artifacts = nil
	e.scopeStack = nil

	e.artifacts = append(e.artifacts, &models.Artifact{
		ID:           e.relativePath,
		Type:         models.ArtifactModule,
		Name:         identity.ModuleName(e.relativePath),
		RelativePath: e.relativePath,
		Text:         string(source),
		Metadata:     map[string]interface{}{},
	})

	e.walk(root)
	return e.artifacts, nil
}

func (e *PythonExtractor) text(n *sitter.Node) string {
	return string(e.source[n.StartByte():n.EndByte()])
}

func (e *PythonExtractor) currentParent() string {
	if len(e.scopeStack) > 0 {
		return e.scopeStack[len(e.scopeStack)-1].id
	}
	return e.relativePath
}

// nearestClassName returns the name of the closest enclosing class scope, if any
func (e *PythonExtractor) nearestClassName() string {
	for i := len(e.scopeStack) - 1; i >= 0; i-- {
		if e.scopeStack[i].isClass {
			return e.scopeStack[i].name
		}
	}
	return ""
}

func (e *PythonExtractor) walk(node *sitter.Node) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "class_definition":
			e.handleClass(child, child)
		case "function_definition":
			e.handleFunction(child, child)
		case "decorated_definition":
			e.handleDecorated(child)
		case "import_statement":
			e.handleImport(child)
		case "import_from_statement":
			e.handleImportFrom(child)
		case "call":
			e.handleCall(child)
			e.walk(child)
		default:
			e.walk(child)
		}
	}
}

// handleDecorated unwraps a decorated class or function; the artifact's text
// and start line include the decorators.
func (e *PythonExtractor) handleDecorated(node *sitter.Node) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		inner := node.NamedChild(i)
		switch inner.Type() {
		case "class_definition":
			e.handleClass(inner, node)
		case "function_definition":
			e.handleFunction(inner, node)
		default:
			// decorator expressions may themselves contain calls
			e.walk(inner)
		}
	}
}

// handleClass emits a CLASS artifact and walks its body within class scope.
// outer supplies the text/line extent (differs from node for decorated defs).
func (e *PythonExtractor) handleClass(node, outer *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := e.text(nameNode)
	canonicalID := e.relativePath + "#" + name

	e.artifacts = append(e.artifacts, &models.Artifact{
		ID:           canonicalID,
		Type:         models.ArtifactClass,
		Name:         name,
		ParentID:     e.currentParent(),
		RelativePath: e.relativePath,
		Text:         e.text(outer),
		StartLine:    int(outer.StartPoint().Row) + 1,
		EndLine:      int(outer.EndPoint().Row) + 1,
		Metadata: map[string]interface{}{
			"lineno": int(outer.StartPoint().Row) + 1,
		},
	})

	e.scopeStack = append(e.scopeStack, scopeEntry{id: canonicalID, isClass: true, name: name})
	if body := node.ChildByFieldName("body"); body != nil {
		e.walk(body)
	}
	e.scopeStack = e.scopeStack[:len(e.scopeStack)-1]
}

// handleFunction emits a FUNCTION or METHOD artifact. The distinction is
// lexical: any enclosing class scope makes it a METHOD, and the canonical id
// uses the nearest class name (path#Class.method).
func (e *PythonExtractor) handleFunction(node, outer *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := e.text(nameNode)

	artifactType := models.ArtifactFunction
	canonicalID := e.relativePath + "#" + name
	if className := e.nearestClassName(); className != "" {
		artifactType = models.ArtifactMethod
		canonicalID = e.relativePath + "#" + className + "." + name
	}

	e.artifacts = append(e.artifacts, &models.Artifact{
		ID:           canonicalID,
		Type:         artifactType,
		Name:         name,
		ParentID:     e.currentParent(),
		RelativePath: e.relativePath,
		Text:         e.text(outer),
		StartLine:    int(outer.StartPoint().Row) + 1,
		EndLine:      int(outer.EndPoint().Row) + 1,
		Metadata: map[string]interface{}{
			"lineno": int(outer.StartPoint().Row) + 1,
		},
	})

	e.scopeStack = append(e.scopeStack, scopeEntry{id: canonicalID, isClass: false, name: name})
	if body := node.ChildByFieldName("body"); body != nil {
		e.walk(body)
	}
	e.scopeStack = e.scopeStack[:len(e.scopeStack)-1]
}

// handleImport emits one IMPORT artifact per imported name in a plain
// "import a, b as c" statement.
func (e *PythonExtractor) handleImport(node *sitter.Node) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "dotted_name":
			e.emitImport(e.text(child), "", "", node)
		case "aliased_import":
			name := ""
			alias := ""
			if n := child.ChildByFieldName("name"); n != nil {
				name = e.text(n)
			}
			if a := child.ChildByFieldName("alias"); a != nil {
				alias = e.text(a)
			}
			e.emitImport(name, "", alias, node)
		}
	}
}

// handleImportFrom emits one IMPORT artifact per name in a
// "from m import a, b as c" statement, recording the source module.
func (e *PythonExtractor) handleImportFrom(node *sitter.Node) {
	module := ""
	if m := node.ChildByFieldName("module_name"); m != nil {
		module = e.text(m)
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		// skip the module_name child itself
		if m := node.ChildByFieldName("module_name"); m != nil && child.Equal(m) {
			continue
		}
		switch child.Type() {
		case "dotted_name":
			e.emitImport(e.text(child), module, "", node)
		case "aliased_import":
			name := ""
			alias := ""
			if n := child.ChildByFieldName("name"); n != nil {
				name = e.text(n)
			}
			if a := child.ChildByFieldName("alias"); a != nil {
				alias = e.text(a)
			}
			e.emitImport(name, module, alias, node)
		case "wildcard_import":
			e.emitImport("*", module, "", node)
		}
	}
}

func (e *PythonExtractor) emitImport(name, module, alias string, node *sitter.Node) {
	if name == "" {
		return
	}
	qualified := name
	if module != "" {
		qualified = module + "." + name
	}
	e.artifacts = append(e.artifacts, &models.Artifact{
		ID:           e.relativePath + "#import:" + qualified,
		Type:         models.ArtifactImport,
		Name:         name,
		ParentID:     e.currentParent(),
		RelativePath: e.relativePath,
		StartLine:    int(node.StartPoint().Row) + 1,
		Metadata: map[string]interface{}{
			"lineno": int(node.StartPoint().Row) + 1,
		},
		Import: &models.ImportDetail{
			Module: module,
			Alias:  alias,
		},
	})
}

// handleCall emits a CALL artifact. The full callee expression is preserved
// for display; Name carries the bare callee used for resolution (the
// attribute for receiver.attr calls).
func (e *PythonExtractor) handleCall(node *sitter.Node) {
	fn := node.ChildByFieldName("function")

	callee := "<unknown>"
	name := "<unknown>"
	if fn != nil {
		switch fn.Type() {
		case "attribute":
			obj := fn.ChildByFieldName("object")
			attr := fn.ChildByFieldName("attribute")
			if obj != nil && attr != nil {
				callee = e.text(obj) + "." + e.text(attr)
				name = e.text(attr)
			}
		case "identifier":
			callee = e.text(fn)
			name = callee
		default:
			callee = e.text(fn)
			name = callee
		}
	}

	e.artifacts = append(e.artifacts, &models.Artifact{
		ID:           e.relativePath + "#call:" + callee,
		Type:         models.ArtifactCall,
		Name:         name,
		ParentID:     e.currentParent(),
		RelativePath: e.relativePath,
		StartLine:    int(node.StartPoint().Row) + 1,
		Metadata: map[string]interface{}{
			"lineno": int(node.StartPoint().Row) + 1,
		},
		Call: &models.CallDetail{
			Callee: callee,
		},
	})
}
