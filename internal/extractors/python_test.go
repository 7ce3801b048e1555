package extractors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/contexo/internal/models"
)

func extractPython(t *testing.T, relativePath, source string) map[string]*models.Artifact {
	t.Helper()
	artifacts, err := NewPythonExtractor(relativePath).Extract([]byte(source))
	require.NoError(t, err)
	require.NotEmpty(t, artifacts)

	byID := map[string]*models.Artifact{}
	for _, a := range artifacts {
		byID[a.ID] = a
	}
	return byID
}

func TestPythonExtractorModuleFirst(t *testing.T) {
	source := "x = 1\n"
	artifacts, err := NewPythonExtractor("pkg/util/io.py").Extract([]byte(source))
	require.NoError(t, err)
	require.NotEmpty(t, artifacts)

	module := artifacts[0]
	assert.Equal(t, models.ArtifactModule, module.Type)
	assert.Equal(t, "pkg/util/io.py", module.ID)
	assert.Equal(t, "pkg.util.io", module.Name)
	assert.Equal(t, source, module.Text)
}

func TestPythonExtractorClassAndMethodIDs(t *testing.T) {
	byID := extractPython(t, "lib.py", `class C:
    def m(self):
        pass

def f():
    pass
`)

	class := byID["lib.py#C"]
	require.NotNil(t, class)
	assert.Equal(t, models.ArtifactClass, class.Type)
	assert.Equal(t, "C", class.Name)
	assert.Equal(t, "lib.py", class.ParentID)
	assert.Equal(t, 1, class.StartLine)

	method := byID["lib.py#C.m"]
	require.NotNil(t, method)
	assert.Equal(t, models.ArtifactMethod, method.Type, "functions inside a class scope are methods")
	assert.Equal(t, "m", method.Name)
	assert.Equal(t, "lib.py#C", method.ParentID)

	fn := byID["lib.py#f"]
	require.NotNil(t, fn)
	assert.Equal(t, models.ArtifactFunction, fn.Type)
	assert.Equal(t, "lib.py", fn.ParentID)
	assert.Equal(t, 5, fn.StartLine)
}

func TestPythonExtractorImports(t *testing.T) {
	byID := extractPython(t, "app.py", `import os
import numpy as np
from pkg.sub import helper as h
from pkg import *
`)

	osImport := byID["app.py#import:os"]
	require.NotNil(t, osImport)
	assert.Equal(t, models.ArtifactImport, osImport.Type)
	require.NotNil(t, osImport.Import)
	assert.Equal(t, "", osImport.Import.Module)
	assert.Equal(t, "", osImport.Import.Alias)

	np := byID["app.py#import:numpy"]
	require.NotNil(t, np)
	assert.Equal(t, "np", np.Import.Alias)

	helper := byID["app.py#import:pkg.sub.helper"]
	require.NotNil(t, helper)
	assert.Equal(t, "helper", helper.Name)
	assert.Equal(t, "pkg.sub", helper.Import.Module)
	assert.Equal(t, "h", helper.Import.Alias)

	wildcard := byID["app.py#import:pkg.*"]
	require.NotNil(t, wildcard)
	assert.Equal(t, "*", wildcard.Name)
	assert.Equal(t, "pkg", wildcard.Import.Module)
}

func TestPythonExtractorCalls(t *testing.T) {
	byID := extractPython(t, "app.py", `def run():
    helper()
    obj.method()
`)

	direct := byID["app.py#call:helper"]
	require.NotNil(t, direct)
	assert.Equal(t, models.ArtifactCall, direct.Type)
	assert.Equal(t, "helper", direct.Name)
	assert.Equal(t, "app.py#run", direct.ParentID, "calls record the enclosing definition")
	require.NotNil(t, direct.Call)
	assert.Equal(t, "helper", direct.Call.Callee)

	attr := byID["app.py#call:obj.method"]
	require.NotNil(t, attr)
	assert.Equal(t, "method", attr.Name, "receiver.attr calls resolve by the bare attribute")
	assert.Equal(t, "obj.method", attr.Call.Callee)
}

func TestPythonExtractorDecoratedDefinition(t *testing.T) {
	byID := extractPython(t, "app.py", `@wraps
def f():
    pass
`)

	fn := byID["app.py#f"]
	require.NotNil(t, fn)
	assert.Equal(t, models.ArtifactFunction, fn.Type)
	assert.Equal(t, 1, fn.StartLine, "decorators are part of the artifact extent")
	assert.Contains(t, fn.Text, "@wraps")
}

func TestPythonExtractorSyntaxError(t *testing.T) {
	_, err := NewPythonExtractor("bad.py").Extract([]byte("def (:\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.py")
}
