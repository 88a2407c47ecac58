package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryDispatchByExtension(t *testing.T) {
	r := NewRegistry()
	_, ok := r.ForPath("main.rs")
	require.True(t, ok)
	_, ok = r.ForPath("main.unknown")
	require.False(t, ok)
}

func TestGoExtractorFindsFunctionsAndCalls(t *testing.T) {
	r := NewRegistry()
	src := []byte("package main\n\nfunc hello() {}\n\nfunc main() {\n\thello()\n}\n")
	res, err := r.Extract("main.go", src)
	require.NoError(t, err)

	names := map[string]bool{}
	for _, s := range res.Symbols {
		names[s.Name] = true
	}
	require.True(t, names["hello"])
	require.True(t, names["main"])

	var found bool
	for _, ref := range res.References {
		if ref.ToName == "hello" && ref.Kind == RefCall {
			require.Equal(t, "main", ref.FromSymbol)
			found = true
		}
	}
	require.True(t, found, "expected a call reference to hello from main")
}

func TestRustExtractorMultiSymbol(t *testing.T) {
	r := NewRegistry()
	src := []byte("fn main() { hello(); }\nfn hello() {}\n")
	res, err := r.Extract("main.rs", src)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(res.Symbols), 2)
}

func TestPythonExtractorFunctions(t *testing.T) {
	r := NewRegistry()
	src := []byte("def greet(n):\n    return n\n")
	res, err := r.Extract("app.py", src)
	require.NoError(t, err)
	require.Len(t, res.Symbols, 1)
	require.Equal(t, "greet", res.Symbols[0].Name)
	require.Equal(t, KindFunction, res.Symbols[0].Kind)
}

func TestTypeScriptExtractorFunctions(t *testing.T) {
	r := NewRegistry()
	src := []byte("export function fetchData() {}\n")
	res, err := r.Extract("index.ts", src)
	require.NoError(t, err)
	require.Len(t, res.Symbols, 1)
	require.Equal(t, "fetchData", res.Symbols[0].Name)
}

func TestUnsupportedExtensionErrors(t *testing.T) {
	r := NewRegistry()
	_, err := r.Extract("README.md", []byte("hi"))
	require.Error(t, err)
}
