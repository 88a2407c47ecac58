package mcptransport

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeHandler struct {
	rootErr error
}

func (f *fakeHandler) ListTools() []Tool {
	return []Tool{{Name: "search_symbols", Description: "search", InputSchema: InputSchema{Type: "object"}}}
}

func (f *fakeHandler) CallTool(name string, arguments json.RawMessage) (CallToolResult, error) {
	if name == "unknown_tool" {
		return CallToolResult{Content: []Content{{Type: "text", Text: "unknown tool"}}, IsError: true}, nil
	}
	return CallToolResult{Content: []Content{{Type: "text", Text: "ok"}}}, nil
}

func (f *fakeHandler) ResolveRoot(roots []string) error {
	return f.rootErr
}

func runLine(t *testing.T, h *fakeHandler, line string) []Response {
	t.Helper()
	var out bytes.Buffer
	s := NewServer(h, nil)
	err := s.Run(strings.NewReader(line+"\n"), &out)
	require.NoError(t, err)

	var resps []Response
	dec := json.NewDecoder(&out)
	for dec.More() {
		var r Response
		require.NoError(t, dec.Decode(&r))
		resps = append(resps, r)
	}
	return resps
}

func TestInitializeThenCallTool(t *testing.T) {
	h := &fakeHandler{}
	resps := runLine(t, h, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`+"\n"+
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"search_symbols","arguments":{}}}`)
	require.Len(t, resps, 2)
	require.Nil(t, resps[0].Error)
	require.Nil(t, resps[1].Error)
}

func TestCallToolBeforeInitializeIsInternalError(t *testing.T) {
	h := &fakeHandler{}
	resps := runLine(t, h, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"x","arguments":{}}}`)
	require.Len(t, resps, 1)
	require.NotNil(t, resps[0].Error)
	require.Equal(t, CodeInternalError, resps[0].Error.Code)
}

func TestUnknownMethod(t *testing.T) {
	h := &fakeHandler{}
	resps := runLine(t, h, `{"jsonrpc":"2.0","id":1,"method":"bogus"}`)
	require.Len(t, resps, 1)
	require.Equal(t, CodeMethodNotFound, resps[0].Error.Code)
}

func TestMalformedJSONIsParseError(t *testing.T) {
	h := &fakeHandler{}
	var out bytes.Buffer
	s := NewServer(h, nil)
	err := s.Run(strings.NewReader("{not json}\n"), &out)
	require.NoError(t, err)
	require.Contains(t, out.String(), `"code":-32700`)
}

func TestNotificationGetsNoResponse(t *testing.T) {
	h := &fakeHandler{}
	var out bytes.Buffer
	s := NewServer(h, nil)
	err := s.Run(strings.NewReader(`{"jsonrpc":"2.0","method":"initialize","params":{}}`+"\n"), &out)
	require.NoError(t, err)
	require.Empty(t, strings.TrimSpace(out.String()))
}
