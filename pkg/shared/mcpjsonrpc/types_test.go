package mcpjsonrpc_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querylens/querylens/pkg/shared/mcpjsonrpc"
)

func TestIsNotification(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{name: "absent id", body: `{"jsonrpc":"2.0","method":"notifications/initialized"}`, want: true},
		{name: "null id", body: `{"jsonrpc":"2.0","id":null,"method":"tools/list"}`, want: true},
		{name: "numeric id", body: `{"jsonrpc":"2.0","id":0,"method":"tools/list"}`, want: false},
		{name: "string id", body: `{"jsonrpc":"2.0","id":"a","method":"tools/list"}`, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req mcpjsonrpc.Request
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			assert.Equal(t, tt.want, req.IsNotification())
		})
	}
}

func TestResponseEchoesIDVerbatim(t *testing.T) {
	tests := []struct {
		name string
		id   string
	}{
		{name: "number", id: `42`},
		{name: "string", id: `"req-1"`},
		{name: "zero", id: `0`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req mcpjsonrpc.Request
			require.NoError(t, json.Unmarshal([]byte(`{"jsonrpc":"2.0","id":`+tt.id+`,"method":"x"}`), &req))

			out, err := json.Marshal(mcpjsonrpc.NewError(req.ID, mcpjsonrpc.CodeMethodNotFound, "nope"))
			require.NoError(t, err)
			assert.Contains(t, string(out), `"id":`+tt.id)
		})
	}
}
