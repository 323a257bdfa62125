package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/at-ishikawa/studydesk/internal/tools"
	"github.com/at-ishikawa/studydesk/internal/validation"
)

func newTestRegistry(t *testing.T) *tools.Registry {
	t.Helper()

	registry := tools.NewRegistry(nil)
	require.NoError(t, registry.Register(tools.Tool{
		Name:        "greet",
		Description: "Say hello",
		Handler: func(_ context.Context, args map[string]any) (map[string]any, error) {
			name, _ := args["name"].(string)
			if name == "" {
				return nil, &tools.ArgumentError{Violations: []validation.Violation{
					{Field: "name", Message: "name is a required field"},
				}}
			}
			return map[string]any{"greeting": "hello " + name}, nil
		},
	}))
	require.NoError(t, registry.Register(tools.Tool{
		Name: "broken",
		Handler: func(context.Context, map[string]any) (map[string]any, error) {
			return nil, errors.New("disk on fire")
		},
	}))
	require.NoError(t, registry.RegisterResource(tools.ResourceProvider{
		Scheme: "note",
		List: func() []tools.Resource {
			return []tools.Resource{{URI: "note://welcome", MimeType: "text/plain"}}
		},
		Read: func(_ context.Context, uri *url.URL) (tools.Contents, error) {
			return tools.Contents{URI: uri.String(), MimeType: "text/plain", Text: "hi"}, nil
		},
	}))
	return registry
}

func mustStruct(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	msg, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	return msg
}

func TestToolHandler_ListTools(t *testing.T) {
	handler := NewToolHandler(newTestRegistry(t), nil)

	resp, err := handler.ListTools(context.Background(), connect.NewRequest(&structpb.Struct{}))
	require.NoError(t, err)
	assert.Equal(t, []any{
		map[string]any{"name": "greet", "description": "Say hello"},
		map[string]any{"name": "broken", "description": ""},
	}, resp.Msg.AsMap()["tools"])
}

func TestToolHandler_CallTool(t *testing.T) {
	tests := []struct {
		name      string
		request   map[string]any
		want      map[string]any
		wantCode  connect.Code
		wantField string
	}{
		{
			name:    "returns the tool result",
			request: map[string]any{"name": "greet", "arguments": map[string]any{"name": "Ada"}},
			want:    map[string]any{"greeting": "hello Ada"},
		},
		{
			name:      "returns INVALID_ARGUMENT without a tool name",
			request:   map[string]any{},
			wantCode:  connect.CodeInvalidArgument,
			wantField: "name",
		},
		{
			name:      "returns INVALID_ARGUMENT with field violations",
			request:   map[string]any{"name": "greet"},
			wantCode:  connect.CodeInvalidArgument,
			wantField: "name",
		},
		{
			name:     "returns NOT_FOUND for an unknown tool",
			request:  map[string]any{"name": "missing"},
			wantCode: connect.CodeNotFound,
		},
		{
			name:     "returns INTERNAL when the tool fails",
			request:  map[string]any{"name": "broken"},
			wantCode: connect.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewToolHandler(newTestRegistry(t), nil)

			resp, err := handler.CallTool(context.Background(), connect.NewRequest(mustStruct(t, tt.request)))
			if tt.wantCode != 0 {
				require.Error(t, err)
				assert.Nil(t, resp)
				var connectErr *connect.Error
				require.True(t, errors.As(err, &connectErr))
				assert.Equal(t, tt.wantCode, connectErr.Code())
				if tt.wantField != "" {
					require.Len(t, connectErr.Details(), 1)
					detail, err := connectErr.Details()[0].Value()
					require.NoError(t, err)
					badRequest, ok := detail.(*errdetails.BadRequest)
					require.True(t, ok)
					assert.Equal(t, tt.wantField, badRequest.GetFieldViolations()[0].GetField())
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.Msg.AsMap())
		})
	}
}

func TestToolHandler_Resources(t *testing.T) {
	handler := NewToolHandler(newTestRegistry(t), nil)

	listed, err := handler.ListResources(context.Background(), connect.NewRequest(&structpb.Struct{}))
	require.NoError(t, err)
	assert.Equal(t, []any{
		map[string]any{"uri": "note://welcome", "mimeType": "text/plain"},
	}, listed.Msg.AsMap()["resources"])

	read, err := handler.ReadResource(context.Background(), connect.NewRequest(mustStruct(t, map[string]any{"uri": "note://welcome"})))
	require.NoError(t, err)
	assert.Equal(t, []any{
		map[string]any{"uri": "note://welcome", "mimeType": "text/plain", "text": "hi"},
	}, read.Msg.AsMap()["contents"])

	_, err = handler.ReadResource(context.Background(), connect.NewRequest(mustStruct(t, map[string]any{"uri": "calendar://today"})))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	_, err = handler.ReadResource(context.Background(), connect.NewRequest(&structpb.Struct{}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestNewHTTPHandler(t *testing.T) {
	srv := httptest.NewServer(NewHTTPHandler(newTestRegistry(t), []string{"http://localhost:3000"}, nil))
	defer srv.Close()

	t.Run("binary protobuf client", func(t *testing.T) {
		client := connect.NewClient[structpb.Struct, structpb.Struct](srv.Client(), srv.URL+CallToolProcedure)
		resp, err := client.CallUnary(context.Background(), connect.NewRequest(mustStruct(t, map[string]any{
			"name":      "greet",
			"arguments": map[string]any{"name": "Grace"},
		})))
		require.NoError(t, err)
		assert.Equal(t, "hello Grace", resp.Msg.AsMap()["greeting"])
	})

	t.Run("plain JSON post", func(t *testing.T) {
		resp, err := srv.Client().Post(srv.URL+ListToolsProcedure, "application/json", strings.NewReader(`{}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("preflight from an allowed origin", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodOptions, srv.URL+CallToolProcedure, nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "http://localhost:3000")

		resp, err := srv.Client().Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight from another origin", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodOptions, srv.URL+CallToolProcedure, nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "http://evil.example")

		resp, err := srv.Client().Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	})
}
