// Package server provides Connect RPC handlers for the tool service.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/at-ishikawa/studydesk/internal/tools"
)

const (
	// ToolServiceName is the fully-qualified name of the tool service.
	ToolServiceName = "studydesk.tools.v1.ToolService"

	ListToolsProcedure     = "/" + ToolServiceName + "/ListTools"
	CallToolProcedure      = "/" + ToolServiceName + "/CallTool"
	ListResourcesProcedure = "/" + ToolServiceName + "/ListResources"
	ReadResourceProcedure  = "/" + ToolServiceName + "/ReadResource"
)

// ToolHandler serves the tool registry. Every message is a
// google.protobuf.Struct, so JSON clients can post plain objects.
type ToolHandler struct {
	registry *tools.Registry
	logger   *slog.Logger
}

func NewToolHandler(registry *tools.Registry, logger *slog.Logger) *ToolHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ToolHandler{
		registry: registry,
		logger:   logger,
	}
}

// NewToolServiceHandler builds an HTTP handler for every procedure of the
// tool service and returns the path to mount it on.
func NewToolServiceHandler(h *ToolHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(ListToolsProcedure, connect.NewUnaryHandler(ListToolsProcedure, h.ListTools, opts...))
	mux.Handle(CallToolProcedure, connect.NewUnaryHandler(CallToolProcedure, h.CallTool, opts...))
	mux.Handle(ListResourcesProcedure, connect.NewUnaryHandler(ListResourcesProcedure, h.ListResources, opts...))
	mux.Handle(ReadResourceProcedure, connect.NewUnaryHandler(ReadResourceProcedure, h.ReadResource, opts...))
	return "/" + ToolServiceName + "/", mux
}

// ListTools returns {"tools": [{"name", "description"}]}.
func (h *ToolHandler) ListTools(
	_ context.Context,
	_ *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	list := h.registry.List()
	entries := make([]any, 0, len(list))
	for _, tool := range list {
		entries = append(entries, map[string]any{
			"name":        tool.Name,
			"description": tool.Description,
		})
	}
	return newStructResponse(map[string]any{"tools": entries})
}

// CallTool runs {"name", "arguments"} and returns the tool result as is.
func (h *ToolHandler) CallTool(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	fields := req.Msg.GetFields()
	name := fields["name"].GetStringValue()
	if name == "" {
		return nil, invalidArgument("name", "name is a required field")
	}

	result, err := h.registry.Call(ctx, name, fields["arguments"].GetStructValue().AsMap())
	if err != nil {
		return nil, h.toConnectError(fmt.Sprintf("call tool(%s)", name), err)
	}
	return newStructResponse(result)
}

// ListResources returns {"resources": [{"uri", "mimeType"}]}.
func (h *ToolHandler) ListResources(
	_ context.Context,
	_ *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	list := h.registry.ListResources()
	entries := make([]any, 0, len(list))
	for _, resource := range list {
		entries = append(entries, map[string]any{
			"uri":      resource.URI,
			"mimeType": resource.MimeType,
		})
	}
	return newStructResponse(map[string]any{"resources": entries})
}

// ReadResource reads {"uri"} and returns {"contents": [{"uri", "mimeType", "text"}]}.
func (h *ToolHandler) ReadResource(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	uri := req.Msg.GetFields()["uri"].GetStringValue()
	if uri == "" {
		return nil, invalidArgument("uri", "uri is a required field")
	}

	contents, err := h.registry.ReadResource(ctx, uri)
	if err != nil {
		return nil, h.toConnectError(fmt.Sprintf("read resource(%s)", uri), err)
	}
	return newStructResponse(map[string]any{
		"contents": []any{
			map[string]any{
				"uri":      contents.URI,
				"mimeType": contents.MimeType,
				"text":     contents.Text,
			},
		},
	})
}

func (h *ToolHandler) toConnectError(operation string, err error) *connect.Error {
	var argErr *tools.ArgumentError
	switch {
	case errors.As(err, &argErr):
		connectErr := connect.NewError(connect.CodeInvalidArgument, err)
		var fieldViolations []*errdetails.BadRequest_FieldViolation
		for _, v := range argErr.Violations {
			fieldViolations = append(fieldViolations, &errdetails.BadRequest_FieldViolation{
				Field:       v.Field,
				Description: v.Message,
			})
		}
		if detail, detailErr := connect.NewErrorDetail(&errdetails.BadRequest{
			FieldViolations: fieldViolations,
		}); detailErr == nil {
			connectErr.AddDetail(detail)
		}
		return connectErr
	case errors.Is(err, tools.ErrUnknownTool), errors.Is(err, tools.ErrUnknownResource):
		return connect.NewError(connect.CodeNotFound, err)
	default:
		h.logger.Error("failed to serve a tool request",
			slog.String("operation", operation),
			slog.Any("error", err),
		)
		return connect.NewError(connect.CodeInternal, fmt.Errorf("%s: %w", operation, err))
	}
}

func invalidArgument(field, message string) *connect.Error {
	connectErr := connect.NewError(connect.CodeInvalidArgument, errors.New(message))
	if detail, err := connect.NewErrorDetail(&errdetails.BadRequest{
		FieldViolations: []*errdetails.BadRequest_FieldViolation{{Field: field, Description: message}},
	}); err == nil {
		connectErr.AddDetail(detail)
	}
	return connectErr
}

func newStructResponse(fields map[string]any) (*connect.Response[structpb.Struct], error) {
	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("structpb.NewStruct() > %w", err))
	}
	return connect.NewResponse(msg), nil
}
