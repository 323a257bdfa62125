// Package tools exposes the study desk operations as named tools and
// resources that remote callers invoke with JSON-like arguments.
package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/at-ishikawa/studydesk/internal/validation"
)

var (
	ErrUnknownTool     = errors.New("unknown tool")
	ErrUnknownResource = errors.New("unknown resource")
)

// Handler runs a tool. Arguments and results hold JSON values only.
type Handler func(ctx context.Context, args map[string]any) (map[string]any, error)

type Tool struct {
	Name        string
	Description string
	Handler     Handler
}

// Resource is a readable URI advertised by ListResources.
type Resource struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType"`
}

// Contents is the body of a resource.
type Contents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

// ResourceProvider serves every URI of one scheme, e.g. "module://{slug}".
type ResourceProvider struct {
	Scheme string
	List   func() []Resource
	Read   func(ctx context.Context, uri *url.URL) (Contents, error)
}

// ArgumentError reports tool arguments that do not match the tool's schema.
type ArgumentError struct {
	Violations []validation.Violation
}

func (e *ArgumentError) Error() string {
	messages := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		messages = append(messages, v.Message)
	}
	return "invalid arguments: " + strings.Join(messages, ", ")
}

// Registry keeps tools and resource providers in registration order.
type Registry struct {
	logger    *slog.Logger
	tools     []Tool
	toolIndex map[string]int
	providers map[string]ResourceProvider
	schemes   []string
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:    logger,
		toolIndex: make(map[string]int),
		providers: make(map[string]ResourceProvider),
	}
}

func (r *Registry) Register(tool Tool) error {
	if tool.Name == "" || tool.Handler == nil {
		return fmt.Errorf("tool %q needs a name and a handler", tool.Name)
	}
	if _, ok := r.toolIndex[tool.Name]; ok {
		return fmt.Errorf("tool %q is already registered", tool.Name)
	}
	r.toolIndex[tool.Name] = len(r.tools)
	r.tools = append(r.tools, tool)
	return nil
}

func (r *Registry) RegisterResource(provider ResourceProvider) error {
	if provider.Scheme == "" || provider.Read == nil {
		return fmt.Errorf("resource provider %q needs a scheme and a reader", provider.Scheme)
	}
	if _, ok := r.providers[provider.Scheme]; ok {
		return fmt.Errorf("resource scheme %q is already registered", provider.Scheme)
	}
	r.providers[provider.Scheme] = provider
	r.schemes = append(r.schemes, provider.Scheme)
	return nil
}

func (r *Registry) List() []Tool {
	return append([]Tool{}, r.tools...)
}

// Call runs the named tool. A nil args map is treated as no arguments.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	i, ok := r.toolIndex[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if args == nil {
		args = map[string]any{}
	}
	r.logger.Debug("call tool", slog.String("tool", name))
	result, err := r.tools[i].Handler(ctx, args)
	if err != nil {
		r.logger.Debug("tool failed", slog.String("tool", name), slog.Any("error", err))
		return nil, err
	}
	return result, nil
}

func (r *Registry) ListResources() []Resource {
	resources := []Resource{}
	for _, scheme := range r.schemes {
		if list := r.providers[scheme].List; list != nil {
			resources = append(resources, list()...)
		}
	}
	return resources
}

func (r *Registry) ReadResource(ctx context.Context, rawURI string) (Contents, error) {
	uri, err := url.Parse(rawURI)
	if err != nil {
		return Contents{}, fmt.Errorf("%w: %s", ErrUnknownResource, rawURI)
	}
	provider, ok := r.providers[uri.Scheme]
	if !ok {
		return Contents{}, fmt.Errorf("%w: %s", ErrUnknownResource, rawURI)
	}
	r.logger.Debug("read resource", slog.String("uri", rawURI))
	return provider.Read(ctx, uri)
}
