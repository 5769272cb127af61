package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/querylens/querylens/internal/domain"
)

// ToolHandler executes one tool call against raw, not yet validated
// arguments. A returned error means a protocol-level problem (unknown tool,
// invalid arguments); tool execution failures are reported inside the
// CallResult with IsError set.
type ToolHandler func(ctx context.Context, args json.RawMessage) (domain.CallResult, error)

// RegisteredTool couples a wire descriptor with its handler.
type RegisteredTool struct {
	Tool    domain.Tool
	Handler ToolHandler
}

// Registry is the process-wide tool table. It is built once at startup and
// never mutated afterwards, so it is safe for concurrent use without locks.
type Registry struct {
	order []string
	tools map[string]RegisteredTool
}

// NewRegistry constructs a registry with the provided tools. Listing order
// follows registration order so tools/list output is stable across calls.
func NewRegistry(tools ...RegisteredTool) *Registry {
	r := &Registry{tools: make(map[string]RegisteredTool, len(tools))}
	for _, t := range tools {
		if _, dup := r.tools[t.Tool.Name]; dup {
			continue
		}
		r.tools[t.Tool.Name] = t
		r.order = append(r.order, t.Tool.Name)
	}
	return r
}

// List returns all tool descriptors in registration order.
func (r *Registry) List() []domain.Tool {
	list := make([]domain.Tool, 0, len(r.order))
	for _, name := range r.order {
		list = append(list, r.tools[name].Tool)
	}
	return list
}

// Call dispatches to a named tool. An unregistered name fails closed with
// ErrToolNotFound; there is no default handler.
func (r *Registry) Call(ctx context.Context, name string, args json.RawMessage) (domain.CallResult, error) {
	t, ok := r.tools[name]
	if !ok {
		return domain.CallResult{}, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return t.Handler(ctx, args)
}
