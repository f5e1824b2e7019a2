// Package task proxies status lookups to the external background-job engine.
// The engine owns job execution and state; this package only translates its
// answers into a fixed result shape.
package task

import (
	"context"
	"errors"
	"strings"
)

var ErrNotFound = errors.New("task: not found")

// Status is the fixed result shape reported to callers, independent of the
// engine's internal job representation.
type Status struct {
	State string `json:"state"`
	Info  string `json:"info"`
}

// Engine is the external execution engine, queried by job identifier.
type Engine interface {
	Lookup(ctx context.Context, id string) (Status, error)
}

// Proxy gates and forwards status lookups. It has no privacy semantics: any
// authenticated caller may query any job id.
type Proxy struct {
	engine Engine
}

func NewProxy(engine Engine) (*Proxy, error) {
	if engine == nil {
		return nil, errors.New("task: engine is required")
	}
	return &Proxy{engine: engine}, nil
}

// Status looks up the current state of a job. Unknown identifiers fail with
// ErrNotFound.
func (p *Proxy) Status(ctx context.Context, id string) (Status, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Status{}, ErrNotFound
	}
	return p.engine.Lookup(ctx, id)
}
