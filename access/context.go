// Package access implements compile-time partial evaluation of access-rule
// predicate expressions against a request context (spec.md §4.2): the core
// of "the interception / access-solver" half of the pipeline.
package access

import (
	"context"

	"github.com/exograph/exograph/ir"
)

// Provider resolves the root segment of a context path for one annotation
// (@jwt, @header, @cookie, @env, @query). Each is a pluggable collaborator;
// HTTP/JWT/env wiring itself is out of this module's scope (spec.md §1) —
// only the resolution contract is specified here.
type Provider interface {
	Resolve(ctx context.Context, name string) (any, bool)
}

// QueryProvider additionally needs the live resolver function to answer
// `@query` context selections, which execute a nested GraphQL operation
// against the current system (spec.md §4.2 "a query fn for remote
// context").
type QueryProvider interface {
	ResolveQuery(ctx context.Context, resolve ResolveOperationFn, name string) (any, bool)
}

// ResolveOperationFn re-enters the system resolver; it is supplied by the
// resolve package and threaded down here opaquely to avoid an import cycle.
type ResolveOperationFn func(ctx context.Context, query string, variables map[string]any) (map[string]any, error)

// RequestContext aggregates the per-annotation providers plus the resolver
// function used by @query selections.
type RequestContext struct {
	Providers map[ir.ContextAnnotation]Provider
	Resolver  ResolveOperationFn
}

// ResolveContext walks a dotted context path (name.a.b...) starting from the
// provider registered for annot, returning (value, true) or (nil, false) if
// any segment is missing — the "Unresolved" case of spec.md §4.2.
func (rc RequestContext) ResolveContext(ctx context.Context, annot ir.ContextAnnotation, name string, path []string) (any, bool) {
	p, ok := rc.Providers[annot]
	if !ok {
		return nil, false
	}

	var (
		value any
		found bool
	)
	if qp, isQuery := p.(QueryProvider); isQuery && annot == ir.AnnotationQuery {
		value, found = qp.ResolveQuery(ctx, rc.Resolver, name)
	} else {
		value, found = p.Resolve(ctx, name)
	}
	if !found {
		return nil, false
	}

	for _, segment := range path {
		m, ok := value.(map[string]any)
		if !ok {
			return nil, false
		}
		value, ok = m[segment]
		if !ok {
			return nil, false
		}
	}
	return value, true
}

// InputContext is the optional `data`-argument context used while solving
// create/update access rules (spec.md §4.2 "an optional input context").
type InputContext struct {
	Value                map[string]any
	IgnoreMissingContext bool
}

func (ic *InputContext) Field(path []string) (any, bool) {
	if ic == nil {
		return nil, false
	}
	var cur any = ic.Value
	for _, seg := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// StaticProvider is a fixed-value Provider, useful for env/header/cookie
// maps collected once at request start.
type StaticProvider map[string]any

func (s StaticProvider) Resolve(_ context.Context, name string) (any, bool) {
	v, ok := s[name]
	return v, ok
}
