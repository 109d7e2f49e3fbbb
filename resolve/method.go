package resolve

import (
	"context"

	"github.com/exograph/exograph/access"
	"github.com/exograph/exograph/exoerr"
	"github.com/exograph/exograph/ir"
	"github.com/exograph/exograph/module"
	"github.com/exograph/exograph/validate"
)

// resolveModuleField invokes a JS/TS-backed top-level field through the
// worker pool, building the argument vector a script's function signature
// expects: injected context values, injected host-callback shims, then the
// caller's own (validated, coerced) arguments (spec.md §4.4 "Module
// subsystem").
func (r *Resolver) resolveModuleField(ctx context.Context, method *ir.ModuleMethod, field validate.ValidatedField, reqCtx access.RequestContext, cb *module.CallbackProcessor) (any, error) {
	if err := moduleAccessCheck(ctx, method, reqCtx); err != nil {
		return nil, err
	}

	args := make(map[string]any, len(method.Arguments))
	for _, arg := range method.Arguments {
		switch {
		case arg.IsInjected && arg.InjectedKind == "context":
			args[arg.Name] = resolveInjectedContext(ctx, reqCtx, arg.Name)
		case arg.IsInjected && arg.InjectedKind == "shim:executeQuery":
			args[arg.Name] = cb.ExecuteQuery
		case arg.IsInjected && arg.InjectedKind == "shim:addHeader":
			args[arg.Name] = cb.AddHeader
		default:
			v, _ := field.Arguments.Get(arg.Name)
			args[arg.Name] = v
		}
	}

	return r.Pool.Run(ctx, r.Sys, method, args, cb)
}

// resolveInjectedContext resolves an `@inject`ed context parameter by trying
// every registered provider for a value matching name, since a ModuleMethod
// argument does not pin down which single ContextAnnotation it is bound to
// beyond the generic "context" InjectedKind. The first provider to resolve
// it wins; none resolving falls back to an empty object rather than
// failing the call, the same "Unresolved" leniency access.Solve applies to
// a context selection inside a predicate.
func resolveInjectedContext(ctx context.Context, reqCtx access.RequestContext, name string) any {
	for _, annot := range []ir.ContextAnnotation{ir.AnnotationJWT, ir.AnnotationHeader, ir.AnnotationCookie, ir.AnnotationEnv, ir.AnnotationQuery} {
		if v, ok := reqCtx.ResolveContext(ctx, annot, name, nil); ok {
			return v
		}
	}
	return map[string]any{}
}

// moduleAccessCheck enforces a ModuleMethod's own Read rule, the same Deny
// -> Authorization contract a Postgres write rule gets (spec.md §4.2),
// applied here to the module subsystem's top-level calls.
func moduleAccessCheck(ctx context.Context, method *ir.ModuleMethod, reqCtx access.RequestContext) error {
	decision, err := access.Solve(ctx, &method.Access.Read, reqCtx, nil)
	if err != nil {
		return err
	}
	if decision.Kind == access.DenyAll {
		return exoerr.Authorization()
	}
	return nil
}
