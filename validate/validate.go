// Package validate turns a raw GraphQL document into a ValidatedOperation:
// the chosen operation resolved, fragments inlined, arguments coerced and
// bound, and depth limits enforced (spec.md §4.1). Parsing itself is
// delegated to gqlparser/v2 (the teacher never hand-rolls a lexer either);
// the validation rules on top -- inline-fragment rejection, stray-argument
// rejection, the introspection-vs-normal depth split -- are this package's
// own, since they differ from gqlparser's built-in validator.
package validate

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/exograph/exograph/exoerr"
)

// OperationKind mirrors ast.Operation but keeps this package independent of
// gqlparser's constant set in the rest of the pipeline.
type OperationKind int

const (
	OpQuery OperationKind = iota
	OpMutation
)

// ValidatedField is one resolved, argument-bound field of the selection
// (spec.md §4.1 "a tree of fields with concrete arguments and
// sub-selections").
type ValidatedField struct {
	Alias     string
	Name      string
	Arguments *OrderedArgs
	Subfields []ValidatedField
}

// ValidatedOperation is the validator's output, ready for the planner.
type ValidatedOperation struct {
	Kind   OperationKind
	Fields []ValidatedField
}

// OrderedArgs preserves GraphQL argument declaration order (needed so
// bulk-insert row ordering and predicate-building stay deterministic,
// matching spec.md §8's "deterministic sqlgen output" testable property).
type OrderedArgs struct {
	names  []string
	values map[string]any
}

func newOrderedArgs() *OrderedArgs {
	return &OrderedArgs{values: map[string]any{}}
}

func (a *OrderedArgs) set(name string, v any) {
	if _, exists := a.values[name]; !exists {
		a.names = append(a.names, name)
	}
	a.values[name] = v
}

// NewOrderedArgs builds an OrderedArgs directly from a name/value pair
// list, argument declaration order preserved by the slice order. Used
// outside this package wherever a ValidatedField is constructed without
// going through Validate itself -- test fixtures, and the module
// subsystem's synthetic `@query` context selections (spec.md §6).
func NewOrderedArgs(pairs ...Arg) *OrderedArgs {
	out := newOrderedArgs()
	for _, p := range pairs {
		out.set(p.Name, p.Value)
	}
	return out
}

// Arg is one name/value pair passed to NewOrderedArgs.
type Arg struct {
	Name  string
	Value any
}

func (a *OrderedArgs) Names() []string { return a.names }

func (a *OrderedArgs) Get(name string) (any, bool) {
	v, ok := a.values[name]
	return v, ok
}

// Limits bounds selection-set depth (spec.md §4.1 "Depth check").
type Limits struct {
	NormalDepth       int
	IntrospectionDepth int
}

// Validate parses queryText, resolves operationName (or the document's sole
// operation if operationName is empty), binds variables, and walks the
// selection set into a ValidatedOperation against schema.
func Validate(schema *ast.Schema, queryText string, operationName string, variables map[string]any, limits Limits) (*ValidatedOperation, error) {
	doc, gqlErr := parser.ParseQuery(&ast.Source{Input: queryText})
	if gqlErr != nil {
		return nil, exoerr.Parse(gqlErr.Message)
	}

	op, err := selectOperation(doc, operationName)
	if err != nil {
		return nil, err
	}

	fragments := map[string]*ast.FragmentDefinition{}
	for _, f := range doc.Fragments {
		fragments[f.Name] = f
	}

	var kind OperationKind
	var rootType *ast.Definition
	switch op.Operation {
	case ast.Query:
		kind = OpQuery
		rootType = schema.Query
	case ast.Mutation:
		kind = OpMutation
		rootType = schema.Mutation
	default:
		return nil, exoerr.Validation("subscriptions are not supported")
	}
	if rootType == nil {
		return nil, exoerr.Validation("schema has no root type for this operation")
	}

	introspective := false // top-level fields are never introspective on their own
	fields, err := validateSelectionSet(schema, rootType, op.SelectionSet, fragments, variables, 1, introspective, limits)
	if err != nil {
		return nil, err
	}
	return &ValidatedOperation{Kind: kind, Fields: fields}, nil
}

func selectOperation(doc *ast.QueryDocument, name string) (*ast.OperationDefinition, error) {
	if name == "" {
		switch len(doc.Operations) {
		case 0:
			return nil, exoerr.OperationNotFound("")
		case 1:
			return doc.Operations[0], nil
		default:
			return nil, exoerr.MultipleOperations()
		}
	}
	for _, op := range doc.Operations {
		if op.Name == name {
			return op, nil
		}
	}
	return nil, exoerr.OperationNotFound(name)
}

// validateSelectionSet walks one level of a selection set. depth is the
// 1-based nesting level of this call (the top-level fields are depth 1);
// introspective is sticky once set by a `__schema`/`__type` field, per
// spec.md §4.1 "the first nested level determines whether the rest of the
// subtree is introspective".
func validateSelectionSet(schema *ast.Schema, parentType *ast.Definition, sel ast.SelectionSet, fragments map[string]*ast.FragmentDefinition, variables map[string]any, depth int, introspective bool, limits Limits) ([]ValidatedField, error) {
	limit := limits.NormalDepth
	if introspective {
		limit = limits.IntrospectionDepth
	}
	if depth > limit {
		return nil, exoerr.SelectionSetTooDeep(depth, limit)
	}
	if len(sel) == 0 {
		return nil, exoerr.Validation(fmt.Sprintf("empty selection set on type %q", parentType.Name))
	}

	var out []ValidatedField
	for _, s := range sel {
		switch node := s.(type) {
		case *ast.Field:
			vf, err := validateField(schema, parentType, node, fragments, variables, depth, introspective, limits)
			if err != nil {
				return nil, err
			}
			out = append(out, vf)

		case *ast.InlineFragment:
			return nil, exoerr.InlineFragmentNotSupported()

		case *ast.FragmentSpread:
			frag, ok := fragments[node.Name]
			if !ok {
				return nil, exoerr.Validation(fmt.Sprintf("unknown fragment %q", node.Name))
			}
			inlined, err := validateSelectionSet(schema, parentType, frag.SelectionSet, fragments, variables, depth, introspective, limits)
			if err != nil {
				return nil, err
			}
			out = append(out, inlined...)

		default:
			return nil, exoerr.Validation("unsupported selection node")
		}
	}
	return out, nil
}

func validateField(schema *ast.Schema, parentType *ast.Definition, f *ast.Field, fragments map[string]*ast.FragmentDefinition, variables map[string]any, depth int, introspective bool, limits Limits) (ValidatedField, error) {
	if f.Name == "__typename" {
		if len(f.Arguments) > 0 {
			return ValidatedField{}, exoerr.StrayArguments("__typename")
		}
		return ValidatedField{Alias: aliasOrName(f), Name: "__typename", Arguments: newOrderedArgs()}, nil
	}

	fieldDef := findFieldDefinition(parentType, f.Name)
	if fieldDef == nil {
		return ValidatedField{}, exoerr.InvalidField(parentType.Name, f.Name)
	}

	thisIntrospective := introspective || f.Name == "__schema" || f.Name == "__type"

	args, err := validateArguments(fieldDef, f.Arguments, variables)
	if err != nil {
		return ValidatedField{}, err
	}

	namedType := fieldDef.Type.Name()
	fieldTypeDef := schema.Types[namedType]

	var subfields []ValidatedField
	if len(f.SelectionSet) > 0 {
		if fieldTypeDef == nil || (fieldTypeDef.Kind != ast.Object && fieldTypeDef.Kind != ast.Interface && fieldTypeDef.Kind != ast.Union) {
			return ValidatedField{}, exoerr.ScalarWithField(f.Name)
		}
		subfields, err = validateSelectionSet(schema, fieldTypeDef, f.SelectionSet, fragments, variables, depth+1, thisIntrospective, limits)
		if err != nil {
			return ValidatedField{}, err
		}
	} else if fieldTypeDef != nil && (fieldTypeDef.Kind == ast.Object || fieldTypeDef.Kind == ast.Interface || fieldTypeDef.Kind == ast.Union) {
		return ValidatedField{}, exoerr.Validation(fmt.Sprintf("field %q of composite type %q requires a selection set", f.Name, namedType))
	}

	return ValidatedField{Alias: aliasOrName(f), Name: f.Name, Arguments: args, Subfields: subfields}, nil
}

func aliasOrName(f *ast.Field) string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

func findFieldDefinition(parentType *ast.Definition, name string) *ast.FieldDefinition {
	for _, fd := range parentType.Fields {
		if fd.Name == name {
			return fd
		}
	}
	return nil
}

// validateArguments binds f's arguments against fieldDef's parameter schema:
// every supplied name must be declared (StrayArguments), every required
// parameter without a default must be supplied with a non-null value.
func validateArguments(fieldDef *ast.FieldDefinition, args ast.ArgumentList, variables map[string]any) (*OrderedArgs, error) {
	declared := map[string]*ast.ArgumentDefinition{}
	for _, ad := range fieldDef.Arguments {
		declared[ad.Name] = ad
	}

	out := newOrderedArgs()
	for _, a := range args {
		def, ok := declared[a.Name]
		if !ok {
			return nil, exoerr.StrayArguments(fmt.Sprintf("%s.%s", fieldDef.Name, a.Name))
		}
		v, err := coerceValue(a.Value, def.Type, variables)
		if err != nil {
			return nil, err
		}
		out.set(a.Name, v)
	}

	for _, ad := range fieldDef.Arguments {
		if _, supplied := out.values[ad.Name]; supplied {
			continue
		}
		if ad.DefaultValue != nil {
			v, err := coerceValue(ad.DefaultValue, ad.Type, variables)
			if err != nil {
				return nil, err
			}
			out.set(ad.Name, v)
			continue
		}
		if ad.Type.NonNull {
			return nil, exoerr.Validation(fmt.Sprintf("missing required argument %q", ad.Name))
		}
	}
	return out, nil
}

// coerceValue turns an ast.Value (a literal or a variable reference) into a
// plain Go value, recursing into lists and input objects (spec.md §4.1
// "input objects recursively validated; lists likewise").
func coerceValue(v *ast.Value, typ *ast.Type, variables map[string]any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if v.Kind == ast.Variable {
		val, ok := variables[v.Raw]
		if !ok {
			if typ.NonNull {
				return nil, exoerr.Validation(fmt.Sprintf("missing required variable $%s", v.Raw))
			}
			return nil, nil
		}
		return val, nil
	}
	if v.Kind == ast.NullValue {
		if typ.NonNull {
			return nil, exoerr.Validation(fmt.Sprintf("null not allowed for non-null type %s", typ.String()))
		}
		return nil, nil
	}

	switch v.Kind {
	case ast.ListValue:
		out := make([]any, 0, len(v.Children))
		elemType := typ
		if typ.Elem != nil {
			elemType = typ.Elem
		}
		for _, c := range v.Children {
			cv, err := coerceValue(c.Value, elemType, variables)
			if err != nil {
				return nil, err
			}
			out = append(out, cv)
		}
		return out, nil

	case ast.ObjectValue:
		out := map[string]any{}
		for _, c := range v.Children {
			cv, err := coerceValue(c.Value, typ, variables)
			if err != nil {
				return nil, err
			}
			out[c.Name] = cv
		}
		return out, nil

	case ast.IntValue, ast.FloatValue, ast.StringValue, ast.BlockValue, ast.BooleanValue, ast.EnumValue:
		return v.Value, nil

	default:
		return v.Raw, nil
	}
}
