package resolve

import (
	"github.com/99designs/gqlgen/graphql/introspection"

	"github.com/exograph/exograph/exoerr"
	"github.com/exograph/exograph/schemabuild"
	"github.com/exograph/exograph/validate"
)

// resolveIntrospection answers a top-level `__schema`/`__type` field by
// projecting gqlgen's wrapped introspection types through the validated
// selection (spec.md §2 "Schema / introspection"). Neither access control
// nor interception applies to these two fields -- they describe the schema
// itself, not data gated by an entity's access rules.
func (r *Resolver) resolveIntrospection(f validate.ValidatedField) (any, error) {
	switch f.Name {
	case "__schema":
		return projectSchema(schemabuild.Introspect(r.Schema), f.Subfields), nil
	case "__type":
		name, _ := f.Arguments.Get("name")
		typeName, _ := name.(string)
		t := schemabuild.IntrospectType(r.Schema, typeName)
		if t == nil {
			return nil, nil
		}
		return projectType(t, f.Subfields), nil
	default:
		return nil, exoerr.NotFound(f.Name)
	}
}

func includeDeprecated(f validate.ValidatedField) bool {
	v, ok := f.Arguments.Get("includeDeprecated")
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

func projectSchema(s *introspection.Schema, subfields []validate.ValidatedField) map[string]any {
	out := map[string]any{}
	for _, sf := range subfields {
		switch sf.Name {
		case "description":
			out[sf.Alias] = s.Description()
		case "types":
			var types []any
			for _, t := range s.Types() {
				t := t
				types = append(types, projectType(&t, sf.Subfields))
			}
			out[sf.Alias] = types
		case "queryType":
			out[sf.Alias] = projectType(s.QueryType(), sf.Subfields)
		case "mutationType":
			if mt := s.MutationType(); mt != nil {
				out[sf.Alias] = projectType(mt, sf.Subfields)
			} else {
				out[sf.Alias] = nil
			}
		case "subscriptionType":
			out[sf.Alias] = nil
		case "directives":
			var dirs []any
			for _, d := range s.Directives() {
				dirs = append(dirs, projectDirective(d, sf.Subfields))
			}
			out[sf.Alias] = dirs
		}
	}
	return out
}

func projectType(t *introspection.Type, subfields []validate.ValidatedField) map[string]any {
	if t == nil {
		return nil
	}
	out := map[string]any{}
	for _, sf := range subfields {
		switch sf.Name {
		case "kind":
			out[sf.Alias] = t.Kind()
		case "name":
			out[sf.Alias] = t.Name()
		case "description":
			out[sf.Alias] = t.Description()
		case "fields":
			inc := includeDeprecated(sf)
			var fields []any
			for _, fl := range t.Fields(inc) {
				fields = append(fields, projectField(fl, sf.Subfields))
			}
			out[sf.Alias] = fields
		case "interfaces":
			var ifaces []any
			for _, i := range t.Interfaces() {
				i := i
				ifaces = append(ifaces, projectType(&i, sf.Subfields))
			}
			out[sf.Alias] = ifaces
		case "possibleTypes":
			var poss []any
			for _, p := range t.PossibleTypes() {
				p := p
				poss = append(poss, projectType(&p, sf.Subfields))
			}
			out[sf.Alias] = poss
		case "enumValues":
			inc := includeDeprecated(sf)
			var values []any
			for _, ev := range t.EnumValues(inc) {
				values = append(values, projectEnumValue(ev, sf.Subfields))
			}
			out[sf.Alias] = values
		case "inputFields":
			var inputs []any
			for _, iv := range t.InputFields() {
				inputs = append(inputs, projectInputValue(iv, sf.Subfields))
			}
			out[sf.Alias] = inputs
		case "ofType":
			out[sf.Alias] = projectType(t.OfType(), sf.Subfields)
		}
	}
	return out
}

func projectField(f introspection.Field, subfields []validate.ValidatedField) map[string]any {
	out := map[string]any{}
	for _, sf := range subfields {
		switch sf.Name {
		case "name":
			out[sf.Alias] = f.Name
		case "description":
			out[sf.Alias] = f.Description
		case "args":
			var args []any
			for _, a := range f.Args {
				args = append(args, projectInputValue(a, sf.Subfields))
			}
			out[sf.Alias] = args
		case "type":
			out[sf.Alias] = projectType(f.Type, sf.Subfields)
		case "isDeprecated":
			out[sf.Alias] = f.IsDeprecated()
		case "deprecationReason":
			out[sf.Alias] = f.DeprecationReason
		}
	}
	return out
}

func projectInputValue(v introspection.InputValue, subfields []validate.ValidatedField) map[string]any {
	out := map[string]any{}
	for _, sf := range subfields {
		switch sf.Name {
		case "name":
			out[sf.Alias] = v.Name
		case "description":
			out[sf.Alias] = v.Description
		case "type":
			out[sf.Alias] = projectType(v.Type, sf.Subfields)
		case "defaultValue":
			out[sf.Alias] = v.DefaultValue
		}
	}
	return out
}

func projectEnumValue(v introspection.EnumValue, subfields []validate.ValidatedField) map[string]any {
	out := map[string]any{}
	for _, sf := range subfields {
		switch sf.Name {
		case "name":
			out[sf.Alias] = v.Name
		case "description":
			out[sf.Alias] = v.Description
		case "isDeprecated":
			out[sf.Alias] = v.IsDeprecated()
		case "deprecationReason":
			out[sf.Alias] = v.DeprecationReason
		}
	}
	return out
}

func projectDirective(d introspection.Directive, subfields []validate.ValidatedField) map[string]any {
	out := map[string]any{}
	for _, sf := range subfields {
		switch sf.Name {
		case "name":
			out[sf.Alias] = d.Name
		case "description":
			out[sf.Alias] = d.Description
		case "locations":
			out[sf.Alias] = d.Locations
		case "args":
			var args []any
			for _, a := range d.Args {
				args = append(args, projectInputValue(a, sf.Subfields))
			}
			out[sf.Alias] = args
		}
	}
	return out
}
