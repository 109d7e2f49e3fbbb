package pgplan

// Shape records, alongside a planned AbstractSelect, the handful of things
// the SQL result can't carry on its own: which aliases asked for
// `__typename` at this level (Postgres doesn't know GraphQL type names) and
// where the nested selects corresponding to relation fields live, so the
// executor can walk the decoded JSON tree and splice `__typename` in after
// the fact (spec.md §4.1 "`__typename` is always allowed"). Every other
// field of the response is exactly what json_build_object/json_agg already
// produced; Shape only exists for this one gap.
type Shape struct {
	TypeName  string
	Typenames []string // aliases at this level requesting __typename
	Nested    map[string]*NestedShape
}

// NestedShape describes one relation field's own Shape, plus whether the
// corresponding JSON value is an array (Many) or a single object.
type NestedShape struct {
	Many  bool
	Shape *Shape
}

func newShape(typeName string) *Shape {
	return &Shape{TypeName: typeName, Nested: map[string]*NestedShape{}}
}

// IsTrivial reports whether walking the decoded JSON for __typename
// injection can be skipped entirely -- the common case for a selection that
// never asked for `__typename` anywhere in its subtree.
func (s *Shape) IsTrivial() bool {
	if s == nil {
		return true
	}
	if len(s.Typenames) > 0 {
		return false
	}
	for _, n := range s.Nested {
		if !n.Shape.IsTrivial() {
			return false
		}
	}
	return true
}

// Inject walks a decoded JSON value (as produced by encoding/json's
// map[string]any / []any / scalar decoding) and adds "__typename": TypeName
// at every alias in s.Typenames, recursing into s.Nested.
func Inject(s *Shape, v any) {
	if s == nil || s.IsTrivial() {
		return
	}
	switch node := v.(type) {
	case []any:
		for _, item := range node {
			Inject(s, item)
		}
	case map[string]any:
		for _, alias := range s.Typenames {
			node[alias] = s.TypeName
		}
		for alias, nested := range s.Nested {
			child, ok := node[alias]
			if !ok || child == nil {
				continue
			}
			Inject(nested.Shape, child)
		}
	}
}
