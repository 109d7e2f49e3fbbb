package pgplan

import (
	"fmt"

	"github.com/exograph/exograph/ir"
	"github.com/exograph/exograph/sqlast"
)

// filterOps maps a GraphQL filter operator name to its sqlast.RelOp, the
// way the teacher's compiler/gen/sql/filter.go maps a velox predicate
// builder method name to its entql op. `eq`/`neq`/... are the only
// operators spec.md names explicitly (§3 AccessRules) plus the string/JSON
// operators sqlast already carries lowering for.
var filterOps = map[string]sqlast.RelOp{
	"eq":         sqlast.Eq,
	"neq":        sqlast.Neq,
	"lt":         sqlast.Lt,
	"lte":        sqlast.Lte,
	"gt":         sqlast.Gt,
	"gte":        sqlast.Gte,
	"in":         sqlast.In,
	"like":       sqlast.StringLike,
	"startsWith": sqlast.StringStartsWith,
	"endsWith":   sqlast.StringEndsWith,
	"contains":   sqlast.JsonContains,
	"containedBy": sqlast.JsonContainedBy,
}

// filterPredicate lowers a `where`-shaped argument value into a predicate
// over entity, every leaf ColumnPath prefixed by prefix (the relation hops
// already crossed to reach entity from whatever select owns this filter).
// `and`/`or`/`not` combinators and per-field operator objects are both
// supported; a bare scalar/list value for a field is shorthand for `eq`/`in`.
func filterPredicate(sys *ir.System, entity *ir.EntityType, prefix []ir.ColumnPathLink, raw any) (*sqlast.Predicate, error) {
	if raw == nil {
		return sqlast.True, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("pgplan: filter for %q must be an object", entity.Name)
	}

	pred := sqlast.True
	for key, val := range m {
		var (
			p   *sqlast.Predicate
			err error
		)
		switch key {
		case "and":
			p, err = foldCombinator(sys, entity, prefix, val, sqlast.And, sqlast.True)
		case "or":
			p, err = foldCombinator(sys, entity, prefix, val, sqlast.Or, sqlast.False)
		case "not":
			var inner *sqlast.Predicate
			inner, err = filterPredicate(sys, entity, prefix, val)
			if err == nil {
				p = sqlast.NotP(inner)
			}
		default:
			field, ok := entity.FieldByName(key)
			if !ok {
				return nil, fmt.Errorf("pgplan: unknown filter field %q on %q", key, entity.Name)
			}
			p, err = fieldFilterPredicate(sys, entity, field, prefix, val)
		}
		if err != nil {
			return nil, err
		}
		pred = sqlast.And(pred, p)
	}
	return pred, nil
}

func foldCombinator(sys *ir.System, entity *ir.EntityType, prefix []ir.ColumnPathLink, raw any, combine func(l, r *sqlast.Predicate) *sqlast.Predicate, identity *sqlast.Predicate) (*sqlast.Predicate, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("pgplan: `and`/`or` filter combinator on %q expects a list", entity.Name)
	}
	acc := identity
	for _, it := range items {
		p, err := filterPredicate(sys, entity, prefix, it)
		if err != nil {
			return nil, err
		}
		acc = combine(acc, p)
	}
	return acc, nil
}

// fieldFilterPredicate lowers one field's filter value. A many-to-one field
// recurses into the peer entity's own filter shape with the relation hop
// appended to prefix; a one-to-many field has no plain-join lowering (it
// would need an EXISTS subquery, which client-supplied filters do not
// support -- only access rules reach for that via the `some`/`all` Func
// leaves IR carries) and is rejected.
func fieldFilterPredicate(sys *ir.System, entity *ir.EntityType, field *ir.Field, prefix []ir.ColumnPathLink, val any) (*sqlast.Predicate, error) {
	switch field.Kind {
	case ir.FieldManyToOne:
		peer := sys.Entity(field.Peer)
		peerPK, ok := peer.PKField()
		if !ok {
			return nil, fmt.Errorf("pgplan: relation field %q's peer %q has no primary key", field.Name, peer.Name)
		}
		hop := ir.ColumnPathLink{SelfColumn: field.Column, SelfTable: entity.Table, LinkedColumn: peerPK.Column, LinkedTable: peer.Table}
		return filterPredicate(sys, peer, append(append([]ir.ColumnPathLink{}, prefix...), hop), val)

	case ir.FieldOneToMany:
		return nil, fmt.Errorf("pgplan: filtering through one-to-many field %q is not supported; filter the nested selection's own `where` instead", field.Name)

	case ir.FieldComputed:
		return nil, fmt.Errorf("pgplan: computed field %q cannot be filtered on", field.Name)
	}

	leaf := ir.ColumnPathLink{SelfColumn: field.Column, SelfTable: entity.Table, Terminal: true}
	path := ir.ColumnPath{Links: append(append([]ir.ColumnPathLink{}, prefix...), leaf)}

	if opMap, ok := val.(map[string]any); ok {
		pred := sqlast.True
		for op, opVal := range opMap {
			relOp, ok := filterOps[op]
			if !ok {
				return nil, fmt.Errorf("pgplan: unknown filter operator %q on field %q", op, field.Name)
			}
			pred = sqlast.And(pred, sqlast.Rel(relOp, sqlast.Column(path), sqlast.Literal(opVal)))
		}
		return pred, nil
	}

	op := sqlast.Eq
	if _, isList := val.([]any); isList {
		op = sqlast.In
	}
	return sqlast.Rel(op, sqlast.Column(path), sqlast.Literal(val)), nil
}

// orderByEntries lowers an `orderBy` argument. raw is either a map of
// fieldName -> "ASC"/"DESC" (a many-to-one field takes a nested map, to any
// depth of relations), or, on a vector-typed field, {distanceTo, order} (spec.md
// §4.3 "Ordering and paging").
func orderByEntries(sys *ir.System, entity *ir.EntityType, prefix []ir.ColumnPathLink, raw any) ([]sqlast.OrderByEntry, error) {
	if raw == nil {
		return nil, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("pgplan: orderBy for %q must be an object", entity.Name)
	}

	var out []sqlast.OrderByEntry
	for key, val := range m {
		field, ok := entity.FieldByName(key)
		if !ok {
			return nil, fmt.Errorf("pgplan: unknown orderBy field %q on %q", key, entity.Name)
		}

		if field.Kind == ir.FieldManyToOne {
			peer := sys.Entity(field.Peer)
			peerPK, ok := peer.PKField()
			if !ok {
				return nil, fmt.Errorf("pgplan: relation field %q's peer %q has no primary key", field.Name, peer.Name)
			}
			hop := ir.ColumnPathLink{SelfColumn: field.Column, SelfTable: entity.Table, LinkedColumn: peerPK.Column, LinkedTable: peer.Table}
			nested, err := orderByEntries(sys, peer, append(append([]ir.ColumnPathLink{}, prefix...), hop), val)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
			continue
		}

		leaf := ir.ColumnPathLink{SelfColumn: field.Column, SelfTable: entity.Table, Terminal: true}
		path := ir.ColumnPath{Links: append(append([]ir.ColumnPathLink{}, prefix...), leaf)}

		if dm, ok := val.(map[string]any); ok {
			distanceTo, hasDistance := dm["distanceTo"]
			if hasDistance {
				vec, err := toFloatSlice(distanceTo)
				if err != nil {
					return nil, err
				}
				op := "<->"
				for _, idx := range sys.Table(entity.Table).Indices {
					if idx.Vector && len(idx.Columns) == 1 && idx.Columns[0] == field.Column {
						op = idx.DistanceOperator
					}
				}
				out = append(out, sqlast.OrderByEntry{
					Column:           path,
					Direction:        direction(dm["order"]),
					IsDistance:       true,
					DistanceTo:       vec,
					DistanceOperator: op,
				})
				continue
			}
		}

		out = append(out, sqlast.OrderByEntry{Column: path, Direction: direction(val)})
	}
	return out, nil
}

func direction(v any) sqlast.OrderDirection {
	s, _ := v.(string)
	if s == "DESC" || s == "desc" {
		return sqlast.Desc
	}
	return sqlast.Asc
}

func toFloatSlice(v any) ([]float64, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("pgplan: distanceTo must be a list of numbers")
	}
	out := make([]float64, len(items))
	for i, it := range items {
		f, ok := asFloat(it)
		if !ok {
			return nil, fmt.Errorf("pgplan: distanceTo element %d is not a number", i)
		}
		out[i] = f
	}
	return out, nil
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func intArg(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
