package pgplan

import (
	"fmt"

	"github.com/exograph/exograph/ir"
	"github.com/exograph/exograph/sqlast"
	"github.com/exograph/exograph/validate"
)

// PlanSelect turns a top-level query field into an AbstractSelect, the
// entry point for the "Postgres planner" half of spec.md §4.3. access
// resolves the Read-rule residue for every entity reachable from the
// selection (the root query's own return entity, plus every relation
// field's peer), so row-level access control is enforced at every nesting
// level, not just the top (spec.md §4.2 "Precheck vs row-level").
func PlanSelect(sys *ir.System, q *ir.Query, field validate.ValidatedField, access AccessResolver) (*sqlast.AbstractSelect, *Shape, error) {
	entity, err := entityFor(sys, q.Return)
	if err != nil {
		return nil, nil, err
	}

	rootAccess, err := access(q.Return)
	if err != nil {
		return nil, nil, err
	}

	argPred, err := queryArgumentsPredicate(sys, entity, q, field.Arguments)
	if err != nil {
		return nil, nil, err
	}

	sel := &sqlast.AbstractSelect{
		Table:     entity.Table,
		Predicate: sqlast.And(argPred, orAllow(rootAccess)),
	}

	var shape *Shape
	if q.Kind == ir.QueryAggregate {
		proj, err := planAggregateSelection(entity, field.Subfields)
		if err != nil {
			return nil, nil, err
		}
		sel.Selection = proj
	} else {
		proj, sh, err := planSelection(sys, entity, field.Subfields, access)
		if err != nil {
			return nil, nil, err
		}
		sel.Selection = proj
		shape = sh
	}

	if q.HasOrderBy {
		if v, ok := argValue(field.Arguments, "orderBy"); ok {
			entries, err := orderByEntries(sys, entity, nil, v)
			if err != nil {
				return nil, nil, err
			}
			sel.OrderBy = entries
		}
	}
	if q.HasLimit {
		if v, ok := argValue(field.Arguments, "limit"); ok {
			n, ok := intArg(v)
			if !ok {
				return nil, nil, fmt.Errorf("pgplan: `limit` must be an integer")
			}
			sel.Limit = &n
		}
	}
	if q.HasOffset {
		if v, ok := argValue(field.Arguments, "offset"); ok {
			n, ok := intArg(v)
			if !ok {
				return nil, nil, fmt.Errorf("pgplan: `offset` must be an integer")
			}
			sel.Offset = &n
		}
	}

	return sel, shape, nil
}

// queryArgumentsPredicate builds the predicate a top-level query's own
// arguments impose: `id` for a PkById query, `where` for a Collection or
// Aggregate query.
func queryArgumentsPredicate(sys *ir.System, entity *ir.EntityType, q *ir.Query, args *validate.OrderedArgs) (*sqlast.Predicate, error) {
	switch q.Kind {
	case ir.QueryPkById:
		v, ok := argValue(args, "id")
		if !ok {
			return nil, fmt.Errorf("pgplan: query %q is missing its required `id` argument", q.Name)
		}
		path, err := pkColumnPath(entity)
		if err != nil {
			return nil, err
		}
		return sqlast.Rel(sqlast.Eq, sqlast.Column(path), sqlast.Literal(v)), nil

	default:
		v, ok := argValue(args, "where")
		if !ok {
			return sqlast.True, nil
		}
		return filterPredicate(sys, entity, nil, v)
	}
}

// planSelection builds the projection list for an entity's own fields
// (possibly nested several relations deep), recording a Shape alongside for
// __typename post-processing. subfields come straight from the validator,
// already checked against the schema, so an unknown field name here would
// indicate a schemabuild/validate mismatch rather than a client error.
func planSelection(sys *ir.System, entity *ir.EntityType, subfields []validate.ValidatedField, access AccessResolver) ([]sqlast.Projection, *Shape, error) {
	shape := newShape(entity.Name)
	var proj []sqlast.Projection

	for _, sf := range subfields {
		key := sf.Alias
		if key == "" {
			key = sf.Name
		}
		if sf.Name == "__typename" {
			shape.Typenames = append(shape.Typenames, key)
			continue
		}

		field, ok := entity.FieldByName(sf.Name)
		if !ok {
			return nil, nil, fmt.Errorf("pgplan: %q has no field %q", entity.Name, sf.Name)
		}

		switch field.Kind {
		case ir.FieldScalar, ir.FieldPK:
			proj = append(proj, sqlast.Projection{Alias: key, Element: sqlast.SelectionElement{Kind: sqlast.SelPhysical, Physical: field.Column}})

		case ir.FieldManyToOne, ir.FieldOneToMany:
			nestedSel, cardinality, nestedShape, err := planRelationSelect(sys, entity, field, sf, access)
			if err != nil {
				return nil, nil, err
			}
			proj = append(proj, sqlast.Projection{Alias: key, Element: sqlast.SelectionElement{
				Kind:        sqlast.SelNested,
				Nested:      nestedSel,
				Cardinality: cardinality,
			}})
			shape.Nested[key] = &NestedShape{Many: cardinality == ir.Many, Shape: nestedShape}

		case ir.FieldComputed:
			return nil, nil, fmt.Errorf("pgplan: computed field %q must be resolved by the module subsystem, not the Postgres planner", field.Name)
		}
	}

	return proj, shape, nil
}

// planRelationSelect lowers a many-to-one or one-to-many field into its own
// correlated AbstractSelect (spec.md §4.3 "Nested selections"): the join
// condition reaches back to the parent row via sqlast.ParentColumn, and the
// peer entity's own Read access residue (and, for one-to-many, the field's
// own where/orderBy/limit/offset arguments) are folded into its predicate.
func planRelationSelect(sys *ir.System, parent *ir.EntityType, field *ir.Field, sf validate.ValidatedField, access AccessResolver) (*sqlast.AbstractSelect, ir.Cardinality, *Shape, error) {
	peer, err := entityFor(sys, field.Peer)
	if err != nil {
		return nil, 0, nil, err
	}
	peerAccess, err := access(field.Peer)
	if err != nil {
		return nil, 0, nil, err
	}

	proj, shape, err := planSelection(sys, peer, sf.Subfields, access)
	if err != nil {
		return nil, 0, nil, err
	}

	sel := &sqlast.AbstractSelect{Table: peer.Table, Selection: proj}

	var cardinality ir.Cardinality
	switch field.Kind {
	case ir.FieldManyToOne:
		peerPK, ok := peer.PKField()
		if !ok {
			return nil, 0, nil, fmt.Errorf("pgplan: relation field %q's peer %q has no primary key", field.Name, peer.Name)
		}
		joinPred := sqlast.Rel(sqlast.Eq, sqlast.Column(leafColumnPath(peer, peerPK.Column)), sqlast.ParentColumn(parent.Table, field.Column))
		sel.Predicate = sqlast.And(joinPred, orAllow(peerAccess))
		if sys.Column(parent.Table, field.Column).IsNullable {
			cardinality = ir.ZeroOrOne
		} else {
			cardinality = ir.One
		}

	case ir.FieldOneToMany:
		parentPK, ok := parent.PKField()
		if !ok {
			return nil, 0, nil, fmt.Errorf("pgplan: entity %q has no primary key", parent.Name)
		}
		joinPred := sqlast.Rel(sqlast.Eq, sqlast.Column(leafColumnPath(peer, field.PeerColumn)), sqlast.ParentColumn(parent.Table, parentPK.Column))

		argPred := sqlast.True
		if v, ok := argValue(sf.Arguments, "where"); ok {
			argPred, err = filterPredicate(sys, peer, nil, v)
			if err != nil {
				return nil, 0, nil, err
			}
		}
		sel.Predicate = sqlast.And(joinPred, sqlast.And(argPred, orAllow(peerAccess)))

		if v, ok := argValue(sf.Arguments, "orderBy"); ok {
			entries, err := orderByEntries(sys, peer, nil, v)
			if err != nil {
				return nil, 0, nil, err
			}
			sel.OrderBy = entries
		}
		if v, ok := argValue(sf.Arguments, "limit"); ok {
			if n, ok := intArg(v); ok {
				sel.Limit = &n
			}
		}
		if v, ok := argValue(sf.Arguments, "offset"); ok {
			if n, ok := intArg(v); ok {
				sel.Offset = &n
			}
		}
		cardinality = ir.Many

	default:
		return nil, 0, nil, fmt.Errorf("pgplan: field %q is not a relation field", field.Name)
	}

	return sel, cardinality, shape, nil
}

// planAggregateSelection lowers a `{_count, _sum, _avg, _min, _max}`
// sub-selection (spec.md §4.3 "Aggregates"). _sum/_avg/_min/_max each take
// a `field` argument naming the scalar column to aggregate; _count takes
// none.
func planAggregateSelection(entity *ir.EntityType, subfields []validate.ValidatedField) ([]sqlast.Projection, error) {
	var proj []sqlast.Projection
	for _, sf := range subfields {
		var fn sqlast.AggregateFunc
		switch sf.Name {
		case "_count":
			proj = append(proj, sqlast.Projection{Alias: sf.Alias, Element: sqlast.SelectionElement{Kind: sqlast.SelFunction, Aggregate: sqlast.AggCount}})
			continue
		case "_sum":
			fn = sqlast.AggSum
		case "_avg":
			fn = sqlast.AggAvg
		case "_min":
			fn = sqlast.AggMin
		case "_max":
			fn = sqlast.AggMax
		default:
			return nil, fmt.Errorf("pgplan: unknown aggregate selection %q", sf.Name)
		}

		v, ok := argValue(sf.Arguments, "field")
		name, isStr := v.(string)
		if !ok || !isStr {
			return nil, fmt.Errorf("pgplan: aggregate %q requires a `field` argument naming a scalar column", sf.Name)
		}
		field, ok := entity.FieldByName(name)
		if !ok || field.Kind == ir.FieldComputed || field.Kind == ir.FieldOneToMany {
			return nil, fmt.Errorf("pgplan: aggregate %q's `field` %q is not a scalar column of %q", sf.Name, name, entity.Name)
		}

		proj = append(proj, sqlast.Projection{Alias: sf.Alias, Element: sqlast.SelectionElement{
			Kind:            sqlast.SelFunction,
			Aggregate:       fn,
			AggregateArg:    field.Column,
			HasAggregateArg: true,
		}})
	}
	return proj, nil
}
