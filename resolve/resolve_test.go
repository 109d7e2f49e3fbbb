package resolve

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exograph/exograph/ir"
	"github.com/exograph/exograph/schemabuild"
	"github.com/exograph/exograph/validate"
)

// venueSystem builds a small one-entity IR (mirroring schemabuild's own
// fixture) with an open Read rule and a denied Create rule, enough to drive
// both a query and a mutation through the resolver end to end.
func venueSystem() *ir.System {
	return &ir.System{
		Tables: []ir.Table{
			{Name: "venues", Columns: []ir.Column{
				{Name: "id", PhysicalType: "integer", IsPK: true, Default: ir.DefaultAutoIncrement, Autoincrement: true},
				{Name: "name", PhysicalType: "text"},
			}},
		},
		EntityTypes: []ir.EntityType{
			{Name: "Venue", Table: 0, Access: ir.AccessRules{Read: ir.BoolLit(true), Create: ir.BoolLit(false)}, Fields: []ir.Field{
				{Name: "id", Kind: ir.FieldPK, Column: 0, HasColumn: true},
				{Name: "name", Kind: ir.FieldScalar, Column: 1, HasColumn: true},
			}},
		},
		Queries: []ir.Query{
			{Name: "venue", Kind: ir.QueryPkById, Return: 0, Cardinality: ir.ZeroOrOne},
		},
		Mutations: []ir.Mutation{
			{Name: "createVenue", Kind: ir.MutationCreate, Return: 0, Cardinality: ir.One, HasData: true},
		},
	}
}

func newTestResolver(t *testing.T) (*Resolver, sqlmock.Sqlmock) {
	t.Helper()
	sys := venueSystem()
	schema, err := schemabuild.Build(sys)
	require.NoError(t, err)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &Resolver{
		Sys:    sys,
		Schema: schema,
		DB:     &DB{Conn: db},
		Limits: validate.Limits{NormalDepth: 10, IntrospectionDepth: 10},
	}, mock
}

func TestExecute_Query_ResolvesAndUnwrapsByCardinality(t *testing.T) {
	r, mock := newTestResolver(t)

	mock.ExpectQuery(".*").WillReturnRows(
		sqlmock.NewRows([]string{"result"}).AddRow(`[{"id":1,"name":"Mercury Lounge"}]`),
	)

	resp, err := r.Execute(context.Background(), Request{Query: `{ venue(id: 1) { id name } }`})
	require.NoError(t, err)

	venue, ok := resp.Data["venue"].(map[string]any)
	require.True(t, ok, "ZeroOrOne cardinality should unwrap the single-element array")
	assert.Equal(t, "Mercury Lounge", venue["name"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_Query_ZeroRowsReturnsNull(t *testing.T) {
	r, mock := newTestResolver(t)

	mock.ExpectQuery(".*").WillReturnRows(
		sqlmock.NewRows([]string{"result"}).AddRow(`[]`),
	)

	resp, err := r.Execute(context.Background(), Request{Query: `{ venue(id: 999) { id } }`})
	require.NoError(t, err)
	assert.Nil(t, resp.Data["venue"])
}

func TestExecute_Mutation_DeniedCreateAbortsBeforeAnyStatement(t *testing.T) {
	r, mock := newTestResolver(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := r.Execute(context.Background(), Request{
		Query: `mutation { createVenue(data: {name: "Fillmore"}) { id } }`,
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMethodByName_NotFound(t *testing.T) {
	r := &Resolver{Sys: &ir.System{}}
	_, ok := r.methodByName("doesNotExist")
	assert.False(t, ok)
}
