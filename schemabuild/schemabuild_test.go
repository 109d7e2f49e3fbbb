package schemabuild_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exograph/exograph/ir"
	"github.com/exograph/exograph/schemabuild"
)

func venuesAndConcerts() *ir.System {
	return &ir.System{
		Tables: []ir.Table{
			{Name: "venues", Columns: []ir.Column{
				{Name: "id", PhysicalType: "integer", IsPK: true, Default: ir.DefaultAutoIncrement, Autoincrement: true},
				{Name: "name", PhysicalType: "text"},
			}},
			{Name: "concerts", Columns: []ir.Column{
				{Name: "id", PhysicalType: "integer", IsPK: true, Default: ir.DefaultAutoIncrement, Autoincrement: true},
				{Name: "title", PhysicalType: "text"},
				{Name: "venue_id", PhysicalType: "integer", HasFK: true, FKTargetTable: 0, FKTargetColumn: 0},
			}},
		},
		EntityTypes: []ir.EntityType{
			{Name: "Venue", Table: 0, Fields: []ir.Field{
				{Name: "id", Kind: ir.FieldPK, Column: 0, HasColumn: true},
				{Name: "name", Kind: ir.FieldScalar, Column: 1, HasColumn: true},
				{Name: "concerts", Kind: ir.FieldOneToMany, Peer: 1, HasPeer: true, PeerColumn: 2, Cardinality: ir.Many},
			}},
			{Name: "Concert", Table: 1, Fields: []ir.Field{
				{Name: "id", Kind: ir.FieldPK, Column: 0, HasColumn: true},
				{Name: "title", Kind: ir.FieldScalar, Column: 1, HasColumn: true},
				{Name: "venue", Kind: ir.FieldManyToOne, Column: 2, HasColumn: true, Peer: 0, HasPeer: true, Cardinality: ir.One},
			}},
		},
		Queries: []ir.Query{
			{Name: "venue", Kind: ir.QueryPkById, Return: 0, Cardinality: ir.ZeroOrOne},
			{Name: "venues", Kind: ir.QueryCollection, Return: 0, Cardinality: ir.Many, HasOrderBy: true, HasLimit: true, HasOffset: true},
		},
		Mutations: []ir.Mutation{
			{Name: "createVenue", Kind: ir.MutationCreate, Return: 0, Cardinality: ir.One, HasData: true},
			{Name: "deleteVenue", Kind: ir.MutationDelete, Return: 0, Cardinality: ir.ZeroOrOne, HasPredicate: true},
		},
	}
}

func TestBuild_EntityObjectFieldTypes(t *testing.T) {
	schema, err := schemabuild.Build(venuesAndConcerts())
	require.NoError(t, err)

	venue := schema.Types["Venue"]
	require.NotNil(t, venue)
	concerts := venue.Fields.ForName("concerts")
	require.NotNil(t, concerts)
	assert.True(t, concerts.Type.NonNull)
	assert.True(t, concerts.Type.Elem.NonNull)
	assert.Equal(t, "Concert", concerts.Type.Elem.NamedType)

	concert := schema.Types["Concert"]
	require.NotNil(t, concert)
	venueField := concert.Fields.ForName("venue")
	require.NotNil(t, venueField)
	assert.Equal(t, "Venue", venueField.Type.NamedType)
}

func TestBuild_QueryRootFields(t *testing.T) {
	schema, err := schemabuild.Build(venuesAndConcerts())
	require.NoError(t, err)

	require.NotNil(t, schema.Query)
	byId := schema.Query.Fields.ForName("venue")
	require.NotNil(t, byId)
	require.Len(t, byId.Arguments, 1)
	assert.Equal(t, "id", byId.Arguments[0].Name)

	coll := schema.Query.Fields.ForName("venues")
	require.NotNil(t, coll)
	names := []string{}
	for _, a := range coll.Arguments {
		names = append(names, a.Name)
	}
	assert.ElementsMatch(t, []string{"where", "orderBy", "limit", "offset"}, names)
}

func TestBuild_MutationRootFields(t *testing.T) {
	schema, err := schemabuild.Build(venuesAndConcerts())
	require.NoError(t, err)

	require.NotNil(t, schema.Mutation)
	create := schema.Mutation.Fields.ForName("createVenue")
	require.NotNil(t, create)
	require.Len(t, create.Arguments, 1)
	assert.Equal(t, "VenueCreationInput", create.Arguments[0].Type.NamedType)
}

func TestBuild_FilterAndCreationInputTypes(t *testing.T) {
	schema, err := schemabuild.Build(venuesAndConcerts())
	require.NoError(t, err)

	filter := schema.Types["VenueFilter"]
	require.NotNil(t, filter)
	assert.NotNil(t, filter.Fields.ForName("name"))
	assert.NotNil(t, filter.Fields.ForName("and"))

	creation := schema.Types["VenueCreationInput"]
	require.NotNil(t, creation)
	nameField := creation.Fields.ForName("name")
	require.NotNil(t, nameField)
	assert.True(t, nameField.Type.NonNull)

	idField := creation.Fields.ForName("id")
	assert.Nil(t, idField, "autoincrement PK should not appear in creation input")
}

func TestCollectionFieldName_Pluralizes(t *testing.T) {
	assert.Equal(t, "venues", schemabuild.CollectionFieldName("Venue"))
}
