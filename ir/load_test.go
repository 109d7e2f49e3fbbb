package ir_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/exograph/exograph/ir"
)

func sampleSystem() *ir.System {
	return &ir.System{
		Tables: []ir.Table{
			{Name: "venues", Columns: []ir.Column{
				{Name: "id", PhysicalType: "integer", IsPK: true, Default: ir.DefaultAutoIncrement, Autoincrement: true},
				{Name: "name", PhysicalType: "text"},
			}},
		},
		EntityTypes: []ir.EntityType{
			{Name: "Venue", Table: 0, Fields: []ir.Field{
				{Name: "id", Kind: ir.FieldPK, Column: 0, HasColumn: true},
				{Name: "name", Kind: ir.FieldScalar, Column: 1, HasColumn: true},
			}},
		},
		Queries: []ir.Query{
			{Name: "venue", Kind: ir.QueryPkById, Return: 0, Cardinality: ir.ZeroOrOne},
		},
		TrustedDocuments: ir.TrustedDocuments{Wildcard: true},
	}
}

func TestSubsystemRoundTrip(t *testing.T) {
	sys := sampleSystem()
	payload, err := msgpackMarshal(sys)
	require.NoError(t, err)

	blob := ir.SubsystemBlob{Id: "postgres", Version: 1, Payload: payload}
	got, err := ir.LoadSubsystem(blob)
	require.NoError(t, err)

	assert.Equal(t, "venues", got.Tables[0].Name)
	assert.Equal(t, "Venue", got.EntityTypes[0].Name)
	q, ok := got.QueryByName("venue")
	require.True(t, ok)
	assert.Equal(t, ir.QueryPkById, q.Kind)
}

func TestSerializableSystemRoundTrip(t *testing.T) {
	sys := sampleSystem()
	payload, err := msgpackMarshal(sys)
	require.NoError(t, err)

	s := &ir.SerializableSystem{
		FormatVersion: ir.FormatVersion,
		Subsystems: []ir.SubsystemBlob{
			{Id: "postgres", Version: 1, Payload: payload},
		},
		TrustedDocuments: ir.TrustedDocuments{Wildcard: true},
	}

	bytes, err := ir.Serialize(s)
	require.NoError(t, err)

	got, err := ir.DeserializeReader(newReader(bytes))
	require.NoError(t, err)
	assert.Len(t, got.Subsystems, 1)

	blob, ok := got.FindSubsystem("postgres")
	require.True(t, ok)
	sub, err := ir.LoadSubsystem(blob)
	require.NoError(t, err)
	assert.Equal(t, "venues", sub.Tables[0].Name)
}

func TestDeserializeRejectsNewerFormat(t *testing.T) {
	s := &ir.SerializableSystem{FormatVersion: ir.FormatVersion + 1}
	payload, err := msgpackMarshal(s)
	require.NoError(t, err)
	_, err = ir.DeserializeReader(newReader(payload))
	assert.Error(t, err)
}

func msgpackMarshal(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

func newReader(b []byte) *bytes.Reader { return bytes.NewReader(b) }
