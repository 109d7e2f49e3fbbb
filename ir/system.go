package ir

// System is the fully-deserialized, read-only IR for one subsystem
// (currently only the Postgres subsystem's shape is modeled in depth; the
// Module and Wasm subsystems reuse the same Methods/Scripts/Interceptors
// arenas). It is populated once by LoadSubsystem and never mutated afterwards —
// every exported slice is shared by reference across concurrent requests.
type System struct {
	Tables      []Table
	EntityTypes []EntityType
	Queries     []Query
	Mutations   []Mutation
	Methods     []ModuleMethod
	Scripts     []Script
	Interceptors []Interceptor

	QueryInterceptions    InterceptionMap
	MutationInterceptions InterceptionMap

	TrustedDocuments TrustedDocuments
}

func (s *System) Table(id TableId) *Table             { return &s.Tables[id] }
func (s *System) Entity(id EntityId) *EntityType       { return &s.EntityTypes[id] }
func (s *System) Column(t TableId, c ColumnId) *Column  { return &s.Tables[t].Columns[c] }
func (s *System) Method(id MethodId) *ModuleMethod     { return &s.Methods[id] }
func (s *System) Script(id ScriptId) *Script           { return &s.Scripts[id] }

// EntityByName is used by the validator/planner when resolving a GraphQL
// type name back to its IR entity.
func (s *System) EntityByName(name string) (EntityId, bool) {
	for i := range s.EntityTypes {
		if s.EntityTypes[i].Name == name {
			return EntityId(i), true
		}
	}
	return InvalidId, false
}

func (s *System) QueryByName(name string) (*Query, bool) {
	for i := range s.Queries {
		if s.Queries[i].Name == name {
			return &s.Queries[i], true
		}
	}
	return nil, false
}

func (s *System) MutationByName(name string) (*Mutation, bool) {
	for i := range s.Mutations {
		if s.Mutations[i].Name == name {
			return &s.Mutations[i], true
		}
	}
	return nil, false
}

// InterceptorNode is one node of an InterceptionMap tree: either a single
// interceptor invocation (Leaf), an around-interceptor with a wrapped
// subtree (Around), or an ordered group of siblings (Sequence).
type InterceptorNode struct {
	Kind InterceptorNodeKind

	Leaf InterceptorId // valid when Kind == NodeLeaf

	AroundInterceptor InterceptorId // valid when Kind == NodeAround
	Children          []InterceptorNode

	Sequence []InterceptorNode // valid when Kind == NodeSequence
}

type InterceptorNodeKind int

const (
	NodeLeaf InterceptorNodeKind = iota
	NodeAround
	NodeSequence
)

// InterceptionMap binds an operation name to its interception tree.
// A missing key means the operation has no interceptors bound.
type InterceptionMap map[string]InterceptorNode

// Interceptor returns the arena entry referenced by InterceptorId across
// both InterceptionMaps.
func (s *System) Interceptor(id InterceptorId) *Interceptor { return &s.Interceptors[id] }
