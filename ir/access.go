package ir

// AccessRules groups the four predicate expressions that gate operations on
// an EntityType or ModuleMethod. A zero-value Expr within any of the four
// means "always allow": it is an And with two nil operands, and the solver
// reads a nil operand as True (the common case for read-only demo entities).
type AccessRules struct {
	Read   Expr
	Create Expr
	Update Expr
	Delete Expr
}

// RelOp is a relational operator appearing at an Expr leaf comparison.
type RelOp int

const (
	Eq RelOp = iota
	Neq
	Lt
	Lte
	Gt
	Gte
	In
)

// ContextAnnotation names the provider that resolves a context path's root
// segment, e.g. `@jwt` for AuthContext.role.
type ContextAnnotation string

const (
	AnnotationJWT    ContextAnnotation = "jwt"
	AnnotationHeader ContextAnnotation = "header"
	AnnotationCookie ContextAnnotation = "cookie"
	AnnotationEnv    ContextAnnotation = "env"
	AnnotationQuery  ContextAnnotation = "query"
)

// FuncKind names a unary predicate function leaf such as `self.tags.contains`.
type FuncKind int

const (
	FuncIsEmpty FuncKind = iota
	FuncSome
	FuncAll
	FuncContains
)

// Expr is a node in an access-rule predicate expression tree. Exactly one of
// the typed fields is meaningful, selected by Op.
type Expr struct {
	Op ExprOp

	// Internal nodes.
	Left  *Expr
	Right *Expr // nil for Not

	// Leaf: relational comparison.
	Rel      RelOp
	RelLeft  *Expr
	RelRight *Expr

	// Leaf: context selection, e.g. AuthContext.role.
	ContextName  string
	ContextPath  []string
	ContextAnnot ContextAnnotation

	// Leaf: a (possibly relation-traversing) path ending at a physical column.
	ColumnPath ColumnPath

	// Leaf: a literal value (string/number/bool/null/list).
	Literal any

	// Leaf: a predicate function applied to a column or context path.
	Func     FuncKind
	FuncArg  *Expr
}

// ExprOp discriminates the kind of Expr node.
type ExprOp int

const (
	OpAnd ExprOp = iota
	OpOr
	OpNot
	OpRelational
	OpContextSelection
	OpColumnPath
	OpLiteral
	OpFunc
)

// ColumnPathLink is one hop in a ColumnPath: either a terminal leaf column
// or a step across a many-to-one/one-to-many relation.
type ColumnPathLink struct {
	// SelfColumn is the column in the current table used for this hop (the
	// FK column for a forward hop, or the relation's own leaf column for a
	// terminal link).
	SelfColumn ColumnId
	SelfTable  TableId

	// Terminal is true when this link is the final leaf (SelfColumn is the
	// column the predicate actually compares against). When false,
	// LinkedColumn/LinkedTable describe the peer side of the relation hop.
	Terminal bool

	LinkedColumn ColumnId
	LinkedTable  TableId
}

// ColumnPath is a sequence of relation hops ending at a leaf column,
// e.g. self.venue.name -> [{concerts.venue_id -> venues.id}, {venues.name, terminal}].
type ColumnPath struct {
	Links []ColumnPathLink
}

func (p ColumnPath) LeafColumn() (ColumnId, TableId) {
	last := p.Links[len(p.Links)-1]
	return last.SelfColumn, last.SelfTable
}

// Constructors below mirror the shape of a hand-written expression builder;
// kept small and mechanical since real rule trees are produced by the
// (out-of-scope) compile-time builder and deserialized via LoadSubsystem.

func And(l, r Expr) Expr  { return Expr{Op: OpAnd, Left: &l, Right: &r} }
func Or(l, r Expr) Expr   { return Expr{Op: OpOr, Left: &l, Right: &r} }
func Not(e Expr) Expr     { return Expr{Op: OpNot, Left: &e} }
func BoolLit(b bool) Expr { return Expr{Op: OpLiteral, Literal: b} }
func StrLit(s string) Expr { return Expr{Op: OpLiteral, Literal: s} }

func Relational(op RelOp, l, r Expr) Expr {
	return Expr{Op: OpRelational, Rel: op, RelLeft: &l, RelRight: &r}
}

func Context(name string, annot ContextAnnotation, path ...string) Expr {
	return Expr{Op: OpContextSelection, ContextName: name, ContextAnnot: annot, ContextPath: path}
}

func Column(path ColumnPath) Expr {
	return Expr{Op: OpColumnPath, ColumnPath: path}
}
