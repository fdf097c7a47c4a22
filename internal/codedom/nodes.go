package codedom

// Stmt is a statement node.
type Stmt interface {
	stmtNode()
}

// Expr is an expression node.
type Expr interface {
	exprNode()
}

// Op is a binary operator.
type Op string

const (
	OpAdd          Op = "+"
	OpLessEqual    Op = "<="
	OpGreaterEqual Op = ">="
	OpNotEqual     Op = "!="
)

type (
	// ExprStmt evaluates X for its side effects.
	ExprStmt struct {
		X Expr `yaml:"x"`
	}

	VarDecl struct {
		Name string `yaml:"name"`
		Type string `yaml:"type"`
		Init Expr   `yaml:"init,omitempty"`
	}

	Assign struct {
		Target Expr `yaml:"target"`
		Value  Expr `yaml:"value"`
	}

	// For is a classic three-clause loop.
	For struct {
		Init Stmt   `yaml:"init"`
		Cond Expr   `yaml:"cond"`
		Post Stmt   `yaml:"post"`
		Body []Stmt `yaml:"body"`
	}

	If struct {
		Cond Expr   `yaml:"cond"`
		Then []Stmt `yaml:"then"`
	}

	// Try runs Body; the first Catch whose Type matches handles the exception.
	Try struct {
		Body    []Stmt  `yaml:"body"`
		Catches []Catch `yaml:"catches"`
	}

	Return struct{}

	// Throw raises X, or rethrows the exception being handled when X is nil.
	Throw struct {
		X Expr `yaml:"x,omitempty"`
	}
)

// Catch handles exceptions of Type, bound to Var.
type Catch struct {
	Type string `yaml:"type"`
	Var  string `yaml:"var"`
	Body []Stmt `yaml:"body"`
}

type (
	// Ident references a local, parameter or field.
	Ident struct {
		Name string `yaml:"name"`
	}

	This struct{}

	// Literal is a string, int or bool constant.
	Literal struct {
		Value any `yaml:"value"`
	}

	// Null is a null constant of Type, kept so overloaded calls stay unambiguous.
	Null struct {
		Type string `yaml:"type,omitempty"`
	}

	Call struct {
		Target Expr   `yaml:"target"`
		Method string `yaml:"method"`
		Args   []Expr `yaml:"args,omitempty"`
	}

	New struct {
		Type string `yaml:"type"`
		Args []Expr `yaml:"args,omitempty"`
	}

	Array struct {
		Type  string `yaml:"type"`
		Elems []Expr `yaml:"elems"`
	}

	Binary struct {
		Left  Expr `yaml:"left"`
		Op    Op   `yaml:"op"`
		Right Expr `yaml:"right"`
	}

	// Format is a positional string format call: Format with {0}, {1} markers.
	Format struct {
		Format string `yaml:"format"`
		Args   []Expr `yaml:"args"`
	}

	// TypeRef names a type used as a call target for static calls.
	TypeRef struct {
		Name string `yaml:"name"`
	}
)

func (*ExprStmt) stmtNode() {}
func (*VarDecl) stmtNode()  {}
func (*Assign) stmtNode()   {}
func (*For) stmtNode()      {}
func (*If) stmtNode()       {}
func (*Try) stmtNode()      {}
func (*Return) stmtNode()   {}
func (*Throw) stmtNode()    {}

func (*Ident) exprNode()   {}
func (*This) exprNode()    {}
func (*Literal) exprNode() {}
func (*Null) exprNode()    {}
func (*Call) exprNode()    {}
func (*New) exprNode()     {}
func (*Array) exprNode()   {}
func (*Binary) exprNode()  {}
func (*Format) exprNode()  {}
func (*TypeRef) exprNode() {}

// Helpers used by builders.

func Var(name string) *Ident { return &Ident{Name: name} }

func Str(s string) *Literal { return &Literal{Value: s} }

func Int(n int) *Literal { return &Literal{Value: n} }

func Invoke(target Expr, method string, args ...Expr) *ExprStmt {
	return &ExprStmt{X: &Call{Target: target, Method: method, Args: args}}
}
