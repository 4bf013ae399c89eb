// internal/query/ast.go
package query

// Node is an expression in the query language.
type Node interface {
	Pos() int
}

type (
	NumberLit struct {
		At    int
		Int   int64
		Float float64
		IsInt bool
	}

	StringLit struct {
		At    int
		Value string
	}

	// Name covers identifiers and the True/False/None keywords.
	Name struct {
		At int
		ID string
	}

	ListLit struct {
		At    int
		Elems []Node
	}

	TupleLit struct {
		At    int
		Elems []Node
	}

	Unary struct {
		At int
		Op string
		X  Node
	}

	Binary struct {
		At int
		Op string
		X  Node
		Y  Node
	}

	Attr struct {
		At   int
		X    Node
		Name string
	}

	Subscript struct {
		At    int
		X     Node
		Index Node
	}

	// Slice appears only inside a subscript. Lo and Hi may be nil.
	Slice struct {
		At int
		Lo Node
		Hi Node
	}

	Keyword struct {
		Name  string
		Value Node
	}

	Call struct {
		At     int
		Fn     Node
		Args   []Node
		Kwargs []Keyword
	}
)

func (n *NumberLit) Pos() int { return n.At }
func (n *StringLit) Pos() int { return n.At }
func (n *Name) Pos() int      { return n.At }
func (n *ListLit) Pos() int   { return n.At }
func (n *TupleLit) Pos() int  { return n.At }
func (n *Unary) Pos() int     { return n.At }
func (n *Binary) Pos() int    { return n.At }
func (n *Attr) Pos() int      { return n.At }
func (n *Subscript) Pos() int { return n.At }
func (n *Slice) Pos() int     { return n.At }
func (n *Call) Pos() int      { return n.At }
