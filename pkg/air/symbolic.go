package air

import (
	"fmt"

	"github.com/zkrisc/chips/pkg/field"
)

// RowPos identifies which row an evaluation cell refers to: the row being
// checked (RowLocal) or the one after it (RowNext, used by transition
// constraints). Builder.Cell takes a RowPos so a chip's Eval can address
// trace columns generically under either instantiation.
type RowPos int

const (
	RowLocal RowPos = iota
	RowNext
)

// exprNode is the symbolic expression tree backing Symbol.
type exprNode interface {
	eval(assign func(RowPos, int) field.Element) field.Element
	String() string
}

type constNode struct{ v field.Element }

func (n constNode) eval(func(RowPos, int) field.Element) field.Element { return n.v }
func (n constNode) String() string                                    { return n.v.String() }

type cellNode struct {
	row RowPos
	col int
}

func (n cellNode) eval(assign func(RowPos, int) field.Element) field.Element {
	return assign(n.row, n.col)
}
func (n cellNode) String() string {
	if n.row == RowNext {
		return fmt.Sprintf("next[%d]", n.col)
	}
	return fmt.Sprintf("local[%d]", n.col)
}

type binNode struct {
	op   byte // '+', '-', '*'
	a, b exprNode
}

func (n binNode) eval(assign func(RowPos, int) field.Element) field.Element {
	av, bv := n.a.eval(assign), n.b.eval(assign)
	switch n.op {
	case '+':
		return av.Add(bv)
	case '-':
		return av.Sub(bv)
	case '*':
		return av.Mul(bv)
	default:
		panic("air: bad binNode op")
	}
}
func (n binNode) String() string {
	return fmt.Sprintf("(%s %c %s)", n.a.String(), n.op, n.b.String())
}

type negNode struct{ a exprNode }

func (n negNode) eval(assign func(RowPos, int) field.Element) field.Element {
	return n.a.eval(assign).Neg()
}
func (n negNode) String() string { return fmt.Sprintf("-%s", n.a.String()) }

// Symbol is the symbolic instantiation of Value: an expression tree over
// local/next row cells, evaluated later against a concrete assignment.
type Symbol struct{ node exprNode }

// Cell references a column in the local or next row.
func Cell(row RowPos, col int) Symbol { return Symbol{cellNode{row, col}} }

// SConst lifts a constant field element into the symbolic domain.
func SConst(v field.Element) Symbol { return Symbol{constNode{v}} }

func (s Symbol) Add(o Value) Value { return Symbol{binNode{'+', s.node, o.(Symbol).node}} }
func (s Symbol) Sub(o Value) Value { return Symbol{binNode{'-', s.node, o.(Symbol).node}} }
func (s Symbol) Mul(o Value) Value { return Symbol{binNode{'*', s.node, o.(Symbol).node}} }
func (s Symbol) Neg() Value        { return Symbol{negNode{s.node}} }

func (s Symbol) String() string { return s.node.String() }

// Eval substitutes concrete values for every Cell reference and reduces the
// expression, letting tests confirm the symbolic and concrete instantiations
// agree on the same constraint.
func (s Symbol) Eval(assign func(row RowPos, col int) field.Element) field.Element {
	return s.node.eval(assign)
}
