// Package air is the row-local constraint evaluation DSL shared by every
// chip. It mirrors the teacher's and the original implementation's split
// between a concrete evaluation mode (used to self-check traces and padding
// rows) and a symbolic mode (used to describe the polynomial identities an
// external prover would later compile), both behind one Value algebra.
package air

import "github.com/zkrisc/chips/pkg/field"

// Value is either a concrete field element (Const) or a symbolic expression
// over current/next row cells (Symbol). Chip Eval methods are written once
// against this interface and work under either instantiation.
type Value interface {
	Add(Value) Value
	Sub(Value) Value
	Mul(Value) Value
	Neg() Value
}

// Const is the concrete instantiation: a field element known at evaluation
// time. Used by CheckBuilder to self-check generated traces.
type Const struct{ V field.Element }

func C(v field.Element) Const { return Const{v} }

func (c Const) Add(o Value) Value { return Const{c.V.Add(o.(Const).V)} }
func (c Const) Sub(o Value) Value { return Const{c.V.Sub(o.(Const).V)} }
func (c Const) Mul(o Value) Value { return Const{c.V.Mul(o.(Const).V)} }
func (c Const) Neg() Value        { return Const{c.V.Neg()} }
func (c Const) IsZero() bool      { return c.V.IsZero() }
