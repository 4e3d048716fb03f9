package typegraph

import (
	"fmt"

	"github.com/appsworld/go-typegraph/types"
)

// The graph of types in a program can be very deep and often cyclic, so the
// types of compound type members, function parameters, and template
// arguments are evaluated lazily: a LazyType holds either an evaluated
// qualified type or a thunk that resolves it on first use.

// TypeThunk is a one-shot deferred computation of a qualified type.
//
// A thunk captures whatever state it needs (typically a debug-info reader
// and an offset) in its own value. Evaluate may be called again if a
// previous call failed; after one call succeeds the enclosing LazyType drops
// the thunk and never calls it again.
type TypeThunk interface {
	// Program returns the program the thunk resolves its type in.
	Program() *Program

	// Evaluate computes the qualified type.
	Evaluate() (QualifiedType, error)
}

// qualifiersUnevaluated marks a LazyType whose thunk has not run. It is not
// a valid qualifier set.
const qualifiersUnevaluated = ^types.Qualifiers(0)

// qualifiersValid is the set of defined qualifier flags. Thunk results
// carrying any other bit are rejected so a stray value cannot re-arm the
// unevaluated marker.
const qualifiersValid = types.QualifierConst | types.QualifierVolatile | types.QualifierRestrict | types.QualifierAtomic

// LazyType is a qualified type that may not have been computed yet.
//
// The zero value is an evaluated nil type with no qualifiers, which
// represents the absence of a type (e.g. no return type).
type LazyType struct {
	typ        *Type
	qualifiers types.Qualifiers
	thunk      TypeThunk
}

// LazyTypeFromThunk returns an unevaluated LazyType backed by thunk.
func LazyTypeFromThunk(thunk TypeThunk) LazyType {
	return LazyType{qualifiers: qualifiersUnevaluated, thunk: thunk}
}

// LazyTypeFromType returns an evaluated LazyType holding qt. If qt.Type is
// nil, qt.Qualifiers must be types.QualifierNone; builders reject members
// and parameters violating this.
func LazyTypeFromType(qt QualifiedType) LazyType {
	return LazyType{typ: qt.Type, qualifiers: qt.Qualifiers}
}

// Evaluated reports whether the lazy type has been evaluated.
func (lt *LazyType) Evaluated() bool {
	return lt.qualifiers != qualifiersUnevaluated
}

// Evaluate returns the qualified type, running the thunk if it has not run
// successfully before.
//
// If this succeeds, the lazy type is evaluated: future calls return the
// cached result without invoking the thunk, and the thunk is dropped. If it
// fails, the lazy type is left unevaluated with its thunk intact, so a later
// call may retry.
func (lt *LazyType) Evaluate() (QualifiedType, error) {
	if lt.Evaluated() {
		return QualifiedType{Type: lt.typ, Qualifiers: lt.qualifiers}, nil
	}
	qt, err := lt.thunk.Evaluate()
	if err != nil {
		return QualifiedType{}, err
	}
	if qt.Qualifiers&^qualifiersValid != 0 {
		return QualifiedType{}, fmt.Errorf("%w: invalid qualifiers %#x", ErrMalformed, uint32(qt.Qualifiers))
	}
	if qt.Type == nil {
		if qt.Qualifiers != types.QualifierNone {
			return QualifiedType{}, fmt.Errorf("%w: nil type with qualifiers %s", ErrMalformed, qt.Qualifiers)
		}
	} else if qt.Type.prog != lt.thunk.Program() {
		return QualifiedType{}, fmt.Errorf("type %s is from a different program", qt.Type)
	}
	lt.typ = qt.Type
	lt.qualifiers = qt.Qualifiers
	lt.thunk = nil
	return qt, nil
}

// Deinit drops the thunk of an unevaluated lazy type. It is a no-op for an
// evaluated one.
func (lt *LazyType) Deinit() {
	if !lt.Evaluated() {
		lt.thunk = nil
	}
}

// valid reports whether the lazy type can be staged in a builder: either a
// pending thunk or an evaluated type whose nil-type form carries no
// qualifiers.
func (lt *LazyType) valid() bool {
	if !lt.Evaluated() {
		return lt.thunk != nil
	}
	return lt.typ != nil || lt.qualifiers == types.QualifierNone
}

// program returns the program the lazy type belongs to, or nil for an
// evaluated absent type.
func (lt *LazyType) program() *Program {
	if !lt.Evaluated() {
		return lt.thunk.Program()
	}
	if lt.typ == nil {
		return nil
	}
	return lt.typ.prog
}
