package typegraph

// High level access to the type graph of a target program.
//
// A Program owns every type descriptor created for it. Type descriptors are
// immutable once created and are compared by identity: two *Type values from
// the same Program are equal if and only if they are the same descriptor.
// Debug-info readers drive the builders in builder.go to construct the graph,
// registering thunks (lazy.go) for member and parameter types that cannot be
// resolved yet.

import (
	"errors"

	"github.com/appsworld/go-typegraph/types"
)

var (
	// ErrNotFound is returned when a named type or member does not exist.
	ErrNotFound = errors.New("not found")
	// ErrMalformed is returned when debug metadata violates a builder or
	// graph invariant.
	ErrMalformed = errors.New("malformed type")
	// ErrOverflow is returned when a size computation exceeds the
	// representable range.
	ErrOverflow = errors.New("type size overflow")
	// ErrIncomplete is returned when the size of an incomplete type is
	// requested.
	ErrIncomplete = errors.New("incomplete type")
)

// QualifiedType is a type descriptor paired with its qualifiers.
type QualifiedType struct {
	Type       *Type
	Qualifiers types.Qualifiers
}

// Language supplies the source-language rules the type graph needs: how
// primitive type names are spelled and parsed, and how the language lays out
// each primitive on the target.
type Language struct {
	Name string

	// ParsePrimitiveName reports which primitive type a type name spells,
	// or types.NotPrimitive. Program.FindType falls back to it when no
	// registered finder knows the name.
	ParsePrimitiveName func(name string) types.PrimitiveKind

	// PrimitiveSpellings lists the names of a primitive type, preferred
	// spelling first.
	PrimitiveSpellings func(kind types.PrimitiveKind) []string

	// PrimitiveInfo gives the default kind, size, and signedness used to
	// create a primitive type when no registered finder supplies one.
	PrimitiveInfo func(kind types.PrimitiveKind) types.PrimitiveInfo
}
