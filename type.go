package typegraph

import (
	"fmt"
	"math"

	"github.com/appsworld/go-typegraph/types"
)

// Type is an immutable type descriptor owned by the Program that created it.
//
// Descriptors are compared by identity: two *Type values from the same
// Program are the same type if and only if they are the same pointer. The
// per-kind payload is reached through the accessor methods; an accessor is
// only meaningful for the kinds its doc comment names.
type Type struct {
	kind types.Kind
	prog *Program
	lang *Language

	// name of an int/bool/float/complex/typedef type, or the tag of a
	// struct/union/class/enum type. Empty means anonymous.
	name string
	size uint64

	isComplete bool
	isSigned   bool
	isVariadic bool

	// complex: real type; enum: compatible type.
	typ *Type
	// typedef: aliased type; pointer: referenced type; array: element
	// type; function: return type.
	ref QualifiedType
	// array length; nil for an incomplete array.
	length *uint64

	members     []Member
	enumerators []Enumerator
	parameters  []Parameter
	templates   []TemplateParameter
}

// Member is a member of a struct, union, or class type.
//
// BitFieldSize is 0 for a regular member. An empty Name marks an anonymous
// member, whose own members are exposed under the enclosing type's namespace
// by Program.FindMember.
type Member struct {
	Type         LazyType
	Name         string
	BitOffset    uint64
	BitFieldSize uint64
}

// Enumerator is a named constant of an enumerated type. The value is either
// signed or unsigned, reported by IsSigned.
type Enumerator struct {
	Name string

	uvalue   uint64
	svalue   int64
	isSigned bool
}

// SignedEnumerator returns an enumerator holding a signed value.
func SignedEnumerator(name string, value int64) Enumerator {
	return Enumerator{Name: name, svalue: value, isSigned: true}
}

// UnsignedEnumerator returns an enumerator holding an unsigned value.
func UnsignedEnumerator(name string, value uint64) Enumerator {
	return Enumerator{Name: name, uvalue: value}
}

func (e Enumerator) IsSigned() bool { return e.isSigned }

// Signed returns the enumerator's value. Only meaningful if IsSigned.
func (e Enumerator) Signed() int64 { return e.svalue }

// Unsigned returns the enumerator's value. Only meaningful if !IsSigned.
func (e Enumerator) Unsigned() uint64 { return e.uvalue }

func (e Enumerator) String() string {
	if e.isSigned {
		return fmt.Sprintf("%s = %d", e.Name, e.svalue)
	}
	return fmt.Sprintf("%s = %d", e.Name, e.uvalue)
}

// Parameter is a parameter of a function type.
type Parameter struct {
	Type LazyType
	Name string
}

// TemplateParameter is a template argument of a compound or function type.
type TemplateParameter struct {
	Type LazyType
	Name string
}

// Kind returns the kind of the type.
func (t *Type) Kind() types.Kind { return t.kind }

// Program returns the program that owns the type.
func (t *Type) Program() *Program { return t.prog }

// Language returns the language of the type.
func (t *Type) Language() *Language { return t.lang }

// Name returns the name of an int, bool, float, complex, or typedef type.
func (t *Type) Name() string { return t.name }

// Tag returns the tag of a struct, union, class, or enum type, or "" if the
// type is anonymous.
func (t *Type) Tag() string { return t.name }

// Size returns the size of the type in bytes as recorded by its builder.
// Use Sizeof for the derived per-kind size.
func (t *Type) Size() uint64 { return t.size }

// IsComplete reports whether a struct, union, class, enum, or array type is
// complete. It is always true for other kinds.
func (t *Type) IsComplete() bool {
	switch t.kind {
	case types.KindStruct, types.KindUnion, types.KindClass, types.KindEnum:
		return t.isComplete
	case types.KindArray:
		return t.length != nil
	default:
		return true
	}
}

// IsSigned reports whether an int type is signed.
func (t *Type) IsSigned() bool { return t.isSigned }

// IsVariadic reports whether a function type is variadic.
func (t *Type) IsVariadic() bool { return t.isVariadic }

// RealType returns the real type of a complex type.
func (t *Type) RealType() *Type { return t.typ }

// CompatibleType returns the compatible integer type of an enum type, or nil
// if the enum is incomplete.
func (t *Type) CompatibleType() *Type { return t.typ }

// AliasedType returns the type aliased by a typedef type.
func (t *Type) AliasedType() QualifiedType { return t.ref }

// ReferencedType returns the type referenced by a pointer type.
func (t *Type) ReferencedType() QualifiedType { return t.ref }

// ElementType returns the element type of an array type.
func (t *Type) ElementType() QualifiedType { return t.ref }

// ReturnType returns the return type of a function type. A zero
// QualifiedType means the function has no return type.
func (t *Type) ReturnType() QualifiedType { return t.ref }

// Length returns the number of elements of an array type. ok is false for an
// incomplete array.
func (t *Type) Length() (length uint64, ok bool) {
	if t.length == nil {
		return 0, false
	}
	return *t.length, true
}

// Members returns the members of a struct, union, or class type. Evaluating
// a member's lazy type through the returned slice caches the result in the
// descriptor.
func (t *Type) Members() []Member { return t.members }

// Enumerators returns the enumerators of an enum type.
func (t *Type) Enumerators() []Enumerator { return t.enumerators }

// Parameters returns the parameters of a function type.
func (t *Type) Parameters() []Parameter { return t.parameters }

// TemplateParameters returns the template arguments of a compound or
// function type.
func (t *Type) TemplateParameters() []TemplateParameter { return t.templates }

// IsAnonymous reports whether the type has no name. This may be false only
// for struct, union, class, and enum types.
func (t *Type) IsAnonymous() bool {
	switch t.kind {
	case types.KindStruct, types.KindUnion, types.KindClass, types.KindEnum:
		return t.name == ""
	default:
		return false
	}
}

func (t *Type) String() string {
	switch t.kind {
	case types.KindStruct, types.KindUnion, types.KindClass, types.KindEnum:
		if t.name == "" {
			return fmt.Sprintf("%s <anonymous>", t.kind)
		}
		return fmt.Sprintf("%s %s", t.kind, t.name)
	case types.KindInt, types.KindBool, types.KindFloat, types.KindComplex:
		return t.name
	case types.KindTypedef:
		return fmt.Sprintf("typedef %s", t.name)
	default:
		return t.kind.String()
	}
}

// UnderlyingType returns the type with all typedefs removed, i.e. the
// aliased type of a typedef, recursively. Typedef chains are acyclic by
// construction (see Program.TypedefType), so this terminates.
func (t *Type) UnderlyingType() *Type {
	underlying := t
	for underlying.kind == types.KindTypedef {
		underlying = underlying.ref.Type
	}
	return underlying
}

// IsInteger reports whether the type is an integer type: an int, bool, or
// enum type, or a typedef of one.
func (t *Type) IsInteger() bool {
	switch t.UnderlyingType().kind {
	case types.KindInt, types.KindBool, types.KindEnum:
		return true
	default:
		return false
	}
}

// IsArithmetic reports whether the type is an arithmetic type: an integer or
// floating-point type, or a typedef of one.
func (t *Type) IsArithmetic() bool {
	switch t.UnderlyingType().kind {
	case types.KindInt, types.KindBool, types.KindEnum, types.KindFloat:
		return true
	default:
		return false
	}
}

// IsScalar reports whether the type is a scalar type: an arithmetic or
// pointer type, or a typedef of one.
func (t *Type) IsScalar() bool {
	switch t.UnderlyingType().kind {
	case types.KindInt, types.KindBool, types.KindEnum, types.KindFloat,
		types.KindPointer:
		return true
	default:
		return false
	}
}

// EnumIsSigned reports whether an enum type is signed, i.e. whether its
// compatible integer type is signed. The enum must be complete.
func (t *Type) EnumIsSigned() bool {
	return t.typ.isSigned
}

// Sizeof returns the size of the type in bytes.
func (t *Type) Sizeof() (uint64, error) {
	switch t.kind {
	case types.KindInt, types.KindBool, types.KindFloat, types.KindComplex,
		types.KindPointer:
		return t.size, nil
	case types.KindStruct, types.KindUnion, types.KindClass, types.KindEnum:
		if !t.isComplete {
			return 0, fmt.Errorf("cannot get size of %s: %w", t, ErrIncomplete)
		}
		return t.size, nil
	case types.KindTypedef:
		return t.ref.Type.Sizeof()
	case types.KindArray:
		if t.length == nil {
			return 0, fmt.Errorf("cannot get size of %s: %w", t, ErrIncomplete)
		}
		elemSize, err := t.ref.Type.Sizeof()
		if err != nil {
			return 0, err
		}
		if elemSize != 0 && *t.length > math.MaxUint64/elemSize {
			return 0, fmt.Errorf("size of %s: %w", t, ErrOverflow)
		}
		return *t.length * elemSize, nil
	default:
		return 0, fmt.Errorf("cannot get size of %s type", t.kind)
	}
}

// BitSize returns the size of the type in bits. Unlike multiplying Sizeof by
// 8 directly, it fails with ErrOverflow instead of wrapping: sizes originate
// from untrusted debug metadata.
func (t *Type) BitSize() (uint64, error) {
	size, err := t.Sizeof()
	if err != nil {
		return 0, err
	}
	if size > math.MaxUint64/8 {
		return 0, fmt.Errorf("bit size of %s: %w", t, ErrOverflow)
	}
	return size * 8, nil
}
