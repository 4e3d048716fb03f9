package types

import (
	"strconv"
	"strings"
)

// Kind is the kind of a type descriptor.
type Kind uint32

const (
	KindVoid Kind = iota
	KindInt
	KindBool
	KindFloat
	KindComplex
	KindStruct
	KindUnion
	KindClass
	KindEnum
	KindTypedef
	KindPointer
	KindArray
	KindFunction
)

var kindSpelling = []string{
	KindVoid:     "void",
	KindInt:      "int",
	KindBool:     "bool",
	KindFloat:    "float",
	KindComplex:  "complex",
	KindStruct:   "struct",
	KindUnion:    "union",
	KindClass:    "class",
	KindEnum:     "enum",
	KindTypedef:  "typedef",
	KindPointer:  "pointer",
	KindArray:    "array",
	KindFunction: "function",
}

func (k Kind) String() string {
	if int(k) < len(kindSpelling) {
		return kindSpelling[k]
	}
	return "0x" + strconv.FormatUint(uint64(k), 16)
}

// IsCompound reports whether the kind has a member list.
func (k Kind) IsCompound() bool {
	return k == KindStruct || k == KindUnion || k == KindClass
}

// Qualifiers is a bitset of type qualifiers.
type Qualifiers uint32

const (
	QualifierConst Qualifiers = 1 << iota
	QualifierVolatile
	QualifierRestrict
	QualifierAtomic

	// QualifierNone is the empty qualifier set.
	QualifierNone Qualifiers = 0
)

func (q Qualifiers) Const() bool {
	return (q & QualifierConst) != 0
}

func (q Qualifiers) Volatile() bool {
	return (q & QualifierVolatile) != 0
}

func (q Qualifiers) Restrict() bool {
	return (q & QualifierRestrict) != 0
}

func (q Qualifiers) Atomic() bool {
	return (q & QualifierAtomic) != 0
}

func (q Qualifiers) String() string {
	var parts []string
	if q.Const() {
		parts = append(parts, "const")
	}
	if q.Volatile() {
		parts = append(parts, "volatile")
	}
	if q.Restrict() {
		parts = append(parts, "restrict")
	}
	if q.Atomic() {
		parts = append(parts, "_Atomic")
	}
	return strings.Join(parts, " ")
}

// PrimitiveKind identifies a primitive type of the source language.
type PrimitiveKind uint32

const (
	PrimitiveVoid PrimitiveKind = iota
	PrimitiveChar
	PrimitiveSignedChar
	PrimitiveUnsignedChar
	PrimitiveShort
	PrimitiveUnsignedShort
	PrimitiveInt
	PrimitiveUnsignedInt
	PrimitiveLong
	PrimitiveUnsignedLong
	PrimitiveLongLong
	PrimitiveUnsignedLongLong
	PrimitiveBool
	PrimitiveFloat
	PrimitiveDouble
	PrimitiveLongDouble
	PrimitiveSizeT
	PrimitivePtrdiffT

	numPrimitives

	// NotPrimitive is returned by name parsers for names that do not
	// spell a primitive type.
	NotPrimitive PrimitiveKind = 0xffffffff
)

// NumPrimitives is the number of valid PrimitiveKind values.
const NumPrimitives = uint32(numPrimitives)

var primitiveName = []string{
	PrimitiveVoid:             "void",
	PrimitiveChar:             "char",
	PrimitiveSignedChar:       "signed char",
	PrimitiveUnsignedChar:     "unsigned char",
	PrimitiveShort:            "short",
	PrimitiveUnsignedShort:    "unsigned short",
	PrimitiveInt:              "int",
	PrimitiveUnsignedInt:      "unsigned int",
	PrimitiveLong:             "long",
	PrimitiveUnsignedLong:     "unsigned long",
	PrimitiveLongLong:         "long long",
	PrimitiveUnsignedLongLong: "unsigned long long",
	PrimitiveBool:             "_Bool",
	PrimitiveFloat:            "float",
	PrimitiveDouble:           "double",
	PrimitiveLongDouble:       "long double",
	PrimitiveSizeT:            "size_t",
	PrimitivePtrdiffT:         "ptrdiff_t",
}

// PrimitiveInfo describes how a language lays out one of its primitive
// types on the target.
type PrimitiveInfo struct {
	Kind   Kind
	Size   uint64
	Signed bool
}

func (p PrimitiveKind) String() string {
	if int(p) < len(primitiveName) {
		return primitiveName[p]
	}
	return "0x" + strconv.FormatUint(uint64(p), 16)
}
