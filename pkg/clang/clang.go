// Package clang supplies the C language rules the type graph consumes: the
// specifier-list parser for primitive type names, the spellings of each
// primitive, and default LP64 layouts.
package clang

import (
	"strings"

	"github.com/appsworld/go-typegraph/types"
)

// spellings of each primitive type, preferred spelling first. These are the
// names a debug-info producer may use for the same type; a lookup tries them
// in order.
var spellings = [types.NumPrimitives][]string{
	types.PrimitiveVoid:             {"void"},
	types.PrimitiveChar:             {"char"},
	types.PrimitiveSignedChar:       {"signed char"},
	types.PrimitiveUnsignedChar:     {"unsigned char"},
	types.PrimitiveShort:            {"short", "short int", "signed short", "signed short int"},
	types.PrimitiveUnsignedShort:    {"unsigned short", "unsigned short int", "short unsigned int"},
	types.PrimitiveInt:              {"int", "signed int", "signed"},
	types.PrimitiveUnsignedInt:      {"unsigned int", "unsigned"},
	types.PrimitiveLong:             {"long", "long int", "signed long", "signed long int"},
	types.PrimitiveUnsignedLong:     {"unsigned long", "unsigned long int", "long unsigned int"},
	types.PrimitiveLongLong:         {"long long", "long long int", "signed long long", "signed long long int"},
	types.PrimitiveUnsignedLongLong: {"unsigned long long", "unsigned long long int", "long long unsigned int"},
	types.PrimitiveBool:             {"_Bool"},
	types.PrimitiveFloat:            {"float"},
	types.PrimitiveDouble:           {"double"},
	types.PrimitiveLongDouble:       {"long double"},
	types.PrimitiveSizeT:            {"size_t"},
	types.PrimitivePtrdiffT:         {"ptrdiff_t"},
}

// info gives the LP64 layout of each primitive type.
var info = [types.NumPrimitives]types.PrimitiveInfo{
	types.PrimitiveVoid:             {Kind: types.KindVoid},
	types.PrimitiveChar:             {Kind: types.KindInt, Size: 1, Signed: true},
	types.PrimitiveSignedChar:       {Kind: types.KindInt, Size: 1, Signed: true},
	types.PrimitiveUnsignedChar:     {Kind: types.KindInt, Size: 1},
	types.PrimitiveShort:            {Kind: types.KindInt, Size: 2, Signed: true},
	types.PrimitiveUnsignedShort:    {Kind: types.KindInt, Size: 2},
	types.PrimitiveInt:              {Kind: types.KindInt, Size: 4, Signed: true},
	types.PrimitiveUnsignedInt:      {Kind: types.KindInt, Size: 4},
	types.PrimitiveLong:             {Kind: types.KindInt, Size: 8, Signed: true},
	types.PrimitiveUnsignedLong:     {Kind: types.KindInt, Size: 8},
	types.PrimitiveLongLong:         {Kind: types.KindInt, Size: 8, Signed: true},
	types.PrimitiveUnsignedLongLong: {Kind: types.KindInt, Size: 8},
	types.PrimitiveBool:             {Kind: types.KindBool, Size: 1},
	types.PrimitiveFloat:            {Kind: types.KindFloat, Size: 4},
	types.PrimitiveDouble:           {Kind: types.KindFloat, Size: 8},
	types.PrimitiveLongDouble:       {Kind: types.KindFloat, Size: 16},
	types.PrimitiveSizeT:            {Kind: types.KindInt, Size: 8},
	types.PrimitivePtrdiffT:         {Kind: types.KindInt, Size: 8, Signed: true},
}

// Spellings lists the names of a primitive type, preferred first.
func Spellings(kind types.PrimitiveKind) []string {
	if uint32(kind) >= types.NumPrimitives {
		return nil
	}
	return spellings[kind]
}

// Info gives the default kind, size, and signedness of a primitive type.
func Info(kind types.PrimitiveKind) types.PrimitiveInfo {
	if uint32(kind) >= types.NumPrimitives {
		return types.PrimitiveInfo{}
	}
	return info[kind]
}

// ParseSpecifierList parses the name of an unqualified primitive C type.
// Specifiers may appear in any order ("unsigned long long int", "long int
// unsigned long"), as C allows. It returns types.NotPrimitive if the name is
// not a primitive C type.
func ParseSpecifierList(s string) types.PrimitiveKind {
	switch s {
	case "size_t":
		return types.PrimitiveSizeT
	case "ptrdiff_t":
		return types.PrimitivePtrdiffT
	}

	var nVoid, nBool, nChar, nShort, nInt, nLong, nSigned, nUnsigned, nFloat, nDouble int
	for _, word := range strings.Fields(s) {
		switch word {
		case "void":
			nVoid++
		case "_Bool":
			nBool++
		case "char":
			nChar++
		case "short":
			nShort++
		case "int":
			nInt++
		case "long":
			nLong++
		case "signed":
			nSigned++
		case "unsigned":
			nUnsigned++
		case "float":
			nFloat++
		case "double":
			nDouble++
		default:
			return types.NotPrimitive
		}
	}
	if nVoid > 1 || nBool > 1 || nChar > 1 || nShort > 1 || nInt > 1 ||
		nLong > 2 || nSigned > 1 || nUnsigned > 1 || nFloat > 1 || nDouble > 1 {
		return types.NotPrimitive
	}
	if nSigned > 0 && nUnsigned > 0 {
		return types.NotPrimitive
	}

	switch {
	case nVoid == 1:
		if nBool+nChar+nShort+nInt+nLong+nSigned+nUnsigned+nFloat+nDouble != 0 {
			return types.NotPrimitive
		}
		return types.PrimitiveVoid
	case nBool == 1:
		if nChar+nShort+nInt+nLong+nSigned+nUnsigned+nFloat+nDouble != 0 {
			return types.NotPrimitive
		}
		return types.PrimitiveBool
	case nChar == 1:
		if nShort+nInt+nLong+nFloat+nDouble != 0 {
			return types.NotPrimitive
		}
		switch {
		case nSigned == 1:
			return types.PrimitiveSignedChar
		case nUnsigned == 1:
			return types.PrimitiveUnsignedChar
		default:
			return types.PrimitiveChar
		}
	case nFloat == 1:
		if nShort+nInt+nLong+nSigned+nUnsigned+nDouble != 0 {
			return types.NotPrimitive
		}
		return types.PrimitiveFloat
	case nDouble == 1:
		if nShort+nInt+nSigned+nUnsigned != 0 || nLong > 1 {
			return types.NotPrimitive
		}
		if nLong == 1 {
			return types.PrimitiveLongDouble
		}
		return types.PrimitiveDouble
	case nShort == 1:
		if nLong != 0 {
			return types.NotPrimitive
		}
		if nUnsigned == 1 {
			return types.PrimitiveUnsignedShort
		}
		return types.PrimitiveShort
	case nLong == 1:
		if nUnsigned == 1 {
			return types.PrimitiveUnsignedLong
		}
		return types.PrimitiveLong
	case nLong == 2:
		if nUnsigned == 1 {
			return types.PrimitiveUnsignedLongLong
		}
		return types.PrimitiveLongLong
	case nInt == 1 || nSigned == 1:
		if nUnsigned == 1 {
			return types.PrimitiveUnsignedInt
		}
		return types.PrimitiveInt
	case nUnsigned == 1:
		return types.PrimitiveUnsignedInt
	default:
		return types.NotPrimitive
	}
}
