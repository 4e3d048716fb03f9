package typegraph

import (
	"github.com/appsworld/go-typegraph/pkg/clang"
)

// C is the C language descriptor, with LP64 default primitive layouts.
var C = &Language{
	Name:               "C",
	ParsePrimitiveName: clang.ParseSpecifierList,
	PrimitiveSpellings: clang.Spellings,
	PrimitiveInfo:      clang.Info,
}
