package clang

import (
	"testing"

	"github.com/appsworld/go-typegraph/types"
)

func TestParseSpecifierList(t *testing.T) {
	tests := []struct {
		name string
		want types.PrimitiveKind
	}{
		{"void", types.PrimitiveVoid},
		{"_Bool", types.PrimitiveBool},
		{"char", types.PrimitiveChar},
		{"signed char", types.PrimitiveSignedChar},
		{"unsigned char", types.PrimitiveUnsignedChar},
		{"short", types.PrimitiveShort},
		{"short int", types.PrimitiveShort},
		{"signed short int", types.PrimitiveShort},
		{"short unsigned int", types.PrimitiveUnsignedShort},
		{"int", types.PrimitiveInt},
		{"signed", types.PrimitiveInt},
		{"unsigned", types.PrimitiveUnsignedInt},
		{"unsigned int", types.PrimitiveUnsignedInt},
		{"long", types.PrimitiveLong},
		{"long int", types.PrimitiveLong},
		{"int long", types.PrimitiveLong},
		{"long unsigned int", types.PrimitiveUnsignedLong},
		{"long long", types.PrimitiveLongLong},
		{"long long unsigned int", types.PrimitiveUnsignedLongLong},
		{"unsigned long long int", types.PrimitiveUnsignedLongLong},
		{"long int unsigned long", types.PrimitiveUnsignedLongLong},
		{"float", types.PrimitiveFloat},
		{"double", types.PrimitiveDouble},
		{"long double", types.PrimitiveLongDouble},
		{"size_t", types.PrimitiveSizeT},
		{"ptrdiff_t", types.PrimitivePtrdiffT},

		{"", types.NotPrimitive},
		{"signed unsigned", types.NotPrimitive},
		{"long long long", types.NotPrimitive},
		{"short long", types.NotPrimitive},
		{"float int", types.NotPrimitive},
		{"double double", types.NotPrimitive},
		{"char short", types.NotPrimitive},
		{"void int", types.NotPrimitive},
		{"uint64_t", types.NotPrimitive},
		{"struct foo", types.NotPrimitive},
	}
	for _, tt := range tests {
		if got := ParseSpecifierList(tt.name); got != tt.want {
			t.Errorf("ParseSpecifierList(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestSpellingsRoundTrip(t *testing.T) {
	// Every spelling of a primitive except the typedef names must parse
	// back to the primitive it spells.
	for kind := types.PrimitiveKind(0); uint32(kind) < types.NumPrimitives; kind++ {
		if kind == types.PrimitiveSizeT || kind == types.PrimitivePtrdiffT {
			continue
		}
		for _, spelling := range Spellings(kind) {
			if got := ParseSpecifierList(spelling); got != kind {
				t.Errorf("ParseSpecifierList(%q) = %s, want %s", spelling, got, kind)
			}
		}
	}
}

func TestInfo(t *testing.T) {
	tests := []struct {
		kind types.PrimitiveKind
		want types.PrimitiveInfo
	}{
		{types.PrimitiveInt, types.PrimitiveInfo{Kind: types.KindInt, Size: 4, Signed: true}},
		{types.PrimitiveUnsignedLong, types.PrimitiveInfo{Kind: types.KindInt, Size: 8}},
		{types.PrimitiveBool, types.PrimitiveInfo{Kind: types.KindBool, Size: 1}},
		{types.PrimitiveDouble, types.PrimitiveInfo{Kind: types.KindFloat, Size: 8}},
		{types.PrimitiveVoid, types.PrimitiveInfo{Kind: types.KindVoid}},
	}
	for _, tt := range tests {
		if got := Info(tt.kind); got != tt.want {
			t.Errorf("Info(%s) = %+v, want %+v", tt.kind, got, tt.want)
		}
	}
}
