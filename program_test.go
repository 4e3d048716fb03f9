package typegraph

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/appsworld/go-typegraph/types"
)

func TestFindPrimitiveTypeDedup(t *testing.T) {
	prog := NewProgram(C)

	first, err := prog.FindPrimitiveType(types.PrimitiveInt, nil)
	if err != nil {
		t.Fatalf("FindPrimitiveType() error = %v", err)
	}
	second, err := prog.FindPrimitiveType(types.PrimitiveInt, nil)
	if err != nil {
		t.Fatalf("second FindPrimitiveType() error = %v", err)
	}
	if first != second {
		t.Errorf("FindPrimitiveType() returned distinct descriptors %p and %p", first, second)
	}
	if first.Name() != "int" || first.Size() != 4 || !first.IsSigned() {
		t.Errorf("int primitive = %q size %d signed %t, want int, 4, true", first.Name(), first.Size(), first.IsSigned())
	}

	other := NewProgram(C)
	foreign, err := other.FindPrimitiveType(types.PrimitiveInt, nil)
	if err != nil {
		t.Fatalf("FindPrimitiveType() error = %v", err)
	}
	if foreign == first {
		t.Errorf("programs share a primitive descriptor")
	}
}

func TestVoidTypeSingleton(t *testing.T) {
	prog := NewProgram(C)
	v1 := prog.VoidType(nil)
	v2 := prog.VoidType(nil)
	if v1 != v2 {
		t.Errorf("VoidType() returned distinct descriptors %p and %p", v1, v2)
	}
	if v1.Kind() != types.KindVoid {
		t.Errorf("Kind() = %s, want void", v1.Kind())
	}
	v3, err := prog.FindPrimitiveType(types.PrimitiveVoid, nil)
	if err != nil {
		t.Fatalf("FindPrimitiveType(void) error = %v", err)
	}
	if v3 != v1 {
		t.Errorf("FindPrimitiveType(void) = %p, want the VoidType singleton %p", v3, v1)
	}
}

func TestFindPrimitiveTypeUsesFinders(t *testing.T) {
	prog := NewProgram(C)
	fromDebugInfo := mustIntType(t, prog, "int", 4, true)
	prog.AddTypeFinder(func(kind types.Kind, name string) (QualifiedType, error) {
		if kind == types.KindInt && name == "int" {
			return QualifiedType{Type: fromDebugInfo}, nil
		}
		return QualifiedType{}, ErrNotFound
	})

	got, err := prog.FindPrimitiveType(types.PrimitiveInt, nil)
	if err != nil {
		t.Fatalf("FindPrimitiveType() error = %v", err)
	}
	if got != fromDebugInfo {
		t.Errorf("FindPrimitiveType() = %p, want the finder-supplied descriptor %p", got, fromDebugInfo)
	}
}

func TestFindPrimitiveTypeRejectsWrongSignedness(t *testing.T) {
	prog := NewProgram(C)
	lying := mustIntType(t, prog, "int", 4, false)
	prog.AddTypeFinder(func(kind types.Kind, name string) (QualifiedType, error) {
		if name == "int" {
			return QualifiedType{Type: lying}, nil
		}
		return QualifiedType{}, ErrNotFound
	})

	if _, err := prog.FindPrimitiveType(types.PrimitiveInt, nil); !errors.Is(err, ErrMalformed) {
		t.Errorf("FindPrimitiveType() error = %v, want ErrMalformed", err)
	}
}

func TestFindTypeChain(t *testing.T) {
	prog := NewProgram(C)
	intType := mustIntType(t, prog, "int", 4, true)

	var order []string
	prog.AddTypeFinder(func(kind types.Kind, name string) (QualifiedType, error) {
		order = append(order, "first")
		return QualifiedType{}, fmt.Errorf("finder miss: %w", ErrNotFound)
	})
	prog.AddTypeFinder(func(kind types.Kind, name string) (QualifiedType, error) {
		order = append(order, "second")
		if name == "int" {
			return QualifiedType{Type: intType}, nil
		}
		return QualifiedType{}, ErrNotFound
	})

	qt, err := prog.FindType(types.KindInt, "int")
	if err != nil {
		t.Fatalf("FindType() error = %v", err)
	}
	if qt.Type != intType {
		t.Errorf("FindType() = %v, want %v", qt.Type, intType)
	}
	if diff := cmp.Diff([]string{"first", "second"}, order); diff != "" {
		t.Errorf("finder call order mismatch (-want +got):\n%s", diff)
	}

	if _, err := prog.FindType(types.KindStruct, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindType() error = %v, want ErrNotFound", err)
	}
}

func TestFindTypeSurfacesFinderErrors(t *testing.T) {
	prog := NewProgram(C)
	broken := fmt.Errorf("corrupt debug info")
	prog.AddTypeFinder(func(kind types.Kind, name string) (QualifiedType, error) {
		return QualifiedType{}, broken
	})
	called := false
	prog.AddTypeFinder(func(kind types.Kind, name string) (QualifiedType, error) {
		called = true
		return QualifiedType{}, ErrNotFound
	})

	if _, err := prog.FindType(types.KindInt, "int"); !errors.Is(err, broken) {
		t.Errorf("FindType() error = %v, want the finder's error", err)
	}
	if called {
		t.Errorf("chain continued past a failing finder")
	}
}

func TestFindTypeNoFinders(t *testing.T) {
	prog := NewProgram(C)
	if _, err := prog.FindType(types.KindStruct, "anything"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindType() error = %v, want ErrNotFound", err)
	}
}

func TestFindTypeParsesPrimitiveNames(t *testing.T) {
	prog := NewProgram(C)

	// No finder knows the name, but the language can parse it.
	qt, err := prog.FindType(types.KindInt, "unsigned long long int")
	if err != nil {
		t.Fatalf("FindType() error = %v", err)
	}
	want, err := prog.FindPrimitiveType(types.PrimitiveUnsignedLongLong, nil)
	if err != nil {
		t.Fatalf("FindPrimitiveType() error = %v", err)
	}
	if qt.Type != want {
		t.Errorf("FindType() = %p, want the deduplicated primitive %p", qt.Type, want)
	}
	if qt.Qualifiers != types.QualifierNone {
		t.Errorf("FindType() qualifiers = %s, want none", qt.Qualifiers)
	}

	// A primitive spelling with the wrong kind is still not found.
	if _, err := prog.FindType(types.KindStruct, "unsigned long long int"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindType() error = %v, want ErrNotFound", err)
	}
}

func TestFindTypeFinderShadowsPrimitiveName(t *testing.T) {
	prog := NewProgram(C)
	fromDebugInfo := mustIntType(t, prog, "long", 8, true)
	prog.AddTypeFinder(func(kind types.Kind, name string) (QualifiedType, error) {
		if kind == types.KindInt && name == "long" {
			return QualifiedType{Type: fromDebugInfo}, nil
		}
		return QualifiedType{}, ErrNotFound
	})

	qt, err := prog.FindType(types.KindInt, "long")
	if err != nil {
		t.Fatalf("FindType() error = %v", err)
	}
	if qt.Type != fromDebugInfo {
		t.Errorf("FindType() = %p, want the finder-supplied descriptor %p", qt.Type, fromDebugInfo)
	}
}

func TestProgramTypesArena(t *testing.T) {
	prog := NewProgram(C)
	mustIntType(t, prog, "int", 4, true)
	prog.VoidType(nil)

	var names []string
	for _, typ := range prog.Types() {
		names = append(names, typ.String())
	}
	if diff := cmp.Diff([]string{"int", "void"}, names); diff != "" {
		t.Errorf("arena contents mismatch (-want +got):\n%s", diff)
	}
}
