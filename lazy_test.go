package typegraph

import (
	"errors"
	"fmt"
	"testing"

	"github.com/appsworld/go-typegraph/types"
)

// funcThunk evaluates by calling fn, counting invocations.
type funcThunk struct {
	prog  *Program
	fn    func() (QualifiedType, error)
	calls int
}

func (t *funcThunk) Program() *Program { return t.prog }

func (t *funcThunk) Evaluate() (QualifiedType, error) {
	t.calls++
	return t.fn()
}

func TestLazyTypeEvaluateIdempotent(t *testing.T) {
	prog := NewProgram(C)
	intType, err := prog.IntType("int", 4, true, nil)
	if err != nil {
		t.Fatalf("IntType() error = %v", err)
	}
	thunk := &funcThunk{prog: prog, fn: func() (QualifiedType, error) {
		return QualifiedType{Type: intType, Qualifiers: types.QualifierConst}, nil
	}}
	lt := LazyTypeFromThunk(thunk)
	if lt.Evaluated() {
		t.Fatalf("lazy type evaluated before first Evaluate()")
	}

	first, err := lt.Evaluate()
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	second, err := lt.Evaluate()
	if err != nil {
		t.Fatalf("second Evaluate() error = %v", err)
	}
	if first != second {
		t.Errorf("Evaluate() = %v, then %v; want identical results", first, second)
	}
	if first.Type != intType || first.Qualifiers != types.QualifierConst {
		t.Errorf("Evaluate() = %v, want {%v const}", first, intType)
	}
	if thunk.calls != 1 {
		t.Errorf("thunk invoked %d times, want 1", thunk.calls)
	}
	if !lt.Evaluated() {
		t.Errorf("lazy type not evaluated after successful Evaluate()")
	}
}

func TestLazyTypeRetryAfterFailure(t *testing.T) {
	prog := NewProgram(C)
	intType, err := prog.IntType("int", 4, true, nil)
	if err != nil {
		t.Fatalf("IntType() error = %v", err)
	}
	fail := true
	thunk := &funcThunk{prog: prog, fn: func() (QualifiedType, error) {
		if fail {
			return QualifiedType{}, fmt.Errorf("debug info unavailable")
		}
		return QualifiedType{Type: intType}, nil
	}}
	lt := LazyTypeFromThunk(thunk)

	if _, err := lt.Evaluate(); err == nil {
		t.Fatalf("Evaluate() succeeded, want failure")
	}
	if lt.Evaluated() {
		t.Fatalf("failed Evaluate() left the lazy type evaluated")
	}

	fail = false
	qt, err := lt.Evaluate()
	if err != nil {
		t.Fatalf("Evaluate() after retry error = %v", err)
	}
	if qt.Type != intType {
		t.Errorf("Evaluate() = %v, want %v", qt.Type, intType)
	}
	if thunk.calls != 2 {
		t.Errorf("thunk invoked %d times, want 2", thunk.calls)
	}
}

func TestLazyTypeNilTypeWithQualifiers(t *testing.T) {
	prog := NewProgram(C)
	thunk := &funcThunk{prog: prog, fn: func() (QualifiedType, error) {
		return QualifiedType{Qualifiers: types.QualifierConst}, nil
	}}
	lt := LazyTypeFromThunk(thunk)
	if _, err := lt.Evaluate(); !errors.Is(err, ErrMalformed) {
		t.Fatalf("Evaluate() error = %v, want ErrMalformed", err)
	}
	if lt.Evaluated() {
		t.Errorf("malformed result left the lazy type evaluated")
	}
}

func TestLazyTypeRejectsUndefinedQualifiers(t *testing.T) {
	prog := NewProgram(C)
	intType, err := prog.IntType("int", 4, true, nil)
	if err != nil {
		t.Fatalf("IntType() error = %v", err)
	}
	bad := true
	thunk := &funcThunk{prog: prog, fn: func() (QualifiedType, error) {
		if bad {
			return QualifiedType{Type: intType, Qualifiers: ^types.Qualifiers(0)}, nil
		}
		return QualifiedType{Type: intType, Qualifiers: types.QualifierConst}, nil
	}}
	lt := LazyTypeFromThunk(thunk)

	if _, err := lt.Evaluate(); !errors.Is(err, ErrMalformed) {
		t.Fatalf("Evaluate() error = %v, want ErrMalformed", err)
	}
	if lt.Evaluated() {
		t.Fatalf("undefined qualifier bits left the lazy type evaluated")
	}

	// The thunk must survive the rejected result so a corrected one can
	// be evaluated later.
	bad = false
	qt, err := lt.Evaluate()
	if err != nil {
		t.Fatalf("Evaluate() after retry error = %v", err)
	}
	if qt.Type != intType || qt.Qualifiers != types.QualifierConst {
		t.Errorf("Evaluate() = %v, want {%v const}", qt, intType)
	}
	if thunk.calls != 2 {
		t.Errorf("thunk invoked %d times, want 2", thunk.calls)
	}
}

func TestLazyTypeCrossProgram(t *testing.T) {
	prog := NewProgram(C)
	other := NewProgram(C)
	otherInt, err := other.IntType("int", 4, true, nil)
	if err != nil {
		t.Fatalf("IntType() error = %v", err)
	}
	thunk := &funcThunk{prog: prog, fn: func() (QualifiedType, error) {
		return QualifiedType{Type: otherInt}, nil
	}}
	lt := LazyTypeFromThunk(thunk)
	if _, err := lt.Evaluate(); err == nil {
		t.Fatalf("Evaluate() accepted a type from a different program")
	}
	if lt.Evaluated() {
		t.Errorf("cross-program result left the lazy type evaluated")
	}
}

func TestLazyTypeAbsent(t *testing.T) {
	var lt LazyType
	qt, err := lt.Evaluate()
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if qt.Type != nil || qt.Qualifiers != types.QualifierNone {
		t.Errorf("zero LazyType evaluates to %v, want absent type", qt)
	}
}
