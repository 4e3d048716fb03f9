package typegraph

import (
	"errors"
	"fmt"

	"github.com/appsworld/go-typegraph/types"
)

// TypeFindFunc resolves a named type. It returns ErrNotFound (possibly
// wrapped) if it does not know the name; Program.FindType then tries the
// next registered finder.
type TypeFindFunc func(kind types.Kind, name string) (QualifiedType, error)

// Program owns a type graph: every type descriptor, builder product, lazy
// thunk, and cache entry created for it. Types are never shared between
// programs.
//
// A Program does no internal locking. It assumes single-writer cooperative
// access: confine it to one goroutine, or serialize every call that can
// mutate its state (type creation, lazy evaluation, FindMember,
// FindPrimitiveType) behind an external mutex.
type Program struct {
	lang    *Language
	finders []TypeFindFunc

	// arena of every type descriptor this program created.
	types []*Type

	voidTypes      map[*Language]*Type
	primitiveTypes map[primitiveKey]*Type

	memberCache   map[memberKey]*MemberValue
	membersCached map[*Type]bool
}

type primitiveKey struct {
	lang *Language
	kind types.PrimitiveKind
}

// NewProgram returns an empty program with the given default language.
func NewProgram(lang *Language) *Program {
	return &Program{
		lang:           lang,
		voidTypes:      make(map[*Language]*Type),
		primitiveTypes: make(map[primitiveKey]*Type),
		memberCache:    make(map[memberKey]*MemberValue),
		membersCached:  make(map[*Type]bool),
	}
}

// Language returns the program's default language.
func (p *Program) Language() *Language { return p.lang }

// Types returns every type descriptor the program has created, in creation
// order.
func (p *Program) Types() []*Type { return p.types }

// AddTypeFinder registers a type finding callback. Finders are tried in
// registration order.
func (p *Program) AddTypeFinder(fn TypeFindFunc) {
	p.finders = append(p.finders, fn)
}

// FindType resolves a named type by trying each registered finder in order.
// A finder reporting ErrNotFound is skipped; any other error aborts the
// chain. If every finder reports ErrNotFound and the default language
// recognizes name as a primitive spelling of the requested kind, the
// deduplicated primitive is returned instead; otherwise FindType reports
// ErrNotFound.
func (p *Program) FindType(kind types.Kind, name string) (QualifiedType, error) {
	qt, err := p.findTypeByChain(kind, name)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return qt, err
	}
	if p.lang != nil && p.lang.ParsePrimitiveName != nil {
		if pk := p.lang.ParsePrimitiveName(name); pk != types.NotPrimitive && p.lang.PrimitiveInfo(pk).Kind == kind {
			t, perr := p.FindPrimitiveType(pk, p.lang)
			if perr != nil {
				return QualifiedType{}, perr
			}
			return QualifiedType{Type: t}, nil
		}
	}
	return QualifiedType{}, err
}

// findTypeByChain walks the registered finders only. FindPrimitiveType
// probes spellings through it rather than FindType, so the primitive name
// fallback cannot re-enter itself.
func (p *Program) findTypeByChain(kind types.Kind, name string) (QualifiedType, error) {
	for _, fn := range p.finders {
		qt, err := fn(kind, name)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return QualifiedType{}, err
		}
		if qt.Type == nil {
			return QualifiedType{}, fmt.Errorf("%w: type finder returned nil type for %s %q", ErrMalformed, kind, name)
		}
		if qt.Type.prog != p {
			return QualifiedType{}, fmt.Errorf("type %s is from a different program", qt.Type)
		}
		return qt, nil
	}
	return QualifiedType{}, fmt.Errorf("could not find %s %q: %w", kind, name, ErrNotFound)
}

// newType records t in the program's arena.
func (p *Program) newType(t *Type) *Type {
	t.prog = p
	if t.lang == nil {
		t.lang = p.lang
	}
	p.types = append(p.types, t)
	return t
}

// checkStaged validates a lazy type about to be staged in one of this
// program's builders.
func (p *Program) checkStaged(lt *LazyType) error {
	if !lt.valid() {
		if lt.Evaluated() {
			return fmt.Errorf("%w: nil type with qualifiers %s", ErrMalformed, lt.qualifiers)
		}
		return fmt.Errorf("%w: lazy type has no thunk", ErrMalformed)
	}
	if prog := lt.program(); prog != nil && prog != p {
		return fmt.Errorf("type is from a different program")
	}
	return nil
}

// VoidType returns the void type for lang (or the program's default
// language). The void type has no payload, so the program keeps a single
// descriptor per language. It cannot fail.
func (p *Program) VoidType(lang *Language) *Type {
	if lang == nil {
		lang = p.lang
	}
	if t, ok := p.voidTypes[lang]; ok {
		return t
	}
	t := p.newType(&Type{kind: types.KindVoid, lang: lang, name: "void", isComplete: true})
	p.voidTypes[lang] = t
	return t
}

// IntType creates an integer type. name must not be empty.
func (p *Program) IntType(name string, size uint64, isSigned bool, lang *Language) (*Type, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: integer type has no name", ErrMalformed)
	}
	return p.newType(&Type{
		kind:       types.KindInt,
		lang:       lang,
		name:       name,
		size:       size,
		isSigned:   isSigned,
		isComplete: true,
	}), nil
}

// BoolType creates a boolean type. name must not be empty.
func (p *Program) BoolType(name string, size uint64, lang *Language) (*Type, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: boolean type has no name", ErrMalformed)
	}
	return p.newType(&Type{
		kind:       types.KindBool,
		lang:       lang,
		name:       name,
		size:       size,
		isComplete: true,
	}), nil
}

// FloatType creates a floating-point type. name must not be empty.
func (p *Program) FloatType(name string, size uint64, lang *Language) (*Type, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: floating-point type has no name", ErrMalformed)
	}
	return p.newType(&Type{
		kind:       types.KindFloat,
		lang:       lang,
		name:       name,
		size:       size,
		isComplete: true,
	}), nil
}

// ComplexType creates a complex type. realType must be a floating-point or
// integer type owned by the same program.
func (p *Program) ComplexType(name string, size uint64, realType *Type, lang *Language) (*Type, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: complex type has no name", ErrMalformed)
	}
	if realType == nil {
		return nil, fmt.Errorf("%w: complex type %q has no real type", ErrMalformed, name)
	}
	if realType.prog != p {
		return nil, fmt.Errorf("type %s is from a different program", realType)
	}
	if k := realType.Kind(); k != types.KindFloat && k != types.KindInt {
		return nil, fmt.Errorf("%w: real type of complex type %q is %s, not a floating-point or integer type",
			ErrMalformed, name, k)
	}
	return p.newType(&Type{
		kind:       types.KindComplex,
		lang:       lang,
		name:       name,
		size:       size,
		isComplete: true,
		typ:        realType,
	}), nil
}

// TypedefType creates a typedef aliasing aliasedType. A typedef chain that
// would alias back into itself is rejected here so that UnderlyingType never
// has to detect cycles.
func (p *Program) TypedefType(name string, aliasedType QualifiedType, lang *Language) (*Type, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: typedef has no name", ErrMalformed)
	}
	if aliasedType.Type == nil {
		return nil, fmt.Errorf("%w: typedef %q aliases no type", ErrMalformed, name)
	}
	if aliasedType.Type.prog != p {
		return nil, fmt.Errorf("type %s is from a different program", aliasedType.Type)
	}
	seen := make(map[*Type]bool)
	for t := aliasedType.Type; t.kind == types.KindTypedef; t = t.ref.Type {
		if seen[t] {
			return nil, fmt.Errorf("%w: typedef %q aliases a typedef cycle", ErrMalformed, name)
		}
		seen[t] = true
	}
	return p.newType(&Type{
		kind:       types.KindTypedef,
		lang:       lang,
		name:       name,
		isComplete: true,
		ref:        aliasedType,
	}), nil
}

// PointerType creates a pointer type of the given size referencing
// referencedType.
func (p *Program) PointerType(referencedType QualifiedType, size uint64, lang *Language) (*Type, error) {
	if referencedType.Type == nil {
		return nil, fmt.Errorf("%w: pointer type references no type", ErrMalformed)
	}
	if referencedType.Type.prog != p {
		return nil, fmt.Errorf("type %s is from a different program", referencedType.Type)
	}
	return p.newType(&Type{
		kind:       types.KindPointer,
		lang:       lang,
		size:       size,
		isComplete: true,
		ref:        referencedType,
	}), nil
}

// ArrayType creates an array type of length elements of elementType.
func (p *Program) ArrayType(elementType QualifiedType, length uint64, lang *Language) (*Type, error) {
	if err := p.checkElementType(elementType); err != nil {
		return nil, err
	}
	return p.newType(&Type{
		kind:   types.KindArray,
		lang:   lang,
		ref:    elementType,
		length: &length,
	}), nil
}

// IncompleteArrayType creates an array type with no known length.
func (p *Program) IncompleteArrayType(elementType QualifiedType, lang *Language) (*Type, error) {
	if err := p.checkElementType(elementType); err != nil {
		return nil, err
	}
	return p.newType(&Type{
		kind: types.KindArray,
		lang: lang,
		ref:  elementType,
	}), nil
}

func (p *Program) checkElementType(elementType QualifiedType) error {
	if elementType.Type == nil {
		return fmt.Errorf("%w: array type has no element type", ErrMalformed)
	}
	if elementType.Type.prog != p {
		return fmt.Errorf("type %s is from a different program", elementType.Type)
	}
	return nil
}

// IncompleteEnumType creates an enum type with no compatible type and no
// enumerators.
func (p *Program) IncompleteEnumType(tag string, lang *Language) (*Type, error) {
	return p.newType(&Type{
		kind: types.KindEnum,
		lang: lang,
		name: tag,
	}), nil
}

// FindPrimitiveType returns the program's descriptor for a primitive type of
// lang (or the program's default language). At most one descriptor exists
// per (program, language, primitive): repeated calls return the identical
// *Type, so identity comparison can be used to detect "same type".
//
// Registered finders are consulted first under each of the language's
// spellings of the primitive; if none supplies it, a descriptor is created
// from the language's default layout.
func (p *Program) FindPrimitiveType(kind types.PrimitiveKind, lang *Language) (*Type, error) {
	if lang == nil {
		lang = p.lang
	}
	if kind == types.PrimitiveVoid {
		return p.VoidType(lang), nil
	}
	if uint32(kind) >= types.NumPrimitives {
		return nil, fmt.Errorf("%w: invalid primitive type %s", ErrMalformed, kind)
	}
	key := primitiveKey{lang: lang, kind: kind}
	if t, ok := p.primitiveTypes[key]; ok {
		return t, nil
	}
	info := lang.PrimitiveInfo(kind)
	t, err := p.findPrimitiveType(kind, info, lang)
	if err != nil {
		return nil, err
	}
	if t == nil {
		t, err = p.createPrimitiveType(kind, info, lang)
		if err != nil {
			return nil, err
		}
	}
	p.primitiveTypes[key] = t
	return t, nil
}

func (p *Program) findPrimitiveType(kind types.PrimitiveKind, info types.PrimitiveInfo, lang *Language) (*Type, error) {
	for _, spelling := range lang.PrimitiveSpellings(kind) {
		qt, err := p.findTypeByChain(info.Kind, spelling)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if qt.Type.Kind() != info.Kind {
			return nil, fmt.Errorf("%w: type %q is %s, expected %s",
				ErrMalformed, spelling, qt.Type.Kind(), info.Kind)
		}
		if info.Kind == types.KindInt && qt.Type.IsSigned() != info.Signed {
			return nil, fmt.Errorf("%w: type %q has wrong signedness", ErrMalformed, spelling)
		}
		return qt.Type, nil
	}
	return nil, nil
}

func (p *Program) createPrimitiveType(kind types.PrimitiveKind, info types.PrimitiveInfo, lang *Language) (*Type, error) {
	name := kind.String()
	if spellings := lang.PrimitiveSpellings(kind); len(spellings) > 0 {
		name = spellings[0]
	}
	switch info.Kind {
	case types.KindInt:
		return p.IntType(name, info.Size, info.Signed, lang)
	case types.KindBool:
		return p.BoolType(name, info.Size, lang)
	case types.KindFloat:
		return p.FloatType(name, info.Size, lang)
	default:
		return nil, fmt.Errorf("%w: primitive %s has unexpected kind %s", ErrMalformed, kind, info.Kind)
	}
}
