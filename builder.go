package typegraph

import (
	"fmt"

	"github.com/appsworld/go-typegraph/types"
)

// Struct, union, and class types have members, enumerated types have
// enumerators, and function types have parameters. These variable-length
// fields are accumulated with a builder before the type is created. A
// builder is single-use: Create consumes it on success and it must not be
// reused. If Create fails, the builder keeps ownership of everything staged
// so far and the caller releases it with Deinit.

// CompoundTypeBuilder builds the members of a struct, union, or class type.
type CompoundTypeBuilder struct {
	prog      *Program
	kind      types.Kind
	members   []Member
	templates []TemplateParameter
	done      bool
}

// NewCompoundTypeBuilder returns a builder for a type of the given kind,
// which must be types.KindStruct, types.KindUnion, or types.KindClass.
func NewCompoundTypeBuilder(prog *Program, kind types.Kind) *CompoundTypeBuilder {
	return &CompoundTypeBuilder{prog: prog, kind: kind}
}

// AddMember appends a member. On success the builder takes ownership of typ;
// on failure the caller keeps it and must dispose of it.
func (b *CompoundTypeBuilder) AddMember(typ LazyType, name string, bitOffset, bitFieldSize uint64) error {
	if err := b.prog.checkStaged(&typ); err != nil {
		return err
	}
	b.members = append(b.members, Member{
		Type:         typ,
		Name:         name,
		BitOffset:    bitOffset,
		BitFieldSize: bitFieldSize,
	})
	return nil
}

// AddTemplateParameter appends a template argument. On success the builder
// takes ownership of typ.
func (b *CompoundTypeBuilder) AddTemplateParameter(typ LazyType, name string) error {
	return addTemplateParameter(b.prog, &b.templates, typ, name)
}

// Create consumes the builder and creates the type. It must not be called
// twice. size is ignored for an incomplete type, which must have no staged
// members. If Create fails the staged members stay with the builder for the
// caller to release with Deinit.
func (b *CompoundTypeBuilder) Create(tag string, size uint64, lang *Language, isComplete bool) (*Type, error) {
	if b.done {
		return nil, fmt.Errorf("compound type builder already consumed")
	}
	switch b.kind {
	case types.KindStruct, types.KindUnion, types.KindClass:
	default:
		return nil, fmt.Errorf("%w: %s is not a compound kind", ErrMalformed, b.kind)
	}
	if !isComplete {
		if len(b.members) != 0 {
			return nil, fmt.Errorf("%w: incomplete %s type %q has members", ErrMalformed, b.kind, tag)
		}
		if size != 0 {
			return nil, fmt.Errorf("%w: incomplete %s type %q has nonzero size", ErrMalformed, b.kind, tag)
		}
	}
	t := b.prog.newType(&Type{
		kind:       b.kind,
		lang:       lang,
		name:       tag,
		size:       size,
		isComplete: isComplete,
		members:    b.members,
		templates:  b.templates,
	})
	b.done = true
	b.members = nil
	b.templates = nil
	return t, nil
}

// Deinit releases the staged members and template arguments. Don't call
// this if Create succeeded.
func (b *CompoundTypeBuilder) Deinit() {
	for i := range b.members {
		b.members[i].Type.Deinit()
	}
	b.members = nil
	deinitTemplateParameters(b.templates)
	b.templates = nil
}

// EnumTypeBuilder builds the enumerators of an enumerated type. Signed and
// unsigned values keep their own domain, so the full 64-bit range of each is
// representable without ambiguity.
type EnumTypeBuilder struct {
	prog        *Program
	enumerators []Enumerator
	done        bool
}

func NewEnumTypeBuilder(prog *Program) *EnumTypeBuilder {
	return &EnumTypeBuilder{prog: prog}
}

// AddSigned appends an enumerator with a signed value.
func (b *EnumTypeBuilder) AddSigned(name string, value int64) error {
	b.enumerators = append(b.enumerators, SignedEnumerator(name, value))
	return nil
}

// AddUnsigned appends an enumerator with an unsigned value.
func (b *EnumTypeBuilder) AddUnsigned(name string, value uint64) error {
	b.enumerators = append(b.enumerators, UnsignedEnumerator(name, value))
	return nil
}

// Create consumes the builder and creates the type. compatibleType is the
// integer type compatible with the enum; it must be an int type owned by the
// same program. It must not be called twice.
func (b *EnumTypeBuilder) Create(tag string, compatibleType *Type, lang *Language) (*Type, error) {
	if b.done {
		return nil, fmt.Errorf("enum type builder already consumed")
	}
	if compatibleType == nil {
		return nil, fmt.Errorf("%w: enum type %q has no compatible type", ErrMalformed, tag)
	}
	if compatibleType.prog != b.prog {
		return nil, fmt.Errorf("type %s is from a different program", compatibleType)
	}
	if compatibleType.Kind() != types.KindInt {
		return nil, fmt.Errorf("%w: compatible type of enum %q is %s, not an integer type",
			ErrMalformed, tag, compatibleType.Kind())
	}
	t := b.prog.newType(&Type{
		kind:        types.KindEnum,
		lang:        lang,
		name:        tag,
		size:        compatibleType.size,
		isComplete:  true,
		typ:         compatibleType,
		enumerators: b.enumerators,
	})
	b.done = true
	b.enumerators = nil
	return t, nil
}

// Deinit releases the staged enumerators. Don't call this if Create
// succeeded.
func (b *EnumTypeBuilder) Deinit() {
	b.enumerators = nil
}

// FunctionTypeBuilder builds the parameters of a function type.
type FunctionTypeBuilder struct {
	prog       *Program
	parameters []Parameter
	templates  []TemplateParameter
	done       bool
}

func NewFunctionTypeBuilder(prog *Program) *FunctionTypeBuilder {
	return &FunctionTypeBuilder{prog: prog}
}

// AddParameter appends a parameter. On success the builder takes ownership
// of typ; on failure the caller keeps it and must dispose of it.
func (b *FunctionTypeBuilder) AddParameter(typ LazyType, name string) error {
	if err := b.prog.checkStaged(&typ); err != nil {
		return err
	}
	b.parameters = append(b.parameters, Parameter{Type: typ, Name: name})
	return nil
}

// AddTemplateParameter appends a template argument. On success the builder
// takes ownership of typ.
func (b *FunctionTypeBuilder) AddTemplateParameter(typ LazyType, name string) error {
	return addTemplateParameter(b.prog, &b.templates, typ, name)
}

// Create consumes the builder and creates the type. A zero returnType means
// the function has no return type. It must not be called twice.
func (b *FunctionTypeBuilder) Create(returnType QualifiedType, isVariadic bool, lang *Language) (*Type, error) {
	if b.done {
		return nil, fmt.Errorf("function type builder already consumed")
	}
	if returnType.Type == nil {
		if returnType.Qualifiers != types.QualifierNone {
			return nil, fmt.Errorf("%w: nil return type with qualifiers %s", ErrMalformed, returnType.Qualifiers)
		}
	} else if returnType.Type.prog != b.prog {
		return nil, fmt.Errorf("type %s is from a different program", returnType.Type)
	}
	t := b.prog.newType(&Type{
		kind:       types.KindFunction,
		lang:       lang,
		ref:        returnType,
		isVariadic: isVariadic,
		parameters: b.parameters,
		templates:  b.templates,
	})
	b.done = true
	b.parameters = nil
	b.templates = nil
	return t, nil
}

// Deinit releases the staged parameters and template arguments. Don't call
// this if Create succeeded.
func (b *FunctionTypeBuilder) Deinit() {
	for i := range b.parameters {
		b.parameters[i].Type.Deinit()
	}
	b.parameters = nil
	deinitTemplateParameters(b.templates)
	b.templates = nil
}

func addTemplateParameter(prog *Program, templates *[]TemplateParameter, typ LazyType, name string) error {
	if err := prog.checkStaged(&typ); err != nil {
		return err
	}
	*templates = append(*templates, TemplateParameter{Type: typ, Name: name})
	return nil
}

func deinitTemplateParameters(templates []TemplateParameter) {
	for i := range templates {
		templates[i].Type.Deinit()
	}
}
