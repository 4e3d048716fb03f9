// Package dwarfinfo builds a typegraph type graph from DWARF debugging
// metadata parsed by github.com/blacktop/go-dwarf.
//
// A Reader resolves DWARF type DIEs into type descriptors owned by one
// Program. Member, parameter, and template-argument types are registered as
// thunks holding the DIE offset, so cyclic graphs (a struct pointing at
// itself, mutually referencing structs) resolve lazily on first use. Reader
// also implements the Program's type-finder callback over a lazily-built
// name index.
package dwarfinfo

import (
	"fmt"

	"github.com/blacktop/go-dwarf"

	typegraph "github.com/appsworld/go-typegraph"
	"github.com/appsworld/go-typegraph/types"
)

// DW_ATE base type encodings.
const (
	encBoolean      = 0x02
	encComplexFloat = 0x03
	encFloat        = 0x04
	encSigned       = 0x05
	encSignedChar   = 0x06
	encUnsigned     = 0x07
	encUnsignedChar = 0x08
)

const defaultPointerSize = 8

// Reader builds type descriptors from the type DIEs of one dwarf.Data.
//
// Like the Program it fills, a Reader does no locking and must be confined
// to one goroutine.
type Reader struct {
	prog *typegraph.Program
	data *dwarf.Data
	lang *typegraph.Language

	// byOffset memoizes resolved DIEs so every reference to the same DIE
	// yields the identical descriptor.
	byOffset map[dwarf.Offset]typegraph.QualifiedType
	// resolving holds the DIEs on the current eager resolution path. A
	// DIE reached again through typedef or qualifier links before it
	// resolved is a metadata cycle that laziness cannot break.
	resolving map[dwarf.Offset]bool

	index map[indexKey]dwarf.Offset
}

type indexKey struct {
	kind types.Kind
	name string
}

// New returns a Reader that builds types owned by prog from data.
func New(prog *typegraph.Program, data *dwarf.Data) *Reader {
	return &Reader{
		prog:      prog,
		data:      data,
		lang:      prog.Language(),
		byOffset:  make(map[dwarf.Offset]typegraph.QualifiedType),
		resolving: make(map[dwarf.Offset]bool),
	}
}

// offsetThunk defers resolution of the type DIE at off.
type offsetThunk struct {
	r   *Reader
	off dwarf.Offset
}

func (t *offsetThunk) Program() *typegraph.Program { return t.r.prog }

func (t *offsetThunk) Evaluate() (typegraph.QualifiedType, error) {
	return t.r.TypeAt(t.off)
}

// FindType resolves a named type from the DWARF data. It is registered with
// Program.AddTypeFinder. The name index over every type DIE is built on the
// first call.
func (r *Reader) FindType(kind types.Kind, name string) (typegraph.QualifiedType, error) {
	if r.index == nil {
		if err := r.buildIndex(); err != nil {
			return typegraph.QualifiedType{}, err
		}
	}
	off, ok := r.index[indexKey{kind: kind, name: name}]
	if !ok {
		return typegraph.QualifiedType{}, fmt.Errorf("no DWARF entry for %s %q: %w", kind, name, typegraph.ErrNotFound)
	}
	return r.TypeAt(off)
}

func (r *Reader) buildIndex() error {
	index := make(map[indexKey]dwarf.Offset)
	er := r.data.Reader()
	for {
		entry, err := er.Next()
		if err != nil {
			return fmt.Errorf("failed to walk DWARF entries: %v", err)
		}
		if entry == nil {
			r.index = index
			return nil
		}
		var kind types.Kind
		switch entry.Tag {
		case dwarf.TagStructType:
			kind = types.KindStruct
		case dwarf.TagUnionType:
			kind = types.KindUnion
		case dwarf.TagClassType:
			kind = types.KindClass
		case dwarf.TagEnumerationType:
			kind = types.KindEnum
		case dwarf.TagTypedef:
			kind = types.KindTypedef
		case dwarf.TagBaseType:
			enc, ok := entry.Val(dwarf.AttrEncoding).(int64)
			if !ok {
				continue
			}
			switch enc {
			case encBoolean:
				kind = types.KindBool
			case encFloat:
				kind = types.KindFloat
			case encComplexFloat:
				kind = types.KindComplex
			default:
				kind = types.KindInt
			}
		default:
			continue
		}
		name, ok := entry.Val(dwarf.AttrName).(string)
		if !ok || name == "" {
			continue
		}
		key := indexKey{kind: kind, name: name}
		if _, ok := index[key]; !ok {
			index[key] = entry.Offset
		}
	}
}

// TypeAt resolves the type DIE at off, returning the memoized descriptor if
// the DIE was resolved before.
func (r *Reader) TypeAt(off dwarf.Offset) (typegraph.QualifiedType, error) {
	if qt, ok := r.byOffset[off]; ok {
		return qt, nil
	}
	if r.resolving[off] {
		return typegraph.QualifiedType{}, fmt.Errorf("%w: DWARF type cycle at offset %#x", typegraph.ErrMalformed, off)
	}
	r.resolving[off] = true
	defer delete(r.resolving, off)

	er := r.data.Reader()
	er.Seek(off)
	entry, err := er.Next()
	if err != nil {
		return typegraph.QualifiedType{}, fmt.Errorf("failed to read DWARF entry at offset %#x: %v", off, err)
	}
	if entry == nil {
		return typegraph.QualifiedType{}, fmt.Errorf("no DWARF entry at offset %#x: %w", off, typegraph.ErrNotFound)
	}

	qt, err := r.resolve(er, entry)
	if err != nil {
		return typegraph.QualifiedType{}, err
	}
	r.byOffset[off] = qt
	return qt, nil
}

func (r *Reader) resolve(er *dwarf.Reader, entry *dwarf.Entry) (typegraph.QualifiedType, error) {
	switch entry.Tag {
	case dwarf.TagBaseType:
		t, err := r.baseType(entry)
		return typegraph.QualifiedType{Type: t}, err
	case dwarf.TagUnspecifiedType:
		return typegraph.QualifiedType{Type: r.prog.VoidType(r.lang)}, nil
	case dwarf.TagPointerType:
		t, err := r.pointerType(entry)
		return typegraph.QualifiedType{Type: t}, err
	case dwarf.TagTypedef:
		t, err := r.typedefType(entry)
		return typegraph.QualifiedType{Type: t}, err
	case dwarf.TagConstType:
		return r.qualifiedType(entry, types.QualifierConst)
	case dwarf.TagVolatileType:
		return r.qualifiedType(entry, types.QualifierVolatile)
	case dwarf.TagRestrictType:
		return r.qualifiedType(entry, types.QualifierRestrict)
	case dwarf.TagAtomicType:
		return r.qualifiedType(entry, types.QualifierAtomic)
	case dwarf.TagStructType:
		t, err := r.compoundType(er, entry, types.KindStruct)
		return typegraph.QualifiedType{Type: t}, err
	case dwarf.TagUnionType:
		t, err := r.compoundType(er, entry, types.KindUnion)
		return typegraph.QualifiedType{Type: t}, err
	case dwarf.TagClassType:
		t, err := r.compoundType(er, entry, types.KindClass)
		return typegraph.QualifiedType{Type: t}, err
	case dwarf.TagEnumerationType:
		t, err := r.enumType(er, entry)
		return typegraph.QualifiedType{Type: t}, err
	case dwarf.TagArrayType:
		t, err := r.arrayType(er, entry)
		return typegraph.QualifiedType{Type: t}, err
	case dwarf.TagSubroutineType:
		t, err := r.functionType(er, entry)
		return typegraph.QualifiedType{Type: t}, err
	default:
		return typegraph.QualifiedType{}, fmt.Errorf("unsupported DWARF type tag %s at offset %#x", entry.Tag, entry.Offset)
	}
}

func (r *Reader) baseType(entry *dwarf.Entry) (*typegraph.Type, error) {
	name, _ := entry.Val(dwarf.AttrName).(string)
	if name == "" {
		return nil, fmt.Errorf("%w: base type at offset %#x has no name", typegraph.ErrMalformed, entry.Offset)
	}
	size := uintVal(entry, dwarf.AttrByteSize)
	enc, ok := entry.Val(dwarf.AttrEncoding).(int64)
	if !ok {
		return nil, fmt.Errorf("%w: base type %q has no encoding", typegraph.ErrMalformed, name)
	}
	switch enc {
	case encBoolean:
		return r.prog.BoolType(name, size, r.lang)
	case encFloat:
		return r.prog.FloatType(name, size, r.lang)
	case encSigned, encSignedChar:
		return r.prog.IntType(name, size, true, r.lang)
	case encUnsigned, encUnsignedChar:
		return r.prog.IntType(name, size, false, r.lang)
	case encComplexFloat:
		realType, err := r.prog.FloatType(name, size/2, r.lang)
		if err != nil {
			return nil, err
		}
		return r.prog.ComplexType(name, size, realType, r.lang)
	default:
		return nil, fmt.Errorf("unsupported DWARF base type encoding %#x for %q", enc, name)
	}
}

func (r *Reader) pointerType(entry *dwarf.Entry) (*typegraph.Type, error) {
	size := uintVal(entry, dwarf.AttrByteSize)
	if size == 0 {
		size = defaultPointerSize
	}
	referenced, err := r.typeAttr(entry)
	if err != nil {
		return nil, err
	}
	return r.prog.PointerType(referenced, size, r.lang)
}

func (r *Reader) typedefType(entry *dwarf.Entry) (*typegraph.Type, error) {
	name, _ := entry.Val(dwarf.AttrName).(string)
	aliased, err := r.typeAttr(entry)
	if err != nil {
		return nil, err
	}
	return r.prog.TypedefType(name, aliased, r.lang)
}

func (r *Reader) qualifiedType(entry *dwarf.Entry, q types.Qualifiers) (typegraph.QualifiedType, error) {
	qt, err := r.typeAttr(entry)
	if err != nil {
		return typegraph.QualifiedType{}, err
	}
	qt.Qualifiers |= q
	return qt, nil
}

// typeAttr resolves the DW_AT_type attribute of entry. Per the DWARF
// convention an absent type attribute means void.
func (r *Reader) typeAttr(entry *dwarf.Entry) (typegraph.QualifiedType, error) {
	off, ok := entry.Val(dwarf.AttrType).(dwarf.Offset)
	if !ok {
		return typegraph.QualifiedType{Type: r.prog.VoidType(r.lang)}, nil
	}
	return r.TypeAt(off)
}

type rawMember struct {
	name         string
	typeOff      dwarf.Offset
	bitOffset    uint64
	bitFieldSize uint64
}

func (r *Reader) compoundType(er *dwarf.Reader, entry *dwarf.Entry, kind types.Kind) (*typegraph.Type, error) {
	tag, _ := entry.Val(dwarf.AttrName).(string)
	size := uintVal(entry, dwarf.AttrByteSize)
	declared, _ := entry.Val(dwarf.AttrDeclaration).(bool)
	if declared {
		// Size is meaningless on a forward declaration.
		size = 0
	}

	// Collect the member DIEs before creating anything so the sub-reader
	// walks its children without interleaved seeks.
	var members []rawMember
	if entry.Children {
		for {
			child, err := er.Next()
			if err != nil {
				return nil, fmt.Errorf("failed to read members of %s %q: %v", kind, tag, err)
			}
			if child == nil || child.Tag == 0 {
				break
			}
			if child.Tag != dwarf.TagMember {
				er.SkipChildren()
				continue
			}
			typeOff, ok := child.Val(dwarf.AttrType).(dwarf.Offset)
			if !ok {
				return nil, fmt.Errorf("%w: member of %s %q has no type", typegraph.ErrMalformed, kind, tag)
			}
			name, _ := child.Val(dwarf.AttrName).(string)
			members = append(members, rawMember{
				name:         name,
				typeOff:      typeOff,
				bitOffset:    memberBitOffset(child),
				bitFieldSize: uintVal(child, dwarf.AttrBitSize),
			})
		}
	}

	b := typegraph.NewCompoundTypeBuilder(r.prog, kind)
	for _, m := range members {
		lt := typegraph.LazyTypeFromThunk(&offsetThunk{r: r, off: m.typeOff})
		if err := b.AddMember(lt, m.name, m.bitOffset, m.bitFieldSize); err != nil {
			b.Deinit()
			return nil, err
		}
	}
	t, err := b.Create(tag, size, r.lang, !declared)
	if err != nil {
		b.Deinit()
		return nil, err
	}
	return t, nil
}

// memberBitOffset computes a member's bit offset within its compound type.
// DWARF 4 gives it directly as DW_AT_data_bit_offset; older producers give a
// byte offset in DW_AT_data_member_location, with bit fields adjusted by the
// big-endian-relative DW_AT_bit_offset.
func memberBitOffset(entry *dwarf.Entry) uint64 {
	if v, ok := entry.Val(dwarf.AttrDataBitOffset).(int64); ok {
		return uint64(v)
	}
	off := 8 * uintVal(entry, dwarf.AttrDataMemberLoc)
	if legacy, ok := entry.Val(dwarf.AttrBitOffset).(int64); ok {
		declSize := uintVal(entry, dwarf.AttrByteSize)
		bitSize := uintVal(entry, dwarf.AttrBitSize)
		if total := 8 * declSize; total >= uint64(legacy)+bitSize {
			off += total - uint64(legacy) - bitSize
		}
	}
	return off
}

func (r *Reader) enumType(er *dwarf.Reader, entry *dwarf.Entry) (*typegraph.Type, error) {
	tag, _ := entry.Val(dwarf.AttrName).(string)
	if declared, _ := entry.Val(dwarf.AttrDeclaration).(bool); declared {
		if entry.Children {
			er.SkipChildren()
		}
		return r.prog.IncompleteEnumType(tag, r.lang)
	}

	type rawEnumerator struct {
		name  string
		value int64
	}
	var enumerators []rawEnumerator
	if entry.Children {
		for {
			child, err := er.Next()
			if err != nil {
				return nil, fmt.Errorf("failed to read enumerators of enum %q: %v", tag, err)
			}
			if child == nil || child.Tag == 0 {
				break
			}
			if child.Tag != dwarf.TagEnumerator {
				er.SkipChildren()
				continue
			}
			name, _ := child.Val(dwarf.AttrName).(string)
			value, _ := child.Val(dwarf.AttrConstValue).(int64)
			enumerators = append(enumerators, rawEnumerator{name: name, value: value})
		}
	}

	compatible, err := r.enumCompatibleType(entry)
	if err != nil {
		return nil, err
	}
	b := typegraph.NewEnumTypeBuilder(r.prog)
	for _, e := range enumerators {
		if compatible.IsSigned() {
			err = b.AddSigned(e.name, e.value)
		} else {
			err = b.AddUnsigned(e.name, uint64(e.value))
		}
		if err != nil {
			b.Deinit()
			return nil, err
		}
	}
	t, err := b.Create(tag, compatible, r.lang)
	if err != nil {
		b.Deinit()
		return nil, err
	}
	return t, nil
}

// enumCompatibleType resolves the integer type compatible with an enum DIE.
// Producers that omit DW_AT_type get the language's plain int.
func (r *Reader) enumCompatibleType(entry *dwarf.Entry) (*typegraph.Type, error) {
	off, ok := entry.Val(dwarf.AttrType).(dwarf.Offset)
	if !ok {
		return r.prog.FindPrimitiveType(types.PrimitiveInt, r.lang)
	}
	qt, err := r.TypeAt(off)
	if err != nil {
		return nil, err
	}
	return qt.Type.UnderlyingType(), nil
}

func (r *Reader) arrayType(er *dwarf.Reader, entry *dwarf.Entry) (*typegraph.Type, error) {
	type subrange struct {
		length uint64
		known  bool
	}
	var subranges []subrange
	if entry.Children {
		for {
			child, err := er.Next()
			if err != nil {
				return nil, fmt.Errorf("failed to read array subranges: %v", err)
			}
			if child == nil || child.Tag == 0 {
				break
			}
			if child.Tag != dwarf.TagSubrangeType {
				er.SkipChildren()
				continue
			}
			if count, ok := child.Val(dwarf.AttrCount).(int64); ok {
				subranges = append(subranges, subrange{length: uint64(count), known: true})
			} else if upper, ok := child.Val(dwarf.AttrUpperBound).(int64); ok {
				subranges = append(subranges, subrange{length: uint64(upper) + 1, known: true})
			} else {
				subranges = append(subranges, subrange{})
			}
		}
	}
	if len(subranges) == 0 {
		subranges = append(subranges, subrange{})
	}

	element, err := r.typeAttr(entry)
	if err != nil {
		return nil, err
	}
	// Multi-dimensional arrays nest innermost-first.
	var t *typegraph.Type
	for i := len(subranges) - 1; i >= 0; i-- {
		if subranges[i].known {
			t, err = r.prog.ArrayType(element, subranges[i].length, r.lang)
		} else {
			t, err = r.prog.IncompleteArrayType(element, r.lang)
		}
		if err != nil {
			return nil, err
		}
		element = typegraph.QualifiedType{Type: t}
	}
	return t, nil
}

func (r *Reader) functionType(er *dwarf.Reader, entry *dwarf.Entry) (*typegraph.Type, error) {
	type rawParameter struct {
		name    string
		typeOff dwarf.Offset
	}
	var params []rawParameter
	variadic := false
	if entry.Children {
		for {
			child, err := er.Next()
			if err != nil {
				return nil, fmt.Errorf("failed to read function parameters: %v", err)
			}
			if child == nil || child.Tag == 0 {
				break
			}
			switch child.Tag {
			case dwarf.TagFormalParameter:
				typeOff, ok := child.Val(dwarf.AttrType).(dwarf.Offset)
				if !ok {
					return nil, fmt.Errorf("%w: function parameter has no type", typegraph.ErrMalformed)
				}
				name, _ := child.Val(dwarf.AttrName).(string)
				params = append(params, rawParameter{name: name, typeOff: typeOff})
			case dwarf.TagUnspecifiedParameters:
				variadic = true
			default:
				er.SkipChildren()
			}
		}
	}

	returnType, err := r.typeAttr(entry)
	if err != nil {
		return nil, err
	}
	b := typegraph.NewFunctionTypeBuilder(r.prog)
	for _, p := range params {
		lt := typegraph.LazyTypeFromThunk(&offsetThunk{r: r, off: p.typeOff})
		if err := b.AddParameter(lt, p.name); err != nil {
			b.Deinit()
			return nil, err
		}
	}
	t, err := b.Create(returnType, variadic, r.lang)
	if err != nil {
		b.Deinit()
		return nil, err
	}
	return t, nil
}

func uintVal(entry *dwarf.Entry, attr dwarf.Attr) uint64 {
	if v, ok := entry.Val(attr).(int64); ok && v >= 0 {
		return uint64(v)
	}
	return 0
}
