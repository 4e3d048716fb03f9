package typegraph

import "fmt"

// MemberValue is the type, bit offset, and bit-field size of a compound type
// member found by Program.FindMember. Type points into the member list of
// the compound type that declares the member, so evaluating it caches the
// result there. For a member reached through anonymous nesting, BitOffset is
// the member's effective offset within the outermost type.
type MemberValue struct {
	Type         *LazyType
	BitOffset    uint64
	BitFieldSize uint64
}

type memberKey struct {
	typ  *Type
	name string
}

// FindMember finds the named member of a compound type.
//
// Members of anonymous members are matched as if they were members of the
// enclosing type, recursively, with their bit offsets adjusted by each
// enclosing anonymous member's offset. Typedefs of t are stripped first.
//
// The first lookup flattens and caches every member of the type; later
// lookups are single hash probes. When flattening produces duplicate names
// (a named member and a nested anonymous one, or two anonymous branches),
// the first one inserted wins: direct members before nested ones, earlier
// anonymous branches before later ones. Later duplicates are skipped, not
// rejected, since C unions legitimately repeat leaf names across branches.
func (p *Program) FindMember(t *Type, memberName string) (*MemberValue, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil type", ErrMalformed)
	}
	if t.prog != p {
		return nil, fmt.Errorf("type %s is from a different program", t)
	}
	t = t.UnderlyingType()
	if !t.kind.IsCompound() {
		return nil, fmt.Errorf("%s is not a struct, union, or class", t)
	}
	if !p.membersCached[t] {
		visiting := make(map[*Type]bool)
		if err := p.cacheMembers(t, t, 0, visiting); err != nil {
			return nil, err
		}
		p.membersCached[t] = true
	}
	v, ok := p.memberCache[memberKey{typ: t, name: memberName}]
	if !ok {
		return nil, fmt.Errorf("%s has no member %q: %w", t, memberName, ErrNotFound)
	}
	return v, nil
}

// cacheMembers flattens the members of typ into the member cache of top,
// offsetting each by bitOffset. visiting holds the compound types on the
// current flattening path so that a type appearing as its own anonymous
// member (malformed, but representable) fails instead of recursing forever.
func (p *Program) cacheMembers(top, typ *Type, bitOffset uint64, visiting map[*Type]bool) error {
	if visiting[typ] {
		return fmt.Errorf("%w: %s is its own anonymous member", ErrMalformed, typ)
	}
	visiting[typ] = true
	defer delete(visiting, typ)

	// Two passes: every named member of this level is inserted before any
	// of its anonymous members is descended into, so a direct member
	// shadows a nested one of the same name regardless of declaration
	// order.
	for i := range typ.members {
		m := &typ.members[i]
		if m.Name == "" {
			continue
		}
		key := memberKey{typ: top, name: m.Name}
		if _, ok := p.memberCache[key]; ok {
			continue
		}
		p.memberCache[key] = &MemberValue{
			Type:         &m.Type,
			BitOffset:    bitOffset + m.BitOffset,
			BitFieldSize: m.BitFieldSize,
		}
	}
	for i := range typ.members {
		m := &typ.members[i]
		if m.Name != "" {
			continue
		}
		qt, err := m.Type.Evaluate()
		if err != nil {
			return err
		}
		if qt.Type == nil {
			continue
		}
		nested := qt.Type.UnderlyingType()
		if nested.kind.IsCompound() {
			if err := p.cacheMembers(top, nested, bitOffset+m.BitOffset, visiting); err != nil {
				return err
			}
		}
	}
	return nil
}
