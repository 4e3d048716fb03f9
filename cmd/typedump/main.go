// typedump builds the type graph of an ELF binary's DWARF debug info and
// dumps a named type, optionally resolving one of its members.
//
//	typedump -type task_struct [-member pid] ./vmlinux
package main

import (
	"debug/elf"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/blacktop/go-dwarf"

	typegraph "github.com/appsworld/go-typegraph"
	"github.com/appsworld/go-typegraph/pkg/dwarfinfo"
	"github.com/appsworld/go-typegraph/types"
)

var (
	typeName   = flag.String("type", "", "name of the struct/union type to dump")
	memberName = flag.String("member", "", "member to resolve within -type")
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 || *typeName == "" {
		fmt.Fprintf(os.Stderr, "usage: typedump -type <name> [-member <name>] <elf-file>\n")
		os.Exit(2)
	}

	d, err := openDWARF(flag.Arg(0))
	if err != nil {
		log.Fatalf("failed to open DWARF data: %v", err)
	}

	prog := typegraph.NewProgram(typegraph.C)
	reader := dwarfinfo.New(prog, d)
	prog.AddTypeFinder(reader.FindType)

	qt, err := prog.FindType(types.KindStruct, *typeName)
	if err != nil {
		qt, err = prog.FindType(types.KindUnion, *typeName)
	}
	if err != nil {
		log.Fatalf("failed to find type %q: %v", *typeName, err)
	}

	if *memberName != "" {
		mv, err := prog.FindMember(qt.Type, *memberName)
		if err != nil {
			log.Fatalf("failed to find member %q: %v", *memberName, err)
		}
		mqt, err := mv.Type.Evaluate()
		if err != nil {
			log.Fatalf("failed to evaluate member type: %v", err)
		}
		fmt.Printf("%s.%s: %s (bit offset %d", qt.Type, *memberName, describe(mqt), mv.BitOffset)
		if mv.BitFieldSize != 0 {
			fmt.Printf(", bit field size %d", mv.BitFieldSize)
		}
		fmt.Println(")")
		return
	}

	fmt.Println(qt.Type)
	members := qt.Type.Members()
	for i := range members {
		m := &members[i]
		mqt, err := m.Type.Evaluate()
		if err != nil {
			log.Fatalf("failed to evaluate type of member %q: %v", m.Name, err)
		}
		name := m.Name
		if name == "" {
			name = "<anonymous>"
		}
		fmt.Printf("  +%-6d %s %s\n", m.BitOffset/8, describe(mqt), name)
	}
}

func describe(qt typegraph.QualifiedType) string {
	if qt.Type == nil {
		return "<none>"
	}
	if qt.Qualifiers == types.QualifierNone {
		return qt.Type.String()
	}
	return fmt.Sprintf("%s %s", qt.Qualifiers, qt.Type)
}

// openDWARF lifts the .debug_* sections out of an ELF file, the way the
// DWARF segment of a Mach-O would be lifted, and hands them to go-dwarf.
func openDWARF(path string) (*dwarf.Data, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %v", path, err)
	}
	defer f.Close()

	section := func(name string) []byte {
		s := f.Section(".debug_" + name)
		if s == nil {
			return nil
		}
		data, err := s.Data()
		if err != nil {
			return nil
		}
		return data
	}

	abbrev := section("abbrev")
	info := section("info")
	if abbrev == nil || info == nil {
		return nil, fmt.Errorf("%s has no DWARF debug info", path)
	}
	return dwarf.New(abbrev, nil, nil, info, section("line"), nil, section("ranges"), section("str"))
}
