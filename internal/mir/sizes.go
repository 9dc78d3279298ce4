package mir

// structSizes computes the stack-VM cell size of every structure in structs,
// recursing through nested by-value structure members and guarding against
// (invalid) recursive cycles the way resolveStructSize used to per-assembler.
// Shared between the checker and the assembler so both layers agree on
// structure width when deciding whether a type has size 1 (spec §4.3's
// arithmetic/index operand rule) or laying out member offsets.
func structSizes(structs map[string]Structure) map[string]int {
	sizes := make(map[string]int, len(structs))
	for name := range structs {
		resolveStructSize(structs, sizes, name, make(map[string]bool))
	}
	return sizes
}

func resolveStructSize(structs map[string]Structure, sizes map[string]int, name string, visiting map[string]bool) int {
	if size, ok := sizes[name]; ok {
		return size
	}
	if visiting[name] {
		return 0
	}
	visiting[name] = true
	defer delete(visiting, name)

	s := structs[name]
	total := 0
	for _, m := range s.Members {
		if m.Type.IsStructure() && m.Type.PtrLevel == 0 {
			total += resolveStructSize(structs, sizes, m.Type.Name, visiting)
		} else {
			total += m.Type.SizeOf(sizes)
		}
	}
	sizes[name] = total
	return total
}
