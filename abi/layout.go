package abi

import "math"

// pointerSize is the width of a linear-memory address in the component
// model's Canonical ABI, which always addresses guest memory with 32-bit
// offsets regardless of the host's native pointer width.
const pointerSize = 4

// Layout is the result of the Layout Calculator (spec.md §4.1): the
// canonical size and alignment of a schema type, and the number of cells it
// occupies in a flattened parameter vector.
type Layout struct {
	Size     uint32
	Align    uint32
	FlatArgs int
}

// maxDiscriminants is the largest case/name count the discriminant-width
// rule in spec.md §4.1 can represent (N > 2^32 is a SchemaTooLarge error).
const maxDiscriminants = uint64(1) << 32

// discriminantWidth returns the byte width of the discriminant for a type
// former with n cases/names.
func discriminantWidth(n int) (uint32, error) {
	if uint64(n) > maxDiscriminants {
		return 0, newError(KindSchemaTooLarge, "%d cases exceeds the maximum of 2^32", n)
	}
	switch {
	case n <= 255:
		return 1, nil
	case n <= 65535:
		return 2, nil
	default:
		return 4, nil
	}
}

// flagsWidth returns the byte width of the packed bitmap for n flag names.
func flagsWidth(n int) (uint32, error) {
	switch {
	case n <= 8:
		return 1, nil
	case n <= 16:
		return 2, nil
	case n <= 32:
		return 4, nil
	default:
		return 0, newError(KindUnsupportedSchema, "flags with %d names exceeds the 32-flag cap", n)
	}
}

// alignUp rounds offset up to the next multiple of align (align must be a
// power of two, or 1).
func alignUp(offset, align uint32) (uint32, error) {
	if align <= 1 {
		return offset, nil
	}
	sum := uint64(offset) + uint64(align) - 1
	if sum > math.MaxUint32 {
		return 0, newError(KindSchemaTooLarge, "offset %d exceeds the representable size", sum)
	}
	aligned := uint32(sum) &^ (align - 1)
	return aligned, nil
}

func addChecked(a, b uint32) (uint32, error) {
	sum := uint64(a) + uint64(b)
	if sum > math.MaxUint32 {
		return 0, newError(KindSchemaTooLarge, "size %d exceeds the representable size", sum)
	}
	return uint32(sum), nil
}

func mulChecked(a uint32, b int) (uint32, error) {
	product := uint64(a) * uint64(b)
	if product > math.MaxUint32 {
		return 0, newError(KindSchemaTooLarge, "size %d exceeds the representable size", product)
	}
	return uint32(product), nil
}

// LayoutOf computes the canonical size, alignment, and flattened-argument
// count for t. It is a deterministic, pure function of t.
func LayoutOf(t Type) (Layout, error) {
	switch t.Kind {
	case Bool, S8, U8:
		return Layout{Size: 1, Align: 1, FlatArgs: 1}, nil
	case S16, U16:
		return Layout{Size: 2, Align: 2, FlatArgs: 1}, nil
	case S32, U32, F32, Char, Own, Borrow:
		return Layout{Size: 4, Align: 4, FlatArgs: 1}, nil
	case S64, U64, F64:
		return Layout{Size: 8, Align: 8, FlatArgs: 1}, nil
	case String, List:
		return Layout{Size: 2 * pointerSize, Align: pointerSize, FlatArgs: 2}, nil
	case Record:
		return recordLayout(t.Fields)
	case Tuple:
		fields := make([]Field, len(t.Elems))
		for i, e := range t.Elems {
			fields[i] = Field{Type: e}
		}
		return recordLayout(fields)
	case Variant:
		return variantLayout(t.Cases)
	case Enum:
		w, err := discriminantWidth(len(t.Names))
		if err != nil {
			return Layout{}, err
		}
		return Layout{Size: w, Align: w, FlatArgs: 1}, nil
	case Option:
		if t.Elem == nil {
			return Layout{}, newError(KindUnsupportedSchema, "option has no inner type")
		}
		return variantLayout(variantCasesOf(t))
	case Result:
		return variantLayout(variantCasesOf(t))
	case Flags:
		w, err := flagsWidth(len(t.Names))
		if err != nil {
			return Layout{}, err
		}
		return Layout{Size: w, Align: w, FlatArgs: 1}, nil
	default:
		return Layout{}, newError(KindUnsupportedSchema, "unknown type kind %s", t.Kind)
	}
}

func recordLayout(fields []Field) (Layout, error) {
	var offset, align uint32 = 0, 1
	flat := 0
	for _, f := range fields {
		fl, err := LayoutOf(f.Type)
		if err != nil {
			return Layout{}, Wrap(err, "failed to lay out record field %q", f.Name)
		}
		offset, err = alignUp(offset, fl.Align)
		if err != nil {
			return Layout{}, err
		}
		offset, err = addChecked(offset, fl.Size)
		if err != nil {
			return Layout{}, err
		}
		if fl.Align > align {
			align = fl.Align
		}
		flat += fl.FlatArgs
	}
	size, err := alignUp(offset, align)
	if err != nil {
		return Layout{}, err
	}
	return Layout{Size: size, Align: align, FlatArgs: flat}, nil
}

// variantCasesOf returns the uniform case list for any of the three
// variant-shaped type formers, so layout/lower/lift share one notion of
// "the cases of a variant" regardless of which surface syntax produced it.
func variantCasesOf(t Type) []Case {
	switch t.Kind {
	case Variant:
		return t.Cases
	case Option:
		return []Case{{Name: "none"}, {Name: "some", Payload: t.Elem}}
	case Result:
		return []Case{{Name: "ok", Payload: t.Ok}, {Name: "err", Payload: t.Err}}
	default:
		return nil
	}
}

// variantLayout computes the layout shared by Variant, Option, and Result:
// a discriminant followed by a payload area sized/aligned to the largest
// case.
func variantLayout(cases []Case) (Layout, error) {
	discWidth, err := discriminantWidth(len(cases))
	if err != nil {
		return Layout{}, err
	}
	var maxCaseSize, maxCaseAlign uint32 = 0, 1
	maxCaseFlat := 0
	for _, c := range cases {
		if c.Payload == nil {
			continue
		}
		fl, err := LayoutOf(*c.Payload)
		if err != nil {
			return Layout{}, Wrap(err, "failed to lay out variant case %q", c.Name)
		}
		if fl.Size > maxCaseSize {
			maxCaseSize = fl.Size
		}
		if fl.Align > maxCaseAlign {
			maxCaseAlign = fl.Align
		}
		if fl.FlatArgs > maxCaseFlat {
			maxCaseFlat = fl.FlatArgs
		}
	}
	align := discWidth
	if maxCaseAlign > align {
		align = maxCaseAlign
	}
	payloadOffset, err := alignUp(discWidth, maxCaseAlign)
	if err != nil {
		return Layout{}, err
	}
	total, err := addChecked(payloadOffset, maxCaseSize)
	if err != nil {
		return Layout{}, err
	}
	size, err := alignUp(total, align)
	if err != nil {
		return Layout{}, err
	}
	return Layout{Size: size, Align: align, FlatArgs: 1 + maxCaseFlat}, nil
}

// maxCaseAlignOf returns the alignment shared by every case of cases (the
// "max_case_alignment" spec.md §4.1/§4.2 refers to), without recomputing the
// whole layout.
func maxCaseAlignOf(cases []Case) (uint32, error) {
	var align uint32 = 1
	for _, c := range cases {
		if c.Payload == nil {
			continue
		}
		fl, err := LayoutOf(*c.Payload)
		if err != nil {
			return 0, err
		}
		if fl.Align > align {
			align = fl.Align
		}
	}
	return align, nil
}
