package shader

import (
	"github.com/Carmen-Shannon/oxy-scene/engine/gfx"
)

// typeLayout holds the size and alignment of a shading-language type in bytes.
type typeLayout struct {
	size  uint64
	align uint64
}

// LayoutRule selects the block packing rules.
type LayoutRule int

const (
	// LayoutStd140 is used for uniform buffer blocks.
	LayoutStd140 LayoutRule = iota
	// LayoutStd430 is used for push-constant blocks.
	LayoutStd430
)

var std430LayoutMap = map[gfx.ValueType]typeLayout{
	gfx.ValueFloat: {4, 4},
	gfx.ValueInt:   {4, 4},
	gfx.ValueBool:  {4, 4},
	gfx.ValueVec2:  {8, 8},
	gfx.ValueIVec2: {8, 8},
	gfx.ValueVec3:  {12, 16},
	gfx.ValueIVec3: {12, 16},
	gfx.ValueVec4:  {16, 16},
	gfx.ValueIVec4: {16, 16},
	gfx.ValueMat2:  {16, 8},
	gfx.ValueMat3:  {48, 16},
	gfx.ValueMat4:  {64, 16},
}

// roundUpAlign rounds value up to the next multiple of alignment.
// Alignment must be a power of two.
//
// Parameters:
//   - alignment: the required alignment (must be a power of two)
//   - value: the value to align
//
// Returns:
//   - uint64: value rounded up to the next multiple of alignment
func roundUpAlign(alignment, value uint64) uint64 {
	if alignment == 0 {
		return value
	}
	return (value + alignment - 1) &^ (alignment - 1)
}

// resolveTypeLayout resolves a value type, optionally an array of count elements, to
// its size and alignment under the given rule. Under std140 array strides and matrix
// columns are padded to 16 bytes.
//
// Parameters:
//   - t: the element type
//   - count: the array length, 1 for non-arrays
//   - rule: the packing rule
//
// Returns:
//   - typeLayout: the resolved layout
//   - bool: false for opaque or unknown types
func resolveTypeLayout(t gfx.ValueType, count int, rule LayoutRule) (typeLayout, bool) {
	elem, ok := std430LayoutMap[t]
	if !ok {
		return typeLayout{}, false
	}
	if rule == LayoutStd140 && t == gfx.ValueMat2 {
		elem = typeLayout{32, 16}
	}
	if count <= 1 {
		return elem, true
	}
	align := elem.align
	if rule == LayoutStd140 {
		align = roundUpAlign(16, align)
	}
	stride := roundUpAlign(align, elem.size)
	return typeLayout{stride * uint64(count), align}, true
}

// blockMember is one member of a uniform or push-constant block.
type blockMember struct {
	name   string
	typ    gfx.ValueType
	count  int
	offset uint64
}

// computeBlockLayout assigns offsets to the members of a block in order and returns the block size.
//
// Parameters:
//   - members: the block members; offsets are written in place
//   - rule: the packing rule
//
// Returns:
//   - uint64: the total block size rounded to the block alignment
//   - bool: false if a member type has no layout
func computeBlockLayout(members []blockMember, rule LayoutRule) (uint64, bool) {
	var offset, maxAlign uint64
	for i := range members {
		l, ok := resolveTypeLayout(members[i].typ, members[i].count, rule)
		if !ok {
			return 0, false
		}
		offset = roundUpAlign(l.align, offset)
		members[i].offset = offset
		offset += l.size
		maxAlign = max(maxAlign, l.align)
	}
	if rule == LayoutStd140 {
		maxAlign = roundUpAlign(16, maxAlign)
	}
	return roundUpAlign(maxAlign, offset), true
}
