package loader

import (
	"encoding/binary"
	"fmt"

	"github.com/Carmen-Shannon/oxy-scene/engine/container"
	"github.com/Carmen-Shannon/oxy-scene/engine/gfx"
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/chewxy/math32"
	"github.com/cogentcore/webgpu/wgpu"
)

func (st *gltfImport) loadBuffers() error {
	sec := st.section(sectionBuffers)
	st.data.Buffers = make([]model.Buffer, sec.ChildCount())
	for i := range st.data.Buffers {
		id, n := sec.Name(i), sec.Child(i)
		var data []byte
		if id == binaryBufferID {
			if st.resolver.Binary == nil {
				return fmt.Errorf("buffer %q: %w", id, container.ErrNoBinaryBlob)
			}
			data = st.resolver.Binary
		} else {
			var err error
			if data, _, err = st.resolver.Resolve(n.ChildByName("uri").String("")); err != nil {
				return fmt.Errorf("buffer %q: %w", id, err)
			}
		}
		length := n.ChildByName("byteLength").Int(len(data))
		if len(data) < length {
			return fmt.Errorf("buffer %q has %d of %d bytes: %w", id, len(data), length, ErrBufferSize)
		}
		st.data.Buffers[i] = model.Buffer{Name: id, ByteLength: length, Data: data[:length]}
	}
	st.index(sectionBuffers, ids(sec))
	return nil
}

func (st *gltfImport) loadBufferViews() error {
	sec := st.section(sectionBufferViews)
	st.data.BufferViews = make([]model.BufferView, sec.ChildCount())
	for i := range st.data.BufferViews {
		id, n := sec.Name(i), sec.Child(i)
		referrer := "bufferView " + id
		v := model.BufferView{
			Name:       id,
			Buffer:     st.ref(sectionBuffers, n.ChildByName("buffer"), referrer),
			ByteOffset: n.ChildByName("byteOffset").Int(0),
			ByteLength: n.ChildByName("byteLength").Int(0),
		}
		switch n.ChildByName("target").Int(0) {
		case glArrayBuffer:
			v.Target = wgpu.BufferUsageVertex
		case glElementArrayBuffer:
			v.Target = wgpu.BufferUsageIndex
		}
		if v.Buffer != model.None {
			if buf := st.data.Buffers[v.Buffer]; v.ByteOffset < 0 || v.ByteOffset+v.ByteLength > buf.ByteLength {
				return fmt.Errorf("bufferView %q spans [%d, %d) of %d bytes: %w", id, v.ByteOffset, v.ByteOffset+v.ByteLength, buf.ByteLength, ErrViewRange)
			}
		}
		st.data.BufferViews[i] = v
	}
	st.index(sectionBufferViews, ids(sec))
	return nil
}

func (st *gltfImport) loadAccessors() error {
	sec := st.section(sectionAccessors)
	st.data.Accessors = make([]model.Accessor, sec.ChildCount())
	for i := range st.data.Accessors {
		id, n := sec.Name(i), sec.Child(i)
		a := model.Accessor{
			Name:          id,
			BufferView:    st.ref(sectionBufferViews, n.ChildByName("bufferView"), "accessor "+id),
			ByteOffset:    n.ChildByName("byteOffset").Int(0),
			ByteStride:    n.ChildByName("byteStride").Int(0),
			ComponentType: n.ChildByName("componentType").Int(0),
			Type:          model.ParseAccessorType(n.ChildByName("type").String("")),
			Count:         n.ChildByName("count").Int(0),
			Min:           floats(n.ChildByName("min")),
			Max:           floats(n.ChildByName("max")),
		}
		if a.ElementSize() == 0 {
			return fmt.Errorf("accessor %q component type %d type %d: %w", id, a.ComponentType, a.Type, ErrAccessorType)
		}
		if a.BufferView != model.None && a.Count > 0 {
			end := a.ByteOffset + (a.Count-1)*a.Stride() + a.ElementSize()
			if view := st.data.BufferViews[a.BufferView]; a.ByteOffset < 0 || end > view.ByteLength {
				return fmt.Errorf("accessor %q ends at %d of %d bytes: %w", id, end, view.ByteLength, ErrAccessorRange)
			}
		}
		st.data.Accessors[i] = a
	}
	st.index(sectionAccessors, ids(sec))
	return nil
}

// viewBytes returns the bytes a buffer view spans.
func (st *gltfImport) viewBytes(v int) []byte {
	view := &st.data.BufferViews[v]
	if view.Buffer == model.None {
		return nil
	}
	return st.data.Buffers[view.Buffer].Data[view.ByteOffset : view.ByteOffset+view.ByteLength]
}

// viewBuffer returns the GPU buffer of a buffer view, creating it on first use. Views
// without a target take usage.
func (st *gltfImport) viewBuffer(v int, usage wgpu.BufferUsage) (gfx.Buffer, error) {
	view := &st.data.BufferViews[v]
	if view.GPU != 0 {
		return view.GPU, nil
	}
	if view.Target != 0 {
		usage = view.Target
	}
	buf, err := st.backend.CreateBuffer(gfx.BufferDesc{
		Label: view.Name,
		Usage: usage,
		Size:  view.ByteLength,
		Data:  st.viewBytes(v),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create buffer for bufferView %q: %w", view.Name, err)
	}
	view.GPU = buf
	return buf, nil
}

// readFloats reads a float accessor of the given type as a flat slice.
func (st *gltfImport) readFloats(acc int, want model.AccessorType) ([]float32, error) {
	a := &st.data.Accessors[acc]
	if a.ComponentType != model.ComponentFloat || a.Type != want {
		return nil, fmt.Errorf("accessor %q: want float type %d: %w", a.Name, want, ErrAccessorType)
	}
	data := st.viewBytes(a.BufferView)
	n := a.Type.Components()
	out := make([]float32, a.Count*n)
	for i := range a.Count {
		base := a.ByteOffset + i*a.Stride()
		for c := range n {
			out[i*n+c] = math32.Float32frombits(binary.LittleEndian.Uint32(data[base+c*4:]))
		}
	}
	return out, nil
}

// widenIndices copies an 8-bit index accessor into a new 16-bit buffer and view and
// returns an accessor reading it.
func (st *gltfImport) widenIndices(acc int) int {
	a := st.data.Accessors[acc]
	data := st.viewBytes(a.BufferView)
	wide := make([]byte, a.Count*2)
	for i := range a.Count {
		binary.LittleEndian.PutUint16(wide[i*2:], uint16(data[a.ByteOffset+i*a.Stride()]))
	}

	name := a.Name + "_u16"
	st.data.Buffers = append(st.data.Buffers, model.Buffer{Name: name, ByteLength: len(wide), Data: wide})
	st.data.BufferViews = append(st.data.BufferViews, model.BufferView{
		Name:       name,
		Buffer:     len(st.data.Buffers) - 1,
		ByteLength: len(wide),
		Target:     wgpu.BufferUsageIndex,
	})
	st.data.Accessors = append(st.data.Accessors, model.Accessor{
		Name:          name,
		BufferView:    len(st.data.BufferViews) - 1,
		ComponentType: model.ComponentUnsignedShort,
		Type:          model.AccessorScalar,
		Count:         a.Count,
	})
	return len(st.data.Accessors) - 1
}
