package loader

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/document"
	"github.com/Carmen-Shannon/oxy-scene/engine/gfx"
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

func (st *gltfImport) loadMeshes() error {
	sec := st.section(sectionMeshes)
	st.data.Models = make([]model.Model, sec.ChildCount())
	for i := range st.data.Models {
		id, n := sec.Name(i), sec.Child(i)
		mdl := model.Model{Name: id, Bounds: common.EmptyAABB()}
		prims := n.ChildByName("primitives")
		for j := range prims.ChildCount() {
			surf, ok, err := st.surface(id, j, prims.Child(j))
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			mdl.Bounds.Extend(surf.Bounds)
			mdl.Surfaces = append(mdl.Surfaces, surf)
		}
		st.data.Models[i] = mdl
	}
	st.index(sectionMeshes, ids(sec))
	return nil
}

// surface loads one primitive. It reports false when a reference did not resolve.
func (st *gltfImport) surface(mesh string, j int, n document.Node) (model.Surface, bool, error) {
	referrer := fmt.Sprintf("mesh %s primitive %d", mesh, j)
	mat := st.ref(sectionMaterials, n.ChildByName("material"), referrer)

	var attrs []model.GeometryAttribute
	an := n.ChildByName("attributes")
	for k := range an.ChildCount() {
		acc := st.ref(sectionAccessors, an.Child(k), referrer)
		sem := model.ParseAttributeSemantic(an.Name(k))
		if sem == model.AttributeUnknown {
			common.Logger().Debug("skipping vertex attribute outside the fixed set", "mesh", mesh, "attribute", an.Name(k))
			continue
		}
		attrs = append(attrs, model.GeometryAttribute{Semantic: sem, Accessor: acc})
	}
	indices := st.ref(sectionAccessors, n.ChildByName("indices"), referrer)
	if len(st.linkErrs) > 0 || mat == model.None || st.data.Materials[mat].Technique == model.None {
		return model.Surface{}, false, nil
	}
	slices.SortFunc(attrs, func(a, b model.GeometryAttribute) int { return cmp.Compare(a.Semantic, b.Semantic) })

	mode := n.ChildByName("mode").Int(glTriangles)
	topology, err := pipeline.TopologyFromGL(mode)
	if err != nil {
		return model.Surface{}, false, fmt.Errorf("%s: %w", referrer, err)
	}
	geo, err := st.geometry(referrer, attrs, indices, mode, topology)
	if err != nil {
		return model.Surface{}, false, err
	}

	tech := &st.data.Techniques[st.data.Materials[mat].Technique]
	pipe, err := st.backend.CreatePipeline(gfx.PipelineDesc{
		Label:    referrer,
		Program:  tech.GPU,
		Geometry: st.data.Geometries[geo].GPU,
		State:    tech.State.WithTopology(topology),
	})
	if err != nil {
		return model.Surface{}, false, fmt.Errorf("failed to create pipeline for %s: %w", referrer, err)
	}

	surf := model.Surface{Material: mat, Geometry: geo, Pipeline: pipe, Bounds: common.EmptyAABB()}
	if pos := positionAccessor(attrs); pos != model.None {
		surf.Bounds = st.data.Accessors[pos].Bounds()
	}
	return surf, true, nil
}

func positionAccessor(attrs []model.GeometryAttribute) int {
	for _, a := range attrs {
		if a.Semantic == model.AttributePosition {
			return a.Accessor
		}
	}
	return model.None
}

// geometryKey identifies a geometry by its accessors and primitive mode.
func geometryKey(attrs []model.GeometryAttribute, indices, mode int) string {
	var sb strings.Builder
	for _, a := range attrs {
		fmt.Fprintf(&sb, "%s=%d;", a.Semantic, a.Accessor)
	}
	fmt.Fprintf(&sb, "indices=%d;mode=%d", indices, mode)
	return sb.String()
}

// geometry returns the geometry reading the given accessors, creating it on first use.
func (st *gltfImport) geometry(referrer string, attrs []model.GeometryAttribute, indices, mode int, topology wgpu.PrimitiveTopology) (int, error) {
	key := geometryKey(attrs, indices, mode)
	if g, ok := st.geometries[key]; ok {
		return g, nil
	}
	pos := positionAccessor(attrs)
	if pos == model.None {
		return 0, fmt.Errorf("%s: %w", referrer, ErrMissingPosition)
	}

	geo := model.Geometry{Key: key, Attributes: attrs, Indices: model.None, VertexCount: st.data.Accessors[pos].Count}
	desc := gfx.GeometryDesc{Label: key, VertexCount: geo.VertexCount, Topology: topology}
	for _, a := range attrs {
		acc := &st.data.Accessors[a.Accessor]
		format := model.VertexFormat(acc.ComponentType, acc.Type)
		if format == wgpu.VertexFormatUndefined {
			return 0, fmt.Errorf("%s attribute %s: %w", referrer, a.Semantic, ErrUnsupportedFormat)
		}
		buf, err := st.viewBuffer(acc.BufferView, wgpu.BufferUsageVertex)
		if err != nil {
			return 0, err
		}
		loc, _ := a.Semantic.Location()
		desc.Attributes = append(desc.Attributes, gfx.GeometryAttribute{
			Location: loc,
			Format:   format,
			Buffer:   buf,
			Offset:   uint64(acc.ByteOffset),
			Stride:   uint64(acc.Stride()),
		})
	}

	if indices != model.None {
		idx := indices
		if st.data.Accessors[idx].ComponentType == model.ComponentUnsignedByte {
			idx = st.widened(idx)
		}
		acc := &st.data.Accessors[idx]
		switch {
		case acc.Type != model.AccessorScalar:
			return 0, fmt.Errorf("%s indices: %w", referrer, ErrUnsupportedFormat)
		case acc.ComponentType == model.ComponentUnsignedShort:
			desc.IndexFormat = wgpu.IndexFormatUint16
		case acc.ComponentType == model.ComponentUnsignedInt:
			desc.IndexFormat = wgpu.IndexFormatUint32
		default:
			return 0, fmt.Errorf("%s indices: %w", referrer, ErrUnsupportedFormat)
		}
		buf, err := st.viewBuffer(acc.BufferView, wgpu.BufferUsageIndex)
		if err != nil {
			return 0, err
		}
		desc.IndexBuffer, desc.IndexOffset, desc.IndexCount = buf, uint64(acc.ByteOffset), acc.Count
		geo.Indices, geo.IndexCount = idx, acc.Count
	}

	gpu, err := st.backend.CreateGeometry(desc)
	if err != nil {
		return 0, fmt.Errorf("failed to create geometry for %s: %w", referrer, err)
	}
	geo.GPU = gpu
	st.data.Geometries = append(st.data.Geometries, geo)
	st.geometries[key] = len(st.data.Geometries) - 1
	return len(st.data.Geometries) - 1, nil
}

// widened returns the 16-bit copy of an 8-bit index accessor, creating it once.
func (st *gltfImport) widened(acc int) int {
	if w, ok := st.wide[acc]; ok {
		return w
	}
	w := st.widenIndices(acc)
	st.wide[acc] = w
	common.Logger().Debug("widened 8-bit indices", "accessor", st.data.Accessors[acc].Name)
	return w
}
