package loader

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/document"
	"github.com/Carmen-Shannon/oxy-scene/engine/gfx"
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/h2non/filetype"
)

// --- Images, samplers & textures ---

func (st *gltfImport) loadImages() error {
	sec := st.section(sectionImages)
	st.data.Images = make([]model.Image, sec.ChildCount())
	for i := range st.data.Images {
		id, n := sec.Name(i), sec.Child(i)
		referrer := "image " + id
		img := model.Image{Name: id}

		versions := n.ChildByName("extensions").ChildByName(extImageVersions).ChildByName("versions")
		for j := range versions.ChildCount() {
			vn := versions.Child(j)
			internal := vn.ChildByName("glInternalFormat").Int(0)
			format, ok := compressedFormats[internal]
			if !ok {
				common.Logger().Warn("skipping image version with unknown format", "image", id, "glInternalFormat", internal)
				continue
			}
			v := model.ImageVersion{
				Container: vn.ChildByName("container").String("ktx"),
				Format:    format,
				URI:       vn.ChildByName("uri").String(""),
			}
			if ext := vn.ChildByName("extensions").ChildByName(extBinary); ext.IsObject() {
				if view := st.ref(sectionBufferViews, ext.ChildByName("bufferView"), referrer); view != model.None {
					v.Data = st.viewBytes(view)
				}
			}
			img.Versions = append(img.Versions, v)
		}

		data, _, err := st.uri(n, referrer)
		if err != nil {
			return err
		}
		if data == nil {
			if len(st.linkErrs) > 0 {
				continue
			}
			return fmt.Errorf("image %q has no uncompressed default: %w", id, ErrUnknownImage)
		}
		kind, err := filetype.Match(data)
		if err != nil || kind == filetype.Unknown || kind.MIME.Type != "image" {
			return fmt.Errorf("image %q: %w", id, ErrUnknownImage)
		}
		img.Versions = append(img.Versions, model.ImageVersion{
			Container: kind.Extension,
			Format:    wgpu.TextureFormatRGBA8Unorm,
			URI:       n.ChildByName("uri").String(""),
			Data:      data,
		})
		st.data.Images[i] = img
	}
	st.index(sectionImages, ids(sec))
	return nil
}

func (st *gltfImport) loadSamplers() error {
	sec := st.section(sectionSamplers)
	st.data.Samplers = make([]model.Sampler, sec.ChildCount())
	for i := range st.data.Samplers {
		id, n := sec.Name(i), sec.Child(i)
		data := common.DefaultSamplerStagingData()

		var err error
		if data.MagFilter, _, err = filterFromGL(n.ChildByName("magFilter").Int(glLinear)); err != nil {
			return fmt.Errorf("sampler %q magFilter: %w", id, err)
		}
		if data.MinFilter, data.MipmapFilter, err = filterFromGL(n.ChildByName("minFilter").Int(glNearestMipmapLinear)); err != nil {
			return fmt.Errorf("sampler %q minFilter: %w", id, err)
		}
		if data.AddressModeU, err = wrapFromGL(n.ChildByName("wrapS").Int(glRepeat)); err != nil {
			return fmt.Errorf("sampler %q wrapS: %w", id, err)
		}
		if data.AddressModeV, err = wrapFromGL(n.ChildByName("wrapT").Int(glRepeat)); err != nil {
			return fmt.Errorf("sampler %q wrapT: %w", id, err)
		}
		data.AddressModeW = data.AddressModeV
		st.data.Samplers[i] = model.Sampler{Name: id, Data: data}
	}
	st.index(sectionSamplers, ids(sec))
	return nil
}

func filterFromGL(f int) (wgpu.FilterMode, wgpu.MipmapFilterMode, error) {
	switch f {
	case glNearest, glNearestMipmapNearest:
		return wgpu.FilterModeNearest, wgpu.MipmapFilterModeNearest, nil
	case glLinear, glLinearMipmapNearest:
		return wgpu.FilterModeLinear, wgpu.MipmapFilterModeNearest, nil
	case glNearestMipmapLinear:
		return wgpu.FilterModeNearest, wgpu.MipmapFilterModeLinear, nil
	case glLinearMipmapLinear:
		return wgpu.FilterModeLinear, wgpu.MipmapFilterModeLinear, nil
	}
	return wgpu.FilterModeNearest, wgpu.MipmapFilterModeNearest, fmt.Errorf("filter %d: %w", f, pipeline.ErrUnsupportedState)
}

func wrapFromGL(w int) (wgpu.AddressMode, error) {
	switch w {
	case glRepeat:
		return wgpu.AddressModeRepeat, nil
	case glClampToEdge:
		return wgpu.AddressModeClampToEdge, nil
	case glMirroredRepeat:
		return wgpu.AddressModeMirrorRepeat, nil
	}
	return wgpu.AddressModeRepeat, fmt.Errorf("wrap mode %d: %w", w, pipeline.ErrUnsupportedState)
}

func (st *gltfImport) loadTextures() error {
	sec := st.section(sectionTextures)
	st.data.Textures = make([]model.Texture, sec.ChildCount())
	for i := range st.data.Textures {
		id, n := sec.Name(i), sec.Child(i)
		referrer := "texture " + id
		tex := model.Texture{
			Name:    id,
			Image:   st.ref(sectionImages, n.ChildByName("source"), referrer),
			Sampler: st.ref(sectionSamplers, n.ChildByName("sampler"), referrer),
			Version: model.None,
		}
		if tex.Image != model.None {
			if err := st.uploadTexture(&tex); err != nil {
				return err
			}
		}
		st.data.Textures[i] = tex
	}
	st.index(sectionTextures, ids(sec))
	return nil
}

// chooseVersion returns the first compressed version the backend samples from, or the
// uncompressed default.
func (st *gltfImport) chooseVersion(img *model.Image) int {
	last := len(img.Versions) - 1
	for i, v := range img.Versions[:last] {
		if st.caps.SupportsFormat(v.Format) {
			return i
		}
	}
	if last > 0 {
		common.Logger().Warn("no supported compressed image version, using uncompressed default", "image", img.Name)
	}
	return last
}

func (st *gltfImport) uploadTexture(tex *model.Texture) error {
	img := &st.data.Images[tex.Image]
	tex.Version = st.chooseVersion(img)
	v := img.Versions[tex.Version]

	desc := gfx.TextureDesc{Label: tex.Name, Format: v.Format, Sampler: common.DefaultSamplerStagingData()}
	if tex.Sampler != model.None {
		desc.Sampler = st.data.Samplers[tex.Sampler].Data
	}
	if tex.Version == len(img.Versions)-1 {
		enc := common.EncodedImage{Name: img.Name, Data: v.Data, MimeType: filetype.GetType(v.Container).MIME.Value}
		pixels, err := enc.Decode()
		if err != nil {
			return fmt.Errorf("texture %q: %w", tex.Name, err)
		}
		desc.Container = "raw"
		desc.Width, desc.Height, desc.Data = pixels.Width, pixels.Height, pixels.Pixels
	} else {
		data := v.Data
		if data == nil {
			var err error
			if data, _, err = st.resolver.Resolve(v.URI); err != nil {
				return fmt.Errorf("texture %q: %w", tex.Name, err)
			}
		}
		desc.Container, desc.Data = v.Container, data
	}

	gpu, err := st.backend.CreateTexture(desc)
	if err != nil {
		return fmt.Errorf("failed to create texture %q: %w", tex.Name, err)
	}
	tex.GPU = gpu
	return nil
}

// --- Shaders & programs ---

func (st *gltfImport) loadShaders() error {
	sec := st.section(sectionShaders)
	st.data.Shaders = make([]model.Shader, sec.ChildCount())
	for i := range st.data.Shaders {
		id, n := sec.Name(i), sec.Child(i)
		referrer := "shader " + id
		s := model.Shader{Name: id}
		switch t := n.ChildByName("type").Int(0); t {
		case glVertexShader:
			s.Stage = model.StageVertex
		case glFragmentShader:
			s.Stage = model.StageFragment
		default:
			return fmt.Errorf("shader %q type %d: %w", id, t, ErrShaderType)
		}

		src, _, err := st.uri(n, referrer)
		if err != nil {
			return err
		}
		s.Source = string(src)

		versions := n.ChildByName("extensions").ChildByName(extShaderVersions).ChildByName("versions")
		for j := range versions.ChildCount() {
			vn := versions.Child(j)
			api, ok := shaderAPIs[vn.ChildByName("api").String("")]
			if !ok {
				continue
			}
			src, _, err := st.uri(vn, referrer)
			if err != nil {
				return err
			}
			s.Versions = append(s.Versions, model.ShaderVersion{API: api, Version: vn.ChildByName("version").Int(0), Source: string(src)})
		}
		st.data.Shaders[i] = s
	}
	st.index(sectionShaders, ids(sec))
	return nil
}

func (st *gltfImport) loadPrograms() error {
	sec := st.section(sectionPrograms)
	st.data.Programs = make([]model.Program, sec.ChildCount())
	for i := range st.data.Programs {
		id, n := sec.Name(i), sec.Child(i)
		referrer := "program " + id
		p := model.Program{
			Name:           id,
			VertexShader:   st.ref(sectionShaders, n.ChildByName("vertexShader"), referrer),
			FragmentShader: st.ref(sectionShaders, n.ChildByName("fragmentShader"), referrer),
			Attributes:     stringList(n.ChildByName("attributes")),
		}
		if p.VertexShader != model.None && st.data.Shaders[p.VertexShader].Stage != model.StageVertex {
			return fmt.Errorf("program %q vertexShader is not a vertex shader: %w", id, ErrShaderType)
		}
		if p.FragmentShader != model.None && st.data.Shaders[p.FragmentShader].Stage != model.StageFragment {
			return fmt.Errorf("program %q fragmentShader is not a fragment shader: %w", id, ErrShaderType)
		}
		st.data.Programs[i] = p
	}
	st.index(sectionPrograms, ids(sec))
	return nil
}

// nativeSource returns the highest native version of a shader usable by the conversion target.
func (st *gltfImport) nativeSource(s *model.Shader) (string, bool) {
	best := -1
	for i, v := range s.Versions {
		if v.API != st.conv.API || v.Version > st.conv.Version {
			continue
		}
		if best < 0 || v.Version > s.Versions[best].Version {
			best = i
		}
	}
	if best < 0 {
		return "", false
	}
	return s.Versions[best].Source, true
}

// --- Techniques & materials ---

func (st *gltfImport) loadTechniques() error {
	sec := st.section(sectionTechniques)
	st.data.Techniques = make([]model.Technique, sec.ChildCount())
	for i := range st.data.Techniques {
		id, n := sec.Name(i), sec.Child(i)
		referrer := "technique " + id
		tech := model.Technique{Name: id, Program: st.ref(sectionPrograms, n.ChildByName("program"), referrer)}
		params := n.ChildByName("parameters")

		attrs := n.ChildByName("attributes")
		for j := range attrs.ChildCount() {
			pid := attrs.Child(j).String("")
			p := params.ChildByName(pid)
			if p.IsNull() {
				st.linkErrs = append(st.linkErrs, &LinkError{Kind: "parameter", Name: pid, Referrer: referrer})
				continue
			}
			tech.Attributes = append(tech.Attributes, model.Attribute{
				Name:     attrs.Name(j),
				Semantic: model.ParseAttributeSemantic(p.ChildByName("semantic").String("")),
				Format:   attributeFormat(model.ValueTypeFromGL(p.ChildByName("type").Int(0))),
			})
		}

		uniforms := n.ChildByName("uniforms")
		for j := range uniforms.ChildCount() {
			pid := uniforms.Child(j).String("")
			p := params.ChildByName(pid)
			if p.IsNull() {
				st.linkErrs = append(st.linkErrs, &LinkError{Kind: "parameter", Name: pid, Referrer: referrer})
				continue
			}
			param, err := st.parameter(id, pid, uniforms.Name(j), p)
			if err != nil {
				return err
			}
			tech.Parameters = append(tech.Parameters, param)
		}

		state, err := pipeline.FromGLStates(id, glStates(n.ChildByName("states")))
		if err != nil {
			return fmt.Errorf("technique %q states: %w", id, err)
		}
		tech.State = state

		if tech.Program != model.None && len(st.linkErrs) == 0 {
			if err := st.compileTechnique(&tech); err != nil {
				return err
			}
		}
		st.data.Techniques[i] = tech
	}
	st.index(sectionTechniques, ids(sec))
	return nil
}

func (st *gltfImport) parameter(technique, id, uniform string, n document.Node) (model.Parameter, error) {
	sem, ok := model.ParseSemantic(n.ChildByName("semantic").String(""))
	if !ok {
		return model.Parameter{}, fmt.Errorf("technique %q parameter %q: %w", technique, id, ErrUnknownSemantic)
	}
	typ := model.ValueTypeFromGL(n.ChildByName("type").Int(0))
	if typ == gfx.ValueUnknown {
		return model.Parameter{}, fmt.Errorf("technique %q parameter %q: %w", technique, id, ErrUnknownType)
	}
	p := model.Parameter{
		Name:     id,
		Uniform:  uniform,
		Type:     typ,
		Count:    n.ChildByName("count").Int(1),
		Semantic: sem,
		Node:     model.None,
		NodeName: n.ChildByName("node").String(""),
		Texture:  model.None,
		Binding:  -1,
		Offset:   -1,
	}
	if value := n.ChildByName("value"); typ.IsSampler() {
		p.Texture = st.ref(sectionTextures, value, "technique "+technique)
	} else {
		p.Value = valueFloats(value)
	}
	return p, nil
}

// valueFloats reads a parameter value given as a number, a boolean or an array of numbers.
func valueFloats(n document.Node) []float32 {
	switch {
	case n.IsArray():
		return floats(n)
	case n.IsNumber():
		return []float32{float32(n.Float(0))}
	case n.IsBool():
		if n.Bool(false) {
			return []float32{1}
		}
		return []float32{0}
	}
	return nil
}

func attributeFormat(t gfx.ValueType) wgpu.VertexFormat {
	switch t {
	case gfx.ValueFloat:
		return wgpu.VertexFormatFloat32
	case gfx.ValueVec2:
		return wgpu.VertexFormatFloat32x2
	case gfx.ValueVec3:
		return wgpu.VertexFormatFloat32x3
	case gfx.ValueVec4:
		return wgpu.VertexFormatFloat32x4
	}
	return wgpu.VertexFormatUndefined
}

// glStates reads a technique state block. Function arguments are arrays as in the document.
func glStates(n document.Node) pipeline.GLStates {
	s := pipeline.DefaultGLStates()
	enable := n.ChildByName("enable")
	for i := range enable.ChildCount() {
		s.Enable = append(s.Enable, enable.Child(i).Int(0))
	}

	f := n.ChildByName("functions")
	ints := func(name string, dst []int) {
		args := f.ChildByName(name)
		if args.ChildCount() != len(dst) {
			return
		}
		for i := range dst {
			dst[i] = args.Child(i).Int(dst[i])
		}
	}
	ints("blendEquationSeparate", s.BlendEquation[:])
	ints("blendFuncSeparate", s.BlendFunc[:])
	f.ChildByName("blendColor").Floats(s.BlendColor[:])
	f.ChildByName("polygonOffset").Floats(s.PolygonOffset[:])

	var one [1]int
	if ints("cullFace", one[:]); one[0] != 0 {
		s.CullFace = one[0]
	}
	one[0] = 0
	if ints("depthFunc", one[:]); one[0] != 0 {
		s.DepthFunc = one[0]
	}
	one[0] = 0
	if ints("frontFace", one[:]); one[0] != 0 {
		s.FrontFace = one[0]
	}
	if mask := f.ChildByName("depthMask"); mask.ChildCount() == 1 {
		s.DepthMask = mask.Child(0).Bool(s.DepthMask)
	}
	if mask := f.ChildByName("colorMask"); mask.ChildCount() == 4 {
		for i := range s.ColorMask {
			s.ColorMask[i] = mask.Child(i).Bool(s.ColorMask[i])
		}
	}
	return s
}

// compileTechnique picks the native program or adapts the baseline one, then creates it.
func (st *gltfImport) compileTechnique(tech *model.Technique) error {
	prog := &st.data.Programs[tech.Program]
	vs, fs := &st.data.Shaders[prog.VertexShader], &st.data.Shaders[prog.FragmentShader]

	var vertex, fragment string
	vNative, vok := st.nativeSource(vs)
	fNative, fok := st.nativeSource(fs)
	if vok && fok {
		vertex, fragment, tech.Native = vNative, fNative, true
		for i := range tech.Parameters {
			tech.Parameters[i].Stages = wgpu.ShaderStageVertex | wgpu.ShaderStageFragment
		}
		attrs := tech.Attributes[:0]
		for _, a := range tech.Attributes {
			if loc, ok := a.Semantic.Location(); ok {
				a.Location = loc
				attrs = append(attrs, a)
			}
		}
		tech.Attributes = attrs
	} else {
		in := shader.Input{
			Technique:      tech.Name,
			VertexSource:   vs.Source,
			FragmentSource: fs.Source,
			Attributes:     tech.Attributes,
			Parameters:     tech.Parameters,
		}
		out, err := shader.Adapt(in, st.conv)
		if errors.Is(err, shader.ErrNoAttributeLocation) {
			common.Logger().Warn("technique attribute has no fixed location, using default program", "technique", tech.Name, "error", err)
			out, err = shader.Adapt(shader.DefaultInput(tech.Name), st.conv)
			tech.Fallback = true
		}
		if err != nil {
			return err
		}
		vertex, fragment = out.VertexSource, out.FragmentSource
		tech.Attributes, tech.Parameters = out.Attributes, out.Parameters
	}

	desc := gfx.ProgramDesc{Label: tech.Name, VertexSource: vertex, FragmentSource: fragment}
	for _, p := range tech.Parameters {
		desc.Parameters = append(desc.Parameters, gfx.ProgramParameter{
			Name:         p.Uniform,
			Type:         p.Type,
			Count:        p.Count,
			Stages:       p.Stages,
			Binding:      p.Binding,
			Offset:       p.Offset,
			PushConstant: p.PushConstant,
		})
	}
	for _, a := range tech.Attributes {
		desc.Attributes = append(desc.Attributes, gfx.VertexAttribute{Name: a.Name, Location: a.Location, Format: a.Format})
	}
	gpu, err := st.backend.CreateProgram(desc)
	if err != nil {
		return fmt.Errorf("failed to create program for technique %q: %w", tech.Name, err)
	}
	tech.GPU = gpu
	return nil
}

func (st *gltfImport) loadMaterials() error {
	sec := st.section(sectionMaterials)
	st.data.Materials = make([]model.Material, sec.ChildCount())
	for i := range st.data.Materials {
		id, n := sec.Name(i), sec.Child(i)
		referrer := "material " + id
		mat := model.Material{Name: id, Technique: st.ref(sectionTechniques, n.ChildByName("technique"), referrer)}
		if mat.Technique == model.None {
			st.data.Materials[i] = mat
			continue
		}
		tech := &st.data.Techniques[mat.Technique]

		values := n.ChildByName("values")
		for j := range values.ChildCount() {
			pi := parameterIndex(tech, values.Name(j))
			if pi == model.None {
				continue
			}
			mv := model.MaterialValue{Parameter: pi, Texture: model.None}
			if v := values.Child(j); tech.Parameters[pi].Type.IsSampler() {
				mv.Texture = st.ref(sectionTextures, v, referrer)
			} else {
				mv.Value = valueFloats(v)
			}
			mat.Values = append(mat.Values, mv)
		}
		st.data.Materials[i] = mat
	}
	st.index(sectionMaterials, ids(sec))
	return nil
}

// parameterIndex finds a parameter of the final technique list by id. Parameters replaced
// during shader adaptation are not found.
func parameterIndex(tech *model.Technique, id string) int {
	for i := range tech.Parameters {
		if tech.Parameters[i].Name == id {
			return i
		}
	}
	return model.None
}
