package shader

import (
	"errors"
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/gfx"
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/cogentcore/webgpu/wgpu"
)

// Identifiers introduced by adaptation.
const (
	ModelMatrixUniform             = "u_modelMatrix"
	ModelInverseMatrixUniform      = "u_modelInverseMatrix"
	ViewMatrixUniform              = "u_viewMatrix"
	ViewInverseMatrixUniform       = "u_viewInverseMatrix"
	ProjectionMatrixUniform        = "u_projectionMatrix"
	ProjectionInverseMatrixUniform = "u_projectionInverseMatrix"
	ViewProjectionBufferUniform    = "u_viewProjectionBuffer"
	JointBufferUniform             = "u_jointMatrixBuffer"
	JointMatricesMember            = "u_jointMatrices"
	PushConstantBlock              = "u_pushConstants"
	FragColorOutput                = "fragColor"
)

// DefaultMaxJoints sizes a packed joint buffer when neither the technique nor the backend gives a count.
const DefaultMaxJoints = 64

var (
	ErrNoAttributeLocation = errors.New("attribute has no fixed location")
	ErrUnsupportedUniform  = errors.New("unsupported uniform")
	ErrUnknownUniform      = errors.New("uniform is not a technique parameter")
	ErrNoStage             = errors.New("uniform is not used by any stage")
)

// AdaptError identifies the technique and the uniform (or attribute) that could not be adapted.
type AdaptError struct {
	Technique string
	Uniform   string
	Reason    error
}

func (e *AdaptError) Error() string {
	return fmt.Sprintf("shader: technique %q, %q: %v", e.Technique, e.Uniform, e.Reason)
}

func (e *AdaptError) Unwrap() error {
	return e.Reason
}

// Conversion selects the target dialect and uniform-passing convention.
type Conversion struct {
	// API is wgpu.BackendTypeOpenGL, wgpu.BackendTypeOpenGLES or wgpu.BackendTypeVulkan.
	API     wgpu.BackendType
	Version int

	// JointBuffer packs joint matrices into a uniform block.
	JointBuffer bool
	// ViewProjectionBuffer packs the view and projection matrices into a uniform block.
	ViewProjectionBuffer bool
	// Multiview renders two views per draw. It implies ViewProjectionBuffer.
	Multiview bool
	// ExplicitLayout assigns uniform locations and bindings in source. Always on for Vulkan.
	ExplicitLayout bool

	MaxJoints int
}

// ConversionForCaps returns the conversion the backend described by caps should use by default.
func ConversionForCaps(caps gfx.Caps) Conversion {
	return Conversion{
		API:         caps.API,
		Version:     caps.Version,
		JointBuffer: true,
		MaxJoints:   caps.MaxJoints,
	}.Normalized()
}

// Normalized resolves implied flags and clears the ones the target version cannot express.
func (c Conversion) Normalized() Conversion {
	switch c.API {
	case wgpu.BackendTypeOpenGL, wgpu.BackendTypeOpenGLES, wgpu.BackendTypeVulkan:
	default:
		c.API = wgpu.BackendTypeOpenGL
	}
	if c.Version == 0 {
		switch c.API {
		case wgpu.BackendTypeOpenGLES:
			c.Version = 300
		case wgpu.BackendTypeVulkan:
			c.Version = 450
		default:
			c.Version = 330
		}
	}
	if c.API == wgpu.BackendTypeVulkan {
		c.ExplicitLayout = true
	}
	if c.Multiview {
		c.ViewProjectionBuffer = true
	}
	if !c.atLeast(140, 300) {
		c.JointBuffer = false
		c.ViewProjectionBuffer = false
		c.Multiview = false
	}
	if !c.atLeast(430, 310) {
		c.ExplicitLayout = false
	}
	if c.MaxJoints <= 0 {
		c.MaxJoints = DefaultMaxJoints
	}
	return c
}

// atLeast reports whether the target meets the given desktop or ES version. Vulkan always does.
func (c Conversion) atLeast(gl, es int) bool {
	switch c.API {
	case wgpu.BackendTypeVulkan:
		return true
	case wgpu.BackendTypeOpenGLES:
		return c.Version >= es
	default:
		return c.Version >= gl
	}
}

// Views returns the number of views a draw renders to.
func (c Conversion) Views() int {
	if c.Multiview {
		return 2
	}
	return 1
}

// Input is one technique's baseline program.
type Input struct {
	Technique      string
	VertexSource   string
	FragmentSource string
	Attributes     []model.Attribute
	// Parameters holds the technique's uniform parameters. Entries without a Uniform are ignored.
	Parameters []model.Parameter
}

// Output is the adapted program.
type Output struct {
	VertexSource   string
	FragmentSource string
	// Attributes holds the input attributes with their fixed locations assigned.
	Attributes []model.Attribute
	// Parameters is the final uniform list: kept parameters in input order, then synthesized ones.
	Parameters []model.Parameter
	// VaryingLocations maps each varying to the location shared by both stages.
	VaryingLocations map[string]int
}

// Adapt rewrites a technique's baseline vertex and fragment source for the conversion target
// and returns the adapted sources and final uniform list. The result is deterministic.
//
// Parameters:
//   - in: the technique program
//   - conv: the target conversion
//
// Returns:
//   - Output: the adapted program
//   - error: an *AdaptError if an attribute or uniform cannot be adapted
func Adapt(in Input, conv Conversion) (Output, error) {
	a, err := newAdapter(in, conv.Normalized())
	if err != nil {
		return Output{}, err
	}

	vertexBody, err := a.rewriteBody(in.VertexSource, wgpu.ShaderStageVertex)
	if err != nil {
		return Output{}, err
	}
	fragmentBody, err := a.rewriteBody(in.FragmentSource, wgpu.ShaderStageFragment)
	if err != nil {
		return Output{}, err
	}

	params, err := a.finalParameters()
	if err != nil {
		return Output{}, err
	}
	assignLayout(params, a.conv)

	out := Output{
		VertexSource:     a.header(wgpu.ShaderStageVertex, params) + vertexBody,
		FragmentSource:   a.header(wgpu.ShaderStageFragment, params) + fragmentBody,
		Attributes:       a.attributes(),
		Parameters:       params,
		VaryingLocations: maps.Clone(a.varyings),
	}
	common.Logger().Debug("shader adapted",
		"technique", in.Technique,
		"api", a.conv.API,
		"version", a.conv.Version,
		"uniforms", len(params),
	)
	return out, nil
}

type paramState struct {
	param    model.Parameter
	stripped bool
	stages   wgpu.ShaderStage
	arrayLen int
}

// substitution replaces a stripped uniform's usages.
type substitution struct {
	expr string
	refs []string
}

type adapter struct {
	in        Input
	conv      Conversion
	params    []paramState
	byUniform map[string]int
	subst     map[string]substitution
	synth     map[string]wgpu.ShaderStage
	varyings  map[string]int
	fragColor bool
	joints    int
}

var synthesizedParameters = []struct {
	uniform  string
	semantic model.Semantic
	typ      gfx.ValueType
}{
	{ModelMatrixUniform, model.SemanticModel, gfx.ValueMat4},
	{ModelInverseMatrixUniform, model.SemanticModelInverse, gfx.ValueMat4},
	{ViewMatrixUniform, model.SemanticView, gfx.ValueMat4},
	{ProjectionMatrixUniform, model.SemanticProjection, gfx.ValueMat4},
	{ViewInverseMatrixUniform, model.SemanticViewInverse, gfx.ValueMat4},
	{ProjectionInverseMatrixUniform, model.SemanticProjectionInverse, gfx.ValueMat4},
	{ViewProjectionBufferUniform, model.SemanticViewProjectionBuffer, gfx.ValueBuffer},
	{JointBufferUniform, model.SemanticJointBuffer, gfx.ValueBuffer},
}

func newAdapter(in Input, conv Conversion) (*adapter, error) {
	a := &adapter{
		in:        in,
		conv:      conv,
		byUniform: make(map[string]int),
		subst:     make(map[string]substitution),
		synth:     make(map[string]wgpu.ShaderStage),
		varyings:  make(map[string]int),
	}
	for _, p := range in.Parameters {
		if p.Uniform == "" {
			continue
		}
		if p.Type == gfx.ValueUnknown {
			return nil, a.errorf(p.Uniform, "%w: unknown type", ErrUnsupportedUniform)
		}
		ps := paramState{param: p}
		nodeBound := p.Node != model.None || p.NodeName != ""
		switch {
		case nodeBound:
		case p.Semantic.IsViewDerived():
			want := gfx.ValueMat4
			if p.Semantic == model.SemanticModelViewInverseTranspose {
				want = gfx.ValueMat3
			}
			if p.Type != want {
				return nil, a.errorf(p.Uniform, "%w: semantic %s requires %s", ErrUnsupportedUniform, p.Semantic, glslTypeNames[want])
			}
			ps.stripped = true
		case p.Semantic == model.SemanticJointMatrix && conv.JointBuffer:
			if p.Type != gfx.ValueMat4 {
				return nil, a.errorf(p.Uniform, "%w: semantic %s requires mat4", ErrUnsupportedUniform, p.Semantic)
			}
			ps.stripped = true
			a.joints = max(a.joints, p.Count)
		case p.Semantic == model.SemanticJointBuffer || p.Semantic == model.SemanticViewProjectionBuffer:
			return nil, a.errorf(p.Uniform, "%w: semantic %s is reserved", ErrUnsupportedUniform, p.Semantic)
		}
		a.byUniform[p.Uniform] = len(a.params)
		a.params = append(a.params, ps)
	}
	if a.joints <= 1 {
		a.joints = conv.MaxJoints
	}
	a.buildSubstitutions()
	return a, nil
}

func (a *adapter) errorf(uniform, format string, args ...any) error {
	return &AdaptError{Technique: a.in.Technique, Uniform: uniform, Reason: fmt.Errorf(format, args...)}
}

// keptUniform returns the uniform name of a kept, unbound parameter with the semantic.
func (a *adapter) keptUniform(sem model.Semantic) (string, bool) {
	for _, ps := range a.params {
		p := ps.param
		if !ps.stripped && p.Semantic == sem && p.Node == model.None && p.NodeName == "" && p.Count <= 1 {
			return p.Uniform, true
		}
	}
	return "", false
}

func (a *adapter) buildSubstitutions() {
	type matrix struct {
		expr string
		ref  string
	}
	modelMatrix := func(sem model.Semantic, synthesized string) matrix {
		if name, ok := a.keptUniform(sem); ok {
			return matrix{name, name}
		}
		return matrix{synthesized, synthesized}
	}
	index := ""
	if a.conv.Multiview {
		if a.conv.API == wgpu.BackendTypeVulkan {
			index = "[gl_ViewIndex]"
		} else {
			index = "[gl_ViewID_OVR]"
		}
	}
	viewMatrix := func(uniform string) matrix {
		if a.conv.ViewProjectionBuffer {
			return matrix{uniform + index, ViewProjectionBufferUniform}
		}
		return matrix{uniform, uniform}
	}

	m := modelMatrix(model.SemanticModel, ModelMatrixUniform)
	mi := modelMatrix(model.SemanticModelInverse, ModelInverseMatrixUniform)
	v := viewMatrix(ViewMatrixUniform)
	vi := viewMatrix(ViewInverseMatrixUniform)
	p := viewMatrix(ProjectionMatrixUniform)
	pi := viewMatrix(ProjectionInverseMatrixUniform)

	build := func(expr string, used ...matrix) substitution {
		s := substitution{expr: expr}
		for _, u := range used {
			s.refs = append(s.refs, u.ref)
		}
		return s
	}

	for _, ps := range a.params {
		if !ps.stripped {
			continue
		}
		var s substitution
		switch ps.param.Semantic {
		case model.SemanticView:
			s = build(v.expr, v)
		case model.SemanticProjection:
			s = build(p.expr, p)
		case model.SemanticModelView:
			s = build("( "+v.expr+" * "+m.expr+" )", v, m)
		case model.SemanticModelViewProjection:
			s = build("( "+p.expr+" * ( "+v.expr+" * "+m.expr+" ) )", p, v, m)
		case model.SemanticViewInverse:
			s = build(vi.expr, vi)
		case model.SemanticProjectionInverse:
			s = build(pi.expr, pi)
		case model.SemanticModelViewInverse:
			s = build("( "+mi.expr+" * "+vi.expr+" )", mi, vi)
		case model.SemanticModelViewProjectionInverse:
			s = build("( "+mi.expr+" * ( "+vi.expr+" * "+pi.expr+" ) )", mi, vi, pi)
		case model.SemanticModelViewInverseTranspose:
			s = build("transpose( mat3( "+mi.expr+" * "+vi.expr+" ) )", mi, vi)
		default:
			s = substitution{expr: JointMatricesMember, refs: []string{JointBufferUniform}}
		}
		a.subst[ps.param.Uniform] = s
	}
}

// markRef adds a stage to a kept or synthesized uniform.
func (a *adapter) markRef(uniform string, stage wgpu.ShaderStage) {
	if idx, ok := a.byUniform[uniform]; ok {
		a.params[idx].stages |= stage
		return
	}
	a.synth[uniform] |= stage
}

var textureRenames = map[string]string{
	"texture2D":      "texture",
	"textureCube":    "texture",
	"texture2DProj":  "textureProj",
	"texture2DLod":   "textureLod",
	"textureCubeLod": "textureLod",
}

// rewriteBody rewrites one stage's source, without the generated header.
func (a *adapter) rewriteBody(src string, stage wgpu.ShaderStage) (string, error) {
	tokens := Tokenize(src)
	modern := a.conv.atLeast(130, 300)
	var sb strings.Builder
	depth := 0
	statementStart := true
	skipNewline := false
	var prev Token
	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		if skipNewline {
			skipNewline = false
			if t.Kind == TokenNewline {
				continue
			}
		}
		switch t.Kind {
		case TokenDirective:
			if directiveName(t.Text) == "version" {
				skipNewline = true
			} else {
				sb.WriteString(t.Text)
			}
			statementStart = true
			continue
		case TokenSpace, TokenNewline, TokenComment:
			sb.WriteString(t.Text)
			continue
		}

		if depth == 0 && statementStart && t.Kind == TokenIdent {
			if decl, ok := parseDeclaration(tokens, i); ok {
				text, err := a.rewriteDeclaration(decl, stage)
				if err != nil {
					return "", err
				}
				if text == "" {
					skipNewline = true
				}
				sb.WriteString(text)
				i = decl.end
				prev = tokens[decl.end]
				continue
			}
		}

		if t.Kind == TokenPunct {
			switch t.Text {
			case "{":
				depth++
			case "}":
				depth = max(depth-1, 0)
			}
		}
		statementStart = t.Kind == TokenPunct && (t.Text == ";" || t.Text == "{" || t.Text == "}")

		if t.Kind == TokenIdent && !(prev.Kind == TokenPunct && prev.Text == ".") {
			sb.WriteString(a.rewriteIdent(t.Text, stage, modern))
		} else {
			sb.WriteString(t.Text)
		}
		prev = t
	}
	return sb.String(), nil
}

func (a *adapter) rewriteIdent(name string, stage wgpu.ShaderStage, modern bool) string {
	if s, ok := a.subst[name]; ok {
		for _, ref := range s.refs {
			a.markRef(ref, stage)
		}
		return s.expr
	}
	if !modern {
		return name
	}
	if renamed, ok := textureRenames[name]; ok {
		return renamed
	}
	if name == "gl_FragColor" && stage == wgpu.ShaderStageFragment {
		a.fragColor = true
		return FragColorOutput
	}
	return name
}

func directiveName(text string) string {
	text = strings.TrimSpace(strings.TrimPrefix(text, "#"))
	name, _, _ := strings.Cut(text, " ")
	name, _, _ = strings.Cut(name, "\t")
	return name
}

// declaration is a top-level storage declaration spanning tokens[start:end+1].
type declaration struct {
	start, end int
	storage    string
	qualifiers []string
	typeName   string
	names      []declName
}

type declName struct {
	name     string
	arrayLen int
}

var interpolationQualifiers = map[string]bool{
	"highp": true, "mediump": true, "lowp": true,
	"flat": true, "smooth": true, "noperspective": true,
	"centroid": true, "invariant": true,
}

// parseDeclaration parses an attribute, varying, uniform or precision statement starting at tokens[i].
func parseDeclaration(tokens []Token, i int) (declaration, bool) {
	decl := declaration{start: i, storage: tokens[i].Text}
	switch decl.storage {
	case "attribute", "varying", "uniform", "precision":
	default:
		return decl, false
	}
	var sig []Token
	j := i + 1
	for ; j < len(tokens); j++ {
		t := tokens[j]
		if t.isTrivia() {
			continue
		}
		if t.Kind == TokenDirective {
			return decl, false
		}
		if t.Kind == TokenPunct {
			if t.Text == ";" {
				break
			}
			if t.Text == "{" || t.Text == "(" {
				return decl, false
			}
		}
		sig = append(sig, t)
	}
	if j >= len(tokens) {
		return decl, false
	}
	decl.end = j
	if decl.storage == "precision" {
		return decl, true
	}

	k := 0
	for k < len(sig) && sig[k].Kind == TokenIdent && interpolationQualifiers[sig[k].Text] {
		decl.qualifiers = append(decl.qualifiers, sig[k].Text)
		k++
	}
	if k >= len(sig) || sig[k].Kind != TokenIdent {
		return decl, false
	}
	decl.typeName = sig[k].Text
	k++
	for k < len(sig) {
		if sig[k].Kind != TokenIdent {
			return decl, false
		}
		n := declName{name: sig[k].Text}
		k++
		if k+2 < len(sig) && sig[k].Text == "[" && sig[k+2].Text == "]" {
			length, err := strconv.ParseInt(sig[k+1].Text, 0, 32)
			if err != nil {
				return decl, false
			}
			n.arrayLen = int(length)
			k += 3
		}
		decl.names = append(decl.names, n)
		if k < len(sig) {
			if sig[k].Text != "," {
				return decl, false
			}
			k++
		}
	}
	return decl, len(decl.names) > 0
}

// rewriteDeclaration returns the replacement text for a declaration, empty when it is dropped.
func (a *adapter) rewriteDeclaration(decl declaration, stage wgpu.ShaderStage) (string, error) {
	switch decl.storage {
	case "precision":
		return "", nil
	case "uniform":
		for _, n := range decl.names {
			idx, ok := a.byUniform[n.name]
			if !ok {
				return "", a.errorf(n.name, "%w", ErrUnknownUniform)
			}
			if !a.params[idx].stripped {
				a.params[idx].stages |= stage
				a.params[idx].arrayLen = max(a.params[idx].arrayLen, n.arrayLen)
			}
		}
		return "", nil
	}

	var parts []string
	for _, n := range decl.names {
		var layout int
		keyword := decl.storage
		if decl.storage == "attribute" {
			loc, err := a.attributeLocation(n.name)
			if err != nil {
				return "", err
			}
			layout = int(loc)
			if a.conv.atLeast(130, 300) {
				keyword = "in"
			}
			if !a.conv.atLeast(330, 300) {
				layout = -1
			}
		} else {
			loc, ok := a.varyings[n.name]
			if !ok {
				loc = len(a.varyings)
				a.varyings[n.name] = loc
			}
			layout = loc
			if a.conv.atLeast(130, 300) {
				keyword = "out"
				if stage == wgpu.ShaderStageFragment {
					keyword = "in"
				}
			}
			if !a.conv.ExplicitLayout {
				layout = -1
			}
		}
		var sb strings.Builder
		if layout >= 0 {
			fmt.Fprintf(&sb, "layout( location = %d ) ", layout)
		}
		for _, q := range decl.qualifiers {
			sb.WriteString(q)
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%s %s %s%s;", keyword, decl.typeName, n.name, arraySuffix(n.arrayLen))
		parts = append(parts, sb.String())
	}
	return strings.Join(parts, " "), nil
}

func (a *adapter) attributeLocation(name string) (uint32, error) {
	for _, attr := range a.in.Attributes {
		if attr.Name != name {
			continue
		}
		if loc, ok := attr.Semantic.Location(); ok {
			return loc, nil
		}
		break
	}
	return 0, a.errorf(name, "%w", ErrNoAttributeLocation)
}

func (a *adapter) attributes() []model.Attribute {
	var out []model.Attribute
	for _, attr := range a.in.Attributes {
		loc, ok := attr.Semantic.Location()
		if !ok {
			continue
		}
		attr.Location = loc
		out = append(out, attr)
	}
	return out
}

// finalParameters returns the kept parameters followed by the referenced synthesized ones.
func (a *adapter) finalParameters() ([]model.Parameter, error) {
	var out []model.Parameter
	for _, ps := range a.params {
		if ps.stripped {
			continue
		}
		if ps.stages == 0 {
			return nil, a.errorf(ps.param.Uniform, "%w", ErrNoStage)
		}
		p := ps.param
		p.Stages = ps.stages
		p.Count = max(p.Count, ps.arrayLen, 1)
		out = append(out, p)
	}
	for _, s := range synthesizedParameters {
		stages := a.synth[s.uniform]
		if stages == 0 {
			continue
		}
		p := model.Parameter{
			Name:     s.uniform,
			Uniform:  s.uniform,
			Type:     s.typ,
			Count:    1,
			Semantic: s.semantic,
			Node:     model.None,
			Texture:  model.None,
			Stages:   stages,
		}
		if s.semantic == model.SemanticJointBuffer {
			p.Count = a.joints
		}
		out = append(out, p)
	}
	return out, nil
}

// header generates the version line, extensions, defaults and uniform declarations of a stage.
func (a *adapter) header(stage wgpu.ShaderStage, params []model.Parameter) string {
	var sb strings.Builder
	switch a.conv.API {
	case wgpu.BackendTypeVulkan:
		sb.WriteString("#version 450\n")
	case wgpu.BackendTypeOpenGLES:
		if a.conv.Version >= 300 {
			fmt.Fprintf(&sb, "#version %d es\n", a.conv.Version)
		} else {
			fmt.Fprintf(&sb, "#version %d\n", a.conv.Version)
		}
	default:
		if a.conv.Version >= 150 {
			fmt.Fprintf(&sb, "#version %d core\n", a.conv.Version)
		} else {
			fmt.Fprintf(&sb, "#version %d\n", a.conv.Version)
		}
	}
	if a.conv.Multiview {
		if a.conv.API == wgpu.BackendTypeVulkan {
			sb.WriteString("#extension GL_EXT_multiview : require\n")
		} else {
			sb.WriteString("#extension GL_OVR_multiview2 : require\n")
		}
	}
	if a.conv.API == wgpu.BackendTypeOpenGLES {
		sb.WriteString("precision highp float;\nprecision highp int;\n")
	}
	if stage == wgpu.ShaderStageVertex && a.conv.Multiview && a.conv.API != wgpu.BackendTypeVulkan {
		sb.WriteString("layout( num_views = 2 ) in;\n")
	}
	a.writeUniforms(&sb, stage, params)
	if stage == wgpu.ShaderStageFragment && a.fragColor {
		if a.conv.atLeast(330, 300) {
			fmt.Fprintf(&sb, "layout( location = 0 ) out vec4 %s;\n", FragColorOutput)
		} else {
			fmt.Fprintf(&sb, "out vec4 %s;\n", FragColorOutput)
		}
	}
	return sb.String()
}

func (a *adapter) writeUniforms(sb *strings.Builder, stage wgpu.ShaderStage, params []model.Parameter) {
	var pushed []model.Parameter
	for _, p := range params {
		if p.Stages&stage != 0 && p.PushConstant {
			pushed = append(pushed, p)
		}
	}
	if len(pushed) > 0 {
		fmt.Fprintf(sb, "layout( push_constant ) uniform %s\n{\n", PushConstantBlock)
		for _, p := range pushed {
			fmt.Fprintf(sb, "\tlayout( offset = %d ) %s %s%s;\n", p.Offset, glslTypeNames[p.Type], p.Uniform, countSuffix(p.Count))
		}
		sb.WriteString("};\n")
	}

	vulkan := a.conv.API == wgpu.BackendTypeVulkan
	for _, p := range params {
		if p.Stages&stage == 0 || p.PushConstant {
			continue
		}
		if p.Type == gfx.ValueBuffer {
			a.writeBlock(sb, p)
			continue
		}
		switch {
		case vulkan:
			fmt.Fprintf(sb, "layout( set = 0, binding = %d ) ", p.Binding)
		case a.conv.ExplicitLayout && p.Type.IsSampler():
			fmt.Fprintf(sb, "layout( binding = %d ) ", p.Binding)
		case a.conv.ExplicitLayout:
			fmt.Fprintf(sb, "layout( location = %d ) ", p.Binding)
		}
		fmt.Fprintf(sb, "uniform %s %s%s;\n", glslTypeNames[p.Type], p.Uniform, countSuffix(p.Count))
	}
}

func (a *adapter) writeBlock(sb *strings.Builder, p model.Parameter) {
	var members []blockMember
	switch p.Semantic {
	case model.SemanticViewProjectionBuffer:
		members = viewProjectionMembers(a.conv.Views())
	default:
		members = []blockMember{{name: JointMatricesMember, typ: gfx.ValueMat4, count: p.Count}}
	}
	computeBlockLayout(members, LayoutStd140)

	qualifiers := []string{"std140"}
	switch {
	case a.conv.API == wgpu.BackendTypeVulkan:
		qualifiers = append(qualifiers, "set = 0", fmt.Sprintf("binding = %d", p.Binding))
	case a.conv.ExplicitLayout:
		qualifiers = append(qualifiers, fmt.Sprintf("binding = %d", p.Binding))
	}
	fmt.Fprintf(sb, "layout( %s ) uniform %s\n{\n", strings.Join(qualifiers, ", "), p.Uniform)
	for _, m := range members {
		sb.WriteByte('\t')
		if a.conv.API == wgpu.BackendTypeVulkan {
			fmt.Fprintf(sb, "layout( offset = %d ) ", m.offset)
		}
		fmt.Fprintf(sb, "%s %s%s;\n", glslTypeNames[m.typ], m.name, countSuffix(m.count))
	}
	sb.WriteString("};\n")
}

func viewProjectionMembers(views int) []blockMember {
	return []blockMember{
		{name: ViewMatrixUniform, typ: gfx.ValueMat4, count: views},
		{name: ViewInverseMatrixUniform, typ: gfx.ValueMat4, count: views},
		{name: ProjectionMatrixUniform, typ: gfx.ValueMat4, count: views},
		{name: ProjectionInverseMatrixUniform, typ: gfx.ValueMat4, count: views},
	}
}

// ViewProjectionLayout returns the byte offsets of the view, view-inverse, projection and
// projection-inverse arrays in the packed view/projection block, and the block size.
//
// Parameters:
//   - views: the number of views, 1 or 2
//
// Returns:
//   - [4]int: the member offsets in block order
//   - int: the block size in bytes
func ViewProjectionLayout(views int) ([4]int, int) {
	members := viewProjectionMembers(max(views, 1))
	size, _ := computeBlockLayout(members, LayoutStd140)
	var offsets [4]int
	for i, m := range members {
		offsets[i] = int(m.offset)
	}
	return offsets, int(size)
}

// assignLayout fills Binding, Offset and PushConstant of the final parameters.
func assignLayout(params []model.Parameter, conv Conversion) {
	for i := range params {
		params[i].Binding = -1
		params[i].Offset = -1
		params[i].PushConstant = false
	}
	switch {
	case conv.API == wgpu.BackendTypeVulkan:
		var members []blockMember
		var indices []int
		binding := 0
		for i, p := range params {
			if p.Type.IsSampler() || p.Type == gfx.ValueBuffer {
				params[i].Binding = binding
				binding++
				continue
			}
			members = append(members, blockMember{name: p.Uniform, typ: p.Type, count: p.Count})
			indices = append(indices, i)
		}
		computeBlockLayout(members, LayoutStd430)
		for k, i := range indices {
			params[i].PushConstant = true
			params[i].Offset = int(members[k].offset)
		}
	case conv.ExplicitLayout:
		location, sampler, block := 0, 0, 0
		for i, p := range params {
			switch {
			case p.Type.IsSampler():
				params[i].Binding = sampler
				sampler++
			case p.Type == gfx.ValueBuffer:
				params[i].Binding = block
				block++
			default:
				params[i].Binding = location
				location += max(p.Count, 1)
			}
		}
	}
}

var glslTypeNames = map[gfx.ValueType]string{
	gfx.ValueFloat:       "float",
	gfx.ValueVec2:        "vec2",
	gfx.ValueVec3:        "vec3",
	gfx.ValueVec4:        "vec4",
	gfx.ValueInt:         "int",
	gfx.ValueIVec2:       "ivec2",
	gfx.ValueIVec3:       "ivec3",
	gfx.ValueIVec4:       "ivec4",
	gfx.ValueBool:        "bool",
	gfx.ValueMat2:        "mat2",
	gfx.ValueMat3:        "mat3",
	gfx.ValueMat4:        "mat4",
	gfx.ValueSampler2D:   "sampler2D",
	gfx.ValueSamplerCube: "samplerCube",
}

func arraySuffix(n int) string {
	if n <= 0 {
		return ""
	}
	return "[" + strconv.Itoa(n) + "]"
}

func countSuffix(n int) string {
	if n <= 1 {
		return ""
	}
	return arraySuffix(n)
}
