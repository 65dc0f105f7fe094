package loader

import (
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-scene/engine/document"
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/animator"
)

func (st *gltfImport) loadAnimations() error {
	sec := st.section(sectionAnimations)
	st.data.Animations = make([]model.Animation, sec.ChildCount())
	for i := range st.data.Animations {
		id, n := sec.Name(i), sec.Child(i)
		anim, err := st.animation(id, n)
		if err != nil {
			return err
		}
		st.data.Animations[i] = anim
	}
	st.data.AnimationNames = st.index(sectionAnimations, ids(sec))
	return nil
}

// animation loads one animation. Channels targeting the same node on the same timeline
// merge into one record.
func (st *gltfImport) animation(id string, n document.Node) (model.Animation, error) {
	referrer := "animation " + id
	anim := model.Animation{Name: id}
	params := n.ChildByName("parameters")
	samplers := n.ChildByName("samplers")

	type channelKey struct {
		node     string
		timeLine int
	}
	merged := make(map[channelKey]int)

	channels := n.ChildByName("channels")
	for c := range channels.ChildCount() {
		cn := channels.Child(c)
		sid := cn.ChildByName("sampler").String("")
		sampler := samplers.ChildByName(sid)
		if sampler.IsNull() {
			st.linkErrs = append(st.linkErrs, &LinkError{Kind: "sampler", Name: sid, Referrer: referrer})
			continue
		}
		input := st.ref(sectionAccessors, params.ChildByName(sampler.ChildByName("input").String("")), referrer)
		output := st.ref(sectionAccessors, params.ChildByName(sampler.ChildByName("output").String("")), referrer)
		if input == model.None || output == model.None {
			continue
		}
		tl, err := st.timeLine(input)
		if err != nil {
			return anim, err
		}

		target := cn.ChildByName("target")
		key := channelKey{node: target.ChildByName("id").String(""), timeLine: tl}
		ci, ok := merged[key]
		if !ok {
			ci = len(anim.Channels)
			merged[key] = ci
			anim.Channels = append(anim.Channels, model.Channel{Node: model.None, NodeName: key.node, TimeLine: tl})
			if !slices.Contains(anim.TimeLines, tl) {
				anim.TimeLines = append(anim.TimeLines, tl)
			}
		}
		if err := st.channelSamples(&anim.Channels[ci], target.ChildByName("path").String(""), output); err != nil {
			return anim, fmt.Errorf("%s channel %d: %w", referrer, c, err)
		}
	}
	return anim, nil
}

// timeLine returns the timeline reading an input accessor, creating it on first use.
func (st *gltfImport) timeLine(acc int) (int, error) {
	if tl, ok := st.timeLines[acc]; ok {
		return tl, nil
	}
	times, err := st.readFloats(acc, model.AccessorScalar)
	if err != nil {
		return 0, err
	}
	st.data.TimeLines = append(st.data.TimeLines, animator.NewTimeLine(acc, times))
	tl := len(st.data.TimeLines) - 1
	st.timeLines[acc] = tl
	return tl, nil
}

func (st *gltfImport) channelSamples(ch *model.Channel, path string, output int) error {
	want := len(st.data.TimeLines[ch.TimeLine].Times)
	if count := st.data.Accessors[output].Count; count != want {
		return fmt.Errorf("%d samples for %d times: %w", count, want, ErrSampleCount)
	}
	switch path {
	case "translation", "scale":
		values, err := st.readFloats(output, model.AccessorVec3)
		if err != nil {
			return err
		}
		samples := make([][3]float32, want)
		for i := range samples {
			copy(samples[i][:], values[i*3:])
		}
		if path == "translation" {
			ch.Translation = samples
		} else {
			ch.Scale = samples
		}
	case "rotation":
		values, err := st.readFloats(output, model.AccessorVec4)
		if err != nil {
			return err
		}
		ch.Rotation = make([][4]float32, want)
		for i := range ch.Rotation {
			copy(ch.Rotation[i][:], values[i*4:])
		}
	default:
		return fmt.Errorf("target path %q: %w", path, ErrAccessorType)
	}
	return nil
}
