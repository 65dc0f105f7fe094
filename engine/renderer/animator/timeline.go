package animator

import (
	"slices"

	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/chewxy/math32"
)

// fixedRateTolerance is the largest deviation from an even spacing, relative to the step,
// that still counts as fixed-rate data.
const fixedRateTolerance = 1e-3

// Sample is the evaluated position of a timeline: the frame before the current time and
// the fraction of the way to the next frame.
type Sample struct {
	Frame    int
	Fraction float32
}

// NewTimeLine builds a timeline from sample times, detecting evenly spaced data.
//
// Parameters:
//   - accessor: the accessor index the times were read from
//   - times: the sample times in increasing order
//
// Returns:
//   - model.TimeLine: the timeline, with RcpStep set when the spacing is fixed
func NewTimeLine(accessor int, times []float32) model.TimeLine {
	tl := model.TimeLine{Accessor: accessor, Times: times}
	n := len(times)
	if n == 0 {
		return tl
	}
	tl.Duration = times[n-1]
	if n < 2 {
		return tl
	}

	span := times[n-1] - times[0]
	if span <= 0 {
		return tl
	}
	step := span / float32(n-1)
	for i, t := range times {
		expected := times[0] + float32(i)*step
		if math32.Abs(t-expected) > fixedRateTolerance*step {
			return tl
		}
	}
	tl.RcpStep = 1 / step
	return tl
}

// Evaluate locates time t on the timeline. Time wraps into [0, Duration) and then clamps
// to the sampled range, so the result is always a valid frame.
//
// Parameters:
//   - tl: the timeline
//   - t: the playback time in seconds
//
// Returns:
//   - Sample: the frame and fraction at t
func Evaluate(tl *model.TimeLine, t float32) Sample {
	return evaluate(tl, wrap(t, tl.Duration))
}

// Clamp locates time t without wrapping, holding the first and last frames outside the range.
func Clamp(tl *model.TimeLine, t float32) Sample {
	return evaluate(tl, t)
}

func wrap(t, duration float32) float32 {
	if duration <= 0 {
		return 0
	}
	t = math32.Mod(t, duration)
	if t < 0 {
		t += duration
	}
	return t
}

func evaluate(tl *model.TimeLine, t float32) Sample {
	times := tl.Times
	n := len(times)
	if n < 2 || t <= times[0] {
		return Sample{}
	}
	if t >= times[n-1] {
		return Sample{Frame: n - 2, Fraction: 1}
	}

	var frame int
	if tl.RcpStep > 0 {
		frame = fixedFrame(times, tl.RcpStep, t)
	} else {
		frame = searchFrame(times, t)
	}

	dt := times[frame+1] - times[frame]
	if dt <= 0 {
		return Sample{Frame: frame}
	}
	f := (t - times[frame]) / dt
	return Sample{Frame: frame, Fraction: min(max(f, 0), 1)}
}

// fixedFrame computes the frame in O(1), correcting for rounding at frame boundaries.
func fixedFrame(times []float32, rcpStep, t float32) int {
	last := len(times) - 2
	frame := min(max(int((t-times[0])*rcpStep), 0), last)
	if frame < last && times[frame+1] <= t {
		frame++
	} else if frame > 0 && times[frame] > t {
		frame--
	}
	return frame
}

// searchFrame finds the last frame whose time is <= t.
func searchFrame(times []float32, t float32) int {
	i, found := slices.BinarySearch(times, t)
	if !found {
		i--
	}
	return min(max(i, 0), len(times)-2)
}
