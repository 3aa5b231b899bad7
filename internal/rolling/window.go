package rolling

import "OptWatch/pkg/util"

// Window is a fixed-capacity FIFO of index price samples. It smooths
// short-term index noise before the forward price calculation; option
// valuation near expiry is sensitive to spot jitter.
//
// Not safe for concurrent use; the session loop is the only owner.
type Window struct {
	capacity int
	samples  []float64
	last     float64
}

// NewWindow creates a window holding at most capacity samples.
// Capacities below one are clamped to one.
func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{
		capacity: capacity,
		samples:  make([]float64, 0, capacity),
	}
}

// Push appends a sample, evicting the oldest one at capacity.
func (w *Window) Push(v float64) {
	if len(w.samples) == w.capacity {
		copy(w.samples, w.samples[1:])
		w.samples[len(w.samples)-1] = v
	} else {
		w.samples = append(w.samples, v)
	}
	w.last = v
}

// Mean returns the unweighted arithmetic mean of the retained samples,
// rounded to 10 decimal places for output stability. An empty window
// reports the most recent sample instead of dividing by zero.
func (w *Window) Mean() float64 {
	if len(w.samples) == 0 {
		return w.last
	}
	var sum float64
	for _, v := range w.samples {
		sum += v
	}
	return util.RoundPlaces(sum/float64(len(w.samples)), 10)
}

// Len reports how many samples are currently retained.
func (w *Window) Len() int { return len(w.samples) }

// Capacity reports the fixed window capacity.
func (w *Window) Capacity() int { return w.capacity }
