package main

// window is a fixed-capacity sample series with FIFO eviction
type window struct {
	capacity int       // Maximum number of retained samples
	samples  []float64 // Samples in insertion order, oldest first
}

// newWindow creates an empty window holding at most capacity samples
func newWindow(capacity int) *window {
	if capacity < 1 {
		capacity = 1
	}
	return &window{capacity: capacity, samples: make([]float64, 0, capacity)}
}

// push appends v, dropping the oldest sample once the window is full
func (w *window) push(v float64) {
	if len(w.samples) >= w.capacity {
		// Shift left in place so the backing array never grows
		copy(w.samples, w.samples[1:])
		w.samples[len(w.samples)-1] = v
		return
	}
	w.samples = append(w.samples, v)
}

// last returns the most recent sample
func (w *window) last() (float64, bool) {
	if len(w.samples) == 0 {
		return 0, false
	}
	return w.samples[len(w.samples)-1], true
}

func (w *window) len() int { return len(w.samples) }

func (w *window) full() bool { return len(w.samples) >= w.capacity }

func (w *window) reset() { w.samples = w.samples[:0] }

// mean returns the arithmetic mean of the samples, 0 when empty
func (w *window) mean() float64 {
	if len(w.samples) == 0 {
		return 0
	}
	var sum float64
	for _, v := range w.samples {
		sum += v
	}
	return sum / float64(len(w.samples))
}

// max returns the largest sample, 0 when empty
func (w *window) max() float64 {
	if len(w.samples) == 0 {
		return 0
	}
	m := w.samples[0]
	for _, v := range w.samples[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// values returns a copy of the samples, oldest first
func (w *window) values() []float64 {
	out := make([]float64, len(w.samples))
	copy(out, w.samples)
	return out
}
