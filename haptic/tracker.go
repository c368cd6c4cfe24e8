package haptic

// MovingAverage is a fixed-window running mean over recent speed samples.
// The zero value is not usable; create one with NewMovingAverage.
type MovingAverage struct {
	buf  []float64
	head int
	n    int
	sum  float64
}

// NewMovingAverage returns a tracker averaging the last window samples.
func NewMovingAverage(window int) *MovingAverage {
	if window < 1 {
		window = 1
	}
	return &MovingAverage{buf: make([]float64, window)}
}

// Push adds a sample, evicting the oldest once the window is full.
func (m *MovingAverage) Push(v float64) {
	if m.n == len(m.buf) {
		m.sum -= m.buf[m.head]
	} else {
		m.n++
	}
	m.buf[m.head] = v
	m.sum += v
	m.head = (m.head + 1) % len(m.buf)
}

// Mean returns the current average, or 0 with no samples.
func (m *MovingAverage) Mean() float64 {
	if m.n == 0 {
		return 0
	}
	return m.sum / float64(m.n)
}

// Len returns the number of samples currently in the window.
func (m *MovingAverage) Len() int { return m.n }

// Reset discards all samples.
func (m *MovingAverage) Reset() {
	m.head = 0
	m.n = 0
	m.sum = 0
	for i := range m.buf {
		m.buf[i] = 0
	}
}
