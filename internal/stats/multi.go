package stats

// Multi fans every metric out to several collectors.
type Multi []Collector

var _ Collector = Multi(nil)

func (m Multi) IncCounter(name string, delta int64) {
	for _, c := range m {
		c.IncCounter(name, delta)
	}
}

func (m Multi) SetGauge(name string, value int64) {
	for _, c := range m {
		c.SetGauge(name, value)
	}
}

func (m Multi) ObserveHistogram(name string, value float64) {
	for _, c := range m {
		c.ObserveHistogram(name, value)
	}
}
