package collector

// Option configures the collector.
type Option func(*Collector)

// WithLookbackWeeks sets the trailing check-in window.
func WithLookbackWeeks(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.lookbackWeeks = n
		}
	}
}

// WithTrendWeeks sets how many prior assessments feed trend detection.
func WithTrendWeeks(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.trendWeeks = n
		}
	}
}
