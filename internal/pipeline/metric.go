package pipeline

import (
	"time"

	"github.com/shopspring/decimal"
)

// Metric is one derived, displayable figure. Metrics are recomputed on every snapshot.
type Metric struct {
	Key     string
	Label   string
	Value   decimal.Decimal
	Display string
	Err     error
}

// Available reports whether the metric was computed.
func (m Metric) Available() bool { return m.Err == nil }

func newMetric(key, label string, value decimal.Decimal, display string) Metric {
	return Metric{Key: key, Label: label, Value: value, Display: display}
}

func failedMetric(key, label string, err error) Metric {
	return Metric{Key: key, Label: label, Display: Unavailable, Err: err}
}

// Section groups metrics the way the dashboard lays them out.
type Section struct {
	Title   string
	Metrics []Metric
}

// Snapshot is the full set of dashboard metrics computed in one pass.
type Snapshot struct {
	// Block is the chain head observed at the start of the pass; zero when unknown.
	Block uint64
	// Pinned is true when every contract read was made at Block.
	Pinned    bool
	NativeUSD float64
	TakenAt   time.Time
	Sections  []Section
}

// Values maps every metric key to its display string.
func (s *Snapshot) Values() map[string]string {
	out := make(map[string]string)
	for _, sec := range s.Sections {
		for _, m := range sec.Metrics {
			out[m.Key] = m.Display
		}
	}
	return out
}

// Metric looks up a metric by key.
func (s *Snapshot) Metric(key string) (Metric, bool) {
	for _, sec := range s.Sections {
		for _, m := range sec.Metrics {
			if m.Key == key {
				return m, true
			}
		}
	}
	return Metric{}, false
}

// Failed lists metrics that rendered as unavailable.
func (s *Snapshot) Failed() []Metric {
	var out []Metric
	for _, sec := range s.Sections {
		for _, m := range sec.Metrics {
			if !m.Available() {
				out = append(out, m)
			}
		}
	}
	return out
}
