package metrics

// Provider receives observations from the chain reader and the metric pipeline.
type Provider interface {
	// SetMetricValue records the latest decimal value of a dashboard metric.
	SetMetricValue(key string, value float64)
	// IncMetricFailure counts a dashboard metric that rendered as unavailable.
	IncMetricFailure(key, kind string)
	// IncContractCall counts a contract read by method and result kind.
	IncContractCall(method, result string)
	// SetSnapshotBlock records the block number the last snapshot was pinned to.
	SetSnapshotBlock(block uint64)
	ObserveSnapshot(seconds float64)
}

type Noop struct{}

func (Noop) SetMetricValue(string, float64)  {}
func (Noop) IncMetricFailure(string, string) {}
func (Noop) IncContractCall(string, string)  {}
func (Noop) SetSnapshotBlock(uint64)         {}
func (Noop) ObserveSnapshot(float64)         {}
