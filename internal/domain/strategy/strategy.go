package strategy

// Strategy names a retrieval pipeline composition.
type Strategy string

// Supported strategies.
const (
	// Coverage runs greedy ingredient set cover over a lexical pool.
	Coverage Strategy = "coverage"
	// Hybrid runs a single combined lexical+vector scored search.
	Hybrid Strategy = "hybrid"
	// CoverageHybrid runs set cover, then similarity reranking.
	CoverageHybrid Strategy = "coverage_hybrid"
	// Best runs coverage_hybrid, then LLM reranking. Recommended default.
	Best Strategy = "best"
)

// Default is the strategy used when the caller does not name one.
const Default = Best

// IsValid checks if the strategy is one of the supported values.
func (s Strategy) IsValid() bool {
	return s == Coverage || s == Hybrid || s == CoverageHybrid || s == Best
}
