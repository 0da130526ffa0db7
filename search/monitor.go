package search

import "github.com/poiesic/docqa/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterQueryEmbedding(dimensions int)
	AfterSimilaritySearch(ids []uint64)
	VerbatimBoost(chunk *core.Chunk)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                      {}
func (n *noopMonitor) AfterQueryEmbedding(_ int)           {}
func (n *noopMonitor) AfterSimilaritySearch(_ []uint64)    {}
func (n *noopMonitor) VerbatimBoost(_ *core.Chunk)         {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)       {}
