package node

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"chratos.dev/node/core"
)

// DefaultGapCacheSize bounds how many missing dependencies the node
// remembers blocks for. When full, the oldest dependency and its waiting
// blocks are evicted.
const DefaultGapCacheSize = 16384

// maxBlocksPerGap caps how many blocks may wait on one dependency.
const maxBlocksPerGap = 16

// GapCache buffers blocks whose predecessor or source has not arrived
// yet, keyed by the missing dependency.
type GapCache struct {
	mu      sync.Mutex
	entries *lru.Cache[core.BlockHash, []core.Block]
}

func NewGapCache(size int) (*GapCache, error) {
	if size <= 0 {
		size = DefaultGapCacheSize
	}
	entries, err := lru.New[core.BlockHash, []core.Block](size)
	if err != nil {
		return nil, err
	}
	return &GapCache{entries: entries}, nil
}

// Add buffers a block waiting on the dependency. Duplicates are dropped.
func (g *GapCache) Add(dependency core.BlockHash, block core.Block) {
	g.mu.Lock()
	defer g.mu.Unlock()
	blocks, _ := g.entries.Get(dependency)
	for _, existing := range blocks {
		if existing.Hash() == block.Hash() {
			return
		}
	}
	if len(blocks) >= maxBlocksPerGap {
		return
	}
	g.entries.Add(dependency, append(blocks, block))
}

// Take removes and returns every block waiting on the dependency.
func (g *GapCache) Take(dependency core.BlockHash) []core.Block {
	g.mu.Lock()
	defer g.mu.Unlock()
	blocks, ok := g.entries.Get(dependency)
	if !ok {
		return nil
	}
	g.entries.Remove(dependency)
	return blocks
}

// Len reports how many dependencies have waiting blocks.
func (g *GapCache) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.entries.Len()
}

// dependencyOf returns the gap key for a retryable result.
func dependencyOf(code core.ProcessResult, block core.Block) core.BlockHash {
	switch code {
	case core.GapPrevious:
		return block.Previous()
	case core.GapSource:
		if source := block.Source(); !source.IsZero() {
			return source
		}
		// State and claim blocks carry the missing source in link or
		// dividend.
		if link := block.Link(); !link.IsZero() {
			return link
		}
		return block.Dividend()
	}
	return core.BlockHash{}
}
