package node

import (
	"sync"

	"github.com/charmbracelet/log"

	"chratos.dev/node/core"
	"chratos.dev/node/node/ledger"
	"chratos.dev/node/node/store"
)

// ProcessedFn observes every block result leaving the queue.
type ProcessedFn func(block core.Block, result core.ProcessReturn)

// BlockQueue is the single logical writer of the ledger: blocks enqueue
// from any goroutine and one worker drains them into write transactions,
// re-feeding gap-cache hits after every successful commit.
type BlockQueue struct {
	ledger    *ledger.Ledger
	gaps      *GapCache
	log       *log.Logger
	processed ProcessedFn

	mu      sync.Mutex
	cond    *sync.Cond
	pending []core.Block
	closed  bool
	done    chan struct{}
}

func NewBlockQueue(l *ledger.Ledger, gaps *GapCache, logger *log.Logger, processed ProcessedFn) *BlockQueue {
	q := &BlockQueue{
		ledger:    l,
		gaps:      gaps,
		log:       logger,
		processed: processed,
		done:      make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

// Enqueue submits a block for validation and commit. It never blocks on
// ledger work.
func (q *BlockQueue) Enqueue(block core.Block) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.pending = append(q.pending, block)
	q.cond.Signal()
}

// Close stops the worker after the queued blocks drain.
func (q *BlockQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.cond.Signal()
	q.mu.Unlock()
	<-q.done
}

func (q *BlockQueue) run() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.pending) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.pending) == 0 && q.closed {
			q.mu.Unlock()
			return
		}
		batch := q.pending
		q.pending = nil
		q.mu.Unlock()

		for _, block := range batch {
			q.processOne(block)
		}
	}
}

// processOne runs one block to completion inside a write transaction and
// replays any blocks that were waiting on it.
func (q *BlockQueue) processOne(block core.Block) {
	work := []core.Block{block}
	for len(work) > 0 {
		current := work[0]
		work = work[1:]

		var result core.ProcessReturn
		err := q.ledger.Store.Update(func(txn *store.Transaction) error {
			var err error
			result, err = q.ledger.Process(txn, current)
			if err != nil {
				return err
			}
			return q.ledger.Store.Flush(txn)
		})
		if err != nil {
			q.log.Error("ledger commit failed", "hash", current.Hash(), "err", err)
			continue
		}

		hash := current.Hash()
		switch {
		case result.Code == core.Progress:
			q.log.Debug("block committed", "hash", hash, "type", current.Type())
			// Anything waiting on this block can be retried now.
			work = append(work, q.gaps.Take(hash)...)
		case result.Code.Retryable():
			dependency := dependencyOf(result.Code, current)
			q.log.Debug("block buffered", "hash", hash, "code", result.Code, "waiting_on", dependency)
			q.gaps.Add(dependency, current)
		case result.Code == core.Old:
			q.log.Debug("block already committed", "hash", hash)
		default:
			q.log.Info("block rejected", "hash", hash, "code", result.Code)
		}
		if q.processed != nil {
			q.processed(current, result)
		}
	}
}
