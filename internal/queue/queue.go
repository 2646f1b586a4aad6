// Package queue buffers raw user inputs while the classifier is unreachable.
// The queue is persisted through the storage collaborator after every
// mutation so no input is lost across process restarts.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/resolutehq/resolute/internal/storage"
	"github.com/resolutehq/resolute/internal/types"
)

// StorageKey is the blob key the serialized queue lives under.
const StorageKey = "pending-updates"

// Pending is a FIFO queue of raw inputs awaiting classification.
type Pending struct {
	mu      sync.Mutex
	items   []types.PendingInput
	storage storage.Storage
}

// New creates an empty queue persisting through st.
func New(st storage.Storage) *Pending {
	return &Pending{storage: st}
}

// Load replaces the in-memory queue with the persisted snapshot. A missing
// blob means an empty queue and is not an error.
func (p *Pending) Load(ctx context.Context) error {
	data, err := p.storage.Get(ctx, StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load pending queue: %w", err)
	}

	var items []types.PendingInput
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("decode pending queue: %w", err)
	}

	p.mu.Lock()
	p.items = items
	p.mu.Unlock()
	return nil
}

// Enqueue appends an input to the back of the queue and persists.
func (p *Pending) Enqueue(ctx context.Context, text string, ts time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.items = append(p.items, types.PendingInput{InputText: text, Timestamp: ts})
	return p.save(ctx)
}

// Peek returns the front item without removing it, or nil when empty.
func (p *Pending) Peek() *types.PendingInput {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.items) == 0 {
		return nil
	}
	item := p.items[0]
	return &item
}

// Shift removes the front item and persists. Returns nil when the queue is
// empty.
func (p *Pending) Shift(ctx context.Context) (*types.PendingInput, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.items) == 0 {
		return nil, nil
	}
	item := p.items[0]
	p.items = p.items[1:]
	if err := p.save(ctx); err != nil {
		return &item, err
	}
	return &item, nil
}

// Items returns a copy of the queued inputs in FIFO order.
func (p *Pending) Items() []types.PendingInput {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]types.PendingInput, len(p.items))
	copy(out, p.items)
	return out
}

// Len returns the number of queued inputs.
func (p *Pending) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

// ReplaceAll swaps the entire queue contents, used by backup restore.
func (p *Pending) ReplaceAll(ctx context.Context, items []types.PendingInput) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	replacement := make([]types.PendingInput, len(items))
	copy(replacement, items)
	p.items = replacement
	return p.save(ctx)
}

// save serializes and writes the queue. Caller must hold p.mu.
func (p *Pending) save(ctx context.Context) error {
	items := p.items
	if items == nil {
		items = []types.PendingInput{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode pending queue: %w", err)
	}
	if err := p.storage.Set(ctx, StorageKey, data); err != nil {
		return fmt.Errorf("write pending queue: %w", err)
	}
	return nil
}
