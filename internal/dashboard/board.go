package dashboard

import (
	"context"
	"sync"
)

// Board holds the heatmap a single viewer is looking at. Each Refresh is
// tagged with a sequence number and cancels the one before it; a result
// that arrives after a newer refresh was dispatched is dropped with ErrStale.
type Board struct {
	svc *Service

	mu      sync.Mutex
	seq     uint64
	cancel  context.CancelFunc
	view    HeatmapView
	hasView bool
}

func NewBoard(svc *Service) *Board { return &Board{svc: svc} }

// Refresh fetches the heatmap for vs and makes it current unless superseded.
func (b *Board) Refresh(ctx context.Context, vs ViewState) (HeatmapView, error) {
	ctx, seq, done := b.begin(ctx)
	defer done()

	v, err := b.svc.Heatmap(ctx, vs)

	b.mu.Lock()
	defer b.mu.Unlock()
	if seq != b.seq {
		b.svc.observer().ObserveStale()
		b.svc.Log.Debug().Uint64("seq", seq).Uint64("latest", b.seq).Msg("discarding stale heatmap refresh")
		return HeatmapView{}, ErrStale
	}
	if err != nil {
		return v, err
	}
	b.view, b.hasView = v, true
	return v, nil
}

// Hover moves the tooltip to id on the current view without refetching.
func (b *Board) Hover(id string) (HeatmapView, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.hasView {
		return HeatmapView{}, false
	}
	b.view.State.HoveredID = id
	b.view.Hovered = b.view.Tooltip(id)
	return b.view, true
}

// Current returns the last view that was not superseded.
func (b *Board) Current() (HeatmapView, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.view, b.hasView
}

// Seq is the sequence number of the latest dispatched refresh.
func (b *Board) Seq() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seq
}

// Close cancels any refresh in flight.
func (b *Board) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
}

func (b *Board) begin(parent context.Context) (context.Context, uint64, func()) {
	ctx, cancel := context.WithCancel(parent)
	b.mu.Lock()
	if b.cancel != nil {
		b.cancel()
	}
	b.seq++
	seq := b.seq
	b.cancel = cancel
	b.mu.Unlock()
	return ctx, seq, cancel
}
