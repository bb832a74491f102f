package analysis

import (
	"context"
	"sync"
	"time"

	"window-backend/internal/events"
	"window-backend/internal/shared/telemetry"
)

// Processor resolves one request end to end. The service implements it; the
// queue only needs the seam so replay can reuse the synchronous path.
type Processor interface {
	Process(ctx context.Context, req Request) (Result, error)
}

// OfflineQueue buffers requests while the backend is unreachable and replays
// them in submission order once connectivity returns. Re-submitting an id that
// is still buffered replaces the buffered payload in place, keeping the
// original queue position.
type OfflineQueue struct {
	mu      sync.Mutex
	order   []string
	pending map[string]*QueuedRequest

	maxReplayAttempts int
	sink              events.Sink
	now               func() time.Time
}

// NewOfflineQueue constructs a queue whose replay gives each buffered request
// at most maxReplayAttempts tries before dropping it.
func NewOfflineQueue(maxReplayAttempts int, sink events.Sink) *OfflineQueue {
	if maxReplayAttempts <= 0 {
		maxReplayAttempts = 3
	}
	if sink == nil {
		sink = events.NopSink{}
	}
	return &OfflineQueue{
		pending:           make(map[string]*QueuedRequest),
		maxReplayAttempts: maxReplayAttempts,
		sink:              sink,
		now:               time.Now,
	}
}

// Enqueue buffers req. A duplicate id overwrites the buffered request without
// moving it; new ids append to the tail.
func (q *OfflineQueue) Enqueue(ctx context.Context, req Request) {
	q.mu.Lock()
	if existing, ok := q.pending[req.ID]; ok {
		existing.Request = req
		existing.EnqueuedAt = q.now().UTC()
		q.mu.Unlock()
		return
	}
	q.pending[req.ID] = &QueuedRequest{Request: req, EnqueuedAt: q.now().UTC()}
	q.order = append(q.order, req.ID)
	depth := len(q.order)
	q.mu.Unlock()

	ev := events.NewEvent(events.TypeRequestQueued)
	ev.RequestID = req.ID
	q.sink.Emit(ctx, ev)
	telemetry.Info("request queued for replay", map[string]any{"requestId": req.ID, "depth": depth})
}

// Len reports the number of buffered requests.
func (q *OfflineQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}

// Replay drains the queue strictly in submission order. A request that fails is
// retried in place until its attempt budget runs out; only then does replay
// advance, dropping it. Replay stops early if ctx is cancelled, leaving the
// rest of the queue intact.
func (q *OfflineQueue) Replay(ctx context.Context, p Processor) (replayed, dropped int) {
	for {
		if ctx.Err() != nil {
			return replayed, dropped
		}

		q.mu.Lock()
		if len(q.order) == 0 {
			q.mu.Unlock()
			return replayed, dropped
		}
		id := q.order[0]
		item := q.pending[id]
		item.Attempts++
		attempt := item.Attempts
		req := item.Request
		q.mu.Unlock()

		_, err := p.Process(ctx, req)
		if err == nil {
			q.remove(id)
			replayed++
			ev := events.NewEvent(events.TypeRequestReplayed)
			ev.RequestID = id
			ev.Attempt = attempt
			q.sink.Emit(ctx, ev)
			continue
		}

		telemetry.Warn("replay attempt failed", map[string]any{
			"requestId": id,
			"attempt":   attempt,
			"err":       err.Error(),
		})
		if attempt >= q.maxReplayAttempts {
			q.remove(id)
			dropped++
			ev := events.NewEvent(events.TypeRequestFailed)
			ev.RequestID = id
			ev.Detail = "dropped after replay attempts exhausted"
			q.sink.Emit(ctx, ev)
		}
	}
}

func (q *OfflineQueue) remove(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.pending, id)
	if len(q.order) > 0 && q.order[0] == id {
		q.order = q.order[1:]
		return
	}
	for i, queued := range q.order {
		if queued == id {
			q.order = append(q.order[:i], q.order[i+1:]...)
			return
		}
	}
}
