// internal/app/system/uploadjobs/uploadjobs.go

// Package uploadjobs tracks in-flight uploads so progress can be
// observed over a separate request. Each job records its event history;
// subscribers replay from the start and then follow live events.
package uploadjobs

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/msalazarj/primebug/internal/app/upload"
	"go.uber.org/zap"
)

// retention keeps finished jobs around long enough for a client that
// started the upload to connect to the event stream.
const retention = 5 * time.Minute

type job struct {
	mu      sync.Mutex
	cond    *sync.Cond
	history []upload.Event
	done    bool
}

func newJob() *job {
	j := &job{}
	j.cond = sync.NewCond(&j.mu)
	return j
}

func (j *job) append(e upload.Event) {
	j.mu.Lock()
	j.history = append(j.history, e)
	j.mu.Unlock()
	j.cond.Broadcast()
}

func (j *job) finish() {
	j.mu.Lock()
	j.done = true
	j.mu.Unlock()
	j.cond.Broadcast()
}

// next blocks until an event past cursor exists, the job ends, or ctx is
// canceled. The second result is false once no further event will come.
func (j *job) next(ctx context.Context, cursor int) (upload.Event, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for cursor >= len(j.history) && !j.done && ctx.Err() == nil {
		j.cond.Wait()
	}
	if ctx.Err() != nil {
		return upload.Event{}, false
	}
	if cursor < len(j.history) {
		return j.history[cursor], true
	}
	return upload.Event{}, false
}

// Registry owns the live job table.
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*job
	log  *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{jobs: make(map[string]*job), log: logger}
}

// Start registers a new job draining events and returns its id. The job
// is forgotten a few minutes after its terminal event.
func (r *Registry) Start(events <-chan upload.Event) string {
	id := uuid.NewString()
	j := newJob()

	r.mu.Lock()
	r.jobs[id] = j
	r.mu.Unlock()

	go func() {
		for e := range events {
			j.append(e)
		}
		j.finish()
		time.AfterFunc(retention, func() {
			r.mu.Lock()
			delete(r.jobs, id)
			r.mu.Unlock()
		})
	}()
	return id
}

// Subscribe attaches to a job's event stream. The returned channel first
// replays history, then carries live events, and closes after the
// terminal event or when ctx ends. ok is false for unknown or expired
// jobs.
func (r *Registry) Subscribe(ctx context.Context, id string) (<-chan upload.Event, bool) {
	r.mu.Lock()
	j, ok := r.jobs[id]
	r.mu.Unlock()
	if !ok {
		return nil, false
	}

	out := make(chan upload.Event)
	go func() {
		defer close(out)
		for cursor := 0; ; cursor++ {
			e, ok := j.next(ctx, cursor)
			if !ok {
				return
			}
			select {
			case out <- e:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Unblock the reader goroutine when the subscriber context ends
	// while it is waiting on the cond.
	go func() {
		<-ctx.Done()
		j.cond.Broadcast()
	}()

	return out, true
}
