// internal/app/issuewatch/watcher.go

// Package issuewatch provides a live view over one project's issues:
// every store change triggers a full re-fetch, a status-count pass, and a
// fresh snapshot on the subscription channel. Filtering over the fetched
// set is client-side and lives in this package too.
package issuewatch

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/msalazarj/primebug/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// IssueStore is the slice of the issue store the watcher needs.
type IssueStore interface {
	ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Issue, error)
}

// ProfileStore resolves assignee display names in batch.
type ProfileStore interface {
	GetBatchByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Profile, error)
}

// ChangeSource delivers one signal per relevant store change. The channel
// closes when ctx ends or the underlying stream dies.
type ChangeSource interface {
	Changes(ctx context.Context, projectID primitive.ObjectID) (<-chan struct{}, error)
}

// StatusCounts tallies the four tracked status buckets. Closed issues are
// listed but not counted.
type StatusCounts struct {
	Open       int `json:"abiertos"`
	InProgress int `json:"en_progreso"`
	Resolved   int `json:"resueltos"`
	Reopened   int `json:"reabiertos"`
}

// CountStatuses computes StatusCounts in one pass over issues.
func CountStatuses(issues []models.Issue) StatusCounts {
	var c StatusCounts
	for i := range issues {
		switch issues[i].Status {
		case models.StatusOpen:
			c.Open++
		case models.StatusInProgress:
			c.InProgress++
		case models.StatusResolved:
			c.Resolved++
		case models.StatusReopened:
			c.Reopened++
		}
	}
	return c
}

// Snapshot is one emission of the live view.
type Snapshot struct {
	Issues []models.Issue
	Counts StatusCounts
}

// Subscription is a cancelable handle on a live issue view.
type Subscription struct {
	updates  chan Snapshot
	cancel   context.CancelFunc
	canceled atomic.Bool
	done     chan struct{}
}

// Updates delivers snapshots until the subscription is canceled, then
// the channel closes.
func (s *Subscription) Updates() <-chan Snapshot { return s.updates }

// Cancel detaches the subscription. No snapshot is delivered after
// Cancel returns, even when the store reports a late change. Safe to call
// more than once.
func (s *Subscription) Cancel() {
	s.canceled.Store(true)
	s.cancel()
	<-s.done
}

// Watcher builds live subscriptions over project issues.
type Watcher struct {
	issues   IssueStore
	profiles ProfileStore
	source   ChangeSource
	log      *zap.Logger
}

func NewWatcher(issues IssueStore, profiles ProfileStore, source ChangeSource, logger *zap.Logger) *Watcher {
	return &Watcher{issues: issues, profiles: profiles, source: source, log: logger}
}

// Watch opens a subscription for one project. The first snapshot is
// fetched before Watch returns; later snapshots follow store changes.
func (w *Watcher) Watch(ctx context.Context, projectID primitive.ObjectID) (*Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)

	changes, err := w.source.Changes(ctx, projectID)
	if err != nil {
		cancel()
		return nil, err
	}

	sub := &Subscription{
		updates: make(chan Snapshot, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	names := newNameCache()
	go w.loop(ctx, projectID, changes, sub, names)
	return sub, nil
}

// loop owns the updates channel: it emits the initial snapshot, then one
// per change signal, plus one whenever a name resolution lands.
func (w *Watcher) loop(ctx context.Context, projectID primitive.ObjectID, changes <-chan struct{}, sub *Subscription, names *nameCache) {
	defer close(sub.done)
	defer close(sub.updates)

	namesReady := make(chan struct{}, 1)

	var issues []models.Issue
	refetch := func() bool {
		fetched, err := w.issues.ListByProject(ctx, projectID)
		if err != nil {
			w.log.Warn("issue list fetch failed",
				zap.String("project_id", projectID.Hex()), zap.Error(err))
			return false
		}
		issues = fetched
		w.resolveNames(ctx, issues, names, namesReady)
		return true
	}

	emit := func() bool {
		if sub.canceled.Load() || ctx.Err() != nil {
			return false
		}
		snap := Snapshot{Issues: names.apply(issues), Counts: CountStatuses(issues)}
		select {
		case sub.updates <- snap:
			return true
		case <-ctx.Done():
			return false
		}
	}

	if refetch() {
		if !emit() {
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			if refetch() {
				if !emit() {
					return
				}
			}
		case <-namesReady:
			if !emit() {
				return
			}
		}
	}
}

// resolveNames kicks a background batch lookup for assignees not yet in
// the cache. Best effort: failures are logged and the snapshot ships
// without names.
func (w *Watcher) resolveNames(ctx context.Context, issues []models.Issue, names *nameCache, ready chan<- struct{}) {
	missing := names.missing(issues)
	if len(missing) == 0 {
		return
	}
	go func() {
		profiles, err := w.profiles.GetBatchByIDs(ctx, missing)
		if err != nil {
			w.log.Warn("assignee name resolution failed", zap.Error(err))
			return
		}
		names.put(profiles)
		select {
		case ready <- struct{}{}:
		default:
		}
	}()
}

// nameCache maps assignee IDs to display names across snapshots.
type nameCache struct {
	mu    sync.Mutex
	names map[primitive.ObjectID]string
}

func newNameCache() *nameCache {
	return &nameCache{names: make(map[primitive.ObjectID]string)}
}

func (c *nameCache) missing(issues []models.Issue) []primitive.ObjectID {
	c.mu.Lock()
	defer c.mu.Unlock()
	seen := make(map[primitive.ObjectID]bool)
	var out []primitive.ObjectID
	for i := range issues {
		id := issues[i].AssigneeID
		if id == nil || seen[*id] {
			continue
		}
		seen[*id] = true
		if _, ok := c.names[*id]; !ok {
			out = append(out, *id)
		}
	}
	return out
}

func (c *nameCache) put(profiles []models.Profile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range profiles {
		c.names[profiles[i].ID] = profiles[i].FullName
	}
}

// apply returns a copy of issues with assignee names filled from the
// cache where known.
func (c *nameCache) apply(issues []models.Issue) []models.Issue {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Issue, len(issues))
	copy(out, issues)
	for i := range out {
		if out[i].AssigneeID == nil {
			continue
		}
		if name, ok := c.names[*out[i].AssigneeID]; ok {
			out[i].AssigneeName = name
		}
	}
	return out
}
