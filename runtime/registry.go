package runtime

import (
	"context"
	"log/slog"
	"social-chat/contract"
	"social-chat/domain/chat"
	"sync"
	"time"
)

type Set map[contract.EventSink]struct{}

// group is the set of live sinks behind one key.
// A dead group has been reclaimed and must not receive new members.
type group struct {
	mu      sync.Mutex
	members Set
	dead    bool
}

// Registry maps group keys to the live sinks joined under them.
// The registry lock only guards the group map. Membership changes and
// deliveries are serialized per group by the group's own lock, so
// unrelated rooms never wait on each other.
type Registry struct {
	mu          sync.RWMutex
	groups      map[chat.GroupKey]*group
	log         *slog.Logger
	sinkTimeout time.Duration
}

func NewRegistry(log *slog.Logger, sinkTimeout time.Duration) *Registry {
	return &Registry{
		groups:      make(map[chat.GroupKey]*group),
		log:         log,
		sinkTimeout: sinkTimeout,
	}
}

// Join adds a sink to a group, creating the group on the fly.
// Joining twice is a no-op.
func (r *Registry) Join(key chat.GroupKey, sink contract.EventSink) {
	for {
		g := r.getOrCreate(key)
		g.mu.Lock()
		if g.dead {
			// Reclaimed between lookup and lock, a fresh group will be created
			g.mu.Unlock()
			continue
		}
		g.members[sink] = struct{}{}
		g.mu.Unlock()
		return
	}
}

// Leave removes a sink from a group. The group entry is removed as soon as
// it is empty so no dangling groups accumulate.
// Leaving a group you never joined is a no-op.
func (r *Registry) Leave(key chat.GroupKey, sink contract.EventSink) {
	g, ok := r.lookup(key)
	if !ok {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, member := g.members[sink]; !member {
		return
	}
	delete(g.members, sink)

	if len(g.members) == 0 && !g.dead {
		g.dead = true
		r.mu.Lock()
		if r.groups[key] == g {
			delete(r.groups, key)
		}
		r.mu.Unlock()
	}
}

// Broadcast delivers an event to every sink present in the group when the call starts.
// Deliveries for one group are serialized, which gives every member the same order.
// Each sink gets at most sinkTimeout; a slow sink misses the event instead of stalling the group.
// Broadcasting to an unknown or empty group returns immediately.
func (r *Registry) Broadcast(ctx context.Context, key chat.GroupKey, e chat.Event) {
	g, ok := r.lookup(key)
	if !ok {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for sink := range g.members {
		r.deliver(ctx, key, sink, e)
	}
}

func (r *Registry) deliver(ctx context.Context, key chat.GroupKey, sink contract.EventSink, e chat.Event) {
	sinkCtx := ctx
	if r.sinkTimeout > 0 {
		var cancel context.CancelFunc
		sinkCtx, cancel = context.WithTimeout(ctx, r.sinkTimeout)
		defer cancel()
	}
	if err := sink.Consume(sinkCtx, e); err != nil {
		r.log.Warn("Event dropped for sink", "group", key, "type", e.Type(), "error", err)
	}
}

// Members returns the number of sinks currently joined under key.
func (r *Registry) Members(key chat.GroupKey) int {
	g, ok := r.lookup(key)
	if !ok {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.members)
}

// Stats returns the number of live groups and the total number of memberships.
func (r *Registry) Stats() (groups int, connections int) {
	r.mu.RLock()
	snapshot := make([]*group, 0, len(r.groups))
	for _, g := range r.groups {
		snapshot = append(snapshot, g)
	}
	r.mu.RUnlock()

	for _, g := range snapshot {
		g.mu.Lock()
		connections += len(g.members)
		g.mu.Unlock()
	}
	return len(snapshot), connections
}

// Backlogs samples every member able to report a backlog.
// Reading a channel length never blocks the sink itself.
func (r *Registry) Backlogs() []contract.Backlog {
	r.mu.RLock()
	keys := make([]chat.GroupKey, 0, len(r.groups))
	snapshot := make([]*group, 0, len(r.groups))
	for key, g := range r.groups {
		keys = append(keys, key)
		snapshot = append(snapshot, g)
	}
	r.mu.RUnlock()

	var backlogs []contract.Backlog
	for i, g := range snapshot {
		g.mu.Lock()
		for sink := range g.members {
			if reporter, ok := sink.(contract.BacklogReporter); ok {
				length, capacity := reporter.Backlog()
				backlogs = append(backlogs, contract.Backlog{Group: keys[i], Length: length, Capacity: capacity})
			}
		}
		g.mu.Unlock()
	}
	return backlogs
}

func (r *Registry) lookup(key chat.GroupKey) (*group, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.groups[key]
	return g, ok
}

func (r *Registry) getOrCreate(key chat.GroupKey) *group {
	if g, ok := r.lookup(key); ok {
		return g
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.groups[key]; ok {
		return g
	}
	g := &group{members: make(Set)}
	r.groups[key] = g
	return g
}
