/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package events fans render commands out to connected renderers.
package events

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/friendsincode/lessonboard/internal/render"
	"github.com/friendsincode/lessonboard/internal/telemetry"
)

// subscriberBuffer is the per-subscriber channel depth. A subscriber that falls this far behind
// is evicted: its channel is closed so the renderer reconnects and resyncs from the replay.
const subscriberBuffer = 64

// Subscriber receives commands published after it subscribed.
type Subscriber struct {
	ID string
	C  <-chan render.Command

	ch chan render.Command
}

// Bus numbers commands, remembers the latest one per key and fans them out to subscribers.
// It implements render.Sink.
type Bus struct {
	mu     sync.Mutex
	seq    uint64
	latest map[string]render.Command
	subs   map[string]*Subscriber
	drops  uint64
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		latest: make(map[string]render.Command),
		subs:   make(map[string]*Subscriber),
	}
}

// Emit implements render.Sink.
func (b *Bus) Emit(cmd render.Command) {
	b.Publish(cmd)
}

// Publish stamps cmd with the next sequence number and delivers it without blocking.
func (b *Bus) Publish(cmd render.Command) render.Command {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	cmd.Seq = b.seq
	b.latest[cmd.Key()] = cmd
	telemetry.RenderCommandsTotal.WithLabelValues(string(cmd.Kind)).Inc()

	for id, sub := range b.subs {
		select {
		case sub.ch <- cmd:
		default:
			b.drops++
			delete(b.subs, id)
			close(sub.ch)
			telemetry.RendererEvictionsTotal.Inc()
		}
	}
	return cmd
}

// Subscribe registers a subscriber and returns the current snapshot, in sequence order,
// so the caller can bring a fresh renderer up to date before reading from C.
func (b *Bus) Subscribe() (*Subscriber, []render.Command) {
	ch := make(chan render.Command, subscriberBuffer)
	sub := &Subscriber{ID: uuid.NewString(), C: ch, ch: ch}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[sub.ID] = sub
	return sub, b.snapshotLocked()
}

// Unsubscribe removes sub and closes its channel.
func (b *Bus) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub.ID]; !ok {
		return
	}
	delete(b.subs, sub.ID)
	close(sub.ch)
}

// Snapshot returns the latest command for every key, in sequence order.
func (b *Bus) Snapshot() []render.Command {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

func (b *Bus) snapshotLocked() []render.Command {
	out := make([]render.Command, 0, len(b.latest))
	for _, cmd := range b.latest {
		out = append(out, cmd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// Subscribers returns the number of registered subscribers.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Dropped returns how many subscribers were evicted because their buffer was full.
func (b *Bus) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.drops
}
