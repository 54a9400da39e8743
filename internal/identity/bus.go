package identity

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/angelmondragon/mallrent-backend/pkg/logger"
)

// Publisher pushes session events to listeners.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// Bus delivers events in-process, synchronously and in publication order.
// Handlers must not publish from inside a delivery.
type Bus struct {
	deliver sync.Mutex

	mu   sync.RWMutex
	subs map[uint64]func(Event)
	next uint64
}

func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]func(Event))}
}

// Subscribe registers fn and returns its unsubscribe func.
func (b *Bus) Subscribe(fn func(Event)) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

func (b *Bus) Publish(_ context.Context, ev Event) {
	b.deliver.Lock()
	defer b.deliver.Unlock()
	for _, fn := range b.snapshot() {
		fn(ev)
	}
}

func (b *Bus) snapshot() []func(Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ids := make([]uint64, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		out = append(out, b.subs[id])
	}
	return out
}

type redisPubSub interface {
	Publish(ctx context.Context, channel string, payload any) error
	Subscribe(ctx context.Context, channel string) (<-chan string, error)
	ChannelName(topic string) string
}

// RedisBus mirrors local events to other processes over redis pub/sub and
// replays remote events locally. Tokens never leave the process.
type RedisBus struct {
	*Bus
	redis   redisPubSub
	channel string
	origin  string
	logg    *logger.Logger
}

func NewRedisBus(local *Bus, client redisPubSub, origin string, logg *logger.Logger) *RedisBus {
	if local == nil {
		local = NewBus()
	}
	return &RedisBus{
		Bus:     local,
		redis:   client,
		channel: client.ChannelName("session"),
		origin:  origin,
		logg:    logg,
	}
}

func (b *RedisBus) Publish(ctx context.Context, ev Event) {
	ev.Origin = b.origin
	b.Bus.Publish(ctx, ev)

	remote := ev
	remote.Session = nil
	payload, err := json.Marshal(remote)
	if err != nil {
		b.logError(ctx, "session_event.encode_failed", err)
		return
	}
	if err := b.redis.Publish(ctx, b.channel, string(payload)); err != nil {
		b.logError(ctx, "session_event.publish_failed", err)
	}
}

// Listen relays remote events into the local bus until ctx is done.
func (b *RedisBus) Listen(ctx context.Context) error {
	msgs, err := b.redis.Subscribe(ctx, b.channel)
	if err != nil {
		return err
	}
	for payload := range msgs {
		var ev Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			b.logError(ctx, "session_event.decode_failed", err)
			continue
		}
		if ev.Origin == b.origin {
			continue
		}
		b.Bus.Publish(ctx, ev)
	}
	return ctx.Err()
}

func (b *RedisBus) logError(ctx context.Context, msg string, err error) {
	if b.logg == nil {
		return
	}
	b.logg.Error(ctx, msg, err)
}
