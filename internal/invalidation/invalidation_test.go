package invalidation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCache struct {
	prefixes []string
}

func (f *fakeCache) InvalidateByPrefix(prefix string) {
	f.prefixes = append(f.prefixes, prefix)
}

type fakeHub struct {
	users []uuid.UUID
	err   error
}

func (f *fakeHub) BroadcastToUser(userID uuid.UUID, event string, data any) error {
	f.users = append(f.users, userID)
	return f.err
}

type fakePublisher struct {
	mu        sync.Mutex
	keys      []string
	deadlines []bool
	calls     chan struct{}
}

func (f *fakePublisher) Publish(ctx context.Context, key, value []byte) error {
	f.mu.Lock()
	f.keys = append(f.keys, string(key))
	_, ok := ctx.Deadline()
	f.deadlines = append(f.deadlines, ok)
	f.mu.Unlock()
	f.calls <- struct{}{}
	return nil
}

func TestDispatcher_FansOut(t *testing.T) {
	cache := &fakeCache{}
	hub := &fakeHub{}
	pub := &fakePublisher{calls: make(chan struct{}, 1)}
	d := NewDispatcher(cache, hub, pub)

	buyer, seller := uuid.New(), uuid.New()
	id := uuid.New()
	d.Notify(context.Background(), Signal{
		Entity:   "order",
		EntityID: id,
		Action:   "approve",
		Paths:    []string{"/api/orders/" + id.String(), "/api/my/orders"},
		UserIDs:  []uuid.UUID{buyer, seller, buyer, uuid.Nil},
	})

	assert.Equal(t, []string{"view:/api/orders/" + id.String(), "view:/api/my/orders"}, cache.prefixes)
	assert.Equal(t, []uuid.UUID{buyer, seller}, hub.users)

	select {
	case <-pub.calls:
	case <-time.After(time.Second):
		t.Fatal("событие не опубликовано")
	}
	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.keys, 1)
	assert.Equal(t, id.String(), pub.keys[0])
	assert.True(t, pub.deadlines[0], "публикация должна идти с таймаутом")
}

func TestDispatcher_HubErrorIsNotFatal(t *testing.T) {
	hub := &fakeHub{err: errors.New("offline")}
	d := NewDispatcher(nil, hub, nil)

	assert.NotPanics(t, func() {
		d.Notify(context.Background(), Signal{Entity: "job", UserIDs: []uuid.UUID{uuid.New()}})
	})
	assert.Len(t, hub.users, 1)
}

func TestViewKey(t *testing.T) {
	assert.Equal(t, "view:/api/listings", ViewKey("/api/listings", ""))
	assert.Equal(t, "view:/api/listings?page=2", ViewKey("/api/listings", "page=2"))
}
