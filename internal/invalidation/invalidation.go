package invalidation

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/market-backend/internal/goroutine"
	"github.com/ignatzorin/market-backend/internal/logger"
)

// EventInvalidate имя websocket события для клиентов.
const EventInvalidate = "invalidate"

const viewKeyPrefix = "view:"

// Signal сообщает, какие представления устарели после изменения.
type Signal struct {
	Entity   string      `json:"entity"`
	EntityID uuid.UUID   `json:"entity_id"`
	Action   string      `json:"action"`
	Paths    []string    `json:"paths"`
	UserIDs  []uuid.UUID `json:"-"`
	At       time.Time   `json:"at"`
}

// Notifier получает сигнал после каждой успешной записи. Ошибки не возвращаются вызывающему.
type Notifier interface {
	Notify(ctx context.Context, signal Signal)
}

// Nop ничего не делает. Используется в тестах и когда сигнал не нужен.
type Nop struct{}

func (Nop) Notify(context.Context, Signal) {}

// ViewCache кэш представлений с очисткой по префиксу.
type ViewCache interface {
	InvalidateByPrefix(prefix string)
}

// UserBroadcaster отправка события конкретному пользователю.
type UserBroadcaster interface {
	BroadcastToUser(userID uuid.UUID, event string, data any) error
}

// EventPublisher внешняя шина событий.
type EventPublisher interface {
	Publish(ctx context.Context, key, value []byte) error
}

// Dispatcher рассылает сигнал по кэшу, вебсокетам и шине событий.
type Dispatcher struct {
	cache     ViewCache
	hub       UserBroadcaster
	publisher EventPublisher
	timeout   time.Duration
}

// NewDispatcher любой из получателей может быть nil.
func NewDispatcher(cache ViewCache, hub UserBroadcaster, publisher EventPublisher) *Dispatcher {
	return &Dispatcher{
		cache:     cache,
		hub:       hub,
		publisher: publisher,
		timeout:   5 * time.Second,
	}
}

func (d *Dispatcher) Notify(ctx context.Context, s Signal) {
	if s.At.IsZero() {
		s.At = time.Now()
	}

	if d.cache != nil {
		for _, path := range s.Paths {
			d.cache.InvalidateByPrefix(ViewKey(path, ""))
		}
	}

	if d.hub != nil {
		for _, userID := range uniqueUsers(s.UserIDs) {
			if err := d.hub.BroadcastToUser(userID, EventInvalidate, s); err != nil {
				logWarn(err, s, "invalidation: не удалось отправить событие в websocket")
			}
		}
	}

	if d.publisher != nil {
		d.publish(s)
	}
}

// publish не блокирует запрос: шина событий может быть недоступна.
func (d *Dispatcher) publish(s Signal) {
	payload, err := json.Marshal(s)
	if err != nil {
		logWarn(err, s, "invalidation: не удалось сериализовать событие")
		return
	}
	key := []byte(s.EntityID.String())

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	goroutine.SafeGoWithContext(ctx, "invalidation.publish", func(ctx context.Context) {
		defer cancel()
		if err := d.publisher.Publish(ctx, key, payload); err != nil {
			logWarn(err, s, "invalidation: не удалось опубликовать событие")
		}
	})
}

// ViewKey ключ кэша представления. Пустой query даёт префикс для очистки всех вариантов.
func ViewKey(path, query string) string {
	if query == "" {
		return viewKeyPrefix + path
	}
	return viewKeyPrefix + path + "?" + query
}

func uniqueUsers(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	result := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

func logWarn(err error, s Signal, msg string) {
	logger.Log.WithFields(logrus.Fields{
		"entity":    s.Entity,
		"entity_id": s.EntityID,
		"action":    s.Action,
		"error":     err.Error(),
	}).Warn(msg)
}
