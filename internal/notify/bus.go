package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Handler consumes a notification. It should be fast and non-blocking.
// If it panics, the bus recovers and logs.
type Handler func(Notification)

// Bus is an in-process fan-out sink so indexers and dashboards running in
// the same process can subscribe to registry changes.
type Bus struct {
	logger *zap.Logger
	mu     sync.RWMutex
	subs   map[ChangeKind][]Handler
	all    []Handler
}

// NewBus creates an in-memory notification bus.
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		logger: logger.Named("notify_bus"),
		subs:   make(map[ChangeKind][]Handler),
	}
}

// Subscribe registers a handler for one change kind.
func (b *Bus) Subscribe(kind ChangeKind, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[kind] = append(b.subs[kind], handler)
}

// SubscribeAll registers a handler for every change kind.
func (b *Bus) SubscribeAll(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, handler)
}

// Publish delivers the notification to all matching handlers.
func (b *Bus) Publish(ctx context.Context, n Notification) error {
	b.mu.RLock()
	handlers := append([]Handler{}, b.all...)
	handlers = append(handlers, b.subs[n.Kind]...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("notification handler panic",
						zap.Any("recover", r),
						zap.String("kind", string(n.Kind)),
						zap.Uint64("asset_id", n.AssetID))
				}
			}()
			h(n)
		}(handler)
	}
	return nil
}

// LogSink logs every notification; the default sink in development.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a zap-backed sink.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger.Named("notify")}
}

func (s *LogSink) Publish(ctx context.Context, n Notification) error {
	s.logger.Info("asset changed",
		zap.String("notification_id", n.ID.String()),
		zap.Uint64("asset_id", n.AssetID),
		zap.String("kind", string(n.Kind)),
		zap.Int("fields", len(n.Fields)))
	return nil
}
