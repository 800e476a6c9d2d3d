package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/goliatone/go-formengine/pkg/state"
)

const (
	// DefaultTTL is how long a snapshot stays usable after its last save.
	DefaultTTL = time.Hour
	// DefaultKeyPrefix is prepended to the form id to build the store key.
	DefaultKeyPrefix = "form_"
)

// Snapshot is the stored record: the value mapping and the save time in
// milliseconds since the Unix epoch.
type Snapshot struct {
	Data      state.Values `json:"data"`
	Timestamp int64        `json:"timestamp"`
}

// Bridge encodes snapshots for one Store and enforces the TTL on read.
type Bridge struct {
	store  Store
	ttl    time.Duration
	prefix string
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithTTL overrides DefaultTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(b *Bridge) {
		if ttl > 0 {
			b.ttl = ttl
		}
	}
}

// WithKeyPrefix overrides DefaultKeyPrefix.
func WithKeyPrefix(prefix string) Option {
	return func(b *Bridge) {
		b.prefix = prefix
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(b *Bridge) {
		if now != nil {
			b.now = now
		}
	}
}

// WithLogger sets the logger used for malformed snapshots.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBridge builds a Bridge over store.
func NewBridge(store Store, opts ...Option) *Bridge {
	b := &Bridge{
		store:  store,
		ttl:    DefaultTTL,
		prefix: DefaultKeyPrefix,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Key returns the store key for formID.
func (b *Bridge) Key(formID string) string { return b.prefix + formID }

// TTL returns the configured expiration window.
func (b *Bridge) TTL() time.Duration { return b.ttl }

// Load returns the stored mapping for formID and whether a usable snapshot
// existed. Expired snapshots are deleted. Malformed snapshots are logged and
// reported as absent. The error is non-nil only for store failures.
func (b *Bridge) Load(ctx context.Context, formID string) (state.Values, bool, error) {
	key := b.Key(formID)
	raw, err := b.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil || snap.Data == nil {
		b.logger.Warn("ignoring malformed form snapshot",
			slog.String("key", key),
			slog.Any("error", err))
		return nil, false, nil
	}

	age := b.now().Sub(time.UnixMilli(snap.Timestamp))
	if age > b.ttl {
		if err := b.store.Delete(ctx, key); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	return snap.Data, true, nil
}

// Save writes values stamped with the bridge clock.
func (b *Bridge) Save(ctx context.Context, formID string, values state.Values) error {
	data := values
	if data == nil {
		data = state.Values{}
	}
	raw, err := json.Marshal(Snapshot{Data: data, Timestamp: b.now().UnixMilli()})
	if err != nil {
		return err
	}
	return b.store.Put(ctx, b.Key(formID), raw)
}

// Clear removes the snapshot for formID.
func (b *Bridge) Clear(ctx context.Context, formID string) error {
	return b.store.Delete(ctx, b.Key(formID))
}
