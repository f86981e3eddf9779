package schedule

import (
	"context"
	"time"

	"calsync/internal/persist"
	"calsync/pkg/logging"
)

// Storage keys of the app stores.
const (
	ProcessedDataKey = "processedData"
	UserSettingsKey  = "userSettings"
	ICSURLKey        = "icsUrl"
)

// Stores groups the persistent app state.
type Stores struct {
	ProcessedData *persist.Store[[]TermData]
	UserSettings  *persist.Store[UserSettings]
	ICSURL        *persist.Store[string]
}

// StoresOption configures NewStores.
type StoresOption func(*storesConfig)

type storesConfig struct {
	writeTimeout time.Duration
}

// WithWriteTimeout bounds every durable write of the stores. Zero means no
// bound.
func WithWriteTimeout(d time.Duration) StoresOption {
	return func(c *storesConfig) {
		c.writeTimeout = d
	}
}

// NewStores builds the app stores on p. A nil p yields memory-only stores.
// Writes are bounded by persist.DefaultWriteTimeout unless overridden.
func NewStores(p persist.Persister, sink logging.Sink, opts ...StoresOption) *Stores {
	if sink == nil {
		sink = logging.Default()
	}
	cfg := storesConfig{writeTimeout: persist.DefaultWriteTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Stores{
		ProcessedData: persist.New(ProcessedDataKey, p, persist.Some([]TermData{}),
			persist.WithCodec[[]TermData](persist.ArrayCodec[[]TermData]{}),
			persist.WithSink[[]TermData](sink),
			persist.WithWriteTimeout[[]TermData](cfg.writeTimeout)),
		UserSettings: persist.New(UserSettingsKey, p, persist.None[UserSettings](),
			persist.WithSink[UserSettings](sink),
			persist.WithWriteTimeout[UserSettings](cfg.writeTimeout)),
		ICSURL: persist.New(ICSURLKey, p, persist.None[string](),
			persist.WithCodec[string](persist.StringCodec{}),
			persist.WithSink[string](sink),
			persist.WithWriteTimeout[string](cfg.writeTimeout)),
	}
}

// Clear removes every store from durable storage and unsets it in memory.
// It stops at the first failure.
func (s *Stores) Clear(ctx context.Context) error {
	if err := s.ProcessedData.Clear(ctx); err != nil {
		return err
	}
	if err := s.UserSettings.Clear(ctx); err != nil {
		return err
	}
	return s.ICSURL.Clear(ctx)
}

// Hydrate loads all stores from durable storage. It never fails; see
// persist.Store.Hydrate.
func (s *Stores) Hydrate(ctx context.Context) {
	s.ProcessedData.Hydrate(ctx)
	s.UserSettings.Hydrate(ctx)
	s.ICSURL.Hydrate(ctx)
}

// Term returns the processed data for termID.
func (s *Stores) Term(termID string) (ResponseData, bool) {
	all, _ := s.ProcessedData.Get()
	for _, td := range all {
		if td.TermID == termID {
			return td.ResponseData, true
		}
	}
	return ResponseData{}, false
}

// PutTerm replaces or appends the processed data for termID.
func (s *Stores) PutTerm(termID string, data ResponseData) {
	s.ProcessedData.Update(func(all []TermData, _ bool) []TermData {
		next := make([]TermData, 0, len(all)+1)
		replaced := false
		for _, td := range all {
			if td.TermID == termID {
				td.ResponseData = data
				replaced = true
			}
			next = append(next, td)
		}
		if !replaced {
			next = append(next, TermData{TermID: termID, ResponseData: data})
		}
		return next
	})
}
