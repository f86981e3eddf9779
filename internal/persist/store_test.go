package persist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calsync/internal/kvstore"
	"calsync/pkg/logging"
)

type settings struct {
	Theme    string `json:"theme"`
	Reminder int    `json:"reminder"`
}

func newSettingsStore(p Persister, sink logging.Sink) *Store[settings] {
	return New[settings]("userSettings", p, None[settings](), WithSink[settings](sink))
}

func TestStore_HydrationAfterRestart(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()
	sink := &logging.RecordingSink{}

	first := newSettingsStore(NewKVPersister(kv), sink)
	first.Hydrate(ctx)
	first.Set(settings{Theme: "dark", Reminder: 15})

	// A new process hydrates from the same durable store.
	second := newSettingsStore(NewKVPersister(kv), sink)
	_, ok := second.Get()
	assert.False(t, ok, "not hydrated yet")

	second.Hydrate(ctx)
	got, ok := second.Get()
	require.True(t, ok)
	assert.Equal(t, settings{Theme: "dark", Reminder: 15}, got)
	assert.Empty(t, sink.Warnings())
}

func TestStore_UnsetIsNeverPersisted(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()

	first := newSettingsStore(NewKVPersister(kv), &logging.RecordingSink{})
	first.Set(settings{Theme: "light"})
	writes := kv.Writes()

	first.Unset()
	_, ok := first.Get()
	assert.False(t, ok)
	assert.Equal(t, writes, kv.Writes(), "Unset must not write")

	second := newSettingsStore(NewKVPersister(kv), &logging.RecordingSink{})
	second.Hydrate(ctx)
	got, ok := second.Get()
	require.True(t, ok)
	assert.Equal(t, "light", got.Theme)
}

func TestStore_EmptyValuesArePersisted(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()

	list := New[[]string]("processedData", NewKVPersister(kv), Some([]string{}), WithCodec[[]string](ArrayCodec[[]string]{}))
	list.Set([]string{"a"})
	list.Set([]string{})

	data, ok, err := kv.Get(ctx, "processedData")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "[]", string(data))

	var nilList []string
	list.Set(nilList)
	data, _, _ = kv.Get(ctx, "processedData")
	assert.Equal(t, "null", string(data), "nil is a value, distinct from unset")
}

func TestStore_HydrationFallsBack(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		stored     string
		failGet    error
		wantWarned bool
	}{
		{name: "absent key"},
		{name: "invalid json", stored: `{"theme":`, wantWarned: true},
		{name: "read failure", failGet: errors.New("storage unavailable"), wantWarned: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := kvstore.NewMemoryStore()
			if tt.stored != "" {
				require.NoError(t, kv.Set(ctx, "userSettings", []byte(tt.stored)))
			}
			kv.FailWith("get", tt.failGet)
			sink := &logging.RecordingSink{}

			s := New[settings]("userSettings", NewKVPersister(kv), Some(settings{Theme: "default"}), WithSink[settings](sink))
			s.Hydrate(ctx)

			got, ok := s.Get()
			require.True(t, ok)
			assert.Equal(t, "default", got.Theme)
			assert.Equal(t, tt.wantWarned, len(sink.Warnings()) > 0)

			select {
			case <-s.Hydrated():
			default:
				t.Error("Hydrated should be closed after Hydrate returns")
			}
		})
	}
}

func TestStore_ArrayCodecRejectsNonArrays(t *testing.T) {
	ctx := context.Background()

	for _, stored := range []string{`{"a":1}`, `"text"`, `null`} {
		t.Run(stored, func(t *testing.T) {
			kv := kvstore.NewMemoryStore()
			require.NoError(t, kv.Set(ctx, "processedData", []byte(stored)))

			s := New[[]int]("processedData", NewKVPersister(kv), Some([]int{}),
				WithCodec[[]int](ArrayCodec[[]int]{}),
				WithSink[[]int](&logging.RecordingSink{}))
			s.Hydrate(ctx)

			got, ok := s.Get()
			require.True(t, ok)
			assert.Equal(t, []int{}, got)
		})
	}
}

func TestStore_HydrateRunsOnce(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()
	require.NoError(t, kv.Set(ctx, "userSettings", []byte(`{"theme":"dark"}`)))

	s := newSettingsStore(NewKVPersister(kv), &logging.RecordingSink{})
	s.Hydrate(ctx)
	s.Set(settings{Theme: "light"})

	require.NoError(t, kv.Set(ctx, "userSettings", []byte(`{"theme":"other"}`)))
	s.Hydrate(ctx)

	got, _ := s.Get()
	assert.Equal(t, "light", got.Theme, "second Hydrate must not re-read storage")
}

func TestStore_NoPersister(t *testing.T) {
	s := New[string]("icsUrl", nil, None[string](), WithSink[string](&logging.RecordingSink{}))
	s.Hydrate(context.Background())
	s.Set("https://example.com/cal.ics")

	got, ok := s.Get()
	assert.True(t, ok)
	assert.Equal(t, "https://example.com/cal.ics", got)
	assert.NoError(t, s.LastWriteError())
}

func TestStore_WriteFailureKeepsMemoryValue(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	outage := errors.New("quota exceeded")
	kv.FailWith("set", outage)
	sink := &logging.RecordingSink{}

	s := newSettingsStore(NewKVPersister(kv), sink)
	s.Set(settings{Theme: "dark"})

	got, ok := s.Get()
	require.True(t, ok)
	assert.Equal(t, "dark", got.Theme)
	assert.ErrorIs(t, s.LastWriteError(), outage)
	require.Len(t, sink.Warnings(), 1)

	kv.FailWith("set", nil)
	s.Set(settings{Theme: "light"})
	assert.NoError(t, s.LastWriteError())
}

func TestStore_UpdateAndSubscribe(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	counter := New[int]("counter", NewKVPersister(kv), None[int]())

	var seen []Optional[int]
	stop := counter.Subscribe(func(o Optional[int]) { seen = append(seen, o) })
	defer stop()

	counter.Update(func(n int, ok bool) int {
		if !ok {
			return 1
		}
		return n + 1
	})
	counter.Update(func(n int, _ bool) int { return n + 1 })

	assert.Equal(t, []Optional[int]{None[int](), Some(1), Some(2)}, seen)

	data, _, _ := kv.Get(context.Background(), "counter")
	assert.Equal(t, "2", string(data))
}

func TestStringCodec(t *testing.T) {
	var c StringCodec

	data, err := c.Encode("https://example.com/a.ics")
	require.NoError(t, err)
	assert.Equal(t, `"https://example.com/a.ics"`, string(data))

	v, err := c.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a.ics", v)

	v, err = c.Decode([]byte("https://example.com/raw.ics"))
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/raw.ics", v)
}

func TestStringCodec_RejectsBlankText(t *testing.T) {
	var c StringCodec
	for _, raw := range []string{"", "  ", "\n"} {
		_, err := c.Decode([]byte(raw))
		assert.ErrorIs(t, err, ErrEmptyPayload, "%q", raw)
	}

	v, err := c.Decode([]byte(`""`))
	require.NoError(t, err)
	assert.Equal(t, "", v, "a JSON empty string is a value")
}

func TestStore_BlankLegacyStringStaysUnset(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()
	require.NoError(t, kv.Set(ctx, "icsUrl", []byte("")))
	sink := &logging.RecordingSink{}

	s := New[string]("icsUrl", NewKVPersister(kv), None[string](), WithCodec[string](StringCodec{}), WithSink[string](sink))
	s.Hydrate(ctx)

	_, ok := s.Get()
	assert.False(t, ok)
	assert.Empty(t, sink.Warnings())
}

func TestStore_SubscriberMayReadLastWriteError(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	outage := errors.New("quota exceeded")
	kv.FailWith("set", outage)
	s := newSettingsStore(NewKVPersister(kv), &logging.RecordingSink{})

	var seen []error
	stop := s.Subscribe(func(Optional[settings]) { seen = append(seen, s.LastWriteError()) })
	defer stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Set(settings{Theme: "dark"})
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Set did not return while a subscriber read LastWriteError")
	}

	require.Len(t, seen, 2)
	assert.NoError(t, seen[0])
	assert.ErrorIs(t, seen[1], outage, "subscribers see the result of the write")
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()
	s := New[string]("icsUrl", NewKVPersister(kv), None[string](), WithCodec[string](StringCodec{}))
	s.Set("https://example.com/a.ics")

	var seen []Optional[string]
	stop := s.Subscribe(func(o Optional[string]) { seen = append(seen, o) })
	defer stop()

	require.NoError(t, s.Clear(ctx))
	_, ok := s.Get()
	assert.False(t, ok)
	assert.Equal(t, []Optional[string]{Some("https://example.com/a.ics"), None[string]()}, seen)

	_, stored, err := kv.Get(ctx, "icsUrl")
	require.NoError(t, err)
	assert.False(t, stored)
}

func TestStore_ClearFailureKeepsValue(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	s := newSettingsStore(NewKVPersister(kv), &logging.RecordingSink{})
	s.Set(settings{Theme: "dark"})

	outage := errors.New("locked")
	kv.FailWith("remove", outage)
	err := s.Clear(context.Background())
	assert.ErrorIs(t, err, outage)

	got, ok := s.Get()
	require.True(t, ok)
	assert.Equal(t, "dark", got.Theme)
}

// stallingPersister blocks saves until their context ends.
type stallingPersister struct{ KVPersister }

func (p *stallingPersister) Save(ctx context.Context, key string, data []byte) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestStore_WriteTimeout(t *testing.T) {
	p := &stallingPersister{KVPersister{Store: kvstore.NewMemoryStore()}}
	s := New[int]("counter", p, None[int](),
		WithWriteTimeout[int](20*time.Millisecond),
		WithSink[int](&logging.RecordingSink{}))

	s.Set(1)

	got, ok := s.Get()
	require.True(t, ok)
	assert.Equal(t, 1, got)
	assert.ErrorIs(t, s.LastWriteError(), context.DeadlineExceeded)
}
