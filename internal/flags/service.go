package flags

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"calsync/internal/observable"
	"calsync/pkg/logging"
)

const (
	subsystem = "Flags"
	loadKey   = "load"
)

// Service caches the flag catalogue. Concurrent unforced loads share one
// set of checks; the cache is replaced wholesale by each completed load.
type Service struct {
	checker     Checker
	catalogue   []Name
	sink        logging.Sink
	concurrency int

	group singleflight.Group

	mu        sync.Mutex
	cache     State
	nextSeq   uint64
	committed uint64

	activeMu sync.Mutex
	active   int

	// Observables are fed after mu and activeMu are released.
	flags      *observable.Value[State]
	loading    *observable.Value[bool]
	err        *observable.Value[error]
	flagsPub   *observable.Publisher[State]
	loadingPub *observable.Publisher[bool]
}

// Option configures a Service.
type Option func(*Service)

// WithCatalogue replaces DefaultCatalogue.
func WithCatalogue(names ...Name) Option {
	return func(s *Service) {
		s.catalogue = lo.Uniq(names)
	}
}

// WithSink sets where per-flag and load failures are reported.
func WithSink(sink logging.Sink) Option {
	return func(s *Service) {
		s.sink = sink
	}
}

// WithConcurrency bounds concurrent checks within a load. Zero or less means
// unbounded.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		s.concurrency = n
	}
}

// New returns an empty Service.
func New(checker Checker, opts ...Option) *Service {
	s := &Service{
		checker:   checker,
		catalogue: DefaultCatalogue,
		sink:      logging.Default(),
		flags:     observable.NewValue[State](nil),
		loading:   observable.NewValue(false),
		err:       observable.NewValue[error](nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.flagsPub = observable.NewPublisher(s.flags, func() State {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.cache.Clone()
	}, nil)
	s.loadingPub = observable.NewPublisher(s.loading, s.running, func(a, b bool) bool { return a == b })
	return s
}

// Catalogue returns the checked flag names.
func (s *Service) Catalogue() []Name {
	return append([]Name(nil), s.catalogue...)
}

// State reports the cache's lifecycle state.
func (s *Service) State() LoadState {
	running := s.running()

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case running:
		return Loading
	case s.cache != nil:
		return Ready
	default:
		return Empty
	}
}

// Load returns the flag snapshot. Without force it joins a load in flight,
// or returns the cache without any check when one exists. Otherwise it runs
// one check per catalogue flag; failed checks count as false.
//
// A failure to prepare the load is returned, published on Err and leaves
// the previous cache in place; the previous snapshot is returned with it.
// A load overtaken by a later one that already committed is discarded and
// its callers get the later snapshot.
func (s *Service) Load(ctx context.Context, force bool) (State, error) {
	// Joiners share the leader's load, so it must outlive any one caller.
	loadCtx := context.WithoutCancel(ctx)

	var v any
	var err error
	if force {
		s.group.Forget(loadKey)
		v, err, _ = s.group.Do(loadKey, func() (any, error) {
			return s.fetch(loadCtx)
		})
	} else {
		v, err, _ = s.group.Do(loadKey, func() (any, error) {
			if cached, ok := s.republish(); ok {
				return cached, nil
			}
			return s.fetch(loadCtx)
		})
	}

	state, _ := v.(State)
	return state.Clone(), err
}

// Reload forces a fresh load.
func (s *Service) Reload(ctx context.Context) (State, error) {
	return s.Load(ctx, true)
}

func (s *Service) cached() (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Clone(), s.cache != nil
}

// republish publishes the cache again when there is one.
func (s *Service) republish() (State, bool) {
	cached, ok := s.cached()
	if ok {
		s.flagsPub.Publish()
	}
	return cached, ok
}

func (s *Service) fetch(ctx context.Context) (State, error) {
	loadID := uuid.NewString()

	s.mu.Lock()
	s.nextSeq++
	seq := s.nextSeq
	s.mu.Unlock()

	s.start()
	defer s.finish()

	s.sink.Debug(subsystem, "Load %s started (seq=%d, flags=%d)", loadID, seq, len(s.catalogue))

	check, err := s.checker.Prepare(ctx)
	if err != nil {
		return s.fail(loadID, seq, err)
	}

	results := s.checkAll(ctx, check)
	state := make(State, len(results))
	for _, r := range results {
		if r.Err != nil {
			s.sink.Warn(subsystem, r.Err, "Load %s: flag %s defaults to disabled", loadID, r.Name)
		}
		state[r.Name] = r.Enabled
	}

	return s.commit(loadID, seq, state), nil
}

func (s *Service) checkAll(ctx context.Context, check CheckFunc) []CheckResult {
	results := make([]CheckResult, len(s.catalogue))

	var g errgroup.Group
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}
	for i, name := range s.catalogue {
		g.Go(func() error {
			enabled, err := check(ctx, name)
			results[i] = CheckResult{Name: name, Enabled: enabled && err == nil, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (s *Service) commit(loadID string, seq uint64, state State) State {
	s.mu.Lock()
	if committed := s.committed; seq < committed {
		newer := s.cache.Clone()
		s.mu.Unlock()
		s.sink.Debug(subsystem, "Load %s (seq=%d) overtaken by seq=%d, discarded", loadID, seq, committed)
		return newer
	}
	s.committed = seq
	s.cache = state
	s.mu.Unlock()

	s.flagsPub.Publish()
	s.sink.Debug(subsystem, "Load %s committed (seq=%d)", loadID, seq)
	return state.Clone()
}

func (s *Service) fail(loadID string, seq uint64, err error) (State, error) {
	s.mu.Lock()
	stale := seq < s.committed
	previous := s.cache.Clone()
	s.mu.Unlock()

	if stale {
		s.sink.Debug(subsystem, "Load %s (seq=%d) failed after a newer load committed, ignored", loadID, seq)
		return previous, nil
	}

	s.sink.Warn(subsystem, err, "Load %s failed, keeping previous flags", loadID)
	s.err.Set(err)
	return previous, err
}

func (s *Service) start() {
	s.activeMu.Lock()
	s.active++
	s.activeMu.Unlock()

	s.loadingPub.Publish()
	s.err.Set(nil)
}

func (s *Service) finish() {
	s.activeMu.Lock()
	s.active--
	s.activeMu.Unlock()

	s.loadingPub.Publish()
}

func (s *Service) running() bool {
	s.activeMu.Lock()
	defer s.activeMu.Unlock()
	return s.active > 0
}

// IsEnabled reports flag name, loading the cache first if it is empty.
// Unknown flags and failed loads read as false.
func (s *Service) IsEnabled(ctx context.Context, name Name) bool {
	s.ensureLoaded(ctx)
	return s.IsEnabledSync(name)
}

// IsEnabledSync reports flag name from the cache without any I/O.
func (s *Service) IsEnabledSync(name Name) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache[name]
}

// CheckMultiple reports each of names after at most one load.
func (s *Service) CheckMultiple(ctx context.Context, names ...Name) map[Name]bool {
	s.ensureLoaded(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.SliceToMap(names, func(n Name) (Name, bool) {
		return n, s.cache[n]
	})
}

// AllFlags returns a copy of the full catalogue's values, loading the cache
// first if it is empty.
func (s *Service) AllFlags(ctx context.Context) State {
	s.ensureLoaded(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.SliceToMap(s.catalogue, func(n Name) (Name, bool) {
		return n, s.cache[n]
	})
}

// ClearCache drops the cache and publishes an empty snapshot.
func (s *Service) ClearCache() {
	s.mu.Lock()
	s.cache = nil
	s.mu.Unlock()

	s.flagsPub.Publish()
}

func (s *Service) ensureLoaded(ctx context.Context) {
	if _, ok := s.cached(); ok {
		return
	}
	// Errors are already published on Err; readers default closed.
	_, _ = s.Load(ctx, false)
}

// Flags publishes the cache snapshot; nil while empty.
//
// Subscribers run with no Service lock held and may call any reader as well
// as ClearCache. They must not call Load or Reload: a load is still running
// while its result is published, and a joining call would wait for itself.
func (s *Service) Flags() observable.Readable[State] {
	return s.flags
}

// Loading publishes whether a load is running. Subscribers may call State
// and the readers; see Flags for what they must not call.
func (s *Service) Loading() observable.Readable[bool] {
	return s.loading
}

// Err publishes the last load failure. It is reset when a load starts.
func (s *Service) Err() observable.Readable[error] {
	return s.err
}

// Flag publishes the value of one flag, false while unknown.
func (s *Service) Flag(name Name) observable.Readable[bool] {
	return observable.Map(s.Flags(), func(st State) bool {
		return st[name]
	})
}
