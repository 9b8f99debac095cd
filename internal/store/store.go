package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/kalakriti/commerce-engine/internal/storage"
	pkgerrors "github.com/kalakriti/commerce-engine/pkg/errors"
	"github.com/kalakriti/commerce-engine/pkg/logger"
	"github.com/kalakriti/commerce-engine/pkg/metrics"
	"go.uber.org/multierr"
)

// Listener receives the post-mutation snapshot after every successful write.
type Listener[T any] func(T)

// Options configures a persistent store instance.
type Options[T any] struct {
	Backend storage.Backend
	// Key is the fully namespaced durable key, e.g. "kalakriti:cart".
	Key string
	// Name labels metrics and log entries; defaults to Key.
	Name string
	// Default produces the value served when the key is missing or the
	// stored payload fails parsing/validation.
	Default func() T
	// Validate gates both reads and writes. A nil predicate accepts everything.
	Validate func(T) bool
	// OnError receives non-fatal warnings (corrupt payloads, listener
	// panics, deferred write failures). Never invoked with nil.
	OnError func(error)

	Logger  *logger.Logger
	Metrics *metrics.StoreMetrics

	// Debounce collapses rapid successive writes into one durable write,
	// always keeping the most recent value. Zero writes through immediately.
	Debounce time.Duration
}

// Store is a persisted, validated, observable container for a single value.
// Reads fall back to the default on any corruption; writes are rejected by
// the validator before touching durable state; every successful mutation
// synchronously fans out to subscribers.
type Store[T any] struct {
	backend  storage.Backend
	key      string
	name     string
	def      func() T
	validate func(T) bool
	onError  func(error)
	logg     *logger.Logger
	metrics  *metrics.StoreMetrics
	debounce time.Duration

	mu      sync.Mutex
	subs    map[int]Listener[T]
	nextSub int

	// pending holds the serialized value of a debounced write awaiting
	// flush; gen counts captures and clears so a flush that lost the race
	// can tell its payload is stale.
	pending  []byte
	gen      uint64
	flushTmr *time.Timer

	// writeMu serializes durable writes against Clear so a late flush can
	// never land after the delete.
	writeMu sync.Mutex
}

func New[T any](opts Options[T]) (*Store[T], error) {
	if opts.Backend == nil {
		return nil, fmt.Errorf("storage backend is required")
	}
	if opts.Key == "" {
		return nil, fmt.Errorf("durable key is required")
	}
	if opts.Default == nil {
		return nil, fmt.Errorf("default factory is required")
	}
	name := opts.Name
	if name == "" {
		name = opts.Key
	}
	return &Store[T]{
		backend:  opts.Backend,
		key:      opts.Key,
		name:     name,
		def:      opts.Default,
		validate: opts.Validate,
		onError:  opts.OnError,
		logg:     opts.Logger,
		metrics:  opts.Metrics,
		debounce: opts.Debounce,
		subs:     map[int]Listener[T]{},
	}, nil
}

// Key returns the durable key this store owns.
func (s *Store[T]) Key() string {
	return s.key
}

// Get reads durable storage, parses and validates the payload, and returns
// the configured default on a missing key, parse failure, or validation
// failure. It never returns partially-parsed data.
func (s *Store[T]) Get(ctx context.Context) T {
	s.metrics.IncRead(s.name)

	s.mu.Lock()
	if s.pending != nil {
		payload := s.pending
		s.mu.Unlock()
		// decode a fresh copy so callers cannot mutate the pending write
		var value T
		if err := json.Unmarshal(payload, &value); err != nil {
			s.metrics.IncFallback(s.name)
			return s.def()
		}
		return value
	}
	s.mu.Unlock()

	payload, ok, err := s.backend.Get(ctx, s.key)
	if err != nil {
		s.report(ctx, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read durable storage"))
		s.metrics.IncFallback(s.name)
		return s.def()
	}
	if !ok {
		return s.def()
	}

	var value T
	if err := json.Unmarshal(payload, &value); err != nil {
		s.report(ctx, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "corrupt payload, serving default"))
		s.metrics.IncFallback(s.name)
		return s.def()
	}
	if s.validate != nil && !s.validate(value) {
		s.report(ctx, pkgerrors.New(pkgerrors.CodeValidation, "stored payload failed validation, serving default"))
		s.metrics.IncFallback(s.name)
		return s.def()
	}
	return value
}

// Set validates the candidate value, persists it, and synchronously notifies
// every subscriber with the new value. A failed validation fails the write
// and leaves prior durable state untouched.
func (s *Store[T]) Set(ctx context.Context, value T) error {
	if s.validate != nil && !s.validate(value) {
		s.metrics.IncValidationFailure(s.name)
		return pkgerrors.New(pkgerrors.CodeValidation, "value rejected by store validator")
	}

	payload, err := json.Marshal(value)
	if err != nil {
		s.metrics.IncValidationFailure(s.name)
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "serialize value")
	}

	if s.debounce > 0 {
		s.schedule(payload)
	} else {
		start := time.Now()
		s.writeMu.Lock()
		err := s.backend.Set(ctx, s.key, payload)
		s.writeMu.Unlock()
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write durable storage")
		}
		s.metrics.ObserveWriteDuration(s.name, time.Since(start))
	}

	s.metrics.IncWrite(s.name)
	s.notify(ctx, value)
	return nil
}

// Update applies fn to the current value and persists the result. It is
// atomic with respect to this store's own writes, not across processes.
func (s *Store[T]) Update(ctx context.Context, fn func(T) T) error {
	if fn == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "update function is required")
	}
	return s.Set(ctx, fn(s.Get(ctx)))
}

// Clear removes the durable entry and notifies subscribers with the default.
// Bumping gen invalidates any flush already in flight, so a debounced value
// captured before the clear can never resurrect the key afterwards.
func (s *Store[T]) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.pending = nil
	s.gen++
	if s.flushTmr != nil {
		s.flushTmr.Stop()
		s.flushTmr = nil
	}
	s.mu.Unlock()

	s.writeMu.Lock()
	err := s.backend.Delete(ctx, s.key)
	s.writeMu.Unlock()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear durable storage")
	}
	s.notify(ctx, s.def())
	return nil
}

// Subscribe registers a listener and returns its unsubscribe function.
// Listeners are invoked synchronously, in no particular order, with the
// post-mutation value; a panicking listener never blocks the rest.
func (s *Store[T]) Subscribe(fn Listener[T]) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Flush forces any debounced value to durable storage immediately. The write
// happens under writeMu and only if no newer capture or clear superseded the
// payload, preserving last-write-wins ordering.
func (s *Store[T]) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.flushTmr != nil {
		s.flushTmr.Stop()
		s.flushTmr = nil
	}
	if s.pending == nil {
		s.mu.Unlock()
		return nil
	}
	payload := s.pending
	gen := s.gen
	s.pending = nil
	s.mu.Unlock()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	stale := s.gen != gen
	s.mu.Unlock()
	if stale {
		return nil
	}

	start := time.Now()
	if err := s.backend.Set(ctx, s.key, payload); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flush durable storage")
	}
	s.metrics.ObserveWriteDuration(s.name, time.Since(start))
	return nil
}

func (s *Store[T]) schedule(payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = payload
	s.gen++
	if s.flushTmr != nil {
		s.flushTmr.Stop()
	}
	s.flushTmr = time.AfterFunc(s.debounce, func() {
		if err := s.Flush(context.Background()); err != nil {
			s.report(context.Background(), err)
		}
	})
}

func (s *Store[T]) notify(ctx context.Context, value T) {
	s.mu.Lock()
	listeners := make([]Listener[T], 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	var failures error
	for _, fn := range listeners {
		failures = multierr.Append(failures, callListener(fn, value))
	}
	if failures != nil {
		s.report(ctx, pkgerrors.Wrap(pkgerrors.CodeInternal, failures, "subscriber notification"))
	}
}

func callListener[T any](fn Listener[T], value T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panic: %v", r)
		}
	}()
	fn(value)
	return nil
}

func (s *Store[T]) report(ctx context.Context, err error) {
	if s.logg != nil {
		s.logg.Warn(s.logg.WithStoreKey(ctx, s.key), err.Error())
	}
	if s.onError != nil {
		s.onError(err)
	}
}
