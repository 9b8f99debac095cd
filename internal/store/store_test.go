package store

import (
	"context"
	"testing"
	"time"

	"github.com/kalakriti/commerce-engine/internal/storage"
	pkgerrors "github.com/kalakriti/commerce-engine/pkg/errors"
)

func newStringsStore(t *testing.T, backend storage.Backend, opts func(*Options[[]string])) *Store[[]string] {
	t.Helper()
	options := Options[[]string]{
		Backend: backend,
		Key:     "kalakriti:test",
		Default: func() []string { return []string{} },
		Validate: func(v []string) bool {
			for _, s := range v {
				if s == "" {
					return false
				}
			}
			return true
		},
	}
	if opts != nil {
		opts(&options)
	}
	st, err := New(options)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return st
}

func TestNewRequiresBackendKeyDefault(t *testing.T) {
	if _, err := New(Options[int]{Key: "k", Default: func() int { return 0 }}); err == nil {
		t.Fatal("expected error without backend")
	}
	if _, err := New(Options[int]{Backend: storage.NewMemory(), Default: func() int { return 0 }}); err == nil {
		t.Fatal("expected error without key")
	}
	if _, err := New(Options[int]{Backend: storage.NewMemory(), Key: "k"}); err == nil {
		t.Fatal("expected error without default factory")
	}
}

func TestGetMissingKeyReturnsDefault(t *testing.T) {
	st := newStringsStore(t, storage.NewMemory(), nil)
	if got := st.Get(context.Background()); len(got) != 0 {
		t.Fatalf("expected empty default, got %v", got)
	}
}

func TestSetPersistsAndGetRoundTrips(t *testing.T) {
	st := newStringsStore(t, storage.NewMemory(), nil)
	ctx := context.Background()

	if err := st.Set(ctx, []string{"a", "b"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got := st.Get(ctx)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected value %v", got)
	}
}

func TestSetRejectsInvalidValueAndKeepsPriorState(t *testing.T) {
	st := newStringsStore(t, storage.NewMemory(), nil)
	ctx := context.Background()

	if err := st.Set(ctx, []string{"keep"}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	err := st.Set(ctx, []string{""})
	if err == nil {
		t.Fatal("expected validation rejection")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}

	if got := st.Get(ctx); len(got) != 1 || got[0] != "keep" {
		t.Fatalf("expected prior state preserved, got %v", got)
	}
}

func TestGetCorruptPayloadFallsBackToDefault(t *testing.T) {
	backend := storage.NewMemory()
	var reported error
	st := newStringsStore(t, backend, func(o *Options[[]string]) {
		o.OnError = func(err error) { reported = err }
	})
	ctx := context.Background()

	// simulate an external writer corrupting the durable entry
	if err := backend.Set(ctx, st.Key(), []byte(`{"not":"an array"}`)); err != nil {
		t.Fatalf("corrupt failed: %v", err)
	}

	if got := st.Get(ctx); len(got) != 0 {
		t.Fatalf("expected default on corrupt payload, got %v", got)
	}
	if reported == nil {
		t.Fatal("expected corruption surfaced through error hook")
	}
}

func TestGetInvalidStoredValueFallsBackToDefault(t *testing.T) {
	backend := storage.NewMemory()
	st := newStringsStore(t, backend, nil)
	ctx := context.Background()

	// parses fine but fails the validator
	if err := backend.Set(ctx, st.Key(), []byte(`["ok",""]`)); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if got := st.Get(ctx); len(got) != 0 {
		t.Fatalf("expected default on invalid payload, got %v", got)
	}
}

func TestSubscribersObservePostMutationValue(t *testing.T) {
	st := newStringsStore(t, storage.NewMemory(), nil)
	ctx := context.Background()

	var fromBadge, fromPage []string
	unsubBadge := st.Subscribe(func(v []string) { fromBadge = v })
	st.Subscribe(func(v []string) { fromPage = v })

	if err := st.Set(ctx, []string{"x"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if len(fromBadge) != 1 || len(fromPage) != 1 {
		t.Fatalf("expected both subscribers notified, got %v / %v", fromBadge, fromPage)
	}

	unsubBadge()
	if err := st.Set(ctx, []string{"x", "y"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if len(fromBadge) != 1 {
		t.Fatalf("expected unsubscribed listener untouched, got %v", fromBadge)
	}
	if len(fromPage) != 2 {
		t.Fatalf("expected live listener updated, got %v", fromPage)
	}
}

func TestPanickingListenerDoesNotBlockOthers(t *testing.T) {
	var reported error
	st := newStringsStore(t, storage.NewMemory(), func(o *Options[[]string]) {
		o.OnError = func(err error) { reported = err }
	})

	st.Subscribe(func([]string) { panic("listener bug") })
	var survived bool
	st.Subscribe(func([]string) { survived = true })

	if err := st.Set(context.Background(), []string{"v"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if !survived {
		t.Fatal("expected second listener to run despite panic in first")
	}
	if reported == nil {
		t.Fatal("expected listener panic surfaced through error hook")
	}
}

func TestClearResetsToDefaultAndNotifies(t *testing.T) {
	backend := storage.NewMemory()
	st := newStringsStore(t, backend, nil)
	ctx := context.Background()

	if err := st.Set(ctx, []string{"a"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	var observed []string
	st.Subscribe(func(v []string) { observed = v })

	if err := st.Clear(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if len(observed) != 0 {
		t.Fatalf("expected subscribers notified with default, got %v", observed)
	}
	if _, ok, _ := backend.Get(ctx, st.Key()); ok {
		t.Fatal("expected durable entry removed")
	}
}

func TestUpdateIsGetModifySet(t *testing.T) {
	st := newStringsStore(t, storage.NewMemory(), nil)
	ctx := context.Background()

	if err := st.Set(ctx, []string{"a"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := st.Update(ctx, func(v []string) []string { return append(v, "b") }); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if got := st.Get(ctx); len(got) != 2 {
		t.Fatalf("unexpected value %v", got)
	}
}

func TestDebounceCollapsesWritesKeepingLatest(t *testing.T) {
	backend := storage.NewMemory()
	st := newStringsStore(t, backend, func(o *Options[[]string]) {
		o.Debounce = 50 * time.Millisecond
	})
	ctx := context.Background()

	var notifications int
	st.Subscribe(func([]string) { notifications++ })

	// quantity-stepper burst: three writes inside one window
	for _, v := range [][]string{{"1"}, {"2"}, {"3"}} {
		if err := st.Set(ctx, v); err != nil {
			t.Fatalf("set failed: %v", err)
		}
	}

	// subscribers still see every mutation synchronously
	if notifications != 3 {
		t.Fatalf("expected 3 notifications, got %d", notifications)
	}
	// reads observe the pending (latest) value before the flush
	if got := st.Get(ctx); len(got) != 1 || got[0] != "3" {
		t.Fatalf("expected pending value visible, got %v", got)
	}
	// nothing durable yet
	if _, ok, _ := backend.Get(ctx, st.Key()); ok {
		t.Fatal("expected write still pending")
	}

	if err := st.Flush(ctx); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	payload, ok, _ := backend.Get(ctx, st.Key())
	if !ok || string(payload) != `["3"]` {
		t.Fatalf("expected latest value flushed, got ok=%v payload=%s", ok, payload)
	}
}

// gatedBackend parks Set between entered and release so tests can hold a
// durable write in flight while other operations race it.
type gatedBackend struct {
	storage.Backend
	entered chan struct{}
	release chan struct{}
}

func (b *gatedBackend) Set(ctx context.Context, key string, value []byte) error {
	select {
	case b.entered <- struct{}{}:
	default:
	}
	<-b.release
	return b.Backend.Set(ctx, key, value)
}

func TestClearSupersedesInFlightFlush(t *testing.T) {
	mem := storage.NewMemory()
	backend := &gatedBackend{
		Backend: mem,
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	st := newStringsStore(t, backend, func(o *Options[[]string]) {
		o.Debounce = time.Minute
	})
	ctx := context.Background()

	if err := st.Set(ctx, []string{"1", "2", "3"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	flushDone := make(chan error, 1)
	go func() { flushDone <- st.Flush(ctx) }()
	<-backend.entered

	clearDone := make(chan error, 1)
	go func() { clearDone <- st.Clear(ctx) }()

	close(backend.release)
	if err := <-flushDone; err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if err := <-clearDone; err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	if payload, ok, _ := mem.Get(ctx, st.Key()); ok {
		t.Fatalf("cleared key resurrected with stale value %s", payload)
	}
	if got := st.Get(ctx); len(got) != 0 {
		t.Fatalf("expected default after clear, got %v", got)
	}
}

func TestFlushAfterClearIsDropped(t *testing.T) {
	backend := storage.NewMemory()
	st := newStringsStore(t, backend, func(o *Options[[]string]) {
		o.Debounce = time.Minute
	})
	ctx := context.Background()

	if err := st.Set(ctx, []string{"stale"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := st.Clear(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if err := st.Flush(ctx); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if _, ok, _ := backend.Get(ctx, st.Key()); ok {
		t.Fatal("flush after clear must not write")
	}
}

func TestGetPendingValueIsIsolatedCopy(t *testing.T) {
	backend := storage.NewMemory()
	st := newStringsStore(t, backend, func(o *Options[[]string]) {
		o.Debounce = time.Minute
	})
	ctx := context.Background()

	if err := st.Set(ctx, []string{"a", "b"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	snapshot := st.Get(ctx)
	snapshot[0] = "mutated"

	if got := st.Get(ctx); got[0] != "a" || got[1] != "b" {
		t.Fatalf("pending value corrupted by caller mutation: %v", got)
	}
	if err := st.Flush(ctx); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	payload, ok, _ := backend.Get(ctx, st.Key())
	if !ok || string(payload) != `["a","b"]` {
		t.Fatalf("expected original value flushed, got ok=%v payload=%s", ok, payload)
	}
}
