package breaker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pwnedgod/seglock/adapter"
	"github.com/pwnedgod/seglock/adapter/adaptertest"
	"github.com/pwnedgod/seglock/adapter/breaker"
	"github.com/pwnedgod/seglock/adapter/memory"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var errMock = errors.New("mock error")

// failingStore fails every call and counts how often it was reached.
type failingStore struct {
	calls int
}

func (s *failingStore) SetIfAbsent(context.Context, string, string, time.Duration) (bool, error) {
	s.calls++
	return false, errMock
}

func (s *failingStore) Get(context.Context, string) (string, error) {
	s.calls++
	return "", errMock
}

func (s *failingStore) CompareAndDelete(context.Context, string, string) (bool, error) {
	s.calls++
	return false, errMock
}

func (s *failingStore) CompareAndExtend(context.Context, string, string, time.Duration) (bool, error) {
	s.calls++
	return false, errMock
}

func (s *failingStore) Exists(context.Context, string) (bool, error) {
	s.calls++
	return false, errMock
}

func (s *failingStore) Delete(context.Context, string) error {
	s.calls++
	return errMock
}

type BreakerAdapterTestSuite struct {
	adaptertest.LeaseStoreSuite
	mem *memory.Adapter
}

func (s *BreakerAdapterTestSuite) SetupTest() {
	s.mem = memory.NewAdapter()

	store, err := breaker.NewAdapter(s.mem)
	s.Require().NoError(err)

	s.Store = store
	s.Short = 30 * time.Millisecond
	s.Elapse = time.Sleep
}

func (s *BreakerAdapterTestSuite) TearDownTest() {
	s.mem.Close()
}

func TestRunBreakerAdapterTestSuite(t *testing.T) {
	suite.Run(t, new(BreakerAdapterTestSuite))
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	next := &failingStore{}
	var transitions []gobreaker.State

	store, err := breaker.NewAdapter(next,
		breaker.WithMaxFailures(3),
		breaker.WithTimeout(time.Minute),
		breaker.WithOnStateChange(func(_ string, _ gobreaker.State, to gobreaker.State) {
			transitions = append(transitions, to)
		}),
	)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := store.SetIfAbsent(ctx, "k", "v", time.Second)
		assert.ErrorIs(t, err, errMock)
	}

	assert.Equal(t, gobreaker.StateOpen, store.State())
	assert.Equal(t, []gobreaker.State{gobreaker.StateOpen}, transitions)

	_, err = store.CompareAndDelete(ctx, "k", "v")
	assert.True(t, breaker.IsOpen(err))
	assert.Equal(t, 3, next.calls)
}

func TestBreakerIgnoresNotFound(t *testing.T) {
	mem := memory.NewAdapter()
	defer mem.Close()

	store, err := breaker.NewAdapter(mem, breaker.WithMaxFailures(1))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := store.Get(context.Background(), "missing")
		assert.ErrorIs(t, err, adapter.ErrNotFound)
	}

	assert.Equal(t, gobreaker.StateClosed, store.State())
}

func TestNewAdapterNilStore(t *testing.T) {
	_, err := breaker.NewAdapter(nil)
	assert.ErrorIs(t, err, adapter.ErrNilClient)
}
