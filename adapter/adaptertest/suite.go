// Package adaptertest holds the behaviour every adapter.LeaseStore must share.
//
// Backends embed LeaseStoreSuite in their own testify suite, set Store and
// Elapse in SetupTest, and get the whole contract checked against them.
package adaptertest

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pwnedgod/seglock/adapter"
	"github.com/stretchr/testify/suite"
)

type LeaseStoreSuite struct {
	suite.Suite

	Store adapter.LeaseStore

	// Elapse moves the store clock forward by d. Real-time backends sleep,
	// emulated ones fast-forward.
	Elapse func(d time.Duration)

	// TTL used for leases the test expects to outlive the test body.
	TTL time.Duration

	// Short is a ttl that expires after Elapse(2*Short).
	Short time.Duration
}

func (s *LeaseStoreSuite) ttl() time.Duration {
	if s.TTL <= 0 {
		return time.Minute
	}
	return s.TTL
}

func (s *LeaseStoreSuite) short() time.Duration {
	if s.Short <= 0 {
		return 50 * time.Millisecond
	}
	return s.Short
}

func (s *LeaseStoreSuite) TestSetIfAbsent() {
	ctx := context.Background()

	ok, err := s.Store.SetIfAbsent(ctx, "lease:set", "token-1", s.ttl())
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.Store.SetIfAbsent(ctx, "lease:set", "token-2", s.ttl())
	s.Require().NoError(err)
	s.False(ok)

	value, err := s.Store.Get(ctx, "lease:set")
	s.Require().NoError(err)
	s.Equal("token-1", value)
}

func (s *LeaseStoreSuite) TestSetIfAbsentAfterExpiry() {
	ctx := context.Background()

	ok, err := s.Store.SetIfAbsent(ctx, "lease:expiry", "token-1", s.short())
	s.Require().NoError(err)
	s.Require().True(ok)

	s.Elapse(2 * s.short())

	exists, err := s.Store.Exists(ctx, "lease:expiry")
	s.Require().NoError(err)
	s.False(exists)

	ok, err = s.Store.SetIfAbsent(ctx, "lease:expiry", "token-2", s.ttl())
	s.Require().NoError(err)
	s.True(ok)
}

func (s *LeaseStoreSuite) TestGetMissing() {
	_, err := s.Store.Get(context.Background(), "lease:missing")
	s.ErrorIs(err, adapter.ErrNotFound)
}

func (s *LeaseStoreSuite) TestCompareAndDelete() {
	ctx := context.Background()

	_, err := s.Store.SetIfAbsent(ctx, "lease:cad", "token-1", s.ttl())
	s.Require().NoError(err)

	ok, err := s.Store.CompareAndDelete(ctx, "lease:cad", "someone-else")
	s.Require().NoError(err)
	s.False(ok)

	exists, err := s.Store.Exists(ctx, "lease:cad")
	s.Require().NoError(err)
	s.True(exists)

	ok, err = s.Store.CompareAndDelete(ctx, "lease:cad", "token-1")
	s.Require().NoError(err)
	s.True(ok)

	exists, err = s.Store.Exists(ctx, "lease:cad")
	s.Require().NoError(err)
	s.False(exists)

	ok, err = s.Store.CompareAndDelete(ctx, "lease:cad", "token-1")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *LeaseStoreSuite) TestCompareAndExtend() {
	ctx := context.Background()

	_, err := s.Store.SetIfAbsent(ctx, "lease:cae", "token-1", s.short())
	s.Require().NoError(err)

	ok, err := s.Store.CompareAndExtend(ctx, "lease:cae", "someone-else", s.ttl())
	s.Require().NoError(err)
	s.False(ok)

	ok, err = s.Store.CompareAndExtend(ctx, "lease:cae", "token-1", s.ttl())
	s.Require().NoError(err)
	s.True(ok)

	s.Elapse(2 * s.short())

	exists, err := s.Store.Exists(ctx, "lease:cae")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *LeaseStoreSuite) TestCompareAndExtendMissing() {
	ok, err := s.Store.CompareAndExtend(context.Background(), "lease:cae-missing", "token-1", s.ttl())
	s.Require().NoError(err)
	s.False(ok)

	exists, err := s.Store.Exists(context.Background(), "lease:cae-missing")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *LeaseStoreSuite) TestDelete() {
	ctx := context.Background()

	_, err := s.Store.SetIfAbsent(ctx, "lease:del", "token-1", s.ttl())
	s.Require().NoError(err)

	s.Require().NoError(s.Store.Delete(ctx, "lease:del"))

	exists, err := s.Store.Exists(ctx, "lease:del")
	s.Require().NoError(err)
	s.False(exists)

	// Deleting an absent key is not an error.
	s.NoError(s.Store.Delete(ctx, "lease:del"))
}

func (s *LeaseStoreSuite) TestManyLeasesAreKept() {
	const leases = 64

	ctx := context.Background()

	for i := 0; i < leases; i++ {
		ok, err := s.Store.SetIfAbsent(ctx, "lease:many:"+strconv.Itoa(i), "token-1", s.ttl())
		s.Require().NoError(err)
		s.Require().True(ok)
	}

	// Backends that prune in the background get the chance to do so.
	s.Elapse(s.short())

	for i := 0; i < leases; i++ {
		key := "lease:many:" + strconv.Itoa(i)

		ok, err := s.Store.SetIfAbsent(ctx, key, "token-2", s.ttl())
		s.Require().NoError(err)
		s.False(ok, key)

		value, err := s.Store.Get(ctx, key)
		s.Require().NoError(err, key)
		s.Equal("token-1", value, key)
	}
}

func (s *LeaseStoreSuite) TestConcurrentSetIfAbsent() {
	const contenders = 16

	var (
		wg    sync.WaitGroup
		wins  atomic.Int32
		start = make(chan struct{})
	)

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start

			ok, err := s.Store.SetIfAbsent(context.Background(), "lease:race", "token", s.ttl())
			if err == nil && ok {
				wins.Add(1)
			}
		}()
	}

	close(start)
	wg.Wait()

	s.Equal(int32(1), wins.Load())
}
