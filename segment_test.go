package seglock_test

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/pwnedgod/seglock"
	"github.com/pwnedgod/seglock/adapter/memory"
	"github.com/stretchr/testify/suite"
)

type SegmentedManagerTestSuite struct {
	suite.Suite
	memory *memory.Adapter
	store  *proxiedStore
}

func (s *SegmentedManagerTestSuite) SetupTest() {
	s.memory = memory.NewAdapter()
	s.store = &proxiedStore{store: s.memory}
}

func (s *SegmentedManagerTestSuite) TearDownTest() {
	s.memory.Close()
}

func (s *SegmentedManagerTestSuite) newManager(segments int, opts ...seglock.Option) *seglock.SegmentedManager {
	m, err := seglock.NewSegmentedManager(s.store, segments, opts...)
	s.Require().NoError(err)
	return m
}

// namesBySegment returns, for every segment, the first generated names that map to it.
func (s *SegmentedManagerTestSuite) namesBySegment(m *seglock.SegmentedManager, perSegment int) map[int][]string {
	bySegment := make(map[int][]string)
	for i := 0; i < 10000; i++ {
		name := "record-" + strconv.Itoa(i)
		segment, err := m.Segment(name)
		s.Require().NoError(err)

		if len(bySegment[segment]) < perSegment {
			bySegment[segment] = append(bySegment[segment], name)
		}
	}

	s.Require().Len(bySegment, m.NumSegments())
	for segment, names := range bySegment {
		s.Require().Len(names, perSegment, "segment %d", segment)
	}
	return bySegment
}

func (s *SegmentedManagerTestSuite) TestSegment() {
	m := s.newManager(4)
	s.Equal(4, m.NumSegments())

	for i := 0; i < 1000; i++ {
		name := fmt.Sprintf("book-%d", i)

		segment, err := m.Segment(name)
		s.Require().NoError(err)
		s.GreaterOrEqual(segment, 0)
		s.Less(segment, 4)
		s.Equal(int(xxhash.Sum64String(name)%4), segment)

		again, err := m.Segment(name)
		s.Require().NoError(err)
		s.Equal(segment, again)

		key, err := m.KeyFor(name)
		s.Require().NoError(err)
		s.Equal("lock:seg:"+strconv.Itoa(segment), key)
	}
}

func (s *SegmentedManagerTestSuite) TestSegmentIsStableAcrossManagers() {
	a := s.newManager(16)
	b := s.newManager(16, seglock.WithKeyPrefix("other:"))

	for i := 0; i < 100; i++ {
		name := fmt.Sprintf("book-%d", i)

		sa, err := a.Segment(name)
		s.Require().NoError(err)
		sb, err := b.Segment(name)
		s.Require().NoError(err)
		s.Equal(sa, sb)
	}
}

func (s *SegmentedManagerTestSuite) TestCollidingNamesExcludeEachOther() {
	ctx := context.Background()
	m := s.newManager(4)

	for segment, names := range s.namesBySegment(m, 2) {
		h, err := m.Acquire(ctx, names[0], 10*time.Second)
		s.Require().NoError(err, "segment %d", segment)

		_, err = m.Acquire(ctx, names[1], 10*time.Second)
		s.ErrorIs(err, seglock.ErrBusy, "segment %d", segment)

		result, err := m.Release(ctx, h)
		s.Require().NoError(err)
		s.Equal(seglock.Released, result)

		h, err = m.Acquire(ctx, names[1], 10*time.Second)
		s.Require().NoError(err)
		s.Equal(names[1], h.Name())

		_, err = h.Release(ctx)
		s.Require().NoError(err)
	}
}

func (s *SegmentedManagerTestSuite) TestDistinctSegmentsAreIndependent() {
	ctx := context.Background()
	m := s.newManager(4)

	var handles []*seglock.Handle
	for _, names := range s.namesBySegment(m, 1) {
		h, err := m.Acquire(ctx, names[0], 10*time.Second)
		s.Require().NoError(err)
		handles = append(handles, h)
	}
	s.Len(handles, 4)

	for _, h := range handles {
		result, err := m.Release(ctx, h)
		s.Require().NoError(err)
		s.Equal(seglock.Released, result)

		exists, err := s.memory.Exists(ctx, h.Key())
		s.Require().NoError(err)
		s.False(exists)
	}
}

func (s *SegmentedManagerTestSuite) TestSingleSegmentSerializesEverything() {
	ctx := context.Background()
	m := s.newManager(1)

	h, err := m.Acquire(ctx, "book-1", 10*time.Second)
	s.Require().NoError(err)
	s.Equal("lock:seg:0", h.Key())

	for i := 2; i < 20; i++ {
		_, err := m.Acquire(ctx, fmt.Sprintf("book-%d", i), 10*time.Second)
		s.ErrorIs(err, seglock.ErrBusy)
	}

	_, err = h.Release(ctx)
	s.Require().NoError(err)
}

func (s *SegmentedManagerTestSuite) TestHolderReportsSegmentOwner() {
	ctx := context.Background()
	m := s.newManager(4, seglock.WithIdentity("worker-1"))

	names := s.namesBySegment(m, 2)[0]

	h, err := m.Acquire(ctx, names[0], 10*time.Second)
	s.Require().NoError(err)
	defer h.Release(ctx)

	owner, err := m.Holder(ctx, names[1])
	s.Require().NoError(err)
	s.Require().NotNil(owner)
	s.Equal(h.Owner().ID, owner.ID)
	s.Equal("worker-1", owner.Holder)
}

func (s *SegmentedManagerTestSuite) TestDo() {
	ctx := context.Background()
	m := s.newManager(8)

	err := m.Do(ctx, "book-1", 10*time.Second, func(ctx context.Context) error {
		return errMock
	})
	s.ErrorIs(err, errMock)

	key, err := m.KeyFor("book-1")
	s.Require().NoError(err)

	exists, err := s.memory.Exists(ctx, key)
	s.Require().NoError(err)
	s.False(exists)
}

func (s *SegmentedManagerTestSuite) TestInvalidConfiguration() {
	ctx := context.Background()

	_, err := seglock.NewSegmentedManager(s.store, 0)
	s.ErrorIs(err, seglock.ErrInvalidConfiguration)

	_, err = seglock.NewSegmentedManager(s.store, -3)
	s.ErrorIs(err, seglock.ErrInvalidConfiguration)

	_, err = seglock.NewSegmentedManager(nil, 4)
	s.ErrorIs(err, seglock.ErrInvalidConfiguration)

	m := s.newManager(4)

	_, err = m.Segment("")
	s.ErrorIs(err, seglock.ErrInvalidConfiguration)

	_, err = m.Acquire(ctx, " ", time.Second)
	s.ErrorIs(err, seglock.ErrInvalidConfiguration)

	_, err = m.Acquire(ctx, "book-1", 0)
	s.ErrorIs(err, seglock.ErrInvalidConfiguration)

	_, err = m.AcquireWait(ctx, "book-1", -time.Second)
	s.ErrorIs(err, seglock.ErrInvalidConfiguration)

	s.Zero(s.store.calls.Load())
}

func TestSegmentedManagerTestSuite(t *testing.T) {
	suite.Run(t, new(SegmentedManagerTestSuite))
}
