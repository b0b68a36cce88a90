package memory_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/karlseguin/ccache/v2"
	"github.com/pwnedgod/seglock/adapter/adaptertest"
	"github.com/pwnedgod/seglock/adapter/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type MemoryAdapterTestSuite struct {
	adaptertest.LeaseStoreSuite
	adapter *memory.Adapter
}

func (s *MemoryAdapterTestSuite) SetupTest() {
	// A size limit far below the number of leases the suite holds.
	s.adapter = memory.NewAdapterWithConfiguration(ccache.Configure().MaxSize(8).ItemsToPrune(4))
	s.Store = s.adapter
	s.Short = 30 * time.Millisecond
	s.Elapse = time.Sleep
}

func (s *MemoryAdapterTestSuite) TearDownTest() {
	s.adapter.Close()
}

func TestRunMemoryAdapterTestSuite(t *testing.T) {
	suite.Run(t, new(MemoryAdapterTestSuite))
}

func TestSizeLimitDoesNotEvictLeases(t *testing.T) {
	store := memory.NewAdapterWithConfiguration(ccache.Configure().MaxSize(2).ItemsToPrune(1))
	defer store.Close()

	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ok, err := store.SetIfAbsent(ctx, "k"+strconv.Itoa(i), "owner", time.Hour)
		require.NoError(t, err)
		require.True(t, ok)
	}

	time.Sleep(50 * time.Millisecond)

	for i := 0; i < 5; i++ {
		key := "k" + strconv.Itoa(i)

		ok, err := store.SetIfAbsent(ctx, key, "intruder", time.Hour)
		require.NoError(t, err)
		assert.False(t, ok, key)

		value, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "owner", value, key)
	}
}
