package seglock_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pwnedgod/seglock"
	"github.com/pwnedgod/seglock/adapter/memory"
)

func ExampleManager_Do() {
	store := memory.NewAdapter()
	defer store.Close()

	m, err := seglock.NewManager(store, seglock.WithKeyPrefix("book_lock:"))
	if err != nil {
		panic(err)
	}

	err = m.Do(context.Background(), "book-42", 30*time.Second, func(ctx context.Context) error {
		fmt.Println("syncing book-42")
		return nil
	})
	fmt.Println(err)
	// Output:
	// syncing book-42
	// <nil>
}

func ExampleSegmentedManager() {
	store := memory.NewAdapter()
	defer store.Close()

	m, err := seglock.NewSegmentedManager(store, 64)
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	h, err := m.Acquire(ctx, "book-42", 30*time.Second)
	if errors.Is(err, seglock.ErrBusy) {
		fmt.Println("another instance is syncing this segment")
		return
	}
	if err != nil {
		panic(err)
	}
	defer h.Release(ctx)

	_, err = m.Acquire(ctx, "book-42", 30*time.Second)
	fmt.Println(errors.Is(err, seglock.ErrBusy))
	// Output:
	// true
}
