// Package seglock provides client-side mutual exclusion over a shared expiring
// key-value store such as Redis.
//
// A lock is a lease: a store key holding an ownership token that expires after a
// ttl. Acquiring writes the key only if it is absent. Releasing and extending
// compare the stored token with the caller's before touching the key, so a
// process never deletes or prolongs a lease that expired and was taken over by
// someone else. While a Handle is held a background goroutine extends its lease
// at half the ttl until the handle is released or ownership is found lost.
//
// Manager guards every name with its own key. SegmentedManager hashes names onto
// a fixed number of keys, bounding the store footprint at the cost of unrelated
// names occasionally excluding each other.
//
// Leases are kept on a single store. There is no quorum across replicas, and a
// lease can be lost to store failover or to a pause longer than its ttl. Treat
// Handle.Lost as a signal to stop work that is no longer protected.
package seglock
