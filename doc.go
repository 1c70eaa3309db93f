// Package keeper provides a disk-resident key-value cache with TTL expiry.
//
// Values are stored one file per key under a cache root, addressed by the
// XXH3-128 hash of the key and spread over 4096 shard directories, each
// guarded by its own reader-writer lock. Operations run on a pool of store
// workers; a janitor goroutine deletes expired entries in the background.
// A keeper holds an OS lock on <root>/.lock for its lifetime, so only one
// keeper in one process can own a root.
//
// Basic usage:
//
//	k, _ := keeper.Open("/var/cache/myapp",
//	    keeper.WithStoreWorkers(4),
//	    keeper.WithCleanupInterval(10*time.Minute),
//	)
//	defer k.Close()
//
//	// Store with a TTL; 0 never expires
//	k.Set(ctx, "alpha", []byte("hello"), time.Minute)
//
//	// Retrieve
//	v, err := k.Get(ctx, "alpha")
//	if errors.Is(err, keeper.ErrNotFound) { ... }
//
//	// Maintenance
//	k.Remove(ctx, "alpha")
//	k.Cleanup(ctx)  // sweep expired entries now
//	k.Clear(ctx)    // remove all entries
//
// Every operation comes in three calling styles over the same dispatch path:
//
//	v, err := k.Get(ctx, "alpha")             // blocking
//	f := k.GetAsync("alpha")                  // future
//	v, err = f.Wait(ctx)
//	k.GetFunc("alpha", func(v []byte, err error) { ... }) // callback
//
// Each dispatched operation produces exactly one result. Once Close has
// started, new operations fail with ErrWorkerClosed.
//
// Entry files are a 10 byte header (2 flag bytes, 8 byte big-endian expiry
// in Unix seconds, 0 = never) followed by the value.
package keeper
