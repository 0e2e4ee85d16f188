// Package thread provides spawn/join concurrency primitives for Go.
// Spawned work returns a join handle; joining blocks until the work
// completes and yields its result, its error, or the panic that ended it.
package thread
