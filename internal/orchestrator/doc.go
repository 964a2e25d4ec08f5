// Package orchestrator drives jobs through the pipeline. Each submitted job
// runs in its own goroutine, bounded by a concurrency cap, executing the
// fixed stage chain: dependency check, stage execution under a timeout,
// output verification, artifact persistence, progress update.
package orchestrator
