// Package daemon hosts the long-running reelsmith process: single-instance
// locking, the job orchestrator lifecycle, and the HTTP API the CLI talks to.
package daemon
