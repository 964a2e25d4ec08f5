// Package services defines shared utilities consumed by the pipeline stage
// processors and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, project names, and stage names for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper that translate failures
//     into the reason kinds recorded on failed jobs.
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
