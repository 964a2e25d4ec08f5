// Package jobs manages job persistence backed by SQLite. A job tracks one
// project's run through the pipeline: its status, stage cursor, progress
// percent, and (on failure) a structured reason.
package jobs
