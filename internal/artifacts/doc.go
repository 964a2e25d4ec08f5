// Package artifacts persists stage outputs on the filesystem. Artifacts are
// addressed by (project, stage, name) and written atomically so a reader
// never observes a partial file.
package artifacts
