// Package ffmpeg wraps FFmpeg and FFprobe CLI interactions behind an
// Executor abstraction so render-heavy stages stay testable without the
// binaries installed.
package ffmpeg
