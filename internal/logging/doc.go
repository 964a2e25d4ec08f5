// Package logging constructs the slog loggers used across Reelsmith and
// standardizes structured field names so daemon and CLI output stays
// consistent. Loggers write to stdout plus the configured log file, in text
// or JSON format.
package logging
