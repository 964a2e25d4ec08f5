// Package llm wraps an OpenAI-compatible chat completions API. The script and
// posting-plan stages use it to request strictly-JSON payloads, with retry on
// rate limiting, server errors, and empty completions.
package llm
