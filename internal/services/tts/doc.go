// Package tts wraps an ElevenLabs-compatible text-to-speech API. The
// narration stage uses it to synthesize voiceover audio, and the daemon API
// exposes its cached voice catalogue.
package tts
