// Package api defines the transport-friendly DTOs shared by the daemon HTTP
// server and the CLI, plus thin read services over the jobs store.
package api
