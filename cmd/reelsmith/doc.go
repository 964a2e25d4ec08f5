// Command reelsmith is the CLI for the reelsmith daemon. It submits jobs,
// inspects their status, and downloads finished videos over the daemon's
// HTTP API.
package main
