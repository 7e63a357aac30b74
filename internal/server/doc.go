// Package server hosts the web app's HTTP surface. It listens on plain
// TCP by default, or joins a tailnet via tsnet when tailscale is
// enabled in config, and owns graceful shutdown of the listener and
// the backing store.
package server
