// Package matrix runs the guided query dialogue over a Matrix account.
// Sessions are per-room; replies are formatted HTML with a plain-text
// fallback body.
package matrix
