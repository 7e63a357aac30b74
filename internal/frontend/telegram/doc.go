// Package telegram runs the guided query dialogue over the Telegram
// Bot API using long polling. The Bot API surface is small enough that
// the client is a handful of net/http calls; no library needed.
package telegram
