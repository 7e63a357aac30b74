// Package store persists completed searches to SQLite so the web app
// and the chat bot share one history.
package store
