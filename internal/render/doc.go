// Package render turns fetched Reddit results into markup-escaped text
// blocks and packs them into transport-sized chat messages.
//
// Escaping is centralized here: every piece of user- or Reddit-supplied
// text passes through a Dialect before it reaches a transport, so no
// caller can forget it.
package render
