// Package dialog implements the guided multi-turn query dialogue: a
// per-session state machine that collects query fields one prompt at a
// time, validates input, and on completion fetches and renders results.
//
// Sessions are process-memory only and strictly single-use. The package
// is transport-agnostic; frontends provide the markup dialect and
// serialize events per session id.
package dialog
