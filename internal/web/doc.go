// Package web serves the form frontend: query forms, stored results,
// shared search history and embedded help pages.
package web
