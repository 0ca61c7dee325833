// Package session stores conversations between users and the assistant.
//
// A session is an ordered list of genai contents owned by one user. Two
// stores implement Service: an in-memory store for local use and a SQLite
// store, backed by modernc.org/sqlite, that survives restarts.
package session
