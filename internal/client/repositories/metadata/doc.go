// Package metadata is a small key/value table in the local SQLite database.
// The session keeps its sealed credential and the key-derivation salt here.
package metadata
