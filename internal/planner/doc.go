// Package planner splits a flat listing of a remote collection into items
// the archive can already satisfy and identities that must be fetched.
package planner
