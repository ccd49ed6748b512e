// Package persistence saves game snapshots so a game can be resumed after
// the program restarts or the connection drops.
//
// Three stores implement Store: Memory, File (one JSON file per session,
// written atomically) and Redis. Snapshots older than the configured max
// age (one hour by default) are discarded on load.
package persistence
