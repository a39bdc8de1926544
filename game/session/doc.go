// Package session provides session management for the tile stack game.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Session ID generation
//   - Session lifecycle management
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager is the session manager that handles all session operations.
// Each service.Session owns a GameEngine dealt from a recorded seed, so a
// game can be replayed from its level id, seed and selection history.
//
// Session Identifiers:
//
// Generated IDs are random UUIDs. Callers may pick their own IDs instead;
// lookups ignore case.
//
// Concurrency:
//
// The manager's map is guarded by a read-write mutex. Every session also
// carries its own mutex, which the game service holds for the duration of
// a selection, so selections on one session are applied one at a time while
// different sessions proceed in parallel.
//
// Usage:
//
//	manager := session.NewManager()
//
//	sess, err := manager.Create("", level, 0)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sess.ID)
//
// Sessions live in memory only. CleanupExpiredSessions drops sessions that
// have not been accessed for a given duration.
package session
