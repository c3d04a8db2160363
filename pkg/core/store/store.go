// Package store is the persistence boundary of the engine: a key-scoped blob
// store for message histories, saved worlds and stories, and preferences.
// Values are opaque JSON; the store never interprets payloads, so a corrupt
// value is the caller's problem to recover (and callers always recover by
// falling back to a default).
package store

import (
	"context"
	"strings"
)

// Store is the persistence port. Implementations must be safe for concurrent
// use.
type Store interface {
	// Get returns the value for key. The second result is false when the key
	// is absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set writes the value for key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes the key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	// Keys lists every stored key with the given prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Key namespaces. Every read and write in the engine goes through one of
// these, so no surface invents its own key strings.
const (
	historyPrefix      = "history:"
	storyHistoryPrefix = "story-history:"
	prefPrefix         = "pref:"

	// KeyWorlds holds the saved-worlds map.
	KeyWorlds = "worlds"
	// KeyStories holds the story library.
	KeyStories = "stories"
	// KeyCustomPersona holds the user-authored companion.
	KeyCustomPersona = "custom-persona"
)

// HistoryKey returns the storage key for a session's message log.
func HistoryKey(sessionKey string) string {
	return historyPrefix + sessionKey
}

// StoryHistoryKey returns the storage key for a story's message log.
func StoryHistoryKey(storyID string) string {
	return storyHistoryPrefix + storyID
}

// PrefKey returns the storage key for a named preference.
func PrefKey(name string) string {
	return prefPrefix + name
}

// IsHistoryKey reports whether key holds a conversation or story log.
func IsHistoryKey(key string) bool {
	return strings.HasPrefix(key, historyPrefix) || strings.HasPrefix(key, storyHistoryPrefix)
}

// ClearHistories removes every conversation and story log, leaving worlds,
// stories and preferences in place.
func ClearHistories(ctx context.Context, s Store) error {
	keys, err := s.Keys(ctx, "")
	if err != nil {
		return err
	}
	for _, k := range keys {
		if !IsHistoryKey(k) {
			continue
		}
		if err := s.Remove(ctx, k); err != nil {
			return err
		}
	}
	return nil
}
