package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// UnknownSession is the placeholder used when the host supplies no session
// identifier. Shown-set persistence is disabled for it to avoid polluting
// state across unrelated sessions.
const UnknownSession = "unknown"

// DedupStore persists per-session retrieval state as plain files so that
// independent short-lived hook processes observe the same state. Access is
// unsynchronized: readers tolerate missing or corrupt files as empty state,
// writers tolerate being overwritten. A lost update between two concurrent
// hooks is accepted.
type DedupStore struct {
	dir      string
	maxShown int
}

// NewDedupStore creates a store rooted at dir. An empty dir falls back to
// the system temp directory, matching where the host cleans up session
// state. maxShown caps the shown-identifier set; 0 keeps everything for
// the session lifetime.
func NewDedupStore(dir string, maxShown int) *DedupStore {
	if dir == "" {
		dir = os.TempDir()
	}
	return &DedupStore{dir: dir, maxShown: maxShown}
}

// SanitizeSessionID makes a session identifier safe for use in file names.
func SanitizeSessionID(sessionID string) string {
	s := strings.ReplaceAll(sessionID, "/", "-")
	return strings.ReplaceAll(s, "\\", "-")
}

// Fingerprint returns a short deterministic hash of text, used to detect
// unchanged input between invocations.
func Fingerprint(text string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(text))
}

func (s *DedupStore) fingerprintPath(sessionID string) string {
	return filepath.Join(s.dir, SanitizeSessionID(sessionID)+"_query_hash")
}

func (s *DedupStore) shownPath(sessionID string) string {
	return filepath.Join(s.dir, SanitizeSessionID(sessionID)+"_shown_memories")
}

// ShouldSkipQuery reports whether the retrieval step should be skipped
// because text is unchanged since the last invocation for this session.
// Empty text always skips. On a miss the new fingerprint is stored, so
// calling twice with the same text proceeds once and then skips.
func (s *DedupStore) ShouldSkipQuery(sessionID, text string) bool {
	if strings.TrimSpace(text) == "" {
		return true
	}

	current := Fingerprint(text)
	path := s.fingerprintPath(sessionID)

	if data, err := os.ReadFile(path); err == nil {
		if strings.TrimSpace(string(data)) == current {
			return true
		}
	}

	// Best effort: an unwritable state dir must not block retrieval.
	_ = os.WriteFile(path, []byte(current), 0644)
	return false
}

// Shown returns the set of candidate identifiers already surfaced in this
// session. Missing or unreadable storage yields an empty set.
func (s *DedupStore) Shown(sessionID string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, id := range s.shownList(sessionID) {
		set[id] = struct{}{}
	}
	return set
}

func (s *DedupStore) shownList(sessionID string) []string {
	data, err := os.ReadFile(s.shownPath(sessionID))
	if err != nil {
		return nil
	}

	var ids []string
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			ids = append(ids, line)
		}
	}
	return ids
}

// AddShown unions ids into the session's shown set. It is a no-op when the
// session identifier is absent or the "unknown" placeholder, and write
// failures are swallowed: duplicate suppression is best effort.
func (s *DedupStore) AddShown(sessionID string, ids []string) {
	if sessionID == "" || sessionID == UnknownSession || len(ids) == 0 {
		return
	}

	existing := s.shownList(sessionID)
	have := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		have[id] = struct{}{}
	}
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := have[id]; ok {
			continue
		}
		have[id] = struct{}{}
		existing = append(existing, id)
	}

	// Oldest entries are evicted first when a cap is configured.
	if s.maxShown > 0 && len(existing) > s.maxShown {
		existing = existing[len(existing)-s.maxShown:]
	}

	_ = os.WriteFile(s.shownPath(sessionID), []byte(strings.Join(existing, "\n")), 0644)
}
