package internal

import (
	"context"
	"encoding/json"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// NoResultsSentinel is the literal text the search backend prints instead
// of JSON when nothing matched.
const NoResultsSentinel = "No results found."

// Candidate is one retrieved past-session memory, normalized from backend
// output. It is read-only downstream of the Searcher.
type Candidate struct {
	ID      string `json:"id,omitempty"`
	Title   string `json:"title,omitempty"`
	File    string `json:"file,omitempty"`
	Path    string `json:"path,omitempty"`
	Snippet string `json:"snippet,omitempty"`
	Content string `json:"content,omitempty"`
}

// Identifier returns the stable identity used for duplicate suppression.
func (c Candidate) Identifier() string {
	if c.ID != "" {
		return c.ID
	}
	return c.Location()
}

// Location returns the opaque locator usable to re-fetch full content.
func (c Candidate) Location() string {
	if c.File != "" {
		return c.File
	}
	return c.Path
}

// DisplayTitle returns the title, falling back to the location.
func (c Candidate) DisplayTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return c.Location()
}

// SessionIDFromLocation derives a resumable session identifier from a
// candidate location (the locator's base name without its extension).
func SessionIDFromLocation(location string) string {
	base := filepath.Base(location)
	return strings.TrimSuffix(base, ".md")
}

// Searcher invokes the external session-search service as a bounded
// subprocess. Every failure mode (missing binary, timeout, non-zero exit,
// unparsable output) degrades to an empty result, never an error: the
// interactive session must not notice a broken backend.
type Searcher struct {
	binary     string
	collection string
	timeout    time.Duration
	log        *zap.Logger
}

// NewSearcher builds a Searcher for the given backend binary, collection
// name, and per-call timeout.
func NewSearcher(binary, collection string, timeout time.Duration, log *zap.Logger) *Searcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Searcher{binary: binary, collection: collection, timeout: timeout, log: log}
}

// Available reports whether the backend binary is on PATH.
func (s *Searcher) Available() bool {
	_, err := exec.LookPath(s.binary)
	return err == nil
}

// CollectionExists reports whether the configured collection is known to
// the backend, by scanning its status output.
func (s *Searcher) CollectionExists(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, s.binary, "status").Output()
	if err != nil {
		s.log.Debug("backend status failed", zap.Error(err))
		return false
	}
	return strings.Contains(string(out), s.collection)
}

// Search runs a keyword query and returns candidates in backend order,
// assumed best-match-first. Any failure yields an empty list.
func (s *Searcher) Search(ctx context.Context, query string, limit int) []Candidate {
	if query == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	args := []string{"search", query, "--json", "-n", strconv.Itoa(limit), "-c", s.collection}
	out, err := exec.CommandContext(ctx, s.binary, args...).Output()
	if err != nil {
		s.log.Debug("search failed", zap.String("query", query), zap.Error(err))
		return nil
	}

	stdout := strings.TrimSpace(string(out))
	if stdout == "" || stdout == NoResultsSentinel {
		return nil
	}

	var candidates []Candidate
	if err := json.Unmarshal([]byte(stdout), &candidates); err != nil {
		s.log.Debug("unparsable search output", zap.Error(err))
		return nil
	}
	return candidates
}

// Fetch retrieves up to maxLines of full content for a single known
// location. Used only for the best match to bound payload size. Empty
// string on any failure.
func (s *Searcher) Fetch(ctx context.Context, location string, maxLines int) string {
	if location == "" {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, s.binary, "get", location, "-l", strconv.Itoa(maxLines)).Output()
	if err != nil {
		s.log.Debug("content fetch failed", zap.String("location", location), zap.Error(err))
		return ""
	}
	return strings.TrimSpace(string(out))
}
