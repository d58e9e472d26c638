package internal

import (
	"context"
	"os"

	"github.com/go-git/go-git/v5"
)

// Status is a diagnostic snapshot of the hook environment, for the status
// command. Everything here is best effort; missing pieces are reported as
// absent rather than failing.
type Status struct {
	Backend          string `json:"backend"`
	BackendAvailable bool   `json:"backend_available"`
	CollectionExists bool   `json:"collection_exists"`
	Collection       string `json:"collection"`
	SessionID        string `json:"session_id"`
	ShownCount       int    `json:"shown_count"`
	ProjectDir       string `json:"project_dir,omitempty"`
	GitBranch        string `json:"git_branch,omitempty"`
}

// GatherStatus inspects the backend, the current session's dedup state,
// and the project checkout.
func GatherStatus(ctx context.Context, cfg *Config, searcher *Searcher, dedup *DedupStore) Status {
	st := Status{
		Backend:    cfg.Search.Binary,
		Collection: cfg.Search.Collection,
		SessionID:  UnknownSession,
	}

	if id := os.Getenv(EnvSessionID); id != "" {
		st.SessionID = id
	}
	st.ShownCount = len(dedup.Shown(st.SessionID))

	if searcher.Available() {
		st.BackendAvailable = true
		st.CollectionExists = searcher.CollectionExists(ctx)
	}

	st.ProjectDir = os.Getenv(EnvProjectDir)
	if st.ProjectDir == "" {
		st.ProjectDir, _ = os.Getwd()
	}
	st.GitBranch = currentBranch(st.ProjectDir)

	return st
}

// currentBranch returns the checked-out branch of the project, or "" when
// the project is not a git repository.
func currentBranch(dir string) string {
	if dir == "" {
		return ""
	}

	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}

	head, err := repo.Head()
	if err != nil {
		return ""
	}
	return head.Name().Short()
}
