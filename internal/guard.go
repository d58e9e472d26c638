package internal

import (
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Decision is the guard's verdict on a shell command.
type Decision struct {
	Block  bool
	Reason string
}

// guardRule blocks commands matching pattern unless exclude also matches.
// exclude stands in for the lookahead assertions of the original patterns.
type guardRule struct {
	pattern *regexp.Regexp
	exclude *regexp.Regexp
	reason  string
}

var destructiveRules = []guardRule{
	// git checkout that discards changes (but not branch operations)
	{pattern: regexp.MustCompile(`(?i)git\s+checkout\s+--\s+`), reason: "git checkout -- discards uncommitted changes"},
	{pattern: regexp.MustCompile(`(?i)git\s+checkout\s+\.\s*$`), reason: "git checkout . discards all uncommitted changes"},
	{pattern: regexp.MustCompile(`(?i)git\s+checkout\s+HEAD\s+--`), reason: "git checkout HEAD -- discards changes"},

	// git restore without --staged discards working tree changes
	{
		pattern: regexp.MustCompile(`(?i)git\s+restore\s+.*\S`),
		exclude: regexp.MustCompile(`(?i)--staged|\s-S\b`),
		reason:  "git restore discards uncommitted changes (use --staged for staging area)",
	},

	{pattern: regexp.MustCompile(`(?i)git\s+reset\s+--hard`), reason: "git reset --hard discards all uncommitted changes"},
	{pattern: regexp.MustCompile(`(?i)git\s+reset\s+--merge`), reason: "git reset --merge can discard changes"},

	{pattern: regexp.MustCompile(`(?i)git\s+clean\s+-[a-zA-Z]*f`), reason: "git clean -f permanently deletes untracked files"},

	{
		pattern: regexp.MustCompile(`(?i)git\s+push\s+.*--force`),
		exclude: regexp.MustCompile(`(?i)--force-with-lease`),
		reason:  "git push --force can overwrite remote history (use --force-with-lease)",
	},
	{pattern: regexp.MustCompile(`(?i)git\s+push\s+.*-f(\s|$)`), reason: "git push -f can overwrite remote history"},

	{pattern: regexp.MustCompile(`(?i)git\s+branch\s+-D`), reason: "git branch -D force deletes without merge check (use -d)"},

	{pattern: regexp.MustCompile(`(?i)git\s+stash\s+drop`), reason: "git stash drop permanently deletes stashed changes"},
	{pattern: regexp.MustCompile(`(?i)git\s+stash\s+clear`), reason: "git stash clear deletes ALL stashed changes"},

	{
		pattern: regexp.MustCompile(`(?i)git\s+rm\s+`),
		exclude: regexp.MustCompile(`(?i)--cached`),
		reason:  "git rm permanently deletes files (use --cached to only unstage)",
	},

	{
		pattern: regexp.MustCompile(`(?i)rm\s+-[a-zA-Z]*r[a-zA-Z]*f|rm\s+-[a-zA-Z]*f[a-zA-Z]*r`),
		reason:  "rm -rf permanently deletes files",
	},
}

// Commands that are safe despite matching a destructive pattern.
var safePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)git\s+checkout\s+-b`),       // create new branch
	regexp.MustCompile(`(?i)git\s+checkout\s+-B`),       // create/reset branch
	regexp.MustCompile(`(?i)git\s+checkout\s+--orphan`), // create orphan branch
	regexp.MustCompile(`(?i)git\s+restore\s+--staged`),  // unstage files
	regexp.MustCompile(`(?i)git\s+restore\s+-S`),
}

// defaultSafeRemoveGlobs are removal targets that are always acceptable:
// build output and cache directories.
var defaultSafeRemoveGlobs = []string{
	"/tmp/**",
	"/var/tmp/**",
	"**/node_modules{,/**}",
	"**/.next{,/**}",
	"**/dist{,/**}",
	"**/build{,/**}",
	"**/__pycache__{,/**}",
	"**/.pytest_cache{,/**}",
	"**/.mypy_cache{,/**}",
	"**/target{,/**}",
	"**/.gradle{,/**}",
	"**/.cache{,/**}",
}

var rmPattern = regexp.MustCompile(`(?i)^\s*rm\s+`)

// CheckCommand classifies a shell command. extraSafeGlobs extends the
// built-in list of removal targets that never warrant a block.
func CheckCommand(command string, extraSafeGlobs []string) Decision {
	for _, p := range safePatterns {
		if p.MatchString(command) {
			return Decision{}
		}
	}

	for _, rule := range destructiveRules {
		if !rule.pattern.MatchString(command) {
			continue
		}
		if rule.exclude != nil && rule.exclude.MatchString(command) {
			continue
		}
		if strings.HasPrefix(rule.reason, "rm -rf") && removeTargetsSafe(command, extraSafeGlobs) {
			continue
		}
		return Decision{Block: true, Reason: rule.reason}
	}

	return Decision{}
}

// removeTargetsSafe reports whether every target of an rm command matches
// a safe glob. Unparseable commands are never considered safe.
func removeTargetsSafe(command string, extraGlobs []string) bool {
	if !rmPattern.MatchString(command) {
		return false
	}

	globs := append(append([]string{}, defaultSafeRemoveGlobs...), extraGlobs...)

	fields := strings.Fields(command)
	targets := 0
	for _, f := range fields[1:] {
		if strings.HasPrefix(f, "-") {
			continue
		}
		targets++
		safe := false
		for _, g := range globs {
			if ok, err := doublestar.Match(g, f); err == nil && ok {
				safe = true
				break
			}
		}
		if !safe {
			return false
		}
	}
	return targets > 0
}
