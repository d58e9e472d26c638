package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckCommandBlocksDestructive(t *testing.T) {
	blocked := []string{
		"git checkout -- src/main.go",
		"git checkout .",
		"git checkout HEAD -- file.txt",
		"git restore src/main.go",
		"git reset --hard HEAD~1",
		"git reset --merge",
		"git clean -fd",
		"git push --force origin main",
		"git push origin main -f",
		"git branch -D feature",
		"git stash drop",
		"git stash clear",
		"git rm src/main.go",
		"rm -rf src",
		"rm -fr ./important",
	}

	for _, cmd := range blocked {
		d := CheckCommand(cmd, nil)
		assert.True(t, d.Block, "expected block: %s", cmd)
		assert.NotEmpty(t, d.Reason, "expected reason: %s", cmd)
	}
}

func TestCheckCommandAllowsSafe(t *testing.T) {
	allowed := []string{
		"git status",
		"git checkout -b new-feature",
		"git checkout -B rebuilt-branch",
		"git checkout --orphan docs",
		"git checkout main",
		"git restore --staged src/main.go",
		"git restore -S src/main.go",
		"git reset HEAD~1",
		"git push origin main",
		"git push --force-with-lease origin main",
		"git branch -d merged-feature",
		"git stash",
		"git stash pop",
		"git rm --cached secrets.env",
		"rm file.txt",
		"ls -la",
	}

	for _, cmd := range allowed {
		d := CheckCommand(cmd, nil)
		assert.False(t, d.Block, "expected allow: %s (reason: %s)", cmd, d.Reason)
	}
}

func TestCheckCommandAllowsSafeRemoveTargets(t *testing.T) {
	allowed := []string{
		"rm -rf /tmp/scratch",
		"rm -rf node_modules",
		"rm -rf ./node_modules",
		"rm -rf build",
		"rm -rf __pycache__ .pytest_cache",
	}

	for _, cmd := range allowed {
		d := CheckCommand(cmd, nil)
		assert.False(t, d.Block, "expected allow: %s (reason: %s)", cmd, d.Reason)
	}
}

func TestCheckCommandBlocksMixedRemoveTargets(t *testing.T) {
	// One unsafe target poisons the whole command.
	d := CheckCommand("rm -rf node_modules src", nil)
	assert.True(t, d.Block)
}

func TestCheckCommandBlocksBareRecursiveRemove(t *testing.T) {
	// No targets at all is never considered safe.
	d := CheckCommand("rm -rf", nil)
	assert.True(t, d.Block)
}

func TestCheckCommandExtraSafeGlobs(t *testing.T) {
	assert.True(t, CheckCommand("rm -rf scratch/data", nil).Block)
	assert.False(t, CheckCommand("rm -rf scratch/data", []string{"scratch/**"}).Block)
}
