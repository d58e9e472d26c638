package internal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPRD(t *testing.T, mutate func(doc map[string]any)) string {
	t.Helper()
	doc := map[string]any{
		"title":      "Demo project",
		"spec_path":  "spec.md",
		"created_at": "2026-01-01T00:00:00Z",
		"log":        []any{},
		"stories": []any{
			map[string]any{
				"id":                  float64(1),
				"title":               "First story",
				"category":            "functional",
				"skills":              []any{"go"},
				"depends_on":          []any{},
				"acceptance_criteria": []any{"it works"},
				"passes":              false,
				"priority":            float64(1),
				"completed_at":        nil,
				"commit":              nil,
			},
			map[string]any{
				"id":                  float64(2),
				"title":               "Second story",
				"category":            "integration",
				"skills":              []any{},
				"depends_on":          []any{float64(1)},
				"acceptance_criteria": []any{"also works"},
				"passes":              false,
				"priority":            float64(2),
				"completed_at":        nil,
				"commit":              nil,
			},
		},
	}
	if mutate != nil {
		mutate(doc)
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	return string(data)
}

func story(doc map[string]any, i int) map[string]any {
	return doc["stories"].([]any)[i].(map[string]any)
}

func TestValidatePRDAccepts(t *testing.T) {
	assert.Empty(t, ValidatePRD(validPRD(t, nil)))
}

func TestValidatePRDInvalidJSON(t *testing.T) {
	errs := ValidatePRD("{not json")
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "invalid JSON")
}

func TestValidatePRDMissingRootField(t *testing.T) {
	content := validPRD(t, func(doc map[string]any) {
		delete(doc, "spec_path")
	})
	assert.NotEmpty(t, ValidatePRD(content))
}

func TestValidatePRDMissingStoryField(t *testing.T) {
	content := validPRD(t, func(doc map[string]any) {
		delete(story(doc, 0), "passes")
	})
	assert.NotEmpty(t, ValidatePRD(content))
}

func TestValidatePRDBadCategory(t *testing.T) {
	content := validPRD(t, func(doc map[string]any) {
		story(doc, 0)["category"] = "chore"
	})
	assert.NotEmpty(t, ValidatePRD(content))
}

func TestValidatePRDEmptyStories(t *testing.T) {
	content := validPRD(t, func(doc map[string]any) {
		doc["stories"] = []any{}
	})

	errs := ValidatePRD(content)
	found := false
	for _, e := range errs {
		if e == "'stories' array must not be empty" {
			found = true
		}
	}
	assert.True(t, found, "errors: %v", errs)
}

func TestValidatePRDEmptyAcceptanceCriteria(t *testing.T) {
	content := validPRD(t, func(doc map[string]any) {
		story(doc, 0)["acceptance_criteria"] = []any{}
	})

	errs := ValidatePRD(content)
	assert.Contains(t, errs, "stories[0].acceptance_criteria: must have at least 1 item")
}

func TestValidatePRDDuplicatePriorities(t *testing.T) {
	content := validPRD(t, func(doc map[string]any) {
		story(doc, 1)["priority"] = float64(1)
	})

	errs := ValidatePRD(content)
	assert.Contains(t, errs, "Duplicate priorities detected - each story must have unique priority")
}

func TestValidatePRDUnsortedPriorities(t *testing.T) {
	content := validPRD(t, func(doc map[string]any) {
		story(doc, 0)["priority"] = float64(5)
	})

	errs := ValidatePRD(content)
	assert.Contains(t, errs, "Priorities must be in ascending order")
}

func TestValidatePRDDanglingDependency(t *testing.T) {
	content := validPRD(t, func(doc map[string]any) {
		story(doc, 1)["depends_on"] = []any{float64(99)}
	})

	errs := ValidatePRD(content)
	assert.Contains(t, errs, "stories[1].depends_on: references non-existent story ID 99")
}
