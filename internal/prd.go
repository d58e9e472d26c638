package internal

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// ValidCategories are the allowed story categories in a PRD document.
var ValidCategories = []string{"edge-case", "functional", "integration", "performance", "ui"}

// prdSchema captures the structural rules of prd.json. Cross-field rules
// (priority ordering, dependency references) are checked separately.
var prdSchema = &jsonschema.Schema{
	Type:     "object",
	Required: []string{"title", "spec_path", "created_at", "stories", "log"},
	Properties: map[string]*jsonschema.Schema{
		"title":      {Type: "string"},
		"spec_path":  {Type: "string"},
		"created_at": {Type: "string"},
		"log":        {Type: "array"},
		"stories": {
			Type: "array",
			Items: &jsonschema.Schema{
				Type: "object",
				Required: []string{
					"id", "title", "category", "skills", "depends_on",
					"acceptance_criteria", "passes", "priority", "completed_at", "commit",
				},
				Properties: map[string]*jsonschema.Schema{
					"id":       {Type: "number"},
					"title":    {Type: "string"},
					"category": {Type: "string", Enum: []any{"functional", "ui", "integration", "edge-case", "performance"}},
					"skills":   {Type: "array"},
					"depends_on": {
						Type:  "array",
						Items: &jsonschema.Schema{Type: "number"},
					},
					"acceptance_criteria": {
						Type:  "array",
						Items: &jsonschema.Schema{Type: "string"},
					},
					"passes":       {Type: "boolean"},
					"priority":     {Type: "number"},
					"completed_at": {Types: []string{"string", "null"}},
					"commit":       {Types: []string{"string", "null"}},
				},
			},
		},
	},
}

var (
	prdResolveOnce sync.Once
	prdResolved    *jsonschema.Resolved
	prdResolveErr  error
)

func resolvedPRDSchema() (*jsonschema.Resolved, error) {
	prdResolveOnce.Do(func() {
		prdResolved, prdResolveErr = prdSchema.Resolve(nil)
	})
	return prdResolved, prdResolveErr
}

// prdStories models the fields needed for cross-field validation.
type prdDocument struct {
	Stories []struct {
		ID                 *float64  `json:"id"`
		DependsOn          []float64 `json:"depends_on"`
		AcceptanceCriteria []string  `json:"acceptance_criteria"`
		Priority           *float64  `json:"priority"`
	} `json:"stories"`
}

// ValidatePRD checks a prd.json payload and returns human-readable errors,
// empty when the document is valid. Unparsable JSON is itself an error.
func ValidatePRD(content string) []string {
	var instance any
	if err := json.Unmarshal([]byte(content), &instance); err != nil {
		return []string{fmt.Sprintf("invalid JSON: %v", err)}
	}

	var errs []string

	resolved, err := resolvedPRDSchema()
	if err != nil {
		errs = append(errs, fmt.Sprintf("schema unavailable: %v", err))
	} else if err := resolved.Validate(instance); err != nil {
		errs = append(errs, err.Error())
	}

	var doc prdDocument
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		// Shape errors were already reported by the schema pass.
		return errs
	}

	if doc.Stories != nil && len(doc.Stories) == 0 {
		errs = append(errs, "'stories' array must not be empty")
	}

	ids := make(map[float64]struct{})
	for _, s := range doc.Stories {
		if s.ID != nil {
			ids[*s.ID] = struct{}{}
		}
	}

	var priorities []float64
	for i, s := range doc.Stories {
		if s.AcceptanceCriteria != nil && len(s.AcceptanceCriteria) == 0 {
			errs = append(errs, fmt.Sprintf("stories[%d].acceptance_criteria: must have at least 1 item", i))
		}
		if s.Priority != nil {
			priorities = append(priorities, *s.Priority)
		}
		for _, dep := range s.DependsOn {
			if _, ok := ids[dep]; !ok {
				errs = append(errs, fmt.Sprintf("stories[%d].depends_on: references non-existent story ID %v", i, dep))
			}
		}
	}

	seen := make(map[float64]struct{})
	for _, p := range priorities {
		if _, dup := seen[p]; dup {
			errs = append(errs, "Duplicate priorities detected - each story must have unique priority")
			break
		}
		seen[p] = struct{}{}
	}
	if !sort.Float64sAreSorted(priorities) {
		errs = append(errs, "Priorities must be in ascending order")
	}

	return errs
}
