package report

import (
	"encoding/json"
	"fmt"

	"impactgraph/internal/core/errors"
	"impactgraph/internal/engine/impact"
)

// SARIF v2.1.0 schema – see https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json

const (
	sarifSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
	sarifVersion = "2.1.0"
)

type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool       sarifTool      `json:"tool"`
	Results    []sarifResult  `json:"results"`
	Properties map[string]any `json:"properties,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	ShortDescription sarifMessage           `json:"shortDescription"`
	DefaultConfig    sarifRuleDefaultConfig `json:"defaultConfiguration"`
}

type sarifRuleDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId"`
}

type warningRule struct {
	id, name, description, level string
}

var warningRules = map[errors.ErrorCode]warningRule{
	errors.CodeUnresolvedImport: {"IMP001", "UnresolvedImport", "Import specifier does not resolve to a project file.", "warning"},
	errors.CodeParseFailed:      {"IMP002", "ParseFailed", "File could not be parsed; its last known imports are used.", "warning"},
	errors.CodeNoParserFound:    {"IMP003", "NoParserFound", "No parser handles this file type; it is tracked as a leaf.", "note"},
	errors.CodeNotTracked:       {"IMP004", "NotTracked", "Changed path is not part of the dependency graph.", "note"},
	errors.CodeMissingContent:   {"IMP005", "MissingContent", "Change set did not carry the file's content.", "warning"},
}

var fallbackRule = warningRule{"IMP000", "EngineWarning", "Other engine warning.", "note"}

// GenerateSARIF turns the warnings of res into a SARIF v2.1.0 document. The
// impact score and counts travel as run properties. Paths are already
// project-relative.
func GenerateSARIF(res impact.Result, toolVersion string) ([]byte, error) {
	seen := make(map[string]bool)
	rules := make([]sarifRule, 0)
	results := make([]sarifResult, 0, len(res.Warnings))

	for _, w := range res.Warnings {
		rule, ok := warningRules[w.Code]
		if !ok {
			rule = fallbackRule
		}
		if !seen[rule.id] {
			seen[rule.id] = true
			rules = append(rules, sarifRule{
				ID:               rule.id,
				Name:             rule.name,
				ShortDescription: sarifMessage{Text: rule.description},
				DefaultConfig:    sarifRuleDefaultConfig{Level: rule.level},
			})
		}

		msg := fmt.Sprintf("%s: %s", w.Code, w.Path)
		if w.Detail != "" {
			msg = fmt.Sprintf("%s: %s (%s)", w.Code, w.Path, w.Detail)
		}
		results = append(results, sarifResult{
			RuleID:  rule.id,
			Level:   rule.level,
			Message: sarifMessage{Text: msg},
			Locations: []sarifLocation{{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{URI: w.Path, URIBaseID: "%SRCROOT%"},
				},
			}},
		})
	}

	doc := sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{{
			Tool: sarifTool{Driver: sarifDriver{
				Name:    "impactgraph",
				Version: toolVersion,
				Rules:   rules,
			}},
			Results: results,
			Properties: map[string]any{
				"impactScore":   res.Score,
				"totalAffected": res.TotalAffected,
				"pages":         res.Pages,
			},
		}},
	}
	return json.MarshalIndent(doc, "", "  ")
}
