// # internal/ui/report/formats/sarif.go
package formats

import (
	"encoding/json"
	"path/filepath"
	"sort"

	"coalesce/internal/core/ports"
	"coalesce/internal/engine/inspect"
	"coalesce/internal/shared/version"
)

// SARIF v2.1.0 schema – see https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json

const (
	sarifSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
	sarifVersion = "2.1.0"
	srcRoot      = "%SRCROOT%"
)

// sarifReport is the top-level SARIF document.
type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool        sarifTool         `json:"tool"`
	Invocations []sarifInvocation `json:"invocations,omitempty"`
	Results     []sarifResult     `json:"results"`
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

type sarifInvocation struct {
	ExecutionSuccessful bool                `json:"executionSuccessful"`
	Notifications       []sarifNotification `json:"toolExecutionNotifications,omitempty"`
}

type sarifNotification struct {
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifResult struct {
	RuleID     string            `json:"ruleId"`
	Level      string            `json:"level"`
	Message    sarifMessage      `json:"message"`
	Locations  []sarifLocation   `json:"locations,omitempty"`
	Fixes      []sarifFix        `json:"fixes,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId"`
}

type sarifRegion struct {
	StartLine   int  `json:"startLine,omitempty"`
	StartColumn int  `json:"startColumn,omitempty"`
	ByteOffset  *int `json:"byteOffset,omitempty"`
	ByteLength  *int `json:"byteLength,omitempty"`
}

type sarifFix struct {
	Description     sarifMessage          `json:"description"`
	ArtifactChanges []sarifArtifactChange `json:"artifactChanges"`
}

type sarifArtifactChange struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Replacements     []sarifReplacement    `json:"replacements"`
}

type sarifReplacement struct {
	DeletedRegion   sarifRegion  `json:"deletedRegion"`
	InsertedContent sarifMessage `json:"insertedContent"`
}

// GenerateSARIF builds a SARIF v2.1.0 document from scanned files.
// All file URIs are made relative to projectRoot; absolute paths are never
// included so that reports are safe to share.
func GenerateSARIF(projectRoot string, files []ports.FileReport) ([]byte, error) {
	results := make([]sarifResult, 0)
	var notes []sarifNotification

	for _, file := range sortedFiles(files) {
		uri := relativeURI(projectRoot, file.Path)
		if file.Err != nil {
			notes = append(notes, sarifNotification{
				Level:     "error",
				Message:   sarifMessage{Text: file.Err.Error()},
				Locations: []sarifLocation{fileLocation(uri, nil)},
			})
			continue
		}

		for i, f := range file.Findings {
			result := sarifResult{
				RuleID:  f.Rule,
				Level:   "warning",
				Message: sarifMessage{Text: f.Message},
				Locations: []sarifLocation{fileLocation(uri, &sarifRegion{
					StartLine:   f.Position.Line,
					StartColumn: f.Position.Column,
				})},
				Properties: map[string]string{"pattern": f.Pattern},
			}
			if edit, ok := file.Edits[i]; ok && f.Fix != nil {
				offset, length := int(edit.Start), int(edit.End-edit.Start)
				result.Fixes = []sarifFix{{
					Description: sarifMessage{Text: f.Fix.Label()},
					ArtifactChanges: []sarifArtifactChange{{
						ArtifactLocation: sarifArtifactLocation{URI: uri, URIBaseID: srcRoot},
						Replacements: []sarifReplacement{{
							DeletedRegion:   sarifRegion{ByteOffset: &offset, ByteLength: &length},
							InsertedContent: sarifMessage{Text: edit.Text},
						}},
					}},
				}}
			}
			results = append(results, result)
		}
	}

	run := sarifRun{
		Tool: sarifTool{
			Driver: sarifDriver{
				Name:    "coalesce",
				Version: version.Version,
				Rules:   buildSARIFRules(len(results) > 0),
			},
		},
		Results: results,
	}
	if len(notes) > 0 {
		run.Invocations = []sarifInvocation{{ExecutionSuccessful: true, Notifications: notes}}
	}

	report := sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs:    []sarifRun{run},
	}
	return json.MarshalIndent(report, "", "  ")
}

// buildSARIFRules returns only the rules that are relevant for the given findings.
func buildSARIFRules(hasFindings bool) []sarifRule {
	rules := make([]sarifRule, 0, 1)
	if hasFindings {
		rules = append(rules, sarifRule{
			ID:               inspect.RuleID,
			Name:             "NullCoalescingOperatorCanBeUsed",
			ShortDescription: sarifMessage{Text: "A construct can be replaced by the null coalescing operator (??)."},
			DefaultConfig:    sarifRuleDefaultConfig{Level: "warning"},
		})
	}
	return rules
}

func fileLocation(uri string, region *sarifRegion) sarifLocation {
	return sarifLocation{
		PhysicalLocation: sarifPhysicalLocation{
			ArtifactLocation: sarifArtifactLocation{URI: uri, URIBaseID: srcRoot},
			Region:           region,
		},
	}
}

// relativeURI converts an absolute file path to a forward-slash relative URI
// anchored at projectRoot. If the path is already relative or projectRoot is
// empty, the original path (with forward slashes) is returned.
func relativeURI(projectRoot, filePath string) string {
	if projectRoot != "" && filepath.IsAbs(filePath) {
		rel, err := filepath.Rel(projectRoot, filePath)
		if err == nil {
			filePath = rel
		}
	}
	// SARIF URIs use forward slashes.
	return filepath.ToSlash(filePath)
}

func sortedFiles(files []ports.FileReport) []ports.FileReport {
	out := append([]ports.FileReport(nil), files...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
