package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"scenecheck/internal/diag"
)

const (
	sarifVersion = "2.1.0"
	sarifSchema  = "https://json.schemastore.org/sarif-2.1.0.json"
)

type sarifLog struct {
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
	Version string      `json:"version,omitempty"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	ShortDescription     sarifMessage    `json:"shortDescription"`
	DefaultConfiguration sarifRuleConfig `json:"defaultConfiguration"`
}

type sarifRuleConfig struct {
	Level string `json:"level"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifInvocation struct {
	Arguments           []string `json:"arguments,omitempty"`
	ExecutionSuccessful bool     `json:"executionSuccessful"`
}

type sarifResult struct {
	RuleID           string          `json:"ruleId"`
	RuleIndex        int             `json:"ruleIndex"`
	Level            string          `json:"level"`
	Message          sarifMessage    `json:"message"`
	Locations        []sarifLocation `json:"locations"`
	RelatedLocations []sarifLocation `json:"relatedLocations,omitempty"`
}

type sarifLocation struct {
	ID               *int                  `json:"id,omitempty"`
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
	LogicalLocations []sarifLogicalLoc     `json:"logicalLocations,omitempty"`
	Message          *sarifMessage         `json:"message,omitempty"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifLogicalLoc struct {
	Name               string `json:"name"`
	FullyQualifiedName string `json:"fullyQualifiedName"`
	Kind               string `json:"kind"`
}

func sarifLevel(s diag.Severity) string {
	switch s {
	case diag.SevError:
		return "error"
	case diag.SevWarning:
		return "warning"
	default:
		return "note"
	}
}

// ruleName turns a code title into the PascalCase name SARIF viewers expect.
func ruleName(title string) string {
	var b strings.Builder
	for _, word := range strings.FieldsFunc(title, func(r rune) bool {
		return r == ' ' || r == '-' || r == '\''
	}) {
		b.WriteString(strings.ToUpper(word[:1]))
		b.WriteString(word[1:])
	}
	return b.String()
}

func sarifLocationOf(loc diag.Location, baseDir string) sarifLocation {
	uri := formatPath(loc.File, PathModeRelative, baseDir)
	out := sarifLocation{
		PhysicalLocation: sarifPhysicalLocation{
			ArtifactLocation: sarifArtifactLocation{URI: uri},
		},
	}
	if loc.HasLine() {
		name := fmt.Sprintf("lines[%d]", loc.Line)
		if loc.LineID != "" {
			name = loc.LineID
		}
		out.LogicalLocations = []sarifLogicalLoc{{
			Name:               name,
			FullyQualifiedName: fmt.Sprintf("%s/lines[%d]", uri, loc.Line),
			Kind:               "element",
		}}
	}
	return out
}

// buildSarif собирает SARIF-лог (v2.1.0) без сериализации.
// Все известные коды попадают в rules, ruleIndex указывает на них.
func buildSarif(bag *diag.Bag, meta SarifRunMeta) sarifLog {
	codes := diag.Codes()
	index := make(map[diag.Code]int, len(codes))
	rules := make([]sarifRule, 0, len(codes))
	for i, c := range codes {
		index[c] = i
		rules = append(rules, sarifRule{
			ID:                   c.ID(),
			Name:                 ruleName(c.Title()),
			ShortDescription:     sarifMessage{Text: c.Title()},
			DefaultConfiguration: sarifRuleConfig{Level: sarifLevel(c.Severity())},
		})
	}

	results := make([]sarifResult, 0, bag.Len())
	for _, d := range bag.Items() {
		ruleIdx, ok := index[d.Code]
		if !ok {
			ruleIdx = -1
		}
		res := sarifResult{
			RuleID:    d.Code.ID(),
			RuleIndex: ruleIdx,
			Level:     sarifLevel(d.Severity),
			Message:   sarifMessage{Text: d.Message},
			Locations: []sarifLocation{sarifLocationOf(d.Primary, meta.BaseDir)},
		}
		for i, n := range d.Notes {
			rel := sarifLocationOf(n.Where, meta.BaseDir)
			id := i
			rel.ID = &id
			rel.Message = &sarifMessage{Text: n.Msg}
			res.RelatedLocations = append(res.RelatedLocations, rel)
		}
		results = append(results, res)
	}

	name := meta.ToolName
	if name == "" {
		name = "scenecheck"
	}
	return sarifLog{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{{
			Tool: sarifTool{Driver: sarifDriver{
				Name:    name,
				Version: meta.ToolVersion,
				Rules:   rules,
			}},
			Invocations: []sarifInvocation{{
				Arguments:           meta.InvocationArgs,
				ExecutionSuccessful: meta.Successful,
			}},
			Results: results,
		}},
	}
}

// Sarif форматирует диагностики в SARIF формат (v2.1.0)
func Sarif(w io.Writer, bag *diag.Bag, meta SarifRunMeta) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(buildSarif(bag, meta))
}
