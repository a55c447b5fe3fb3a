package ranking

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/ranking-reports/internal/types"
)

// Structured feedback field names as produced by the analysis workflow.
const (
	fieldMatching           = "matching"
	fieldRelevantExperience = "experiencia_relevante"
	fieldKeySkills          = "habilidades_clave"
	fieldStrengths          = "fortalezas"
	fieldGrowthAreas        = "areas_desarrollo"
	fieldCulturalFit        = "fit_cultural"
)

// freeTextCulturalFit is assumed when cultural fit cannot be read from free text.
const freeTextCulturalFit = 50

var (
	percentPattern = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*%`)

	experiencePattern  = labelPattern(`experiencia(?:\s+relevante)?`)
	skillsPattern      = labelPattern(`habilidades(?:\s+clave)?`)
	strengthsPattern   = labelPattern(`fortalezas`)
	growthAreasPattern = labelPattern(`[áa]reas\s+(?:de\s+mejora|de\s+desarrollo|a\s+mejorar)`)

	listSeparator = regexp.MustCompile(`[,;]`)
)

// labelPattern matches "<label>: value" up to the end of the sentence or line.
func labelPattern(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?im)` + label + `\s*:\s*(.+?)(?:\.(?:\s|$)|$)`)
}

// ParseFeedback derives comparable attributes from an application's feedback.
// A JSON object is read field by field; anything else is treated as free text.
// Absent or blank feedback yields empty attributes.
func ParseFeedback(raw *string) types.FeedbackAttributes {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return types.EmptyFeedback()
	}
	if attrs, ok := parseStructured(*raw); ok {
		return attrs
	}
	return parseFreeText(*raw)
}

// parseStructured reads the named fields of a JSON object payload. It reports
// false when the payload is not a JSON object.
func parseStructured(raw string) (types.FeedbackAttributes, bool) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return types.FeedbackAttributes{}, false
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		return types.FeedbackAttributes{}, false
	}

	return types.FeedbackAttributes{
		MatchPercentage:    numberField(fields, fieldMatching),
		RelevantExperience: listField(fields, fieldRelevantExperience),
		KeySkills:          listField(fields, fieldKeySkills),
		Strengths:          listField(fields, fieldStrengths),
		GrowthAreas:        listField(fields, fieldGrowthAreas),
		CulturalFit:        numberField(fields, fieldCulturalFit),
	}, true
}

func numberField(fields map[string]any, name string) float64 {
	if n, ok := fields[name].(float64); ok {
		return n
	}
	return 0
}

func listField(fields map[string]any, name string) []string {
	items, ok := fields[name].([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// parseFreeText extracts attributes from prose on a best-effort basis.
func parseFreeText(text string) types.FeedbackAttributes {
	return types.FeedbackAttributes{
		MatchPercentage:    extractPercentage(text),
		RelevantExperience: extractList(text, experiencePattern),
		KeySkills:          extractList(text, skillsPattern),
		Strengths:          extractList(text, strengthsPattern),
		GrowthAreas:        extractList(text, growthAreasPattern),
		CulturalFit:        freeTextCulturalFit,
	}
}

func extractPercentage(text string) float64 {
	m := percentPattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(strings.Replace(m[1], ",", ".", 1), 64)
	if err != nil {
		return 0
	}
	return v
}

func extractList(text string, pattern *regexp.Regexp) []string {
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return []string{}
	}
	return splitList(m[1])
}

// splitList splits on commas and semicolons, trims, and drops empty fragments.
func splitList(segment string) []string {
	parts := listSeparator.Split(segment, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
