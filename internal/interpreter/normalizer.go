package interpreter

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xeipuuv/gojsonschema"

	"github.com/cbioportal-query-assistant/internal/domain"
)

// MalformedReasoning is the reasoning attached to an unparsable answer.
const MalformedReasoning = "interpreter output could not be parsed"

// The schema only pins the root to an object. Field types are coerced
// afterwards and violations of the looser field schema are logged.
const rootSchema = `{"type": "object"}`

const fieldSchema = `{
  "type": "object",
  "properties": {
    "genes":        {"type": "array", "items": {"type": "string"}},
    "cancer_types": {"type": "array", "items": {"type": "string"}},
    "query_type":   {"type": "string", "enum": ["mutations", "expression", "copy_number", "clinical", "general"]},
    "filters":      {"type": "array", "items": {"type": "string"}},
    "confidence":   {"type": "number", "minimum": 0, "maximum": 10},
    "reasoning":    {"type": "string"}
  },
  "required": ["genes", "query_type", "confidence"]
}`

var fencePattern = regexp.MustCompile("(?s)```[a-zA-Z0-9_-]*\\s*\\n?(.*?)```")

// Normalizer converts raw interpreter text into a QueryInterpretation.
type Normalizer struct {
	root   *gojsonschema.Schema
	fields *gojsonschema.Schema
	logger *logrus.Logger
}

// NewNormalizer compiles the interpretation schemas.
func NewNormalizer(logger *logrus.Logger) (*Normalizer, error) {
	if logger == nil {
		logger = logrus.New()
	}
	root, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(rootSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile root schema: %w", err)
	}
	fields, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(fieldSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile field schema: %w", err)
	}
	return &Normalizer{root: root, fields: fields, logger: logger}, nil
}

// Normalize never fails: unparsable text yields a zero-confidence
// interpretation with FallbackUsed set.
func (n *Normalizer) Normalize(raw string) domain.QueryInterpretation {
	text := StripFences(raw)

	var doc interface{}
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		n.logger.WithError(err).Debug("interpreter output is not JSON")
		return Malformed()
	}

	result, err := n.root.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil || !result.Valid() {
		n.logger.Debug("interpreter output root is not an object")
		return Malformed()
	}
	obj := doc.(map[string]interface{})

	if check, err := n.fields.Validate(gojsonschema.NewGoLoader(doc)); err == nil && !check.Valid() {
		warnings := make([]string, 0, len(check.Errors()))
		for _, e := range check.Errors() {
			warnings = append(warnings, e.String())
		}
		n.logger.WithField("warnings", warnings).Debug("coercing interpreter output")
	}

	return domain.QueryInterpretation{
		Genes:       stringList(obj["genes"], strings.ToUpper),
		CancerTypes: stringList(obj["cancer_types"], strings.ToLower),
		QueryType:   queryType(obj["query_type"]),
		Filters:     stringList(obj["filters"], nil),
		Confidence:  confidence(obj["confidence"]),
		Reasoning:   reasoning(obj["reasoning"]),
	}
}

// Malformed is the interpretation returned for unusable output.
func Malformed() domain.QueryInterpretation {
	return domain.QueryInterpretation{
		Genes:        []string{},
		CancerTypes:  []string{},
		QueryType:    domain.QueryGeneral,
		Filters:      []string{},
		Confidence:   domain.FallbackConfidence,
		Reasoning:    MalformedReasoning,
		FallbackUsed: true,
	}
}

// StripFences removes Markdown code fences and any prose around a JSON
// object. Applying it twice gives the same result as applying it once.
func StripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}
	if strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}") {
		return text
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}

func stringList(v interface{}, transform func(string) string) []string {
	var items []interface{}
	switch t := v.(type) {
	case []interface{}:
		items = t
	case string:
		items = []interface{}{t}
	}

	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		var s string
		switch x := item.(type) {
		case string:
			s = x
		case float64:
			s = strconv.FormatFloat(x, 'f', -1, 64)
		default:
			continue
		}
		s = strings.TrimSpace(s)
		if transform != nil {
			s = transform(s)
		}
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func queryType(v interface{}) domain.QueryType {
	s, ok := v.(string)
	if !ok {
		return domain.QueryGeneral
	}
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	qt := domain.QueryType(s)
	if !qt.IsValid() {
		return domain.QueryGeneral
	}
	return qt
}

func confidence(v interface{}) float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return domain.DefaultConfidence
		}
		f = parsed
	default:
		return domain.DefaultConfidence
	}
	if math.IsNaN(f) {
		return domain.DefaultConfidence
	}
	return math.Max(domain.MinConfidence, math.Min(domain.MaxConfidence, f))
}

func reasoning(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
