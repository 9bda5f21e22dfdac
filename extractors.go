package thirdbrain

import (
	"strconv"
	"strings"
)

// FieldExtractor pulls a string value out of a decoded JSON document.
//
// FieldExtractor is a pure function: it reports false when the field is
// missing, empty, or not a scalar. Extractors compose with [FirstMatch].
type FieldExtractor func(data any) (string, bool)

// JSONField returns a [FieldExtractor] that walks data using dot notation.
//
// Object keys and array indexes may be mixed: "outputs.0.url" navigates to
// {"outputs": [{"url": "..."}]}. Strings are returned as is; numbers and
// booleans are formatted.
//
// Example:
//
//	url := thirdbrain.JSONField("exports.0.url")
func JSONField(path string) FieldExtractor {
	parts := strings.Split(path, ".")

	return func(data any) (string, bool) {
		value, ok := Lookup(data, parts...)
		if !ok {
			return "", false
		}
		return scalarString(value)
	}
}

// Lookup walks data along parts and returns the value found there.
//
// Each part is an object key, or an array index for arrays.
func Lookup(data any, parts ...string) (any, bool) {
	current := data

	for _, part := range parts {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[part]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}

	return current, current != nil
}

// scalarString converts a JSON scalar to its string form.
func scalarString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, val != ""
	case bool:
		return strconv.FormatBool(val), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	default:
		return "", false
	}
}

// FirstMatch returns a [FieldExtractor] that tries extractors in order and
// returns the first value found.
//
// Example:
//
//	id := thirdbrain.FirstMatch(
//	    thirdbrain.JSONField("generationId"),
//	    thirdbrain.JSONField("generation_id"),
//	    thirdbrain.JSONField("id"),
//	)
func FirstMatch(extractors ...FieldExtractor) FieldExtractor {
	return func(data any) (string, bool) {
		for _, extractor := range extractors {
			if v, ok := extractor(data); ok {
				return v, true
			}
		}
		return "", false
	}
}

// FirstField is shorthand for [FirstMatch] over [JSONField] extractors.
func FirstField(paths ...string) FieldExtractor {
	extractors := make([]FieldExtractor, len(paths))
	for i, p := range paths {
		extractors[i] = JSONField(p)
	}
	return FirstMatch(extractors...)
}

// StatusNormalizer maps a provider status label onto an [Outcome].
type StatusNormalizer func(label string) Outcome

// NewStatusNormalizer returns a [StatusNormalizer] that compares labels
// case-insensitively against the completed and failed sets. Any other label,
// including an empty or unknown one, is [OutcomeInProgress].
//
// Example:
//
//	normalize := thirdbrain.NewStatusNormalizer(
//	    []string{"completed", "succeeded"},
//	    []string{"failed", "error"},
//	)
func NewStatusNormalizer(completed, failed []string) StatusNormalizer {
	done := toSet(completed)
	bad := toSet(failed)

	return func(label string) Outcome {
		l := strings.ToLower(strings.TrimSpace(label))
		switch {
		case done[l]:
			return OutcomeCompleted
		case bad[l]:
			return OutcomeFailed
		default:
			return OutcomeInProgress
		}
	}
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = true
	}
	return set
}
