package normalizer

// Schema is the response layout a backend variant uses
type Schema int

const (
	// SchemaFlat keeps optimized metrics at the response root
	SchemaFlat Schema = iota
	// SchemaNested uses "optimized" / "original" sections
	SchemaNested
	// SchemaMetrics uses "optimized_metrics" / "original_metrics" sections
	SchemaMetrics
)

func (s Schema) String() string {
	switch s {
	case SchemaNested:
		return "nested"
	case SchemaMetrics:
		return "metrics"
	default:
		return "flat"
	}
}

// sectionPaths returns the optimized and original section roots for a schema.
// original is "" when the schema has no original section.
func (s Schema) sectionPaths(root map[string]interface{}) (optimized, original string) {
	switch s {
	case SchemaNested:
		optimized = "$.optimized"
	case SchemaMetrics:
		optimized = "$.optimized_metrics"
	default:
		optimized = "$"
	}

	// either original alias may accompany either optimized alias
	if isObject(root["original"]) {
		original = "$.original"
	} else if isObject(root["original_metrics"]) {
		original = "$.original_metrics"
	}
	return optimized, original
}

// Detect picks the schema of an (unwrapped) response root
func Detect(root map[string]interface{}) Schema {
	switch {
	case isObject(root["optimized"]):
		return SchemaNested
	case isObject(root["optimized_metrics"]):
		return SchemaMetrics
	default:
		return SchemaFlat
	}
}

// unwrap strips the {success, result} envelope when present
func unwrap(root map[string]interface{}) (inner map[string]interface{}, envelope map[string]interface{}) {
	result, ok := root["result"].(map[string]interface{})
	if !ok {
		return root, nil
	}
	if isObject(root["optimized"]) || isObject(root["optimized_metrics"]) {
		return root, nil
	}
	return result, root
}

func isObject(v interface{}) bool {
	_, ok := v.(map[string]interface{})
	return ok
}
