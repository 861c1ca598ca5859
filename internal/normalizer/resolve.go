package normalizer

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
)

// field joins a section root and a key into a JSONPath; no section yields ""
func field(section, key string) string {
	if section == "" {
		return ""
	}
	return section + "." + key
}

// lookup evaluates a plain (non-wildcard) path; missing keys and nulls are absent
func lookup(tree interface{}, path string) (interface{}, bool) {
	if path == "" {
		return nil, false
	}
	v, err := jsonpath.Get(path, tree)
	if err != nil || v == nil {
		return nil, false
	}
	return v, true
}

// firstTickers returns the first path holding a non-empty ticker list
func firstTickers(tree interface{}, paths ...string) ([]string, bool) {
	for _, p := range paths {
		v, ok := lookup(tree, p)
		if !ok {
			continue
		}
		if tickers := toTickers(v); len(tickers) > 0 {
			return tickers, true
		}
	}
	return nil, false
}

// firstWeights returns the first path holding a non-empty weight list
func firstWeights(tree interface{}, paths ...string) ([]float64, bool) {
	for _, p := range paths {
		v, ok := lookup(tree, p)
		if !ok {
			continue
		}
		if weights, ok := toWeights(v); ok && len(weights) > 0 {
			return weights, true
		}
	}
	return nil, false
}

// firstNumber returns the first numeric value, or 0
func firstNumber(tree interface{}, paths ...string) float64 {
	if n, ok := optionalNumber(tree, paths...); ok {
		return *n
	}
	return 0
}

// optionalNumber returns nil when no path holds a number
func optionalNumber(tree interface{}, paths ...string) (*float64, bool) {
	for _, p := range paths {
		v, ok := lookup(tree, p)
		if !ok {
			continue
		}
		if n, ok := toNumber(v); ok {
			return &n, true
		}
	}
	return nil, false
}

// toNumber treats NaN and ±Inf as absent; they cannot be stored as JSON
func toNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, isFinite(n)
	case int:
		return float64(n), true
	case string:
		return parseFinite(n)
	default:
		return 0, false
	}
}

func parseFinite(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !isFinite(f) {
		return 0, false
	}
	return f, true
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// toWeights accepts a JSON number array or a space-delimited string
func toWeights(v interface{}) ([]float64, bool) {
	switch w := v.(type) {
	case []interface{}:
		out := make([]float64, 0, len(w))
		for _, item := range w {
			n, ok := toNumber(item)
			if !ok {
				return nil, false
			}
			out = append(out, n)
		}
		return out, true
	case string:
		parts := strings.Fields(w)
		out := make([]float64, 0, len(parts))
		for _, part := range parts {
			n, ok := parseFinite(part)
			if !ok {
				return nil, false
			}
			out = append(out, n)
		}
		return out, true
	default:
		return nil, false
	}
}

// toTickers accepts a string array or a comma/space separated string
func toTickers(v interface{}) []string {
	switch t := v.(type) {
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil
			}
			out = append(out, s)
		}
		return out
	case string:
		return strings.FieldsFunc(t, func(r rune) bool {
			return r == ',' || r == ' '
		})
	default:
		return nil
	}
}

// numericKeys are the fields resolved as numbers or weight lists
var numericKeys = map[string]bool{
	"weights":            true,
	"optimized_weights":  true,
	"initial_weights":    true,
	"expected_return":    true,
	"risk":               true,
	"sharpe_ratio":       true,
	"max_drawdown":       true,
	"beta":               true,
	"return_improvement": true,
	"risk_change":        true,
	"sharpe_improvement": true,
	"score_improvement":  true,
}

// nonFiniteFields lists the paths of numeric fields spelled as NaN or Infinity
func nonFiniteFields(tree interface{}) []string {
	var found []string
	walkNonFinite(tree, "$", false, &found)
	sort.Strings(found)
	return found
}

func walkNonFinite(v interface{}, path string, numeric bool, found *[]string) {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, child := range t {
			walkNonFinite(child, path+"."+k, numericKeys[k], found)
		}
	case []interface{}:
		for i, child := range t {
			walkNonFinite(child, path+"["+strconv.Itoa(i)+"]", numeric, found)
		}
	case string:
		if !numeric {
			return
		}
		for _, part := range strings.Fields(t) {
			if f, err := strconv.ParseFloat(part, 64); err == nil && !isFinite(f) {
				*found = append(*found, path)
				return
			}
		}
	}
}
