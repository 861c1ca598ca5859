// Package normalizer reduces every known backend response shape to one canonical result.
package normalizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/quantafolio/internal/contracts"
	"github.com/wonny/quantafolio/pkg/logger"
)

// ErrMalformedResponse is returned when the body is not a JSON object
var ErrMalformedResponse = errors.New("optimization response is not a JSON object")

// Normalizer converts raw backend bodies into contracts.CanonicalOptimizationResult
// ⭐ SSOT: 백엔드 응답 형태 차이는 여기서만 처리
type Normalizer struct {
	logger *logger.Logger
	now    func() time.Time
}

// New creates a normalizer
func New(log *logger.Logger) *Normalizer {
	return &Normalizer{
		logger: log.WithComponent("normalizer"),
		now:    time.Now,
	}
}

// Normalize resolves every canonical field from raw.
// Missing or non-finite fields fall back to the caller's tickers/weights and then to zero;
// suspicious shapes become warnings on the result. Warnings is nil when there are none.
func (n *Normalizer) Normalize(raw *contracts.RawOptimizationResponse, fallbackTickers []string, fallbackWeights []float64) (*contracts.CanonicalOptimizationResult, error) {
	if raw == nil {
		return nil, ErrMalformedResponse
	}

	var root map[string]interface{}
	if err := json.Unmarshal(raw.Body, &root); err != nil || root == nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	inner, envelope := unwrap(root)
	schema := Detect(inner)
	optimizedPath, originalPath := schema.sectionPaths(inner)

	tree := interface{}(inner)

	result := &contracts.CanonicalOptimizationResult{
		Optimized:   resolveOptimized(tree, optimizedPath, fallbackTickers, fallbackWeights),
		Original:    resolveOriginal(tree, originalPath, fallbackTickers, fallbackWeights),
		Improvement: resolveImprovement(tree),
		Method:      resolveMethod(inner, envelope),
		Timestamp:   n.resolveTimestamp(inner, envelope),
		Input:       resolveInput(inner, envelope),
	}

	result.Warnings = check(result)
	if paths := nonFiniteFields(tree); len(paths) > 0 {
		result.Warnings = append(result.Warnings, contracts.DataQualityWarning{
			Code:    contracts.WarnNonFinite,
			Section: "response",
			Message: fmt.Sprintf("non-finite values ignored at %s", strings.Join(paths, ", ")),
		})
	}

	log := n.logger.WithFields(map[string]interface{}{
		"target": raw.Target,
		"schema": schema.String(),
	})
	for _, w := range result.Warnings {
		log.WithFields(map[string]interface{}{
			"code":    w.Code,
			"section": w.Section,
		}).Warn(w.Message)
	}
	log.Debug("Response normalized")

	return result, nil
}

func resolveOptimized(tree interface{}, section string, fallbackTickers []string, fallbackWeights []float64) contracts.PortfolioMetrics {
	m := contracts.PortfolioMetrics{}

	tickers, ok := firstTickers(tree,
		field(section, "tickers"),
		field(section, "selected_tickers"),
		"$.selected_tickers",
		"$.tickers",
	)
	if !ok {
		tickers = copyStrings(fallbackTickers)
	}
	m.Tickers = tickers

	weights, ok := firstWeights(tree,
		field(section, "weights"),
		field(section, "optimized_weights"),
		"$.optimized_weights",
		"$.weights",
	)
	if !ok {
		weights = copyFloats(fallbackWeights)
	}
	m.Weights = weights

	m.ExpectedReturn = firstNumber(tree, field(section, "expected_return"), "$.expected_return")
	m.Risk = firstNumber(tree, field(section, "risk"), "$.risk")
	m.SharpeRatio = firstNumber(tree, field(section, "sharpe_ratio"), "$.sharpe_ratio")
	m.MaxDrawdown, _ = optionalNumber(tree, field(section, "max_drawdown"), "$.max_drawdown")
	m.Beta, _ = optionalNumber(tree, field(section, "beta"), "$.beta")

	return m
}

func resolveOriginal(tree interface{}, section string, fallbackTickers []string, fallbackWeights []float64) contracts.PortfolioMetrics {
	m := contracts.PortfolioMetrics{}

	tickers, ok := firstTickers(tree,
		field(section, "tickers"),
		field(section, "selected_tickers"),
	)
	if !ok {
		tickers = copyStrings(fallbackTickers)
	}
	m.Tickers = tickers

	weights, ok := firstWeights(tree,
		field(section, "weights"),
		"$.initial_weights",
	)
	if !ok {
		weights = copyFloats(fallbackWeights)
	}
	m.Weights = weights

	if section == "" {
		return m
	}

	m.ExpectedReturn = firstNumber(tree, field(section, "expected_return"))
	m.Risk = firstNumber(tree, field(section, "risk"))
	m.SharpeRatio = firstNumber(tree, field(section, "sharpe_ratio"))
	m.MaxDrawdown, _ = optionalNumber(tree, field(section, "max_drawdown"))
	m.Beta, _ = optionalNumber(tree, field(section, "beta"))

	return m
}

func resolveImprovement(tree interface{}) contracts.Improvement {
	section := ""
	for _, p := range []string{"$.improvement", "$.improvements"} {
		if v, ok := lookup(tree, p); ok && isObject(v) {
			section = p
			break
		}
	}
	if section == "" {
		return contracts.Improvement{}
	}

	score, _ := optionalNumber(tree, field(section, "score_improvement"))
	return contracts.Improvement{
		ReturnImprovement: firstNumber(tree, field(section, "return_improvement")),
		RiskChange:        firstNumber(tree, field(section, "risk_change")),
		SharpeImprovement: firstNumber(tree, field(section, "sharpe_improvement")),
		ScoreImprovement:  score,
	}
}

func resolveMethod(inner, envelope map[string]interface{}) contracts.Method {
	for _, m := range []map[string]interface{}{inner, envelope} {
		if s, ok := m["method"].(string); ok {
			switch contracts.Method(s) {
			case contracts.MethodQuantum, contracts.MethodClassical:
				return contracts.Method(s)
			}
		}
	}
	return ""
}

// resolveTimestamp keeps a stored timestamp so re-normalizing is stable
func (n *Normalizer) resolveTimestamp(inner, envelope map[string]interface{}) string {
	for _, m := range []map[string]interface{}{inner, envelope} {
		if s, ok := m["timestamp"].(string); ok && s != "" {
			return s
		}
	}
	return n.now().UTC().Format(time.RFC3339)
}

func resolveInput(inner, envelope map[string]interface{}) *contracts.OptimizationInput {
	for _, m := range []map[string]interface{}{inner, envelope} {
		v, ok := m["input"].(map[string]interface{})
		if !ok {
			continue
		}
		data, err := json.Marshal(v)
		if err != nil {
			continue
		}
		var input contracts.OptimizationInput
		if err := json.Unmarshal(data, &input); err != nil {
			continue
		}
		return &input
	}
	return nil
}

// check reports count mismatches and weight-sum drift without correcting them
func check(r *contracts.CanonicalOptimizationResult) []contracts.DataQualityWarning {
	var warnings []contracts.DataQualityWarning

	sections := []struct {
		name string
		m    contracts.PortfolioMetrics
	}{
		{"optimized", r.Optimized},
		{"original", r.Original},
	}

	for _, s := range sections {
		if len(s.m.Tickers) != len(s.m.Weights) {
			warnings = append(warnings, contracts.DataQualityWarning{
				Code:    contracts.WarnCountMismatch,
				Section: s.name,
				Message: fmt.Sprintf("%s has %d tickers but %d weights", s.name, len(s.m.Tickers), len(s.m.Weights)),
			})
		}
		if len(s.m.Weights) > 0 && !s.m.IsFullAllocation() {
			warnings = append(warnings, contracts.DataQualityWarning{
				Code:    contracts.WarnWeightSum,
				Section: s.name,
				Message: fmt.Sprintf("%s weights sum to %.4f", s.name, s.m.WeightSum()),
			})
		}
	}

	return warnings
}

func copyStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	return append([]string(nil), in...)
}

func copyFloats(in []float64) []float64 {
	if len(in) == 0 {
		return nil
	}
	return append([]float64(nil), in...)
}
