package contracts

import "time"

// Method is the optimization algorithm family
type Method string

const (
	MethodQuantum   Method = "quantum"
	MethodClassical Method = "classical"
)

// IsHeavy reports whether the method runs on the slow, variable-latency path
func (m Method) IsHeavy() bool {
	return m == MethodQuantum
}

// Period is the historical data window the backend fetches
type Period string

const (
	Period1Month  Period = "1mo"
	Period3Months Period = "3mo"
	Period6Months Period = "6mo"
	Period1Year   Period = "1y"
)

// OptimizationRequest is built fresh per optimization attempt and never persisted
// ⭐ 계약: len(Tickers) == len(InitialWeights)
type OptimizationRequest struct {
	Tickers        []string  `json:"tickers" validate:"required,min=1,max=20,dive,required"`
	InitialWeights []float64 `json:"initial_weights" validate:"required,dive,gte=0,lte=1"`
	RiskFactor     float64   `json:"risk_factor" validate:"gte=0,lte=1"`
	Method         Method    `json:"method" default:"quantum" validate:"oneof=quantum classical"`
	Period         Period    `json:"period" default:"1y" validate:"oneof=1mo 3mo 6mo 1y"`
	Precision      int       `json:"precision,omitempty" validate:"gte=0"`
	Reps           int       `json:"reps,omitempty" default:"1" validate:"gte=1"`
	AutoSave       bool      `json:"auto_save"`
}

// Input returns the snapshot stored alongside the result
func (r *OptimizationRequest) Input() *OptimizationInput {
	return &OptimizationInput{
		Tickers:        append([]string(nil), r.Tickers...),
		InitialWeights: append([]float64(nil), r.InitialWeights...),
		RiskFactor:     r.RiskFactor,
		Period:         r.Period,
	}
}

// RawOptimizationResponse is the untrusted backend body, read only through the normalizer
type RawOptimizationResponse struct {
	Target     string        `json:"target"`
	StatusCode int           `json:"status_code"`
	Body       []byte        `json:"body"`
	Duration   time.Duration `json:"duration"`
}
