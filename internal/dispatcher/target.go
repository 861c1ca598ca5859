package dispatcher

import (
	"github.com/wonny/quantafolio/internal/contracts"
	"github.com/wonny/quantafolio/pkg/config"
)

// Style selects the wire body a target expects
type Style string

const (
	// StyleService is the optimization service called directly
	StyleService Style = config.TargetStyleService
	// StyleGateway is the gateway that proxies the service
	StyleGateway Style = config.TargetStyleGateway
)

// Target is one optimization endpoint
type Target struct {
	Name  string
	URL   string
	Style Style
}

// TargetsFromConfig converts configured targets, keeping their order
func TargetsFromConfig(cfgs []config.TargetConfig) []Target {
	targets := make([]Target, 0, len(cfgs))
	for _, c := range cfgs {
		targets = append(targets, Target{
			Name:  c.Name,
			URL:   c.URL,
			Style: Style(c.Style),
		})
	}
	return targets
}

// gatewayBody is what the gateway accepts
type gatewayBody struct {
	Tickers        []string         `json:"tickers"`
	InitialWeights []float64        `json:"initial_weights"`
	RiskFactor     float64          `json:"risk_factor"`
	Method         contracts.Method `json:"method"`
	Period         contracts.Period `json:"period"`
	AutoSave       bool             `json:"auto_save"`
}

// serviceBody adds the quantum tuning knobs the service understands
type serviceBody struct {
	gatewayBody
	Reps      int   `json:"reps,omitempty"`
	Precision int   `json:"precision,omitempty"`
	FastMode  *bool `json:"fast_mode,omitempty"`
}

func buildBody(style Style, req *contracts.OptimizationRequest) interface{} {
	base := gatewayBody{
		Tickers:        req.Tickers,
		InitialWeights: req.InitialWeights,
		RiskFactor:     req.RiskFactor,
		Method:         req.Method,
		Period:         req.Period,
		AutoSave:       req.AutoSave,
	}

	if style == StyleGateway {
		return base
	}

	body := serviceBody{
		gatewayBody: base,
		Reps:        req.Reps,
		Precision:   req.Precision,
	}
	if req.Method == contracts.MethodQuantum {
		fast := req.Reps <= 1
		body.FastMode = &fast
	}
	return body
}
