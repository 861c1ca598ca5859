package contracts

import (
	"fmt"
	"strings"
)

// PortfolioPosition is one holding from the user's saved portfolio
type PortfolioPosition struct {
	Ticker string  `json:"ticker"`
	Shares float64 `json:"shares"`
	Name   string  `json:"name,omitempty"`
}

// Portfolio is the layout of the currentPortfolio slot
// ⭐ 계약: Dashboard가 저장하고 Optimizer가 읽기만 함
type Portfolio struct {
	Positions  []PortfolioPosition `json:"portfolio"`
	TotalValue float64             `json:"totalValue"`
}

// Validate checks the shares >= 0 invariant and that every position has a ticker
func (p *Portfolio) Validate() error {
	for i, pos := range p.Positions {
		if strings.TrimSpace(pos.Ticker) == "" {
			return fmt.Errorf("position %d has no ticker", i)
		}
		if pos.Shares < 0 {
			return fmt.Errorf("position %s has negative shares %v", pos.Ticker, pos.Shares)
		}
	}
	return nil
}

// Held returns the positions with shares > 0, in order
func (p *Portfolio) Held() []PortfolioPosition {
	held := make([]PortfolioPosition, 0, len(p.Positions))
	for _, pos := range p.Positions {
		if pos.Shares > 0 {
			held = append(held, pos)
		}
	}
	return held
}

// TotalShares returns the sum of shares over all positions
func (p *Portfolio) TotalShares() float64 {
	total := 0.0
	for _, pos := range p.Positions {
		total += pos.Shares
	}
	return total
}

// ShareWeights derives tickers and share-proportional weights from held positions.
// Returns an error when nothing is held.
func (p *Portfolio) ShareWeights() ([]string, []float64, error) {
	held := p.Held()

	total := 0.0
	for _, pos := range held {
		total += pos.Shares
	}
	if total == 0 {
		return nil, nil, fmt.Errorf("total shares is 0")
	}

	tickers := make([]string, len(held))
	weights := make([]float64, len(held))
	for i, pos := range held {
		tickers[i] = pos.Ticker
		weights[i] = pos.Shares / total
	}
	return tickers, weights, nil
}
