package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wonny/quantafolio/internal/contracts"
	"github.com/wonny/quantafolio/pkg/logger"
)

// PortfolioStore reads and writes the currentPortfolio slot
type PortfolioStore struct {
	slot   Slot
	logger *logger.Logger
}

// NewPortfolioStore creates a portfolio store over slot
func NewPortfolioStore(slot Slot, log *logger.Logger) *PortfolioStore {
	return &PortfolioStore{
		slot:   slot,
		logger: log.WithComponent("portfolio_store"),
	}
}

// Load returns the saved portfolio; unreadable data counts as absent
func (s *PortfolioStore) Load(ctx context.Context) (*contracts.Portfolio, bool) {
	p, err := s.LoadStrict(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.WithError(err).Warn("Stored portfolio ignored")
		}
		return nil, false
	}
	return p, true
}

// LoadStrict is Load with the reason for absence
func (s *PortfolioStore) LoadStrict(ctx context.Context) (*contracts.Portfolio, error) {
	data, found, err := s.slot.Get(ctx, contracts.CurrentPortfolioKey)
	if err != nil {
		return nil, fmt.Errorf("load portfolio: %w", err)
	}
	if !found {
		return nil, ErrNotFound
	}

	var p contracts.Portfolio
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &p, nil
}

// Save validates and overwrites the portfolio
func (s *PortfolioStore) Save(ctx context.Context, p *contracts.Portfolio) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("invalid portfolio: %w", err)
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal portfolio: %w", err)
	}

	if err := s.slot.Set(ctx, contracts.CurrentPortfolioKey, data); err != nil {
		return fmt.Errorf("save portfolio: %w", err)
	}
	return nil
}
