package oracle

import (
	"context"
	"strings"
	"sync"

	"PowerWallet/internal/model"
)

// StaticOracle serves fixed quotes and readings keyed by symbol. It backs dry
// runs and tests.
type StaticOracle struct {
	mu       sync.RWMutex
	quotes   map[string]model.PriceQuote
	readings map[string]model.RiskReading
}

// NewStaticOracle creates an empty StaticOracle.
func NewStaticOracle() *StaticOracle {
	return &StaticOracle{
		quotes:   make(map[string]model.PriceQuote),
		readings: make(map[string]model.RiskReading),
	}
}

func (s *StaticOracle) Name() string { return "static" }

// SetPrice replaces the quote for symbol.
func (s *StaticOracle) SetPrice(symbol string, q model.PriceQuote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[strings.ToUpper(symbol)] = q
}

// SetReading replaces the risk reading for symbol.
func (s *StaticOracle) SetReading(symbol string, r model.RiskReading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readings[strings.ToUpper(symbol)] = r
}

func (s *StaticOracle) Price(_ context.Context, asset model.Asset) (model.PriceQuote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quotes[strings.ToUpper(asset.Symbol)]
	if !ok {
		return model.PriceQuote{}, ErrNoData
	}
	return q, nil
}

func (s *StaticOracle) ReadRisk(_ context.Context, asset model.Asset) (model.RiskReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.readings[strings.ToUpper(asset.Symbol)]
	if !ok {
		return model.RiskReading{}, ErrNoData
	}
	return r, nil
}
