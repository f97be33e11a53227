package service

import (
	"context"

	"parktrack/internal/billing"
	"parktrack/internal/models"
)

// RateSource reads the externally managed rate configuration.
type RateSource interface {
	GetActive(ctx context.Context) (*models.RateTable, error)
}

// RateService provides rate table lookups with a compiled-in fallback, so
// billing keeps working when no table has been configured yet.
type RateService struct {
	repo     RateSource
	fallback models.RateTable
}

// NewRateService returns service instance.
func NewRateService(repo RateSource) *RateService {
	return &RateService{
		repo: repo,
		fallback: models.RateTable{
			Name:            "Default",
			NormalPerHour:   billing.DefaultNormalPerHour,
			GoldPerHour:     billing.DefaultGoldPerHour,
			PlatinumPerHour: billing.DefaultPlatinumPerHour,
			IsActive:        true,
		},
	}
}

// Active returns the rate table in effect right now. Lookup failures fall
// back to the defaults rather than blocking an exit.
func (s *RateService) Active(ctx context.Context) *models.RateTable {
	if s.repo == nil {
		return &s.fallback
	}
	rates, err := s.repo.GetActive(ctx)
	if err != nil {
		return &s.fallback
	}
	return rates
}
