package app

import (
	"context"
	"fmt"
	"strings"

	"cryptoJournal/internal/domain"
	"cryptoJournal/internal/ports"
)

// CatalogService manages the trading pair and strategy pick lists.
type CatalogService struct {
	repo   ports.CatalogRepository
	logger ports.Logger
}

func NewCatalogService(repo ports.CatalogRepository, logger ports.Logger) (*CatalogService, error) {
	if repo == nil || logger == nil {
		return nil, fmt.Errorf("missing required dependencies for CatalogService")
	}
	return &CatalogService{repo: repo, logger: logger}, nil
}

func (s *CatalogService) TradingPairs(ctx context.Context) ([]domain.TradingPair, error) {
	pairs, err := s.repo.ListTradingPairs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list trading pairs: %w", err)
	}
	return pairs, nil
}

// AddTradingPair stores an upper-cased pair such as "BTC/USDT". Admin only.
func (s *CatalogService) AddTradingPair(ctx context.Context, actor *domain.User, pair string) (*domain.TradingPair, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	pair = strings.ToUpper(strings.TrimSpace(pair))
	if pair == "" {
		return nil, fmt.Errorf("%w: pair must be set", ports.ErrInvalidRequest)
	}
	created, err := s.repo.CreateTradingPair(ctx, pair)
	if err != nil {
		return nil, fmt.Errorf("failed to add trading pair %q: %w", pair, err)
	}
	s.logger.Info(ctx, "Trading pair added", map[string]interface{}{"pair": pair})
	return created, nil
}

func (s *CatalogService) DeleteTradingPair(ctx context.Context, actor *domain.User, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.repo.DeleteTradingPair(ctx, id); err != nil {
		return fmt.Errorf("failed to delete trading pair %d: %w", id, err)
	}
	return nil
}

func (s *CatalogService) StrategyTypes(ctx context.Context) ([]domain.StrategyType, error) {
	types, err := s.repo.ListStrategyTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list strategy types: %w", err)
	}
	return types, nil
}

// AddStrategyType stores a new strategy label. Admin only.
func (s *CatalogService) AddStrategyType(ctx context.Context, actor *domain.User, name string) (*domain.StrategyType, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: strategy name must be set", ports.ErrInvalidRequest)
	}
	created, err := s.repo.CreateStrategyType(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to add strategy type %q: %w", name, err)
	}
	s.logger.Info(ctx, "Strategy type added", map[string]interface{}{"name": name})
	return created, nil
}

func (s *CatalogService) DeleteStrategyType(ctx context.Context, actor *domain.User, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.repo.DeleteStrategyType(ctx, id); err != nil {
		return fmt.Errorf("failed to delete strategy type %d: %w", id, err)
	}
	return nil
}
