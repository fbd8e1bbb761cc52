package usecase

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/diet-coach/domain"
	"github.com/satriahrh/diet-coach/utils/log"
)

type FoodService struct {
	foods domain.FoodNutritionRepository
}

func NewFoodService(foods domain.FoodNutritionRepository) *FoodService {
	return &FoodService{foods: foods}
}

// Search returns foods whose name contains keyword. A blank keyword yields
// an empty list without touching the store.
func (s *FoodService) Search(ctx context.Context, keyword string) ([]domain.FoodNutrition, error) {
	logger := log.WithCtx(ctx)
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		logger.Warn("empty food search keyword")
		return []domain.FoodNutrition{}, nil
	}

	foods, err := s.foods.SearchByName(ctx, keyword)
	if err != nil {
		return nil, err
	}
	logger.Info("food search done", zap.String("keyword", keyword), zap.Int("count", len(foods)))
	return foods, nil
}

func (s *FoodService) Seed(ctx context.Context, foods []domain.FoodNutrition) (int, error) {
	return s.foods.Upsert(ctx, foods)
}
