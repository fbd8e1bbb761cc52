package storage

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/satriahrh/diet-coach/domain"
)

type FoodNutritionRepository struct {
	db *gorm.DB
}

var _ domain.FoodNutritionRepository = (*FoodNutritionRepository)(nil)

func NewFoodNutritionRepository(db *gorm.DB) *FoodNutritionRepository {
	return &FoodNutritionRepository{db: db}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchByName matches foods whose name contains keyword literally.
func (r *FoodNutritionRepository) SearchByName(ctx context.Context, keyword string) ([]domain.FoodNutrition, error) {
	foods := []domain.FoodNutrition{}
	pattern := "%" + likeEscaper.Replace(keyword) + "%"
	err := r.db.WithContext(ctx).
		Where(`food_name LIKE ? ESCAPE '\'`, pattern).
		Order("food_id").
		Find(&foods).Error
	return foods, err
}

func (r *FoodNutritionRepository) FindByIDs(ctx context.Context, ids []int64) (map[int64]domain.FoodNutrition, error) {
	out := make(map[int64]domain.FoodNutrition, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var foods []domain.FoodNutrition
	if err := r.db.WithContext(ctx).Where("food_id IN ?", ids).Find(&foods).Error; err != nil {
		return nil, err
	}
	for _, f := range foods {
		out[f.FoodID] = f
	}
	return out, nil
}

// Upsert inserts foods, overwriting rows whose food_id already exists.
func (r *FoodNutritionRepository) Upsert(ctx context.Context, foods []domain.FoodNutrition) (int, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range foods {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&foods[i]).Error; err != nil {
				return fmt.Errorf("upsert food %q: %w", foods[i].FoodName, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(foods), nil
}

type FoodRecordRepository struct {
	db *gorm.DB
}

var _ domain.FoodRecordRepository = (*FoodRecordRepository)(nil)

func NewFoodRecordRepository(db *gorm.DB) *FoodRecordRepository {
	return &FoodRecordRepository{db: db}
}

func (r *FoodRecordRepository) Create(ctx context.Context, rec *domain.FoodRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *FoodRecordRepository) FindByDate(ctx context.Context, recordDate string) ([]domain.FoodRecord, error) {
	records := []domain.FoodRecord{}
	err := r.db.WithContext(ctx).Where("record_date = ?", recordDate).Order("record_id").Find(&records).Error
	return records, err
}

func (r *FoodRecordRepository) FindByUserAndDate(ctx context.Context, userID, recordDate string) ([]domain.FoodRecord, error) {
	records := []domain.FoodRecord{}
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND record_date = ?", userID, recordDate).
		Order("record_id").
		Find(&records).Error
	return records, err
}

func (r *FoodRecordRepository) DeleteOwned(ctx context.Context, userID string, recordID int64) error {
	res := r.db.WithContext(ctx).
		Where("record_id = ? AND user_id = ?", recordID, userID).
		Delete(&domain.FoodRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}
