package domain

import (
	"context"
	"time"
)

// FoodNutrition is one row of the nutrition table. Amounts are per serving.
type FoodNutrition struct {
	FoodID       int64   `gorm:"column:food_id;primaryKey;autoIncrement" json:"foodId" yaml:"foodId"`
	FoodName     string  `gorm:"column:food_name;size:200;not null;index" json:"foodName" yaml:"foodName"`
	ServingSize  float64 `gorm:"column:serving_size" json:"servingSize" yaml:"servingSize"`
	Calories     float64 `gorm:"column:calories" json:"calories" yaml:"calories"`
	Carbohydrate float64 `gorm:"column:carbohydrate" json:"carbohydrate" yaml:"carbohydrate"`
	Protein      float64 `gorm:"column:protein" json:"protein" yaml:"protein"`
	Fat          float64 `gorm:"column:fat" json:"fat" yaml:"fat"`
	Sodium       float64 `gorm:"column:sodium" json:"sodium" yaml:"sodium"`
}

func (FoodNutrition) TableName() string { return "tb_food_nutrition" }

// FoodRecord is one food a member logged on RecordDate (yyyyMMdd).
type FoodRecord struct {
	RecordID   int64     `gorm:"column:record_id;primaryKey;autoIncrement" json:"recordId"`
	RecordDate string    `gorm:"column:record_date;size:8;not null;index:idx_record_user_date,priority:2" json:"recordDate"`
	UserID     string    `gorm:"column:user_id;size:50;not null;index:idx_record_user_date,priority:1" json:"userId"`
	FoodID     int64     `gorm:"column:food_id" json:"foodId"`
	FoodList   string    `gorm:"column:food_list;type:text" json:"foodList"`
	CreatedAt  time.Time `gorm:"column:reg_dt;autoCreateTime" json:"regDt"`
	UpdatedAt  time.Time `gorm:"column:chg_dt;autoUpdateTime" json:"chgDt"`
}

func (FoodRecord) TableName() string { return "tb_food_record" }

// FoodRecordView is a record joined with the nutrition it refers to.
type FoodRecordView struct {
	RecordID int64   `json:"recordId"`
	FoodID   int64   `json:"foodId"`
	FoodName string  `json:"foodName"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
}

type FoodNutritionRepository interface {
	SearchByName(ctx context.Context, keyword string) ([]FoodNutrition, error)
	FindByIDs(ctx context.Context, ids []int64) (map[int64]FoodNutrition, error)
	Upsert(ctx context.Context, foods []FoodNutrition) (int, error)
}

type FoodRecordRepository interface {
	Create(ctx context.Context, r *FoodRecord) error
	FindByDate(ctx context.Context, recordDate string) ([]FoodRecord, error)
	FindByUserAndDate(ctx context.Context, userID, recordDate string) ([]FoodRecord, error)
	// DeleteOwned removes the record only when it belongs to userID.
	DeleteOwned(ctx context.Context, userID string, recordID int64) error
}
