package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/diet-coach/domain"
	"github.com/satriahrh/diet-coach/utils/log"
)

type FoodRecordService struct {
	records domain.FoodRecordRepository
	foods   domain.FoodNutritionRepository
	broker  domain.MessageBroker
	now     func() time.Time
}

func NewFoodRecordService(records domain.FoodRecordRepository, foods domain.FoodNutritionRepository, broker domain.MessageBroker) *FoodRecordService {
	return &FoodRecordService{records: records, foods: foods, broker: broker, now: time.Now}
}

func (s *FoodRecordService) today() string {
	return s.now().Format(dateLayout)
}

func (s *FoodRecordService) Add(ctx context.Context, userID string, foodID int64, foodName string) (*domain.FoodRecord, error) {
	foodName = strings.TrimSpace(foodName)
	if foodID <= 0 || foodName == "" {
		return nil, fmt.Errorf("%w: foodId and foodName are required", domain.ErrInvalidInput)
	}

	rec := &domain.FoodRecord{
		RecordDate: s.today(),
		UserID:     userID,
		FoodID:     foodID,
		FoodList:   foodName,
	}
	if err := s.records.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("save food record: %w", err)
	}
	log.WithCtx(ctx).Info("food record saved", zap.Int64("record_id", rec.RecordID), zap.Int64("food_id", foodID))

	s.publish(ctx, domain.FoodRecordEvent{
		Type:     domain.FoodRecordAdded,
		UserID:   userID,
		RecordID: rec.RecordID,
		FoodID:   rec.FoodID,
		FoodName: rec.FoodList,
		Date:     rec.RecordDate,
	})
	return rec, nil
}

func (s *FoodRecordService) ByDate(ctx context.Context, recordDate string) ([]domain.FoodRecord, error) {
	records, err := s.records.FindByDate(ctx, recordDate)
	if err != nil {
		return nil, fmt.Errorf("query food records: %w", err)
	}
	return records, nil
}

func (s *FoodRecordService) Today(ctx context.Context, userID string) ([]domain.FoodRecord, error) {
	records, err := s.records.FindByUserAndDate(ctx, userID, s.today())
	if err != nil {
		return nil, fmt.Errorf("query today's food records: %w", err)
	}
	return records, nil
}

// TodayWithNutrition joins today's records with their nutrition. Records whose
// food is unknown report zero calories and protein.
func (s *FoodRecordService) TodayWithNutrition(ctx context.Context, userID string) ([]domain.FoodRecordView, error) {
	records, err := s.Today(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.FoodID)
	}
	foods, err := s.foods.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("query nutrition: %w", err)
	}

	views := make([]domain.FoodRecordView, 0, len(records))
	for _, r := range records {
		v := domain.FoodRecordView{RecordID: r.RecordID, FoodID: r.FoodID, FoodName: r.FoodList}
		if f, ok := foods[r.FoodID]; ok {
			v.Calories = f.Calories
			v.Protein = f.Protein
		}
		views = append(views, v)
	}
	log.WithCtx(ctx).Info("today's food records loaded", zap.Int("count", len(views)))
	return views, nil
}

func (s *FoodRecordService) Delete(ctx context.Context, userID string, recordID int64) error {
	if err := s.records.DeleteOwned(ctx, userID, recordID); err != nil {
		return err
	}
	log.WithCtx(ctx).Info("food record deleted", zap.Int64("record_id", recordID))

	s.publish(ctx, domain.FoodRecordEvent{
		Type:     domain.FoodRecordDeleted,
		UserID:   userID,
		RecordID: recordID,
	})
	return nil
}

// publish is best effort; a broker failure never fails the write.
func (s *FoodRecordService) publish(ctx context.Context, evt domain.FoodRecordEvent) {
	if s.broker == nil {
		return
	}
	evt.Timestamp = s.now()
	payload, err := json.Marshal(evt)
	if err != nil {
		log.WithCtx(ctx).Error("marshal food record event", zap.Error(err))
		return
	}
	if err := s.broker.Publish(ctx, domain.FoodRecordTopic, evt.UserID, payload); err != nil {
		log.WithCtx(ctx).Warn("publish food record event", zap.Error(err))
	}
}
