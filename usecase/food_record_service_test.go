package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/satriahrh/diet-coach/domain"
)

func newTestRecordService() (*FoodRecordService, *fakeRecords, *fakeBroker) {
	records := &fakeRecords{}
	foods := &fakeFoods{foods: []domain.FoodNutrition{
		{FoodID: 1, FoodName: "Kimchi", Calories: 15, Protein: 1.1},
		{FoodID: 2, FoodName: "Rice", Calories: 130, Protein: 2.7},
	}}
	broker := &fakeBroker{}
	svc := NewFoodRecordService(records, foods, broker)
	svc.now = func() time.Time { return time.Date(2026, time.October, 19, 8, 30, 0, 0, time.UTC) }
	return svc, records, broker
}

func TestAddStampsTodayAndPublishes(t *testing.T) {
	ctx := context.Background()
	svc, records, broker := newTestRecordService()

	rec, err := svc.Add(ctx, "alice", 1, "Kimchi")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if rec.RecordDate != "20261019" || rec.UserID != "alice" || rec.RecordID != 1 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if len(records.records) != 1 {
		t.Fatalf("record not stored")
	}

	if len(broker.msgs) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(broker.msgs))
	}
	msg := broker.msgs[0]
	if msg.topic != domain.FoodRecordTopic || msg.key != "alice" {
		t.Fatalf("unexpected routing: %+v", msg)
	}
	var evt domain.FoodRecordEvent
	if err := json.Unmarshal(msg.payload, &evt); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if evt.Type != domain.FoodRecordAdded || evt.RecordID != 1 || evt.FoodName != "Kimchi" {
		t.Fatalf("unexpected event: %+v", evt)
	}

	if _, err := svc.Add(ctx, "alice", 0, "x"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("invalid add err = %v", err)
	}
}

func TestAddSurvivesBrokerFailure(t *testing.T) {
	svc, _, broker := newTestRecordService()
	broker.fail = true
	if _, err := svc.Add(context.Background(), "alice", 2, "Rice"); err != nil {
		t.Fatalf("Add must not fail on broker error: %v", err)
	}
}

func TestTodayWithNutrition(t *testing.T) {
	ctx := context.Background()
	svc, records, _ := newTestRecordService()

	_, _ = svc.Add(ctx, "alice", 1, "Kimchi")
	_, _ = svc.Add(ctx, "alice", 99, "Mystery snack")
	_, _ = svc.Add(ctx, "bob", 2, "Rice")
	records.records = append(records.records, domain.FoodRecord{RecordID: 50, RecordDate: "20261018", UserID: "alice", FoodID: 2, FoodList: "Rice"})

	views, err := svc.TodayWithNutrition(ctx, "alice")
	if err != nil {
		t.Fatalf("TodayWithNutrition: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 views, got %+v", views)
	}
	if views[0].FoodName != "Kimchi" || views[0].Calories != 15 || views[0].Protein != 1.1 {
		t.Fatalf("unexpected first view: %+v", views[0])
	}
	if views[1].Calories != 0 || views[1].Protein != 0 {
		t.Fatalf("unknown food must report zeros: %+v", views[1])
	}

	byDate, err := svc.ByDate(ctx, "20261019")
	if err != nil || len(byDate) != 3 {
		t.Fatalf("ByDate = %+v, %v", byDate, err)
	}
}

func TestDeleteOnlyOwnRecords(t *testing.T) {
	ctx := context.Background()
	svc, _, broker := newTestRecordService()
	rec, _ := svc.Add(ctx, "alice", 1, "Kimchi")

	if err := svc.Delete(ctx, "bob", rec.RecordID); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatalf("bob deleting alice's record: %v", err)
	}
	if err := svc.Delete(ctx, "alice", rec.RecordID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(broker.msgs) != 2 {
		t.Fatalf("expected add+delete events, got %d", len(broker.msgs))
	}
	var evt domain.FoodRecordEvent
	_ = json.Unmarshal(broker.msgs[1].payload, &evt)
	if evt.Type != domain.FoodRecordDeleted || evt.RecordID != rec.RecordID {
		t.Fatalf("unexpected delete event: %+v", evt)
	}
}
