package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/satriahrh/diet-coach/domain"
)

type fakeMembers struct {
	mu      sync.Mutex
	members map[string]domain.Member
}

func newFakeMembers() *fakeMembers {
	return &fakeMembers{members: map[string]domain.Member{}}
}

func (f *fakeMembers) Create(ctx context.Context, m *domain.Member) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.members[m.MemberID]; ok {
		return domain.ErrMemberExists
	}
	f.members[m.MemberID] = *m
	return nil
}

func (f *fakeMembers) FindByID(ctx context.Context, id string) (*domain.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[id]
	if !ok {
		return nil, domain.ErrMemberNotFound
	}
	return &m, nil
}

func (f *fakeMembers) Exists(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.members[id]
	return ok, nil
}

// plainHasher prefixes the password so tests stay fast.
type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "hashed:" + p, nil }

func (plainHasher) Compare(hash, p string) error {
	if hash != "hashed:"+p {
		return domain.ErrInvalidCredentials
	}
	return nil
}

type fakeFoods struct {
	foods       []domain.FoodNutrition
	searchCalls int
}

func (f *fakeFoods) SearchByName(ctx context.Context, keyword string) ([]domain.FoodNutrition, error) {
	f.searchCalls++
	out := []domain.FoodNutrition{}
	for _, food := range f.foods {
		if strings.Contains(food.FoodName, keyword) {
			out = append(out, food)
		}
	}
	return out, nil
}

func (f *fakeFoods) FindByIDs(ctx context.Context, ids []int64) (map[int64]domain.FoodNutrition, error) {
	out := map[int64]domain.FoodNutrition{}
	for _, id := range ids {
		for _, food := range f.foods {
			if food.FoodID == id {
				out[id] = food
			}
		}
	}
	return out, nil
}

func (f *fakeFoods) Upsert(ctx context.Context, foods []domain.FoodNutrition) (int, error) {
	f.foods = append(f.foods, foods...)
	return len(foods), nil
}

type fakeRecords struct {
	nextID  int64
	records []domain.FoodRecord
}

func (f *fakeRecords) Create(ctx context.Context, r *domain.FoodRecord) error {
	f.nextID++
	r.RecordID = f.nextID
	f.records = append(f.records, *r)
	return nil
}

func (f *fakeRecords) FindByDate(ctx context.Context, date string) ([]domain.FoodRecord, error) {
	var out []domain.FoodRecord
	for _, r := range f.records {
		if r.RecordDate == date {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRecords) FindByUserAndDate(ctx context.Context, userID, date string) ([]domain.FoodRecord, error) {
	var out []domain.FoodRecord
	for _, r := range f.records {
		if r.UserID == userID && r.RecordDate == date {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRecords) DeleteOwned(ctx context.Context, userID string, id int64) error {
	for i, r := range f.records {
		if r.RecordID == id && r.UserID == userID {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return nil
		}
	}
	return domain.ErrRecordNotFound
}

type published struct {
	topic, key string
	payload    []byte
}

type fakeBroker struct {
	mu   sync.Mutex
	msgs []published
	fail bool
}

func (b *fakeBroker) Publish(ctx context.Context, topic, key string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail {
		return errors.New("broker down")
	}
	b.msgs = append(b.msgs, published{topic, key, payload})
	return nil
}

func (b *fakeBroker) Subscribe(ctx context.Context, topic, key string) (<-chan domain.Message, error) {
	return nil, errors.New("not supported")
}

func (b *fakeBroker) Close() error { return nil }

type fakeStreamer struct {
	prompt    string
	fragments []string
}

func (f *fakeStreamer) Stream(ctx context.Context, prompt string) <-chan string {
	f.prompt = prompt
	ch := make(chan string, len(f.fragments))
	for _, fr := range f.fragments {
		ch <- fr
	}
	close(ch)
	return ch
}

type fakeLlm struct {
	prompt string
	reply  string
	err    error
}

func (f *fakeLlm) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.reply, f.err
}
