package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/diet-coach/domain"
	"github.com/satriahrh/diet-coach/utils/log"
)

// AdviceService turns prompts and the member's food log into nutrition advice.
type AdviceService struct {
	streamer domain.ChatStreamer
	llm      domain.Llm
	records  *FoodRecordService
}

func NewAdviceService(streamer domain.ChatStreamer, llm domain.Llm, records *FoodRecordService) *AdviceService {
	return &AdviceService{streamer: streamer, llm: llm, records: records}
}

// ChatStream relays prompt to the streaming proxy.
func (s *AdviceService) ChatStream(ctx context.Context, prompt string) (<-chan string, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("%w: prompt is required", domain.ErrInvalidInput)
	}
	log.WithCtx(ctx).Info("chat stream requested", zap.Int("prompt_len", len(prompt)))
	return s.streamer.Stream(ctx, prompt), nil
}

// TodayAdvice asks for a one-shot review of everything the member logged today.
func (s *AdviceService) TodayAdvice(ctx context.Context, userID string) (string, error) {
	views, err := s.records.TodayWithNutrition(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(views) == 0 {
		return "", fmt.Errorf("%w: no food recorded today", domain.ErrInvalidInput)
	}

	reply, err := s.llm.Generate(ctx, buildTodayPrompt(views))
	if err != nil {
		return "", err
	}
	return reply, nil
}

func buildTodayPrompt(views []domain.FoodRecordView) string {
	var b strings.Builder
	var calories, protein float64
	b.WriteString("Here is everything I ate today:\n")
	for _, v := range views {
		fmt.Fprintf(&b, "- %s (%.0f kcal, %.1f g protein)\n", v.FoodName, v.Calories, v.Protein)
		calories += v.Calories
		protein += v.Protein
	}
	fmt.Fprintf(&b, "Total: %.0f kcal, %.1f g protein.\n", calories, protein)
	b.WriteString("Please review my diet for today and suggest what to eat for the rest of the day.")
	return b.String()
}
