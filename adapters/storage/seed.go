package storage

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/satriahrh/diet-coach/domain"
)

type seedFile struct {
	Foods []domain.FoodNutrition `yaml:"foods"`
}

// ParseFoodSeed reads a YAML document with a top-level `foods` list.
func ParseFoodSeed(r io.Reader) ([]domain.FoodNutrition, error) {
	var f seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode food seed: %w", err)
	}
	for i, food := range f.Foods {
		if strings.TrimSpace(food.FoodName) == "" {
			return nil, fmt.Errorf("food seed entry %d: missing foodName", i)
		}
	}
	return f.Foods, nil
}
