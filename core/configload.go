package core

import (
	"context"
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/huangsam/loadcompare/internal/contract"
	"github.com/huangsam/loadcompare/schema"
)

// ParseConfig decodes a YAML scenario document and validates it.
func ParseConfig(text string) (schema.Configuration, error) {
	var doc any
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return schema.Configuration{}, fmt.Errorf("%w: %v", contract.ErrConfigParse, err)
	}
	return ValidateConfig(doc)
}

// LoadConfig fetches the scenario document at path and validates it.
func LoadConfig(ctx context.Context, fetcher contract.Fetcher, path string) (schema.Configuration, error) {
	text, err := fetcher.Fetch(ctx, path)
	if err != nil {
		return schema.Configuration{}, err
	}
	return ParseConfig(text)
}
