package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"Consensus/internal/domain/models"
)

type schemaDoc struct {
	Columns []string `yaml:"columns" json:"columns"`
}

// LoadSchema reads the reference column list from a YAML (or JSON) file.
func LoadSchema(path string) (models.Schema, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return models.Schema{}, fmt.Errorf("read schema: %w", err)
	}
	return ParseSchema(b)
}

// ParseSchema parses a `{columns: [...]}` document. Columns must be
// non-empty and unique.
func ParseSchema(b []byte) (models.Schema, error) {
	var doc schemaDoc
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return models.Schema{}, fmt.Errorf("parse schema: %w", err)
	}
	if len(doc.Columns) == 0 {
		return models.Schema{}, errors.New("schema has no columns")
	}
	seen := make(map[string]struct{}, len(doc.Columns))
	for i, c := range doc.Columns {
		c = strings.TrimSpace(c)
		if c == "" {
			return models.Schema{}, fmt.Errorf("schema column %d is empty", i)
		}
		if _, dup := seen[c]; dup {
			return models.Schema{}, fmt.Errorf("schema column %q listed twice", c)
		}
		seen[c] = struct{}{}
		doc.Columns[i] = c
	}
	return models.NewSchema(doc.Columns), nil
}

// LoadLinearModel reads a JSON linear-model artifact. Shape checks beyond
// non-emptiness happen when the predictor is built.
func LoadLinearModel(path string) (models.LinearModel, error) {
	var m models.LinearModel
	b, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("read model: %w", err)
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("parse model: %w", err)
	}
	if len(m.Features) == 0 || len(m.Targets) == 0 {
		return m, errors.New("model artifact must list features and targets")
	}
	return m, nil
}
