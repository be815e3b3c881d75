package consensus

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"Consensus/internal/domain/models"
	domsvc "Consensus/internal/domain/service"
)

var requiredTargets = []string{
	models.TargetBuy,
	models.TargetOutperform,
	models.TargetHold,
	models.TargetUnderperform,
	models.TargetSell,
}

// ValidateTargets checks that targets names each required output exactly once.
func ValidateTargets(targets []string) error {
	if len(targets) != len(requiredTargets) {
		return fmt.Errorf("expected %d targets, got %d", len(requiredTargets), len(targets))
	}
	seen := make(map[string]bool, len(targets))
	for _, t := range targets {
		if seen[t] {
			return fmt.Errorf("duplicate target %q", t)
		}
		seen[t] = true
	}
	var missing []string
	for _, t := range requiredTargets {
		if !seen[t] {
			missing = append(missing, t)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing targets: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Categorize zips outputs with target names, folds them into Buy/Hold/Sell
// scores and picks the highest. Equal scores resolve in models.Categories
// order (Buy, then Hold, then Sell).
func Categorize(outputs []float64, targets []string) (models.Consensus, error) {
	if len(outputs) != len(targets) {
		return models.Consensus{}, fmt.Errorf("model returned %d outputs for %d targets", len(outputs), len(targets))
	}

	named := make(map[string]float64, len(targets))
	for i, t := range targets {
		named[t] = outputs[i]
	}
	for _, t := range requiredTargets {
		if _, ok := named[t]; !ok {
			return models.Consensus{}, fmt.Errorf("model output %q missing", t)
		}
	}

	scores := map[models.Category]float64{
		models.CategoryBuy:  named[models.TargetBuy] + named[models.TargetOutperform],
		models.CategoryHold: named[models.TargetHold],
		models.CategorySell: named[models.TargetSell] + named[models.TargetUnderperform],
	}

	best := models.Categories[0]
	for _, c := range models.Categories[1:] {
		if scores[c] > scores[best] {
			best = c
		}
	}

	return models.Consensus{Category: best, Scores: scores, Outputs: named}, nil
}

// Resolver runs the predictor on a row and turns its outputs into a label.
type Resolver struct {
	predictor domsvc.Predictor
	targets   []string
}

// NewResolver binds a predictor to the target order its outputs follow.
func NewResolver(predictor domsvc.Predictor, targets []string) (*Resolver, error) {
	if predictor == nil {
		return nil, errors.New("predictor is required")
	}
	if err := ValidateTargets(targets); err != nil {
		return nil, models.NewSchemaMismatch(err)
	}
	return &Resolver{predictor: predictor, targets: append([]string(nil), targets...)}, nil
}

// Targets returns the output names in predictor order.
func (r *Resolver) Targets() []string { return r.targets }

// Predictor returns the underlying predictor.
func (r *Resolver) Predictor() domsvc.Predictor { return r.predictor }

// Resolve predicts on row and categorizes the first result row. Predictor
// errors that are not already typed become InferenceFailure.
func (r *Resolver) Resolve(ctx context.Context, row models.FeatureRow) (models.Consensus, error) {
	preds, err := r.predictor.Predict(ctx, []models.FeatureRow{row})
	if err != nil {
		if models.KindOf(err) != 0 {
			return models.Consensus{}, err
		}
		return models.Consensus{}, models.NewInferenceFailure(err)
	}
	if len(preds) == 0 {
		return models.Consensus{}, models.NewInferenceFailure(errors.New("model returned no predictions"))
	}

	c, err := Categorize(preds[0], r.targets)
	if err != nil {
		return models.Consensus{}, models.NewInferenceFailure(err)
	}
	return c, nil
}
