package controls

import (
	"context"
	"slices"
	"time"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/evidence"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
)

// Evaluator runs catalogue entries against one account's evidence.
type Evaluator struct {
	catalogue *Catalogue
	// Now stamps collected_at. Defaults to time.Now in UTC.
	Now func() time.Time
}

// NewEvaluator returns an Evaluator backed by cat.
func NewEvaluator(cat *Catalogue) *Evaluator {
	return &Evaluator{
		catalogue: cat,
		Now:       func() time.Time { return time.Now().UTC() },
	}
}

// Catalogue returns the catalogue the evaluator was built with.
func (e *Evaluator) Catalogue() *Catalogue { return e.catalogue }

// Evaluate produces the result of control id against ec. An id missing from
// the catalogue yields a not_implemented result with a single explanatory gap.
func (e *Evaluator) Evaluate(ctx context.Context, id string, ec *evidence.Context) models.ControlResult {
	def, ok := e.catalogue.Lookup(id)
	if !ok {
		return models.ControlResult{
			ControlID:       id,
			Status:          models.StatusNotImplemented,
			EvidenceSources: []models.EvidenceSource{},
			CollectedAt:     e.Now(),
			Gaps:            []string{gapNotImplemented},
			Errors:          []string{},
			Data:            map[models.EvidenceSource]models.EvidenceRecord{},
		}
	}

	f := def.Evaluate(ctx, ec)
	gaps := nonNil(f.Gaps)
	errs := nonNil(f.Errors)
	data := f.Data
	if data == nil {
		data = map[models.EvidenceSource]models.EvidenceRecord{}
	}

	return models.ControlResult{
		ControlID:       def.ID,
		Title:           def.Title,
		Status:          StatusFromFindings(gaps, errs),
		EvidenceSources: slices.Clone(def.Sources),
		CollectedAt:     e.Now(),
		Gaps:            gaps,
		Errors:          errs,
		Data:            data,
	}
}

// StatusFromFindings derives a verdict. Collection errors take precedence
// over gaps.
func StatusFromFindings(gaps, errs []string) models.ControlStatus {
	switch {
	case len(errs) > 0:
		return models.StatusNeedsReview
	case len(gaps) > 0:
		return models.StatusFail
	default:
		return models.StatusPass
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
