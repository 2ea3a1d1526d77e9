// Package controls defines the SOC 2 control catalogue and the evaluator that
// turns cached evidence into a pass / fail / needs_review verdict.
//
// Convention: every control lives in its own cc<n>.go file and exposes a
// single constructor returning a Definition. Default() assembles them.
package controls

import (
	"context"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/evidence"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
)

// Findings is what an evaluator derives from the evidence it consulted.
type Findings struct {
	Data   map[models.EvidenceSource]models.EvidenceRecord
	Gaps   []string
	Errors []string
}

// EvaluatorFunc reads evidence through ec and reports gaps. It must read
// every source through ec so the per-account cache is honoured.
type EvaluatorFunc func(ctx context.Context, ec *evidence.Context) Findings

// Definition is one immutable catalogue entry.
type Definition struct {
	ID    string
	Title string
	// Description is the control language from the trust services criteria.
	Description string
	// Sources lists the evidence sources the evaluator consults, in order.
	Sources  []models.EvidenceSource
	Evaluate EvaluatorFunc
}

// consult records rec as consulted evidence and folds its collection errors
// into the findings.
func (f *Findings) consult(rec models.EvidenceRecord) {
	if f.Data == nil {
		f.Data = make(map[models.EvidenceSource]models.EvidenceRecord)
	}
	f.Data[rec.Source()] = rec
	f.Errors = append(f.Errors, rec.CollectionErrors()...)
}

func (f *Findings) gapIf(cond bool, gap string) {
	if cond {
		f.Gaps = append(f.Gaps, gap)
	}
}

// Gap texts shared by several controls.
const (
	gapNoLoggingTrail = "No CloudTrail trails are actively logging."
	gapNoSCP          = "No Service Control Policies detected."
	gapNoConfigRules  = "No AWS Config rules detected."
	gapNoAlarms       = "No CloudWatch alarms detected."
	gapNotImplemented = "No evidence collector implemented for this control."
)
