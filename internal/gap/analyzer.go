// Package gap scores a session's completeness against its protocol
// tree and decides whether it may proceed to registry computation.
package gap

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/terraledger/mrv-cli/internal/model"
	"github.com/terraledger/mrv-cli/internal/registry"
)

// DefaultThreshold is the completeness score required to proceed.
const DefaultThreshold = 80

// Analyzer walks protocol trees and produces gap analyses.
type Analyzer struct {
	catalog   *registry.Catalog
	threshold int
}

// New creates an Analyzer over a catalog. A threshold of 0 falls back
// to DefaultThreshold.
func New(cat *registry.Catalog, threshold int) *Analyzer {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Analyzer{catalog: cat, threshold: threshold}
}

// Analyze scores the session against the given registry/protocol pair.
// It is a pure, synchronous function of the session state. An
// unresolvable pair degrades to the not-found result instead of
// failing: completeness 0, gate closed, a single recommendation.
func (a *Analyzer) Analyze(registryID, protocolID string, s *model.Session) *model.GapAnalysis {
	proto, ok := a.catalog.Protocol(registryID, protocolID)
	if !ok {
		return &model.GapAnalysis{
			ProtocolID:            protocolID,
			CompletenessScore:     0,
			CanProceed:            false,
			NodeAnalysis:          map[string]model.NodeAnalysis{},
			MissingRequiredFields: []string{},
			MissingEvidenceTypes:  []string{},
			Recommendations:       []string{"Protocol not found"},
		}
	}

	ga := &model.GapAnalysis{
		ProtocolID:            protocolID,
		NodeAnalysis:          map[string]model.NodeAnalysis{},
		MissingRequiredFields: []string{},
		MissingEvidenceTypes:  []string{},
	}

	var scores []int
	proto.Root.Walk(func(n *model.FormulaNode) bool {
		if n.Type != model.NodeInput || len(n.RequiredInputs) == 0 {
			// Operator and calculated nodes are skipped for scoring;
			// their children are still visited.
			return true
		}

		na := model.NodeAnalysis{Complete: true}
		present := 0
		for _, f := range n.RequiredInputs {
			if s != nil && s.Filled(f.ID) {
				present++
				continue
			}
			if !f.Required {
				continue
			}
			na.Complete = false
			na.MissingFields = append(na.MissingFields, f.Name)
			ga.MissingRequiredFields = append(ga.MissingRequiredFields, n.Name+"."+f.Name)
			if f.Type == model.FieldFile {
				ga.MissingEvidenceTypes = append(ga.MissingEvidenceTypes, f.Name)
			}
		}
		na.Score = roundPct(present, len(n.RequiredInputs))
		ga.NodeAnalysis[n.ID] = na
		scores = append(scores, na.Score)
		return true
	})

	ga.CompletenessScore = mean(scores)
	ga.CanProceed = ga.CompletenessScore >= a.threshold && len(ga.MissingRequiredFields) == 0
	ga.Recommendations = a.recommend(ga)

	sessionID := ""
	if s != nil {
		sessionID = s.SessionID
	}
	zap.L().Debug("gap: analysis complete",
		zap.String("session_id", sessionID),
		zap.String("protocol_id", protocolID),
		zap.Int("completeness_score", ga.CompletenessScore),
		zap.Bool("can_proceed", ga.CanProceed),
	)
	return ga
}

// recommend builds the human-readable action list in fixed order:
// missing fields, then missing evidence, then the score threshold.
func (a *Analyzer) recommend(ga *model.GapAnalysis) []string {
	recs := []string{}
	if n := len(ga.MissingRequiredFields); n > 0 {
		recs = append(recs, fmt.Sprintf("Complete %d required field(s)", n))
	}
	if n := len(ga.MissingEvidenceTypes); n > 0 {
		recs = append(recs, fmt.Sprintf("Upload %d required document(s)", n))
	}
	if ga.CompletenessScore < a.threshold {
		recs = append(recs, fmt.Sprintf("Reach %d%% completeness to proceed", a.threshold))
	}
	return recs
}

// mean averages node scores, rounded. A tree with no input-bearing
// nodes is vacuously complete.
func mean(scores []int) int {
	if len(scores) == 0 {
		return 100
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	return int(math.Round(float64(sum) / float64(len(scores))))
}

func roundPct(num, den int) int {
	if den == 0 {
		return 100
	}
	return int(math.Round(100 * float64(num) / float64(den)))
}
