package model

import "time"

// NetCORCResult is the output of one Net CORC calculation: the final
// credit tonnage after deducting project emissions, leakage, and the
// buffer-pool reserve from gross removal.
type NetCORCResult struct {
	NetCORC          float64            `json:"net_corc"`
	GrossRemoval     float64            `json:"gross_removal"`
	TotalEmissions   float64            `json:"total_emissions"`
	Leakage          float64            `json:"leakage"`
	Buffer           float64            `json:"buffer"`
	NodeValues       map[string]float64 `json:"node_values"`
	Formula          string             `json:"formula"`
	CalculatedAt     time.Time          `json:"calculated_at"`
	IsValid          bool               `json:"is_valid"`
	ValidationErrors []string           `json:"validation_errors,omitempty"`
}

// NodeAnalysis is the gap-analysis verdict for one input-bearing node.
type NodeAnalysis struct {
	Complete      bool     `json:"complete"`
	Score         int      `json:"score"`
	MissingFields []string `json:"missing_fields,omitempty"`
	Errors        []string `json:"errors,omitempty"`
}

// GapAnalysis is the completeness/readiness verdict for a session,
// produced before it may be submitted for registry computation.
type GapAnalysis struct {
	ProtocolID            string                  `json:"protocol_id"`
	CompletenessScore     int                     `json:"completeness_score"`
	CanProceed            bool                    `json:"can_proceed_to_computation"`
	NodeAnalysis          map[string]NodeAnalysis `json:"node_analysis"`
	MissingRequiredFields []string                `json:"missing_required_fields"`
	MissingEvidenceTypes  []string                `json:"missing_evidence_types"`
	Recommendations       []string                `json:"recommendations"`
}
