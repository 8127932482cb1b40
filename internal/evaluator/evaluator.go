// Package evaluator reduces a session's field values into the final
// Net CORC number and its breakdown.
package evaluator

import (
	"math"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/terraledger/mrv-cli/internal/model"
)

const (
	defaultLeakageFactor = 0.05
	defaultBufferRate    = 0.15

	displayFormula = "net_corc = gross_removal - project_emissions - leakage - buffer"
)

// Calculate runs the Net CORC reduction over the session's current
// field values.
//
// The field ids are fixed: gross_removal, scope_1..3, leakage_factor,
// buffer_rate. Leakage factor and buffer rate arrive as percentages and
// fall back to 5% and 15% when absent or zero. Missing or non-numeric
// fields coerce to 0 silently. The result is floored at zero; a
// pre-floor value of zero or less marks the result invalid.
func Calculate(s *model.Session) (*model.NetCORCResult, error) {
	if s == nil {
		return nil, eris.New("evaluator: no active session")
	}

	gross := s.NumberOf("gross_removal")
	emissions := s.NumberOf("scope_1") + s.NumberOf("scope_2") + s.NumberOf("scope_3")

	leakageFactor := s.NumberOf("leakage_factor") / 100
	if leakageFactor == 0 {
		leakageFactor = defaultLeakageFactor
	}
	bufferRate := s.NumberOf("buffer_rate") / 100
	if bufferRate == 0 {
		bufferRate = defaultBufferRate
	}

	leakage := gross * leakageFactor
	buffer := (gross - leakage) * bufferRate
	preFloor := gross - emissions - leakage - buffer
	net := math.Max(0, preFloor)

	result := &model.NetCORCResult{
		NetCORC:        net,
		GrossRemoval:   gross,
		TotalEmissions: emissions,
		Leakage:        leakage,
		Buffer:         buffer,
		NodeValues: map[string]float64{
			"gross_removal":     gross,
			"project_emissions": emissions,
			"leakage":           leakage,
			"buffer":            buffer,
			"net_corc":          net,
		},
		Formula:      displayFormula,
		CalculatedAt: time.Now().UTC(),
		IsValid:      gross > 0 && preFloor > 0,
	}
	if preFloor <= 0 {
		result.ValidationErrors = []string{"Net CORC must be positive"}
	}

	zap.L().Info("evaluator: calculated net corc",
		zap.String("session_id", s.SessionID),
		zap.Float64("gross_removal", gross),
		zap.Float64("net_corc", net),
		zap.Bool("is_valid", result.IsValid),
	)
	return result, nil
}
