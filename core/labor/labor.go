// Package labor - Labor cost estimation
// An AI path reads the free-text piece description; a deterministic
// rule table is always available behind it. Both paths produce the
// identical Estimate shape so the calculator never branches past
// this boundary.
package labor

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"jewelcost/core/confidence"
	"jewelcost/core/rates"
	"jewelcost/internal/metrics"
)

// Source reports which path produced an estimate.
type Source string

const (
	SourceAI    Source = "ai"
	SourceRules Source = "rules"
)

// minDescriptionLen is the shortest description worth sending to the
// AI path.
const minDescriptionLen = 10

// quickReasoning is the fixed reasoning attached to rule-based
// estimates.
const quickReasoning = "Quick rule-based estimate"

// Request describes the piece being estimated.
type Request struct {
	Description string
	JewelryType string
	Material    string
	Complexity  string
	HasStones   bool
	StoneCount  int
	IncludeAI   bool
}

// Estimate is the estimator's output, identical for both paths.
type Estimate struct {
	Hours      float64          `json:"hours"`
	Complexity string           `json:"complexity"`
	Reasoning  string           `json:"reasoning,omitempty"`
	Confidence confidence.Score `json:"confidence"`
	HourlyRate decimal.Decimal  `json:"hourly_rate"`
	Total      decimal.Decimal  `json:"total"`
}

// AIResult is what the AI capability returns.
type AIResult struct {
	Hours      float64 `json:"hours"`
	Complexity string  `json:"complexity"`
	Reasoning  string  `json:"reasoning"`
	Confidence float64 `json:"confidence"`
}

// AIClient is the opaque natural-language estimation capability. It
// fails when unconfigured, unavailable, or when the description is
// unusable.
type AIClient interface {
	EstimateLabor(ctx context.Context, req Request) (AIResult, error)
}

// Estimator resolves labor estimates with AI-first, rules-fallback
// semantics.
type Estimator struct {
	client AIClient
	table  *rates.Table
	logger *zap.Logger
}

// NewEstimator creates an estimator. A nil client disables the AI
// path entirely.
func NewEstimator(client AIClient, table *rates.Table, logger *zap.Logger) *Estimator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Estimator{
		client: client,
		table:  table,
		logger: logger,
	}
}

// Estimate resolves a labor estimate. The AI path is attempted only
// when requested and the description is long enough; any AI failure
// falls back to the rule table. The only returned errors are invalid
// jewelry-type or complexity keys.
func (e *Estimator) Estimate(ctx context.Context, req Request) (Estimate, Source, error) {
	if e.client != nil && req.IncludeAI && len(req.Description) >= minDescriptionLen {
		result, err := e.client.EstimateLabor(ctx, req)
		if err == nil {
			if est, ok := e.fromAI(result); ok {
				return est, SourceAI, nil
			}
			e.logger.Warn("AI estimate unusable, falling back to rules",
				zap.Float64("hours", result.Hours),
				zap.String("complexity", result.Complexity),
			)
		} else {
			metrics.UpstreamFailuresTotal.WithLabelValues("labor_ai").Inc()
			e.logger.Warn("AI estimation failed, falling back to rules",
				zap.Error(err),
			)
		}
	}

	est, err := e.quick(req.JewelryType, req.Complexity, req.HasStones)
	if err != nil {
		return Estimate{}, SourceRules, err
	}
	return est, SourceRules, nil
}

// QuickEstimate is the pure table path: hours by jewelry type and
// complexity tier, with a flat uplift when stones are present.
func (e *Estimator) QuickEstimate(jewelryType, complexity string, hasStones bool) (Estimate, error) {
	return e.quick(jewelryType, complexity, hasStones)
}

func (e *Estimator) quick(jewelryType, complexity string, hasStones bool) (Estimate, error) {
	if complexity == "" {
		complexity = rates.ComplexityModerate
	}

	hours, err := e.table.Hours(jewelryType, complexity)
	if err != nil {
		return Estimate{}, err
	}
	if hasStones {
		hours += e.table.StoneUpliftHours
	}

	return Estimate{
		Hours:      hours,
		Complexity: complexity,
		Reasoning:  quickReasoning,
		Confidence: confidence.RuleBased,
		HourlyRate: e.table.HourlyRate,
		Total:      laborTotal(hours, e.table.HourlyRate),
	}, nil
}

// fromAI validates and converts an AI result. A result with
// non-positive hours or an unknown complexity tier is unusable.
func (e *Estimator) fromAI(result AIResult) (Estimate, bool) {
	if result.Hours <= 0 {
		return Estimate{}, false
	}
	if !rates.KnownComplexity(result.Complexity) {
		return Estimate{}, false
	}

	return Estimate{
		Hours:      result.Hours,
		Complexity: result.Complexity,
		Reasoning:  result.Reasoning,
		Confidence: confidence.New(result.Confidence),
		HourlyRate: e.table.HourlyRate,
		Total:      laborTotal(result.Hours, e.table.HourlyRate),
	}, true
}

func laborTotal(hours float64, rate decimal.Decimal) decimal.Decimal {
	return decimal.NewFromFloat(hours).Mul(rate)
}
