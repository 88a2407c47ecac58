package learning

import (
	"math"
	"time"

	"github.com/websines/codegraph-mcp/internal/store"
)

// SymbolChecker reports whether a live graph still contains a symbol by
// name, used by the drift penalty term. Implemented by *graph.Graph; kept
// as a narrow interface here so this package never imports internal/graph.
type SymbolChecker interface {
	HasSymbol(name string) bool
}

// EffectiveConfidence implements the confidence formula: base rate
// decayed by age, boosted by recent validation and usage momentum,
// penalised for scope symbols that have drifted out of the live graph.
// halfLifeDays must be > 0. graph may be nil, in which case drift_penalty
// is zero.
func EffectiveConfidence(p *store.Pattern, now time.Time, halfLifeDays float64, g SymbolChecker) float64 {
	base := p.Confidence
	if p.UsageCount > 0 {
		base = float64(p.SuccessCount) / float64(p.UsageCount)
	}

	ageDays := now.Sub(p.CreatedAt).Seconds() / 86400
	if ageDays < 0 {
		ageDays = 0
	}
	decay := math.Pow(0.5, ageDays/halfLifeDays)

	var validationBoost float64
	if p.LastValidated != nil {
		days := now.Sub(*p.LastValidated).Seconds() / 86400
		switch {
		case days <= 7:
			validationBoost = 0.10
		case days <= 30:
			validationBoost = 0.05
		}
	}

	driftPenalty := 0.0
	if g != nil && len(p.Scope.Symbols) > 0 {
		missing := 0
		for _, sym := range p.Scope.Symbols {
			if !g.HasSymbol(sym) {
				missing++
			}
		}
		driftPenalty = 0.3 * float64(missing) / float64(len(p.Scope.Symbols))
	}

	var momentum float64
	if p.UsageCount > 0 {
		momentum = math.Min(0.30, 0.05*math.Log(float64(p.UsageCount)))
		if momentum < 0 {
			momentum = 0
		}
	}

	effective := base*decay + validationBoost - driftPenalty + momentum
	return clamp01(effective)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
