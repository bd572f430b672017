// Package confidence estimates the robustness of each connection by Monte
// Carlo perturbation and produces the final ranked output.
package confidence

import (
	"math"
	"math/rand"
	"time"

	"github.com/turtacn/SymbioLink/internal/config"
	"github.com/turtacn/SymbioLink/internal/domain/symbiosis"
)

// Estimator perturbs a base confidence with market, operational and
// regulatory noise. It is not safe for concurrent use; create one per run.
type Estimator struct {
	cfg config.EstimatorConfig
	rng *rand.Rand
}

// NewEstimator uses rng, or a source seeded from cfg.Seed when rng is nil.
func NewEstimator(cfg config.EstimatorConfig, rng *rand.Rand) *Estimator {
	if rng == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng = rand.New(rand.NewSource(seed))
	}
	return &Estimator{cfg: cfg, rng: rng}
}

func (e *Estimator) uniform(spread float64) float64 {
	return (e.rng.Float64()*2 - 1) * spread
}

// Estimate runs the configured number of trials around base.
func (e *Estimator) Estimate(base float64) symbiosis.Estimate {
	if e.cfg.Disabled || e.cfg.Trials < 2 {
		return symbiosis.Estimate{Mean: base, Confidence: 1, Risk: 0}
	}

	n := e.cfg.Trials
	samples := make([]float64, n)
	var sum float64
	for i := range samples {
		v := base +
			e.uniform(e.cfg.MarketSpread) +
			e.uniform(e.cfg.OperationalSpread) +
			e.uniform(e.cfg.RegulatorySpread)
		v = math.Max(0, math.Min(1, v))
		samples[i] = v
		sum += v
	}
	mean := sum / float64(n)

	var sq float64
	for _, v := range samples {
		d := v - mean
		sq += d * d
	}
	risk := math.Sqrt(sq / float64(n-1))

	return symbiosis.Estimate{
		Mean:       mean,
		Confidence: math.Max(0, 1-2*risk),
		Risk:       risk,
	}
}
