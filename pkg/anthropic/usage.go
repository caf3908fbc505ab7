package anthropic

import "go.uber.org/zap"

// Usage counts the tokens billed for one call.
type Usage struct {
	Input      int64 `json:"input_tokens"`
	Output     int64 `json:"output_tokens"`
	CacheWrite int64 `json:"cache_write_tokens"`
	CacheRead  int64 `json:"cache_read_tokens"`
}

// rate is the USD price per million tokens.
type rate struct {
	input, output float64
}

// Cache writes bill at 1.25x input, cache reads at 0.1x.
const (
	cacheWriteMul = 1.25
	cacheReadMul  = 0.10
)

var rates = map[string]rate{
	"claude-haiku-4-5-20251001":  {input: 0.80, output: 4.00},
	"claude-sonnet-4-5-20250929": {input: 3.00, output: 15.00},
	"claude-opus-4-6":            {input: 15.00, output: 75.00},
}

// Cost estimates the USD cost of u for model. Unknown models cost 0.
func (u Usage) Cost(model string) float64 {
	r, ok := rates[model]
	if !ok {
		return 0
	}
	perTok := r.input / 1e6
	return float64(u.Input)*perTok +
		float64(u.Output)*r.output/1e6 +
		float64(u.CacheWrite)*perTok*cacheWriteMul +
		float64(u.CacheRead)*perTok*cacheReadMul
}

// Log records u and its estimated cost under the "cost attribution" message.
func (u Usage) Log(model, phase string) {
	zap.L().Info("cost attribution",
		zap.String("model", model),
		zap.String("phase", phase),
		zap.Int64("input_tokens", u.Input),
		zap.Int64("output_tokens", u.Output),
		zap.Int64("cache_write_tokens", u.CacheWrite),
		zap.Int64("cache_read_tokens", u.CacheRead),
		zap.Float64("estimated_cost_usd", u.Cost(model)),
	)
}
