package analysis

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/assortment-cli/internal/config"
	"github.com/sells-group/assortment-cli/internal/model"
)

// Source names who decided a product's category.
type Source string

const (
	SourceLadder      Source = "ladder"
	SourceLLM         Source = "llm"
	SourceConsistency Source = "consistency"
)

// Categorized is the final batch outcome for one product.
type Categorized struct {
	Input         LadderInput    `json:"input"`
	Verdict       Verdict        `json:"verdict"`
	Category      model.Category `json:"category,omitempty"`
	Source        Source         `json:"source,omitempty"`
	Status        Status         `json:"status"`
	IsDuplicate   bool           `json:"is_duplicate,omitempty"`
	Justification string         `json:"justification,omitempty"`
	Error         string         `json:"error,omitempty"`
}

// Categorization is the result of Categorize, in input order.
type Categorization struct {
	Items       []Categorized `json:"items"`
	Corrections []Correction  `json:"corrections,omitempty"`
	// LLM holds the raw batch-call outcomes, nil when no runner was used.
	LLM *Result `json:"llm,omitempty"`
}

// Counts tallies item statuses.
func (c *Categorization) Counts() map[Status]int {
	out := make(map[Status]int)
	for _, it := range c.Items {
		out[it.Status]++
	}
	return out
}

// Categorize classifies a batch with the rule ladder. Ambiguous verdicts are
// sent to the language model through runner (when non-nil) in chunks of
// batchSize; what the model cannot settle stays ambiguous. The batch is then
// made consistent so that no dominating product ranks below one it dominates.
func Categorize(ctx context.Context, runner *Runner, products []model.ProductMetrics, cfg config.ScoreConfig, batchSize int) (*Categorization, error) {
	if len(products) == 0 {
		return nil, eris.Wrap(model.ErrEmptyCohort, "analysis: categorize")
	}

	inputs := BuildLadderInputs(products, cfg)
	out := &Categorization{Items: make([]Categorized, len(inputs))}

	var pending []LadderInput
	for i, in := range inputs {
		v := Classify(in)
		item := Categorized{Input: in, Verdict: v}
		if v.Ambiguous {
			item.Status = StatusAmbiguous
			pending = append(pending, in)
		} else {
			item.Category = v.Category
			item.Source = SourceLadder
			item.Status = StatusDone
		}
		out.Items[i] = item
	}

	if runner != nil && len(pending) > 0 {
		out.LLM = runner.AnalyzeBatch(ctx, Chunk(pending, batchSize))
		for i := range out.Items {
			it := &out.Items[i]
			if !it.Verdict.Ambiguous {
				continue
			}
			o, ok := out.LLM.Outcomes[it.Input.ID]
			if !ok {
				continue
			}
			switch {
			case o.Status == StatusDone && o.Category.Valid():
				it.Category = o.Category
				it.Source = SourceLLM
				it.Status = StatusDone
				it.IsDuplicate = o.IsDuplicate
				it.Justification = o.Justification
			case o.Status == StatusError || o.Status == StatusSkipped:
				it.Status = o.Status
				it.Error = o.Error
			}
		}
	}

	ranked := make([]Ranked, len(out.Items))
	for i, it := range out.Items {
		ranked[i] = Ranked{
			ID:               it.Input.ID,
			GlobalPercentile: it.Input.GlobalPercentile,
			WeightInRayon:    it.Input.WeightInRayon,
			Category:         it.Category,
		}
	}
	out.Corrections = EnforceConsistency(ranked)
	for i := range out.Items {
		if ranked[i].Category != out.Items[i].Category {
			out.Items[i].Category = ranked[i].Category
			out.Items[i].Source = SourceConsistency
		}
	}

	if len(out.Corrections) > 0 {
		zap.L().Info("batch relabeled for consistency", zap.Int("corrections", len(out.Corrections)))
	}
	return out, nil
}

// Chunk splits inputs into consecutive groups of at most size items. A
// non-positive size yields a single chunk.
func Chunk(inputs []LadderInput, size int) [][]LadderInput {
	if len(inputs) == 0 {
		return nil
	}
	if size <= 0 || size >= len(inputs) {
		return [][]LadderInput{inputs}
	}
	var out [][]LadderInput
	for start := 0; start < len(inputs); start += size {
		end := min(start+size, len(inputs))
		out = append(out, inputs[start:end])
	}
	return out
}
