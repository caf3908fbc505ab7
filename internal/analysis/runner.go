package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/assortment-cli/internal/config"
	"github.com/sells-group/assortment-cli/internal/model"
	"github.com/sells-group/assortment-cli/internal/resilience"
	"github.com/sells-group/assortment-cli/pkg/anthropic"
)

// ErrMissingResult is recorded for a requested product absent from a batch reply.
var ErrMissingResult = eris.New("analysis: product missing from reply")

// Status is the outcome of one product analysis.
type Status string

const (
	StatusDone      Status = "done"
	StatusError     Status = "error"
	StatusAmbiguous Status = "ambiguous"
	StatusSkipped   Status = "skipped"
)

// Outcome is the recommendation recorded for one product.
type Outcome struct {
	ProductID     string         `json:"product_id"`
	Status        Status         `json:"status"`
	Category      model.Category `json:"category,omitempty"`
	IsDuplicate   bool           `json:"is_duplicate,omitempty"`
	Justification string         `json:"justification,omitempty"`
	Reply         string         `json:"reply,omitempty"`
	Error         string         `json:"error,omitempty"`
	Attempts      int            `json:"attempts"`
	Cached        bool           `json:"cached,omitempty"`
}

// Result collects outcomes keyed by product id.
type Result struct {
	Outcomes  map[string]Outcome `json:"outcomes"`
	Done      int                `json:"done"`
	Errors    int                `json:"errors"`
	Ambiguous int                `json:"ambiguous"`
	Skipped   int                `json:"skipped"`
}

func (r *Result) tally() {
	r.Done, r.Errors, r.Ambiguous, r.Skipped = 0, 0, 0, 0
	for _, o := range r.Outcomes {
		switch o.Status {
		case StatusDone:
			r.Done++
		case StatusError:
			r.Errors++
		case StatusAmbiguous:
			r.Ambiguous++
		case StatusSkipped:
			r.Skipped++
		}
	}
}

// Request asks for a single-product recommendation.
type Request struct {
	ProductID string
	Prompt    Prompt
}

// Cache stores raw replies by prompt key.
type Cache interface {
	GetCachedRecommendation(ctx context.Context, key string) (string, bool, error)
	SetCachedRecommendation(ctx context.Context, key, reply string, ttl time.Duration) error
}

// CacheKey identifies a reply by the products it covers, model and prompt.
func CacheKey(id, modelName string, p Prompt) string {
	h := sha256.New()
	h.Write([]byte(modelName))
	h.Write([]byte{0})
	h.Write([]byte(p.System))
	h.Write([]byte{0})
	h.Write([]byte(p.User))
	return id + ":" + hex.EncodeToString(h.Sum(nil))
}

// Runner executes recommendation calls with bounded concurrency, request
// pacing and a rate-limit retry policy.
type Runner struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature *float64
	concurrency int
	retry       resilience.Policy
	limiter     *rate.Limiter
	cache       Cache
	cacheTTL    time.Duration
}

// Option configures a Runner.
type Option func(*Runner)

// WithCache enables reply caching.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(r *Runner) {
		r.cache = c
		r.cacheTTL = ttl
	}
}

// WithRetry replaces the retry policy.
func WithRetry(p resilience.Policy) Option {
	return func(r *Runner) {
		r.retry = p
	}
}

// WithLimiter replaces the request pacer. A nil limiter disables pacing.
func WithLimiter(l *rate.Limiter) Option {
	return func(r *Runner) {
		r.limiter = l
	}
}

// NewRunner builds a Runner from the anthropic and analysis config sections.
func NewRunner(client anthropic.Client, cfg *config.Config, opts ...Option) *Runner {
	temp := cfg.Anthropic.Temperature
	r := &Runner{
		client:      client,
		model:       cfg.Anthropic.Model,
		maxTokens:   cfg.Anthropic.MaxTokens,
		temperature: &temp,
		concurrency: max(cfg.Analysis.MaxConcurrent, 1),
		retry: resilience.RateLimitPolicy(
			cfg.Analysis.MaxRetries,
			time.Duration(cfg.Analysis.DefaultBackoffSecs)*time.Second,
		),
	}
	if cfg.Analysis.RateLimitPerSec > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(cfg.Analysis.RateLimitPerSec), 1)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type job struct {
	key    string
	ids    []string
	prompt Prompt
	parse  func(reply string) (map[string]Outcome, error)
}

// Analyze runs one single-product call per request. A reply without an A, C
// or Z token is recorded as ambiguous.
func (r *Runner) Analyze(ctx context.Context, requests []Request) *Result {
	jobs := make([]job, len(requests))
	for i, req := range requests {
		id := req.ProductID
		jobs[i] = job{
			key:    CacheKey(id, r.model, req.Prompt),
			ids:    []string{id},
			prompt: req.Prompt,
			parse: func(reply string) (map[string]Outcome, error) {
				o := Outcome{ProductID: id, Status: StatusAmbiguous, Reply: reply}
				if cat, ok := ParseRecommendation(reply); ok {
					o.Status = StatusDone
					o.Category = cat
				}
				return map[string]Outcome{id: o}, nil
			},
		}
	}
	return r.run(ctx, jobs)
}

// AnalyzeBatch sends one batch call per chunk. Every requested id gets an
// outcome; ids the reply does not cover are errors.
func (r *Runner) AnalyzeBatch(ctx context.Context, chunks [][]LadderInput) *Result {
	jobs := make([]job, 0, len(chunks))
	for _, chunk := range chunks {
		if len(chunk) == 0 {
			continue
		}
		ids := make([]string, len(chunk))
		for i, in := range chunk {
			ids[i] = in.ID
		}
		prompt := BuildBatchPrompt(chunk)
		jobs = append(jobs, job{
			key:    CacheKey(ids[0]+"+batch", r.model, prompt),
			ids:    ids,
			prompt: prompt,
			parse: func(reply string) (map[string]Outcome, error) {
				recs, err := ParseBatchResponse(reply, ids)
				if err != nil {
					return nil, err
				}
				out := make(map[string]Outcome, len(recs))
				for id, rec := range recs {
					out[id] = Outcome{
						ProductID:     id,
						Status:        StatusDone,
						Category:      rec.Recommendation,
						IsDuplicate:   rec.IsDuplicate,
						Justification: rec.Justification,
					}
				}
				return out, nil
			},
		})
	}
	return r.run(ctx, jobs)
}

func (r *Runner) run(ctx context.Context, jobs []job) *Result {
	log := zap.L().With(zap.String("component", "analysis.runner"), zap.Int("jobs", len(jobs)))

	res := &Result{Outcomes: make(map[string]Outcome)}
	var mu sync.Mutex
	record := func(outcomes ...Outcome) {
		mu.Lock()
		defer mu.Unlock()
		for _, o := range outcomes {
			res.Outcomes[o.ProductID] = o
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for _, j := range jobs {
		if gctx.Err() != nil {
			record(uniform(j.ids, StatusSkipped, gctx.Err(), 0)...)
			continue
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				record(uniform(j.ids, StatusSkipped, gctx.Err(), 0)...)
				return nil
			}
			record(r.execute(gctx, j, log)...)
			return nil
		})
	}

	_ = g.Wait()
	res.tally()
	log.Info("analysis run complete",
		zap.Int("done", res.Done),
		zap.Int("errors", res.Errors),
		zap.Int("ambiguous", res.Ambiguous),
		zap.Int("skipped", res.Skipped),
	)
	return res
}

// execute performs one job and returns an outcome for each of its ids. A
// reply is cached only once it parsed and settled at least one id.
func (r *Runner) execute(ctx context.Context, j job, log *zap.Logger) []Outcome {
	log = log.With(zap.Strings("product_ids", j.ids))

	reply, attempts, cached, err := r.complete(ctx, j, log)
	if err != nil {
		if ctx.Err() != nil {
			return uniform(j.ids, StatusSkipped, ctx.Err(), attempts)
		}
		log.Warn("analysis call failed", zap.Int("attempts", attempts), zap.Error(err))
		return uniform(j.ids, StatusError, err, attempts)
	}

	parsed, err := j.parse(reply)
	if err != nil {
		log.Warn("analysis reply rejected", zap.Bool("cached", cached), zap.Error(err))
		out := uniform(j.ids, StatusError, err, attempts)
		for i := range out {
			out[i].Cached = cached
		}
		return out
	}

	out := make([]Outcome, 0, len(j.ids))
	settled := false
	for _, id := range j.ids {
		o, ok := parsed[id]
		if !ok {
			o = Outcome{ProductID: id, Status: StatusError, Error: ErrMissingResult.Error()}
		}
		o.ProductID = id
		o.Attempts = attempts
		o.Cached = cached
		settled = settled || o.Status == StatusDone
		out = append(out, o)
	}

	if settled && !cached {
		r.cacheReply(ctx, j.key, reply, log)
	}
	return out
}

func (r *Runner) cacheReply(ctx context.Context, key, reply string, log *zap.Logger) {
	if r.cache == nil {
		return
	}
	if err := r.cache.SetCachedRecommendation(ctx, key, reply, r.cacheTTL); err != nil {
		log.Warn("recommendation cache write failed", zap.Error(err))
	}
}

func (r *Runner) complete(ctx context.Context, j job, log *zap.Logger) (reply string, attempts int, cached bool, err error) {
	if r.cache != nil {
		if text, ok, cerr := r.cache.GetCachedRecommendation(ctx, j.key); cerr != nil {
			log.Warn("recommendation cache lookup failed", zap.Error(cerr))
		} else if ok {
			return text, 0, true, nil
		}
	}

	policy := r.retry
	policy.OnRetry = func(retry int, wait time.Duration, err error) {
		log.Warn("rate limited, backing off",
			zap.Int("retry", retry),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	completion, err := resilience.Do(ctx, policy, func(ctx context.Context) (*anthropic.Completion, error) {
		attempts++
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return nil, eris.Wrap(err, "analysis: wait for rate limiter")
			}
		}
		return r.client.Complete(ctx, anthropic.CompletionRequest{
			Model:       r.model,
			MaxTokens:   r.maxTokens,
			Temperature: r.temperature,
			System:      j.prompt.System,
			User:        j.prompt.User,
		})
	})
	if err != nil {
		return "", attempts, false, err
	}

	completion.Usage.Log(r.model, "analysis")
	return completion.Text, attempts, false, nil
}

func uniform(ids []string, status Status, err error, attempts int) []Outcome {
	out := make([]Outcome, len(ids))
	for i, id := range ids {
		out[i] = Outcome{ProductID: id, Status: status, Attempts: attempts}
		if err != nil {
			out[i].Error = err.Error()
		}
	}
	return out
}

// Recommend builds the single-product prompt for target within cohort and
// runs it.
func (r *Runner) Recommend(ctx context.Context, target model.ProductMetrics, cohort []model.ProductMetrics) (Outcome, error) {
	p, err := BuildPrompt(target, cohort)
	if err != nil {
		return Outcome{}, err
	}
	res := r.Analyze(ctx, []Request{{ProductID: target.ID, Prompt: p}})
	return res.Outcomes[target.ID], nil
}
