package crawler

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/SHSHJW/top10-daily/internal/crawler/parsers"
	"github.com/SHSHJW/top10-daily/internal/logger"
	"github.com/SHSHJW/top10-daily/internal/models"
	"github.com/SHSHJW/top10-daily/internal/normalizer"
)

// ErrEmptyList means a candidate decoded fine but yielded no items.
var ErrEmptyList = errors.New("candidate returned no items")

// dateLayout is the upstream date parameter format.
const dateLayout = "20060102"

// Observer is told about every recorded attempt.
type Observer interface {
	ObserveAttempt(r AttemptResult)
}

// Chain walks source candidates in priority order until one yields items.
type Chain struct {
	fetcher   Doer
	processor *normalizer.Processor
	log       *logger.Logger
	observer  Observer
	now       func() time.Time
	policy    RetryPolicy
}

// ChainOption customizes a Chain.
type ChainOption func(*Chain)

// WithLogger sets the chain logger.
func WithLogger(l *logger.Logger) ChainOption {
	return func(c *Chain) { c.log = l }
}

// WithObserver registers an attempt observer.
func WithObserver(o Observer) ChainOption {
	return func(c *Chain) { c.observer = o }
}

// WithClock overrides the clock used for dates and cache busting.
func WithClock(now func() time.Time) ChainOption {
	return func(c *Chain) { c.now = now }
}

// NewChain creates a chain over the given fetcher.
func NewChain(fetcher Doer, policy RetryPolicy, opts ...ChainOption) *Chain {
	c := &Chain{
		fetcher:   fetcher,
		policy:    policy,
		processor: normalizer.NewProcessor(),
		log:       logger.Nop(),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Plan is the ordered set of candidates for one job.
type Plan struct {
	Location   *time.Location
	Candidates []models.SourceCandidate
	Secondary  []models.SourceCandidate
}

// Resolution is the outcome of a chain run. Items is empty when every
// candidate failed; Resolve itself never fails.
type Resolution struct {
	Attempts  *AttemptLog
	LastError error
	Candidate string
	URL       string
	Pass      Pass
	LastBody  string
	Items     []models.CanonicalItem
}

// Found reports whether some candidate produced items.
func (r *Resolution) Found() bool {
	return len(r.Items) > 0
}

type pass struct {
	name       Pass
	candidates []models.SourceCandidate
	shiftDays  int
}

// Resolve runs the primary candidates, then the date-shiftable ones again
// for the previous day, then the secondary candidates. The first candidate
// that yields at least one item wins.
func (c *Chain) Resolve(ctx context.Context, plan Plan) *Resolution {
	res := &Resolution{Attempts: NewAttemptLog()}

	loc := plan.Location
	if loc == nil {
		loc = time.UTC
	}

	passes := []pass{
		{name: PassPrimary, candidates: plan.Candidates},
		{name: PassDateShifted, candidates: dateShiftable(plan.Candidates), shiftDays: -1},
		{name: PassSecondary, candidates: plan.Secondary},
	}

	for _, p := range passes {
		if len(p.candidates) == 0 {
			continue
		}

		if p.name != PassPrimary {
			c.log.Info("🔁 Falling back", "pass", p.name, "candidates", len(p.candidates))
		}

		for _, cand := range p.candidates {
			if err := ctx.Err(); err != nil {
				c.log.Warn("⏱️ Run deadline reached, stopping candidate chain", "error", err)
				res.LastError = err

				return res
			}

			items, err := c.tryCandidate(ctx, cand, p, loc, res)
			if err != nil {
				res.LastError = err

				continue
			}

			res.Items = items
			res.Candidate = cand.Name
			res.Pass = p.name

			c.log.Info("✅ Candidate succeeded", "candidate", cand.Name, "pass", p.name, "items", len(items))

			return res
		}
	}

	c.log.Warn("❌ All candidates exhausted", "attempts", res.Attempts.Stats().TotalAttempts)

	return res
}

func (c *Chain) tryCandidate(
	ctx context.Context,
	cand models.SourceCandidate,
	p pass,
	loc *time.Location,
	res *Resolution,
) ([]models.CanonicalItem, error) {
	target := ExpandURL(cand, c.now().In(loc), p.shiftDays)
	display := redact(target, cand.APIKey)

	c.log.Info("🔎 Trying candidate", "candidate", cand.Name, "pass", p.name, "url", display)

	base := AttemptResult{Candidate: cand.Name, URL: display, Pass: p.name}

	policy := c.policy
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		c.log.Warn("⚠️ Fetch failed, retrying",
			"candidate", cand.Name, "attempt", attempt, "delay", delay, "error", redact(err.Error(), cand.APIKey))
	}

	maxAttempts := policy.MaxAttempts
	attemptNum := 0
	start := time.Now()

	resp, err := WithRetry(ctx, policy, func(ctx context.Context, attempt int) (*Response, error) {
		attemptNum = attempt
		attemptStart := time.Now()

		resp, err := c.fetcher.Fetch(ctx, Request{
			URL:     withCacheBust(target, cand.CacheBust, c.now()),
			Headers: attemptHeaders(cand.Headers, attempt, maxAttempts),
		})
		if err != nil {
			r := base
			r.Attempt = attempt
			r.Stage = StageFetch
			r.Error = redact(err.Error(), cand.APIKey)
			r.Duration = time.Since(attemptStart)
			r.StatusCode = statusOf(err)
			c.record(res, r)

			return nil, err
		}

		return resp, nil
	})
	if err != nil {
		err = redactErr(err, cand.APIKey)
		c.log.Warn("❌ Candidate fetch failed", "candidate", cand.Name, "error", err)

		return nil, err
	}

	res.LastBody = resp.Body
	res.URL = display

	result := base
	result.Attempt = attemptNum
	result.StatusCode = resp.StatusCode

	items, stage, err := c.extract(resp.Body, cand)

	result.Stage = stage
	result.Duration = time.Since(start)
	result.Items = len(items)

	if err == nil && len(items) == 0 {
		err = ErrEmptyList
	}

	if err != nil {
		err = redactErr(err, cand.APIKey)
		result.Error = err.Error()
		c.record(res, result)
		c.log.Warn("❌ Candidate rejected", "candidate", cand.Name, "stage", stage, "error", err)

		return nil, err
	}

	result.Success = true
	c.record(res, result)

	return items, nil
}

// extract runs decode, item location and normalization on one body.
func (c *Chain) extract(body string, cand models.SourceCandidate) ([]models.CanonicalItem, Stage, error) {
	doc, err := parsers.Decode(body, cand.Format, cand.ScriptID)
	if err != nil {
		return nil, StageDecode, err
	}

	raw, err := parsers.Extract(doc, cand)
	if err != nil {
		return nil, StageExtract, err
	}

	items, err := c.processor.Process(raw, cand)
	if err != nil {
		return nil, StageNormalize, err
	}

	return items, StageDone, nil
}

func (c *Chain) record(res *Resolution, r AttemptResult) {
	res.Attempts.Record(r)

	if c.observer != nil {
		c.observer.ObserveAttempt(r)
	}
}

// ExpandURL fills the {date} and {api_key} placeholders. The date is the
// local calendar day plus the candidate offset plus shiftDays.
func ExpandURL(cand models.SourceCandidate, now time.Time, shiftDays int) string {
	out := cand.URL

	if strings.Contains(out, models.DatePlaceholder) {
		date := now.AddDate(0, 0, cand.DateOffsetDays+shiftDays).Format(dateLayout)
		out = strings.ReplaceAll(out, models.DatePlaceholder, date)
	}

	if strings.Contains(out, models.APIKeyPlaceholder) {
		out = strings.ReplaceAll(out, models.APIKeyPlaceholder, cand.APIKey)
	}

	return out
}

func withCacheBust(target string, enabled bool, now time.Time) string {
	if !enabled {
		return target
	}

	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}

	return target + sep + "_=" + strconv.FormatInt(now.UnixMilli(), 10)
}

// attemptHeaders asks intermediaries for a fresh copy on retries and
// relaxes Accept on the final attempt.
func attemptHeaders(custom map[string]string, attempt, maxAttempts int) map[string]string {
	headers := make(map[string]string, len(custom)+3)
	for k, v := range custom {
		headers[k] = v
	}

	if attempt > 1 {
		headers["Cache-Control"] = "no-cache"
		headers["Pragma"] = "no-cache"
	}

	if maxAttempts > 2 && attempt == maxAttempts {
		headers["Accept"] = "*/*"
	}

	return headers
}

func dateShiftable(candidates []models.SourceCandidate) []models.SourceCandidate {
	var out []models.SourceCandidate

	for _, cand := range candidates {
		if cand.DateShiftable() {
			out = append(out, cand)
		}
	}

	return out
}

func statusOf(err error) int {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status
	}

	return 0
}

func redact(s, secret string) string {
	if secret == "" {
		return s
	}

	return strings.ReplaceAll(s, secret, "***")
}

var _ Doer = (*Fetcher)(nil)
