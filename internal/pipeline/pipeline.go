// Package pipeline implements the Pipeline stage from spec §4.10:
// Corrector -> Parser -> HierarchyCompleter -> Validator -> Geocoder run in
// strict order for one address, with step timings, per-stage panic
// isolation, and a weighted final confidence. Grounded on the teacher's
// app/services/address_service.go top-level ProcessAddress orchestration
// (sequential stage calls each wrapped so a single stage failure degrades
// the result instead of aborting the request).
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mtarikozcan/turkish-address-system/internal/addrparse"
	"github.com/mtarikozcan/turkish-address-system/internal/config"
	"github.com/mtarikozcan/turkish-address-system/internal/corrector"
	"github.com/mtarikozcan/turkish-address-system/internal/geocode"
	"github.com/mtarikozcan/turkish-address-system/internal/hierarchy"
	"github.com/mtarikozcan/turkish-address-system/internal/match"
	"github.com/mtarikozcan/turkish-address-system/internal/model"
	"github.com/mtarikozcan/turkish-address-system/internal/pipelineerr"
	"github.com/mtarikozcan/turkish-address-system/internal/validate"
)

// minUsefulChars is spec §7's InvalidInput bar ("<5 useful characters").
const minUsefulChars = 5

// Pipeline wires the five ordered stages plus the optional result cache.
type Pipeline struct {
	corrector  *corrector.Corrector
	parser     *addrparse.Parser
	completer  *hierarchy.Completer
	validator  *validate.Validator
	geocoder   *geocode.Geocoder
	matcher    *match.Matcher
	weights    config.PipelineWeights
	cache      *resultCache
	logger     *zap.Logger
}

// New constructs a Pipeline. cache may be nil to disable result caching
// entirely (spec §5: caching is an optimization, never required for
// correctness).
func New(
	c *corrector.Corrector, p *addrparse.Parser, h *hierarchy.Completer,
	v *validate.Validator, g *geocode.Geocoder, m *match.Matcher,
	weights config.PipelineWeights, cache *resultCache, logger *zap.Logger,
) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		corrector: c, parser: p, completer: h, validator: v, geocoder: g, matcher: m,
		weights: weights, cache: cache, logger: logger,
	}
}

// NewCache builds the optional L1+L2 result cache from config; callers pass
// the result into New, or nil to disable caching.
func NewCache(cfg config.Cache, logger *zap.Logger) (*resultCache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return newResultCache(cfg.L1Size, cfg.RedisURL, cfg.TTLSec, logger)
}

// Resolve runs the full stage sequence for one raw address (spec §4.10's
// core "resolve(raw)" library entry point).
func (p *Pipeline) Resolve(ctx context.Context, raw string) model.PipelineResult {
	if p.cache != nil {
		if cached, ok := p.cache.Get(ctx, raw); ok {
			return cached
		}
	}

	if !hasEnoughUsefulChars(raw) {
		res := model.PipelineResult{
			Input: raw, Status: model.StatusError,
			Errors: []string{pipelineerr.New(pipelineerr.InvalidInput, "input is empty or below the minimum useful length").Error()},
		}
		return res
	}

	var timings []model.StepTiming
	var errs []string
	fatal := false

	correctorResult := runStage(&timings, &errs, &fatal, "corrector", func() corrector.Result {
		return p.corrector.Correct(raw)
	}, corrector.Result{})

	parserResult := runStage(&timings, &errs, &fatal, "parser", func() addrparse.Result {
		return p.parser.Parse(correctorResult.Corrected)
	}, addrparse.Result{})
	components := parserResult.Components
	edits := append(append([]model.CorrectionEdit{}, correctorResult.Edits...), parserResult.Edits...)

	hierarchyEdits := runStage(&timings, &errs, &fatal, "hierarchy", func() []model.CorrectionEdit {
		return p.completer.Complete(&components)
	}, nil)
	edits = append(edits, hierarchyEdits...)

	validation := runStage(&timings, &errs, &fatal, "validate", func() model.ValidationResult {
		return p.validator.Validate(components)
	}, model.ValidationResult{})

	if parserResult.Conflict {
		validation.Warnings = append(validation.Warnings,
			pipelineerr.New(pipelineerr.GeographicConflict, "famous-street override applied").Error())
	}

	geo := runStage(&timings, &errs, &fatal, "geocode", func() model.GeocodeResult {
		return p.geocoder.Geocode(components)
	}, model.GeocodeResult{})

	final := p.weights.Validation*validation.Confidence +
		p.weights.Parser*parserResult.Confidence +
		p.weights.Corrector*correctorResult.Confidence +
		p.weights.BestMatch*0 // bestMatch defaults to 0 when no comparison is requested (spec §4.10)

	if final < config.Default().Thresholds.LowConfidence {
		errs = append(errs, pipelineerr.New(pipelineerr.LowConfidence, "final confidence below threshold").Error())
	}

	status := model.StatusCompleted
	if fatal {
		status = model.StatusError
	}

	result := model.PipelineResult{
		Input:         raw,
		Corrected:     correctorResult.Corrected,
		Components:    components,
		Edits:         edits,
		Validation:    validation,
		Precision:     geo.Precision,
		Coordinate:    geo.Coordinate,
		Confidence:    final,
		StepTimingsMs: timings,
		Status:        status,
		Errors:        errs,
		Suggestions:   validation.Suggestions,
	}

	if p.cache != nil {
		p.cache.Set(ctx, raw, result)
	}
	return result
}

// Similarity exposes the "similarity(rawA, rawB)" library entry point.
func (p *Pipeline) Similarity(ctx context.Context, rawA, rawB string) model.MatchResult {
	return p.matcher.Compare(ctx, rawA, rawB)
}

func hasEnoughUsefulChars(s string) bool {
	n := 0
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' {
			n++
		}
	}
	return n >= minUsefulChars
}

// runStage times fn, recovers a panic into an InternalError appended to errs (spec §7's
// "per-address errors never crash the pipeline"), and returns zero on
// failure so the remaining stages still run against a neutral default.
func runStage[T any](timings *[]model.StepTiming, errs *[]string, fatal *bool, name string, fn func() T, zero T) (out T) {
	start := time.Now()
	out = zero
	func() {
		defer func() {
			if r := recover(); r != nil {
				*errs = append(*errs, pipelineerr.New(pipelineerr.InternalError, name+" stage panicked").Error())
				*fatal = true
			}
		}()
		out = fn()
	}()
	*timings = append(*timings, model.StepTiming{Stage: name, DurationMs: float64(time.Since(start).Microseconds()) / 1000.0})
	return out
}
