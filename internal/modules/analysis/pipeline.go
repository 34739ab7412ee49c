package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/yungbote/fitprint-backend/internal/domain/wardrobe"
	"github.com/yungbote/fitprint-backend/internal/observability"
	"github.com/yungbote/fitprint-backend/internal/platform/ctxutil"
	"github.com/yungbote/fitprint-backend/internal/platform/logger"
)

type ImageIntaker interface {
	Intake(ctx context.Context, userID string, data []byte, filename string) (ImageRef, error)
}

// Timeouts bound each collaborator call. Zero disables the bound.
type Timeouts struct {
	Intake       time.Duration
	Identify     time.Duration
	Report       time.Duration
	Alternatives time.Duration
	StoreWrite   time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Intake:       60 * time.Second,
		Identify:     45 * time.Second,
		Report:       60 * time.Second,
		Alternatives: 60 * time.Second,
		StoreWrite:   10 * time.Second,
	}
}

type OrchestratorDeps struct {
	Log          *logger.Logger
	Intake       ImageIntaker
	Brand        BrandIdentifier
	Report       ReportGenerator
	Alternatives AlternativeFinder
	Store        wardrobe.Store
	Metrics      *observability.Metrics
	Tracer       trace.Tracer
	Timeouts     Timeouts
}

// Orchestrator sequences the analysis stages and persists their output.
// It holds no per-request state and is safe for concurrent use.
type Orchestrator struct {
	log      *logger.Logger
	intake   ImageIntaker
	brand    BrandIdentifier
	report   ReportGenerator
	alts     AlternativeFinder
	store    wardrobe.Store
	metrics  *observability.Metrics
	tracer   trace.Tracer
	timeouts Timeouts
	now      func() time.Time
}

func NewOrchestrator(deps OrchestratorDeps) (*Orchestrator, error) {
	switch {
	case deps.Log == nil:
		return nil, errors.New("orchestrator: logger required")
	case deps.Intake == nil:
		return nil, errors.New("orchestrator: image intake required")
	case deps.Brand == nil:
		return nil, errors.New("orchestrator: brand identifier required")
	case deps.Report == nil:
		return nil, errors.New("orchestrator: report generator required")
	case deps.Alternatives == nil:
		return nil, errors.New("orchestrator: alternative finder required")
	case deps.Store == nil:
		return nil, errors.New("orchestrator: store required")
	}
	tracer := deps.Tracer
	if tracer == nil {
		tracer = observability.PipelineTracer()
	}
	return &Orchestrator{
		log:      deps.Log.With("service", "AnalysisOrchestrator"),
		intake:   deps.Intake,
		brand:    deps.Brand,
		report:   deps.Report,
		alts:     deps.Alternatives,
		store:    deps.Store,
		metrics:  deps.Metrics,
		tracer:   tracer,
		timeouts: deps.Timeouts,
		now:      time.Now,
	}, nil
}

type Request struct {
	UserID   string
	Image    []byte
	Filename string
}

// Result is the composed response of a completed run.
type Result struct {
	AnalysisID           string                         `json:"analysis_id"`
	ClothingItem         *wardrobe.ClothingItem         `json:"clothing_item"`
	SustainabilityReport *wardrobe.SustainabilityReport `json:"sustainability_report"`
	Alternatives         []*wardrobe.AlternativeProduct `json:"alternatives"`
	CreatedAt            time.Time                      `json:"created_at"`

	Stages []StageRecord `json:"-"`
}

// Degraded reports whether any stage fell back or absorbed a failure.
func (r *Result) Degraded() bool {
	for _, s := range r.Stages {
		if s.Fallback || len(s.Degradations) > 0 {
			return true
		}
	}
	return false
}

type stageResult struct {
	fallback bool
	degraded []Degraded
	fatal    error
	aborted  bool
}

type run struct {
	o        *Orchestrator
	log      *logger.Logger
	span     trace.Span
	state    State
	stages   []StageRecord
	degraded bool
}

// collaborators maps a degradation to the dependency that caused it.
var collaborators = map[Degradation]string{
	DegradedIdentification:        "brand_identifier",
	DegradedReport:                "report_generator",
	DegradedAlternatives:          "alternative_finder",
	PartialAlternativePersistence: "entity_store",
	DegradedLinking:               "entity_store",
	DegradedIntakeStorage:         "object_storage",
}

func (r *run) do(ctx context.Context, state State, fn func(context.Context) stageResult) stageResult {
	r.state = state
	ctx, span := r.o.tracer.Start(ctx, "analysis."+strings.ToLower(string(state)),
		trace.WithAttributes(attribute.String("stage", string(state))))
	defer span.End()

	r.log.Info("Pipeline stage started", "stage", state)
	start := time.Now()
	res := fn(ctx)
	dur := time.Since(start)

	rec := StageRecord{State: state, Fallback: res.fallback, Duration: dur}
	span.SetAttributes(attribute.Bool("fallback", res.fallback))
	for _, d := range res.degraded {
		rec.Degradations = append(rec.Degradations, d.Kind)
		r.degraded = true
		r.log.Warn("Pipeline stage degraded", "stage", state, "degradation", d.Kind, "error", d.Err)
		r.o.metrics.IncDegradation(string(d.Kind))
		if c, ok := collaborators[d.Kind]; ok {
			r.o.metrics.IncCollaboratorError(c)
		}
		span.SetAttributes(attribute.String("degradation", string(d.Kind)))
		if d.Err != nil {
			span.RecordError(d.Err)
		}
	}
	if res.fallback {
		r.degraded = true
	}
	if res.fatal != nil {
		rec.Error = res.fatal.Error()
		span.RecordError(res.fatal)
		span.SetStatus(codes.Error, res.fatal.Error())
	}
	r.o.metrics.ObserveStage(string(state), res.fallback, dur)
	r.stages = append(r.stages, rec)
	return res
}

func (r *run) fail(kind error, entity string, res stageResult) error {
	if res.aborted {
		kind = ErrAborted
	}
	err := &FatalError{Kind: kind, Stage: r.state, Entity: entity, Err: res.fatal}
	r.log.Error("Pipeline failed", "stage", r.state, "error", err)
	outcome := "failed"
	if errors.Is(err, ErrAborted) {
		outcome = "aborted"
	}
	r.o.metrics.IncPipelineRun(outcome)
	r.span.SetStatus(codes.Error, err.Error())
	r.state = StateFailed
	return err
}

func degradeIf(fallback bool, kind Degradation, reason error) stageResult {
	if !fallback {
		return stageResult{}
	}
	if reason == nil {
		reason = errors.New("fallback value used")
	}
	return stageResult{fallback: true, degraded: []Degraded{{Kind: kind, Err: reason}}}
}

// Analyze runs one analysis to DONE or FAILED. The only errors it returns
// are *FatalError values matching ErrFatalIntake, ErrFatalPersistence or
// ErrAborted.
func (o *Orchestrator) Analyze(ctx context.Context, req Request) (*Result, error) {
	ctx = ctxutil.Default(ctx)
	analysisID := uuid.NewString()
	ctx, span := o.tracer.Start(ctx, "analysis.Analyze", trace.WithAttributes(attribute.String("analysis_id", analysisID)))
	defer span.End()

	kv := append([]interface{}{"analysis_id", analysisID, "user_id", req.UserID}, ctxutil.LogFields(ctx)...)
	r := &run{o: o, log: o.log.With(kv...), span: span}

	var ref ImageRef
	res := r.do(ctx, StateIntaking, func(ctx context.Context) stageResult {
		ctx, cancel := withTimeout(ctx, o.timeouts.Intake)
		defer cancel()
		got, err := o.intake.Intake(ctx, req.UserID, req.Image, req.Filename)
		if err != nil {
			return stageResult{fatal: err}
		}
		ref = got
		return stageResult{fallback: len(got.Degradations) > 0, degraded: got.Degradations}
	})
	if res.fatal != nil {
		return nil, r.fail(ErrFatalIntake, "image", res)
	}

	var info wardrobe.BrandInfo
	r.do(ctx, StateIdentifying, func(ctx context.Context) stageResult {
		ctx, cancel := withTimeout(ctx, o.timeouts.Identify)
		defer cancel()
		out := o.brand.Identify(ctx, ref.URL)
		info = out.Value
		if strings.TrimSpace(info.Brand) == "" {
			info, out.Fallback = FallbackBrandInfo(), true
		}
		info.Confidence = clamp01(info.Confidence)
		return degradeIf(out.Fallback, DegradedIdentification, out.Reason)
	})

	var payload ReportPayload
	r.do(ctx, StateReporting, func(ctx context.Context) stageResult {
		ctx, cancel := withTimeout(ctx, o.timeouts.Report)
		defer cancel()
		out := o.report.Generate(ctx, info.Brand, info)
		payload = out.Value
		if err := checkReport(payload); err != nil {
			payload, out.Fallback, out.Reason = FallbackReport(info.Brand), true, err
		}
		if payload.RegionalAlerts == nil {
			payload.RegionalAlerts = wardrobe.RegionalAlerts{}
		}
		return degradeIf(out.Fallback, DegradedReport, out.Reason)
	})

	var candidates []AlternativeCandidate
	r.do(ctx, StateSourcingAlternatives, func(ctx context.Context) stageResult {
		ctx, cancel := withTimeout(ctx, o.timeouts.Alternatives)
		defer cancel()
		out := o.alts.Find(ctx, info.Brand, info)
		candidates = limitCandidates(out.Value)
		return degradeIf(out.Fallback, DegradedAlternatives, out.Reason)
	})

	now := o.now().UTC()
	item := &wardrobe.ClothingItem{
		ID:          uuid.New(),
		UserID:      req.UserID,
		Brand:       info.Brand,
		ImageURL:    ref.URL,
		ImageKey:    ref.Key,
		ImageBucket: ref.Bucket,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	res = r.do(ctx, StatePersistingItem, func(ctx context.Context) stageResult {
		return o.write(ctx, func(ctx context.Context) error { return o.store.CreateClothingItem(ctx, item) })
	})
	if res.fatal != nil {
		return nil, r.fail(ErrFatalPersistence, "clothing_item", res)
	}

	report := &wardrobe.SustainabilityReport{
		ID:                 NewReportID(now),
		ClothingID:         item.ID,
		Brand:              info.Brand,
		Categories:         datatypes.NewJSONType(payload.Categories),
		OverallScore:       payload.OverallScore,
		OverallDescription: payload.OverallDescription,
		RegionalAlerts:     datatypes.NewJSONType(payload.RegionalAlerts),
		AlternativeIDs:     datatypes.JSONSlice[string]{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	res = r.do(ctx, StatePersistingReport, func(ctx context.Context) stageResult {
		return o.write(ctx, func(ctx context.Context) error { return o.store.CreateReport(ctx, report) })
	})
	if res.fatal != nil {
		return nil, r.fail(ErrFatalPersistence, "sustainability_report", res)
	}

	// The report is committed; the remaining writes finish even if the caller goes away.
	detached := context.WithoutCancel(ctx)

	var persisted []*wardrobe.AlternativeProduct
	r.do(detached, StatePersistingAlternative, func(ctx context.Context) stageResult {
		var failures []error
		persisted, failures = o.persistAlternatives(ctx, r.log, item.ID, candidates, now)
		if len(failures) == 0 {
			return stageResult{}
		}
		return stageResult{degraded: []Degraded{{
			Kind: PartialAlternativePersistence,
			Err:  fmt.Errorf("%d of %d alternatives not saved: %w", len(failures), len(candidates), errors.Join(failures...)),
		}}}
	})

	r.do(detached, StateLinking, func(ctx context.Context) stageResult {
		if len(persisted) == 0 {
			return stageResult{}
		}
		ids := make([]string, len(persisted))
		for i, a := range persisted {
			ids[i] = a.ID.String()
		}
		ctx, cancel := withTimeout(ctx, o.timeouts.StoreWrite)
		defer cancel()
		if err := o.store.LinkReportAlternatives(ctx, report.ID, ids); err != nil {
			return stageResult{degraded: []Degraded{{Kind: DegradedLinking, Err: err}}}
		}
		report.AlternativeIDs = datatypes.JSONSlice[string](ids)
		report.UpdatedAt = o.now().UTC()
		return stageResult{}
	})

	r.state = StateDone
	outcome := "success"
	if r.degraded {
		outcome = "degraded"
	}
	o.metrics.IncPipelineRun(outcome)
	o.metrics.ObserveAlternativesPersisted(len(persisted))
	span.SetAttributes(attribute.Bool("degraded", r.degraded), attribute.Int("alternatives", len(persisted)))
	r.log.Info("Pipeline done",
		"clothing_id", item.ID,
		"report_id", report.ID,
		"brand", info.Brand,
		"alternatives", len(persisted),
		"degraded", r.degraded,
	)

	if persisted == nil {
		persisted = []*wardrobe.AlternativeProduct{}
	}
	return &Result{
		AnalysisID:           analysisID,
		ClothingItem:         item,
		SustainabilityReport: report,
		Alternatives:         persisted,
		CreatedAt:            now,
		Stages:               r.stages,
	}, nil
}

// write runs a fatal-class store write. A caller that has already gone away
// aborts the run before the write is issued.
func (o *Orchestrator) write(ctx context.Context, fn func(context.Context) error) stageResult {
	if err := ctx.Err(); err != nil {
		return stageResult{fatal: err, aborted: true}
	}
	ctx, cancel := withTimeout(ctx, o.timeouts.StoreWrite)
	defer cancel()
	if err := fn(ctx); err != nil {
		return stageResult{fatal: err}
	}
	return stageResult{}
}

// persistAlternatives writes each candidate independently. Failed writes are
// dropped; the survivors keep candidate order.
func (o *Orchestrator) persistAlternatives(ctx context.Context, log *logger.Logger, clothingID uuid.UUID, candidates []AlternativeCandidate, now time.Time) ([]*wardrobe.AlternativeProduct, []error) {
	slots := make([]*wardrobe.AlternativeProduct, len(candidates))
	errs := make([]error, len(candidates))

	var g errgroup.Group
	g.SetLimit(wardrobe.MaxAlternatives)
	for i, c := range candidates {
		alt := &wardrobe.AlternativeProduct{
			ID:                  uuid.New(),
			ClothingID:          clothingID,
			Name:                c.Name,
			Brand:               c.Brand,
			ImageURL:            c.ImageURL,
			SustainabilityScore: c.SustainabilityScore,
			Link:                c.Link,
			WhySustainable:      c.WhySustainable,
			// offset so listings ordered by created_at keep candidate order
			CreatedAt: now.Add(time.Duration(i) * time.Microsecond),
		}
		g.Go(func() error {
			ctx, cancel := withTimeout(ctx, o.timeouts.StoreWrite)
			defer cancel()
			if err := o.store.CreateAlternative(ctx, alt); err != nil {
				log.Warn("Alternative not saved", "index", i, "name", alt.Name, "error", err)
				errs[i] = err
				return nil
			}
			slots[i] = alt
			return nil
		})
	}
	_ = g.Wait()

	out := make([]*wardrobe.AlternativeProduct, 0, len(candidates))
	var failures []error
	for i := range slots {
		if slots[i] != nil {
			out = append(out, slots[i])
		} else if errs[i] != nil {
			failures = append(failures, errs[i])
		}
	}
	return out, failures
}

// checkReport guards the report invariants regardless of which generator produced it.
func checkReport(p ReportPayload) error {
	if len(p.Categories) != len(wardrobe.CategoryKeys) {
		return fmt.Errorf("report has %d categories", len(p.Categories))
	}
	for _, k := range wardrobe.CategoryKeys {
		c, ok := p.Categories[k]
		if !ok {
			return fmt.Errorf("report missing category %s", k)
		}
		if c.Score < 1 || c.Score > 5 {
			return fmt.Errorf("category %s score %d outside 1..5", k, c.Score)
		}
	}
	if p.OverallScore < 1 || p.OverallScore > 5 {
		return fmt.Errorf("overall score %v outside 1..5", p.OverallScore)
	}
	for code := range p.RegionalAlerts {
		if !wardrobe.IsRegionCode(code) {
			return fmt.Errorf("unknown region %q", code)
		}
	}
	return nil
}
