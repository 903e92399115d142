package optimizer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kosarica/network-optimizer/internal/geo"
	"github.com/kosarica/network-optimizer/internal/location"
	"github.com/kosarica/network-optimizer/internal/lp"
)

const (
	KindSolve    = "solve"
	KindAllocate = "allocate"
	KindLocate   = "locate"
)

// Optimizer is the interface the HTTP handlers, job workers and CLI run against.
type Optimizer interface {
	Solve(ctx context.Context, req *SolveRequest) (*SolveResponse, error)
	Allocate(ctx context.Context, req *AllocateRequest) (*AllocateResponse, error)
	Locate(ctx context.Context, req *LocateRequest) (*LocateResponse, error)
}

// Service validates requests, runs the solvers and records logs, metrics and spans.
// Every call is independent; a Service is safe for concurrent use.
type Service struct {
	config  *Config
	metrics *MetricsRecorder
	logger  zerolog.Logger
	tracer  trace.Tracer
}

var _ Optimizer = (*Service)(nil)

// NewService creates a new optimization service.
func NewService(config *Config) *Service {
	if config == nil {
		config = Defaults()
	}
	return &Service{
		config:  config,
		metrics: NewMetricsRecorder(),
		logger:  log.With().Str("component", "optimizer").Logger(),
		tracer:  otel.Tracer("github.com/kosarica/network-optimizer/internal/optimizer"),
	}
}

// IsPrecondition reports whether err is a caller error (bad input) rather than
// an internal failure.
func IsPrecondition(err error) bool {
	var invalid ErrInvalidRequest
	return errors.As(err, &invalid) ||
		errors.Is(err, lp.ErrNoCustomers) ||
		errors.Is(err, lp.ErrNoFacilities) ||
		errors.Is(err, lp.ErrNoProducts) ||
		errors.Is(err, lp.ErrMissingValue) ||
		errors.Is(err, lp.ErrInvalidQuantity) ||
		errors.Is(err, lp.ErrDuplicateID) ||
		errors.Is(err, location.ErrNoCustomers) ||
		errors.Is(err, location.ErrNoFacilities) ||
		errors.Is(err, location.ErrInvalidSiteCount)
}

func (s *Service) start(ctx context.Context, kind string) (context.Context, trace.Span, time.Time) {
	ctx, span := s.tracer.Start(ctx, "optimizer."+kind)
	return ctx, span, time.Now()
}

func (s *Service) finish(span trace.Span, kind string, started time.Time, err error) {
	s.metrics.RecordRun(kind, time.Since(started), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Solve runs the LP flow solver.
func (s *Service) Solve(ctx context.Context, req *SolveRequest) (resp *SolveResponse, err error) {
	ctx, span, started := s.start(ctx, KindSolve)
	defer func() { s.finish(span, KindSolve, started, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := req.Validate(s.config); err != nil {
		return nil, err
	}

	objective, _ := lp.ParseObjective(req.Settings.ObjectiveType)
	solver := &lp.Solver{
		MaxIterations:  s.config.Solver.MaxIterations,
		NoiseThreshold: s.config.Solver.NoiseThreshold,
		Build: lp.BuildOptions{
			Policy:          s.config.missingDataPolicy(req.Settings.MissingData),
			AssumedSpeedKmh: s.config.Solver.AssumedSpeedKmh,
			ServicePremium:  req.Settings.ServicePremium,
		},
	}
	if req.Settings.MaxIterations > 0 {
		solver.MaxIterations = req.Settings.MaxIterations
	}

	res, err := solver.Solve(toNetwork(req, objective))
	if err != nil {
		return nil, fmt.Errorf("solve network: %w", err)
	}

	status := res.Status.String()
	span.SetAttributes(
		attribute.Int("lp.variables", res.Variables),
		attribute.Int("lp.constraints", res.Constraints),
		attribute.Int("lp.iterations", res.Iterations),
		attribute.String("lp.status", status),
	)
	s.metrics.RecordProblemSize(KindSolve, res.Variables)
	s.metrics.RecordStatus(KindSolve, status, res.Iterations)

	event := s.logger.Info()
	if res.Status != lp.StatusOptimal {
		event = s.logger.Warn()
	}
	event.
		Str("status", status).
		Int("iterations", res.Iterations).
		Int("variables", res.Variables).
		Int("constraints", res.Constraints).
		Int("flows", len(res.Flows)).
		Float64("objective", res.ObjectiveValue).
		Dur("duration", time.Since(started)).
		Msg("Flow solve completed")

	return &SolveResponse{
		Flows:           res.Flows,
		ObjectiveValue:  res.ObjectiveValue,
		SolverObjective: res.SolverObjective,
		Iterations:      res.Iterations,
		Status:          status,
		Products:        res.Products,
		Warnings:        nonNil(res.Warnings),
		Variables:       res.Variables,
		Constraints:     res.Constraints,
	}, nil
}

// Allocate runs the gravity allocator over a fixed facility list.
func (s *Service) Allocate(ctx context.Context, req *AllocateRequest) (resp *AllocateResponse, err error) {
	ctx, span, started := s.start(ctx, KindAllocate)
	defer func() { s.finish(span, KindAllocate, started, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := req.Validate(s.config); err != nil {
		return nil, err
	}
	unit, _ := geo.ParseUnit(req.Settings.DistanceUnit)

	res, err := location.AllocateGravity(toCustomers(req.Customers), toSites(req.Facilities), req.Products, location.GravitySettings{
		TransportCostPerDistanceUnit: req.Settings.TransportCostPerDistanceUnit,
		FixedCostPerFacility:         req.Settings.FixedCostPerFacility,
		Unit:                         unit,
	})
	if err != nil {
		return nil, fmt.Errorf("allocate demand: %w", err)
	}

	span.SetAttributes(
		attribute.Int("allocate.customers", len(req.Customers)),
		attribute.Int("allocate.facilities", len(req.Facilities)),
		attribute.Float64("allocate.service_level", res.KPIs.ServiceLevel),
	)
	s.metrics.RecordProblemSize(KindAllocate, len(req.Customers))
	s.metrics.RecordServiceLevel(KindAllocate, res.KPIs.ServiceLevel)

	s.logger.Info().
		Int("customers", len(req.Customers)).
		Int("facilities", len(req.Facilities)).
		Int("assignments", len(res.Assignments)).
		Float64("service_level", res.KPIs.ServiceLevel).
		Float64("total_cost", res.Cost.TotalCost).
		Dur("duration", time.Since(started)).
		Msg("Gravity allocation completed")

	out := &AllocateResponse{
		Assignments:   toAssignments(res.Assignments),
		Loads:         make([]FacilityLoadOutput, 0, len(res.Loads)),
		CostBreakdown: res.Cost,
		KPIs:          res.KPIs,
	}
	for _, l := range res.Loads {
		load := FacilityLoadOutput{FacilityID: l.FacilityID, Product: l.Product, Allocated: l.Allocated}
		if !math.IsInf(l.Capacity, 1) {
			c := l.Capacity
			load.Capacity = &c
		}
		out.Loads = append(out.Loads, load)
	}
	return out, nil
}

// Locate plans distribution center sites.
func (s *Service) Locate(ctx context.Context, req *LocateRequest) (resp *LocateResponse, err error) {
	ctx, span, started := s.start(ctx, KindLocate)
	defer func() { s.finish(span, KindLocate, started, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := req.Validate(s.config); err != nil {
		return nil, err
	}

	settings := s.locationSettings(req.Settings)
	planner := location.NewPlanner(settings, s.clusterOptions(req.Settings.Seed))

	plan, err := planner.Plan(toCustomers(req.Customers), toSites(req.ExistingSites))
	if err != nil {
		return nil, fmt.Errorf("plan locations: %w", err)
	}

	span.SetAttributes(
		attribute.Int("locate.customers", len(req.Customers)),
		attribute.Int("locate.dcs", len(plan.DCs)),
		attribute.String("locate.source", plan.Source),
		attribute.String("locate.status", string(plan.Status)),
		attribute.Bool("locate.feasible", plan.Feasible),
	)
	s.metrics.RecordProblemSize(KindLocate, len(req.Customers))
	s.metrics.RecordStatus(KindLocate, string(plan.Status), plan.Iterations)
	s.metrics.RecordServiceLevel(KindLocate, plan.KPIs.ServiceLevel)
	s.metrics.RecordPlan(plan.Cost.NumSites, plan.Feasible)

	event := s.logger.Info()
	if !plan.Feasible || plan.Status != location.StatusConverged {
		event = s.logger.Warn()
	}
	event.
		Str("mode", string(settings.Mode)).
		Str("strategy", string(settings.Strategy)).
		Str("source", plan.Source).
		Str("status", string(plan.Status)).
		Int("iterations", plan.Iterations).
		Int("dcs", len(plan.DCs)).
		Bool("feasible", plan.Feasible).
		Float64("total_cost", plan.Cost.TotalCost).
		Dur("duration", time.Since(started)).
		Msg("Location plan completed")

	out := &LocateResponse{
		DCs:             make([]DCOutput, 0, len(plan.DCs)),
		Feasible:        plan.Feasible,
		Warnings:        nonNil(plan.Warnings),
		CostBreakdown:   plan.Cost,
		Assignments:     toAssignments(plan.Assignments),
		ServiceLevel:    plan.KPIs.ServiceLevel,
		AverageDistance: plan.KPIs.AverageDistance,
		Strategy:        plan.Source,
		Status:          string(plan.Status),
		Iterations:      plan.Iterations,
		Evaluated:       plan.Evaluated,
	}
	for _, dc := range plan.DCs {
		out.DCs = append(out.DCs, DCOutput{
			ID:                dc.ID,
			Latitude:          dc.Location.Latitude,
			Longitude:         dc.Location.Longitude,
			Existing:          dc.Existing,
			AssignedCustomers: nonNil(dc.AssignedCustomers),
			TotalDemand:       dc.TotalDemand,
			Capacity:          dc.Capacity,
		})
	}
	return out, nil
}

func (s *Service) locationSettings(in LocateSettings) location.Settings {
	mode, _ := location.ParseMode(in.Mode)
	strategy, _ := location.ParseStrategy(in.Strategy)
	existingMode, _ := location.ParseExistingSitesMode(in.ExistingSitesMode)
	unit, _ := geo.ParseUnit(in.DistanceUnit)
	matchKm := in.SiteMatchKm
	if matchKm == 0 {
		matchKm = s.config.Location.SiteMatchKm
	}
	return location.Settings{
		Mode:                 mode,
		Strategy:             strategy,
		NumDCs:               in.NumDCs,
		DCCapacity:           in.DCCapacity,
		TransportCostPerUnit: in.TransportationCostPerMilePerUnit,
		FacilityCost:         in.FacilityCost,
		Unit:                 unit,
		IncludeExistingSites: in.IncludeExistingSites,
		ExistingSitesMode:    existingMode,
		SiteMatchKm:          matchKm,
	}
}

// clusterOptions builds a fresh random source per run. A request seed wins
// over the configured one; with neither the run is not reproducible.
func (s *Service) clusterOptions(seed *uint64) location.ClusterOptions {
	opts := location.ClusterOptions{
		MaxIterations:         s.config.Location.MaxIterations,
		CentroidMaxIterations: s.config.Location.CentroidMaxIterations,
		CentroidToleranceKm:   s.config.Location.CentroidToleranceKm,
		MoveThresholdKm:       s.config.Location.MoveThresholdKm,
	}
	switch {
	case seed != nil:
		opts.Rand = rand.New(rand.NewPCG(*seed, *seed))
	case s.config.Location.Seed != 0:
		opts.Rand = rand.New(rand.NewPCG(s.config.Location.Seed, s.config.Location.Seed))
	}
	return opts
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
