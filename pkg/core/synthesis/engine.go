// Package synthesis runs every requested valuation methodology for one target and combines
// their ranges into a football field.
//
// The valuation package is pure arithmetic. This package owns everything around it:
//   - Resolving comparables from stored peer sets.
//   - Running independent methodologies concurrently.
//   - Deriving sensitivity axes from configuration.
//   - Structured logging and metrics.
package synthesis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"valuation_synthesis/pkg/core/config"
	"valuation_synthesis/pkg/core/logger"
	"valuation_synthesis/pkg/core/metrics"
	"valuation_synthesis/pkg/core/projection"
	"valuation_synthesis/pkg/core/valuation"
)

// ErrNoPeerSource is returned when a request names a stored set but the engine has no store.
var ErrNoPeerSource = errors.New("no peer set store configured")

// PeerSource resolves a stored comparable set by name.
type PeerSource interface {
	Entities(ctx context.Context, name string) ([]valuation.FinancialEntity, error)
}

// Engine runs valuation syntheses.
type Engine struct {
	peers PeerSource
	cfg   config.SensitivityConfig
	log   zerolog.Logger
	now   func() time.Time
}

// NewEngine creates an engine. peers may be nil when only inline comparables are used.
func NewEngine(peers PeerSource, cfg config.SensitivityConfig, log zerolog.Logger) *Engine {
	return &Engine{
		peers: peers,
		cfg:   cfg,
		log:   logger.Component(log, "synthesis"),
		now:   time.Now,
	}
}

// =============================================================================
// RUN
// =============================================================================

// Run executes every methodology whose inputs are present and builds the football field.
// Methodologies only fail the run on invalid input or cancellation; insufficient peer data
// is reported, not raised.
func (e *Engine) Run(ctx context.Context, req Request) (*Report, error) {
	started := e.now()
	runID := uuid.NewString()
	log := e.log.With().Str("run_id", runID).Logger()

	report, err := e.run(ctx, req, log)
	if err != nil {
		metrics.ObserveSynthesis("failed", started)
		log.Error().Err(err).Msg("synthesis failed")
		return nil, err
	}

	report.RunID = runID
	report.GeneratedAt = started.UTC()
	metrics.ObserveSynthesis("ok", started)
	log.Info().
		Str("target", report.Target).
		Strs("methods", report.FootballField.Methods).
		Float64("ev_min", report.FootballField.EVOverall.Min).
		Float64("ev_max", report.FootballField.EVOverall.Max).
		Dur("took", time.Since(started)).
		Msg("synthesis complete")
	return report, nil
}

func (e *Engine) run(ctx context.Context, req Request, log zerolog.Logger) (*Report, error) {
	if err := CheckInput(req); err != nil {
		return nil, err
	}
	target, err := valuation.NewFinancialEntity(req.Target)
	if err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}
	target.Kind = valuation.KindTarget

	peers, err := e.Comparables(ctx, req.Peers, req.PeerSet, valuation.KindPeer)
	if err != nil {
		return nil, fmt.Errorf("peers: %w", err)
	}
	deals, err := e.Comparables(ctx, req.Deals, req.DealSet, valuation.KindDeal)
	if err != nil {
		return nil, fmt.Errorf("deals: %w", err)
	}

	report := &Report{Target: target.Label()}

	// Each goroutine owns exactly one report field.
	g, gctx := errgroup.WithContext(ctx)
	step := func(method string, present bool, fn func() error) {
		if !present {
			metrics.RecordMethodology(method, metrics.OutcomeSkipped)
			return
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			log.Debug().Str("methodology", method).Msg("started")
			if err := fn(); err != nil {
				metrics.RecordMethodology(method, metrics.OutcomeFailed)
				return fmt.Errorf("%s: %w", method, err)
			}
			log.Debug().Str("methodology", method).Msg("finished")
			return nil
		})
	}

	step(valuation.MethodTradingComps, len(peers) > 0, func() error {
		res := valuation.CalculateComps(target, peers)
		report.Comps = &res
		report.CompsSensitivity = e.compsSensitivity(target, res, req.Comps)
		return nil
	})
	step(valuation.MethodPrecedents, len(deals) > 0, func() error {
		res := valuation.CalculateTransactions(target, deals)
		report.Precedents = &res
		return nil
	})
	step(valuation.MethodDCF, req.DCF != nil, func() error {
		res, err := e.dcf(target, *req.DCF)
		report.DCF = res
		return err
	})
	step(valuation.MethodLBO, req.LBO != nil, func() error {
		res, err := e.lbo(target, *req.LBO)
		report.LBO = res
		return err
	})
	step(valuation.MethodSOTP, req.SOTP != nil, func() error {
		res, err := SOTP(*req.SOTP)
		report.SOTP = res
		return err
	})
	step("Accretion/Dilution", req.Accretion != nil, func() error {
		report.Accretion = e.Accretion(*req.Accretion)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.assemble(report, target, log)
	if err := CheckResult(report); err != nil {
		return nil, err
	}
	return report, nil
}

// Comparables merges inline comparables with a stored set and validates them.
func (e *Engine) Comparables(ctx context.Context, inline []valuation.FinancialEntity, setName string, kind valuation.EntityKind) ([]valuation.FinancialEntity, error) {
	all := append([]valuation.FinancialEntity(nil), inline...)
	if setName != "" {
		if e.peers == nil {
			return nil, ErrNoPeerSource
		}
		stored, err := e.peers.Entities(ctx, setName)
		if err != nil {
			return nil, err
		}
		all = append(all, stored...)
	}
	return valuation.NewEntities(all, kind)
}

// assemble turns the methodology results into the football field, in a fixed display order.
func (e *Engine) assemble(r *Report, target valuation.FinancialEntity, log zerolog.Logger) {
	var methods []valuation.MethodologyRanges

	for _, rel := range []*valuation.RelativeValuationResult{r.Comps, r.Precedents} {
		if rel == nil {
			continue
		}
		if rel.Insufficient {
			r.Insufficient = append(r.Insufficient, rel.Methodology)
			metrics.RecordMethodology(rel.Methodology, metrics.OutcomeInsufficient)
			log.Warn().Str("methodology", rel.Methodology).Int("comparables", len(rel.Rows)).
				Msg("insufficient peer data, excluded from football field")
			continue
		}
		metrics.RecordMethodology(rel.Methodology, metrics.OutcomeOK)
		methods = append(methods, rel.MethodologyRanges())
	}

	if r.DCF != nil {
		metrics.RecordMethodology(valuation.MethodDCF, metrics.OutcomeOK)
		var grid *valuation.GridSummary
		if r.DCF.Sensitivity != nil {
			grid = &r.DCF.Sensitivity.Summary
			r.Sensitivity = append(r.Sensitivity, *r.DCF.Sensitivity)
		}
		methods = append(methods, r.DCF.Result.MethodologyRanges(grid, r.DCF.NetDebt))
	}

	if r.LBO != nil {
		metrics.RecordMethodology(valuation.MethodLBO, metrics.OutcomeOK)
		var grid *valuation.GridSummary
		if r.LBO.Sensitivity != nil {
			grid = &r.LBO.Sensitivity.Summary
			r.Sensitivity = append(r.Sensitivity, *r.LBO.Sensitivity)
		}
		methods = append(methods, r.LBO.Result.MethodologyRanges(grid, target.NetDebt))
	}

	if r.SOTP != nil {
		metrics.RecordMethodology(valuation.MethodSOTP, metrics.OutcomeOK)
		methods = append(methods, r.SOTP.MethodologyRanges())
	}

	if target.SharePrice > 0 && target.SharesOutstanding > 0 {
		methods = append(methods, valuation.CurrentMarketRanges(target.SharePrice, target.SharesOutstanding))
	}

	if r.CompsSensitivity != nil {
		r.Sensitivity = append(r.Sensitivity, *r.CompsSensitivity)
	}
	if r.Accretion != nil {
		metrics.RecordMethodology("Accretion/Dilution", metrics.OutcomeOK)
		r.Sensitivity = append(r.Sensitivity, r.Accretion.Sensitivity)
	}

	r.FootballField = valuation.BuildFootballField(methods)
	r.Summary = r.FootballField.SummaryTables()

	// The accretion grid is in percent, not currency; keep it out of the value span.
	var valueGrids []valuation.GridSummary
	for _, s := range r.Sensitivity {
		if s.Name != SensitivityAccretion {
			valueGrids = append(valueGrids, s.Summary)
		}
	}
	if len(valueGrids) > 0 {
		overall := valuation.OverallAcrossGrids(valueGrids)
		r.SensitivityOverall = &overall
	}
}

// =============================================================================
// METHODOLOGIES
// =============================================================================

func (e *Engine) dcf(target valuation.FinancialEntity, req DCFRequest) (*DCFReport, error) {
	in := req.DCFInput
	if in.SharesOutstanding == 0 {
		in.SharesOutstanding = target.SharesOutstanding
	}
	if in.NetDebt == 0 {
		in.NetDebt = target.NetDebt
	}

	out := &DCFReport{NetDebt: in.NetDebt}
	if len(in.FreeCashFlows) == 0 && req.Drivers != nil {
		p, err := projection.Project(*req.Drivers)
		if err != nil {
			return nil, err
		}
		out.Projection = p
		in.FreeCashFlows = p.FreeCashFlows()
		if in.TerminalEBITDA == 0 {
			in.TerminalEBITDA = p.TerminalEBITDA()
		}
	}
	if req.WACCInputs != nil {
		w := valuation.CalculateWACC(*req.WACCInputs)
		out.WACC = &w
		if in.WACC == 0 {
			in.WACC = w.WACC
		}
		if len(req.CapitalStructure) > 0 && len(in.PeriodWACCs) == 0 {
			in.PeriodWACCs = valuation.WACCSeries(*req.WACCInputs, req.CapitalStructure)
		}
	}
	out.PeriodWACCs = in.PeriodWACCs
	out.Result = valuation.CalculateDCF(in)

	if len(in.FreeCashFlows) == 0 {
		return out, nil
	}
	mode := req.Mode
	if mode == "" {
		mode = e.cfg.DCF.Mode
	}
	waccAxis := axisOr(req.WACCAxis, e.cfg.DCF.WACC.Around("WACC", out.Result.FinalWACC))
	growthAxis := axisOr(req.GrowthAxis, e.cfg.DCF.Growth.Around("Terminal Growth", in.TerminalGrowth))
	grid := valuation.DCFSensitivity(out.Result.SensitivityInput(waccAxis, growthAxis, mode))
	out.Sensitivity = newSensitivity(SensitivityDCF, grid)
	return out, nil
}

func (e *Engine) lbo(target valuation.FinancialEntity, req LBORequest) (*LBOReport, error) {
	in := req.LBOInput
	if in.TargetEBITDA == 0 {
		in.TargetEBITDA = target.EBITDA
	}
	out := &LBOReport{}
	if len(in.ProjectedEBITDA) == 0 && req.Drivers != nil {
		p, err := projection.Project(*req.Drivers)
		if err != nil {
			return nil, err
		}
		out.Projection = p
		in.ProjectedEBITDA = p.EBITDA()
		if len(in.ProjectedCapex) == 0 {
			in.ProjectedCapex = p.Capex()
		}
		if len(in.ProjectedChangeNWC) == 0 {
			in.ProjectedChangeNWC = p.ChangeNWC()
		}
		if in.TaxRate == 0 {
			in.TaxRate = req.Drivers.TaxRate
		}
	}
	out.Result = valuation.CalculateLBO(in)
	if in.TargetEBITDA <= 0 {
		return out, nil
	}

	tax := in.TaxRate
	if tax == 0 {
		tax = e.cfg.LBO.TaxRate
	}
	repay := req.DebtRepaymentPct
	if repay == 0 {
		repay = e.cfg.LBO.DebtRepaymentPct
	}
	grid := valuation.LBOSensitivity(valuation.LBOSensitivityInput{
		EBITDA:           in.TargetEBITDA,
		TaxRate:          tax,
		DebtRepaymentPct: repay,
		Leverage:         axisOr(req.LeverageAxis, e.cfg.LBO.Leverage.Around("Leverage (x EBITDA)", in.LeverageRatio)),
		ExitMultiple:     axisOr(req.ExitAxis, e.cfg.LBO.ExitMultiple.Around("Exit Multiple", in.ExitMultiple)),
	})
	out.Sensitivity = newSensitivity(SensitivityLBO, grid)
	return out, nil
}

// compsSensitivity centres the P/E x EV/EBITDA grid on the peer medians.
func (e *Engine) compsSensitivity(target valuation.FinancialEntity, res valuation.RelativeValuationResult, req *CompsSensitivityRequest) *Sensitivity {
	if req == nil {
		req = &CompsSensitivityRequest{}
	}
	pe, evx := res.Stats[valuation.PE], res.Stats[valuation.EVEBITDA]
	if (req.PEAxis == nil && pe.IsEmpty()) || (req.EVEBITDAAxis == nil && evx.IsEmpty()) || target.EBITDA <= 0 {
		return nil
	}
	grid := valuation.CompsSensitivity(valuation.CompsSensitivityInput{
		EBITDA:            target.EBITDA,
		EPS:               target.EPS,
		SharesOutstanding: target.SharesOutstanding,
		PE:                axisOr(req.PEAxis, e.cfg.Comps.PE.Around("P/E", pe.Median)),
		EVEBITDA:          axisOr(req.EVEBITDAAxis, e.cfg.Comps.EVEBITDA.Around("EV/EBITDA", evx.Median)),
	})
	return newSensitivity(SensitivityComps, grid)
}

// Accretion runs accretion / dilution with its premium x synergies grid. Axes default to the
// configured premiums and synergies.
func (e *Engine) Accretion(req AccretionRequest) *AccretionReport {
	premium := axisOr(req.PremiumAxis, valuation.Axis{Label: "Purchase Premium", Values: e.cfg.Accretion.Premiums, Base: req.PremiumPct})
	synergies := axisOr(req.SynergyAxis, valuation.Axis{Label: "Cost Synergies", Values: e.cfg.Accretion.CostSynergies, Base: req.CostSynergies})
	grid := valuation.AccretionSensitivity(req.AccretionInput, premium, synergies)
	return &AccretionReport{
		Result:      valuation.CalculateAccretion(req.AccretionInput),
		Sensitivity: *newSensitivity(SensitivityAccretion, grid),
	}
}

// DCFSensitivity builds a standalone WACC x growth grid. An empty mode uses the configured one.
func (e *Engine) DCFSensitivity(in valuation.DCFSensitivityInput) Sensitivity {
	if in.Mode == "" {
		in.Mode = e.cfg.DCF.Mode
	}
	return *newSensitivity(SensitivityDCF, valuation.DCFSensitivity(in))
}

// SOTP validates the segments and values the company.
func SOTP(req SOTPRequest) (*valuation.SOTPResult, error) {
	segments := make([]valuation.Segment, 0, len(req.Segments))
	for _, s := range req.Segments {
		seg, err := valuation.NewSegment(s)
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	res := valuation.CalculateSOTP(segments, req.Adjustments)
	return &res, nil
}

// axisOr returns the caller's axis when given, otherwise the default.
func axisOr(override *valuation.Axis, def valuation.Axis) valuation.Axis {
	if override == nil || len(override.Values) == 0 {
		return def
	}
	axis := *override
	if axis.Label == "" {
		axis.Label = def.Label
	}
	return axis
}

func newSensitivity(name string, grid valuation.Grid) *Sensitivity {
	return &Sensitivity{Name: name, Grid: grid, Summary: valuation.SummarizeGrid(grid)}
}
