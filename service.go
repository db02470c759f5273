package main

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SmartBandService owns the counter model and runs one acquisition and prediction cycle per tick
type SmartBandService struct {
	cfg          SmartBandConfig
	controller   *Controller
	stations     *StationManager
	sampler      *counterSampler
	orchestrator *rttOrchestrator
	reporter     Reporter
	metrics      *metrics
	now          func() time.Time

	cycleMu sync.Mutex // One cycle at a time

	mu        sync.Mutex // Guards the fields below
	state     *counterState
	active    bool
	fiveGHzOn bool
}

// newSmartBandService wires the control loop components together
func newSmartBandService(
	cfg SmartBandConfig,
	controller *Controller,
	stations *StationManager,
	sampler *counterSampler,
	predictor Predictor,
	reporter Reporter,
	m *metrics,
) *SmartBandService {
	active := true
	if cfg.ServiceActive != nil {
		active = *cfg.ServiceActive
	}
	return &SmartBandService{
		cfg:          cfg,
		controller:   controller,
		stations:     stations,
		sampler:      sampler,
		orchestrator: newRTTOrchestrator(predictor, cfg.MinPredictedRTT, cfg.SamplesWindowLen),
		reporter:     reporter,
		metrics:      m,
		now:          time.Now,
		state: newCounterState(cfg.SamplesWindowLen, cfg.RTTHistoryLen,
			secondsToDuration(cfg.MaxLastSeenSecs)),
		active: active,
	}
}

// ServiceActive reports whether cycles currently acquire and predict
func (s *SmartBandService) ServiceActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// SetServiceActive switches the control loop on or off
func (s *SmartBandService) SetServiceActive(active bool) {
	s.mu.Lock()
	changed := s.active != active
	s.active = active
	s.mu.Unlock()
	if changed {
		logger.Info("Smart band service status changed", zap.Bool("active", active))
	}
}

// FiveGHzOn returns the last observed 5GHz status
func (s *SmartBandService) FiveGHzOn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fiveGHzOn
}

func (s *SmartBandService) setFiveGHz(on bool) {
	s.mu.Lock()
	s.fiveGHzOn = on
	s.mu.Unlock()
	s.metrics.setBand5GHz(on)
}

// Prepare runs the startup sequence: optionally enable every band, then read the 5GHz status.
// Failures are logged and the service starts anyway.
func (s *SmartBandService) Prepare(ctx context.Context) {
	if s.cfg.EnableAllBandsOnStart {
		for _, band := range allBands {
			if !s.controller.CanEnableBand(band) {
				logger.Info("No enable command for band, skipped", zap.String("band", band))
				continue
			}
			if _, err := s.controller.SetBandStatus(ctx, band, true); err != nil {
				logger.Error("Failed to enable band on start", zap.String("band", band), zap.Error(err))
			}
		}
	}
	on, err := s.controller.BandStatus(ctx, Band5GHz)
	if err != nil {
		logger.Error("Failed to read initial 5GHz status", zap.Error(err))
		return
	}
	s.setFiveGHz(on)
	logger.Info("Smart band service prepared", zap.Bool("band5GHz", on), zap.Bool("active", s.ServiceActive()))
}

// RunCycle executes one full tick. It never returns an error: every failure is logged and counted.
func (s *SmartBandService) RunCycle(ctx context.Context) {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	start := time.Now()
	cycleID := uuid.NewString()
	outcome := s.cycle(ctx, cycleID)
	s.metrics.observeCycle(outcome, time.Since(start))
	logger.Debug("Cycle finished",
		zap.String("cycleID", cycleID),
		zap.String("outcome", string(outcome)),
		zap.Duration("elapsed", time.Since(start)),
	)
}

func (s *SmartBandService) cycle(ctx context.Context, cycleID string) cycleOutcome {
	active := s.ServiceActive()
	_ = s.reporter.ReportServiceStatus(ctx, active)
	if !active {
		return outcomeInactive
	}

	if !s.acquire(ctx) {
		return outcomeAcquireFailed
	}

	if on, err := s.controller.BandStatus(ctx, Band5GHz); err != nil {
		logger.Warn("Failed to refresh 5GHz status, keeping last value", zap.Error(err))
	} else {
		s.setFiveGHz(on)
	}
	fiveGHzOn := s.FiveGHzOn()

	s.mu.Lock()
	report, outcome, err := s.orchestrator.run(s.state, fiveGHzOn)
	var decision bandPolicyDecision
	if report != nil && s.cfg.BandPolicyEnabled {
		decision = evaluateBandPolicy(s.state.stations, s.cfg.RTTThresholdFor5GHzOn)
	}
	s.mu.Unlock()

	if err != nil {
		logger.Error("Classification input rejected", zap.String("cycleID", cycleID), zap.Error(err))
		return outcome
	}
	if report == nil {
		return outcome
	}

	if decision.decided && decision.enable != fiveGHzOn {
		s.applyBandPolicy(ctx, decision)
	}

	report.CycleID = cycleID
	s.metrics.observePredictions(report)
	_ = s.reporter.ReportPredictions(ctx, report)
	return outcome
}

// acquire refreshes band counters, purges stale stations, then refreshes every connected station
func (s *SmartBandService) acquire(ctx context.Context) bool {
	samples, err := s.sampler.sampleBands(ctx)
	if err != nil {
		logger.Error("Failed to acquire band counters", zap.Error(err))
		return false
	}

	now := s.now()
	s.mu.Lock()
	res := s.state.applyBandSample(now, samples)
	purged := s.state.purgeStale(now)
	s.mu.Unlock()

	if res == bandReset {
		logger.Warn("Band counters gap too long, counter state reset",
			zap.Float64("maxLastSeenSecs", s.cfg.MaxLastSeenSecs))
	}
	for _, mac := range purged {
		logger.Info("Station purged", zap.String("mac", mac))
	}

	connected, err := s.stations.RefreshConnectedSet(ctx)
	if err != nil {
		logger.Warn("Failed to refresh connected stations", zap.Error(err))
		s.trackedStations()
		return true
	}

	macs := make([]string, 0, len(connected))
	for mac := range connected {
		macs = append(macs, mac)
	}
	sort.Strings(macs)
	for _, mac := range macs {
		band := connected[mac]
		values, err := s.sampler.sampleStation(ctx, mac, band)
		if err != nil {
			if errors.Is(err, ErrTransport) {
				logger.Warn("Station counters unavailable", zap.String("mac", mac), zap.Error(err))
			}
			continue
		}
		s.mu.Lock()
		r := s.state.applyStationSample(mac, band, s.now(), values)
		s.mu.Unlock()
		if r == stationDiscarded {
			logger.Debug("Station sample discarded", zap.String("mac", mac), zap.String("band", band))
		}
	}
	s.trackedStations()
	return true
}

func (s *SmartBandService) trackedStations() {
	s.mu.Lock()
	n := len(s.state.stations)
	s.mu.Unlock()
	s.metrics.setTrackedStations(n)
}

// applyBandPolicy switches 5GHz to the policy decision
func (s *SmartBandService) applyBandPolicy(ctx context.Context, d bandPolicyDecision) {
	logger.Info("Band policy switching 5GHz",
		zap.Bool("enable", d.enable),
		zap.String("station", d.station),
	)
	on, err := s.controller.SetBandStatus(ctx, Band5GHz, d.enable)
	if err != nil {
		logger.Error("Band policy failed to switch 5GHz", zap.Bool("enable", d.enable), zap.Error(err))
		return
	}
	s.setFiveGHz(on)
}

// StationCount returns the number of tracked stations
func (s *SmartBandService) StationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.stations)
}

// Stations returns a snapshot of every tracked station ordered by MAC
func (s *SmartBandService) Stations() []StationSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StationSnapshot, 0, len(s.state.stations))
	for _, rec := range s.state.stations {
		out = append(out, snapshotStation(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MAC < out[j].MAC })
	return out
}

// snapshotStation copies the exported view of a station record
func snapshotStation(rec *StationCounters) StationSnapshot {
	snap := StationSnapshot{
		MAC:               rec.MAC,
		Band:              rec.Band,
		Idle:              rec.Idle,
		TxPktsRetriesRate: rec.TxPktsRetriesRate,
		TxMbps:            rec.TxMbps.values(),
		RxMbps:            rec.RxMbps.values(),
		SmoothRSSI:        rec.SmoothRSSI.values(),
		RTTPredictions:    rec.RTTPredictions.values(),
		LastSample:        rec.LastSample,
	}
	if rec.RTTPredictions.len() > 0 {
		snap.MeanRTT = rec.RTTPredictions.mean()
	}
	return snap
}
