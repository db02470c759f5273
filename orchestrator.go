package main

import (
	"fmt"
	"math"
	"sort"
)

// Prediction sources, also used as metric labels
const (
	SourceWarmup     = "warmup"
	SourceHighRate   = "high_rate_heuristic"
	SourceLowTraffic = "low_traffic"
	SourceModel      = "model"
)

// cycleOutcome classifies how a prediction pass ended
type cycleOutcome string

const (
	outcomeInactive      cycleOutcome = "inactive"
	outcomeWarmingUp     cycleOutcome = "insufficient_samples"
	outcomeIdle          cycleOutcome = "low_traffic_5ghz_off"
	outcomeReported      cycleOutcome = "reported"
	outcomeInvalidInput  cycleOutcome = "invalid_input"
	outcomeAcquireFailed cycleOutcome = "acquire_failed"
)

// StationPrediction is the RTT assigned to one station in a cycle
type StationPrediction struct {
	MAC         string  `json:"mac"`
	RTT         float64 `json:"rtt"`
	TrafficMbps float64 `json:"traffic_Mbps"`
	Source      string  `json:"-"`
}

// PredictionReport is everything a cycle sends to the cloud collector
type PredictionReport struct {
	CycleID         string              `json:"cycle_id"`
	BoxTrafficMbps  float64             `json:"livebox_traffic"`
	Traffic2GHzMbps float64             `json:"traffic_2GHz"`
	Traffic5GHzMbps float64             `json:"traffic_5GHz"`
	Band5GHzStatus  bool                `json:"band_5ghz_status"`
	Stations        []StationPrediction `json:"stations_counters"`
}

// rttOrchestrator decides per station whether to call the predictor or a fallback
type rttOrchestrator struct {
	predictor Predictor
	minRTT    float64
	windowLen int
}

// newRTTOrchestrator creates an orchestrator for windows of windowLen samples
func newRTTOrchestrator(p Predictor, minRTT float64, windowLen int) *rttOrchestrator {
	return &rttOrchestrator{predictor: p, minRTT: minRTT, windowLen: windowLen}
}

// validateBandInputs checks the band counters reaching classification are well formed
func (o *rttOrchestrator) validateBandInputs(state *counterState) error {
	for _, band := range trackedBands {
		bc := state.bands[band]
		if bc == nil {
			return fmt.Errorf("%w: band %s has no counters", ErrInvalidClassificationInput, band)
		}
		if bc.TxMbps.len() != o.windowLen || bc.RxMbps.len() != o.windowLen {
			return fmt.Errorf("%w: band %s windows have %d/%d samples, want %d",
				ErrInvalidClassificationInput, band, bc.TxMbps.len(), bc.RxMbps.len(), o.windowLen)
		}
		for _, f := range bandRateFields {
			if _, ok := bc.pps[f]; !ok {
				return fmt.Errorf("%w: band %s has no %s rate", ErrInvalidClassificationInput, band, f)
			}
		}
	}
	return nil
}

// run scores every tracked station from the current counter state.
// It mutates station RTT histories and must be called with the state owner's lock held.
// A nil report means nothing is to be sent this cycle.
func (o *rttOrchestrator) run(state *counterState, fiveGHzOn bool) (*PredictionReport, cycleOutcome, error) {
	if !state.bandWindowsReady() {
		return nil, outcomeWarmingUp, nil
	}
	if err := o.validateBandInputs(state); err != nil {
		return nil, outcomeInvalidInput, err
	}

	b24, b5 := state.bands[Band2_4GHz], state.bands[Band5GHz]
	tx24, _ := b24.TxMbps.last()
	rx24, _ := b24.RxMbps.last()
	tx5, _ := b5.TxMbps.last()
	rx5, _ := b5.RxMbps.last()
	totalTx := tx24 + tx5
	totalRx := rx24 + rx5
	total := totalTx + totalRx

	// Near-silent box with 5GHz off: nothing worth reporting.
	// With 5GHz on the stations are still scored below.
	if total < LowTrafficMbps && !fiveGHzOn {
		return nil, outcomeIdle, nil
	}
	performPrediction := true
	if total > HighTrafficMbps {
		performPrediction = false
	}

	report := &PredictionReport{
		BoxTrafficMbps:  total,
		Traffic2GHzMbps: tx24 + rx24,
		Traffic5GHzMbps: tx5 + rx5,
		Band5GHzStatus:  fiveGHzOn,
		Stations:        make([]StationPrediction, 0, len(state.stations)),
	}

	// Sorted so the shared performPrediction flag evolves deterministically
	macs := make([]string, 0, len(state.stations))
	for mac := range state.stations {
		macs = append(macs, mac)
	}
	sort.Strings(macs)

	for _, mac := range macs {
		rec := state.stations[mac]
		if !rec.TxMbps.full() || !rec.RxMbps.full() {
			report.Stations = append(report.Stations, StationPrediction{
				MAC: mac, RTT: o.minRTT, TrafficMbps: 0, Source: SourceWarmup,
			})
			continue
		}

		stTx, _ := rec.TxMbps.last()
		stRx, _ := rec.RxMbps.last()
		traffic := stTx + stRx
		highRate := false
		if traffic > HighTrafficMbps {
			// Cycle-wide flag, later stations see it cleared too
			performPrediction = false
			highRate = true
		}

		// A high-rate station on a throttled cycle gets the fixed heuristic,
		// an idle station the floor, everyone else the model
		var rtt float64
		var source string
		switch {
		case highRate && !performPrediction:
			rtt, source = HighRateHeuristicRTT, SourceHighRate
		case traffic < LowTrafficMbps:
			rtt, source = o.minRTT, SourceLowTraffic
		default:
			rtt, source = math.Max(o.predictor.Predict(totalTx, totalRx, stTx, stRx), o.minRTT), SourceModel
		}

		rec.RTTPredictions.push(rtt)
		report.Stations = append(report.Stations, StationPrediction{
			MAC: mac, RTT: rtt, TrafficMbps: traffic, Source: source,
		})
	}
	return report, outcomeReported, nil
}
