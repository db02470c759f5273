package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Band pps fields derived from the band counters dump
var bandRateFields = []string{FieldRxRetry, FieldTxFail, FieldTxRetrans, FieldTxError, FieldRxCRC}

// Station pps fields derived from the station info dump
var stationRateFields = []string{
	FieldTxRetried, FieldRxRetried, FieldTxRetries, FieldRxDecrypt,
	FieldTxFailures, FieldTxPkts, FieldRxPkts,
}

// bandRefreshResult is the outcome of applying one band counters sample
type bandRefreshResult int

const (
	bandBaseline  bandRefreshResult = iota // First sample, nothing derived
	bandReset                              // Gap too long, state rebuilt from this sample
	bandDerived                            // Rates computed and pushed
	bandDiscarded                          // Non-positive elapsed time, sample ignored
)

func (r bandRefreshResult) String() string {
	switch r {
	case bandBaseline:
		return "baseline"
	case bandReset:
		return "reset"
	case bandDerived:
		return "derived"
	default:
		return "discarded"
	}
}

// stationRefreshResult is the outcome of applying one station counters sample
type stationRefreshResult int

const (
	stationBaseline  stationRefreshResult = iota // New station or band change
	stationDerived                               // Rates computed and pushed
	stationDiscarded                             // Integrity guard rejected the sample
)

// BandCounters holds the baseline, latest rates and throughput windows of one radio band
type BandCounters struct {
	Band   string
	raw    map[string]int64   // Last observed raw counters
	pps    map[string]float64 // Latest per-second rates, nil until the second sample
	TxMbps *window
	RxMbps *window
}

// StationCounters holds the baseline, latest rates and windows of one associated station
type StationCounters struct {
	MAC               string
	Band              string
	raw               map[string]int64
	pps               map[string]float64
	Idle              int64
	TxPktsRetriesRate float64
	TxMbps            *window
	RxMbps            *window
	SmoothRSSI        *window
	RTTPredictions    *window
	LastSample        time.Time
}

// counterState is the mutable counter model. It performs no I/O and is guarded by its owner.
type counterState struct {
	windowLen   int
	historyLen  int
	maxLastSeen time.Duration

	bands          map[string]*BandCounters
	lastBandSample time.Time
	stations       map[string]*StationCounters
}

// newCounterState creates an empty counter model
func newCounterState(windowLen, historyLen int, maxLastSeen time.Duration) *counterState {
	return &counterState{
		windowLen:   windowLen,
		historyLen:  historyLen,
		maxLastSeen: maxLastSeen,
		bands:       make(map[string]*BandCounters),
		stations:    make(map[string]*StationCounters),
	}
}

// cyclicDelta returns cur-prev corrected for a single wrap of a 32-bit counter
func cyclicDelta(cur, prev int64) int64 {
	d := cur - prev
	if d < 0 {
		d = cur + (CounterModulus - prev)
	}
	return d
}

// toMbps converts a byte delta over dt seconds to megabits per second
func toMbps(deltaBytes int64, dt float64) float64 {
	return float64(deltaBytes) * BitsPerByte / BitsPerMegabit / dt
}

// reset discards every band and station record
func (s *counterState) reset() {
	s.bands = make(map[string]*BandCounters)
	s.stations = make(map[string]*StationCounters)
	s.lastBandSample = time.Time{}
}

// baselineBands starts fresh band records from samples
func (s *counterState) baselineBands(now time.Time, samples map[string]map[string]int64) {
	for _, band := range trackedBands {
		s.bands[band] = &BandCounters{
			Band:   band,
			raw:    samples[band],
			TxMbps: newWindow(s.windowLen),
			RxMbps: newWindow(s.windowLen),
		}
	}
	s.lastBandSample = now
}

// applyBandSample folds one sample of every tracked band into the model
func (s *counterState) applyBandSample(now time.Time, samples map[string]map[string]int64) bandRefreshResult {
	if s.lastBandSample.IsZero() || len(s.bands) == 0 {
		s.baselineBands(now, samples)
		return bandBaseline
	}

	elapsed := now.Sub(s.lastBandSample)
	if elapsed > s.maxLastSeen {
		s.reset()
		s.baselineBands(now, samples)
		return bandReset
	}
	dt := elapsed.Seconds()
	if dt <= 0 {
		return bandDiscarded
	}

	for _, band := range trackedBands {
		bc := s.bands[band]
		cur := samples[band]
		pps := make(map[string]float64, len(bandRateFields))
		for _, f := range bandRateFields {
			pps[f] = float64(cyclicDelta(cur[f], bc.raw[f])) / dt
		}
		bc.TxMbps.push(toMbps(cyclicDelta(cur[FieldTxBytes], bc.raw[FieldTxBytes]), dt))
		bc.RxMbps.push(toMbps(cyclicDelta(cur[FieldRxBytes], bc.raw[FieldRxBytes]), dt))
		bc.pps = pps
		bc.raw = cur
	}
	s.lastBandSample = now
	return bandDerived
}

// applyStationSample folds one station sample into its record
func (s *counterState) applyStationSample(mac, band string, now time.Time, cur map[string]int64) stationRefreshResult {
	rec, ok := s.stations[mac]
	if !ok {
		s.stations[mac] = &StationCounters{
			MAC:            mac,
			Band:           band,
			raw:            cur,
			Idle:           cur[FieldIdle],
			TxMbps:         newWindow(s.windowLen),
			RxMbps:         newWindow(s.windowLen),
			SmoothRSSI:     newWindow(s.windowLen),
			RTTPredictions: newWindow(s.historyLen),
			LastSample:     now,
		}
		return stationBaseline
	}
	if rec.Band != band {
		// Band change restarts the record from this sample
		for _, w := range []*window{rec.TxMbps, rec.RxMbps, rec.SmoothRSSI, rec.RTTPredictions} {
			w.reset()
		}
		rec.Band, rec.raw, rec.pps = band, cur, nil
		rec.Idle, rec.TxPktsRetriesRate, rec.LastSample = cur[FieldIdle], 0, now
		return stationBaseline
	}

	dt := now.Sub(rec.LastSample).Seconds()
	if dt <= 0 {
		return stationDiscarded
	}
	txMbps := toMbps(cur[FieldTxBytes]-rec.raw[FieldTxBytes], dt)
	rxMbps := toMbps(cur[FieldRxBytes]-rec.raw[FieldRxBytes], dt)
	if txMbps < 0 || rxMbps < 0 {
		return stationDiscarded
	}

	pps := make(map[string]float64, len(stationRateFields))
	for _, f := range stationRateFields {
		pps[f] = float64(cur[f]-rec.raw[f]) / dt
	}
	rec.TxPktsRetriesRate = 0
	if pps[FieldTxPkts] != 0 {
		rec.TxPktsRetriesRate = 100 * pps[FieldTxRetries] / pps[FieldTxPkts]
	}
	rec.pps = pps
	rec.raw = cur
	rec.Idle = cur[FieldIdle]
	rec.LastSample = now
	rec.TxMbps.push(txMbps)
	rec.RxMbps.push(rxMbps)
	rec.SmoothRSSI.push(float64(cur[FieldSmoothRSSI]))
	return stationDerived
}

// purgeStale drops stations unseen for longer than maxLastSeen and returns their MACs
func (s *counterState) purgeStale(now time.Time) []string {
	var purged []string
	for mac, rec := range s.stations {
		if now.Sub(rec.LastSample) > s.maxLastSeen {
			delete(s.stations, mac)
			purged = append(purged, mac)
		}
	}
	return purged
}

// bandWindowsReady reports whether every tracked band window holds windowLen samples
func (s *counterState) bandWindowsReady() bool {
	if len(s.bands) < len(trackedBands) {
		return false
	}
	for _, band := range trackedBands {
		bc := s.bands[band]
		if bc == nil || bc.TxMbps.len() < s.windowLen || bc.RxMbps.len() < s.windowLen {
			return false
		}
	}
	return true
}

// --- Sampling ---

// counterSampler fetches and extracts raw counters from the device
type counterSampler struct {
	dispatcher *Dispatcher
	band       *fieldExtractor
	station    *fieldExtractor
}

// newCounterSampler compiles the extraction rules for bands and stations
func newCounterSampler(d *Dispatcher, cfg ExtractionConfig) (*counterSampler, error) {
	band, err := newFieldExtractor(defaultBandFieldRules, cfg.BandFields)
	if err != nil {
		return nil, err
	}
	station, err := newFieldExtractor(defaultStationFieldRules, cfg.StationFields)
	if err != nil {
		return nil, err
	}
	return &counterSampler{dispatcher: d, band: band, station: station}, nil
}

// sampleBands reads raw counters of every tracked band
func (c *counterSampler) sampleBands(ctx context.Context) (map[string]map[string]int64, error) {
	samples := make(map[string]map[string]int64, len(trackedBands))
	for _, band := range trackedBands {
		out, err := c.dispatcher.ExecuteText(ctx, []string{CmdKeyWifi, CmdKeyCounters, band}, "")
		if err != nil {
			return nil, err
		}
		values, err := c.band.extract(out)
		if err != nil {
			return nil, fmt.Errorf("band %s: %w", band, err)
		}
		samples[band] = values
	}
	return samples, nil
}

// sampleStation reads raw counters of one station on band
func (c *counterSampler) sampleStation(ctx context.Context, mac, band string) (map[string]int64, error) {
	out, err := c.dispatcher.ExecuteText(ctx, []string{CmdKeyWifi, CmdKeyCounters, CmdKeyStationInfo, band}, mac)
	if err != nil {
		return nil, err
	}
	values, err := c.station.extract(out)
	if err != nil {
		logger.Debug("Station counters extraction failed", zap.String("mac", mac), zap.Error(err))
		return nil, fmt.Errorf("station %s: %w", mac, err)
	}
	return values, nil
}
