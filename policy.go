package main

import (
	"sort"

	"go.uber.org/zap"
)

// bandPolicyDecision is the 5GHz state wanted by the policy, decided only when some history is full
type bandPolicyDecision struct {
	decided bool
	enable  bool
	station string // Station that tipped the decision to on
}

// evaluateBandPolicy inspects full RTT histories in MAC order.
// The first station whose mean reaches threshold wins and stops the scan.
func evaluateBandPolicy(stations map[string]*StationCounters, threshold float64) bandPolicyDecision {
	macs := make([]string, 0, len(stations))
	for mac := range stations {
		macs = append(macs, mac)
	}
	sort.Strings(macs)

	var d bandPolicyDecision
	for _, mac := range macs {
		history := stations[mac].RTTPredictions
		if !history.full() {
			continue
		}
		mean := history.mean()
		logger.Debug("Station RTT history",
			zap.String("mac", mac),
			zap.Float64("meanRTT", mean),
			zap.Float64("maxRTT", history.max()),
		)
		d.decided = true
		if mean >= threshold {
			d.enable = true
			d.station = mac
			break
		}
		d.enable = false
	}
	return d
}
