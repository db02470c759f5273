package main

import (
	"fmt"
	"net"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Band counter field names
const (
	FieldTxBytes    = "tx_bytes"
	FieldRxBytes    = "rx_bytes"
	FieldRxRetry    = "rx_retry"
	FieldTxFail     = "tx_fail"
	FieldTxRetrans  = "tx_retrans"
	FieldTxError    = "tx_error"
	FieldRxCRC      = "rx_crc"
	FieldSmoothRSSI = "smooth_rssi"
	FieldTxRetried  = "tx_retried"
	FieldRxRetried  = "rx_retried"
	FieldTxRetries  = "tx_retries"
	FieldRxDecrypt  = "rx_decrypt"
	FieldTxFailures = "tx_failures"
	FieldTxPkts     = "tx_pkts"
	FieldRxPkts     = "rx_pkts"
	FieldIdle       = "idle"
)

// defaultBandFieldRules match the radio driver counters dump
var defaultBandFieldRules = map[string]string{
	FieldTxBytes:   `txbyte\s+(\d+)`,
	FieldRxBytes:   `rxbyte\s+(\d+)`,
	FieldRxRetry:   `rxrtry\s+(\d+)`,
	FieldTxFail:    `txfail\s+(\d+)`,
	FieldTxRetrans: `txretrans\s+(\d+)`,
	FieldTxError:   `txerror\s+(\d+)`,
	FieldRxCRC:     `rxcrc\s+(\d+)`,
}

// defaultStationFieldRules match the per-station info dump
var defaultStationFieldRules = map[string]string{
	FieldTxBytes:    `tx total bytes:\s*(\d+)`,
	FieldRxBytes:    `rx data bytes:\s*(\d+)`,
	FieldSmoothRSSI: `smoothed rssi:\s*(-?\d+)`,
	FieldTxRetried:  `tx pkts retries:\s*(\d+)`,
	FieldRxRetried:  `rx total pkts retried:\s*(\d+)`,
	FieldTxRetries:  `tx pkts retries:\s*(\d+)`,
	FieldRxDecrypt:  `rx decrypt succeeds:\s*(\d+)`,
	FieldTxFailures: `tx failures:\s*(\d+)`,
	FieldTxPkts:     `tx total pkts:\s*(\d+)`,
	FieldRxPkts:     `rx data pkts:\s*(\d+)`,
	FieldIdle:       `idle\s+(\d+)`,
}

// fieldExtractor pulls named integer fields out of command output with one regexp per field
type fieldExtractor struct {
	rules map[string]*regexp.Regexp
	names []string // Sorted field names for deterministic error reporting
}

// newFieldExtractor compiles defaults merged with overrides.
// Every rule must carry exactly one capture group holding the integer.
func newFieldExtractor(defaults, overrides map[string]string) (*fieldExtractor, error) {
	merged := make(map[string]string, len(defaults))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}

	e := &fieldExtractor{rules: make(map[string]*regexp.Regexp, len(merged))}
	for name, expr := range merged {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("%w: extraction rule %s: %v", ErrConfig, name, err)
		}
		if re.NumSubexp() != 1 {
			return nil, fmt.Errorf("%w: extraction rule %s needs one capture group", ErrConfig, name)
		}
		e.rules[name] = re
		e.names = append(e.names, name)
	}
	sort.Strings(e.names)
	return e, nil
}

// extract returns every declared field, failing on the first one missing from text
func (e *fieldExtractor) extract(text string) (map[string]int64, error) {
	values := make(map[string]int64, len(e.rules))
	for _, name := range e.names {
		m := e.rules[name].FindStringSubmatch(text)
		if m == nil {
			return nil, fmt.Errorf("%w: field %s not found", ErrCounterExtraction, name)
		}
		v, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: field %s: %v", ErrCounterExtraction, name, err)
		}
		values[name] = v
	}
	return values, nil
}

// parseStationList splits association list output on delimiter and returns
// the MAC of each record in upper-case colon form. Records without a valid MAC are skipped.
func parseStationList(output, delimiter string) []string {
	if delimiter == "" {
		delimiter = DefaultStationDelimiter
	}
	macs := make([]string, 0)
	seen := make(map[string]struct{})
	for _, record := range strings.Split(output, delimiter) {
		for _, field := range strings.Fields(record) {
			hw, err := net.ParseMAC(field)
			if err != nil || len(hw) != 6 {
				continue
			}
			mac := strings.ToUpper(hw.String())
			if _, dup := seen[mac]; !dup {
				seen[mac] = struct{}{}
				macs = append(macs, mac)
			}
			break
		}
	}
	return macs
}
