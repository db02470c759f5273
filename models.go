package main

import "time"

// --- Data Models / Struct Definitions ---

// BandStatus is the on/off state of one radio band
type BandStatus struct {
	Band   string `json:"band"`   // Band name (2.4GHz, 5GHz, 6GHz)
	Status bool   `json:"status"` // True when the radio is up
}

// WifiSummary is the global wifi state plus every band
type WifiSummary struct {
	Status bool         `json:"status"` // Global wifi state
	Bands  []BandStatus `json:"bands"`  // Per-band state in command table order
}

// StationList is the association list of one band, or of every band when Band is empty
type StationList struct {
	Band     string   `json:"band,omitempty"`
	Stations []string `json:"stations"`
}

// StationSnapshot is a read-only copy of one tracked station's counter record
type StationSnapshot struct {
	MAC               string    `json:"mac"`
	Band              string    `json:"band"`
	Idle              int64     `json:"idle"`
	TxPktsRetriesRate float64   `json:"tx_pkts_retries_rate"`
	TxMbps            []float64 `json:"tx_mbps"`
	RxMbps            []float64 `json:"rx_mbps"`
	SmoothRSSI        []float64 `json:"smooth_rssi"`
	RTTPredictions    []float64 `json:"rtt_predictions"`
	MeanRTT           float64   `json:"mean_rtt"`
	LastSample        time.Time `json:"last_sample"`
}

// SmartBandStatus is the state of the control loop
type SmartBandStatus struct {
	Active         bool `json:"active"`           // Cycles acquire and predict
	Band5GHzStatus bool `json:"band_5ghz_status"` // Last observed 5GHz state
	Stations       int  `json:"stations"`         // Tracked stations
}

// --- API Response Models ---

// Response is the standard envelope of every API response
type Response struct {
	Code   int         `json:"code"`            // HTTP status code
	Status string      `json:"status"`          // HTTP status text
	Data   interface{} `json:"data,omitempty"`  // Payload on success
	Error  string      `json:"error,omitempty"` // Message on failure
}
