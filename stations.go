package main

import (
	"context"

	"go.uber.org/zap"
)

// StationManager discovers stations associated to each band
type StationManager struct {
	dispatcher *Dispatcher
	delimiters map[string]string // Per-band record delimiter of the association list
}

// newStationManager creates a station manager; bands without a delimiter use the default one
func newStationManager(d *Dispatcher, delimiters map[string]string) *StationManager {
	return &StationManager{dispatcher: d, delimiters: delimiters}
}

func (m *StationManager) delimiter(band string) string {
	if d, ok := m.delimiters[band]; ok && d != "" {
		return d
	}
	return DefaultStationDelimiter
}

// ListAssociated returns the MACs associated to band, or to every band when band is empty
func (m *StationManager) ListAssociated(ctx context.Context, band string) ([]string, error) {
	if band == "" {
		all := make([]string, 0)
		for _, b := range allBands {
			macs, err := m.listBand(ctx, b)
			if err != nil {
				return nil, err
			}
			all = append(all, macs...)
		}
		return all, nil
	}
	if err := validateBand(band); err != nil {
		return nil, err
	}
	return m.listBand(ctx, band)
}

func (m *StationManager) listBand(ctx context.Context, band string) ([]string, error) {
	out, err := m.dispatcher.ExecuteText(ctx, []string{CmdKeyWifi, CmdKeyBands, band, CmdKeyStations}, "")
	if err != nil {
		return nil, err
	}
	return parseStationList(out, m.delimiter(band)), nil
}

// RefreshConnectedSet rebuilds the mac to band mapping of the tracked bands.
// A MAC reported on both bands is attributed to the later one.
func (m *StationManager) RefreshConnectedSet(ctx context.Context) (map[string]string, error) {
	connected := make(map[string]string)
	for _, band := range trackedBands {
		macs, err := m.listBand(ctx, band)
		if err != nil {
			return nil, err
		}
		for _, mac := range macs {
			connected[mac] = band
		}
	}
	logger.Debug("Connected stations refreshed", zap.Int("count", len(connected)))
	return connected, nil
}
