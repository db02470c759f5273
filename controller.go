package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Controller reads and toggles the global wifi and per-band radio state
type Controller struct {
	dispatcher   *Dispatcher
	cache        *statusCache
	pollInterval time.Duration // Delay between convergence reads
	timeout      time.Duration // Maximum convergence wait
}

// newController creates a controller with the standard convergence timings
func newController(d *Dispatcher, cache *statusCache) *Controller {
	if cache == nil {
		cache = newStatusCache(StatusCacheTimeout)
	}
	return &Controller{
		dispatcher:   d,
		cache:        cache,
		pollInterval: StatusPollInterval,
		timeout:      StatusChangeTimeout,
	}
}

// validateBand rejects bands outside the supported set
func validateBand(band string) error {
	for _, b := range allBands {
		if b == band {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownBand, band)
}

// statusFromOutput treats any output containing the up token as enabled
func statusFromOutput(out string) bool {
	return out != "" && strings.Contains(out, StatusUpToken)
}

// WifiStatus reads the global wifi state from the device
func (c *Controller) WifiStatus(ctx context.Context) (bool, error) {
	out, err := c.dispatcher.ExecuteText(ctx, []string{CmdKeyWifi, CmdKeyStatus}, "")
	if err != nil {
		return false, err
	}
	enabled := statusFromOutput(out)
	c.cache.set(statusCacheKeyWifi, enabled)
	return enabled, nil
}

// BandStatus reads the state of one band from the device
func (c *Controller) BandStatus(ctx context.Context, band string) (bool, error) {
	if err := validateBand(band); err != nil {
		return false, err
	}
	out, err := c.dispatcher.ExecuteText(ctx, []string{CmdKeyWifi, CmdKeyBands, band, CmdKeyStatus}, "")
	if err != nil {
		return false, err
	}
	enabled := statusFromOutput(out)
	c.cache.set(band, enabled)
	return enabled, nil
}

// CachedWifiStatus serves the global state from cache when fresh
func (c *Controller) CachedWifiStatus(ctx context.Context) (bool, error) {
	if v, ok := c.cache.get(statusCacheKeyWifi); ok {
		return v, nil
	}
	return c.WifiStatus(ctx)
}

// CachedBandStatus serves a band state from cache when fresh
func (c *Controller) CachedBandStatus(ctx context.Context, band string) (bool, error) {
	if err := validateBand(band); err != nil {
		return false, err
	}
	if v, ok := c.cache.get(band); ok {
		return v, nil
	}
	return c.BandStatus(ctx, band)
}

// SetWifiStatus switches wifi globally and waits for the device to converge
func (c *Controller) SetWifiStatus(ctx context.Context, desired bool) (bool, error) {
	c.cache.clear(statusCacheKeyWifi)
	return c.converge(ctx, "wifi",
		c.WifiStatus,
		[]string{CmdKeyWifi, strconv.FormatBool(desired)},
		desired,
	)
}

// SetBandStatus switches one band and waits for the device to converge
func (c *Controller) SetBandStatus(ctx context.Context, band string, desired bool) (bool, error) {
	if err := validateBand(band); err != nil {
		return false, err
	}
	c.cache.clear(band)
	return c.converge(ctx, band,
		func(ctx context.Context) (bool, error) { return c.BandStatus(ctx, band) },
		[]string{CmdKeyWifi, CmdKeyBands, band, strconv.FormatBool(desired)},
		desired,
	)
}

// CanEnableBand reports whether the command table defines how to turn band on
func (c *Controller) CanEnableBand(band string) bool {
	return c.dispatcher.Has([]string{CmdKeyWifi, CmdKeyBands, band, strconv.FormatBool(true)})
}

// converge issues toggle only when the current state differs from desired,
// then polls read until it matches or the timeout elapses
func (c *Controller) converge(
	ctx context.Context,
	target string,
	read func(context.Context) (bool, error),
	toggle []string,
	desired bool,
) (bool, error) {
	current, err := read(ctx)
	if err != nil {
		return false, err
	}
	if current == desired {
		return current, nil
	}

	start := time.Now()
	if _, err := c.dispatcher.Execute(ctx, toggle, ""); err != nil {
		return current, err
	}

	deadline := time.NewTimer(c.timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		current, err = read(ctx)
		if err != nil {
			return false, err
		}
		if current == desired {
			logger.Info("WiFi status changed",
				zap.String("target", target),
				zap.Bool("enabled", desired),
				zap.Duration("elapsed", time.Since(start)),
			)
			return current, nil
		}

		select {
		case <-ctx.Done():
			return current, ctx.Err()
		case <-deadline.C:
			logger.Error("WiFi status change is taking too long, verify wifi status",
				zap.String("target", target),
				zap.Bool("desired", desired),
			)
			return current, fmt.Errorf("%w: %s did not reach %t within %s",
				ErrStatusChangeTimeout, target, desired, c.timeout)
		case <-ticker.C:
		}
	}
}

// Summary reads the global state and every band
func (c *Controller) Summary(ctx context.Context) (WifiSummary, error) {
	status, err := c.WifiStatus(ctx)
	if err != nil {
		return WifiSummary{}, err
	}
	summary := WifiSummary{Status: status, Bands: make([]BandStatus, 0, len(allBands))}
	for _, band := range allBands {
		enabled, err := c.BandStatus(ctx, band)
		if err != nil {
			return WifiSummary{}, err
		}
		summary.Bands = append(summary.Bands, BandStatus{Band: band, Status: enabled})
	}
	return summary, nil
}
