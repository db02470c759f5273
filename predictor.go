package main

import (
	"fmt"
	"math"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// predictorFeatures is the number of inputs of the RTT scoring function
const predictorFeatures = 4

// Predictor scores the RTT of a station in milliseconds from band and station throughput
type Predictor interface {
	Predict(bandTx, bandRx, stationTx, stationRx float64) float64
}

// linearModelFile is the on-disk form of a standardised linear RTT model
type linearModelFile struct {
	FeatureMean  []float64 `yaml:"feature_mean"`
	FeatureScale []float64 `yaml:"feature_scale"`
	Coefficients []float64 `yaml:"coefficients"`
	Intercept    float64   `yaml:"intercept"`
}

// linearPredictor standardises each feature then applies a linear model, floor-clamped at minRTT
type linearPredictor struct {
	mean   [predictorFeatures]float64
	scale  [predictorFeatures]float64
	coef   [predictorFeatures]float64
	bias   float64
	minRTT float64
}

// loadPredictor reads a YAML linear model; any defect is ErrPredictorLoad
func loadPredictor(path string, minRTT float64) (*linearPredictor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPredictorLoad, err)
	}
	var f linearModelFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrPredictorLoad, path, err)
	}
	if len(f.FeatureMean) != predictorFeatures || len(f.FeatureScale) != predictorFeatures ||
		len(f.Coefficients) != predictorFeatures {
		return nil, fmt.Errorf("%w: %s must define %d means, scales and coefficients",
			ErrPredictorLoad, path, predictorFeatures)
	}

	p := &linearPredictor{bias: f.Intercept, minRTT: minRTT}
	for i := 0; i < predictorFeatures; i++ {
		if f.FeatureScale[i] == 0 || math.IsNaN(f.FeatureScale[i]) {
			return nil, fmt.Errorf("%w: feature_scale[%d] must be non-zero", ErrPredictorLoad, i)
		}
		p.mean[i] = f.FeatureMean[i]
		p.scale[i] = f.FeatureScale[i]
		p.coef[i] = f.Coefficients[i]
	}
	logger.Info("RTT model loaded", zap.String("path", path), zap.Float64("minRTT", minRTT))
	return p, nil
}

// Predict returns the clamped RTT estimate
func (p *linearPredictor) Predict(bandTx, bandRx, stationTx, stationRx float64) float64 {
	features := [predictorFeatures]float64{bandTx, bandRx, stationTx, stationRx}
	rtt := p.bias
	for i, x := range features {
		rtt += p.coef[i] * (x - p.mean[i]) / p.scale[i]
	}
	if math.IsNaN(rtt) || rtt < p.minRTT {
		return p.minRTT
	}
	return rtt
}
