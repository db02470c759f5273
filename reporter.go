package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Reporter delivers cycle results to the cloud collector
type Reporter interface {
	ReportPredictions(ctx context.Context, report *PredictionReport) error
	ReportServiceStatus(ctx context.Context, active bool) error
	Close() error
}

// statusMessage is the broker payload of a service status notification
type statusMessage struct {
	Status    bool      `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// formBool renders a bool the way the collector's form parser expects it
func formBool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}

// formFloat renders a float without exponent or trailing zeros
func formFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// predictionForm encodes a report as the collector's form fields
func predictionForm(report *PredictionReport) (url.Values, error) {
	stations := report.Stations
	if stations == nil {
		stations = []StationPrediction{}
	}
	counters, err := json.Marshal(stations)
	if err != nil {
		return nil, err
	}
	band5 := "0"
	if report.Band5GHzStatus {
		band5 = "1"
	}
	form := url.Values{}
	form.Set(FormKeyBoxTraffic, formFloat(report.BoxTrafficMbps))
	form.Set(FormKeyTraffic5GHz, formFloat(report.Traffic5GHzMbps))
	form.Set(FormKeyTraffic2GHz, formFloat(report.Traffic2GHzMbps))
	form.Set(FormKeyBand5GHzStatus, band5)
	form.Set(FormKeyStationCounters, string(counters))
	return form, nil
}

// --- HTTP ---

// httpReporter posts form-encoded payloads to the collector
type httpReporter struct {
	predictionsURL string
	statusURL      string
	client         *http.Client
}

// collectorURL builds http://ip:port/path
func collectorURL(ip string, port int, path string) string {
	u := url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(ip, strconv.Itoa(port)),
		Path:   "/" + strings.TrimPrefix(path, "/"),
	}
	return u.String()
}

// newHTTPReporter creates a collector client from cfg
func newHTTPReporter(cfg HTTPReporterConfig) *httpReporter {
	timeout := secondsToDuration(cfg.TimeoutSecs)
	return &httpReporter{
		predictionsURL: collectorURL(cfg.IP, cfg.Port, cfg.PredictionsPath),
		statusURL:      collectorURL(cfg.IP, cfg.Port, cfg.ServiceStatusPath),
		client:         &http.Client{Timeout: timeout},
	}
}

func (h *httpReporter) post(ctx context.Context, endpoint string, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("collector %s returned %d", endpoint, resp.StatusCode)
	}
	return nil
}

func (h *httpReporter) ReportPredictions(ctx context.Context, report *PredictionReport) error {
	form, err := predictionForm(report)
	if err != nil {
		return err
	}
	return h.post(ctx, h.predictionsURL, form)
}

func (h *httpReporter) ReportServiceStatus(ctx context.Context, active bool) error {
	form := url.Values{}
	form.Set(FormKeyServiceStatus, formBool(active))
	return h.post(ctx, h.statusURL, form)
}

func (h *httpReporter) Close() error {
	h.client.CloseIdleConnections()
	return nil
}

// --- NATS ---

// natsPublisher is the part of *nats.Conn the reporter needs
type natsPublisher interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// natsReporter publishes JSON payloads on NATS subjects
type natsReporter struct {
	conn               natsPublisher
	predictionsSubject string
	statusSubject      string
}

// newNATSReporter connects to the NATS server in cfg
func newNATSReporter(cfg NATSReporterConfig) (*natsReporter, error) {
	opts := []nats.Option{
		nats.Name("smartband-relay"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}
	if cfg.Username != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}
	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS %s: %w", cfg.URL, err)
	}
	return &natsReporter{conn: nc, predictionsSubject: cfg.PredictionsSubject, statusSubject: cfg.StatusSubject}, nil
}

func (n *natsReporter) ReportPredictions(_ context.Context, report *PredictionReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return n.conn.Publish(n.predictionsSubject, data)
}

func (n *natsReporter) ReportServiceStatus(_ context.Context, active bool) error {
	data, err := json.Marshal(statusMessage{Status: active, Timestamp: time.Now().UTC()})
	if err != nil {
		return err
	}
	return n.conn.Publish(n.statusSubject, data)
}

func (n *natsReporter) Close() error {
	return n.conn.Drain()
}

// --- MQTT ---

// mqttReporter publishes JSON payloads on MQTT topics
type mqttReporter struct {
	client           mqtt.Client
	qos              byte
	predictionsTopic string
	statusTopic      string
	publishTimeout   time.Duration
}

// newMQTTReporter connects to the MQTT broker in cfg
func newMQTTReporter(cfg MQTTReporterConfig) (*mqttReporter, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		logger.Info("MQTT client connected", zap.String("broker", cfg.BrokerURL))
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("MQTT connection lost", zap.Error(err))
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connect to MQTT %s: timeout", cfg.BrokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to MQTT %s: %w", cfg.BrokerURL, err)
	}
	return &mqttReporter{
		client:           client,
		qos:              cfg.QoS,
		predictionsTopic: cfg.PredictionsTopic,
		statusTopic:      cfg.StatusTopic,
		publishTimeout:   DefaultReporterTimeout,
	}, nil
}

func (m *mqttReporter) publish(topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	token := m.client.Publish(topic, m.qos, false, data)
	if !token.WaitTimeout(m.publishTimeout) {
		return fmt.Errorf("publish to %s: timeout", topic)
	}
	return token.Error()
}

func (m *mqttReporter) ReportPredictions(_ context.Context, report *PredictionReport) error {
	return m.publish(m.predictionsTopic, report)
}

func (m *mqttReporter) ReportServiceStatus(_ context.Context, active bool) error {
	return m.publish(m.statusTopic, statusMessage{Status: active, Timestamp: time.Now().UTC()})
}

func (m *mqttReporter) Close() error {
	m.client.Disconnect(250)
	return nil
}

// --- Fan-out ---

// namedReporter labels a sink for logs and metrics
type namedReporter struct {
	name string
	Reporter
}

// multiReporter sends to every configured sink. Delivery is best effort:
// a failing sink is logged and counted, the others still receive the payload.
type multiReporter struct {
	sinks   []namedReporter
	metrics *metrics
}

// newReporter connects every enabled sink in cfg.
// A broker that cannot be reached is logged and left out.
func newReporter(cfg ReporterConfig, m *metrics) *multiReporter {
	r := &multiReporter{metrics: m}
	if cfg.HTTP.Enabled {
		r.add("http", newHTTPReporter(cfg.HTTP))
	}
	if cfg.NATS.Enabled {
		nr, err := newNATSReporter(cfg.NATS)
		if err != nil {
			logger.Error("NATS reporter disabled", zap.Error(err))
		} else {
			r.add("nats", nr)
		}
	}
	if cfg.MQTT.Enabled {
		mr, err := newMQTTReporter(cfg.MQTT)
		if err != nil {
			logger.Error("MQTT reporter disabled", zap.Error(err))
		} else {
			r.add("mqtt", mr)
		}
	}
	if len(r.sinks) == 0 {
		logger.Warn("No reporter sink enabled, cycle results stay local")
	}
	return r
}

func (r *multiReporter) add(name string, rep Reporter) {
	r.sinks = append(r.sinks, namedReporter{name: name, Reporter: rep})
}

func (r *multiReporter) each(op string, fn func(Reporter) error) error {
	var errs []error
	for _, s := range r.sinks {
		if err := fn(s.Reporter); err != nil {
			r.metrics.observeReportError(s.name)
			logger.Warn("Report delivery failed",
				zap.String("sink", s.name),
				zap.String("op", op),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}

func (r *multiReporter) ReportPredictions(ctx context.Context, report *PredictionReport) error {
	return r.each("predictions", func(s Reporter) error { return s.ReportPredictions(ctx, report) })
}

func (r *multiReporter) ReportServiceStatus(ctx context.Context, active bool) error {
	return r.each("service_status", func(s Reporter) error { return s.ReportServiceStatus(ctx, active) })
}

func (r *multiReporter) Close() error {
	return r.each("close", func(s Reporter) error { return s.Close() })
}
