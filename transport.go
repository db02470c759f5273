package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/ziutek/telnet"
	"go.uber.org/zap"
)

// Transport opens authenticated command sessions to the gateway
type Transport interface {
	Open(ctx context.Context) (Session, error)
}

// Session is a single authenticated, line-oriented command session
type Session interface {
	// Send runs cmd and returns its textual output
	Send(cmd string) (string, error)
	// SendNoWait writes cmd without reading any output
	SendNoWait(cmd string) error
	// Close terminates the session
	Close() error
}

// newTransport builds the transport selected by device.protocol
func newTransport(cfg DeviceConfig) (Transport, error) {
	timeout := secondsToDuration(cfg.TimeoutSecs)
	switch cfg.Protocol {
	case ProtocolTelnet:
		return &telnetTransport{
			addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.TelnetPort)),
			login:    cfg.Login,
			password: cfg.Password,
			timeout:  timeout,
			framed:   FramedReadTimeout,
		}, nil
	case ProtocolSSH:
		return newSSHTransport(cfg, timeout)
	default:
		return nil, fmt.Errorf("%w: unsupported device protocol %q", ErrConfig, cfg.Protocol)
	}
}

// --- Telnet ---

// telnetTransport dials the device telnet service and performs the login handshake
type telnetTransport struct {
	addr     string        // host:port of the telnet service
	login    string        // Login written at the login prompt
	password string        // Password, empty when the account has none
	timeout  time.Duration // Dial and prompt read timeout
	framed   time.Duration // Wait for the end sentinel
}

// telnetSession wraps one telnet connection with sentinel framing
type telnetSession struct {
	conn     *telnet.Conn  // Underlying telnet connection, nil once closed
	login    string        // Used to recognise the elevation password prompt
	password string        // Written again on privilege elevation
	timeout  time.Duration // Prompt read timeout
	framed   time.Duration // Wait for the end sentinel
	elevated bool          // True once a privileged shell was obtained
}

// Open dials the device and completes the login handshake
func (t *telnetTransport) Open(ctx context.Context) (Session, error) {
	dialer := net.Dialer{Timeout: t.timeout}
	raw, err := dialer.DialContext(ctx, "tcp", t.addr)
	if err != nil {
		return nil, transportError("telnet dial "+t.addr, err)
	}
	conn, err := telnet.NewConn(raw)
	if err != nil {
		_ = raw.Close()
		return nil, transportError("telnet handshake", err)
	}
	// Device shells expect CRLF line endings
	conn.SetUnixWriteMode(true)

	s := &telnetSession{conn: conn, login: t.login, password: t.password, timeout: t.timeout, framed: t.framed}
	if err := s.authenticate(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	logger.Debug("Telnet session established", zap.String("addr", t.addr))
	return s, nil
}

// authenticate answers the login and optional password prompts
func (s *telnetSession) authenticate() error {
	if err := s.expect(LoginPrompt); err != nil {
		return err
	}
	if err := s.writeLine(s.login); err != nil {
		return err
	}
	if s.password == "" {
		return nil
	}
	if err := s.expect(PasswordPrompt); err != nil {
		return err
	}
	return s.writeLine(s.password)
}

// elevate obtains a privileged shell, at most once per session
func (s *telnetSession) elevate() error {
	if s.elevated {
		return nil
	}
	if err := s.writeLine(ElevationCommand); err != nil {
		return err
	}
	if err := s.expect(s.login + ":"); err != nil {
		return err
	}
	if err := s.writeLine(s.password); err != nil {
		return err
	}
	s.elevated = true
	logger.Debug("Privileged shell obtained")
	return nil
}

// Send runs cmd wrapped in sentinels and returns the framed output
func (s *telnetSession) Send(cmd string) (string, error) {
	if s == nil || s.conn == nil {
		return "", transportError("send on closed session", nil)
	}
	if strings.Contains(cmd, ElevationTrigger) {
		if err := s.elevate(); err != nil {
			return "", err
		}
	}
	if err := s.writeLine(frameCommand(cmd)); err != nil {
		return "", err
	}
	raw, err := s.readFramed(cmd)
	if err != nil {
		return "", err
	}
	return parseFramedOutput(raw), nil
}

// readFramed reads up to the end sentinel. When the deadline expires first the
// partial read is returned: a command entering a sub-shell swallows the trailer.
func (s *telnetSession) readFramed(cmd string) (string, error) {
	if err := s.conn.SetReadDeadline(time.Now().Add(s.framed)); err != nil {
		return "", transportError("set read deadline", err)
	}
	end := []byte(SentinelEnd)
	var buf []byte
	for !bytes.HasSuffix(buf, end) {
		b, err := s.conn.ReadByte()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				logger.Debug("End sentinel not seen, using partial output",
					zap.String("command", cmd),
					zap.Int("bytes", len(buf)))
				return string(buf), nil
			}
			return "", transportError("read framed output", err)
		}
		buf = append(buf, b)
	}
	return string(buf), nil
}

// SendNoWait writes cmd and pauses briefly instead of reading output
func (s *telnetSession) SendNoWait(cmd string) error {
	if s == nil || s.conn == nil {
		return transportError("send on closed session", nil)
	}
	if err := s.writeLine(cmd); err != nil {
		return err
	}
	time.Sleep(NoWaitCommandDelay)
	return nil
}

// Close logs out and releases the connection
func (s *telnetSession) Close() error {
	if s == nil || s.conn == nil {
		return transportError("close on closed session", nil)
	}
	exitErr := s.writeLine(ExitCommand)
	closeErr := s.conn.Close()
	s.conn = nil
	if exitErr != nil {
		return exitErr
	}
	if closeErr != nil {
		return transportError("close", closeErr)
	}
	return nil
}

// expect discards input until delim appears or the prompt timeout fires
func (s *telnetSession) expect(delim string) error {
	if err := s.conn.SetReadDeadline(time.Now().Add(s.timeout)); err != nil {
		return transportError("set read deadline", err)
	}
	if err := s.conn.SkipUntil(delim); err != nil {
		return transportError(fmt.Sprintf("wait for %q", delim), err)
	}
	return nil
}

// writeLine writes text followed by a newline
func (s *telnetSession) writeLine(text string) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.timeout)); err != nil {
		return transportError("set write deadline", err)
	}
	if _, err := s.conn.Write([]byte(text + "\n")); err != nil {
		return transportError("write", err)
	}
	return nil
}

// frameCommand wraps cmd so its output is delimited by the start and end sentinels.
// The sentinels are split by quotes so the echoed input never contains them.
func frameCommand(cmd string) string {
	return "echo -n " + SentinelStartQuoted + "; " + cmd + "; echo " + SentinelEndQuoted
}

// parseFramedOutput extracts command output from a raw framed read
func parseFramedOutput(raw string) string {
	if i := strings.LastIndex(raw, SentinelStart); i >= 0 {
		raw = raw[i+len(SentinelStart):]
	}
	if i := strings.Index(raw, SentinelEnd); i >= 0 {
		raw = raw[:i]
	}
	raw = strings.TrimLeft(raw, " \t\r\n\v\f")
	// Drop the line ending echoed before the end sentinel
	if len(raw) <= FramingTrailerLen {
		return ""
	}
	return raw[:len(raw)-FramingTrailerLen]
}
