package main

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// sshTransport opens password-authenticated ssh connections to the device
type sshTransport struct {
	addr    string            // host:port of the ssh service
	config  *ssh.ClientConfig // Client auth and host key policy
	timeout time.Duration     // Dial timeout
}

// sshSession runs every command on its own exec channel
type sshSession struct {
	client *ssh.Client // Underlying connection, nil once closed
}

// newSSHTransport builds the ssh transport, verifying host keys when a known_hosts file is set
func newSSHTransport(cfg DeviceConfig, timeout time.Duration) (*sshTransport, error) {
	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if cfg.SSHKnownHosts != "" {
		cb, err := knownhosts.New(cfg.SSHKnownHosts)
		if err != nil {
			return nil, transportError("load known_hosts "+cfg.SSHKnownHosts, err)
		}
		hostKeyCallback = cb
	} else {
		logger.Warn("SSH host key verification disabled, set device.ssh_known_hosts to enable it")
	}

	return &sshTransport{
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.SSHPort)),
		config: &ssh.ClientConfig{
			User:            cfg.Login,
			Auth:            []ssh.AuthMethod{ssh.Password(cfg.Password)},
			HostKeyCallback: hostKeyCallback,
			Timeout:         timeout,
		},
		timeout: timeout,
	}, nil
}

// Open dials and authenticates an ssh connection
func (t *sshTransport) Open(ctx context.Context) (Session, error) {
	dialer := net.Dialer{Timeout: t.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", t.addr)
	if err != nil {
		return nil, transportError("ssh dial "+t.addr, err)
	}
	// Bound the handshake by the same timeout as the dial
	_ = conn.SetDeadline(time.Now().Add(t.timeout))
	c, chans, reqs, err := ssh.NewClientConn(conn, t.addr, t.config)
	if err != nil {
		_ = conn.Close()
		return nil, transportError("ssh handshake", err)
	}
	_ = conn.SetDeadline(time.Time{})
	logger.Debug("SSH session established", zap.String("addr", t.addr))
	return &sshSession{client: ssh.NewClient(c, chans, reqs)}, nil
}

// Send runs cmd and returns its stdout without the trailing newline
func (s *sshSession) Send(cmd string) (string, error) {
	if s == nil || s.client == nil {
		return "", transportError("send on closed session", nil)
	}
	out, err := s.run(cmd)
	if err != nil {
		return "", err
	}
	if len(out) > 2 {
		out = strings.TrimSuffix(out, "\n")
	}
	return out, nil
}

// SendNoWait runs cmd and discards its output
func (s *sshSession) SendNoWait(cmd string) error {
	if s == nil || s.client == nil {
		return transportError("send on closed session", nil)
	}
	_, err := s.run(cmd)
	return err
}

// Close releases the ssh connection
func (s *sshSession) Close() error {
	if s == nil || s.client == nil {
		return transportError("close on closed session", nil)
	}
	err := s.client.Close()
	s.client = nil
	if err != nil {
		return transportError("ssh close", err)
	}
	return nil
}

// run executes cmd on a fresh exec channel.
// A non-zero exit status still yields the captured output.
func (s *sshSession) run(cmd string) (string, error) {
	session, err := s.client.NewSession()
	if err != nil {
		return "", transportError("ssh new session", err)
	}
	defer session.Close()

	out, err := session.Output(cmd)
	var exitErr *ssh.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return "", transportError("ssh exec", err)
	}
	if exitErr != nil {
		logger.Debug("SSH command exited non-zero",
			zap.String("command", cmd),
			zap.Int("exitStatus", exitErr.ExitStatus()),
		)
	}
	return string(out), nil
}
