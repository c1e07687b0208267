package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/imamik/fogprov/internal/util/retry"
)

const (
	defaultPort        = 22
	defaultDialTimeout = 10 * time.Second
	defaultMaxRetries  = 30
	defaultRetryDelay  = 2 * time.Second
	defaultMaxDelay    = 10 * time.Second
)

// SSH is a Transport over a single cached SSH connection.
type SSH struct {
	config *Config
	signer ssh.Signer

	mu     sync.Mutex
	client *ssh.Client
}

var _ Transport = (*SSH)(nil)

// NewSSH creates an SSH transport and validates the private key.
// No connection is made until the first call.
func NewSSH(cfg *Config) (*SSH, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("config host cannot be empty")
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("config user cannot be empty")
	}
	if len(cfg.PrivateKey) == 0 {
		return nil, fmt.Errorf("config private key cannot be empty")
	}

	configCopy := *cfg
	if configCopy.Port == 0 {
		configCopy.Port = defaultPort
	}
	if configCopy.DialTimeout == 0 {
		configCopy.DialTimeout = defaultDialTimeout
	}
	if configCopy.MaxRetries == 0 {
		configCopy.MaxRetries = defaultMaxRetries
	}
	if configCopy.RetryDelay == 0 {
		configCopy.RetryDelay = defaultRetryDelay
	}
	if configCopy.HostKeyCallback == nil {
		configCopy.HostKeyCallback = ssh.InsecureIgnoreHostKey() //nolint:gosec // instances are freshly created
	}

	signer, err := ssh.ParsePrivateKey(configCopy.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return &SSH{config: &configCopy, signer: signer}, nil
}

func (s *SSH) addr() string {
	return net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
}

// Execute runs the prefixed command and collects its output.
func (s *SSH) Execute(ctx context.Context, cmd string) (*Result, error) {
	return s.run(ctx, s.config.Prefix+cmd, nil)
}

// Upload writes content to remotePath through tee and sets its mode.
func (s *SSH) Upload(ctx context.Context, content []byte, remotePath string, mode os.FileMode) error {
	path := ShellQuote(remotePath)
	cmd := fmt.Sprintf("%stee %s >/dev/null && %schmod %04o %s",
		s.config.Prefix, path, s.config.Prefix, mode.Perm(), path)

	res, err := s.run(ctx, cmd, bytes.NewReader(content))
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", remotePath, err)
	}
	if err := res.Err(); err != nil {
		return fmt.Errorf("failed to upload %s: %w", remotePath, err)
	}
	return nil
}

// Download returns the contents of remotePath.
func (s *SSH) Download(ctx context.Context, remotePath string) ([]byte, error) {
	res, err := s.run(ctx, s.config.Prefix+"cat "+ShellQuote(remotePath), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", remotePath, err)
	}
	if err := res.Err(); err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", remotePath, err)
	}
	return res.Stdout, nil
}

// Available makes a single connection attempt and runs a no-op command.
func (s *SSH) Available(ctx context.Context) bool {
	s.mu.Lock()
	client := s.client
	s.mu.Unlock()

	if client == nil {
		c, err := s.dial(ctx)
		if err != nil {
			return false
		}
		s.mu.Lock()
		if s.client == nil {
			s.client = c
		} else {
			_ = c.Close()
		}
		s.mu.Unlock()
	}

	res, err := s.run(ctx, "true", nil)
	return err == nil && res.ExitStatus == 0
}

// Close closes the cached connection, if any.
func (s *SSH) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}

// connect returns the cached connection or establishes one with retry logic.
func (s *SSH) connect(ctx context.Context) (*ssh.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client, nil
	}

	var client *ssh.Client
	err := retry.Do(ctx, func(ctx context.Context) error {
		c, err := s.dial(ctx)
		if err != nil {
			if isAuthError(err) {
				return retry.Fatal(err)
			}
			return err
		}
		client = c
		return nil
	},
		retry.WithMaxAttempts(s.config.MaxRetries),
		retry.WithInitialDelay(s.config.RetryDelay),
		retry.WithMaxDelay(defaultMaxDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to establish SSH connection to %s: %w", s.addr(), err)
	}

	s.client = client
	return client, nil
}

func (s *SSH) dial(ctx context.Context) (*ssh.Client, error) {
	clientConfig := &ssh.ClientConfig{
		User:            s.config.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(s.signer)},
		HostKeyCallback: s.config.HostKeyCallback,
		Timeout:         s.config.DialTimeout,
	}

	dialer := net.Dialer{Timeout: s.config.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", s.addr())
	if err != nil {
		return nil, err
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, s.addr(), clientConfig)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	_ = conn.SetDeadline(time.Time{})

	return ssh.NewClient(c, chans, reqs), nil
}

// run executes command on a new session, honouring ctx cancellation.
func (s *SSH) run(ctx context.Context, command string, stdin *bytes.Reader) (*Result, error) {
	client, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}

	session, err := client.NewSession()
	if err != nil {
		// The cached connection is likely dead; drop it so the next call redials.
		s.dropClient(client)
		return nil, fmt.Errorf("failed to create SSH session on %s: %w", s.config.Host, err)
	}
	defer func() { _ = session.Close() }()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr
	if stdin != nil {
		session.Stdin = stdin
	}

	done := make(chan error, 1)
	go func() { done <- session.Run(command) }()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		_ = session.Close()
		return nil, ctx.Err()
	case err = <-done:
	}

	res := &Result{Command: command, Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			res.ExitStatus = exitErr.ExitStatus()
			return res, nil
		}
		return nil, fmt.Errorf("command failed on %s: %w", s.config.Host, err)
	}
	return res, nil
}

func (s *SSH) dropClient(c *ssh.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == c {
		_ = s.client.Close()
		s.client = nil
	}
}

func isAuthError(err error) bool {
	return strings.Contains(err.Error(), "unable to authenticate")
}
