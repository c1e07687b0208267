package transport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
)

// ErrUnsupported is returned for transports fogprov does not implement.
var ErrUnsupported = errors.New("transport not supported")

// Kind names a transport.
type Kind string

const (
	KindSSH   Kind = "ssh"
	KindWinRM Kind = "winrm"
)

// Transport executes commands and transfers files on a remote machine.
type Transport interface {
	// Execute runs cmd. A non-zero exit status is reported in the Result,
	// not as an error; errors are reserved for transport failures.
	Execute(ctx context.Context, cmd string) (*Result, error)
	Upload(ctx context.Context, content []byte, remotePath string, mode os.FileMode) error
	Download(ctx context.Context, remotePath string) ([]byte, error)
	// Available reports whether the remote end accepts commands right now.
	Available(ctx context.Context) bool
	Close() error
}

// Result is the outcome of a remote command.
type Result struct {
	Command    string
	Stdout     []byte
	Stderr     []byte
	ExitStatus int
}

// Err returns a descriptive error for a non-zero exit status, or nil.
func (r *Result) Err() error {
	if r.ExitStatus == 0 {
		return nil
	}
	stderr := strings.TrimSpace(string(r.Stderr))
	if stderr == "" {
		return fmt.Errorf("command %q exited with status %d", r.Command, r.ExitStatus)
	}
	return fmt.Errorf("command %q exited with status %d: %s", r.Command, r.ExitStatus, stderr)
}

// Config holds transport connection settings.
type Config struct {
	Host       string
	Port       int
	User       string
	PrivateKey []byte

	// Prefix is prepended to every command, e.g. "sudo ".
	Prefix string

	// DialTimeout bounds a single connection attempt.
	DialTimeout time.Duration
	// MaxRetries is the maximum number of connection attempts.
	MaxRetries int
	// RetryDelay is the initial delay between connection attempts.
	RetryDelay time.Duration

	// HostKeyCallback handles host key verification.
	// If nil, ssh.InsecureIgnoreHostKey() is used.
	HostKeyCallback ssh.HostKeyCallback
}

// New returns a transport of the given kind.
func New(kind Kind, cfg *Config) (Transport, error) {
	switch kind {
	case KindSSH, "":
		return NewSSH(cfg)
	case KindWinRM:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, kind)
	default:
		return nil, fmt.Errorf("%w: unknown transport %q", ErrUnsupported, kind)
	}
}

// ShellQuote quotes s for use as a single POSIX shell word.
func ShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
