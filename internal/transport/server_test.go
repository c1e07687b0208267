package transport

import (
	"bytes"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
	"testing"

	"golang.org/x/crypto/ssh"

	"github.com/imamik/fogprov/internal/util/keygen"
)

// execResult is what the test server answers for one exec request.
type execResult struct {
	stdout string
	stderr string
	status uint32
}

// testSSHServer is an in-process SSH daemon that serves exec requests.
type testSSHServer struct {
	listener net.Listener
	handler  func(cmd string, stdin []byte) execResult

	mu       sync.Mutex
	commands []string
	stdins   [][]byte
	conns    int
}

func generateTestKey(t *testing.T) *keygen.KeyPair {
	t.Helper()
	kp, err := keygen.GenerateEd25519KeyPair()
	if err != nil {
		t.Fatalf("failed to generate test key: %v", err)
	}
	return kp
}

func newTestSSHServer(t *testing.T, clientKey *keygen.KeyPair, handler func(cmd string, stdin []byte) execResult) *testSSHServer {
	t.Helper()

	clientSigner, err := ssh.ParsePrivateKey(clientKey.PrivateKey)
	if err != nil {
		t.Fatalf("failed to parse client key: %v", err)
	}
	authorized := clientSigner.PublicKey().Marshal()

	hostSigner, err := ssh.ParsePrivateKey(generateTestKey(t).PrivateKey)
	if err != nil {
		t.Fatalf("failed to parse host key: %v", err)
	}

	cfg := &ssh.ServerConfig{
		PublicKeyCallback: func(_ ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			if bytes.Equal(key.Marshal(), authorized) {
				return nil, nil
			}
			return nil, errors.New("unauthorized key")
		},
	}
	cfg.AddHostKey(hostSigner)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	srv := &testSSHServer{listener: l, handler: handler}
	go srv.serve(cfg)
	t.Cleanup(func() { _ = l.Close() })
	return srv
}

func (s *testSSHServer) hostPort() (string, int) {
	addr := s.listener.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port
}

func (s *testSSHServer) config(key *keygen.KeyPair) *Config {
	host, port := s.hostPort()
	return &Config{
		Host:       host,
		Port:       port,
		User:       "deploy",
		PrivateKey: key.PrivateKey,
		MaxRetries: 2,
		RetryDelay: 1,
	}
}

func (s *testSSHServer) recorded() ([]string, [][]byte, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...), append([][]byte(nil), s.stdins...), s.conns
}

func (s *testSSHServer) serve(cfg *ssh.ServerConfig) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handleConn(conn, cfg)
	}
}

func (s *testSSHServer) handleConn(conn net.Conn, cfg *ssh.ServerConfig) {
	_, chans, reqs, err := ssh.NewServerConn(conn, cfg)
	if err != nil {
		_ = conn.Close()
		return
	}
	s.mu.Lock()
	s.conns++
	s.mu.Unlock()

	go ssh.DiscardRequests(reqs)
	for newCh := range chans {
		if newCh.ChannelType() != "session" {
			_ = newCh.Reject(ssh.UnknownChannelType, "unsupported")
			continue
		}
		ch, chReqs, err := newCh.Accept()
		if err != nil {
			continue
		}
		go s.handleSession(ch, chReqs)
	}
}

func (s *testSSHServer) handleSession(ch ssh.Channel, reqs <-chan *ssh.Request) {
	defer func() { _ = ch.Close() }()

	for req := range reqs {
		if req.Type != "exec" {
			if req.WantReply {
				_ = req.Reply(false, nil)
			}
			continue
		}

		var payload struct{ Command string }
		if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
			_ = req.Reply(false, nil)
			return
		}
		_ = req.Reply(true, nil)

		stdin, _ := io.ReadAll(ch)

		s.mu.Lock()
		s.commands = append(s.commands, payload.Command)
		s.stdins = append(s.stdins, stdin)
		s.mu.Unlock()

		res := s.handler(payload.Command, stdin)
		_, _ = io.WriteString(ch, res.stdout)
		_, _ = io.WriteString(ch.Stderr(), res.stderr)
		_, _ = ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{res.status}))
		return
	}
}

// closedPort returns a local port with nothing listening on it.
func closedPort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	_, portStr, _ := net.SplitHostPort(l.Addr().String())
	_ = l.Close()
	port, _ := strconv.Atoi(portStr)
	return port
}
