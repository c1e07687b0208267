// Package transporttest provides an in-memory transport.Transport for tests.
package transporttest

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/imamik/fogprov/internal/transport"
)

// Upload records one call to Upload.
type Upload struct {
	Path    string
	Content []byte
	Mode    os.FileMode
}

// Fake records commands and uploads. Responses are looked up by command
// prefix in Responses; unmatched commands succeed with empty output.
type Fake struct {
	Responses   map[string]*transport.Result
	ExecuteErr  error
	Unavailable bool
	Files       map[string][]byte

	mu       sync.Mutex
	commands []string
	uploads  []Upload
	closed   bool
}

var _ transport.Transport = (*Fake)(nil)

// New returns an empty Fake.
func New() *Fake {
	return &Fake{Responses: map[string]*transport.Result{}, Files: map[string][]byte{}}
}

// Respond scripts the result for commands starting with prefix.
func (f *Fake) Respond(prefix string, stdout string, exitStatus int) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Responses[prefix] = &transport.Result{Stdout: []byte(stdout), ExitStatus: exitStatus}
	return f
}

func (f *Fake) Execute(_ context.Context, cmd string) (*transport.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, cmd)
	if f.ExecuteErr != nil {
		return nil, f.ExecuteErr
	}

	var best string
	for prefix := range f.Responses {
		if strings.HasPrefix(cmd, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if res, ok := f.Responses[best]; ok && best != "" {
		out := *res
		out.Command = cmd
		return &out, nil
	}
	return &transport.Result{Command: cmd}, nil
}

func (f *Fake) Upload(_ context.Context, content []byte, remotePath string, mode os.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, Upload{Path: remotePath, Content: append([]byte(nil), content...), Mode: mode})
	f.Files[remotePath] = append([]byte(nil), content...)
	return nil
}

func (f *Fake) Download(_ context.Context, remotePath string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.Files[remotePath]
	if !ok {
		return nil, fmt.Errorf("no such file: %s", remotePath)
	}
	return data, nil
}

func (f *Fake) Available(context.Context) bool {
	return !f.Unavailable
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Commands returns the executed commands in order.
func (f *Fake) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

// Uploads returns the recorded uploads in order.
func (f *Fake) Uploads() []Upload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Upload(nil), f.uploads...)
}

// Closed reports whether Close was called.
func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
