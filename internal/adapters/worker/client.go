// Package worker runs import analysis in external worker processes.
//
// Every job starts one process from the configured command, writes a single
// JSON request to its stdin and reads a single JSON response from its stdout.
// Lines written to stderr are forwarded to the logger.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.trai.ch/importcache/internal/core/domain"
	"go.trai.ch/importcache/internal/core/ports"
	"go.trai.ch/zerr"
)

// waitDelay bounds how long a cancelled worker may keep its pipes open.
const waitDelay = 2 * time.Second

var (
	_ ports.ImportResolver        = (*Client)(nil)
	_ ports.DocumentationProvider = (*Client)(nil)
	_ ports.Completer             = (*Client)(nil)
)

// Client implements the documentation, completion and resolution ports by
// running worker processes.
type Client struct {
	command []string
	logger  ports.Logger
}

// NewClient creates a client starting workers with command.
func NewClient(command []string, logger ports.Logger) *Client {
	return &Client{
		command: command,
		logger:  logger,
	}
}

// Configured reports whether a worker command is set.
func (c *Client) Configured() bool {
	return len(c.command) > 0
}

// Resolve asks a worker for the canonical identity of an import.
func (c *Client) Resolve(ctx context.Context, req domain.ImportRequest) (*domain.ResolvedImport, error) {
	var out *domain.ResolvedImport
	if err := c.call(ctx, OpResolve, req, &out); err != nil {
		return nil, err
	}
	if out != nil {
		out.Kind = req.Kind
	}
	return out, nil
}

// LibraryDoc asks a worker for the documentation of a library.
func (c *Client) LibraryDoc(ctx context.Context, req domain.ImportRequest) (*domain.LibraryDoc, error) {
	var out *domain.LibraryDoc
	if err := c.call(ctx, OpLibraryDoc, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// VariablesDoc asks a worker for the documentation of a variables import.
func (c *Client) VariablesDoc(ctx context.Context, req domain.ImportRequest) (*domain.VariablesDoc, error) {
	var out *domain.VariablesDoc
	if err := c.call(ctx, OpVariablesDoc, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Complete asks a worker for completion candidates.
func (c *Client) Complete(
	ctx context.Context,
	kind domain.ImportKind,
	partial, baseDir string,
	search domain.SearchConfig,
) ([]domain.CompletionItem, error) {
	var out []domain.CompletionItem
	req := CompleteRequest{Kind: kind, Partial: partial, BaseDir: baseDir, Search: search}
	if err := c.call(ctx, OpComplete, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// call runs one worker process for op and decodes its result into out.
// Cancellation of ctx kills the process and is returned as ctx.Err().
func (c *Client) call(ctx context.Context, op string, payload, out any) error {
	if !c.Configured() {
		return zerr.With(zerr.Wrap(domain.ErrWorkerNotConfigured, "worker unavailable"), "op", op)
	}

	input, err := json.Marshal(Request{Op: op, Request: payload})
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to encode worker request"), "op", op)
	}

	cmd := exec.CommandContext(ctx, c.command[0], c.command[1:]...) //nolint:gosec // command comes from the workspace configuration
	cmd.Stdin = bytes.NewReader(input)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	stderr := newLineWriter(c.logger, filepath.Base(c.command[0]))
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay

	runErr := cmd.Run()
	stderr.Flush()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if runErr != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		detail := zerr.With(zerr.Wrap(runErr, "worker failed"), "exit_code", exitCode)
		return errors.Join(domain.ErrWorkerProtocol, zerr.With(detail, "op", op))
	}

	return decode(op, stdout.Bytes(), out)
}

func decode(op string, data []byte, out any) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errors.Join(domain.ErrWorkerProtocol, zerr.With(zerr.New("worker wrote no response"), "op", op))
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return errors.Join(domain.ErrWorkerProtocol, zerr.With(zerr.Wrap(err, "malformed worker response"), "op", op))
	}

	if resp.Error != nil {
		failure := zerr.With(zerr.New(resp.Error.Message), "op", op)
		if resp.Error.NotFound {
			return errors.Join(domain.ErrImportNotFound, failure)
		}
		return failure
	}

	if len(resp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return errors.Join(domain.ErrWorkerProtocol, zerr.With(zerr.Wrap(err, "unexpected result shape"), "op", op))
	}
	return nil
}

// lineWriter forwards complete lines to the logger. A trailing partial line
// is forwarded by Flush.
type lineWriter struct {
	mu     sync.Mutex
	logger ports.Logger
	prefix string
	buf    bytes.Buffer
}

func newLineWriter(logger ports.Logger, prefix string) *lineWriter {
	return &lineWriter{logger: logger, prefix: prefix}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		i := bytes.IndexByte(w.buf.Bytes(), '\n')
		if i < 0 {
			break
		}
		w.emit(string(w.buf.Next(i + 1)))
	}
	return len(p), nil
}

// Flush forwards any buffered partial line.
func (w *lineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf.Len() > 0 {
		w.emit(w.buf.String())
		w.buf.Reset()
	}
}

func (w *lineWriter) emit(line string) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" || w.logger == nil {
		return
	}
	w.logger.Info(fmt.Sprintf("%s: %s", w.prefix, line))
}
