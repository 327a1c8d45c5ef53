// Package fingerprint computes Chromaprint fingerprints by running the
// external fpcalc tool.
package fingerprint

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os/exec"
	"strconv"
	"strings"
)

// DefaultMaxLength is the number of seconds of audio fpcalc analyses when
// no explicit limit is configured.
const DefaultMaxLength = 120

var (
	ErrBackendMissing   = errors.New("fpcalc executable not found")
	ErrGenerationFailed = errors.New("fingerprint generation failed")
)

// Result is the output of one fpcalc run. Fingerprint holds the raw token
// exactly as the tool printed it.
type Result struct {
	Duration    float64
	Fingerprint []byte
}

// Runner executes a command and returns its standard output.
type Runner interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = io.Discard
	return cmd.Output()
}

type Client struct {
	path      string
	maxLength int
	runner    Runner
}

type Option func(*Client)

func WithRunner(r Runner) Option {
	return func(c *Client) {
		c.runner = r
	}
}

func WithMaxLength(seconds int) Option {
	return func(c *Client) {
		if seconds > 0 {
			c.maxLength = seconds
		}
	}
}

// New resolves the fpcalc executable once. A bare name is looked up in PATH.
func New(executable string, opts ...Option) (*Client, error) {
	c := &Client{
		maxLength: DefaultMaxLength,
		runner:    execRunner{},
	}
	for _, opt := range opts {
		opt(c)
	}

	if _, ok := c.runner.(execRunner); ok {
		resolved, err := exec.LookPath(executable)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrBackendMissing, executable)
		}
		executable = resolved
	}
	c.path = executable

	return c, nil
}

func (c *Client) Path() string {
	return c.path
}

// Fingerprint runs fpcalc on path. ok is false when the output lacks either
// the DURATION or the FINGERPRINT line; that case is not an error.
func (c *Client) Fingerprint(ctx context.Context, path string) (Result, bool, error) {
	out, err := c.runner.Output(ctx, c.path, "-length", strconv.Itoa(c.maxLength), path)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, exec.ErrDot) || errors.Is(err, fs.ErrNotExist) {
			return Result{}, false, fmt.Errorf("%w: %v", ErrBackendMissing, err)
		}
		return Result{}, false, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	return Parse(out)
}

// Parse reads fpcalc's KEY=VALUE output. Unknown keys are ignored.
func Parse(out []byte) (Result, bool, error) {
	var (
		res         Result
		hasDuration bool
		hasPrint    bool
	)

	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimRight(scanner.Bytes(), "\r")
		key, value, found := bytes.Cut(line, []byte("="))
		if !found {
			continue
		}

		switch string(key) {
		case "DURATION":
			d, err := strconv.ParseFloat(strings.TrimSpace(string(value)), 64)
			if err != nil {
				return Result{}, false, fmt.Errorf("%w: invalid duration %q", ErrGenerationFailed, value)
			}
			res.Duration = d
			hasDuration = true
		case "FINGERPRINT":
			res.Fingerprint = bytes.Clone(value)
			hasPrint = true
		}
	}
	if err := scanner.Err(); err != nil {
		return Result{}, false, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	if !hasDuration || !hasPrint {
		return Result{}, false, nil
	}
	return res, true, nil
}
