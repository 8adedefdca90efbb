package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/JNZader/diffparse/internal/diffparser"
	"github.com/JNZader/diffparse/internal/metrics"
)

// ErrTooLarge is returned for diff files over the configured size limit.
var ErrTooLarge = errors.New("diff exceeds maximum size")

// ParseTask reads one diff file and parses it.
type ParseTask struct {
	id      string
	path    string
	maxSize int64
	opts    []diffparser.Option
	metrics *metrics.Collector

	data     []byte
	diff     *diffparser.ParsedDiff
	duration time.Duration
}

// ParseTaskOption configures a ParseTask.
type ParseTaskOption func(*ParseTask)

// WithMaxSize rejects files larger than n bytes. Zero disables the check.
func WithMaxSize(n int64) ParseTaskOption {
	return func(t *ParseTask) { t.maxSize = n }
}

// WithParserOptions passes options through to the parser.
func WithParserOptions(opts ...diffparser.Option) ParseTaskOption {
	return func(t *ParseTask) { t.opts = append(t.opts, opts...) }
}

// WithMetrics records parse totals and timings in c.
func WithMetrics(c *metrics.Collector) ParseTaskOption {
	return func(t *ParseTask) { t.metrics = c }
}

// NewParseTask creates a task parsing the diff stored at path.
func NewParseTask(path string, opts ...ParseTaskOption) *ParseTask {
	t := &ParseTask{id: "diff:" + path, path: path}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ID returns the task identifier.
func (t *ParseTask) ID() string {
	return t.id
}

// Execute reads and parses the file.
func (t *ParseTask) Execute(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := t.read()
	if err != nil {
		return err
	}
	t.data = data

	start := time.Now()
	diff, err := diffparser.NewParser(data, t.opts...).ParseDiff()
	t.duration = time.Since(start)

	if t.metrics != nil {
		t.metrics.Timer(metrics.MetricParseDuration).Record(t.duration)
		if err != nil {
			t.metrics.Counter(metrics.MetricParseErrors).Inc()
		} else {
			t.metrics.RecordDiff(len(data), diff)
		}
	}
	if err != nil {
		return fmt.Errorf("parse %s: %w", t.path, err)
	}

	t.diff = diff
	return nil
}

func (t *ParseTask) read() ([]byte, error) {
	f, err := os.Open(t.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if t.maxSize <= 0 {
		return io.ReadAll(f)
	}

	data, err := io.ReadAll(io.LimitReader(f, t.maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > t.maxSize {
		return nil, fmt.Errorf("%s: %w (%d bytes)", t.path, ErrTooLarge, t.maxSize)
	}
	return data, nil
}

// Path returns the file path being parsed.
func (t *ParseTask) Path() string {
	return t.path
}

// Data returns the bytes read, or nil before Execute.
func (t *ParseTask) Data() []byte {
	return t.data
}

// Diff returns the parse result, or nil if the task failed or has not run.
func (t *ParseTask) Diff() *diffparser.ParsedDiff {
	return t.diff
}

// Duration returns how long parsing took, excluding the read.
func (t *ParseTask) Duration() time.Duration {
	return t.duration
}

// FuncTask wraps a function as a task.
type FuncTask struct {
	id string
	fn func(ctx context.Context) error
}

// NewFuncTask creates a task from a function.
func NewFuncTask(id string, fn func(ctx context.Context) error) *FuncTask {
	return &FuncTask{id: id, fn: fn}
}

// ID returns the task identifier.
func (f *FuncTask) ID() string {
	return f.id
}

// Execute executes the function.
func (f *FuncTask) Execute(ctx context.Context) error {
	return f.fn(ctx)
}
