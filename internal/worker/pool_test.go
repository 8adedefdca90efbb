package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JNZader/diffparse/internal/diffparser"
	"github.com/JNZader/diffparse/internal/metrics"
)

// mockTask for testing
type mockTask struct {
	id       string
	duration time.Duration
	err      error
	ran      *atomic.Int64
}

func (t *mockTask) ID() string { return t.id }
func (t *mockTask) Execute(ctx context.Context) error {
	if t.ran != nil {
		t.ran.Add(1)
	}
	select {
	case <-time.After(t.duration):
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestPool_BasicExecution(t *testing.T) {
	pool := NewPool(Config{Workers: 2})

	tasks := make([]Task, 5)
	for i := range tasks {
		tasks[i] = &mockTask{id: fmt.Sprintf("task-%d", i), duration: time.Millisecond}
	}

	results, err := pool.Run(context.Background(), tasks)
	require.NoError(t, err)
	require.Len(t, results, 5)
	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("task-%d", i), r.TaskID, "results keep input order")
		assert.NoError(t, r.Error)
	}

	assert.Equal(t, int64(5), pool.Stats().Processed)
}

func TestPool_ErrorsWithoutFailFast(t *testing.T) {
	pool := NewPool(Config{Workers: 2})
	expectedErr := errors.New("task failed")

	results, err := pool.Run(context.Background(), []Task{
		&mockTask{id: "ok"},
		&mockTask{id: "failing", err: expectedErr},
		&mockTask{id: "ok-2"},
	})
	require.NoError(t, err)

	failed := Failed(results)
	require.Len(t, failed, 1)
	assert.Equal(t, "failing", failed[0].TaskID)
	assert.ErrorIs(t, failed[0].Error, expectedErr)
	assert.Equal(t, int64(1), pool.Stats().Errors)
}

func TestPool_FailFast(t *testing.T) {
	pool := NewPool(Config{Workers: 1, FailFast: true})
	expectedErr := errors.New("boom")
	var ran atomic.Int64

	tasks := []Task{&mockTask{id: "first", err: expectedErr, ran: &ran}}
	for i := 0; i < 10; i++ {
		tasks = append(tasks, &mockTask{id: fmt.Sprintf("later-%d", i), duration: time.Millisecond, ran: &ran})
	}

	results, err := pool.Run(context.Background(), tasks)
	require.Error(t, err)
	assert.ErrorIs(t, err, expectedErr)
	assert.Less(t, ran.Load(), int64(len(tasks)))

	last := results[len(results)-1]
	assert.True(t, last.Skipped)
	assert.ErrorIs(t, last.Error, context.Canceled)
}

func TestPool_Cancellation(t *testing.T) {
	pool := NewPool(Config{Workers: 2})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := pool.Run(ctx, []Task{&mockTask{id: "long", duration: 10 * time.Second}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, results[0].Error, context.Canceled)
}

func TestPool_DefaultWorkers(t *testing.T) {
	assert.Positive(t, NewPool(Config{}).Stats().Workers)
}

func TestPool_InflightGauge(t *testing.T) {
	c := metrics.NewCollector()
	pool := NewPool(Config{Workers: 3, Metrics: c})

	tasks := []Task{&mockTask{id: "a"}, &mockTask{id: "b"}}
	_, err := pool.Run(context.Background(), tasks)
	require.NoError(t, err)
	assert.Zero(t, c.Gauge(metrics.MetricInflight).Value())
}

func writeDiff(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

const sampleDiff = "--- a.txt\t1\n+++ a.txt\t2\n@@ -1 +1 @@\n-old\n+new\n"

func TestParseTask(t *testing.T) {
	c := metrics.NewCollector()
	path := writeDiff(t, "a.diff", sampleDiff)
	task := NewParseTask(path, WithMetrics(c), WithParserOptions(diffparser.WithFormat(diffparser.FormatUnified)))

	require.NoError(t, task.Execute(context.Background()))
	require.NotNil(t, task.Diff())
	assert.Equal(t, "diff:"+path, task.ID())
	assert.Equal(t, sampleDiff, string(task.Data()))
	assert.Len(t, task.Diff().Files(), 1)
	assert.Equal(t, int64(1), c.Counter(metrics.MetricFilesParsed).Value())
}

func TestParseTask_TooLarge(t *testing.T) {
	path := writeDiff(t, "big.diff", sampleDiff)

	err := NewParseTask(path, WithMaxSize(10)).Execute(context.Background())
	assert.ErrorIs(t, err, ErrTooLarge)

	assert.NoError(t, NewParseTask(path, WithMaxSize(int64(len(sampleDiff)))).Execute(context.Background()))
}

func TestParseTask_ParseError(t *testing.T) {
	c := metrics.NewCollector()
	path := writeDiff(t, "bad.diff", "#diffx: version=1.0\n")

	err := NewParseTask(path, WithMetrics(c)).Execute(context.Background())
	var perr *diffparser.ParseError
	assert.ErrorAs(t, err, &perr)
	assert.Equal(t, int64(1), c.Counter(metrics.MetricParseErrors).Value())
}

func TestParseTask_MissingFile(t *testing.T) {
	err := NewParseTask(filepath.Join(t.TempDir(), "missing.diff")).Execute(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFuncTask(t *testing.T) {
	called := false
	task := NewFuncTask("fn", func(ctx context.Context) error {
		called = true
		return nil
	})

	require.NoError(t, task.Execute(context.Background()))
	assert.True(t, called)
	assert.Equal(t, "fn", task.ID())
}
