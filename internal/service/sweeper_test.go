package service

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/erp-sessions/internal/model"
	"github.com/dtroode/erp-sessions/internal/testutil"
)

type recordingArchive struct {
	mu      sync.Mutex
	uploads map[string]string
	err     error
}

func (a *recordingArchive) Upload(_ context.Context, key string, r io.Reader) error {
	if a.err != nil {
		return a.err
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.uploads == nil {
		a.uploads = map[string]string{}
	}
	a.uploads[key] = string(body)
	return nil
}

func TestSweeper_RunOnce_ArchivesBatches(t *testing.T) {
	h := newHarness(t, func(p *SessionPolicy) { p.SweepBatch = 2 })
	for i := 0; i < 3; i++ {
		h.login(t, fmt.Sprintf("p%d", i), fmt.Sprint(i), "1.1.1.1", nil)
	}
	h.clock.Advance(8 * 24 * time.Hour)

	archive := &recordingArchive{}
	sweeper := NewSweeper(h.mgr, archive, h.clock, time.Minute, testutil.MakeNoopLogger())

	n, err := sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.Len(t, archive.uploads, 2)

	prefix := "sweeps/" + h.clock.Now().Format("2006/01/02") + "/"
	lines := 0
	for key, body := range archive.uploads {
		assert.True(t, strings.HasPrefix(key, prefix), key)
		assert.True(t, strings.HasSuffix(key, ".jsonl"), key)

		sc := bufio.NewScanner(strings.NewReader(body))
		for sc.Scan() {
			var rec auditRecord
			require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
			assert.Equal(t, string(model.RevokeReasonExpired), rec.Reason)
			require.NotNil(t, rec.LogoutAt)
			lines++
		}
	}
	assert.Equal(t, 3, lines)
}

func TestSweeper_RunOnce_ArchiveFailureIsNotFatal(t *testing.T) {
	h := newHarness(t)
	h.login(t, "p1", "1", "1.1.1.1", nil)
	h.clock.Advance(8 * 24 * time.Hour)

	sweeper := NewSweeper(h.mgr, &recordingArchive{err: assert.AnError}, h.clock, time.Minute, testutil.MakeNoopLogger())

	n, err := sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSweeper_RunOnce_WithoutArchive(t *testing.T) {
	h := newHarness(t)
	h.login(t, "p1", "1", "1.1.1.1", nil)
	h.clock.Advance(8 * 24 * time.Hour)

	sweeper := NewSweeper(h.mgr, nil, h.clock, time.Minute, testutil.MakeNoopLogger())
	n, err := sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

type countingSweeper struct {
	mu    sync.Mutex
	calls int
}

func (c *countingSweeper) SweepExpired(context.Context, func([]model.Session)) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return 0, nil
}

func (c *countingSweeper) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestSweeper_Run_StopsOnCancel(t *testing.T) {
	target := &countingSweeper{}
	sweeper := NewSweeper(target, nil, nil, 10*time.Millisecond, testutil.MakeNoopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return target.count() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
