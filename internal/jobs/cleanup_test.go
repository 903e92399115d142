package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeCleaner struct {
	calls atomic.Int32
	days  atomic.Int32
	err   error
}

func (c *fakeCleaner) CleanupOldTasks(_ context.Context, days int) (int, error) {
	c.calls.Add(1)
	c.days.Store(int32(days))
	return 4, c.err
}

func TestRunOnce(t *testing.T) {
	c := &fakeCleaner{}
	cm := NewCleanupManager(c, CleanupConfig{RetentionDays: 30, Enabled: true}, nil)

	assert.Equal(t, 4, cm.RunOnce(context.Background()))
	assert.EqualValues(t, 30, c.days.Load())

	c.err = errors.New("db down")
	assert.Equal(t, 0, cm.RunOnce(context.Background()))
}

func TestCleanupManagerLoop(t *testing.T) {
	c := &fakeCleaner{}
	cm := NewCleanupManager(c, CleanupConfig{Interval: 5 * time.Millisecond, Enabled: true}, nil)

	cm.Start()
	assert.Eventually(t, func() bool { return c.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cm.Stop()
	assert.EqualValues(t, DefaultCleanupConfig().RetentionDays, c.days.Load())
}

func TestCleanupManagerDisabled(t *testing.T) {
	c := &fakeCleaner{}
	cm := NewCleanupManager(c, CleanupConfig{Enabled: false}, nil)

	cm.Start()
	cm.Stop()
	assert.Zero(t, c.calls.Load())
}
