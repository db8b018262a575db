// application/scheduler/scheduler_test.go
package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyAt_NextRunLaterToday(t *testing.T) {
	now := time.Date(2024, 3, 11, 1, 0, 0, 0, time.UTC)

	next := DailyAt(3, 0).nextRun(now)

	assert.Equal(t, time.Date(2024, 3, 11, 3, 0, 0, 0, time.UTC), next)
}

func TestDailyAt_NextRunRollsToTomorrow(t *testing.T) {
	now := time.Date(2024, 3, 11, 4, 30, 0, 0, time.UTC)

	next := DailyAt(3, 0).nextRun(now)

	assert.Equal(t, time.Date(2024, 3, 12, 3, 0, 0, 0, time.UTC), next)
}

func TestDailyAt_ExactMomentCountsAsPassed(t *testing.T) {
	now := time.Date(2024, 3, 11, 3, 0, 0, 0, time.UTC)

	next := DailyAt(3, 0).nextRun(now)

	assert.Equal(t, time.Date(2024, 3, 12, 3, 0, 0, 0, time.UTC), next)
}

func TestEvery_NextRunAddsInterval(t *testing.T) {
	now := time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC)

	next := Every(45 * time.Second).nextRun(now)

	assert.Equal(t, now.Add(45*time.Second), next)
}

func TestRegister_PlansFirstRun(t *testing.T) {
	s := New()
	s.Register(&Job{
		Name:     "scan-measurements",
		Schedule: Every(time.Minute),
		Handler:  func(ctx context.Context) error { return nil },
	})

	statuses := s.Jobs()

	require.Len(t, statuses, 1)
	assert.Equal(t, "scan-measurements", statuses[0].Name)
	assert.False(t, statuses[0].NextRun.IsZero())
	assert.Equal(t, 0, statuses[0].Runs)
}

func TestTick_RunsDueJob(t *testing.T) {
	done := make(chan struct{})
	job := &Job{
		Name:     "scan-measurements",
		Schedule: Every(time.Hour),
		Handler: func(ctx context.Context) error {
			close(done)
			return nil
		},
	}

	s := New()
	s.Register(job)

	job.mu.Lock()
	job.nextRun = time.Now().UTC().Add(-time.Second)
	job.mu.Unlock()

	s.tick()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("задача не запустилась по расписанию")
	}
	s.wg.Wait()

	status := job.Status()
	assert.Equal(t, 1, status.Runs)
	assert.NoError(t, status.LastErr)
	assert.True(t, status.NextRun.After(time.Now().UTC()))
}

func TestTick_SkipsJobNotYetDue(t *testing.T) {
	var calls int32
	job := &Job{
		Name:     "history-cleanup",
		Schedule: Every(time.Hour),
		Handler: func(ctx context.Context) error {
			atomic.AddInt32(&calls, 1)
			return nil
		},
	}

	s := New()
	s.Register(job)

	s.tick()
	s.wg.Wait()

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestTick_DoesNotOverlapRunningJob(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	started := make(chan struct{})
	job := &Job{
		Name:     "scan-measurements",
		Schedule: Every(time.Hour),
		Handler: func(ctx context.Context) error {
			atomic.AddInt32(&calls, 1)
			close(started)
			<-release
			return nil
		},
	}

	s := New()
	s.Register(job)

	job.mu.Lock()
	job.nextRun = time.Now().UTC().Add(-time.Second)
	job.mu.Unlock()

	s.tick()
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("первый запуск не стартовал")
	}

	// Задача всё ещё выполняется - повторный tick её не трогает
	s.tick()
	close(release)
	s.wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRun_RecordsHandlerError(t *testing.T) {
	failure := errors.New("файл измерений недоступен")
	job := &Job{
		Name:     "scan-measurements",
		Schedule: Every(time.Hour),
		Handler:  func(ctx context.Context) error { return failure },
	}

	s := New()
	s.Register(job)

	job.mu.Lock()
	job.nextRun = time.Now().UTC().Add(-time.Second)
	job.mu.Unlock()

	s.tick()
	s.wg.Wait()

	status := job.Status()
	assert.Equal(t, 1, status.Runs)
	assert.ErrorIs(t, status.LastErr, failure)
	assert.False(t, status.Running)
}

func TestRun_HandlerGetsTimeoutContext(t *testing.T) {
	deadlineSeen := make(chan bool, 1)
	job := &Job{
		Name:     "history-cleanup",
		Schedule: Every(time.Hour),
		Timeout:  100 * time.Millisecond,
		Handler: func(ctx context.Context) error {
			_, ok := ctx.Deadline()
			deadlineSeen <- ok
			return nil
		},
	}

	s := New()
	s.Register(job)

	job.mu.Lock()
	job.nextRun = time.Now().UTC().Add(-time.Second)
	job.mu.Unlock()

	s.tick()
	s.wg.Wait()

	select {
	case ok := <-deadlineSeen:
		assert.True(t, ok, "контекст задачи должен иметь дедлайн")
	default:
		t.Fatal("обработчик не выполнился")
	}
}

func TestStartStop_CompletesCleanly(t *testing.T) {
	s := New()
	s.Register(&Job{
		Name:     "scan-measurements",
		Schedule: Every(time.Hour),
		Handler:  func(ctx context.Context) error { return nil },
	})

	s.Start()

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop не завершился")
	}
}
