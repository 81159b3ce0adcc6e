package schedule

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingJob struct {
	name string
	runs atomic.Int32
	err  error
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	return j.err
}

func TestCronSchedulerAddJob(t *testing.T) {
	s := NewCronScheduler()
	job := &countingJob{name: "refresh"}

	// standard five field specs
	for _, spec := range []string{"0 2 * * *", "*/5 * * * *", "0 4 * * 1"} {
		if err := s.AddJob(job, spec); err != nil {
			t.Errorf("AddJob(%q) = %v", spec, err)
		}
	}
	if err := s.AddJob(job, "not a cron spec"); err == nil {
		t.Error("malformed spec should be rejected")
	}
	// six field seconds specs are not accepted
	if err := s.AddJob(job, "0 0 2 * * *"); err == nil {
		t.Error("six field spec should be rejected")
	}
}

type blockingJob struct {
	started chan struct{}
	release chan struct{}
	runs    atomic.Int32
}

func (j *blockingJob) Name() string { return "blocking" }

func (j *blockingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	j.started <- struct{}{}
	<-j.release
	return nil
}

func TestCronSchedulerWrap_SkipsOverlappingRuns(t *testing.T) {
	s := NewCronScheduler()
	job := &blockingJob{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	fn := s.wrap(job, "* * * * *")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		fn()
	}()

	select {
	case <-job.started:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not start")
	}

	// second trigger while the first run is still going
	fn()
	if got := job.runs.Load(); got != 1 {
		t.Fatalf("overlapping run executed, runs = %d", got)
	}

	close(job.release)
	wg.Wait()

	// once the first run finished the job fires again
	done := make(chan struct{})
	go func() {
		fn()
		close(done)
	}()
	select {
	case <-job.started:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not restart")
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("second run did not finish")
	}
	if got := job.runs.Load(); got != 2 {
		t.Fatalf("runs = %d, want 2", got)
	}
}
