package printer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a print job
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobPrinting  JobStatus = "printing"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// PrintJob is an encoded receipt waiting for, or sent to, a printer
type PrintJob struct {
	ID        string    `json:"id"`
	PrinterID string    `json:"printer_id"`
	Payload   []byte    `json:"-"`
	Size      int       `json:"size"`
	Retries   int       `json:"retries"`
	Status    JobStatus `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	notBefore time.Time
}

// DeviceLookup finds a device by ID
type DeviceLookup interface {
	Device(id string) (Device, bool)
}

// PrintQueue sends jobs to printers in order, one at a time, retrying
// failed jobs up to a limit.
type PrintQueue struct {
	jobs       []*PrintJob
	pool       *ConnectionPool
	devices    DeviceLookup
	maxRetries int
	retryDelay time.Duration
	poll       time.Duration
	logger     *slog.Logger
	onStatus   func(PrintJob)
	mu         sync.Mutex

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// QueueOption configures a PrintQueue
type QueueOption func(*PrintQueue)

// WithMaxRetries sets how many attempts a job gets
func WithMaxRetries(n int) QueueOption {
	return func(q *PrintQueue) {
		q.maxRetries = n
	}
}

// WithRetryDelay sets the pause before a failed job is attempted again
func WithRetryDelay(d time.Duration) QueueOption {
	return func(q *PrintQueue) {
		q.retryDelay = d
	}
}

// WithPollInterval sets how often the worker looks for work
func WithPollInterval(d time.Duration) QueueOption {
	return func(q *PrintQueue) {
		q.poll = d
	}
}

// WithQueueLogger sets the queue's logger
func WithQueueLogger(l *slog.Logger) QueueOption {
	return func(q *PrintQueue) {
		q.logger = l
	}
}

// NewPrintQueue creates a queue and starts its worker. Call Stop to end it.
func NewPrintQueue(pool *ConnectionPool, devices DeviceLookup, opts ...QueueOption) *PrintQueue {
	q := &PrintQueue{
		pool:       pool,
		devices:    devices,
		maxRetries: 3,
		retryDelay: time.Second,
		poll:       100 * time.Millisecond,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(q)
	}

	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel

	q.wg.Add(1)
	go q.worker(ctx)

	return q
}

// OnStatus sets a callback run after every job status change
func (q *PrintQueue) OnStatus(callback func(PrintJob)) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.onStatus = callback
}

// Enqueue adds an encoded receipt for a printer and returns the new job
func (q *PrintQueue) Enqueue(printerID string, payload []byte) PrintJob {
	now := time.Now()
	job := &PrintJob{
		ID:        uuid.NewString(),
		PrinterID: printerID,
		Payload:   payload,
		Size:      len(payload),
		Status:    JobQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	q.mu.Lock()
	q.jobs = append(q.jobs, job)
	snapshot, cb := *job, q.onStatus
	q.mu.Unlock()

	q.logger.Info("print job queued", "job_id", job.ID, "printer_id", printerID, "bytes", len(payload))
	if cb != nil {
		cb(snapshot)
	}
	return snapshot
}

func (q *PrintQueue) worker(ctx context.Context) {
	defer q.wg.Done()

	ticker := time.NewTicker(q.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			q.processNextJob()
		}
	}
}

func (q *PrintQueue) processNextJob() {
	job := q.next()
	if job == nil {
		return
	}

	err := q.print(job)

	q.mu.Lock()
	job.UpdatedAt = time.Now()
	switch {
	case err == nil:
		job.Status = JobCompleted
		job.Error = ""
		q.logger.Info("print job completed", "job_id", job.ID, "printer_id", job.PrinterID)
	case job.Retries+1 >= q.maxRetries:
		job.Retries++
		job.Status = JobFailed
		job.Error = err.Error()
		q.logger.Error("print job failed", "job_id", job.ID, "retries", job.Retries, "error", err)
	default:
		job.Retries++
		job.Status = JobQueued
		job.Error = err.Error()
		job.notBefore = job.UpdatedAt.Add(q.retryDelay)
		q.logger.Warn("print job failed, retrying", "job_id", job.ID, "attempt", job.Retries, "max", q.maxRetries, "error", err)
	}
	snapshot, cb := *job, q.onStatus
	q.mu.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// next claims the oldest job that is ready to run
func (q *PrintQueue) next() *PrintJob {
	q.mu.Lock()

	now := time.Now()
	var job *PrintJob
	for _, j := range q.jobs {
		if j.Status == JobQueued && !now.Before(j.notBefore) {
			job = j
			break
		}
	}
	if job == nil {
		q.mu.Unlock()
		return nil
	}

	job.Status = JobPrinting
	job.UpdatedAt = now
	snapshot, cb := *job, q.onStatus
	q.mu.Unlock()

	if cb != nil {
		cb(snapshot)
	}
	return job
}

func (q *PrintQueue) print(job *PrintJob) error {
	if !q.pool.IsConnected(job.PrinterID) {
		device, ok := q.devices.Device(job.PrinterID)
		if !ok {
			return fmt.Errorf("printer not found: %s", job.PrinterID)
		}

		if err := q.pool.Connect(&device); err != nil {
			return fmt.Errorf("failed to connect to printer: %w", err)
		}
	}

	return q.pool.Send(job.PrinterID, job.Payload)
}

// Job returns a copy of a job by ID
func (q *PrintQueue) Job(id string) (PrintJob, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, job := range q.jobs {
		if job.ID == id {
			return *job, true
		}
	}
	return PrintJob{}, false
}

// Jobs returns copies of all jobs in submission order
func (q *PrintQueue) Jobs() []PrintJob {
	q.mu.Lock()
	defer q.mu.Unlock()

	jobs := make([]PrintJob, len(q.jobs))
	for i, job := range q.jobs {
		jobs[i] = *job
	}
	return jobs
}

// ClearCompleted forgets jobs that have printed
func (q *PrintQueue) ClearCompleted() {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.jobs[:0]
	for _, job := range q.jobs {
		if job.Status != JobCompleted {
			kept = append(kept, job)
		}
	}
	clear(q.jobs[len(kept):])
	q.jobs = kept
}

// Stop ends the worker and waits for it to return
func (q *PrintQueue) Stop() {
	q.cancel()
	q.wg.Wait()
}
