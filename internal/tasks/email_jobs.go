package tasks

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/idnofunny/backend/internal/email"
	"github.com/idnofunny/backend/internal/logger"
	"go.uber.org/zap"
)

// EmailKind selects which message an EmailJob delivers
type EmailKind string

const (
	EmailVerification  EmailKind = "verification"
	EmailPasswordReset EmailKind = "password_reset"
)

// EmailJob represents one queued email delivery
type EmailJob struct {
	ID           string     `json:"id"`
	Kind         EmailKind  `json:"kind"`
	ToEmail      string     `json:"to_email"`
	Payload      string     `json:"payload"` // code or reset token
	Status       string     `json:"status"`  // pending, processing, complete, failed
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
}

// EmailQueue delivers transactional email off the request path with a small
// worker pool. Handlers enqueue and return immediately; a full queue is a
// submit-time error instead of backpressure on the request.
type EmailQueue struct {
	jobs       chan *EmailJob
	results    map[string]*EmailJob
	resultsMux sync.RWMutex
	workers    int
	ctx        context.Context
	cancel     context.CancelFunc

	sender email.Sender

	// For testing: channel signaling job completion
	jobCompleted chan string
}

// NewEmailQueue creates a queue delivering through the given sender
func NewEmailQueue(sender email.Sender) *EmailQueue {
	ctx, cancel := context.WithCancel(context.Background())

	workers := runtime.NumCPU()
	if workers > 4 {
		workers = 4 // Email delivery is IO-bound, a few workers are plenty
	}

	return &EmailQueue{
		jobs:         make(chan *EmailJob, 100),
		results:      make(map[string]*EmailJob),
		workers:      workers,
		ctx:          ctx,
		cancel:       cancel,
		sender:       sender,
		jobCompleted: make(chan string, 100),
	}
}

// Start begins processing jobs with the worker pool
func (q *EmailQueue) Start() {
	logger.Log.Info("Starting email queue", zap.Int("workers", q.workers))

	for i := 0; i < q.workers; i++ {
		go q.worker(i)
	}
}

// Stop gracefully shuts down the queue
func (q *EmailQueue) Stop() {
	q.cancel()
	close(q.jobs)
}

// SubmitVerification queues a verification-code email
func (q *EmailQueue) SubmitVerification(toEmail, code string) (*EmailJob, error) {
	return q.submit(EmailVerification, toEmail, code)
}

// SubmitPasswordReset queues a password-recovery email
func (q *EmailQueue) SubmitPasswordReset(toEmail, resetToken string) (*EmailJob, error) {
	return q.submit(EmailPasswordReset, toEmail, resetToken)
}

func (q *EmailQueue) submit(kind EmailKind, toEmail, payload string) (*EmailJob, error) {
	job := &EmailJob{
		ID:        uuid.New().String(),
		Kind:      kind,
		ToEmail:   toEmail,
		Payload:   payload,
		Status:    "pending",
		CreatedAt: time.Now(),
	}

	q.resultsMux.Lock()
	q.results[job.ID] = job
	q.resultsMux.Unlock()

	select {
	case q.jobs <- job:
		return job, nil
	default:
		return nil, fmt.Errorf("email queue is full")
	}
}

// GetJobStatus returns the current status of a job
func (q *EmailQueue) GetJobStatus(jobID string) (*EmailJob, error) {
	q.resultsMux.RLock()
	defer q.resultsMux.RUnlock()

	job, exists := q.results[jobID]
	if !exists {
		return nil, fmt.Errorf("job not found")
	}
	return job, nil
}

// WaitForJobCompletion waits for a specific job to complete (for testing)
func (q *EmailQueue) WaitForJobCompletion(jobID string, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case completedJobID := <-q.jobCompleted:
			if completedJobID == jobID {
				return nil
			}
		case <-timer.C:
			return fmt.Errorf("timeout waiting for job %s", jobID)
		case <-q.ctx.Done():
			return fmt.Errorf("queue stopped")
		}
	}
}

// worker processes email jobs from the queue
func (q *EmailQueue) worker(workerID int) {
	logger.Log.Info("Email worker started", zap.Int("worker_id", workerID))

	for {
		select {
		case job := <-q.jobs:
			if job == nil {
				logger.Log.Info("Email worker shutting down", zap.Int("worker_id", workerID))
				return
			}

			q.processJob(workerID, job)

		case <-q.ctx.Done():
			logger.Log.Info("Email worker shutting down", zap.Int("worker_id", workerID))
			return
		}
	}
}

func (q *EmailQueue) processJob(workerID int, job *EmailJob) {
	q.updateJobStatus(job.ID, "processing", nil)

	ctx, cancel := context.WithTimeout(q.ctx, 30*time.Second)
	defer cancel()

	var err error
	switch job.Kind {
	case EmailVerification:
		err = q.sender.SendVerificationEmail(ctx, job.ToEmail, job.Payload)
	case EmailPasswordReset:
		err = q.sender.SendPasswordResetEmail(ctx, job.ToEmail, job.Payload)
	default:
		err = fmt.Errorf("unknown email kind: %s", job.Kind)
	}

	if err != nil {
		errMsg := err.Error()
		logger.Log.Error("Email delivery failed",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID),
			zap.String("kind", string(job.Kind)),
			zap.String("error", errMsg),
		)
		q.updateJobStatus(job.ID, "failed", &errMsg)
		q.signalCompletion(job.ID)
		return
	}

	logger.Log.Debug("Email delivered",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID),
		zap.String("kind", string(job.Kind)),
	)
	q.updateJobStatus(job.ID, "complete", nil)
	q.signalCompletion(job.ID)
}

func (q *EmailQueue) updateJobStatus(jobID, status string, errorMsg *string) {
	q.resultsMux.Lock()
	defer q.resultsMux.Unlock()

	job, exists := q.results[jobID]
	if !exists {
		return
	}

	job.Status = status
	job.ErrorMessage = errorMsg
	if status == "complete" || status == "failed" {
		now := time.Now()
		job.CompletedAt = &now
	}
}

func (q *EmailQueue) signalCompletion(jobID string) {
	select {
	case q.jobCompleted <- jobID:
	default:
		// Nobody is waiting, drop the signal
	}
}
