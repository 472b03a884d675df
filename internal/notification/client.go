package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Worker pulls notification jobs off the shared pool and delivers them.
type Worker struct {
	ID         int
	WorkerPool chan chan Notification
	JobChannel chan Notification
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan Notification, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Notification),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, sendFunc func(Notification)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {

			w.WorkerPool <- w.JobChannel

			select {
			case job := <-w.JobChannel:
				w.Logger.Debug("worker delivering notification", "worker_id", w.ID, "user_id", job.UserID, "type", job.Type)
				sendFunc(job)
			case <-ctx.Done():
				w.Logger.Debug("worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

// Client pushes notifications to the external notification service through a
// bounded worker pool. Enqueueing never blocks the caller; a full queue drops
// the notification with a warning.
type Client struct {
	baseURL     string
	apiKey      string
	sendTimeout time.Duration
	logger      *slog.Logger

	jobQueue   chan Notification
	workerPool chan chan Notification
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

type Config struct {
	BaseURL        string
	APIKey         string
	SendTimeout    time.Duration
	MaxWorkers     int
	JobQueueSize   int
	WorkerPoolSize int
}

func NewClient(config Config, logger *slog.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 5
	}

	jobQueueSize := config.JobQueueSize
	if jobQueueSize <= 0 {
		jobQueueSize = 100
	}

	workerPoolSize := config.WorkerPoolSize
	if workerPoolSize <= 0 {
		workerPoolSize = maxWorkers
	}

	sendTimeout := config.SendTimeout
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}

	client := &Client{
		baseURL:     config.BaseURL,
		apiKey:      config.APIKey,
		sendTimeout: sendTimeout,
		logger:      logger,

		maxWorkers: maxWorkers,
		jobQueue:   make(chan Notification, jobQueueSize),
		workerPool: make(chan chan Notification, workerPoolSize),
		ctx:        ctx,
		cancel:     cancel,
	}

	client.startWorkerPool()

	return client
}

func (c *Client) startWorkerPool() {
	c.once.Do(func() {

		for i := 0; i < c.maxWorkers; i++ {
			worker := NewWorker(i, c.workerPool, c.logger)
			worker.Start(c.ctx, &c.wg, c.deliver)
		}

		go c.dispatch()

		c.logger.Info("notification worker pool started",
			"max_workers", c.maxWorkers,
			"queue_size", cap(c.jobQueue))
	})
}

func (c *Client) dispatch() {
	c.wg.Add(1)
	defer c.wg.Done()

	for {
		select {
		case job := <-c.jobQueue:

			select {
			case jobChannel := <-c.workerPool:

				select {
				case jobChannel <- job:

				case <-c.ctx.Done():
					c.logger.Info("notification dispatcher shutting down")
					return
				}
			case <-c.ctx.Done():
				c.logger.Info("notification dispatcher shutting down")
				return
			}
		case <-c.ctx.Done():
			c.logger.Info("notification dispatcher shutting down")
			return
		}
	}
}

func (c *Client) Shutdown() {
	c.logger.Info("shutting down notification client")
	c.cancel()
	c.wg.Wait()
	c.logger.Info("notification client shutdown complete")
}

// Notify queues a notification for delivery. Always returns nil on a queued
// notification; only a full queue surfaces as an error, and even then the
// caller is expected to log and move on.
func (c *Client) Notify(n Notification) error {
	if n.UserID <= 0 || n.Type == "" {
		return fmt.Errorf("notification requires a user_id and type")
	}

	select {
	case c.jobQueue <- n:
		c.logger.Debug("notification queued",
			"user_id", n.UserID,
			"type", n.Type,
			"queue_length", len(c.jobQueue))
		return nil
	default:
		c.logger.Warn("notification queue full, dropping",
			"user_id", n.UserID,
			"type", n.Type,
			"queue_capacity", cap(c.jobQueue))
		return fmt.Errorf("notification queue full")
	}
}

func (c *Client) deliver(n Notification) {
	jsonData, err := json.Marshal(n)
	if err != nil {
		c.logger.Error("failed to marshal notification", "error", err, "user_id", n.UserID)
		return
	}

	ctx, cancel := context.WithTimeout(c.ctx, c.sendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/notifications", bytes.NewBuffer(jsonData))
	if err != nil {
		c.logger.Error("failed to create notification request", "error", err, "user_id", n.UserID)
		return
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	client := &http.Client{Timeout: c.sendTimeout}
	resp, err := client.Do(req)
	if err != nil {
		c.logger.Error("notification delivery failed",
			"error", err,
			"user_id", n.UserID,
			"type", n.Type)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		c.logger.Warn("notification service returned error",
			"status_code", resp.StatusCode,
			"user_id", n.UserID,
			"type", n.Type)
		return
	}

	c.logger.Info("notification delivered",
		"user_id", n.UserID,
		"type", n.Type)
}
