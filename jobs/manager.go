package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/adamspd/FlashMind/ai"
	"github.com/adamspd/FlashMind/auth"
	"github.com/adamspd/FlashMind/models"
	"github.com/adamspd/FlashMind/utils"
)

const (
	TypeGenerateDeck = "deck:generate"
	TypeSendEmail    = "email:send"
)

const (
	queueCritical = "critical"
	queueDefault  = "default"
	queueLow      = "low"
)

// ErrJobNotFound covers unknown ids as well as jobs queued by another user.
var ErrJobNotFound = errors.New("job not found")

// DeckStore is the part of the database the generate worker needs.
type DeckStore interface {
	CreateDeckWithCards(userID int, title, difficulty string, cards []models.GeneratedCard) (*models.GenerateResponse, error)
}

type JobManager struct {
	client    *asynq.Client
	server    *asynq.Server
	inspector *asynq.Inspector
	mux       *asynq.ServeMux
}

type GeneratePayload struct {
	UserID     int    `json:"user_id"`
	Title      string `json:"title"`
	Difficulty string `json:"difficulty"`
	Text       string `json:"text"`
}

type GenerateResult struct {
	DeckID int `json:"deck_id"`
	Cards  int `json:"cards"`
}

type EmailPayload struct {
	To       string            `json:"to"`
	Subject  string            `json:"subject"`
	Body     string            `json:"body"`
	Type     string            `json:"type"`
	Metadata map[string]string `json:"metadata"`
}

func NewJobManager(redisURL string) (*JobManager, error) {
	redisOpt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 4,
		Queues: map[string]int{
			queueCritical: 6, // deck generation, a user is waiting on it
			queueDefault:  3,
			queueLow:      1, // welcome emails
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			utils.LogError("Job failed: type=%s error=%v", task.Type(), err)
		}),
		Logger: &AsynqLogger{},
	})

	return &JobManager{
		client:    asynq.NewClient(redisOpt),
		server:    server,
		inspector: asynq.NewInspector(redisOpt),
		mux:       asynq.NewServeMux(),
	}, nil
}

func (jm *JobManager) RegisterHandlers(generator ai.Generator, store DeckStore, mailer auth.Mailer) {
	jm.mux.HandleFunc(TypeGenerateDeck, handleGenerateDeck(generator, store))
	jm.mux.HandleFunc(TypeSendEmail, handleSendEmail(mailer))
}

// Start runs the worker in the background.
func (jm *JobManager) Start() error {
	utils.LogStartup("Starting job queue worker...")
	return jm.server.Start(jm.mux)
}

func (jm *JobManager) Stop() {
	utils.LogShutdown("Stopping job queue...")
	jm.server.Shutdown()
	jm.client.Close()
	jm.inspector.Close()
}

// QueueGeneration enqueues a deck generation and returns the job id the
// client polls with GET /jobs/{id}.
func (jm *JobManager) QueueGeneration(userID int, req models.GenerateRequest) (string, error) {
	payload, err := json.Marshal(GeneratePayload{
		UserID:     userID,
		Title:      req.Title,
		Difficulty: req.Difficulty,
		Text:       req.Text,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal generate payload: %w", err)
	}

	jobID := uuid.NewString()
	info, err := jm.client.Enqueue(asynq.NewTask(TypeGenerateDeck, payload),
		asynq.TaskID(jobID),
		asynq.Queue(queueCritical),
		asynq.MaxRetry(2),
		asynq.Timeout(3*time.Minute),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue generate task: %w", err)
	}

	utils.LogJob("Queued generation job: ID=%s user=%d difficulty=%s", info.ID, userID, req.Difficulty)
	return info.ID, nil
}

func (jm *JobManager) JobStatus(jobID string, userID int) (*models.JobStatus, error) {
	info, err := jm.inspector.GetTaskInfo(queueCritical, jobID)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("inspect job %s: %w", jobID, err)
	}
	return statusFromInfo(info, userID)
}

func statusFromInfo(info *asynq.TaskInfo, userID int) (*models.JobStatus, error) {
	if info.Type != TypeGenerateDeck {
		return nil, ErrJobNotFound
	}

	var payload GeneratePayload
	if err := json.Unmarshal(info.Payload, &payload); err != nil || payload.UserID != userID {
		return nil, ErrJobNotFound
	}

	status := &models.JobStatus{
		JobID: info.ID,
		State: info.State.String(),
	}

	switch info.State {
	case asynq.TaskStateCompleted:
		var result GenerateResult
		if err := json.Unmarshal(info.Result, &result); err == nil {
			status.DeckID = result.DeckID
		}
	case asynq.TaskStateRetry, asynq.TaskStateArchived:
		status.Error = info.LastErr
	}
	return status, nil
}

// QueueEmail enqueues any email
func (jm *JobManager) QueueEmail(to, subject, body, emailType string, metadata map[string]string, priority string) error {
	if metadata == nil {
		metadata = make(map[string]string)
	}

	payloadBytes, err := json.Marshal(EmailPayload{
		To:       to,
		Subject:  subject,
		Body:     body,
		Type:     emailType,
		Metadata: metadata,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}

	queue, maxRetries, timeout := queueDefault, 3, 60*time.Second
	switch priority {
	case queueCritical:
		queue, maxRetries, timeout = queueCritical, 5, 120*time.Second
	case queueLow:
		queue, maxRetries, timeout = queueLow, 2, 30*time.Second
	}

	info, err := jm.client.Enqueue(asynq.NewTask(TypeSendEmail, payloadBytes),
		asynq.Queue(queue),
		asynq.MaxRetry(maxRetries),
		asynq.Timeout(timeout),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue email task: %w", err)
	}

	utils.LogJob("Queued email job: ID=%s type=%s to=%s priority=%s", info.ID, emailType, to, queue)
	return nil
}

func (jm *JobManager) QueueWelcomeEmail(to, subject, body string, userID int) error {
	metadata := map[string]string{
		"user_id": fmt.Sprintf("%d", userID),
	}
	return jm.QueueEmail(to, subject, body, "welcome", metadata, queueLow)
}

func handleGenerateDeck(generator ai.Generator, store DeckStore) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload GeneratePayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("failed to unmarshal generate payload: %v: %w", err, asynq.SkipRetry)
		}

		utils.LogJob("Processing generation job: user=%d title=%q", payload.UserID, payload.Title)

		if generator == nil {
			return fmt.Errorf("no AI provider configured: %w", asynq.SkipRetry)
		}

		cards, err := generator.Generate(ctx, payload.Text, payload.Difficulty)
		if err != nil {
			if errors.Is(err, ai.ErrNoCards) {
				return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
			}
			return err
		}

		deck, err := store.CreateDeckWithCards(payload.UserID, payload.Title, payload.Difficulty, cards)
		if err != nil {
			return fmt.Errorf("store generated deck: %w", err)
		}

		result, err := json.Marshal(GenerateResult{DeckID: deck.DeckID, Cards: len(deck.Cards)})
		if err != nil {
			return err
		}
		if w := task.ResultWriter(); w != nil {
			if _, err := w.Write(result); err != nil {
				return fmt.Errorf("write job result: %w", err)
			}
		}

		utils.LogJob("Generation job finished: deck=%d cards=%d", deck.DeckID, len(deck.Cards))
		return nil
	}
}

func handleSendEmail(mailer auth.Mailer) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload EmailPayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("failed to unmarshal email payload: %v: %w", err, asynq.SkipRetry)
		}

		utils.LogJob("Processing email job: type=%s to=%s subject=%s", payload.Type, payload.To, payload.Subject)

		if err := mailer.SendEmail(payload.To, payload.Subject, payload.Body); err != nil {
			return fmt.Errorf("failed to send %s email to %s (metadata: %v): %w",
				payload.Type, payload.To, payload.Metadata, err)
		}

		utils.LogJob("Successfully sent %s email to %s", payload.Type, payload.To)
		return nil
	}
}

// AsynqLogger routes queue logs through the utils loggers
type AsynqLogger struct{}

func (l *AsynqLogger) Debug(args ...interface{}) {
	utils.LogDebug("%s", fmt.Sprint(args...))
}

func (l *AsynqLogger) Info(args ...interface{}) {
	utils.LogJob("%s", fmt.Sprint(args...))
}

func (l *AsynqLogger) Warn(args ...interface{}) {
	utils.LogError("%s", fmt.Sprint(args...))
}

func (l *AsynqLogger) Error(args ...interface{}) {
	utils.LogError("%s", fmt.Sprint(args...))
}

func (l *AsynqLogger) Fatal(args ...interface{}) {
	utils.LogError("%s", fmt.Sprint(args...))
}
