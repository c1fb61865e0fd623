package service

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/Tomlord1122/otp-todo/internal/domain"
	"github.com/Tomlord1122/otp-todo/internal/mailer"
	"github.com/Tomlord1122/otp-todo/internal/repository"
)

var (
	// ErrTaskIncomplete means the description or due date was empty. Callers
	// skip creation silently.
	ErrTaskIncomplete = errors.New("task description and due date are required")
	// ErrTaskTooLong means a field exceeds its column size.
	ErrTaskTooLong = errors.New("task description or due date is too long")
)

// CreateTaskRequest holds the data needed to create a new task.
type CreateTaskRequest struct {
	Description string
	DueDate     string
	// NotifyEmail receives the "Task Added" confirmation. Empty skips it.
	NotifyEmail string
}

// TaskResponse is the representation of a Task returned by the service.
type TaskResponse struct {
	ID          uint   `json:"id"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"`
	Completed   bool   `json:"completed"`
}

// CreateTaskResult reports the created task and whether the confirmation
// email went out. A failed notification never undoes the creation.
type CreateTaskResult struct {
	Task             TaskResponse
	NotificationSent bool
}

// TaskService defines the operations for managing tasks.
type TaskService interface {
	ListTasks(ctx context.Context) ([]TaskResponse, error)
	CreateTask(ctx context.Context, req CreateTaskRequest) (*CreateTaskResult, error)
	// ToggleComplete flips the completed flag. Unknown IDs yield domain.ErrTaskNotFound.
	ToggleComplete(ctx context.Context, id uint) (*TaskResponse, error)
	// DeleteTask permanently removes the task. Unknown IDs yield domain.ErrTaskNotFound.
	DeleteTask(ctx context.Context, id uint) error
}

type taskService struct {
	repo   repository.TaskRepository
	mailer mailer.Sender
	log    zerolog.Logger
}

func NewTaskService(repo repository.TaskRepository, sender mailer.Sender, log zerolog.Logger) TaskService {
	return &taskService{
		repo:   repo,
		mailer: sender,
		log:    log.With().Str("component", "task_service").Logger(),
	}
}

func (s *taskService) ListTasks(ctx context.Context) ([]TaskResponse, error) {
	tasks, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	responses := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		responses = append(responses, toResponse(task))
	}
	return responses, nil
}

func (s *taskService) CreateTask(ctx context.Context, req CreateTaskRequest) (*CreateTaskResult, error) {
	if req.Description == "" || req.DueDate == "" {
		return nil, ErrTaskIncomplete
	}
	if utf8.RuneCountInString(req.Description) > domain.MaxDescriptionLength ||
		utf8.RuneCountInString(req.DueDate) > domain.MaxDueDateLength {
		return nil, ErrTaskTooLong
	}

	task := &domain.Task{
		Description: req.Description,
		DueDate:     req.DueDate,
		Completed:   false,
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	result := &CreateTaskResult{Task: toResponse(*task)}
	if req.NotifyEmail == "" {
		return result, nil
	}

	msg := mailer.TaskAddedMessage(req.NotifyEmail, task.Description, task.DueDate)
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.log.Error().Err(err).
			Uint("task_id", task.ID).
			Str("recipient", req.NotifyEmail).
			Msg("failed to send task email")
		return result, nil
	}
	result.NotificationSent = true
	return result, nil
}

func (s *taskService) ToggleComplete(ctx context.Context, id uint) (*TaskResponse, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find task %d: %w", id, err)
	}

	task.Completed = !task.Completed
	if err := s.repo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("update task %d: %w", id, err)
	}

	resp := toResponse(*task)
	return &resp, nil
}

func (s *taskService) DeleteTask(ctx context.Context, id uint) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return fmt.Errorf("find task %d: %w", id, err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	return nil
}

func toResponse(task domain.Task) TaskResponse {
	return TaskResponse{
		ID:          task.ID,
		Description: task.Description,
		DueDate:     task.DueDate,
		Completed:   task.Completed,
	}
}
