package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/Tomlord1122/otp-todo/internal/domain"
	"github.com/Tomlord1122/otp-todo/internal/mailer"
)

type memoryRepo struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]domain.Task
	err    error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: map[uint]domain.Task{}}
}

func (r *memoryRepo) Create(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.nextID++
	task.ID = r.nextID
	r.rows[task.ID] = *task
	return nil
}

func (r *memoryRepo) FindByID(_ context.Context, id uint) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	task, ok := r.rows[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return &task, nil
}

func (r *memoryRepo) GetAll(_ context.Context) ([]domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	tasks := make([]domain.Task, 0, len(r.rows))
	for _, t := range r.rows {
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

func (r *memoryRepo) Update(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[task.ID]; !ok {
		return domain.ErrTaskNotFound
	}
	r.rows[task.ID] = *task
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.rows, id)
	return nil
}

type recordingSender struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return s.err
}

var errSMTPDown = errors.New("smtp: connection refused")
