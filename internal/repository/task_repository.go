package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Tomlord1122/otp-todo/internal/domain"
)

// TaskRepository defines the row store operations for tasks.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	FindByID(ctx context.Context, id uint) (*domain.Task, error)
	GetAll(ctx context.Context) ([]domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id uint) error
}

// gormTaskRepository implements TaskRepository using GORM
type gormTaskRepository struct {
	db *gorm.DB
}

func NewGormTaskRepository(db *gorm.DB) TaskRepository {
	return &gormTaskRepository{db: db}
}

// Create inserts the task; GORM fills in the generated ID.
func (r *gormTaskRepository) Create(ctx context.Context, task *domain.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// FindByID returns domain.ErrTaskNotFound when no row has the given ID.
func (r *gormTaskRepository) FindByID(ctx context.Context, id uint) (*domain.Task, error) {
	var task domain.Task
	result := r.db.WithContext(ctx).First(&task, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, result.Error
	}
	return &task, nil
}

// GetAll returns every task in insertion (ID) order.
func (r *gormTaskRepository) GetAll(ctx context.Context) ([]domain.Task, error) {
	var tasks []domain.Task
	result := r.db.WithContext(ctx).Order("id").Find(&tasks)
	if result.Error != nil {
		return nil, result.Error
	}
	return tasks, nil
}

// Update writes the task's columns back to its existing row. Unlike Save it
// never inserts, so a row deleted in the meantime yields domain.ErrTaskNotFound.
func (r *gormTaskRepository) Update(ctx context.Context, task *domain.Task) error {
	result := r.db.WithContext(ctx).
		Model(task).
		Select("description", "due_date", "completed").
		Updates(task)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// Delete permanently removes the row. It reports domain.ErrTaskNotFound when
// nothing was deleted, e.g. when a concurrent request removed it first.
func (r *gormTaskRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&domain.Task{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}
