package content

import (
	"context"

	"github.com/inote-dev/inote/internal/apperr"
	"github.com/inote-dev/inote/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const msgTaskNotFound = "Task not found"

// TaskPatch holds the fields of a partial update. Nil fields are unchanged.
type TaskPatch struct {
	By        *string
	Title     *string
	Category  *string
	TaskItems *datatypes.JSON
}

// TaskStore is the storage seam for tasks.
type TaskStore interface {
	List(ctx context.Context) ([]models.Task, error)
	GetByID(ctx context.Context, id uint) (*models.Task, error)
	Create(ctx context.Context, task *models.Task) error
	Update(ctx context.Context, id uint, patch TaskPatch) (*models.Task, error)
	Delete(ctx context.Context, id uint) error
}

// TaskRepository is the gorm-backed TaskStore.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) List(ctx context.Context) ([]models.Task, error) {
	tasks := []models.Task{}
	if err := r.db.WithContext(ctx).Order("id").Find(&tasks).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return tasks, nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id uint) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return nil, apperr.FromDB(err, msgTaskNotFound)
	}
	return &task, nil
}

func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return apperr.FromDB(err, "")
	}
	return nil
}

func (r *TaskRepository) Update(ctx context.Context, id uint, patch TaskPatch) (*models.Task, error) {
	var task models.Task

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&task, id).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{}
		setIfPresent(updates, "by", patch.By)
		setIfPresent(updates, "title", patch.Title)
		setIfPresent(updates, "category", patch.Category)
		if patch.TaskItems != nil {
			updates["task_items"] = *patch.TaskItems
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(&task).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&task, id).Error
	})
	if err != nil {
		return nil, apperr.FromDB(err, msgTaskNotFound)
	}

	return &task, nil
}

func (r *TaskRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Task{})
	if result.Error != nil {
		return apperr.Internal(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound(msgTaskNotFound)
	}
	return nil
}
