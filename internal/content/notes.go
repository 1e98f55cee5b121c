// Package content stores notes and tasks. Both are plain records tagged with
// a free-text category and attributed to the author's display name.
package content

import (
	"context"

	"github.com/inote-dev/inote/internal/apperr"
	"github.com/inote-dev/inote/internal/models"
	"gorm.io/gorm"
)

const msgNoteNotFound = "Note not found"

// NotePatch holds the fields of a partial update. Nil fields are unchanged.
type NotePatch struct {
	By       *string
	Title    *string
	Category *string
	Note     *string
}

// NoteStore is the storage seam for notes.
type NoteStore interface {
	List(ctx context.Context) ([]models.Note, error)
	GetByID(ctx context.Context, id uint) (*models.Note, error)
	Create(ctx context.Context, note *models.Note) error
	Update(ctx context.Context, id uint, patch NotePatch) (*models.Note, error)
	Delete(ctx context.Context, id uint) error
}

// NoteRepository is the gorm-backed NoteStore.
type NoteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) List(ctx context.Context) ([]models.Note, error) {
	notes := []models.Note{}
	if err := r.db.WithContext(ctx).Order("id").Find(&notes).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return notes, nil
}

func (r *NoteRepository) GetByID(ctx context.Context, id uint) (*models.Note, error) {
	var note models.Note
	if err := r.db.WithContext(ctx).First(&note, id).Error; err != nil {
		return nil, apperr.FromDB(err, msgNoteNotFound)
	}
	return &note, nil
}

func (r *NoteRepository) Create(ctx context.Context, note *models.Note) error {
	if err := r.db.WithContext(ctx).Create(note).Error; err != nil {
		return apperr.FromDB(err, "")
	}
	return nil
}

func (r *NoteRepository) Update(ctx context.Context, id uint, patch NotePatch) (*models.Note, error) {
	var note models.Note

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&note, id).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{}
		setIfPresent(updates, "by", patch.By)
		setIfPresent(updates, "title", patch.Title)
		setIfPresent(updates, "category", patch.Category)
		setIfPresent(updates, "note", patch.Note)
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(&note).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&note, id).Error
	})
	if err != nil {
		return nil, apperr.FromDB(err, msgNoteNotFound)
	}

	return &note, nil
}

func (r *NoteRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Note{})
	if result.Error != nil {
		return apperr.Internal(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound(msgNoteNotFound)
	}
	return nil
}

func setIfPresent(updates map[string]interface{}, column string, value *string) {
	if value != nil {
		updates[column] = *value
	}
}
