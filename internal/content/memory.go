package content

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/inote-dev/inote/internal/apperr"
	"github.com/inote-dev/inote/internal/models"
)

// MemoryNoteStore is an in-process NoteStore for tests.
type MemoryNoteStore struct {
	mu     sync.Mutex
	nextID uint
	notes  map[uint]models.Note
}

func NewMemoryNoteStore() *MemoryNoteStore {
	return &MemoryNoteStore{notes: make(map[uint]models.Note)}
}

func (m *MemoryNoteStore) List(ctx context.Context) ([]models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Note, 0, len(m.notes))
	for _, n := range m.notes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryNoteStore) GetByID(ctx context.Context, id uint) (*models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.notes[id]
	if !ok {
		return nil, apperr.NotFound(msgNoteNotFound)
	}
	return &n, nil
}

func (m *MemoryNoteStore) Create(ctx context.Context, note *models.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	now := time.Now()
	note.ID = m.nextID
	note.CreatedAt = now
	note.UpdatedAt = now
	m.notes[note.ID] = *note
	return nil
}

func (m *MemoryNoteStore) Update(ctx context.Context, id uint, patch NotePatch) (*models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.notes[id]
	if !ok {
		return nil, apperr.NotFound(msgNoteNotFound)
	}
	assign(&n.By, patch.By)
	assign(&n.Title, patch.Title)
	assign(&n.Category, patch.Category)
	assign(&n.Note, patch.Note)
	n.UpdatedAt = time.Now()
	m.notes[id] = n
	return &n, nil
}

func (m *MemoryNoteStore) Delete(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.notes[id]; !ok {
		return apperr.NotFound(msgNoteNotFound)
	}
	delete(m.notes, id)
	return nil
}

// MemoryTaskStore is an in-process TaskStore for tests.
type MemoryTaskStore struct {
	mu     sync.Mutex
	nextID uint
	tasks  map[uint]models.Task
}

func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{tasks: make(map[uint]models.Task)}
}

func (m *MemoryTaskStore) List(ctx context.Context) ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryTaskStore) GetByID(ctx context.Context, id uint) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok {
		return nil, apperr.NotFound(msgTaskNotFound)
	}
	return &t, nil
}

func (m *MemoryTaskStore) Create(ctx context.Context, task *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	now := time.Now()
	task.ID = m.nextID
	task.CreatedAt = now
	task.UpdatedAt = now
	m.tasks[task.ID] = *task
	return nil
}

func (m *MemoryTaskStore) Update(ctx context.Context, id uint, patch TaskPatch) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok {
		return nil, apperr.NotFound(msgTaskNotFound)
	}
	assign(&t.By, patch.By)
	assign(&t.Title, patch.Title)
	assign(&t.Category, patch.Category)
	if patch.TaskItems != nil {
		t.TaskItems = *patch.TaskItems
	}
	t.UpdatedAt = time.Now()
	m.tasks[id] = t
	return &t, nil
}

func (m *MemoryTaskStore) Delete(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tasks[id]; !ok {
		return apperr.NotFound(msgTaskNotFound)
	}
	delete(m.tasks, id)
	return nil
}

func assign(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

var (
	_ NoteStore = (*NoteRepository)(nil)
	_ NoteStore = (*MemoryNoteStore)(nil)
	_ TaskStore = (*TaskRepository)(nil)
	_ TaskStore = (*MemoryTaskStore)(nil)
)
