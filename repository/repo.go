package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lesson-content-service/content"
	"lesson-content-service/entities"
)

var (
	ErrValidation = errors.New("validation error")
	ErrRepository = errors.New("repository error")
	ErrNotFound   = errors.New("lesson not found")
)

// LessonFields is the partial field update merged on edit. Contents are always
// replaced whole, never patched in place.
type LessonFields struct {
	Title    *string
	Position *int
}

type LessonRepository interface {
	Create(ctx context.Context, lesson *entities.Lesson) (*entities.Lesson, error)
	Update(ctx context.Context, id uuid.UUID, fields LessonFields, contents []entities.ContentItem) (*entities.Lesson, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindById(ctx context.Context, id uuid.UUID) (*entities.Lesson, error)
	ListByCourse(ctx context.Context, courseId uuid.UUID) ([]*entities.Lesson, error)
	UpdatePosition(ctx context.Context, id uuid.UUID, position int) error
}

type repo struct {
	db *gorm.DB
}

func NewRepo(db *sql.DB) LessonRepository {
	gormDB, _ := gorm.Open(postgres.New(postgres.Config{
		Conn: db}),
		&gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		},
	)
	return &repo{
		db: gormDB,
	}
}

func (r *repo) GetDB() *gorm.DB {
	return r.db
}

// Create persists a new lesson, recomputing the aggregate content type from the
// contents so the stored label can never drift. The assigned id is returned on
// the stored row.
func (r *repo) Create(ctx context.Context, lesson *entities.Lesson) (*entities.Lesson, error) {
	if strings.TrimSpace(lesson.Title) == "" {
		return nil, errors.Join(ErrValidation, errors.New("lesson title is required"))
	}
	if lesson.Id == uuid.Nil {
		lesson.Id = uuid.New()
	}
	lesson.ContentType = content.Classify(lesson.Contents)

	if err := r.GetDB().WithContext(ctx).Create(lesson).Error; err != nil {
		return nil, errors.Join(ErrRepository, err)
	}
	return lesson, nil
}

// Update merges the partial title/position fields and replaces the content list
// whole, recomputing the aggregate content type. Returns the stored row.
func (r *repo) Update(ctx context.Context, id uuid.UUID, fields LessonFields, contents []entities.ContentItem) (*entities.Lesson, error) {
	updates := map[string]interface{}{
		"contents":     datatypes.NewJSONSlice(contents),
		"content_type": content.Classify(contents),
	}
	if fields.Title != nil {
		if strings.TrimSpace(*fields.Title) == "" {
			return nil, errors.Join(ErrValidation, errors.New("lesson title is required"))
		}
		updates["title"] = *fields.Title
	}
	if fields.Position != nil {
		updates["position"] = *fields.Position
	}

	result := r.GetDB().WithContext(ctx).Model(&entities.Lesson{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, errors.Join(ErrRepository, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.FindById(ctx, id)
}

// Delete removes the lesson row only. Uploaded blobs are left in place,
// deletion does not cascade to storage.
func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.GetDB().WithContext(ctx).Delete(&entities.Lesson{}, "id = ?", id).Error; err != nil {
		return errors.Join(ErrRepository, err)
	}
	return nil
}

func (r *repo) FindById(ctx context.Context, id uuid.UUID) (*entities.Lesson, error) {
	lesson := &entities.Lesson{}
	err := r.GetDB().WithContext(ctx).First(lesson, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrRepository, err)
	}
	return lesson, nil
}

func (r *repo) ListByCourse(ctx context.Context, courseId uuid.UUID) ([]*entities.Lesson, error) {
	var lessons []*entities.Lesson
	err := r.GetDB().WithContext(ctx).Where("course_id = ?", courseId).Order("position ASC").Find(&lessons).Error
	if err != nil {
		return nil, errors.Join(ErrRepository, err)
	}
	return lessons, nil
}

// UpdatePosition writes a single position value. The reorder swap issues two of
// these sequentially with no transaction, matching the backend's lack of an
// atomicity guarantee; recovery from a half-applied swap is a full re-list.
func (r *repo) UpdatePosition(ctx context.Context, id uuid.UUID, position int) error {
	err := r.GetDB().WithContext(ctx).Model(&entities.Lesson{}).Where("id = ?", id).Update("position", position).Error
	if err != nil {
		return errors.Join(ErrRepository, err)
	}
	return nil
}
