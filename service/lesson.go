package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"lesson-content-service/constant"
	"lesson-content-service/content"
	"lesson-content-service/entities"
	"lesson-content-service/pkg/storage"
	"lesson-content-service/repository"
)

// AddLessonInput carries one add-lesson submission. A video can arrive as a
// pasted URL or an uploaded file; pdf and doc files are uploaded per category,
// in order.
type AddLessonInput struct {
	CourseId uuid.UUID
	Title    string
	Position int // 0 appends after the last lesson
	VideoUrl string
	Video    *storage.File
	Pdfs     []storage.File
	Docs     []storage.File
}

// EditLessonInput carries one edit submission. Retained is the draft content
// list after any client-side removals; it replaces the stored list whole,
// with new uploads merged in.
type EditLessonInput struct {
	Title    string
	Position int
	Retained []entities.ContentItem
	VideoUrl string
	Video    *storage.File
	Pdfs     []storage.File
	Docs     []storage.File
}

// Playback is what the lesson player renders.
type Playback struct {
	LessonId uuid.UUID          `json:"lesson_id"`
	Title    string             `json:"title"`
	Items    []content.Playable `json:"items"`
}

type LessonService interface {
	Add(ctx context.Context, in AddLessonInput) (*entities.Lesson, error)
	Edit(ctx context.Context, id uuid.UUID, in EditLessonInput) (*entities.Lesson, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, courseId uuid.UUID) ([]*entities.Lesson, error)
	Move(ctx context.Context, id uuid.UUID, direction constant.MoveDirection) ([]*entities.Lesson, error)
	Playable(ctx context.Context, id uuid.UUID) (*Playback, error)
}

type lessonService struct {
	repo     repository.LessonRepository
	uploader storage.Uploader
	resolver content.Resolver

	// Per-course ordered snapshot handed to UI callers. The repository stays
	// the source of truth: any failed reorder replaces the snapshot with a
	// fresh list instead of trusting optimistic local state.
	mu    sync.Mutex
	cache map[uuid.UUID][]*entities.Lesson
}

func NewLessonService(repo repository.LessonRepository, uploader storage.Uploader, resolver content.Resolver) LessonService {
	return &lessonService{
		repo:     repo,
		uploader: uploader,
		resolver: resolver,
		cache:    make(map[uuid.UUID][]*entities.Lesson),
	}
}

func (s *lessonService) Add(ctx context.Context, in AddLessonInput) (*entities.Lesson, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, errValidation("lesson title is required")
	}

	contents, err := s.collectContents(ctx, in.CourseId, in.VideoUrl, in.Video, in.Pdfs, in.Docs)
	if err != nil {
		// Any upload failure aborts the whole add, nothing is persisted.
		return nil, err
	}

	position := in.Position
	if position <= 0 {
		existing, err := s.repo.ListByCourse(ctx, in.CourseId)
		if err != nil {
			return nil, err
		}
		position = lastPosition(existing) + 1
	}

	lesson, err := s.repo.Create(ctx, &entities.Lesson{
		CourseId: in.CourseId,
		Title:    in.Title,
		Position: position,
		Contents: contents,
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("lesson_id", lesson.Id.String()).
		Str("content_type", lesson.ContentType).
		Int("position", lesson.Position).
		Msg("lesson added")

	s.cacheAppend(lesson)
	return lesson, nil
}

func (s *lessonService) Edit(ctx context.Context, id uuid.UUID, in EditLessonInput) (*entities.Lesson, error) {
	contents := make([]entities.ContentItem, len(in.Retained))
	copy(contents, in.Retained)

	videoUrl := strings.TrimSpace(in.VideoUrl)
	if videoUrl != "" && !hasVideoItem(contents, videoUrl) {
		contents = append([]entities.ContentItem{{
			Type: constant.ContentTypeVideo.String(),
			Url:  videoUrl,
			Name: "Video URL",
		}}, contents...)
	}

	existing, err := s.repo.FindById(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Video != nil {
		uploaded, err := s.uploadOne(ctx, existing.CourseId, constant.PrefixVideo, constant.ContentTypeVideo, *in.Video)
		if err != nil {
			return nil, err
		}
		contents = append([]entities.ContentItem{*uploaded}, contents...)
	}

	uploaded, err := s.uploadDocuments(ctx, existing.CourseId, in.Pdfs, in.Docs)
	if err != nil {
		return nil, err
	}
	contents = append(contents, uploaded...)

	fields := repository.LessonFields{}
	if in.Title != "" {
		fields.Title = &in.Title
	}
	if in.Position > 0 {
		fields.Position = &in.Position
	}

	lesson, err := s.repo.Update(ctx, id, fields, contents)
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("lesson_id", lesson.Id.String()).
		Str("content_type", lesson.ContentType).
		Msg("lesson updated")

	s.cacheReplace(lesson)
	return lesson, nil
}

func (s *lessonService) Delete(ctx context.Context, id uuid.UUID) error {
	lesson, err := s.repo.FindById(ctx, id)
	if err != nil {
		return err
	}
	// Row only; uploaded blobs are deliberately left behind.
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cacheRemove(lesson.CourseId, id)
	zerolog.Ctx(ctx).Info().Str("lesson_id", id.String()).Msg("lesson deleted")
	return nil
}

func (s *lessonService) List(ctx context.Context, courseId uuid.UUID) ([]*entities.Lesson, error) {
	lessons, err := s.repo.ListByCourse(ctx, courseId)
	if err != nil {
		return nil, err
	}
	s.cacheSet(courseId, lessons)
	return lessons, nil
}

// Move swaps the target lesson's position with its neighbour in the given
// direction. The two position writes are sequential and independently fallible;
// when the second fails after the first succeeded the snapshot is resynced from
// the repository rather than trusting the half-applied local state. Boundary
// moves are no-ops.
func (s *lessonService) Move(ctx context.Context, id uuid.UUID, direction constant.MoveDirection) ([]*entities.Lesson, error) {
	lesson, err := s.repo.FindById(ctx, id)
	if err != nil {
		return nil, err
	}

	lessons, err := s.repo.ListByCourse(ctx, lesson.CourseId)
	if err != nil {
		return nil, err
	}

	idx := indexOf(lessons, id)
	if idx < 0 {
		return nil, repository.ErrNotFound
	}

	var neighbour *entities.Lesson
	switch direction {
	case constant.MoveUp:
		if idx == 0 {
			s.cacheSet(lesson.CourseId, lessons)
			return lessons, nil
		}
		neighbour = lessons[idx-1]
	case constant.MoveDown:
		if idx == len(lessons)-1 {
			s.cacheSet(lesson.CourseId, lessons)
			return lessons, nil
		}
		neighbour = lessons[idx+1]
	default:
		return nil, errValidation("unknown move direction")
	}

	target := lessons[idx]
	targetPos, neighbourPos := target.Position, neighbour.Position

	if err := s.repo.UpdatePosition(ctx, target.Id, neighbourPos); err != nil {
		return lessons, err
	}
	if err := s.repo.UpdatePosition(ctx, neighbour.Id, targetPos); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).
			Str("lesson_id", target.Id.String()).
			Msg("second position write failed, resyncing from repository")
		fresh, listErr := s.repo.ListByCourse(ctx, lesson.CourseId)
		if listErr != nil {
			return nil, listErr
		}
		s.cacheSet(lesson.CourseId, fresh)
		return fresh, err
	}

	target.Position, neighbour.Position = neighbourPos, targetPos
	sortByPosition(lessons)
	s.cacheSet(lesson.CourseId, lessons)
	return lessons, nil
}

func (s *lessonService) Playable(ctx context.Context, id uuid.UUID) (*Playback, error) {
	lesson, err := s.repo.FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Playback{
		LessonId: lesson.Id,
		Title:    lesson.Title,
		Items:    s.resolver.ResolveLesson(ctx, lesson),
	}, nil
}

// collectContents assembles the content list for an add: pasted video URL
// first, then an uploaded video, then pdf and doc uploads per category.
func (s *lessonService) collectContents(ctx context.Context, courseId uuid.UUID, videoUrl string, video *storage.File, pdfs, docs []storage.File) ([]entities.ContentItem, error) {
	var contents []entities.ContentItem

	if trimmed := strings.TrimSpace(videoUrl); trimmed != "" {
		contents = append(contents, entities.ContentItem{
			Type: constant.ContentTypeVideo.String(),
			Url:  trimmed,
			Name: "Video URL",
		})
	}
	if video != nil {
		item, err := s.uploadOne(ctx, courseId, constant.PrefixVideo, constant.ContentTypeVideo, *video)
		if err != nil {
			return nil, err
		}
		contents = append(contents, *item)
	}

	uploaded, err := s.uploadDocuments(ctx, courseId, pdfs, docs)
	if err != nil {
		return nil, err
	}
	return append(contents, uploaded...), nil
}

func (s *lessonService) uploadDocuments(ctx context.Context, courseId uuid.UUID, pdfs, docs []storage.File) ([]entities.ContentItem, error) {
	var contents []entities.ContentItem
	for _, file := range pdfs {
		item, err := s.uploadOne(ctx, courseId, constant.PrefixPdf, constant.ContentTypePdf, file)
		if err != nil {
			return nil, err
		}
		contents = append(contents, *item)
	}
	for _, file := range docs {
		item, err := s.uploadOne(ctx, courseId, constant.PrefixDoc, constant.ContentTypeDoc, file)
		if err != nil {
			return nil, err
		}
		contents = append(contents, *item)
	}
	return contents, nil
}

func (s *lessonService) uploadOne(ctx context.Context, courseId uuid.UUID, prefix string, contentType constant.ContentType, file storage.File) (*entities.ContentItem, error) {
	object, err := s.uploader.Upload(ctx, courseId.String(), prefix, file)
	if err != nil {
		return nil, err
	}
	url := object.Url
	if url == "" {
		// No public URL yet; store the path, the resolver expands it at read time.
		url = object.Path
	}
	return &entities.ContentItem{
		Type: contentType.String(),
		Url:  url,
		Name: object.Name,
	}, nil
}

func hasVideoItem(items []entities.ContentItem, url string) bool {
	for _, item := range items {
		if item.Type == constant.ContentTypeVideo.String() && item.Url == url {
			return true
		}
	}
	return false
}

func lastPosition(lessons []*entities.Lesson) int {
	last := 0
	for _, lesson := range lessons {
		if lesson.Position > last {
			last = lesson.Position
		}
	}
	return last
}

func indexOf(lessons []*entities.Lesson, id uuid.UUID) int {
	for i, lesson := range lessons {
		if lesson.Id == id {
			return i
		}
	}
	return -1
}

func sortByPosition(lessons []*entities.Lesson) {
	sort.SliceStable(lessons, func(i, j int) bool {
		return lessons[i].Position < lessons[j].Position
	})
}

func (s *lessonService) cacheSet(courseId uuid.UUID, lessons []*entities.Lesson) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[courseId] = lessons
}

func (s *lessonService) cacheAppend(lesson *entities.Lesson) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[lesson.CourseId] = append(s.cache[lesson.CourseId], lesson)
}

func (s *lessonService) cacheReplace(lesson *entities.Lesson) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lessons := s.cache[lesson.CourseId]
	for i, cached := range lessons {
		if cached.Id == lesson.Id {
			lessons[i] = lesson
			break
		}
	}
	sortByPosition(lessons)
}

func (s *lessonService) cacheRemove(courseId, id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lessons := s.cache[courseId]
	for i, cached := range lessons {
		if cached.Id == id {
			s.cache[courseId] = append(lessons[:i], lessons[i+1:]...)
			break
		}
	}
}
