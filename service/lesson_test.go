package service

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lesson-content-service/constant"
	"lesson-content-service/content"
	"lesson-content-service/entities"
	"lesson-content-service/pkg/storage"
	"lesson-content-service/repository"
)

// fakeRepo mirrors the repository contract in memory, including the
// content-type recompute on every write.
type fakeRepo struct {
	lessons map[uuid.UUID]*entities.Lesson

	createCalls    int
	positionCalls  int
	failPositionOn int // fail the Nth UpdatePosition call, 0 never
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{lessons: make(map[uuid.UUID]*entities.Lesson)}
}

func (f *fakeRepo) Create(_ context.Context, lesson *entities.Lesson) (*entities.Lesson, error) {
	f.createCalls++
	if strings.TrimSpace(lesson.Title) == "" {
		return nil, repository.ErrValidation
	}
	if lesson.Id == uuid.Nil {
		lesson.Id = uuid.New()
	}
	lesson.ContentType = content.Classify(lesson.Contents)
	stored := *lesson
	f.lessons[lesson.Id] = &stored
	return lesson, nil
}

func (f *fakeRepo) Update(_ context.Context, id uuid.UUID, fields repository.LessonFields, contents []entities.ContentItem) (*entities.Lesson, error) {
	stored, ok := f.lessons[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if fields.Title != nil {
		stored.Title = *fields.Title
	}
	if fields.Position != nil {
		stored.Position = *fields.Position
	}
	stored.Contents = contents
	stored.ContentType = content.Classify(contents)
	updated := *stored
	return &updated, nil
}

func (f *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.lessons, id)
	return nil
}

func (f *fakeRepo) FindById(_ context.Context, id uuid.UUID) (*entities.Lesson, error) {
	stored, ok := f.lessons[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	found := *stored
	return &found, nil
}

func (f *fakeRepo) ListByCourse(_ context.Context, courseId uuid.UUID) ([]*entities.Lesson, error) {
	var lessons []*entities.Lesson
	for _, stored := range f.lessons {
		if stored.CourseId == courseId {
			lesson := *stored
			lessons = append(lessons, &lesson)
		}
	}
	sort.Slice(lessons, func(i, j int) bool {
		if lessons[i].Position != lessons[j].Position {
			return lessons[i].Position < lessons[j].Position
		}
		return lessons[i].Title < lessons[j].Title
	})
	return lessons, nil
}

func (f *fakeRepo) UpdatePosition(_ context.Context, id uuid.UUID, position int) error {
	f.positionCalls++
	if f.failPositionOn > 0 && f.positionCalls == f.failPositionOn {
		return repository.ErrRepository
	}
	stored, ok := f.lessons[id]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Position = position
	return nil
}

type fakeUploader struct {
	uploads int
	failOn  int // fail the Nth upload, 0 never
	public  map[string]string
}

func (f *fakeUploader) Upload(_ context.Context, pathPrefix, prefix string, file storage.File) (*storage.Object, error) {
	f.uploads++
	if f.failOn > 0 && f.uploads == f.failOn {
		return nil, storage.ErrUploadFailed
	}
	path := pathPrefix + "/" + prefix + storage.SanitizeFilename(file.Name)
	return &storage.Object{Path: path, Name: file.Name}, nil
}

func (f *fakeUploader) PublicURL(objectPath string) string {
	return f.public[objectPath]
}

func newTestService(repo repository.LessonRepository, uploader storage.Uploader) LessonService {
	return NewLessonService(repo, uploader, content.NewResolver(uploader))
}

func pdfFile(name string) storage.File {
	return storage.File{Name: name, Size: 128, Reader: strings.NewReader("pdf")}
}

func TestAddRoundTripContentType(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeUploader{})
	courseId := uuid.New()

	lesson, err := svc.Add(context.Background(), AddLessonInput{
		CourseId: courseId,
		Title:    "Week 1",
		Pdfs:     []storage.File{pdfFile("notes.pdf")},
		Docs:     []storage.File{{Name: "syllabus.doc", Size: 64, Reader: strings.NewReader("doc")}},
	})
	require.NoError(t, err)
	assert.Equal(t, constant.AggregateMixed, lesson.ContentType)

	listed, err := svc.List(context.Background(), courseId)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, content.Classify(listed[0].Contents), listed[0].ContentType)
}

func TestAddAppendsAfterLastPosition(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeUploader{})
	courseId := uuid.New()

	first, err := svc.Add(context.Background(), AddLessonInput{CourseId: courseId, Title: "One"})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Position)

	second, err := svc.Add(context.Background(), AddLessonInput{CourseId: courseId, Title: "Two"})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Position)

	third, err := svc.Add(context.Background(), AddLessonInput{CourseId: courseId, Title: "Three", Position: 7})
	require.NoError(t, err)
	assert.Equal(t, 7, third.Position)
}

func TestAddValidatesTitleBeforeUploads(t *testing.T) {
	repo := newFakeRepo()
	uploader := &fakeUploader{}
	svc := newTestService(repo, uploader)

	_, err := svc.Add(context.Background(), AddLessonInput{
		CourseId: uuid.New(),
		Title:    "   ",
		Pdfs:     []storage.File{pdfFile("notes.pdf")},
	})
	require.ErrorIs(t, err, repository.ErrValidation)
	assert.Zero(t, uploader.uploads)
	assert.Zero(t, repo.createCalls)
}

func TestAddAbortsWholeOperationOnUploadFailure(t *testing.T) {
	repo := newFakeRepo()
	uploader := &fakeUploader{failOn: 2}
	svc := newTestService(repo, uploader)

	_, err := svc.Add(context.Background(), AddLessonInput{
		CourseId: uuid.New(),
		Title:    "Week 1",
		Pdfs:     []storage.File{pdfFile("a.pdf"), pdfFile("b.pdf")},
	})
	require.ErrorIs(t, err, storage.ErrUploadFailed)
	assert.Zero(t, repo.createCalls)
}

func TestAddVideoUrlAndUploadOrdering(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeUploader{})

	lesson, err := svc.Add(context.Background(), AddLessonInput{
		CourseId: uuid.New(),
		Title:    "Week 1",
		VideoUrl: " https://youtu.be/abc123 ",
		Pdfs:     []storage.File{pdfFile("notes.pdf")},
	})
	require.NoError(t, err)
	require.Len(t, lesson.Contents, 2)
	assert.Equal(t, "video", lesson.Contents[0].Type)
	assert.Equal(t, "https://youtu.be/abc123", lesson.Contents[0].Url)
	assert.Equal(t, "Video URL", lesson.Contents[0].Name)
	assert.Equal(t, "pdf", lesson.Contents[1].Type)
}

func TestEditDraftRemovalRecomputesContentType(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeUploader{})
	courseId := uuid.New()

	lesson, err := svc.Add(context.Background(), AddLessonInput{
		CourseId: courseId,
		Title:    "Week 1",
		Pdfs:     []storage.File{pdfFile("notes.pdf")},
		Docs:     []storage.File{{Name: "syllabus.doc", Size: 64, Reader: strings.NewReader("doc")}},
	})
	require.NoError(t, err)
	require.Equal(t, constant.AggregateMixed, lesson.ContentType)

	// The edit draft drops the doc item client side; on save only the pdf remains.
	var retained []entities.ContentItem
	for _, item := range lesson.Contents {
		if item.Type == "pdf" {
			retained = append(retained, item)
		}
	}

	updated, err := svc.Edit(context.Background(), lesson.Id, EditLessonInput{
		Title:    lesson.Title,
		Retained: retained,
	})
	require.NoError(t, err)
	assert.Equal(t, "pdf", updated.ContentType)
	require.Len(t, updated.Contents, 1)
}

func TestEditDoesNotDuplicateExistingVideoUrl(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeUploader{})

	lesson, err := svc.Add(context.Background(), AddLessonInput{
		CourseId: uuid.New(),
		Title:    "Week 1",
		VideoUrl: "https://youtu.be/abc123",
	})
	require.NoError(t, err)

	updated, err := svc.Edit(context.Background(), lesson.Id, EditLessonInput{
		Title:    lesson.Title,
		Retained: lesson.Contents,
		VideoUrl: "https://youtu.be/abc123",
	})
	require.NoError(t, err)
	assert.Len(t, updated.Contents, 1)

	changed, err := svc.Edit(context.Background(), lesson.Id, EditLessonInput{
		Title:    lesson.Title,
		Retained: updated.Contents,
		VideoUrl: "https://youtu.be/other",
	})
	require.NoError(t, err)
	require.Len(t, changed.Contents, 2)
	assert.Equal(t, "https://youtu.be/other", changed.Contents[0].Url)
}

func seedCourse(t *testing.T, svc LessonService, courseId uuid.UUID, titles ...string) []*entities.Lesson {
	t.Helper()
	for _, title := range titles {
		_, err := svc.Add(context.Background(), AddLessonInput{CourseId: courseId, Title: title})
		require.NoError(t, err)
	}
	lessons, err := svc.List(context.Background(), courseId)
	require.NoError(t, err)
	require.Len(t, lessons, len(titles))
	return lessons
}

func TestMoveSwapsNeighbours(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeUploader{})
	courseId := uuid.New()
	lessons := seedCourse(t, svc, courseId, "One", "Two", "Three")

	reordered, err := svc.Move(context.Background(), lessons[1].Id, constant.MoveUp)
	require.NoError(t, err)
	assert.Equal(t, "Two", reordered[0].Title)
	assert.Equal(t, "One", reordered[1].Title)
	assert.Equal(t, []int{1, 2, 3}, positions(reordered))
}

func TestMoveUpThenDownIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeUploader{})
	courseId := uuid.New()
	lessons := seedCourse(t, svc, courseId, "One", "Two", "Three")
	middle := lessons[1]

	_, err := svc.Move(context.Background(), middle.Id, constant.MoveDown)
	require.NoError(t, err)
	restored, err := svc.Move(context.Background(), middle.Id, constant.MoveUp)
	require.NoError(t, err)

	assert.Equal(t, []string{"One", "Two", "Three"}, titles(restored))
	assert.Equal(t, []int{1, 2, 3}, positions(restored))
}

func TestMoveBoundariesAreNoOps(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeUploader{})
	courseId := uuid.New()
	lessons := seedCourse(t, svc, courseId, "One", "Two")

	unchanged, err := svc.Move(context.Background(), lessons[0].Id, constant.MoveUp)
	require.NoError(t, err)
	assert.Equal(t, []string{"One", "Two"}, titles(unchanged))
	assert.Zero(t, repo.positionCalls)

	unchanged, err = svc.Move(context.Background(), lessons[1].Id, constant.MoveDown)
	require.NoError(t, err)
	assert.Equal(t, []string{"One", "Two"}, titles(unchanged))
	assert.Zero(t, repo.positionCalls)
}

func TestMovePartialFailureResyncsFromRepository(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeUploader{})
	courseId := uuid.New()
	lessons := seedCourse(t, svc, courseId, "One", "Two", "Three")

	// First position write lands, second fails: the repository now holds a
	// half-applied swap and the returned state must equal a fresh list.
	repo.failPositionOn = 2

	returned, err := svc.Move(context.Background(), lessons[1].Id, constant.MoveUp)
	require.ErrorIs(t, err, repository.ErrRepository)

	fresh, listErr := repo.ListByCourse(context.Background(), courseId)
	require.NoError(t, listErr)
	assert.Equal(t, titles(fresh), titles(returned))
	assert.Equal(t, positions(fresh), positions(returned))
	// Not the optimistic pre-failure ordering: the half-applied swap is visible.
	assert.Equal(t, []int{1, 1, 3}, positions(returned))
}

func TestPlayableResolvesStoragePaths(t *testing.T) {
	repo := newFakeRepo()
	uploader := &fakeUploader{public: map[string]string{}}
	svc := newTestService(repo, uploader)
	courseId := uuid.New()

	lesson, err := svc.Add(context.Background(), AddLessonInput{
		CourseId: courseId,
		Title:    "Week 1",
		Pdfs:     []storage.File{pdfFile("notes.pdf")},
	})
	require.NoError(t, err)
	require.Len(t, lesson.Contents, 1)
	// The uploader produced no public URL at write time, so the path was stored.
	storedPath := lesson.Contents[0].Url
	assert.False(t, strings.HasPrefix(storedPath, "http"))

	uploader.public[storedPath] = "https://cdn.example.com/course-media/" + storedPath

	playback, err := svc.Playable(context.Background(), lesson.Id)
	require.NoError(t, err)
	require.Len(t, playback.Items, 1)
	assert.Equal(t, "https://cdn.example.com/course-media/"+storedPath, playback.Items[0].Url)
	assert.Equal(t, content.RenderPreview, playback.Items[0].Mode)
}

func TestPlayableLegacyLesson(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeUploader{})

	legacy := &entities.Lesson{
		Id:          uuid.New(),
		CourseId:    uuid.New(),
		Title:       "Old lesson",
		Position:    1,
		ContentType: "video",
		ContentUrl:  "https://www.youtube.com/watch?v=abc123",
	}
	repo.lessons[legacy.Id] = legacy

	playback, err := svc.Playable(context.Background(), legacy.Id)
	require.NoError(t, err)
	require.Len(t, playback.Items, 1)
	assert.Equal(t, content.RenderEmbed, playback.Items[0].Mode)
	assert.Equal(t, "https://www.youtube.com/embed/abc123", playback.Items[0].EmbedUrl)
}

func TestDeleteRemovesRowOnly(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeUploader{})
	courseId := uuid.New()
	lessons := seedCourse(t, svc, courseId, "One")

	require.NoError(t, svc.Delete(context.Background(), lessons[0].Id))

	remaining, err := svc.List(context.Background(), courseId)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	err = svc.Delete(context.Background(), lessons[0].Id)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func titles(lessons []*entities.Lesson) []string {
	out := make([]string, 0, len(lessons))
	for _, lesson := range lessons {
		out = append(out, lesson.Title)
	}
	return out
}

func positions(lessons []*entities.Lesson) []int {
	out := make([]int, 0, len(lessons))
	for _, lesson := range lessons {
		out = append(out, lesson.Position)
	}
	return out
}
