package handler

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"lesson-content-service/constant"
	"lesson-content-service/dto"
	"lesson-content-service/pkg/storage"
	"lesson-content-service/repository"
	"lesson-content-service/service"
)

type LessonHandler struct {
	svc service.LessonService
}

func NewLessonHandler(svc service.LessonService) *LessonHandler {
	return &LessonHandler{svc: svc}
}

func (h *LessonHandler) Register(r *gin.Engine) {
	api := r.Group("/api")
	api.GET("/courses/:courseId/lessons", h.ListLessons)
	api.POST("/courses/:courseId/lessons", h.AddLesson)
	api.PUT("/lessons/:id", h.EditLesson)
	api.DELETE("/lessons/:id", h.DeleteLesson)
	api.POST("/lessons/:id/move", h.MoveLesson)
	api.GET("/lessons/:id/playable", h.GetPlayable)
}

func (h *LessonHandler) ListLessons(c *gin.Context) {
	courseId, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid course id"})
		return
	}

	lessons, err := h.svc.List(c.Request.Context(), courseId)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewLessonSummaries(lessons))
}

func (h *LessonHandler) AddLesson(c *gin.Context) {
	courseId, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid course id"})
		return
	}

	in := service.AddLessonInput{
		CourseId: courseId,
		Title:    c.PostForm("title"),
		VideoUrl: c.PostForm("video_url"),
	}

	var closers []multipart.File
	defer func() { closeAll(closers) }()

	if fh, err := c.FormFile("video"); err == nil {
		file, opened, err := openUpload(fh)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read video file"})
			return
		}
		closers = append(closers, opened)
		in.Video = file
	}

	form, err := c.MultipartForm()
	if err == nil && form != nil {
		in.Pdfs, closers, err = openUploads(form.File["pdfs"], closers)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read pdf file"})
			return
		}
		in.Docs, closers, err = openUploads(form.File["docs"], closers)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read doc file"})
			return
		}
	}

	lesson, err := h.svc.Add(c.Request.Context(), in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewLessonSummary(lesson))
}

func (h *LessonHandler) EditLesson(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lesson id"})
		return
	}

	in := service.EditLessonInput{
		Title:    c.PostForm("title"),
		VideoUrl: c.PostForm("video_url"),
	}
	if raw := c.PostForm("contents"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &in.Retained); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contents payload"})
			return
		}
	}
	if raw := c.PostForm("position"); raw != "" {
		position, err := strconv.Atoi(raw)
		if err != nil || position < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid position"})
			return
		}
		in.Position = position
	}

	var closers []multipart.File
	defer func() { closeAll(closers) }()

	if fh, err := c.FormFile("video"); err == nil {
		file, opened, err := openUpload(fh)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read video file"})
			return
		}
		closers = append(closers, opened)
		in.Video = file
	}

	form, err := c.MultipartForm()
	if err == nil && form != nil {
		in.Pdfs, closers, err = openUploads(form.File["pdfs"], closers)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read pdf file"})
			return
		}
		in.Docs, closers, err = openUploads(form.File["docs"], closers)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read doc file"})
			return
		}
	}

	lesson, err := h.svc.Edit(c.Request.Context(), id, in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewLessonSummary(lesson))
}

func (h *LessonHandler) DeleteLesson(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lesson id"})
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *LessonHandler) MoveLesson(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lesson id"})
		return
	}

	var req dto.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lessons, err := h.svc.Move(c.Request.Context(), id, constant.MoveDirection(req.Direction))
	if err != nil {
		// A failed swap still returns the resynced ordering when one exists.
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("reorder failed")
		c.JSON(statusFor(err), gin.H{
			"error":   err.Error(),
			"lessons": dto.NewLessonSummaries(lessons),
		})
		return
	}
	c.JSON(http.StatusOK, dto.NewLessonSummaries(lessons))
}

func (h *LessonHandler) GetPlayable(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lesson id"})
		return
	}

	playback, err := h.svc.Playable(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, playback)
}

func openUpload(fh *multipart.FileHeader) (*storage.File, multipart.File, error) {
	opened, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	return &storage.File{
		Name:        fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Reader:      opened,
	}, opened, nil
}

func openUploads(fhs []*multipart.FileHeader, closers []multipart.File) ([]storage.File, []multipart.File, error) {
	var files []storage.File
	for _, fh := range fhs {
		file, opened, err := openUpload(fh)
		if err != nil {
			return nil, closers, err
		}
		closers = append(closers, opened)
		files = append(files, *file)
	}
	return files, closers, nil
}

func closeAll(closers []multipart.File) {
	for _, closer := range closers {
		_ = closer.Close()
	}
}

func abortWithError(c *gin.Context, err error) {
	zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("lesson operation failed")
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrUploadFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
