package dto

import (
	"time"

	"github.com/google/uuid"

	"lesson-content-service/constant"
	"lesson-content-service/entities"
)

type MoveRequest struct {
	Direction string `json:"direction" binding:"required,oneof=up down"`
}

// LessonSummary is the manage-screen view of a lesson: ordering, aggregate
// content type and per-type item counts.
type LessonSummary struct {
	Id          uuid.UUID              `json:"id"`
	CourseId    uuid.UUID              `json:"course_id"`
	Title       string                 `json:"title"`
	Position    int                    `json:"position"`
	ContentType string                 `json:"content_type"`
	Contents    []entities.ContentItem `json:"contents"`
	VideoCount  int                    `json:"video_count"`
	PdfCount    int                    `json:"pdf_count"`
	DocCount    int                    `json:"doc_count"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

func NewLessonSummary(lesson *entities.Lesson) LessonSummary {
	summary := LessonSummary{
		Id:          lesson.Id,
		CourseId:    lesson.CourseId,
		Title:       lesson.Title,
		Position:    lesson.Position,
		ContentType: lesson.ContentType,
		Contents:    lesson.Contents,
		UpdatedAt:   lesson.UpdatedAt,
	}
	for _, item := range lesson.Contents {
		switch item.Type {
		case constant.ContentTypeVideo.String():
			summary.VideoCount++
		case constant.ContentTypePdf.String():
			summary.PdfCount++
		case constant.ContentTypeDoc.String():
			summary.DocCount++
		}
	}
	return summary
}

func NewLessonSummaries(lessons []*entities.Lesson) []LessonSummary {
	summaries := make([]LessonSummary, 0, len(lessons))
	for _, lesson := range lessons {
		summaries = append(summaries, NewLessonSummary(lesson))
	}
	return summaries
}
