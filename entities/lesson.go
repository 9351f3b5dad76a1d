package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ContentItem is one piece of material attached to a lesson. Url is either an
// absolute URL or a storage-relative object path that needs resolving at read time.
type ContentItem struct {
	Type string `json:"type"`
	Url  string `json:"url"`
	Name string `json:"name"`
}

type Lesson struct {
	Id          uuid.UUID                        `json:"id" gorm:"primaryKey"`
	CourseId    uuid.UUID                        `json:"course_id"`
	Title       string                           `json:"title"`
	Position    int                              `json:"position"`
	Contents    datatypes.JSONSlice[ContentItem] `json:"contents"`
	ContentType string                           `json:"content_type"`

	// Legacy single-content columns. Old rows were written with one of these
	// instead of a contents array; they are folded into Contents at read time.
	ContentUrl string `json:"content_url,omitempty"`
	VideoUrl   string `json:"video_url,omitempty"`
	PdfUrl     string `json:"pdf_url,omitempty"`
	DocUrl     string `json:"doc_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Lesson) TableName() string {
	return "lessons"
}
