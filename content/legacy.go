package content

import (
	"lesson-content-service/constant"
	"lesson-content-service/entities"
)

// NormalizeLegacy returns the lesson's contents, synthesizing them from legacy
// single-content columns when the contents array is absent. Rows written before
// the contents array existed carried either content_type+content_url or separate
// video_url/pdf_url/doc_url columns.
func NormalizeLegacy(lesson *entities.Lesson) []entities.ContentItem {
	if len(lesson.Contents) > 0 {
		items := make([]entities.ContentItem, len(lesson.Contents))
		copy(items, lesson.Contents)
		return items
	}

	if lesson.ContentType != "" && lesson.ContentUrl != "" {
		return []entities.ContentItem{
			{Type: lesson.ContentType, Url: lesson.ContentUrl},
		}
	}

	var items []entities.ContentItem
	if lesson.VideoUrl != "" {
		items = append(items, entities.ContentItem{Type: constant.ContentTypeVideo.String(), Url: lesson.VideoUrl})
	}
	if lesson.PdfUrl != "" {
		items = append(items, entities.ContentItem{Type: constant.ContentTypePdf.String(), Url: lesson.PdfUrl})
	}
	if lesson.DocUrl != "" {
		items = append(items, entities.ContentItem{Type: constant.ContentTypeDoc.String(), Url: lesson.DocUrl})
	}
	if lesson.ContentUrl != "" {
		itemType := lesson.ContentType
		if itemType == "" {
			itemType = constant.ContentTypeFile.String()
		}
		items = append(items, entities.ContentItem{Type: itemType, Url: lesson.ContentUrl})
	}
	return items
}
