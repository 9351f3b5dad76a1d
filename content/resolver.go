package content

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"lesson-content-service/entities"
)

// RenderMode tells the player how to present a resolved item.
type RenderMode string

const (
	RenderEmbed    RenderMode = "embed"    // inline frame (normalized video link)
	RenderNative   RenderMode = "native"   // direct media file, native player
	RenderPreview  RenderMode = "preview"  // inline preview plus download
	RenderDownload RenderMode = "download" // download link only
	RenderOpen     RenderMode = "open"     // generic open link, unknown types
)

// Playable is the renderable form of one content item.
type Playable struct {
	Type string     `json:"type"`
	Name string     `json:"name,omitempty"`
	Mode RenderMode `json:"mode"`

	// Url is always set: the resolved (or best-effort raw) reference.
	Url string `json:"url"`
	// EmbedUrl is set for videos normalized to an embeddable form.
	EmbedUrl string `json:"embed_url,omitempty"`
	// PreviewUrl and DownloadUrl carry the two affordances for documents.
	PreviewUrl  string `json:"preview_url,omitempty"`
	DownloadUrl string `json:"download_url,omitempty"`
}

// URLResolver turns a storage-relative object path into a public URL.
// An empty result means no public URL could be derived.
type URLResolver interface {
	PublicURL(objectPath string) string
}

type Resolver interface {
	Resolve(ctx context.Context, item entities.ContentItem) Playable
	ResolveLesson(ctx context.Context, lesson *entities.Lesson) []Playable
}

type resolver struct {
	urls URLResolver
}

func NewResolver(urls URLResolver) Resolver {
	return &resolver{urls: urls}
}

// ResolveLesson normalizes legacy rows and resolves every item. Resolution never
// fails: items the backend cannot resolve keep their raw reference and playback
// proceeds best effort.
func (r *resolver) ResolveLesson(ctx context.Context, lesson *entities.Lesson) []Playable {
	items := NormalizeLegacy(lesson)
	playables := make([]Playable, 0, len(items))
	for _, item := range items {
		playables = append(playables, r.Resolve(ctx, item))
	}
	return playables
}

func (r *resolver) Resolve(ctx context.Context, item entities.ContentItem) Playable {
	url := r.resolveURL(ctx, item.Url)
	itemType := strings.ToLower(item.Type)

	playable := Playable{Type: itemType, Name: item.Name, Url: url}

	switch itemType {
	case "video":
		if embed, ok := EmbedURL(url); ok {
			playable.Mode = RenderEmbed
			playable.EmbedUrl = embed
		} else {
			playable.Mode = RenderNative
		}
	case "pdf":
		playable.Mode = RenderPreview
		playable.PreviewUrl = url
		playable.DownloadUrl = url
	case "doc", "file", "docx", "ppt", "pptx", "xls", "xlsx":
		playable.Mode = RenderDownload
		playable.DownloadUrl = url
	default:
		playable.Mode = RenderOpen
	}
	return playable
}

// resolveURL expands a storage-relative path to a public URL. Absolute URLs pass
// through; a failed lookup falls back to the raw value.
func (r *resolver) resolveURL(ctx context.Context, raw string) string {
	if raw == "" || strings.HasPrefix(raw, "http") {
		return raw
	}
	if resolved := r.urls.PublicURL(raw); resolved != "" {
		return resolved
	}
	zerolog.Ctx(ctx).Debug().Str("path", raw).Msg("no public url for storage path, using raw value")
	return raw
}

// EmbedURL normalizes the known YouTube link shapes to an embeddable URL.
// Anything else is treated as a direct media file.
func EmbedURL(url string) (string, bool) {
	if url == "" {
		return "", false
	}
	if _, after, found := strings.Cut(url, "youtu.be/"); found {
		id := after
		if i := strings.IndexAny(id, "?&"); i >= 0 {
			id = id[:i]
		}
		return "https://www.youtube.com/embed/" + id, true
	}
	if strings.Contains(url, "youtube.com/watch") {
		return strings.Replace(url, "watch?v=", "embed/", 1), true
	}
	if strings.Contains(url, "youtube.com/embed/") {
		return url, true
	}
	return "", false
}
