package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/rs/zerolog"

	"lesson-content-service/constant"
)

var (
	ErrFileTooLarge = errors.New("file too large")
	ErrUploadFailed = errors.New("upload failed")
)

// File is one piece of material to store, already opened by the caller.
type File struct {
	Name        string
	Size        int64
	ContentType string
	Reader      io.Reader
}

// Object is the stored result. Url is set when a public URL could be derived
// synchronously; otherwise Path alone is returned and resolution happens at
// read time.
type Object struct {
	Url  string
	Name string
	Path string
}

type Uploader interface {
	Upload(ctx context.Context, pathPrefix, prefix string, file File) (*Object, error)
	PublicURL(objectPath string) string
}

type objectWriter interface {
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type uploader struct {
	client        objectWriter
	bucket        string
	publicBaseUrl string
}

func NewUploader(client *minio.Client, bucket, publicBaseUrl string) Uploader {
	return &uploader{
		client:        client,
		bucket:        bucket,
		publicBaseUrl: publicBaseUrl,
	}
}

// Upload stores one file under a collision-resistant object path built from the
// owning entity prefix (usually the course id), a media-class tag, a millisecond
// timestamp and the sanitized original filename. The size ceiling is checked
// before any network transfer.
func (u *uploader) Upload(ctx context.Context, pathPrefix, prefix string, file File) (*Object, error) {
	if file.Reader == nil {
		return nil, errors.Join(ErrUploadFailed, errors.New("no file provided"))
	}
	if file.Size > maxBytesFor(prefix) {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrFileTooLarge, file.Name, file.Size, maxBytesFor(prefix))
	}

	objectPath := fmt.Sprintf("%s/%s%d_%s", pathPrefix, prefix, time.Now().UnixMilli(), SanitizeFilename(file.Name))

	_, err := u.client.PutObject(ctx, u.bucket, objectPath, file.Reader, file.Size, minio.PutObjectOptions{
		ContentType: file.ContentType,
	})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("path", objectPath).Msg("failed to upload file")
		return nil, errors.Join(ErrUploadFailed, err)
	}

	return &Object{
		Url:  u.PublicURL(objectPath),
		Name: file.Name,
		Path: objectPath,
	}, nil
}

// PublicURL derives the externally reachable URL for an object path. Returns
// empty when no public base URL is configured.
func (u *uploader) PublicURL(objectPath string) string {
	if u.publicBaseUrl == "" || objectPath == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(u.publicBaseUrl, "/"), u.bucket, objectPath)
}

func maxBytesFor(prefix string) int64 {
	if prefix == constant.PrefixVideo {
		return constant.MaxVideoBytes
	}
	return constant.MaxDocumentBytes
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

func SanitizeFilename(name string) string {
	return unsafeFilenameChars.ReplaceAllString(name, "")
}
