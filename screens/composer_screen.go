package screens

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"avara_app/models"
	"avara_app/services"
)

// MediaBackend is the upload slice of the media service.
type MediaBackend interface {
	UploadURL(ctx context.Context, fileName, contentType string) (string, string, error)
	ReadURL(ctx context.Context, key string) (string, error)
}

// PublishBackend turns a finished draft into a feed post.
type PublishBackend interface {
	CreatePost(ctx context.Context, draft models.PostDraft) (*models.Post, error)
}

var (
	_ MediaBackend   = (*services.MediaService)(nil)
	_ PublishBackend = (*services.FeedService)(nil)
)

// ComposerScreen drives the content-upload flow: presign, direct-to-bucket
// upload (done by the UI layer), preview and publish. The screen only holds
// the draft; bytes never pass through it.
type ComposerScreen struct {
	ScreenController

	media MediaBackend
	posts PublishBackend

	mediaKey  string
	mediaKind string
	published *models.Post
}

func NewComposerScreen(media MediaBackend, posts PublishBackend, logger *zap.Logger) *ComposerScreen {
	s := &ComposerScreen{media: media, posts: posts}
	s.initScreen(logger)
	s.setReady()
	return s
}

// BeginUpload presigns the upload and records the draft media. The returned
// URL accepts a direct PUT of the media bytes.
func (s *ComposerScreen) BeginUpload(ctx context.Context, fileName, contentType string) (string, error) {
	uploadURL, key, err := s.media.UploadURL(ctx, fileName, contentType)
	if !s.alive() {
		return "", fmt.Errorf("composer disposed")
	}
	if err != nil {
		s.showNotice("Couldn't start upload", nil)
		return "", fmt.Errorf("failed to presign upload: %w", err)
	}

	kind := models.MediaKindImage
	if strings.HasPrefix(contentType, "video/") {
		kind = models.MediaKindVideo
	}

	s.mu.Lock()
	s.mediaKey = key
	s.mediaKind = kind
	s.published = nil
	s.mu.Unlock()
	s.notify()
	return uploadURL, nil
}

// PreviewURL returns a short-lived read URL for the uploaded media.
func (s *ComposerScreen) PreviewURL(ctx context.Context) (string, error) {
	s.mu.Lock()
	key := s.mediaKey
	s.mu.Unlock()
	if key == "" {
		return "", fmt.Errorf("nothing uploaded yet")
	}
	return s.media.ReadURL(ctx, key)
}

// Publish turns the uploaded media into a feed post. The draft survives a
// failed publish so the retry notice can resubmit it.
func (s *ComposerScreen) Publish(ctx context.Context, avatarID, caption string, hashtags []string) {
	s.mu.Lock()
	key := s.mediaKey
	kind := s.mediaKind
	s.mu.Unlock()
	if key == "" {
		s.showNotice("Add a photo or video first", nil)
		return
	}

	s.setLoading()
	post, err := s.posts.CreatePost(ctx, models.PostDraft{
		AvatarID:  avatarID,
		MediaKind: kind,
		MediaURL:  key,
		Caption:   caption,
		Hashtags:  hashtags,
	})
	if !s.alive() {
		return
	}
	if err != nil {
		s.setReady()
		s.showNotice("Couldn't publish post", func() { s.Publish(ctx, avatarID, caption, hashtags) })
		return
	}

	s.mu.Lock()
	s.published = post
	s.mediaKey = ""
	s.mediaKind = ""
	s.mu.Unlock()
	s.setReady()
}

// Published returns the post created by the last successful publish, if any.
func (s *ComposerScreen) Published() *models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.published
}
