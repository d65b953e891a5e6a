package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"avara_app/models"
	"avara_app/utils"
)

// SearchService answers the search screen's queries. The hosted backend has
// no search index for this app tier, so matching happens over a filtered
// scan, the same way the rest of the discovery surface works.
type SearchService struct {
	Dynamo *DynamoService
	Logger *zap.SugaredLogger
}

func NewSearchService(dynamo *DynamoService, logger *zap.Logger) *SearchService {
	return &SearchService{Dynamo: dynamo, Logger: logger.Sugar()}
}

// SearchAvatars matches the query against avatar names and niches,
// case-insensitively.
func (s *SearchService) SearchAvatars(ctx context.Context, query string, limit int) ([]models.Avatar, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []models.Avatar{}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	var avatars []models.Avatar
	err := s.Dynamo.ScanWithFilter(ctx, models.AvatarsTable, func(item map[string]types.AttributeValue) bool {
		name := strings.ToLower(utils.ExtractString(item, "displayName"))
		niche := strings.ToLower(utils.ExtractString(item, "niche"))
		return strings.Contains(name, q) || strings.Contains(niche, q)
	}, &avatars)
	if err != nil {
		return nil, fmt.Errorf("failed to search avatars: %w", err)
	}

	if len(avatars) > limit {
		avatars = avatars[:limit]
	}
	s.Logger.Infow("avatar search", "query", q, "hits", len(avatars))
	return avatars, nil
}

// SearchPosts returns one page of posts carrying the given hashtag.
// Pages are sliced out of the filtered scan; indices past the end return an
// empty page.
func (s *SearchService) SearchPosts(ctx context.Context, hashtag string, pageIndex, pageSize int) ([]models.Post, error) {
	tag := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(hashtag), "#"))
	if tag == "" {
		return []models.Post{}, nil
	}
	if pageSize <= 0 {
		pageSize = 10
	}

	var posts []models.Post
	err := s.Dynamo.ScanWithFilter(ctx, models.PostsTable, func(item map[string]types.AttributeValue) bool {
		for _, h := range utils.ExtractStringList(item, "hashtags") {
			if strings.ToLower(strings.TrimPrefix(h, "#")) == tag {
				return true
			}
		}
		return false
	}, &posts)
	if err != nil {
		return nil, fmt.Errorf("failed to search posts: %w", err)
	}

	start := pageIndex * pageSize
	if start >= len(posts) {
		return []models.Post{}, nil
	}
	end := start + pageSize
	if end > len(posts) {
		end = len(posts)
	}
	return posts[start:end], nil
}
