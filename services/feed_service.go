package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"avara_app/models"
)

// FeedService is the thin wrapper over the hosted feed backend: posts and
// avatars live in DynamoDB tables, engagement rows in per-kind relationship
// tables keyed (viewer, entity).
//
// GetPage exposes index-based pagination over DynamoDB's cursor-native API:
// the service maps successive page indices onto ExclusiveStartKey cursors it
// keeps per ordering. Page indices are monotonically increasing per instance
// and reset only when page 0 is requested again.
type FeedService struct {
	Dynamo *DynamoService
	Auth   *AuthService
	Logger *zap.SugaredLogger

	mu       sync.Mutex
	cursors  map[string]map[string]types.AttributeValue
	nextPage map[string]int

	followCursor map[string]types.AttributeValue
	followPage   int
}

func NewFeedService(dynamo *DynamoService, auth *AuthService, logger *zap.Logger) *FeedService {
	return &FeedService{
		Dynamo:   dynamo,
		Auth:     auth,
		Logger:   logger.Sugar(),
		cursors:  make(map[string]map[string]types.AttributeValue),
		nextPage: make(map[string]int),
	}
}

func indexForOrder(orderBy string) (string, error) {
	switch orderBy {
	case models.OrderTrending:
		return models.TrendingIndex, nil
	case models.OrderNewest:
		return models.NewestIndex, nil
	default:
		return "", fmt.Errorf("unsupported ordering %q", orderBy)
	}
}

// GetPage fetches one page of the feed for the given ordering.
func (s *FeedService) GetPage(ctx context.Context, pageIndex, pageSize int, orderBy string) ([]models.Post, error) {
	index, err := indexForOrder(orderBy)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if pageIndex == 0 {
		delete(s.cursors, orderBy)
		s.nextPage[orderBy] = 0
	}
	if pageIndex != s.nextPage[orderBy] {
		s.mu.Unlock()
		return nil, fmt.Errorf("non-monotonic page index %d (expected %d)", pageIndex, s.nextPage[orderBy])
	}
	startKey := s.cursors[orderBy]
	s.mu.Unlock()

	keyCondition := "feed = :feed"
	expressionValues := map[string]types.AttributeValue{
		":feed": &types.AttributeValueMemberS{Value: models.FeedPartition},
	}

	items, lastKey, err := s.Dynamo.QueryPageWithIndex(
		ctx, models.PostsTable, index, keyCondition, expressionValues, nil,
		int32(pageSize), true, startKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed page %d: %w", pageIndex, err)
	}

	var posts []models.Post
	if err := attributevalue.UnmarshalListOfMaps(items, &posts); err != nil {
		return nil, fmt.Errorf("failed to parse feed page: %w", err)
	}

	s.mu.Lock()
	s.cursors[orderBy] = lastKey
	s.nextPage[orderBy] = pageIndex + 1
	s.mu.Unlock()

	s.Logger.Infow("fetched feed page", "orderBy", orderBy, "page", pageIndex, "count", len(posts))
	return posts, nil
}

// GetByID returns a single post, or ErrNotFound.
func (s *FeedService) GetByID(ctx context.Context, id string) (*models.Post, error) {
	key := map[string]types.AttributeValue{
		"postId": &types.AttributeValueMemberS{Value: id},
	}
	item, err := s.Dynamo.GetItem(ctx, models.PostsTable, key)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("post %s: %w", id, ErrNotFound)
	}

	var post models.Post
	if err := attributevalue.UnmarshalMap(item, &post); err != nil {
		return nil, fmt.Errorf("failed to parse post: %w", err)
	}
	return &post, nil
}

// GetAvatarFor returns the avatar summary, or ErrNotFound.
func (s *FeedService) GetAvatarFor(ctx context.Context, avatarID string) (*models.Avatar, error) {
	key := map[string]types.AttributeValue{
		"avatarId": &types.AttributeValueMemberS{Value: avatarID},
	}
	item, err := s.Dynamo.GetItem(ctx, models.AvatarsTable, key)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("avatar %s: %w", avatarID, ErrNotFound)
	}

	var avatar models.Avatar
	if err := attributevalue.UnmarshalMap(item, &avatar); err != nil {
		return nil, fmt.Errorf("failed to parse avatar: %w", err)
	}
	return &avatar, nil
}

// GetAvatarsBatch resolves many avatar ids at once. Missing ids are simply
// absent from the result.
func (s *FeedService) GetAvatarsBatch(ctx context.Context, ids []string) (map[string]models.Avatar, error) {
	if len(ids) == 0 {
		return map[string]models.Avatar{}, nil
	}

	keys := make([]map[string]types.AttributeValue, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, map[string]types.AttributeValue{
			"avatarId": &types.AttributeValueMemberS{Value: id},
		})
	}

	items, err := s.Dynamo.BatchGetItems(ctx, models.AvatarsTable, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to batch get avatars: %w", err)
	}

	var avatars []models.Avatar
	if err := attributevalue.UnmarshalListOfMaps(items, &avatars); err != nil {
		return nil, fmt.Errorf("failed to parse avatars: %w", err)
	}

	result := make(map[string]models.Avatar, len(avatars))
	for _, a := range avatars {
		result[a.ID] = a
	}
	return result, nil
}

// GetLikedBatch reports, per post id, whether the current user has liked it.
func (s *FeedService) GetLikedBatch(ctx context.Context, ids []string) (map[string]bool, error) {
	return s.engagementBatch(ctx, models.LikesTable, models.LikeKeyPrefix, ids)
}

// GetFollowingBatch reports, per avatar id, whether the current user follows it.
func (s *FeedService) GetFollowingBatch(ctx context.Context, ids []string) (map[string]bool, error) {
	return s.engagementBatch(ctx, models.FollowsTable, models.FollowKeyPrefix, ids)
}

// GetBookmarkedBatch reports, per post id, whether the current user bookmarked it.
func (s *FeedService) GetBookmarkedBatch(ctx context.Context, ids []string) (map[string]bool, error) {
	return s.engagementBatch(ctx, models.BookmarksTable, models.BookmarkKeyPrefix, ids)
}

func (s *FeedService) engagementBatch(ctx context.Context, table, prefix string, ids []string) (map[string]bool, error) {
	userID := s.Auth.CurrentUserID()
	if userID == "" {
		return nil, ErrNotAuthenticated
	}

	result := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	keys := make([]map[string]types.AttributeValue, 0, len(ids))
	for _, id := range ids {
		result[id] = false
		keys = append(keys, map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: models.UserKeyPrefix + userID},
			"SK": &types.AttributeValueMemberS{Value: prefix + id},
		})
	}

	items, err := s.Dynamo.BatchGetItems(ctx, table, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to batch get engagement from '%s': %w", table, err)
	}

	for _, item := range items {
		var row models.Engagement
		if err := attributevalue.UnmarshalMap(item, &row); err != nil {
			continue
		}
		result[row.EntityID] = true
	}
	return result, nil
}

// ToggleLike flips the like relationship and returns the new authoritative
// state. The likesCount counter is adjusted atomically server-side.
func (s *FeedService) ToggleLike(ctx context.Context, postID string) (bool, error) {
	return s.toggleEngagement(ctx, models.LikesTable, models.LikeKeyPrefix, postID,
		models.PostsTable, "postId", "likesCount")
}

// ToggleFollow flips the follow relationship on an avatar.
func (s *FeedService) ToggleFollow(ctx context.Context, avatarID string) (bool, error) {
	return s.toggleEngagement(ctx, models.FollowsTable, models.FollowKeyPrefix, avatarID,
		models.AvatarsTable, "avatarId", "followersCount")
}

// ToggleBookmark flips the bookmark relationship. Bookmarks carry no public
// counter, so only the relationship row changes.
func (s *FeedService) ToggleBookmark(ctx context.Context, postID string) (bool, error) {
	return s.toggleEngagement(ctx, models.BookmarksTable, models.BookmarkKeyPrefix, postID,
		"", "", "")
}

func (s *FeedService) toggleEngagement(ctx context.Context, table, prefix, entityID, counterTable, counterKeyAttr, counterField string) (bool, error) {
	userID := s.Auth.CurrentUserID()
	if userID == "" {
		return false, ErrNotAuthenticated
	}

	key := map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: models.UserKeyPrefix + userID},
		"SK": &types.AttributeValueMemberS{Value: prefix + entityID},
	}

	existing, err := s.Dynamo.GetItem(ctx, table, key)
	if err != nil {
		return false, err
	}

	if existing != nil {
		if err := s.Dynamo.DeleteItem(ctx, table, key); err != nil {
			return false, err
		}
		if err := s.adjustCounter(ctx, counterTable, counterKeyAttr, entityID, counterField, -1); err != nil {
			return false, err
		}
		s.Logger.Debugw("engagement removed", "table", table, "entity", entityID)
		return false, nil
	}

	row := models.Engagement{
		PK:        models.UserKeyPrefix + userID,
		SK:        prefix + entityID,
		UserID:    userID,
		EntityID:  entityID,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.Dynamo.PutItem(ctx, table, row); err != nil {
		return false, err
	}
	if err := s.adjustCounter(ctx, counterTable, counterKeyAttr, entityID, counterField, 1); err != nil {
		return false, err
	}
	s.Logger.Debugw("engagement added", "table", table, "entity", entityID)
	return true, nil
}

func (s *FeedService) adjustCounter(ctx context.Context, table, keyAttr, id, field string, delta int64) error {
	if table == "" || field == "" {
		return nil
	}

	key := map[string]types.AttributeValue{
		keyAttr: &types.AttributeValueMemberS{Value: id},
	}
	updateExpression := "ADD #field :delta"
	expressionValues := map[string]types.AttributeValue{
		":delta": &types.AttributeValueMemberN{Value: strconv.FormatInt(delta, 10)},
	}
	expressionNames := map[string]string{"#field": field}

	_, err := s.Dynamo.UpdateItem(ctx, table, updateExpression, key, expressionValues, expressionNames)
	return err
}

// CreatePost publishes a draft from the content-upload flow as a new feed
// post. Counters start at zero; the trending score is recomputed server-side.
func (s *FeedService) CreatePost(ctx context.Context, draft models.PostDraft) (*models.Post, error) {
	userID := s.Auth.CurrentUserID()
	if userID == "" {
		return nil, ErrNotAuthenticated
	}

	post := models.Post{
		ID:           uuid.New().String(),
		AvatarID:     draft.AvatarID,
		MediaKind:    draft.MediaKind,
		MediaURL:     draft.MediaURL,
		ThumbnailURL: draft.ThumbnailURL,
		Caption:      draft.Caption,
		Hashtags:     draft.Hashtags,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
		Feed:         models.FeedPartition,
	}
	if err := s.Dynamo.PutItem(ctx, models.PostsTable, post); err != nil {
		return nil, fmt.Errorf("failed to publish post: %w", err)
	}
	s.Logger.Infow("post published", "postId", post.ID, "avatarId", post.AvatarID, "mediaKind", post.MediaKind)
	return &post, nil
}

// IncrementViewCount bumps a post's view counter. Impression tracking is
// fire-and-forget; callers ignore the error beyond logging.
func (s *FeedService) IncrementViewCount(ctx context.Context, postID string) error {
	return s.adjustCounter(ctx, models.PostsTable, "postId", postID, "viewsCount", 1)
}

// SharePost records a share to the given platform.
func (s *FeedService) SharePost(ctx context.Context, postID, platform string) error {
	if err := s.adjustCounter(ctx, models.PostsTable, "postId", postID, "sharesCount", 1); err != nil {
		return fmt.Errorf("failed to record share: %w", err)
	}
	s.Logger.Infow("post shared", "postId", postID, "platform", platform)
	return nil
}

// ReportPost files a moderation report. Decisioning happens on the backend.
func (s *FeedService) ReportPost(ctx context.Context, postID, reason string) error {
	userID := s.Auth.CurrentUserID()
	if userID == "" {
		return ErrNotAuthenticated
	}

	report := models.Report{
		ID:         uuid.New().String(),
		PostID:     postID,
		ReporterID: userID,
		Reason:     reason,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.Dynamo.PutItem(ctx, models.ReportsTable, report); err != nil {
		return fmt.Errorf("failed to report post: %w", err)
	}
	return nil
}

// BlockUser hides all content from the given owner for the current user.
func (s *FeedService) BlockUser(ctx context.Context, ownerID string) error {
	userID := s.Auth.CurrentUserID()
	if userID == "" {
		return ErrNotAuthenticated
	}

	row := models.Engagement{
		PK:        models.UserKeyPrefix + userID,
		SK:        models.BlockKeyPrefix + ownerID,
		UserID:    userID,
		EntityID:  ownerID,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.Dynamo.PutItem(ctx, models.BlocksTable, row); err != nil {
		return fmt.Errorf("failed to block user: %w", err)
	}
	return nil
}

// GetFollowedAvatars pages through the avatars the current user follows.
// Page 0 resets the cursor, mirroring GetPage.
func (s *FeedService) GetFollowedAvatars(ctx context.Context, pageIndex, pageSize int) ([]models.Avatar, error) {
	userID := s.Auth.CurrentUserID()
	if userID == "" {
		return nil, ErrNotAuthenticated
	}

	s.mu.Lock()
	if pageIndex == 0 {
		s.followCursor = nil
		s.followPage = 0
	}
	if pageIndex != s.followPage {
		s.mu.Unlock()
		return nil, fmt.Errorf("non-monotonic page index %d (expected %d)", pageIndex, s.followPage)
	}
	startKey := s.followCursor
	s.mu.Unlock()

	keyCondition := "PK = :user AND begins_with(SK, :prefix)"
	expressionValues := map[string]types.AttributeValue{
		":user":   &types.AttributeValueMemberS{Value: models.UserKeyPrefix + userID},
		":prefix": &types.AttributeValueMemberS{Value: models.FollowKeyPrefix},
	}

	items, lastKey, err := s.Dynamo.QueryPageWithIndex(
		ctx, models.FollowsTable, "", keyCondition, expressionValues, nil,
		int32(pageSize), false, startKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch followed avatars: %w", err)
	}

	var rows []models.Engagement
	if err := attributevalue.UnmarshalListOfMaps(items, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse follow rows: %w", err)
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.EntityID)
	}
	resolved, err := s.GetAvatarsBatch(ctx, ids)
	if err != nil {
		return nil, err
	}

	avatars := make([]models.Avatar, 0, len(ids))
	for _, id := range ids {
		if a, ok := resolved[id]; ok {
			avatars = append(avatars, a)
		}
	}

	s.mu.Lock()
	s.followCursor = lastKey
	s.followPage = pageIndex + 1
	s.mu.Unlock()

	return avatars, nil
}
