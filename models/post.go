package models

// Post is a single piece of avatar-authored feed content.
type Post struct {
	ID            string   `dynamodbav:"postId" json:"postId"`
	AvatarID      string   `dynamodbav:"avatarId" json:"avatarId"`
	MediaKind     string   `dynamodbav:"mediaKind" json:"mediaKind"`
	MediaURL      string   `dynamodbav:"mediaUrl" json:"mediaUrl"`
	ThumbnailURL  string   `dynamodbav:"thumbnailUrl,omitempty" json:"thumbnailUrl,omitempty"`
	Caption       string   `dynamodbav:"caption" json:"caption"`
	Hashtags      []string `dynamodbav:"hashtags,omitempty" json:"hashtags,omitempty"`
	LikesCount    int64    `dynamodbav:"likesCount" json:"likesCount"`
	CommentsCount int64    `dynamodbav:"commentsCount" json:"commentsCount"`
	SharesCount   int64    `dynamodbav:"sharesCount" json:"sharesCount"`
	ViewsCount    int64    `dynamodbav:"viewsCount" json:"viewsCount"`
	CreatedAt     string   `dynamodbav:"createdAt" json:"createdAt"`

	// Feed is the fixed partition for the ordering GSIs, TrendingScore their
	// trending sort key. Neither is part of the API payload.
	Feed          string `dynamodbav:"feed" json:"-"`
	TrendingScore int64  `dynamodbav:"trendingScore" json:"-"`
}

// PostDraft is the publish payload of the content-upload flow. MediaURL
// carries the storage key of the already-uploaded object.
type PostDraft struct {
	AvatarID     string
	MediaKind    string
	MediaURL     string
	ThumbnailURL string
	Caption      string
	Hashtags     []string
}

// IsVideo reports whether the post carries video media.
func (p Post) IsVideo() bool {
	return p.MediaKind == MediaKindVideo
}

// PostsTable is the DynamoDB table name for feed posts
const PostsTable = "Posts"
