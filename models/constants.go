package models

// Media kinds
const (
	MediaKindImage = "image"
	MediaKindVideo = "video"
)

// Feed orderings
const (
	OrderTrending = "trending"
	OrderNewest   = "newest"
)

// Share platforms
const (
	PlatformInstagram = "instagram"
	PlatformTikTok    = "tiktok"
	PlatformOther     = "other"
)

// Report reasons
const (
	ReasonSpam          = "spam"
	ReasonInappropriate = "inappropriate"
	ReasonHarassment    = "harassment"
	ReasonOther         = "other"
)

// GSI names on the Posts table
const (
	TrendingIndex = "trending-index"
	NewestIndex   = "newest-index"
)

// FeedPartition is the fixed partition key value shared by all posts so the
// ordering GSIs can sort the whole feed.
const FeedPartition = "GLOBAL"

// Key prefixes for composite PK/SK rows
const (
	UserKeyPrefix     = "USER#"
	LikeKeyPrefix     = "LIKE#"
	FollowKeyPrefix   = "FOLLOW#"
	BookmarkKeyPrefix = "BOOKMARK#"
	BlockKeyPrefix    = "BLOCK#"
	AvatarKeyPrefix   = "AVATAR#"
)
