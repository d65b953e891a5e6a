package models

// EngagementKind selects which viewer-to-entity relationship an operation
// works on.
type EngagementKind string

const (
	EngagementLike     EngagementKind = "like"
	EngagementFollow   EngagementKind = "follow"
	EngagementBookmark EngagementKind = "bookmark"
)

// Engagement is one viewer-to-entity relationship row. Keys follow the
// USER#<userId> / <KIND>#<entityId> composite pattern.
type Engagement struct {
	PK        string `dynamodbav:"PK" json:"-"`
	SK        string `dynamodbav:"SK" json:"-"`
	UserID    string `dynamodbav:"userId" json:"userId"`
	EntityID  string `dynamodbav:"entityId" json:"entityId"`
	CreatedAt string `dynamodbav:"createdAt" json:"createdAt"`
}

// Report is a user report against a post.
type Report struct {
	ID         string `dynamodbav:"reportId" json:"reportId"`
	PostID     string `dynamodbav:"postId" json:"postId"`
	ReporterID string `dynamodbav:"reporterId" json:"reporterId"`
	Reason     string `dynamodbav:"reason" json:"reason"`
	CreatedAt  string `dynamodbav:"createdAt" json:"createdAt"`
}

const (
	// LikesTable holds viewer->post like rows
	LikesTable = "Likes"
	// FollowsTable holds viewer->avatar follow rows
	FollowsTable = "Follows"
	// BookmarksTable holds viewer->post bookmark rows
	BookmarksTable = "Bookmarks"
	// ReportsTable holds post reports
	ReportsTable = "Reports"
	// BlocksTable holds viewer->owner block rows
	BlocksTable = "Blocks"
)
