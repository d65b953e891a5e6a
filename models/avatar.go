package models

// Avatar defines the public summary of an AI avatar shown across screens
type Avatar struct {
	ID             string `dynamodbav:"avatarId" json:"avatarId"`
	DisplayName    string `dynamodbav:"displayName" json:"displayName"`
	ImageURL       string `dynamodbav:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Bio            string `dynamodbav:"bio,omitempty" json:"bio,omitempty"`
	Niche          string `dynamodbav:"niche,omitempty" json:"niche,omitempty"`
	FollowersCount int64  `dynamodbav:"followersCount" json:"followersCount"`
}

// PlaceholderAvatar is what renders while (or if never) an avatar resolves.
func PlaceholderAvatar(id string) Avatar {
	return Avatar{ID: id, DisplayName: "Avatar"}
}

// AvatarsTable is the DynamoDB table name for avatar summaries
const AvatarsTable = "Avatars"
