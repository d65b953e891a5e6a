package models

// UserProfile defines the structure for user profiles
type UserProfile struct {
	UserID              string `dynamodbav:"userId,omitempty" json:"userId"`
	DisplayName         string `dynamodbav:"displayName,omitempty" json:"displayName,omitempty"`
	EmailID             string `dynamodbav:"emailId,omitempty" json:"emailId,omitempty"`
	Bio                 string `dynamodbav:"bio,omitempty" json:"bio,omitempty"`
	OnboardingCompleted bool   `dynamodbav:"onboardingCompleted" json:"onboardingCompleted"`
	CreatedAt           string `dynamodbav:"createdAt,omitempty" json:"createdAt,omitempty"`
}

// UserProfilesTable is the DynamoDB table name for user profiles
const UserProfilesTable = "UserProfiles"
