package services

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"github.com/stretchr/testify/require"

	"avara_app/models"
)

// fakeDynamo satisfies DynamoAPI with per-call hooks. Unset hooks return
// empty outputs.
type fakeDynamo struct {
	queryFn      func(*dynamodb.QueryInput) (*dynamodb.QueryOutput, error)
	getFn        func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error)
	putFn        func(*dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error)
	updateFn     func(*dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error)
	deleteFn     func(*dynamodb.DeleteItemInput) (*dynamodb.DeleteItemOutput, error)
	batchGetFn   func(*dynamodb.BatchGetItemInput) (*dynamodb.BatchGetItemOutput, error)
	batchWriteFn func(*dynamodb.BatchWriteItemInput) (*dynamodb.BatchWriteItemOutput, error)
	scanFn       func(*dynamodb.ScanInput) (*dynamodb.ScanOutput, error)
}

func (f *fakeDynamo) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if f.queryFn != nil {
		return f.queryFn(params)
	}
	return &dynamodb.QueryOutput{}, nil
}

func (f *fakeDynamo) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.getFn != nil {
		return f.getFn(params)
	}
	return &dynamodb.GetItemOutput{}, nil
}

func (f *fakeDynamo) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.putFn != nil {
		return f.putFn(params)
	}
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	if f.updateFn != nil {
		return f.updateFn(params)
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	if f.deleteFn != nil {
		return f.deleteFn(params)
	}
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error) {
	if f.batchGetFn != nil {
		return f.batchGetFn(params)
	}
	return &dynamodb.BatchGetItemOutput{}, nil
}

func (f *fakeDynamo) BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	if f.batchWriteFn != nil {
		return f.batchWriteFn(params)
	}
	return &dynamodb.BatchWriteItemOutput{}, nil
}

func (f *fakeDynamo) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	if f.scanFn != nil {
		return f.scanFn(params)
	}
	return &dynamodb.ScanOutput{}, nil
}

var _ DynamoAPI = (*fakeDynamo)(nil)

// authedServices restores a "u1" session against the fake, layering the
// profile lookup over any getFn the test installed.
func authedServices(t *testing.T, fake *fakeDynamo) (*DynamoService, *AuthService) {
	t.Helper()
	t.Setenv("AVARA_USER_ID", "u1")
	t.Setenv("AVARA_SESSION_TOKEN", "token")

	profile, err := attributevalue.MarshalMap(models.UserProfile{
		UserID:              "u1",
		DisplayName:         "Tester",
		OnboardingCompleted: true,
	})
	require.NoError(t, err)

	inner := fake.getFn
	fake.getFn = func(params *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
		if params.TableName != nil && *params.TableName == models.UserProfilesTable {
			return &dynamodb.GetItemOutput{Item: profile}, nil
		}
		if inner != nil {
			return inner(params)
		}
		return &dynamodb.GetItemOutput{}, nil
	}

	ds := &DynamoService{Client: fake}
	auth := NewAuthService(ds, zap.NewNop())
	require.NoError(t, auth.Initialize(context.Background()))
	return ds, auth
}
