package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/skiff-cd/skiff/domain"
)

const recordKeyAttribute = "UseCaseId"

// UseCaseRecord is the persisted metadata record for one use case
// deployment. It outlives the stack: soft deletion only sets the TTL
// attribute, and the record disappears when the TTL expires or a permanent
// delete removes it.
type UseCaseRecord struct {
	UseCaseID        string `dynamodbav:"UseCaseId"`
	Name             string `dynamodbav:"Name"`
	Description      string `dynamodbav:"Description,omitempty"`
	UserID           string `dynamodbav:"UserId"`
	ProviderName     string `dynamodbav:"ProviderName"`
	UseCaseType      string `dynamodbav:"UseCaseType"`
	StackID          string `dynamodbav:"StackId"`
	SSMParameterKey  string `dynamodbav:"SSMParameterKey"`
	CreatedAt        string `dynamodbav:"CreatedAt"`
	TTLForSoftDelete *int64 `dynamodbav:"TTLForSoftDelete,omitempty"`
}

// NewUseCaseRecord builds the record for a freshly provisioned use case.
func NewUseCaseRecord(useCase *domain.UseCase) *UseCaseRecord {
	return &UseCaseRecord{
		UseCaseID:       useCase.ID.String(),
		Name:            useCase.Name,
		Description:     useCase.Description,
		UserID:          useCase.UserID,
		ProviderName:    useCase.ProviderName,
		UseCaseType:     useCase.UseCaseType,
		StackID:         useCase.StackID,
		SSMParameterKey: useCase.ConfigKey,
		CreatedAt:       time.Now().UTC().Format(time.RFC3339),
	}
}

// ToSummary maps the record into the listing aggregate's record portion.
func (r *UseCaseRecord) ToSummary() domain.DeploymentSummary {
	return domain.DeploymentSummary{
		UseCaseID:    r.UseCaseID,
		Name:         r.Name,
		Description:  r.Description,
		ProviderName: r.ProviderName,
		UseCaseType:  r.UseCaseType,
		StackID:      r.StackID,
		ConfigKey:    r.SSMParameterKey,
		CreatedAt:    r.CreatedAt,
	}
}

// RecordPage is one page of scanned records. ScannedCount supports
// caller-side pagination continuation.
type RecordPage struct {
	Records       []UseCaseRecord
	NextPageToken string
	ScannedCount  int32
}

// DynamoDBAPI is the subset of the DynamoDB client the record store uses,
// abstracted for testing.
type DynamoDBAPI interface {
	PutItem(
		ctx context.Context,
		params *dynamodb.PutItemInput,
		optFns ...func(*dynamodb.Options),
	) (*dynamodb.PutItemOutput, error)
	GetItem(
		ctx context.Context,
		params *dynamodb.GetItemInput,
		optFns ...func(*dynamodb.Options),
	) (*dynamodb.GetItemOutput, error)
	UpdateItem(
		ctx context.Context,
		params *dynamodb.UpdateItemInput,
		optFns ...func(*dynamodb.Options),
	) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(
		ctx context.Context,
		params *dynamodb.DeleteItemInput,
		optFns ...func(*dynamodb.Options),
	) (*dynamodb.DeleteItemOutput, error)
	Scan(
		ctx context.Context,
		params *dynamodb.ScanInput,
		optFns ...func(*dynamodb.Options),
	) (*dynamodb.ScanOutput, error)
}

// DynamoRecordStore keeps use case metadata records in a DynamoDB table.
type DynamoRecordStore struct {
	api       DynamoDBAPI
	tableName string
	retention time.Duration
	scanLimit int32

	// now is swapped in tests to pin TTL values.
	now func() time.Time
}

func NewDynamoRecordStore(api DynamoDBAPI, config *Config) *DynamoRecordStore {
	return &DynamoRecordStore{
		api:       api,
		tableName: config.RecordTableName,
		retention: config.SoftDeleteRetention,
		scanLimit: config.ScanLimit,
		now:       time.Now,
	}
}

func (s *DynamoRecordStore) recordKey(useCaseID string) map[string]ddbtypes.AttributeValue {
	return map[string]ddbtypes.AttributeValue{
		recordKeyAttribute: &ddbtypes.AttributeValueMemberS{Value: useCaseID},
	}
}

// Create persists a new use case record.
func (s *DynamoRecordStore) Create(ctx context.Context, record *UseCaseRecord) error {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("marshaling record for use case %s: %w", record.UseCaseID, err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}

	if _, err := s.api.PutItem(ctx, input); err != nil {
		slog.Error("Record creation failed", "use_case_id", record.UseCaseID, "error", err)
		return fmt.Errorf("creating record for use case %s: %w", record.UseCaseID, err)
	}

	return nil
}

// Get fetches the record for a use case ID, returning ErrRecordNotFound if
// it does not exist.
func (s *DynamoRecordStore) Get(ctx context.Context, useCaseID string) (*UseCaseRecord, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       s.recordKey(useCaseID),
	}

	output, err := s.api.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("fetching record for use case %s: %w", useCaseID, err)
	}

	if len(output.Item) == 0 {
		return nil, fmt.Errorf("fetching record for use case %s: %w", useCaseID, ErrRecordNotFound)
	}

	var record UseCaseRecord
	if err := attributevalue.UnmarshalMap(output.Item, &record); err != nil {
		return nil, fmt.Errorf("unmarshaling record for use case %s: %w", useCaseID, err)
	}

	return &record, nil
}

// Update overwrites the record with its current field values.
func (s *DynamoRecordStore) Update(ctx context.Context, record *UseCaseRecord) error {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("marshaling record for use case %s: %w", record.UseCaseID, err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}

	if _, err := s.api.PutItem(ctx, input); err != nil {
		slog.Error("Record update failed", "use_case_id", record.UseCaseID, "error", err)
		return fmt.Errorf("updating record for use case %s: %w", record.UseCaseID, err)
	}

	return nil
}

// MarkForDeletion sets the TTL attribute so the record expires after the
// retention window, without removing it immediately.
func (s *DynamoRecordStore) MarkForDeletion(ctx context.Context, useCaseID string) error {
	expiry := s.now().Add(s.retention).Unix()

	input := &dynamodb.UpdateItemInput{
		TableName:        aws.String(s.tableName),
		Key:              s.recordKey(useCaseID),
		UpdateExpression: aws.String("SET #ttl = :ttl"),
		ExpressionAttributeNames: map[string]string{
			"#ttl": "TTLForSoftDelete",
		},
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":ttl": &ddbtypes.AttributeValueMemberN{Value: fmt.Sprintf("%d", expiry)},
		},
	}

	if _, err := s.api.UpdateItem(ctx, input); err != nil {
		slog.Error("Record soft-delete marking failed", "use_case_id", useCaseID, "error", err)
		return fmt.Errorf("marking record %s for deletion: %w", useCaseID, err)
	}

	slog.Info("Record marked for deletion", "use_case_id", useCaseID, "expires_at", expiry)
	return nil
}

// Delete removes the record immediately.
func (s *DynamoRecordStore) Delete(ctx context.Context, useCaseID string) error {
	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       s.recordKey(useCaseID),
	}

	if _, err := s.api.DeleteItem(ctx, input); err != nil {
		slog.Error("Record deletion failed", "use_case_id", useCaseID, "error", err)
		return fmt.Errorf("deleting record for use case %s: %w", useCaseID, err)
	}

	return nil
}

// Scan reads one page of records. pageToken is the use case ID the previous
// page stopped at; empty means start from the beginning.
func (s *DynamoRecordStore) Scan(ctx context.Context, pageToken string) (*RecordPage, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(s.tableName),
		Limit:     aws.Int32(s.scanLimit),
	}
	if pageToken != "" {
		input.ExclusiveStartKey = s.recordKey(pageToken)
	}

	output, err := s.api.Scan(ctx, input)
	if err != nil {
		slog.Error("Record scan failed", "page_token", pageToken, "error", err)
		return nil, fmt.Errorf("scanning use case records: %w", err)
	}

	records := make([]UseCaseRecord, 0, len(output.Items))
	for _, item := range output.Items {
		var record UseCaseRecord
		if err := attributevalue.UnmarshalMap(item, &record); err != nil {
			return nil, fmt.Errorf("unmarshaling scanned record: %w", err)
		}
		records = append(records, record)
	}

	page := &RecordPage{
		Records:      records,
		ScannedCount: output.ScannedCount,
	}
	if key, ok := output.LastEvaluatedKey[recordKeyAttribute]; ok {
		if attr, ok := key.(*ddbtypes.AttributeValueMemberS); ok {
			page.NextPageToken = attr.Value
		}
	}

	return page, nil
}
