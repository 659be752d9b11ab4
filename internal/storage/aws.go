package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/ignite/attendance-checkin/internal/domain"
)

const (
	scanPKPrefix = "SCAN#"
	// skTimeLayout is fixed width so lexical order on SK is time order.
	skTimeLayout = "2006-01-02T15:04:05.000000000Z"
	// maxBatchWrite is the DynamoDB BatchWriteItem request limit.
	maxBatchWrite     = 25
	maxBatchAttempts  = 5
	archiveKeyPrefix  = "scans/archive/"
	archiveTimeLayout = "20060102T150405Z"
)

type dynamoAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// loadAWSConfig resolves credentials in this order: static keys, a named
// profile, then the default chain (IAM role on ECS).
func loadAWSConfig(ctx context.Context, region, profile, accessKey, secretKey string) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	switch {
	case accessKey != "" && secretKey != "":
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	case profile != "":
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading AWS config: %w", err)
	}
	return cfg, nil
}

// AWSStorage stores scan events in a DynamoDB table with one partition per
// code. Sort keys start with the UTC scan time, so a day window is a single
// key-range query.
type AWSStorage struct {
	dynamoDB  dynamoAPI
	tableName string
	now       func() time.Time
}

// scanItem is one event as stored in DynamoDB.
type scanItem struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	ID        string `dynamodbav:"ID"`
	Code      string `dynamodbav:"Code"`
	Name      string `dynamodbav:"Name"`
	ScannedAt string `dynamodbav:"ScannedAt"`
}

func (it scanItem) event() (domain.ScanEvent, error) {
	ts, err := time.Parse(time.RFC3339Nano, it.ScannedAt)
	if err != nil {
		return domain.ScanEvent{}, fmt.Errorf("parsing ScannedAt of %s: %w", it.ID, err)
	}
	return domain.ScanEvent{ID: it.ID, Code: it.Code, Name: it.Name, Timestamp: ts}, nil
}

// NewAWSStorage creates a DynamoDB-backed event store on an existing client.
func NewAWSStorage(client dynamoAPI, tableName string) *AWSStorage {
	return &AWSStorage{dynamoDB: client, tableName: tableName, now: time.Now}
}

// Ping checks that the table exists and is reachable.
func (s *AWSStorage) Ping(ctx context.Context) error {
	_, err := s.dynamoDB.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.tableName)})
	return err
}

func skBound(t time.Time) string {
	return t.UTC().Format(skTimeLayout)
}

func (s *AWSStorage) FindInWindow(ctx context.Context, code string, from, to time.Time) (*domain.ScanEvent, error) {
	// BETWEEN is inclusive, but every SK carries a "#<id>" suffix, so the bare
	// upper bound sorts before any event stamped exactly at to.
	result, err := s.dynamoDB.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND SK BETWEEN :from AND :to"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":   &types.AttributeValueMemberS{Value: scanPKPrefix + code},
			":from": &types.AttributeValueMemberS{Value: skBound(from)},
			":to":   &types.AttributeValueMemberS{Value: skBound(to)},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("querying scans from DynamoDB: %w", err)
	}
	if len(result.Items) == 0 {
		return nil, nil
	}

	var item scanItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, fmt.Errorf("unmarshaling scan item: %w", err)
	}
	e, err := item.event()
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *AWSStorage) Record(ctx context.Context, code, name string) (*domain.ScanEvent, error) {
	e := domain.ScanEvent{
		ID:        uuid.New().String(),
		Code:      code,
		Name:      name,
		Timestamp: s.now().UTC(),
	}
	item := scanItem{
		PK:        scanPKPrefix + code,
		SK:        skBound(e.Timestamp) + "#" + e.ID,
		ID:        e.ID,
		Code:      code,
		Name:      name,
		ScannedAt: e.Timestamp.Format(time.RFC3339Nano),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return nil, fmt.Errorf("marshaling item: %w", err)
	}

	_, err = s.dynamoDB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		return nil, fmt.Errorf("putting scan to DynamoDB: %w", err)
	}
	return &e, nil
}

func (s *AWSStorage) List(ctx context.Context, from, to time.Time) ([]domain.ScanEvent, error) {
	filter := []string{"begins_with(PK, :prefix)"}
	values := map[string]types.AttributeValue{
		":prefix": &types.AttributeValueMemberS{Value: scanPKPrefix},
	}
	if !from.IsZero() {
		filter = append(filter, "SK >= :from")
		values[":from"] = &types.AttributeValueMemberS{Value: skBound(from)}
	}
	if !to.IsZero() {
		filter = append(filter, "SK < :to")
		values[":to"] = &types.AttributeValueMemberS{Value: skBound(to)}
	}

	var events []domain.ScanEvent
	err := s.scanAll(ctx, &dynamodb.ScanInput{
		TableName:                 aws.String(s.tableName),
		FilterExpression:          aws.String(strings.Join(filter, " AND ")),
		ExpressionAttributeValues: values,
	}, func(item map[string]types.AttributeValue) error {
		var it scanItem
		if err := attributevalue.UnmarshalMap(item, &it); err != nil {
			return fmt.Errorf("unmarshaling scan item: %w", err)
		}
		e, err := it.event()
		if err != nil {
			return err
		}
		events = append(events, e)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].Timestamp.Before(events[j].Timestamp) })
	return events, nil
}

// ClearAll scans every event key and deletes them in BatchWriteItem chunks.
func (s *AWSStorage) ClearAll(ctx context.Context) (int, error) {
	var keys []map[string]types.AttributeValue
	err := s.scanAll(ctx, &dynamodb.ScanInput{
		TableName:                 aws.String(s.tableName),
		FilterExpression:          aws.String("begins_with(PK, :prefix)"),
		ProjectionExpression:      aws.String("PK, SK"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":prefix": &types.AttributeValueMemberS{Value: scanPKPrefix},
		},
	}, func(item map[string]types.AttributeValue) error {
		keys = append(keys, map[string]types.AttributeValue{"PK": item["PK"], "SK": item["SK"]})
		return nil
	})
	if err != nil {
		return 0, err
	}

	deleted := 0
	for start := 0; start < len(keys); start += maxBatchWrite {
		end := start + maxBatchWrite
		if end > len(keys) {
			end = len(keys)
		}
		if err := s.deleteBatch(ctx, keys[start:end]); err != nil {
			return deleted, err
		}
		deleted += end - start
	}
	return deleted, nil
}

func (s *AWSStorage) deleteBatch(ctx context.Context, keys []map[string]types.AttributeValue) error {
	requests := make([]types.WriteRequest, 0, len(keys))
	for _, k := range keys {
		requests = append(requests, types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: k}})
	}

	pending := map[string][]types.WriteRequest{s.tableName: requests}
	for attempt := 0; attempt < maxBatchAttempts; attempt++ {
		out, err := s.dynamoDB.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return fmt.Errorf("deleting scans from DynamoDB: %w", err)
		}
		if len(out.UnprocessedItems[s.tableName]) == 0 {
			return nil
		}
		pending = out.UnprocessedItems
	}
	return fmt.Errorf("deleting scans from DynamoDB: %d items still unprocessed", len(pending[s.tableName]))
}

func (s *AWSStorage) scanAll(ctx context.Context, in *dynamodb.ScanInput, fn func(map[string]types.AttributeValue) error) error {
	for {
		out, err := s.dynamoDB.Scan(ctx, in)
		if err != nil {
			return fmt.Errorf("scanning DynamoDB: %w", err)
		}
		for _, item := range out.Items {
			if err := fn(item); err != nil {
				return err
			}
		}
		if len(out.LastEvaluatedKey) == 0 {
			return nil
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// S3Archiver writes event snapshots to S3 as JSON.
type S3Archiver struct {
	s3Client s3API
	bucket   string
	now      func() time.Time
}

// NewS3Archiver creates an archiver writing under scans/archive/ in bucket.
func NewS3Archiver(client s3API, bucket string) *S3Archiver {
	return &S3Archiver{s3Client: client, bucket: bucket, now: time.Now}
}

// Archive stores events and returns the object key.
func (a *S3Archiver) Archive(ctx context.Context, events []domain.ScanEvent) (string, error) {
	jsonData, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling scans: %w", err)
	}

	key := archiveKeyPrefix + a.now().UTC().Format(archiveTimeLayout) + ".json"
	_, err = a.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(jsonData),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("putting object to S3: %w", err)
	}
	return key, nil
}
