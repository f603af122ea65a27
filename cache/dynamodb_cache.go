package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ammiranda/department_service/nestedset"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDBAPI defines the interface for DynamoDB operations
type DynamoDBAPI interface {
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

const (
	// DefaultTableName is used when no table is configured
	DefaultTableName = "DepartmentCache"

	generationItemKey = "generation"
)

// CacheItem is one cached query result
type CacheItem struct {
	Key       string           `dynamodbav:"key"`
	Nodes     []nestedset.Node `dynamodbav:"nodes"`
	Timestamp int64            `dynamodbav:"timestamp"`
	TTL       int64            `dynamodbav:"ttl"`
}

// generationItem holds the counter that scopes every CacheItem key
type generationItem struct {
	Key        string `dynamodbav:"key"`
	Generation int64  `dynamodbav:"generation"`
}

// DynamoDBCache implements CacheProvider using DynamoDB
type DynamoDBCache struct {
	client    DynamoDBAPI
	tableName string
	cacheTTL  time.Duration
}

// NewDynamoDBCache creates a new DynamoDB cache provider
func NewDynamoDBCache(ctx context.Context, tableName string) (*DynamoDBCache, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return NewDynamoDBCacheWithClient(dynamodb.NewFromConfig(cfg), tableName), nil
}

// NewDynamoDBCacheWithClient creates a new DynamoDB cache provider with a custom client
func NewDynamoDBCacheWithClient(client DynamoDBAPI, tableName string) *DynamoDBCache {
	if tableName == "" {
		tableName = DefaultTableName
	}
	return &DynamoDBCache{
		client:    client,
		tableName: tableName,
		cacheTTL:  DefaultTTL,
	}
}

// Initialize creates the DynamoDB table if it doesn't exist
func (c *DynamoDBCache) Initialize(ctx context.Context) error {
	_, err := c.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(c.tableName),
	})
	if err == nil {
		return nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("error describing cache table: %w", err)
	}

	_, err = c.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(c.tableName),
		AttributeDefinitions: []types.AttributeDefinition{
			{
				AttributeName: aws.String("key"),
				AttributeType: types.ScalarAttributeTypeS,
			},
		},
		KeySchema: []types.KeySchemaElement{
			{
				AttributeName: aws.String("key"),
				KeyType:       types.KeyTypeHash,
			},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("error creating cache table: %w", err)
	}
	return nil
}

func (c *DynamoDBCache) itemKey(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"key": &types.AttributeValueMemberS{Value: key},
	}
}

// Generation returns the current cache generation
func (c *DynamoDBCache) Generation(ctx context.Context) (int64, error) {
	result, err := c.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(c.tableName),
		Key:            c.itemKey(generationItemKey),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return 0, fmt.Errorf("error reading cache generation: %w", err)
	}
	if result.Item == nil {
		return 0, nil
	}

	var item generationItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return 0, fmt.Errorf("error decoding cache generation: %w", err)
	}
	return item.Generation, nil
}

// GetNodes retrieves a cached result from DynamoDB if available
func (c *DynamoDBCache) GetNodes(ctx context.Context, generation int64, key string) ([]nestedset.Node, bool) {
	itemKey := fmt.Sprintf("%d:%s", generation, key)
	result, err := c.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key:       c.itemKey(itemKey),
	})
	if err != nil || result.Item == nil {
		return nil, false
	}

	var item CacheItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, false
	}

	// Check if cache is still valid
	if time.Now().Unix() > item.TTL {
		if _, err := c.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(c.tableName),
			Key:       c.itemKey(itemKey),
		}); err != nil {
			slog.Warn("error deleting expired cache item", slog.String("key", itemKey), slog.Any("error", err))
		}
		return nil, false
	}

	if item.Nodes == nil {
		item.Nodes = []nestedset.Node{}
	}
	return item.Nodes, true
}

// SetNodes stores a result in DynamoDB cache
func (c *DynamoDBCache) SetNodes(ctx context.Context, generation int64, key string, nodes []nestedset.Node) {
	now := time.Now()
	item := CacheItem{
		Key:       fmt.Sprintf("%d:%s", generation, key),
		Nodes:     nodes,
		Timestamp: now.Unix(),
		TTL:       now.Add(c.cacheTTL).Unix(),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		slog.Warn("error encoding cache item", slog.String("key", item.Key), slog.Any("error", err))
		return
	}

	if _, err := c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      av,
	}); err != nil {
		slog.Warn("error storing cache item", slog.String("key", item.Key), slog.Any("error", err))
	}
}

// InvalidateCache atomically advances the generation counter
func (c *DynamoDBCache) InvalidateCache(ctx context.Context) error {
	_, err := c.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(c.tableName),
		Key:                      c.itemKey(generationItemKey),
		UpdateExpression:         aws.String("ADD #g :one"),
		ExpressionAttributeNames: map[string]string{"#g": "generation"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
	})
	if err != nil {
		return fmt.Errorf("error advancing cache generation: %w", err)
	}
	return nil
}

// SetCacheTTL sets the cache time-to-live duration
func (c *DynamoDBCache) SetCacheTTL(ttl time.Duration) {
	c.cacheTTL = ttl
}
