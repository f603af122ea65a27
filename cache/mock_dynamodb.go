package cache

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// MockDynamoDBClient implements DynamoDBAPI for testing. It keeps whole
// items per table and understands the single "ADD #name :value" update
// expression the cache issues.
type MockDynamoDBClient struct {
	mu     sync.RWMutex
	tables map[string]map[string]map[string]types.AttributeValue
}

// NewMockDynamoDBClient creates a new mock DynamoDB client
func NewMockDynamoDBClient() *MockDynamoDBClient {
	return &MockDynamoDBClient{
		tables: make(map[string]map[string]map[string]types.AttributeValue),
	}
}

func hashKey(key map[string]types.AttributeValue) (string, error) {
	s, ok := key["key"].(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("missing string hash key")
	}
	return s.Value, nil
}

func (m *MockDynamoDBClient) table(name *string) (map[string]map[string]types.AttributeValue, error) {
	items, ok := m.tables[aws.ToString(name)]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("table not found: " + aws.ToString(name))}
	}
	return items, nil
}

// CreateTable mocks the CreateTable operation
func (m *MockDynamoDBClient) CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := aws.ToString(params.TableName)
	if _, ok := m.tables[name]; !ok {
		m.tables[name] = make(map[string]map[string]types.AttributeValue)
	}
	return &dynamodb.CreateTableOutput{}, nil
}

// DescribeTable mocks the DescribeTable operation
func (m *MockDynamoDBClient) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, err := m.table(params.TableName); err != nil {
		return nil, err
	}
	return &dynamodb.DescribeTableOutput{
		Table: &types.TableDescription{TableName: params.TableName},
	}, nil
}

// GetItem mocks the GetItem operation
func (m *MockDynamoDBClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items, err := m.table(params.TableName)
	if err != nil {
		return nil, err
	}
	key, err := hashKey(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := items[key]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}

	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return &dynamodb.GetItemOutput{Item: out}, nil
}

// PutItem mocks the PutItem operation
func (m *MockDynamoDBClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items, err := m.table(params.TableName)
	if err != nil {
		return nil, err
	}
	key, err := hashKey(params.Item)
	if err != nil {
		return nil, err
	}
	items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

// UpdateItem mocks an "ADD #name :value" update on a numeric attribute
func (m *MockDynamoDBClient) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items, err := m.table(params.TableName)
	if err != nil {
		return nil, err
	}
	key, err := hashKey(params.Key)
	if err != nil {
		return nil, err
	}

	var nameRef, valueRef string
	if _, err := fmt.Sscanf(aws.ToString(params.UpdateExpression), "ADD %s %s", &nameRef, &valueRef); err != nil {
		return nil, fmt.Errorf("unsupported update expression %q", aws.ToString(params.UpdateExpression))
	}
	attr := params.ExpressionAttributeNames[nameRef]
	delta, ok := params.ExpressionAttributeValues[valueRef].(*types.AttributeValueMemberN)
	if attr == "" || !ok {
		return nil, fmt.Errorf("unresolved update expression references")
	}
	increment, err := strconv.ParseInt(delta.Value, 10, 64)
	if err != nil {
		return nil, err
	}

	item, ok := items[key]
	if !ok {
		item = map[string]types.AttributeValue{"key": &types.AttributeValueMemberS{Value: key}}
	}
	var current int64
	if n, ok := item[attr].(*types.AttributeValueMemberN); ok {
		if current, err = strconv.ParseInt(n.Value, 10, 64); err != nil {
			return nil, err
		}
	}
	item[attr] = &types.AttributeValueMemberN{Value: strconv.FormatInt(current+increment, 10)}
	items[key] = item
	return &dynamodb.UpdateItemOutput{}, nil
}

// DeleteItem mocks the DeleteItem operation
func (m *MockDynamoDBClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items, err := m.table(params.TableName)
	if err != nil {
		return nil, err
	}
	key, err := hashKey(params.Key)
	if err != nil {
		return nil, err
	}
	delete(items, key)
	return &dynamodb.DeleteItemOutput{}, nil
}

// ItemCount reports how many items a table holds
func (m *MockDynamoDBClient) ItemCount(tableName string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tables[tableName])
}
