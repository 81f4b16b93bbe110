package store

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ OrderStore = (*DynamoStore)(nil)

type mockDynamoDBClient struct {
	dynamodbiface.DynamoDBAPI

	getItem    func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error)
	putItem    func(*dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error)
	updateItem func(*dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error)
	deleteItem func(*dynamodb.DeleteItemInput) (*dynamodb.DeleteItemOutput, error)
	scan       func(*dynamodb.ScanInput) (*dynamodb.ScanOutput, error)
}

func (m *mockDynamoDBClient) GetItemWithContext(_ aws.Context, in *dynamodb.GetItemInput, _ ...request.Option) (*dynamodb.GetItemOutput, error) {
	return m.getItem(in)
}

func (m *mockDynamoDBClient) PutItemWithContext(_ aws.Context, in *dynamodb.PutItemInput, _ ...request.Option) (*dynamodb.PutItemOutput, error) {
	return m.putItem(in)
}

func (m *mockDynamoDBClient) UpdateItemWithContext(_ aws.Context, in *dynamodb.UpdateItemInput, _ ...request.Option) (*dynamodb.UpdateItemOutput, error) {
	return m.updateItem(in)
}

func (m *mockDynamoDBClient) DeleteItemWithContext(_ aws.Context, in *dynamodb.DeleteItemInput, _ ...request.Option) (*dynamodb.DeleteItemOutput, error) {
	return m.deleteItem(in)
}

func (m *mockDynamoDBClient) ScanWithContext(_ aws.Context, in *dynamodb.ScanInput, _ ...request.Option) (*dynamodb.ScanOutput, error) {
	return m.scan(in)
}

func item(id string, status string) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		"orderId": {S: aws.String(id)},
		"status":  {S: aws.String(status)},
	}
}

func TestNewDynamoDBClient(t *testing.T) {
	svc, err := NewDynamoDBClient("us-east-1", "http://localhost:8000")
	require.NoError(t, err)

	client, ok := svc.(*dynamodb.DynamoDB)
	require.True(t, ok)
	assert.Equal(t, "us-east-1", client.SigningRegion)
	assert.Equal(t, "http://localhost:8000", client.Endpoint)
}

func TestDynamoStore_Get(t *testing.T) {
	m := &mockDynamoDBClient{
		getItem: func(in *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			assert.Equal(t, "orders", *in.TableName)
			assert.Equal(t, "abc", *in.Key["orderId"].S)
			return &dynamodb.GetItemOutput{Item: item("abc", "new")}, nil
		},
	}

	order, found, err := NewDynamoStore(m, "orders").Get(context.Background(), "abc")

	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, Order{"orderId": "abc", "status": "new"}, order)
}

func TestDynamoStore_Get_notFound(t *testing.T) {
	m := &mockDynamoDBClient{
		getItem: func(in *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			return &dynamodb.GetItemOutput{}, nil
		},
	}

	order, found, err := NewDynamoStore(m, "orders").Get(context.Background(), "abc")

	assert.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, order)
}

func TestDynamoStore_Get_error(t *testing.T) {
	m := &mockDynamoDBClient{
		getItem: func(in *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			return nil, errors.New("test fail")
		},
	}

	_, _, err := NewDynamoStore(m, "orders").Get(context.Background(), "abc")

	assert.Error(t, err)
	assert.Equal(t, "failed get abc on orders: test fail", err.Error())
}

func TestDynamoStore_Get_validation(t *testing.T) {
	m := &mockDynamoDBClient{
		getItem: func(in *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			return nil, awserr.New("ValidationException", "key element does not match the schema", nil)
		},
	}

	_, _, err := NewDynamoStore(m, "orders").Get(context.Background(), "")

	assert.Error(t, err)
	assert.Equal(t, ErrInvalidRequest, errors.Cause(err))
	assert.Contains(t, err.Error(), "key element does not match the schema")
}

func TestDynamoStore_Put(t *testing.T) {
	var captured *dynamodb.PutItemInput
	m := &mockDynamoDBClient{
		putItem: func(in *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
			captured = in
			return &dynamodb.PutItemOutput{}, nil
		},
	}

	err := NewDynamoStore(m, "orders").Put(context.Background(), Order{"orderId": "abc", "qty": 3, "tags": []string{"a"}})

	require.NoError(t, err)
	assert.Equal(t, "orders", *captured.TableName)
	assert.Nil(t, captured.ConditionExpression)
	assert.Equal(t, "abc", *captured.Item["orderId"].S)
	assert.Equal(t, "3", *captured.Item["qty"].N)
	assert.Len(t, captured.Item["tags"].L, 1)
}

func TestDynamoStore_Put_error(t *testing.T) {
	m := &mockDynamoDBClient{
		putItem: func(in *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
			return nil, errors.New("test fail")
		},
	}

	err := NewDynamoStore(m, "orders").Put(context.Background(), Order{"orderId": "abc"})

	assert.Error(t, err)
	assert.Equal(t, "failed put abc on orders: test fail", err.Error())
}

func TestDynamoStore_updateItemInput(t *testing.T) {
	s := NewDynamoStore(nil, "orders")

	input, err := s.updateItemInput("abc", "status", "shipped")
	require.NoError(t, err)

	assert.Equal(t, "orders", *input.TableName)
	assert.Equal(t, "abc", *input.Key["orderId"].S)
	assert.Equal(t, dynamodb.ReturnValueUpdatedNew, *input.ReturnValues)
	assert.Contains(t, *input.UpdateExpression, "SET")
	assert.NotContains(t, *input.UpdateExpression, "status")

	require.Len(t, input.ExpressionAttributeNames, 1)
	for placeholder, name := range input.ExpressionAttributeNames {
		assert.Contains(t, *input.UpdateExpression, placeholder)
		assert.Equal(t, "status", *name)
	}

	require.Len(t, input.ExpressionAttributeValues, 1)
	for placeholder, value := range input.ExpressionAttributeValues {
		assert.Contains(t, *input.UpdateExpression, placeholder)
		assert.Equal(t, "shipped", *value.S)
	}
}

func TestDynamoStore_updateItemInput_injection(t *testing.T) {
	s := NewDynamoStore(nil, "orders")

	input, err := s.updateItemInput("abc", "status = :x REMOVE total", "shipped")
	require.NoError(t, err)

	assert.NotContains(t, *input.UpdateExpression, "REMOVE")
	for _, name := range input.ExpressionAttributeNames {
		assert.Equal(t, "status = :x REMOVE total", *name)
	}
}

func TestDynamoStore_updateItemInput_invalidName(t *testing.T) {
	s := NewDynamoStore(nil, "orders")

	_, err := s.updateItemInput("abc", "", "shipped")

	assert.Error(t, err)
	assert.Equal(t, ErrInvalidRequest, errors.Cause(err))
}

func TestDynamoStore_UpdateField(t *testing.T) {
	m := &mockDynamoDBClient{
		updateItem: func(in *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
			return &dynamodb.UpdateItemOutput{
				Attributes: map[string]*dynamodb.AttributeValue{
					"status": {S: aws.String("shipped")},
				},
			}, nil
		},
	}

	attrs, err := NewDynamoStore(m, "orders").UpdateField(context.Background(), "abc", "status", "shipped")

	assert.NoError(t, err)
	assert.Equal(t, Order{"status": "shipped"}, attrs)
}

func TestDynamoStore_UpdateField_error(t *testing.T) {
	m := &mockDynamoDBClient{
		updateItem: func(in *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
			return nil, errors.New("test fail")
		},
	}

	_, err := NewDynamoStore(m, "orders").UpdateField(context.Background(), "abc", "status", "shipped")

	assert.Error(t, err)
	assert.Equal(t, "failed update abc on orders: test fail", err.Error())
}

func TestDynamoStore_Delete(t *testing.T) {
	m := &mockDynamoDBClient{
		deleteItem: func(in *dynamodb.DeleteItemInput) (*dynamodb.DeleteItemOutput, error) {
			assert.Equal(t, "abc", *in.Key["orderId"].S)
			assert.Equal(t, dynamodb.ReturnValueAllOld, *in.ReturnValues)
			return &dynamodb.DeleteItemOutput{Attributes: item("abc", "new")}, nil
		},
	}

	old, err := NewDynamoStore(m, "orders").Delete(context.Background(), "abc")

	assert.NoError(t, err)
	assert.Equal(t, Order{"orderId": "abc", "status": "new"}, old)
}

func TestDynamoStore_Delete_missing(t *testing.T) {
	m := &mockDynamoDBClient{
		deleteItem: func(in *dynamodb.DeleteItemInput) (*dynamodb.DeleteItemOutput, error) {
			return &dynamodb.DeleteItemOutput{}, nil
		},
	}

	old, err := NewDynamoStore(m, "orders").Delete(context.Background(), "abc")

	assert.NoError(t, err)
	assert.Nil(t, old)
}

func TestDynamoStore_Scan_pages(t *testing.T) {
	var startKeys []string

	pages := []*dynamodb.ScanOutput{
		{
			Items:            []map[string]*dynamodb.AttributeValue{item("a", "new"), item("b", "new")},
			LastEvaluatedKey: map[string]*dynamodb.AttributeValue{"orderId": {S: aws.String("b")}},
		},
		{
			Items:            []map[string]*dynamodb.AttributeValue{item("c", "shipped")},
			LastEvaluatedKey: map[string]*dynamodb.AttributeValue{"orderId": {S: aws.String("c")}},
		},
		{
			Items: []map[string]*dynamodb.AttributeValue{item("d", "new")},
		},
	}

	calls := 0
	m := &mockDynamoDBClient{
		scan: func(in *dynamodb.ScanInput) (*dynamodb.ScanOutput, error) {
			assert.Equal(t, "orders", *in.TableName)

			if in.ExclusiveStartKey == nil {
				startKeys = append(startKeys, "")
			} else {
				startKeys = append(startKeys, *in.ExclusiveStartKey["orderId"].S)
			}

			out := pages[calls]
			calls++
			return out, nil
		},
	}

	orders, err := NewDynamoStore(m, "orders").Scan(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"", "b", "c"}, startKeys)
	require.Len(t, orders, 4)
	assert.Equal(t, Order{"orderId": "a", "status": "new"}, orders[0])
	assert.Equal(t, Order{"orderId": "d", "status": "new"}, orders[3])
}

func TestDynamoStore_Scan_empty(t *testing.T) {
	m := &mockDynamoDBClient{
		scan: func(in *dynamodb.ScanInput) (*dynamodb.ScanOutput, error) {
			return &dynamodb.ScanOutput{}, nil
		},
	}

	orders, err := NewDynamoStore(m, "orders").Scan(context.Background())

	assert.NoError(t, err)
	assert.NotNil(t, orders)
	assert.Empty(t, orders)
}

func TestDynamoStore_Scan_error(t *testing.T) {
	m := &mockDynamoDBClient{
		scan: func(in *dynamodb.ScanInput) (*dynamodb.ScanOutput, error) {
			return nil, errors.New("test fail")
		},
	}

	_, err := NewDynamoStore(m, "orders").Scan(context.Background())

	assert.Error(t, err)
	assert.Equal(t, "failed scan * on orders: test fail", err.Error())
}

func TestDynamoStore_Put_keepsEmptyValues(t *testing.T) {
	var captured *dynamodb.PutItemInput
	m := &mockDynamoDBClient{
		putItem: func(in *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
			captured = in
			return &dynamodb.PutItemOutput{}, nil
		},
		getItem: func(in *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			return &dynamodb.GetItemOutput{Item: captured.Item}, nil
		},
	}

	s := NewDynamoStore(m, "orders")
	order := Order{
		"orderId": "abc",
		"note":    "",
		"lines":   []interface{}{},
		"extra":   map[string]interface{}{"gift": ""},
	}

	require.NoError(t, s.Put(context.Background(), order))

	assert.Nil(t, captured.Item["note"].NULL)
	require.NotNil(t, captured.Item["note"].S)
	assert.Equal(t, "", *captured.Item["note"].S)
	assert.NotNil(t, captured.Item["lines"].L)

	stored, found, err := s.Get(context.Background(), "abc")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, order, stored)
}

func TestDynamoStore_UpdateField_keepsEmptyString(t *testing.T) {
	m := &mockDynamoDBClient{
		updateItem: func(in *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
			attrs := map[string]*dynamodb.AttributeValue{}
			for placeholder, name := range in.ExpressionAttributeNames {
				value := in.ExpressionAttributeValues[":"+placeholder[1:]]
				attrs[*name] = value
			}
			return &dynamodb.UpdateItemOutput{Attributes: attrs}, nil
		},
	}

	s := NewDynamoStore(m, "orders")

	input, err := s.updateItemInput("abc", "note", "")
	require.NoError(t, err)
	for _, value := range input.ExpressionAttributeValues {
		assert.Nil(t, value.NULL)
		require.NotNil(t, value.S)
		assert.Equal(t, "", *value.S)
	}

	attrs, err := s.UpdateField(context.Background(), "abc", "note", "")
	require.NoError(t, err)
	assert.Equal(t, Order{"note": ""}, attrs)
}
