package store

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/aws/aws-sdk-go/service/dynamodb/expression"
	"github.com/pkg/errors"
)

const errCodeValidation = "ValidationException"

// encoder keeps empty strings and empty collections as they are instead of
// turning them into NULL, so orders read back the way they were written.
var encoder = dynamodbattribute.NewEncoder(func(e *dynamodbattribute.Encoder) {
	e.NullEmptyString = false
	e.EnableEmptyCollections = true
})

// DynamoStore is an OrderStore backed by a single dynamodb table keyed on
// KeyAttribute.
type DynamoStore struct {
	Table string

	svc dynamodbiface.DynamoDBAPI
}

// NewDynamoDBClient returns a dynamodb client for the region. A non empty
// endpoint overrides the default service endpoint, e.g. for dynamodb local.
func NewDynamoDBClient(region string, endpoint string) (dynamodbiface.DynamoDBAPI, error) {
	cfg := &aws.Config{
		Region: aws.String(region),
	}

	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
	}

	s, err := session.NewSession(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed getting session")
	}

	return dynamodb.New(s), nil
}

// NewDynamoStore returns a DynamoStore using svc against table.
func NewDynamoStore(svc dynamodbiface.DynamoDBAPI, table string) *DynamoStore {
	return &DynamoStore{
		Table: table,
		svc:   svc,
	}
}

func (s *DynamoStore) key(orderID string) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		KeyAttribute: {
			S: aws.String(orderID),
		},
	}
}

// wrap annotates err and marks dynamodb validation failures with
// ErrInvalidRequest.
func (s *DynamoStore) wrap(err error, op string, orderID string) error {
	aerr, ok := err.(awserr.Error)
	if ok && aerr.Code() == errCodeValidation {
		return errors.Wrapf(ErrInvalidRequest, "failed %s %v on %v: %s", op, orderID, s.Table, aerr.Message())
	}

	return errors.Wrapf(err, "failed %s %v on %v", op, orderID, s.Table)
}

func unmarshalOrder(item map[string]*dynamodb.AttributeValue) (Order, error) {
	if len(item) == 0 {
		return nil, nil
	}

	order := Order{}
	if err := dynamodbattribute.UnmarshalMap(item, &order); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal order")
	}

	return order, nil
}

// Get implements OrderStore.
func (s *DynamoStore) Get(ctx context.Context, orderID string) (Order, bool, error) {
	out, err := s.svc.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.Table),
		Key:       s.key(orderID),
	})
	if err != nil {
		return nil, false, s.wrap(err, "get", orderID)
	}

	order, err := unmarshalOrder(out.Item)
	if err != nil {
		return nil, false, err
	}

	return order, order != nil, nil
}

// Put implements OrderStore.
func (s *DynamoStore) Put(ctx context.Context, order Order) error {
	id, _ := order.ID()

	av, err := encoder.Encode(order)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal order %v", id)
	}

	_, err = s.svc.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.Table),
		Item:      av.M,
	})
	if err != nil {
		return s.wrap(err, "put", id)
	}

	return nil
}

// updateItemInput builds a SET update for a single attribute. Both the name
// and the value go through expression placeholders. The value is encoded up
// front since expression.Value would otherwise use the default encoder.
func (s *DynamoStore) updateItemInput(orderID string, name string, value interface{}) (*dynamodb.UpdateItemInput, error) {
	av, err := encoder.Encode(value)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidRequest, "failed to marshal value of '%s': %v", name, err)
	}

	update := expression.Set(expression.Name(name), expression.Value(av))

	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidRequest, "failed building update of '%s': %v", name, err)
	}

	return &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.Table),
		Key:                       s.key(orderID),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              aws.String(dynamodb.ReturnValueUpdatedNew),
	}, nil
}

// UpdateField implements OrderStore.
func (s *DynamoStore) UpdateField(ctx context.Context, orderID string, name string, value interface{}) (Order, error) {
	input, err := s.updateItemInput(orderID, name, value)
	if err != nil {
		return nil, err
	}

	out, err := s.svc.UpdateItemWithContext(ctx, input)
	if err != nil {
		return nil, s.wrap(err, "update", orderID)
	}

	return unmarshalOrder(out.Attributes)
}

// Delete implements OrderStore.
func (s *DynamoStore) Delete(ctx context.Context, orderID string) (Order, error) {
	out, err := s.svc.DeleteItemWithContext(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(s.Table),
		Key:          s.key(orderID),
		ReturnValues: aws.String(dynamodb.ReturnValueAllOld),
	})
	if err != nil {
		return nil, s.wrap(err, "delete", orderID)
	}

	return unmarshalOrder(out.Attributes)
}

// Scan implements OrderStore. Pages are followed through LastEvaluatedKey
// until the table is exhausted.
func (s *DynamoStore) Scan(ctx context.Context) ([]Order, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(s.Table),
	}

	orders := []Order{}

	for {
		out, err := s.svc.ScanWithContext(ctx, input)
		if err != nil {
			return nil, s.wrap(err, "scan", "*")
		}

		var page []Order
		if err := dynamodbattribute.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal scanned orders")
		}

		orders = append(orders, page...)

		if len(out.LastEvaluatedKey) == 0 {
			return orders, nil
		}

		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}
