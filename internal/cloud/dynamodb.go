package cloud

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/rioastal/wastesense/internal/domain"
)

// DynamoStore implements repository.Store on a single DynamoDB table keyed
// by record id.
type DynamoStore struct {
	svc   *dynamodb.Client
	table string
}

func NewDynamoStore(ctx context.Context, region, table string) (*DynamoStore, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return &DynamoStore{
		svc:   dynamodb.NewFromConfig(cfg),
		table: table,
	}, nil
}

// omitempty keeps absent channel fields out of the item entirely, so
// attribute_exists works as the channel predicate.
type dynamoRecord struct {
	ID     string   `dynamodbav:"id"`
	Gvalue *float64 `dynamodbav:"gvalue,omitempty"`
	Gdate  *string  `dynamodbav:"gdate,omitempty"`
	Mvalue *float64 `dynamodbav:"mvalue,omitempty"`
	Mdate  *string  `dynamodbav:"mdate,omitempty"`
}

func toDynamo(rec domain.Record) dynamoRecord {
	return dynamoRecord{
		ID:     rec.ID,
		Gvalue: rec.Gvalue,
		Gdate:  rec.Gdate,
		Mvalue: rec.Mvalue,
		Mdate:  rec.Mdate,
	}
}

func fromDynamo(d dynamoRecord) domain.Record {
	return domain.Record{
		ID:     d.ID,
		Gvalue: d.Gvalue,
		Gdate:  d.Gdate,
		Mvalue: d.Mvalue,
		Mdate:  d.Mdate,
	}
}

func sensorFilter(sensor domain.Sensor) *string {
	switch sensor {
	case domain.SensorRain:
		return aws.String("attribute_exists(gvalue)")
	case domain.SensorGas:
		return aws.String("attribute_exists(mvalue)")
	}
	return nil
}

func (s *DynamoStore) List(ctx context.Context, sensor domain.Sensor) ([]domain.Record, error) {
	out := []domain.Record{}
	var startKey map[string]types.AttributeValue

	for {
		result, err := s.svc.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(s.table),
			FilterExpression:  sensorFilter(sensor),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan records: %w", err)
		}

		var items []dynamoRecord
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal records: %w", err)
		}
		for _, item := range items {
			out = append(out, fromDynamo(item))
		}

		if result.LastEvaluatedKey == nil {
			return out, nil
		}
		startKey = result.LastEvaluatedKey
	}
}

func (s *DynamoStore) Create(ctx context.Context, f domain.Fields) (domain.Record, error) {
	rec := domain.Record{
		ID:     uuid.NewString(),
		Gvalue: f.Gvalue,
		Gdate:  f.Gdate,
		Mvalue: f.Mvalue,
		Mdate:  f.Mdate,
	}

	item, err := attributevalue.MarshalMap(toDynamo(rec))
	if err != nil {
		return domain.Record{}, fmt.Errorf("failed to marshal record: %w", err)
	}

	_, err = s.svc.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return domain.Record{}, fmt.Errorf("failed to put record: %w", err)
	}
	return rec, nil
}

// UpdateByID replaces the whole item; the condition turns a missing id into
// ErrNotFound instead of an upsert.
func (s *DynamoStore) UpdateByID(ctx context.Context, id string, f domain.Fields) (domain.Record, error) {
	rec := domain.Record{
		ID:     id,
		Gvalue: f.Gvalue,
		Gdate:  f.Gdate,
		Mvalue: f.Mvalue,
		Mdate:  f.Mdate,
	}

	item, err := attributevalue.MarshalMap(toDynamo(rec))
	if err != nil {
		return domain.Record{}, fmt.Errorf("failed to marshal record: %w", err)
	}

	_, err = s.svc.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.table),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": "id"},
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return domain.Record{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Record{}, fmt.Errorf("failed to update record: %w", err)
	}
	return rec, nil
}

func (s *DynamoStore) DeleteByID(ctx context.Context, id string) (domain.Record, error) {
	result, err := s.svc.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return domain.Record{}, fmt.Errorf("failed to delete record: %w", err)
	}
	if len(result.Attributes) == 0 {
		return domain.Record{}, domain.ErrNotFound
	}

	var old dynamoRecord
	if err := attributevalue.UnmarshalMap(result.Attributes, &old); err != nil {
		return domain.Record{}, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return fromDynamo(old), nil
}

func (s *DynamoStore) DeleteAll(ctx context.Context, sensor domain.Sensor) (int64, error) {
	const batchSize = 25 // DynamoDB batch write limit

	var ids []string
	var startKey map[string]types.AttributeValue
	for {
		result, err := s.svc.Scan(ctx, &dynamodb.ScanInput{
			TableName:                aws.String(s.table),
			FilterExpression:         sensorFilter(sensor),
			ProjectionExpression:     aws.String("#id"),
			ExpressionAttributeNames: map[string]string{"#id": "id"},
			ExclusiveStartKey:        startKey,
		})
		if err != nil {
			return 0, fmt.Errorf("failed to scan records: %w", err)
		}
		var items []dynamoRecord
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &items); err != nil {
			return 0, fmt.Errorf("failed to unmarshal records: %w", err)
		}
		for _, item := range items {
			ids = append(ids, item.ID)
		}
		if result.LastEvaluatedKey == nil {
			break
		}
		startKey = result.LastEvaluatedKey
	}

	for i := 0; i < len(ids); i += batchSize {
		end := i + batchSize
		if end > len(ids) {
			end = len(ids)
		}

		batch := ids[i:end]
		writeRequests := make([]types.WriteRequest, len(batch))
		for j, id := range batch {
			writeRequests[j] = types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{
					Key: map[string]types.AttributeValue{
						"id": &types.AttributeValueMemberS{Value: id},
					},
				},
			}
		}

		_, err := s.svc.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				s.table: writeRequests,
			},
		})
		if err != nil {
			return 0, fmt.Errorf("failed to batch delete records: %w", err)
		}
	}
	return int64(len(ids)), nil
}
