package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/kinoxada/kinobot/internal/catalog"
)

// Single-table key layout.
const (
	moviePKPrefix = "MOVIE#"
	userPKPrefix  = "USER#"
	skMeta        = "META"
)

// DynamoCatalog implements Catalog on a DynamoDB single-table design:
// movies under MOVIE#<code>, user presence markers under USER#<id>.
type DynamoCatalog struct {
	client    *dynamodb.Client
	tableName string
}

var _ Catalog = (*DynamoCatalog)(nil)

// NewDynamoCatalog creates a DynamoCatalog for the given table. The
// client should be initialized from the shared AWS config.
func NewDynamoCatalog(client *dynamodb.Client, tableName string) *DynamoCatalog {
	return &DynamoCatalog{client: client, tableName: tableName}
}

// NewDynamoClient builds a DynamoDB client from the ambient AWS config.
// Region and endpoint are optional overrides; endpoint is used for local
// DynamoDB instances.
func NewDynamoClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var clientOpts []func(*dynamodb.Options)
	if endpoint != "" {
		clientOpts = append(clientOpts, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}
	return dynamodb.NewFromConfig(awsCfg, clientOpts...), nil
}

func moviePK(code string) string {
	return moviePKPrefix + code
}

func (s *DynamoCatalog) GetMovie(ctx context.Context, code string) (*catalog.Movie, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: moviePK(code)},
			"SK": &types.AttributeValueMemberS{Value: skMeta},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("GetItem code=%s: %w", code, err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var m catalog.Movie
	if err := attributevalue.UnmarshalMap(result.Item, &m); err != nil {
		return nil, fmt.Errorf("unmarshal movie %s: %w", code, err)
	}
	m.Code = code
	return &m, nil
}

func (s *DynamoCatalog) PutMovie(ctx context.Context, m catalog.Movie) error {
	item, err := attributevalue.MarshalMap(m)
	if err != nil {
		return fmt.Errorf("marshal movie %s: %w", m.Code, err)
	}
	item["PK"] = &types.AttributeValueMemberS{Value: moviePK(m.Code)}
	item["SK"] = &types.AttributeValueMemberS{Value: skMeta}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var condFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condFailed) {
			return ErrCodeTaken
		}
		return fmt.Errorf("PutItem code=%s: %w", m.Code, err)
	}
	return nil
}

func (s *DynamoCatalog) DeleteMovie(ctx context.Context, code string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: moviePK(code)},
			"SK": &types.AttributeValueMemberS{Value: skMeta},
		},
	})
	if err != nil {
		return fmt.Errorf("DeleteItem code=%s: %w", code, err)
	}
	return nil
}

func (s *DynamoCatalog) ListMovies(ctx context.Context) (map[string]catalog.Movie, error) {
	input := &dynamodb.ScanInput{
		TableName:        &s.tableName,
		FilterExpression: aws.String("begins_with(PK, :p)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":p": &types.AttributeValueMemberS{Value: moviePKPrefix},
		},
	}

	out := make(map[string]catalog.Movie)

	// Scan returns at most 1MB per call; paginate to the end.
	for {
		result, err := s.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("Scan movies: %w", err)
		}

		for _, item := range result.Items {
			pkAttr, ok := item["PK"].(*types.AttributeValueMemberS)
			if !ok {
				continue
			}
			code := strings.TrimPrefix(pkAttr.Value, moviePKPrefix)

			var m catalog.Movie
			if err := attributevalue.UnmarshalMap(item, &m); err != nil {
				return nil, fmt.Errorf("unmarshal movie %s: %w", code, err)
			}
			m.Code = code
			out[code] = m
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	return out, nil
}

func (s *DynamoCatalog) RecordUser(ctx context.Context, userID string) error {
	now := strconv.FormatInt(time.Now().Unix(), 10)

	// first_seen only on creation, last_seen bumped every time.
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPKPrefix + userID},
			"SK": &types.AttributeValueMemberS{Value: skMeta},
		},
		UpdateExpression: aws.String("SET first_seen = if_not_exists(first_seen, :now), last_seen = :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberN{Value: now},
		},
	})
	if err != nil {
		return fmt.Errorf("UpdateItem user=%s: %w", userID, err)
	}
	return nil
}

func (s *DynamoCatalog) CountUsers(ctx context.Context) (int, error) {
	input := &dynamodb.ScanInput{
		TableName:        &s.tableName,
		Select:           types.SelectCount,
		FilterExpression: aws.String("begins_with(PK, :p)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":p": &types.AttributeValueMemberS{Value: userPKPrefix},
		},
	}

	count := 0
	for {
		result, err := s.client.Scan(ctx, input)
		if err != nil {
			return 0, fmt.Errorf("Scan users: %w", err)
		}
		count += int(result.Count)

		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	return count, nil
}
