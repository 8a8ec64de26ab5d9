package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/zlnvch/stickyboard/store"
)

// dynamoClient is the subset of *dynamodb.Client the store uses.
type dynamoClient interface {
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

func newDynamoDBClient(ctx context.Context, devMode bool, dynamodbEndpoint string) (*dynamodb.Client, error) {
	if devMode {
		// Load config with dummy credentials and region for local/dev
		cfg, err := config.LoadDefaultConfig(ctx,
			config.WithRegion("us-east-1"),
			config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider("dummy", "dummy", ""),
			),
		)
		if err != nil {
			return nil, err
		}

		return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(dynamodbEndpoint)
		}), nil
	}

	// Production: default config (task role and AWS endpoints)
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}

	return dynamodb.NewFromConfig(cfg), nil
}

func ensureTable(client dynamoClient, ctx context.Context, tableName string) error {
	_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(tableName),
	})
	if err != nil {
		var rnf *types.ResourceNotFoundException
		if errors.As(err, &rnf) {
			return fmt.Errorf("given table name '%s' not found in dynamodb", tableName)
		}
		return fmt.Errorf("DescribeTable failed: %w", err)
	}
	return nil
}

// getItem retrieves an item of type T from DynamoDB by PK and SK
func getItem[T any](dynamoStore *DynamoBoardStore, ctx context.Context, pk string, sk string, consistentRead bool) (T, error) {
	var zero T

	key := map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}

	resp, err := dynamoStore.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(dynamoStore.tableName),
		Key:            key,
		ConsistentRead: aws.Bool(consistentRead),
	})
	if err != nil {
		return zero, fmt.Errorf("GetItem failed: %w", err)
	}
	if resp.Item == nil {
		return zero, store.ErrItemNotFound
	}

	var item T
	if err := attributevalue.UnmarshalMap(resp.Item, &item); err != nil {
		return zero, fmt.Errorf("failed to unmarshal item: %w", err)
	}

	return item, nil
}

// replaceItem writes every non-key attribute of item in one UpdateItem call,
// creating the item if it does not exist. revisionField is not taken from item:
// it is incremented server-side so concurrent writers always get distinct,
// increasing revisions.
func replaceItem[T any](dynamoStore *DynamoBoardStore, ctx context.Context, item T, revisionField string) (T, error) {
	var zero T

	avMap, err := attributevalue.MarshalMap(item)
	if err != nil {
		return zero, fmt.Errorf("marshal error: %w", err)
	}

	pkAttr, ok := avMap["PK"]
	if !ok {
		return zero, errors.New("struct missing PK field")
	}
	skAttr, ok := avMap["SK"]
	if !ok {
		return zero, errors.New("struct missing SK field")
	}

	fields := make([]string, 0, len(avMap))
	for field := range avMap {
		if field == "PK" || field == "SK" || field == revisionField {
			continue
		}
		fields = append(fields, field)
	}
	sort.Strings(fields)

	updateExpr := "SET "
	exprAttrNames := make(map[string]string, len(fields)+1)
	exprAttrValues := make(map[string]types.AttributeValue, len(fields)+2)

	for i, field := range fields {
		if i > 0 {
			updateExpr += ", "
		}
		updateExpr += fmt.Sprintf("#%s = :%s", field, field)
		exprAttrNames["#"+field] = field
		exprAttrValues[":"+field] = avMap[field]
	}

	if revisionField != "" {
		if len(fields) > 0 {
			updateExpr += ", "
		}
		updateExpr += fmt.Sprintf("#%s = if_not_exists(#%s, :zero) + :inc", revisionField, revisionField)
		exprAttrNames["#"+revisionField] = revisionField
		exprAttrValues[":inc"] = &types.AttributeValueMemberN{Value: "1"}
		exprAttrValues[":zero"] = &types.AttributeValueMemberN{Value: "0"}
	}

	out, err := dynamoStore.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(dynamoStore.tableName),
		Key: map[string]types.AttributeValue{
			"PK": pkAttr,
			"SK": skAttr,
		},
		UpdateExpression:          aws.String(updateExpr),
		ExpressionAttributeNames:  exprAttrNames,
		ExpressionAttributeValues: exprAttrValues,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return zero, fmt.Errorf("replace failed: %w", err)
	}

	var updated T
	if err := attributevalue.UnmarshalMap(out.Attributes, &updated); err != nil {
		return zero, fmt.Errorf("failed to unmarshal updated item: %w", err)
	}

	return updated, nil
}
