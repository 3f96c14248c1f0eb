// Package dynamolookup provides a ready-made pipeline.LookupFunc backed by
// a DynamoDB table, for pipelines whose "does this instance already exist"
// check is a keyed table read.
package dynamolookup

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/ahrav/go-wrangle/pipeline"
)

// GetItemAPI is the subset of the DynamoDB client the adapter needs,
// extracted as an interface for testability.
type GetItemAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// For builds a LookupFunc that resolves instances of M from table. The
// match-field map built by the pipeline is marshaled into the item key, so
// the get-or-create match targets must correspond to the table's primary
// key attributes. A missing item reports "not found" with an untyped nil,
// per the LookupFunc contract.
func For[M any](client GetItemAPI, table string) pipeline.LookupFunc {
	return func(ctx context.Context, model string, key map[string]any) (any, error) {
		itemKey, err := attributevalue.MarshalMap(key)
		if err != nil {
			return nil, fmt.Errorf("dynamolookup %s: marshal key: %w", model, err)
		}

		out, err := client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: aws.String(table),
			Key:       itemKey,
		})
		if err != nil {
			return nil, fmt.Errorf("dynamolookup %s: get item: %w", model, err)
		}
		if out.Item == nil {
			return nil, nil
		}

		var inst M
		if err := attributevalue.UnmarshalMap(out.Item, &inst); err != nil {
			return nil, fmt.Errorf("dynamolookup %s: unmarshal item: %w", model, err)
		}
		return inst, nil
	}
}
