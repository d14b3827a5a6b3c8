//
// Copyright (C) 2024 dynotx authors
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/dynotx/dynotx
//

package dynotx

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// TableOptions tunes the provisioned capacity of a created table.
type TableOptions struct {
	ReadCapacity  int64
	WriteCapacity int64
}

func (o *TableOptions) capacity() (int64, int64) {
	read, write := int64(5), int64(5)
	if o != nil && o.ReadCapacity > 0 {
		read = o.ReadCapacity
	}
	if o != nil && o.WriteCapacity > 0 {
		write = o.WriteCapacity
	}
	return read, write
}

// CreateTable provisions the table of T with the two attribute key
// schema the package relies on. An existing table is not an error,
// the call is idempotent.
func CreateTable[T Resource](ctx context.Context, c *Client, options *TableOptions) error {
	read, write := options.capacity()

	req := &dynamodb.CreateTableInput{
		TableName: aws.String(tableOf[T]()),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(PK), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(SK), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(PK), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(SK), KeyType: types.KeyTypeRange},
		},
		ProvisionedThroughput: &types.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(read),
			WriteCapacityUnits: aws.Int64(write),
		},
	}

	c.logger.Info().Str("table", tableOf[T]()).Msg("create table")

	if _, err := c.service.CreateTable(ctx, req); err != nil {
		var inUse *types.ResourceInUseException
		if errors.As(err, &inUse) {
			return nil
		}
		return errServiceIO.New(err)
	}

	return nil
}

// SAMResource renders the table of T as an AWS SAM / CloudFormation
// resource snippet, ready to be pasted into a template.
func SAMResource[T Resource](options *TableOptions) string {
	read, write := options.capacity()
	table := tableOf[T]()

	return fmt.Sprintf(`%sTable:
  Type: AWS::DynamoDB::Table
  Properties:
    TableName: %s
    AttributeDefinitions:
      - AttributeName: %s
        AttributeType: S
      - AttributeName: %s
        AttributeType: S
    KeySchema:
      - AttributeName: %s
        KeyType: HASH
      - AttributeName: %s
        KeyType: RANGE
    ProvisionedThroughput:
      ReadCapacityUnits: %d
      WriteCapacityUnits: %d
`, table, table, PK, SK, PK, SK, read, write)
}
