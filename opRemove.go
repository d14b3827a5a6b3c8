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

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// Remove deletes a record. Removing an absent record is not an error
// unless checks are supplied, then the store evaluates them against
// the missing item and rejects the request.
func Remove[T Resource](ctx context.Context, c *Client, key Key, checks ...Condition[T]) error {
	gen, err := key.attributes()
	if err != nil {
		return err
	}

	req := &dynamodb.DeleteItemInput{
		TableName: aws.String(tableOf[T]()),
		Key:       gen,
	}

	ce, err := renderConditions("", checks)
	if err != nil {
		return err
	}
	if ce != nil {
		req.ConditionExpression = aws.String(ce.expr)
		req.ExpressionAttributeNames = ce.names
		if len(ce.values) != 0 {
			req.ExpressionAttributeValues = ce.values
		}
	}

	if _, err := c.service.DeleteItem(ctx, req); err != nil {
		if recoverConditionalCheckFailedException(err) {
			return &PreConditionFailed{Table: tableOf[T](), Key: key}
		}
		return errServiceIO.New(err)
	}

	return nil
}
