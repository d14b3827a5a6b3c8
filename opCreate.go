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

// Create writes a new record. It fails with PreConditionFailed when a
// record already exists under the key pair, additional checks are
// conjoined to the implicit one.
func Create[T Resource](ctx context.Context, c *Client, entity T, checks ...Condition[T]) error {
	gen, err := Encode(entity)
	if err != nil {
		return err
	}

	ce, err := renderConditions(condKeyNotExists, checks)
	if err != nil {
		return err
	}

	req := &dynamodb.PutItemInput{
		TableName:                aws.String(tableOf[T]()),
		Item:                     gen,
		ConditionExpression:      aws.String(ce.expr),
		ExpressionAttributeNames: ce.names,
	}
	if len(ce.values) != 0 {
		req.ExpressionAttributeValues = ce.values
	}

	c.logger.Debug().
		Str("table", tableOf[T]()).
		Str("hash", entity.HashKey()).
		Str("sort", entity.SortKey()).
		Msg("create")

	if _, err := c.service.PutItem(ctx, req); err != nil {
		if recoverConditionalCheckFailedException(err) {
			return &PreConditionFailed{Table: tableOf[T](), Key: KeyOf(entity)}
		}
		return errServiceIO.New(err)
	}

	return nil
}

// ForceCreate writes the record unconditionally, replacing whatever is
// stored under the key pair.
func ForceCreate[T Resource](ctx context.Context, c *Client, entity T) error {
	gen, err := Encode(entity)
	if err != nil {
		return err
	}

	req := &dynamodb.PutItemInput{
		TableName: aws.String(tableOf[T]()),
		Item:      gen,
	}

	if _, err := c.service.PutItem(ctx, req); err != nil {
		return errServiceIO.New(err)
	}

	return nil
}
