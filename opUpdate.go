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
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Update applies the patch to an existing record and returns the record
// as stored after the mutation. It fails with PreConditionFailed when
// the record does not exist or a supplied check does not hold.
func Update[T Resource](ctx context.Context, c *Client, entity T, patch *Patch, checks ...Condition[T]) (*T, error) {
	key, err := EncodeKey(entity)
	if err != nil {
		return nil, err
	}

	expr, err := patch.Build()
	if err != nil {
		return nil, err
	}

	ce, err := renderConditions(condKeyExists, checks)
	if err != nil {
		return nil, err
	}
	ce.apply(expr.Names, expr.Values)

	req := &dynamodb.UpdateItemInput{
		TableName:                 aws.String(tableOf[T]()),
		Key:                       key,
		UpdateExpression:          aws.String(expr.Update),
		ConditionExpression:       aws.String(ce.expr),
		ExpressionAttributeNames:  expr.Names,
		ExpressionAttributeValues: expr.Values,
		ReturnValues:              types.ReturnValueAllNew,
	}
	if len(expr.Values) == 0 {
		req.ExpressionAttributeValues = nil
	}

	c.logger.Debug().
		Str("table", tableOf[T]()).
		Str("hash", entity.HashKey()).
		Str("sort", entity.SortKey()).
		Str("expr", expr.Update).
		Msg("update")

	val, err := c.service.UpdateItem(ctx, req)
	if err != nil {
		if recoverConditionalCheckFailedException(err) {
			return nil, &PreConditionFailed{Table: tableOf[T](), Key: KeyOf(entity)}
		}
		return nil, errServiceIO.New(err)
	}

	obj, err := Decode[T](val.Attributes)
	if err != nil {
		return nil, err
	}
	return &obj, nil
}
