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

// ListOptions tunes a List query. The zero value lists the whole
// partition in ascending sort key order.
type ListOptions struct {
	// From resumes the listing after the given sort key, exclusive.
	// Pass the sort key of the last record of the previous page.
	From string

	// Prefix narrows the listing to sort keys with the given prefix.
	// Ignored when From is set.
	Prefix string

	// Limit caps the number of records returned, zero means no cap
	// beyond the store's own page size.
	Limit int32

	// Desc reverses the traversal to descending sort key order.
	Desc bool
}

// List queries one partition, returning records ordered by sort key.
func List[T Resource](ctx context.Context, c *Client, hash string, options *ListOptions) ([]T, error) {
	if hash == "" {
		return nil, &EncodingError{Path: PK, Reason: "key cannot be an empty string"}
	}

	opt := ListOptions{}
	if options != nil {
		opt = *options
	}

	expr := "#pk = :pk"
	names := map[string]string{"#pk": PK}
	values := map[string]types.AttributeValue{
		":pk": &types.AttributeValueMemberS{Value: hash},
	}

	switch {
	case opt.From != "":
		cmp := ">"
		if opt.Desc {
			cmp = "<"
		}
		expr = expr + " and #sk " + cmp + " :sk"
		names["#sk"] = SK
		values[":sk"] = &types.AttributeValueMemberS{Value: opt.From}
	case opt.Prefix != "":
		expr = expr + " and begins_with(#sk, :sk)"
		names["#sk"] = SK
		values[":sk"] = &types.AttributeValueMemberS{Value: opt.Prefix}
	}

	req := &dynamodb.QueryInput{
		TableName:                 aws.String(tableOf[T]()),
		KeyConditionExpression:    aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ScanIndexForward:          aws.Bool(!opt.Desc),
	}
	if opt.Limit > 0 {
		req.Limit = aws.Int32(opt.Limit)
	}

	val, err := c.service.Query(ctx, req)
	if err != nil {
		return nil, errServiceIO.New(err)
	}

	items := make([]T, len(val.Items))
	for i, gen := range val.Items {
		obj, err := Decode[T](gen)
		if err != nil {
			return nil, err
		}
		items[i] = obj
	}
	return items, nil
}
