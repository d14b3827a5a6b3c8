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

// MaxBatchGetKeys is the ceiling the store puts on one batch read,
// BatchGet splits larger key sets into sequential round trips.
const MaxBatchGetKeys = 100

// Get fetches a record. Absence is not an error, a missing record comes
// back as a nil pointer.
func Get[T Resource](ctx context.Context, c *Client, key Key) (*T, error) {
	gen, err := key.attributes()
	if err != nil {
		return nil, err
	}

	val, err := c.service.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(tableOf[T]()),
		Key:       gen,
	})
	if err != nil {
		return nil, errServiceIO.New(err)
	}

	if val.Item == nil {
		return nil, nil
	}

	obj, err := Decode[T](val.Item)
	if err != nil {
		return nil, err
	}
	return &obj, nil
}

// BatchGet fetches many records at once. The result preserves the
// order of the requested keys, missing records are omitted. Keys left
// unprocessed by the store are re-requested until the batch drains.
func BatchGet[T Resource](ctx context.Context, c *Client, keys []Key) ([]T, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	table := tableOf[T]()
	found := make(map[Key]T, len(keys))

	for at := 0; at < len(keys); at += MaxBatchGetKeys {
		chunk := keys[at:min(at+MaxBatchGetKeys, len(keys))]

		seq := make([]map[string]types.AttributeValue, len(chunk))
		for i, key := range chunk {
			gen, err := key.attributes()
			if err != nil {
				return nil, err
			}
			seq[i] = gen
		}

		for len(seq) != 0 {
			val, err := c.service.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
				RequestItems: map[string]types.KeysAndAttributes{
					table: {Keys: seq},
				},
			})
			if err != nil {
				return nil, errServiceIO.New(err)
			}

			for _, gen := range val.Responses[table] {
				obj, err := Decode[T](gen)
				if err != nil {
					return nil, err
				}
				found[keyOfItem(gen)] = obj
			}

			seq = val.UnprocessedKeys[table].Keys
		}
	}

	items := make([]T, 0, len(found))
	for _, key := range keys {
		if obj, has := found[key]; has {
			items = append(items, obj)
		}
	}
	return items, nil
}
