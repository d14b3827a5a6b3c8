//
// Copyright (C) 2024 dynotx authors
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/dynotx/dynotx
//

//
// The file mocks AWS DynamoDB
//

package ddbtest

import (
	"context"
	"errors"
	"reflect"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dynotx/dynotx"
)

/*
mock factory
*/
func mock(service dynotx.DynamoDB) *dynotx.Client {
	return dynotx.Must(
		dynotx.New(dynotx.WithService(service)),
	)
}

/*
GetItem mock
*/
func GetItem(
	expectKey map[string]types.AttributeValue,
	returnVal map[string]types.AttributeValue,
) *dynotx.Client {
	return mock(&ddbGetItem{expectKey: expectKey, returnVal: returnVal})
}

type ddbGetItem struct {
	dynotx.DynamoDB
	expectKey map[string]types.AttributeValue
	returnVal map[string]types.AttributeValue
}

func (mock *ddbGetItem) GetItem(ctx context.Context, input *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if !reflect.DeepEqual(mock.expectKey, input.Key) {
		return nil, errors.New("unexpected entity")
	}

	if mock.returnVal == nil {
		return &dynamodb.GetItemOutput{}, nil
	}

	return &dynamodb.GetItemOutput{Item: mock.returnVal}, nil
}

/*
PutItem mock
*/
func PutItem(
	expectVal map[string]types.AttributeValue,
) *dynotx.Client {
	return mock(&ddbPutItem{expectVal: expectVal})
}

type ddbPutItem struct {
	dynotx.DynamoDB
	expectVal map[string]types.AttributeValue
}

func (mock *ddbPutItem) PutItem(ctx context.Context, input *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if !reflect.DeepEqual(mock.expectVal, input.Item) {
		return nil, errors.New("unexpected entity")
	}
	return &dynamodb.PutItemOutput{}, nil
}

/*
PutItem mock, the condition always fails
*/
func PutItemFailed() *dynotx.Client {
	return mock(&ddbPutItemFailed{})
}

type ddbPutItemFailed struct {
	dynotx.DynamoDB
}

func (mock *ddbPutItemFailed) PutItem(ctx context.Context, input *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return nil, &types.ConditionalCheckFailedException{
		Message: aws.String("The conditional request failed"),
	}
}

/*
UpdateItem mock
*/
func UpdateItem(
	expectKey map[string]types.AttributeValue,
	expectVal map[string]types.AttributeValue,
	returnVal map[string]types.AttributeValue,
) *dynotx.Client {
	return mock(&ddbUpdateItem{
		expectKey: expectKey,
		expectVal: expectVal,
		returnVal: returnVal,
	})
}

type ddbUpdateItem struct {
	dynotx.DynamoDB
	expectKey map[string]types.AttributeValue
	expectVal map[string]types.AttributeValue
	returnVal map[string]types.AttributeValue
}

func (mock *ddbUpdateItem) UpdateItem(ctx context.Context, input *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	if !reflect.DeepEqual(mock.expectKey, input.Key) {
		return nil, errors.New("unexpected key")
	}

	if mock.expectVal != nil && !reflect.DeepEqual(mock.expectVal, input.ExpressionAttributeValues) {
		return nil, errors.New("unexpected values")
	}

	return &dynamodb.UpdateItemOutput{Attributes: mock.returnVal}, nil
}

/*
DeleteItem mock
*/
func DeleteItem(
	expectKey map[string]types.AttributeValue,
) *dynotx.Client {
	return mock(&ddbDeleteItem{expectKey: expectKey})
}

type ddbDeleteItem struct {
	dynotx.DynamoDB
	expectKey map[string]types.AttributeValue
}

func (mock *ddbDeleteItem) DeleteItem(ctx context.Context, input *dynamodb.DeleteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	if !reflect.DeepEqual(mock.expectKey, input.Key) {
		return nil, errors.New("unexpected entity")
	}

	return &dynamodb.DeleteItemOutput{}, nil
}

/*
Query mock
*/
func Query(
	returnVal []map[string]types.AttributeValue,
) *dynotx.Client {
	return mock(&ddbQuery{returnVal: returnVal})
}

type ddbQuery struct {
	dynotx.DynamoDB
	returnVal []map[string]types.AttributeValue
}

func (mock *ddbQuery) Query(ctx context.Context, input *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	return &dynamodb.QueryOutput{
		Items: mock.returnVal,
		Count: int32(len(mock.returnVal)),
	}, nil
}

/*
BatchGetItem mock, records the size of each request chunk
*/
func BatchGetItem(
	returnVal []map[string]types.AttributeValue,
	chunks *[]int,
) *dynotx.Client {
	return mock(&ddbBatchGetItem{returnVal: returnVal, chunks: chunks})
}

type ddbBatchGetItem struct {
	dynotx.DynamoDB
	returnVal []map[string]types.AttributeValue
	chunks    *[]int
}

func (mock *ddbBatchGetItem) BatchGetItem(ctx context.Context, input *dynamodb.BatchGetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error) {
	responses := map[string][]map[string]types.AttributeValue{}
	for table, req := range input.RequestItems {
		if mock.chunks != nil {
			*mock.chunks = append(*mock.chunks, len(req.Keys))
		}
		responses[table] = mock.returnVal
	}

	return &dynamodb.BatchGetItemOutput{Responses: responses}, nil
}

/*
TransactWriteItems mock, cancels the transaction with the given reasons
*/
func TransactWriteItemsCanceled(
	reasons []types.CancellationReason,
) *dynotx.Client {
	return mock(&ddbTransactCanceled{reasons: reasons})
}

type ddbTransactCanceled struct {
	dynotx.DynamoDB
	reasons []types.CancellationReason
}

func (mock *ddbTransactCanceled) TransactWriteItems(ctx context.Context, input *dynamodb.TransactWriteItemsInput, opts ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	return nil, &types.TransactionCanceledException{
		Message:             aws.String("Transaction cancelled"),
		CancellationReasons: mock.reasons,
	}
}

/*
Constant error mock, any operation fails with the given error
*/
func ReturnError(err error) *dynotx.Client {
	return mock(&ddbError{err: err})
}

type ddbError struct {
	dynotx.DynamoDB
	err error
}

func (mock *ddbError) GetItem(ctx context.Context, input *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return nil, mock.err
}

func (mock *ddbError) PutItem(ctx context.Context, input *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return nil, mock.err
}

func (mock *ddbError) DeleteItem(ctx context.Context, input *dynamodb.DeleteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	return nil, mock.err
}

func (mock *ddbError) UpdateItem(ctx context.Context, input *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	return nil, mock.err
}

func (mock *ddbError) Query(ctx context.Context, input *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	return nil, mock.err
}

func (mock *ddbError) TransactWriteItems(ctx context.Context, input *dynamodb.TransactWriteItemsInput, opts ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	return nil, mock.err
}
