//
// Copyright (C) 2024 dynotx authors
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/dynotx/dynotx
//

//
// The file implements an in-memory double of AWS DynamoDB, faithful
// enough to exercise conditional writes and atomic transactions. The
// double evaluates the condition expressions the library generates and
// applies update expressions over top-level attribute paths.
//

package ddbtest

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dynotx/dynotx"
)

type Store struct {
	mu     sync.Mutex
	tables map[string]map[dynotx.Key]map[string]types.AttributeValue
}

func NewStore() *Store {
	return &Store{
		tables: map[string]map[dynotx.Key]map[string]types.AttributeValue{},
	}
}

// Client builds a library client backed by the double.
func (s *Store) Client() *dynotx.Client {
	return mock(s)
}

// Fetch peeks at the stored item, bypassing the API.
func (s *Store) Fetch(table string, key dynotx.Key) map[string]types.AttributeValue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tables[table][key]
}

func (s *Store) table(name string) map[dynotx.Key]map[string]types.AttributeValue {
	t, has := s.tables[name]
	if !has {
		t = map[dynotx.Key]map[string]types.AttributeValue{}
		s.tables[name] = t
	}
	return t
}

func keyOfItem(item map[string]types.AttributeValue) dynotx.Key {
	key := dynotx.Key{}
	if v, ok := item[dynotx.PK].(*types.AttributeValueMemberS); ok {
		key.Hash = v.Value
	}
	if v, ok := item[dynotx.SK].(*types.AttributeValueMemberS); ok {
		key.Sort = v.Value
	}
	return key
}

func clone(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

func conditionFailed() error {
	return &types.ConditionalCheckFailedException{
		Message: aws.String("The conditional request failed"),
	}
}

//
// condition evaluation
//

func evalCondition(expr string, names map[string]string, values map[string]types.AttributeValue, item map[string]types.AttributeValue) bool {
	if expr == "" {
		return true
	}
	for _, term := range splitAnd(expr) {
		term = strings.TrimSpace(term)
		if strings.HasPrefix(term, "(") && strings.HasSuffix(term, ")") {
			if !evalCondition(term[1:len(term)-1], names, values, item) {
				return false
			}
			continue
		}
		if !evalTerm(term, names, values, item) {
			return false
		}
	}
	return true
}

// splitAnd splits a conjunction at paren depth zero.
func splitAnd(expr string) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(expr); i++ {
		switch expr[i] {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth == 0 && strings.HasPrefix(expr[i:], " and ") {
			out = append(out, expr[start:i])
			i += len(" and ") - 1
			start = i + 1
		}
	}
	return append(out, expr[start:])
}

func evalTerm(term string, names map[string]string, values map[string]types.AttributeValue, item map[string]types.AttributeValue) bool {
	if name, ok := strings.CutPrefix(term, "attribute_not_exists("); ok {
		attr := names[strings.TrimSuffix(name, ")")]
		if item == nil {
			return true
		}
		_, has := item[attr]
		return !has
	}
	if name, ok := strings.CutPrefix(term, "attribute_exists("); ok {
		attr := names[strings.TrimSuffix(name, ")")]
		if item == nil {
			return false
		}
		_, has := item[attr]
		return has
	}

	fields := strings.Fields(term)
	if len(fields) != 3 || item == nil {
		return false
	}

	left, has := item[names[fields[0]]]
	if !has {
		return false
	}
	right, has := values[fields[2]]
	if !has {
		return false
	}
	return compare(fields[1], left, right)
}

func compare(op string, left, right types.AttributeValue) bool {
	switch op {
	case "=":
		return equal(left, right)
	case "<>":
		return !equal(left, right)
	}

	lv, lok := scalar(left)
	rv, rok := scalar(right)
	if !lok || !rok {
		return false
	}
	switch op {
	case "<":
		return lv < rv
	case "<=":
		return lv <= rv
	case ">":
		return lv > rv
	case ">=":
		return lv >= rv
	}
	return false
}

func equal(left, right types.AttributeValue) bool {
	switch l := left.(type) {
	case *types.AttributeValueMemberS:
		r, ok := right.(*types.AttributeValueMemberS)
		return ok && l.Value == r.Value
	case *types.AttributeValueMemberN:
		r, ok := right.(*types.AttributeValueMemberN)
		if !ok {
			return false
		}
		lf, _ := strconv.ParseFloat(l.Value, 64)
		rf, _ := strconv.ParseFloat(r.Value, 64)
		return lf == rf
	case *types.AttributeValueMemberBOOL:
		r, ok := right.(*types.AttributeValueMemberBOOL)
		return ok && l.Value == r.Value
	}
	return false
}

// scalar projects a numeric attribute, the only ordered domain the
// double supports.
func scalar(v types.AttributeValue) (float64, bool) {
	if n, ok := v.(*types.AttributeValueMemberN); ok {
		f, err := strconv.ParseFloat(n.Value, 64)
		return f, err == nil
	}
	return 0, false
}

//
// update expression application
//

func applyUpdate(item map[string]types.AttributeValue, expr string, names map[string]string, values map[string]types.AttributeValue) {
	setPart, removePart := "", ""
	if i := strings.Index(expr, "REMOVE "); i >= 0 {
		removePart = expr[i+len("REMOVE "):]
		expr = strings.TrimSpace(expr[:i])
	}
	if rest, ok := strings.CutPrefix(expr, "SET "); ok {
		setPart = rest
	}

	if setPart != "" {
		for _, assign := range strings.Split(setPart, ", ") {
			path, ref, ok := strings.Cut(assign, " = ")
			if !ok {
				continue
			}
			item[names[path]] = values[ref]
		}
	}
	if removePart != "" {
		for _, path := range strings.Split(removePart, ", ") {
			delete(item, names[path])
		}
	}
}

//
// DynamoDB API
//

func (s *Store) GetItem(ctx context.Context, input *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.table(aws.ToString(input.TableName))[keyOfItem(input.Key)]
	if item == nil {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: clone(item)}, nil
}

func (s *Store) PutItem(ctx context.Context, input *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	table := s.table(aws.ToString(input.TableName))
	key := keyOfItem(input.Item)

	if !evalCondition(aws.ToString(input.ConditionExpression), input.ExpressionAttributeNames, input.ExpressionAttributeValues, table[key]) {
		return nil, conditionFailed()
	}

	table[key] = clone(input.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (s *Store) DeleteItem(ctx context.Context, input *dynamodb.DeleteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	table := s.table(aws.ToString(input.TableName))
	key := keyOfItem(input.Key)

	if !evalCondition(aws.ToString(input.ConditionExpression), input.ExpressionAttributeNames, input.ExpressionAttributeValues, table[key]) {
		return nil, conditionFailed()
	}

	delete(table, key)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (s *Store) UpdateItem(ctx context.Context, input *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	table := s.table(aws.ToString(input.TableName))
	key := keyOfItem(input.Key)

	item := table[key]
	if !evalCondition(aws.ToString(input.ConditionExpression), input.ExpressionAttributeNames, input.ExpressionAttributeValues, item) {
		return nil, conditionFailed()
	}

	if item == nil {
		item = clone(input.Key)
	} else {
		item = clone(item)
	}
	applyUpdate(item, aws.ToString(input.UpdateExpression), input.ExpressionAttributeNames, input.ExpressionAttributeValues)
	table[key] = item

	return &dynamodb.UpdateItemOutput{Attributes: clone(item)}, nil
}

func (s *Store) Query(ctx context.Context, input *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	table := s.table(aws.ToString(input.TableName))
	expr := aws.ToString(input.KeyConditionExpression)
	values := input.ExpressionAttributeValues

	hash := ""
	if v, ok := values[":pk"].(*types.AttributeValueMemberS); ok {
		hash = v.Value
	}
	from := ""
	if v, ok := values[":sk"].(*types.AttributeValueMemberS); ok {
		from = v.Value
	}

	var keys []dynotx.Key
	for key := range table {
		if key.Hash != hash {
			continue
		}
		switch {
		case strings.Contains(expr, "begins_with"):
			if !strings.HasPrefix(key.Sort, from) {
				continue
			}
		case strings.Contains(expr, "#sk >"):
			if key.Sort <= from {
				continue
			}
		case strings.Contains(expr, "#sk <"):
			if key.Sort >= from {
				continue
			}
		}
		keys = append(keys, key)
	}

	forward := input.ScanIndexForward == nil || *input.ScanIndexForward
	sort.Slice(keys, func(i, j int) bool {
		if forward {
			return keys[i].Sort < keys[j].Sort
		}
		return keys[i].Sort > keys[j].Sort
	})

	if input.Limit != nil && int(*input.Limit) < len(keys) {
		keys = keys[:*input.Limit]
	}

	items := make([]map[string]types.AttributeValue, len(keys))
	for i, key := range keys {
		items[i] = clone(table[key])
	}

	return &dynamodb.QueryOutput{Items: items, Count: int32(len(items))}, nil
}

func (s *Store) BatchGetItem(ctx context.Context, input *dynamodb.BatchGetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	responses := map[string][]map[string]types.AttributeValue{}
	for name, req := range input.RequestItems {
		table := s.table(name)
		for _, key := range req.Keys {
			if item := table[keyOfItem(key)]; item != nil {
				responses[name] = append(responses[name], clone(item))
			}
		}
	}

	return &dynamodb.BatchGetItemOutput{Responses: responses}, nil
}

func (s *Store) TransactWriteItems(ctx context.Context, input *dynamodb.TransactWriteItemsInput, opts ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// first pass, evaluate all conditions against the current state
	reasons := make([]types.CancellationReason, len(input.TransactItems))
	failed := false

	for i, op := range input.TransactItems {
		ok := true
		switch {
		case op.Put != nil:
			table := s.table(aws.ToString(op.Put.TableName))
			ok = evalCondition(aws.ToString(op.Put.ConditionExpression), op.Put.ExpressionAttributeNames, op.Put.ExpressionAttributeValues, table[keyOfItem(op.Put.Item)])
		case op.Update != nil:
			table := s.table(aws.ToString(op.Update.TableName))
			ok = evalCondition(aws.ToString(op.Update.ConditionExpression), op.Update.ExpressionAttributeNames, op.Update.ExpressionAttributeValues, table[keyOfItem(op.Update.Key)])
		case op.Delete != nil:
			table := s.table(aws.ToString(op.Delete.TableName))
			ok = evalCondition(aws.ToString(op.Delete.ConditionExpression), op.Delete.ExpressionAttributeNames, op.Delete.ExpressionAttributeValues, table[keyOfItem(op.Delete.Key)])
		case op.ConditionCheck != nil:
			table := s.table(aws.ToString(op.ConditionCheck.TableName))
			ok = evalCondition(aws.ToString(op.ConditionCheck.ConditionExpression), op.ConditionCheck.ExpressionAttributeNames, op.ConditionCheck.ExpressionAttributeValues, table[keyOfItem(op.ConditionCheck.Key)])
		}

		if ok {
			reasons[i] = types.CancellationReason{Code: aws.String("None")}
		} else {
			reasons[i] = types.CancellationReason{
				Code:    aws.String("ConditionalCheckFailed"),
				Message: aws.String("The conditional request failed"),
			}
			failed = true
		}
	}

	if failed {
		return nil, &types.TransactionCanceledException{
			Message:             aws.String("Transaction cancelled, please refer cancellation reasons for specific reasons"),
			CancellationReasons: reasons,
		}
	}

	// second pass, apply all writes
	for _, op := range input.TransactItems {
		switch {
		case op.Put != nil:
			table := s.table(aws.ToString(op.Put.TableName))
			table[keyOfItem(op.Put.Item)] = clone(op.Put.Item)
		case op.Update != nil:
			table := s.table(aws.ToString(op.Update.TableName))
			key := keyOfItem(op.Update.Key)
			item := table[key]
			if item == nil {
				item = clone(op.Update.Key)
			} else {
				item = clone(item)
			}
			applyUpdate(item, aws.ToString(op.Update.UpdateExpression), op.Update.ExpressionAttributeNames, op.Update.ExpressionAttributeValues)
			table[key] = item
		case op.Delete != nil:
			table := s.table(aws.ToString(op.Delete.TableName))
			delete(table, keyOfItem(op.Delete.Key))
		}
	}

	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func (s *Store) CreateTable(ctx context.Context, input *dynamodb.CreateTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := aws.ToString(input.TableName)
	if _, has := s.tables[name]; has {
		return nil, &types.ResourceInUseException{Message: aws.String("Table already exists: " + name)}
	}
	s.tables[name] = map[dynotx.Key]map[string]types.AttributeValue{}

	return &dynamodb.CreateTableOutput{}, nil
}
