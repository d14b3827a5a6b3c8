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

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// MaxTransactItems is the ceiling the store puts on one atomic
// transaction. The context enforces it at append time so oversized
// transactions fail before the network round trip.
const MaxTransactItems = 100

const (
	opCreate = "create"
	opUpdate = "update"
	opDelete = "delete"
	opCheck  = "check"
)

// Tx is an ordered accumulator of write operations executed as one
// atomic transaction. Either every operation applies or none does.
// A context is single use, executing it consumes it. It is not safe
// for concurrent building.
type Tx struct {
	token    string
	items    []types.TransactWriteItem
	ops      []txOp
	index    map[txOp]int
	consumed bool
}

type txOp struct {
	kind  string
	table string
	key   Key
}

// ref identifies the item an operation addresses, the kind does not
// participate, two operations of any kind on one item collide.
func (op txOp) ref() txOp { return txOp{table: op.table, key: op.key} }

// BeginTransaction creates an empty transaction context. The context
// carries an idempotency token, retrying the same context after a
// transport failure does not double-apply.
func BeginTransaction() *Tx {
	return &Tx{
		token: uuid.NewString(),
		index: map[txOp]int{},
	}
}

// Len returns the number of operations in the context.
func (tx *Tx) Len() int { return len(tx.items) }

func (tx *Tx) push(op txOp, item types.TransactWriteItem) error {
	if tx.consumed {
		return ErrTxConsumed
	}
	if len(tx.items) >= MaxTransactItems {
		return ErrTxTooLarge
	}
	// the store rejects two operations addressing one item, the key
	// check front-runs that rejection
	if _, has := tx.index[op.ref()]; has {
		return ErrTxDuplicateKey
	}

	tx.index[op.ref()] = len(tx.items)
	tx.ops = append(tx.ops, op)
	tx.items = append(tx.items, item)
	return nil
}

// TransactCreate appends a create to the context. The operation fails
// the whole transaction if the record already exists, additional checks
// are conjoined to the implicit one.
func TransactCreate[T Resource](tx *Tx, entity T, checks ...Condition[T]) error {
	gen, err := Encode(entity)
	if err != nil {
		return err
	}

	ce, err := renderConditions(condKeyNotExists, checks)
	if err != nil {
		return err
	}

	put := &types.Put{
		TableName:                aws.String(tableOf[T]()),
		Item:                     gen,
		ConditionExpression:      aws.String(ce.expr),
		ExpressionAttributeNames: ce.names,
	}
	if len(ce.values) != 0 {
		put.ExpressionAttributeValues = ce.values
	}

	return tx.push(
		txOp{kind: opCreate, table: tableOf[T](), key: KeyOf(entity)},
		types.TransactWriteItem{Put: put},
	)
}

// TransactUpdate appends a patch of an existing record to the context.
func TransactUpdate[T Resource](tx *Tx, entity T, patch *Patch, checks ...Condition[T]) error {
	key, err := EncodeKey(entity)
	if err != nil {
		return err
	}

	expr, err := patch.Build()
	if err != nil {
		return err
	}

	ce, err := renderConditions(condKeyExists, checks)
	if err != nil {
		return err
	}
	ce.apply(expr.Names, expr.Values)

	update := &types.Update{
		TableName:                aws.String(tableOf[T]()),
		Key:                      key,
		UpdateExpression:         aws.String(expr.Update),
		ConditionExpression:      aws.String(ce.expr),
		ExpressionAttributeNames: expr.Names,
	}
	if len(expr.Values) != 0 {
		update.ExpressionAttributeValues = expr.Values
	}

	return tx.push(
		txOp{kind: opUpdate, table: tableOf[T](), key: KeyOf(entity)},
		types.TransactWriteItem{Update: update},
	)
}

// TransactDelete appends a delete to the context. Deleting an absent
// record does not cancel the transaction, a precondition is attached
// only when checks are supplied.
func TransactDelete[T Resource](tx *Tx, key Key, checks ...Condition[T]) error {
	gen, err := key.attributes()
	if err != nil {
		return err
	}

	ce, err := renderConditions("", checks)
	if err != nil {
		return err
	}

	del := &types.Delete{
		TableName: aws.String(tableOf[T]()),
		Key:       gen,
	}
	if ce != nil {
		del.ConditionExpression = aws.String(ce.expr)
		del.ExpressionAttributeNames = ce.names
		if len(ce.values) != 0 {
			del.ExpressionAttributeValues = ce.values
		}
	}

	return tx.push(
		txOp{kind: opDelete, table: tableOf[T](), key: key},
		types.TransactWriteItem{Delete: del},
	)
}

// TransactConditionCheck appends a pure guard over a record that the
// transaction does not write. At least one condition is required.
func TransactConditionCheck[T Resource](tx *Tx, key Key, checks ...Condition[T]) error {
	gen, err := key.attributes()
	if err != nil {
		return err
	}

	if len(checks) == 0 {
		return &EncodingError{Reason: "condition check requires at least one condition"}
	}

	ce, err := renderConditions("", checks)
	if err != nil {
		return err
	}

	check := &types.ConditionCheck{
		TableName:                aws.String(tableOf[T]()),
		Key:                      gen,
		ConditionExpression:      aws.String(ce.expr),
		ExpressionAttributeNames: ce.names,
	}
	if len(ce.values) != 0 {
		check.ExpressionAttributeValues = ce.values
	}

	return tx.push(
		txOp{kind: opCheck, table: tableOf[T](), key: key},
		types.TransactWriteItem{ConditionCheck: check},
	)
}

// ExecuteTransaction sends the context to the store. The context is
// consumed whatever the outcome, a canceled transaction comes back as
// TransactionError attributing the failure to the operations the store
// blamed.
func (c *Client) ExecuteTransaction(ctx context.Context, tx *Tx) error {
	if tx.consumed {
		return ErrTxConsumed
	}
	tx.consumed = true

	if len(tx.items) == 0 {
		return ErrEmptyTx
	}

	c.logger.Debug().
		Str("token", tx.token).
		Int("items", len(tx.items)).
		Msg("execute transaction")

	_, err := c.service.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems:      tx.items,
		ClientRequestToken: aws.String(tx.token),
	})
	if err != nil {
		return tx.fault(err)
	}

	return nil
}

// fault maps a store rejection to the operations that caused it, using
// the positional cancellation reasons of the transaction response.
func (tx *Tx) fault(err error) error {
	var canceled *types.TransactionCanceledException
	if !errors.As(err, &canceled) {
		return errServiceIO.New(err)
	}

	fail := &TransactionError{cause: err}
	for i, reason := range canceled.CancellationReasons {
		code := aws.ToString(reason.Code)
		if code == "" || code == "None" || i >= len(tx.ops) {
			continue
		}
		op := tx.ops[i]
		fail.Failures = append(fail.Failures, OpFailure{
			Index:   i,
			Kind:    op.kind,
			Table:   op.table,
			Key:     op.key,
			Code:    code,
			Message: aws.ToString(reason.Message),
		})
	}

	return fail
}
