//
// Copyright (C) 2024 dynotx authors
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/dynotx/dynotx
//

package dynotx_test

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/fogfish/it/v2"

	"github.com/dynotx/dynotx"
	"github.com/dynotx/dynotx/internal/ddbtest"
)

func TestTransactAtomicApply(t *testing.T) {
	store := ddbtest.NewStore()
	client := store.Client()
	ctx := context.Background()

	it.Then(t).Should(
		it.Nil(dynotx.Create(ctx, client, car{Brand: "Tesla", Model: "S", HorsePower: 670})),
	)

	tx := dynotx.BeginTransaction()
	it.Then(t).Should(
		it.Nil(dynotx.TransactCreate(tx, car{Brand: "Tesla", Model: "Y", HorsePower: 347})),
		it.Nil(dynotx.TransactUpdate(tx, car{Brand: "Tesla", Model: "S"},
			dynotx.NewPatch().Set("horse_power", 1020),
		)),
		it.Equal(tx.Len(), 2),
		it.Nil(client.ExecuteTransaction(ctx, tx)),
	)

	val, err := dynotx.Get[car](ctx, client, dynotx.Key{Hash: "Tesla", Sort: "S"})
	it.Then(t).Should(
		it.Nil(err),
		it.Equal(val.HorsePower, 1020),
	)

	val, err = dynotx.Get[car](ctx, client, dynotx.Key{Hash: "Tesla", Sort: "Y"})
	it.Then(t).Should(
		it.Nil(err),
		it.Equal(val.HorsePower, 347),
	)
}

func TestTransactAtomicRollback(t *testing.T) {
	store := ddbtest.NewStore()
	client := store.Client()
	ctx := context.Background()

	it.Then(t).Should(
		it.Nil(dynotx.Create(ctx, client, car{Brand: "Tesla", Model: "S", HorsePower: 670})),
	)

	// second create collides with the stored record, the first must
	// not apply either
	tx := dynotx.BeginTransaction()
	it.Then(t).Should(
		it.Nil(dynotx.TransactCreate(tx, car{Brand: "Tesla", Model: "Y", HorsePower: 347})),
		it.Nil(dynotx.TransactCreate(tx, car{Brand: "Tesla", Model: "S", HorsePower: 1020})),
	)

	err := client.ExecuteTransaction(ctx, tx)

	var fail *dynotx.TransactionError
	it.Then(t).Should(
		it.True(errors.As(err, &fail)),
		it.True(dynotx.IsConditionFailed(err)),
		it.Equal(len(fail.Failures), 1),
		it.Equal(fail.Failures[0].Index, 1),
		it.Equal(fail.Failures[0].Kind, "create"),
		it.Equal(fail.Failures[0].Key, dynotx.Key{Hash: "Tesla", Sort: "S"}),
		it.Equal(fail.Failures[0].Code, "ConditionalCheckFailed"),
	)

	val, err := dynotx.Get[car](ctx, client, dynotx.Key{Hash: "Tesla", Sort: "Y"})
	it.Then(t).Should(
		it.Nil(err),
		it.True(val == nil),
	)
}

func TestTransactDeleteAndCheck(t *testing.T) {
	store := ddbtest.NewStore()
	client := store.Client()
	ctx := context.Background()
	power := dynotx.Schema[car, int]("HorsePower")

	it.Then(t).Should(
		it.Nil(dynotx.Create(ctx, client, car{Brand: "Tesla", Model: "S", HorsePower: 670})),
		it.Nil(dynotx.Create(ctx, client, car{Brand: "Tesla", Model: "Y", HorsePower: 347})),
	)

	tx := dynotx.BeginTransaction()
	it.Then(t).Should(
		it.Nil(dynotx.TransactDelete[car](tx, dynotx.Key{Hash: "Tesla", Sort: "Y"})),
		it.Nil(dynotx.TransactConditionCheck[car](tx, dynotx.Key{Hash: "Tesla", Sort: "S"}, power.Ge(500))),
		it.Nil(client.ExecuteTransaction(ctx, tx)),
	)

	val, err := dynotx.Get[car](ctx, client, dynotx.Key{Hash: "Tesla", Sort: "Y"})
	it.Then(t).Should(
		it.Nil(err),
		it.True(val == nil),
	)
}

func TestTransactDeleteAbsent(t *testing.T) {
	store := ddbtest.NewStore()
	client := store.Client()
	ctx := context.Background()

	tx := dynotx.BeginTransaction()
	it.Then(t).Should(
		it.Nil(dynotx.TransactCreate(tx, car{Brand: "Tesla", Model: "Y", HorsePower: 347})),
		it.Nil(dynotx.TransactDelete[car](tx, dynotx.Key{Hash: "Tesla", Sort: "GONE"})),
		it.Nil(client.ExecuteTransaction(ctx, tx)),
	)

	val, err := dynotx.Get[car](ctx, client, dynotx.Key{Hash: "Tesla", Sort: "Y"})
	it.Then(t).Should(
		it.Nil(err),
		it.Equal(val.HorsePower, 347),
	)
}

func TestTransactDeleteChecked(t *testing.T) {
	store := ddbtest.NewStore()
	client := store.Client()
	ctx := context.Background()
	power := dynotx.Schema[car, int]("HorsePower")

	it.Then(t).Should(
		it.Nil(dynotx.Create(ctx, client, car{Brand: "Tesla", Model: "S", HorsePower: 670})),
	)

	tx := dynotx.BeginTransaction()
	it.Then(t).Should(
		it.Nil(dynotx.TransactDelete(tx, dynotx.Key{Hash: "Tesla", Sort: "S"}, power.Lt(500))),
	)

	err := client.ExecuteTransaction(ctx, tx)

	var fail *dynotx.TransactionError
	it.Then(t).Should(
		it.True(errors.As(err, &fail)),
		it.Equal(fail.Failures[0].Kind, "delete"),
	)
}

func TestTransactGuardBlocks(t *testing.T) {
	store := ddbtest.NewStore()
	client := store.Client()
	ctx := context.Background()
	power := dynotx.Schema[car, int]("HorsePower")

	it.Then(t).Should(
		it.Nil(dynotx.Create(ctx, client, car{Brand: "Tesla", Model: "S", HorsePower: 670})),
	)

	tx := dynotx.BeginTransaction()
	it.Then(t).Should(
		it.Nil(dynotx.TransactCreate(tx, car{Brand: "Tesla", Model: "Y", HorsePower: 347})),
		it.Nil(dynotx.TransactConditionCheck[car](tx, dynotx.Key{Hash: "Tesla", Sort: "S"}, power.Lt(500))),
	)

	err := client.ExecuteTransaction(ctx, tx)

	var fail *dynotx.TransactionError
	it.Then(t).Should(
		it.True(errors.As(err, &fail)),
		it.Equal(len(fail.Failures), 1),
		it.Equal(fail.Failures[0].Kind, "check"),
		it.Equal(fail.Failures[0].Index, 1),
	)
}

func TestTransactDuplicateKey(t *testing.T) {
	tx := dynotx.BeginTransaction()

	err1 := dynotx.TransactCreate(tx, car{Brand: "Tesla", Model: "Y", HorsePower: 347})
	err2 := dynotx.TransactUpdate(tx, car{Brand: "Tesla", Model: "Y"},
		dynotx.NewPatch().Set("horse_power", 534),
	)

	it.Then(t).Should(
		it.Nil(err1),
		it.True(errors.Is(err2, dynotx.ErrTxDuplicateKey)),
		it.Equal(tx.Len(), 1),
	)
}

func TestTransactTooLarge(t *testing.T) {
	tx := dynotx.BeginTransaction()

	for i := 0; i < dynotx.MaxTransactItems; i++ {
		err := dynotx.TransactCreate(tx, car{Brand: "Tesla", Model: strconv.Itoa(i), HorsePower: 1})
		it.Then(t).Should(it.Nil(err))
	}

	err := dynotx.TransactCreate(tx, car{Brand: "Tesla", Model: "overflow", HorsePower: 1})
	it.Then(t).Should(
		it.True(errors.Is(err, dynotx.ErrTxTooLarge)),
		it.Equal(tx.Len(), dynotx.MaxTransactItems),
	)
}

func TestTransactConsumed(t *testing.T) {
	store := ddbtest.NewStore()
	client := store.Client()
	ctx := context.Background()

	tx := dynotx.BeginTransaction()
	it.Then(t).Should(
		it.Nil(dynotx.TransactCreate(tx, car{Brand: "Tesla", Model: "Y", HorsePower: 347})),
		it.Nil(client.ExecuteTransaction(ctx, tx)),
	)

	err1 := client.ExecuteTransaction(ctx, tx)
	err2 := dynotx.TransactCreate(tx, car{Brand: "Tesla", Model: "S", HorsePower: 670})

	it.Then(t).Should(
		it.True(errors.Is(err1, dynotx.ErrTxConsumed)),
		it.True(errors.Is(err2, dynotx.ErrTxConsumed)),
	)
}

func TestTransactEmpty(t *testing.T) {
	store := ddbtest.NewStore()
	client := store.Client()

	err := client.ExecuteTransaction(context.Background(), dynotx.BeginTransaction())
	it.Then(t).Should(
		it.True(errors.Is(err, dynotx.ErrEmptyTx)),
	)
}

func TestTransactEmptyPatch(t *testing.T) {
	tx := dynotx.BeginTransaction()

	err := dynotx.TransactUpdate(tx, car{Brand: "Tesla", Model: "Y"}, dynotx.NewPatch())
	it.Then(t).Should(
		it.True(errors.Is(err, dynotx.ErrEncoding)),
		it.Equal(tx.Len(), 0),
	)
}

func TestTransactCheckRequiresCondition(t *testing.T) {
	tx := dynotx.BeginTransaction()

	err := dynotx.TransactConditionCheck[car](tx, dynotx.Key{Hash: "Tesla", Sort: "S"})
	it.Then(t).Should(
		it.True(errors.Is(err, dynotx.ErrEncoding)),
	)
}
