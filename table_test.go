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
	"strings"
	"testing"

	"github.com/fogfish/it/v2"

	"github.com/dynotx/dynotx"
	"github.com/dynotx/dynotx/internal/ddbtest"
)

func TestCreateTable(t *testing.T) {
	store := ddbtest.NewStore()
	client := store.Client()
	ctx := context.Background()

	it.Then(t).Should(
		it.Nil(dynotx.CreateTable[car](ctx, client, nil)),
		// the call is idempotent, an existing table is not an error
		it.Nil(dynotx.CreateTable[car](ctx, client, nil)),
	)

	it.Then(t).Should(
		it.Nil(dynotx.Create(ctx, client, car{Brand: "Tesla", Model: "Y", HorsePower: 347})),
	)
}

func TestSAMResource(t *testing.T) {
	snippet := dynotx.SAMResource[car](&dynotx.TableOptions{ReadCapacity: 10, WriteCapacity: 2})

	it.Then(t).Should(
		it.True(strings.Contains(snippet, "carsTable:")),
		it.True(strings.Contains(snippet, "TableName: cars")),
		it.True(strings.Contains(snippet, "AttributeName: "+dynotx.PK)),
		it.True(strings.Contains(snippet, "KeyType: RANGE")),
		it.True(strings.Contains(snippet, "ReadCapacityUnits: 10")),
		it.True(strings.Contains(snippet, "WriteCapacityUnits: 2")),
	)
}
