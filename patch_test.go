//
// Copyright (C) 2024 dynotx authors
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/dynotx/dynotx
//

package dynotx_test

import (
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/fogfish/it/v2"

	"github.com/dynotx/dynotx"
)

func TestPatchSet(t *testing.T) {
	expr, err := dynotx.NewPatch().Set("horse_power", 534).Build()

	it.Then(t).Should(
		it.Nil(err),
		it.Equal(expr.Update, "SET #n0 = :v0"),
		it.Map(expr.Names).Have("#n0", "horse_power"),
		it.Map(expr.Values).Have(":v0", &types.AttributeValueMemberN{Value: "534"}),
	)
}

func TestPatchSetAndRemove(t *testing.T) {
	expr, err := dynotx.NewPatch().
		Remove("color").
		Set("horse_power", 534).
		Set("trim", "plaid").
		Build()

	it.Then(t).Should(
		it.Nil(err),
		it.Equal(expr.Update, "SET #n1 = :v0, #n2 = :v1 REMOVE #n0"),
		it.Map(expr.Names).Have("#n0", "color"),
		it.Map(expr.Names).Have("#n1", "horse_power"),
		it.Map(expr.Names).Have("#n2", "trim"),
		it.Map(expr.Values).Have(":v1", &types.AttributeValueMemberS{Value: "plaid"}),
	)
}

func TestPatchRemoveOnly(t *testing.T) {
	expr, err := dynotx.NewPatch().Remove("color").Build()

	it.Then(t).Should(
		it.Nil(err),
		it.Equal(expr.Update, "REMOVE #n0"),
		it.Equal(len(expr.Values), 0),
	)
}

func TestPatchReservedWord(t *testing.T) {
	expr, err := dynotx.NewPatch().Set("size", 10).Build()

	it.Then(t).Should(
		it.Nil(err),
		it.Equal(expr.Update, "SET #n0 = :v0"),
		it.Map(expr.Names).Have("#n0", "size"),
	)
}

func TestPatchNestedPath(t *testing.T) {
	expr, err := dynotx.NewPatch().Set("spec.ports[0].name", "http").Build()

	it.Then(t).Should(
		it.Nil(err),
		it.Equal(expr.Update, "SET #n0.#n1[0].#n2 = :v0"),
		it.Map(expr.Names).Have("#n0", "spec"),
		it.Map(expr.Names).Have("#n1", "ports"),
		it.Map(expr.Names).Have("#n2", "name"),
	)
}

func TestPatchSharedName(t *testing.T) {
	expr, err := dynotx.NewPatch().
		Set("spec.replicas", 3).
		Remove("spec.paused").
		Build()

	it.Then(t).Should(
		it.Nil(err),
		it.Equal(expr.Update, "SET #n0.#n1 = :v0 REMOVE #n0.#n2"),
		it.Map(expr.Names).Have("#n0", "spec"),
		it.Equal(len(expr.Names), 3),
	)
}

func TestPatchLastWriterWins(t *testing.T) {
	expr, err := dynotx.NewPatch().
		Set("horse_power", 347).
		Set("horse_power", 534).
		Build()

	it.Then(t).Should(
		it.Nil(err),
		it.Equal(expr.Update, "SET #n0 = :v0"),
		it.Map(expr.Values).Have(":v0", &types.AttributeValueMemberN{Value: "534"}),
	)
}

func TestPatchDeterministic(t *testing.T) {
	build := func() string {
		expr, err := dynotx.NewPatch().
			Set("a", 1).
			Set("b", 2).
			Remove("c").
			Build()
		it.Then(t).Should(it.Nil(err))
		return expr.Update
	}

	it.Then(t).Should(
		it.Equal(build(), build()),
		it.Equal(build(), "SET #n0 = :v0, #n1 = :v1 REMOVE #n2"),
	)
}

func TestPatchEmpty(t *testing.T) {
	_, err := dynotx.NewPatch().Build()

	it.Then(t).Should(
		it.True(errors.Is(err, dynotx.ErrEncoding)),
	)
}

func TestPatchEmptyValue(t *testing.T) {
	_, err := dynotx.NewPatch().Set("trim", "").Build()

	var fail *dynotx.EncodingError
	it.Then(t).Should(
		it.True(errors.As(err, &fail)),
		it.Equal(fail.Path, "trim"),
	)
}

func TestPatchMalformedIndex(t *testing.T) {
	_, err := dynotx.NewPatch().Set("ports[x]", 1).Build()

	it.Then(t).Should(
		it.True(errors.Is(err, dynotx.ErrEncoding)),
	)
}
