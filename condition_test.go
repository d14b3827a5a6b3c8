//
// Copyright (C) 2024 dynotx authors
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/dynotx/dynotx
//

package dynotx

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/fogfish/it/v2"
)

type tCar struct {
	Brand      string `dynamodbav:"-"`
	Model      string `dynamodbav:"-"`
	HorsePower int    `dynamodbav:"horse_power"`
	Trim       string
}

func (c tCar) Table() string   { return "cars" }
func (c tCar) HashKey() string { return c.Brand }
func (c tCar) SortKey() string { return c.Model }

func TestRenderImplicitOnly(t *testing.T) {
	ce, err := renderConditions[tCar](condKeyNotExists, nil)

	it.Then(t).Should(
		it.Nil(err),
		it.Equal(ce.expr, "attribute_not_exists(#pk) and attribute_not_exists(#sk)"),
		it.Map(ce.names).Have("#pk", PK),
		it.Map(ce.names).Have("#sk", SK),
		it.Equal(len(ce.values), 0),
	)
}

func TestRenderChecks(t *testing.T) {
	power := Attribute[tCar, int]("horse_power")
	ce, err := renderConditions(condKeyExists, []Condition[tCar]{power.Eq(347)})

	it.Then(t).Should(
		it.Nil(err),
		it.Equal(ce.expr, "(attribute_exists(#pk) and attribute_exists(#sk)) and (#c0 = :c0)"),
		it.Map(ce.names).Have("#c0", "horse_power"),
		it.Map(ce.values).Have(":c0", &types.AttributeValueMemberN{Value: "347"}),
	)
}

func TestRenderChecksOnly(t *testing.T) {
	power := Attribute[tCar, int]("horse_power")
	ce, err := renderConditions("", []Condition[tCar]{power.Gt(100), power.Le(500)})

	it.Then(t).Should(
		it.Nil(err),
		it.Equal(ce.expr, "(#c0 > :c0) and (#c1 <= :c1)"),
	)
}

func TestRenderExistence(t *testing.T) {
	power := Attribute[tCar, int]("horse_power")
	ce, err := renderConditions("", []Condition[tCar]{power.NotExists()})

	it.Then(t).Should(
		it.Nil(err),
		it.Equal(ce.expr, "attribute_not_exists(#c0)"),
		it.Equal(len(ce.values), 0),
	)
}

func TestRenderNothing(t *testing.T) {
	ce, err := renderConditions[tCar]("", nil)

	it.Then(t).Should(
		it.Nil(err),
		it.True(ce == nil),
	)
}

func TestSchemaTag(t *testing.T) {
	power := Schema[tCar, int]("HorsePower")
	check := power.Eq(347)

	it.Then(t).Should(
		it.Equal(check.attr, "horse_power"),
	)
}

func TestSchemaUntagged(t *testing.T) {
	trim := Schema[tCar, string]("Trim")
	check := trim.Ne("plaid")

	it.Then(t).Should(
		it.Equal(check.attr, "Trim"),
		it.Equal(check.fun, "<>"),
	)
}

func TestSchemaUnique(t *testing.T) {
	power := Schema[tCar, int]()

	it.Then(t).Should(
		it.Equal(power.attr, "horse_power"),
	)
}
