//
// Copyright (C) 2024 dynotx authors
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/dynotx/dynotx
//

package dynotx

import (
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Condition is a single precondition over a record of type T. The
// phantom type parameter pins conditions to the record type they were
// declared for, mixing conditions across types fails to compile.
// Conditions are rendered into the request only when the operation is
// built.
type Condition[T Resource] struct {
	fun  string
	attr string
	val  any
}

// Conditions is a factory of preconditions over one attribute. Obtain
// it with Attribute or, tag-aware, with Schema.
type Conditions[T Resource, A any] struct {
	attr string
}

// Attribute binds a condition factory to the storage attribute name.
func Attribute[T Resource, A any](attr string) Conditions[T, A] {
	return Conditions[T, A]{attr: attr}
}

func (c Conditions[T, A]) Eq(val A) Condition[T] {
	return Condition[T]{fun: "=", attr: c.attr, val: val}
}
func (c Conditions[T, A]) Ne(val A) Condition[T] {
	return Condition[T]{fun: "<>", attr: c.attr, val: val}
}
func (c Conditions[T, A]) Lt(val A) Condition[T] {
	return Condition[T]{fun: "<", attr: c.attr, val: val}
}
func (c Conditions[T, A]) Le(val A) Condition[T] {
	return Condition[T]{fun: "<=", attr: c.attr, val: val}
}
func (c Conditions[T, A]) Gt(val A) Condition[T] {
	return Condition[T]{fun: ">", attr: c.attr, val: val}
}
func (c Conditions[T, A]) Ge(val A) Condition[T] {
	return Condition[T]{fun: ">=", attr: c.attr, val: val}
}

// Exists requires the attribute to be present on the stored record.
func (c Conditions[T, A]) Exists() Condition[T] {
	return Condition[T]{fun: "attribute_exists", attr: c.attr}
}

// NotExists requires the attribute to be absent from the stored record.
func (c Conditions[T, A]) NotExists() Condition[T] {
	return Condition[T]{fun: "attribute_not_exists", attr: c.attr}
}

// Implicit key conditions. Create requires the record to be new,
// update requires it to exist.
const (
	condKeyExists    = "attribute_exists(#pk) and attribute_exists(#sk)"
	condKeyNotExists = "attribute_not_exists(#pk) and attribute_not_exists(#sk)"
)

type conditionExpr struct {
	expr   string
	names  map[string]string
	values map[string]types.AttributeValue
}

// renderConditions compiles the implicit key condition and the caller
// supplied checks into one condition expression. Placeholders are
// indexed in declaration order, disjoint from the placeholders a patch
// emits, so the two merge without collisions.
func renderConditions[T Resource](implicit string, checks []Condition[T]) (*conditionExpr, error) {
	if implicit == "" && len(checks) == 0 {
		return nil, nil
	}

	ce := &conditionExpr{
		names:  map[string]string{},
		values: map[string]types.AttributeValue{},
	}

	terms := make([]string, 0, len(checks)+1)
	if implicit != "" {
		terms = append(terms, implicit)
		ce.names["#pk"] = PK
		ce.names["#sk"] = SK
	}

	for i, check := range checks {
		name := "#c" + strconv.Itoa(i)
		ce.names[name] = check.attr

		switch check.fun {
		case "attribute_exists", "attribute_not_exists":
			terms = append(terms, check.fun+"("+name+")")
		default:
			ref := ":c" + strconv.Itoa(i)
			val, err := encodeValue(check.attr, check.val)
			if err != nil {
				return nil, err
			}
			ce.values[ref] = val
			terms = append(terms, name+" "+check.fun+" "+ref)
		}
	}

	if len(terms) == 1 {
		ce.expr = terms[0]
		return ce, nil
	}

	for i, term := range terms {
		terms[i] = "(" + term + ")"
	}
	ce.expr = strings.Join(terms, " and ")

	return ce, nil
}

// apply merges the condition into a names/values pair shared with an
// update expression. DynamoDB rejects empty attribute value maps, the
// caller must drop the map if it stays empty.
func (ce *conditionExpr) apply(names map[string]string, values map[string]types.AttributeValue) {
	for name, attr := range ce.names {
		names[name] = attr
	}
	for ref, val := range ce.values {
		values[ref] = val
	}
}
