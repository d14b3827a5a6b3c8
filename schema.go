//
// Copyright (C) 2024 dynotx authors
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/dynotx/dynotx
//

package dynotx

import (
	"strings"

	"github.com/fogfish/golem/hseq"
)

// Schema builds a condition factory from the struct definition of T,
// resolving the storage attribute name from the dynamodbav tag of the
// named field. Pass the Go field name, or no name at all when exactly
// one field of type A exists:
//
//	type Person struct {
//	  Age int `dynamodbav:"age"`
//	}
//
//	age := dynotx.Schema[Person, int]("Age")
//	age.Gt(21)
//
// Schema panics when the field does not exist, it is a declaration
// utility meant for package scope.
func Schema[T Resource, A any](field ...string) Conditions[T, A] {
	var seq hseq.Seq[T]

	if len(field) == 0 {
		seq = hseq.New1[T, A]()
	} else {
		seq = hseq.New[T](field[0])
	}

	return hseq.FMap1(seq, mkConditions[T, A])
}

func mkConditions[T Resource, A any](t hseq.Type[T]) Conditions[T, A] {
	tag := t.Tag.Get("dynamodbav")
	if tag == "" {
		return Conditions[T, A]{attr: t.Name}
	}

	return Conditions[T, A]{attr: strings.Split(tag, ",")[0]}
}
