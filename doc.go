//
// Copyright (C) 2024 dynotx authors
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/dynotx/dynotx
//

/*
Package dynotx is a typed mapper for AWS DynamoDB tables that follow a
fixed two-attribute key schema. Every record lives under a pair of string
keys, a partition key stored as the attribute PrimaryKey and a sort key
stored as SecondaryKey. Any struct becomes storable by implementing the
Resource contract:

	type Person struct {
	  Org  string `dynamodbav:"-"`
	  Name string `dynamodbav:"-"`
	  Age  int    `dynamodbav:"age"`
	}

	func (p Person) Table() string   { return "people" }
	func (p Person) HashKey() string { return p.Org }
	func (p Person) SortKey() string { return p.Name }

The client exposes plain record operations (Create, Get, Update, Remove,
List, BatchGet) and an atomic multi-record transaction context:

	client := dynotx.Must(dynotx.New())

	tx := dynotx.BeginTransaction()
	dynotx.TransactCreate(tx, Person{Org: "acme", Name: "ann", Age: 32})
	dynotx.TransactDelete[Person](tx, dynotx.Key{Hash: "acme", Sort: "bob"})
	if err := client.ExecuteTransaction(context.Background(), tx); err != nil {
	  ...
	}

Mutations are expressed as patches that compile into DynamoDB update
expressions, and preconditions as typed conditions bound to the record
type:

	age := dynotx.Schema[Person, int]("Age")
	person, err := dynotx.Update(ctx, client, person,
	  dynotx.NewPatch().Set("age", 33),
	  age.Eq(32),
	)

The package enforces DynamoDB data rules at encode time (no empty
strings, no empty collections, keys are non-empty strings) so that
malformed records fail before a network round trip.
*/
package dynotx
