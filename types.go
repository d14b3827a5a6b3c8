//
// Copyright (C) 2024 dynotx authors
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/dynotx/dynotx
//

package dynotx

// Names of the key attributes. Every table managed by this package
// declares exactly these two attributes as its key schema.
const (
	PK = "PrimaryKey"
	SK = "SecondaryKey"
)

// Resource is the contract a struct implements to become storable.
// Table names the DynamoDB table the record belongs to, HashKey and
// SortKey derive the key pair from the record fields. All three are
// pure functions of the receiver, the package calls them on zero
// values as well (e.g. to resolve the table for a Get), so they must
// not touch external state.
type Resource interface {
	Table() string
	HashKey() string
	SortKey() string
}

// Key addresses a single record without materializing the whole struct.
type Key struct {
	Hash string
	Sort string
}

// KeyOf extracts the key pair of a record.
func KeyOf(r Resource) Key {
	return Key{Hash: r.HashKey(), Sort: r.SortKey()}
}

// KeySetter is an optional contract. Keys live only in the PrimaryKey
// and SecondaryKey attributes of the item, Decode hands the key pair
// back to records that implement it so the key source fields survive
// the round trip.
type KeySetter interface {
	SetKey(Key)
}

func tableOf[T Resource]() string {
	var t T
	return t.Table()
}
