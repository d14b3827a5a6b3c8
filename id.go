//
// Copyright (C) 2024 dynotx authors
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/dynotx/dynotx
//

package dynotx

import (
	"github.com/fogfish/curie/v2"
)

// ID is an embeddable identity for records addressed by compact URIs.
// It supplies the key half of the Resource contract, the embedding
// struct only defines Table:
//
//	type Order struct {
//	  dynotx.ID
//	  Total int `dynamodbav:"total"`
//	}
//
//	func (Order) Table() string { return "orders" }
//
//	order := Order{ID: dynotx.NewID("user:joe", "order:42")}
//
// The key fields are excluded from the encoded item, keys live only in
// the PrimaryKey and SecondaryKey attributes.
type ID struct {
	HKey curie.IRI `dynamodbav:"-"`
	SKey curie.IRI `dynamodbav:"-"`
}

// NewID builds the identity from compact URI literals.
func NewID(hkey, skey string) ID {
	return ID{HKey: curie.IRI(hkey), SKey: curie.IRI(skey)}
}

// MkID builds the identity from explicit compact URIs.
func MkID(hkey, skey curie.IRI) ID {
	return ID{HKey: hkey, SKey: skey}
}

func (id ID) HashKey() string { return string(id.HKey) }
func (id ID) SortKey() string { return string(id.SKey) }

func (id *ID) SetKey(key Key) {
	id.HKey = curie.IRI(key.Hash)
	id.SKey = curie.IRI(key.Sort)
}
