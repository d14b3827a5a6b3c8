//
// Copyright (C) 2024 dynotx authors
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/dynotx/dynotx
//

package dynotx

import (
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Encode transforms a record into a DynamoDB item, injecting the key
// pair as PrimaryKey and SecondaryKey attributes. It rejects values the
// store would bounce (empty strings, empty lists and maps, binary and
// set members) before the network round trip, naming the attribute path
// in the error.
func Encode[T Resource](entity T) (map[string]types.AttributeValue, error) {
	gen, err := attributevalue.MarshalMap(entity)
	if err != nil {
		return nil, errInvalidEntity.New(err)
	}

	for name, val := range gen {
		if err := validateAttr(name, val); err != nil {
			return nil, err
		}
	}

	key, err := EncodeKey(entity)
	if err != nil {
		return nil, err
	}
	gen[PK] = key[PK]
	gen[SK] = key[SK]

	return gen, nil
}

// EncodeKey builds the key-only item of a record.
func EncodeKey(r Resource) (map[string]types.AttributeValue, error) {
	return KeyOf(r).attributes()
}

func (key Key) attributes() (map[string]types.AttributeValue, error) {
	if key.Hash == "" {
		return nil, &EncodingError{Path: PK, Reason: "key cannot be an empty string"}
	}
	if key.Sort == "" {
		return nil, &EncodingError{Path: SK, Reason: "key cannot be an empty string"}
	}

	return map[string]types.AttributeValue{
		PK: &types.AttributeValueMemberS{Value: key.Hash},
		SK: &types.AttributeValueMemberS{Value: key.Sort},
	}, nil
}

// Decode transforms a DynamoDB item back into a record. The item must
// carry both key attributes, values are matched against the target type
// by the dynamodbav tags.
func Decode[T Resource](gen map[string]types.AttributeValue) (T, error) {
	var entity T

	if _, has := gen[PK]; !has {
		return entity, &DecodingError{Reason: "item does not carry the attribute " + PK}
	}
	if _, has := gen[SK]; !has {
		return entity, &DecodingError{Reason: "item does not carry the attribute " + SK}
	}

	if err := attributevalue.UnmarshalMap(gen, &entity); err != nil {
		return entity, &DecodingError{Reason: "item does not fit the target type", cause: err}
	}

	if s, ok := any(&entity).(KeySetter); ok {
		s.SetKey(keyOfItem(gen))
	}

	return entity, nil
}

func keyOfItem(gen map[string]types.AttributeValue) Key {
	key := Key{}
	if v, ok := gen[PK].(*types.AttributeValueMemberS); ok {
		key.Hash = v.Value
	}
	if v, ok := gen[SK].(*types.AttributeValueMemberS); ok {
		key.Sort = v.Value
	}
	return key
}

func encodeValue(path string, val any) (types.AttributeValue, error) {
	gen, err := attributevalue.Marshal(val)
	if err != nil {
		return nil, errInvalidEntity.New(err)
	}
	if err := validateAttr(path, gen); err != nil {
		return nil, err
	}
	return gen, nil
}

// validateAttr walks the encoded value, restricting it to the scalar
// and document types the mapper supports and rejecting members the
// store cannot persist.
func validateAttr(path string, val types.AttributeValue) error {
	switch v := val.(type) {
	case *types.AttributeValueMemberS:
		if v.Value == "" {
			return &EncodingError{Path: path, Reason: "empty strings are not storable"}
		}
	case *types.AttributeValueMemberL:
		if len(v.Value) == 0 {
			return &EncodingError{Path: path, Reason: "empty lists are not storable"}
		}
		for i, member := range v.Value {
			at := path + "[" + strconv.Itoa(i) + "]"
			if err := validateAttr(at, member); err != nil {
				return err
			}
		}
	case *types.AttributeValueMemberM:
		if len(v.Value) == 0 {
			return &EncodingError{Path: path, Reason: "empty maps are not storable"}
		}
		for name, member := range v.Value {
			if err := validateAttr(path+"."+name, member); err != nil {
				return err
			}
		}
	case *types.AttributeValueMemberN,
		*types.AttributeValueMemberBOOL,
		*types.AttributeValueMemberNULL:
	default:
		return &EncodingError{Path: path, Reason: fmt.Sprintf("unsupported attribute type %T", val)}
	}
	return nil
}
