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

// Patch is an ordered collection of mutations over a single record.
// It compiles into a DynamoDB update expression, attribute names are
// always routed through placeholders so reserved words are usable as
// attribute names. A later mutation of the same path replaces the
// earlier one, the store rejects a path addressed twice.
type Patch struct {
	ops []patchOp
}

type patchOp struct {
	path   string
	val    any
	remove bool
}

// NewPatch creates an empty patch.
func NewPatch() *Patch { return &Patch{} }

// Set assigns a value to the attribute path. Paths address nested
// documents with dots and list members with bracketed indexes,
// e.g. "spec.ports[0].name".
func (p *Patch) Set(path string, val any) *Patch {
	return p.push(patchOp{path: path, val: val})
}

// Remove deletes the attribute path from the record.
func (p *Patch) Remove(path string) *Patch {
	return p.push(patchOp{path: path, remove: true})
}

func (p *Patch) push(op patchOp) *Patch {
	for i, prev := range p.ops {
		if prev.path == op.path {
			p.ops[i] = op
			return p
		}
	}
	p.ops = append(p.ops, op)
	return p
}

// Len returns the number of mutations in the patch.
func (p *Patch) Len() int {
	if p == nil {
		return 0
	}
	return len(p.ops)
}

// UpdateExpression is the compiled form of a patch, ready to be placed
// into an UpdateItem request or a transactional update.
type UpdateExpression struct {
	Update string
	Names  map[string]string
	Values map[string]types.AttributeValue
}

// Build compiles the patch. Placeholders are assigned in first-use
// order, the same patch always compiles to the same expression. An
// empty patch is an error, the store has nothing to apply.
func (p *Patch) Build() (*UpdateExpression, error) {
	if p.Len() == 0 {
		return nil, &EncodingError{Reason: "patch does not modify anything"}
	}

	expr := &UpdateExpression{
		Names:  map[string]string{},
		Values: map[string]types.AttributeValue{},
	}

	seen := map[string]string{}
	var set, remove []string

	for _, op := range p.ops {
		path, err := renderPath(op.path, seen, expr.Names)
		if err != nil {
			return nil, err
		}

		if op.remove {
			remove = append(remove, path)
			continue
		}

		val, err := encodeValue(op.path, op.val)
		if err != nil {
			return nil, err
		}
		ref := ":v" + strconv.Itoa(len(expr.Values))
		expr.Values[ref] = val
		set = append(set, path+" = "+ref)
	}

	clauses := make([]string, 0, 2)
	if len(set) != 0 {
		clauses = append(clauses, "SET "+strings.Join(set, ", "))
	}
	if len(remove) != 0 {
		clauses = append(clauses, "REMOVE "+strings.Join(remove, ", "))
	}
	expr.Update = strings.Join(clauses, " ")

	return expr, nil
}

// renderPath rewrites an attribute path into its placeholder form,
// registering every distinct attribute name once.
func renderPath(path string, seen, names map[string]string) (string, error) {
	if path == "" {
		return "", &EncodingError{Reason: "empty attribute path"}
	}

	segments := strings.Split(path, ".")
	out := make([]string, len(segments))

	for i, segment := range segments {
		name, index := segment, ""
		if at := strings.IndexByte(segment, '['); at >= 0 {
			name, index = segment[:at], segment[at:]
			if !validIndex(index) {
				return "", &EncodingError{Path: path, Reason: "malformed list index"}
			}
		}
		if name == "" {
			return "", &EncodingError{Path: path, Reason: "empty path segment"}
		}

		ref, has := seen[name]
		if !has {
			ref = "#n" + strconv.Itoa(len(seen))
			seen[name] = ref
			names[ref] = name
		}
		out[i] = ref + index
	}

	return strings.Join(out, "."), nil
}

func validIndex(s string) bool {
	for len(s) != 0 {
		if s[0] != '[' {
			return false
		}
		end := strings.IndexByte(s, ']')
		if end < 2 {
			return false
		}
		for _, r := range s[1:end] {
			if r < '0' || r > '9' {
				return false
			}
		}
		s = s[end+1:]
	}
	return true
}
