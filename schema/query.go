// Copyright 2019 Ross Light
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/xerrors"
)

// Errors returned when building query trees.
var (
	ErrDuplicateArgument = xerrors.New("duplicate argument")
	ErrDuplicateKey      = xerrors.New("duplicate response key")
)

// Query is a node in a compiled query tree: either ScalarQuery{} or an
// *ObjectQuery.
type Query interface {
	fmt.Stringer
	json.Marshaler
	isQuery()
}

// ScalarQuery requests a leaf value. It has no payload.
type ScalarQuery struct{}

func (ScalarQuery) isQuery() {}

// String returns "ScalarQuery".
func (ScalarQuery) String() string { return "ScalarQuery" }

// MarshalJSON returns the JSON string "scalar".
func (ScalarQuery) MarshalJSON() ([]byte, error) {
	return []byte(`"scalar"`), nil
}

// ObjectQuery requests a set of fields from an object or interface type.
// Fields are keyed by response key and kept in insertion order.
// The zero value is an empty query with no type.
type ObjectQuery struct {
	typ    Owner
	keys   []string
	fields map[string]*FieldQuery
}

// NewObjectQuery returns an empty query for the given type.
func NewObjectQuery(typ Owner) *ObjectQuery {
	return &ObjectQuery{
		typ:    typ,
		fields: make(map[string]*FieldQuery),
	}
}

func (*ObjectQuery) isQuery() {}

// Type returns the type being queried.
func (q *ObjectQuery) Type() Owner { return q.typ }

// Add appends a field to the query under the given response key. It returns
// an error wrapping ErrDuplicateKey if the key is already present.
func (q *ObjectQuery) Add(key string, fq *FieldQuery) error {
	if _, dup := q.fields[key]; dup {
		return xerrors.Errorf("add %q to %v query: %w", key, q.typ, ErrDuplicateKey)
	}
	if q.fields == nil {
		q.fields = make(map[string]*FieldQuery)
	}
	q.keys = append(q.keys, key)
	q.fields[key] = fq
	return nil
}

// Len returns the number of fields in the query.
func (q *ObjectQuery) Len() int {
	if q == nil {
		return 0
	}
	return len(q.keys)
}

// Keys returns the response keys in insertion order.
func (q *ObjectQuery) Keys() []string {
	if q == nil {
		return nil
	}
	return append([]string(nil), q.keys...)
}

// Field returns the field query for the given response key or nil if the key
// is not present.
func (q *ObjectQuery) Field(key string) *FieldQuery {
	if q == nil {
		return nil
	}
	return q.fields[key]
}

// Has reports whether the query selects the schema field with the given name
// under any response key.
func (q *ObjectQuery) Has(fieldName string) bool {
	return len(q.FieldsWithName(fieldName)) > 0
}

// FieldsWithName returns the field queries that select the schema field with
// the given name, in insertion order. There may be multiple in the case of
// aliases.
func (q *ObjectQuery) FieldsWithName(fieldName string) []*FieldQuery {
	if q == nil {
		return nil
	}
	var fields []*FieldQuery
	for _, key := range q.keys {
		if fq := q.fields[key]; fq.field.name == fieldName {
			fields = append(fields, fq)
		}
	}
	return fields
}

// String returns a compact representation of the query tree, like
// `ObjectQuery(Root, {"one": FieldQuery(Root.one, {}, ScalarQuery)})`.
func (q *ObjectQuery) String() string {
	sb := new(strings.Builder)
	sb.WriteString("ObjectQuery(")
	sb.WriteString(typeString(q.typ))
	sb.WriteString(", {")
	for i, key := range q.keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.Quote(key))
		sb.WriteString(": ")
		sb.WriteString(q.fields[key].String())
	}
	sb.WriteString("})")
	return sb.String()
}

// MarshalJSON encodes the query tree as a JSON object, preserving field order.
func (q *ObjectQuery) MarshalJSON() ([]byte, error) {
	var buf []byte
	buf = append(buf, `{"type":`...)
	buf = appendJSONString(buf, typeString(q.typ))
	buf = append(buf, `,"fields":{`...)
	for i, key := range q.keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendJSONString(buf, key)
		buf = append(buf, ':')
		data, err := q.fields[key].MarshalJSON()
		if err != nil {
			return nil, xerrors.Errorf("marshal field %q: %w", key, err)
		}
		buf = append(buf, data...)
	}
	buf = append(buf, "}}"...)
	return buf, nil
}

// FieldQuery requests a single field with bound arguments.
type FieldQuery struct {
	field     *Field
	args      Args
	typeQuery Query
}

// Field returns the schema field being requested.
func (fq *FieldQuery) Field() *Field { return fq.field }

// Args returns the bound arguments.
func (fq *FieldQuery) Args() *Args { return &fq.args }

// TypeQuery returns the query for the field's result type.
func (fq *FieldQuery) TypeQuery() Query { return fq.typeQuery }

// String returns a compact representation like
// "FieldQuery(Root.one, {arg0: 42}, ScalarQuery)".
func (fq *FieldQuery) String() string {
	return fmt.Sprintf("FieldQuery(%v, %v, %v)", fq.field, &fq.args, fq.typeQuery)
}

// MarshalJSON encodes the field query as a JSON object.
func (fq *FieldQuery) MarshalJSON() ([]byte, error) {
	var buf []byte
	buf = append(buf, `{"field":`...)
	buf = appendJSONString(buf, fq.field.String())
	if fq.args.Len() > 0 {
		buf = append(buf, `,"args":`...)
		data, err := fq.args.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf = append(buf, data...)
	}
	buf = append(buf, `,"query":`...)
	data, err := fq.typeQuery.MarshalJSON()
	if err != nil {
		return nil, err
	}
	buf = append(buf, data...)
	buf = append(buf, '}')
	return buf, nil
}

func appendJSONString(buf []byte, s string) []byte {
	data, _ := json.Marshal(s)
	return append(buf, data...)
}

// Arg is a single bound argument.
type Arg struct {
	Param *Param
	Value interface{}
}

// Args is an ordered set of bound arguments with unique parameter names.
// The zero value is an empty set.
type Args struct {
	list []Arg
}

// Add binds a value to a parameter. It returns an error wrapping
// ErrDuplicateArgument if a parameter with the same name is already bound.
func (args *Args) Add(p *Param, value interface{}) error {
	for _, a := range args.list {
		if a.Param.name == p.name {
			return xerrors.Errorf("bind %s: %w", p.name, ErrDuplicateArgument)
		}
	}
	args.list = append(args.list, Arg{Param: p, Value: value})
	return nil
}

// Len returns the number of bound arguments.
func (args *Args) Len() int {
	if args == nil {
		return 0
	}
	return len(args.list)
}

// Get returns the value bound to the parameter with the given name.
func (args *Args) Get(name string) (interface{}, bool) {
	if args == nil {
		return nil, false
	}
	for _, a := range args.list {
		if a.Param.name == name {
			return a.Value, true
		}
	}
	return nil, false
}

// Int returns the integer bound to the parameter with the given name.
func (args *Args) Int(name string) (int64, bool) {
	v, ok := args.Get(name)
	if !ok {
		return 0, false
	}
	i, ok := v.(int64)
	return i, ok
}

// All returns the bound arguments in binding order.
func (args *Args) All() []Arg {
	if args == nil {
		return nil
	}
	return append([]Arg(nil), args.list...)
}

// String returns the arguments in the form "{name: value, ...}".
func (args *Args) String() string {
	sb := new(strings.Builder)
	sb.WriteByte('{')
	for i, a := range args.All() {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(sb, "%s: %v", a.Param.name, a.Value)
	}
	sb.WriteByte('}')
	return sb.String()
}

// MarshalJSON encodes the arguments as a JSON object in binding order.
func (args *Args) MarshalJSON() ([]byte, error) {
	var buf []byte
	buf = append(buf, '{')
	for i, a := range args.All() {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendJSONString(buf, a.Param.name)
		buf = append(buf, ':')
		data, err := json.Marshal(a.Value)
		if err != nil {
			return nil, xerrors.Errorf("marshal argument %s: %w", a.Param.name, err)
		}
		buf = append(buf, data...)
	}
	buf = append(buf, '}')
	return buf, nil
}
