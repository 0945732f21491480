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

import "fmt"

// Field is a field of an object or interface type.
type Field struct {
	name   string
	typ    Type
	params []*Param
	owner  Owner
}

// NewField returns a new field with the given schema name, result type, and
// parameters. A field may only be used in one type.
func NewField(name string, typ Type, params ...*Param) *Field {
	seen := make(map[string]struct{}, len(params))
	for _, p := range params {
		if _, dup := seen[p.name]; dup {
			panic(fmt.Sprintf("schema: multiple params named %q for field %s", p.name, name))
		}
		seen[p.name] = struct{}{}
	}
	return &Field{
		name:   name,
		typ:    typ,
		params: params,
	}
}

// Name returns the field's schema name, like "one_value".
func (f *Field) Name() string { return f.name }

// Type returns the field's result type.
func (f *Field) Type() Type { return f.typ }

// Params returns the field's parameters in declaration order.
func (f *Field) Params() []*Param { return f.params }

// Param returns the parameter with the given name or nil if the field does
// not declare it.
func (f *Field) Param(name string) *Param {
	for _, p := range f.params {
		if p.name == name {
			return p
		}
	}
	return nil
}

// Owner returns the type the field belongs to or nil if the field has not
// been attached to a type yet. Fields are attached the first time their
// type's fields are read.
func (f *Field) Owner() Owner { return f.owner }

// String returns the field in the form "Owner.name".
func (f *Field) String() string {
	if f.owner == nil {
		return f.name
	}
	return f.owner.Name() + "." + f.name
}

// Query returns a query for the field. A nil args is treated as no arguments
// and a nil typeQuery is treated as ScalarQuery{}.
func (f *Field) Query(args *Args, typeQuery Query) *FieldQuery {
	fq := &FieldQuery{field: f, typeQuery: typeQuery}
	if args != nil {
		fq.args = *args
	}
	if typeQuery == nil {
		fq.typeQuery = ScalarQuery{}
	}
	return fq
}

// Param is a named parameter of a field.
type Param struct {
	name string
	typ  Type
}

// NewParam returns a new parameter.
func NewParam(name string, typ Type) *Param {
	return &Param{name: name, typ: typ}
}

// Name returns the parameter's name.
func (p *Param) Name() string { return p.name }

// Type returns the parameter's type.
func (p *Param) Type() Type { return p.typ }

// InputField is a field of an input object type.
type InputField struct {
	name string
	typ  Type
}

// NewInputField returns a new input field.
func NewInputField(name string, typ Type) *InputField {
	return &InputField{name: name, typ: typ}
}

// Name returns the input field's name.
func (f *InputField) Name() string { return f.name }

// Type returns the input field's type.
func (f *InputField) Type() Type { return f.typ }
