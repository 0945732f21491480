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
	"fmt"
	"sync"
)

// Type is a node in a type graph.
//
// Types are compared by identity: two object types with the same name and
// fields are distinct types. Type values may be used as map keys.
type Type interface {
	Kind() Kind
	String() string
}

// Kind identifies the variant of a Type.
type Kind int

// Type kinds.
const (
	ScalarKind Kind = 1 + iota
	ObjectKind
	InterfaceKind
	InputObjectKind
	ListKind
	NullableKind
)

// String returns the kind's name.
func (k Kind) String() string {
	switch k {
	case ScalarKind:
		return "scalar"
	case ObjectKind:
		return "object"
	case InterfaceKind:
		return "interface"
	case InputObjectKind:
		return "input object"
	case ListKind:
		return "list"
	case NullableKind:
		return "nullable"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ScalarType is a leaf type. Values of scalar types are non-nullable unless
// wrapped with NullableOf.
type ScalarType struct {
	name string
}

// Predefined scalars.
var (
	Boolean = &ScalarType{name: "Boolean"}
	Float   = &ScalarType{name: "Float"}
	Int     = &ScalarType{name: "Int"}
	String  = &ScalarType{name: "String"}
)

// Kind returns ScalarKind.
func (*ScalarType) Kind() Kind { return ScalarKind }

// Name returns the scalar's name, like "Int".
func (s *ScalarType) Name() string { return s.name }

// String returns the scalar's name.
func (s *ScalarType) String() string { return s.name }

// Owner is a type that has fields: an object or an interface.
type Owner interface {
	Type
	Name() string
	// Field returns the field with the given schema name or nil if no such
	// field exists.
	Field(name string) *Field
	// Fields returns the fields in declaration order.
	Fields() []*Field
}

// FieldsFunc returns the fields of an object or interface type. It is called
// at most once, the first time the fields are needed, which allows types to
// refer to each other before all of them are declared.
type FieldsFunc func() []*Field

// FieldList returns a FieldsFunc that returns the given fields.
func FieldList(fields ...*Field) FieldsFunc {
	return func() []*Field { return fields }
}

// fieldSet is the lazily built field table shared by objects and interfaces.
type fieldSet struct {
	init   sync.Once
	get    FieldsFunc
	order  []*Field
	byName map[string]*Field
}

func (fs *fieldSet) resolve(owner Owner) {
	fs.init.Do(func() {
		fs.byName = make(map[string]*Field)
		if fs.get == nil {
			return
		}
		for _, f := range fs.get() {
			if _, dup := fs.byName[f.name]; dup {
				panic(fmt.Sprintf("schema: multiple fields named %q in %s", f.name, owner))
			}
			if f.owner != nil && f.owner != owner {
				panic(fmt.Sprintf("schema: field %s already belongs to %s", f.name, f.owner))
			}
			f.owner = owner
			fs.byName[f.name] = f
			fs.order = append(fs.order, f)
		}
	})
}

// ObjectType is a named type with fields.
type ObjectType struct {
	name       string
	fields     fieldSet
	interfaces []*InterfaceType
}

// NewObjectType returns a new object type. fields is called lazily the first
// time the type's fields are needed.
func NewObjectType(name string, fields FieldsFunc, interfaces ...*InterfaceType) *ObjectType {
	return &ObjectType{
		name:       name,
		fields:     fieldSet{get: fields},
		interfaces: interfaces,
	}
}

// Kind returns ObjectKind.
func (*ObjectType) Kind() Kind { return ObjectKind }

// Name returns the type's name.
func (obj *ObjectType) Name() string { return obj.name }

// String returns the type's name.
func (obj *ObjectType) String() string { return obj.name }

// Field returns the field with the given name or nil if no such field exists.
func (obj *ObjectType) Field(name string) *Field {
	obj.fields.resolve(obj)
	return obj.fields.byName[name]
}

// Fields returns the object's fields in declaration order.
func (obj *ObjectType) Fields() []*Field {
	obj.fields.resolve(obj)
	return obj.fields.order
}

// Interfaces returns the interfaces the object declares that it implements.
func (obj *ObjectType) Interfaces() []*InterfaceType {
	return obj.interfaces
}

// InterfaceType is an abstract named type with fields.
type InterfaceType struct {
	name   string
	fields fieldSet
}

// NewInterfaceType returns a new interface type. fields is called lazily the
// first time the type's fields are needed.
func NewInterfaceType(name string, fields FieldsFunc) *InterfaceType {
	return &InterfaceType{
		name:   name,
		fields: fieldSet{get: fields},
	}
}

// Kind returns InterfaceKind.
func (*InterfaceType) Kind() Kind { return InterfaceKind }

// Name returns the type's name.
func (iface *InterfaceType) Name() string { return iface.name }

// String returns the type's name.
func (iface *InterfaceType) String() string { return iface.name }

// Field returns the field with the given name or nil if no such field exists.
func (iface *InterfaceType) Field(name string) *Field {
	iface.fields.resolve(iface)
	return iface.fields.byName[name]
}

// Fields returns the interface's fields in declaration order.
func (iface *InterfaceType) Fields() []*Field {
	iface.fields.resolve(iface)
	return iface.fields.order
}

// InputFieldsFunc returns the fields of an input object type. Like FieldsFunc,
// it is called at most once.
type InputFieldsFunc func() []*InputField

// InputFieldList returns an InputFieldsFunc that returns the given fields.
func InputFieldList(fields ...*InputField) InputFieldsFunc {
	return func() []*InputField { return fields }
}

// InputObjectType is a named type used for structured arguments.
type InputObjectType struct {
	name string

	init   sync.Once
	get    InputFieldsFunc
	fields []*InputField
}

// NewInputObjectType returns a new input object type.
func NewInputObjectType(name string, fields InputFieldsFunc) *InputObjectType {
	return &InputObjectType{name: name, get: fields}
}

// Kind returns InputObjectKind.
func (*InputObjectType) Kind() Kind { return InputObjectKind }

// Name returns the type's name.
func (input *InputObjectType) Name() string { return input.name }

// String returns the type's name.
func (input *InputObjectType) String() string { return input.name }

// Fields returns the input object's fields in declaration order.
func (input *InputObjectType) Fields() []*InputField {
	input.init.Do(func() {
		if input.get == nil {
			return
		}
		seen := make(map[string]struct{})
		for _, f := range input.get() {
			if _, dup := seen[f.name]; dup {
				panic(fmt.Sprintf("schema: multiple fields named %q in %s", f.name, input.name))
			}
			seen[f.name] = struct{}{}
			input.fields = append(input.fields, f)
		}
	})
	return input.fields
}

// ListType is a list of elements of another type.
type ListType struct {
	elem Type
}

// ListOf returns a new list type. Each call returns a distinct type.
func ListOf(elem Type) *ListType {
	return &ListType{elem: elem}
}

// Kind returns ListKind.
func (*ListType) Kind() Kind { return ListKind }

// Elem returns the list's element type.
func (list *ListType) Elem() Type { return list.elem }

// String returns the type reference string, like "[Int]".
func (list *ListType) String() string {
	return "[" + typeString(list.elem) + "]"
}

// NullableType permits null in place of a value of its element type.
type NullableType struct {
	elem Type
}

// NullableOf returns a new nullable type. Each call returns a distinct type.
func NullableOf(elem Type) *NullableType {
	return &NullableType{elem: elem}
}

// Kind returns NullableKind.
func (*NullableType) Kind() Kind { return NullableKind }

// Elem returns the wrapped type.
func (n *NullableType) Elem() Type { return n.elem }

// String returns the type reference string with a "?" suffix, like "Int?".
func (n *NullableType) String() string {
	return typeString(n.elem) + "?"
}

func typeString(typ Type) string {
	if typ == nil {
		return "<nil>"
	}
	return typ.String()
}

// Unwrap strips list and nullable wrappers from typ.
func Unwrap(typ Type) Type {
	for {
		switch t := typ.(type) {
		case *ListType:
			typ = t.elem
		case *NullableType:
			typ = t.elem
		default:
			return typ
		}
	}
}
