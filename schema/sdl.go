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
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
	"golang.org/x/xerrors"
	"zombiezen.com/go/graphlayer/internal/casing"
)

// Graph is a type graph loaded from a GraphQL schema document.
type Graph struct {
	query     *ObjectType
	types     map[string]Type
	typeOrder []string
}

// QueryType returns the root query type.
func (g *Graph) QueryType() *ObjectType {
	return g.query
}

// Type returns the named type or nil if the graph has no such type.
func (g *Graph) Type(name string) Type {
	return g.types[name]
}

// Types returns the types declared in the document in declaration order.
// Built-in scalars are not included.
func (g *Graph) Types() []Type {
	types := make([]Type, 0, len(g.typeOrder))
	for _, name := range g.typeOrder {
		types = append(types, g.types[name])
	}
	return types
}

// ParseSDL builds a type graph from a GraphQL schema document.
//
// Object and interface field names are converted to the schema naming
// convention, so a field declared as "oneValue" is named "one_value".
// A type reference without "!" becomes a NullableType. Only the built-in
// Boolean, Float, Int, and String scalars are available, and only object,
// interface, and input object definitions are supported.
func ParseSDL(source string) (*Graph, error) {
	doc, err := parser.ParseSchema(&ast.Source{Name: "schema", Input: source})
	if err != nil {
		return nil, xerrors.Errorf("parse schema: %w", err)
	}
	if len(doc.Extensions) > 0 {
		return nil, xerrors.Errorf("parse schema: %v: type extensions not supported", positionString(doc.Extensions[0].Position))
	}
	g, err := buildGraph(doc)
	if err != nil {
		return nil, xerrors.Errorf("parse schema: %w", err)
	}
	return g, nil
}

const reservedPrefix = "__"

func buildGraph(doc *ast.SchemaDocument) (*Graph, error) {
	g := &Graph{types: make(map[string]Type)}
	builtins := []*ScalarType{Boolean, Float, Int, String}
	for _, b := range builtins {
		g.types[b.name] = b
	}

	// First pass: declare every type so that fields may refer to types declared
	// later in the document.
	objectFields := make(map[string]*[]*Field)
	inputFields := make(map[string]*[]*InputField)
	for _, defn := range doc.Definitions {
		name := defn.Name
		if strings.HasPrefix(name, reservedPrefix) {
			return nil, xerrors.Errorf("%v: use of reserved name %q", positionString(defn.Position), name)
		}
		if g.types[name] != nil {
			return nil, xerrors.Errorf("%v: multiple types with name %q", positionString(defn.Position), name)
		}
		switch defn.Kind {
		case ast.Object, ast.Interface:
			fields := new([]*Field)
			objectFields[name] = fields
			get := func() []*Field { return *fields }
			if defn.Kind == ast.Object {
				g.types[name] = NewObjectType(name, get)
			} else {
				g.types[name] = NewInterfaceType(name, get)
			}
		case ast.InputObject:
			fields := new([]*InputField)
			inputFields[name] = fields
			g.types[name] = NewInputObjectType(name, func() []*InputField { return *fields })
		default:
			return nil, xerrors.Errorf("%v: %s definitions not supported", positionString(defn.Position), strings.ToLower(string(defn.Kind)))
		}
		g.typeOrder = append(g.typeOrder, name)
	}

	// Second pass: fill in fields and interfaces.
	for _, defn := range doc.Definitions {
		switch defn.Kind {
		case ast.Object, ast.Interface:
			fields, err := g.buildFields(defn)
			if err != nil {
				return nil, err
			}
			*objectFields[defn.Name] = fields
			if defn.Kind == ast.Object {
				obj := g.types[defn.Name].(*ObjectType)
				for _, ifaceName := range defn.Interfaces {
					iface, ok := g.types[ifaceName].(*InterfaceType)
					if !ok {
						return nil, xerrors.Errorf("%v: %s implements %q, which is not an interface", positionString(defn.Position), defn.Name, ifaceName)
					}
					obj.interfaces = append(obj.interfaces, iface)
				}
			}
		case ast.InputObject:
			fields, err := g.buildInputFields(defn)
			if err != nil {
				return nil, err
			}
			*inputFields[defn.Name] = fields
		}
	}

	queryName := "Query"
	for _, s := range doc.Schema {
		for _, op := range s.OperationTypes {
			if op.Operation == ast.Query {
				queryName = op.Type
			}
		}
	}
	switch query := g.types[queryName].(type) {
	case nil:
		return nil, xerrors.Errorf("could not find %s type", queryName)
	case *ObjectType:
		g.query = query
	default:
		return nil, xerrors.Errorf("query type %v must be an object", query)
	}
	return g, nil
}

func (g *Graph) buildFields(defn *ast.Definition) ([]*Field, error) {
	var fields []*Field
	seen := make(map[string]struct{})
	for _, fieldDefn := range defn.Fields {
		if strings.HasPrefix(fieldDefn.Name, reservedPrefix) {
			return nil, xerrors.Errorf("%v: use of reserved name %q", positionString(fieldDefn.Position), fieldDefn.Name)
		}
		name := casing.ToSnake(fieldDefn.Name)
		if _, dup := seen[name]; dup {
			return nil, xerrors.Errorf("%v: multiple fields named %q in %s", positionString(fieldDefn.Position), name, defn.Name)
		}
		seen[name] = struct{}{}
		typ := g.resolveTypeRef(fieldDefn.Type)
		if typ == nil {
			return nil, xerrors.Errorf("%v: undefined type %v", positionString(fieldDefn.Position), fieldDefn.Type)
		}
		if !isOutputType(typ) {
			return nil, xerrors.Errorf("%v: %v is not an output type", positionString(fieldDefn.Position), fieldDefn.Type)
		}
		var params []*Param
		paramNames := make(map[string]struct{})
		for _, arg := range fieldDefn.Arguments {
			if strings.HasPrefix(arg.Name, reservedPrefix) {
				return nil, xerrors.Errorf("%v: use of reserved name %q", positionString(arg.Position), arg.Name)
			}
			if _, dup := paramNames[arg.Name]; dup {
				return nil, xerrors.Errorf("%v: multiple arguments named %q for field %s.%s", positionString(arg.Position), arg.Name, defn.Name, fieldDefn.Name)
			}
			paramNames[arg.Name] = struct{}{}
			argType := g.resolveTypeRef(arg.Type)
			if argType == nil {
				return nil, xerrors.Errorf("%v: undefined type %v", positionString(arg.Position), arg.Type)
			}
			if !isInputType(argType) {
				return nil, xerrors.Errorf("%v: %v is not an input type", positionString(arg.Position), arg.Type)
			}
			params = append(params, NewParam(arg.Name, argType))
		}
		fields = append(fields, NewField(name, typ, params...))
	}
	return fields, nil
}

func (g *Graph) buildInputFields(defn *ast.Definition) ([]*InputField, error) {
	var fields []*InputField
	seen := make(map[string]struct{})
	for _, fieldDefn := range defn.Fields {
		if strings.HasPrefix(fieldDefn.Name, reservedPrefix) {
			return nil, xerrors.Errorf("%v: use of reserved name %q", positionString(fieldDefn.Position), fieldDefn.Name)
		}
		if _, dup := seen[fieldDefn.Name]; dup {
			return nil, xerrors.Errorf("%v: multiple fields named %q in %s", positionString(fieldDefn.Position), fieldDefn.Name, defn.Name)
		}
		seen[fieldDefn.Name] = struct{}{}
		typ := g.resolveTypeRef(fieldDefn.Type)
		if typ == nil {
			return nil, xerrors.Errorf("%v: undefined type %v", positionString(fieldDefn.Position), fieldDefn.Type)
		}
		if !isInputType(typ) {
			return nil, xerrors.Errorf("%v: %v is not an input type", positionString(fieldDefn.Position), fieldDefn.Type)
		}
		fields = append(fields, NewInputField(fieldDefn.Name, typ))
	}
	return fields, nil
}

func (g *Graph) resolveTypeRef(ref *ast.Type) Type {
	var base Type
	if ref.Elem != nil {
		elem := g.resolveTypeRef(ref.Elem)
		if elem == nil {
			return nil
		}
		base = ListOf(elem)
	} else {
		base = g.types[ref.NamedType]
		if base == nil {
			return nil
		}
	}
	if ref.NonNull {
		return base
	}
	return NullableOf(base)
}

func isOutputType(typ Type) bool {
	switch Unwrap(typ).(type) {
	case *ScalarType, *ObjectType, *InterfaceType:
		return true
	default:
		return false
	}
}

func isInputType(typ Type) bool {
	switch Unwrap(typ).(type) {
	case *ScalarType, *InputObjectType:
		return true
	default:
		return false
	}
}

func positionString(pos *ast.Position) string {
	if pos == nil {
		return "<unknown>"
	}
	return fmt.Sprintf("%d:%d", pos.Line, pos.Column)
}
