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

package graphql

import (
	"sync"

	graphqlgo "github.com/graphql-go/graphql"
	"golang.org/x/xerrors"
	"zombiezen.com/go/graphlayer/internal/casing"
	"zombiezen.com/go/graphlayer/schema"
)

// Projector converts type graphs into github.com/graphql-go/graphql types.
//
// Each schema type is converted at most once: later requests for the same
// type (compared by identity) return the same value, so recursive types
// project to themselves. Object, interface, and input object fields are
// computed lazily, the first time the graphql-go type's fields are read.
//
// Object field names are converted to the names that select them in a query
// document: lowerCamelCase where the conversion is reversible ("one_value"
// becomes "oneValue"), the schema name otherwise ("field_1" stays as is).
// Fields that no name can select, like "fooBar", are reported by Err.
// Parameter and input field names are kept as-is.
//
// A Projector is safe to use from multiple goroutines.
type Projector struct {
	mu   sync.Mutex
	memo map[schema.Type]graphqlgo.Type
	// order is the order in which named types were first projected.
	order []graphqlgo.Type
	errs  []error
}

// NewProjector returns a projector with an empty memo table.
func NewProjector() *Projector {
	return &Projector{memo: make(map[schema.Type]graphqlgo.Type)}
}

// ToGraphQLType projects typ with a fresh Projector.
func ToGraphQLType(typ schema.Type) (graphqlgo.Type, error) {
	return NewProjector().Project(typ)
}

// Project returns the graphql-go representation of typ. Types that are not
// wrapped in schema.NullableType are projected as non-null types.
//
// Errors found while computing fields lazily cannot be returned from Project.
// The offending fields are left out of the projected type and the errors are
// reported by Err.
func (p *Projector) Project(typ schema.Type) (graphqlgo.Type, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, err := p.project(typ)
	if err != nil {
		return nil, xerrors.Errorf("project %v: %w", typ, err)
	}
	return t, nil
}

// Err returns the errors found while computing lazy field lists, or nil if
// there were none.
func (p *Projector) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch len(p.errs) {
	case 0:
		return nil
	case 1:
		return p.errs[0]
	default:
		return xerrors.Errorf("%w (and %d more errors)", p.errs[0], len(p.errs)-1)
	}
}

// namedTypes returns the named types projected so far in discovery order.
func (p *Projector) namedTypes() []graphqlgo.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]graphqlgo.Type(nil), p.order...)
}

// project converts a type. p.mu must be held.
func (p *Projector) project(typ schema.Type) (graphqlgo.Type, error) {
	if typ == nil {
		return nil, xerrors.Errorf("nil type: %w", ErrUnsupportedType)
	}
	if t := p.memo[typ]; t != nil {
		return t, nil
	}
	var t graphqlgo.Type
	switch typ := typ.(type) {
	case *schema.ScalarType:
		builtin := builtinScalar(typ)
		if builtin == nil {
			return nil, xerrors.Errorf("scalar %v: %w", typ, ErrUnsupportedType)
		}
		t = graphqlgo.NewNonNull(builtin)
	case *schema.ListType:
		elem, err := p.project(typ.Elem())
		if err != nil {
			return nil, err
		}
		t = graphqlgo.NewNonNull(graphqlgo.NewList(elem))
	case *schema.NullableType:
		elem, err := p.project(typ.Elem())
		if err != nil {
			return nil, err
		}
		if nn, ok := elem.(*graphqlgo.NonNull); ok {
			t = nn.OfType
		} else {
			t = elem
		}
	case *schema.ObjectType:
		obj := graphqlgo.NewObject(graphqlgo.ObjectConfig{
			Name:       typ.Name(),
			Fields:     p.fieldsThunk(typ),
			Interfaces: p.interfacesThunk(typ),
		})
		t = p.store(typ, obj)
	case *schema.InterfaceType:
		iface := graphqlgo.NewInterface(graphqlgo.InterfaceConfig{
			Name:   typ.Name(),
			Fields: p.fieldsThunk(typ),
			ResolveType: func(graphqlgo.ResolveTypeParams) *graphqlgo.Object {
				return nil
			},
		})
		t = p.store(typ, iface)
	case *schema.InputObjectType:
		input := graphqlgo.NewInputObject(graphqlgo.InputObjectConfig{
			Name:   typ.Name(),
			Fields: p.inputFieldsThunk(typ),
		})
		t = p.store(typ, input)
	default:
		return nil, xerrors.Errorf("%v (kind %v): %w", typ, typ.Kind(), ErrUnsupportedType)
	}
	p.memo[typ] = t
	return t, nil
}

// store records a named type in the memo table before any of its fields are
// computed and returns its non-null wrapper.
func (p *Projector) store(typ schema.Type, named graphqlgo.Type) graphqlgo.Type {
	t := graphqlgo.NewNonNull(named)
	p.memo[typ] = t
	p.order = append(p.order, named)
	return t
}

func builtinScalar(typ *schema.ScalarType) *graphqlgo.Scalar {
	switch typ {
	case schema.Boolean:
		return graphqlgo.Boolean
	case schema.Float:
		return graphqlgo.Float
	case schema.Int:
		return graphqlgo.Int
	case schema.String:
		return graphqlgo.String
	default:
		return nil
	}
}

func (p *Projector) fieldsThunk(owner schema.Owner) graphqlgo.FieldsThunk {
	return func() graphqlgo.Fields {
		p.mu.Lock()
		defer p.mu.Unlock()
		fields := make(graphqlgo.Fields)
		for _, f := range owner.Fields() {
			field, err := p.field(f)
			if err != nil {
				p.errs = append(p.errs, xerrors.Errorf("project %v: %w", f, err))
				continue
			}
			fields[field.Name] = field
		}
		return fields
	}
}

func (p *Projector) field(f *schema.Field) (*graphqlgo.Field, error) {
	t, err := p.project(f.Type())
	if err != nil {
		return nil, err
	}
	out, ok := t.(graphqlgo.Output)
	if !ok || !isOutput(schema.Unwrap(f.Type())) {
		return nil, xerrors.Errorf("%v is not an output type: %w", f.Type(), ErrUnsupportedType)
	}
	name, ok := casing.ToWire(f.Name())
	if !ok {
		return nil, xerrors.Errorf("no query name selects field %q: %w", f.Name(), ErrUnsupportedType)
	}
	field := &graphqlgo.Field{
		Name: name,
		Type: out,
	}
	if params := f.Params(); len(params) > 0 {
		field.Args = make(graphqlgo.FieldConfigArgument, len(params))
		for _, param := range params {
			in, err := p.input(param.Type())
			if err != nil {
				return nil, xerrors.Errorf("param %s: %w", param.Name(), err)
			}
			field.Args[param.Name()] = &graphqlgo.ArgumentConfig{Type: in}
		}
	}
	return field, nil
}

func (p *Projector) inputFieldsThunk(typ *schema.InputObjectType) graphqlgo.InputObjectConfigFieldMapThunk {
	return func() graphqlgo.InputObjectConfigFieldMap {
		p.mu.Lock()
		defer p.mu.Unlock()
		fields := make(graphqlgo.InputObjectConfigFieldMap)
		for _, f := range typ.Fields() {
			in, err := p.input(f.Type())
			if err != nil {
				p.errs = append(p.errs, xerrors.Errorf("project %v.%s: %w", typ, f.Name(), err))
				continue
			}
			fields[f.Name()] = &graphqlgo.InputObjectFieldConfig{Type: in}
		}
		return fields
	}
}

func (p *Projector) input(typ schema.Type) (graphqlgo.Input, error) {
	t, err := p.project(typ)
	if err != nil {
		return nil, err
	}
	in, ok := t.(graphqlgo.Input)
	if !ok || !isInput(schema.Unwrap(typ)) {
		return nil, xerrors.Errorf("%v is not an input type: %w", typ, ErrUnsupportedType)
	}
	return in, nil
}

func (p *Projector) interfacesThunk(obj *schema.ObjectType) graphqlgo.InterfacesThunk {
	return func() []*graphqlgo.Interface {
		p.mu.Lock()
		defer p.mu.Unlock()
		var ifaces []*graphqlgo.Interface
		for _, iface := range obj.Interfaces() {
			t, err := p.project(iface)
			if err != nil {
				p.errs = append(p.errs, xerrors.Errorf("project %v interfaces: %w", obj, err))
				continue
			}
			ifaces = append(ifaces, t.(*graphqlgo.NonNull).OfType.(*graphqlgo.Interface))
		}
		return ifaces
	}
}

func isOutput(typ schema.Type) bool {
	switch typ.(type) {
	case *schema.ScalarType, *schema.ObjectType, *schema.InterfaceType:
		return true
	default:
		return false
	}
}

func isInput(typ schema.Type) bool {
	switch typ.(type) {
	case *schema.ScalarType, *schema.InputObjectType:
		return true
	default:
		return false
	}
}
