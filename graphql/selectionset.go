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
	"strconv"

	"github.com/vektah/gqlparser/v2/ast"
	"golang.org/x/xerrors"
	"zombiezen.com/go/graphlayer/internal/casing"
	"zombiezen.com/go/graphlayer/schema"
)

// compileScope holds the per-document state of a single compilation.
type compileScope struct {
	fragments map[string]*ast.FragmentDefinition
	maxDepth  int

	// budget is the number of selections flatten may still visit.
	budget int
}

// newFragmentTable indexes the document's fragment definitions by name.
// Later definitions replace earlier ones with the same name.
func newFragmentTable(doc *ast.QueryDocument) map[string]*ast.FragmentDefinition {
	fragments := make(map[string]*ast.FragmentDefinition, len(doc.Fragments))
	for _, frag := range doc.Fragments {
		fragments[frag.Name] = frag
	}
	return fragments
}

// objectQuery builds the query for a selection set on an object or interface
// type. depth is the nesting level of set in the document.
func (scope *compileScope) objectQuery(owner schema.Owner, set ast.SelectionSet, depth int) (*schema.ObjectQuery, error) {
	flat, err := scope.flatten(set, depth)
	if err != nil {
		return nil, err
	}
	query := schema.NewObjectQuery(owner)
	for _, field := range mergeFields(flat) {
		key := responseKey(field)
		fq, err := scope.bindField(owner, field, depth)
		if err != nil {
			return nil, wrapFieldError(key, field.Position, err)
		}
		if err := query.Add(key, fq); err != nil {
			return nil, wrapFieldError(key, field.Position, err)
		}
	}
	return query, nil
}

// flatten expands inline fragments and fragment spreads in place, returning
// the fields of set in document order. Type conditions are not checked: every
// fragment applies.
func (scope *compileScope) flatten(set ast.SelectionSet, depth int) ([]*ast.Field, error) {
	var fields []*ast.Field
	for _, sel := range set {
		if scope.budget <= 0 {
			return nil, withLocation(selectionPosition(sel), ErrSelectionLimit)
		}
		scope.budget--
		switch sel := sel.(type) {
		case *ast.Field:
			fields = append(fields, sel)
		case *ast.InlineFragment:
			if depth+1 > scope.maxDepth {
				return nil, withLocation(sel.Position, xerrors.Errorf("inline fragment: %w", ErrDepthLimit))
			}
			sub, err := scope.flatten(sel.SelectionSet, depth+1)
			if err != nil {
				return nil, err
			}
			fields = append(fields, sub...)
		case *ast.FragmentSpread:
			frag := scope.fragments[sel.Name]
			if frag == nil {
				return nil, withLocation(sel.Position, xerrors.Errorf("fragment %s: %w", sel.Name, ErrUnknownFragment))
			}
			if depth+1 > scope.maxDepth {
				return nil, withLocation(sel.Position, xerrors.Errorf("fragment %s: %w", sel.Name, ErrDepthLimit))
			}
			sub, err := scope.flatten(frag.SelectionSet, depth+1)
			if err != nil {
				return nil, err
			}
			fields = append(fields, sub...)
		default:
			return nil, xerrors.Errorf("unhandled selection %T", sel)
		}
	}
	return fields, nil
}

func selectionPosition(sel ast.Selection) *ast.Position {
	switch sel := sel.(type) {
	case *ast.Field:
		return sel.Position
	case *ast.InlineFragment:
		return sel.Position
	case *ast.FragmentSpread:
		return sel.Position
	default:
		return nil
	}
}

// mergeFields combines fields that share a response key into one field per
// key, ordered by each key's first occurrence. The first field of a group is
// the base. The sub-selections of later fields in the group are appended to a
// copy of the base's sub-selections, to be flattened and merged when the
// merged field is bound. The given fields are not modified.
func mergeFields(fields []*ast.Field) []*ast.Field {
	var keys []string
	groups := make(map[string][]*ast.Field)
	for _, f := range fields {
		key := responseKey(f)
		if _, seen := groups[key]; !seen {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], f)
	}
	merged := make([]*ast.Field, 0, len(keys))
	for _, key := range keys {
		group := groups[key]
		if len(group) == 1 {
			merged = append(merged, group[0])
			continue
		}
		base := new(ast.Field)
		*base = *group[0]
		base.SelectionSet = append(ast.SelectionSet(nil), group[0].SelectionSet...)
		for _, f := range group[1:] {
			base.SelectionSet = append(base.SelectionSet, f.SelectionSet...)
		}
		merged = append(merged, base)
	}
	return merged
}

func responseKey(f *ast.Field) string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// bindField resolves a merged field selection against owner.
func (scope *compileScope) bindField(owner schema.Owner, sel *ast.Field, depth int) (*schema.FieldQuery, error) {
	name := casing.ToSnake(sel.Name)
	field := owner.Field(name)
	if field == nil {
		return nil, xerrors.Errorf("%v has no field %q: %w", owner, name, ErrNoSuchField)
	}
	args, err := bindArguments(field, sel.Arguments)
	if err != nil {
		return nil, err
	}
	switch resultType := schema.Unwrap(field.Type()).(type) {
	case *schema.ScalarType:
		if len(sel.SelectionSet) > 0 {
			return nil, xerrors.Errorf("%v is a scalar and has no fields: %w", resultType, ErrNoSuchField)
		}
		return field.Query(&args, schema.ScalarQuery{}), nil
	case schema.Owner:
		if depth+1 > scope.maxDepth {
			return nil, xerrors.Errorf("fields of %v: %w", resultType, ErrDepthLimit)
		}
		sub, err := scope.objectQuery(resultType, sel.SelectionSet, depth+1)
		if err != nil {
			return nil, err
		}
		return field.Query(&args, sub), nil
	default:
		return nil, xerrors.Errorf("%v result type %v: %w", field, field.Type(), ErrUnsupportedType)
	}
}

// bindArguments binds integer literal arguments to the field's parameters in
// document order.
func bindArguments(field *schema.Field, list ast.ArgumentList) (schema.Args, error) {
	var args schema.Args
	for _, arg := range list {
		param := field.Param(arg.Name)
		if param == nil {
			return schema.Args{}, withLocation(arg.Position, xerrors.Errorf("argument %s: %w", arg.Name, ErrUnknownArgument))
		}
		value, err := argumentValue(arg.Value)
		if err != nil {
			return schema.Args{}, withLocation(arg.Position, xerrors.Errorf("argument %s: %w", arg.Name, err))
		}
		if err := args.Add(param, value); err != nil {
			return schema.Args{}, withLocation(arg.Position, err)
		}
	}
	return args, nil
}

func argumentValue(v *ast.Value) (int64, error) {
	if v == nil {
		return 0, xerrors.Errorf("missing value: %w", ErrUnsupportedArgument)
	}
	if v.Kind != ast.IntValue {
		return 0, xerrors.Errorf("%s literal: %w", valueKindName(v.Kind), ErrUnsupportedArgument)
	}
	n, err := strconv.ParseInt(v.Raw, 10, 64)
	if err != nil {
		return 0, xerrors.Errorf("integer %s out of range: %w", v.Raw, ErrUnsupportedArgument)
	}
	return n, nil
}

func valueKindName(kind ast.ValueKind) string {
	switch kind {
	case ast.Variable:
		return "variable"
	case ast.IntValue:
		return "integer"
	case ast.FloatValue:
		return "float"
	case ast.StringValue, ast.BlockValue:
		return "string"
	case ast.BooleanValue:
		return "boolean"
	case ast.NullValue:
		return "null"
	case ast.EnumValue:
		return "enum"
	case ast.ListValue:
		return "list"
	case ast.ObjectValue:
		return "object"
	default:
		return "unknown"
	}
}
