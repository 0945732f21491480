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
	"fmt"
	"sort"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"zombiezen.com/go/graphlayer/internal/casing"
	"zombiezen.com/go/graphlayer/schema"
)

// Validate reports problems in doc that compilation deliberately lets
// through:
//
//   - fragments that spread themselves, directly or through other fragments
//   - selections that share a response key but name different fields or pass
//     different arguments
//   - fragments whose type condition names neither the type they are applied
//     to nor one of its interfaces
//
// Validate is never called by the Compiler. The returned errors are
// *ResponseError values.
func Validate(doc *ast.QueryDocument, queryType *schema.ObjectType) []error {
	v := &validationScope{
		fragments: newFragmentTable(doc),
	}
	// Ensure there are no cycles before validating operations, since otherwise
	// they could have unbounded recursion.
	for _, frag := range doc.Fragments {
		if err := v.detectFragmentCycles(map[string]struct{}{frag.Name: {}}, frag.SelectionSet); err != nil {
			return []error{err}
		}
	}
	var errs []error
	for _, op := range doc.Operations {
		errs = append(errs, v.validateSelectionSet(queryType, []ast.SelectionSet{op.SelectionSet})...)
	}
	return errs
}

type validationScope struct {
	fragments map[string]*ast.FragmentDefinition
}

func (v *validationScope) detectFragmentCycles(visited map[string]struct{}, set ast.SelectionSet) error {
	for _, sel := range set {
		switch sel := sel.(type) {
		case *ast.Field:
			if err := v.detectFragmentCycles(visited, sel.SelectionSet); err != nil {
				return err
			}
		case *ast.InlineFragment:
			if err := v.detectFragmentCycles(visited, sel.SelectionSet); err != nil {
				return err
			}
		case *ast.FragmentSpread:
			if _, seen := visited[sel.Name]; seen {
				return &ResponseError{
					Message:   fmt.Sprintf("fragment %s is self-referential", sel.Name),
					Locations: positionLocations(sel.Position),
				}
			}
			frag := v.fragments[sel.Name]
			if frag == nil {
				continue
			}
			visited[sel.Name] = struct{}{}
			if err := v.detectFragmentCycles(visited, frag.SelectionSet); err != nil {
				return err
			}
			delete(visited, sel.Name)
		}
	}
	return nil
}

// validateSelectionSet checks the union of the given selection sets against
// owner. Sets are passed together when they are merged under one response
// key.
func (v *validationScope) validateSelectionSet(owner schema.Owner, sets []ast.SelectionSet) []error {
	var errs []error
	var fields []*ast.Field
	for _, set := range sets {
		fields = v.collectFields(owner, fields, set, &errs)
	}
	var keys []string
	groups := make(map[string][]*ast.Field)
	for _, f := range fields {
		key := responseKey(f)
		if _, seen := groups[key]; !seen {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], f)
	}
	for _, key := range keys {
		group := groups[key]
		base := group[0]
		for _, f := range group[1:] {
			if f.Name != base.Name {
				errs = append(errs, &ResponseError{
					Message:   fmt.Sprintf("fields %q and %q conflict under response key %q", base.Name, f.Name, key),
					Locations: positionLocations(base.Position, f.Position),
					Path:      []PathSegment{{Field: key}},
				})
			} else if argumentsString(f.Arguments) != argumentsString(base.Arguments) {
				errs = append(errs, &ResponseError{
					Message:   fmt.Sprintf("field %q selected with different arguments under response key %q", base.Name, key),
					Locations: positionLocations(base.Position, f.Position),
					Path:      []PathSegment{{Field: key}},
				})
			}
		}
		field := owner.Field(casing.ToSnake(base.Name))
		if field == nil {
			continue
		}
		sub, ok := schema.Unwrap(field.Type()).(schema.Owner)
		if !ok {
			continue
		}
		var subSets []ast.SelectionSet
		for _, f := range group {
			if f.Name == base.Name && len(f.SelectionSet) > 0 {
				subSets = append(subSets, f.SelectionSet)
			}
		}
		for _, err := range v.validateSelectionSet(sub, subSets) {
			re := err.(*ResponseError)
			re.Path = append([]PathSegment{{Field: key}}, re.Path...)
			errs = append(errs, re)
		}
	}
	return errs
}

// collectFields appends the fields of set to fields, expanding fragments and
// checking their type conditions against owner.
func (v *validationScope) collectFields(owner schema.Owner, fields []*ast.Field, set ast.SelectionSet, errs *[]error) []*ast.Field {
	for _, sel := range set {
		switch sel := sel.(type) {
		case *ast.Field:
			fields = append(fields, sel)
		case *ast.InlineFragment:
			if sel.TypeCondition != "" && !typeConditionApplies(owner, sel.TypeCondition) {
				*errs = append(*errs, &ResponseError{
					Message:   fmt.Sprintf("inline fragment on %s cannot apply to %v", sel.TypeCondition, owner),
					Locations: positionLocations(sel.Position),
				})
				continue
			}
			fields = v.collectFields(owner, fields, sel.SelectionSet, errs)
		case *ast.FragmentSpread:
			frag := v.fragments[sel.Name]
			if frag == nil {
				*errs = append(*errs, &ResponseError{
					Message:   fmt.Sprintf("%v: %s", ErrUnknownFragment, sel.Name),
					Locations: positionLocations(sel.Position),
				})
				continue
			}
			if !typeConditionApplies(owner, frag.TypeCondition) {
				*errs = append(*errs, &ResponseError{
					Message:   fmt.Sprintf("fragment %s on %s cannot apply to %v", frag.Name, frag.TypeCondition, owner),
					Locations: positionLocations(sel.Position),
				})
				continue
			}
			fields = v.collectFields(owner, fields, frag.SelectionSet, errs)
		}
	}
	return fields
}

func typeConditionApplies(owner schema.Owner, cond string) bool {
	if cond == owner.Name() {
		return true
	}
	if obj, ok := owner.(*schema.ObjectType); ok {
		for _, iface := range obj.Interfaces() {
			if iface.Name() == cond {
				return true
			}
		}
	}
	return false
}

// argumentsString returns a canonical form of an argument list for
// comparison.
func argumentsString(args ast.ArgumentList) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		parts = append(parts, arg.Name+":"+arg.Value.String())
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

func positionLocations(positions ...*ast.Position) []Location {
	var locs []Location
	for _, pos := range positions {
		if loc, ok := astPositionToLocation(pos); ok {
			locs = append(locs, loc)
		}
	}
	return locs
}
