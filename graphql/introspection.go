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
	"io"
	"sort"
	"strings"

	graphqlgo "github.com/graphql-go/graphql"
	"golang.org/x/xerrors"
	"zombiezen.com/go/graphlayer/schema"
)

// NewSchema projects queryType and every type reachable from it into a
// graphql-go schema, which can answer introspection queries with
// graphqlgo.Do. Every lazy field list is computed before NewSchema returns.
func NewSchema(queryType *schema.ObjectType) (graphqlgo.Schema, error) {
	p := NewProjector()
	query, err := projectRoot(p, queryType)
	if err != nil {
		return graphqlgo.Schema{}, xerrors.Errorf("new schema: %w", err)
	}
	s, err := graphqlgo.NewSchema(graphqlgo.SchemaConfig{
		Query: query,
		Types: p.namedTypes(),
	})
	if err != nil {
		return graphqlgo.Schema{}, xerrors.Errorf("new schema: %w", err)
	}
	return s, nil
}

// projectRoot projects the query type and forces every lazy field list that
// it reaches.
func projectRoot(p *Projector, queryType *schema.ObjectType) (*graphqlgo.Object, error) {
	if queryType == nil {
		return nil, xerrors.Errorf("nil query type: %w", ErrUnsupportedType)
	}
	t, err := p.Project(queryType)
	if err != nil {
		return nil, err
	}
	// Computing fields may project new types, so iterate until no more
	// types are discovered.
	for done := 0; ; {
		types := p.namedTypes()
		if done == len(types) {
			break
		}
		for _, named := range types[done:] {
			if err := forceFields(named); err != nil {
				return nil, err
			}
		}
		done = len(types)
	}
	if err := p.Err(); err != nil {
		return nil, err
	}
	return t.(*graphqlgo.NonNull).OfType.(*graphqlgo.Object), nil
}

func forceFields(t graphqlgo.Type) error {
	switch t := t.(type) {
	case *graphqlgo.Object:
		// Interfaces overwrites the error recorded by Fields.
		t.Fields()
		if err := t.Error(); err != nil {
			return xerrors.Errorf("type %s: %w", t.Name(), err)
		}
		t.Interfaces()
	case *graphqlgo.Interface:
		t.Fields()
	case *graphqlgo.InputObject:
		t.Fields()
	}
	if err := t.Error(); err != nil {
		return xerrors.Errorf("type %s: %w", t.Name(), err)
	}
	return nil
}

// PrintSchema writes the projection of queryType and the types reachable from
// it to w in the GraphQL schema definition language. Types appear in the order
// they are discovered from the query type. Fields and arguments are sorted by
// name.
func PrintSchema(w io.Writer, queryType *schema.ObjectType) error {
	p := NewProjector()
	query, err := projectRoot(p, queryType)
	if err != nil {
		return xerrors.Errorf("print schema: %w", err)
	}
	sb := new(strings.Builder)
	if name := query.Name(); name != "Query" {
		sb.WriteString("schema {\n  query: ")
		sb.WriteString(name)
		sb.WriteString("\n}\n\n")
	}
	for i, t := range p.namedTypes() {
		if i > 0 {
			sb.WriteString("\n")
		}
		switch t := t.(type) {
		case *graphqlgo.Object:
			sb.WriteString("type ")
			sb.WriteString(t.Name())
			if ifaces := t.Interfaces(); len(ifaces) > 0 {
				sb.WriteString(" implements ")
				for j, iface := range ifaces {
					if j > 0 {
						sb.WriteString(" & ")
					}
					sb.WriteString(iface.Name())
				}
			}
			writeFieldDefinitions(sb, t.Fields())
		case *graphqlgo.Interface:
			sb.WriteString("interface ")
			sb.WriteString(t.Name())
			writeFieldDefinitions(sb, t.Fields())
		case *graphqlgo.InputObject:
			sb.WriteString("input ")
			sb.WriteString(t.Name())
			fields := t.Fields()
			names := make([]string, 0, len(fields))
			for name := range fields {
				names = append(names, name)
			}
			sort.Strings(names)
			sb.WriteString(" {\n")
			for _, name := range names {
				sb.WriteString("  ")
				sb.WriteString(name)
				sb.WriteString(": ")
				sb.WriteString(fields[name].Type.String())
				sb.WriteString("\n")
			}
			sb.WriteString("}\n")
		}
	}
	if _, err := io.WriteString(w, sb.String()); err != nil {
		return xerrors.Errorf("print schema: %w", err)
	}
	return nil
}

func writeFieldDefinitions(sb *strings.Builder, fields graphqlgo.FieldDefinitionMap) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	sb.WriteString(" {\n")
	for _, name := range names {
		f := fields[name]
		sb.WriteString("  ")
		sb.WriteString(name)
		if len(f.Args) > 0 {
			args := append([]*graphqlgo.Argument(nil), f.Args...)
			sort.Slice(args, func(i, j int) bool {
				return args[i].Name() < args[j].Name()
			})
			sb.WriteString("(")
			for i, arg := range args {
				if i > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString(arg.Name())
				sb.WriteString(": ")
				sb.WriteString(arg.Type.String())
			}
			sb.WriteString(")")
		}
		sb.WriteString(": ")
		sb.WriteString(f.Type.String())
		sb.WriteString("\n")
	}
	sb.WriteString("}\n")
}
