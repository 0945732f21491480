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
	"testing"

	graphqlgo "github.com/graphql-go/graphql"
	"golang.org/x/xerrors"
	"zombiezen.com/go/graphlayer/schema"
)

func TestProjectString(t *testing.T) {
	obj := schema.NewObjectType("Obj", schema.FieldList(
		schema.NewField("x", schema.Int),
	))
	input := schema.NewInputObjectType("In", schema.InputFieldList(
		schema.NewInputField("x", schema.Int),
	))
	tests := []struct {
		name string
		typ  schema.Type
		want string
	}{
		{name: "Int", typ: schema.Int, want: "Int!"},
		{name: "Float", typ: schema.Float, want: "Float!"},
		{name: "String", typ: schema.String, want: "String!"},
		{name: "Boolean", typ: schema.Boolean, want: "Boolean!"},
		{name: "NullableInt", typ: schema.NullableOf(schema.Int), want: "Int"},
		{name: "List", typ: schema.ListOf(schema.Int), want: "[Int!]!"},
		{name: "NullableList", typ: schema.NullableOf(schema.ListOf(schema.Int)), want: "[Int!]"},
		{name: "ListOfNullable", typ: schema.ListOf(schema.NullableOf(schema.Int)), want: "[Int]!"},
		{name: "DoubleNullable", typ: schema.NullableOf(schema.NullableOf(schema.Int)), want: "Int"},
		{name: "Object", typ: obj, want: "Obj!"},
		{name: "NullableObject", typ: schema.NullableOf(obj), want: "Obj"},
		{name: "InputObject", typ: input, want: "In!"},
		{name: "ListOfNullableInput", typ: schema.ListOf(schema.NullableOf(input)), want: "[In]!"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := ToGraphQLType(test.typ)
			if err != nil {
				t.Fatal(err)
			}
			if got.String() != test.want {
				t.Errorf("ToGraphQLType(%v) = %v; want %s", test.typ, got, test.want)
			}
		})
	}
}

func TestProjectScalars(t *testing.T) {
	tests := []struct {
		typ  *schema.ScalarType
		want *graphqlgo.Scalar
	}{
		{schema.Boolean, graphqlgo.Boolean},
		{schema.Float, graphqlgo.Float},
		{schema.Int, graphqlgo.Int},
		{schema.String, graphqlgo.String},
	}
	for _, test := range tests {
		got, err := ToGraphQLType(test.typ)
		if err != nil {
			t.Errorf("ToGraphQLType(%v): %v", test.typ, err)
			continue
		}
		nn, ok := got.(*graphqlgo.NonNull)
		if !ok || nn.OfType != test.want {
			t.Errorf("ToGraphQLType(%v) = %v; want non-null %v", test.typ, got, test.want)
		}
		nullable, err := ToGraphQLType(schema.NullableOf(test.typ))
		if err != nil {
			t.Errorf("ToGraphQLType(NullableOf(%v)): %v", test.typ, err)
			continue
		}
		if nullable != test.want {
			t.Errorf("ToGraphQLType(NullableOf(%v)) = %v; want %v", test.typ, nullable, test.want)
		}
	}
}

func TestProjectMemoizesByIdentity(t *testing.T) {
	user := schema.NewObjectType("User", schema.FieldList(
		schema.NewField("name", schema.String),
	))
	p := NewProjector()
	a, err := p.Project(user)
	if err != nil {
		t.Fatal(err)
	}
	b, err := p.Project(user)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("Project(user) returned %p then %p; want same value", a, b)
	}
	// Distinct wrappers around the same type share the named type.
	n1, err := p.Project(schema.NullableOf(user))
	if err != nil {
		t.Fatal(err)
	}
	n2, err := p.Project(schema.NullableOf(user))
	if err != nil {
		t.Fatal(err)
	}
	obj := a.(*graphqlgo.NonNull).OfType
	if n1 != obj || n2 != obj {
		t.Errorf("nullable projections = %p, %p; want %p", n1, n2, obj)
	}
	// Types with the same name are still distinct.
	other := schema.NewObjectType("User", schema.FieldList(
		schema.NewField("name", schema.String),
	))
	c, err := p.Project(other)
	if err != nil {
		t.Fatal(err)
	}
	if c.(*graphqlgo.NonNull).OfType == obj {
		t.Error("distinct types with the same name projected to the same object")
	}
}

func TestProjectRecursiveTypes(t *testing.T) {
	var user, group *schema.ObjectType
	user = schema.NewObjectType("User", func() []*schema.Field {
		return []*schema.Field{
			schema.NewField("name", schema.String),
			schema.NewField("best_friend", schema.NullableOf(user)),
			schema.NewField("groups", schema.ListOf(group)),
		}
	})
	group = schema.NewObjectType("Group", func() []*schema.Field {
		return []*schema.Field{
			schema.NewField("members", schema.ListOf(user), schema.NewParam("first", schema.Int)),
		}
	})
	p := NewProjector()
	userType, err := p.Project(user)
	if err != nil {
		t.Fatal(err)
	}
	userObj := userType.(*graphqlgo.NonNull).OfType.(*graphqlgo.Object)
	fields := userObj.Fields()
	if err := userObj.Error(); err != nil {
		t.Fatal(err)
	}
	if got := fields["bestFriend"]; got == nil || got.Type != userObj {
		t.Errorf("User.bestFriend = %+v; want type User", got)
	}
	groups := fields["groups"]
	if groups == nil {
		t.Fatal("User.groups missing")
	}
	groupObj := groups.Type.(*graphqlgo.NonNull).OfType.(*graphqlgo.List).OfType.(*graphqlgo.NonNull).OfType.(*graphqlgo.Object)
	groupType, err := p.Project(group)
	if err != nil {
		t.Fatal(err)
	}
	if groupType.(*graphqlgo.NonNull).OfType != groupObj {
		t.Error("Project(group) does not match the type used by User.groups")
	}
	members := groupObj.Fields()["members"]
	if members == nil {
		t.Fatal("Group.members missing")
	}
	if got := members.Type.(*graphqlgo.NonNull).OfType.(*graphqlgo.List).OfType.(*graphqlgo.NonNull).OfType; got != userObj {
		t.Errorf("Group.members element = %v; want User", got)
	}
	if len(members.Args) != 1 || members.Args[0].Name() != "first" {
		t.Errorf("Group.members args = %v; want [first]", members.Args)
	}
	if err := p.Err(); err != nil {
		t.Error(err)
	}
}

func TestProjectFieldNames(t *testing.T) {
	filter := schema.NewInputObjectType("Filter", schema.InputFieldList(
		schema.NewInputField("name_prefix", schema.NullableOf(schema.String)),
	))
	root := schema.NewObjectType("Root", schema.FieldList(
		schema.NewField("one_value", schema.Int),
		schema.NewField("users_by_name", schema.Int,
			schema.NewParam("name_filter", filter),
			schema.NewParam("max_count", schema.Int),
		),
	))
	got, err := ToGraphQLType(root)
	if err != nil {
		t.Fatal(err)
	}
	fields := got.(*graphqlgo.NonNull).OfType.(*graphqlgo.Object).Fields()
	if fields["oneValue"] == nil {
		t.Errorf("fields = %v; want oneValue", fieldNames(fields))
	}
	users := fields["usersByName"]
	if users == nil {
		t.Fatalf("fields = %v; want usersByName", fieldNames(fields))
	}
	argTypes := make(map[string]string)
	for _, arg := range users.Args {
		argTypes[arg.Name()] = arg.Type.String()
	}
	if argTypes["name_filter"] != "Filter!" || argTypes["max_count"] != "Int!" {
		t.Errorf("usersByName args = %v; want name_filter: Filter!, max_count: Int!", argTypes)
	}
	var filterType *graphqlgo.InputObject
	for _, arg := range users.Args {
		if arg.Name() == "name_filter" {
			filterType = arg.Type.(*graphqlgo.NonNull).OfType.(*graphqlgo.InputObject)
		}
	}
	if filterType == nil {
		t.Fatal("name_filter has no input object type")
	}
	if f := filterType.Fields()["name_prefix"]; f == nil || f.Type != graphqlgo.String {
		t.Errorf("Filter.name_prefix = %+v; want nullable String", f)
	}
}

func TestProjectedFieldsCompile(t *testing.T) {
	names := []string{
		"one",
		"one_value",
		"http_status",
		"version2_name",
		"x_y_z",
		"field_1",
		"a_b_c_d",
		"a1_b2",
	}
	var fields []*schema.Field
	for _, name := range names {
		fields = append(fields, schema.NewField(name, schema.Int))
	}
	root := schema.NewObjectType("Root", schema.FieldList(fields...))
	p := NewProjector()
	got, err := p.Project(root)
	if err != nil {
		t.Fatal(err)
	}
	projected := got.(*graphqlgo.NonNull).OfType.(*graphqlgo.Object).Fields()
	if len(projected) != len(names) {
		t.Errorf("projected fields = %v; want %d fields", fieldNames(projected), len(names))
	}
	if err := p.Err(); err != nil {
		t.Error(err)
	}
	bound := make(map[string]bool)
	for wire := range projected {
		q := mustCompile(t, "{ "+wire+" }", root)
		fq := q.Field(wire)
		if fq == nil {
			t.Errorf("{ %s } compiled to %v; want field %q", wire, q, wire)
			continue
		}
		bound[fq.Field().Name()] = true
	}
	for _, name := range names {
		if !bound[name] {
			t.Errorf("no projected name selects field %q", name)
		}
	}

	wantWire := map[string]string{
		"one_value": "oneValue",
		"x_y_z":     "x_y_z",
		"field_1":   "field_1",
		"a_b_c_d":   "a_b_c_d",
	}
	for name, wire := range wantWire {
		if projected[wire] == nil {
			t.Errorf("field %q not projected as %q; got %v", name, wire, fieldNames(projected))
		}
	}
}

func TestProjectUnselectableFieldName(t *testing.T) {
	root := schema.NewObjectType("Root", schema.FieldList(
		schema.NewField("good", schema.Int),
		schema.NewField("fooBar", schema.Int),
	))
	p := NewProjector()
	got, err := p.Project(root)
	if err != nil {
		t.Fatal(err)
	}
	fields := got.(*graphqlgo.NonNull).OfType.(*graphqlgo.Object).Fields()
	if len(fields) != 1 || fields["good"] == nil {
		t.Errorf("fields = %v; want [good]", fieldNames(fields))
	}
	if err := p.Err(); !xerrors.Is(err, ErrUnsupportedType) {
		t.Errorf("Err() = %v; want ErrUnsupportedType", err)
	}
}

func fieldNames(fields graphqlgo.FieldDefinitionMap) []string {
	var names []string
	for name := range fields {
		names = append(names, name)
	}
	return names
}

type customType struct{}

func (customType) Kind() schema.Kind { return schema.Kind(99) }
func (customType) String() string    { return "Custom" }

func TestProjectUnsupported(t *testing.T) {
	tests := []struct {
		name string
		typ  schema.Type
	}{
		{name: "Nil", typ: nil},
		{name: "Custom", typ: customType{}},
		{name: "ListOfCustom", typ: schema.ListOf(customType{})},
		{name: "NullableCustom", typ: schema.NullableOf(customType{})},
		{name: "UnknownScalar", typ: new(schema.ScalarType)},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := ToGraphQLType(test.typ)
			if !xerrors.Is(err, ErrUnsupportedType) {
				t.Errorf("ToGraphQLType(...) = %v, %v; want ErrUnsupportedType", got, err)
			}
		})
	}
}

func TestProjectLazyErrors(t *testing.T) {
	input := schema.NewInputObjectType("In", schema.InputFieldList(
		schema.NewInputField("x", schema.Int),
	))
	out := schema.NewObjectType("Out", schema.FieldList(
		schema.NewField("x", schema.Int),
	))
	root := schema.NewObjectType("Root", schema.FieldList(
		schema.NewField("good", schema.Int),
		schema.NewField("input_result", input),
		schema.NewField("object_param", schema.Int, schema.NewParam("p", out)),
		schema.NewField("custom", customType{}),
	))
	p := NewProjector()
	got, err := p.Project(root)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Err(); err != nil {
		t.Errorf("Err() before fields are read = %v; want <nil>", err)
	}
	fields := got.(*graphqlgo.NonNull).OfType.(*graphqlgo.Object).Fields()
	if len(fields) != 1 || fields["good"] == nil {
		t.Errorf("fields = %v; want [good]", fieldNames(fields))
	}
	if err := p.Err(); !xerrors.Is(err, ErrUnsupportedType) {
		t.Errorf("Err() = %v; want ErrUnsupportedType", err)
	}
}

func TestProjectConcurrent(t *testing.T) {
	var node *schema.ObjectType
	node = schema.NewObjectType("Node", func() []*schema.Field {
		return []*schema.Field{
			schema.NewField("next", schema.NullableOf(node)),
		}
	})
	p := NewProjector()
	const n = 8
	results := make([]graphqlgo.Type, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			typ, err := p.Project(node)
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = typ.(*graphqlgo.NonNull).OfType
		}(i)
	}
	wg.Wait()
	for i := 1; i < n; i++ {
		if results[i] != results[0] {
			t.Errorf("goroutine %d projected %p; want %p", i, results[i], results[0])
		}
	}
}
