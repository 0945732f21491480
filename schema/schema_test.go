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
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/xerrors"
)

func TestObjectTypeFieldsAreLazy(t *testing.T) {
	calls := 0
	var user *ObjectType
	root := NewObjectType("Root", func() []*Field {
		calls++
		return []*Field{NewField("user", user)}
	})
	user = NewObjectType("User", func() []*Field {
		return []*Field{
			NewField("name", String),
			NewField("friend", NullableOf(user)),
		}
	})
	if calls != 0 {
		t.Fatalf("fields function called %d times before use", calls)
	}
	f := root.Field("user")
	if f == nil {
		t.Fatal(`root.Field("user") = nil`)
	}
	if f.Type() != user {
		t.Errorf("user field type = %v; want User", f.Type())
	}
	if f.Owner() != root {
		t.Errorf("user field owner = %v; want Root", f.Owner())
	}
	root.Fields()
	if calls != 1 {
		t.Errorf("fields function called %d times; want 1", calls)
	}
	friend := user.Field("friend")
	if got := Unwrap(friend.Type()); got != user {
		t.Errorf("Unwrap(friend type) = %v; want User", got)
	}
	if got := friend.String(); got != "User.friend" {
		t.Errorf("friend.String() = %q; want %q", got, "User.friend")
	}
}

func TestObjectTypeFieldOrder(t *testing.T) {
	obj := NewObjectType("Obj", FieldList(
		NewField("b", Int),
		NewField("a", Int),
		NewField("c", Int),
	))
	var got []string
	for _, f := range obj.Fields() {
		got = append(got, f.Name())
	}
	want := []string{"b", "a", "c"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("field names (-want +got):\n%s", diff)
	}
	if obj.Field("d") != nil {
		t.Error(`obj.Field("d") != nil`)
	}
}

func TestFieldOwnedByOneType(t *testing.T) {
	shared := NewField("value", Int)
	a := NewObjectType("A", FieldList(shared))
	b := NewObjectType("B", FieldList(shared))
	a.Fields()
	defer func() {
		if recover() == nil {
			t.Error("attaching a field to a second type did not panic")
		}
	}()
	b.Fields()
}

func TestDuplicateParamsPanic(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewField with duplicate params did not panic")
		}
	}()
	NewField("f", Int, NewParam("x", Int), NewParam("x", Int))
}

func TestTypeString(t *testing.T) {
	obj := NewObjectType("Obj", nil)
	tests := []struct {
		typ  Type
		want string
	}{
		{Int, "Int"},
		{obj, "Obj"},
		{ListOf(Int), "[Int]"},
		{NullableOf(Int), "Int?"},
		{NullableOf(ListOf(NullableOf(obj))), "[Obj?]?"},
		{NewInputObjectType("In", nil), "In"},
		{NewInterfaceType("Node", nil), "Node"},
	}
	for _, test := range tests {
		if got := test.typ.String(); got != test.want {
			t.Errorf("String() = %q; want %q", got, test.want)
		}
	}
}

func TestTypeIdentity(t *testing.T) {
	if ListOf(Int) == ListOf(Int) {
		t.Error("ListOf(Int) returned the same type twice")
	}
	a := NewObjectType("Same", nil)
	b := NewObjectType("Same", nil)
	m := map[Type]int{a: 1, b: 2}
	if len(m) != 2 {
		t.Errorf("object types with the same name collapsed in a map")
	}
}

func TestArgs(t *testing.T) {
	p0 := NewParam("arg0", Int)
	p1 := NewParam("arg1", Int)
	var args Args
	if err := args.Add(p0, int64(42)); err != nil {
		t.Fatal(err)
	}
	if err := args.Add(p1, int64(47)); err != nil {
		t.Fatal(err)
	}
	if err := args.Add(NewParam("arg0", Int), int64(1)); !xerrors.Is(err, ErrDuplicateArgument) {
		t.Errorf("Add(arg0) again = %v; want ErrDuplicateArgument", err)
	}
	if got, ok := args.Int("arg1"); !ok || got != 47 {
		t.Errorf("Int(arg1) = %d, %t; want 47, true", got, ok)
	}
	if _, ok := args.Get("arg2"); ok {
		t.Error("Get(arg2) found a value")
	}
	if got, want := args.String(), "{arg0: 42, arg1: 47}"; got != want {
		t.Errorf("String() = %q; want %q", got, want)
	}
	data, err := args.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), `{"arg0":42,"arg1":47}`; got != want {
		t.Errorf("MarshalJSON() = %s; want %s", got, want)
	}
}

func TestObjectQuery(t *testing.T) {
	user := NewObjectType("User", FieldList(
		NewField("name", String),
	))
	root := NewObjectType("Root", FieldList(
		NewField("one", Int, NewParam("arg0", Int)),
		NewField("user", user),
	))
	var args Args
	if err := args.Add(root.Field("one").Param("arg0"), int64(42)); err != nil {
		t.Fatal(err)
	}
	userQuery := NewObjectQuery(user)
	if err := userQuery.Add("name", user.Field("name").Query(nil, nil)); err != nil {
		t.Fatal(err)
	}
	q := NewObjectQuery(root)
	if err := q.Add("one", root.Field("one").Query(&args, ScalarQuery{})); err != nil {
		t.Fatal(err)
	}
	if err := q.Add("alias", root.Field("one").Query(nil, nil)); err != nil {
		t.Fatal(err)
	}
	if err := q.Add("user", root.Field("user").Query(nil, userQuery)); err != nil {
		t.Fatal(err)
	}
	if err := q.Add("one", root.Field("one").Query(nil, nil)); !xerrors.Is(err, ErrDuplicateKey) {
		t.Errorf("Add(one) again = %v; want ErrDuplicateKey", err)
	}

	if diff := cmp.Diff([]string{"one", "alias", "user"}, q.Keys()); diff != "" {
		t.Errorf("Keys() (-want +got):\n%s", diff)
	}
	if !q.Has("one") || q.Has("name") {
		t.Errorf("Has(one) = %t, Has(name) = %t; want true, false", q.Has("one"), q.Has("name"))
	}
	if got := len(q.FieldsWithName("one")); got != 2 {
		t.Errorf("len(FieldsWithName(one)) = %d; want 2", got)
	}
	wantString := `ObjectQuery(Root, {"one": FieldQuery(Root.one, {arg0: 42}, ScalarQuery), ` +
		`"alias": FieldQuery(Root.one, {}, ScalarQuery), ` +
		`"user": FieldQuery(Root.user, {}, ObjectQuery(User, {"name": FieldQuery(User.name, {}, ScalarQuery)}))})`
	if got := q.String(); got != wantString {
		t.Errorf("String() =\n%s\nwant\n%s", got, wantString)
	}
	data, err := q.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	wantJSON := `{"type":"Root","fields":{` +
		`"one":{"field":"Root.one","args":{"arg0":42},"query":"scalar"},` +
		`"alias":{"field":"Root.one","query":"scalar"},` +
		`"user":{"field":"Root.user","query":{"type":"User","fields":{"name":{"field":"User.name","query":"scalar"}}}}}}`
	if got := string(data); got != wantJSON {
		t.Errorf("MarshalJSON() =\n%s\nwant\n%s", got, wantJSON)
	}
}

func TestObjectQueryZeroValue(t *testing.T) {
	root := NewObjectType("Root", FieldList(
		NewField("one", Int),
	))
	q := new(ObjectQuery)
	if got := q.Len(); got != 0 {
		t.Errorf("Len() = %d; want 0", got)
	}
	if err := q.Add("one", root.Field("one").Query(nil, nil)); err != nil {
		t.Fatal(err)
	}
	if err := q.Add("one", root.Field("one").Query(nil, nil)); !xerrors.Is(err, ErrDuplicateKey) {
		t.Errorf("Add(one) again = %v; want ErrDuplicateKey", err)
	}
	if diff := cmp.Diff([]string{"one"}, q.Keys()); diff != "" {
		t.Errorf("Keys() (-want +got):\n%s", diff)
	}
	if !q.Has("one") {
		t.Error("Has(one) = false; want true")
	}
	const want = `ObjectQuery(<nil>, {"one": FieldQuery(Root.one, {}, ScalarQuery)})`
	if got := q.String(); got != want {
		t.Errorf("String() = %s; want %s", got, want)
	}
}
