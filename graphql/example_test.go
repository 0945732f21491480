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

package graphql_test

import (
	"fmt"
	"os"

	"zombiezen.com/go/graphlayer/graphql"
	"zombiezen.com/go/graphlayer/schema"
)

func Example() {
	user := schema.NewObjectType("User", schema.FieldList(
		schema.NewField("id", schema.Int),
		schema.NewField("display_name", schema.String),
	))
	root := schema.NewObjectType("Query", schema.FieldList(
		schema.NewField("user", schema.NullableOf(user), schema.NewParam("id", schema.Int)),
	))

	doc, err := graphql.Parse(`{ user(id: 42) { displayName } }`)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	q, err := graphql.Compile(doc, root)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Println(q)
	// Output:
	// ObjectQuery(Query, {"user": FieldQuery(Query.user, {id: 42}, ObjectQuery(User, {"displayName": FieldQuery(User.display_name, {}, ScalarQuery)}))})
}

func ExampleCompiler() {
	g, err := schema.ParseSDL(`
		type Query {
			counter(step: Int!): Int!
		}
	`)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	c, err := graphql.NewCompiler(g.QueryType(), &graphql.CompilerOptions{
		DocumentCacheSize: 16,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	for i := 0; i < 2; i++ {
		q, err := c.CompileString(`{ counter(step: 2) }`, "")
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}
		fmt.Println(q.Field("counter").Args())
	}
	hits, misses := c.Cache().Stats()
	fmt.Printf("%d hit(s), %d miss(es)\n", hits, misses)
	// Output:
	// {step: 2}
	// {step: 2}
	// 1 hit(s), 1 miss(es)
}

func ExamplePrintSchema() {
	g, err := schema.ParseSDL(`
		type Query {
			viewer: User
		}

		type User {
			name: String!
			friends(first: Int!): [User!]!
		}
	`)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	if err := graphql.PrintSchema(os.Stdout, g.QueryType()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	// Output:
	// type Query {
	//   viewer: User
	// }
	//
	// type User {
	//   friends(first: Int!): [User!]!
	//   name: String!
	// }
}
