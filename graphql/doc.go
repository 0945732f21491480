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

/*
Package graphql compiles GraphQL query documents into query trees for a type
graph built with the schema package, and projects type graphs into the types
of github.com/graphql-go/graphql for introspection tooling. This package
follows the specification laid out at https://graphql.github.io/graphql-spec/June2018/
where it applies, but does not execute queries: a query tree is handed to a
resolution engine that produces the data.

For the common case where you are serving GraphQL over HTTP, see the graphqlhttp
package in this module.

Compilation

A document is parsed with Parse (or a DocumentCache) and compiled with Compile
or a Compiler. Compilation proceeds one selection set at a time:

	1) Inline fragments and fragment spreads are replaced by their fields.
	Type conditions are not checked.

	2) Fields that share a response key (the alias, or else the field name)
	are merged into the first of them. The sub-selections of the others are
	appended to the first field's sub-selections.

	3) Each merged field is bound to the owner type's field. Field names are
	converted from lowerCamelCase to snake_case, so "oneValue" selects the
	field named "one_value". Arguments must be integer literals.

	4) Sub-selections are compiled against the field's result type, after
	removing any list and nullable wrappers.

Fragment expansion is bounded twice: CompilerOptions.MaxDepth limits nesting
along a path and CompilerOptions.MaxSelections limits the total number of
selections visited, so a chain of fragments that each spread the next one
several times fails with ErrSelectionLimit instead of expanding
exponentially.

Compilation does not validate the document. Use Validate for an opt-in check
of fragment cycles, conflicting fields, and fragment type conditions.

Projection

A Projector converts schema types into graphql-go types. Types not wrapped in
schema.NullableOf become non-null types. Object field lists are computed
lazily, so types may refer to themselves.
*/
package graphql
