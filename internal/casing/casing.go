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

// Package casing converts between the GraphQL wire naming convention
// (lowerCamelCase) and the schema naming convention (snake_case).
package casing

import (
	"regexp"
	"strings"

	"github.com/iancoleman/strcase"
)

var (
	// wordStart matches a capitalized word preceded by any character.
	wordStart = regexp.MustCompile(`(.)([A-Z][a-z]+)`)
	// upperAfterLower matches an uppercase letter after a lowercase letter or digit.
	upperAfterLower = regexp.MustCompile(`([a-z0-9])([A-Z])`)
)

// ToSnake converts a wire name like "oneValue" or "HTTPStatus" into its
// schema name ("one_value", "http_status").
//
// The conversion runs two passes: first a separator is inserted before every
// capitalized word (an uppercase letter followed by lowercase letters), then
// before every uppercase letter that follows a lowercase letter or digit.
// Acronyms are therefore kept together: "getHTTPStatus" becomes
// "get_http_status".
func ToSnake(name string) string {
	s := wordStart.ReplaceAllString(name, "${1}_${2}")
	s = upperAfterLower.ReplaceAllString(s, "${1}_${2}")
	return strings.ToLower(s)
}

// ToLowerCamel converts a schema name like "one_value" into lowerCamelCase
// ("oneValue"). The result is not always a name that ToSnake maps back to
// the schema name: "field_1" becomes "field1". Use ToWire to name fields.
func ToLowerCamel(name string) string {
	return strcase.ToLowerCamel(name)
}

// ToWire returns the name a query document uses to select the schema field
// with the given name. It prefers the lowerCamelCase form and falls back to
// the schema name when ToSnake would not map the lowerCamelCase form back.
// ok is false if no name selects the field, as for "fooBar", which ToSnake
// always maps to "foo_bar".
func ToWire(name string) (wire string, ok bool) {
	if camel := ToLowerCamel(name); ToSnake(camel) == name {
		return camel, true
	}
	if ToSnake(name) == name {
		return name, true
	}
	return "", false
}
