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

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
	"golang.org/x/xerrors"
)

// Parse parses a GraphQL query document. Syntax errors are reported with
// their document location, which ToResponseError preserves.
func Parse(source string) (*ast.QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Name: "query", Input: source})
	if err != nil {
		return nil, xerrors.Errorf("parse query: %w", err)
	}
	return doc, nil
}

// DocumentCache is a fixed-size cache of parsed query documents. Only syntax
// trees are cached; compiling a cached document still binds it against the
// schema on every call. A DocumentCache is safe to use from multiple
// goroutines, and the documents it returns must not be modified.
type DocumentCache struct {
	docs *lru.Cache

	mu     sync.Mutex
	hits   int
	misses int
}

type cachedDocument struct {
	source string
	doc    *ast.QueryDocument
}

// NewDocumentCache returns a new cache that holds up to size documents.
func NewDocumentCache(size int) (*DocumentCache, error) {
	docs, err := lru.New(size)
	if err != nil {
		return nil, xerrors.Errorf("new document cache: %w", err)
	}
	return &DocumentCache{docs: docs}, nil
}

// Parse returns the parsed form of source, parsing it only if it is not
// already in the cache. Documents that fail to parse are not cached.
func (c *DocumentCache) Parse(source string) (*ast.QueryDocument, error) {
	key := xxhash.Sum64String(source)
	if v, ok := c.docs.Get(key); ok {
		if cached := v.(*cachedDocument); cached.source == source {
			c.count(true)
			return cached.doc, nil
		}
	}
	c.count(false)
	doc, err := Parse(source)
	if err != nil {
		return nil, err
	}
	c.docs.Add(key, &cachedDocument{source: source, doc: doc})
	return doc, nil
}

func (c *DocumentCache) count(hit bool) {
	c.mu.Lock()
	if hit {
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()
}

// Len returns the number of documents in the cache.
func (c *DocumentCache) Len() int {
	return c.docs.Len()
}

// Stats returns the number of cache hits and misses since the cache was
// created.
func (c *DocumentCache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
