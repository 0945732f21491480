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
	"github.com/jensneuse/abstractlogger"
	"github.com/vektah/gqlparser/v2/ast"
	"golang.org/x/xerrors"
	"zombiezen.com/go/graphlayer/schema"
)

// DefaultMaxDepth is the nesting limit used when CompilerOptions.MaxDepth is
// zero.
const DefaultMaxDepth = 128

// DefaultMaxSelections is the expansion budget used when
// CompilerOptions.MaxSelections is zero.
const DefaultMaxSelections = 10000

// Compiler turns query documents into query trees for a single root query
// type. It is safe to call a Compiler's methods from multiple goroutines.
type Compiler struct {
	queryType *schema.ObjectType
	maxDepth  int
	maxSels   int
	log       abstractlogger.Logger
	cache     *DocumentCache
}

// CompilerOptions is the set of optional parameters for NewCompiler.
type CompilerOptions struct {
	// MaxDepth limits how many fragment expansions and field descents may be
	// nested along any path in a document. Zero means DefaultMaxDepth.
	MaxDepth int

	// MaxSelections limits how many selections a single compilation may visit
	// once fragments are expanded. Every field, inline fragment, and fragment
	// spread counts, each time it is reached. Zero means DefaultMaxSelections.
	MaxSelections int

	// Logger receives debug messages about compilation. Nil disables logging.
	Logger abstractlogger.Logger

	// DocumentCacheSize is the number of parsed documents CompileString keeps.
	// Zero disables the cache.
	DocumentCacheSize int
}

// NewCompiler returns a compiler for the given root query type. opts may be
// nil, in which case defaults are used.
func NewCompiler(queryType *schema.ObjectType, opts *CompilerOptions) (*Compiler, error) {
	if queryType == nil {
		return nil, xerrors.New("new compiler: query type is required")
	}
	if opts == nil {
		opts = new(CompilerOptions)
	}
	if opts.MaxDepth < 0 {
		return nil, xerrors.Errorf("new compiler: negative max depth %d", opts.MaxDepth)
	}
	if opts.MaxSelections < 0 {
		return nil, xerrors.Errorf("new compiler: negative max selections %d", opts.MaxSelections)
	}
	if opts.DocumentCacheSize < 0 {
		return nil, xerrors.Errorf("new compiler: negative document cache size %d", opts.DocumentCacheSize)
	}
	c := &Compiler{
		queryType: queryType,
		maxDepth:  opts.MaxDepth,
		maxSels:   opts.MaxSelections,
		log:       opts.Logger,
	}
	if c.maxDepth == 0 {
		c.maxDepth = DefaultMaxDepth
	}
	if c.maxSels == 0 {
		c.maxSels = DefaultMaxSelections
	}
	if c.log == nil {
		c.log = abstractlogger.NoopLogger
	}
	if opts.DocumentCacheSize > 0 {
		var err error
		c.cache, err = NewDocumentCache(opts.DocumentCacheSize)
		if err != nil {
			return nil, xerrors.Errorf("new compiler: %w", err)
		}
	}
	return c, nil
}

// QueryType returns the root query type passed to NewCompiler.
func (c *Compiler) QueryType() *schema.ObjectType {
	return c.queryType
}

// Compile compiles the first operation in doc against queryType using the
// default options.
func Compile(doc *ast.QueryDocument, queryType *schema.ObjectType) (*schema.ObjectQuery, error) {
	c, err := NewCompiler(queryType, nil)
	if err != nil {
		return nil, xerrors.Errorf("compile: %w", err)
	}
	return c.Compile(doc)
}

// Compile compiles the first operation in doc. Any further operations in the
// document are ignored.
func (c *Compiler) Compile(doc *ast.QueryDocument) (*schema.ObjectQuery, error) {
	return c.CompileOperation(doc, "")
}

// CompileOperation compiles the operation with the given name. An empty name
// selects the first operation in the document. If no operation matches, then
// an error wrapping ErrNoOperation is returned.
//
// Fragments are looked up by name among all the document's fragment
// definitions. If more than one fragment has the same name, the last one
// wins. Fragment type conditions are not checked.
func (c *Compiler) CompileOperation(doc *ast.QueryDocument, operationName string) (*schema.ObjectQuery, error) {
	op := findOperation(doc, operationName)
	if op == nil {
		if operationName == "" {
			return nil, xerrors.Errorf("compile: %w", ErrNoOperation)
		}
		return nil, xerrors.Errorf("compile: operation %q: %w", operationName, ErrNoOperation)
	}
	scope := &compileScope{
		fragments: newFragmentTable(doc),
		maxDepth:  c.maxDepth,
		budget:    c.maxSels,
	}
	query, err := scope.objectQuery(c.queryType, op.SelectionSet, 0)
	if err != nil {
		c.log.Debug("compile failed",
			abstractlogger.String("operation", op.Name),
			abstractlogger.Error(err),
		)
		return nil, xerrors.Errorf("compile: %w", err)
	}
	c.log.Debug("compiled operation",
		abstractlogger.String("operation", op.Name),
		abstractlogger.Int("fields", query.Len()),
	)
	return query, nil
}

// CompileString parses source and compiles the named operation. If the
// compiler was created with a document cache, then parsed documents are
// reused across calls.
func (c *Compiler) CompileString(source, operationName string) (*schema.ObjectQuery, error) {
	var doc *ast.QueryDocument
	var err error
	if c.cache != nil {
		doc, err = c.cache.Parse(source)
	} else {
		doc, err = Parse(source)
	}
	if err != nil {
		return nil, err
	}
	return c.CompileOperation(doc, operationName)
}

// Cache returns the compiler's document cache or nil if it does not have one.
func (c *Compiler) Cache() *DocumentCache {
	return c.cache
}

func findOperation(doc *ast.QueryDocument, name string) *ast.OperationDefinition {
	if doc == nil {
		return nil
	}
	for _, op := range doc.Operations {
		if name == "" || op.Name == name {
			return op
		}
	}
	return nil
}
