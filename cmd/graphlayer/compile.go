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

package main

import (
	"encoding/json"
	"io"
	"io/ioutil"

	"github.com/jensneuse/abstractlogger"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"
	"zombiezen.com/go/graphlayer/graphql"
	"zombiezen.com/go/graphlayer/schema"
)

func newCompileCommand(a *app) *cobra.Command {
	var operationName string
	var validate bool
	cmd := &cobra.Command{
		Use:   "compile [flags] [QUERY_FILE]",
		Short: "Print the query tree for a GraphQL document",
		Long: "Compile a GraphQL query document against the schema and print the " +
			"resulting query tree as JSON. The document is read from standard " +
			"input if no file is given.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var source []byte
			var err error
			if len(args) == 0 || args[0] == "-" {
				source, err = ioutil.ReadAll(cmd.InOrStdin())
			} else {
				source, err = ioutil.ReadFile(args[0])
			}
			if err != nil {
				return xerrors.Errorf("read query: %w", err)
			}
			return a.compile(cmd.OutOrStdout(), string(source), operationName, validate)
		},
	}
	cmd.Flags().StringVarP(&operationName, "operation", "o", "", "name of the operation to compile (default first)")
	cmd.Flags().BoolVar(&validate, "validate", false, "report fragment cycles and conflicting fields before compiling")
	return cmd
}

func (a *app) compile(w io.Writer, source, operationName string, validate bool) error {
	c, err := a.newCompiler()
	if err != nil {
		return err
	}
	doc, err := graphql.Parse(source)
	if err != nil {
		return err
	}
	if validate {
		errs := graphql.Validate(doc, c.QueryType())
		for _, err := range errs {
			a.log.Error("validate", abstractlogger.Error(err))
		}
		if len(errs) > 0 {
			return xerrors.Errorf("validate: %d error(s), first: %w", len(errs), errs[0])
		}
	}
	q, err := c.CompileOperation(doc, operationName)
	if err != nil {
		re := graphql.ToResponseError(err)
		a.log.Error("compile",
			abstractlogger.Any("path", re.Path),
			abstractlogger.Any("locations", re.Locations),
			abstractlogger.Error(err))
		return err
	}
	data, err := json.MarshalIndent(q, "", "  ")
	if err != nil {
		return xerrors.Errorf("compile: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// loadGraph reads the configured schema file.
func (a *app) loadGraph() (*schema.Graph, error) {
	source, err := ioutil.ReadFile(a.cfg.Schema)
	if err != nil {
		return nil, xerrors.Errorf("load schema: %w", err)
	}
	g, err := schema.ParseSDL(string(source))
	if err != nil {
		return nil, xerrors.Errorf("load schema %s: %w", a.cfg.Schema, err)
	}
	return g, nil
}

func (a *app) newCompiler() (*graphql.Compiler, error) {
	g, err := a.loadGraph()
	if err != nil {
		return nil, err
	}
	return graphql.NewCompiler(g.QueryType(), &graphql.CompilerOptions{
		MaxDepth:          a.cfg.MaxDepth,
		MaxSelections:     a.cfg.MaxSelections,
		Logger:            a.log,
		DocumentCacheSize: a.cfg.CacheSize,
	})
}

func newPrintSchemaCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "print-schema",
		Short: "Print the schema as seen by GraphQL clients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.loadGraph()
			if err != nil {
				return err
			}
			return graphql.PrintSchema(cmd.OutOrStdout(), g.QueryType())
		},
	}
}
