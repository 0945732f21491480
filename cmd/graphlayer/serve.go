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
	"bytes"
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/jensneuse/abstractlogger"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"
	"zombiezen.com/go/graphlayer/graphql"
	"zombiezen.com/go/graphlayer/graphqlhttp"
	"zombiezen.com/go/graphlayer/schema"
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve query plans over HTTP",
		Long: "Serve GraphQL over HTTP at /graphql. Each request is answered with " +
			"its compiled query tree instead of data. The schema is served as " +
			"SDL at /schema.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().String("addr", ":8080", "address to listen on")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	if a.cfg.Addr == "" {
		return xerrors.New("serve: address required")
	}
	c, err := a.newCompiler()
	if err != nil {
		return err
	}
	router, err := newRouter(c, a.log)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		a.log.Info("listening", abstractlogger.String("addr", a.cfg.Addr))
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return xerrors.Errorf("serve: %w", err)
	case <-ctx.Done():
	}
	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return xerrors.Errorf("serve: %w", err)
	}
	return nil
}

// newRouter returns the HTTP routes for a compiler. Queries sent to /graphql
// are answered with their query trees.
func newRouter(c *graphql.Compiler, log abstractlogger.Logger) (*mux.Router, error) {
	sdl := new(bytes.Buffer)
	if err := graphql.PrintSchema(sdl, c.QueryType()); err != nil {
		return nil, err
	}
	r := mux.NewRouter()
	r.Use(logRequests(log))
	r.Handle("/graphql", graphqlhttp.NewHandler(c, graphqlhttp.ResolverFunc(resolvePlan), &graphqlhttp.HandlerOptions{
		Logger: log,
	}))
	r.HandleFunc("/schema", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/graphql; charset=utf-8")
		w.Header().Set("Content-Length", strconv.Itoa(sdl.Len()))
		w.Write(sdl.Bytes())
	}).Methods(http.MethodGet, http.MethodHead)
	return r, nil
}

// resolvePlan answers a query with the query tree itself.
func resolvePlan(ctx context.Context, q *schema.ObjectQuery) (interface{}, error) {
	return q, nil
}

func logRequests(log abstractlogger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.Debug("request",
				abstractlogger.String("method", r.Method),
				abstractlogger.String("path", r.URL.Path),
				abstractlogger.String("duration", time.Since(start).String()))
		})
	}
}
