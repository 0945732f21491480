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

// Package graphqlhttp provides functions for serving GraphQL over HTTP as
// described in https://graphql.org/learn/serving-over-http/.
//
// A Handler compiles each request into a query tree and hands the tree to a
// Resolver, which produces the response data.
package graphqlhttp

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"mime"
	"net/http"
	"strconv"

	"github.com/jensneuse/abstractlogger"
	"go.opencensus.io/trace"
	"golang.org/x/xerrors"
	"zombiezen.com/go/graphlayer/graphql"
	"zombiezen.com/go/graphlayer/schema"
)

// A Resolver produces the data for a compiled query. The returned value is
// marshaled to JSON as the response's data.
type Resolver interface {
	Resolve(ctx context.Context, query *schema.ObjectQuery) (interface{}, error)
}

// ResolverFunc is a function that implements Resolver.
type ResolverFunc func(ctx context.Context, query *schema.ObjectQuery) (interface{}, error)

// Resolve calls f(ctx, query).
func (f ResolverFunc) Resolve(ctx context.Context, query *schema.ObjectQuery) (interface{}, error) {
	return f(ctx, query)
}

// Handler serves GraphQL HTTP requests by compiling them and passing the
// resulting query trees to its resolver.
type Handler struct {
	compiler *graphql.Compiler
	resolver Resolver
	log      abstractlogger.Logger
}

// HandlerOptions holds optional parameters for NewHandler.
type HandlerOptions struct {
	// Logger receives resolver failures. If nil, nothing is logged.
	Logger abstractlogger.Logger
}

// NewHandler returns a new handler that compiles requests with the given
// compiler and sends the query trees to the given resolver.
func NewHandler(compiler *graphql.Compiler, resolver Resolver, opts *HandlerOptions) *Handler {
	h := &Handler{
		compiler: compiler,
		resolver: resolver,
		log:      abstractlogger.NoopLogger,
	}
	if opts != nil && opts.Logger != nil {
		h.log = opts.Logger
	}
	return h
}

// ServeHTTP compiles and resolves a GraphQL request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	gqlRequest, err := Parse(r)
	if err != nil {
		code := StatusCode(err)
		if code == http.StatusMethodNotAllowed {
			w.Header().Set("Allow", "GET, HEAD, POST")
		}
		http.Error(w, err.Error(), code)
		return
	}
	WriteResponse(w, h.Execute(r.Context(), gqlRequest))
}

// Execute compiles a request and resolves the query tree. Errors are reported
// in the response.
func (h *Handler) Execute(ctx context.Context, req graphql.Request) graphql.Response {
	query, err := h.compile(ctx, req)
	if err != nil {
		return graphql.Response{
			Errors: []*graphql.ResponseError{graphql.ToResponseError(err)},
		}
	}
	data, err := h.resolve(ctx, query)
	if err != nil {
		h.log.Error("graphqlhttp: resolve",
			abstractlogger.String("operationName", req.OperationName),
			abstractlogger.Error(err))
		return graphql.Response{
			Errors: []*graphql.ResponseError{{Message: "server error"}},
		}
	}
	return graphql.Response{Data: data}
}

func (h *Handler) compile(ctx context.Context, req graphql.Request) (*schema.ObjectQuery, error) {
	_, span := trace.StartSpan(ctx, "graphqlhttp.Compile")
	defer span.End()
	if req.OperationName != "" {
		span.AddAttributes(trace.StringAttribute("graphql.operation_name", req.OperationName))
	}
	query, err := h.compiler.CompileString(req.Query, req.OperationName)
	if err != nil {
		span.SetStatus(trace.Status{
			Code:    trace.StatusCodeInvalidArgument,
			Message: err.Error(),
		})
		return nil, err
	}
	return query, nil
}

func (h *Handler) resolve(ctx context.Context, query *schema.ObjectQuery) (interface{}, error) {
	ctx, span := trace.StartSpan(ctx, "graphqlhttp.Resolve")
	defer span.End()
	data, err := h.resolver.Resolve(ctx, query)
	if err != nil {
		span.SetStatus(trace.Status{
			Code:    trace.StatusCodeUnknown,
			Message: err.Error(),
		})
		return nil, err
	}
	return data, nil
}

// Parse parses a GraphQL HTTP request. If an error is returned, StatusCode
// will return the proper HTTP status code to use.
//
// Request methods may be GET, HEAD, or POST. If the method is not one of these,
// then an error is returned that will make StatusCode return
// http.StatusMethodNotAllowed.
func Parse(r *http.Request) (graphql.Request, error) {
	request := graphql.Request{
		Query: r.URL.Query().Get("query"),
	}
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		request.OperationName = r.URL.Query().Get("operationName")
	case http.MethodPost:
		rawContentType := r.Header.Get("Content-Type")
		contentType, _, err := mime.ParseMediaType(rawContentType)
		if err != nil {
			return graphql.Request{}, &httpError{
				msg:  "parse graphql request: invalid content type: " + rawContentType,
				code: http.StatusUnsupportedMediaType,
			}
		}
		switch contentType {
		case "application/json":
			if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
				return graphql.Request{}, &httpError{
					msg:   "parse graphql request: ",
					code:  http.StatusBadRequest,
					cause: err,
				}
			}
		case "application/x-www-form-urlencoded":
			if err := r.ParseForm(); err != nil {
				return graphql.Request{}, &httpError{
					msg:   "parse graphql request: ",
					code:  http.StatusBadRequest,
					cause: err,
				}
			}
			if q := r.PostForm.Get("query"); q != "" {
				request.Query = q
			}
			request.OperationName = r.PostForm.Get("operationName")
		case "application/graphql":
			data, err := ioutil.ReadAll(r.Body)
			if err != nil {
				return graphql.Request{}, &httpError{
					msg:   "parse graphql request: ",
					code:  http.StatusBadRequest,
					cause: err,
				}
			}
			if len(data) > 0 {
				request.Query = string(data)
			}
			request.OperationName = r.URL.Query().Get("operationName")
		default:
			return graphql.Request{}, &httpError{
				msg:  "parse graphql request: unrecognized content type: " + contentType,
				code: http.StatusUnsupportedMediaType,
			}
		}
	default:
		return graphql.Request{}, &httpError{
			msg:  fmt.Sprintf("parse graphql request: method %s not allowed", r.Method),
			code: http.StatusMethodNotAllowed,
		}
	}
	if request.Query == "" {
		return graphql.Request{}, &httpError{
			msg:  "parse graphql request: missing query",
			code: http.StatusBadRequest,
		}
	}
	return request, nil
}

type httpError struct {
	msg   string
	code  int
	cause error
}

func (e *httpError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return e.msg + e.cause.Error()
}

func (e *httpError) Unwrap() error {
	return e.cause
}

// StatusCode returns the HTTP status code an error indicates.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var e *httpError
	if !xerrors.As(err, &e) {
		return http.StatusInternalServerError
	}
	return e.code
}

// WriteResponse writes a GraphQL result as an HTTP response.
func WriteResponse(w http.ResponseWriter, response graphql.Response) {
	payload, err := json.Marshal(response)
	if err != nil {
		http.Error(w, "GraphQL marshal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
	w.Write(payload)
}
