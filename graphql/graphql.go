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
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"golang.org/x/xerrors"
	"zombiezen.com/go/graphlayer/schema"
)

// Compilation and projection errors. Errors returned by this package wrap
// one of these and can be tested with xerrors.Is.
var (
	ErrNoOperation         = xerrors.New("no operation found")
	ErrUnknownFragment     = xerrors.New("unknown fragment")
	ErrNoSuchField         = xerrors.New("no such field")
	ErrUnknownArgument     = xerrors.New("unknown argument")
	ErrUnsupportedArgument = xerrors.New("unsupported argument literal")
	ErrDuplicateArgument   = schema.ErrDuplicateArgument
	ErrDepthLimit          = xerrors.New("selection nesting too deep")
	ErrSelectionLimit      = xerrors.New("too many selections after fragment expansion")
	ErrUnsupportedType     = xerrors.New("unsupported type")
)

// Request holds the inputs for a GraphQL compilation.
type Request struct {
	// Query is the GraphQL document text.
	Query string `json:"query"`
	// If OperationName is not empty, then the operation with the given name will
	// be compiled. Otherwise, the first operation in the document is used.
	OperationName string `json:"operationName,omitempty"`
}

// Response holds the output of a GraphQL operation.
type Response struct {
	Data   interface{}      `json:"data"`
	Errors []*ResponseError `json:"errors,omitempty"`
}

// MarshalJSON converts the response to JSON format.
func (resp Response) MarshalJSON() ([]byte, error) {
	var buf []byte
	buf = append(buf, '{')
	if len(resp.Errors) > 0 {
		buf = append(buf, `"errors":`...)
		errorsData, err := json.Marshal(resp.Errors)
		if err != nil {
			return buf, xerrors.Errorf("marshal response: %w", err)
		}
		buf = append(buf, errorsData...)
		if resp.Data != nil {
			buf = append(buf, ',')
		}
	}
	if resp.Data != nil {
		buf = append(buf, `"data":`...)
		data, err := json.Marshal(resp.Data)
		if err != nil {
			return buf, xerrors.Errorf("marshal response: %w", err)
		}
		buf = append(buf, data...)
	}
	buf = append(buf, '}')
	return buf, nil
}

// ResponseError describes an error that occurred during the processing of a
// GraphQL operation.
type ResponseError struct {
	Message   string        `json:"message"`
	Locations []Location    `json:"locations,omitempty"`
	Path      []PathSegment `json:"path,omitempty"`
}

// Error returns e.Message.
func (e *ResponseError) Error() string {
	return e.Message
}

// ToResponseError converts an error returned by this package into a
// *ResponseError, collecting the response path and document locations
// recorded along the error chain.
func ToResponseError(e error) *ResponseError {
	re, ok := e.(*ResponseError)
	if ok {
		// e is a *ResponseError.
		return re
	}
	// Build a new response error.
	re = &ResponseError{
		Message: e.Error(),
	}
	for ; e != nil; e = xerrors.Unwrap(e) {
		switch e := e.(type) {
		case *ResponseError:
			re.Locations = append(re.Locations, e.Locations...)
			re.Path = append(re.Path, e.Path...)
		case *fieldError:
			re.Path = append(re.Path, PathSegment{Field: e.key})
			re.Locations = append(re.Locations, e.locs...)
		case *locatedError:
			re.Locations = append(re.Locations, e.loc)
		case *gqlerror.Error:
			for _, loc := range e.Locations {
				re.Locations = append(re.Locations, Location{Line: loc.Line, Column: loc.Column})
			}
		}
	}
	return re
}

func hasLocation(e error) bool {
	var le *locatedError
	if xerrors.As(e, &le) {
		return true
	}
	var fe *fieldError
	return xerrors.As(e, &fe)
}

// fieldError records the response key and location of the field whose
// compilation failed.
type fieldError struct {
	key  string
	locs []Location
	err  error
}

func wrapFieldError(key string, pos *ast.Position, err error) error {
	if key == "" {
		panic("empty key")
	}
	var locs []Location
	if loc, ok := astPositionToLocation(pos); ok && !hasLocation(err) {
		locs = []Location{loc}
	}
	return &fieldError{
		key:  key,
		locs: locs,
		err:  err,
	}
}

func (e *fieldError) Error() string {
	return fmt.Sprintf("field %s: %v", e.key, e.err)
}

func (e *fieldError) Unwrap() error {
	return e.err
}

// locatedError attaches a document location to an error that is not tied to
// a single field, like an unknown fragment spread.
type locatedError struct {
	loc Location
	err error
}

func withLocation(pos *ast.Position, err error) error {
	loc, ok := astPositionToLocation(pos)
	if !ok {
		return err
	}
	return &locatedError{loc: loc, err: err}
}

func (e *locatedError) Error() string {
	return fmt.Sprintf("%v: %v", e.loc, e.err)
}

func (e *locatedError) Unwrap() error {
	return e.err
}

// Location identifies a position in a GraphQL document. Line and column
// are 1-based.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func astPositionToLocation(pos *ast.Position) (Location, bool) {
	if pos == nil || pos.Line < 1 || pos.Column < 1 {
		return Location{}, false
	}
	return Location{
		Line:   pos.Line,
		Column: pos.Column,
	}, true
}

// String returns the location in the form "line:col".
func (loc Location) String() string {
	return fmt.Sprintf("%d:%d", loc.Line, loc.Column)
}

// PathSegment identifies a field or array index in an output object.
type PathSegment struct {
	Field     string
	ListIndex int
}

// String returns the segment's index or field name as a string.
func (seg PathSegment) String() string {
	if seg.Field == "" {
		return strconv.Itoa(seg.ListIndex)
	}
	return seg.Field
}

// MarshalJSON converts the segment to a JSON integer or a JSON string.
func (seg PathSegment) MarshalJSON() ([]byte, error) {
	if seg.Field == "" {
		return strconv.AppendInt(nil, int64(seg.ListIndex), 10), nil
	}
	return json.Marshal(seg.Field)
}

// UnmarshalJSON converts JSON strings into field segments and JSON numbers into
// list index segments.
func (seg *PathSegment) UnmarshalJSON(data []byte) error {
	if !bytes.HasPrefix(data, []byte(`"`)) {
		i, err := json.Number(string(data)).Int64()
		if err != nil {
			return err
		}
		seg.ListIndex = int(i)
		return nil
	}
	err := json.Unmarshal(data, &seg.Field)
	return err
}
