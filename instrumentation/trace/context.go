// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package trace

import (
	"context"
	"fmt"
	"github.com/orbs-network/scribe/log"
	"net/http"
	"time"
)

type entryPointKeyType string

const entryPointKey entryPointKeyType = "ep"

const RequestId = "request-id"
const RequestIdHeader = "X-Request-Id"

// Context follows one user action (an http request, a cli command) through every service it touches
type Context struct {
	created   time.Time
	name      string
	requestId string
}

func NewContext(parent context.Context, name string) context.Context {
	now := time.Now()
	return context.WithValue(parent, entryPointKey, &Context{
		name:      name,
		created:   now,
		requestId: fmt.Sprintf("%s-%d", name, now.UnixNano()),
	})
}

// NewFromRequest keeps a request id supplied by the caller so client and node logs can be joined
func NewFromRequest(parent context.Context, r *http.Request, name string) context.Context {
	requestId := r.Header.Get(RequestIdHeader)
	if requestId == "" {
		return NewContext(parent, name)
	}
	return context.WithValue(parent, entryPointKey, &Context{
		name:      name,
		created:   time.Now(),
		requestId: requestId,
	})
}

func FromContext(ctx context.Context) (e *Context, ok bool) {
	e, ok = ctx.Value(entryPointKey).(*Context)
	return
}

func (c *Context) RequestId() string {
	return c.requestId
}

func (c *Context) EntryPoint() string {
	return c.name
}

func (c *Context) WriteTo(w http.ResponseWriter) {
	w.Header().Set(RequestIdHeader, c.requestId)
}

func LogFieldFrom(ctx context.Context) *log.Field {
	if trace, ok := FromContext(ctx); ok {
		return log.String(RequestId, trace.requestId)
	}
	return log.String(RequestId, "NO-CONTEXT")
}
