// Copyright 2024 Google, LLC
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

package cor

import (
	"context"
	"errors"
	"sort"
)

// BaseContext is the default Context. It is not safe for concurrent use;
// one BaseContext belongs to exactly one invocation.
type BaseContext struct {
	data       map[string]interface{}
	errors     map[string]error
	halted     bool
	haltReason string
	context    context.Context
}

// NewBaseContext returns an empty Context with a background Go context.
func NewBaseContext() Context {
	return &BaseContext{
		data:    make(map[string]interface{}),
		errors:  make(map[string]error),
		context: context.Background(),
	}
}

// NewContextWithInput is a convenience for listeners and handlers: it builds
// a Context bound to ctx with in stored under CtxIn.
func NewContextWithInput(ctx context.Context, in interface{}) Context {
	c := NewBaseContext()
	c.SetContext(ctx)
	c.Add(CtxIn, in)
	return c
}

func (c *BaseContext) SetContext(ctx context.Context) {
	c.context = ctx
}

func (c *BaseContext) GetContext() context.Context {
	return c.context
}

func (c *BaseContext) Add(key string, value interface{}) Context {
	c.data[key] = value
	return c
}

func (c *BaseContext) Get(key string) interface{} {
	return c.data[key]
}

func (c *BaseContext) Remove(key string) {
	delete(c.data, key)
}

func (c *BaseContext) AddError(key string, err error) {
	c.errors[key] = err
}

func (c *BaseContext) GetErrors() map[string]error {
	return c.errors
}

func (c *BaseContext) HasErrors() bool {
	return len(c.errors) > 0
}

func (c *BaseContext) Halt(reason string) {
	c.halted = true
	c.haltReason = reason
}

func (c *BaseContext) IsHalted() bool {
	return c.halted
}

func (c *BaseContext) HaltReason() string {
	return c.haltReason
}

// JoinErrors folds every error recorded on context into one error, ordered
// by command name so the message is stable. It returns nil when the context
// holds no errors.
func JoinErrors(context Context) error {
	errs := context.GetErrors()
	if len(errs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	joined := make([]error, 0, len(keys))
	for _, k := range keys {
		joined = append(joined, errs[k])
	}
	return errors.Join(joined...)
}
