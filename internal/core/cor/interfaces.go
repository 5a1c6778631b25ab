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

// Package cor (Chain of Responsibility) is the small runtime every image
// handler is built on. A handler is a Chain of Commands that share one
// Context for the lifetime of a single invocation.
//
// The interfaces here are intentionally narrow so that listeners (Pub/Sub,
// Kafka), the HTTP layer and the Lambda entry point can all drive the same
// chain without knowing what the commands inside it do.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the keys a BaseChain uses to pipe the output of one
// command into the input of the next.
const (
	// CtxIn holds the primary input of the command about to run.
	CtxIn = "__IN__"
	// CtxOut is where a command leaves its primary output.
	CtxOut = "__OUT__"
)

// Context is the per-invocation state bag handed from command to command.
// It carries data, the errors raised so far, and the halt flag used to end a
// chain early without failing it.
type Context interface {
	// SetContext replaces the Go context (cancellation, trace span).
	SetContext(ctx context.Context)

	// GetContext returns the current Go context.
	GetContext() context.Context

	// Add stores a value under key and returns the Context for chaining.
	Add(key string, value interface{}) Context

	// Get returns the value stored under key, or nil.
	Get(key string) interface{}

	// Remove deletes key.
	Remove(key string)

	// AddError records err against the name of the command that raised it.
	AddError(key string, err error)

	// GetErrors returns every recorded error keyed by command name.
	GetErrors() map[string]error

	// HasErrors reports whether any command recorded an error.
	HasErrors() bool

	// Halt stops the chain after the current command. A halted chain is not
	// a failed chain: it is how a command says "nothing to do here".
	Halt(reason string)

	// IsHalted reports whether a command has halted the chain.
	IsHalted() bool

	// HaltReason returns the reason passed to Halt, or "".
	HaltReason() string
}

// Executable is anything with an Execute step.
type Executable interface {
	Execute(context Context)
}

// Command is a single step of a handler.
type Command interface {
	Executable

	// GetName returns the name used for spans, counters and error keys.
	GetName() string

	// GetInputParam returns the key the command reads its input from.
	GetInputParam() string

	// GetOutputParam returns the key the command writes its output to.
	GetOutputParam() string

	// IsExecutable is checked by the chain before Execute is called.
	IsExecutable(context Context) bool

	GetTracer() trace.Tracer
	GetMeter() metric.Meter
	GetSuccessCounter() metric.Int64Counter
	GetErrorCounter() metric.Int64Counter
}

// Chain is an ordered list of commands. A Chain is itself a Command so
// chains can be nested.
type Chain interface {
	Command

	// ContinueOnFailure makes the chain keep going after a command records
	// an error. Halting always stops the chain.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command to the chain.
	AddCommand(command Command) Chain
}
