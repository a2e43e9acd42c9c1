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

// Package cor (Chain of Responsibility) provides the building blocks for
// the indexing pipeline. A workflow is a Chain of Commands; each Command
// is an atomic unit of work that reads its input from a shared Context,
// does one thing (fetch a transcript, chunk it, embed the chunks, persist
// them), and writes its output back for the next command. The interfaces
// keep the framework independent of any particular pipeline, and every
// command carries its own OpenTelemetry tracer and counters.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the context keys used for the primary data flow of
// a chain. After each command runs, the chain moves the value stored under
// CtxOut to CtxIn so it becomes the next command's input.
const (
	CtxIn  = "__IN__"
	CtxOut = "__OUT__"
)

// Context is the shared state for a single workflow execution. It carries
// arbitrary key-value data between commands, collects errors keyed by the
// command that produced them, and holds the standard Go context used for
// cancellation and trace propagation.
type Context interface {
	// SetContext replaces the standard Go context, typically to scope a
	// command's work under its own trace span.
	SetContext(ctx context.Context)

	// GetContext returns the current standard Go context.
	GetContext() context.Context

	// Add stores a value under key and returns the Context for chaining.
	Add(key string, value interface{}) Context

	// Get returns the value stored under key, or nil.
	Get(key string) interface{}

	// Remove deletes the value stored under key.
	Remove(key string)

	// AddError records a failure, keyed by the name of the command that
	// produced it.
	AddError(key string, err error)

	// GetErrors returns all recorded failures.
	GetErrors() map[string]error

	// HasErrors reports whether any command has failed so far.
	HasErrors() bool
}

// Command is an atomic, reusable unit of pipeline work.
type Command interface {
	// Execute performs the command's work, reading from and writing to the
	// shared Context. Failures are reported via Context.AddError.
	Execute(context Context)

	// GetName returns the command's unique name, used in logs, traces, and
	// error keys.
	GetName() string

	// GetInputParam returns the context key this command reads its primary
	// input from.
	GetInputParam() string

	// GetOutputParam returns the context key this command writes its
	// primary output to.
	GetOutputParam() string

	// IsExecutable reports whether the command's preconditions are met.
	IsExecutable(context Context) bool

	// GetTracer returns the command's OpenTelemetry tracer.
	GetTracer() trace.Tracer

	// GetSuccessCounter returns the metric counter for successful runs.
	GetSuccessCounter() metric.Int64Counter

	// GetErrorCounter returns the metric counter for failed runs.
	GetErrorCounter() metric.Int64Counter
}

// Chain is an ordered sequence of commands. A Chain is itself a Command,
// so chains can be nested.
type Chain interface {
	Command

	// ContinueOnFailure configures whether the chain keeps executing after
	// a command records an error. The default is to stop.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command to the execution sequence.
	AddCommand(command Command) Chain
}
