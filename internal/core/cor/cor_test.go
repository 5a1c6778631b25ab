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

package cor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jaycherian/gcp-go-image-tagger/internal/core/cor"
	"github.com/stretchr/testify/assert"
)

type recordingCommand struct {
	cor.BaseCommand
	ran    *[]string
	output interface{}
	err    error
	halt   string
}

func newRecordingCommand(name string, ran *[]string) *recordingCommand {
	return &recordingCommand{BaseCommand: *cor.NewBaseCommand(name), ran: ran}
}

func (c *recordingCommand) Execute(context cor.Context) {
	*c.ran = append(*c.ran, c.GetName())
	if c.err != nil {
		c.Fail(context, c.err)
		return
	}
	if c.halt != "" {
		context.Halt(c.halt)
	}
	c.Succeed(context)
	if c.output != nil {
		context.Add(c.GetOutputParam(), c.output)
	}
}

func TestChainPipesOutputToInput(t *testing.T) {
	var ran []string
	first := newRecordingCommand("first", &ran)
	first.output = "from-first"
	second := newRecordingCommand("second", &ran)
	second.output = 42

	chain := cor.NewBaseChain("pipe").AddCommand(first).AddCommand(second)
	ctx := cor.NewContextWithInput(context.Background(), "seed")
	chain.Execute(ctx)

	assert.Equal(t, []string{"first", "second"}, ran)
	assert.False(t, ctx.HasErrors())
	assert.Equal(t, 42, ctx.Get(cor.CtxIn))
	assert.Nil(t, ctx.Get(cor.CtxOut))
}

func TestChainStopsOnError(t *testing.T) {
	var ran []string
	boom := errors.New("boom")
	first := newRecordingCommand("first", &ran)
	first.err = boom
	second := newRecordingCommand("second", &ran)
	second.output = "x"

	chain := cor.NewBaseChain("stop").AddCommand(first).AddCommand(second)
	ctx := cor.NewContextWithInput(context.Background(), "seed")
	chain.Execute(ctx)

	assert.Equal(t, []string{"first"}, ran)
	assert.ErrorIs(t, cor.JoinErrors(ctx), boom)
	assert.ErrorIs(t, ctx.GetErrors()["first"], boom)
	assert.Equal(t, "boom", ctx.GetErrors()["first"].Error())
}

func TestFailRecordsStackOfFailingCommand(t *testing.T) {
	var ran []string
	boom := errors.New("boom")
	first := newRecordingCommand("first", &ran)
	first.err = boom

	ctx := cor.NewContextWithInput(context.Background(), "seed")
	cor.NewBaseChain("stack").AddCommand(first).Execute(ctx)

	stack := cor.StackOf(cor.JoinErrors(ctx))
	assert.Contains(t, stack, "recordingCommand).Execute")
	assert.Contains(t, stack, "BaseCommand).Fail")
}

func TestWithStackKeepsExistingStack(t *testing.T) {
	boom := errors.New("boom")
	wrapped := cor.WithStack(boom)
	assert.Same(t, wrapped, cor.WithStack(wrapped))
	assert.ErrorIs(t, wrapped, boom)
	assert.Nil(t, cor.WithStack(nil))
	assert.Equal(t, "", cor.StackOf(boom))
}

func TestChainContinueOnFailure(t *testing.T) {
	var ran []string
	first := newRecordingCommand("first", &ran)
	first.err = errors.New("boom")
	first.output = nil
	second := newRecordingCommand("second", &ran)

	ctx := cor.NewContextWithInput(context.Background(), "seed")
	// The failing command leaves no output, so the second is not executable
	// and records its own error.
	cor.NewBaseChain("continue").ContinueOnFailure(true).AddCommand(first).AddCommand(second).Execute(ctx)

	assert.Equal(t, []string{"first"}, ran)
	assert.Len(t, ctx.GetErrors(), 2)
	assert.Contains(t, ctx.GetErrors()["second"].Error(), "not executable")
}

func TestChainHaltEndsWithoutError(t *testing.T) {
	var ran []string
	first := newRecordingCommand("first", &ran)
	first.halt = "nothing to do"
	first.output = "x"
	second := newRecordingCommand("second", &ran)

	ctx := cor.NewContextWithInput(context.Background(), "seed")
	cor.NewBaseChain("halt").AddCommand(first).AddCommand(second).Execute(ctx)

	assert.Equal(t, []string{"first"}, ran)
	assert.True(t, ctx.IsHalted())
	assert.Equal(t, "nothing to do", ctx.HaltReason())
	assert.NoError(t, cor.JoinErrors(ctx))
}

func TestChainRestoresCallerContext(t *testing.T) {
	var ran []string
	parent := context.WithValue(context.Background(), struct{}{}, "parent")
	ctx := cor.NewContextWithInput(parent, "seed")
	cor.NewBaseChain("restore").AddCommand(newRecordingCommand("only", &ran)).Execute(ctx)

	assert.Equal(t, parent, ctx.GetContext())
}

func TestJoinErrorsIsStable(t *testing.T) {
	ctx := cor.NewBaseContext()
	ctx.AddError("b", errors.New("second"))
	ctx.AddError("a", errors.New("first"))

	assert.Equal(t, "first\nsecond", cor.JoinErrors(ctx).Error())
	assert.NoError(t, cor.JoinErrors(cor.NewBaseContext()))
}

func TestInvocationID(t *testing.T) {
	ctx, id := cor.WithInvocationID(context.Background())
	assert.NotEmpty(t, id)
	assert.Equal(t, id, cor.InvocationID(ctx))

	same, again := cor.WithInvocationID(ctx)
	assert.Equal(t, id, again)
	assert.Equal(t, ctx, same)
	assert.Equal(t, "", cor.InvocationID(context.Background()))
}
