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

// Package commands. This file defines the first command of both image
// handlers.
//
// Logic Flow:
//  1. The raw notification ([]byte or string) is read from the input.
//     An already decoded *model.EventEnvelope is accepted as is.
//  2. cloud.DecodeEvent turns it into an EventEnvelope.
//  3. The envelope is stored under cloud.GetEnvelopeName() for later commands
//     and also passed on as the output.
package commands

import (
	"fmt"

	"github.com/jaycherian/gcp-go-image-tagger/internal/cloud"
	"github.com/jaycherian/gcp-go-image-tagger/internal/core/cor"
	"github.com/jaycherian/gcp-go-image-tagger/internal/core/model"
)

// EventTrigger decodes an inbound notification into an EventEnvelope.
type EventTrigger struct {
	cor.BaseCommand
}

// NewEventTrigger is the constructor for EventTrigger.
//
// Inputs:
//   - name: A string name for this command instance.
//
// Outputs:
//   - *EventTrigger: The command.
func NewEventTrigger(name string) *EventTrigger {
	return &EventTrigger{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *EventTrigger) Execute(context cor.Context) {
	var (
		env *model.EventEnvelope
		err error
	)
	switch in := context.Get(c.GetInputParam()).(type) {
	case *model.EventEnvelope:
		env = in
	case model.EventEnvelope:
		env = &in
	case []byte:
		env, err = cloud.DecodeEvent(in)
	case string:
		env, err = cloud.DecodeEvent([]byte(in))
	default:
		err = fmt.Errorf("%w: unsupported input type %T", cloud.ErrInvalidEvent, in)
	}
	if err != nil {
		c.Fail(context, err)
		return
	}

	c.Succeed(context)
	context.Add(cloud.GetEnvelopeName(), env)
	context.Add(c.GetOutputParam(), env)
}
