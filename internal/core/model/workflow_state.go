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

package model

// GreetingWaitSeconds is the pause requested from the workflow engine
// between the greeting and salutation steps.
const GreetingWaitSeconds = 5

// WorkflowState is the record a workflow engine passes between steps. The
// engine owns persistence; the steps only transform it.
type WorkflowState struct {
	Name          string `json:"name,omitempty"`
	Message       string `json:"message"`
	WaitInSeconds int    `json:"wait_in_seconds,omitempty"`
}

// Greet sets the opening message and asks the engine to wait before the
// next step.
func (s *WorkflowState) Greet() *WorkflowState {
	s.Message = "Hello"
	if s.Name != "" {
		s.Message += " " + s.Name
	}
	s.WaitInSeconds = GreetingWaitSeconds
	return s
}

// SayGoodbye appends the closing salutation to the existing message.
func (s *WorkflowState) SayGoodbye() *WorkflowState {
	s.Message += ", Goodbye"
	if s.Name != "" {
		s.Message += " " + s.Name
	}
	return s
}
