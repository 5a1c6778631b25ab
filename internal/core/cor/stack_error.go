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
	"errors"
	"runtime/debug"
)

// StackError is an error recorded by a command together with the goroutine
// stack at the point the command failed.
type StackError struct {
	Err   error
	Stack []byte
}

func (e *StackError) Error() string {
	return e.Err.Error()
}

func (e *StackError) Unwrap() error {
	return e.Err
}

// WithStack attaches the current stack to err. An error that already
// carries a stack is returned unchanged.
func WithStack(err error) error {
	if err == nil {
		return nil
	}
	var se *StackError
	if errors.As(err, &se) {
		return err
	}
	return &StackError{Err: err, Stack: debug.Stack()}
}

// StackOf returns the stack of the first StackError found in err, or ""
// when none was recorded.
func StackOf(err error) string {
	var se *StackError
	if errors.As(err, &se) {
		return string(se.Stack)
	}
	return ""
}
