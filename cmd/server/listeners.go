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

package main

import (
	"context"
	"fmt"
)

// SetupListeners attaches each configured Pub/Sub subscription and Kafka
// topic to the workflow named by its handler key and starts it. An unknown
// handler name is a configuration error.
func SetupListeners(ctx context.Context, s *StateManager) error {
	handlers := s.handlers()

	for name, listener := range s.cloud.PubSubListeners {
		command, ok := handlers[name]
		if !ok {
			return fmt.Errorf("pubsub subscription bound to unknown handler %q", name)
		}
		listener.SetCommand(command)
		listener.Listen(ctx)
	}

	for name, listener := range s.cloud.KafkaListeners {
		command, ok := handlers[name]
		if !ok {
			return fmt.Errorf("kafka topic bound to unknown handler %q", name)
		}
		listener.SetCommand(command)
		listener.Listen(ctx)
	}
	return nil
}
