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

package cloud

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jaycherian/gcp-go-image-tagger/internal/core/cor"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	messages  []kafka.Message
	committed []int64
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(f.messages) == 0 {
		return kafka.Message{}, errors.New("no more messages")
	}
	msg := f.messages[0]
	f.messages = f.messages[1:]
	return msg, nil
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func (f *fakeReader) Close() error { return nil }

type fakeWriter struct {
	written []kafka.Message
	err     error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.written = append(f.written, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

// payloadCommand rejects the payload fail. With failures set it rejects only
// the first failures attempts.
type payloadCommand struct {
	cor.BaseCommand
	fail     string
	failures int
	calls    int
}

func (c *payloadCommand) Execute(context cor.Context) {
	if string(context.Get(cor.CtxIn).([]byte)) != c.fail {
		return
	}
	c.calls++
	if c.failures == 0 || c.calls <= c.failures {
		c.Fail(context, errors.New("rejected"))
	}
}

func uploadMessages() []kafka.Message {
	return []kafka.Message{
		{Topic: "uploads", Offset: 1, Value: []byte("ok")},
		{Topic: "uploads", Offset: 2, Value: []byte("bad")},
		{Topic: "uploads", Offset: 3, Value: []byte("ok")},
	}
}

func TestKafkaListenerStopsBeforeCommittingPastFailure(t *testing.T) {
	reader := &fakeReader{messages: uploadMessages()}
	command := &payloadCommand{BaseCommand: *cor.NewBaseCommand("payload"), fail: "bad"}
	listener := NewKafkaListener(reader, "uploads", nil).WithRetry(2, 0)
	listener.SetCommand(command)

	require.NoError(t, listener.Poll(context.Background()))
	err := listener.Poll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offset 2")
	assert.Equal(t, 2, command.calls)

	// Offset 3 is never fetched, so the cumulative commit stays at 1 and the
	// group resumes from the failed message.
	assert.Equal(t, []int64{1}, reader.committed)
	assert.Len(t, reader.messages, 1)
}

func TestKafkaListenerRetriesInPlace(t *testing.T) {
	reader := &fakeReader{messages: uploadMessages()}
	command := &payloadCommand{BaseCommand: *cor.NewBaseCommand("payload"), fail: "bad", failures: 1}
	listener := NewKafkaListener(reader, "uploads", command).WithRetry(3, time.Millisecond)

	for i := 0; i < 3; i++ {
		require.NoError(t, listener.Poll(context.Background()))
	}
	assert.Equal(t, 2, command.calls)
	assert.Equal(t, []int64{1, 2, 3}, reader.committed)
	assert.Error(t, listener.Poll(context.Background()))
}

func TestKafkaListenerDeadLettersThenCommits(t *testing.T) {
	reader := &fakeReader{messages: uploadMessages()}
	writer := &fakeWriter{}
	command := &payloadCommand{BaseCommand: *cor.NewBaseCommand("payload"), fail: "bad"}
	listener := NewKafkaListener(reader, "uploads", command).WithRetry(2, 0).WithDeadLetter(writer)

	for i := 0; i < 3; i++ {
		require.NoError(t, listener.Poll(context.Background()))
	}
	assert.Equal(t, []int64{1, 2, 3}, reader.committed)
	require.Len(t, writer.written, 1)

	dead := writer.written[0]
	assert.Equal(t, []byte("bad"), dead.Value)
	assert.Empty(t, dead.Topic)
	headers := map[string]string{}
	for _, h := range dead.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "uploads", headers[HeaderSourceTopic])
	assert.Equal(t, "2", headers[HeaderSourceOffset])
	assert.Contains(t, headers[HeaderError], "rejected")
}

func TestKafkaListenerKeepsOffsetWhenDeadLetterFails(t *testing.T) {
	reader := &fakeReader{messages: uploadMessages()[1:]}
	writer := &fakeWriter{err: errors.New("broker down")}
	command := &payloadCommand{BaseCommand: *cor.NewBaseCommand("payload"), fail: "bad"}
	listener := NewKafkaListener(reader, "uploads", command).WithDeadLetter(writer)

	err := listener.Poll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.Empty(t, reader.committed)
}

func TestKafkaListenerRetryStopsOnCancel(t *testing.T) {
	reader := &fakeReader{messages: uploadMessages()[1:2]}
	command := &payloadCommand{BaseCommand: *cor.NewBaseCommand("payload"), fail: "bad"}
	listener := NewKafkaListener(reader, "uploads", command).WithRetry(5, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)
	err := listener.Poll(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, command.calls)
	assert.Empty(t, reader.committed)
}
