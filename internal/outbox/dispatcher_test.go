package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
)

type captureWriter struct {
	batches map[string][]kafka.Message
	err     error
}

func (c *captureWriter) WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error {
	if c.err != nil {
		return c.err
	}
	if c.batches == nil {
		c.batches = make(map[string][]kafka.Message)
	}
	c.batches[topic] = append(c.batches[topic], msgs...)
	return nil
}

func TestTopicFor(t *testing.T) {
	if topic, ok := TopicFor("completion.recorded"); !ok || topic != TopicCompletions {
		t.Fatalf("completion.recorded -> %q, %v", topic, ok)
	}
	if topic, ok := TopicFor("goal.reached"); !ok || topic != TopicGoals {
		t.Fatalf("goal.reached -> %q, %v", topic, ok)
	}
	if _, ok := TopicFor("something.else"); ok {
		t.Fatal("unknown event type mapped to a topic")
	}
}

func TestDeliverGroupsByTopicWithHeaders(t *testing.T) {
	writer := &captureWriter{}
	d := &Dispatcher{producer: writer}

	messages := []Message{
		{EventID: 1, OwnerID: "u1", EventType: "completion.recorded", Topic: TopicCompletions, PartitionKey: "u1", Payload: json.RawMessage(`{"a":1}`)},
		{EventID: 2, OwnerID: "u1", EventType: "goal.reached", Topic: TopicGoals, PartitionKey: "u1", Payload: json.RawMessage(`{"b":2}`)},
		{EventID: 3, OwnerID: "u2", EventType: "completion.recorded", Topic: TopicCompletions, PartitionKey: "u2", Payload: json.RawMessage(`{"c":3}`)},
	}
	if err := d.deliver(context.Background(), messages); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	if len(writer.batches[TopicCompletions]) != 2 {
		t.Fatalf("completions batch = %d messages", len(writer.batches[TopicCompletions]))
	}
	if len(writer.batches[TopicGoals]) != 1 {
		t.Fatalf("goals batch = %d messages", len(writer.batches[TopicGoals]))
	}

	first := writer.batches[TopicCompletions][0]
	if string(first.Key) != "u1" {
		t.Fatalf("partition key = %q", first.Key)
	}
	if len(first.Headers) != 1 || first.Headers[0].Key != "event_type" || string(first.Headers[0].Value) != "completion.recorded" {
		t.Fatalf("headers = %+v", first.Headers)
	}
}

func TestDeliverPropagatesWriterError(t *testing.T) {
	wantErr := errors.New("broker down")
	d := &Dispatcher{producer: &captureWriter{err: wantErr}}

	err := d.deliver(context.Background(), []Message{
		{EventID: 1, Topic: TopicCompletions, EventType: "completion.recorded", PartitionKey: "u1", Payload: json.RawMessage(`{}`)},
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v", err)
	}
}
