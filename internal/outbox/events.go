// Package outbox persists and delivers planner domain events to Kafka.
package outbox

// Topics the planner publishes to.
const (
	TopicCompletions = "planner_completions"
	TopicGoals       = "planner_goals"
)

var topicCatalog = map[string]string{
	"completion.recorded": TopicCompletions,
	"goal.reached":        TopicGoals,
}

// TopicFor maps an event type to its delivery topic.
func TopicFor(eventType string) (string, bool) {
	topic, ok := topicCatalog[eventType]
	return topic, ok
}
