package domain

// EventTypePost is the message name under which canonical post events are
// published, and the value of the "type" field in the payload.
const EventTypePost = "post"

// PostEvent is the canonical event both upstream streams normalize into.
// CreatedAt carries the upstream ISO-8601 timestamp verbatim; the pipeline
// never parses or reformats it.
type PostEvent struct {
	DID       string
	Text      string
	CreatedAt string
}

// Message returns the payload published to the topic. The field names are
// the consumer-facing contract and must not change.
func (e PostEvent) Message() TopicMessage {
	return TopicMessage{
		Type:      EventTypePost,
		DID:       e.DID,
		Text:      e.Text,
		Timestamp: e.CreatedAt,
	}
}

// TopicMessage is the JSON shape consumers of the topic receive.
type TopicMessage struct {
	Type      string `json:"type"`
	DID       string `json:"did"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}
