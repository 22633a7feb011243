package domain

// Notification reasons as delivered by the upstream notification feed.
const (
	ReasonMention = "mention"
	ReasonReply   = "reply"
	ReasonQuote   = "quote"
	ReasonLike    = "like"
	ReasonRepost  = "repost"
	ReasonFollow  = "follow"
)

// Notification is an upstream notification as the pipeline sees it. Text is
// populated from the attached post record when the reason carries one.
type Notification struct {
	DID       string
	Reason    string
	Text      string
	CreatedAt string
}

// Normalize converts the notification into a canonical post event. Only
// reasons that reference a post record (mentions, replies, quotes) have an
// event representation; everything else returns ErrNotPost.
func (n Notification) Normalize() (PostEvent, error) {
	switch n.Reason {
	case ReasonMention, ReasonReply, ReasonQuote:
		return PostEvent{DID: n.DID, Text: n.Text, CreatedAt: n.CreatedAt}, nil
	default:
		return PostEvent{}, ErrNotPost
	}
}
