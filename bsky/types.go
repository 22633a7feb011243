package bsky

// Session is the credential set returned by createSession/refreshSession.
type Session struct {
	DID        string `json:"did"`
	Handle     string `json:"handle"`
	AccessJwt  string `json:"accessJwt"`
	RefreshJwt string `json:"refreshJwt"`
}

// Actor identifies an account.
type Actor struct {
	DID         string `json:"did"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName"`
}

// PostRecord is the authored content of a post. Non-post records decode
// with Text empty.
type PostRecord struct {
	Type      string `json:"$type"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
}

// PostView is a hydrated post as feed endpoints return it.
type PostView struct {
	URI       string     `json:"uri"`
	CID       string     `json:"cid"`
	Author    Actor      `json:"author"`
	Record    PostRecord `json:"record"`
	IndexedAt string     `json:"indexedAt"`
}

type feedItem struct {
	Post   PostView `json:"post"`
	Reason *struct {
		Type string `json:"$type"`
	} `json:"reason"`
}

type timelineResponse struct {
	Cursor string     `json:"cursor"`
	Feed   []feedItem `json:"feed"`
}

// NotificationView is one entry of listNotifications. Record carries the
// record that caused the notification.
type NotificationView struct {
	URI       string     `json:"uri"`
	CID       string     `json:"cid"`
	Author    Actor      `json:"author"`
	Reason    string     `json:"reason"`
	Record    PostRecord `json:"record"`
	IsRead    bool       `json:"isRead"`
	IndexedAt string     `json:"indexedAt"`
}

type notificationsResponse struct {
	Cursor        string             `json:"cursor"`
	Notifications []NotificationView `json:"notifications"`
}

// Convo is a chat conversation.
type Convo struct {
	ID          string       `json:"id"`
	Rev         string       `json:"rev"`
	Members     []Actor      `json:"members"`
	UnreadCount int          `json:"unreadCount"`
	LastMessage *ChatMessage `json:"lastMessage"`
}

// ChatMessage is one message inside a conversation.
type ChatMessage struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Sender Actor  `json:"sender"`
	SentAt string `json:"sentAt"`
}
