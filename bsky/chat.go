package bsky

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Chat endpoints live on the chat service, reached through the PDS with a
// service proxy header.
const chatProxy = "did:web:api.bsky.chat#bsky_chat"

func (c *Client) chatGet(ctx context.Context, nsid string, params url.Values, out any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodGet, nsid, params, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Atproto-Proxy", chatProxy)
	return c.send(req, out)
}

func (c *Client) chatPost(ctx context.Context, nsid string, body, out any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, nsid, nil, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Atproto-Proxy", chatProxy)
	return c.send(req, out)
}

// ConvoForMembers returns the conversation with the given member, creating
// it if none exists yet.
func (c *Client) ConvoForMembers(ctx context.Context, members []string) (Convo, error) {
	params := url.Values{"members": members}
	var resp struct {
		Convo Convo `json:"convo"`
	}
	if err := c.chatGet(ctx, "chat.bsky.convo.getConvoForMembers", params, &resp); err != nil {
		return Convo{}, fmt.Errorf("get convo: %w", err)
	}
	return resp.Convo, nil
}

// SendMessage sends a text message into a conversation.
func (c *Client) SendMessage(ctx context.Context, convoID, text string) (ChatMessage, error) {
	body := map[string]any{
		"convoId": convoID,
		"message": map[string]string{"text": text},
	}
	var msg ChatMessage
	if err := c.chatPost(ctx, "chat.bsky.convo.sendMessage", body, &msg); err != nil {
		return ChatMessage{}, fmt.Errorf("send message: %w", err)
	}
	return msg, nil
}

// ListConvos returns the account's most recent conversations.
func (c *Client) ListConvos(ctx context.Context, limit int) ([]Convo, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var resp struct {
		Convos []Convo `json:"convos"`
	}
	if err := c.chatGet(ctx, "chat.bsky.convo.listConvos", params, &resp); err != nil {
		return nil, fmt.Errorf("list convos: %w", err)
	}
	return resp.Convos, nil
}

// Messages returns the most recent messages in a conversation, newest
// first.
func (c *Client) Messages(ctx context.Context, convoID string, limit int) ([]ChatMessage, error) {
	params := url.Values{"convoId": {convoID}}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var resp struct {
		Messages []ChatMessage `json:"messages"`
	}
	if err := c.chatGet(ctx, "chat.bsky.convo.getMessages", params, &resp); err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	return resp.Messages, nil
}
