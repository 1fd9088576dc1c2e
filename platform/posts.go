package platform

import (
	"context"
	"errors"
	"net/http"
)

type Post struct {
	ID        string         `json:"id"`
	ChannelID string         `json:"channel_id"`
	Message   string         `json:"message"`
	Props     map[string]any `json:"props,omitempty"`
	FileIDs   []string       `json:"file_ids,omitempty"`
}

func (c *Client) CreatePost(ctx context.Context, post Post) (Post, error) {
	var out Post
	if err := c.do(ctx, http.MethodPost, "/posts", post, &out); err != nil {
		return Post{}, err
	}
	return out, nil
}

func (c *Client) GetPost(ctx context.Context, postID string) (Post, error) {
	var out Post
	if err := c.do(ctx, http.MethodGet, "/posts/"+postID, nil, &out); err != nil {
		return Post{}, err
	}
	return out, nil
}

// PostExists maps ErrNotFound to (false, nil) so callers can treat a
// deleted message as an ordinary state, not a failure.
func (c *Client) PostExists(ctx context.Context, postID string) (bool, error) {
	_, err := c.GetPost(ctx, postID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *Client) UpdatePost(ctx context.Context, postID, message string, props map[string]any) error {
	if props == nil {
		props = map[string]any{}
	}
	body := map[string]any{
		"id":      postID,
		"message": message,
		"props":   props,
	}
	return c.do(ctx, http.MethodPut, "/posts/"+postID, body, nil)
}

func (c *Client) DeletePost(ctx context.Context, postID string) error {
	return c.do(ctx, http.MethodDelete, "/posts/"+postID, nil, nil)
}
