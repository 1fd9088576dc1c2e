package platform

import (
	"context"
	"net/http"
)

type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type Channel struct {
	ID string `json:"id"`
}

func (c *Client) GetUser(ctx context.Context, userID string) (User, error) {
	var out User
	if err := c.do(ctx, http.MethodGet, "/users/"+userID, nil, &out); err != nil {
		return User{}, err
	}
	return out, nil
}

// Me returns the bot's own account, needed to open direct channels.
func (c *Client) Me(ctx context.Context) (User, error) {
	return c.GetUser(ctx, "me")
}

// CreateDirectChannel opens (or returns) the DM channel between the two
// users.
func (c *Client) CreateDirectChannel(ctx context.Context, userIDA, userIDB string) (Channel, error) {
	var out Channel
	if err := c.do(ctx, http.MethodPost, "/channels/direct", []string{userIDA, userIDB}, &out); err != nil {
		return Channel{}, err
	}
	return out, nil
}
