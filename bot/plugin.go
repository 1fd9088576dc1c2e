// Package bot carries the plugin-side helpers handlers call to talk to the
// platform while keeping the UI record index in sync, so endpoint migration
// can later find every message that embeds a callback URL.
package bot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/Sadisms/mm-tools/migrate"
	"github.com/Sadisms/mm-tools/platform"
)

// Client is the platform surface the plugin helpers use; *platform.Client
// satisfies it.
type Client interface {
	CreatePost(ctx context.Context, post platform.Post) (platform.Post, error)
	UpdatePost(ctx context.Context, postID, message string, props map[string]any) error
	DeletePost(ctx context.Context, postID string) error
	GetUser(ctx context.Context, userID string) (platform.User, error)
	Me(ctx context.Context) (platform.User, error)
	CreateDirectChannel(ctx context.Context, userIDA, userIDB string) (platform.Channel, error)
	UploadFile(ctx context.Context, channelID, filename string, content io.Reader) (string, error)
	GetFile(ctx context.Context, fileID string) ([]byte, error)
}

type Plugin struct {
	client  Client
	records migrate.RecordStore
	logger  *slog.Logger

	mu        sync.Mutex
	botID     string
	userCache map[string]platform.User
	dmCache   map[string]string
}

func NewPlugin(client Client, records migrate.RecordStore, logger *slog.Logger) *Plugin {
	if logger == nil {
		logger = slog.Default()
	}
	return &Plugin{
		client:    client,
		records:   records,
		logger:    logger,
		userCache: map[string]platform.User{},
		dmCache:   map[string]string{},
	}
}

// CreatePostWithRecord posts a message and, when its props embed a callback
// URL, remembers it in the UI record index. With an empty channelID the
// message goes to the receiver's DM channel.
func (p *Plugin) CreatePostWithRecord(ctx context.Context, channelID, receiverID, message string, props map[string]any) (platform.Post, error) {
	if channelID == "" && receiverID != "" {
		dm, err := p.DirectChannel(ctx, receiverID)
		if err != nil {
			return platform.Post{}, err
		}
		channelID = dm
	}
	if channelID == "" {
		return platform.Post{}, fmt.Errorf("channel_id or receiver_id is required")
	}

	post, err := p.client.CreatePost(ctx, platform.Post{
		ChannelID: channelID,
		Message:   message,
		Props:     props,
	})
	if err != nil {
		return platform.Post{}, err
	}

	if url, ok := migrate.FindURL(props); ok {
		err := p.records.Put(ctx, migrate.Record{
			MessageID:       post.ID,
			Props:           props,
			Message:         message,
			CallbackBaseURL: url,
		})
		if err != nil {
			p.logger.Warn("ui_record_put_failed", "message_id", post.ID, "error", err.Error())
		}
	}
	return post, nil
}

// UpdateMessage updates a post and keeps its UI record in step: an existing
// record is refreshed, and props that newly embed a URL create one.
func (p *Plugin) UpdateMessage(ctx context.Context, postID, message string, props map[string]any) error {
	if props == nil {
		props = map[string]any{}
	}
	if err := p.client.UpdatePost(ctx, postID, message, props); err != nil {
		return err
	}

	_, found, err := p.records.Get(ctx, postID)
	if err != nil {
		return err
	}
	url, hasURL := migrate.FindURL(props)
	switch {
	case found && !hasURL:
		return p.records.Delete(ctx, postID)
	case found || hasURL:
		return p.records.Put(ctx, migrate.Record{
			MessageID:       postID,
			Props:           props,
			Message:         message,
			CallbackBaseURL: url,
		})
	}
	return nil
}

// DeleteMessage removes the post and its record.
func (p *Plugin) DeleteMessage(ctx context.Context, postID string) error {
	if err := p.client.DeletePost(ctx, postID); err != nil {
		return err
	}
	return p.records.Delete(ctx, postID)
}

// SendFiles uploads files and posts them as one message.
func (p *Plugin) SendFiles(ctx context.Context, channelID string, files map[string]io.Reader) (platform.Post, error) {
	fileIDs := make([]string, 0, len(files))
	for name, content := range files {
		id, err := p.client.UploadFile(ctx, channelID, name, content)
		if err != nil {
			return platform.Post{}, err
		}
		fileIDs = append(fileIDs, id)
	}
	return p.client.CreatePost(ctx, platform.Post{
		ChannelID: channelID,
		FileIDs:   fileIDs,
	})
}

// User returns the user's profile, cached for the process lifetime.
func (p *Plugin) User(ctx context.Context, userID string) (platform.User, error) {
	p.mu.Lock()
	cached, ok := p.userCache[userID]
	p.mu.Unlock()
	if ok {
		return cached, nil
	}
	user, err := p.client.GetUser(ctx, userID)
	if err != nil {
		return platform.User{}, err
	}
	p.mu.Lock()
	p.userCache[userID] = user
	p.mu.Unlock()
	return user, nil
}

func (p *Plugin) Username(ctx context.Context, userID string) (string, error) {
	user, err := p.User(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.Username, nil
}

// FullName prefers "First Last" and falls back to a title-cased username.
func (p *Plugin) FullName(ctx context.Context, userID string) (string, error) {
	user, err := p.User(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.FirstName != "" && user.LastName != "" {
		return user.FirstName + " " + user.LastName, nil
	}
	return titleCase(user.Username), nil
}

// DirectChannel returns the DM channel id between the bot and userID,
// cached for the process lifetime.
func (p *Plugin) DirectChannel(ctx context.Context, userID string) (string, error) {
	p.mu.Lock()
	cached, ok := p.dmCache[userID]
	botID := p.botID
	p.mu.Unlock()
	if ok {
		return cached, nil
	}

	if botID == "" {
		me, err := p.client.Me(ctx)
		if err != nil {
			return "", err
		}
		botID = me.ID
		p.mu.Lock()
		p.botID = botID
		p.mu.Unlock()
	}

	channel, err := p.client.CreateDirectChannel(ctx, botID, userID)
	if err != nil {
		return "", err
	}
	p.mu.Lock()
	p.dmCache[userID] = channel.ID
	p.mu.Unlock()
	return channel.ID, nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
