package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/disgo/webhook"
	"github.com/disgoorg/snowflake/v2"

	"voicemix/logger"
)

var ErrNoAttachment = errors.New("discord accepted the message but returned no attachment")

// Discord publishes files as webhook attachments and returns the CDN URL.
type Discord struct {
	client   webhook.Client
	threadID snowflake.ID
	logger   *slog.Logger
}

// NewDiscord parses a webhook URL. threadID is optional.
func NewDiscord(webhookURL, threadID string, opts ...webhook.ConfigOpt) (*Discord, error) {
	client, err := webhook.NewWithURL(webhookURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook URL: %w", err)
	}

	var thread snowflake.ID
	if threadID != "" {
		thread, err = snowflake.Parse(threadID)
		if err != nil {
			return nil, fmt.Errorf("invalid thread id %q: %w", threadID, err)
		}
	}

	return &Discord{
		client:   client,
		threadID: thread,
		logger:   logger.WithComponent("publish.discord"),
	}, nil
}

func (d *Discord) Publish(ctx context.Context, localPath, folder, publicID string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	key := ObjectKey(localPath, folder, publicID)
	msg := discord.NewWebhookMessageCreateBuilder().
		SetContent(fmt.Sprintf("📁 `%s`", key)).
		AddFile(filepath.Base(key), key, f).
		Build()

	created, err := d.client.CreateMessageInThread(msg, d.threadID, rest.WithCtx(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to post %s to Discord: %w", key, err)
	}
	if created == nil || len(created.Attachments) == 0 {
		return "", ErrNoAttachment
	}

	url := created.Attachments[0].URL
	d.logger.Info("Published file", slog.String("key", key), slog.String("url", url))
	return url, nil
}

func (d *Discord) Close() error {
	d.client.Close(context.Background())
	return nil
}
