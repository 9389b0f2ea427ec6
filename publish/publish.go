// Package publish makes produced audio files available outside the local
// data directory.
package publish

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"voicemix/config"
)

var ErrUnknownBackend = errors.New("unknown publish backend")

// Publisher uploads a local file under folder/publicID and returns a locator
// for it. An empty locator with a nil error means nothing was published.
type Publisher interface {
	Publish(ctx context.Context, localPath, folder, publicID string) (string, error)
	Close() error
}

// Nop publishes nothing.
type Nop struct{}

func (Nop) Publish(context.Context, string, string, string) (string, error) { return "", nil }

func (Nop) Close() error { return nil }

// New builds the publisher selected by cfg.Backend.
func New(cfg config.PublishConfig) (Publisher, error) {
	switch cfg.Backend {
	case "", "none":
		return Nop{}, nil
	case "nats":
		return ConnectNATS(cfg.NATSURL, cfg.Bucket)
	case "discord":
		return NewDiscord(cfg.WebhookURL, cfg.ThreadID)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Backend)
	}
}

// ObjectKey joins folder and publicID, keeping the file's extension. An
// empty publicID falls back to the file's stem.
func ObjectKey(localPath, folder, publicID string) string {
	ext := filepath.Ext(localPath)
	if publicID == "" {
		publicID = strings.TrimSuffix(filepath.Base(localPath), ext)
	}
	name := publicID + ext
	if folder == "" {
		return name
	}
	return strings.Trim(folder, "/") + "/" + name
}
