package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"voicemix/logger"
)

// NATSStore publishes files into a JetStream object-store bucket.
type NATSStore struct {
	conn   *nats.Conn
	owned  bool
	bucket string
	store  nats.ObjectStore
	logger *slog.Logger
}

// ConnectNATS dials url and binds the bucket. The connection is closed by Close.
func ConnectNATS(url, bucket string) (*NATSStore, error) {
	nc, err := nats.Connect(url, nats.Name("voicemix"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}
	s, err := NewNATSStore(js, bucket)
	if err != nil {
		nc.Close()
		return nil, err
	}
	s.conn = nc
	s.owned = true
	return s, nil
}

// NewNATSStore creates the bucket, or binds to it if it already exists.
func NewNATSStore(js nats.JetStreamContext, bucket string) (*NATSStore, error) {
	store, err := js.CreateObjectStore(&nats.ObjectStoreConfig{
		Bucket:      bucket,
		Description: fmt.Sprintf("Published audio for the %s bucket.", bucket),
		Storage:     nats.FileStorage,
		Replicas:    1,
	})
	if err != nil {
		if !errors.Is(err, jetstream.ErrBucketExists) && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
			return nil, fmt.Errorf("failed to create object store bucket '%s': %w", bucket, err)
		}
		store, err = js.ObjectStore(bucket)
		if err != nil {
			return nil, fmt.Errorf("failed to bind to existing object store bucket '%s': %w", bucket, err)
		}
	}

	return &NATSStore{
		bucket: bucket,
		store:  store,
		logger: logger.WithComponent("publish.nats"),
	}, nil
}

// Publish uploads localPath and returns nats://<bucket>/<key>.
func (n *NATSStore) Publish(ctx context.Context, localPath, folder, publicID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	key := ObjectKey(localPath, folder, publicID)
	info, err := n.store.Put(&nats.ObjectMeta{Name: key}, f, nats.Context(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to put object '%s' to bucket '%s': %w", key, n.bucket, err)
	}

	n.logger.Info("Published file",
		slog.String("key", key),
		slog.Uint64("bytes", info.Size))

	return fmt.Sprintf("nats://%s/%s", n.bucket, key), nil
}

// Fetch reads a published object back.
func (n *NATSStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	obj, err := n.store.Get(key, nats.Context(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to get object '%s' from bucket '%s': %w", key, n.bucket, err)
	}

	data, readErr := io.ReadAll(obj)
	closeErr := obj.Close()
	if readErr != nil {
		return nil, fmt.Errorf("failed to read object '%s': %w", key, readErr)
	}
	if closeErr != nil {
		return data, fmt.Errorf("failed to close object '%s': %w", key, closeErr)
	}
	return data, nil
}

func (n *NATSStore) Close() error {
	if n.owned && n.conn != nil {
		n.conn.Close()
	}
	return nil
}
