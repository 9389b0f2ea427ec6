package publish

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicemix/config"
)

func startTestServer(t *testing.T) *server.Server {
	t.Helper()

	opts := test.DefaultTestOptions
	opts.Port = -1
	opts.JetStream = true
	opts.StoreDir = t.TempDir()
	srv := test.RunServer(&opts)
	t.Cleanup(srv.Shutdown)
	return srv
}

func TestObjectKey(t *testing.T) {
	tests := []struct {
		path, folder, id, want string
	}{
		{"/x/a.mp3", "Merge_Audio", "a_merged", "Merge_Audio/a_merged.mp3"},
		{"/x/a.mp3", "", "", "a.mp3"},
		{"/x/a.wav", "/User_Records/", "", "User_Records/a.wav"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ObjectKey(tt.path, tt.folder, tt.id))
		})
	}
}

func TestNATSStorePublishFetch(t *testing.T) {
	srv := startTestServer(t)

	nc, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)
	defer nc.Close()

	js, err := nc.JetStream()
	require.NoError(t, err)

	store, err := NewNATSStore(js, "voicemix-test")
	require.NoError(t, err)

	local := filepath.Join(t.TempDir(), "intro_merged.mp3")
	require.NoError(t, os.WriteFile(local, []byte("mixed-audio"), 0o644))

	ctx := context.Background()
	loc, err := store.Publish(ctx, local, "Merge_Audio", "intro_merged")
	require.NoError(t, err)
	assert.Equal(t, "nats://voicemix-test/Merge_Audio/intro_merged.mp3", loc)

	data, err := store.Fetch(ctx, "Merge_Audio/intro_merged.mp3")
	require.NoError(t, err)
	assert.Equal(t, "mixed-audio", string(data))

	again, err := NewNATSStore(js, "voicemix-test")
	require.NoError(t, err, "binding to an existing bucket should succeed")
	data, err = again.Fetch(ctx, "Merge_Audio/intro_merged.mp3")
	require.NoError(t, err)
	assert.Equal(t, "mixed-audio", string(data))
}

func TestNATSStorePublishMissingFile(t *testing.T) {
	srv := startTestServer(t)

	store, err := ConnectNATS(srv.ClientURL(), "missing-test")
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Publish(context.Background(), filepath.Join(t.TempDir(), "nope.mp3"), "x", "")
	assert.Error(t, err)
}

func TestNewFromConfig(t *testing.T) {
	p, err := New(config.PublishConfig{Backend: "none"})
	require.NoError(t, err)
	loc, err := p.Publish(context.Background(), "/any", "f", "id")
	require.NoError(t, err)
	assert.Empty(t, loc)

	_, err = New(config.PublishConfig{Backend: "cloudinary"})
	assert.ErrorIs(t, err, ErrUnknownBackend)

	_, err = New(config.PublishConfig{Backend: "discord", WebhookURL: "not a webhook"})
	assert.Error(t, err)
}

func TestNewDiscordRejectsBadThread(t *testing.T) {
	_, err := NewDiscord("https://discord.com/api/webhooks/123456789012345678/token", "thread")
	assert.ErrorContains(t, err, "invalid thread id")
}
