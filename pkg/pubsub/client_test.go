package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventloom/finance-backend/pkg/config"
)

func TestTopicResourceName(t *testing.T) {
	assert.Equal(t, "projects/eventloom/topics/finance-events", TopicResourceName("eventloom", "finance-events"))
	assert.Equal(t, "projects/other/topics/x", TopicResourceName("eventloom", "projects/other/topics/x"))
	assert.Empty(t, TopicResourceName("eventloom", "  "))
	assert.Empty(t, TopicResourceName("", "finance-events"))
}

func TestNewClientRequiresProjectAndTopic(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{FinanceTopic: "finance-events"}, nil)
	require.ErrorIs(t, err, errProjectIDRequired)

	_, err = NewClient(context.Background(), config.GCPConfig{ProjectID: "eventloom"}, config.PubSubConfig{}, nil)
	require.ErrorIs(t, err, errTopicRequired)
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	assert.NoError(t, c.Close())
	assert.Error(t, c.Ping(context.Background()))
	_, err := c.Publish(context.Background(), []byte("{}"), nil)
	assert.Error(t, err)
}

func TestClientOptionsPrefersInlineCredentials(t *testing.T) {
	assert.Empty(t, clientOptions(config.GCPConfig{ProjectID: "eventloom"}))
	assert.Len(t, clientOptions(config.GCPConfig{CredentialsJSON: `{"type":"service_account"}`, ApplicationCredentials: "/tmp/sa.json"}), 1)
	assert.Len(t, clientOptions(config.GCPConfig{ApplicationCredentials: "/tmp/sa.json"}), 1)
}
