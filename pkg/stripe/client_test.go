package stripe

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventloom/finance-backend/pkg/config"
)

func TestNewClientValidatesKeyAgainstEnv(t *testing.T) {
	ctx := context.Background()

	_, err := NewClient(ctx, config.StripeConfig{Env: "test"}, nil)
	assert.ErrorIs(t, err, errAPIKeyRequired)

	_, err = NewClient(ctx, config.StripeConfig{APIKey: "sk_live_abc", Env: "test"}, nil)
	assert.Error(t, err)

	_, err = NewClient(ctx, config.StripeConfig{APIKey: "sk_test_abc", Env: "staging"}, nil)
	assert.ErrorIs(t, err, errInvalidStripeEnv)

	client, err := NewClient(ctx, config.StripeConfig{APIKey: "sk_test_abc", Env: " TEST "}, nil)
	require.NoError(t, err)
	assert.Equal(t, "test", client.Environment())
	assert.Equal(t, "usd", client.Currency())
	assert.NotNil(t, client.API())
}

func TestAdapterRejectsBadRequestsBeforeCallingStripe(t *testing.T) {
	client, err := NewClient(context.Background(), config.StripeConfig{APIKey: "rk_test_abc", Currency: "EUR"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "eur", client.Currency())

	adapter, err := NewAdapter(client)
	require.NoError(t, err)

	assert.Error(t, adapter.Capture(context.Background(), "  "))

	_, err = adapter.Transfer(context.Background(), TransferRequest{AmountCents: 100, Destination: "acct_1"})
	assert.Error(t, err)
	_, err = adapter.Transfer(context.Background(), TransferRequest{PayoutID: uuid.New(), Destination: "acct_1"})
	assert.Error(t, err)
	_, err = adapter.Transfer(context.Background(), TransferRequest{PayoutID: uuid.New(), AmountCents: 100})
	assert.Error(t, err)

	_, err = NewAdapter(nil)
	assert.Error(t, err)
}
