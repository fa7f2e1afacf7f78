package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SHOPIFY_STORE", "demo.myshopify.com")
	t.Setenv("SHOPIFY_ACCESS_TOKEN", "shpat_test")

	cfg := Load()

	assert.Equal(t, "viptagger", cfg.AppName)
	assert.Equal(t, "2023-10", cfg.APIVersion)
	assert.Equal(t, 250, cfg.PageSize)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 24*time.Hour, cfg.SweepInterval)
	assert.True(t, cfg.SweepOnStart)
	assert.Equal(t, 1, cfg.SweepWorkers)
	require.NoError(t, cfg.Validate())
}

func TestValidateRequiresPlatformCredentials(t *testing.T) {
	cfg := Config{PageSize: 250}
	require.ErrorIs(t, cfg.Validate(), ErrMissingShopDomain)

	cfg.ShopDomain = "demo.myshopify.com"
	require.ErrorIs(t, cfg.Validate(), ErrMissingAccessToken)

	cfg.AccessToken = "shpat_test"
	require.NoError(t, cfg.Validate())

	cfg.PageSize = 500
	require.Error(t, cfg.Validate())
}

func TestDefaultPolicy(t *testing.T) {
	t.Setenv("VIP_SPEND_THRESHOLD", "2500.50")

	policy := DefaultPolicy()

	assert.Equal(t, 2500.50, policy.SpendThreshold)
	assert.Equal(t, "VIP-Customer", policy.VIPTag)
	assert.True(t, policy.IsCollected("paid"))
	assert.True(t, policy.IsCollected("PARTIALLY_PAID"))
	assert.False(t, policy.IsCollected("refunded"))
	assert.False(t, policy.IsCollected("pending"))
}

func TestPolicyHolderFallsBackToDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	holder, err := NewPolicyHolder()
	require.NoError(t, err)

	policy := holder.Get()
	assert.Equal(t, "VIP-Customer", policy.VIPTag)
	assert.Equal(t, []string{"paid", "partially_paid"}, policy.CollectedStatuses)
}
