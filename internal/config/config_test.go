package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GATEWAY_ENV", "")
	t.Setenv("GATEWAY_HOST", "")
	t.Setenv("API_PREFIX", "")
	t.Setenv("SESSION_TTL", "")

	cfg := Load()

	assert.Equal(t, "/api", cfg.APIPrefix)
	assert.Equal(t, 15*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 15*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, "https://securegw-stage.paytm.in/v3/order/status", cfg.Gateway.StatusURL())
	assert.Equal(t, CallbackFallbackPending, cfg.CallbackFallback)
}

func TestLoadProductionHost(t *testing.T) {
	t.Setenv("GATEWAY_ENV", "production")
	t.Setenv("GATEWAY_HOST", "")

	cfg := Load()
	assert.Equal(t, "https://securegw.paytm.in/order/process", cfg.Gateway.PaymentURL())
	assert.Equal(t, "https://securegw.paytm.in/v1/disburse/order/settlement", cfg.Gateway.SettlementURL())
}

func TestLoadInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("GATEWAY_TIMEOUT", "soon")
	cfg := Load()
	assert.Equal(t, 15*time.Second, cfg.Gateway.Timeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "missing credentials",
			cfg:     Config{CallbackFallback: CallbackFallbackPending},
			wantErr: true,
		},
		{
			name: "bad fallback policy",
			cfg: Config{
				Gateway:          Gateway{MerchantID: "MID", MerchantKey: "KEY"},
				CallbackFallback: "trust-me",
			},
			wantErr: true,
		},
		{
			name: "valid",
			cfg: Config{
				Gateway:          Gateway{MerchantID: "MID", MerchantKey: "KEY"},
				CallbackFallback: CallbackFallbackCallback,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}
