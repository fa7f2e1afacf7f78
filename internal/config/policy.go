package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Policy is the classification tuning surface: what counts as collected
// revenue, where the VIP line sits, and how the audit note is rendered.
type Policy struct {
	SpendThreshold    float64  `mapstructure:"spendThreshold"`
	VIPTag            string   `mapstructure:"vipTag"`
	CollectedStatuses []string `mapstructure:"collectedStatuses"`
	CurrencySymbol    string   `mapstructure:"currencySymbol"`
}

// IsCollected reports whether a financial status counts toward lifetime spend.
func (p Policy) IsCollected(status string) bool {
	status = strings.ToLower(strings.TrimSpace(status))
	for _, collected := range p.CollectedStatuses {
		if status == strings.ToLower(strings.TrimSpace(collected)) {
			return true
		}
	}
	return false
}

func DefaultPolicy() Policy {
	return Policy{
		SpendThreshold:    getenvFloat("VIP_SPEND_THRESHOLD", 11000),
		VIPTag:            "VIP-Customer",
		CollectedStatuses: []string{"paid", "partially_paid"},
		CurrencySymbol:    getenv("VIP_CURRENCY_SYMBOL", "₹"),
	}
}

// PolicyHolder exposes the current classification policy and hot-reloads it
// when classification.yml changes on disk.
type PolicyHolder struct {
	current atomic.Value // holds Policy
}

func NewPolicyHolder() (*PolicyHolder, error) {
	v := viper.New()

	v.SetConfigName("classification")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/viptagger")
	v.AddConfigPath(".")

	v.SetEnvPrefix("VIPTAGGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultPolicy()
	v.SetDefault("classification.spendThreshold", defaults.SpendThreshold)
	v.SetDefault("classification.vipTag", defaults.VIPTag)
	v.SetDefault("classification.collectedStatuses", defaults.CollectedStatuses)
	v.SetDefault("classification.currencySymbol", defaults.CurrencySymbol)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	var policy Policy
	if err := v.UnmarshalKey("classification", &policy); err != nil {
		return nil, err
	}
	if err := validatePolicy(policy); err != nil {
		return nil, err
	}

	holder := &PolicyHolder{}
	holder.current.Store(policy)

	if fileFound {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			var updated Policy
			if err := v.UnmarshalKey("classification", &updated); err != nil {
				zap.L().Warn("classification policy reload failed", zap.Error(err))
				return
			}
			if err := validatePolicy(updated); err != nil {
				zap.L().Warn("invalid classification policy ignored", zap.Error(err))
				return
			}
			holder.current.Store(updated)
			zap.L().Info("classification policy reloaded", zap.String("file", e.Name))
		})
	}

	return holder, nil
}

func (h *PolicyHolder) Get() Policy {
	return h.current.Load().(Policy)
}

// StorePolicyForTest swaps the active policy. Tests only.
func (h *PolicyHolder) StorePolicyForTest(p Policy) {
	h.current.Store(p)
}

func validatePolicy(p Policy) error {
	if p.SpendThreshold < 0 {
		return errors.New("classification.spendThreshold cannot be negative")
	}
	if strings.TrimSpace(p.VIPTag) == "" {
		return errors.New("classification.vipTag cannot be empty")
	}
	if len(p.CollectedStatuses) == 0 {
		return errors.New("classification.collectedStatuses cannot be empty")
	}
	return nil
}
