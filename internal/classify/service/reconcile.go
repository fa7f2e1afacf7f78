package service

import (
	"fmt"
	"time"

	"github.com/smallbiznis/viptagger/internal/classify/domain"
	"github.com/smallbiznis/viptagger/internal/config"
	"github.com/smallbiznis/viptagger/internal/shopify"
)

// Reconcile decides whether a tag-add and note-append are required.
// The VIP sentinel already present short-circuits every other check, which
// is what keeps duplicate webhook deliveries and overlapping sweeps from
// double-tagging. Threshold comparison is >=.
func Reconcile(currentTags []string, spend float64, policy config.Policy, now time.Time) domain.Decision {
	if shopify.HasTag(currentTags, policy.VIPTag) {
		return domain.Decision{Kind: domain.DecisionAlreadyTagged}
	}
	if spend < policy.SpendThreshold {
		return domain.Decision{Kind: domain.DecisionBelowThreshold}
	}

	tags := make([]string, 0, len(currentTags)+1)
	tags = append(tags, currentTags...)
	tags = append(tags, policy.VIPTag)

	note := fmt.Sprintf("Tagged as %s on %s (Lifetime spend: %s%.2f)",
		policy.VIPTag,
		now.UTC().Format(time.RFC3339),
		policy.CurrencySymbol,
		spend,
	)

	return domain.Decision{Kind: domain.DecisionApply, Tags: tags, Note: note}
}
