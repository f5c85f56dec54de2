package monitoring

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// QuotaAlert reports a tenant that hit one of its plan caps (logs for now)
func QuotaAlert(ctx context.Context, tenantID uuid.UUID, resource string) {
	QuotaRejections.WithLabelValues(resource).Inc()
	log.Ctx(ctx).Warn().
		Str("alert", "quota_exhausted").
		Str("tenant_id", tenantID.String()).
		Str("resource", resource).
		Msg("ALERT: Tenant reached its plan limit")
}
