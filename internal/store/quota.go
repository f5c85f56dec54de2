package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/teresa-solution/workspace-service/internal/quota"
)

// txUsage reads quota usage inside an open transaction. The tenant row is
// locked FOR UPDATE, so concurrent inserts for the same tenant queue behind
// the lock and see each other's rows when they count.
type txUsage struct {
	tx pgx.Tx
}

func (u txUsage) Usage(ctx context.Context, tenantID uuid.UUID, r quota.Resource) (quota.Usage, error) {
	var limitQuery, countQuery string
	switch r {
	case quota.Users:
		limitQuery = `SELECT max_users FROM tenants WHERE id = $1 FOR UPDATE`
		countQuery = `SELECT COUNT(*) FROM users WHERE tenant_id = $1`
	case quota.Projects:
		limitQuery = `SELECT max_projects FROM tenants WHERE id = $1 FOR UPDATE`
		countQuery = `SELECT COUNT(*) FROM projects WHERE tenant_id = $1`
	default:
		return quota.Usage{}, fmt.Errorf("unknown quota resource %q", r)
	}

	var usage quota.Usage
	err := u.tx.QueryRow(ctx, limitQuery, tenantID).Scan(&usage.Limit)
	if errors.Is(err, pgx.ErrNoRows) {
		return quota.Usage{}, ErrNotFound
	}
	if err != nil {
		return quota.Usage{}, err
	}
	if err := u.tx.QueryRow(ctx, countQuery, tenantID).Scan(&usage.Count); err != nil {
		return quota.Usage{}, err
	}
	return usage, nil
}
