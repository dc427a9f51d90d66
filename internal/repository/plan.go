package repository

import (
	"context"

	"github.com/reqini/catalogo-indumentaria-sub002/internal/importer"
)

// LocalPlanChecker enforces a configured product cap against the local
// database. Used when no billing-service is deployed; a cap of 0 means
// unlimited.
type LocalPlanChecker struct {
	repo        *CatalogRepository
	maxProducts int
}

func NewLocalPlanChecker(repo *CatalogRepository, maxProducts int) *LocalPlanChecker {
	return &LocalPlanChecker{repo: repo, maxProducts: maxProducts}
}

func (c *LocalPlanChecker) CheckLimit(ctx context.Context, tenantID, resource string) (*importer.PlanLimit, error) {
	if c.maxProducts <= 0 {
		return &importer.PlanLimit{Allowed: true, Current: 0, Limit: -1}, nil
	}
	current, err := c.repo.CountProducts(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return &importer.PlanLimit{
		Allowed: int(current) < c.maxProducts,
		Current: int(current),
		Limit:   c.maxProducts,
	}, nil
}
