package repository

import (
	"context"

	"github.com/crmhq/crm-server/internal/domain/entity"
)

// CustomerRepository defines owner-scoped customer persistence.
// Every read and mutation carries the owner id; a row owned by someone
// else behaves exactly like a missing row.
type CustomerRepository interface {
	Create(ctx context.Context, c *entity.Customer) error
	GetOwned(ctx context.Context, ownerID, id int64) (*entity.Customer, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]entity.Customer, error)
	Update(ctx context.Context, c *entity.Customer) error
	Delete(ctx context.Context, ownerID, id int64) error
	// DeleteMany removes the owned subset of ids in a single statement
	// and reports how many rows went away.
	DeleteMany(ctx context.Context, ownerID int64, ids []int64) (int64, error)
	ListDeals(ctx context.Context, customerID int64) ([]entity.Deal, error)
}
