package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crmhq/crm-server/internal/domain/entity"
	"github.com/crmhq/crm-server/internal/domain/repository"
)

type CustomerRepository struct {
	pool *pgxpool.Pool
}

func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

func (r *CustomerRepository) Create(ctx context.Context, c *entity.Customer) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO customers (user_id, name, email, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, c.UserID, c.Name, c.Email, c.Phone)

	if err := row.Scan(&c.ID, &c.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *CustomerRepository) GetOwned(ctx context.Context, ownerID, id int64) (*entity.Customer, error) {
	c := &entity.Customer{}
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, name, email, phone, created_at
		FROM customers
		WHERE id = $1 AND user_id = $2
	`, id, ownerID)

	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *CustomerRepository) ListByOwner(ctx context.Context, ownerID int64) ([]entity.Customer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, name, email, phone, created_at
		FROM customers
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]entity.Customer, 0)
	for rows.Next() {
		var c entity.Customer
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CustomerRepository) Update(ctx context.Context, c *entity.Customer) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE customers
		SET name = $1, email = $2, phone = $3
		WHERE id = $4 AND user_id = $5
	`, c.Name, c.Email, c.Phone, c.ID, c.UserID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrDuplicateEmail
		}
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *CustomerRepository) Delete(ctx context.Context, ownerID, id int64) error {
	res, err := r.pool.Exec(ctx, `
		DELETE FROM customers
		WHERE id = $1 AND user_id = $2
	`, id, ownerID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *CustomerRepository) DeleteMany(ctx context.Context, ownerID int64, ids []int64) (int64, error) {
	// Single owner-scoped statement, so there is no read-then-delete
	// race to worry about.
	res, err := r.pool.Exec(ctx, `
		DELETE FROM customers
		WHERE id = ANY($1) AND user_id = $2
	`, ids, ownerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

func (r *CustomerRepository) ListDeals(ctx context.Context, customerID int64) ([]entity.Deal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, customer_id, title, amount, created_at
		FROM deals
		WHERE customer_id = $1
		ORDER BY created_at DESC, id DESC
	`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]entity.Deal, 0)
	for rows.Next() {
		var d entity.Deal
		if err := rows.Scan(&d.ID, &d.CustomerID, &d.Title, &d.Amount, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

var _ repository.CustomerRepository = (*CustomerRepository)(nil)
