package application

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/crmhq/crm-server/internal/domain/entity"
	repo "github.com/crmhq/crm-server/internal/domain/repository"
)

// CustomerService enforces per-user ownership over customer records.
// Every operation is scoped by the requesting owner; a record owned by
// another user is indistinguishable from a missing one.
type CustomerService struct {
	Repo    repo.CustomerRepository
	Logger  *logrus.Logger
	ES      *elasticsearch.Client
	ESIndex string
}

func NewCustomerService(r repo.CustomerRepository, logger *logrus.Logger, es *elasticsearch.Client, esIndex string) *CustomerService {
	return &CustomerService{Repo: r, Logger: logger, ES: es, ESIndex: esIndex}
}

type CustomerInput struct {
	Name  string
	Email string
	Phone string
}

func (s *CustomerService) List(ctx context.Context, ownerID int64) ([]entity.Customer, error) {
	return s.Repo.ListByOwner(ctx, ownerID)
}

// Get returns the customer and its deals, or ErrNotFound when the row
// is absent or owned by someone else.
func (s *CustomerService) Get(ctx context.Context, ownerID, id int64) (*entity.Customer, []entity.Deal, error) {
	c, err := s.Repo.GetOwned(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	deals, err := s.Repo.ListDeals(ctx, c.ID)
	if err != nil {
		return nil, nil, err
	}
	return c, deals, nil
}

func (s *CustomerService) Create(ctx context.Context, ownerID int64, in CustomerInput) (*entity.Customer, error) {
	c := &entity.Customer{
		UserID: ownerID,
		Name:   in.Name,
		Email:  in.Email,
		Phone:  in.Phone,
	}
	if err := s.Repo.Create(ctx, c); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, NewValidationError("email", "Customer with this Email already exists.")
		}
		return nil, err
	}
	s.indexCustomer(ctx, c)
	return c, nil
}

func (s *CustomerService) Update(ctx context.Context, ownerID, id int64, in CustomerInput) (*entity.Customer, error) {
	c, err := s.Repo.GetOwned(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	c.Name = in.Name
	c.Email = in.Email
	c.Phone = in.Phone
	if err := s.Repo.Update(ctx, c); err != nil {
		switch {
		case errors.Is(err, repo.ErrDuplicateEmail):
			return nil, NewValidationError("email", "Customer with this Email already exists.")
		case errors.Is(err, repo.ErrNotFound):
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.indexCustomer(ctx, c)
	return c, nil
}

func (s *CustomerService) Delete(ctx context.Context, ownerID, id int64) error {
	if err := s.Repo.Delete(ctx, ownerID, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.removeFromIndex(ctx, id)
	return nil
}

// BulkDelete removes the owned subset of ids and returns how many rows
// were deleted. Zero can mean "not yours" or "never existed"; the two
// are deliberately conflated.
func (s *CustomerService) BulkDelete(ctx context.Context, ownerID int64, ids []int64) (int64, error) {
	n, err := s.Repo.DeleteMany(ctx, ownerID, ids)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		s.removeFromIndex(ctx, id)
	}
	return n, nil
}

func (s *CustomerService) indexCustomer(ctx context.Context, c *entity.Customer) {
	if s.ES == nil || s.ESIndex == "" {
		return
	}
	doc := map[string]any{
		"id":         c.ID,
		"owner_id":   c.UserID,
		"name":       c.Name,
		"email":      c.Email,
		"phone":      c.Phone,
		"created_at": c.CreatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESIndex, DocumentID: strconv.FormatInt(c.ID, 10), Body: strings.NewReader(string(b)), Refresh: "false"}
	cctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(cctx, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("customer_id", c.ID).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("customer_id", c.ID).Warn("es index response error")
	}
}

func (s *CustomerService) removeFromIndex(ctx context.Context, id int64) {
	if s.ES == nil || s.ESIndex == "" {
		return
	}
	req := esapi.DeleteRequest{Index: s.ESIndex, DocumentID: strconv.FormatInt(id, 10)}
	cctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(cctx, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("customer_id", id).Warn("es delete failed")
		}
		return
	}
	_ = res.Body.Close()
}

// Search runs an owner-scoped multi_match over name, email and phone.
// Best-effort: with no ES configured it returns an empty result.
func (s *CustomerService) Search(ctx context.Context, ownerID int64, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":  q,
						"fields": []string{"name^2", "email", "phone"},
					},
				},
				"filter": map[string]any{
					"term": map[string]any{"owner_id": ownerID},
				},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	cctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(cctx), s.ES.Search.WithIndex(s.ESIndex), s.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
