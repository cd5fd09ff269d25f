package customer

import (
	"context"
	"fmt"
	"strings"

	"logistics-backoffice/internal/models"

	"golang.org/x/crypto/bcrypt"
)

// ServiceInterface defines customer and address business logic.
type ServiceInterface interface {
	CreateCustomer(ctx context.Context, userID string, req models.CreateCustomerRequest) (*models.Customer, error)
	GetCustomer(ctx context.Context, userID, customerID string) (*models.Customer, error)
	ListCustomers(ctx context.Context, userID string, params models.ListParams) ([]models.Customer, int, error)
	UpdateCustomer(ctx context.Context, userID, customerID string, req models.UpdateCustomerRequest) (*models.Customer, error)
	DeleteCustomer(ctx context.Context, userID, customerID string) error

	ListAddresses(ctx context.Context, userID, customerID string) ([]models.CustomerAddress, error)
	GetAddress(ctx context.Context, userID, customerID, addressID string) (*models.CustomerAddress, error)
	AddAddress(ctx context.Context, userID, customerID string, req models.AddAddressRequest) (*models.CustomerAddress, error)
	UpdateAddress(ctx context.Context, userID, customerID, addressID string, req models.UpdateAddressRequest) (*models.CustomerAddress, error)
	DeleteAddress(ctx context.Context, userID, customerID, addressID string) error
}

type Service struct {
	repo RepositoryInterface
}

func NewService(repo RepositoryInterface) ServiceInterface {
	return &Service{repo: repo}
}

// CreateCustomer stores the customer and any initial addresses in one transaction.
// When several initial addresses are flagged primary, the last one keeps the flag.
func (s *Service) CreateCustomer(ctx context.Context, userID string, req models.CreateCustomerRequest) (*models.Customer, error) {
	customer := &models.Customer{
		Name:  strings.TrimSpace(req.Name),
		Email: strings.ToLower(strings.TrimSpace(req.Email)),
		Phone: strings.TrimSpace(req.Phone),
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("service.CreateCustomer: failed to hash password: %w", err)
		}
		customer.PasswordHash = string(hash)
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.CreateCustomer: %w", err)
	}
	defer tx.Rollback(ctx)

	txRepo := s.repo.WithTx(tx)
	created, err := txRepo.Create(ctx, userID, customer)
	if err != nil {
		return nil, fmt.Errorf("service.CreateCustomer: %w", err)
	}

	for _, addr := range req.Addresses {
		if addr.IsPrimary {
			if err := txRepo.ClearPrimaryAddress(ctx, userID, created.ID); err != nil {
				return nil, fmt.Errorf("service.CreateCustomer: %w", err)
			}
		}
		if _, err := txRepo.AddAddress(ctx, userID, created.ID, addr); err != nil {
			return nil, fmt.Errorf("service.CreateCustomer: %w", err)
		}
	}

	addresses, err := txRepo.ListAddresses(ctx, userID, created.ID)
	if err != nil {
		return nil, fmt.Errorf("service.CreateCustomer: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("service.CreateCustomer: %w", err)
	}
	created.Addresses = addresses
	return created, nil
}

func (s *Service) GetCustomer(ctx context.Context, userID, customerID string) (*models.Customer, error) {
	customer, err := s.repo.FindByID(ctx, userID, customerID)
	if err != nil {
		return nil, fmt.Errorf("service.GetCustomer: %w", err)
	}
	addresses, err := s.repo.ListAddresses(ctx, userID, customerID)
	if err != nil {
		return nil, fmt.Errorf("service.GetCustomer: %w", err)
	}
	customer.Addresses = addresses
	return customer, nil
}

func (s *Service) ListCustomers(ctx context.Context, userID string, params models.ListParams) ([]models.Customer, int, error) {
	customers, total, err := s.repo.List(ctx, userID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("service.ListCustomers: %w", err)
	}
	return customers, total, nil
}

func (s *Service) UpdateCustomer(ctx context.Context, userID, customerID string, req models.UpdateCustomerRequest) (*models.Customer, error) {
	fields := UpdateFields{
		Name:  trimmed(req.Name),
		Phone: trimmed(req.Phone),
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		fields.Email = &email
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("service.UpdateCustomer: failed to hash password: %w", err)
		}
		h := string(hash)
		fields.PasswordHash = &h
	}

	updated, err := s.repo.Update(ctx, userID, customerID, fields)
	if err != nil {
		return nil, fmt.Errorf("service.UpdateCustomer: %w", err)
	}
	return updated, nil
}

func (s *Service) DeleteCustomer(ctx context.Context, userID, customerID string) error {
	if err := s.repo.Delete(ctx, userID, customerID); err != nil {
		return fmt.Errorf("service.DeleteCustomer: %w", err)
	}
	return nil
}

func (s *Service) ListAddresses(ctx context.Context, userID, customerID string) ([]models.CustomerAddress, error) {
	// An empty list is ambiguous, so confirm the customer exists first.
	if _, err := s.repo.FindByID(ctx, userID, customerID); err != nil {
		return nil, fmt.Errorf("service.ListAddresses: %w", err)
	}
	addresses, err := s.repo.ListAddresses(ctx, userID, customerID)
	if err != nil {
		return nil, fmt.Errorf("service.ListAddresses: %w", err)
	}
	return addresses, nil
}

func (s *Service) GetAddress(ctx context.Context, userID, customerID, addressID string) (*models.CustomerAddress, error) {
	address, err := s.repo.FindAddress(ctx, userID, customerID, addressID)
	if err != nil {
		return nil, fmt.Errorf("service.GetAddress: %w", err)
	}
	return address, nil
}

func (s *Service) AddAddress(ctx context.Context, userID, customerID string, req models.AddAddressRequest) (*models.CustomerAddress, error) {
	// A new primary replaces the current one under the customer row lock.
	if req.IsPrimary {
		tx, err := s.repo.BeginTx(ctx)
		if err != nil {
			return nil, fmt.Errorf("service.AddAddress: %w", err)
		}
		defer tx.Rollback(ctx)

		txRepo := s.repo.WithTx(tx)

		// Serialises concurrent primary changes for the same customer.
		if err := txRepo.LockByID(ctx, userID, customerID); err != nil {
			return nil, fmt.Errorf("service.AddAddress: %w", err)
		}
		if err := txRepo.ClearPrimaryAddress(ctx, userID, customerID); err != nil {
			return nil, fmt.Errorf("service.AddAddress: failed to clear old primary address: %w", err)
		}

		newAddress, err := txRepo.AddAddress(ctx, userID, customerID, req)
		if err != nil {
			return nil, fmt.Errorf("service.AddAddress: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("service.AddAddress: %w", err)
		}
		return newAddress, nil
	}

	address, err := s.repo.AddAddress(ctx, userID, customerID, req)
	if err != nil {
		return nil, fmt.Errorf("service.AddAddress: %w", err)
	}
	return address, nil
}

func (s *Service) UpdateAddress(ctx context.Context, userID, customerID, addressID string, req models.UpdateAddressRequest) (*models.CustomerAddress, error) {
	if req.IsPrimary != nil && *req.IsPrimary {
		tx, err := s.repo.BeginTx(ctx)
		if err != nil {
			return nil, fmt.Errorf("service.UpdateAddress: %w", err)
		}
		defer tx.Rollback(ctx)

		txRepo := s.repo.WithTx(tx)
		if err := txRepo.LockByID(ctx, userID, customerID); err != nil {
			return nil, fmt.Errorf("service.UpdateAddress: %w", err)
		}
		// Check the address before touching the other rows.
		if _, err := txRepo.FindAddress(ctx, userID, customerID, addressID); err != nil {
			return nil, fmt.Errorf("service.UpdateAddress: %w", err)
		}
		if err := txRepo.ClearPrimaryAddress(ctx, userID, customerID); err != nil {
			return nil, fmt.Errorf("service.UpdateAddress: %w", err)
		}

		updatedAddress, err := txRepo.UpdateAddress(ctx, userID, customerID, addressID, req)
		if err != nil {
			return nil, fmt.Errorf("service.UpdateAddress: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("service.UpdateAddress: %w", err)
		}
		return updatedAddress, nil
	}

	updated, err := s.repo.UpdateAddress(ctx, userID, customerID, addressID, req)
	if err != nil {
		return nil, fmt.Errorf("service.UpdateAddress: %w", err)
	}
	return updated, nil
}

func (s *Service) DeleteAddress(ctx context.Context, userID, customerID, addressID string) error {
	if err := s.repo.DeleteAddress(ctx, userID, customerID, addressID); err != nil {
		return fmt.Errorf("service.DeleteAddress: %w", err)
	}
	return nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
