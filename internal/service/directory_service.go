package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// DirectoryService exposes the customer directory to staff.
type DirectoryService struct {
	users repository.UserRepository
}

// NewDirectoryService constructs the service.
func NewDirectoryService(users repository.UserRepository) *DirectoryService {
	return &DirectoryService{users: users}
}

// ListCustomers returns all customer accounts. Staff only.
func (s *DirectoryService) ListCustomers(ctx context.Context, actor *domain.User) ([]domain.User, error) {
	if !actor.Role.IsStaff() {
		return nil, apperrors.NewForbidden("not authorized")
	}
	customers, err := s.users.ListByRole(ctx, domain.RoleCustomer)
	if err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	return customers, nil
}

// GetCustomer returns one customer account. Staff only; non-customer ids
// surface as not found so the endpoint never exposes staff accounts.
func (s *DirectoryService) GetCustomer(ctx context.Context, actor *domain.User, id string) (*domain.User, error) {
	if !actor.Role.IsStaff() {
		return nil, apperrors.NewForbidden("not authorized")
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("customer")
		}
		return nil, apperrors.NewPersistenceError(err)
	}
	if user.Role != domain.RoleCustomer {
		return nil, apperrors.NewNotFound("customer")
	}
	return user, nil
}
