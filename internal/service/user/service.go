package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/jwalitptl/medrecords-api/internal/model"
	"github.com/jwalitptl/medrecords-api/internal/repository"
	"github.com/jwalitptl/medrecords-api/internal/service/audit"
	apperrors "github.com/jwalitptl/medrecords-api/pkg/errors"
	"github.com/jwalitptl/medrecords-api/pkg/security"
)

type Service struct {
	store   repository.Store
	hasher  security.PasswordHasher
	auditor *audit.Service
}

func NewService(store repository.Store, hasher security.PasswordHasher, auditor *audit.Service) *Service {
	return &Service{
		store:   store,
		hasher:  hasher,
		auditor: auditor,
	}
}

// CreateUser stores a new user with a bcrypt hash of the password. The
// creation is audited with the new user as actor.
func (s *Service) CreateUser(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	user := &model.User{
		Name:         req.Name,
		Role:         req.Role,
		PasswordHash: hash,
	}
	if user.Role == "" {
		user.Role = model.UserRoleDoctor
	}

	var entry *model.AuditLog
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.Users().Create(ctx, user); err != nil {
			return err
		}
		var err error
		entry, err = s.auditor.In(tx).Record(ctx, user.ID, model.AuditActionCreate, model.AuditTableUsers, &user.ID)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("user name already exists", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to create user: %w", err))
	}
	s.auditor.Written(entry)
	return user, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]*model.User, error) {
	users, err := s.store.Users().List(ctx)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list users: %w", err))
	}
	return users, nil
}
