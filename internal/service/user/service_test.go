package user

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/medrecords-api/internal/model"
	"github.com/jwalitptl/medrecords-api/internal/repository"
	"github.com/jwalitptl/medrecords-api/internal/repository/mocks"
	"github.com/jwalitptl/medrecords-api/internal/service/audit"
	apperrors "github.com/jwalitptl/medrecords-api/pkg/errors"
	"github.com/jwalitptl/medrecords-api/pkg/metrics"
	"github.com/jwalitptl/medrecords-api/pkg/security"
)

func newTestService() (*Service, *mocks.Store, security.PasswordHasher) {
	store := mocks.NewStore()
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	return NewService(store, hasher, audit.NewService(store.AuditRepo, nil)), store, hasher
}

func TestCreateUser(t *testing.T) {
	ctx := context.Background()
	svc, store, hasher := newTestService()

	store.UserRepo.On("Create", ctx, mock.AnythingOfType("*model.User")).
		Run(func(args mock.Arguments) { args.Get(1).(*model.User).ID = 7 }).
		Return(nil).Once()
	store.AuditRepo.On("Create", ctx, mock.MatchedBy(func(l *model.AuditLog) bool {
		return l.UserID == 7 && l.TargetTable == model.AuditTableUsers && *l.TargetID == 7
	})).Return(nil).Once()

	user, err := svc.CreateUser(ctx, &model.CreateUserRequest{Name: "alice", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, model.UserRoleDoctor, user.Role)
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)
	assert.NoError(t, hasher.Compare(user.PasswordHash, "s3cret-pass"))
	assert.Equal(t, 1, store.TxCount)
	store.AssertAll(t)
}

func TestCreateUser_KeepsRole(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService()
	store.UserRepo.On("Create", ctx, mock.Anything).Return(nil)
	store.AuditRepo.On("Create", ctx, mock.Anything).Return(nil)

	user, err := svc.CreateUser(ctx, &model.CreateUserRequest{Name: "nina", Password: "s3cret-pass", Role: model.UserRoleNurse})
	require.NoError(t, err)
	assert.Equal(t, model.UserRoleNurse, user.Role)
}

func TestCreateUser_Duplicate(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService()
	store.UserRepo.On("Create", ctx, mock.Anything).Return(fmt.Errorf("%w: users.name", repository.ErrDuplicate))

	_, err := svc.CreateUser(ctx, &model.CreateUserRequest{Name: "alice", Password: "s3cret-pass"})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrConflict))
	store.AuditRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateUser_ShortPassword(t *testing.T) {
	ctx := context.Background()
	svc, store, hasher := newTestService()
	store.UserRepo.On("Create", ctx, mock.Anything).Return(nil)
	store.AuditRepo.On("Create", ctx, mock.Anything).Return(nil)

	user, err := svc.CreateUser(ctx, &model.CreateUserRequest{Name: "bob", Password: "pw"})
	require.NoError(t, err)
	assert.NoError(t, hasher.Compare(user.PasswordHash, "pw"))
}

func TestCreateUser_RollbackNotCounted(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewStore()
	m := metrics.New("test", prometheus.NewRegistry())
	svc := NewService(store, security.NewBcryptHasher(bcrypt.MinCost), audit.NewService(store.AuditRepo, m))
	written := m.AuditEntriesWritten.WithLabelValues(model.AuditActionCreate, model.AuditTableUsers)

	store.UserRepo.On("Create", ctx, mock.Anything).Return(nil)
	store.AuditRepo.On("Create", ctx, mock.Anything).Return(nil)

	store.CommitErr = errors.New("commit failed")
	_, err := svc.CreateUser(ctx, &model.CreateUserRequest{Name: "alice", Password: "s3cret-pass"})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrInternal))
	assert.Equal(t, float64(0), testutil.ToFloat64(written))

	store.CommitErr = nil
	_, err = svc.CreateUser(ctx, &model.CreateUserRequest{Name: "alice", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(written))
}

func TestListUsers(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService()
	want := []*model.User{{ID: 1, Name: "alice"}}
	store.UserRepo.On("List", ctx).Return(want, nil)

	got, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
