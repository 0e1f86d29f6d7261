package medical

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medrecords-api/internal/model"
	"github.com/jwalitptl/medrecords-api/internal/repository"
	"github.com/jwalitptl/medrecords-api/internal/repository/mocks"
	"github.com/jwalitptl/medrecords-api/internal/service/audit"
	"github.com/jwalitptl/medrecords-api/internal/testutil"
	apperrors "github.com/jwalitptl/medrecords-api/pkg/errors"
)

func int64Ptr(v int64) *int64 { return &v }

func newMockService() (*Service, *mocks.Store) {
	store := mocks.NewStore()
	return NewService(store, audit.NewService(store.AuditRepo, nil)), store
}

func TestCreateRecord(t *testing.T) {
	ctx := context.Background()
	svc, store := newMockService()

	store.PatientRepo.On("Get", ctx, int64(3)).Return(&model.Patient{ID: 3, DoctorID: 1}, nil)
	store.RecordRepo.On("Create", ctx, mock.MatchedBy(func(r *model.MedicalRecord) bool {
		return r.PatientID == 3 && r.Findings == "fever"
	})).Run(func(args mock.Arguments) { args.Get(1).(*model.MedicalRecord).ID = 20 }).Return(nil).Once()
	store.AuditRepo.On("Create", ctx, mock.MatchedBy(func(l *model.AuditLog) bool {
		return l.UserID == 9 && l.Action == model.AuditActionCreate &&
			l.TargetTable == model.AuditTableMedicalRecords && *l.TargetID == 20
	})).Return(nil).Once()

	record, err := svc.CreateRecord(ctx, int64Ptr(9), 3, "fever")
	require.NoError(t, err)
	assert.Equal(t, int64(20), record.ID)
	assert.False(t, record.DateCreated.IsZero())
	store.AssertAll(t)
}

func TestCreateRecord_Unauthenticated(t *testing.T) {
	svc, store := newMockService()

	_, err := svc.CreateRecord(context.Background(), nil, 3, "fever")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrUnauthorized))
	assert.Equal(t, 0, store.TxCount)
}

func TestCreateRecord_UnknownPatient(t *testing.T) {
	ctx := context.Background()
	svc, store := newMockService()
	store.PatientRepo.On("Get", ctx, int64(99)).Return(nil, repository.ErrNotFound)

	_, err := svc.CreateRecord(ctx, int64Ptr(9), 99, "fever")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrBadRequest))
	assert.ErrorIs(t, err, ErrPatientNotFound)
	store.RecordRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	store.AuditRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestListPatientRecords_Gate(t *testing.T) {
	ctx := context.Background()
	records := []*model.MedicalRecord{{ID: 1, PatientID: 3, Findings: "a"}}

	tests := []struct {
		name     string
		patient  *model.Patient
		getErr   error
		identity int64
		wantCode apperrors.ErrorCode
	}{
		{name: "owner", patient: &model.Patient{ID: 3, DoctorID: 1}, identity: 1},
		{name: "other doctor", patient: &model.Patient{ID: 3, DoctorID: 1}, identity: 2, wantCode: apperrors.ErrForbidden},
		{name: "unknown patient", getErr: repository.ErrNotFound, identity: 1, wantCode: apperrors.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newMockService()
			store.PatientRepo.On("Get", ctx, int64(3)).Return(tt.patient, tt.getErr)
			store.RecordRepo.On("ListByPatient", ctx, int64(3)).Return(records, nil).Maybe()

			got, err := svc.ListPatientRecords(ctx, 3, tt.identity)
			if tt.wantCode != 0 {
				assert.True(t, apperrors.IsCode(err, tt.wantCode))
				store.RecordRepo.AssertNotCalled(t, "ListByPatient", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, records, got)
		})
	}
}

func TestSearchRecords(t *testing.T) {
	ctx := context.Background()
	svc, store := newMockService()
	store.RecordRepo.On("Search", ctx, "fever").Return([]*model.MedicalRecord{{ID: 1}}, nil)

	got, err := svc.SearchRecords(ctx, "fever")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

// Against a real database, a failed audit write must roll back the record.
func TestCreateRecord_RollsBackWithAudit(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	svc := NewService(store, audit.NewService(store.Audit(), nil))

	doc := &model.User{Name: "alice", Role: model.UserRoleDoctor, PasswordHash: "x"}
	require.NoError(t, store.Users().Create(ctx, doc))
	p := &model.Patient{Name: "Jane", Age: 30, DoctorID: doc.ID}
	require.NoError(t, store.Patients().Create(ctx, p))

	record, err := svc.CreateRecord(ctx, &doc.ID, p.ID, "fever")
	require.NoError(t, err)

	logs, err := store.Audit().List(ctx, model.ListFilter{UserID: doc.ID})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, record.ID, *logs[0].TargetID)

	_, err = store.DB().ExecContext(ctx, `DROP TABLE audit_logs`)
	require.NoError(t, err)

	_, err = svc.CreateRecord(ctx, &doc.ID, p.ID, "should not persist")
	require.Error(t, err)

	all, err := store.MedicalRecords().ListByPatient(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
