package sqlstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medrecords-api/internal/model"
	"github.com/jwalitptl/medrecords-api/internal/repository"
	"github.com/jwalitptl/medrecords-api/internal/testutil"
)

func seedDoctor(t *testing.T, store repository.Store, name string) *model.User {
	t.Helper()
	u := &model.User{Name: name, Role: model.UserRoleDoctor, PasswordHash: "hash"}
	require.NoError(t, store.Users().Create(context.Background(), u))
	return u
}

func seedPatient(t *testing.T, store repository.Store, doctorID int64) *model.Patient {
	t.Helper()
	p := &model.Patient{Name: "Jane", Age: 40, DoctorID: doctorID}
	require.NoError(t, store.Patients().Create(context.Background(), p))
	return p
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)

	u := seedDoctor(t, store, "alice")
	assert.NotZero(t, u.ID)
	assert.Equal(t, "doctor", u.Role)

	t.Run("get by name", func(t *testing.T) {
		got, err := store.Users().GetByName(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
		assert.Equal(t, "hash", got.PasswordHash)
	})

	t.Run("unknown name", func(t *testing.T) {
		_, err := store.Users().GetByName(ctx, "nobody")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("duplicate name", func(t *testing.T) {
		err := store.Users().Create(ctx, &model.User{Name: "alice", Role: "doctor", PasswordHash: "x"})
		assert.ErrorIs(t, err, repository.ErrDuplicate)
	})

	t.Run("list", func(t *testing.T) {
		seedDoctor(t, store, "bob")
		users, err := store.Users().List(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "alice", users[0].Name)
		assert.Equal(t, "bob", users[1].Name)
	})
}

func TestPatientRepository(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	doc := seedDoctor(t, store, "alice")

	p := seedPatient(t, store, doc.ID)
	assert.NotZero(t, p.ID)
	assert.Equal(t, doc.ID, p.DoctorID)

	got, err := store.Patients().Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	_, err = store.Patients().Get(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	patients, err := store.Patients().List(ctx)
	require.NoError(t, err)
	assert.Len(t, patients, 1)
}

func TestMedicalRecordRepository(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	doc := seedDoctor(t, store, "alice")
	p1 := seedPatient(t, store, doc.ID)
	p2 := seedPatient(t, store, doc.ID)

	for _, r := range []*model.MedicalRecord{
		{PatientID: p1.ID, Findings: "Mild Fever observed"},
		{PatientID: p1.ID, Findings: "Blood pressure normal"},
		{PatientID: p2.ID, Findings: "fever, 100% recovered"},
		{PatientID: p2.ID, Findings: "under_weight"},
	} {
		require.NoError(t, store.MedicalRecords().Create(ctx, r))
		assert.NotZero(t, r.ID)
		assert.False(t, r.DateCreated.IsZero())
	}

	t.Run("list", func(t *testing.T) {
		records, err := store.MedicalRecords().List(ctx)
		require.NoError(t, err)
		assert.Len(t, records, 4)
	})

	t.Run("list by patient keeps storage order", func(t *testing.T) {
		records, err := store.MedicalRecords().ListByPatient(ctx, p1.ID)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "Mild Fever observed", records[0].Findings)
		assert.Equal(t, "Blood pressure normal", records[1].Findings)

		records, err = store.MedicalRecords().ListByPatient(ctx, 999)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"case insensitive", "FEVER", 2},
		{"empty query matches all", "", 4},
		{"no match", "fracture", 0},
		{"percent is literal", "100%", 1},
		{"lone percent", "%", 1},
		{"underscore is literal", "_", 1},
	}
	for _, tt := range tests {
		t.Run("search "+tt.name, func(t *testing.T) {
			records, err := store.MedicalRecords().Search(ctx, tt.query)
			require.NoError(t, err)
			assert.Len(t, records, tt.want)
		})
	}
}

func TestAuditRepository(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)

	target := int64(7)
	first := &model.AuditLog{UserID: 1, Action: model.AuditActionCreate, TargetTable: model.AuditTableMedicalRecords, TargetID: &target}
	require.NoError(t, store.Audit().Create(ctx, first))
	assert.NotZero(t, first.ID)
	require.NotNil(t, first.TargetID)
	assert.Equal(t, target, *first.TargetID)

	second := &model.AuditLog{UserID: 2, Action: model.AuditActionCreate, TargetTable: model.AuditTableUsers}
	require.NoError(t, store.Audit().Create(ctx, second))
	assert.Nil(t, second.TargetID)

	n, err := store.Audit().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	logs, err := store.Audit().List(ctx, model.ListFilter{})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, second.ID, logs[0].ID, "newest first")

	logs, err = store.Audit().List(ctx, model.ListFilter{UserID: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, first.ID, logs[0].ID)

	t.Run("rows cannot be updated or deleted", func(t *testing.T) {
		db := store.DB()
		_, err := db.ExecContext(ctx, `UPDATE audit_logs SET action = 'tampered' WHERE id = ?`, first.ID)
		assert.Error(t, err)
		_, err = db.ExecContext(ctx, `DELETE FROM audit_logs WHERE id = ?`, first.ID)
		assert.Error(t, err)

		n, err := store.Audit().Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})
}

func TestStore_WithTx(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	doc := seedDoctor(t, store, "alice")

	t.Run("rollback on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := store.WithTx(ctx, func(tx repository.Store) error {
			require.NoError(t, tx.Patients().Create(ctx, &model.Patient{Name: "Temp", Age: 1, DoctorID: doc.ID}))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		patients, err := store.Patients().List(ctx)
		require.NoError(t, err)
		assert.Empty(t, patients)
	})

	t.Run("commit", func(t *testing.T) {
		err := store.WithTx(ctx, func(tx repository.Store) error {
			p := &model.Patient{Name: "Kept", Age: 1, DoctorID: doc.ID}
			if err := tx.Patients().Create(ctx, p); err != nil {
				return err
			}
			return tx.Audit().Create(ctx, &model.AuditLog{UserID: doc.ID, Action: model.AuditActionCreate, TargetTable: model.AuditTablePatients, TargetID: &p.ID})
		})
		require.NoError(t, err)

		patients, err := store.Patients().List(ctx)
		require.NoError(t, err)
		assert.Len(t, patients, 1)
		n, err := store.Audit().Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("rollback on panic", func(t *testing.T) {
		assert.Panics(t, func() {
			_ = store.WithTx(ctx, func(tx repository.Store) error {
				_ = tx.Patients().Create(ctx, &model.Patient{Name: "Ghost", Age: 1, DoctorID: doc.ID})
				panic("boom")
			})
		})
		patients, err := store.Patients().List(ctx)
		require.NoError(t, err)
		assert.Len(t, patients, 1)
	})
}
