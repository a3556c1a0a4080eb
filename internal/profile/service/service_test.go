package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"donorhub/internal/audit"
	"donorhub/internal/profile/models"
	"donorhub/internal/profile/store"
	id "donorhub/pkg/domain"
	dErrors "donorhub/pkg/domain-errors"
)

// stubClient records address updates and optionally fails them. Safe for
// concurrent use because the coordinator dispatches tasks in parallel.
type stubClient struct {
	mu    sync.Mutex
	calls []stubCall
	err   error
}

type stubCall struct {
	accountID string
	address   models.Address
}

func (c *stubClient) UpdateAddress(_ context.Context, accountID string, address models.Address) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, stubCall{accountID: accountID, address: address.Clone()})
	return c.err
}

func (c *stubClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// stubStore delegates to fn fields so tests can observe or fail individual
// operations.
type stubStore struct {
	findFn   func(ctx context.Context, userID id.UserID) (*models.Profile, error)
	createFn func(ctx context.Context, profile *models.Profile) error
	updateFn func(ctx context.Context, profile *models.Profile) error
}

func (s *stubStore) FindByID(ctx context.Context, userID id.UserID) (*models.Profile, error) {
	return s.findFn(ctx, userID)
}

func (s *stubStore) Create(ctx context.Context, profile *models.Profile) error {
	return s.createFn(ctx, profile)
}

func (s *stubStore) Update(ctx context.Context, profile *models.Profile) error {
	return s.updateFn(ctx, profile)
}

func (s *stubStore) Close(context.Context) error { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strptr(s string) *string { return &s }

func TestUpdateProfile_BillingOnlySync(t *testing.T) {
	owner := id.UserID(uuid.New())
	billing := &stubClient{}
	crm := &stubClient{}

	st := store.NewMemoryStore()
	require.NoError(t, st.Create(context.Background(), &models.Profile{
		ID:               owner,
		Email:            "donor@example.com",
		Address:          models.Address{"city": "A"},
		BillingAccountID: "b1",
		// No CRM linkage: the CRM must not be called.
	}))

	svc := New(st, billing, crm, testLogger(), nil, nil)

	updated, err := svc.UpdateProfile(context.Background(),
		&Identity{Subject: owner.String()}, owner,
		models.UpdateProfileRequest{Address: models.Address{"city": "B"}})
	require.NoError(t, err)

	require.Equal(t, 1, billing.callCount())
	assert.Equal(t, "b1", billing.calls[0].accountID)
	assert.Equal(t, "B", billing.calls[0].address["city"])
	assert.Equal(t, 0, crm.callCount())

	// The write landed after a successful sync.
	assert.Equal(t, "B", updated.Address["city"])
	persisted, err := st.FindByID(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, "B", persisted.Address["city"])
}

func TestUpdateProfile_BothSystemsLinked(t *testing.T) {
	owner := id.UserID(uuid.New())
	billing := &stubClient{}
	crm := &stubClient{}

	st := store.NewMemoryStore()
	require.NoError(t, st.Create(context.Background(), &models.Profile{
		ID:               owner,
		Address:          models.Address{"city": "A"},
		BillingAccountID: "b1",
		CRMAccountID:     "c1",
	}))

	svc := New(st, billing, crm, testLogger(), nil, nil)

	_, err := svc.UpdateProfile(context.Background(),
		&Identity{Subject: owner.String()}, owner,
		models.UpdateProfileRequest{Address: models.Address{"city": "B"}})
	require.NoError(t, err)

	assert.Equal(t, 1, billing.callCount())
	assert.Equal(t, 1, crm.callCount())
	assert.Equal(t, "c1", crm.calls[0].accountID)
}

func TestUpdateProfile_NoLinkageNoCalls(t *testing.T) {
	owner := id.UserID(uuid.New())
	billing := &stubClient{}
	crm := &stubClient{}

	st := store.NewMemoryStore()
	require.NoError(t, st.Create(context.Background(), &models.Profile{
		ID:      owner,
		Address: models.Address{"city": "A"},
	}))

	svc := New(st, billing, crm, testLogger(), nil, nil)

	_, err := svc.UpdateProfile(context.Background(),
		&Identity{Subject: owner.String()}, owner,
		models.UpdateProfileRequest{Address: models.Address{"city": "B"}})
	require.NoError(t, err)

	assert.Equal(t, 0, billing.callCount())
	assert.Equal(t, 0, crm.callCount())
}

func TestUpdateProfile_NoAddressChangeSkipsSync(t *testing.T) {
	owner := id.UserID(uuid.New())
	billing := &stubClient{}
	crm := &stubClient{}

	st := store.NewMemoryStore()
	require.NoError(t, st.Create(context.Background(), &models.Profile{
		ID:               owner,
		FirstName:        "Ada",
		Address:          models.Address{"city": "A"},
		BillingAccountID: "b1",
		CRMAccountID:     "c1",
	}))

	svc := New(st, billing, crm, testLogger(), nil, nil)

	// Payload without an address proceeds straight to persistence.
	updated, err := svc.UpdateProfile(context.Background(),
		&Identity{Subject: owner.String()}, owner,
		models.UpdateProfileRequest{FirstName: strptr("Grace")})
	require.NoError(t, err)

	assert.Equal(t, 0, billing.callCount())
	assert.Equal(t, 0, crm.callCount())
	assert.Equal(t, "Grace", updated.FirstName)
	assert.Equal(t, "A", updated.Address["city"], "address untouched")
}

func TestUpdateProfile_SyncFailureBlocksPersist(t *testing.T) {
	owner := id.UserID(uuid.New())
	billing := &stubClient{}
	crm := &stubClient{err: errors.New("crm unavailable")}

	st := store.NewMemoryStore()
	require.NoError(t, st.Create(context.Background(), &models.Profile{
		ID:               owner,
		Address:          models.Address{"city": "A"},
		BillingAccountID: "b1",
		CRMAccountID:     "c1",
	}))

	svc := New(st, billing, crm, testLogger(), nil, nil)

	_, err := svc.UpdateProfile(context.Background(),
		&Identity{Subject: owner.String()}, owner,
		models.UpdateProfileRequest{Address: models.Address{"city": "B"}})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))

	// The local record must not be ahead of the refused sync.
	persisted, findErr := st.FindByID(context.Background(), owner)
	require.NoError(t, findErr)
	assert.Equal(t, "A", persisted.Address["city"])
}

func TestUpdateProfile_DeniedBeforeLoad(t *testing.T) {
	owner := id.UserID(uuid.New())
	intruder := id.UserID(uuid.New())
	billing := &stubClient{}
	crm := &stubClient{}

	st := &stubStore{
		findFn: func(context.Context, id.UserID) (*models.Profile, error) {
			t.Fatal("store must not be touched on a denied request")
			return nil, nil
		},
		updateFn: func(context.Context, *models.Profile) error {
			t.Fatal("store must not be touched on a denied request")
			return nil
		},
	}

	svc := New(st, billing, crm, testLogger(), nil, nil)

	_, err := svc.UpdateProfile(context.Background(),
		&Identity{Subject: intruder.String()}, owner,
		models.UpdateProfileRequest{Address: models.Address{"city": "B"}})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	assert.Equal(t, 0, billing.callCount())
	assert.Equal(t, 0, crm.callCount())
}

func TestUpdateProfile_NotFound(t *testing.T) {
	owner := id.UserID(uuid.New())
	svc := New(store.NewMemoryStore(), &stubClient{}, &stubClient{}, testLogger(), nil, nil)

	_, err := svc.UpdateProfile(context.Background(),
		&Identity{Subject: owner.String()}, owner,
		models.UpdateProfileRequest{})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestUpdateProfile_PersistFailure(t *testing.T) {
	owner := id.UserID(uuid.New())
	st := &stubStore{
		findFn: func(context.Context, id.UserID) (*models.Profile, error) {
			return &models.Profile{ID: owner}, nil
		},
		updateFn: func(context.Context, *models.Profile) error {
			return errors.New("disk on fire")
		},
	}

	svc := New(st, &stubClient{}, &stubClient{}, testLogger(), nil, nil)

	_, err := svc.UpdateProfile(context.Background(),
		&Identity{Subject: owner.String()}, owner,
		models.UpdateProfileRequest{FirstName: strptr("Ada")})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}

func TestUpdateProfile_EmitsAuditEvent(t *testing.T) {
	owner := id.UserID(uuid.New())

	st := store.NewMemoryStore()
	require.NoError(t, st.Create(context.Background(), &models.Profile{
		ID:      owner,
		Address: models.Address{"city": "A"},
	}))

	auditStore := audit.NewMemoryStore()
	svc := New(st, &stubClient{}, &stubClient{}, testLogger(), nil, audit.NewPublisher(auditStore))

	_, err := svc.UpdateProfile(context.Background(),
		&Identity{Subject: owner.String()}, owner,
		models.UpdateProfileRequest{Address: models.Address{"city": "B"}})
	require.NoError(t, err)

	events, err := auditStore.ListByUser(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionProfileUpdated, events[0].Action)
	assert.Equal(t, owner.String(), events[0].Actor)
	assert.Equal(t, "true", events[0].Detail["addressChanged"])
}

func TestGetProfile(t *testing.T) {
	owner := id.UserID(uuid.New())
	other := id.UserID(uuid.New())

	st := store.NewMemoryStore()
	require.NoError(t, st.Create(context.Background(), &models.Profile{ID: owner, Email: "donor@example.com"}))
	svc := New(st, &stubClient{}, &stubClient{}, testLogger(), nil, nil)

	t.Run("owner reads own profile", func(t *testing.T) {
		profile, err := svc.GetProfile(context.Background(), &Identity{Subject: owner.String()}, owner)
		require.NoError(t, err)
		assert.Equal(t, "donor@example.com", profile.Email)
	})

	t.Run("other subject is denied", func(t *testing.T) {
		_, err := svc.GetProfile(context.Background(), &Identity{Subject: other.String()}, owner)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("missing profile is not found", func(t *testing.T) {
		_, err := svc.GetProfile(context.Background(), &Identity{Subject: other.String()}, other)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
