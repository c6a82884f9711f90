package users

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/hammerclub/auctiond/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUserRepo serves a fixed set of users for middleware tests.
type fakeUserRepo struct {
	users map[uuid.UUID]*models.User
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	panic("not used")
}

func (f *fakeUserRepo) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	panic("not used")
}

func (f *fakeUserRepo) UpdateUser(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*models.User, error) {
	panic("not used")
}

func (f *fakeUserRepo) DeleteUser(ctx context.Context, id uuid.UUID) error {
	panic("not used")
}

func TestAuthorizer_Require(t *testing.T) {
	admin := &models.User{ID: uuid.New(), Name: "admin", Role: models.UserRoleAdmin}
	owner := &models.User{ID: uuid.New(), Name: "owner", Role: models.UserRoleOwner}
	repo := &fakeUserRepo{users: map[uuid.UUID]*models.User{
		admin.ID: admin,
		owner.ID: owner,
	}}
	auth := NewAuthorizer(NewApp(repo))

	tests := []struct {
		name       string
		userID     string
		cap        Capability
		wantStatus int
	}{
		{
			name:       "missing header",
			userID:     "",
			cap:        CapRunAuction,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed id",
			userID:     "not-a-uuid",
			cap:        CapRunAuction,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unknown user",
			userID:     uuid.NewString(),
			cap:        CapRunAuction,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "owner lacks run_auction",
			userID:     owner.ID.String(),
			cap:        CapRunAuction,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "owner manages targets",
			userID:     owner.ID.String(),
			cap:        CapManageTargets,
			wantStatus: http.StatusOK,
		},
		{
			name:       "admin runs the auction",
			userID:     admin.ID.String(),
			cap:        CapRunAuction,
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := auth.Require(tt.cap)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.userID != "" {
				req.Header.Set("X-User-ID", tt.userID)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantStatus == http.StatusOK, called)
		})
	}
}

func TestAuthorizer_SeedsCapabilitiesIntoContext(t *testing.T) {
	admin := &models.User{ID: uuid.New(), Name: "admin", Role: models.UserRoleAdmin}
	repo := &fakeUserRepo{users: map[uuid.UUID]*models.User{admin.ID: admin}}
	auth := NewAuthorizer(NewApp(repo))

	var got CapabilitySet
	handler := auth.Require(CapManageData)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = CapabilitiesFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-User-ID", admin.ID.String())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, got.Has(CapManageData))
	assert.True(t, got.Has(CapRunAuction))
}

func TestCapabilitiesFromContext_Empty(t *testing.T) {
	caps := CapabilitiesFromContext(context.Background())
	assert.False(t, caps.Has(CapManageData))
}
