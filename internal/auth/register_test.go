package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/mallrent-backend/internal/identity"
	"github.com/angelmondragon/mallrent-backend/internal/profiles"
	"github.com/angelmondragon/mallrent-backend/internal/testdb"
	"github.com/angelmondragon/mallrent-backend/pkg/config"
	"github.com/angelmondragon/mallrent-backend/pkg/db/models"
	"github.com/angelmondragon/mallrent-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mallrent-backend/pkg/errors"
	"github.com/angelmondragon/mallrent-backend/pkg/types"
)

type fakeAccounts struct {
	byEmail    map[string]identity.Principal
	passwords  map[string]string
	signUps    int
	signedOut  []string
	signUpFail error
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{byEmail: map[string]identity.Principal{}, passwords: map[string]string{}}
}

func (f *fakeAccounts) SignUp(_ context.Context, email, password string) (*identity.Session, error) {
	f.signUps++
	if f.signUpFail != nil {
		return nil, f.signUpFail
	}
	email = strings.ToLower(email)
	if _, ok := f.byEmail[email]; ok {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	}
	p := identity.Principal{ID: uuid.New(), Email: email}
	f.byEmail[email] = p
	f.passwords[email] = password
	return &identity.Session{AccessID: uuid.NewString(), Principal: p}, nil
}

func (f *fakeAccounts) SignIn(_ context.Context, email, password string) (*identity.Session, error) {
	email = strings.ToLower(email)
	p, ok := f.byEmail[email]
	if !ok || f.passwords[email] != password {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	return &identity.Session{AccessID: uuid.NewString(), Principal: p}, nil
}

func (f *fakeAccounts) SignOut(_ context.Context, accessID string) error {
	f.signedOut = append(f.signedOut, accessID)
	return nil
}

type flakyProfiles struct {
	*profiles.Repository
	fail bool
}

func (f *flakyProfiles) CreateIfMissing(ctx context.Context, user *models.User) (bool, error) {
	if f.fail {
		return false, errors.New("connection reset")
	}
	return f.Repository.CreateIfMissing(ctx, user)
}

func request(role string) RegisterRequest {
	return RegisterRequest{
		Email:        "ana@mall.test",
		Password:     "secreto1",
		Role:         role,
		PersonalData: types.PersonalData{FirstName: " Ana ", LastName: "Paz"},
	}
}

func countProfiles(t *testing.T, repo *profiles.Repository, id uuid.UUID) bool {
	t.Helper()
	ok, err := repo.Exists(context.Background(), id)
	require.NoError(t, err)
	return ok
}

func TestRegisterCreatesProfile(t *testing.T) {
	conn := testdb.Open(t)
	roles := testdb.SeedRoles(t, conn)
	repo := profiles.NewRepository(conn)
	accounts := newFakeAccounts()
	svc, err := NewRegisterService(RegisterServiceParams{Accounts: accounts, Profiles: repo})
	require.NoError(t, err)

	sess, err := svc.Register(context.Background(), request("LocalOwner"))
	require.NoError(t, err)

	user, err := repo.FindWithRole(context.Background(), sess.Principal.ID)
	require.NoError(t, err)
	assert.Equal(t, roles[enums.RoleNameOwner].ID, user.RoleID)
	assert.Equal(t, "Ana", user.PersonalData.Data().FirstName)
	assert.Equal(t, enums.UserStatusActive, user.Status)
}

func TestRegisterUnknownRoleWritesNothing(t *testing.T) {
	conn := testdb.Open(t)
	testdb.SeedRoles(t, conn)
	accounts := newFakeAccounts()
	svc, err := NewRegisterService(RegisterServiceParams{Accounts: accounts, Profiles: profiles.NewRepository(conn)})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), request("Guest"))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeRoleNotFound))
	assert.Contains(t, pkgerrors.As(err).Message(), "contact an administrator")
	assert.Zero(t, accounts.signUps)

	var count int64
	require.NoError(t, conn.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRegisterRoleClosedForSignup(t *testing.T) {
	conn := testdb.Open(t)
	testdb.SeedRoles(t, conn)
	accounts := newFakeAccounts()
	svc, err := NewRegisterService(RegisterServiceParams{
		Accounts: accounts,
		Profiles: profiles.NewRepository(conn),
		Signup:   config.SignupConfig{Roles: []string{"VisitanteExterno"}},
	})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), request("CentroComercialAdmin"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	assert.Zero(t, accounts.signUps)
}

func TestRegisterRetryAfterProfileFailureRecovers(t *testing.T) {
	conn := testdb.Open(t)
	testdb.SeedRoles(t, conn)
	repo := &flakyProfiles{Repository: profiles.NewRepository(conn), fail: true}
	accounts := newFakeAccounts()
	svc, err := NewRegisterService(RegisterServiceParams{Accounts: accounts, Profiles: repo})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), request("VisitanteExterno"))
	require.Error(t, err)
	assert.Contains(t, pkgerrors.As(err).Message(), "repeat the sign-up")
	require.Len(t, accounts.signedOut, 1)

	repo.fail = false
	sess, err := svc.Register(context.Background(), request("VisitanteExterno"))
	require.NoError(t, err)
	assert.True(t, countProfiles(t, repo.Repository, sess.Principal.ID))
	assert.Equal(t, 2, accounts.signUps)
}

func TestRegisterExistingAccountConflicts(t *testing.T) {
	conn := testdb.Open(t)
	testdb.SeedRoles(t, conn)
	accounts := newFakeAccounts()
	svc, err := NewRegisterService(RegisterServiceParams{Accounts: accounts, Profiles: profiles.NewRepository(conn)})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), request("VisitanteExterno"))
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), request("VisitanteExterno"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	wrongPassword := request("VisitanteExterno")
	wrongPassword.Password = "otra-clave"
	_, err = svc.Register(context.Background(), wrongPassword)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestRegisterProviderErrorPassesThrough(t *testing.T) {
	conn := testdb.Open(t)
	testdb.SeedRoles(t, conn)
	accounts := newFakeAccounts()
	accounts.signUpFail = pkgerrors.New(pkgerrors.CodeValidation, "password too short")
	svc, err := NewRegisterService(RegisterServiceParams{Accounts: accounts, Profiles: profiles.NewRepository(conn)})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), request("VisitanteExterno"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
