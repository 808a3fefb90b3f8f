package service_test

import (
	"errors"
	"path/filepath"
	"testing"

	"go-khata-ledger/internal/model"
	"go-khata-ledger/internal/repository"
	"go-khata-ledger/internal/service"
	"go-khata-ledger/pkg/jwt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRemoteDown = errors.New("remote unreachable")

// unreachableStore stands in for a configured remote backend during an
// outage.
type unreachableStore struct{}

func (unreachableStore) CreateUser(*model.User) error                    { return errRemoteDown }
func (unreachableStore) FindUserByEmail(string) (*model.User, error)     { return nil, errRemoteDown }
func (unreachableStore) FindUserByID(uuid.UUID) (*model.User, error)     { return nil, errRemoteDown }
func (unreachableStore) UpdateUser(*model.User) error                    { return errRemoteDown }
func (unreachableStore) ListContacts(uuid.UUID) ([]model.Contact, error) { return nil, errRemoteDown }
func (unreachableStore) FindContact(uuid.UUID, uuid.UUID) (*model.Contact, error) {
	return nil, errRemoteDown
}
func (unreachableStore) CreateContact(*model.Contact) error { return errRemoteDown }
func (unreachableStore) UpdateContact(uuid.UUID, uuid.UUID, repository.ContactUpdate) error {
	return errRemoteDown
}
func (unreachableStore) DeleteContact(uuid.UUID, uuid.UUID) error { return errRemoteDown }
func (unreachableStore) ListTransactions(uuid.UUID) ([]model.Transaction, error) {
	return nil, errRemoteDown
}
func (unreachableStore) CreateTransaction(*model.Transaction) error { return errRemoteDown }

func newAuth(t *testing.T) (service.AuthService, *repository.LocalStore) {
	t.Helper()
	local, err := repository.OpenLocalStore(filepath.Join(t.TempDir(), "khata.json"))
	require.NoError(t, err)
	t.Cleanup(func() { local.Close() })
	return service.NewAuthService(repository.NewGateway(nil, local)), local
}

func TestSignUp(t *testing.T) {
	auth, local := newAuth(t)

	t.Run("local mode issues a session immediately", func(t *testing.T) {
		result, err := auth.SignUp(&service.SignUpRequest{
			Email:    "owner@example.com",
			Password: "secret123",
			Name:     "Owner",
		})
		require.NoError(t, err)
		assert.False(t, result.ConfirmationPending)
		assert.NotEmpty(t, result.Token)
		assert.Equal(t, "owner@example.com", result.User.Email)

		session := local.LoadSession()
		require.NotNil(t, session)
		assert.Equal(t, result.User.ID, session.UserID)
	})

	t.Run("duplicate email rejected with a displayable reason", func(t *testing.T) {
		_, err := auth.SignUp(&service.SignUpRequest{
			Email:    "owner@example.com",
			Password: "secret123",
		})
		assert.ErrorIs(t, err, service.ErrEmailExists)
	})

	t.Run("weak password rejected before persistence", func(t *testing.T) {
		_, err := auth.SignUp(&service.SignUpRequest{
			Email:    "short@example.com",
			Password: "abc",
		})
		assert.Error(t, err)
		_, lookupErr := local.FindUserByEmail("short@example.com")
		assert.ErrorIs(t, lookupErr, repository.ErrNotFound)
	})
}

func TestSignUpConfirmationFlow(t *testing.T) {
	t.Setenv("SIGNUP_CONFIRMATION", "true")

	dir := t.TempDir()
	remote, err := repository.OpenLocalStore(filepath.Join(dir, "remote.json"))
	require.NoError(t, err)
	t.Cleanup(func() { remote.Close() })
	local, err := repository.OpenLocalStore(filepath.Join(dir, "khata.json"))
	require.NoError(t, err)
	t.Cleanup(func() { local.Close() })
	auth := service.NewAuthService(repository.NewGateway(remote, local))

	result, err := auth.SignUp(&service.SignUpRequest{
		Email:    "owner@example.com",
		Password: "secret123",
		Name:     "Owner",
	})
	require.NoError(t, err)
	assert.True(t, result.ConfirmationPending)
	assert.Empty(t, result.Token)

	t.Run("sign-in before confirmation is rejected", func(t *testing.T) {
		_, err := auth.SignIn(&service.SignInRequest{Email: "owner@example.com", Password: "secret123"})
		assert.ErrorIs(t, err, service.ErrUserInactive)
	})

	confirmToken, err := jwt.GenerateConfirmationToken(result.User.ID, result.User.Email)
	require.NoError(t, err)

	t.Run("session token does not activate the account", func(t *testing.T) {
		sessionToken, err := jwt.GenerateToken(result.User.ID, result.User.Email, "Owner", "v1")
		require.NoError(t, err)
		_, err = auth.ConfirmSignUp(sessionToken)
		assert.ErrorIs(t, err, service.ErrInvalidConfirmation)
	})

	t.Run("confirmation activates the account and signs in", func(t *testing.T) {
		confirmed, err := auth.ConfirmSignUp(confirmToken)
		require.NoError(t, err)
		require.NotEmpty(t, confirmed.Token)

		user, err := auth.CurrentUser(confirmed.Token)
		require.NoError(t, err)
		assert.Equal(t, result.User.ID, user.ID)
		assert.True(t, user.IsActive)

		signedIn, err := auth.SignIn(&service.SignInRequest{Email: "owner@example.com", Password: "secret123"})
		require.NoError(t, err)
		assert.NotEmpty(t, signedIn.Token)
	})

	t.Run("replayed confirmation token is rejected", func(t *testing.T) {
		_, err := auth.ConfirmSignUp(confirmToken)
		assert.ErrorIs(t, err, service.ErrInvalidConfirmation)
	})
}

func TestSignInAndSession(t *testing.T) {
	auth, _ := newAuth(t)
	signedUp, err := auth.SignUp(&service.SignUpRequest{
		Email:    "owner@example.com",
		Password: "secret123",
		Name:     "Owner",
	})
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		_, err := auth.SignIn(&service.SignInRequest{Email: "owner@example.com", Password: "nope12"})
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := auth.SignIn(&service.SignInRequest{Email: "ghost@example.com", Password: "secret123"})
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("valid credentials resolve the current user", func(t *testing.T) {
		result, err := auth.SignIn(&service.SignInRequest{Email: "owner@example.com", Password: "secret123"})
		require.NoError(t, err)
		require.NotEmpty(t, result.Token)

		user, err := auth.CurrentUser(result.Token)
		require.NoError(t, err)
		assert.Equal(t, signedUp.User.ID, user.ID)
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		_, err := auth.CurrentUser("not-a-token")
		assert.Error(t, err)
	})
}

func TestSignOut(t *testing.T) {
	auth, local := newAuth(t)
	result, err := auth.SignUp(&service.SignUpRequest{
		Email:    "owner@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	require.NoError(t, auth.SignOut(result.User.ID))

	t.Run("local session record cleared", func(t *testing.T) {
		assert.Nil(t, local.LoadSession())
	})

	t.Run("old token no longer resolves", func(t *testing.T) {
		_, err := auth.CurrentUser(result.Token)
		assert.ErrorIs(t, err, service.ErrSessionExpired)
	})
}

func TestCurrentUserFallsBackToLocalSession(t *testing.T) {
	local, err := repository.OpenLocalStore(filepath.Join(t.TempDir(), "khata.json"))
	require.NoError(t, err)
	t.Cleanup(func() { local.Close() })

	// Remote configured but down, and no user record in the local store:
	// the persisted session snapshot still backs the identity.
	auth := service.NewAuthService(repository.NewGateway(unreachableStore{}, local))

	userID := uuid.New()
	require.NoError(t, local.SaveSession(&model.Session{UserID: userID, Email: "owner@example.com"}))

	token, err := jwt.GenerateToken(userID, "owner@example.com", "Owner", "v1")
	require.NoError(t, err)

	user, err := auth.CurrentUser(token)
	require.NoError(t, err)
	assert.Equal(t, userID, user.ID)
	assert.Equal(t, "owner@example.com", user.Email)
}
