package service

import (
	"errors"
	"fmt"
	"log"
	"os"

	"go-khata-ledger/internal/model"
	"go-khata-ledger/internal/repository"
	"go-khata-ledger/pkg/jwt"
	"go-khata-ledger/pkg/validator"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrEmailExists         = errors.New("user with this email already exists")
	ErrUserNotFound        = errors.New("user not found")
	ErrUserInactive        = errors.New("account pending email confirmation")
	ErrInvalidConfirmation = errors.New("invalid or expired confirmation token")
	ErrSessionExpired      = errors.New("session expired, please sign in again")
)

type AuthService interface {
	SignUp(req *SignUpRequest) (*SignUpResult, error)
	ConfirmSignUp(tokenString string) (*SignInResult, error)
	SignIn(req *SignInRequest) (*SignInResult, error)
	SignOut(userID uuid.UUID) error
	CurrentUser(tokenString string) (*model.User, error)
}

type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignUpResult distinguishes "signed up and signed in" from "signed up,
// confirmation pending": in the pending case Token is empty and
// ConfirmationPending is true, with no error.
type SignUpResult struct {
	User                model.UserResponse `json:"user"`
	Token               string             `json:"token,omitempty"`
	ConfirmationPending bool               `json:"confirmation_pending"`
}

type SignInResult struct {
	User  model.UserResponse `json:"user"`
	Token string             `json:"token"`
}

type authService struct {
	gateway *repository.Gateway
}

func NewAuthService(gateway *repository.Gateway) AuthService {
	return &authService{gateway: gateway}
}

// confirmationRequired reports whether remote sign-ups must wait for email
// confirmation. The local fallback has no email channel, so it always issues
// a session immediately.
func (s *authService) confirmationRequired() bool {
	if !s.gateway.RemoteBacked() {
		return false
	}
	v := os.Getenv("SIGNUP_CONFIRMATION")
	return v == "true" || v == "1"
}

func (s *authService) SignUp(req *SignUpRequest) (*SignUpResult, error) {
	// 1. Validate request
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	// 2. Check if email already exists
	existing, _ := s.gateway.FindUserByEmail(req.Email)
	if existing != nil {
		return nil, ErrEmailExists
	}

	pending := s.confirmationRequired()

	// 3. Create user
	user := &model.User{
		Email:    req.Email,
		Name:     req.Name,
		IsActive: !pending,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, errors.New("failed to hash password")
	}
	if err := s.gateway.CreateUser(user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	// 4. Registration succeeded but no session yet: the caller sees a nil
	// session with no error and waits for confirmation. There is no mail
	// channel, so the confirmation token is written to the server log for
	// the operator to relay.
	if pending {
		confirmToken, err := jwt.GenerateConfirmationToken(user.ID, user.Email)
		if err != nil {
			return nil, errors.New("failed to generate confirmation token")
		}
		log.Printf("signup confirmation token for %s: %s", user.Email, confirmToken)
		return &SignUpResult{User: user.ToResponse(), ConfirmationPending: true}, nil
	}

	// 5. Issue session immediately
	token, err := s.issueSession(user)
	if err != nil {
		return nil, err
	}
	return &SignUpResult{User: user.ToResponse(), Token: token}, nil
}

// ConfirmSignUp activates a pending account from its confirmation token and
// issues the first session, mirroring a confirmation-link click.
func (s *authService) ConfirmSignUp(tokenString string) (*SignInResult, error) {
	// 1. Validate the confirmation token
	claims, err := jwt.ValidateConfirmationToken(tokenString)
	if err != nil {
		return nil, ErrInvalidConfirmation
	}

	// 2. The account must exist and still be pending; a token replayed
	// against an already active account is stale.
	user, err := s.gateway.FindUserByID(claims.UserID)
	if err != nil {
		return nil, ErrInvalidConfirmation
	}
	if user.IsActive {
		return nil, ErrInvalidConfirmation
	}

	// 3. Activate the account
	user.IsActive = true
	if err := s.gateway.UpdateUser(user); err != nil {
		return nil, errors.New("failed to activate account")
	}

	// 4. Issue session
	token, err := s.issueSession(user)
	if err != nil {
		return nil, err
	}
	return &SignInResult{User: user.ToResponse(), Token: token}, nil
}

func (s *authService) SignIn(req *SignInRequest) (*SignInResult, error) {
	// 1. Validate request
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, ErrInvalidCredentials
	}

	// 2. Find user by email
	user, err := s.gateway.FindUserByEmail(req.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. Check confirmation state
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	// 4. Verify password
	if !user.CheckPassword(req.Password) {
		return nil, ErrInvalidCredentials
	}

	// 5. Issue session
	token, err := s.issueSession(user)
	if err != nil {
		return nil, err
	}
	return &SignInResult{User: user.ToResponse(), Token: token}, nil
}

// issueSession rotates the token version, generates a JWT and mirrors the
// identity into the locally persisted session record.
func (s *authService) issueSession(user *model.User) (string, error) {
	user.TokenVersion = uuid.New().String()
	if err := s.gateway.UpdateUser(user); err != nil {
		return "", errors.New("failed to update session")
	}

	token, err := jwt.GenerateToken(user.ID, user.Email, user.Name, user.TokenVersion)
	if err != nil {
		return "", errors.New("failed to generate token")
	}

	if err := s.gateway.SaveSession(&model.Session{UserID: user.ID, Email: user.Email, Name: user.Name}); err != nil {
		log.Printf("failed to persist local session record: %v", err)
	}
	return token, nil
}

// SignOut invalidates the remote session best-effort and always clears the
// local session record; a remote failure must never skip the local clear.
func (s *authService) SignOut(userID uuid.UUID) error {
	if user, err := s.gateway.FindUserByID(userID); err == nil {
		user.TokenVersion = uuid.New().String()
		if err := s.gateway.UpdateUser(user); err != nil {
			log.Printf("remote sign-out failed: %v", err)
		}
	}
	if err := s.gateway.ClearSession(); err != nil {
		log.Printf("failed to clear local session record: %v", err)
	}
	return nil
}

// CurrentUser resolves the authenticated user from a bearer token: the user
// record is looked up through the gateway, and when no record is reachable
// the locally persisted session snapshot backs the identity.
func (s *authService) CurrentUser(tokenString string) (*model.User, error) {
	claims, err := jwt.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.gateway.FindUserByID(claims.UserID)
	if err == nil {
		if !user.IsActive {
			return nil, ErrUserInactive
		}
		if user.TokenVersion != claims.TokenVersion {
			return nil, ErrSessionExpired
		}
		return user, nil
	}

	if session := s.gateway.LoadSession(); session != nil && session.UserID == claims.UserID {
		return session.User(), nil
	}

	return nil, ErrUserNotFound
}
