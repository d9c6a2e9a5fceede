package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for any failed login.
var ErrInvalidCredentials = errors.New("invalid username or password")

// userNamespace derives stable user IDs from login names.
var userNamespace = uuid.MustParse("6f1c3a52-93d4-4f0e-b1a7-2c9e8d4b5a10")

// HashPassword creates a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword compares a password with its hash.
func VerifyPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// Authenticator checks console admin credentials.
type Authenticator struct {
	username     string
	passwordHash string
	now          func() time.Time
}

// NewAuthenticator creates an Authenticator for a single admin account.
func NewAuthenticator(username, passwordHash string) (*Authenticator, error) {
	if username == "" {
		return nil, errors.New("admin username is required")
	}
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return nil, fmt.Errorf("admin password hash: %w", err)
	}
	return &Authenticator{
		username:     username,
		passwordHash: passwordHash,
		now:          time.Now,
	}, nil
}

// Authenticate returns the session user when the credentials match.
func (a *Authenticator) Authenticate(username, password string) (*SessionUser, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	// Always compare the hash so timing does not reveal the username.
	passErr := VerifyPassword(password, a.passwordHash)
	if !userOK || passErr != nil {
		return nil, ErrInvalidCredentials
	}

	return &SessionUser{
		ID:              uuid.NewSHA1(userNamespace, []byte(a.username)),
		Username:        a.username,
		AuthenticatedAt: a.now().UTC(),
	}, nil
}
