package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophlocker/internal/common"
	"github.com/dmitrijs2005/gophlocker/internal/cryptox"
	"github.com/dmitrijs2005/gophlocker/internal/filex"
	"github.com/dmitrijs2005/gophlocker/internal/logging"
	"github.com/dmitrijs2005/gophlocker/internal/server/config"
	"github.com/dmitrijs2005/gophlocker/internal/server/models"
	"github.com/dmitrijs2005/gophlocker/internal/server/naming"
	"github.com/dmitrijs2005/gophlocker/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophlocker/internal/server/repositories/users"
	"golang.org/x/text/cases"
)

// RegisterInput carries a registration request. Password is never logged.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Account is the public view of a user. Photo is the public URL of the
// profile photo, empty when none was uploaded.
type Account struct {
	ID    string
	Name  string
	Email string
	Photo string
}

// AccountService handles registration, authentication and profile photos.
type AccountService struct {
	users       users.Repository
	blobs       *BlobWriter
	hasher      *cryptox.Hasher
	minPassword int
	prefix      string
	logger      logging.Logger

	now   func() time.Time
	newID func() (string, error)
}

// NewAccountService builds the service. The blob writer must be the one the
// locker uses so both share the name-resolution lock.
func NewAccountService(m repomanager.RepositoryManager, blobs *BlobWriter, hasher *cryptox.Hasher, cfg *config.Config, l logging.Logger) *AccountService {
	return &AccountService{
		users:       m.Users(),
		blobs:       blobs,
		hasher:      hasher,
		minPassword: cfg.MinPasswordLength,
		prefix:      cfg.UploadURLPrefix,
		logger:      l.With("module", "accounts"),
		now:         func() time.Time { return time.Now().UTC() },
		newID:       newID,
	}
}

// NormalizeEmail trims and case-folds an email address.
func NormalizeEmail(email string) string {
	// a Caser is stateful and must not be shared between goroutines
	return cases.Fold().String(strings.TrimSpace(email))
}

func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*Account, error) {
	name := strings.TrimSpace(in.Name)
	email := NormalizeEmail(in.Email)

	if name == "" || email == "" || in.Password == "" {
		return nil, common.Invalid("Missing name/email/password")
	}
	if !strings.Contains(email, "@") {
		return nil, common.Invalid("Invalid email")
	}
	if len([]rune(in.Password)) < s.minPassword {
		return nil, common.Invalid(passwordPolicy(s.minPassword))
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, storageError("hash password", err)
	}
	id, err := s.newID()
	if err != nil {
		return nil, storageError("generate id", err)
	}

	user := &models.User{
		ID:           id,
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) {
			s.logger.Warn(ctx, "duplicate registration attempt", "email", email)
			return nil, common.ErrDuplicateEmail
		}
		return nil, storageError("create user", err)
	}

	s.logger.Info(ctx, "user created", "user_id", user.ID)
	return &Account{ID: user.ID, Name: user.Name, Email: user.Email}, nil
}

// Authenticate checks credentials. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*Account, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, common.Invalid("Missing email/password")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.hasher.Dummy(password)
			return nil, common.ErrInvalidCredentials
		}
		return nil, storageError("get user", err)
	}

	if !cryptox.Verify(user.PasswordHash, password) {
		return nil, common.ErrInvalidCredentials
	}
	return s.account(user), nil
}

func (s *AccountService) GetProfile(ctx context.Context, userID string) (*Account, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, storageError("get user", err)
	}
	return s.account(user), nil
}

// UploadPhoto stores an image and points the user's profile at it. It
// returns the public URL of the photo. The previous photo blob is left for
// the sweeper.
func (s *AccountService) UploadPhoto(ctx context.Context, userID, filename string, body io.Reader) (string, error) {
	if strings.TrimSpace(filename) == "" {
		return "", common.Invalid("No file selected")
	}
	safe, err := naming.Sanitize(filename)
	if err != nil {
		return "", err
	}
	if !filex.IsImage(safe) {
		return "", common.ErrUnsupportedType
	}
	if body == nil {
		return "", common.Invalid("No file uploaded")
	}

	name, _, err := s.blobs.Write(ctx, safe, body)
	if err != nil {
		return "", err
	}

	if err := s.users.UpdatePhoto(ctx, userID, name); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrNotFound
		}
		return "", storageError("update photo", err)
	}

	s.logger.Info(ctx, "photo uploaded", "user_id", userID, "blob", name)
	return PublicPath(s.prefix, name), nil
}

func (s *AccountService) account(u *models.User) *Account {
	a := &Account{ID: u.ID, Name: u.Name, Email: u.Email}
	if u.Photo != "" {
		a.Photo = PublicPath(s.prefix, u.Photo)
	}
	return a
}

func passwordPolicy(n int) string {
	return fmt.Sprintf("Password must be at least %d characters", n)
}
