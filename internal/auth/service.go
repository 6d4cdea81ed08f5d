package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ms-booking/internal/logger"
	"ms-booking/internal/models"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"
)

type Recorder interface {
	Record(ctx context.Context, actor, action, details string)
}

type Service struct {
	DB       *bun.DB
	Audit    Recorder
	Logger   *logger.Logger
	Secret   string
	TokenTTL time.Duration
}

func NewService(bunDB *bun.DB, audit Recorder, log *logger.Logger, secret string, tokenTTL time.Duration) *Service {
	return &Service{DB: bunDB, Audit: audit, Logger: log, Secret: secret, TokenTTL: tokenTTL}
}

// Register creates a user with a zero wallet balance and a bcrypt
// password hash. Usernames are unique.
func (s *Service) Register(ctx context.Context, username, password string, role models.Role) (*models.User, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", models.ErrValidation)
	}
	if role == "" {
		role = models.RoleUser
	}

	exists, err := s.DB.NewSelect().
		Model((*models.User)(nil)).
		Where("username = ?", username).
		Exists(ctx)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, models.ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:      username,
		PasswordHash:  string(hash),
		WalletBalance: decimal.Zero,
		Role:          role,
		CreatedAt:     time.Now(),
	}
	if _, err := s.DB.NewInsert().Model(user).Exec(ctx); err != nil {
		return nil, err
	}

	s.Audit.Record(ctx, username, "REGISTER", fmt.Sprintf("User %s registered", username))
	s.Logger.Info("AUTH", fmt.Sprintf("user %s registered", username))
	return user, nil
}

// Login checks the credentials and issues a signed token. A wrong
// password and an unknown username are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	var user models.User
	err := s.DB.NewSelect().
		Model(&user).
		Where("username = ?", username).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.Logger.LogSecurity("LOGIN_FAILED", fmt.Sprintf("bad password for user %s", username))
		return "", nil, models.ErrInvalidCredentials
	}

	token, err := IssueToken(s.Secret, s.TokenTTL, &user)
	if err != nil {
		return "", nil, err
	}

	s.Audit.Record(ctx, username, "LOGIN", fmt.Sprintf("User %s logged in", username))
	return token, &user, nil
}
