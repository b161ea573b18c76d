package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/common"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/cryptox"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/dbx"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/logging"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/auth"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/config"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/models"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/repositories/repomanager"
)

// maxSignAttempts bounds the search for an unused profile sign. With 62^50
// possible values a second attempt is already unheard of.
const maxSignAttempts = 8

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type RegisterInput struct {
	UserName   string
	Email      string
	Password   []byte
	IsStaff    bool
	District   string
	MiddleName string
	BirthDate  *time.Time
}

type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	notifier                     Notifier
	clock                        Clock
	logger                       logging.Logger
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, n Notifier, c Clock, l logging.Logger) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		notifier:                     n,
		clock:                        c,
		logger:                       l.With("module", "users"),
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// Register creates the user and, in the same transaction, their profile.
// The password in the input is wiped once hashed.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.Identity, error) {
	defer common.WipeByteArray(in.Password)

	in.UserName = strings.TrimSpace(in.UserName)
	if in.UserName == "" || len(in.Password) == 0 {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrorValidation)
	}

	salt := cryptox.NewSalt()
	user := &models.User{
		UserName:     in.UserName,
		Email:        strings.TrimSpace(in.Email),
		Salt:         salt,
		PasswordHash: cryptox.HashPassword(in.Password, salt),
		IsStaff:      in.IsStaff,
	}

	var identity *models.Identity
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		created, err := s.repomanager.Users(tx).Create(ctx, user)
		if err != nil {
			return err
		}
		profile, err := s.OnIdentityCreated(ctx, tx, created, in)
		if err != nil {
			return err
		}
		identity = &models.Identity{User: *created, Profile: *profile}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	if err := s.notifier.AccountCreated(ctx, &identity.User); err != nil {
		s.logger.Warn(ctx, "account created notification failed", "user_id", identity.User.ID, "error", err.Error())
	}
	return identity, nil
}

// OnIdentityCreated creates the profile of a freshly inserted user inside
// the caller's transaction and gives it a sign no other profile holds.
func (s *UserService) OnIdentityCreated(ctx context.Context, tx dbx.DBTX, user *models.User, in RegisterInput) (*models.Profile, error) {
	profiles := s.repomanager.Profiles(tx)

	var sign string
	for attempt := 0; ; attempt++ {
		if attempt == maxSignAttempts {
			return nil, fmt.Errorf("%w: no unique profile sign after %d attempts", common.ErrorInternal, attempt)
		}
		candidate, err := common.MakeRandString(common.SignLength)
		if err != nil {
			return nil, err
		}
		taken, err := profiles.SignExists(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if !taken {
			sign = candidate
			break
		}
	}

	p := &models.Profile{
		UserID:     user.ID,
		District:   strings.TrimSpace(in.District),
		Sign:       sign,
		MiddleName: in.MiddleName,
		BirthDate:  in.BirthDate,
	}
	if err := profiles.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes the user. Receipts stay, so the ballots they voted on
// keep their counts.
func (s *UserService) Delete(ctx context.Context, userID string) error {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := repo.Delete(ctx, userID); err != nil {
		return err
	}

	if err := s.notifier.AccountDeleted(ctx, user); err != nil {
		s.logger.Warn(ctx, "account deleted notification failed", "user_id", userID, "error", err.Error())
	}
	return nil
}

func (s *UserService) UpdateDistrict(ctx context.Context, userID, district string) error {
	return s.repomanager.Profiles(s.db).UpdateDistrict(ctx, userID, strings.TrimSpace(district))
}

func (s *UserService) Identity(ctx context.Context, userID string) (*models.Identity, error) {
	user, err := s.repomanager.Users(s.db).GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile, err := s.repomanager.Profiles(s.db).GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.Identity{User: *user, Profile: *profile}, nil
}

func (s *UserService) Login(ctx context.Context, userName string, password []byte) (*TokenPair, error) {
	defer common.WipeByteArray(password)

	user, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if !cryptox.VerifyPassword(password, user.Salt, user.PasswordHash) {
		return nil, common.ErrorUnauthorized
	}

	return s.generateTokenPair(ctx, s.db, user)
}

// RefreshToken rotates a refresh token: the old one is deleted and a new
// pair is issued in the same transaction.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	token, err := s.repomanager.RefreshTokens(s.db).Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}

	if token.Expires.Before(s.clock.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	var tokenPair *TokenPair
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}

		user, err := s.repomanager.Users(tx).GetUserByID(ctx, token.UserID)
		if err != nil {
			return err
		}

		tokenPair, err = s.generateTokenPair(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	return tokenPair, nil
}

func (s *UserService) generateTokenPair(ctx context.Context, db dbx.DBTX, user *models.User) (*TokenPair, error) {
	accessToken, err := auth.GenerateToken(user.ID, user.IsStaff, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}

	refreshToken, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrorInternal
	}

	expires := s.clock.Now().Add(s.refreshTokenValidityDuration)
	if err := s.repomanager.RefreshTokens(db).Create(ctx, user.ID, refreshToken, expires); err != nil {
		return nil, common.ErrorInternal
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
