package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	googleAuthIDTokenVerifier "github.com/futurenda/google-auth-id-token-verifier"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"automark_backend/internals/configs"
	"automark_backend/internals/constants"
	database "automark_backend/internals/databases"
	authHelper "automark_backend/internals/features/users/auth/helper"
	authRepo "automark_backend/internals/features/users/auth/repository"
	userDTO "automark_backend/internals/features/users/user/dto"
	userModel "automark_backend/internals/features/users/user/model"
	helperAuth "automark_backend/internals/helpers/auth"
)

var (
	ErrMissingFields       = errors.New("missing required fields")
	ErrUsernameTaken       = errors.New("username already exists")
	ErrInvalidRole         = errors.New("invalid role")
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrAccountInactive     = errors.New("account is deactivated")
	ErrWrongPassword       = errors.New("current password incorrect")
	ErrGoogleNotConfigured = errors.New("google login is not configured")
	ErrInvalidGoogleToken  = errors.New("invalid google id token")
)

// GoogleIdentity: klaim yang kita pakai dari ID token Google.
type GoogleIdentity struct {
	Subject string
	Email   string
	Name    string
}

// GoogleVerifier memverifikasi ID token untuk audience clientID.
type GoogleVerifier func(idToken, clientID string) (*GoogleIdentity, error)

func verifyWithGoogle(idToken, clientID string) (*GoogleIdentity, error) {
	v := googleAuthIDTokenVerifier.Verifier{}
	if err := v.VerifyIDToken(idToken, []string{clientID}); err != nil {
		return nil, err
	}
	claimSet, err := googleAuthIDTokenVerifier.Decode(idToken)
	if err != nil {
		return nil, err
	}
	return &GoogleIdentity{Subject: claimSet.Sub, Email: claimSet.Email, Name: claimSet.Name}, nil
}

// Session: hasil login (token + user).
type Session struct {
	User      *userModel.UserModel
	Token     string
	ExpiresAt time.Time
}

type Service struct {
	db        *gorm.DB
	cfg       configs.AuthConfig
	blacklist *authRepo.Blacklist
	google    GoogleVerifier
	now       func() time.Time
}

type Option func(*Service)

// WithGoogleVerifier mengganti verifier (dipakai test).
func WithGoogleVerifier(v GoogleVerifier) Option {
	return func(s *Service) { s.google = v }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(db *gorm.DB, cfg configs.AuthConfig, blacklist *authRepo.Blacklist, opts ...Option) *Service {
	s := &Service{
		db:        db,
		cfg:       cfg,
		blacklist: blacklist,
		google:    verifyWithGoogle,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

/* ==========================
   REGISTER
========================== */

func (s *Service) Register(ctx context.Context, in userDTO.RegisterRequest) (*userModel.UserModel, error) {
	in.Normalize()
	if in.Username == "" || in.Password == "" {
		return nil, ErrMissingFields
	}
	if in.Role != "" && !constants.IsValidRole(in.Role) {
		return nil, ErrInvalidRole
	}

	taken, err := authRepo.IsUsernameTaken(ctx, s.db, in.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	hash, err := authHelper.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := in.ToModel(hash)
	if err := authRepo.CreateUser(ctx, s.db, user); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	log.Printf("[INFO] user baru: %s (%s)", user.UserName, user.Role)
	return user, nil
}

/* ==========================
   LOGIN
========================== */

func (s *Service) Login(ctx context.Context, in userDTO.LoginRequest) (*Session, error) {
	in.Normalize()
	if in.Username == "" || in.Password == "" {
		return nil, ErrMissingFields
	}
	user, err := authRepo.FindUserByLogin(ctx, s.db, in.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := authHelper.CheckPasswordHash(user.Password, in.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}
	return s.issue(user)
}

func (s *Service) LoginGoogle(ctx context.Context, in userDTO.GoogleLoginRequest) (*Session, error) {
	if strings.TrimSpace(s.cfg.GoogleClientID) == "" {
		return nil, ErrGoogleNotConfigured
	}
	if strings.TrimSpace(in.IDToken) == "" {
		return nil, ErrMissingFields
	}
	ident, err := s.google(in.IDToken, s.cfg.GoogleClientID)
	if err != nil || ident == nil || ident.Subject == "" {
		return nil, ErrInvalidGoogleToken
	}

	user, err := authRepo.FindUserByGoogleID(ctx, s.db, ident.Subject)
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		user, err = s.createGoogleUser(ctx, ident, in.Role)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrAccountInactive
	}
	return s.issue(user)
}

func (s *Service) createGoogleUser(ctx context.Context, ident *GoogleIdentity, role string) (*userModel.UserModel, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if role != "" && !constants.IsValidRole(role) {
		return nil, ErrInvalidRole
	}

	base := authHelper.UsernameFromIdentity(ident.Email, ident.Name)
	name := base
	for i := 2; ; i++ {
		taken, err := authRepo.IsUsernameTaken(ctx, s.db, name)
		if err != nil {
			return nil, err
		}
		if !taken {
			break
		}
		name = fmt.Sprintf("%s%d", base, i)
	}

	hash, err := authHelper.HashPassword(authHelper.RandomPassword())
	if err != nil {
		return nil, err
	}
	sub := ident.Subject
	user := &userModel.UserModel{
		UserName: name,
		Password: hash,
		GoogleID: &sub,
		Role:     role,
		IsActive: true,
	}
	if ident.Email != "" {
		email := strings.ToLower(ident.Email)
		user.Email = &email
	}
	if err := authRepo.CreateUser(ctx, s.db, user); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	log.Printf("[INFO] user Google baru: %s", user.UserName)
	return user, nil
}

func (s *Service) issue(user *userModel.UserModel) (*Session, error) {
	token, exp, err := helperAuth.IssueAccessToken(s.cfg.JWTSecret, user.ID, user.UserName, user.Role, s.cfg.AccessTTL, s.now())
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{User: user, Token: token, ExpiresAt: exp}, nil
}

/* ==========================
   LOGOUT & BLACKLIST
========================== */

// Logout mem-blacklist token sampai exp-nya. Token kosong/invalid tetap OK (idempotent).
func (s *Service) Logout(ctx context.Context, rawToken string) error {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil
	}
	claims, err := helperAuth.ParseAccessToken(s.cfg.JWTSecret, rawToken)
	if err != nil {
		// sudah tidak valid, tidak perlu disimpan
		return nil
	}
	expiredAt := s.now().Add(s.cfg.AccessTTL)
	if claims.ExpiresAt != nil {
		expiredAt = claims.ExpiresAt.Time
	}
	return s.blacklist.Add(ctx, helperAuth.HashToken(rawToken, s.cfg.JWTSecret), expiredAt)
}

// IsRevoked dipakai middleware AuthJWT.
func (s *Service) IsRevoked(ctx context.Context, rawToken string) (bool, error) {
	return s.blacklist.Contains(ctx, helperAuth.HashToken(rawToken, s.cfg.JWTSecret))
}

/* ==========================
   PASSWORD
========================== */

func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, in userDTO.ChangePasswordRequest) error {
	user, err := authRepo.FindUserByID(ctx, s.db, userID)
	if err != nil {
		return err
	}
	if err := authHelper.CheckPasswordHash(user.Password, in.OldPassword); err != nil {
		return ErrWrongPassword
	}
	hash, err := authHelper.HashPassword(in.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return authRepo.UpdateUserPassword(ctx, s.db, userID, hash)
}

func (s *Service) FindUser(ctx context.Context, userID uuid.UUID) (*userModel.UserModel, error) {
	return authRepo.FindUserByID(ctx, s.db, userID)
}
