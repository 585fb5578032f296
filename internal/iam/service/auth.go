package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/laptruong-hub/iam-service/internal/iam/domain"
	"github.com/laptruong-hub/iam-service/internal/iam/obs"
	"github.com/laptruong-hub/iam-service/internal/iam/store"
	"github.com/laptruong-hub/iam-service/pkg/cryptox"
	"github.com/laptruong-hub/iam-service/pkg/idx"
	"github.com/laptruong-hub/iam-service/pkg/jwtx"
	"github.com/laptruong-hub/iam-service/pkg/slogx"
)

// DefaultRoleName is assigned to self-registered accounts.
const DefaultRoleName = "CUSTOMER"

// AuthService implements the credential and refresh exchanges, registration
// and token introspection.
type AuthService struct {
	KeyManager *jwtx.KeyManager
	Store      store.Store
	Sessions   *SessionService
	Notifier   *Notifier
	Issuer     string
	AccessTTL  time.Duration
}

// Authenticate performs the credential exchange: verify the password, resolve
// the authority set fresh from the role tables, sign an access token and open
// a refresh session. Unknown emails and wrong passwords are indistinguishable
// to the caller.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	now := time.Now()
	l := slogx.FromContext(ctx)
	email = strings.TrimSpace(email)

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			obs.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		l.Info("password verification failed", slog.String("user_id", u.ID))
		obs.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, ErrInvalidCredentials
	}

	if !u.CanAuthenticate() {
		l.Info("login rejected for non-active account",
			slog.String("user_id", u.ID),
			slog.String("status", string(u.Status)),
		)
		obs.LoginsTotal.WithLabelValues("disabled").Inc()
		return nil, ErrAccountDisabled
	}

	pair, err := s.issuePair(ctx, u, now)
	if err != nil {
		obs.LoginsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	obs.LoginsTotal.WithLabelValues("success").Inc()
	return pair, nil
}

// ExchangeRefreshToken trades a live refresh session for a fresh access
// token. The authority set is recomputed from the current role tables, so a
// role edit shows up here without a new login. The refresh token itself is
// returned unchanged; sessions live until expiry or revocation.
func (s *AuthService) ExchangeRefreshToken(ctx context.Context, refreshOpaque string) (*domain.TokenPair, error) {
	now := time.Now()

	rt, err := s.Sessions.Lookup(ctx, refreshOpaque, now)
	if err != nil {
		obs.RefreshExchangesTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	u, err := s.Store.Users().GetUserByID(ctx, rt.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			obs.RefreshExchangesTotal.WithLabelValues("invalid").Inc()
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}

	if !u.CanAuthenticate() {
		obs.RefreshExchangesTotal.WithLabelValues("disabled").Inc()
		return nil, ErrAccountDisabled
	}

	authorities, role, err := ResolveAuthorities(ctx, s.Store, u)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.signAccess(u, role, authorities, now)
	if err != nil {
		return nil, err
	}

	obs.RefreshExchangesTotal.WithLabelValues("success").Inc()
	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshOpaque,
		TokenType:    "Bearer",
		ExpiresIn:    s.AccessTTL,
	}, nil
}

// Logout revokes the presented refresh session. Idempotent.
func (s *AuthService) Logout(ctx context.Context, refreshOpaque string) error {
	return s.Sessions.Revoke(ctx, refreshOpaque)
}

// RegisterInput carries a self-registration request.
type RegisterInput struct {
	Email    string
	FullName string
	Phone    *string
	Password string
}

// Register creates a new active account with the default role and queues a
// welcome email. The caller logs in separately.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	l := slogx.FromContext(ctx)
	in.Email = strings.TrimSpace(in.Email)

	if _, err := s.Store.Users().GetUserByEmail(ctx, in.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	role, err := s.Store.Roles().GetRoleByName(ctx, DefaultRoleName)
	if err != nil {
		return nil, err
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := domain.User{
		ID:           idx.New().String(),
		Email:        in.Email,
		FullName:     in.FullName,
		Phone:        in.Phone,
		PasswordHash: hash,
		RoleID:       role.ID,
		Status:       domain.UserStatusActive,
	}

	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// Email uniqueness was checked above, so the remaining
			// unique column is the phone number.
			return nil, ErrPhoneTaken
		}
		return nil, err
	}

	l.Info("user registered", slog.String("user_id", u.ID))
	s.Notifier.SubmitWelcome(u.Email, u.FullName)

	return &u, nil
}

// Introspect inspects an access token and reports its claims. It never
// returns an error: anything short of a fully valid token comes back as
// {active: false}.
func (s *AuthService) Introspect(ctx context.Context, rawToken string) domain.Introspection {
	claims, err := s.KeyManager.Verifier.Verify(rawToken)
	if err != nil {
		return domain.Introspection{Active: false}
	}

	out := domain.Introspection{
		Active:      true,
		Subject:     claims.Subject,
		Authorities: claims.Authorities,
		Role:        claims.Role,
		FullName:    claims.FullName,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Unix()
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Unix()
	}
	return out
}

// Profile returns the account behind a token subject (the email).
func (s *AuthService) Profile(ctx context.Context, email string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return u, nil
}

// UpdateProfile mutates the caller's own full name and phone.
func (s *AuthService) UpdateProfile(ctx context.Context, email, fullName string, phone *string) (domain.User, error) {
	u, err := s.Profile(ctx, email)
	if err != nil {
		return domain.User{}, err
	}

	if err := s.Store.Users().UpdateProfile(ctx, u.ID, fullName, phone); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrPhoneTaken
		}
		return domain.User{}, err
	}

	return s.Store.Users().GetUserByID(ctx, u.ID)
}

func (s *AuthService) issuePair(ctx context.Context, u domain.User, now time.Time) (*domain.TokenPair, error) {
	authorities, role, err := ResolveAuthorities(ctx, s.Store, u)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.signAccess(u, role, authorities, now)
	if err != nil {
		return nil, err
	}

	refreshOpaque, err := s.Sessions.Create(ctx, u.ID, now)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshOpaque,
		TokenType:    "Bearer",
		ExpiresIn:    s.AccessTTL,
	}, nil
}

func (s *AuthService) signAccess(u domain.User, role domain.Role, authorities []string, now time.Time) (string, error) {
	claims := jwtx.NewAccessClaims(
		u.Email,     // subject
		authorities, // resolved authority set
		role.Name,   // role name
		u.FullName,  // display name
		s.AccessTTL, // token lifetime
		s.Issuer,    // issuer
		now,         // current time
	)
	// Use GetSigner() to distribute signing across multiple keys
	signer := s.KeyManager.GetSigner()
	return signer.Sign(claims)
}
