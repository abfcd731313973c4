package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/quillpress/quillpress/internal/rbac"
	"github.com/quillpress/quillpress/internal/shared"
	"github.com/quillpress/quillpress/internal/token"
)

const (
	bcryptCost             = 10
	verificationTokenTTL   = 24 * time.Hour
	resetTokenTTL          = time.Hour
	verificationTokenBytes = 32
)

// MailEnqueuer submits transactional emails to the background queue.
type MailEnqueuer interface {
	EnqueueSendEmail(ctx context.Context, to, subject, body string) error
}

// Service wraps the session lifecycle business rules.
type Service struct {
	repo      Repository
	blacklist *Blacklist
	tokens    *token.Service
	resolver  rbac.Resolver
	mail      MailEnqueuer
	clientURL string
	logger    *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, blacklist *Blacklist, tokens *token.Service, resolver rbac.Resolver, mail MailEnqueuer, clientURL string, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		blacklist: blacklist,
		tokens:    tokens,
		resolver:  resolver,
		mail:      mail,
		clientURL: clientURL,
		logger:    logger,
	}
}

// RefreshTTL exposes the refresh-token lifetime for cookie maxAge.
func (s *Service) RefreshTTL() time.Duration {
	return s.tokens.RefreshTTL()
}

// SignUpParams collects validated signup input.
type SignUpParams struct {
	Username string
	Email    string
	Password string
}

// SignUp registers an account and queues the verification email. When the
// username or email is already taken it returns nil so the response does not
// disclose which accounts exist.
func (s *Service) SignUp(ctx context.Context, params SignUpParams) error {
	existing, err := s.repo.FindByUsernameOrEmail(ctx, params.Username, params.Email)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	if existing != nil {
		s.logger.Warn("signup for existing account", slog.String("username", params.Username))
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcryptCost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	verification, err := randomHex(verificationTokenBytes)
	if err != nil {
		return err
	}

	user, err := s.repo.CreateUser(ctx, CreateUserParams{
		Username:                 params.Username,
		Email:                    params.Email,
		PasswordHash:             string(hash),
		VerificationToken:        verification,
		VerificationTokenExpires: time.Now().UTC().Add(verificationTokenTTL),
		DefaultRole:              shared.RoleUser,
	})
	if err != nil {
		if errors.Is(err, shared.ErrDuplicate) {
			// Lost a race with a concurrent signup for the same identifier.
			return nil
		}
		return err
	}

	return s.sendVerificationMail(ctx, user)
}

// VerifyEmail consumes an unexpired verification token.
func (s *Service) VerifyEmail(ctx context.Context, tokenStr string) error {
	if err := s.repo.MarkVerified(ctx, tokenStr); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.Unauthorized("Invalid verification token")
		}
		return err
	}
	return nil
}

// ResendVerification rotates the verification token for an unverified
// account and queues a fresh email. Unknown or already-verified emails are
// ignored silently.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	verification, err := randomHex(verificationTokenBytes)
	if err != nil {
		return err
	}
	user, err := s.repo.SetVerificationToken(ctx, email, verification, time.Now().UTC().Add(verificationTokenTTL))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("resend verification for unknown email")
			return nil
		}
		return err
	}
	return s.sendVerificationMail(ctx, user)
}

// SignInResult carries everything the sign-in response needs.
type SignInResult struct {
	User         *User
	Roles        []string
	Permissions  []rbac.Permission
	AccessToken  string
	RefreshToken string
}

// SignIn verifies credentials, issues the token pair and persists the
// refresh token on the user record, replacing any previous session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.Unauthorized("Invalid email or password")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.Unauthorized("Invalid email or password")
	}

	principal := shared.Principal{ID: user.ID, Username: user.Username, Roles: user.Roles}
	access, err := s.tokens.IssueAccessToken(principal)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefreshToken(principal)
	if err != nil {
		return nil, err
	}
	if err := s.repo.StoreRefreshToken(ctx, user.ID, refresh); err != nil {
		return nil, err
	}

	granted, err := s.resolver.ResolveEffectivePermissions(ctx, user.Roles)
	if err != nil {
		return nil, err
	}

	return &SignInResult{
		User:         user,
		Roles:        user.Roles,
		Permissions:  granted.List(),
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// SignOut clears the stored refresh token and blacklists the token string so
// it can never pass the refresh check again, even while cryptographically
// valid.
func (s *Service) SignOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return shared.Unauthorized("Token is missing")
	}
	if err := s.repo.ClearRefreshToken(ctx, refreshToken); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.Unauthorized("Invalid token")
		}
		return err
	}
	return s.blacklist.Add(ctx, refreshToken, s.tokens.RefreshTTL())
}

// Refresh mints a new access token for a refresh token that is not
// blacklisted, still stored on a user record, and cryptographically valid.
// The refresh token itself is not rotated. Role names are re-read from the
// user record, so permission edits take effect here.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", shared.Unauthorized("Token is missing")
	}
	revoked, err := s.blacklist.Contains(ctx, refreshToken)
	if err != nil {
		return "", err
	}
	if revoked {
		return "", shared.Unauthorized("Invalid token")
	}
	user, err := s.repo.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", shared.Unauthorized("Invalid token")
		}
		return "", err
	}
	if _, err := s.tokens.Verify(refreshToken, token.KindRefresh); err != nil {
		return "", shared.Unauthorized("Token is invalid or expired")
	}
	return s.tokens.IssueAccessToken(shared.Principal{ID: user.ID, Username: user.Username, Roles: user.Roles})
}

// RequestPasswordReset stores a short-lived reset token and queues the reset
// email. Unknown or unverified emails are ignored silently.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	reset, err := randomHex(verificationTokenBytes)
	if err != nil {
		return err
	}
	user, err := s.repo.SetResetToken(ctx, email, reset, time.Now().UTC().Add(resetTokenTTL))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("password reset for unknown email")
			return nil
		}
		return err
	}
	body := fmt.Sprintf("Hi %s,\n\nReset your password: %s/reset-password/%s\n\nThe link expires in 1 hour.",
		user.Username, s.clientURL, reset)
	return s.mail.EnqueueSendEmail(ctx, user.Email, "Reset Password", body)
}

// ResetPassword consumes an unexpired reset token and replaces the password.
func (s *Service) ResetPassword(ctx context.Context, tokenStr, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	if err := s.repo.ResetPassword(ctx, tokenStr, string(hash)); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.Unauthorized("Invalid reset token")
		}
		return err
	}
	return nil
}

func (s *Service) sendVerificationMail(ctx context.Context, user *User) error {
	if user.VerificationToken == nil {
		return nil
	}
	body := fmt.Sprintf("Hi %s,\n\nVerify your account: %s/verify-email/%s\n\nThe link expires in 24 hours.",
		user.Username, s.clientURL, *user.VerificationToken)
	return s.mail.EnqueueSendEmail(ctx, user.Email, "Verify Email", body)
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("auth: random token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
