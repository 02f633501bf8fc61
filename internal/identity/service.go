package identity

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/todo-team/todolist/internal/apperr"
	"github.com/todo-team/todolist/internal/notification"
	"github.com/todo-team/todolist/internal/otp"
)

const (
	verifyTitle = "Verify your email address"
	resendTitle = "Your new OTP code"
)

// Service manages the account lifecycle: registration, email verification,
// credential checks and admin maintenance.
type Service struct {
	repo       Repository
	otps       *otp.Issuer
	notifier   notification.Notifier
	logger     *slog.Logger
	now        func() time.Time
	bcryptCost int
}

// Option customizes a Service.
type Option func(*Service)

// WithClock injects a custom clock (useful for tests). The OTP issuer should
// share it.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithBcryptCost overrides the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.bcryptCost = cost
	}
}

// NewService creates a new identity service.
func NewService(repo Repository, otps *otp.Issuer, notifier notification.Notifier, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		otps:       otps,
		notifier:   notifier,
		logger:     logger,
		now:        time.Now,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register validates the sign-up form, stores an unverified user holding a
// fresh OTP and mails the code. A mail failure does not fail registration.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := validateRegistration(in); err != nil {
		return User{}, err
	}

	if _, err := s.repo.FindByEmail(ctx, in.Email); err == nil {
		return User{}, apperr.New(apperr.KindDuplicateEmail, msgEmailRegistered)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return User{}, apperr.Internal(err)
	}
	code, err := s.otps.Issue()
	if err != nil {
		return User{}, apperr.Internal(err)
	}

	now := s.now().UTC()
	user := User{
		ID:           uuid.New().String(),
		PersonalID:   in.PersonalID,
		Name:         in.Name,
		Email:        in.Email,
		Address:      in.Address,
		PhoneNumber:  in.PhoneNumber,
		Role:         RoleUser,
		PasswordHash: hash,
		OTP:          code.Value,
		OTPExpiresAt: code.ExpiresAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}

	s.sendOTP(ctx, notification.KindVerifyEmail, user.Email, verifyTitle, code.Value)
	return user, nil
}

// VerifyOTP marks the account verified when code matches the pending,
// unexpired OTP.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) error {
	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, apperr.ErrNotFound) {
		return unknownEmail(msgUnknownEmail)
	}
	if err != nil {
		return err
	}

	pending := otp.Code{Value: user.OTP, ExpiresAt: user.OTPExpiresAt}
	if !pending.Matches(code, s.now()) {
		return apperr.New(apperr.KindInvalidOTP, msgInvalidOTP)
	}
	return s.repo.MarkVerified(ctx, user.ID)
}

// ResendOTP replaces the pending code with a fresh one and mails it.
func (s *Service) ResendOTP(ctx context.Context, email string) error {
	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, apperr.ErrNotFound) {
		return unknownEmail(msgUserNotFound)
	}
	if err != nil {
		return err
	}

	code, err := s.otps.Issue()
	if err != nil {
		return apperr.Internal(err)
	}
	if err := s.repo.SetOTP(ctx, user.ID, code.Value, code.ExpiresAt); err != nil {
		return err
	}

	s.sendOTP(ctx, notification.KindResendOTP, user.Email, resendTitle, code.Value)
	return nil
}

// Authenticate checks the credentials of a verified user. An unverified user
// whose OTP has lapsed is deleted so the email can register again.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return User{}, apperr.Validation(msgFillAllFields)
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		return User{}, apperr.New(apperr.KindInvalidCredentials, msgInvalidCredentials)
	}
	if err != nil {
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return User{}, apperr.New(apperr.KindInvalidCredentials, msgInvalidCredentials)
	}

	if !user.IsVerified {
		if user.registrationExpired(s.now()) {
			if err := s.repo.Delete(ctx, user.ID); err != nil && !errors.Is(err, apperr.ErrNotFound) {
				return User{}, err
			}
			s.logger.InfoContext(ctx, "expired registration removed", slog.String("user_id", user.ID))
			return User{}, registrationExpired()
		}
		return User{}, verificationRequired(user.Email)
	}
	return user, nil
}

// Get returns a user by identifier.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return User{}, apperr.New(apperr.KindNotFound, msgUserNotFound)
	}
	return user, err
}

// List returns every user.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// AddUser creates an account on behalf of an admin. Such accounts skip email
// verification.
func (s *Service) AddUser(ctx context.Context, in NewUserInput) (User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validateNewUser(in); err != nil {
		return User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return User{}, apperr.Internal(err)
	}

	now := s.now().UTC()
	user := User{
		ID:           uuid.New().String(),
		PersonalID:   in.PersonalID,
		Name:         in.Name,
		Email:        in.Email,
		Address:      in.Address,
		PhoneNumber:  in.PhoneNumber,
		Role:         NormalizeRole(in.Role),
		PasswordHash: hash,
		IsVerified:   true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, apperr.ErrDuplicateEmail) {
			return User{}, apperr.New(apperr.KindDuplicateEmail, msgEmailExists)
		}
		return User{}, err
	}
	s.logger.InfoContext(ctx, "user created by admin", slog.String("user_id", user.ID))
	return user, nil
}

// EnsureAdmin creates a verified admin account for email unless one exists.
// An existing account with that email is promoted to admin; its password is
// left unchanged.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, apperr.ErrNotFound) {
		_, err = s.AddUser(ctx, NewUserInput{
			PersonalID: "admin",
			Name:       "Administrator",
			Email:      email,
			Password:   password,
			Role:       string(RoleAdmin),
		})
		return err
	}
	if err != nil {
		return err
	}
	if user.Role == RoleAdmin {
		return nil
	}
	user.Role = RoleAdmin
	user.UpdatedAt = s.now().UTC()
	return s.repo.Update(ctx, user)
}

// UpdateUser applies a partial update. The password changes only when both
// password and confirmPassword are supplied and equal.
func (s *Service) UpdateUser(ctx context.Context, id string, in UpdateInput) (User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return User{}, apperr.New(apperr.KindNotFound, msgUserNotFound+".")
	}
	if err != nil {
		return User{}, err
	}

	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	apply(&user.PersonalID, in.PersonalID)
	apply(&user.Name, in.Name)
	apply(&user.Address, in.Address)
	apply(&user.PhoneNumber, in.PhoneNumber)

	if in.Email != nil {
		apply(&user.Email, in.Email)
		if err := validateEmail(user.Email); err != nil {
			return User{}, err
		}
	}
	if in.Role != nil {
		if err := validateRole(*in.Role); err != nil {
			return User{}, err
		}
		user.Role = NormalizeRole(*in.Role)
	}
	if in.Password != nil && in.ConfirmPassword != nil && *in.Password != "" {
		if *in.Password != *in.ConfirmPassword {
			return User{}, apperr.Validation(msgPasswordMismatch)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), s.bcryptCost)
		if err != nil {
			return User{}, apperr.Internal(err)
		}
		user.PasswordHash = hash
	}

	user.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, apperr.ErrDuplicateEmail) {
			return User{}, apperr.New(apperr.KindDuplicateEmail, msgEmailExists)
		}
		return User{}, err
	}
	return user, nil
}

// DeleteUser removes a user.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.New(apperr.KindNotFound, msgUserNotFound)
	}
	return err
}

// sendOTP renders and dispatches an OTP mail. Failures are logged only.
func (s *Service) sendOTP(ctx context.Context, kind, to, title, code string) {
	msg, err := notification.OTPMessage(kind, to, title, code, s.otps.TTL())
	if err == nil {
		err = s.notifier.Send(ctx, msg)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "otp delivery failed", slog.String("kind", kind), slog.String("error", err.Error()))
	}
}
