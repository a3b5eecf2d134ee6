package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geooptima/backend/internal/domain"
	"github.com/geooptima/backend/internal/infrastructure/sns"
	"github.com/geooptima/backend/internal/pkg/otp"
)

// Account attribute names used in partial update maps.
const (
	fieldFullName    = "full_name"
	fieldEmail       = "email"
	fieldGender      = "gender"
	fieldDateOfBirth = "date_of_birth"
)

type Service interface {
	// Register issues a code for a new phone number. An existing verified
	// account is rejected; an unverified one just gets a fresh code.
	Register(ctx context.Context, phone string) error
	// Login issues a code for an existing account.
	Login(ctx context.Context, phone string) error
	// VerifyCode checks a submitted code, marks the account verified and
	// returns a bearer token bound to the phone number.
	VerifyCode(ctx context.Context, phone, code string) (string, error)
	// CompleteRegistration overwrites the profile of a verified account and
	// returns a fresh bearer token bound to phone and email.
	CompleteRegistration(ctx context.Context, req domain.CompleteRegistrationRequest) (string, error)
	// Account returns the account record for the given phone number.
	Account(ctx context.Context, phone string) (*domain.Account, error)
}

type accountStore interface {
	Get(ctx context.Context, phone string) (*domain.Account, error)
	Put(ctx context.Context, a *domain.Account) error
	Update(ctx context.Context, phone string, updates map[string]interface{}) error
}

type tokenSigner interface {
	Sign(phone, email string) (string, error)
}

type service struct {
	accounts  accountStore
	smsSender sns.SMSSender
	signer    tokenSigner
	otpTTL    time.Duration
}

type ServiceDeps struct {
	AccountRepo accountStore
	SMSSender   sns.SMSSender
	JWTProvider tokenSigner
	OTPTTL      time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		accounts:  deps.AccountRepo,
		smsSender: deps.SMSSender,
		signer:    deps.JWTProvider,
		otpTTL:    deps.OTPTTL,
	}
}

func (s *service) Register(ctx context.Context, phone string) error {
	acct, err := s.accounts.Get(ctx, phone)
	switch {
	case err == nil:
		if acct.IsVerified {
			return fmt.Errorf("phone number already registered: %w", domain.ErrAlreadyRegistered)
		}
	case errors.Is(err, domain.ErrNotFound):
		now := time.Now().UTC()
		acct = &domain.Account{
			PhoneNumber: phone,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	default:
		return err
	}
	return s.issueCode(ctx, acct)
}

func (s *service) Login(ctx context.Context, phone string) error {
	acct, err := s.accounts.Get(ctx, phone)
	if err != nil {
		return err
	}
	return s.issueCode(ctx, acct)
}

// issueCode mints a fresh code, stores its hash with an expiry and only then
// dispatches the plaintext over SMS. A delivery failure is reported to the
// caller but does not roll back the stored hash: the previous code is already
// invalidated by the overwrite.
func (s *service) issueCode(ctx context.Context, acct *domain.Account) error {
	code, err := otp.Generate()
	if err != nil {
		return err
	}
	hash, err := otp.Hash(code)
	if err != nil {
		return err
	}

	acct.OTPHash = hash
	acct.OTPExpiresAt = time.Now().Add(s.otpTTL).Unix()
	acct.UpdatedAt = time.Now().UTC()
	if err := s.accounts.Put(ctx, acct); err != nil {
		return err
	}
	slog.Info("verification code issued", "phone", acct.PhoneNumber)

	msg := fmt.Sprintf("Your GeoOptima verification code is %s. It expires in %d minutes.",
		code, int(s.otpTTL.Minutes()))
	if err := s.smsSender.SendSMS(ctx, acct.PhoneNumber, msg); err != nil {
		slog.Error("sms delivery failed", "phone", acct.PhoneNumber, "err", err)
		return fmt.Errorf("could not deliver code: %w", domain.ErrNotification)
	}
	return nil
}

func (s *service) VerifyCode(ctx context.Context, phone, code string) (string, error) {
	acct, err := s.accounts.Get(ctx, phone)
	if err != nil {
		return "", err
	}
	if acct.OTPHash == "" || !otp.Compare(acct.OTPHash, code) {
		return "", fmt.Errorf("code does not match: %w", domain.ErrInvalidCode)
	}
	if time.Now().Unix() > acct.OTPExpiresAt {
		return "", fmt.Errorf("code issued at %d has lapsed: %w", acct.OTPExpiresAt, domain.ErrCodeExpired)
	}

	// Single use: the hash is cleared before the token is issued, so the
	// same code can never verify twice.
	acct.OTPHash = ""
	acct.OTPExpiresAt = 0
	acct.IsVerified = true
	acct.UpdatedAt = time.Now().UTC()
	if err := s.accounts.Put(ctx, acct); err != nil {
		return "", err
	}
	slog.Info("phone number verified", "phone", phone)

	return s.signer.Sign(acct.PhoneNumber, acct.Email)
}

func (s *service) CompleteRegistration(ctx context.Context, req domain.CompleteRegistrationRequest) (string, error) {
	acct, err := s.accounts.Get(ctx, req.PhoneNumber)
	if err != nil {
		return "", err
	}
	if !acct.IsVerified {
		return "", fmt.Errorf("account must verify a code first: %w", domain.ErrNotVerified)
	}
	// Whole-profile overwrite: absent fields are written back empty.
	updates := map[string]interface{}{
		fieldFullName:    req.FullName,
		fieldEmail:       req.Email,
		fieldGender:      req.Gender,
		fieldDateOfBirth: req.DateOfBirth,
	}
	if err := s.accounts.Update(ctx, req.PhoneNumber, updates); err != nil {
		return "", err
	}
	slog.Info("registration completed", "phone", req.PhoneNumber)

	return s.signer.Sign(req.PhoneNumber, req.Email)
}

func (s *service) Account(ctx context.Context, phone string) (*domain.Account, error) {
	return s.accounts.Get(ctx, phone)
}
