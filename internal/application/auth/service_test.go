package auth

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/geooptima/backend/internal/domain"
	"github.com/geooptima/backend/internal/pkg/otp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockAccountStore struct{ mock.Mock }

func (m *mockAccountStore) Get(ctx context.Context, phone string) (*domain.Account, error) {
	args := m.Called(ctx, phone)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAccountStore) Put(ctx context.Context, a *domain.Account) error {
	return m.Called(ctx, a).Error(0)
}
func (m *mockAccountStore) Update(ctx context.Context, phone string, updates map[string]interface{}) error {
	return m.Called(ctx, phone, updates).Error(0)
}

type mockSMSSender struct{ mock.Mock }

func (m *mockSMSSender) SendSMS(ctx context.Context, to, msg string) error {
	return m.Called(ctx, to, msg).Error(0)
}

type mockSigner struct{ mock.Mock }

func (m *mockSigner) Sign(phone, email string) (string, error) {
	args := m.Called(phone, email)
	return args.String(0), args.Error(1)
}

// --- helpers ---

const phone = "+15551234567"

func newTestService(as *mockAccountStore, sms *mockSMSSender, signer *mockSigner) Service {
	return NewService(ServiceDeps{
		AccountRepo: as,
		SMSSender:   sms,
		JWTProvider: signer,
		OTPTTL:      10 * time.Minute,
	})
}

var codeRe = regexp.MustCompile(`\d{4}`)

// captureIssuance wires Put and SendSMS expectations and returns pointers to
// the persisted account and the code extracted from the SMS text.
func captureIssuance(as *mockAccountStore, sms *mockSMSSender) (saved **domain.Account, code *string) {
	var acct *domain.Account
	var sent string
	as.On("Put", mock.Anything, mock.AnythingOfType("*domain.Account")).
		Run(func(args mock.Arguments) { acct = args.Get(1).(*domain.Account) }).
		Return(nil)
	sms.On("SendSMS", mock.Anything, phone, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { sent = codeRe.FindString(args.String(2)) }).
		Return(nil)
	return &acct, &sent
}

// --- Register ---

func TestRegister_NewPhone_IssuesCode(t *testing.T) {
	as := &mockAccountStore{}
	sms := &mockSMSSender{}
	as.On("Get", mock.Anything, phone).Return(nil, domain.ErrNotFound)
	saved, code := captureIssuance(as, sms)

	svc := newTestService(as, sms, nil)
	require.NoError(t, svc.Register(context.Background(), phone))

	acct := *saved
	require.NotNil(t, acct)
	assert.Equal(t, phone, acct.PhoneNumber)
	assert.False(t, acct.IsVerified)
	assert.NotEmpty(t, acct.OTPHash)
	assert.Greater(t, acct.OTPExpiresAt, time.Now().Unix(), "expiry must be in the future")
	assert.NotEqual(t, *code, acct.OTPHash, "plaintext code must not be stored")
	assert.True(t, otp.Compare(acct.OTPHash, *code), "stored hash must match delivered code")
}

func TestRegister_VerifiedAccount_AlreadyRegistered(t *testing.T) {
	as := &mockAccountStore{}
	as.On("Get", mock.Anything, phone).Return(&domain.Account{PhoneNumber: phone, IsVerified: true}, nil)

	svc := newTestService(as, &mockSMSSender{}, nil)
	err := svc.Register(context.Background(), phone)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAlreadyRegistered))
	as.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestRegister_UnverifiedAccount_ReissuesCode(t *testing.T) {
	as := &mockAccountStore{}
	sms := &mockSMSSender{}
	existing := &domain.Account{PhoneNumber: phone, OTPHash: "$2a$10$old", OTPExpiresAt: time.Now().Add(time.Minute).Unix()}
	as.On("Get", mock.Anything, phone).Return(existing, nil)
	saved, _ := captureIssuance(as, sms)

	svc := newTestService(as, sms, nil)
	require.NoError(t, svc.Register(context.Background(), phone))

	assert.NotEqual(t, "$2a$10$old", (*saved).OTPHash, "new issuance must overwrite the prior code")
}

func TestRegister_StoreError_Propagates(t *testing.T) {
	as := &mockAccountStore{}
	as.On("Get", mock.Anything, phone).Return(nil, errors.New("dynamo unavailable"))

	svc := newTestService(as, &mockSMSSender{}, nil)
	err := svc.Register(context.Background(), phone)

	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrNotFound))
}

func TestRegister_SMSFailure_KeepsStoredCode(t *testing.T) {
	as := &mockAccountStore{}
	sms := &mockSMSSender{}
	as.On("Get", mock.Anything, phone).Return(nil, domain.ErrNotFound)
	as.On("Put", mock.Anything, mock.Anything).Return(nil)
	sms.On("SendSMS", mock.Anything, phone, mock.Anything).Return(errors.New("sns down"))

	svc := newTestService(as, sms, nil)
	err := svc.Register(context.Background(), phone)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotification))
	as.AssertCalled(t, "Put", mock.Anything, mock.Anything)
}

// --- Login ---

func TestLogin_UnknownPhone_NotFound(t *testing.T) {
	as := &mockAccountStore{}
	as.On("Get", mock.Anything, phone).Return(nil, domain.ErrNotFound)

	svc := newTestService(as, &mockSMSSender{}, nil)
	err := svc.Login(context.Background(), phone)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestLogin_VerifiedAccount_IssuesFreshCode(t *testing.T) {
	as := &mockAccountStore{}
	sms := &mockSMSSender{}
	as.On("Get", mock.Anything, phone).Return(&domain.Account{PhoneNumber: phone, IsVerified: true}, nil)
	saved, code := captureIssuance(as, sms)

	svc := newTestService(as, sms, nil)
	require.NoError(t, svc.Login(context.Background(), phone))

	assert.True(t, (*saved).IsVerified, "login must not reset the verified flag")
	assert.True(t, otp.Compare((*saved).OTPHash, *code))
}

// --- VerifyCode ---

func pendingAccount(t *testing.T, code string, expiresAt time.Time) *domain.Account {
	t.Helper()
	hash, err := otp.Hash(code)
	require.NoError(t, err)
	return &domain.Account{
		PhoneNumber:  phone,
		OTPHash:      hash,
		OTPExpiresAt: expiresAt.Unix(),
	}
}

func TestVerifyCode_Success_SingleUse(t *testing.T) {
	as := &mockAccountStore{}
	signer := &mockSigner{}
	acct := pendingAccount(t, "7421", time.Now().Add(5*time.Minute))
	as.On("Get", mock.Anything, phone).Return(acct, nil)

	var saved *domain.Account
	as.On("Put", mock.Anything, mock.AnythingOfType("*domain.Account")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*domain.Account) }).
		Return(nil)
	signer.On("Sign", phone, "").Return("signed.bearer.token", nil)

	svc := newTestService(as, &mockSMSSender{}, signer)
	token, err := svc.VerifyCode(context.Background(), phone, "7421")

	require.NoError(t, err)
	assert.Equal(t, "signed.bearer.token", token)
	require.NotNil(t, saved)
	assert.True(t, saved.IsVerified)
	assert.Empty(t, saved.OTPHash, "hash must be cleared on success")
	assert.Zero(t, saved.OTPExpiresAt)

	// Replaying the same code against the mutated account fails.
	_, err = svc.VerifyCode(context.Background(), phone, "7421")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidCode))
}

func TestVerifyCode_WrongCode_NoMutation(t *testing.T) {
	as := &mockAccountStore{}
	acct := pendingAccount(t, "7421", time.Now().Add(5*time.Minute))
	as.On("Get", mock.Anything, phone).Return(acct, nil)

	svc := newTestService(as, &mockSMSSender{}, &mockSigner{})
	_, err := svc.VerifyCode(context.Background(), phone, "0000")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidCode))
	as.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
	assert.False(t, acct.IsVerified)
	assert.NotEmpty(t, acct.OTPHash, "failed attempts leave the code retryable")
}

func TestVerifyCode_Expired(t *testing.T) {
	as := &mockAccountStore{}
	acct := pendingAccount(t, "7421", time.Now().Add(-time.Second))
	as.On("Get", mock.Anything, phone).Return(acct, nil)

	svc := newTestService(as, &mockSMSSender{}, &mockSigner{})
	_, err := svc.VerifyCode(context.Background(), phone, "7421")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCodeExpired))
	as.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestVerifyCode_NoOutstandingCode(t *testing.T) {
	as := &mockAccountStore{}
	as.On("Get", mock.Anything, phone).Return(&domain.Account{PhoneNumber: phone}, nil)

	svc := newTestService(as, &mockSMSSender{}, &mockSigner{})
	_, err := svc.VerifyCode(context.Background(), phone, "7421")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidCode))
}

func TestVerifyCode_UnknownPhone(t *testing.T) {
	as := &mockAccountStore{}
	as.On("Get", mock.Anything, phone).Return(nil, domain.ErrNotFound)

	svc := newTestService(as, &mockSMSSender{}, &mockSigner{})
	_, err := svc.VerifyCode(context.Background(), phone, "7421")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// A second issuance invalidates the first code even before it expires.
func TestReissue_InvalidatesPriorCode(t *testing.T) {
	as := &mockAccountStore{}
	sms := &mockSMSSender{}
	first := pendingAccount(t, "1111", time.Now().Add(5*time.Minute))
	as.On("Get", mock.Anything, phone).Return(first, nil)
	_, _ = captureIssuance(as, sms)

	svc := newTestService(as, sms, &mockSigner{})
	require.NoError(t, svc.Login(context.Background(), phone))

	// first now carries the new hash; the old code no longer matches.
	_, err := svc.VerifyCode(context.Background(), phone, "1111")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidCode))
}

// --- CompleteRegistration ---

func completeReq() domain.CompleteRegistrationRequest {
	return domain.CompleteRegistrationRequest{
		PhoneNumber: phone,
		FullName:    "Ada Lovelace",
		Email:       "ada@example.com",
		Gender:      domain.GenderFemale,
		DateOfBirth: "1815-12-10",
	}
}

func TestCompleteRegistration_NotVerified(t *testing.T) {
	as := &mockAccountStore{}
	as.On("Get", mock.Anything, phone).Return(&domain.Account{PhoneNumber: phone}, nil)

	svc := newTestService(as, &mockSMSSender{}, &mockSigner{})
	_, err := svc.CompleteRegistration(context.Background(), completeReq())

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotVerified))
	as.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestCompleteRegistration_UnknownPhone(t *testing.T) {
	as := &mockAccountStore{}
	as.On("Get", mock.Anything, phone).Return(nil, domain.ErrNotFound)

	svc := newTestService(as, &mockSMSSender{}, &mockSigner{})
	_, err := svc.CompleteRegistration(context.Background(), completeReq())

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestCompleteRegistration_OverwritesAllFields(t *testing.T) {
	as := &mockAccountStore{}
	signer := &mockSigner{}
	as.On("Get", mock.Anything, phone).Return(&domain.Account{PhoneNumber: phone, IsVerified: true}, nil)

	var updates map[string]interface{}
	as.On("Update", mock.Anything, phone, mock.Anything).
		Run(func(args mock.Arguments) { updates = args.Get(2).(map[string]interface{}) }).
		Return(nil)
	signer.On("Sign", phone, "ada@example.com").Return("fresh.bearer.token", nil)

	svc := newTestService(as, &mockSMSSender{}, signer)
	token, err := svc.CompleteRegistration(context.Background(), completeReq())

	require.NoError(t, err)
	assert.Equal(t, "fresh.bearer.token", token)
	assert.Equal(t, "Ada Lovelace", updates["full_name"])
	assert.Equal(t, "ada@example.com", updates["email"])
	assert.Equal(t, domain.GenderFemale, updates["gender"])
	assert.Equal(t, "1815-12-10", updates["date_of_birth"])
}

func TestCompleteRegistration_AbsentFieldsWrittenEmpty(t *testing.T) {
	as := &mockAccountStore{}
	signer := &mockSigner{}
	as.On("Get", mock.Anything, phone).Return(&domain.Account{
		PhoneNumber: phone, IsVerified: true, FullName: "Old Name", Email: "old@example.com",
	}, nil)

	var updates map[string]interface{}
	as.On("Update", mock.Anything, phone, mock.Anything).
		Run(func(args mock.Arguments) { updates = args.Get(2).(map[string]interface{}) }).
		Return(nil)
	signer.On("Sign", phone, "").Return("token", nil)

	svc := newTestService(as, &mockSMSSender{}, signer)
	_, err := svc.CompleteRegistration(context.Background(), domain.CompleteRegistrationRequest{PhoneNumber: phone})

	require.NoError(t, err)
	assert.Equal(t, "", updates["full_name"], "no merge semantics: absent fields overwrite")
	assert.Equal(t, "", updates["email"])
}
