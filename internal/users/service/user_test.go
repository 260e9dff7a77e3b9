package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	userserrors "rentals/internal/users/errors"
	"rentals/internal/users/repository"
	"rentals/internal/users/validator"
	"rentals/pkg/auth"
	"rentals/pkg/clock"
	"rentals/pkg/config"
	apperrors "rentals/pkg/errors"
	"rentals/pkg/logger"
	"rentals/pkg/model"
	"rentals/pkg/sms"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type mockUserRepository struct {
	mu    sync.Mutex
	seq   int
	users map[string]*model.User

	findErr error
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: map[string]*model.User{}}
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email || u.PhoneNumber == user.PhoneNumber {
			return userserrors.ErrDuplicate
		}
	}
	m.seq++
	user.ID = fmt.Sprintf("u%d", m.seq)
	c := *user
	m.users[user.ID] = &c
	return nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	u, ok := m.users[id]
	if !ok {
		return nil, userserrors.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, u := range m.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, userserrors.ErrNotFound
}

func (m *mockUserRepository) SetPhoneVerified(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return userserrors.ErrNotFound
	}
	u.PhoneVerified = true
	return nil
}

type fakeGateway struct {
	started  []string
	startErr error
	verdict  sms.Verdict
	checkErr error
	checks   int
}

func (g *fakeGateway) StartVerification(ctx context.Context, to string) error {
	if g.startErr != nil {
		return g.startErr
	}
	g.started = append(g.started, to)
	return nil
}

func (g *fakeGateway) CheckVerification(ctx context.Context, to, code string) (sms.Verdict, error) {
	g.checks++
	if g.checkErr != nil {
		return "", g.checkErr
	}
	return g.verdict, nil
}

var testNow = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

type fixture struct {
	svc     UserService
	repo    *mockUserRepository
	gateway *fakeGateway
	redis   *miniredis.Miniredis
	tokens  *auth.TokenManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	tokens, err := auth.NewTokenManager("0123456789abcdef0123456789abcdef", "rentals-test", 7*24*time.Hour, clock.Fixed(testNow))
	require.NoError(t, err)

	log := logger.Discard()
	cfg := &config.Config{
		Log:                log,
		OTPResendAfter:     time.Minute,
		DefaultPhoneRegion: "IN",
	}

	f := &fixture{
		repo:    newMockUserRepository(),
		gateway: &fakeGateway{verdict: sms.Approved},
		redis:   mr,
		tokens:  tokens,
	}
	f.svc = NewUserService(Dependencies{
		Repo:      f.repo,
		Throttle:  repository.NewRedisCodeThrottle(client, "test:otp"),
		Gateway:   f.gateway,
		Hasher:    auth.NewPasswordHasher(bcrypt.MinCost),
		Tokens:    tokens,
		Validator: validator.NewUserValidator(log),
		Clock:     clock.Fixed(testNow),
	}, cfg)
	return f
}

func registration() *model.Registration {
	return &model.Registration{
		Name:        "  Asha  Rao ",
		Email:       " Asha@Example.com ",
		PhoneNumber: "98765 43210",
		Role:        model.RoleLender,
		Password:    "s3cret!",
	}
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code, appErr.Message)
}

func TestRegister(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.Register(context.Background(), registration())
	require.NoError(t, err)

	assert.Equal(t, "u1", result.User.ID)
	assert.Equal(t, "Asha Rao", result.User.Name)
	assert.Equal(t, "asha@example.com", result.User.Email)
	assert.Equal(t, "+919876543210", result.User.PhoneNumber)
	assert.False(t, result.User.PhoneVerified)
	assert.Equal(t, testNow, result.User.CreatedAt)
	assert.NotEqual(t, "s3cret!", result.User.PasswordHash)

	identity, err := f.tokens.Verify(result.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", identity.UserID)
	assert.Equal(t, model.RoleLender, identity.Role)
}

func TestRegister_Conflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, registration())
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, registration())
	requireCode(t, err, apperrors.CodeConflict)

	samePhone := registration()
	samePhone.Email = "other@example.com"
	_, err = f.svc.Register(ctx, samePhone)
	requireCode(t, err, apperrors.CodeConflict)
}

func TestRegister_Invalid(t *testing.T) {
	f := newFixture(t)

	input := registration()
	input.PhoneNumber = "12"
	input.Role = "admin"
	_, err := f.svc.Register(context.Background(), input)
	requireCode(t, err, apperrors.CodeValidation)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, registration())
	require.NoError(t, err)

	result, err := f.svc.Login(ctx, &model.Credentials{Email: "ASHA@example.com", Password: "s3cret!"})
	require.NoError(t, err)
	assert.Equal(t, "u1", result.User.ID)
	assert.NotEmpty(t, result.Token)

	_, err = f.svc.Login(ctx, &model.Credentials{Email: "asha@example.com", Password: "wrong"})
	requireCode(t, err, apperrors.CodeUnauthorized)

	_, err = f.svc.Login(ctx, &model.Credentials{Email: "nobody@example.com", Password: "s3cret!"})
	requireCode(t, err, apperrors.CodeUnauthorized)

	f.repo.findErr = errors.New("connection reset")
	_, err = f.svc.Login(ctx, &model.Credentials{Email: "asha@example.com", Password: "s3cret!"})
	requireCode(t, err, apperrors.CodeStoreFailure)
}

func TestMe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	registered, err := f.svc.Register(ctx, registration())
	require.NoError(t, err)

	me, err := f.svc.Me(ctx, registered.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", me.Email)

	_, err = f.svc.Me(ctx, "u404")
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestSendPhoneCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	registered, err := f.svc.Register(ctx, registration())
	require.NoError(t, err)
	userID := registered.User.ID

	require.NoError(t, f.svc.SendPhoneCode(ctx, userID))
	assert.Equal(t, []string{"+919876543210"}, f.gateway.started)

	requireCode(t, f.svc.SendPhoneCode(ctx, userID), apperrors.CodeTooManyRequests)
	assert.Len(t, f.gateway.started, 1)

	f.redis.FastForward(time.Minute + time.Second)
	require.NoError(t, f.svc.SendPhoneCode(ctx, userID))
	assert.Len(t, f.gateway.started, 2)
}

func TestSendPhoneCode_GatewayFailureReleasesSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	registered, err := f.svc.Register(ctx, registration())
	require.NoError(t, err)
	userID := registered.User.ID

	f.gateway.startErr = &sms.APIError{StatusCode: 503, Message: "upstream down"}
	requireCode(t, f.svc.SendPhoneCode(ctx, userID), apperrors.CodeUnavailable)

	f.gateway.startErr = &sms.APIError{StatusCode: 400, Message: "unroutable number"}
	requireCode(t, f.svc.SendPhoneCode(ctx, userID), apperrors.CodeInvalidInput)

	f.gateway.startErr = nil
	require.NoError(t, f.svc.SendPhoneCode(ctx, userID), "failed sends do not hold the resend window")
}

func TestCheckPhoneCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	registered, err := f.svc.Register(ctx, registration())
	require.NoError(t, err)
	userID := registered.User.ID

	f.gateway.verdict = sms.Denied
	verdict, err := f.svc.CheckPhoneCode(ctx, userID, &model.PhoneCode{Code: "000000"})
	require.NoError(t, err)
	assert.Equal(t, sms.Denied, verdict)

	me, err := f.svc.Me(ctx, userID)
	require.NoError(t, err)
	assert.False(t, me.PhoneVerified)

	f.gateway.verdict = sms.Approved
	verdict, err = f.svc.CheckPhoneCode(ctx, userID, &model.PhoneCode{Code: "123456"})
	require.NoError(t, err)
	assert.Equal(t, sms.Approved, verdict)

	me, err = f.svc.Me(ctx, userID)
	require.NoError(t, err)
	assert.True(t, me.PhoneVerified)

	checks := f.gateway.checks
	verdict, err = f.svc.CheckPhoneCode(ctx, userID, &model.PhoneCode{Code: "999999"})
	require.NoError(t, err)
	assert.Equal(t, sms.Approved, verdict)
	assert.Equal(t, checks, f.gateway.checks, "verified numbers are not re-checked")

	requireCode(t, f.svc.SendPhoneCode(ctx, userID), apperrors.CodeConflict)
}

func TestCheckPhoneCode_AttemptLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	registered, err := f.svc.Register(ctx, registration())
	require.NoError(t, err)
	userID := registered.User.ID

	f.gateway.verdict = sms.Denied
	for i := 0; i < maxVerifyAttempts; i++ {
		_, err := f.svc.CheckPhoneCode(ctx, userID, &model.PhoneCode{Code: "000000"})
		require.NoError(t, err)
	}

	_, err = f.svc.CheckPhoneCode(ctx, userID, &model.PhoneCode{Code: "123456"})
	requireCode(t, err, apperrors.CodeTooManyRequests)
	assert.Equal(t, maxVerifyAttempts, f.gateway.checks)

	f.redis.FastForward(verificationWindow + time.Second)
	f.gateway.verdict = sms.Approved
	verdict, err := f.svc.CheckPhoneCode(ctx, userID, &model.PhoneCode{Code: "123456"})
	require.NoError(t, err)
	assert.Equal(t, sms.Approved, verdict)
}

func TestCheckPhoneCode_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	registered, err := f.svc.Register(ctx, registration())
	require.NoError(t, err)

	_, err = f.svc.CheckPhoneCode(ctx, registered.User.ID, &model.PhoneCode{Code: "abc"})
	requireCode(t, err, apperrors.CodeValidation)

	f.gateway.checkErr = errors.New("dial tcp: i/o timeout")
	_, err = f.svc.CheckPhoneCode(ctx, registered.User.ID, &model.PhoneCode{Code: "123456"})
	requireCode(t, err, apperrors.CodeUnavailable)
}

func TestPhoneCode_GatewayNotConfigured(t *testing.T) {
	log := logger.Discard()
	svc := NewUserService(Dependencies{
		Repo:      newMockUserRepository(),
		Validator: validator.NewUserValidator(log),
	}, &config.Config{Log: log})

	requireCode(t, svc.SendPhoneCode(context.Background(), "u1"), apperrors.CodeUnavailable)
	_, err := svc.CheckPhoneCode(context.Background(), "u1", &model.PhoneCode{Code: "123456"})
	requireCode(t, err, apperrors.CodeUnavailable)
}
