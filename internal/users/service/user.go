package service

import (
	"context"
	"errors"
	userserrors "rentals/internal/users/errors"
	"rentals/internal/users/repository"
	"rentals/internal/users/validator"
	"rentals/pkg/auth"
	"rentals/pkg/clock"
	"rentals/pkg/config"
	apperrors "rentals/pkg/errors"
	"rentals/pkg/model"
	"rentals/pkg/sanitizer"
	"rentals/pkg/sms"
	"rentals/pkg/validation"
	"time"
)

const (
	maxVerifyAttempts  = 5
	verificationWindow = 10 * time.Minute
)

type UserService interface {
	Register(ctx context.Context, input *model.Registration) (*model.AuthResult, error)
	Login(ctx context.Context, credentials *model.Credentials) (*model.AuthResult, error)
	Me(ctx context.Context, userID string) (*model.User, error)
	SendPhoneCode(ctx context.Context, userID string) error
	CheckPhoneCode(ctx context.Context, userID string, input *model.PhoneCode) (sms.Verdict, error)
}

type TokenIssuer interface {
	Issue(userID string, role model.Role) (string, error)
}

// VerificationGateway sends and checks one-time phone codes.
type VerificationGateway interface {
	StartVerification(ctx context.Context, to string) error
	CheckVerification(ctx context.Context, to, code string) (sms.Verdict, error)
}

type Dependencies struct {
	Repo      repository.UserRepository
	Throttle  repository.CodeThrottle
	Gateway   VerificationGateway
	Hasher    *auth.PasswordHasher
	Tokens    TokenIssuer
	Validator *validator.UserValidator
	Clock     clock.Clock
}

type userService struct {
	repo      repository.UserRepository
	throttle  repository.CodeThrottle
	gateway   VerificationGateway
	hasher    *auth.PasswordHasher
	tokens    TokenIssuer
	validator *validator.UserValidator
	clock     clock.Clock
	cfg       *config.Config
}

func NewUserService(deps Dependencies, cfg *config.Config) UserService {
	if deps.Clock == nil {
		deps.Clock = clock.System()
	}
	return &userService{
		repo:      deps.Repo,
		throttle:  deps.Throttle,
		gateway:   deps.Gateway,
		hasher:    deps.Hasher,
		tokens:    deps.Tokens,
		validator: deps.Validator,
		clock:     deps.Clock,
		cfg:       cfg,
	}
}

func (s *userService) Register(ctx context.Context, input *model.Registration) (*model.AuthResult, error) {
	s.sanitizeRegistration(input)
	if err := s.validator.ValidateRegistration(input); err != nil {
		return nil, validationError("User validation failed", err)
	}

	_, err := s.repo.FindByEmail(ctx, input.Email)
	switch {
	case err == nil:
		return nil, apperrors.Conflict("User already exists with this email")
	case !errors.Is(err, userserrors.ErrNotFound):
		return nil, apperrors.StoreFailure("Failed to check existing user", err)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, apperrors.Internal("Failed to secure password", err)
	}

	user := &model.User{
		Name:         input.Name,
		Email:        input.Email,
		PhoneNumber:  input.PhoneNumber,
		Role:         input.Role,
		PasswordHash: hash,
		Image:        input.Image,
		CreatedAt:    s.clock.Now().UTC().Truncate(time.Millisecond),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, userserrors.ErrDuplicate) {
			return nil, apperrors.Conflict("User already exists with this email or phone number")
		}
		s.cfg.Log.Error("Failed to create user", "email", user.Email, "error", err)
		return nil, apperrors.StoreFailure("Failed to create user", err)
	}

	s.cfg.Log.Info("User registered successfully", "id", user.ID, "role", user.Role)
	return s.authResult(user)
}

func (s *userService) Login(ctx context.Context, credentials *model.Credentials) (*model.AuthResult, error) {
	credentials.Email = sanitizer.NormalizeEmail(credentials.Email)
	if err := s.validator.ValidateCredentials(credentials); err != nil {
		return nil, validationError("Invalid login input", err)
	}

	user, err := s.repo.FindByEmail(ctx, credentials.Email)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("Invalid email or password")
		}
		return nil, apperrors.StoreFailure("Failed to retrieve user", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, credentials.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.cfg.Log.Warn("Login rejected", "user_id", user.ID)
			return nil, apperrors.Unauthorized("Invalid email or password")
		}
		return nil, apperrors.Internal("Failed to check password", err)
	}

	return s.authResult(user)
}

func (s *userService) Me(ctx context.Context, userID string) (*model.User, error) {
	return s.find(ctx, userID)
}

// SendPhoneCode holds the resend slot before calling the gateway and gives it
// back when the gateway fails, so a failed send can be retried at once.
func (s *userService) SendPhoneCode(ctx context.Context, userID string) error {
	if s.gateway == nil {
		return apperrors.Unavailable("phone verification")
	}

	user, err := s.find(ctx, userID)
	if err != nil {
		return err
	}
	if user.PhoneVerified {
		return apperrors.Conflict("Phone number is already verified")
	}

	reserved, err := s.throttle.Reserve(ctx, user.PhoneNumber, s.cfg.OTPResendAfter)
	if err != nil {
		return apperrors.Internal("Failed to throttle verification code", err)
	}
	if !reserved {
		return apperrors.TooManyRequests("A code was sent recently, please wait before requesting another").
			WithDetails(map[string]any{"retry_after_seconds": int(s.cfg.OTPResendAfter.Seconds())})
	}

	if err := s.gateway.StartVerification(ctx, user.PhoneNumber); err != nil {
		if releaseErr := s.throttle.Release(context.WithoutCancel(ctx), user.PhoneNumber); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release resend slot", "user_id", userID, "error", releaseErr)
		}
		s.cfg.Log.Error("Failed to send verification code", "user_id", userID, "error", err)
		if sms.IsPermanent(err) {
			return apperrors.InvalidInput("Phone number cannot receive verification codes")
		}
		return apperrors.Unavailable("phone verification")
	}

	s.cfg.Log.Info("Verification code sent", "user_id", userID)
	return nil
}

func (s *userService) CheckPhoneCode(ctx context.Context, userID string, input *model.PhoneCode) (sms.Verdict, error) {
	if s.gateway == nil {
		return "", apperrors.Unavailable("phone verification")
	}

	if err := s.validator.ValidatePhoneCode(input); err != nil {
		return "", validationError("Invalid verification code", err)
	}

	user, err := s.find(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.PhoneVerified {
		return sms.Approved, nil
	}

	attempts, err := s.throttle.RecordAttempt(ctx, user.PhoneNumber, verificationWindow)
	if err != nil {
		return "", apperrors.Internal("Failed to record verification attempt", err)
	}
	if attempts > maxVerifyAttempts {
		return "", apperrors.TooManyRequests("Too many verification attempts, please request a new code later")
	}

	verdict, err := s.gateway.CheckVerification(ctx, user.PhoneNumber, input.Code)
	if err != nil {
		s.cfg.Log.Error("Failed to check verification code", "user_id", userID, "error", err)
		return "", apperrors.Unavailable("phone verification")
	}
	if verdict != sms.Approved {
		return verdict, nil
	}

	if err := s.repo.SetPhoneVerified(ctx, userID); err != nil {
		return "", apperrors.StoreFailure("Failed to mark phone verified", err)
	}
	if err := s.throttle.ResetAttempts(ctx, user.PhoneNumber); err != nil {
		s.cfg.Log.Warn("Failed to reset verification attempts", "user_id", userID, "error", err)
	}

	s.cfg.Log.Info("Phone number verified", "user_id", userID)
	return verdict, nil
}

// --- Helpers ---

func (s *userService) find(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) || errors.Is(err, userserrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("User", userID)
		}
		return nil, apperrors.StoreFailure("Failed to retrieve user", err)
	}
	return user, nil
}

func (s *userService) authResult(user *model.User) (*model.AuthResult, error) {
	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.Internal("Failed to issue access token", err)
	}
	return &model.AuthResult{User: user, Token: token}, nil
}

// sanitizeRegistration leaves an unparseable phone number or image as typed
// so the validator reports it.
func (s *userService) sanitizeRegistration(input *model.Registration) {
	input.Name = sanitizer.NormalizeName(input.Name)
	input.Email = sanitizer.NormalizeEmail(input.Email)
	if image := sanitizer.NormalizeURL(input.Image); image != "" {
		input.Image = image
	}
	if phone := sanitizer.NormalizePhone(input.PhoneNumber, s.cfg.DefaultPhoneRegion); phone != "" {
		input.PhoneNumber = phone
	}
}

func validationError(message string, err error) error {
	if errs, ok := validation.AsValidationErrors(err); ok {
		return apperrors.Validation(message, errs.Details())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}
