package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-lms-api/internal/dto"
)

const otpDigits = 6

// OTPSender delivers codes to a phone number. Delivery itself is external.
type OTPSender interface {
	SendOTP(ctx context.Context, phone, code string) error
}

// LogOTPSender writes codes to the log. Meant for development environments.
type LogOTPSender struct {
	Logger zerolog.Logger
}

// SendOTP logs the phone number and code.
func (s LogOTPSender) SendOTP(_ context.Context, phone, code string) error {
	s.Logger.Info().Str("phone", phone).Str("code", code).Msg("otp issued")
	return nil
}

// OTPService issues and verifies single-use codes stored in redis with a TTL.
type OTPService interface {
	Issue(ctx context.Context, payload dto.OTPRequest) (dto.OTPIssueResponse, error)
	Verify(ctx context.Context, payload dto.OTPVerifyRequest) (dto.OTPVerifyResponse, error)
}

type otpService struct {
	store     *redis.Client
	sender    OTPSender
	ttl       time.Duration
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewOTPService constructs the OTP service.
func NewOTPService(store *redis.Client, sender OTPSender, ttl time.Duration, validate *validator.Validate, logger zerolog.Logger) OTPService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &otpService{
		store:     store,
		sender:    sender,
		ttl:       ttl,
		validator: validate,
		logger:    logger.With().Str("component", "otp_service").Logger(),
		now:       time.Now,
	}
}

func otpKey(phone string) string {
	return "otp:" + strings.TrimSpace(phone)
}

// Issue stores a fresh code for the phone, replacing any previous one.
func (s *otpService) Issue(ctx context.Context, payload dto.OTPRequest) (dto.OTPIssueResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.OTPIssueResponse{}, validationError("otp.Issue", err)
	}

	code, err := generateOTP()
	if err != nil {
		return dto.OTPIssueResponse{}, fmt.Errorf("otp.Issue: %w", err)
	}

	if err := s.store.Set(ctx, otpKey(payload.Phone), code, s.ttl).Err(); err != nil {
		return dto.OTPIssueResponse{}, wrapError("otp.Issue", ErrDependencyFailure, "failed to store otp", err)
	}

	if s.sender != nil {
		if err := s.sender.SendOTP(ctx, payload.Phone, code); err != nil {
			_ = s.store.Del(ctx, otpKey(payload.Phone)).Err()
			return dto.OTPIssueResponse{}, wrapError("otp.Issue", ErrDependencyFailure, "failed to deliver otp", err)
		}
	}

	return dto.OTPIssueResponse{Phone: payload.Phone, ExpiresAt: s.now().UTC().Add(s.ttl)}, nil
}

// Verify consumes the code. A code verifies at most once; expired codes are gone from redis.
func (s *otpService) Verify(ctx context.Context, payload dto.OTPVerifyRequest) (dto.OTPVerifyResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.OTPVerifyResponse{}, validationError("otp.Verify", err)
	}

	key := otpKey(payload.Phone)
	stored, err := s.store.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return dto.OTPVerifyResponse{}, ErrOTPInvalid
	}
	if err != nil {
		return dto.OTPVerifyResponse{}, wrapError("otp.Verify", ErrDependencyFailure, "failed to read otp", err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(payload.Code)) != 1 {
		return dto.OTPVerifyResponse{}, ErrOTPInvalid
	}

	deleted, err := s.store.Del(ctx, key).Result()
	if err != nil {
		return dto.OTPVerifyResponse{}, wrapError("otp.Verify", ErrDependencyFailure, "failed to consume otp", err)
	}
	if deleted == 0 {
		return dto.OTPVerifyResponse{}, ErrOTPInvalid
	}

	return dto.OTPVerifyResponse{Phone: payload.Phone, Verified: true}, nil
}

func generateOTP() (string, error) {
	limit := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}
