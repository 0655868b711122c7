package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/godutch/internal/auth"
	"github.com/mmynk/godutch/internal/models"
	"github.com/mmynk/godutch/internal/notify"
	"github.com/mmynk/godutch/internal/storage"
	"github.com/mmynk/godutch/pkg/rpc"
)

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	authenticator auth.Authenticator
	users         storage.UserStore
	jwtManager    *auth.JWTManager
	sender        notify.Sender
	codeTTL       time.Duration
	logger        *slog.Logger
}

var _ rpc.AuthServiceHandler = (*AuthService)(nil)

// NewAuthService creates a new authentication service.
// codeTTL bounds how long SMS codes are accepted.
func NewAuthService(
	authenticator auth.Authenticator,
	users storage.UserStore,
	jwtManager *auth.JWTManager,
	sender notify.Sender,
	codeTTL time.Duration,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		users:         users,
		jwtManager:    jwtManager,
		sender:        sender,
		codeTTL:       codeTTL,
		logger:        logger,
	}
}

// SignUp creates an unverified account and texts a verification code.
func (s *AuthService) SignUp(ctx context.Context, req *connect.Request[rpc.SignUpRequest]) (*connect.Response[rpc.SignUpResponse], error) {
	phone := strings.TrimSpace(req.Msg.Phonenumber)
	s.logger.Info("SignUp request received", "phonenumber", phone)

	if phone == "" {
		return nil, toConnectError(ErrPhoneRequired)
	}
	if strings.TrimSpace(req.Msg.Name) == "" {
		return nil, toConnectError(ErrNameRequired)
	}

	user, err := s.authenticator.Register(ctx, phone, strings.TrimSpace(req.Msg.Name), req.Msg.Password)
	if err != nil {
		s.logger.Warn("SignUp failed", "phonenumber", phone, "error", err)
		return nil, toConnectError(err)
	}

	if err := s.issueCode(ctx, user, "verification"); err != nil {
		return nil, toConnectError(err)
	}

	s.logger.Info("SignUp successful", "user_id", user.ID)
	return connect.NewResponse(&rpc.SignUpResponse{
		User:           userMessage(user),
		CodeExpireTime: user.VerifyCode.ExpireTime,
	}), nil
}

// Verify confirms the phone number with the texted code and signs the user in.
func (s *AuthService) Verify(ctx context.Context, req *connect.Request[rpc.VerifyRequest]) (*connect.Response[rpc.VerifyResponse], error) {
	s.logger.Info("Verify request received", "phonenumber", req.Msg.Phonenumber)

	user, err := s.lookup(ctx, req.Msg.Phonenumber)
	if err != nil {
		return nil, toConnectError(err)
	}
	if user.Verified {
		return nil, toConnectError(ErrAlreadyVerified)
	}
	if err := s.checkCode(ctx, user, req.Msg.Code); err != nil {
		s.logger.Warn("Verify failed", "user_id", user.ID, "error", err)
		return nil, toConnectError(err)
	}

	user.Verified = true
	user.VerifyCode = models.VerifyCode{}
	user.UpdatedAt = time.Now().Unix()
	if err := s.users.UpdateUser(ctx, user); err != nil {
		s.logger.Error("Verify failed", "user_id", user.ID, "error", err)
		return nil, toConnectError(err)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("Verify successful", "user_id", user.ID)
	return connect.NewResponse(&rpc.VerifyResponse{User: userMessage(user), Token: token}), nil
}

// ResendCode texts a fresh verification code to an unverified account.
func (s *AuthService) ResendCode(ctx context.Context, req *connect.Request[rpc.ResendCodeRequest]) (*connect.Response[rpc.ResendCodeResponse], error) {
	s.logger.Info("ResendCode request received", "phonenumber", req.Msg.Phonenumber)

	user, err := s.lookup(ctx, req.Msg.Phonenumber)
	if err != nil {
		return nil, toConnectError(err)
	}
	if user.Verified {
		return nil, toConnectError(ErrAlreadyVerified)
	}
	if err := s.issueCode(ctx, user, "verification"); err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&rpc.ResendCodeResponse{CodeExpireTime: user.VerifyCode.ExpireTime}), nil
}

// RequestPasswordReset texts a reset code to a verified account.
func (s *AuthService) RequestPasswordReset(ctx context.Context, req *connect.Request[rpc.RequestPasswordResetRequest]) (*connect.Response[rpc.RequestPasswordResetResponse], error) {
	s.logger.Info("RequestPasswordReset request received", "phonenumber", req.Msg.Phonenumber)

	user, err := s.lookup(ctx, req.Msg.Phonenumber)
	if err != nil {
		return nil, toConnectError(err)
	}
	if !user.Verified {
		return nil, toConnectError(auth.ErrNotVerified)
	}
	if err := s.issueCode(ctx, user, "password reset"); err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&rpc.RequestPasswordResetResponse{CodeExpireTime: user.VerifyCode.ExpireTime}), nil
}

// VerifyPasswordReset exchanges a reset code for a short-lived reset token.
func (s *AuthService) VerifyPasswordReset(ctx context.Context, req *connect.Request[rpc.VerifyPasswordResetRequest]) (*connect.Response[rpc.VerifyPasswordResetResponse], error) {
	s.logger.Info("VerifyPasswordReset request received", "phonenumber", req.Msg.Phonenumber)

	user, err := s.lookup(ctx, req.Msg.Phonenumber)
	if err != nil {
		return nil, toConnectError(err)
	}
	if !user.Verified {
		return nil, toConnectError(auth.ErrNotVerified)
	}
	if err := s.checkCode(ctx, user, req.Msg.Code); err != nil {
		s.logger.Warn("VerifyPasswordReset failed", "user_id", user.ID, "error", err)
		return nil, toConnectError(err)
	}

	// Codes are single use.
	user.VerifyCode = models.VerifyCode{}
	user.UpdatedAt = time.Now().Unix()
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, toConnectError(err)
	}

	token, err := s.jwtManager.GenerateReset(user)
	if err != nil {
		s.logger.Error("Failed to generate reset token", "user_id", user.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("VerifyPasswordReset successful", "user_id", user.ID)
	return connect.NewResponse(&rpc.VerifyPasswordResetResponse{ResetToken: token}), nil
}

// ChangePassword sets a new password using a reset token.
func (s *AuthService) ChangePassword(ctx context.Context, req *connect.Request[rpc.ChangePasswordRequest]) (*connect.Response[rpc.ChangePasswordResponse], error) {
	s.logger.Info("ChangePassword request received")

	claims, err := s.jwtManager.ValidateReset(req.Msg.ResetToken)
	if err != nil {
		return nil, toConnectError(err)
	}

	hashed, err := s.authenticator.HashCredential(req.Msg.Password)
	if err != nil {
		return nil, toConnectError(err)
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, toConnectError(err)
	}
	user.PasswordHash = hashed
	user.UpdatedAt = time.Now().Unix()
	if err := s.users.UpdateUser(ctx, user); err != nil {
		s.logger.Error("ChangePassword failed", "user_id", user.ID, "error", err)
		return nil, toConnectError(err)
	}

	s.logger.Info("ChangePassword successful", "user_id", user.ID)
	return connect.NewResponse(&rpc.ChangePasswordResponse{}), nil
}

// SignIn authenticates a verified user and returns a session token.
func (s *AuthService) SignIn(ctx context.Context, req *connect.Request[rpc.SignInRequest]) (*connect.Response[rpc.SignInResponse], error) {
	s.logger.Info("SignIn request received", "phonenumber", req.Msg.Phonenumber)

	if req.Msg.Phonenumber == "" || req.Msg.Password == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidCredentials)
	}

	user, err := s.authenticator.Authenticate(ctx, strings.TrimSpace(req.Msg.Phonenumber), req.Msg.Password)
	if err != nil {
		s.logger.Warn("SignIn failed", "phonenumber", req.Msg.Phonenumber, "error", err)
		return nil, toConnectError(err)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("SignIn successful", "user_id", user.ID)
	return connect.NewResponse(&rpc.SignInResponse{User: userMessage(user), Token: token}), nil
}

func (s *AuthService) lookup(ctx context.Context, phonenumber string) (*models.User, error) {
	phonenumber = strings.TrimSpace(phonenumber)
	if phonenumber == "" {
		return nil, ErrPhoneRequired
	}
	user, err := s.users.GetUserByPhone(ctx, phonenumber)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, phonenumber)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// checkCode checks a submitted code and records wrong guesses on the user.
func (s *AuthService) checkCode(ctx context.Context, user *models.User, submitted string) error {
	err := auth.CheckCode(user.VerifyCode, submitted, time.Now())
	if !errors.Is(err, auth.ErrInvalidCode) {
		return err
	}

	err = auth.RecordFailure(&user.VerifyCode)
	user.UpdatedAt = time.Now().Unix()
	if uerr := s.users.UpdateUser(ctx, user); uerr != nil {
		s.logger.Error("Failed to record code attempt", "user_id", user.ID, "error", uerr)
		return uerr
	}
	return err
}

// issueCode stores a new code on the user and texts it. A failed SMS is
// logged, not returned: the user can ask for the code again.
func (s *AuthService) issueCode(ctx context.Context, user *models.User, purpose string) error {
	now := time.Now()
	code, err := auth.NewVerifyCode(now, s.codeTTL)
	if err != nil {
		return err
	}
	user.VerifyCode = code
	user.UpdatedAt = now.Unix()
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("failed to store %s code: %w", purpose, err)
	}

	text := fmt.Sprintf("Your Go-Dutch %s code is %s", purpose, code.Code)
	if err := s.sender.Send(ctx, user.Phonenumber, text); err != nil {
		s.logger.Error("Failed to send code", "user_id", user.ID, "purpose", purpose, "error", err)
	}
	return nil
}

func userMessage(user *models.User) *rpc.User {
	return &rpc.User{
		ID:          user.ID,
		Phonenumber: user.Phonenumber,
		Name:        user.Name,
		Verified:    user.Verified,
		Role:        user.Role,
		CreatedAt:   user.CreatedAt,
	}
}
