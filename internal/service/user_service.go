package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/godutch/internal/auth"
	"github.com/mmynk/godutch/internal/middleware"
	"github.com/mmynk/godutch/internal/storage"
	"github.com/mmynk/godutch/pkg/rpc"
)

// UserService implements the UserService RPC interface.
type UserService struct {
	users  storage.UserStore
	logger *slog.Logger
}

var _ rpc.UserServiceHandler = (*UserService)(nil)

func NewUserService(users storage.UserStore, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// Me returns the currently authenticated user's information.
func (s *UserService) Me(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[rpc.MeResponse], error) {
	// Get user ID from context (set by auth middleware)
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		s.logger.Error("Me failed", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&rpc.MeResponse{User: userMessage(user)}), nil
}
