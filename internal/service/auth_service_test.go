package service

import (
	"context"
	"strings"
	"testing"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/godutch/internal/auth"
	"github.com/mmynk/godutch/pkg/rpc"
)

func TestSignUpAndVerify(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	resp, err := env.auth.SignUp(ctx, connect.NewRequest(&rpc.SignUpRequest{
		Phonenumber: "+100",
		Name:        "Alice",
		Password:    "password123",
	}))
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if resp.Msg.User.ID == "" || resp.Msg.User.Verified {
		t.Errorf("user = %+v", resp.Msg.User)
	}
	if resp.Msg.CodeExpireTime == 0 {
		t.Error("expected code expiry")
	}

	t.Run("sign in before verifying", func(t *testing.T) {
		_, err := env.auth.SignIn(ctx, connect.NewRequest(&rpc.SignInRequest{Phonenumber: "+100", Password: "password123"}))
		wantCode(t, err, connect.CodeFailedPrecondition)
	})

	t.Run("wrong code", func(t *testing.T) {
		code := "000000"
		if env.sms.lastCode("+100") == code {
			code = "111111"
		}
		_, err := env.auth.Verify(ctx, connect.NewRequest(&rpc.VerifyRequest{Phonenumber: "+100", Code: code}))
		wantCode(t, err, connect.CodeInvalidArgument)
	})

	t.Run("unknown phone", func(t *testing.T) {
		_, err := env.auth.Verify(ctx, connect.NewRequest(&rpc.VerifyRequest{Phonenumber: "+999", Code: "123456"}))
		wantCode(t, err, connect.CodeNotFound)
	})

	t.Run("resend replaces the code", func(t *testing.T) {
		first := env.sms.lastCode("+100")
		_, err := env.auth.ResendCode(ctx, connect.NewRequest(&rpc.ResendCodeRequest{Phonenumber: "+100"}))
		if err != nil {
			t.Fatalf("ResendCode failed: %v", err)
		}
		if len(env.sms.messages["+100"]) != 2 {
			t.Fatalf("expected a second SMS, got %v", env.sms.messages["+100"])
		}
		if second := env.sms.lastCode("+100"); second == first {
			t.Skip("random codes collided")
		}
		_, err = env.auth.Verify(ctx, connect.NewRequest(&rpc.VerifyRequest{Phonenumber: "+100", Code: first}))
		wantCode(t, err, connect.CodeInvalidArgument)
	})

	t.Run("verify", func(t *testing.T) {
		resp, err := env.auth.Verify(ctx, connect.NewRequest(&rpc.VerifyRequest{
			Phonenumber: "+100",
			Code:        env.sms.lastCode("+100"),
		}))
		if err != nil {
			t.Fatalf("Verify failed: %v", err)
		}
		if !resp.Msg.User.Verified || resp.Msg.Token == "" {
			t.Errorf("response = %+v", resp.Msg)
		}
	})

	t.Run("verify twice", func(t *testing.T) {
		_, err := env.auth.Verify(ctx, connect.NewRequest(&rpc.VerifyRequest{Phonenumber: "+100", Code: "123456"}))
		wantCode(t, err, connect.CodeFailedPrecondition)

		_, err = env.auth.ResendCode(ctx, connect.NewRequest(&rpc.ResendCodeRequest{Phonenumber: "+100"}))
		wantCode(t, err, connect.CodeFailedPrecondition)
	})

	t.Run("sign in", func(t *testing.T) {
		resp, err := env.auth.SignIn(ctx, connect.NewRequest(&rpc.SignInRequest{Phonenumber: "+100", Password: "password123"}))
		if err != nil {
			t.Fatalf("SignIn failed: %v", err)
		}

		me, err := env.users.Me(ctx, withToken(&emptypb.Empty{}, resp.Msg.Token))
		if err != nil {
			t.Fatalf("Me failed: %v", err)
		}
		if me.Msg.User.Phonenumber != "+100" || me.Msg.User.Name != "Alice" {
			t.Errorf("Me = %+v", me.Msg.User)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := env.auth.SignIn(ctx, connect.NewRequest(&rpc.SignInRequest{Phonenumber: "+100", Password: "wrong-password"}))
		wantCode(t, err, connect.CodeUnauthenticated)
	})
}

func TestSignUp_Validation(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	env.register(t, "+100", "Alice")

	tests := []struct {
		name string
		req  *rpc.SignUpRequest
		code connect.Code
	}{
		{"missing phone", &rpc.SignUpRequest{Name: "X", Password: "password123"}, connect.CodeInvalidArgument},
		{"missing name", &rpc.SignUpRequest{Phonenumber: "+200", Password: "password123"}, connect.CodeInvalidArgument},
		{"weak password", &rpc.SignUpRequest{Phonenumber: "+200", Name: "X", Password: "short"}, connect.CodeInvalidArgument},
		{"password over 72 bytes", &rpc.SignUpRequest{Phonenumber: "+200", Name: "X", Password: strings.Repeat("p", 80)}, connect.CodeInvalidArgument},
		{"taken phone", &rpc.SignUpRequest{Phonenumber: "+100", Name: "X", Password: "password123"}, connect.CodeAlreadyExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.SignUp(ctx, connect.NewRequest(tt.req))
			wantCode(t, err, tt.code)
		})
	}
}

func TestPasswordReset(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	session := env.register(t, "+100", "Alice")

	_, err := env.auth.RequestPasswordReset(ctx, connect.NewRequest(&rpc.RequestPasswordResetRequest{Phonenumber: "+100"}))
	if err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}

	resp, err := env.auth.VerifyPasswordReset(ctx, connect.NewRequest(&rpc.VerifyPasswordResetRequest{
		Phonenumber: "+100",
		Code:        env.sms.lastCode("+100"),
	}))
	if err != nil {
		t.Fatalf("VerifyPasswordReset failed: %v", err)
	}

	// A session token cannot change the password.
	_, err = env.auth.ChangePassword(ctx, connect.NewRequest(&rpc.ChangePasswordRequest{ResetToken: session, Password: "new-password"}))
	wantCode(t, err, connect.CodeUnauthenticated)

	_, err = env.auth.ChangePassword(ctx, connect.NewRequest(&rpc.ChangePasswordRequest{ResetToken: resp.Msg.ResetToken, Password: "short"}))
	wantCode(t, err, connect.CodeInvalidArgument)

	_, err = env.auth.ChangePassword(ctx, connect.NewRequest(&rpc.ChangePasswordRequest{ResetToken: resp.Msg.ResetToken, Password: "new-password"}))
	if err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}

	_, err = env.auth.SignIn(ctx, connect.NewRequest(&rpc.SignInRequest{Phonenumber: "+100", Password: "password123"}))
	wantCode(t, err, connect.CodeUnauthenticated)

	_, err = env.auth.SignIn(ctx, connect.NewRequest(&rpc.SignInRequest{Phonenumber: "+100", Password: "new-password"}))
	if err != nil {
		t.Errorf("SignIn with new password failed: %v", err)
	}

	// The reset code is single use.
	_, err = env.auth.VerifyPasswordReset(ctx, connect.NewRequest(&rpc.VerifyPasswordResetRequest{
		Phonenumber: "+100",
		Code:        env.sms.lastCode("+100"),
	}))
	wantCode(t, err, connect.CodeInvalidArgument)
}

func TestPasswordReset_Unverified(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	_, err := env.auth.SignUp(ctx, connect.NewRequest(&rpc.SignUpRequest{Phonenumber: "+100", Name: "Alice", Password: "password123"}))
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}

	_, err = env.auth.RequestPasswordReset(ctx, connect.NewRequest(&rpc.RequestPasswordResetRequest{Phonenumber: "+100"}))
	wantCode(t, err, connect.CodeFailedPrecondition)
}

func TestMe_RequiresToken(t *testing.T) {
	env := setupTestServer(t)

	_, err := env.users.Me(context.Background(), connect.NewRequest(&emptypb.Empty{}))
	wantCode(t, err, connect.CodeUnauthenticated)

	_, err = env.users.Me(context.Background(), withToken(&emptypb.Empty{}, "garbage"))
	wantCode(t, err, connect.CodeUnauthenticated)
}

func TestVerify_AttemptLimit(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	_, err := env.auth.SignUp(ctx, connect.NewRequest(&rpc.SignUpRequest{
		Phonenumber: "+300",
		Name:        "Carol",
		Password:    "password123",
	}))
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}

	valid := env.sms.lastCode("+300")
	wrong := "000000"
	if valid == wrong {
		wrong = "111111"
	}

	for i := 1; i < auth.MaxCodeAttempts; i++ {
		_, err := env.auth.Verify(ctx, connect.NewRequest(&rpc.VerifyRequest{Phonenumber: "+300", Code: wrong}))
		wantCode(t, err, connect.CodeInvalidArgument)
	}
	_, err = env.auth.Verify(ctx, connect.NewRequest(&rpc.VerifyRequest{Phonenumber: "+300", Code: wrong}))
	wantCode(t, err, connect.CodeResourceExhausted)

	// The right code no longer works once the attempts are used up.
	_, err = env.auth.Verify(ctx, connect.NewRequest(&rpc.VerifyRequest{Phonenumber: "+300", Code: valid}))
	wantCode(t, err, connect.CodeResourceExhausted)

	// A fresh code starts over.
	if _, err := env.auth.ResendCode(ctx, connect.NewRequest(&rpc.ResendCodeRequest{Phonenumber: "+300"})); err != nil {
		t.Fatalf("ResendCode failed: %v", err)
	}
	_, err = env.auth.Verify(ctx, connect.NewRequest(&rpc.VerifyRequest{Phonenumber: "+300", Code: env.sms.lastCode("+300")}))
	if err != nil {
		t.Fatalf("Verify after resend failed: %v", err)
	}
}
