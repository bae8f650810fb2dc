package services

import (
	"net/http"
	"testing"
	"time"

	types "github.com/yungbote/certifytrack-backend/internal/domain"
	"github.com/yungbote/certifytrack-backend/internal/pkg/ctxutil"
	"github.com/yungbote/certifytrack-backend/internal/pkg/dbctx"
)

func TestRegisterLoginAndToken(t *testing.T) {
	f := newFixture(t)

	res, err := f.auth.Register(f.ctx, RegisterInput{Email: " Ada@Example.com ", Password: "correct horse", Name: "Ada"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.User.Email != "ada@example.com" || res.User.Role != types.RoleStudent || res.AccessToken == "" {
		t.Fatalf("unexpected register result: %+v", res)
	}
	if res.ExpiresIn != int64(time.Hour.Seconds()) {
		t.Fatalf("unexpected expires_in %d", res.ExpiresIn)
	}

	_, err = f.auth.Register(f.ctx, RegisterInput{Email: "ada@example.com", Password: "another one", Name: "Ada 2"})
	wantCode(t, err, "email_taken")

	_, err = f.auth.Login(f.ctx, LoginInput{Email: "ada@example.com", Password: "wrong password"})
	wantCode(t, err, "invalid_credentials")
	_, err = f.auth.Login(f.ctx, LoginInput{Email: "nobody@example.com", Password: "whatever"})
	wantCode(t, err, "invalid_credentials")

	login, err := f.auth.Login(f.ctx, LoginInput{Email: "ADA@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	ctx, err := f.auth.SetContextFromToken(f.ctx, login.AccessToken)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID != res.User.ID || rd.Role != types.RoleStudent || rd.Name != "Ada" {
		t.Fatalf("unexpected request data: %+v", rd)
	}
	me, err := f.auth.Me(dbctx.Context{Ctx: ctx})
	if err != nil || me.ID != res.User.ID {
		t.Fatalf("Me: %v", err)
	}

	f.now = f.now.Add(2 * time.Hour)
	_, err = f.auth.SetContextFromToken(f.ctx, login.AccessToken)
	wantCode(t, err, "token_expired")

	_, err = f.auth.SetContextFromToken(f.ctx, "not-a-token")
	wantCode(t, err, "invalid_token")
}

func TestRegisterAssignsAdminRole(t *testing.T) {
	f := newFixture(t)
	res, err := f.auth.Register(f.ctx, RegisterInput{Email: "boss@example.com", Password: "long enough", Name: "Boss"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.User.Role != types.RoleAdmin {
		t.Fatalf("expected admin role, got %q", res.User.Role)
	}
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		in   RegisterInput
	}{
		{name: "bad email", in: RegisterInput{Email: "nope", Password: "long enough", Name: "N"}},
		{name: "short password", in: RegisterInput{Email: "a@b.co", Password: "short", Name: "N"}},
		{name: "missing name", in: RegisterInput{Email: "a@b.co", Password: "long enough", Name: "  "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.auth.Register(f.ctx, tt.in)
			wantStatus(t, err, http.StatusBadRequest)
		})
	}
}
