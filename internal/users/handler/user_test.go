package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"rentals/pkg/auth"
	apperrors "rentals/pkg/errors"
	"rentals/pkg/logger"
	"rentals/pkg/model"
	"rentals/pkg/sms"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockUserService struct {
	registerFunc  func(ctx context.Context, input *model.Registration) (*model.AuthResult, error)
	loginFunc     func(ctx context.Context, credentials *model.Credentials) (*model.AuthResult, error)
	meFunc        func(ctx context.Context, userID string) (*model.User, error)
	sendCodeFunc  func(ctx context.Context, userID string) error
	checkCodeFunc func(ctx context.Context, userID string, input *model.PhoneCode) (sms.Verdict, error)
}

func (m *mockUserService) Register(ctx context.Context, input *model.Registration) (*model.AuthResult, error) {
	return m.registerFunc(ctx, input)
}

func (m *mockUserService) Login(ctx context.Context, credentials *model.Credentials) (*model.AuthResult, error) {
	return m.loginFunc(ctx, credentials)
}

func (m *mockUserService) Me(ctx context.Context, userID string) (*model.User, error) {
	return m.meFunc(ctx, userID)
}

func (m *mockUserService) SendPhoneCode(ctx context.Context, userID string) error {
	return m.sendCodeFunc(ctx, userID)
}

func (m *mockUserService) CheckPhoneCode(ctx context.Context, userID string, input *model.PhoneCode) (sms.Verdict, error) {
	return m.checkCodeFunc(ctx, userID, input)
}

type stubVerifier map[string]*auth.Identity

func (s stubVerifier) Verify(token string) (*auth.Identity, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return nil, auth.ErrInvalidToken
}

var verifier = stubVerifier{
	"lender": {UserID: "u1", Role: model.RoleLender},
}

func serve(svc *mockUserService, method, path, token, body string) *httptest.ResponseRecorder {
	router := httprouter.New()
	NewUserHandler(svc, verifier, logger.Discard()).RegisterRoutes(router)

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRegister(t *testing.T) {
	svc := &mockUserService{
		registerFunc: func(ctx context.Context, input *model.Registration) (*model.AuthResult, error) {
			return &model.AuthResult{
				User:  &model.User{ID: "u1", Email: input.Email, Role: input.Role, PasswordHash: "$2a$hash"},
				Token: "jwt",
			}, nil
		},
	}

	body := `{"name":"Asha","email":"asha@example.com","phone_number":"+919876543210","role":"lender","password":"s3cret!"}`
	rec := serve(svc, http.MethodPost, "/api/v1/users/register", "", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "$2a$hash")

	var resp struct {
		Data model.AuthResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "jwt", resp.Data.Token)
	assert.Equal(t, "u1", resp.Data.User.ID)

	rec = serve(svc, http.MethodPost, "/api/v1/users/register", "", `{"is_admin":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin(t *testing.T) {
	svc := &mockUserService{
		loginFunc: func(ctx context.Context, credentials *model.Credentials) (*model.AuthResult, error) {
			if credentials.Password != "right" {
				return nil, apperrors.Unauthorized("Invalid email or password")
			}
			return &model.AuthResult{User: &model.User{ID: "u1"}, Token: "jwt"}, nil
		},
	}

	rec := serve(svc, http.MethodPost, "/api/v1/users/login", "", `{"email":"a@example.com","password":"right"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(svc, http.MethodPost, "/api/v1/users/login", "", `{"email":"a@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMe(t *testing.T) {
	svc := &mockUserService{
		meFunc: func(ctx context.Context, userID string) (*model.User, error) {
			return &model.User{ID: userID, Name: "Asha"}, nil
		},
	}

	assert.Equal(t, http.StatusUnauthorized, serve(svc, http.MethodGet, "/api/v1/users/me", "", "").Code)

	rec := serve(svc, http.MethodGet, "/api/v1/users/me", "lender", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"u1"`)
}

func TestPhoneVerification(t *testing.T) {
	var gotCode string
	svc := &mockUserService{
		sendCodeFunc: func(ctx context.Context, userID string) error {
			return nil
		},
		checkCodeFunc: func(ctx context.Context, userID string, input *model.PhoneCode) (sms.Verdict, error) {
			gotCode = input.Code
			if input.Code == "123456" {
				return sms.Approved, nil
			}
			return sms.Denied, nil
		},
	}

	rec := serve(svc, http.MethodPost, "/api/v1/users/me/phone/send-code", "lender", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"pending"`)

	rec = serve(svc, http.MethodPost, "/api/v1/users/me/phone/verify", "lender", `{"code":"123456"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "123456", gotCode)

	var resp struct {
		Data model.PhoneVerification `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "approved", resp.Data.Status)
	assert.True(t, resp.Data.PhoneVerified)

	rec = serve(svc, http.MethodPost, "/api/v1/users/me/phone/verify", "lender", `{"code":"000000"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"phone_verified":false`)

	svc.sendCodeFunc = func(ctx context.Context, userID string) error {
		return apperrors.TooManyRequests("A code was sent recently")
	}
	rec = serve(svc, http.MethodPost, "/api/v1/users/me/phone/send-code", "lender", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
