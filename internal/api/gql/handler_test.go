package gql

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/eats-backend/internal/auth"
	"github.com/spec-kit/eats-backend/internal/events"
	"github.com/spec-kit/eats-backend/internal/repository"
	"github.com/spec-kit/eats-backend/internal/service"
)

type codeRecorder struct {
	mu    sync.Mutex
	codes []string
}

func (r *codeRecorder) Publish(_ context.Context, ev events.Event) error {
	var payload events.VerificationRequestedPayload
	if err := ev.Decode(&payload); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes = append(r.codes, payload.Code)
	return nil
}

func (r *codeRecorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.codes[len(r.codes)-1]
}

type gqlResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message    string                 `json:"message"`
		Extensions map[string]interface{} `json:"extensions"`
	} `json:"errors"`
}

type envelope struct {
	OK    bool    `json:"ok"`
	Error *string `json:"error"`
	Token *string `json:"token"`
	User  *struct {
		ID       string `json:"id"`
		Email    string `json:"email"`
		Role     string `json:"role"`
		Verified bool   `json:"verified"`
	} `json:"user"`
}

type testServer struct {
	app   *fiber.App
	codes *codeRecorder
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := repository.NewMemoryStore()
	tokens := auth.NewTokenManager("test-secret", 0)
	codes := &codeRecorder{}

	accounts := service.NewAccountService(service.AccountDependencies{
		Store:      store,
		Tokens:     tokens,
		Publisher:  codes,
		Logger:     zap.NewNop(),
		BcryptCost: bcrypt.MinCost,
	})
	schema, err := NewSchema(NewResolver(accounts), auth.NewGuard(OperationRoles))
	require.NoError(t, err)

	app := fiber.New()
	app.Use(auth.NewAuthMiddleware(tokens, store.Users(), zap.NewNop()).Handle)
	app.Post("/graphql", NewHandler(schema, zap.NewNop()).Serve)
	return &testServer{app: app, codes: codes}
}

func (s *testServer) do(t *testing.T, token, query string, variables map[string]interface{}) gqlResponse {
	t.Helper()
	body, err := json.Marshal(Request{Query: query, Variables: variables})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(auth.HeaderName, token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out gqlResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func field(t *testing.T, resp gqlResponse, name string) envelope {
	t.Helper()
	require.Empty(t, resp.Errors)
	var env envelope
	require.NoError(t, json.Unmarshal(resp.Data[name], &env))
	return env
}

const (
	createAccountMutation = `mutation($input: CreateAccountInput!) { createAccount(input: $input) { ok error } }`
	loginMutation         = `mutation($input: LoginInput!) { login(input: $input) { ok error token } }`
	editProfileMutation   = `mutation($input: EditProfileInput!) { editProfile(input: $input) { ok error } }`
	verifyEmailMutation   = `mutation($input: VerifyEmailInput!) { verifyEmail(input: $input) { ok error } }`
	userProfileQuery      = `query($id: String!) { userProfile(userId: $id) { ok error user { id email role verified } } }`
	meQuery               = `{ me { id email role verified } }`
)

func TestAccountFlow(t *testing.T) {
	srv := newTestServer(t)
	account := map[string]interface{}{"email": "e2e@email.com", "password": "1234", "role": "Client"}

	created := field(t, srv.do(t, "", createAccountMutation, map[string]interface{}{"input": account}), "createAccount")
	assert.True(t, created.OK)
	assert.Nil(t, created.Error)

	duplicate := field(t, srv.do(t, "", createAccountMutation, map[string]interface{}{"input": account}), "createAccount")
	assert.False(t, duplicate.OK)
	require.NotNil(t, duplicate.Error)
	assert.NotEmpty(t, *duplicate.Error)

	login := field(t, srv.do(t, "", loginMutation, map[string]interface{}{
		"input": map[string]interface{}{"email": "e2e@email.com", "password": "1234"},
	}), "login")
	require.True(t, login.OK)
	assert.Nil(t, login.Error)
	require.NotNil(t, login.Token)
	token := *login.Token

	wrong := field(t, srv.do(t, "", loginMutation, map[string]interface{}{
		"input": map[string]interface{}{"email": "e2e@email.com", "password": "12341"},
	}), "login")
	assert.False(t, wrong.OK)
	require.NotNil(t, wrong.Error)
	assert.Equal(t, "Wrong Password", *wrong.Error)
	assert.Nil(t, wrong.Token)

	meResp := srv.do(t, token, meQuery, nil)
	require.Empty(t, meResp.Errors)
	var me struct {
		ID       string `json:"id"`
		Email    string `json:"email"`
		Role     string `json:"role"`
		Verified bool   `json:"verified"`
	}
	require.NoError(t, json.Unmarshal(meResp.Data["me"], &me))
	assert.Equal(t, "e2e@email.com", me.Email)
	assert.Equal(t, "Client", me.Role)
	assert.False(t, me.Verified)

	profile := field(t, srv.do(t, token, userProfileQuery, map[string]interface{}{"id": me.ID}), "userProfile")
	assert.True(t, profile.OK)
	require.NotNil(t, profile.User)
	assert.Equal(t, me.ID, profile.User.ID)

	missing := field(t, srv.do(t, token, userProfileQuery, map[string]interface{}{"id": "666"}), "userProfile")
	assert.False(t, missing.OK)
	require.NotNil(t, missing.Error)
	assert.Equal(t, "User Not Found", *missing.Error)
	assert.Nil(t, missing.User)

	signupCode := srv.codes.last()
	verified := field(t, srv.do(t, "", verifyEmailMutation, map[string]interface{}{
		"input": map[string]interface{}{"code": signupCode},
	}), "verifyEmail")
	assert.True(t, verified.OK)

	reused := field(t, srv.do(t, "", verifyEmailMutation, map[string]interface{}{
		"input": map[string]interface{}{"code": signupCode},
	}), "verifyEmail")
	assert.False(t, reused.OK)
	require.NotNil(t, reused.Error)
	assert.Equal(t, "Verification Not Found.", *reused.Error)

	edited := field(t, srv.do(t, token, editProfileMutation, map[string]interface{}{
		"input": map[string]interface{}{"email": "new@email.com"},
	}), "editProfile")
	assert.True(t, edited.OK)
	assert.NotEqual(t, signupCode, srv.codes.last())

	after := field(t, srv.do(t, token, userProfileQuery, map[string]interface{}{"id": me.ID}), "userProfile")
	require.NotNil(t, after.User)
	assert.Equal(t, "new@email.com", after.User.Email)
	assert.False(t, after.User.Verified)
}

func TestGuard_RejectsAnonymousCallers(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name      string
		token     string
		query     string
		variables map[string]interface{}
	}{
		{"me without token", "", meQuery, nil},
		{"me with garbage token", "not-a-jwt", meQuery, nil},
		{"userProfile without token", "", userProfileQuery, map[string]interface{}{"id": "1"}},
		{"editProfile without token", "", editProfileMutation, map[string]interface{}{
			"input": map[string]interface{}{"password": "x"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := srv.do(t, tt.token, tt.query, tt.variables)
			require.NotEmpty(t, resp.Errors)
			assert.Equal(t, auth.ForbiddenMessage, resp.Errors[0].Message)
			assert.Equal(t, "FORBIDDEN", resp.Errors[0].Extensions["code"])
			for _, raw := range resp.Data {
				assert.Equal(t, "null", string(raw))
			}
		})
	}
}

func TestHandler_RejectsEmptyQuery(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewReader([]byte(`{"query":"  "}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.app.Test(req, -1)
	require.NoError(t, err)
	assert.NotEqual(t, http.StatusOK, resp.StatusCode)
}
