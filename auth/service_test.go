package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/skylens/go-api-client/apiclient"
	"github.com/skylens/go-api-client/auth"
	"github.com/skylens/go-api-client/internal/apierrors"
	"github.com/skylens/go-api-client/sessions"
	"github.com/skylens/go-api-client/token"
	"github.com/skylens/go-api-client/users"
)

const (
	testEmail    = "jane.doe@example.com"
	testPassword = "correct horse battery"
)

var testNow = time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)

var testUser = &users.User{
	ID:        "user-1",
	Email:     testEmail,
	FirstName: "Jane",
	LastName:  "Doe",
}

// fakeClient is a canned API surface for the use-case tests.
type fakeClient struct {
	loginResp  *apiclient.AuthResponse
	loginErr   error
	signupResp *apiclient.AuthResponse
	signupErr  error
	logoutErr  error
	userResp   *users.User
	userErr    error

	loginCalls  int
	signupCalls int
	logoutCalls int
	userCalls   int
}

func (f *fakeClient) Login(ctx context.Context, credentials apiclient.Credentials) (*apiclient.AuthResponse, error) {
	f.loginCalls++
	return f.loginResp, f.loginErr
}

func (f *fakeClient) Signup(ctx context.Context, details apiclient.SignupDetails) (*apiclient.AuthResponse, error) {
	f.signupCalls++
	return f.signupResp, f.signupErr
}

func (f *fakeClient) Logout(ctx context.Context) error {
	f.logoutCalls++
	return f.logoutErr
}

func (f *fakeClient) CurrentUser(ctx context.Context) (*users.User, error) {
	f.userCalls++
	return f.userResp, f.userErr
}

// fakeRefresher backs the token manager for the initialize flow.
type fakeRefresher struct {
	token string
	err   error
	calls int
}

func (f *fakeRefresher) Refresh(ctx context.Context) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.token, nil
}

// testFixture holds all test dependencies
type testFixture struct {
	client    *fakeClient
	refresher *fakeRefresher
	store     *sessions.Store
	tokens    *token.Manager
	service   *auth.Service

	mu     sync.Mutex
	delays []time.Duration
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		client:    &fakeClient{},
		refresher: &fakeRefresher{},
		store:     sessions.NewStore(),
	}

	tokens, err := token.NewManager(f.store, f.refresher,
		token.WithNowFunc(func() time.Time { return testNow }),
		token.WithTimerFunc(func(d time.Duration, fn func()) *time.Timer {
			f.mu.Lock()
			f.delays = append(f.delays, d)
			f.mu.Unlock()
			return time.AfterFunc(time.Hour, func() {})
		}),
	)
	require.NoError(t, err)
	t.Cleanup(tokens.Close)
	f.tokens = tokens

	service, err := auth.NewService(auth.Deps{
		Client:   f.client,
		Tokens:   tokens,
		Sessions: f.store,
	})
	require.NoError(t, err)
	f.service = service

	return f
}

func (f *testFixture) armedDelays() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.delays...)
}

func mintToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"sub": "user-1",
		"exp": expiresAt.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestLoginStoresTokenAndCachesProfile(t *testing.T) {
	f := newFixture(t)
	accessToken := mintToken(t, testNow.Add(10*time.Minute))
	f.client.loginResp = &apiclient.AuthResponse{Token: accessToken, Data: testUser}

	result, err := f.service.Login(context.Background(), apiclient.Credentials{
		Email:    testEmail,
		Password: testPassword,
	})
	require.NoError(t, err)
	require.Equal(t, accessToken, result.AccessToken)
	require.Equal(t, testUser, result.User)

	session := f.store.Read()
	require.True(t, session.IsAuthenticated)
	require.Equal(t, accessToken, session.AccessToken)

	require.Equal(t, testUser, f.service.CurrentUser())

	// Proactive refresh armed at expiry minus the two minute margin.
	require.Equal(t, []time.Duration{8 * time.Minute}, f.armedDelays())
}

func TestLoginRejectsInvalidInputBeforeNetwork(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Login(context.Background(), apiclient.Credentials{
		Email:    "not-an-email",
		Password: testPassword,
	})
	require.ErrorIs(t, err, apierrors.ErrValidationFailed)

	var apiErr *apierrors.Error
	require.ErrorAs(t, err, &apiErr)
	require.Contains(t, apiErr.FieldErrors, "email")
	require.Zero(t, f.client.loginCalls)
}

func TestLoginErrorLeavesSessionEmpty(t *testing.T) {
	f := newFixture(t)
	f.client.loginErr = apierrors.FromResponse(401, nil, nil, "en")

	_, err := f.service.Login(context.Background(), apiclient.Credentials{
		Email:    testEmail,
		Password: "wrong",
	})
	require.ErrorIs(t, err, apierrors.ErrInvalidCredentials)
	require.False(t, f.store.Read().IsAuthenticated)
}

func TestLoginAfterLogoutLiftsTombstone(t *testing.T) {
	f := newFixture(t)
	accessToken := mintToken(t, testNow.Add(10*time.Minute))
	f.client.loginResp = &apiclient.AuthResponse{Token: accessToken, Data: testUser}

	f.tokens.ClearTokens()

	_, err := f.service.Login(context.Background(), apiclient.Credentials{
		Email:    testEmail,
		Password: testPassword,
	})
	require.NoError(t, err)
	require.True(t, f.store.Read().IsAuthenticated)
}

func TestSignupStoresTokenAndCachesProfile(t *testing.T) {
	f := newFixture(t)
	accessToken := mintToken(t, testNow.Add(10*time.Minute))
	f.client.signupResp = &apiclient.AuthResponse{Token: accessToken, Data: testUser}

	result, err := f.service.Signup(context.Background(), apiclient.SignupDetails{
		Email:     testEmail,
		Password:  testPassword,
		FirstName: "Jane",
		LastName:  "Doe",
	})
	require.NoError(t, err)
	require.Equal(t, accessToken, result.AccessToken)
	require.True(t, f.store.Read().IsAuthenticated)
	require.Equal(t, testUser, f.service.CurrentUser())
}

func TestSignupValidatesPasswordLength(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Signup(context.Background(), apiclient.SignupDetails{
		Email:     testEmail,
		Password:  "short",
		FirstName: "Jane",
	})
	require.ErrorIs(t, err, apierrors.ErrValidationFailed)
	require.Zero(t, f.client.signupCalls)
}

func TestLogoutClearsLocalState(t *testing.T) {
	f := newFixture(t)
	accessToken := mintToken(t, testNow.Add(10*time.Minute))
	f.client.loginResp = &apiclient.AuthResponse{Token: accessToken, Data: testUser}

	_, err := f.service.Login(context.Background(), apiclient.Credentials{
		Email:    testEmail,
		Password: testPassword,
	})
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(context.Background()))
	require.Equal(t, 1, f.client.logoutCalls)

	session := f.store.Read()
	require.False(t, session.IsAuthenticated)
	require.Empty(t, session.AccessToken)
	require.Nil(t, f.service.CurrentUser())
}

func TestLogoutClearsLocalStateEvenWhenServerFails(t *testing.T) {
	f := newFixture(t)
	accessToken := mintToken(t, testNow.Add(10*time.Minute))
	f.client.loginResp = &apiclient.AuthResponse{Token: accessToken, Data: testUser}
	f.client.logoutErr = errors.New("connection refused")

	_, err := f.service.Login(context.Background(), apiclient.Credentials{
		Email:    testEmail,
		Password: testPassword,
	})
	require.NoError(t, err)

	err = f.service.Logout(context.Background())
	require.Error(t, err)

	// Clearing happened despite the server failure.
	require.False(t, f.store.Read().IsAuthenticated)
	require.Nil(t, f.service.CurrentUser())
}

func TestInitializeAuthWithNoSessionReturnsEmpty(t *testing.T) {
	f := newFixture(t)
	f.refresher.err = apierrors.SessionExpired("en")

	result, err := f.service.InitializeAuth(context.Background())
	require.NoError(t, err)
	require.Nil(t, result)
	require.False(t, f.store.Read().IsAuthenticated)
}

func TestInitializeAuthRestoresSessionAndFetchesProfile(t *testing.T) {
	f := newFixture(t)
	accessToken := mintToken(t, testNow.Add(10*time.Minute))
	f.refresher.token = accessToken
	f.client.userResp = testUser

	result, err := f.service.InitializeAuth(context.Background())
	require.NoError(t, err)
	require.Equal(t, accessToken, result.AccessToken)
	require.Equal(t, testUser, result.User)
	require.True(t, f.store.Read().IsAuthenticated)
	require.Equal(t, 1, f.client.userCalls)
}

func TestInitializeAuthReusesCachedProfile(t *testing.T) {
	f := newFixture(t)
	accessToken := mintToken(t, testNow.Add(10*time.Minute))
	f.refresher.token = accessToken
	f.tokens.SetCachedUserData(testUser)

	result, err := f.service.InitializeAuth(context.Background())
	require.NoError(t, err)
	require.Equal(t, testUser, result.User)
	require.Zero(t, f.client.userCalls)
}
