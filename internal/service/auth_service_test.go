package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"agrimarket/internal/marketerrors"
	"agrimarket/internal/model"
	"agrimarket/internal/repository"
	"agrimarket/internal/testutil"
	"agrimarket/pkg/jwt"
)

func newAuth(t *testing.T) (AuthService, UserService, repository.UserRepository) {
	t.Helper()
	jwt.SetSecretKey("test-secret")

	users := repository.NewUserRepo(testutil.NewDB(t))
	return NewAuthService(users, nil), NewUserService(users), users
}

func TestRegister(t *testing.T) {
	auth, _, _ := newAuth(t)

	u, err := auth.Register(&RegisterRequest{Name: "Ravi", Email: " Ravi@Example.com ", Password: "secret123", Role: "farmer", PreferredLanguage: "hi"})
	require.NoError(t, err)
	require.Equal(t, "ravi@example.com", u.Email)
	require.Equal(t, model.RoleFarmer, u.Role)
	require.True(t, u.IsActive)
	require.NotEqual(t, "secret123", u.Password)
	require.Equal(t, "hi", u.Language())

	tests := []struct {
		name        string
		req         RegisterRequest
		expectedErr error
	}{
		{name: "duplicate_email", req: RegisterRequest{Name: "Other", Email: "ravi@example.com", Password: "secret123", Role: "buyer"}, expectedErr: marketerrors.ErrDuplicateEmail},
		{name: "admin_not_self_registrable", req: RegisterRequest{Name: "Root", Email: "root@example.com", Password: "secret123", Role: "admin"}, expectedErr: marketerrors.ErrValidation},
		{name: "unknown_role", req: RegisterRequest{Name: "X", Email: "x@example.com", Password: "secret123", Role: "trader"}, expectedErr: marketerrors.ErrValidation},
		{name: "short_password", req: RegisterRequest{Name: "X", Email: "x@example.com", Password: "abc", Role: "buyer"}, expectedErr: marketerrors.ErrValidation},
		{name: "bad_email", req: RegisterRequest{Name: "X", Email: "not-an-email", Password: "secret123", Role: "buyer"}, expectedErr: marketerrors.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := auth.Register(&req)
			require.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	auth, _, users := newAuth(t)

	_, err := auth.Register(&RegisterRequest{Name: "Asha", Email: "asha@example.com", Password: "secret123", Role: "buyer"})
	require.NoError(t, err)

	u, err := auth.Authenticate("ASHA@example.com", "secret123")
	require.NoError(t, err)
	require.Equal(t, "Asha", u.Name)

	_, err = auth.Authenticate("asha@example.com", "wrong")
	require.ErrorIs(t, err, marketerrors.ErrInvalidCredentials)

	_, err = auth.Authenticate("nobody@example.com", "secret123")
	require.ErrorIs(t, err, marketerrors.ErrInvalidCredentials)

	require.NoError(t, users.SetActive(u.ID, false, "test"))
	_, err = auth.Authenticate("asha@example.com", "secret123")
	require.ErrorIs(t, err, marketerrors.ErrInvalidCredentials)
}

func TestLogin_SingleSession(t *testing.T) {
	auth, _, users := newAuth(t)

	_, err := auth.Register(&RegisterRequest{Name: "Asha", Email: "asha@example.com", Password: "secret123", Role: "buyer"})
	require.NoError(t, err)

	first, err := auth.Login("asha@example.com", "secret123")
	require.NoError(t, err)
	require.Equal(t, []model.Capability{model.CapOfferSubmit}, first.Capabilities)

	actor, err := auth.ResolveActor(first.Token)
	require.NoError(t, err)
	require.Equal(t, model.RoleBuyer, actor.Role)
	require.Equal(t, first.User.ID, actor.UserID)

	second, err := auth.Login("asha@example.com", "secret123")
	require.NoError(t, err)

	_, err = auth.ResolveActor(first.Token)
	require.ErrorIs(t, err, ErrSessionExpired)

	resp, err := auth.ValidateToken(second.Token)
	require.NoError(t, err)
	require.Equal(t, "asha@example.com", resp.User.Email)

	require.NoError(t, users.SetActive(actor.UserID, false, "test"))
	_, err = auth.ResolveActor(second.Token)
	require.ErrorIs(t, err, ErrUserInactive)

	_, err = auth.ResolveActor("garbage")
	require.ErrorIs(t, err, jwt.ErrInvalidToken)
	_, err = auth.ResolveActor("")
	require.ErrorIs(t, err, jwt.ErrMissingToken)
}

func TestChangePassword(t *testing.T) {
	auth, _, _ := newAuth(t)

	_, err := auth.Register(&RegisterRequest{Name: "Ravi", Email: "ravi@example.com", Password: "secret123", Role: "farmer"})
	require.NoError(t, err)
	login, err := auth.Login("ravi@example.com", "secret123")
	require.NoError(t, err)
	actor, err := auth.ResolveActor(login.Token)
	require.NoError(t, err)

	require.ErrorIs(t, auth.ChangePassword(actor, "wrong", "newsecret"), ErrWrongPassword)
	require.ErrorIs(t, auth.ChangePassword(actor, "secret123", "abc"), marketerrors.ErrValidation)
	require.NoError(t, auth.ChangePassword(actor, "secret123", "newsecret"))

	_, err = auth.ResolveActor(login.Token)
	require.ErrorIs(t, err, ErrSessionExpired)

	_, err = auth.Login("ravi@example.com", "secret123")
	require.ErrorIs(t, err, marketerrors.ErrInvalidCredentials)
	_, err = auth.Login("ravi@example.com", "newsecret")
	require.NoError(t, err)
}

func TestHeartbeat(t *testing.T) {
	auth, _, users := newAuth(t)
	events := &recordingPublisher{}
	auth = NewAuthService(users, events)

	u, err := auth.Register(&RegisterRequest{Name: "Ravi", Email: "ravi@example.com", Password: "secret123", Role: "farmer"})
	require.NoError(t, err)
	require.Nil(t, u.LastSeenAt)

	require.NoError(t, auth.Heartbeat(u.Actor()))
	stored, err := users.FindByID(u.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastSeenAt)
	require.Equal(t, []string{EventUserStatus}, events.events)
}

func TestUserService(t *testing.T) {
	auth, users, _ := newAuth(t)

	admin, err := users.CreateUser(model.SystemActor, &CreateUserRequest{Name: "Admin", Email: "admin@example.com", Password: "secret123", Role: "admin"})
	require.NoError(t, err)
	farmer, err := auth.Register(&RegisterRequest{Name: "Ravi", Email: "ravi@example.com", Password: "secret123", Role: "farmer"})
	require.NoError(t, err)
	idle, err := auth.Register(&RegisterRequest{Name: "Idle", Email: "idle@example.com", Password: "secret123", Role: "farmer"})
	require.NoError(t, err)
	agent, err := auth.Register(&RegisterRequest{Name: "Agent", Email: "agent@example.com", Password: "secret123", Role: "agent"})
	require.NoError(t, err)

	_, err = users.CreateUser(farmer.Actor(), &CreateUserRequest{Name: "X", Email: "x@example.com", Password: "secret123", Role: "buyer"})
	require.ErrorIs(t, err, marketerrors.ErrForbidden)

	all, err := users.GetAllUsers(admin.Actor())
	require.NoError(t, err)
	require.Len(t, all, 4)
	_, err = users.GetAllUsers(agent.Actor())
	require.ErrorIs(t, err, marketerrors.ErrForbidden)

	self, err := users.GetUserByID(farmer.Actor(), farmer.ID)
	require.NoError(t, err)
	require.Equal(t, "Ravi", self.Name)
	_, err = users.GetUserByID(farmer.Actor(), agent.ID)
	require.ErrorIs(t, err, marketerrors.ErrForbidden)
	_, err = users.GetUserByID(admin.Actor(), 9999)
	require.ErrorIs(t, err, marketerrors.ErrNotFound)

	require.ErrorIs(t, users.SetActive(admin.Actor(), admin.ID, false), marketerrors.ErrForbidden)
	require.ErrorIs(t, users.SetActive(farmer.Actor(), idle.ID, false), marketerrors.ErrForbidden)
	require.NoError(t, users.SetActive(admin.Actor(), idle.ID, false))

	farmers, err := users.GetFarmers(agent.Actor())
	require.NoError(t, err)
	require.Len(t, farmers, 1)
	require.Equal(t, farmer.ID, farmers[0].ID)

	_, err = auth.Login("idle@example.com", "secret123")
	require.ErrorIs(t, err, marketerrors.ErrInvalidCredentials)
}
