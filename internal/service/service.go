package service

import (
	"context"

	"github.com/CarlosSprekelsen/camera-client/internal/model"
	"github.com/CarlosSprekelsen/camera-client/internal/rpc"
)

// Authenticator manages the socket's auth session. *client.Client
// satisfies it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (model.AuthResult, error)
	IsAuthenticated() bool
	Logout()
}

// Client is everything the façades need from the camera client.
type Client interface {
	rpc.Caller
	Authenticator
}

// Services bundles one façade per domain.
type Services struct {
	Auth     *AuthService
	Device   *DeviceService
	File     *FileService
	Server   *ServerService
	External *ExternalStreamService
}

// New builds every façade on top of c.
func New(c Client) *Services {
	return &Services{
		Auth:     NewAuthService(c),
		Device:   NewDeviceService(c),
		File:     NewFileService(c),
		Server:   NewServerService(c),
		External: NewExternalStreamService(c),
	}
}

// invoke runs m and maps server errors to domain errors.
func invoke[P, R any](ctx context.Context, c rpc.Caller, m rpc.Method[P, R], params P) (R, error) {
	res, err := rpc.Invoke(ctx, c, m, params)
	if err != nil {
		var zero R
		return zero, mapError(m.Name, err)
	}
	return res, nil
}

// AuthService authenticates the socket session.
type AuthService struct {
	auth Authenticator
}

// NewAuthService creates an AuthService.
func NewAuthService(a Authenticator) *AuthService {
	return &AuthService{auth: a}
}

// Authenticate presents token (a JWT or API key) to the server.
func (s *AuthService) Authenticate(ctx context.Context, token string) (model.AuthResult, error) {
	if token == "" {
		return model.AuthResult{}, invalid("auth_token", "is required")
	}
	res, err := s.auth.Authenticate(ctx, token)
	if err != nil {
		return res, mapError("authenticate", err)
	}
	return res, nil
}

// IsAuthenticated reports whether the current session is authenticated.
func (s *AuthService) IsAuthenticated() bool {
	return s.auth.IsAuthenticated()
}

// Logout forgets the token. The server session ends with the socket.
func (s *AuthService) Logout() {
	s.auth.Logout()
}
