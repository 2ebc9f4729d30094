package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/CarlosSprekelsen/camera-client/internal/auth"
	"github.com/CarlosSprekelsen/camera-client/internal/model"
	"github.com/CarlosSprekelsen/camera-client/internal/rpc"
)

// MethodAuthenticate is the RPC used to bind a token to the socket session.
const MethodAuthenticate = "authenticate"

type authResult struct {
	result model.AuthResult
	at     time.Time
}

type authParams struct {
	AuthToken string `json:"auth_token"`
}

// Authenticate presents token on the current socket. On success the token
// is kept and presented again after every reconnect.
func (c *Client) Authenticate(ctx context.Context, token string) (model.AuthResult, error) {
	if token == "" {
		return model.AuthResult{}, fmt.Errorf("authenticate: %w", ErrNotAuthenticated)
	}

	c.authMu.Lock()
	session := c.session
	c.authMu.Unlock()

	raw, err := c.Call(ctx, MethodAuthenticate, authParams{AuthToken: token}, false)
	if err != nil {
		return model.AuthResult{}, err
	}

	var res model.AuthResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return model.AuthResult{}, fmt.Errorf("decode %s result: %w", MethodAuthenticate, err)
	}
	if !res.Authenticated {
		return res, &rpc.Error{Code: rpc.CodeAuthFailed, Message: "authentication failed"}
	}

	c.authMu.Lock()
	c.token = token
	c.lastAuth = authResult{result: res, at: time.Now()}
	// A reconnect during the call invalidates this session.
	c.authed = c.session == session
	c.authMu.Unlock()

	c.logger.Info("authenticated", "role", res.Role)
	return res, nil
}

// IsAuthenticated reports whether the current socket session is authenticated.
func (c *Client) IsAuthenticated() bool {
	c.authMu.Lock()
	defer c.authMu.Unlock()
	return c.authed
}

// AuthInfo returns the result of the last successful authenticate call.
func (c *Client) AuthInfo() (model.AuthResult, bool) {
	c.authMu.Lock()
	defer c.authMu.Unlock()
	return c.lastAuth.result, !c.lastAuth.at.IsZero()
}

// Logout forgets the stored token and the session. The server has no
// logout method; the session ends with the socket.
func (c *Client) Logout() {
	c.authMu.Lock()
	defer c.authMu.Unlock()
	c.token = ""
	c.authed = false
	c.lastAuth = authResult{}
	c.session++
}

func (c *Client) invalidateAuth() {
	c.authMu.Lock()
	defer c.authMu.Unlock()
	c.authed = false
	c.session++
}

// ensureAuth authenticates the socket with the stored token when needed.
// Concurrent callers share one authenticate request.
func (c *Client) ensureAuth(ctx context.Context) error {
	c.authMu.Lock()
	authed, token := c.authed, c.token
	c.authMu.Unlock()

	if authed {
		return nil
	}
	if token == "" {
		return ErrNotAuthenticated
	}
	if auth.Expired(token, time.Now()) {
		c.logger.Warn("presenting expired auth token")
	}

	// The request is shared, so one caller giving up must not fail the
	// others. The correlator's request timeout still bounds it.
	authCtx := context.WithoutCancel(ctx)
	_, err, shared := c.authGroup.Do(MethodAuthenticate, func() (any, error) {
		return c.Authenticate(authCtx, token)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotAuthenticated, err)
	}
	if shared {
		c.logger.Debug("shared in-flight authentication")
	}
	return nil
}
