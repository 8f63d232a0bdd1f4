package api

import "context"

// AuthResponse is the decoded body of an auth endpoint. The key holding the
// token varies between deployments, so the body is kept as a loose map and
// resolved by the session layer.
type AuthResponse map[string]any

// LoginRequest is the wire body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Phone is the optional phone sub-structure of a registration.
type Phone struct {
	Country string `json:"country"`
	Area    string `json:"ddd"`
	Number  string `json:"number"`
}

// RegisterRequest is the wire body of POST /auth/register. The password
// confirmation is validated client-side and never crosses this boundary.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    *Phone `json:"phone,omitempty"`
}

// Login exchanges credentials for a token-bearing response.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	var resp AuthResponse
	if err := c.post(ctx, "/auth/login", LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Register creates an account. Depending on the service's policy the
// response may or may not carry a token.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (AuthResponse, error) {
	var resp AuthResponse
	if err := c.post(ctx, "/auth/register", req, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Logout notifies the service that the session ended. Best-effort from the
// caller's perspective.
func (c *Client) Logout(ctx context.Context) error {
	return c.post(ctx, "/auth/logout", nil, nil)
}
