// Package session owns the authentication token, its persisted copy, and the
// hydration state machine. Exactly one Store exists per process; it is
// constructed at startup and passed to commands explicitly.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/vitrinecli/vitrine/internal/api"
	"github.com/vitrinecli/vitrine/internal/errs"
)

// HydrationState tracks whether the persisted token has been loaded into
// memory. The token must not be treated as authoritative before Hydrated.
type HydrationState int

const (
	Uninitialized HydrationState = iota
	Hydrating
	Hydrated
)

func (h HydrationState) String() string {
	switch h {
	case Hydrating:
		return "hydrating"
	case Hydrated:
		return "hydrated"
	default:
		return "uninitialized"
	}
}

// Gateway is the slice of the API client the session store depends on.
type Gateway interface {
	Login(ctx context.Context, email, password string) (api.AuthResponse, error)
	Register(ctx context.Context, req api.RegisterRequest) (api.AuthResponse, error)
	Logout(ctx context.Context) error
}

// Phone is an optional registration phone number.
type Phone struct {
	Country string
	Area    string
	Number  string
}

// RegisterInput collects registration fields. VerifyPassword is validated
// here and never transmitted.
type RegisterInput struct {
	Name           string
	Email          string
	Password       string
	VerifyPassword string
	Phone          *Phone
}

func (in RegisterInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return &errs.ValidationError{Field: "name", Reason: "required"}
	}
	if strings.TrimSpace(in.Email) == "" {
		return &errs.ValidationError{Field: "email", Reason: "required"}
	}
	if !strings.Contains(in.Email, "@") {
		return &errs.ValidationError{Field: "email", Reason: "malformed address"}
	}
	if in.Password == "" {
		return &errs.ValidationError{Field: "password", Reason: "required"}
	}
	if in.Password != in.VerifyPassword {
		return &errs.ValidationError{Field: "verifyPassword", Reason: "passwords do not match"}
	}
	return nil
}

// Store is the session state container. All mutation goes through its
// methods; readers get consistent snapshots via the accessors.
type Store struct {
	mu      sync.Mutex
	gw      Gateway
	persist Persister
	log     *zap.Logger

	token     string
	hydration HydrationState
	loading   bool
	lastError string
}

// New constructs the process-wide session store. The token is not available
// until Rehydrate has run.
func New(gw Gateway, persist Persister, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{gw: gw, persist: persist, log: log}
}

// Rehydrate loads the persisted token into memory. Idempotent: once the
// store is hydrated, further calls are no-ops. It must run before the first
// route-guard decision is trusted.
func (s *Store) Rehydrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hydration == Hydrated {
		return nil
	}
	s.hydration = Hydrating

	token, err := s.persist.Load()
	switch {
	case err == nil:
		s.token = token
	case errors.Is(err, ErrNoToken):
		s.token = ""
	default:
		// A corrupt session file must not wedge startup; treat as
		// unauthenticated and finish hydration.
		s.log.Warn("session rehydrate failed", zap.Error(err))
		s.token = ""
	}
	s.hydration = Hydrated
	return nil
}

// Login authenticates and stores the returned token. A second call while one
// is in flight is rejected with errs.ErrBusy.
func (s *Store) Login(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" {
		return &errs.ValidationError{Field: "email", Reason: "required"}
	}
	if password == "" {
		return &errs.ValidationError{Field: "password", Reason: "required"}
	}
	if err := s.begin(); err != nil {
		return err
	}

	resp, err := s.gw.Login(ctx, email, password)
	if err != nil {
		return s.finish(err)
	}

	token, ok := resolveToken(resp)
	if !ok {
		return s.finish(&errs.AuthError{Message: "token not returned by the service"})
	}

	if err := s.persist.Save(token); err != nil {
		// The in-memory session still works for this process.
		s.log.Warn("persisting token failed", zap.Error(err))
	}

	s.mu.Lock()
	s.token = token
	s.loading = false
	s.mu.Unlock()
	return nil
}

// Register creates an account. Registration may or may not authenticate,
// depending on the service's policy; callers branch on Authenticated()
// afterwards rather than assuming a token exists.
func (s *Store) Register(ctx context.Context, in RegisterInput) error {
	if err := in.validate(); err != nil {
		return err
	}
	if err := s.begin(); err != nil {
		return err
	}

	req := api.RegisterRequest{Name: in.Name, Email: in.Email, Password: in.Password}
	if in.Phone != nil {
		req.Phone = &api.Phone{Country: in.Phone.Country, Area: in.Phone.Area, Number: in.Phone.Number}
	}

	resp, err := s.gw.Register(ctx, req)
	if err != nil {
		return s.finish(err)
	}

	token, ok := resolveToken(resp)
	if ok {
		if err := s.persist.Save(token); err != nil {
			s.log.Warn("persisting token failed", zap.Error(err))
		}
	}

	s.mu.Lock()
	if ok {
		s.token = token
	}
	s.loading = false
	s.mu.Unlock()
	return nil
}

// Logout notifies the service best-effort, then clears the token locally and
// removes the persisted copy. The notification goes first: the gateway reads
// the bearer token from this store at request time, so clearing beforehand
// would send an unauthenticated revocation the server cannot act on. A
// notification failure never blocks or fails the local logout.
func (s *Store) Logout(ctx context.Context) {
	if err := s.gw.Logout(ctx); err != nil {
		s.log.Debug("logout notification failed", zap.Error(err))
	}

	s.mu.Lock()
	s.token = ""
	s.lastError = ""
	s.mu.Unlock()

	if err := s.persist.Delete(); err != nil {
		s.log.Warn("removing persisted token failed", zap.Error(err))
	}
}

// begin marks an auth call in flight, rejecting overlap.
func (s *Store) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading {
		return errs.ErrBusy
	}
	s.loading = true
	s.lastError = ""
	return nil
}

// finish records the failure and re-raises it so the caller can react (e.g.
// print it once) without duplicating the message source.
func (s *Store) finish(err error) error {
	s.mu.Lock()
	s.lastError = errs.UserMessage(err)
	s.loading = false
	s.mu.Unlock()
	return err
}

// Token returns the current bearer token, or "" when unauthenticated. Also
// satisfies api.TokenSource.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Hydration returns the hydration state.
func (s *Store) Hydration() HydrationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hydration
}

// Loading reports whether a login/register call is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// LastError returns the user-facing message of the last failed auth call.
func (s *Store) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// Authenticated reports whether the store is hydrated and holds a token.
func (s *Store) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hydration == Hydrated && s.token != ""
}

// tokenKeys are the response keys recognized as carrying the bearer token,
// in resolution order. Compatibility shim for an underspecified remote
// contract; first non-empty wins.
var tokenKeys = []string{"token", "accessToken", "access_token", "authToken", "jwt"}

// resolveToken extracts the token from a heterogeneous auth response.
func resolveToken(resp api.AuthResponse) (string, bool) {
	for _, key := range tokenKeys {
		if v, present := resp[key]; present {
			if tok, isString := v.(string); isString && tok != "" {
				return tok, true
			}
		}
	}
	return "", false
}
