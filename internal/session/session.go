package session

import (
	"context"

	"github.com/kalakriti/commerce-engine/internal/storage"
	"github.com/kalakriti/commerce-engine/internal/store"
	pkgerrors "github.com/kalakriti/commerce-engine/pkg/errors"
	"github.com/kalakriti/commerce-engine/pkg/logger"
	"github.com/kalakriti/commerce-engine/pkg/metrics"
)

// StoreSuffix is appended to the storage namespace to form the durable key.
const StoreSuffix = "session"

// User roles.
const (
	RoleCustomer = "customer"
	RoleArtisan  = "artisan"
	RoleAdmin    = "admin"
)

// User is the signed-in profile snapshot. Token issuance and verification
// live with the auth collaborator; the engine only persists what it is given.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Session is the persisted {user, token} shape.
type Session struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// SignedIn reports whether the session carries a usable identity.
func (s Session) SignedIn() bool {
	return s.Token != "" && s.User != nil
}

// ModelParams groups dependencies for the session model.
type ModelParams struct {
	Backend   storage.Backend
	Namespace string
	Logger    *logger.Logger
	Metrics   *metrics.StoreMetrics
	OnError   func(error)
}

// Model persists the session snapshot.
type Model struct {
	store *store.Store[Session]
}

func NewModel(params ModelParams) (*Model, error) {
	if params.Backend == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "storage backend is required")
	}
	if params.Namespace == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "storage namespace is required")
	}
	st, err := store.New(store.Options[Session]{
		Backend: params.Backend,
		Key:     params.Namespace + ":" + StoreSuffix,
		Name:    StoreSuffix,
		Default: func() Session { return Session{} },
		Validate: func(s Session) bool {
			// a token without a user is the legacy shape and is migrated,
			// never written
			return s.Token == "" || s.User != nil
		},
		OnError: params.OnError,
		Logger:  params.Logger,
		Metrics: params.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Model{store: st}, nil
}

// SignIn persists the authenticated snapshot.
func (m *Model) SignIn(ctx context.Context, user User, token string) error {
	if user.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if token == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "token is required")
	}
	return m.store.Set(ctx, Session{User: &user, Token: token})
}

// SignOut clears the persisted session.
func (m *Model) SignOut(ctx context.Context) error {
	return m.store.Clear(ctx)
}

// Current returns the session snapshot, empty when signed out.
func (m *Model) Current(ctx context.Context) Session {
	return m.store.Get(ctx)
}

// Subscribe registers a listener for session snapshots.
func (m *Model) Subscribe(fn func(Session)) func() {
	return m.store.Subscribe(fn)
}
