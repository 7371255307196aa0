// Package auth turns a bearer credential into a user identity and gates
// mutations on that identity being present.
//
// The guard proves that some user is logged in. It does not check that the
// user owns the record being changed.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wadjakorntonsri/linkboard/pkg/core/domain"
)

// BearerPrefix is stripped from the Authorization header before verification
const BearerPrefix = "Bearer "

// Claims is the token payload
type Claims struct {
	UserID int64 `json:"userId"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 tokens signed with a shared secret
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// DecodeCredential strips the bearer prefix and verifies the remaining token.
// It returns domain.ErrMissingCredential for an empty token and
// domain.ErrInvalidCredential for anything that fails verification.
func (v *Verifier) DecodeCredential(header string) (*Claims, error) {
	const op = "auth.DecodeCredential"

	token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	if token == "" {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrMissingCredential)
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrInvalidCredential)
	}

	if claims.UserID <= 0 {
		return nil, fmt.Errorf("%s: %w: missing userId", op, domain.ErrInvalidCredential)
	}

	return claims, nil
}

// Sign issues a token for userID. Used by tests and local tooling.
func (v *Verifier) Sign(userID int64) (string, error) {
	claims := &Claims{UserID: userID}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

type ctxKey struct{}

type authContext struct {
	userID int64
	err    error
}

// WithUser attaches an authenticated user to ctx
func WithUser(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, ctxKey{}, authContext{userID: userID})
}

// WithCredentialError records why the request credential was rejected.
// The request stays anonymous; guarded operations report the cause.
func WithCredentialError(ctx context.Context, err error) context.Context {
	return context.WithValue(ctx, ctxKey{}, authContext{err: err})
}

// UserID returns the authenticated user, if any
func UserID(ctx context.Context) (int64, bool) {
	ac, ok := ctx.Value(ctxKey{}).(authContext)
	if !ok || ac.userID == 0 {
		return 0, false
	}
	return ac.userID, true
}

// UnauthenticatedError is returned by RequireAuth.
// It matches domain.ErrUnauthenticated and unwraps to the credential error, if any.
type UnauthenticatedError struct {
	Action string
	Cause  error
}

func (e *UnauthenticatedError) Error() string {
	msg := fmt.Sprintf("cannot %s without logging in", e.Action)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *UnauthenticatedError) Is(target error) bool {
	return target == domain.ErrUnauthenticated
}

func (e *UnauthenticatedError) Unwrap() error { return e.Cause }

// RequireAuth fails when ctx carries no user and returns the user id otherwise.
func RequireAuth(ctx context.Context, action string) (int64, error) {
	if id, ok := UserID(ctx); ok {
		return id, nil
	}

	ac, _ := ctx.Value(ctxKey{}).(authContext)
	return 0, &UnauthenticatedError{Action: action, Cause: ac.err}
}

// IsCredentialError reports whether err comes from a rejected credential
func IsCredentialError(err error) bool {
	return errors.Is(err, domain.ErrMissingCredential) || errors.Is(err, domain.ErrInvalidCredential)
}
