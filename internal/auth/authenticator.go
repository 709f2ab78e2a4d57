package auth

import (
	"crypto/subtle"
	"errors"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/viewsocial/realtime/internal/ierr"
)

const (
	ScopeRealtime = "realtime"
	ScopePublish  = "publish"
)

type Claims struct {
	jwt.RegisteredClaims
	Scope []string `json:"scope,omitempty"`
}

// Authentication is a verified identity. The hub trusts it completely; it
// performs no authentication beyond what the token or API key carries.
type Authentication struct {
	UserId    uuid.UUID
	Scope     []string
	IsService bool
}

func (a *Authentication) CanConnect() bool {
	return slices.Contains(a.Scope, ScopeRealtime)
}

func (a *Authentication) CanPublish() bool {
	if a.IsService {
		return true
	}

	return slices.Contains(a.Scope, ScopePublish)
}

type Authenticator struct {
	secret    []byte
	apiKeys   []string
	jwtParser *jwt.Parser
}

func NewAuthenticator(secret string, apiKeys []string) *Authenticator {
	jwtParser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(30*time.Second),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithAudience("viewsocial"),
	)

	return &Authenticator{
		secret:    []byte(secret),
		apiKeys:   apiKeys,
		jwtParser: jwtParser,
	}
}

func (a *Authenticator) keyFunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, ierr.New(ierr.ErrorCodeUnauthenticated, errors.New("unexpected signing method"))
	}
	return a.secret, nil
}

// AuthenticateJWT validates a user bearer token. The subject claim is the
// user id issued by the identity service and must be a UUID.
func (a *Authenticator) AuthenticateJWT(tokenString string) (*Authentication, error) {
	claims := Claims{}

	_, err := a.jwtParser.ParseWithClaims(tokenString, &claims, a.keyFunc)
	if err != nil {
		return nil, ierr.New(ierr.ErrorCodeUnauthenticated, err)
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return nil, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("invalid subject claim"))
	}

	userId, err := uuid.Parse(subject)
	if err != nil {
		return nil, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("subject claim is not a user id"))
	}

	return &Authentication{
		UserId:    userId,
		Scope:     claims.Scope,
		IsService: false,
	}, nil
}

// AuthenticateAPIKey validates a service-to-service credential used by the
// domain collaborators that push events into the hub.
func (a *Authenticator) AuthenticateAPIKey(apiKey string) (*Authentication, error) {
	for _, key := range a.apiKeys {
		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(key)) == 1 {
			return &Authentication{
				Scope:     []string{ScopePublish},
				IsService: true,
			}, nil
		}
	}

	return nil, ierr.New(ierr.ErrorCodeUnauthenticated, errors.New("invalid api key"))
}
