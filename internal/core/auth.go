package core

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"
)

var ErrNoToken = errors.New("no token")

// Auth resolves the identity of a push connection from a JWT.
type Auth struct {
	keyfunc jwt.Keyfunc
}

func NewAuth(url string, logger *logrus.Logger) (*Auth, error) {
	options := keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			logger.WithError(err).Error("jwks refresh failed")
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	}

	jwks, err := keyfunc.Get(url, options)
	if err != nil {
		return nil, err
	}

	return &Auth{jwks.Keyfunc}, nil
}

func NewAuthWithKeyfunc(fn jwt.Keyfunc) *Auth {
	return &Auth{fn}
}

func (auth *Auth) token(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		data := strings.Split(header, " ")
		if len(data) != 2 || data[0] != "Bearer" {
			return "", errors.New("invalid authorization http header")
		}

		return data[1], nil
	}

	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}

	return "", ErrNoToken
}

// UserID returns the subject of the request token, or ErrNoToken when the
// request carries none.
func (auth *Auth) UserID(r *http.Request) (string, error) {
	raw, err := auth.token(r)
	if err != nil {
		return "", err
	}

	token, err := jwt.Parse(raw, auth.keyfunc)
	if err != nil {
		return "", errors.New("failed to parse the JWT")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("the token is not valid")
	}

	if err := claims.Valid(); err != nil {
		return "", err
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", errors.New("the token has no subject")
	}

	return sub, nil
}

// Identify has the Identify signature: a request without token is anonymous, a
// request with a bad token is refused.
func (auth *Auth) Identify(r *http.Request) (string, error) {
	userID, err := auth.UserID(r)
	if errors.Is(err, ErrNoToken) {
		return "", nil
	}

	return userID, err
}
