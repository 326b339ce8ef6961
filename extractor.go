package aadfilter

import (
	"errors"
	"net/http"
	"strings"
)

// ErrAuthHeaderFormat is returned when the Authorization header is present
// but is not a bearer credential.
var ErrAuthHeaderFormat = errors.New("authorization header format must be Bearer {token}")

// TokenExtractor pulls the raw token out of a request. A request without a
// token is not an error: return an empty string. Errors are reserved for a
// token that is present but malformed.
type TokenExtractor func(r *http.Request) (string, error)

// BearerToken parses an Authorization header value. It is shared with the
// gRPC adapter, which reads the same value from metadata.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", nil
	}

	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrAuthHeaderFormat
	}

	return parts[1], nil
}

// AuthHeaderTokenExtractor reads the token from the Authorization header.
func AuthHeaderTokenExtractor(r *http.Request) (string, error) {
	return BearerToken(r.Header.Get("Authorization"))
}

// CookieTokenExtractor reads the token from the named cookie.
func CookieTokenExtractor(cookieName string) TokenExtractor {
	return func(r *http.Request) (string, error) {
		cookie, err := r.Cookie(cookieName)
		if errors.Is(err, http.ErrNoCookie) {
			return "", nil
		}
		if err != nil {
			return "", err
		}
		return cookie.Value, nil
	}
}

// ParameterTokenExtractor reads the token from a query parameter.
func ParameterTokenExtractor(param string) TokenExtractor {
	return func(r *http.Request) (string, error) {
		return r.URL.Query().Get(param), nil
	}
}

// MultiTokenExtractor tries each extractor in order and returns the first
// non-empty token. The first error stops the search.
func MultiTokenExtractor(extractors ...TokenExtractor) TokenExtractor {
	return func(r *http.Request) (string, error) {
		for _, ex := range extractors {
			token, err := ex(r)
			if err != nil {
				return "", err
			}

			if token != "" {
				return token, nil
			}
		}
		return "", nil
	}
}
