package aadfilter

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"
)

func mustErrorMsg(t testing.TB, want string, got error) {
	t.Helper()
	if (want == "" && got != nil) ||
		(want != "" && (got == nil || got.Error() != want)) {
		t.Fatalf("want error: %s, got %v", want, got)
	}
}

func Test_ParameterTokenExtractor(t *testing.T) {
	wantToken := "i-am-token"
	param := "access_token"

	u, err := url.Parse(fmt.Sprintf("http://localhost?%s=%s", param, wantToken))
	mustErrorMsg(t, "", err)
	r := &http.Request{URL: u}

	gotToken, err := ParameterTokenExtractor(param)(r)
	mustErrorMsg(t, "", err)

	if wantToken != gotToken {
		t.Fatalf("wanted token: %q, got: %q", wantToken, gotToken)
	}
}

func Test_AuthHeaderTokenExtractor(t *testing.T) {
	testCases := []struct {
		name      string
		request   *http.Request
		wantToken string
		wantError string
	}{
		{
			name:    "empty / no header",
			request: &http.Request{},
		},
		{
			name:      "token in header",
			request:   &http.Request{Header: http.Header{"Authorization": []string{"Bearer i-am-token"}}},
			wantToken: "i-am-token",
		},
		{
			name:      "scheme is case insensitive",
			request:   &http.Request{Header: http.Header{"Authorization": []string{"bearer i-am-token"}}},
			wantToken: "i-am-token",
		},
		{
			name:      "no bearer",
			request:   &http.Request{Header: http.Header{"Authorization": []string{"i-am-token"}}},
			wantError: "authorization header format must be Bearer {token}",
		},
		{
			name:      "basic scheme",
			request:   &http.Request{Header: http.Header{"Authorization": []string{"Basic dXNlcjpwYXNz"}}},
			wantError: "authorization header format must be Bearer {token}",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			gotToken, gotError := AuthHeaderTokenExtractor(testCase.request)
			mustErrorMsg(t, testCase.wantError, gotError)

			if testCase.wantToken != gotToken {
				t.Fatalf("wanted token: %q, got: %q", testCase.wantToken, gotToken)
			}
		})
	}
}

func Test_CookieTokenExtractor(t *testing.T) {
	testCases := []struct {
		name      string
		cookie    *http.Cookie
		wantToken string
	}{
		{
			name: "no cookie",
		},
		{
			name:      "token in cookie",
			cookie:    &http.Cookie{Name: "token", Value: "i-am-token"},
			wantToken: "i-am-token",
		},
		{
			name:   "empty cookie",
			cookie: &http.Cookie{Name: "token"},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)

			if testCase.cookie != nil {
				req.AddCookie(testCase.cookie)
			}

			gotToken, gotError := CookieTokenExtractor("token")(req)
			mustErrorMsg(t, "", gotError)

			if testCase.wantToken != gotToken {
				t.Fatalf("wanted token: %q, got: %q", testCase.wantToken, gotToken)
			}
		})
	}
}

func Test_MultiTokenExtractor(t *testing.T) {
	exNothing := func(r *http.Request) (string, error) {
		return "", nil
	}

	t.Run("uses first extractor that replies", func(t *testing.T) {
		wantToken := "i am token"

		exSomething := func(r *http.Request) (string, error) {
			return wantToken, nil
		}
		exFail := func(r *http.Request) (string, error) {
			return "", errors.New("should not have hit me")
		}

		gotToken, err := MultiTokenExtractor(exNothing, exSomething, exFail)(&http.Request{})
		mustErrorMsg(t, "", err)

		if wantToken != gotToken {
			t.Fatalf("wanted token: %q, got: %q", wantToken, gotToken)
		}
	})

	t.Run("stops when an extractor fails", func(t *testing.T) {
		exFail := func(r *http.Request) (string, error) {
			return "", errors.New("extraction fail")
		}

		gotToken, err := MultiTokenExtractor(exNothing, exFail)(&http.Request{})
		mustErrorMsg(t, "extraction fail", err)

		if gotToken != "" {
			t.Fatalf("did not want a token but got: %q", gotToken)
		}
	})

	t.Run("defaults to empty", func(t *testing.T) {
		gotToken, err := MultiTokenExtractor(exNothing, exNothing)(&http.Request{})
		mustErrorMsg(t, "", err)

		if gotToken != "" {
			t.Fatalf("wanted empty token but got: %q", gotToken)
		}
	})
}
