/*
Package aadfilter provides an HTTP filter that authenticates requests
carrying an Azure Active Directory access token.

The filter does not parse or verify tokens itself. Validation is delegated
to a TokenValidator supplied by the caller; the filter extracts the token,
calls the validator, applies group authorization and stores the resulting
UserPrincipal in the request context.

Most applications do not construct the filter directly. The autoconfigure
package registers at most one filter per process when the client id and
client secret are configured, and hands it to the hosting pipeline.

# Quick Start

	props := config.DefaultFilterProperties()
	props.ClientID = os.Getenv("AZURE_ACTIVEDIRECTORY_CLIENT_ID")
	props.ClientSecret = os.Getenv("AZURE_ACTIVEDIRECTORY_CLIENT_SECRET")

	filter, err := aadfilter.New(&props, nil,
	    aadfilter.WithValidator(myValidator),
	)
	if err != nil {
	    log.Fatal(err)
	}

	http.Handle("/api/", filter.Handler(apiHandler))

# Accessing the Principal

	func apiHandler(w http.ResponseWriter, r *http.Request) {
	    principal, err := aadfilter.PrincipalFromContext(r.Context())
	    if err != nil {
	        fmt.Fprintln(w, "Public content")
	        return
	    }
	    fmt.Fprintf(w, "Hello, %s!", principal.Identity())
	}

# Configuration Options

Required (one of):
  - WithValidator: a ready TokenValidator
  - WithValidatorFactory: builds the validator from the resolved endpoints

Optional:
  - WithCredentialsOptional: let requests without a token through (default true)
  - WithValidateOnOptions: validate OPTIONS requests (default true)
  - WithErrorHandler: custom error responses
  - WithTokenExtractor: custom token extraction
  - WithExclusionUrls: URLs that skip validation
  - WithLogger, WithMetrics, WithTracer: observability hooks

# Group Authorization

When azure.activedirectory.user-group.allowed-groups is set, an
authenticated principal must be a member of at least one listed group.
Other principals are rejected with ErrGroupDenied.

# Error Responses

DefaultErrorHandler writes a JSON body:

  - 400 Bad Request: no token and credentials required (ErrTokenMissing)
  - 401 Unauthorized: the validator rejected the token (ErrTokenInvalid)
  - 403 Forbidden: group authorization failed (ErrGroupDenied)
  - 500 Internal Server Error: anything else
*/
package aadfilter
