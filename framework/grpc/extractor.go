package aadgrpc

import (
	"context"

	"google.golang.org/grpc/metadata"

	aadfilter "github.com/aadauth/go-aad-filter"
)

// TokenExtractor extracts a token from incoming gRPC metadata.
type TokenExtractor func(ctx context.Context) (string, error)

// MetadataTokenExtractor extracts the bearer token from the "authorization"
// metadata field.
func MetadataTokenExtractor(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", nil
	}

	values := md.Get("authorization")
	if len(values) == 0 {
		return "", nil
	}

	return aadfilter.BearerToken(values[0])
}

// MetadataFieldTokenExtractor extracts the raw token from a specified metadata field.
func MetadataFieldTokenExtractor(field string) TokenExtractor {
	return func(ctx context.Context) (string, error) {
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return "", nil
		}

		values := md.Get(field)
		if len(values) == 0 {
			return "", nil
		}

		return values[0], nil
	}
}

// MultiTokenExtractor runs extractors in order and returns the first token found.
func MultiTokenExtractor(extractors ...TokenExtractor) TokenExtractor {
	return func(ctx context.Context) (string, error) {
		for _, ex := range extractors {
			token, err := ex(ctx)
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
