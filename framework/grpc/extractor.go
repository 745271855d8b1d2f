package jwtgrpc

import (
	"context"

	"google.golang.org/grpc/metadata"
)

// TokenMetadataKey is the metadata key carrying the raw token.
const TokenMetadataKey = "token"

// TokenExtractor defines a function that extracts a token from gRPC metadata.
type TokenExtractor func(ctx context.Context) (string, error)

// MetadataTokenExtractor extracts the raw token from the "token" metadata field.
func MetadataTokenExtractor(ctx context.Context) (string, error) {
	return MetadataFieldTokenExtractor(TokenMetadataKey)(ctx)
}

// MetadataFieldTokenExtractor extracts the raw token from a specified metadata field.
func MetadataFieldTokenExtractor(field string) TokenExtractor {
	return func(ctx context.Context) (string, error) {
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return "", nil // No metadata, so no token.
		}

		values := md.Get(field)
		if len(values) == 0 {
			return "", nil
		}

		return values[0], nil
	}
}

// MultiTokenExtractor runs multiple TokenExtractors and returns the first non-empty token.
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
