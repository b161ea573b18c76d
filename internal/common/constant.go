// Package common contains shared constants and sentinel errors used across
// blind-voting-app components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on inbound requests.
const AccessTokenHeaderName = "access_token"

// SignLength is the number of characters in a freshly generated profile sign.
const SignLength = 50
