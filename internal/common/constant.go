package common

// AuthorizationHeader is the HTTP header carrying the bearer access token.
const AuthorizationHeader = "Authorization"

// BearerScheme is the authentication scheme name used in AuthorizationHeader
// and in WWW-Authenticate challenges.
const BearerScheme = "Bearer"

// RequestIDHeader is echoed back on every API response.
const RequestIDHeader = "X-Request-ID"
