package constant

const (
	DefaultTokenType    = "Bearer"
	BearerSchemePrefix  = "Bearer "
	AuthorizationHeader = "Authorization"

	// Fallbacks used when the boundary cannot resolve client metadata.
	UnknownIPAddress = "Unknown"
	UnknownUserAgent = "Unknown"

	// Field-level limits shared by validation and the schema.
	MaxEmailLength     = 100
	MaxNameLength      = 50
	MaxIPAddressLength = 45
	MaxUserAgentLength = 500

	// Entropy of the opaque refresh token, in bytes, before encoding.
	RefreshTokenByteLength = 64
)
