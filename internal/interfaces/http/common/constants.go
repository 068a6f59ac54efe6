package common

const (
	// MaxRequestBody limits JSON request bodies across all endpoints.
	MaxRequestBody = 1 << 20
	// MaxCommentRunes limits rating comment length to keep payloads sane.
	MaxCommentRunes = 2000
)
