package types

const (
	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-ID"
	// HeaderCronSecret guards the externally triggered cron endpoints
	HeaderCronSecret = "X-Cron-Secret"
)
