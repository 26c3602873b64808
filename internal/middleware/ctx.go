package middleware

type ContextKey string

const (
	ContextUserID    ContextKey = "user_id"
	ContextRequestID ContextKey = "request_id"
)
