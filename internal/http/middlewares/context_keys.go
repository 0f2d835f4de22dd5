package middlewares

const (
	CtxRequestID = "request_id"
)
