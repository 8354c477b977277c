package core

import "context"

type contextKey string

const (
	ctxKeyOperator  contextKey = "operator_id"
	ctxKeyIPAddress contextKey = "ip_address"
)

// ContextWithOperator stores the id of the operator running the import.
// The id is stamped on committed records as criadoPorId.
func ContextWithOperator(ctx context.Context, operatorID string) context.Context {
	return context.WithValue(ctx, ctxKeyOperator, operatorID)
}

// OperatorFromContext extracts the operator id from context.
func OperatorFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyOperator).(string); ok {
		return v
	}
	return ""
}

// ContextWithIPAddress adds the client IP address to context for logging.
func ContextWithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyIPAddress, ip)
}

// IPAddressFromContext extracts the client IP address from context.
func IPAddressFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyIPAddress).(string); ok {
		return v
	}
	return ""
}
