package middleware

import (
	"context"
	"net/http"
)

type contextKey string

const (
	keyPrefixKey    contextKey = "key_prefix"
	keyNameKey      contextKey = "key_name"
	apiKeyScopesKey contextKey = "api_key_scopes"
	requestInfoKey  contextKey = "request_info"
)

// requestInfo is shared by Logger and the middleware below it. Auth records
// the key name here so the access log line can carry it.
type requestInfo struct {
	id      string
	keyName string
}

func withRequestInfo(ctx context.Context, info *requestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey, info)
}

func getRequestInfo(r *http.Request) *requestInfo {
	info, _ := r.Context().Value(requestInfoKey).(*requestInfo)
	return info
}

// RequestID returns the id Logger assigned to r, or "" outside Logger.
func RequestID(r *http.Request) string {
	if info := getRequestInfo(r); info != nil {
		return info.id
	}
	return ""
}

// WithKeyPrefix marks ctx as authenticated by the key with prefix. Rate
// limiting counts requests per prefix.
func WithKeyPrefix(ctx context.Context, prefix string) context.Context {
	return context.WithValue(ctx, keyPrefixKey, prefix)
}

func getKeyPrefix(r *http.Request) (string, bool) {
	prefix, ok := r.Context().Value(keyPrefixKey).(string)
	return prefix, ok
}

func setKeyName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, keyNameKey, name)
}

// KeyName returns the name of the API key that authenticated r, for audit
// trails such as operator rejections.
func KeyName(r *http.Request) string {
	name, _ := r.Context().Value(keyNameKey).(string)
	return name
}

func setScopes(ctx context.Context, scopes []string) context.Context {
	return context.WithValue(ctx, apiKeyScopesKey, scopes)
}

func getScopes(r *http.Request) []string {
	scopes, _ := r.Context().Value(apiKeyScopesKey).([]string)
	return scopes
}
