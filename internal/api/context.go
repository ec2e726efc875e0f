package api

import "context"

func withOrg(ctx context.Context, orgID string) context.Context {
	return context.WithValue(ctx, orgContextKey{}, orgID)
}

func orgFrom(ctx context.Context) string {
	if v, ok := ctx.Value(orgContextKey{}).(string); ok {
		return v
	}
	return ""
}
