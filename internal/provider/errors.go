package provider

import "github.com/loglens/loglens/internal/clierr"

// Error taxonomy constructors, mapped to the uniform clierr.Kind values
// per spec.md §4.5/§7.

func ErrAuthentication(service string) error {
	return clierr.New(clierr.KindAuthentication, "authentication failed for provider: "+service)
}

func ErrRateLimited(service string) error {
	return clierr.New(clierr.KindRateLimited, "rate limited by provider: "+service)
}

func ErrRequest(service string, cause error) error {
	return clierr.Wrap(clierr.KindTransport, "request to provider failed: "+service, cause)
}

func ErrInvalidResponse(service, detail string) error {
	return clierr.New(clierr.KindInvalidResponse, "invalid response from provider "+service+": "+detail)
}

func ErrTimeout(service string) error {
	return clierr.New(clierr.KindTimeout, "timeout calling provider: "+service)
}

func ErrCancelled(service string) error {
	return clierr.New(clierr.KindTimeout, "call to provider cancelled: "+service)
}
