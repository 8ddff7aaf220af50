package floodprobe

import (
	"net/url"
	"strings"
)

// joinEndpoint resolves an endpoint template against the target base URL.
// Endpoint templates may already carry a query string.
func joinEndpoint(baseURL, endpoint string) string {
	base := strings.TrimRight(baseURL, "/")
	if endpoint == "" {
		return base
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return base + endpoint
}

// injectParam returns endpoint with the named query parameter set to
// value, preserving any other parameters the template carries.
func injectParam(endpoint, param, value string) (string, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	query := parsed.Query()
	query.Set(param, value)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// benignURL builds the flood's request URL: the same endpoint with a
// harmless value in the injectable parameter, so flood and attack
// traffic exercise the identical code path.
func benignURL(endpoint, param string) string {
	u, err := injectParam(endpoint, param, "floodprobe")
	if err != nil {
		return endpoint
	}
	return u
}
