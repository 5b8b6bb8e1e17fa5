package skynet

import "net/http"

// bearerTransport adds an Authorization header to every request.
type bearerTransport struct {
	base  http.RoundTripper
	token string
}

// RoundTrip implements http.RoundTripper. The request is cloned, not mutated.
func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", "Bearer "+t.token)
	return t.base.RoundTrip(r)
}

// withBearer returns a copy of hc whose transport authenticates with token.
// hc itself is left untouched.
func withBearer(hc *http.Client, token string) *http.Client {
	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	clone := *hc
	clone.Transport = &bearerTransport{base: base, token: token}
	return &clone
}
