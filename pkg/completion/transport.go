package completion

import "net/http"

// headerTransport adds fixed headers to every outgoing request.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func newHeaderTransport(base http.RoundTripper, headers map[string]string) http.RoundTripper {
	if ht, ok := base.(*headerTransport); ok {
		base = ht.base
	}
	if base == nil {
		base = http.DefaultTransport
	}
	return &headerTransport{base: base, headers: headers}
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		if v != "" {
			r.Header.Set(k, v)
		}
	}
	return t.base.RoundTrip(r)
}
