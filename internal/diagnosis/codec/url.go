package codec

import (
	"net/url"

	"talent-diagnosis/internal/common/metrics"
	"talent-diagnosis/internal/models"
)

// ConsumeFromURL reads the encoded payload off u, decodes it, and returns
// the session together with a copy of u with the payload stripped. The
// payload is consumed exactly once: the stripped URL is what the caller
// exposes from then on, so refreshing, bookmarking or forwarding it never
// re-exposes data. A missing or malformed payload is ErrNoSession.
func ConsumeFromURL(u *url.URL) (*models.DiagnosisSession, *url.URL, error) {
	query := u.Query()
	payload := query.Get(QueryParam)
	if payload == "" {
		return nil, u, ErrNoSession
	}

	session, err := Decode(payload)
	if err != nil {
		metrics.PayloadDecodes.WithLabelValues("url", "failure").Inc()
		return nil, u, err
	}
	metrics.PayloadDecodes.WithLabelValues("url", "success").Inc()

	stripped := *u
	query.Del(QueryParam)
	stripped.RawQuery = query.Encode()
	return session, &stripped, nil
}
