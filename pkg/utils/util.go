package utils

import (
	"net/http"
	"net/http/httputil"
	"regexp"

	"github.com/rs/zerolog/log"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (fn roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return fn(r)
}

// Portal webhook URLs embed the access token in the path, keep it out of
// debug output.
var webhookTokenPattern = regexp.MustCompile(`(/rest/\d+/)[A-Za-z0-9]+`)

func redact(s string) string {
	return webhookTokenPattern.ReplaceAllString(s, "${1}***")
}

// DebugRoundTripper logs full request and response dumps for every call,
// used when the debug flag is on.
func DebugRoundTripper() http.RoundTripper {
	return DebugRoundTripperWithUnderlying(http.DefaultTransport)
}

func DebugRoundTripperWithUnderlying(u http.RoundTripper) http.RoundTripper {
	return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		d, _ := httputil.DumpRequest(r, true)
		log.Debug().Msg(redact(string(d)))
		res, err := u.RoundTrip(r)
		if err == nil {
			d, _ := httputil.DumpResponse(res, true)
			log.Debug().Msg(string(d))
		}
		return res, err
	})
}
