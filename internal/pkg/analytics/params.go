package analytics

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/RefTrackApp/RefTrack/app/models"
)

// MergeURLParams reconciles the URL parameters of one session from all
// known sources, in ascending precedence:
//
//	(a) the session's persisted url_params map
//	(b) the url_params sub-map of the session's most recent event
//	(c) the query string of that event's page URL
//	(d) the query string of the session's landing page
//
// Later sources overwrite same-named keys from earlier ones. The result
// is never nil.
func MergeURLParams(session *models.VisitorSession, event *models.VisitorEvent) map[string]string {
	merged := make(map[string]string)

	for k, v := range session.URLParams {
		merged[k] = v
	}

	if event != nil {
		for k, v := range eventDataParams(event.EventData) {
			merged[k] = v
		}
		for k, v := range ParseQueryParams(event.PageURL) {
			merged[k] = v
		}
	}

	for k, v := range ParseQueryParams(session.LandingPage) {
		merged[k] = v
	}

	return merged
}

// eventDataParams pulls the url_params sub-map out of an event's
// free-form data, tolerating non-string values.
func eventDataParams(data models.JSON) map[string]string {
	params := make(map[string]string)
	if len(data) == 0 {
		return params
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(data, &payload); err != nil {
		return params
	}
	raw, ok := payload["url_params"]
	if !ok {
		return params
	}

	var typed map[string]interface{}
	if err := json.Unmarshal(raw, &typed); err != nil {
		return params
	}
	for k, v := range typed {
		switch value := v.(type) {
		case string:
			params[k] = value
		case nil:
			params[k] = ""
		default:
			params[k] = fmt.Sprint(value)
		}
	}
	return params
}

// ParseQueryParams extracts the query parameters of a raw URL. When the
// standard parser rejects the input, it falls back to manual key=value&
// splitting so malformed tracking links still yield their parameters. A
// key without a value still produces an entry with an empty value.
func ParseQueryParams(rawURL string) map[string]string {
	params := make(map[string]string)
	if rawURL == "" {
		return params
	}

	query := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		query = u.RawQuery
	} else if idx := strings.Index(rawURL, "?"); idx >= 0 {
		query = rawURL[idx+1:]
	} else {
		// no query part recognizable
		return params
	}

	if query == "" {
		return params
	}

	// strip any fragment that survived
	if idx := strings.Index(query, "#"); idx >= 0 {
		query = query[:idx]
	}

	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		kv := strings.SplitN(pair, "=", 2)
		key := unescape(kv[0])
		if key == "" {
			continue
		}
		value := ""
		if len(kv) == 2 {
			value = unescape(kv[1])
		}
		params[key] = value
	}

	return params
}

// unescape decodes percent escapes best-effort, keeping the raw text
// when decoding fails.
func unescape(s string) string {
	s = strings.ReplaceAll(s, "+", " ")
	if decoded, err := url.QueryUnescape(s); err == nil {
		return decoded
	}
	return s
}
