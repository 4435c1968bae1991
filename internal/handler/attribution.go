package handler

import (
	"strings"

	"github.com/dunglas/httpsfv"
)

// attributionHeader is an optional RFC 8941 dictionary the landing page may
// attach to order requests, e.g.:
//
//	Lander-Attribution: page="summer-sale", campaign="fb-q3"
//
// It exists purely for log correlation. A missing or malformed header is
// ignored: attribution must never block a sale.
const attributionHeader = "Lander-Attribution"

// attribution carries the parsed header values.
type attribution struct {
	Page     string
	Campaign string
}

// parseAttribution extracts page/campaign from the structured-field header.
// Returns false if the header is absent or does not parse.
func parseAttribution(header string) (attribution, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return attribution{}, false
	}

	dict, err := httpsfv.UnmarshalDictionary([]string{header})
	if err != nil {
		return attribution{}, false
	}

	attr := attribution{
		Page:     dictString(dict, "page"),
		Campaign: dictString(dict, "campaign"),
	}
	if attr.Page == "" && attr.Campaign == "" {
		return attribution{}, false
	}
	return attr, true
}

// dictString reads a string item from a structured-field dictionary.
func dictString(dict *httpsfv.Dictionary, key string) string {
	member, ok := dict.Get(key)
	if !ok {
		return ""
	}
	item, ok := member.(httpsfv.Item)
	if !ok {
		return ""
	}
	s, ok := item.Value.(string)
	if !ok {
		return ""
	}
	return s
}
