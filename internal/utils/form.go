// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import "net/url"

// FlattenForm merges form values into a single-valued map. Later sources
// win over earlier ones, and within one source the first value of a key is
// kept, so FlattenForm(query, postForm) gives POST fields precedence.
//
// Keys sent with an empty value are kept: presence alone is meaningful for
// submit buttons.
func FlattenForm(sources ...url.Values) map[string]string {
	out := make(map[string]string)
	for _, vals := range sources {
		for k, vv := range vals {
			if len(vv) == 0 {
				out[k] = ""
				continue
			}
			out[k] = vv[0]
		}
	}
	return out
}
