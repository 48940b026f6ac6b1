// Package s3url canonicalizes object-storage references so records can be
// matched whichever form a caller supplies.
//
// Three input shapes are understood:
//
//	s3://bucket/key
//	https://bucket.s3.<region>.amazonaws.com/key
//	https://s3.<region>.amazonaws.com/bucket/key
//
// The canonical form is always https://bucket.<host>/key, lower-cased and
// without trailing slashes, where host is the regional endpoint the
// Normalizer was built for. Input that cannot be parsed is lower-cased and
// stripped of trailing slashes instead of being rejected.
package s3url

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	schemeS3    = "s3://"
	schemeHTTPS = "https://"
)

// Location is a bucket/key pair.
type Location struct {
	Bucket string
	Key    string
}

func (l Location) String() string {
	return l.Bucket + "/" + l.Key
}

// Normalizer builds canonical references for one regional endpoint.
type Normalizer struct {
	host string
}

// New returns a Normalizer for the given AWS region.
func New(region string) *Normalizer {
	region = strings.ToLower(strings.TrimSpace(region))
	if region == "" {
		return &Normalizer{host: "s3.amazonaws.com"}
	}
	return &Normalizer{host: fmt.Sprintf("s3.%s.amazonaws.com", region)}
}

// Host returns the endpoint used in canonical references.
func (n *Normalizer) Host() string {
	return n.host
}

// Normalize returns the canonical form of raw. It never fails and is
// idempotent.
func (n *Normalizer) Normalize(raw string) string {
	loc, ok := Parse(raw)
	if !ok {
		return fallback(raw)
	}
	return fallback(n.objectURL(loc))
}

// HTTPS rewrites s3:// references to the https form, preserving case. Other
// input is returned unchanged. It is used for display, not comparison.
func (n *Normalizer) HTTPS(raw string) string {
	if !hasPrefixFold(strings.TrimSpace(raw), schemeS3) {
		return raw
	}
	loc, ok := Parse(raw)
	if !ok {
		return raw
	}
	return n.objectURL(loc)
}

// Match reports whether a and b name the same object: raw equality, then
// canonical equality, then Equivalent on the canonical forms.
func (n *Normalizer) Match(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	na, nb := n.Normalize(a), n.Normalize(b)
	return na == nb || Equivalent(na, nb)
}

func (n *Normalizer) objectURL(loc Location) string {
	return schemeHTTPS + loc.Bucket + "." + n.host + "/" + keyEscaper.Replace(loc.Key)
}

// keyEscaper encodes the key characters that would otherwise read back as
// a query, a fragment or an escape sequence.
var keyEscaper = strings.NewReplacer("%", "%25", "?", "%3F", "#", "%23")

// Parse extracts the bucket and key of raw. The key keeps its case and any
// trailing slashes. An s3:// key is taken verbatim, so "?" and "#" belong
// to it; an https path loses its query string and fragment and is
// percent-decoded.
func Parse(raw string) (Location, bool) {
	s := strings.TrimSpace(raw)

	switch {
	case hasPrefixFold(s, schemeS3):
		bucket, key, ok := strings.Cut(s[len(schemeS3):], "/")
		if !ok || !validBucket(bucket) || key == "" {
			return Location{}, false
		}
		return Location{Bucket: bucket, Key: key}, true

	case hasPrefixFold(s, schemeHTTPS):
		if i := strings.IndexAny(s, "?#"); i >= 0 {
			s = s[:i]
		}
		host, path, ok := strings.Cut(s[len(schemeHTTPS):], "/")
		if !ok || host == "" || path == "" {
			return Location{}, false
		}
		lowerHost := strings.ToLower(host)
		if !strings.HasSuffix(lowerHost, ".amazonaws.com") {
			return Location{}, false
		}

		// Virtual-hosted: the endpoint label is the last .s3. or .s3- in
		// the host, since region names never contain one.
		if idx := max(strings.LastIndex(lowerHost, ".s3."), strings.LastIndex(lowerHost, ".s3-")); idx > 0 {
			bucket := host[:idx]
			if !validBucket(bucket) {
				return Location{}, false
			}
			return Location{Bucket: bucket, Key: unescapeKey(path)}, true
		}

		if strings.HasPrefix(lowerHost, "s3.") || strings.HasPrefix(lowerHost, "s3-") {
			bucket, key, ok := strings.Cut(path, "/")
			if !ok || !validBucket(bucket) || key == "" {
				return Location{}, false
			}
			return Location{Bucket: bucket, Key: unescapeKey(key)}, true
		}
	}
	return Location{}, false
}

func unescapeKey(key string) string {
	if decoded, err := url.PathUnescape(key); err == nil {
		return decoded
	}
	return key
}

// validBucket accepts the characters S3 allows in bucket names, in either
// case.
func validBucket(bucket string) bool {
	if bucket == "" {
		return false
	}
	for _, r := range bucket {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
		default:
			return false
		}
	}
	return true
}

// Equivalent compares a and b after dropping the scheme, lower-casing and
// stripping trailing slashes. It tolerates scheme drift that canonical
// comparison does not.
func Equivalent(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return stripScheme(a) == stripScheme(b)
}

func stripScheme(u string) string {
	u = strings.ToLower(strings.TrimSpace(u))
	for _, scheme := range []string{schemeHTTPS, "http://", schemeS3} {
		if strings.HasPrefix(u, scheme) {
			u = u[len(scheme):]
			break
		}
	}
	return strings.TrimRight(u, "/")
}

func fallback(u string) string {
	return strings.TrimRight(strings.ToLower(strings.TrimSpace(u)), "/")
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
