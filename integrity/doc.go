// Package integrity computes Subresource Integrity values for local script
// and stylesheet assets. A Resolver turns an authored integrity attribute
// ("", "sha256", "SHA384", ...) plus the element's src/href into a
// "<algorithm>-<base64>" string, caching each digest in an injected Store.
//
// Only exact algorithm names select hashing. Any other value, including a
// complete SRI string, is left exactly as authored. Missing assets
// contribute nothing; the resolver never returns an error to the caller.
package integrity
