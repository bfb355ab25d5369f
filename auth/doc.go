// Package auth authenticates API callers.
//
// Two schemes are supported, each behind a TokenValidator registered by name:
//
//   - "api_key": the X-API-Key header compared in constant time against the
//     configured keys
//   - "jwt": an HS256/384/512 bearer token (auth/jwt); its subject becomes
//     the caller's default user id
//
// Successful validation yields a *Principal that the server middleware stores
// in the request context with authctx.Set.
//
//	auth:
//	  enabled: true
//	  api_keys: ["${API_KEY}"]
//	  jwt:
//	    secret: "..."
//	    issuer: "hybridstt"
package auth
