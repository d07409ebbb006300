// Package auth owns the client-side authenticated session: credential
// validation, the failed-attempt lockout, and where the bearer token lives.
//
// A Manager moves between four states:
//
//	Anonymous -> Authenticating -> Authenticated -> (logout) -> Anonymous
//	Anonymous -> Authenticating -> (rejected) -> Anonymous | LockedOut
//
// LockedOut is time-boxed; once the window passes the manager is Anonymous again.
package auth
