package keyvault

import "errors"

// ErrWrongPassword is returned by Unlock when the supplied password does
// not unseal the master key envelope. By design this is never
// distinguished from store corruption: both present the same unlock
// failure to the caller.
var ErrWrongPassword = errors.New("keyvault: wrong password or corrupted store")
