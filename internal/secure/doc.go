// Package secure keeps resolved credentials out of ordinary Go memory.
//
// Passwords fetched from Vault or taken from a legacy configuration field are
// sealed in a memguard enclave as soon as they are resolved and only opened
// for the duration of the call that hands them to the object store:
//
//	pw := secure.NewPassword(value)
//	defer pw.Destroy()
//
//	err := pw.Use(func(plain string) error {
//	    return store.CreateUser(ctx, username, plain)
//	})
//
// The locked buffer the enclave is opened into is wiped when the callback
// returns. The string the callback receives is an ordinary heap copy that
// the garbage collector reclaims like any other, so hold it no longer than
// the call needs.
//
// Call memguard.Purge (or secure.Purge) once at process exit to wipe any
// enclaves that are still alive.
package secure
