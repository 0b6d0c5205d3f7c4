// Package fakes provides in-memory stand-ins for the MinIO and Vault clients.
//
// Fakes keep real state (buckets that were made stay made), so running a
// reconciliation twice against the same fake behaves like running it twice
// against a server. Failures are injected per name with the With* builders.
//
// Usage:
//
//	store := fakes.NewObjectStore().
//	    WithBucket("logs").
//	    WithCreateUserError("ci-bot", errors.New("boom"))
//	secrets := fakes.NewSecretStore().WithPassword("ci-bot", "s3cr3t")
package fakes
