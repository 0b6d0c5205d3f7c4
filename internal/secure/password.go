package secure

import (
	"errors"
	"sync"

	"github.com/awnumar/memguard"
)

// ErrDestroyed is returned by Use after the password has been destroyed
var ErrDestroyed = errors.New("password has been destroyed")

// Password holds a credential encrypted at rest in memory.
type Password struct {
	mu        sync.RWMutex
	enclave   *memguard.Enclave
	empty     bool
	destroyed bool
}

// NewPassword seals value into an enclave. The empty string is allowed and
// reported by Empty; callers decide whether that is acceptable.
func NewPassword(value string) *Password {
	if value == "" {
		return &Password{empty: true}
	}
	// NewEnclave wipes the slice it is given; the conversion makes a private copy.
	return &Password{enclave: memguard.NewEnclave([]byte(value))}
}

// Empty reports whether the sealed value is the empty string
func (p *Password) Empty() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.empty
}

// Use opens the enclave and calls fn with the plaintext. The locked buffer
// is wiped once fn returns; fn gets an ordinary heap copy it may keep.
func (p *Password) Use(fn func(plain string) error) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.destroyed {
		return ErrDestroyed
	}
	if p.empty {
		return fn("")
	}

	locked, err := p.enclave.Open()
	if err != nil {
		return err
	}
	defer locked.Destroy()

	return fn(string(locked.Bytes()))
}

// Equal reports whether the sealed value equals other without exposing it
func (p *Password) Equal(other string) bool {
	match := false
	_ = p.Use(func(plain string) error {
		match = plain == other
		return nil
	})
	return match
}

// Destroy drops the enclave. It is idempotent.
func (p *Password) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.destroyed {
		return
	}
	p.enclave = nil
	p.destroyed = true
}

// Purge wipes every memguard allocation made by the process.
func Purge() {
	memguard.Purge()
}
