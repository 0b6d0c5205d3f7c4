package fakes

import (
	"context"
	"sync"

	"github.com/systmms/minioprov/internal/objectstore"
)

// ObjectStore is an in-memory objectstore.Client
type ObjectStore struct {
	mu sync.Mutex

	buckets  map[string]bool
	users    map[string]string
	policies map[string][]byte
	attached map[string][]string

	existsErr map[string]error
	bucketErr map[string]error
	uploadErr map[string]error
	createErr map[string]error
	attachErr map[string]error

	// OnCreateUser runs before a user is created; tests use it to cancel
	// contexts or panic mid-run.
	OnCreateUser func(username string)

	calls map[string]int
}

var _ objectstore.Client = (*ObjectStore)(nil)

// NewObjectStore returns an empty fake server
func NewObjectStore() *ObjectStore {
	return &ObjectStore{
		buckets:   map[string]bool{},
		users:     map[string]string{},
		policies:  map[string][]byte{},
		attached:  map[string][]string{},
		existsErr: map[string]error{},
		bucketErr: map[string]error{},
		uploadErr: map[string]error{},
		createErr: map[string]error{},
		attachErr: map[string]error{},
		calls:     map[string]int{},
	}
}

// WithBucket pre-creates a bucket
func (f *ObjectStore) WithBucket(name string) *ObjectStore {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buckets[name] = true
	return f
}

// WithUser pre-creates a user
func (f *ObjectStore) WithUser(name, password string) *ObjectStore {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[name] = password
	return f
}

// WithBucketExistsError fails existence checks for name
func (f *ObjectStore) WithBucketExistsError(name string, err error) *ObjectStore {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.existsErr[name] = err
	return f
}

// WithMakeBucketError fails bucket creation for name
func (f *ObjectStore) WithMakeBucketError(name string, err error) *ObjectStore {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bucketErr[name] = err
	return f
}

// WithUploadError fails uploads of the named policy
func (f *ObjectStore) WithUploadError(policy string, err error) *ObjectStore {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploadErr[policy] = err
	return f
}

// WithCreateUserError fails creation of username
func (f *ObjectStore) WithCreateUserError(username string, err error) *ObjectStore {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createErr[username] = err
	return f
}

// WithAttachError fails policy attachment for username
func (f *ObjectStore) WithAttachError(username string, err error) *ObjectStore {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attachErr[username] = err
	return f
}

func (f *ObjectStore) BucketExists(ctx context.Context, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["BucketExists"]++
	if err := f.existsErr[name]; err != nil {
		return false, err
	}
	return f.buckets[name], nil
}

func (f *ObjectStore) MakeBucket(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["MakeBucket"]++
	if err := f.bucketErr[name]; err != nil {
		return err
	}
	f.buckets[name] = true
	return nil
}

func (f *ObjectStore) UploadPolicy(ctx context.Context, name string, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["UploadPolicy"]++
	f.calls["UploadPolicy:"+name]++
	if err := f.uploadErr[name]; err != nil {
		return err
	}
	f.policies[name] = append([]byte(nil), body...)
	return nil
}

func (f *ObjectStore) CreateUser(ctx context.Context, username, password string) (objectstore.CreateOutcome, error) {
	if f.OnCreateUser != nil {
		f.OnCreateUser(username)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["CreateUser"]++
	if err := f.createErr[username]; err != nil {
		return 0, err
	}
	if _, ok := f.users[username]; ok {
		return objectstore.AlreadyExists, nil
	}
	f.users[username] = password
	return objectstore.Created, nil
}

func (f *ObjectStore) AttachPolicy(ctx context.Context, username, policy string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["AttachPolicy"]++
	if err := f.attachErr[username]; err != nil {
		return err
	}
	for _, p := range f.attached[username] {
		if p == policy {
			return nil
		}
	}
	f.attached[username] = append(f.attached[username], policy)
	return nil
}

// HasBucket reports whether name exists
func (f *ObjectStore) HasBucket(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buckets[name]
}

// Buckets returns the number of buckets
func (f *ObjectStore) Buckets() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.buckets)
}

// UserPassword returns the password a user was created with
func (f *ObjectStore) UserPassword(username string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pw, ok := f.users[username]
	return pw, ok
}

// Policy returns an uploaded policy body
func (f *ObjectStore) Policy(name string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.policies[name]
	return body, ok
}

// Attached returns the policies attached to username
func (f *ObjectStore) Attached(username string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.attached[username]...)
}

// Calls returns how often a method was invoked. "UploadPolicy:<name>"
// counts uploads of a single policy.
func (f *ObjectStore) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}
