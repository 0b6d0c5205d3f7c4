// Package reconcile applies a provisioning document to a MinIO server.
//
// Buckets are checked and created first, then each user gets its policy
// uploaded, its password resolved, its account created and the policy
// attached. Every item is isolated: a failure is recorded in the Report and
// the run moves on. Only context cancellation stops a run early.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/systmms/minioprov/internal/config"
	dserrors "github.com/systmms/minioprov/internal/errors"
	"github.com/systmms/minioprov/internal/logging"
	"github.com/systmms/minioprov/internal/objectstore"
	"github.com/systmms/minioprov/internal/secure"
)

const DefaultRevokeTimeout = 10 * time.Second

// SecretStore is an authenticated password source. The reconciler revokes
// it when the run ends.
type SecretStore interface {
	GetUserPassword(ctx context.Context, username, path string) (string, error)
	RevokeToken(ctx context.Context)
}

// errSkipped marks a user that could not be attempted, as opposed to one that failed
var errSkipped = errors.New("skipped")

// Reconciler holds the collaborators for one run. Secrets may be nil, in
// which case only users with a legacy password can be provisioned.
type Reconciler struct {
	Store         objectstore.Client
	Secrets       SecretStore
	Policies      PolicySource
	Logger        *logging.Logger
	Metrics       *Metrics
	RevokeTimeout time.Duration

	releaseOnce sync.Once
}

// Run reconciles doc. The returned error is non-nil only when the run was
// cut short; per-item failures are in the Report. The secret store session
// is revoked exactly once before Run returns, panics included.
func (r *Reconciler) Run(ctx context.Context, doc *config.Document) (report *Report, err error) {
	report = newReport()
	defer r.release()
	defer r.finish(report)

	if err := r.reconcileBuckets(ctx, doc.Buckets, report); err != nil {
		return report, err
	}
	if err := r.reconcileUsers(ctx, doc.Users, report); err != nil {
		return report, err
	}
	return report, nil
}

// RunBuckets reconciles only the bucket list. No secret store is involved.
func (r *Reconciler) RunBuckets(ctx context.Context, buckets []string) (*Report, error) {
	report := newReport()
	defer r.release()
	defer r.finish(report)

	err := r.reconcileBuckets(ctx, buckets, report)
	return report, err
}

func (r *Reconciler) finish(report *Report) {
	report.FinishedAt = time.Now()
	r.Metrics.recordRun(report)
}

func (r *Reconciler) release() {
	r.releaseOnce.Do(func() {
		if r.Secrets == nil {
			return
		}
		timeout := r.RevokeTimeout
		if timeout <= 0 {
			timeout = DefaultRevokeTimeout
		}
		// The run context may already be cancelled; revocation still has to go out.
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		r.Secrets.RevokeToken(ctx)
	})
}

func (r *Reconciler) logger() *logging.Logger {
	if r.Logger == nil {
		r.Logger = logging.New(false, true)
	}
	return r.Logger
}

func (r *Reconciler) record(report *Report, item ItemResult) {
	report.add(item)
	r.Metrics.recordItem(item)
}

func (r *Reconciler) reconcileBuckets(ctx context.Context, buckets []string, report *Report) error {
	log := r.logger()
	seen := make(map[string]struct{}, len(buckets))

	for _, name := range buckets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		exists, err := r.Store.BucketExists(ctx, name)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error("Failed to check bucket '%s': %v", name, err)
			r.record(report, ItemResult{Kind: KindBucket, Name: name, Status: StatusFailed, Detail: "existence check failed", Err: minioError("bucket check", err)})
			continue
		}
		if exists {
			log.Info("Bucket '%s' already exists", name)
			r.record(report, ItemResult{Kind: KindBucket, Name: name, Status: StatusExists})
			continue
		}

		if err := r.Store.MakeBucket(ctx, name); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error("Failed to create bucket '%s': %v", name, err)
			r.record(report, ItemResult{Kind: KindBucket, Name: name, Status: StatusFailed, Detail: "create failed", Err: minioError("bucket creation", err)})
			continue
		}
		log.Info("Created bucket '%s'", name)
		r.record(report, ItemResult{Kind: KindBucket, Name: name, Status: StatusCreated})
	}
	return nil
}

func (r *Reconciler) reconcileUsers(ctx context.Context, users []config.UserSpec, report *Report) error {
	applied := map[string]bool{}

	for i, u := range users {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := u.Username
		if name == "" {
			name = fmt.Sprintf("#%d", i+1)
		}

		detail, err := r.provisionUser(ctx, u, applied, report)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		switch {
		case errors.Is(err, errSkipped):
			r.record(report, ItemResult{Kind: KindUser, Name: name, Status: StatusSkipped, Detail: detail})
		case err != nil:
			r.logger().Error("User '%s': %s: %v", name, detail, err)
			r.record(report, ItemResult{Kind: KindUser, Name: name, Status: StatusFailed, Detail: detail, Err: err})
		default:
			r.logger().Info("Provisioned user '%s' with policy '%s'", u.Username, u.PolicyName())
			r.record(report, ItemResult{Kind: KindUser, Name: name, Status: StatusProvisioned, Detail: detail})
		}
	}
	return nil
}

// provisionUser uploads the policy, creates the user and attaches the policy.
// On failure it returns the step that failed as detail; errSkipped means the
// user was never attempted.
func (r *Reconciler) provisionUser(ctx context.Context, u config.UserSpec, applied map[string]bool, report *Report) (string, error) {
	log := r.logger()

	if !u.Complete() {
		log.Warn("Skipping user record without username or policy (username=%q, policy=%q)", u.Username, u.Policy)
		return "missing username or policy", errSkipped
	}
	if r.Secrets == nil && u.Password == "" {
		log.Warn("Skipping user '%s': no Vault session and no password in config", u.Username)
		return "no password source", errSkipped
	}

	policyName := u.PolicyName()
	if !applied[policyName] {
		name, body, err := r.Policies.Load(u.Policy)
		if err != nil {
			return "policy load failed", err
		}
		if err := r.Store.UploadPolicy(ctx, name, body); err != nil {
			return "policy upload failed", minioError("policy upload", err)
		}
		applied[policyName] = true
		report.PoliciesApplied = append(report.PoliciesApplied, policyName)
		r.Metrics.recordPolicyUpload()
		log.Info("Applied policy '%s'", policyName)
	}

	password, err := r.resolvePassword(ctx, u)
	if err != nil {
		return "password lookup failed", err
	}
	defer password.Destroy()

	var outcome objectstore.CreateOutcome
	err = password.Use(func(pw string) error {
		var err error
		outcome, err = r.Store.CreateUser(ctx, u.Username, pw)
		return err
	})
	if err != nil {
		return "user creation failed", minioError("user creation", err)
	}

	detail := "created"
	if outcome == objectstore.AlreadyExists {
		log.Info("User '%s' already exists", u.Username)
		detail = "already existed"
	} else {
		log.Info("Created user '%s'", u.Username)
	}

	if err := r.Store.AttachPolicy(ctx, u.Username, policyName); err != nil {
		return "policy attach failed", minioError("policy attach", err)
	}
	return detail, nil
}

// resolvePassword prefers the secret store and falls back to the literal
// from the document only when there is no session.
func (r *Reconciler) resolvePassword(ctx context.Context, u config.UserSpec) (*secure.Password, error) {
	if r.Secrets == nil {
		r.logger().Debug("Using password from config for user %s", u.Username)
		return secure.NewPassword(u.Password), nil
	}

	pw, err := r.Secrets.GetUserPassword(ctx, u.Username, u.SecretsPath())
	if err != nil {
		return nil, err
	}
	r.logger().Debug("Retrieved password for user %s from Vault", u.Username)
	return secure.NewPassword(pw), nil
}

// minioError attaches an operator suggestion to a failed server call
func minioError(op string, err error) error {
	return dserrors.ProviderError("minio", op, err)
}
