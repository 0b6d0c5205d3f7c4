package reconcile

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Kind is the type of item being reconciled
type Kind string

const (
	KindBucket Kind = "bucket"
	KindUser   Kind = "user"
)

// Status is the outcome for one item
type Status string

const (
	StatusCreated     Status = "created"
	StatusExists      Status = "exists"
	StatusProvisioned Status = "provisioned"
	StatusSkipped     Status = "skipped"
	StatusFailed      Status = "failed"
)

// ItemResult records what happened to a single bucket or user
type ItemResult struct {
	Kind   Kind
	Name   string
	Status Status
	Detail string
	Err    error
}

// Report collects the per-item results of a run
type Report struct {
	Items           []ItemResult
	PoliciesApplied []string
	StartedAt       time.Time
	FinishedAt      time.Time
}

func newReport() *Report {
	return &Report{StartedAt: time.Now()}
}

func (r *Report) add(item ItemResult) {
	r.Items = append(r.Items, item)
}

// Duration is the wall time of the run
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Filter returns the items of kind with the given status
func (r *Report) Filter(kind Kind, status Status) []ItemResult {
	var out []ItemResult
	for _, item := range r.Items {
		if item.Kind == kind && item.Status == status {
			out = append(out, item)
		}
	}
	return out
}

// Failed returns every failed item in run order
func (r *Report) Failed() []ItemResult {
	var out []ItemResult
	for _, item := range r.Items {
		if item.Status == StatusFailed {
			out = append(out, item)
		}
	}
	return out
}

// HasFailures reports whether any item failed. Skipped items do not count.
func (r *Report) HasFailures() bool {
	return len(r.Failed()) > 0
}

// Counts tallies items by kind and status
func (r *Report) Counts() map[Kind]map[Status]int {
	counts := map[Kind]map[Status]int{}
	for _, item := range r.Items {
		if counts[item.Kind] == nil {
			counts[item.Kind] = map[Status]int{}
		}
		counts[item.Kind][item.Status]++
	}
	return counts
}

// Summary renders a one-line tally, e.g. "buckets: 1 created, 2 exists; users: 1 provisioned"
func (r *Report) Summary() string {
	counts := r.Counts()
	var parts []string
	for _, kind := range []Kind{KindBucket, KindUser} {
		byStatus := counts[kind]
		if len(byStatus) == 0 {
			continue
		}
		statuses := make([]string, 0, len(byStatus))
		for status := range byStatus {
			statuses = append(statuses, string(status))
		}
		sort.Strings(statuses)

		tally := make([]string, 0, len(statuses))
		for _, s := range statuses {
			tally = append(tally, fmt.Sprintf("%d %s", byStatus[Status(s)], s))
		}
		parts = append(parts, fmt.Sprintf("%ss: %s", kind, strings.Join(tally, ", ")))
	}
	if len(parts) == 0 {
		return "nothing to do"
	}
	return strings.Join(parts, "; ")
}
