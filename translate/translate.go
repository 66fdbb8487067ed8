// Package translate orchestrates machine translation of localization
// models: it builds per-locale work sets, batches them, dispatches the
// batches concurrently through an injected translation capability, and
// merges validated results back into the target models.
//
// The orchestrator never talks to a network itself. It only requires a
// Func that translates a key→text map into a target locale; HTTP, LLM
// or mock implementations are the caller's business.
package translate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/l10nbox/l10nbox/classify"
	"github.com/l10nbox/l10nbox/placeholder"
	"github.com/l10nbox/l10nbox/resource"
)

// Func is the injected translation capability. It must return a value
// for every key it was given, translated into targetLocale, preserving
// placeholders and escape sequences. Keys are opaque identifiers and
// must come back unchanged.
type Func func(ctx context.Context, texts map[string]string, sourceLocale, targetLocale, guidance string) (map[string]string, error)

// Mode selects the work set per target.
type Mode int

const (
	// Incremental translates only keys classified as missing or blank
	// in the target. Existing translations are left untouched.
	Incremental Mode = iota
	// Full translates every non-metadata source key and overwrites
	// existing target values unconditionally.
	Full
)

func (m Mode) String() string {
	if m == Full {
		return "full"
	}
	return "incremental"
}

// TransportError marks a batch-level network or decode failure.
// Transport failures are retried with backoff; placeholder rejections
// are not (resending rejected text rarely converges).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "transport: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// KeyError is one failed key in one locale.
type KeyError struct {
	Key    string
	Reason string
}

func (e KeyError) Error() string { return fmt.Sprintf("%s: %s", e.Key, e.Reason) }

// Target pairs a derived model with its locale-specific settings.
type Target struct {
	// Model is mutated in place as batches complete.
	Model *resource.Model
	// Locale is the translation target (falls back to Model.Locale).
	Locale string
	// Guidance is extra prompt text forwarded to the capability.
	Guidance string
	// Force lists keys to translate even when the target already has a
	// value (e.g. the source text changed since the last run). Ignored
	// in Full mode, which covers everything anyway.
	Force []string
}

// Options tunes batching, concurrency and retry behavior. Zero values
// get the defaults below; none of the knobs affect correctness, only
// throughput.
type Options struct {
	// Mode selects incremental or full translation.
	Mode Mode
	// BatchSize is the maximum number of keys per capability call.
	BatchSize int
	// MaxConcurrent bounds the worker pool across all locales.
	MaxConcurrent int
	// RequestDelay spaces out task launches (rate-limit friendliness).
	RequestDelay time.Duration
	// Timeout is the per-call deadline. A timed-out call is a
	// transport failure and follows the retry policy.
	Timeout time.Duration
	// MaxRetries is the number of transport retries per batch before
	// the batch's keys are demoted to key errors.
	MaxRetries int
	// OnProgress is called after each merged batch.
	OnProgress func(locale string, done, total int)
	// OnLog emits diagnostics during translation.
	OnLog func(format string, args ...any)
}

func (o *Options) effectiveBatchSize() int {
	if o.BatchSize > 0 {
		return o.BatchSize
	}
	return 40
}

func (o *Options) effectiveMaxConcurrent() int {
	if o.MaxConcurrent > 0 {
		return o.MaxConcurrent
	}
	return 3
}

func (o *Options) effectiveMaxRetries() int {
	if o.MaxRetries > 0 {
		return o.MaxRetries
	}
	return 3
}

func (o *Options) effectiveTimeout() time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	return 120 * time.Second
}

func (o *Options) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

// Result reports what happened per locale. Translated counts and
// Errors together let the caller distinguish "nothing to do" from
// partial failure without losing successful keys.
type Result struct {
	// Translated is the number of keys merged per locale.
	Translated map[string]int
	// Errors collects per-key failures per locale.
	Errors map[string][]KeyError
}

// Failed reports whether any key failed in any locale.
func (r Result) Failed() bool {
	for _, errs := range r.Errors {
		if len(errs) > 0 {
			return true
		}
	}
	return false
}

// TotalTranslated sums merged keys across locales.
func (r Result) TotalTranslated() int {
	n := 0
	for _, c := range r.Translated {
		n += c
	}
	return n
}

// TotalFailed sums failed keys across locales.
func (r Result) TotalFailed() int {
	n := 0
	for _, errs := range r.Errors {
		n += len(errs)
	}
	return n
}

// ---------------------------------------------------------------------------
// Work units
// ---------------------------------------------------------------------------

// task is one (locale, batch) unit dispatched to the worker pool.
type task struct {
	target  *Target
	locale  string
	keys    []string          // batch keys, sorted
	texts   map[string]string // key → source text
	guards  map[string]placeholder.Set
	total   int // work-set size for the whole locale (progress)
	counter *int64
}

// buildWorkSet computes the keys to translate for one target. Blank
// source strings never enter the work set in either mode.
func buildWorkSet(source *resource.Model, target *Target, mode Mode) []string {
	var keys []string
	if mode == Full {
		for key, val := range source.Values() {
			if strings.TrimSpace(val) != "" {
				keys = append(keys, key)
			}
		}
	} else {
		keys = classify.Classify(source, target.Model).Missing
		if len(target.Force) > 0 {
			srcValues := source.Values()
			have := make(map[string]bool, len(keys))
			for _, k := range keys {
				have[k] = true
			}
			for _, k := range target.Force {
				if _, ok := srcValues[k]; ok && !have[k] {
					keys = append(keys, k)
				}
			}
		}
	}
	sort.Strings(keys)
	return keys
}

// Run translates all targets from source. Targets are mutated in
// place; the Result carries counts and structured per-key errors.
//
// Cancellation: once ctx is done no new batches are dispatched, but
// in-flight batches complete and merge, so no key is ever left in a
// partial state. Keys never dispatched simply stay missing and a later
// incremental run picks them up.
func Run(ctx context.Context, source *resource.Model, targets []*Target, fn Func, opts Options) Result {
	result := Result{
		Translated: make(map[string]int),
		Errors:     make(map[string][]KeyError),
	}
	if fn == nil || len(targets) == 0 {
		return result
	}

	srcValues := source.Values()
	batchSize := opts.effectiveBatchSize()

	var tasks []*task

	for _, target := range targets {
		locale := target.Locale
		if locale == "" {
			locale = target.Model.Locale
		}
		target.Locale = locale
		result.Translated[locale] = 0

		keys := buildWorkSet(source, target, opts.Mode)
		if len(keys) == 0 {
			continue
		}

		counter := new(int64)

		for start := 0; start < len(keys); start += batchSize {
			end := start + batchSize
			if end > len(keys) {
				end = len(keys)
			}
			batch := keys[start:end]

			texts := make(map[string]string, len(batch))
			guards := make(map[string]placeholder.Set, len(batch))
			for _, key := range batch {
				text := srcValues[key]
				texts[key] = text
				guards[key] = placeholder.NewSet(text)
			}

			tasks = append(tasks, &task{
				target:  target,
				locale:  locale,
				keys:    append([]string(nil), batch...),
				texts:   texts,
				guards:  guards,
				total:   len(keys),
				counter: counter,
			})
		}
	}

	if len(tasks) == 0 {
		return result
	}

	// Workers target disjoint models, but all of them write into the
	// same result maps: the merge step is the one shared path and runs
	// under this mutex.
	var mu sync.Mutex

	runPool(ctx, tasks, opts.effectiveMaxConcurrent(), opts.RequestDelay, func(ctx context.Context, t *task) {
		translations, err := callWithRetry(ctx, fn, t, source.Locale, opts)

		mu.Lock()
		defer mu.Unlock()

		if err != nil {
			// The whole batch is demoted to per-key errors; sibling
			// batches of the same locale keep going.
			for _, key := range t.keys {
				result.Errors[t.locale] = append(result.Errors[t.locale], KeyError{
					Key:    key,
					Reason: err.Error(),
				})
			}
			return
		}

		merged := 0
		for _, key := range t.keys {
			translated, ok := translations[key]
			if !ok {
				result.Errors[t.locale] = append(result.Errors[t.locale], KeyError{
					Key:    key,
					Reason: "no translation returned",
				})
				continue
			}
			if !t.guards[key].Equal(placeholder.NewSet(translated)) {
				// Rejected: the previous target value stays unchanged.
				result.Errors[t.locale] = append(result.Errors[t.locale], KeyError{
					Key: key,
					Reason: fmt.Sprintf("placeholder mismatch: source has %s, translation has %s",
						t.guards[key], placeholder.NewSet(translated)),
				})
				continue
			}
			t.target.Model.Set(key, translated)
			merged++
		}
		result.Translated[t.locale] += merged

		*t.counter += int64(len(t.keys))
		if opts.OnProgress != nil {
			opts.OnProgress(t.locale, int(*t.counter), t.total)
		}
	})

	for locale := range result.Errors {
		errs := result.Errors[locale]
		sort.Slice(errs, func(i, j int) bool { return errs[i].Key < errs[j].Key })
	}

	return result
}

// callWithRetry invokes the capability with a per-call timeout and
// exponential backoff on transport failures. Exhausting the retry
// budget surfaces the last transport error; the caller demotes the
// batch rather than aborting the locale.
func callWithRetry(ctx context.Context, fn Func, t *task, sourceLocale string, opts Options) (map[string]string, error) {
	var translations map[string]string

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(opts.effectiveMaxRetries())),
		ctx)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		// Cancellation gates dispatch and retries only: a call already
		// in flight keeps its own timeout and runs to completion, so
		// its batch still merges after Ctrl-C.
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), opts.effectiveTimeout())
		defer cancel()

		out, err := fn(callCtx, t.texts, sourceLocale, t.locale, t.target.Guidance)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			opts.log("[WARN] %s: batch of %d failed (attempt %d): %v", t.locale, len(t.keys), attempt, err)
			return &TransportError{Err: err}
		}
		translations = out
		return nil
	}, policy)

	if err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			err = perm.Err
		}
		return nil, err
	}
	return translations, nil
}

// ---------------------------------------------------------------------------
// Worker pool
// ---------------------------------------------------------------------------

// runPool executes tasks on a bounded pool with an optional launch
// delay. Dispatch stops as soon as ctx is cancelled; workers already
// running finish normally.
func runPool(ctx context.Context, tasks []*task, maxConcurrent int, delay time.Duration, fn func(context.Context, *task)) {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	sem := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup

	for i, t := range tasks {
		if ctx.Err() != nil {
			break
		}

		if i > 0 && delay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(delay):
			}
			if ctx.Err() != nil {
				break
			}
		}

		sem <- struct{}{}
		wg.Add(1)

		go func(t *task) {
			defer func() {
				<-sem
				wg.Done()
			}()
			fn(ctx, t)
		}(t)
	}

	wg.Wait()
}
