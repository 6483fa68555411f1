package merge

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/capscope/capscope/internal/utils"
	"github.com/capscope/capscope/pkg/store"
)

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// nopLogger silently discards all messages.
type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// Recorder receives the outcome of every pair, e.g. to keep an audit trail.
type Recorder interface {
	RecordMerge(ctx context.Context, r PairResult) error
}

// Pair maps one source extract onto the canonical store it feeds.
type Pair struct {
	Source string `mapstructure:"source" json:"source"`
	Target string `mapstructure:"target" json:"target"`
}

func (p Pair) String() string {
	return filepath.Base(p.Source) + " -> " + filepath.Base(p.Target)
}

// Options controls a merge run.
type Options struct {
	Concurrency int       // defaults to 1 if <= 0
	Log         Logger    // optional; nil = no logging
	Recorder    Recorder  // optional
	DryRun      bool      // merge in memory only, never write the target
	Out         io.Writer // per-key operator lines; nil = discarded
}

// PairResult holds the outcome of merging a single pair.
type PairResult struct {
	Pair      Pair
	StartedAt time.Time
	Result
	Saved bool
	Err   error
}

// RunPair merges pair.Source into pair.Target. The target is written back
// only when at least one key was inserted. Any error leaves the target file
// untouched.
func RunPair(ctx context.Context, pair Pair, opts Options) PairResult {
	log := opts.Log
	if log == nil {
		log = nopLogger{}
	}

	out := opts.Out
	if out == nil {
		out = io.Discard
	}

	res := PairResult{Pair: pair, StartedAt: time.Now().UTC()}
	res.Result, res.Saved, res.Err = runPair(ctx, pair, opts.DryRun, log, out)
	if res.Err != nil {
		log.Errorf("%s: %v", pair, res.Err)
	}

	if opts.Recorder != nil {
		if err := opts.Recorder.RecordMerge(ctx, res); err != nil {
			log.Warnf("Could not record merge of %s: %v", pair, err)
		}
	}
	return res
}

func runPair(ctx context.Context, pair Pair, dryRun bool, log Logger, out io.Writer) (Result, bool, error) {
	log.Debugf("Processing: %s", pair)

	if !dryRun {
		lock, err := utils.NewFileLock(pair.Target)
		if err != nil {
			return Result{}, false, err
		}
		if err := lock.Lock(ctx); err != nil {
			return Result{}, false, err
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				log.Warnf("%v", err)
			}
		}()
	}

	source, err := store.Load(pair.Source)
	if err != nil {
		return Result{}, false, err
	}
	target, err := store.Load(pair.Target)
	if err != nil {
		return Result{}, false, err
	}

	result := Merge(source, target)

	// One block per pair, keys in source order.
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Processing: %s\n", pair)
	inserted := make(map[string]bool, len(result.Inserted))
	for _, k := range result.Inserted {
		inserted[k] = true
	}
	for _, k := range source.Keys() {
		if inserted[k] {
			fmt.Fprintf(&buf, "  + Added %q\n", k)
		} else {
			fmt.Fprintf(&buf, "  - Skipping %q (already exists)\n", k)
		}
	}
	defer func() { out.Write(buf.Bytes()) }()

	if !result.Changed() {
		fmt.Fprintf(&buf, "  - No new colleges to add to %s\n", filepath.Base(pair.Target))
		return result, false, nil
	}
	if dryRun {
		fmt.Fprintf(&buf, "  ~ Dry run: %s would gain %d new college(s)\n", filepath.Base(pair.Target), len(result.Inserted))
		return result, false, nil
	}

	if err := target.Save(pair.Target); err != nil {
		return result, false, err
	}
	fmt.Fprintf(&buf, "  ✓ Saved %s with %d new college(s)\n", filepath.Base(pair.Target), len(result.Inserted))
	return result, true, nil
}

// RunBatch merges every pair independently using a worker pool. A failing
// pair never stops the others. Results are returned in the order of pairs.
func RunBatch(ctx context.Context, pairs []Pair, opts Options) []PairResult {
	results := make([]PairResult, len(pairs))
	if len(pairs) == 0 {
		return results
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	if concurrency > len(pairs) {
		concurrency = len(pairs)
	}
	if opts.Out != nil && concurrency > 1 {
		opts.Out = &syncWriter{w: opts.Out}
	}

	idxChan := make(chan int, len(pairs))
	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range idxChan {
				if err := ctx.Err(); err != nil {
					results[idx] = PairResult{Pair: pairs[idx], StartedAt: time.Now().UTC(), Err: err}
					continue
				}
				results[idx] = RunPair(ctx, pairs[idx], opts)
			}
		}()
	}

	for i := range pairs {
		idxChan <- i
	}
	close(idxChan)
	wg.Wait()

	return results
}

// syncWriter serializes writes from concurrent pairs.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// Summary counts the outcome of a batch.
type Summary struct {
	Pairs    int
	Inserted int
	Skipped  int
	Saved    int
	Failed   int
}

// Summarize folds batch results into totals.
func Summarize(results []PairResult) Summary {
	s := Summary{Pairs: len(results)}
	for _, r := range results {
		s.Inserted += len(r.Inserted)
		s.Skipped += len(r.Skipped)
		if r.Saved {
			s.Saved++
		}
		if r.Err != nil {
			s.Failed++
		}
	}
	return s
}

// ResolvePairs joins relative pair paths onto dir.
func ResolvePairs(dir string, pairs []Pair) []Pair {
	out := make([]Pair, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, Pair{Source: resolve(dir, p.Source), Target: resolve(dir, p.Target)})
	}
	return out
}

func resolve(dir, p string) string {
	if dir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// ParsePair parses "source:target".
func ParsePair(s string) (Pair, error) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] != ':' {
			continue
		}
		src, dst := s[:i], s[i+1:]
		if src == "" || dst == "" {
			break
		}
		return Pair{Source: src, Target: dst}, nil
	}
	return Pair{}, fmt.Errorf("invalid pair %q, expected source:target", s)
}

// DefaultPairs is the 2025 round mapping used when no pairs are configured.
func DefaultPairs() []Pair {
	return []Pair{
		{Source: "CAP1_2025_06276.json", Target: "cap1_2025_formatted.json"},
		{Source: "CAP2_2025_06276.json", Target: "cap2_2025_formatted.json"},
		{Source: "CAP3_2025_06276.json", Target: "cap3_2025_formatted.json"},
		{Source: "CAP4_2025_06276.json", Target: "cap4_2025_formatted.json"},
	}
}
