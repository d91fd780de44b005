package crawl

import (
	"context"
	"time"

	"github.com/go-logr/logr"

	"github.com/asukhodko/git-datasource/internal/gitrepo"
	"github.com/asukhodko/git-datasource/internal/model"
	"github.com/asukhodko/git-datasource/internal/obsmetrics"
	"github.com/asukhodko/git-datasource/internal/pipeline"
	"github.com/asukhodko/git-datasource/internal/statestore"
	"github.com/asukhodko/git-datasource/internal/syncdecision"
	"github.com/asukhodko/git-datasource/internal/urlutil"
)

// Crawler composes the repository cache, commit-graph queries, sync
// decision, streaming pipeline, and state store into one crawl
// invocation (§4.I).
type Crawler struct {
	CacheDir string
	Store    statestore.Store
	Log      logr.Logger
	Metrics  *obsmetrics.Collector
}

// NewCrawler builds a Crawler. log and metrics may be zero-value
// (logr.Discard() / nil) for callers that don't need observability. store
// is wrapped in statestore.NewBoundedStore so every call the crawl makes
// against it is time-bounded and degrades rather than blocking
// indefinitely (§4.D, §5).
func NewCrawler(cacheDir string, store statestore.Store, log logr.Logger, metrics *obsmetrics.Collector) *Crawler {
	return &Crawler{CacheDir: cacheDir, Store: statestore.NewBoundedStore(store), Log: log, Metrics: metrics}
}

// Run executes one crawl invocation for cfg, invoking yield for each
// emitted Record in order. An irrecoverable error before streaming
// begins is returned without ever calling yield; in that case durable
// state is left untouched.
func (c *Crawler) Run(ctx context.Context, cfg Config, yield func(model.Record) error) error {
	start := timeNow()
	outcome := "completed"
	defer func() {
		c.observeCrawl(outcome, timeNow().Sub(start))
	}()

	configHash := cfg.ConfigHash()
	branch := cfg.NormalizedBranch()
	log := c.Log.WithValues("config_hash", configHash, "repo_url", urlutil.MaskURL(cfg.RepoURL), "branch", branch)
	log.Info("crawl starting")

	cache := gitrepo.NewCache(c.CacheDir, cfg.RepoURL, branch, cfg.Creds)

	lastSHA, hadLastSHA := statestore.LoadLastSHA(ctx, c.Store, configHash)
	failedPaths := statestore.LoadFailedPaths(ctx, c.Store, configHash)

	// Step 3: fast-path short-circuit, no network I/O.
	if cache.Exists() && hadLastSHA && len(failedPaths) == 0 {
		if headSHA, err := cache.HeadSHA(ctx); err == nil && headSHA == lastSHA {
			log.Info("fast-path: local HEAD matches last_sha, no fetch needed")
			return yield(emptyCompletedRecord())
		}
	}

	currentSHA, err := cache.EnsureCloned(ctx)
	if err != nil {
		outcome = "error"
		log.Error(err, "ensure_cloned failed")
		return err
	}

	if hadLastSHA && currentSHA == lastSHA && len(failedPaths) == 0 {
		log.Info("no-op: current HEAD matches last_sha after fetch")
		return yield(emptyCompletedRecord())
	}

	repo, err := cache.Open()
	if err != nil {
		outcome = "error"
		log.Error(err, "opening cached repository failed")
		return err
	}
	graph := gitrepo.NewGraph(repo)

	paths, err := c.buildPathList(graph, cfg, lastSHA, hadLastSHA, currentSHA, failedPaths, log)
	if err != nil {
		outcome = "error"
		return err
	}

	if len(paths) == 0 {
		log.Info("no paths to process, persisting state and returning")
		if err := statestore.SaveLastSHA(ctx, c.Store, configHash, currentSHA); err != nil {
			log.Error(err, "failed to persist last_sha")
		}
		if err := statestore.SaveFailedPaths(ctx, c.Store, configHash, nil); err != nil {
			log.Error(err, "failed to persist failed_paths")
		}
		return yield(emptyCompletedRecord())
	}

	total := len(paths)
	completed := 0
	var accumulatedFailed []string

	stream := pipeline.NewStream(graph, currentSHA, configHash, cfg.RepoURL, branch)
	stream.OnSkip = func(path, reason string) {
		log.V(1).Info("permanent skip", "path", path, "reason", reason)
		c.observeSkip(reason)
	}

	err = stream.Run(ctx, paths, func(batch pipeline.Batch) error {
		completed = batch.Attempted
		accumulatedFailed = statestore.MergeFailedPaths(accumulatedFailed, batch.TransientFailures)
		c.observeBatch(batch)

		status := model.StatusProcessing
		if completed >= total {
			status = model.StatusCompleted
		}
		return yield(model.Record{
			Items:     batch.Items,
			Status:    status,
			Total:     total,
			Completed: completed,
		})
	})
	if err != nil {
		outcome = "error"
		log.Error(err, "streaming pipeline failed")
		return err
	}

	if err := statestore.SaveLastSHA(ctx, c.Store, configHash, currentSHA); err != nil {
		log.Error(err, "failed to persist last_sha")
	}
	if err := statestore.SaveFailedPaths(ctx, c.Store, configHash, accumulatedFailed); err != nil {
		log.Error(err, "failed to persist failed_paths")
	}

	log.Info("crawl completed", "total", total, "completed", completed, "failed", len(accumulatedFailed))
	return nil
}

// buildPathList decides full vs. incremental sync and enumerates the
// path list to stream (§4.G).
func (c *Crawler) buildPathList(graph *gitrepo.Graph, cfg Config, lastSHA string, hadLastSHA bool, currentSHA string, failedPaths []string, log logr.Logger) ([]string, error) {
	effectiveLastSHA := ""
	if hadLastSHA {
		effectiveLastSHA = lastSHA
	}

	if syncdecision.ShouldFullSync(graph, effectiveLastSHA, currentSHA) {
		log.Info("full sync", "sha", currentSHA)
		entries, err := graph.ListTree(currentSHA, cfg.Subdir, cfg.Extensions)
		if err != nil {
			log.Error(err, "list_tree failed")
			return nil, err
		}
		paths := make([]string, 0, len(entries))
		for _, e := range entries {
			paths = append(paths, e.Path)
		}
		return paths, nil
	}

	log.Info("incremental sync", "last_sha", lastSHA, "current_sha", currentSHA)
	changes, err := graph.DiffTrees(lastSHA, currentSHA, cfg.Subdir, cfg.Extensions)
	if err != nil {
		log.Error(err, "diff_trees failed")
		return nil, err
	}
	changeSet := gitrepo.ToChangeSet(changes)
	return syncdecision.BuildIncrementalPaths(changeSet, failedPaths, cfg.PassesFilter), nil
}

func emptyCompletedRecord() model.Record {
	return model.Record{Items: nil, Status: model.StatusCompleted, Total: 0, Completed: 0}
}

func (c *Crawler) observeCrawl(outcome string, d time.Duration) {
	if c.Metrics == nil {
		return
	}
	c.Metrics.CrawlsTotal.WithLabelValues(outcome).Inc()
	c.Metrics.CrawlDuration.Observe(d.Seconds())
}

func (c *Crawler) observeSkip(reason string) {
	if c.Metrics == nil {
		return
	}
	c.Metrics.FilesSkippedTotal.WithLabelValues(reason).Inc()
}

func (c *Crawler) observeBatch(batch pipeline.Batch) {
	if c.Metrics == nil {
		return
	}
	c.Metrics.FilesEmittedTotal.Add(float64(len(batch.Items)))
	c.Metrics.FilesFailedTotal.Add(float64(len(batch.TransientFailures)))
	c.Metrics.BatchSize.Observe(float64(len(batch.Items)))
}

func timeNow() time.Time { return time.Now() }
