package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"repowiki/internal/catalog"
	"repowiki/internal/classify"
	"repowiki/internal/events"
	"repowiki/internal/generate"
	"repowiki/internal/llm"
	"repowiki/internal/prompt"
	"repowiki/internal/repo"
	"repowiki/internal/store"
)

// Targets for commit records. One repository-level commit id gates all of
// them; a commit change regenerates the whole warehouse.
const (
	targetCatalog  = "catalog"
	targetOverview = "overview"
	targetMiniMap  = "minimap"
)

func docTarget(path string) string { return "doc:" + path }

// SourceOpener yields the repository-access collaborator for a warehouse.
type SourceOpener func(w *store.Warehouse) (repo.Source, error)

// ArtifactSink optionally mirrors generated documents to object storage.
type ArtifactSink interface {
	Put(ctx context.Context, warehouseID, path string, content []byte) error
}

// Config enumerates every orchestrator option; nothing is read from the
// environment at call time.
type Config struct {
	RetryMax     int           // attempts per completion call
	RetryBase    time.Duration // backoff start
	Language     string        // response language directive, empty = model default
	PreviewLimit int           // bytes of file content included per node prompt
}

// Deps are the collaborators the orchestrator composes. Client is wrapped
// with retry middleware at construction; Emitter and Artifacts may be nil.
type Deps struct {
	Store     *store.Store
	Open      SourceOpener
	Client    llm.Client
	Markers   classify.MarkerSet
	Emitter   events.Publisher
	Artifacts ArtifactSink
}

// Orchestrator drives a warehouse through ingest → catalog → classify →
// generate → persist. It is the sole writer to the store during a run.
type Orchestrator struct {
	store     *store.Store
	open      SourceOpener
	step      *generate.Step
	markers   classify.MarkerSet
	emitter   events.Publisher
	artifacts ArtifactSink
	cfg       Config

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(deps Deps, cfg Config) *Orchestrator {
	if cfg.RetryMax < 1 {
		cfg.RetryMax = 3
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	if cfg.PreviewLimit <= 0 {
		cfg.PreviewLimit = 32 * 1024
	}
	metrics.init()

	var transforms []generate.Transform
	if cfg.Language != "" {
		transforms = append(transforms, generate.LanguageDirective(cfg.Language))
	}
	return &Orchestrator{
		store: deps.Store,
		open:  deps.Open,
		step: &generate.Step{
			Client:     llm.Wrap(deps.Client, llm.Retry(cfg.RetryMax, cfg.RetryBase)),
			Transforms: transforms,
		},
		markers:   deps.Markers,
		emitter:   deps.Emitter,
		artifacts: deps.Artifacts,
		cfg:       cfg,
		locks:     make(map[string]*sync.Mutex),
	}
}

// lockFor returns the per-warehouse mutex. Two runs for the same warehouse
// never interleave; a reset arriving mid-run queues behind it.
func (o *Orchestrator) lockFor(warehouseID string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	if l, ok := o.locks[warehouseID]; ok {
		return l
	}
	l := &sync.Mutex{}
	o.locks[warehouseID] = l
	return l
}

func (o *Orchestrator) emit(ev events.Event) {
	if o.emitter != nil {
		o.emitter.Publish(ev)
	}
}

// ProcessWarehouse runs the full pipeline for one warehouse. It is
// idempotent: at an unchanged commit every target is already current and no
// completion calls are made.
func (o *Orchestrator) ProcessWarehouse(ctx context.Context, warehouseID string) (*Result, error) {
	l := o.lockFor(warehouseID)
	l.Lock()
	defer l.Unlock()

	w, err := o.store.GetWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, err
	}

	res := &Result{WarehouseID: warehouseID}

	src, err := o.open(w)
	if err != nil {
		return o.failBeforeRun(ctx, w, res, ReasonIngestFailed, err)
	}
	head, err := src.Head(ctx)
	if err != nil {
		return o.failBeforeRun(ctx, w, res, ReasonIngestFailed, err)
	}
	res.CommitID = head

	run := &store.Run{WarehouseID: w.ID, CommitID: head, State: string(StateAnalyzing)}
	if err := o.store.StartRun(ctx, run); err != nil {
		return nil, fmt.Errorf("%s: %w", ReasonPersistence, err)
	}
	res.RunID = run.ID
	o.emit(events.Event{WarehouseID: w.ID, RunID: run.ID, State: string(StateAnalyzing)})

	// queued → analyzing: build and classify.
	listing, err := src.List(ctx)
	if err != nil {
		return o.failRun(ctx, run, res, ReasonIngestFailed, err)
	}
	tree, err := catalog.Build(listing)
	if err != nil {
		return o.failRun(ctx, run, res, ReasonIngestFailed, err)
	}
	structure, err := tree.Serialize()
	if err != nil {
		return o.failRun(ctx, run, res, ReasonIngestFailed, err)
	}

	taxonomy := classify.Taxonomy(w.Taxonomy)
	if taxonomy == "" {
		taxonomy = classify.Project(tree.FilePaths(),
			classify.RepoMetadata{Name: w.Name, Description: w.Description}, o.markers)
		if err := o.store.SetTaxonomy(ctx, w.ID, string(taxonomy)); err != nil {
			return o.failRun(ctx, run, res, ReasonPersistence, err)
		}
	}
	res.Taxonomy = string(taxonomy)

	projectInfo := fmt.Sprintf("name: %s\ndescription: %s\ntype: %s", w.Name, w.Description, taxonomy)

	if err := o.analyzeCatalog(ctx, w, head, taxonomy, structure, projectInfo); err != nil {
		reason := classifyReason(err)
		return o.failRun(ctx, run, res, reason, err)
	}

	// analyzing → generating: per-node documents.
	if err := o.store.UpdateRunState(ctx, run.ID, string(StateGenerating)); err != nil {
		return o.failRun(ctx, run, res, ReasonPersistence, err)
	}
	o.emit(events.Event{WarehouseID: w.ID, RunID: run.ID, State: string(StateGenerating)})

	documented := map[string]bool{}
	var nodes []*catalog.Node
	tree.Walk(func(n *catalog.Node) { nodes = append(nodes, n) })

	for _, n := range nodes {
		// Cooperative checkpoint between node iterations.
		if err := ctx.Err(); err != nil {
			return o.failRun(ctx, run, res, ReasonGenerationFailed, err)
		}

		target := docTarget(n.Path)
		need, err := o.store.NeedsRegeneration(ctx, w.ID, target, head)
		if err != nil {
			return o.failRun(ctx, run, res, ReasonPersistence, err)
		}
		if !need {
			res.Skipped++
			documented[n.Path] = true
			metrics.nodesSkipped.Inc()
			continue
		}

		content, err := o.generateNode(ctx, src, n, taxonomy, structure, projectInfo)
		if err != nil {
			// Node-level failure: record and move on.
			failure := NodeFailure{Path: n.Path, Reason: classifyReason(err), Detail: err.Error()}
			res.Failures = append(res.Failures, failure)
			metrics.nodesFailed.Inc()
			log.Printf("warehouse %s node %s: %v", w.ID, n.Path, err)
			o.emit(events.Event{WarehouseID: w.ID, RunID: run.ID, State: string(StateGenerating),
				Path: n.Path, Message: failure.Reason})
			continue
		}

		doc := &store.Document{WarehouseID: w.ID, Path: n.Path, Title: n.Name, Content: content}
		rec := &store.CommitRecord{WarehouseID: w.ID, Target: target, CommitID: head, Title: n.Name}
		if err := o.store.SaveDocumentWithCommit(ctx, doc, rec); err != nil {
			return o.failRun(ctx, run, res, ReasonPersistence, err)
		}
		documented[n.Path] = true
		res.Generated++
		metrics.nodesDone.Inc()
		o.exportArtifact(ctx, w.ID, n.Path, content)
		o.emit(events.Event{WarehouseID: w.ID, RunID: run.ID, State: string(StateGenerating), Path: n.Path})
	}

	// Overview failure aborts the run.
	if err := o.generateOverview(ctx, w, head, taxonomy, structure, projectInfo); err != nil {
		return o.failRun(ctx, run, res, classifyReason(err), err)
	}

	if err := o.saveMiniMap(ctx, w, head, tree, documented); err != nil {
		return o.failRun(ctx, run, res, ReasonPersistence, err)
	}

	// generating → completed.
	failuresJSON, _ := json.Marshal(res.Failures)
	if err := o.store.FinishRun(ctx, run.ID, string(StateCompleted), "", string(failuresJSON)); err != nil {
		return nil, fmt.Errorf("%s: %w", ReasonPersistence, err)
	}
	res.State = StateCompleted
	metrics.runs.WithLabelValues(string(StateCompleted)).Inc()
	o.emit(events.Event{WarehouseID: w.ID, RunID: run.ID, State: string(StateCompleted)})
	log.Printf("warehouse %s completed at %s: %d generated, %d skipped, %d failed",
		w.ID, head, res.Generated, res.Skipped, len(res.Failures))
	return res, nil
}

// ResetWarehouse clears in-flight status and supersedes every current
// commit record so the next run reprocesses from scratch. Prior documents
// and commit history are preserved. Callable in any state; it waits for an
// in-flight run to finish.
func (o *Orchestrator) ResetWarehouse(ctx context.Context, warehouseID string) error {
	l := o.lockFor(warehouseID)
	l.Lock()
	defer l.Unlock()

	if _, err := o.store.GetWarehouse(ctx, warehouseID); err != nil {
		return err
	}
	if err := o.store.ClearRuns(ctx, warehouseID); err != nil {
		return err
	}
	if err := o.store.SupersedeAllCurrent(ctx, warehouseID); err != nil {
		return err
	}
	if err := o.store.SetActive(ctx, warehouseID, true); err != nil {
		return err
	}
	o.emit(events.Event{WarehouseID: warehouseID, State: string(StateQueued), Message: "reset"})
	return nil
}

// Status derives the task state from stored rows: an in-flight run reports
// its own stage, a finished run reports failure, otherwise the presence of
// artifacts decides.
func (o *Orchestrator) Status(ctx context.Context, warehouseID string) (State, error) {
	if _, err := o.store.GetWarehouse(ctx, warehouseID); err != nil {
		return "", err
	}
	run, err := o.store.LatestRun(ctx, warehouseID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// fall through to artifact-derived state
	case err != nil:
		return "", err
	case run.FinishedAt.IsZero():
		return State(run.State), nil
	case run.State == string(StateFailed):
		return StateFailed, nil
	}

	if rec, err := o.store.CurrentCommit(ctx, warehouseID, targetOverview); err == nil && rec.Current {
		return StateCompleted, nil
	} else if err != nil && !errors.Is(err, store.ErrNotFound) {
		return "", err
	}
	if rec, err := o.store.CurrentCommit(ctx, warehouseID, targetCatalog); err == nil && rec.Current {
		return StateGenerating, nil
	} else if err != nil && !errors.Is(err, store.ErrNotFound) {
		return "", err
	}
	return StateQueued, nil
}

func (o *Orchestrator) analyzeCatalog(ctx context.Context, w *store.Warehouse, head string,
	taxonomy classify.Taxonomy, structure []byte, projectInfo string) error {

	need, err := o.store.NeedsRegeneration(ctx, w.ID, targetCatalog, head)
	if err != nil {
		return fmt.Errorf("%s: %w", ReasonPersistence, err)
	}
	if !need {
		return nil
	}
	tmpl := prompt.Select(taxonomy, prompt.StageCatalogAnalysis)
	analysis, err := o.step.Generate(ctx, tmpl, generate.Context{
		"structure":    string(structure),
		"project_info": projectInfo,
	})
	if err != nil {
		return err
	}
	rec := &store.CommitRecord{WarehouseID: w.ID, Target: targetCatalog, CommitID: head, Title: "catalog"}
	if err := o.store.SaveCatalogWithCommit(ctx, w.ID, head, structure, analysis, rec); err != nil {
		return fmt.Errorf("%s: %w", ReasonPersistence, err)
	}
	return nil
}

func (o *Orchestrator) generateNode(ctx context.Context, src repo.Source, n *catalog.Node,
	taxonomy classify.Taxonomy, structure []byte, projectInfo string) (string, error) {

	code, err := src.Read(ctx, n.Path, o.cfg.PreviewLimit)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", generate.ErrGenerationFailed, n.Path, err)
	}
	tmpl := prompt.Select(taxonomy, prompt.StageDocumentGeneration)
	return o.step.Generate(ctx, tmpl, generate.Context{
		"path":         n.Path,
		"code":         code,
		"structure":    string(structure),
		"project_info": projectInfo,
	})
}

func (o *Orchestrator) generateOverview(ctx context.Context, w *store.Warehouse, head string,
	taxonomy classify.Taxonomy, structure []byte, projectInfo string) error {

	need, err := o.store.NeedsRegeneration(ctx, w.ID, targetOverview, head)
	if err != nil {
		return fmt.Errorf("%s: %w", ReasonPersistence, err)
	}
	if !need {
		return nil
	}
	tmpl := prompt.Select(taxonomy, prompt.StageProjectOverview)
	overview, err := o.step.Generate(ctx, tmpl, generate.Context{
		"structure":    string(structure),
		"project_info": projectInfo,
	})
	if err != nil {
		return err
	}
	rec := &store.CommitRecord{WarehouseID: w.ID, Target: targetOverview, CommitID: head, Title: "overview"}
	if err := o.store.SaveOverviewWithCommit(ctx, w.ID, overview, rec); err != nil {
		return fmt.Errorf("%s: %w", ReasonPersistence, err)
	}
	o.exportArtifact(ctx, w.ID, "overview.md", overview)
	return nil
}

func (o *Orchestrator) saveMiniMap(ctx context.Context, w *store.Warehouse, head string,
	tree *catalog.Tree, documented map[string]bool) error {

	need, err := o.store.NeedsRegeneration(ctx, w.ID, targetMiniMap, head)
	if err != nil {
		return err
	}
	if !need {
		return nil
	}
	graph, err := buildMiniMap(tree, documented)
	if err != nil {
		return err
	}
	rec := &store.CommitRecord{WarehouseID: w.ID, Target: targetMiniMap, CommitID: head, Title: "minimap"}
	return o.store.SaveMiniMapWithCommit(ctx, w.ID, graph, rec)
}

func (o *Orchestrator) exportArtifact(ctx context.Context, warehouseID, path string, content string) {
	if o.artifacts == nil {
		return
	}
	if err := o.artifacts.Put(ctx, warehouseID, path, []byte(content)); err != nil {
		// Export is best-effort; the store is the source of truth.
		log.Printf("warehouse %s artifact export %s failed: %v", warehouseID, path, err)
	}
}

// failBeforeRun handles failures before a run row exists.
func (o *Orchestrator) failBeforeRun(ctx context.Context, w *store.Warehouse, res *Result, reason string, cause error) (*Result, error) {
	run := &store.Run{WarehouseID: w.ID, State: string(StateFailed)}
	if err := o.store.StartRun(ctx, run); err == nil {
		_ = o.store.FinishRun(ctx, run.ID, string(StateFailed), reason+": "+cause.Error(), "[]")
		res.RunID = run.ID
	}
	res.State = StateFailed
	res.Error = reason + ": " + cause.Error()
	metrics.runs.WithLabelValues(string(StateFailed)).Inc()
	o.emit(events.Event{WarehouseID: w.ID, RunID: res.RunID, State: string(StateFailed), Message: reason})
	return res, fmt.Errorf("%s: %w", reason, cause)
}

func (o *Orchestrator) failRun(ctx context.Context, run *store.Run, res *Result, reason string, cause error) (*Result, error) {
	failuresJSON, _ := json.Marshal(res.Failures)
	_ = o.store.FinishRun(ctx, run.ID, string(StateFailed), reason+": "+cause.Error(), string(failuresJSON))
	res.State = StateFailed
	res.Error = reason + ": " + cause.Error()
	metrics.runs.WithLabelValues(string(StateFailed)).Inc()
	o.emit(events.Event{WarehouseID: run.WarehouseID, RunID: run.ID, State: string(StateFailed), Message: reason})
	log.Printf("warehouse %s run %s failed: %s: %v", run.WarehouseID, run.ID, reason, cause)
	return res, fmt.Errorf("%s: %w", reason, cause)
}

func classifyReason(err error) string {
	switch {
	case errors.Is(err, generate.ErrTemplateRender):
		return ReasonTemplateRender
	case errors.Is(err, generate.ErrGenerationFailed):
		return ReasonGenerationFailed
	default:
		return ReasonPersistence
	}
}
