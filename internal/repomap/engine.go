// Package repomap assembles the layered repository map: discovery, parallel
// parsing, graph construction, importance ranking, and persistence.
package repomap

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"codemap/internal/discover"
	"codemap/internal/graph"
	"codemap/internal/lang"
	"codemap/internal/model"
	"codemap/internal/parse"
)

const maxKeySymbols = 50

// Engine is the explicit analysis context: one work directory, one plugin
// registry, one logger. Callers construct their own engines, so concurrent
// analyses of different repositories never collide through shared state.
type Engine struct {
	workDir  string
	registry *lang.Registry
	log      *slog.Logger
}

// New creates an engine. workDir may be empty when persistence is not
// wanted; a nil registry gets the built-in plugins and a nil logger is
// discarded output.
func New(workDir string, registry *lang.Registry, logger *slog.Logger) *Engine {
	if registry == nil {
		registry = lang.NewRegistry()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		workDir:  workDir,
		registry: registry,
		log:      logger.With("component", "repomap"),
	}
}

// Registry returns the engine's plugin registry.
func (e *Engine) Registry() *lang.Registry { return e.registry }

// AnalyzeOptions controls a single analysis pass.
type AnalyzeOptions struct {
	// Name of the map; defaults to the base name of the root directory.
	Name string
	// Include/Ignore are doublestar patterns over repo-relative paths.
	Include []string
	Ignore  []string
	// Languages restricts parsing to the named plugins when non-empty.
	Languages []string
	// MaxFileSize skips larger files; 0 means the 1 MB default.
	MaxFileSize int64
	// Mentions weight the importance scores of files whose symbols
	// mention a query term.
	Mentions []string
	// Persist writes the finished map to {workDir}/{name}.json.
	Persist bool
}

const defaultMaxFileSize = 1_000_000 // 1 MB

// Analyze builds a fresh repository map for root. Nothing is reused from
// earlier passes; every layer is derived from the same parsed records, so
// any file key present in one layer resolves in the others.
func (e *Engine) Analyze(root string, opts AnalyzeOptions) (*model.RepoMap, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: not a directory", root)
	}

	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = defaultMaxFileSize
	}

	files, err := discover.Files(root, e.registry, discover.Options{
		Include:     opts.Include,
		Ignore:      opts.Ignore,
		Languages:   opts.Languages,
		MaxFileSize: maxSize,
	})
	if err != nil {
		return nil, fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no parseable files found under %s", root)
	}

	records := e.parseConcurrent(root, files)

	deps := graph.Build(records)
	calls := graph.BuildCallGraph(records)
	scores := graph.Rank(records, deps)
	graph.ApplyMentionWeights(scores, records, opts.Mentions)

	name := opts.Name
	if name == "" {
		name = filepath.Base(root)
	}

	rm := &model.RepoMap{
		Name:       name,
		Root:       model.NormalizePath(root),
		Importance: scores,
		UpdatedAt:  time.Now(),
	}
	rm.Impl.Files = make(map[string]*model.FileRecord, len(records))
	rm.Skeleton.Skeletons = make(map[string]string, len(records))
	rm.Skeleton.Signatures = make(map[string]string)

	for _, rec := range records {
		rm.Impl.Files[rec.Path] = rec
		rm.Logic.Tree = append(rm.Logic.Tree, rec.Path)
		if plugin := e.registry.ForPath(rec.Path); plugin != nil {
			rm.Skeleton.Skeletons[rec.Path] = plugin.RenderSkeleton(rec)
		}
		for i := range rec.Symbols {
			sym := &rec.Symbols[i]
			if sym.Signature != "" {
				rm.Skeleton.Signatures[sym.FullName()] = sym.Signature
			}
		}
	}
	sort.Strings(rm.Logic.Tree)
	rm.Logic.Dependencies = deps
	rm.Logic.CallEdges = calls
	rm.Logic.KeySymbols = keySymbols(records, scores)

	if opts.Persist && e.workDir != "" {
		if _, err := e.Save(rm); err != nil {
			return nil, fmt.Errorf("persisting map: %w", err)
		}
	}

	return rm, nil
}

// parseConcurrent maps paths to file records in parallel. Workers own their
// parser sessions; a failed file degrades to an empty record and never
// aborts the batch.
func (e *Engine) parseConcurrent(root string, files []discover.FileEntry) []*model.FileRecord {
	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	records := make([]*model.FileRecord, len(files))

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// Each goroutine gets its own parser per language.
			sessions := make(map[string]*parse.Session)

			for idx := range work {
				f := files[idx]
				records[idx] = e.parseOne(root, f, sessions)
			}
		}()
	}

	for i := range files {
		work <- i
	}
	close(work)
	wg.Wait()

	return records
}

func (e *Engine) parseOne(root string, f discover.FileEntry, sessions map[string]*parse.Session) *model.FileRecord {
	degraded := func(modTime time.Time) *model.FileRecord {
		rec := model.NewFileRecord(f.Path, f.Language)
		rec.ModTime = modTime
		return rec
	}

	absPath := filepath.Join(root, filepath.FromSlash(f.Path))
	var modTime time.Time
	if fi, err := os.Stat(absPath); err == nil {
		modTime = fi.ModTime()
	}

	source, err := os.ReadFile(absPath)
	if err != nil {
		e.log.Warn("reading file failed, record degraded", "path", f.Path, "err", err)
		return degraded(modTime)
	}

	plugin := e.registry.ForPath(f.Path)
	switch p := plugin.(type) {
	case *lang.Language:
		session, ok := sessions[p.Name()]
		if !ok {
			session, err = parse.NewSession(p)
			if err != nil {
				e.log.Warn("parser setup failed, record degraded", "language", p.Name(), "err", err)
				return degraded(modTime)
			}
			sessions[p.Name()] = session
		}
		rec, err := session.ParseFile(source, f.Path, modTime)
		if err != nil {
			e.log.Warn("parse failed, record degraded", "path", f.Path, "err", err)
			return degraded(modTime)
		}
		return rec
	case lang.RegexPlugin:
		return p.ParseFile(source, f.Path, modTime)
	default:
		return degraded(modTime)
	}
}

// keySymbols picks the overview symbols: class/function/method/module
// definitions from the most important files first.
func keySymbols(records []*model.FileRecord, scores map[string]float64) []model.Symbol {
	ordered := make([]*model.FileRecord, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		si, sj := scores[ordered[i].Path], scores[ordered[j].Path]
		if si != sj {
			return si > sj
		}
		return ordered[i].Path < ordered[j].Path
	})

	var out []model.Symbol
	for _, rec := range ordered {
		for i := range rec.Symbols {
			sym := rec.Symbols[i]
			switch sym.Kind {
			case model.Class, model.Function, model.Method, model.Module:
				sym.Content = "" // overview carries structure, not bodies
				sym.Doc = ""
				out = append(out, sym)
				if len(out) >= maxKeySymbols {
					return out
				}
			}
		}
	}
	return out
}
