// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pipeline implements the per-sample orchestrator: the single
// public entry point that loads every importer's assembly, runs the
// ANI engine, renders dotplots, and serialises the result tree under a
// sample's work directory.
package pipeline

import (
	"errors"
	"fmt"
	"html"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat/combin"

	"github.com/kortschak/curate/ani"
	"github.com/kortschak/curate/ani/cache"
	"github.com/kortschak/curate/dotplot"
	"github.com/kortschak/curate/importer"
	"github.com/kortschak/curate/kerrors"
	"github.com/kortschak/curate/seq"
)

// WorkDirName is the directory created under a sample directory to
// hold every artefact this package produces.
const WorkDirName = "assembly-curator"

// Config tunes the orchestrator; zero values select the documented
// defaults (GC_LOW=25, GC_HIGH=65).
type Config struct {
	GCLowPercent, GCHighPercent float64
	ANI                         ani.Config
	Dotplot                     dotplot.Config
	Logger                      *log.Logger
}

// ConfigFromEnv builds a Config from GC_LOW/GC_HIGH, matching the
// core's documented environment variables; unset or unparsable values
// fall back to the 25/65 default.
func ConfigFromEnv() Config {
	return Config{
		GCLowPercent:  envPercent("GC_LOW", 25),
		GCHighPercent: envPercent("GC_HIGH", 65),
	}
}

func envPercent(name string, def float64) float64 {
	v, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func (c Config) withDefaults() Config {
	if c.GCLowPercent == 0 {
		c.GCLowPercent = 25
	}
	if c.GCHighPercent == 0 {
		c.GCHighPercent = 65
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
	return c
}

// Sketcher is the capability the ANI step needs; *skani.DB implements
// it. It is accepted here rather than constructed internally so tests
// and alternative sketch tools can be substituted.
type Sketcher = ani.Sketcher

// Result summarises one sample's processing outcome for a caller that
// wants it (cmd/curate logs it); every
// artefact is also written to disk under WorkDirName.
type Result struct {
	Sample     string
	Failed     bool
	Messages   []string
	Assemblies []*seq.Assembly
}

// ProcessSample is the orchestrator's one public entry point. It loads
// every importer's assembly from sampleDir, runs the quality gate and
// ANI engine, renders a dotplot grid per cluster, and serialises
// assemblies.json, similarity_matrix.tsv, ani_clustermap.svg and
// dotplots/<cluster>.svg under sampleDir/WorkDirName. forceRerun
// discards and recreates an existing work directory; otherwise an
// existing, non-failed work directory short-circuits the call.
func ProcessSample(sampleID, sampleDir string, importers []importer.Importer, sketcher Sketcher, forceRerun bool, cfg Config) (*Result, error) {
	cfg = cfg.withDefaults()
	workDir := filepath.Join(sampleDir, WorkDirName)
	failedMarker := filepath.Join(workDir, "failed")

	if forceRerun {
		if err := os.RemoveAll(workDir); err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
	} else if _, err := os.Stat(workDir); err == nil {
		if _, err := os.Stat(failedMarker); err != nil {
			cfg.Logger.Printf("sample %s already processed, skipping", sampleID)
			return &Result{Sample: sampleID}, nil
		}
		if err := os.RemoveAll(workDir); err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	assemblies, messages, err := loadAssemblies(sampleID, sampleDir, importers, cfg.Logger)
	if err != nil {
		return writeFailure(sampleID, workDir, messages, err)
	}

	gateMessages := qualityGate(assemblies, cfg.GCLowPercent/100, cfg.GCHighPercent/100)
	messages = append(messages, gateMessages...)

	res, err := runANICached(sampleDir, assemblies, sketcher, cfg.ANI, cfg.Logger)
	var minor *kerrors.MinorError
	switch {
	case errors.As(err, &minor):
		messages = append(messages, minor.Error())
	case err != nil:
		return writeFailure(sampleID, workDir, messages, err)
	default:
		propagateClusters(assemblies, res)
		if err := res.WriteMatrixTSV(filepath.Join(workDir, "similarity_matrix.tsv")); err != nil {
			return writeFailure(sampleID, workDir, messages, err)
		}
		if err := res.WriteClustermapSVG(filepath.Join(workDir, "ani_clustermap.svg"), labelCutoff(cfg.ANI)); err != nil {
			return writeFailure(sampleID, workDir, messages, err)
		}
		if err := renderDotplots(workDir, res, cfg.Dotplot); err != nil {
			return writeFailure(sampleID, workDir, messages, err)
		}
	}

	for _, a := range assemblies {
		a.Sort()
	}
	body, err := seq.MarshalAssemblies(assemblies, false)
	if err != nil {
		return writeFailure(sampleID, workDir, messages, err)
	}
	if err := os.WriteFile(filepath.Join(workDir, "assemblies.json"), body, 0o644); err != nil {
		return writeFailure(sampleID, workDir, messages, err)
	}

	return &Result{Sample: sampleID, Messages: messages, Assemblies: assemblies}, nil
}

func loadAssemblies(sampleID, sampleDir string, importers []importer.Importer, logger *log.Logger) ([]*seq.Assembly, []string, error) {
	var assemblies []*seq.Assembly
	var messages []string
	for _, imp := range importers {
		a, err := imp.LoadAssembly(sampleDir)
		if err != nil {
			var af *kerrors.AssemblyFailedError
			if errors.As(err, &af) {
				logger.Printf("sample %s: %v", sampleID, af)
				messages = append(messages, af.Error())
				continue
			}
			return nil, messages, fmt.Errorf("pipeline: %s: %w", imp.Name(), err)
		}
		assemblies = append(assemblies, a)
	}
	if len(assemblies) == 0 {
		return nil, messages, fmt.Errorf("pipeline: no importer produced an assembly for %s", sampleID)
	}
	return assemblies, messages, nil
}

// qualityGate flags, but does not fail, every contig whose GC content
// falls outside [low, high] (fractions, not percentages), and every
// contig whose QualityFlags reports a coverage or base-composition
// concern, generalising spec §4.6 item 3's GC-content-only gate.
func qualityGate(assemblies []*seq.Assembly, low, high float64) []string {
	var messages []string
	for _, a := range assemblies {
		for _, g := range a.ContigGroups {
			for _, c := range g.Contigs {
				gc := c.GCRel()
				switch {
				case gc < low:
					messages = append(messages, fmt.Sprintf("GC content below %.2f%% (%.2f%%) for %s", low*100, gc*100, c.ID()))
				case gc > high:
					messages = append(messages, fmt.Sprintf("GC content above %.2f%% (%.2f%%) for %s", high*100, gc*100, c.ID()))
				}
				messages = append(messages, c.QualityFlags()...)
			}
		}
	}
	return messages
}

// labelCutoff returns cfg's LabelCutoff, or the engine's documented
// default when unset, since Config.withDefaults is unexported to ani
// and the orchestrator holds onto cfg before ani.Run applies it.
func labelCutoff(cfg ani.Config) float64 {
	if cfg.LabelCutoff == 0 {
		return 0.9
	}
	return cfg.LabelCutoff
}

// cacheFileName lives next to, not inside, WorkDirName so it survives
// a forceRerun or a failed-run retry, both of which remove the work
// directory outright.
const cacheFileName = ".ani-cache.db"

// runANICached checks the sample's content-addressed ANI cache before
// falling back to ani.Run, so a retry after a dotplot-stage failure
// does not re-invoke the external sketcher for contig groups that have
// not changed since the last successful sketch. A cache error is
// logged and treated as a miss rather than failing the sample.
func runANICached(sampleDir string, assemblies []*seq.Assembly, sketcher Sketcher, cfg ani.Config, logger *log.Logger) (*ani.Result, error) {
	groups, ids, err := ani.GroupsAndIDs(assemblies)
	if err != nil {
		return nil, err
	}

	store, serr := cache.Open(filepath.Join(sampleDir, cacheFileName))
	if serr != nil {
		logger.Printf("ani cache unavailable, sketching fresh: %v", serr)
		return ani.Run(assemblies, sketcher, cfg)
	}
	defer store.Close()

	key := cache.Key(groups, ids)
	if sim, ok, gerr := store.Get(key, ids); gerr == nil && ok {
		res, err := ani.FromSimilarity(ids, sim, groups, cfg)
		if err == nil {
			logger.Printf("ani cache hit for %d contig group(s), mean similarity %.4f", len(ids), res.MeanSimilarity())
		}
		return res, err
	}

	res, err := ani.Run(assemblies, sketcher, cfg)
	if err != nil {
		return nil, err
	}
	logger.Printf("ani sketch complete for %d contig group(s), mean similarity %.4f", len(ids), res.MeanSimilarity())
	if perr := store.Put(key, res.IDs, res.Similarity); perr != nil {
		logger.Printf("ani cache write failed: %v", perr)
	}
	return res, nil
}

func propagateClusters(assemblies []*seq.Assembly, res *ani.Result) {
	for _, a := range assemblies {
		for _, g := range a.ContigGroups {
			id := g.ID()
			if cid, ok := res.ClusterOf[id]; ok {
				g.ClusterID = &cid
			}
			if color, ok := res.ColorOf[id]; ok {
				g.SetClusterColor(color)
			}
		}
	}
}

func renderDotplots(workDir string, res *ani.Result, cfg dotplot.Config) error {
	outDir := filepath.Join(workDir, "dotplots")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	for clusterID, groups := range res.Clusters() {
		cgs := clusterGroups(res, groups)
		sort.SliceStable(cgs, func(i, j int) bool { return cgs[i].Len() > cgs[j].Len() })
		out := filepath.Join(outDir, fmt.Sprintf("%d.svg", clusterID))
		skip := tooLargePairs(cgs)
		if err := dotplot.Render(out, cgs, nil, skip, cfg); err != nil {
			return fmt.Errorf("cluster %d: %w", clusterID, err)
		}
	}
	return nil
}

// tooLargePairs identifies every upper-triangle group pair whose
// shorter member exceeds dotplot.MaxPairLength, so renderDotplots can
// hand dotplot.Render an explicit skip set instead of letting the
// alignment backend attempt an oversized pair. Enumerating the upper
// triangle with combin.Combinations (plus the diagonal separately)
// mirrors the pair scheduling ani.Run uses for its own all-pairs pass.
func tooLargePairs(groups []*seq.ContigGroup) map[[2]int]bool {
	n := len(groups)
	skip := make(map[[2]int]bool)
	mark := func(i, j int) {
		ri, rj := groups[i].Len(), groups[j].Len()
		short := ri
		if rj < short {
			short = rj
		}
		if short > dotplot.MaxPairLength {
			skip[[2]int{i, j}] = true
		}
	}
	for i := 0; i < n; i++ {
		mark(i, i)
	}
	if n >= 2 {
		for _, pair := range combin.Combinations(n, 2) {
			mark(pair[0], pair[1])
		}
	}
	return skip
}

func clusterGroups(res *ani.Result, ids []string) []*seq.ContigGroup {
	groups := res.Groups()
	out := make([]*seq.ContigGroup, 0, len(ids))
	for _, id := range ids {
		out = append(out, groups[id])
	}
	return out
}

// writeFailure records the failed marker and a minimal HTML stub
// listing every message collected so far, and returns a Result
// describing the failure rather than propagating err, matching the
// core's behaviour of reporting sample failures through filesystem
// markers rather than a non-zero process exit.
func writeFailure(sampleID, workDir string, messages []string, err error) (*Result, error) {
	if err != nil {
		messages = append(messages, err.Error())
	}
	if werr := os.WriteFile(filepath.Join(workDir, "failed"), []byte(strings.Join(messages, "\n")), 0o644); werr != nil {
		return nil, fmt.Errorf("pipeline: writing failure marker: %w", werr)
	}
	if werr := os.WriteFile(filepath.Join(filepath.Dir(workDir), "assemblies.html"), []byte(failureHTML(sampleID, messages)), 0o644); werr != nil {
		return nil, fmt.Errorf("pipeline: writing failure stub: %w", werr)
	}
	return &Result{Sample: sampleID, Failed: true, Messages: messages}, nil
}

func failureHTML(sampleID string, messages []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<!doctype html>\n<title>%s: processing failed</title>\n<h1>%s</h1>\n<ul>\n", html.EscapeString(sampleID), html.EscapeString(sampleID))
	for _, m := range messages {
		fmt.Fprintf(&b, "<li>%s</li>\n", html.EscapeString(m))
	}
	b.WriteString("</ul>\n")
	return b.String()
}
