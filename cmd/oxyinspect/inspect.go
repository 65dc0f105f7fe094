package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/camera"
	"github.com/Carmen-Shannon/oxy-scene/engine/config"
	"github.com/Carmen-Shannon/oxy-scene/engine/gfx/recorder"
	"github.com/Carmen-Shannon/oxy-scene/engine/loader"
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/Carmen-Shannon/oxy-scene/engine/profiler"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/aquasecurity/table"
)

type options struct {
	configPath string
	frames     int
	workers    int
	subScene   string
	camera     string
	paths      []string
}

// sections lists the entity counts printed per scene, in document order.
var sections = []string{
	"buffers", "bufferViews", "accessors", "images", "samplers", "textures", "shaders", "programs",
	"techniques", "materials", "geometries", "meshes", "animations", "timelines", "skins", "cameras",
	"nodes", "subtrees", "scenes",
}

func run(opts options, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	level, _ := cfg.LogLevel()
	common.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))
	defer common.SetLogger(nil)

	rec := recorder.NewRecorder(recorder.WithCaps(cfg.Caps()))
	ldr := loader.NewLoader(rec, loader.BackendTypeGLTF,
		loader.WithConversion(cfg.Conversion()),
		loader.WithSceneOptions(scene.WithCulling(cfg.Run.Culling)),
	)

	if err := loadAll(ldr, opts.paths, cfg.Run.Workers); err != nil {
		return err
	}
	defer func() {
		for _, path := range opts.paths {
			ldr.Unload(path)
		}
	}()

	for _, path := range opts.paths {
		s := ldr.Get(path)
		totals, err := simulate(s, rec, cfg, opts)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		report(stdout, s, totals)
	}
	return nil
}

func loadConfig(opts options) (config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return cfg, err
		}
	}
	if opts.frames >= 0 {
		cfg.Run.Frames = opts.frames
	}
	if opts.workers > 0 {
		cfg.Run.Workers = opts.workers
	}
	return cfg, cfg.Validate()
}

// loadAll loads every path on a worker pool and joins the failures.
func loadAll(ldr loader.Loader, paths []string, workers int) error {
	pool := worker.NewDynamicWorkerPool(workers, len(paths), time.Second)
	defer pool.Stop()

	var wg sync.WaitGroup
	errs := make([]error, len(paths))
	for i, path := range paths {
		wg.Add(1)
		pool.SubmitTask(worker.Task{
			ID:      i,
			Payload: path,
			Do: func() (any, error) {
				defer wg.Done()
				_, err := ldr.Load(path)
				errs[i] = err
				return nil, err
			},
		})
	}
	wg.Wait()
	return errors.Join(errs...)
}

// simulate selects the sub-scene and view, then runs the configured number of frames
// against the recorder.
func simulate(s scene.Scene, rec recorder.Recorder, cfg config.Config, opts options) (profiler.Totals, error) {
	if opts.subScene != "" {
		sub, ok := s.FindSubScene(opts.subScene)
		if !ok {
			return profiler.Totals{}, fmt.Errorf("%w: %q", scene.ErrNoSubScene, opts.subScene)
		}
		if err := s.SetActiveSubScene(sub); err != nil {
			return profiler.Totals{}, err
		}
	}

	s.SetViewport(cfg.Viewport.X, cfg.Viewport.Y, cfg.Viewport.Width, cfg.Viewport.Height)
	if err := s.Update(); err != nil {
		return profiler.Totals{}, err
	}
	cam, ok := cameraNode(s, opts.camera)
	switch {
	case ok:
		if err := s.SetViewFromCamera(cam, cfg.Aspect()); err != nil {
			return profiler.Totals{}, err
		}
	case opts.camera != "":
		return profiler.Totals{}, fmt.Errorf("%w: %q", scene.ErrNoNode, opts.camera)
	default:
		if err := s.SetViews(orbitView(s, cfg)); err != nil {
			return profiler.Totals{}, err
		}
	}

	prof := profiler.NewProfiler(profiler.WithLabel(s.Name()))
	delta := cfg.FrameDelta()
	for range cfg.Run.Frames {
		rec.Reset()
		start := time.Now()
		stats, err := s.Frame(delta, rec)
		if err != nil {
			return prof.Totals(), err
		}
		prof.Tick(stats, time.Since(start))
	}
	return prof.Totals(), nil
}

// cameraNode returns the named node, or the first node carrying a camera when name is empty.
func cameraNode(s scene.Scene, name string) (int, bool) {
	if name != "" {
		return s.FindNode(name)
	}
	nodes := s.Data().Nodes
	i := slices.IndexFunc(nodes, func(n model.Node) bool { return n.Camera != model.None })
	return i, i >= 0
}

// orbitView frames the active sub-scene with a host orbit camera, for documents without a
// camera node.
func orbitView(s scene.Scene, cfg config.Config) scene.View {
	cam := camera.NewCamera(
		camera.WithAspect(cfg.Aspect()),
		camera.WithController(camera.NewCameraController()),
	)
	cam.Frame(camera.SceneBounds(s))
	return cam.View()
}

func report(w io.Writer, s scene.Scene, totals profiler.Totals) {
	d := s.Data()
	counts := d.Counts()
	fmt.Fprintf(w, "%s\n", s.Name())

	tbl := table.New(w)
	tbl.SetBorders(false)
	tbl.SetHeaders("Statistic", "Value")
	for _, sec := range sections {
		tbl.AddRow(sec, strconv.Itoa(counts[sec]))
	}
	tbl.AddRow("active scene", d.SubScenes[s.ActiveSubScene()].Name)
	tbl.AddRow("frames", strconv.Itoa(totals.Frames))
	tbl.AddRow("draws", strconv.Itoa(totals.Draws))
	tbl.AddRow("culled nodes/models/surfaces/skins", fmt.Sprintf("%d/%d/%d/%d",
		totals.CulledNodes, totals.CulledModels, totals.CulledSurfaces, totals.CulledSkins))
	if totals.Frames > 0 {
		tbl.AddRow("mean frame", (totals.Busy / time.Duration(totals.Frames)).String())
	}
	tbl.Render()
	fmt.Fprintln(w)
}
