// Command oxyinspect loads scene documents against a recording backend, simulates a number
// of frames and prints entity and draw counts.
package main

import (
	"flag"
	"fmt"
	"os"
)

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "TOML configuration file")
	flag.IntVar(&opts.frames, "frames", -1, "frames to simulate (overrides the configuration)")
	flag.IntVar(&opts.workers, "workers", 0, "scenes loaded concurrently (overrides the configuration)")
	flag.StringVar(&opts.subScene, "scene", "", "sub-scene to activate instead of the document default")
	flag.StringVar(&opts.camera, "camera", "", "camera node to view from; defaults to the first camera node")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: oxyinspect [flags] scene.gltf [scene.glb ...]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	opts.paths = flag.Args()
	if len(opts.paths) == 0 {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(opts, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "oxyinspect:", err)
		os.Exit(1)
	}
}
