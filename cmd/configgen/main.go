package main

import (
	"flag"
	"log"

	"github.com/cfdops/su2ctl/internal/config"
)

func main() {
	kind := flag.String("kind", "install", "config kind: install")
	output := flag.String("output", "", "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", "", "config path for validation (defaults to ./su2ctl.toml)")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		if *kind != "install" {
			log.Fatalf("unknown kind: %s", *kind)
		}
		path := *input
		if path == "" {
			path = "su2ctl.toml"
		}
		if _, err := config.Load(path); err != nil {
			log.Fatal(err)
		}
		log.Printf("Validated %s config at %s", *kind, path)
		return
	}

	target := *output
	if target == "" {
		target = "su2ctl.toml"
	}
	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s config template to %s", *kind, target)
}
