package main

import (
	"flag"

	"github.com/aunum/log"
	_ "github.com/reinlife/reinlife/agent/nonlinear/discrete/perd3qn"
	"github.com/reinlife/reinlife/experiment"
)

func main() {
	configFile := flag.String("config", "configs/perd3qn.yaml",
		"experiment configuration file")
	flag.Parse()

	c, err := experiment.LoadConfig(*configFile)
	if err != nil {
		log.Fatal(err)
	}

	exp, err := c.CreateExp()
	if err != nil {
		log.Fatal(err)
	}
	if closer, ok := exp.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	log.Infof("loaded experiment from %v", *configFile)
	if err := exp.Run(); err != nil {
		log.Fatal(err)
	}
	if err := exp.Save(); err != nil {
		log.Fatal(err)
	}
	log.Infof("saved tracked data to %v", c.OutputDir)
}
