// Command filewatch listens for filesystem changes on the given paths and
// logs each decoded event.
//
// Usage
//
//	usage: filewatch [-q len] [-flags list] [-c file] [-metrics addr] [-debug] [path]...
//
// The -flags flag sets the default symbolic flag names applied to every
// watched path, as a comma-separated list (default "all"). The -c flag
// reads additional watch entries and defaults from a YAML config file:
//
//	flags: [create, delete]
//	watch:
//	  - path: /tmp/d
//	  - path: /var/log
//	    flags: [modify]
//
// The -metrics flag serves the watcher's Prometheus metrics on the given
// address under /metrics. With no paths and no config file, filewatch
// watches the current working directory.
package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/go-filewatch/filewatch"
)

type watchEntry struct {
	Path  string   `yaml:"path"`
	Flags []string `yaml:"flags"`
}

type config struct {
	Flags []string     `yaml:"flags"`
	Watch []watchEntry `yaml:"watch"`
}

var (
	queueLen    = flag.Int("q", 64, "delivery queue length")
	flagList    = flag.String("flags", "all", "comma-separated default flag names")
	configFile  = flag.String("c", "", "YAML config file with watch entries")
	metricsAddr = flag.String("metrics", "", "address to serve Prometheus metrics on")
	debug       = flag.Bool("debug", false, "enable debug logging")
)

func main() {
	flag.Parse()
	if *debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	var cfg config
	if *configFile != "" {
		p, err := os.ReadFile(*configFile)
		if err != nil {
			logrus.WithError(err).Fatal("reading config file")
		}
		if err := yaml.Unmarshal(p, &cfg); err != nil {
			logrus.WithError(err).Fatal("parsing config file")
		}
	}

	defaults := cfg.Flags
	if len(defaults) == 0 {
		defaults = strings.Split(*flagList, ",")
	}
	w, err := filewatch.New(*queueLen, defaults...)
	if err != nil {
		logrus.WithError(err).Fatal("creating watcher")
	}
	defer w.Close()

	entries := cfg.Watch
	for _, p := range flag.Args() {
		entries = append(entries, watchEntry{Path: p})
	}
	if len(entries) == 0 {
		wd, err := os.Getwd()
		if err != nil {
			logrus.WithError(err).Fatal("getting working directory")
		}
		entries = []watchEntry{{Path: wd}}
	}
	for _, e := range entries {
		if err := w.Add(e.Path, e.Flags...); err != nil {
			logrus.WithError(err).WithField("path", e.Path).Fatal("adding watch")
		}
		logrus.WithField("path", e.Path).Info("watching")
	}
	if err := w.Listen(); err != nil {
		logrus.WithError(err).Fatal("starting listener")
	}

	if *metricsAddr != "" {
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
				logrus.WithError(err).Error("metrics server stopped")
			}
		}()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	events, errs := w.Events, w.Errors
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			logrus.WithFields(logrus.Fields{
				"path":   ev.Path(),
				"kinds":  strings.Join(ev.Kinds, "|"),
				"cookie": ev.Cookie,
			}).Info("event")
		case err, ok := <-errs:
			if !ok {
				errs = nil // stream closed without a failure
				continue
			}
			logrus.WithError(err).Fatal("watcher failed")
		case <-sig:
			logrus.Info("shutting down")
			w.Close()
			for ev := range events {
				logrus.WithField("path", ev.Path()).Debug("drained event")
			}
			return
		}
	}
}
