package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/go-logr/zapr"
	"github.com/runningman84/zfskit/pkg/config"
	"github.com/runningman84/zfskit/pkg/logging"
	"github.com/runningman84/zfskit/pkg/zfs"
	"github.com/runningman84/zfskit/pkg/zpool"
	"go.uber.org/zap"
	"k8s.io/klog/v2"
)

// Version can be set at build time using -ldflags
// Example: go build -ldflags="-X main.Version=1.0.0"
var Version = "dev"

var errUsage = errors.New("usage")

const usage = `Usage: zfskit [flags] <command> [args]

Commands:
  status [pool]       show the device tree of one or every imported pool
  importable [dir]    show pools that can be imported, optionally searching dir
  props <pool>        show the properties of a pool
  list <dataset>      list a dataset and everything below it
  get <dataset>       show the properties of a dataset

Flags:
`

func main() {
	// Initialize klog first
	klog.InitFlags(nil)

	configFile := flag.String("config", "", "Path to a YAML config file")
	envFile := flag.String("env-file", "", "Path to an env file loaded before reading the environment")
	mode := flag.String("mode", "", "Operation mode: direct or chroot (default direct)")
	logLevel := flag.String("log-level", "", "Log level: info or debug (default info)")
	logFormat := flag.String("log-format", "", "Log format: text or json (default text)")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("zfskit version %s\n", Version)
		return
	}

	cfg, err := config.Load(*configFile, *envFile)
	if err != nil {
		klog.Fatalf("Invalid configuration: %v", err)
	}
	// Flags win over every other source
	if *mode != "" {
		cfg.Mode = *mode
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *logFormat != "" {
		cfg.LogFormat = *logFormat
	}
	if err := cfg.Validate(); err != nil {
		klog.Fatalf("Invalid configuration: %v", err)
	}

	logging.Version = Version
	if cfg.LogFormat == "json" {
		// Configure zap for JSON logging
		var zapLog *zap.Logger
		if cfg.IsDebug() {
			zapLog, err = zap.NewDevelopment()
		} else {
			zapLog, err = zap.NewProduction()
		}
		if err != nil {
			klog.Fatalf("Failed to initialize JSON logger: %v", err)
		}
		defer zapLog.Sync()

		logger := zapr.NewLogger(zapLog)
		klog.SetLogger(logger)
		if _, err := logging.Setup(logger.WithValues("zfskit_version", Version)); err != nil {
			klog.Fatalf("Failed to install logger: %v", err)
		}
	}

	// Set klog verbosity based on log level
	if cfg.IsDebug() {
		flag.Set("v", "1")
	}

	klog.V(1).Infof("Starting zfskit version %s in %s mode", Version, cfg.Mode)

	pools := zpool.NewOpen3WithCmd(cfg.ZPoolCommand(), nil)
	datasets := zfs.NewOpen3WithCmd(cfg.ZFSCommand(), nil)
	err = run(os.Stdout, pools, datasets, flag.Args())
	if errors.Is(err, errUsage) {
		flag.Usage()
		klog.Flush()
		os.Exit(2)
	}
	if err != nil {
		klog.Errorf("Command failed: %v", err)
		klog.Flush()
		os.Exit(1)
	}

	klog.Flush()
}

// run executes one read-only command and writes its tables to w
func run(w io.Writer, pools zpool.Engine, datasets zfs.Engine, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	command, args := args[0], args[1:]

	switch {
	case command == "status" && len(args) <= 1:
		opts := zpool.StatusOptions{FullPaths: true}
		if len(args) == 1 {
			p, err := pools.Status(args[0], opts)
			if err != nil {
				return err
			}
			writePool(w, p)
			return nil
		}
		all, err := pools.StatusAll(opts)
		if err != nil {
			return err
		}
		if len(all) == 0 {
			fmt.Fprintln(w, "no pools available")
		}
		for _, p := range all {
			writePool(w, p)
		}
		return nil

	case command == "importable" && len(args) <= 1:
		var found []zpool.Pool
		var err error
		if len(args) == 1 {
			found, err = pools.AvailableInDir(args[0])
		} else {
			found, err = pools.Available()
		}
		if err != nil {
			return err
		}
		if len(found) == 0 {
			fmt.Fprintln(w, "no pools available to import")
		}
		for _, p := range found {
			writePool(w, p)
		}
		return nil

	case command == "props" && len(args) == 1:
		props, err := pools.ReadProperties(args[0])
		if err != nil {
			return err
		}
		writePoolProperties(w, args[0], props)
		return nil

	case command == "list" && len(args) == 1:
		list, err := datasets.List(args[0])
		if err != nil {
			return err
		}
		writeDatasets(w, list)
		return nil

	case command == "get" && len(args) == 1:
		props, err := datasets.ReadProperties(args[0])
		if err != nil {
			return err
		}
		writeDatasetProperties(w, props)
		return nil
	}

	return errUsage
}
