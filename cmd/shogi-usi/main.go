// Command shogi-usi is the USI protocol entrypoint: it wires together the
// transposition table, NNUE evaluator and lazy-SMP search engine behind
// internal/usi's stdin/stdout command loop.
//
// Adapted from github.com/hailam/chessplay/cmd/chessplay-uci's main.go:
// the same flag/profile/auto-load-NNUE shape, generalized to shogi's
// dual-network NNUE files and pointed at the optional internal/store
// cache instead of chessplay's user-preferences database.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"runtime/pprof"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"

	"github.com/shogicore/engine/internal/search"
	"github.com/shogicore/engine/internal/store"
	"github.com/shogicore/engine/internal/usi"
)

// Default NNUE file names, mirroring the layout a released engine ships
// its network weights under.
const (
	defaultBigNet   = "shogi-big.nnue"
	defaultSmallNet = "shogi-small.nnue"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	hashMB     = flag.Int("hash", 0, "transposition table size in MB (0: use saved/default config)")
	threads    = flag.Int("threads", 0, "lazy-SMP worker count (0: use saved/default config)")
	noStore    = flag.Bool("no-store", false, "disable the BadgerDB config/weight cache entirely")
	verbosity  = flag.Int("v", 0, "structured log verbosity (stdr V-level)")
)

func main() {
	flag.Parse()

	stdr.SetVerbosity(*verbosity)
	logger := stdr.New(log.New(os.Stderr, "", log.LstdFlags))

	if profilePath := profilePathFromFlagsOrEnv(); profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			logger.Error(err, "could not create CPU profile", "path", profilePath)
		} else {
			defer f.Close()
			if err := pprof.StartCPUProfile(f); err != nil {
				logger.Error(err, "could not start CPU profile")
			} else {
				defer pprof.StopCPUProfile()
				logger.Info("CPU profiling enabled", "path", profilePath)
			}
		}
	}

	var db *store.Store
	if !*noStore {
		var err error
		db, err = store.Open("", logger)
		if err != nil {
			logger.Error(err, "could not open persistent store, continuing without it")
			db = nil
		} else {
			defer db.Close()
		}
	}

	cfg := resolveConfig(db, logger)

	eng := search.NewEngine(cfg.HashSizeMB, cfg.Threads)

	if err := autoLoadNNUE(eng, db, cfg, logger); err != nil {
		logger.Info("NNUE not loaded, search will evaluate with an empty-weight network", "reason", err.Error())
	}

	protocol := usi.New(eng)
	protocol.Run()
}

func profilePathFromFlagsOrEnv() string {
	if *cpuprofile != "" {
		return *cpuprofile
	}
	return os.Getenv("SHOGICORE_CPUPROFILE")
}

// resolveConfig merges, in increasing priority, the built-in defaults,
// the store's saved config, and any explicit command-line flags.
func resolveConfig(db *store.Store, logger logr.Logger) store.EngineConfig {
	cfg := store.DefaultEngineConfig()
	if db != nil {
		if saved, err := db.LoadEngineConfig(); err != nil {
			logger.Error(err, "failed to load saved engine config, using defaults")
		} else {
			cfg = saved
		}
	}
	if *hashMB > 0 {
		cfg.HashSizeMB = *hashMB
	}
	if *threads > 0 {
		cfg.Threads = *threads
	}
	return cfg
}

// autoLoadNNUE tries the configured paths, then a handful of conventional
// install locations, the same search-path fallback as chessplay's
// autoLoadNNUE.
func autoLoadNNUE(eng *search.Engine, db *store.Store, cfg store.EngineConfig, logger logr.Logger) error {
	if cfg.NNUEBigPath != "" && cfg.NNUESmallPath != "" {
		if err := loadNNUEThrough(eng, db, cfg.NNUEBigPath, cfg.NNUESmallPath); err == nil {
			logger.Info("NNUE loaded from configured paths", "big", cfg.NNUEBigPath, "small", cfg.NNUESmallPath)
			return nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	searchDirs := []string{
		filepath.Join(home, ".shogicore", "nnue"),
		"./nnue",
		".",
	}

	for _, dir := range searchDirs {
		bigPath := filepath.Join(dir, defaultBigNet)
		smallPath := filepath.Join(dir, defaultSmallNet)
		if fileExists(bigPath) && fileExists(smallPath) {
			if err := loadNNUEThrough(eng, db, bigPath, smallPath); err != nil {
				logger.Error(err, "failed to load NNUE", "dir", dir)
				continue
			}
			logger.Info("NNUE loaded", "dir", dir)
			return nil
		}
	}

	return os.ErrNotExist
}

// loadNNUEThrough loads both network files via the store's weight cache
// when available, then installs them into eng the same way eng.LoadNNUE
// would from a direct path.
func loadNNUEThrough(eng *search.Engine, db *store.Store, bigPath, smallPath string) error {
	if db == nil {
		return eng.LoadNNUE(bigPath, smallPath)
	}
	nets, err := store.LoadNetworksCached(db, bigPath, smallPath)
	if err != nil {
		return err
	}
	return eng.InstallNetworks(nets)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
