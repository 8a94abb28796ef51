package main

import (
	"flag"
	"log"
	"os"
	"runtime"

	"github.com/kestrel-chess/kestrel/internal/eval"
	"github.com/kestrel-chess/kestrel/internal/protocol/uci"
	"github.com/kestrel-chess/kestrel/internal/search"
	"github.com/kestrel-chess/kestrel/internal/tablebase"
)

const (
	name   = "Kestrel"
	author = "kestrel-chess"
)

var (
	versionName = "dev"
	flgSyzygy   string
)

func main() {
	flag.StringVar(&flgSyzygy, "syzygy", "", "path to Syzygy tablebase files, empty disables probing")
	flag.Parse()

	logger := log.New(os.Stderr, "", log.LstdFlags|log.Lshortfile)
	logger.Println(name,
		"Version", versionName,
		"RuntimeVersion", runtime.Version(),
		"GOARCH", runtime.GOARCH,
		"GOOS", runtime.GOOS,
		"NumCPU", runtime.NumCPU(),
	)

	var prober tablebase.Prober = tablebase.None{}
	if flgSyzygy != "" {
		logger.Println("Syzygy tablebases requested at", flgSyzygy, "but no binding is wired in this build; falling back to no tablebase")
	}

	eng := search.NewEngine(func() search.Evaluator { return eval.NewEvaluator() }, prober)

	protocol := uci.New(name, author, versionName, eng, []uci.Option{
		&uci.IntOption{Name: "Hash", Min: 1, Max: 1 << 16, Value: &eng.Options.Hash},
		&uci.IntOption{Name: "Threads", Min: 1, Max: runtime.NumCPU(), Value: &eng.Options.Threads},
		&uci.BoolOption{Name: "AspirationWindows", Value: &eng.Options.AspirationWindows},
		&uci.BoolOption{Name: "Razoring", Value: &eng.Options.Razoring},
		&uci.BoolOption{Name: "ReverseFutility", Value: &eng.Options.ReverseFutility},
		&uci.BoolOption{Name: "NullMovePruning", Value: &eng.Options.NullMovePruning},
		&uci.BoolOption{Name: "Probcut", Value: &eng.Options.Probcut},
		&uci.BoolOption{Name: "SingularExt", Value: &eng.Options.SingularExt},
		&uci.BoolOption{Name: "LateMovePruning", Value: &eng.Options.Lmp},
		&uci.BoolOption{Name: "See", Value: &eng.Options.See},
		&uci.BoolOption{Name: "CheckExtension", Value: &eng.Options.CheckExt},
		&uci.BoolOption{Name: "InternalIterativeReduce", Value: &eng.Options.InternalIterativeReduce},
	})
	protocol.Run(os.Stdin, os.Stdout, logger)
}
