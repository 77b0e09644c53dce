// Command mcmini is the CLI surface of spec §6: it parses the
// max-depth-per-thread/first-deadlock/print-at-traceId/record flags,
// builds a coordinator over a fork/exec (or checkpoint-restart) process
// source, and drives a dpor.Search to exhaustion, fanning every
// undefined-behavior/deadlock/starvation report out to the configured
// report sinks. Grounded in the flag-based CLI style the example pack
// uses throughout (no third-party CLI framework appears anywhere in
// it), e.g. KaiSta-gopherlyzer-GuaranteedRaces/main.go.
package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"os"

	"google.golang.org/grpc"

	"mcmini/config"
	"mcmini/coordinator"
	"mcmini/dpor"
	"mcmini/realworld"
	"mcmini/registry"
	"mcmini/report"
	"mcmini/rpc"
)

func main() {
	maxDepthPerThread := flag.Int("m", 0, "max-depth-per-thread: bound how many transitions a single runner may contribute to one trace (0 = unbounded)")
	firstDeadlock := flag.Bool("f", false, "first-deadlock: stop the search as soon as one deadlock or undefined-behavior trace is found")
	printAtTraceID := flag.Int("p", 0, "print-at-traceId: emit a Newick dump of the trace with this ordinal (0 = disabled)")
	record := flag.Int("r", 0, "record: checkpoint interval in seconds; only logs a notice, invokes no checkpoint tool, and the search still runs (0 = disabled)")
	checkpointDir := flag.String("checkpoint-dir", "", "directory the checkpoint-restart process source resumes from; if set, the positional target is ignored")
	restartTool := flag.String("restart-tool", "dmtcp_restart", "external checkpoint-restart tool invoked by the checkpoint process source")
	checkForwardProgress := flag.Bool("check-forward-progress", false, "check-forward-progress: distinguish starvation (some runner exited, another never will) from plain deadlock")
	quiet := flag.Bool("q", false, "quiet: suppress the log sink")
	verbose := flag.Bool("v", false, "verbose: also emit a JSON report per finding to stderr")
	jsonOut := flag.String("json", "", "path to append one JSON report per finding to")
	newickOut := flag.String("newick", "", "path to append one Newick tree per finding to")
	debugAddr := flag.String("debug-addr", "", "if set, serve the read-only debug/control-plane gRPC service (spec §4.N) on this address")
	flag.IntVar(maxDepthPerThread, "max-depth-per-thread", 0, "same as -m")
	flag.BoolVar(firstDeadlock, "first-deadlock", false, "same as -f")
	flag.IntVar(record, "record", 0, "same as -r")
	flag.IntVar(printAtTraceID, "print-at-traceId", 0, "same as -p")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] target [args...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	opts := config.Apply(config.Load(),
		config.MaxDepthPerThreadOption{N: *maxDepthPerThread},
		config.PrintAtTraceIDOption{N: *printAtTraceID},
	)
	if *firstDeadlock {
		opts = config.Apply(opts, config.FirstDeadlockOption{})
	}
	if *checkForwardProgress {
		opts = config.Apply(opts, config.CheckForwardProgressOption{})
	}
	if *quiet {
		opts = config.Apply(opts, config.QuietOption{})
	}
	if *verbose {
		opts = config.Apply(opts, config.VerboseOption{})
	}

	var source realworld.ProcessSource
	if *checkpointDir != "" {
		source = realworld.NewCheckpointSource(*restartTool, *checkpointDir)
	} else {
		if flag.NArg() < 1 {
			flag.Usage()
			os.Exit(2)
		}
		source = realworld.NewForkExecSource(flag.Arg(0), flag.Args()[1:])
	}

	if *record > 0 {
		log.Printf("mcmini: --record is a hook only; wire an external checkpoint loop invoking %s every %ds", *restartTool, *record)
	}

	sinks := buildSinks(opts, *jsonOut, *newickOut)

	coord := coordinator.New(source, registry.NewDefault())
	search := dpor.New(coord, dpor.Options{
		MaxDepthPerThread:    opts.MaxDepthPerThread,
		FirstDeadlock:        opts.FirstDeadlock,
		CheckForwardProgress: opts.CheckForwardProgress,
		OnUndefinedBehavior: func(trace []coordinator.PrefixEntry, err error) {
			sinks.Report(report.NewReport(report.UndefinedBehavior, trace, err))
		},
		OnDeadlock: func(trace []coordinator.PrefixEntry) {
			sinks.Report(report.NewReport(report.Deadlock, trace, nil))
		},
		OnStarvation: func(trace []coordinator.PrefixEntry) {
			sinks.Report(report.NewReport(report.Starvation, trace, nil))
		},
		PrintAtTraceID: opts.PrintAtTraceID,
		OnPrintTrace: func(traceID int, trace []coordinator.PrefixEntry) {
			fmt.Fprintf(os.Stderr, "mcmini: trace %d: %s\n", traceID, report.TraceNewick(trace))
		},
	})

	if *debugAddr != "" {
		startDebugServer(*debugAddr, search)
	}

	if err := search.Run(); err != nil {
		log.Fatalf("mcmini: %v", err)
	}

	stats := search.Stats()
	log.Printf("mcmini: explored %d traces, %d deadlocks, %d starvations, %d undefined-behavior cases (max depth seen %d)",
		stats.TracesExplored, stats.Deadlocks, stats.Starvations, stats.UndefinedCases, stats.MaxDepthSeen)
}

// startDebugServer serves the read-only debug/control-plane service of
// spec §4.N in the background; it never blocks on, or is blocked by,
// the search's own mailbox round trips.
func startDebugServer(addr string, search *dpor.Search) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("mcmini: --debug-addr %s: %v", addr, err)
	}
	srv := grpc.NewServer()
	rpc.RegisterDebugServiceServer(srv, rpc.NewDebugServer(search))
	go func() {
		if err := srv.Serve(lis); err != nil {
			log.Printf("mcmini: debug server stopped: %v", err)
		}
	}()
}

func buildSinks(opts config.Options, jsonPath, newickPath string) report.MultiSink {
	var sinks report.MultiSink
	if !opts.Quiet {
		sinks = append(sinks, report.NewLogSink(os.Stderr))
	}
	if opts.Verbose {
		sinks = append(sinks, report.NewJSONSink(os.Stderr))
	}
	if jsonPath != "" {
		f, err := os.OpenFile(jsonPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			log.Fatalf("mcmini: opening --json %s: %v", jsonPath, err)
		}
		sinks = append(sinks, report.NewJSONSink(f))
	}
	if newickPath != "" {
		f, err := os.OpenFile(newickPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			log.Fatalf("mcmini: opening --newick %s: %v", newickPath, err)
		}
		sinks = append(sinks, report.NewNewickSink(f))
	}
	return sinks
}
