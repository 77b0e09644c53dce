// Package config implements SPEC_FULL.md §4.I: the flat Options struct
// the CLI builds and hands to dpor.New, plus the environment-variable
// defaults original_source/include/mcmini/MCEnv.h documents. The option
// shape itself follows configSimulator.go's SimulatorOption/RunOptions:
// a marker interface implemented by small option structs, folded onto a
// base value with a type switch rather than mutating closures.
package config

import (
	"os"
	"strconv"
)

// Options is the configuration spec.md §6's CLI surface produces, passed
// straight through to dpor.New as dpor.Options' source of truth.
type Options struct {
	MaxDepthPerThread    int
	FirstDeadlock        bool
	PrintAtTraceID       int
	CheckForwardProgress bool
	Quiet                bool
	Verbose              bool
}

// Option configures an Options value. Implementations are noop markers,
// matching config.SimulatorOption/config.RunOptions in the teacher.
type Option interface {
	configOpt()
}

type MaxDepthPerThreadOption struct{ N int }

func (MaxDepthPerThreadOption) configOpt() {}

type FirstDeadlockOption struct{}

func (FirstDeadlockOption) configOpt() {}

type PrintAtTraceIDOption struct{ N int }

func (PrintAtTraceIDOption) configOpt() {}

type CheckForwardProgressOption struct{}

func (CheckForwardProgressOption) configOpt() {}

type QuietOption struct{}

func (QuietOption) configOpt() {}

type VerboseOption struct{}

func (VerboseOption) configOpt() {}

// Load reads MCMINI_MAX_DEPTH_PER_THREAD, MCMINI_FIRST_DEADLOCK,
// MCMINI_PRINT_AT_TRACE_ID, MCMINI_CHECK_FORWARD_PROGRESS, MCMINI_QUIET,
// and MCMINI_VERBOSE — the set original_source/include/mcmini/MCEnv.h
// documents — as the defaults an explicit Option overrides.
func Load() Options {
	var opts Options
	if v, ok := lookupInt("MCMINI_MAX_DEPTH_PER_THREAD"); ok {
		opts.MaxDepthPerThread = v
	}
	opts.FirstDeadlock = lookupBool("MCMINI_FIRST_DEADLOCK")
	if v, ok := lookupInt("MCMINI_PRINT_AT_TRACE_ID"); ok {
		opts.PrintAtTraceID = v
	}
	opts.CheckForwardProgress = lookupBool("MCMINI_CHECK_FORWARD_PROGRESS")
	opts.Quiet = lookupBool("MCMINI_QUIET")
	opts.Verbose = lookupBool("MCMINI_VERBOSE")
	return opts
}

// Apply folds opts onto base in order, the same type-switch shape
// PrepareSimulation and Simulation.Run use over their own option slices.
func Apply(base Options, opts ...Option) Options {
	for _, opt := range opts {
		switch t := opt.(type) {
		case MaxDepthPerThreadOption:
			base.MaxDepthPerThread = t.N
		case FirstDeadlockOption:
			base.FirstDeadlock = true
		case PrintAtTraceIDOption:
			base.PrintAtTraceID = t.N
		case CheckForwardProgressOption:
			base.CheckForwardProgress = true
		case QuietOption:
			base.Quiet = true
		case VerboseOption:
			base.Verbose = true
		}
	}
	return base
}

func lookupInt(name string) (int, bool) {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func lookupBool(name string) bool {
	v := os.Getenv(name)
	return v == "1" || v == "true" || v == "TRUE"
}
