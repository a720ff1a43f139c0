package cmd

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sarchlab/memspace/datarecording"
	"github.com/sarchlab/memspace/mem"
	"github.com/sarchlab/memspace/monitoring"
	"github.com/sarchlab/memspace/trace"
)

const defaultCapacity = 1024

var runCmd = &cobra.Command{
	Use:   "run [script]",
	Short: "Replay an allocation script against a fresh memory space",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cmd.SilenceUsage = true

		space, err := mem.NewSpace("MemSpace", runCapacity(cmd))
		if err != nil {
			log.Fatalf("Error creating memory space: %v", err)
		}

		setupObservers(cmd, space)

		ops := loadScript(args[0])
		for _, op := range ops {
			executeOp(space, op)
		}

		fmt.Println(space.String())
	},
}

func init() {
	runCmd.Flags().Int("capacity", defaultCapacity,
		"number of words in the memory space "+
			"(also settable through MEMSPACE_CAPACITY)")
	runCmd.Flags().Bool("trace", false,
		"log every operation to stderr")
	runCmd.Flags().String("record", "",
		"record operations into a SQLite file with the given name prefix")
	runCmd.Flags().Bool("monitor", false,
		"serve the live state of the space over HTTP")
	runCmd.Flags().Int("port", 0,
		"port of the monitoring server, random if unset")
	runCmd.Flags().Bool("open", false,
		"open the monitor page in the system browser")

	rootCmd.AddCommand(runCmd)
}

func runCapacity(cmd *cobra.Command) int {
	capacity, _ := cmd.Flags().GetInt("capacity")

	if !cmd.Flags().Changed("capacity") {
		if env := os.Getenv("MEMSPACE_CAPACITY"); env != "" {
			envCapacity, err := strconv.Atoi(env)
			if err != nil {
				log.Fatalf("Invalid MEMSPACE_CAPACITY %q", env)
			}
			capacity = envCapacity
		}
	}

	return capacity
}

func setupObservers(cmd *cobra.Command, space *mem.Space) {
	if doTrace, _ := cmd.Flags().GetBool("trace"); doTrace {
		logger := log.New(os.Stderr, "trace: ", 0)
		trace.CollectTraces(space, trace.NewTracer(logger))
	}

	if record, _ := cmd.Flags().GetString("record"); record != "" {
		recorder := datarecording.New(record)
		trace.CollectTraces(space, trace.NewDBTracer(recorder))
	}

	if doMonitor, _ := cmd.Flags().GetBool("monitor"); doMonitor {
		monitor := monitoring.NewMonitor()
		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			monitor = monitor.WithPortNumber(port)
		}
		monitor.RegisterSpace(space)
		monitor.StartServer()

		if doOpen, _ := cmd.Flags().GetBool("open"); doOpen {
			monitor.OpenBrowser()
		}
	}
}

func loadScript(path string) []scriptOp {
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("Error opening script: %v", err)
	}
	defer f.Close()

	ops, err := parseScript(f)
	if err != nil {
		log.Fatalf("Error parsing script: %v", err)
	}

	return ops
}

func executeOp(space *mem.Space, op scriptOp) {
	switch op.Kind {
	case opMalloc:
		addr := space.Malloc(op.Arg)
		if addr == mem.AllocFailed {
			fmt.Printf("malloc %d -> failed\n", op.Arg)
			return
		}
		fmt.Printf("malloc %d -> %d\n", op.Arg, addr)
	case opFree:
		err := space.Free(op.Arg)
		if err != nil {
			log.Fatalf("Error on line %d: free %d: %v",
				op.Line, op.Arg, err)
		}
	case opDefrag:
		space.Defrag()
	case opDump:
		fmt.Println(space.String())
	}
}
