package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fenilsonani/stacktrack/internal/xorshift"
	"github.com/fenilsonani/stacktrack/pkg/concurrentset"
)

func newBenchCommand() *cobra.Command {
	var (
		algType       int
		maxSegmentLen int
		freeBatchSize int
		doNotAlt      bool
		durationMS    int
		initial       int
		numThreads    int
		keyRange      int
		seed          int
		update        int
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Stress a concurrent ordered integer set",
		Long: `bench drives a concurrent skip-list-backed ordered set of integers
through a configurable mix of insertions, removals and membership checks,
under one of four interchangeable safe-memory-reclamation strategies.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			variant, err := concurrentset.ParseVariant(algType)
			if err != nil {
				return err
			}
			if freeBatchSize > 1000 {
				return fmt.Errorf("bench: free-batch-size must be <= 1000, got %d", freeBatchSize)
			}
			if durationMS < 0 {
				return fmt.Errorf("bench: duration must be >= 0, got %d", durationMS)
			}
			if initial < 0 {
				return fmt.Errorf("bench: initial-size must be >= 0, got %d", initial)
			}
			if numThreads <= 0 {
				return fmt.Errorf("bench: num-threads must be > 0, got %d", numThreads)
			}
			if keyRange == 0 {
				keyRange = initial * 2
			}
			if keyRange <= 0 || keyRange < initial {
				return fmt.Errorf("bench: range must be > 0 and >= initial-size, got %d", keyRange)
			}
			if update < 0 || update > 100 {
				return fmt.Errorf("bench: update-rate must be in [0, 100], got %d", update)
			}

			alternate := !doNotAlt
			if !alternate && keyRange != initial*2 {
				fmt.Fprintln(cmd.OutOrStdout(), "WARNING: range is not twice the initial set size")
			}

			params := resolvedParams{
				variant:       variant,
				maxSegmentLen: maxSegmentLen,
				freeBatchSize: freeBatchSize,
				duration:      time.Duration(durationMS) * time.Millisecond,
				initial:       initial,
				numThreads:    numThreads,
				keyRange:      int32(keyRange),
				seed:          int32(seed),
				update:        update,
				alternate:     alternate,
			}
			return runBench(cmd, params)
		},
	}

	cmd.Flags().IntVarP(&algType, "alg-type", "p", 0, "0 pure, 1 hazard pointers, 2 stacktrack, 3 forkscan")
	cmd.Flags().IntVarP(&maxSegmentLen, "max-segment-length", "l", 50, "ceiling for the adaptive HTM segment length")
	cmd.Flags().IntVarP(&freeBatchSize, "free-batch-size", "f", 100, "deferred frees accumulated before a scan (<= 1000)")
	cmd.Flags().BoolVarP(&doNotAlt, "do-not-alternate", "a", false, "do not alternate insertions and removals")
	cmd.Flags().IntVarP(&durationMS, "duration", "d", 10000, "run time in milliseconds (0 = until signal)")
	cmd.Flags().IntVarP(&initial, "initial-size", "i", 256, "number of elements to insert before the test")
	cmd.Flags().IntVarP(&numThreads, "num-threads", "n", 1, "number of worker goroutines")
	cmd.Flags().IntVarP(&keyRange, "range", "r", 0, "key range [1, range] (0 = twice initial-size)")
	cmd.Flags().IntVarP(&seed, "seed", "s", 0, "RNG seed (0 = time-seeded)")
	cmd.Flags().IntVarP(&update, "update-rate", "u", 20, "percent of operations that are insert/remove")

	return cmd
}

func runBench(cmd *cobra.Command, p resolvedParams) error {
	out := cmd.OutOrStdout()
	printHeader(out, p)

	set := concurrentset.New(concurrentset.Config{
		Variant:       p.variant,
		MaxSegmentLen: p.maxSegmentLen,
		FreeBatchSize: p.freeBatchSize,
	})

	fmt.Fprintf(out, "Set size           : %d\n", p.initial)

	barrier := NewBarrier(p.numThreads + 1)
	var stop atomic.Bool

	// Thread seeds are drawn from one master generator seeded by p.seed,
	// mirroring bench.c's srand(seed) followed by each thread's own
	// rand_init() draw from that shared stream — never the same seed
	// handed to every worker.
	masterSeed := p.seed
	if masterSeed == 0 {
		masterSeed = int32(time.Now().UnixNano()) | 1
	}
	master := xorshift.New(masterSeed)
	workers := make([]*concurrentset.Worker, p.numThreads)
	for i := range workers {
		threadSeed := master.Next()
		if threadSeed == 0 {
			threadSeed = 1
		}
		workers[i] = set.RegisterThread(threadSeed)
	}

	results := make([]*workerResult, p.numThreads)
	var wg sync.WaitGroup
	wg.Add(p.numThreads)
	for i := 0; i < p.numThreads; i++ {
		i := i
		go func() {
			defer wg.Done()
			wp := workerParams{
				initial:   p.initial,
				keyRange:  p.keyRange,
				update:    p.update,
				alternate: p.alternate,
			}
			results[i] = runWorker(workers[i], barrier, wp, i == 0, &stop)
		}()
	}

	barrier.Cross()
	fmt.Fprintln(out, "STARTING...")
	start := time.Now()

	if p.duration > 0 {
		time.Sleep(p.duration)
	} else {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		signal.Stop(sigCh)
	}

	stop.Store(true)
	elapsed := time.Since(start)
	fmt.Fprintln(out, "STOPPING...")

	wg.Wait()

	printReport(out, results, elapsed, set, p.initial)
	return nil
}
