// Trains a PPO scheduling agent on every job-shop instance file in a
// data directory and records per-episode results and a summary table.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/aunum/log"

	"sfneuman.com/jobshop/agent/ppo"
	"sfneuman.com/jobshop/environment/jobshop"
	"sfneuman.com/jobshop/experiment"
	"sfneuman.com/jobshop/experiment/tracker"
)

func main() {
	var (
		dataDir = flag.String("data", "data", "directory of instance files")
		dataset = flag.String("dataset", "result",
			"label tagging per-instance result files")
		modelDir = flag.String("models", filepath.Join("param", "net_param"),
			"directory for model checkpoints")
		resultsDir = flag.String("results", "results",
			"directory for per-episode result files")
		memorySize = flag.Int("memory", 3,
			"episodes pooled into one training batch")
		maxEpochs = flag.Int("epochs", experiment.DefaultMaxEpochs,
			"training epoch cap per instance")
		timeLimit = flag.Duration("budget", experiment.DefaultTimeLimit,
			"wall-clock training budget per instance")
		windowSize = flag.Int("window", experiment.DefaultWindowSize,
			"episodes whose makespans must agree for convergence")
		seed = flag.Int64("seed", time.Now().UnixNano(),
			"random seed for action sampling and minibatch shuffling")
	)
	flag.Parse()

	entries, err := os.ReadDir(*dataDir)
	if err != nil {
		log.Fatalf("could not read data directory: %v", err)
	}

	var paths []string
	for _, entry := range entries {
		if !entry.IsDir() {
			paths = append(paths, filepath.Join(*dataDir, entry.Name()))
		}
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		log.Fatalf("no instance files in %v", *dataDir)
	}

	summary := tracker.NewTable("case", "best_make_span", "epochs",
		"episodes", "elapsed_seconds", "converged")

	for _, path := range paths {
		inst, err := jobshop.Load(path)
		if err != nil {
			log.Fatalf("could not load instance %v: %v", path, err)
		}
		env := jobshop.New(inst, true)

		config := ppo.NewConfig(*memorySize, inst.Jobs*inst.Machines, *seed)
		config.HiddenSize = env.StateDim()

		agent, err := ppo.New(env, config)
		if err != nil {
			log.Fatalf("could not create agent for %v: %v", inst.Name, err)
		}

		log.Infof("%v: training on %v jobs x %v machines", inst.Name,
			inst.Jobs, inst.Machines)

		trainer := experiment.NewTrainer(env, agent, *dataset, *modelDir,
			*resultsDir).WithStopping(*maxEpochs, *timeLimit, *windowSize)
		result, err := trainer.Run()
		if err != nil {
			log.Fatalf("training failed on %v: %v", inst.Name, err)
		}

		log.Infof("%v: best makespan %v in %v epochs (%v)", inst.Name,
			result.BestMakeSpan, result.Epochs,
			result.Elapsed.Round(time.Second))

		err = summary.AddRow(
			inst.Name,
			strconv.FormatFloat(result.BestMakeSpan, 'f', -1, 64),
			strconv.Itoa(result.Epochs),
			strconv.Itoa(result.Episodes),
			fmt.Sprintf("%.1f", result.Elapsed.Seconds()),
			strconv.FormatBool(result.Converged),
		)
		if err != nil {
			log.Fatalf("could not record summary for %v: %v", inst.Name, err)
		}
	}

	path := filepath.Join(*resultsDir, "summary.csv")
	if err := summary.Save(path); err != nil {
		log.Fatalf("could not save summary: %v", err)
	}
	log.Infof("saved summary of %v instances to %v", summary.Len(), path)
}
