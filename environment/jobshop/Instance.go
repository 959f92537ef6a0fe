package jobshop

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/exp/rand"
)

// Operation is one processing step of a job: the machine it must run
// on and the time it occupies that machine for.
type Operation struct {
	Machine  int
	Duration float64
}

// Instance holds one job-shop problem: Jobs jobs, each visiting every
// one of Machines machines exactly once in a job-specific order.
type Instance struct {
	Name     string
	Jobs     int
	Machines int

	// Ops[j] lists job j's operations in processing order
	Ops [][]Operation
}

// TotalWork returns the summed duration of every operation in the
// instance
func (i *Instance) TotalWork() float64 {
	var total float64
	for _, job := range i.Ops {
		for _, op := range job {
			total += op.Duration
		}
	}
	return total
}

// Load reads a problem instance from a file. The instance is named
// after the file, without its extension.
func Load(path string) (*Instance, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load: could not open instance file: %v", err)
	}
	defer file.Close()

	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	return Parse(name, file)
}

// Parse reads a problem instance in the standard job-shop benchmark
// layout: a header line holding the job and machine counts, then one
// line per job of alternating machine index and processing time.
func Parse(name string, r io.Reader) (*Instance, error) {
	scanner := bufio.NewScanner(r)

	jobs, machines := 0, 0
	var ops [][]Operation

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		if jobs == 0 {
			if len(fields) != 2 {
				return nil, fmt.Errorf("parse: malformed header %q",
					scanner.Text())
			}
			var err error
			if jobs, err = strconv.Atoi(fields[0]); err != nil {
				return nil, fmt.Errorf("parse: bad job count: %v", err)
			}
			if machines, err = strconv.Atoi(fields[1]); err != nil {
				return nil, fmt.Errorf("parse: bad machine count: %v", err)
			}
			if jobs <= 0 || machines <= 0 {
				return nil, fmt.Errorf("parse: non-positive dimensions %vx%v",
					jobs, machines)
			}
			ops = make([][]Operation, 0, jobs)
			continue
		}

		if len(fields) != 2*machines {
			return nil, fmt.Errorf("parse: job %v: illegal field count"+
				"\n\twant(%v)\n\thave(%v)", len(ops), 2*machines, len(fields))
		}

		job := make([]Operation, machines)
		for i := 0; i < machines; i++ {
			machine, err := strconv.Atoi(fields[2*i])
			if err != nil {
				return nil, fmt.Errorf("parse: bad machine index: %v", err)
			}
			if machine < 0 || machine >= machines {
				return nil, fmt.Errorf("parse: machine index %v out of "+
					"range [0, %v)", machine, machines)
			}
			duration, err := strconv.ParseFloat(fields[2*i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("parse: bad duration: %v", err)
			}
			job[i] = Operation{Machine: machine, Duration: duration}
		}
		ops = append(ops, job)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("parse: %v", err)
	}

	if jobs == 0 {
		return nil, fmt.Errorf("parse: empty instance")
	}
	if len(ops) != jobs {
		return nil, fmt.Errorf("parse: invalid number of jobs\n\twant(%v)"+
			"\n\thave(%v)", jobs, len(ops))
	}

	return &Instance{Name: name, Jobs: jobs, Machines: machines, Ops: ops}, nil
}

// Random generates a random instance where each job visits every
// machine once in a shuffled order with integer durations in
// [1, maxDuration].
func Random(jobs, machines int, maxDuration float64, seed uint64) *Instance {
	rng := rand.New(rand.NewSource(seed))

	ops := make([][]Operation, jobs)
	for j := range ops {
		order := rng.Perm(machines)
		ops[j] = make([]Operation, machines)
		for i, m := range order {
			duration := float64(rng.Intn(int(maxDuration))) + 1
			ops[j][i] = Operation{Machine: m, Duration: duration}
		}
	}

	return &Instance{
		Name:     fmt.Sprintf("random%vx%v", jobs, machines),
		Jobs:     jobs,
		Machines: machines,
		Ops:      ops,
	}
}
