// Package jobshop implements a job-shop scheduling simulator as a
// training environment. Each decision dispatches the next operation of
// one job onto its required machine; the episode ends when every
// operation is scheduled, and the makespan is the time at which the
// last machine falls idle.
package jobshop

import (
	"gonum.org/v1/gonum/floats"
)

// JobShop simulates one problem instance. It satisfies
// environment.Environment.
//
// The simulation is event driven: a decision point carries a clock,
// and dispatching job j starts its next operation at the earliest time
// permitted by the clock, the job's preceding operation, and the
// required machine. When the no-op action is enabled, the policy may
// instead advance the clock to the next machine-release event, leaving
// a machine deliberately idle.
type JobShop struct {
	inst  *Instance
	noOp  bool
	total int // operation count

	nextOp      []int
	jobReady    []float64
	machineFree []float64
	remaining   []float64 // per-job unscheduled work

	now       float64
	scheduled int
	noOpCnt   int
	totalWork float64
}

// New returns a new JobShop simulating the given instance. If noOp is
// true, the action space includes an extra action that idles until the
// next machine-release event.
func New(inst *Instance, noOp bool) *JobShop {
	j := &JobShop{
		inst:      inst,
		noOp:      noOp,
		total:     inst.Jobs * inst.Machines,
		totalWork: inst.TotalWork(),
	}
	j.Reset()
	return j
}

// Reset starts a new episode and returns the initial state observation
func (j *JobShop) Reset() []float64 {
	j.nextOp = make([]int, j.inst.Jobs)
	j.jobReady = make([]float64, j.inst.Jobs)
	j.machineFree = make([]float64, j.inst.Machines)
	j.remaining = make([]float64, j.inst.Jobs)
	for job, ops := range j.inst.Ops {
		for _, op := range ops {
			j.remaining[job] += op.Duration
		}
	}

	j.now = 0
	j.scheduled = 0
	j.noOpCnt = 0

	return j.state()
}

// Step dispatches one decision. Selecting a finished job counts as a
// no-op decision.
func (j *JobShop) Step(action int) ([]float64, float64, bool) {
	before := j.utilization()

	if action >= j.inst.Jobs || j.nextOp[action] >= j.inst.Machines {
		j.idle()
	} else {
		j.dispatch(action)
	}

	reward := j.utilization() - before
	done := j.scheduled == j.total

	return j.state(), reward, done
}

// dispatch schedules job's next operation as early as permitted
func (j *JobShop) dispatch(job int) {
	op := j.inst.Ops[job][j.nextOp[job]]

	start := floats.Max([]float64{
		j.now,
		j.jobReady[job],
		j.machineFree[op.Machine],
	})
	end := start + op.Duration

	j.jobReady[job] = end
	j.machineFree[op.Machine] = end
	j.remaining[job] -= op.Duration
	j.nextOp[job]++
	j.scheduled++
}

// idle advances the clock to the next machine-release event after the
// current decision point
func (j *JobShop) idle() {
	j.noOpCnt++

	next := 0.0
	for _, free := range j.machineFree {
		if free > j.now && (next == 0 || free < next) {
			next = free
		}
	}
	if next > 0 {
		j.now = next
	}
}

// state builds the observation vector: per job, the fraction of its
// operations already dispatched and the fraction of total work it
// still holds; globally, the current machine utilization and the
// elapsed makespan normalized by total work.
func (j *JobShop) state() []float64 {
	state := make([]float64, 0, j.StateDim())
	for job := 0; job < j.inst.Jobs; job++ {
		state = append(state,
			float64(j.nextOp[job])/float64(j.inst.Machines),
			j.remaining[job]/j.totalWork,
		)
	}
	return append(state, j.utilization(), j.CurrentTime()/j.totalWork)
}

// utilization is the scheduled work divided by the machine capacity
// spanned by the current makespan
func (j *JobShop) utilization() float64 {
	makespan := j.CurrentTime()
	if makespan == 0 {
		return 0
	}
	return (j.totalWork - floats.Sum(j.remaining)) /
		(float64(j.inst.Machines) * makespan)
}

// StateDim returns the number of components in a state observation
func (j *JobShop) StateDim() int {
	return 2*j.inst.Jobs + 2
}

// ActionDim returns the number of discrete actions
func (j *JobShop) ActionDim() int {
	if j.noOp {
		return j.inst.Jobs + 1
	}
	return j.inst.Jobs
}

// CaseName names the problem instance being simulated
func (j *JobShop) CaseName() string {
	return j.inst.Name
}

// CurrentTime returns the episode's makespan so far
func (j *JobShop) CurrentTime() float64 {
	return floats.Max(j.machineFree)
}

// NoOpCount returns the number of no-op decisions taken this episode
func (j *JobShop) NoOpCount() int {
	return j.noOpCnt
}

// JobNum returns the number of jobs in the instance
func (j *JobShop) JobNum() int {
	return j.inst.Jobs
}

// MachineNum returns the number of machines in the instance
func (j *JobShop) MachineNum() int {
	return j.inst.Machines
}
