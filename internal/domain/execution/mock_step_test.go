package execution

import (
	"context"
	"sync"
	"time"

	"github.com/felixgeelhaar/okd4prov/internal/domain/compiler"
	"github.com/felixgeelhaar/okd4prov/internal/domain/host"
)

// fakeStep is a configurable Step whose check result can change after apply.
type fakeStep struct {
	id        compiler.StepID
	checkFn   func(compiler.RunContext) (compiler.StepStatus, error)
	planFn    func(compiler.RunContext) (compiler.Diff, error)
	applyFn   func(compiler.RunContext) error
	applies   int
	checks    int
	converged bool
}

func newFakeStep(id string) *fakeStep {
	s := &fakeStep{id: compiler.MustNewStepID(id)}
	s.checkFn = func(compiler.RunContext) (compiler.StepStatus, error) {
		if s.converged {
			return compiler.StatusSatisfied, nil
		}
		return compiler.StatusNeedsApply, nil
	}
	s.planFn = func(compiler.RunContext) (compiler.Diff, error) {
		return compiler.NewDiff(compiler.DiffTypeAdd, "test", id, "", ""), nil
	}
	s.applyFn = func(compiler.RunContext) error {
		s.converged = true
		return nil
	}
	return s
}

func (s *fakeStep) ID() compiler.StepID { return s.id }

func (s *fakeStep) Check(ctx compiler.RunContext) (compiler.StepStatus, error) {
	s.checks++
	return s.checkFn(ctx)
}

func (s *fakeStep) Plan(ctx compiler.RunContext) (compiler.Diff, error) { return s.planFn(ctx) }

func (s *fakeStep) Apply(ctx compiler.RunContext) error {
	s.applies++
	return s.applyFn(ctx)
}

func (s *fakeStep) Explain(_ compiler.ExplainContext) compiler.Explanation {
	return compiler.NewExplanation("Test", "Test step", nil)
}

func sequenceOf(steps ...compiler.Step) *compiler.Sequence {
	seq := compiler.NewSequence()
	for _, s := range steps {
		if err := seq.Add(s); err != nil {
			panic(err)
		}
	}
	return seq
}

// stageProvider compiles to a fixed list of steps.
type stageProvider struct {
	name  string
	steps []compiler.Step
}

func (p stageProvider) Name() string { return p.name }

func (p stageProvider) Compile(compiler.CompileContext) ([]compiler.Step, error) {
	return p.steps, nil
}

func fedora() host.Descriptor {
	return host.Descriptor{Distro: host.DistroFedora, Major: 39, User: "okd", ClusterName: "okd4", ClusterDomain: "example.com"}
}

func runContext() compiler.RunContext {
	return compiler.NewRunContext(context.Background())
}

// recorder captures RunRecorder observations.
type recorder struct {
	mu    sync.Mutex
	steps []string
	runs  []bool
}

func (r *recorder) ObserveStep(provider, status string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, provider+"="+status)
}

func (r *recorder) ObserveRun(success bool, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, success)
}
