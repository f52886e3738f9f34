// Package progress renders a staged build progress reporter to a
// terminal, adapted from the teacher's newProgress in progress.go:
// staged "[N/M] message..." framing and elapsed-time-per-stage reporting,
// generalized from a goroutine-driven percentage bar (this pipeline's
// stages don't expose a single counter to animate) to a simpler
// start/finish-per-stage reporter that also prints BuildStats at the end.
package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/wikihop/wikihop/internal/model"
)

// Reporter prints stage transitions and a final statistics summary.
type Reporter struct {
	out        io.Writer
	stages     int
	current    int
	start      time.Time
	stageStart time.Time
}

// New creates a reporter that expects `stages` calls to Stage.
func New(out io.Writer, stages int) *Reporter {
	return &Reporter{out: out, stages: stages, start: time.Now()}
}

// Stage announces the start of the next stage, printing the elapsed time
// of the previous one first.
func (r *Reporter) Stage(name string) {
	if r.current > 0 {
		fmt.Fprintf(r.out, " (%s)\n", time.Since(r.stageStart).Round(time.Millisecond))
	}
	r.current++
	r.stageStart = time.Now()
	fmt.Fprintf(r.out, "[%d/%d] %s...", r.current, r.stages, name)
}

// Done closes out the final stage and prints total elapsed time.
func (r *Reporter) Done() {
	if r.current > 0 {
		fmt.Fprintf(r.out, " (%s)\n", time.Since(r.stageStart).Round(time.Millisecond))
	}
	fmt.Fprintf(r.out, "build finished in %s\n", time.Since(r.start).Round(time.Millisecond))
}

// Stats prints the recoverable-error counters spec.md §7 calls for.
func (r *Reporter) Stats(stats *model.BuildStats) {
	fmt.Fprintf(r.out, "pages ingested:          %d\n", stats.PagesIngested)
	fmt.Fprintf(r.out, "dangling redirects:      %d\n", stats.DanglingRedirects)
	fmt.Fprintf(r.out, "dangling links:          %d\n", stats.DanglingLinks)
	fmt.Fprintf(r.out, "redirect cycles broken:  %d\n", stats.RedirectCyclesBroken)
	fmt.Fprintf(r.out, "retargeted target edges: %d\n", stats.RetargetedTargetEdges)
	fmt.Fprintf(r.out, "retargeted source edges: %d\n", stats.RetargetedSourceEdges)
	fmt.Fprintf(r.out, "self-loops dropped:      %d\n", stats.SelfLoopsDropped)
	fmt.Fprintf(r.out, "edges emitted:           %d\n", stats.EdgesEmitted)
}
