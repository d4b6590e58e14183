// Package report renders operator-facing console output. Diagnostics go to
// the logger; everything here is meant to be read or piped by a person.
package report

import (
	"fmt"
	"io"
	"time"

	"personnel/internal/employee/baseline"
	"personnel/internal/employee/models"
)

// Printer writes line-oriented output. Ages are computed against today.
type Printer struct {
	w     io.Writer
	today time.Time
}

func NewPrinter(w io.Writer, today time.Time) *Printer {
	return &Printer{w: w, today: today}
}

func (p *Printer) Employee(e models.Employee) {
	fmt.Fprintf(p.w, "Full name: %s, Date of birth: %s, Gender: %s, Age: %d\n",
		e.FullName, models.FormatDate(e.DateOfBirth), e.Gender, e.Age(p.today))
}

func (p *Printer) Employees(records []models.Employee) {
	for _, e := range records {
		p.Employee(e)
	}
}

func (p *Printer) Generated(n int) {
	fmt.Fprintf(p.w, "%d employees generated\n", n)
}

func (p *Printer) Progress(persisted, total int) {
	fmt.Fprintf(p.w, "%d employees inserted (of %d)\n", persisted, total)
}

func (p *Printer) Schema(applied []string) {
	if len(applied) == 0 {
		fmt.Fprintln(p.w, "Employees table already exists")
		return
	}
	fmt.Fprintln(p.w, "Employees table created")
}

func (p *Printer) Added(e models.Employee) {
	fmt.Fprintf(p.w, "Employee added with id %d\n", e.ID)
}

func (p *Printer) Indexes(names []string) {
	for _, name := range names {
		fmt.Fprintf(p.w, "Index ensured: %s\n", name)
	}
}

// QueryTime prints elapsed in whole milliseconds.
func (p *Printer) QueryTime(elapsed time.Duration) {
	fmt.Fprintf(p.w, "Query time: %d ms\n", elapsed.Milliseconds())
}

// Comparison prints the previous query latency and the change against the
// current one. It prints nothing without a previous entry.
func (p *Printer) Comparison(previous *baseline.Entry, current time.Duration) {
	if previous == nil {
		return
	}
	prev := previous.Elapsed.Milliseconds()
	cur := current.Milliseconds()
	fmt.Fprintf(p.w, "Previous query time: %d ms (recorded %s)\n",
		prev, previous.RecordedAt.UTC().Format(time.RFC3339))
	if prev == 0 {
		fmt.Fprintf(p.w, "Change: %+d ms\n", cur-prev)
		return
	}
	pct := float64(cur-prev) / float64(prev) * 100
	fmt.Fprintf(p.w, "Change: %+d ms (%+.1f%%)\n", cur-prev, pct)
}
