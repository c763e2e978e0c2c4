package executor

import (
	"fmt"
	"io"
	"strings"

	"github.com/aqasim81/tiger/internal/change"
)

// ruleWidth is the width of the separator printed around script bodies.
const ruleWidth = 100

// Partition splits changes into Pre and Post, keeping list order inside each.
func Partition(changes []change.Change) (pre, post []change.Change) {
	for _, c := range changes {
		switch c.Metadata().Timing {
		case change.Pre:
			pre = append(pre, c)
		case change.Post:
			post = append(post, c)
		}
	}

	return pre, post
}

// Filter returns the changes with the given timing in list order.
func Filter(changes []change.Change, timing change.Timing) []change.Change {
	var out []change.Change

	for _, c := range changes {
		if c.Metadata().Timing == timing {
			out = append(out, c)
		}
	}

	return out
}

// Simulate prints the script for d of every Pre change followed by every
// Post change. Nothing is executed and nothing is mutated.
func Simulate(w io.Writer, changes []change.Change, d change.Direction) error {
	pre, post := Partition(changes)
	rule := strings.Repeat("-", ruleWidth)

	fmt.Fprintf(w, "> Pre-deploy changes: %d\n", len(pre))
	fmt.Fprintf(w, "> Post-deploy changes: %d\n", len(post))

	sections := []struct {
		title   string
		changes []change.Change
	}{
		{"PRE SCRIPTS", pre},
		{"POST SCRIPTS", post},
	}

	for _, s := range sections {
		if len(s.changes) == 0 {
			continue
		}

		fmt.Fprintf(w, "\n> %s\n%s\n", s.title, rule)

		for _, c := range s.changes {
			body, err := c.Content(d)
			if err != nil {
				return err
			}

			fmt.Fprintln(w, body)
		}

		fmt.Fprintln(w, rule)
	}

	fmt.Fprintln(w, "> Deployment complete")
	fmt.Fprintln(w)

	return nil
}
