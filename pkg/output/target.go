package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/iwvelando/desking/pkg/optimization"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrettyTarget prints a payment target result to stdout.
func PrettyTarget(s optimization.Summary) {
	PrettyTargetTo(os.Stdout, s)
}

// PrettyTargetTo writes a payment target result to w.
func PrettyTargetTo(w io.Writer, s optimization.Summary) {
	p := message.NewPrinter(language.English)

	_, _ = p.Fprintf(w, "\n--- Payment target $%.2f at %d months (%s) ---\n", s.TargetPayment, s.Term, s.Bundle)
	_, _ = fmt.Fprintf(w, "%s: %s -> %s\n", s.Field, s.OriginalDisplay, s.ValueDisplay)
	_, _ = p.Fprintf(w, "Payment: $%.2f | Headroom: $%.2f | Iterations: %d | Converged: %t\n",
		s.Payment, s.Headroom, s.Iterations, s.Converged)
	if len(s.Notes) > 0 {
		_, _ = fmt.Fprintf(w, "Notes: %s\n", strings.Join(s.Notes, "; "))
	}
}
