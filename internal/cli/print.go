// internal/cli/print.go
package cli

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	unipac "github.com/polnio/unipac-features"
	"github.com/polnio/unipac-features/internal/display"
	"github.com/polnio/unipac-features/pkg/core"
)

// printPackages writes one line per package, backends in enumeration
// order. Interactive output is aligned with styled labels; otherwise
// fields are tab-separated for scripts.
func (a *App) printPackages(pkgs *unipac.Packages) error {
	if !a.interactive {
		var err error
		pkgs.Each(func(id core.ID, list []core.Package) {
			for _, pkg := range list {
				if err == nil {
					_, err = fmt.Fprintf(a.Out, "%s\t%s\n", id, strings.Join(pkg.Columns(), "\t"))
				}
			}
		})
		return err
	}

	// Align on plain labels, then style them: escape sequences would
	// otherwise count towards the column widths
	var buf bytes.Buffer
	var ids []core.ID
	tw := tabwriter.NewWriter(&buf, 0, 8, 2, ' ', 0)
	pkgs.Each(func(id core.ID, list []core.Package) {
		for _, pkg := range list {
			fmt.Fprintf(tw, "%s:\t%s\n", id, strings.Join(pkg.Columns(), "\t"))
			ids = append(ids, id)
		}
	})
	if err := tw.Flush(); err != nil {
		return err
	}

	lines := strings.SplitAfter(buf.String(), "\n")
	for i, id := range ids {
		label := id.String() + ":"
		line := display.Style(id).Render(label) + strings.TrimPrefix(lines[i], label)
		if _, err := io.WriteString(a.Out, line); err != nil {
			return err
		}
	}
	return nil
}

// option renders a selection entry
func (a *App) option(sel unipac.Selection) string {
	return display.Label(sel.Backend, a.interactive) + ": " + strings.Join(sel.Package.Columns(), " ")
}

// printErrors reports backend failures, one line each
func (a *App) printErrors(errs unipac.Errors) {
	for _, err := range errs {
		fmt.Fprintln(a.Err, err)
	}
}
