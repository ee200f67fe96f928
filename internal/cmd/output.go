package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/quantmind-br/jdkinfo/internal/core"
	"github.com/quantmind-br/jdkinfo/internal/ui"
)

// versionLabel formats version and build the way JDKs print them
func versionLabel(inst core.Installation) string {
	if inst.Build > 0 {
		return inst.Version.String() + "+" + strconv.Itoa(inst.Build)
	}
	return inst.Version.String()
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printInstallations renders the ranked installations as a table
func printInstallations(w io.Writer, installs []core.Installation, details bool) {
	header := []string{"", "Version", "Arch", "Vendor", "Path"}
	symbols := tw.NewSymbols(tw.StyleNone)
	if details {
		header = []string{"", "Version", "Arch", "Vendor", "Tools", "Path"}
		symbols = tw.NewSymbols(tw.StyleLight)
	}

	table := tablewriter.NewTable(w,
		tablewriter.WithHeader(header),
		tablewriter.WithAlignment(tw.MakeAlign(len(header), tw.AlignLeft)),
		tablewriter.WithSymbols(symbols),
	)

	for _, inst := range installs {
		vendor := inst.Vendor
		if vendor == "" {
			vendor = "-"
		}

		row := []interface{}{
			ui.DefaultMarker(inst.IsDefault),
			versionLabel(inst),
			ui.ColorizeArch(inst.Arch),
			vendor,
		}
		if details {
			row = append(row, strconv.Itoa(len(inst.Executables)))
		}
		row = append(row, inst.Path)

		table.Append(row...)
	}

	table.Render()
}

func summaryLine(snap core.Snapshot) string {
	def, ok := snap.Default()
	if !ok {
		return "No JDK installations found"
	}
	return fmt.Sprintf("%d JDK installation(s), default %s (%s)",
		len(snap.Installations), versionLabel(def), filepath.Base(def.Path))
}

func dirOf(path string) string {
	return filepath.Dir(path)
}
