package config

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/agbru/picalc/internal/ui"
)

// shorthands maps each long flag to its single-letter alias.
var shorthands = map[string]string{
	"digits":    "d",
	"output":    "o",
	"threads":   "t",
	"format":    "f",
	"no-output": "c",
	"buffer":    "b",
	"quiet":     "q",
	"version":   "V",
}

func isShorthand(name string) bool {
	for _, short := range shorthands {
		if short == name {
			return true
		}
	}
	return false
}

// setCustomUsage configures the flag set with a colored usage function that
// lists each flag once, with its shorthand alias next to it.
func setCustomUsage(fs *flag.FlagSet) {
	fs.Usage = func() {
		// Respect NO_COLOR even before app initialization
		t := ui.GetCurrentTheme()
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			t = ui.NoColorTheme
		}

		out := fs.Output()
		fmt.Fprintf(out, "\n%sPi Calculator%s\n", t.Bold, t.Reset)
		fmt.Fprintf(out, "Parallel Chudnovsky computation of the decimal digits of pi.\n\n")
		fmt.Fprintf(out, "%sUsage:%s\n  %s [flags]\n\n%sFlags:%s\n", t.Warning, t.Reset, fs.Name(), t.Warning, t.Reset)

		fs.VisitAll(func(f *flag.Flag) {
			if isShorthand(f.Name) {
				return
			}
			name, usage := flag.UnquoteUsage(f)
			names := []string{"-" + f.Name}
			if short, ok := shorthands[f.Name]; ok {
				names = []string{"-" + short, "-" + f.Name}
			}
			sig := strings.Join(names, ", ")
			if name != "" {
				sig += " " + name
			}

			fmt.Fprintf(out, "  %s%-28s%s %s", t.Primary, sig, t.Reset, usage)
			if f.DefValue != "" && f.DefValue != "0" && f.DefValue != "false" {
				fmt.Fprintf(out, " %s(default %s)%s", t.Secondary, f.DefValue, t.Reset)
			}
			fmt.Fprintln(out)
		})
		fmt.Fprintf(out, "\nEvery flag may also be set through a %s<NAME> environment variable.\n\n", EnvPrefix)
	}
}
