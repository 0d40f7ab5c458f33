package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/agbru/picalc/internal/chudnovsky"
)

const programName = "picalc"

// completionFlag describes one command-line flag for completion scripts.
type completionFlag struct {
	short  string
	long   string
	desc   string
	values []string // suggested values; nil for switches
	file   bool     // complete with file names
	value  bool     // takes a free-form value
}

func completionFlags(algorithms []string) []completionFlag {
	return []completionFlag{
		{short: "h", long: "help", desc: "Show help message"},
		{short: "V", long: "version", desc: "Show version information"},
		{short: "d", long: "digits", desc: "Number of digits to compute", values: []string{"1000", "10000", "100000", "1000000"}},
		{short: "o", long: "output", desc: "Output file path", file: true},
		{short: "t", long: "threads", desc: "Number of worker threads", value: true},
		{long: "schedule", desc: "Work distribution policy", values: chudnovsky.ScheduleNames},
		{long: "chunk", desc: "Schedule chunk size", values: []string{"0", "1", "10", "100"}},
		{short: "f", long: "format", desc: "Group digits in blocks of 10"},
		{short: "c", long: "no-output", desc: "Compute without writing the output file"},
		{short: "b", long: "buffer", desc: "Output buffer size in bytes", values: []string{"1024", "65536", "1048576"}},
		{long: "algo", desc: "Calculator to use", values: append(append([]string{}, algorithms...), "all")},
		{long: "timeout", desc: "Maximum execution time", values: []string{"1m", "5m", "30m", "1h"}},
		{short: "q", long: "quiet", desc: "Quiet mode for scripts"},
		{long: "json", desc: "Output in JSON format"},
		{short: "v", desc: "Print every digit"},
		{long: "details", desc: "Show plan and cache statistics"},
		{long: "log-level", desc: "Log level", values: []string{"debug", "info", "warn", "error", "disabled"}},
		{long: "server", desc: "Start HTTP server mode"},
		{long: "port", desc: "Server port", values: []string{"8080", "3000", "9000"}},
		{long: "interactive", desc: "Start interactive REPL mode"},
		{long: "calibrate", desc: "Benchmark the schedules"},
		{long: "calibration-profile", desc: "Calibration profile file", file: true},
		{long: "completion", desc: "Generate completion script", values: []string{"bash", "zsh", "fish", "powershell"}},
		{long: "no-color", desc: "Disable colored output"},
	}
}

func (f completionFlag) names() []string {
	var names []string
	if f.short != "" {
		names = append(names, "-"+f.short)
	}
	if f.long != "" {
		names = append(names, "--"+f.long)
	}
	return names
}

// GenerateCompletion writes a shell completion script for picalc.
//
// Parameters:
//   - out: The writer to output the completion script.
//   - shell: The shell type ("bash", "zsh", "fish", "powershell").
//   - algorithms: List of available calculator names.
//
// Returns:
//   - error: An error if the shell is not supported.
func GenerateCompletion(out io.Writer, shell string, algorithms []string) error {
	flags := completionFlags(algorithms)
	var script string
	switch shell {
	case "bash":
		script = bashCompletion(flags)
	case "zsh":
		script = zshCompletion(flags)
	case "fish":
		script = fishCompletion(flags)
	case "powershell", "ps":
		script = powerShellCompletion(flags)
	default:
		return fmt.Errorf("unsupported shell: %s (accepted values: bash, zsh, fish, powershell)", shell)
	}
	_, err := io.WriteString(out, script)
	return err
}

func bashCompletion(flags []completionFlag) string {
	var b strings.Builder
	var opts []string
	for _, f := range flags {
		opts = append(opts, f.names()...)
	}
	fmt.Fprintf(&b, "# Bash completion script for %s\n# Add this to your ~/.bashrc or ~/.bash_completion\n\n", programName)
	fmt.Fprintf(&b, "_%s_completions() {\n", programName)
	b.WriteString("    local cur prev\n    COMPREPLY=()\n")
	b.WriteString("    cur=\"${COMP_WORDS[COMP_CWORD]}\"\n    prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n\n")
	b.WriteString("    case \"${prev}\" in\n")
	for _, f := range flags {
		switch {
		case f.file:
			fmt.Fprintf(&b, "        %s)\n            COMPREPLY=( $(compgen -f -- \"${cur}\") )\n            return 0\n            ;;\n", strings.Join(f.names(), "|"))
		case f.values != nil:
			fmt.Fprintf(&b, "        %s)\n            COMPREPLY=( $(compgen -W \"%s\" -- \"${cur}\") )\n            return 0\n            ;;\n", strings.Join(f.names(), "|"), strings.Join(f.values, " "))
		}
	}
	b.WriteString("    esac\n\n")
	fmt.Fprintf(&b, "    if [[ \"${cur}\" == -* ]]; then\n        COMPREPLY=( $(compgen -W \"%s\" -- \"${cur}\") )\n    fi\n}\n\n", strings.Join(opts, " "))
	fmt.Fprintf(&b, "complete -F _%s_completions %s\n", programName, programName)
	return b.String()
}

func zshCompletion(flags []completionFlag) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#compdef %s\n\n# Zsh completion script for %s\n# Place this file in a directory of your $fpath\n\n", programName, programName)
	fmt.Fprintf(&b, "_%s() {\n    _arguments -s \\\n", programName)
	for i, f := range flags {
		spec := ""
		switch {
		case f.file:
			spec = ":file:_files"
		case f.values != nil:
			spec = fmt.Sprintf(":value:(%s)", strings.Join(f.values, " "))
		case f.value:
			spec = ":value:"
		}
		names := f.names()
		var entry string
		if len(names) == 2 {
			entry = fmt.Sprintf("'(%s %s)'{%s,%s}'[%s]%s'", names[0], names[1], names[0], names[1], f.desc, spec)
		} else {
			entry = fmt.Sprintf("'%s[%s]%s'", names[0], f.desc, spec)
		}
		sep := " \\\n"
		if i == len(flags)-1 {
			sep = "\n"
		}
		fmt.Fprintf(&b, "        %s%s", entry, sep)
	}
	fmt.Fprintf(&b, "}\n\n_%s \"$@\"\n", programName)
	return b.String()
}

func fishCompletion(flags []completionFlag) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Fish completion script for %s\n# Add this to ~/.config/fish/completions/%s.fish\n\n", programName, programName)
	fmt.Fprintf(&b, "complete -c %s -f\n", programName)
	for _, f := range flags {
		line := "complete -c " + programName
		if f.short != "" {
			line += " -s " + f.short
		}
		if f.long != "" {
			line += " -l " + f.long
		}
		line += fmt.Sprintf(" -d '%s'", f.desc)
		switch {
		case f.file:
			line += " -rF"
		case f.values != nil:
			line += fmt.Sprintf(" -xa '%s'", strings.Join(f.values, " "))
		case f.value:
			line += " -x"
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func powerShellCompletion(flags []completionFlag) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# PowerShell completion script for %s\n# Add this to your $PROFILE\n\n", programName)
	fmt.Fprintf(&b, "Register-ArgumentCompleter -CommandName '%s' -Native -ScriptBlock {\n", programName)
	b.WriteString("    param($wordToComplete, $commandAst, $cursorPosition)\n\n    $options = @(\n")
	for _, f := range flags {
		for _, name := range f.names() {
			fmt.Fprintf(&b, "        @{Name = '%s'; Description = '%s' }\n", name, f.desc)
		}
	}
	b.WriteString("    )\n\n")
	b.WriteString("    $elements = $commandAst.CommandElements\n")
	b.WriteString("    $prevElement = if ($elements.Count -gt 2) { $elements[-2].ToString() } else { '' }\n\n")
	b.WriteString("    $values = switch ($prevElement) {\n")
	for _, f := range flags {
		if f.values == nil {
			continue
		}
		quoted := make([]string, len(f.values))
		for i, v := range f.values {
			quoted[i] = "'" + v + "'"
		}
		for _, name := range f.names() {
			fmt.Fprintf(&b, "        '%s' { @(%s) }\n", name, strings.Join(quoted, ", "))
		}
	}
	b.WriteString("    }\n")
	b.WriteString("    if ($values) {\n")
	b.WriteString("        $values | Where-Object { $_ -like \"$wordToComplete*\" } | ForEach-Object {\n")
	b.WriteString("            [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)\n        }\n        return\n    }\n\n")
	b.WriteString("    $options | Where-Object { $_.Name -like \"$wordToComplete*\" } | ForEach-Object {\n")
	b.WriteString("        [System.Management.Automation.CompletionResult]::new($_.Name, $_.Name, 'ParameterName', $_.Description)\n    }\n}\n")
	return b.String()
}
