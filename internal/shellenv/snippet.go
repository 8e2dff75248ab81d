package shellenv

import (
	"fmt"
	"strings"
	"text/template"
)

// The wrapper functions reference the install prefixes as literal
// absolute paths so they work from any working directory.
const functionsTemplate = `# Generated by su2ctl. Edits are overwritten on the next run.

su2run() {
    if [ "$#" -lt 2 ]; then
        echo "usage: su2run <ranks> <config> [args...]" >&2
        return 1
    fi
    _su2_ranks="$1"
    shift
    "{{.MPIRun}}" -n "$_su2_ranks" "{{.SolverBin}}" "$@"
}

su2bg() {
    if [ "$#" -ne 2 ]; then
        echo "usage: su2bg <ranks> <config>" >&2
        return 1
    fi
    _su2_log="su2_$(date +%Y%m%d_%H%M%S).log"
    nohup "{{.MPIRun}}" -n "$1" "{{.SolverBin}}" "$2" > "$_su2_log" 2>&1 &
    echo "su2 running in background, log: $_su2_log"
}

su2dry() {
    if [ "$#" -ne 1 ]; then
        echo "usage: su2dry <config>" >&2
        return 1
    fi
    "{{.SolverBin}}" -d "$1"
}
`

type snippetPaths struct {
	MPIRun    string
	SolverBin string
}

func renderSnippet(paths snippetPaths) (string, error) {
	tmpl, err := template.New("functions").Parse(functionsTemplate)
	if err != nil {
		return "", fmt.Errorf("shellenv: parse snippet template: %w", err)
	}
	var out strings.Builder
	if err := tmpl.Execute(&out, paths); err != nil {
		return "", fmt.Errorf("shellenv: render snippet: %w", err)
	}
	return out.String(), nil
}
