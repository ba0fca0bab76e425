package fetch

import (
	"os"
	"path/filepath"

	"leakduck-backend/internal/telemetry"
)

const (
	report_raw_output_write = "raw-output.write"
)

// RawOutput dumps fetched markup to a directory so a broken extraction can be inspected after
// the fact. A RawOutput with an empty directory discards everything.
type RawOutput struct {
	directory string
	tel       telemetry.API
}

func NewRawOutput(dir string, tel telemetry.API) RawOutput {
	return RawOutput{
		directory: dir,
		tel:       telemetry.NewScopedAPI("fetch", tel),
	}
}

func (o RawOutput) Write(name string, contents []byte) {
	if o.directory == "" {
		return
	}
	err := os.MkdirAll(o.directory, 0755)
	if err != nil {
		o.tel.ReportWarning(report_raw_output_write, name, err)
		return
	}
	err = os.WriteFile(filepath.Join(o.directory, name+".html"), contents, 0644)
	if err != nil {
		o.tel.ReportWarning(report_raw_output_write, name, err)
	}
}
