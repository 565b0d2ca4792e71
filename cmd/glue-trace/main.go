// Command glue-trace is a tool for viewing and analyzing glue hub trace files.
//
// Trace files are written by a glue session when trace.file is configured
// (or GLUE_TRACE_FILE is set).
//
// Usage:
//
//	glue-trace <command> [flags] <file.glog>
//
// Commands:
//
//	view     View trace file in human-readable format
//	stats    Show statistics about the trace file
//	export   Export trace file to JSONL or CSV format
//	filter   Filter trace file and write to new file
//
// Examples:
//
//	# View all subset traffic, including create/update/delete
//	glue-trace view --kind Subset session.glog
//
//	# Show only broadcasts where a handler failed
//	glue-trace view --failed session.glog
//
//	# Export to CSV
//	glue-trace export --format csv -o session.csv session.glog
//
//	# Keep only messages sent by the "catalog" dataset
//	glue-trace filter --sender catalog -o catalog.glog session.glog
package main

import (
	"os"

	"github.com/cmagness/glue/cmd/glue-trace/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
