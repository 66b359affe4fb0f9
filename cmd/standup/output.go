package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/alfredjeanlab/standup/internal/ui"
)

func printJSON(w io.Writer, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Fprintln(w, string(data))
}

// printActivity writes members in name order, each followed by its status
// lines.
func printActivity(w io.Writer, activity map[string][]string) {
	if len(activity) == 0 {
		fmt.Fprintln(w, ui.RenderMuted("no activity"))
		return
	}
	members := make([]string, 0, len(activity))
	for m := range activity {
		members = append(members, m)
	}
	slices.Sort(members)

	for i, m := range members {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, ui.RenderMember(m))
		for _, line := range activity[m] {
			fmt.Fprintf(w, "  - %s\n", ui.RenderStatus(line))
		}
	}
}
