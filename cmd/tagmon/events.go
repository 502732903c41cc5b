// Events command queries the journal.
package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	eventsKey   string
	eventsLimit int
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent tag events from the journal",
	Long: `Events lists the newest journaled tag events. Requires the journal
key in the configuration file.

Example:
  tagmon events --limit 50
  tagmon events --key plc1/Motor1`,
	Args: cobra.NoArgs,
	RunE: runEvents,
}

func init() {
	eventsCmd.Flags().StringVarP(&eventsKey, "key", "k", "", "only events for this tag key")
	eventsCmd.Flags().IntVarP(&eventsLimit, "limit", "n", 20, "maximum rows to show")
}

func runEvents(cmd *cobra.Command, args []string) error {
	if jrnl == nil {
		return fmt.Errorf("no journal configured; set %q in the config file", cfgKeyJournal)
	}

	jrnl.Flush()

	records, err := jrnl.Recent(eventsLimit)
	if eventsKey != "" {
		records, err = jrnl.ByKey(eventsKey, eventsLimit)
	}
	if err != nil {
		return fmt.Errorf("query journal: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tKEY\tEVENT\tCODE\tELAPSED")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			r.At.Format("15:04:05.000"), r.Key, r.Type, r.Code, r.Elapsed)
	}
	return w.Flush()
}
