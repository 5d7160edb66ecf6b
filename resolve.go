package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/chris9740/swiftdns/blocklist"
	"github.com/chris9740/swiftdns/doh"
	"github.com/chris9740/swiftdns/domain"
	"github.com/chris9740/swiftdns/upstream"
	"github.com/miekg/dns"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	resolveType string
	resolveTor  bool
	resolveJSON bool

	resolveCmd = &cobra.Command{
		Use:         "resolve <name>",
		Short:       "Resolve a domain name and print the records",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{annotationQuiet: "true"},
		RunE:        runResolve,
	}
)

func init() {
	flags := resolveCmd.Flags()
	flags.StringVarP(&resolveType, "type", "t", "A", "record type to look up (A, AAAA)")
	flags.BoolVar(&resolveTor, "tor", false, "resolve through the configured Tor proxy")
	flags.BoolVar(&resolveJSON, "json", false, "print the resolver response as JSON")

	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	name, err := domain.Parse(args[0])
	if err != nil {
		return err
	}

	t, err := domain.ParseType(resolveType)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	rules, err := blocklist.LoadDir(cfg.RulesDir, cfg.Whitelist)
	if err != nil {
		return err
	}

	if e, blocked := rules.Find(name); blocked {
		fmt.Fprintln(out, e.Message())
		return nil
	}

	client, err := newClient(cmd.Context(), cfg, resolveTor || cfg.Tor.Enabled)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout.Duration)
	defer cancel()

	start := time.Now()

	msg, err := upstream.New(client, cfg.Endpoint()).Resolve(ctx, name, t)
	if err != nil {
		return err
	}

	if resolveJSON {
		return printJSON(out, msg)
	}

	printRecords(out, name, msg, time.Since(start))

	return nil
}

func printJSON(w io.Writer, msg *doh.Msg) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(msg)
}

// printRecords renders the answer section as a table.
func printRecords(w io.Writer, name domain.Name, msg *doh.Msg, elapsed time.Duration) {
	if len(msg.Answer) == 0 {
		fmt.Fprintf(w, "No records found for %s\n", name.Unicode())
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "Type", "TTL", "Data"})
	table.SetAutoWrapText(false)

	for _, rr := range msg.Answer {
		owner := rr.Name
		if n, err := domain.Parse(rr.Name); err == nil {
			owner = n.Unicode()
		}

		table.Append([]string{
			owner,
			typeString(rr.Type),
			strconv.FormatUint(uint64(rr.TTL), 10) + " secs",
			rr.Data,
		})
	}

	table.Render()

	records := "records"
	if len(msg.Answer) == 1 {
		records = "record"
	}

	fmt.Fprintf(w, "(%d %s found, query time: %dms)\n", len(msg.Answer), records, elapsed.Milliseconds())
}

func typeString(code uint16) string {
	text, ok := dns.TypeToString[code]
	if !ok {
		text = "TYPE" + strconv.Itoa(int(code))
	}
	return fmt.Sprintf("%s (%d)", text, code)
}
