package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/ikstudios/step-counter/internal/store"
)

// #region main

func main() {
	dbPath := pflag.String("db", "", "path to the controller database")
	last := pflag.IntP("last", "n", 20, "show N most recent rows")
	view := pflag.StringP("view", "v", "decisions", "what to show: decisions, reports, subscriptions, pending")
	jsonOut := pflag.Bool("json", false, "output as JSON instead of table")
	pflag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/step-counter.db [--view decisions|reports|subscriptions|pending] [--last N] [--json]")
		os.Exit(2)
	}

	s, err := store.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	switch *view {
	case "decisions":
		err = runDecisions(s, *last, *jsonOut)
	case "reports":
		err = runReports(s, *last, *jsonOut)
	case "subscriptions":
		err = runSubscriptions(s, *jsonOut)
	case "pending":
		err = runPending(s, *jsonOut)
	default:
		err = fmt.Errorf("unknown view %q", *view)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region decisions

type decisionRow struct {
	Continuation string `json:"continuation_id,omitempty"`
	Gate         string `json:"gate"`
	Token        string `json:"token"`
	RequestCode  int    `json:"request_code"`
	Decision     string `json:"decision"`
	Reason       string `json:"reason,omitempty"`
	CreatedAt    string `json:"created_at"`
}

func runDecisions(s *store.Store, last int, jsonOut bool) error {
	entries, err := s.ListDecisions(last)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "no decisions found")
		return nil
	}

	// Store returns newest first; print chronologically.
	rows := make([]decisionRow, len(entries))
	for i, e := range entries {
		rows[len(entries)-1-i] = decisionRow{
			Continuation: e.ContinuationID,
			Gate:         e.Gate,
			Token:        e.Token,
			RequestCode:  e.RequestCode,
			Decision:     e.Decision,
			Reason:       e.Reason,
			CreatedAt:    e.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if jsonOut {
		return printJSON(rows)
	}
	fmt.Printf("%-20s  %-8s  %-13s  %-11s  %4s  %-8s  %s\n",
		"Time", "Cont", "Gate", "Token", "Code", "Decision", "Reason")
	fmt.Printf("%-20s+-%-8s+-%-13s+-%-11s+-%4s+-%-8s+-%s\n",
		"--------------------", "--------", "-------------", "-----------", "----", "--------", "------")
	for _, r := range rows {
		cont := shortID(r.Continuation)
		if cont == "" {
			cont = "-"
		}
		fmt.Printf("%-20s  %-8s  %-13s  %-11s  %4d  %-8s  %s\n",
			r.CreatedAt, cont, r.Gate, r.Token, r.RequestCode, r.Decision, r.Reason)
	}
	return nil
}

// #endregion decisions

// #region reports

func runReports(s *store.Store, last int, jsonOut bool) error {
	reports, err := s.ListReports(last)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		fmt.Fprintln(os.Stderr, "no reports found")
		return nil
	}
	if jsonOut {
		return printJSON(reports)
	}
	for i := len(reports) - 1; i >= 0; i-- {
		r := reports[i]
		missing := make([]string, len(r.Missing))
		for j, id := range r.Missing {
			missing[j] = string(id)
		}
		fmt.Printf("%s  %-8s  %-8s  missing=[%s]\n  %s\n",
			r.CreatedAt.Format("2006-01-02T15:04:05Z"), shortID(r.ID), r.Mode,
			strings.Join(missing, ","), r.Text)
	}
	return nil
}

// #endregion reports

// #region subscriptions

func runSubscriptions(s *store.Store, jsonOut bool) error {
	subs, err := s.ListSubscriptions()
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(subs)
	}
	fmt.Printf("%-13s  %-5s  %-20s  %s\n", "Channel", "OK", "Updated", "Detail")
	for _, sub := range subs {
		fmt.Printf("%-13s  %-5t  %-20s  %s\n",
			sub.Channel, sub.OK, sub.UpdatedAt.Format("2006-01-02T15:04:05Z"), sub.Detail)
	}
	return nil
}

// #endregion subscriptions

// #region pending

func runPending(s *store.Store, jsonOut bool) error {
	pending, err := s.Continuations(0).Pending()
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(pending)
	}
	if len(pending) == 0 {
		fmt.Fprintln(os.Stderr, "no suspended actions")
		return nil
	}
	for _, c := range pending {
		fmt.Printf("%-8s  %-13s  %-11s  code=%d  issued=%s\n",
			shortID(c.ID), c.Gate, c.Token, c.Code, c.IssuedAt.Format("2006-01-02T15:04:05Z"))
	}
	return nil
}

// #endregion pending

// #region output

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
