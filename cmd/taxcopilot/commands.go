package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/garygangwu/tax-copilot/interview"
	"github.com/garygangwu/tax-copilot/session"
)

func runInterview(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("interview", flag.ExitOnError)
	c := commonFlags(fs, "warnings")
	user := fs.String("user", "", "User identifier (required)")
	year := fs.Int("year", time.Now().Year()-1, "Tax year")
	fs.Parse(args)

	if *user == "" {
		fmt.Fprintln(os.Stderr, "Usage: taxcopilot interview -user <id> [-year <year>]")
		fs.PrintDefaults()
		os.Exit(1)
	}

	a := c.agent(ctx, c.logger(false))
	defer a.Close()

	fmt.Println(titleStyle.Render(fmt.Sprintf("Tax interview for %d", *year)))
	start, err := a.Start(ctx, *user, *year)
	if err != nil {
		return err
	}
	fmt.Println(mutedStyle.Render("Session " + start.SessionID + " (type 'quit' to pause)"))
	printAgent(start.Question)

	return chat(ctx, a, start.SessionID, os.Stdin)
}

func runResume(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("resume", flag.ExitOnError)
	c := commonFlags(fs, "warnings")
	id := fs.String("session", "", "Session ID to resume (required)")
	fs.Parse(args)

	if *id == "" {
		fmt.Fprintln(os.Stderr, "Usage: taxcopilot resume -session <id>")
		fs.PrintDefaults()
		os.Exit(1)
	}

	a := c.agent(ctx, c.logger(false))
	defer a.Close()

	res, err := a.Resume(ctx, *id)
	if err != nil {
		return err
	}
	if res.State == session.StateCompleted {
		fmt.Println(mutedStyle.Render("Interview already completed; rebuilding profile."))
		p, err := a.Finalize(ctx, *id)
		if err != nil {
			return err
		}
		fmt.Println(renderProfile(p))
		return nil
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("Resuming %d interview", res.TaxYear)))
	fmt.Println(mutedStyle.Render(fmt.Sprintf("%s, %d messages so far", res.State, res.MessageCount)))
	printAgent(res.LastQuestion)

	return chat(ctx, a, res.SessionID, os.Stdin)
}

// chat reads answers from in until the interview completes, the user quits,
// or input ends.
func chat(ctx context.Context, a *interview.Agent, sessionID string, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Print(promptStyle.Render("You: "))
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}

		text := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(text) {
		case "":
			continue
		case "quit", "exit", "pause":
			fmt.Println(mutedStyle.Render("Paused. Resume with: taxcopilot resume -session " + sessionID))
			return nil
		}

		res, err := a.Continue(ctx, sessionID, text)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Println(mutedStyle.Render("\nInterrupted. Resume with: taxcopilot resume -session " + sessionID))
				return nil
			}
			return err
		}
		printAgent(res.Response)

		if res.Complete {
			if res.Profile != nil {
				fmt.Println(renderProfile(res.Profile))
			} else {
				fmt.Println(mutedStyle.Render("Retry with: taxcopilot resume -session " + sessionID))
			}
			return nil
		}
	}
}

func runSessions(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sessions", flag.ExitOnError)
	c := commonFlags(fs, "warnings")
	user := fs.String("user", "", "Filter by user")
	year := fs.Int("year", 0, "Filter by tax year")
	show := fs.String("show", "", "Show details for one session")
	fs.Parse(args)

	a := c.agent(ctx, c.logger(false))
	defer a.Close()

	if *show != "" {
		summary, err := a.Summary(ctx, *show)
		if err != nil {
			return err
		}
		return printJSON(summary)
	}

	infos, err := a.List(ctx, session.Filter{UserID: *user, TaxYear: *year})
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println(mutedStyle.Render("No sessions found."))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, titleStyle.Render("SESSION")+"\tUSER\tYEAR\tSTATE\tMESSAGES\tUPDATED")
	for _, s := range infos {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\t%s\n",
			s.SessionID, s.UserID, s.TaxYear, s.State, s.MessageCount, s.UpdatedAt.Format(time.DateTime))
	}
	return w.Flush()
}

func runProfile(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("profile", flag.ExitOnError)
	c := commonFlags(fs, "warnings")
	user := fs.String("user", "", "User identifier (required)")
	year := fs.Int("year", 0, "Tax year; omit to list every year")
	asJSON := fs.Bool("json", false, "Print raw JSON")
	versions := fs.Bool("versions", false, "List recorded versions (requires profile history)")
	fs.Parse(args)

	if *user == "" {
		fmt.Fprintln(os.Stderr, "Usage: taxcopilot profile -user <id> [-year <year>]")
		fs.PrintDefaults()
		os.Exit(1)
	}

	a := c.agent(ctx, c.logger(false))
	defer a.Close()

	if *versions {
		v, err := a.ProfileVersions(ctx, *user, *year)
		if err != nil {
			return err
		}
		return printJSON(v)
	}

	if *year != 0 {
		p, err := a.Profile(ctx, *user, *year)
		if err != nil {
			return err
		}
		if *asJSON {
			return printJSON(p)
		}
		fmt.Println(renderProfile(p))
		return nil
	}

	profiles, err := a.Profiles(ctx, *user)
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(profiles)
	}
	if len(profiles) == 0 {
		fmt.Println(mutedStyle.Render("No profiles found."))
	}
	for _, p := range profiles {
		fmt.Println(renderProfile(p))
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
