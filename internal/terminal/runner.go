package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/liuyint/policydesk/internal/model/scenario"
	"github.com/liuyint/policydesk/internal/service/session"
)

// Runner drives the experiment engine through a line-oriented terminal
// flow. It renders prompts and relays input; all decision, scoring,
// and prompt-construction logic stays in the engine.
type Runner struct {
	In       io.Reader
	Out      io.Writer
	Catalog  *scenario.Catalog
	Teammate session.Teammate
	Records  session.RecordLog
	LogPath  string
}

// Run executes one full session. It returns nil when the participant
// quits or the catalog is exhausted, and an error only on fatal
// failures such as an unwritable session log.
func (r *Runner) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(r.In)

	fmt.Fprintf(r.Out, "=== Human-AI Policy Decision Experiment (Terminal Version) ===\n\n")
	participantID, ok := r.prompt(scanner, "Enter participant ID (or your name/alias): ")
	if !ok {
		return nil
	}

	sess := session.New(participantID, r.Catalog, r.Teammate, r.Records)

	fmt.Fprintln(r.Out, "\nInstructions:")
	fmt.Fprintln(r.Out, "- You will see a policy scenario each round.")
	fmt.Fprintln(r.Out, "- You get a private memo (stakeholders/politics).")
	fmt.Fprintln(r.Out, "- Your AI teammate sees a different private memo (technical data).")
	fmt.Fprintln(r.Out, "- You can chat with the AI, then choose a policy option A/B/C/D.")
	fmt.Fprintln(r.Out, `- Type "/decide" when you are ready to choose an option.`)
	fmt.Fprintln(r.Out, `- Type "/quit" at any time to exit.`)
	fmt.Fprintln(r.Out)
	if _, ok := r.prompt(scanner, "Press Enter to begin..."); !ok {
		return nil
	}

	for !sess.Complete() {
		sc, ok := sess.CurrentScenario()
		if !ok {
			break
		}

		fmt.Fprintf(r.Out, "\n%s\n", strings.Repeat("=", 70))
		fmt.Fprintf(r.Out, "ROUND %d: %s\n", sc.RoundNum, sc.Title)
		fmt.Fprintln(r.Out, strings.Repeat("=", 70))
		fmt.Fprintln(r.Out, "\nYOUR PRIVATE MEMO (Stakeholders/Politics):")
		fmt.Fprintln(r.Out, sc.HumanPrivateInfo)
		fmt.Fprintln(r.Out, "\nPolicy Options:")
		fmt.Fprintln(r.Out, sc.OptionsText)
		fmt.Fprintln(r.Out, "\nYou can now chat with your AI teammate.")
		fmt.Fprintln(r.Out, `Type messages and press Enter. Type "/decide" to move to decision.`)
		fmt.Fprintln(r.Out)

		quit, eof := r.chatLoop(ctx, scanner, sess)
		if quit {
			fmt.Fprintln(r.Out, "\nExiting experiment. Goodbye.")
			return nil
		}
		if eof {
			return nil
		}

		result, eof := r.decisionLoop(scanner, sess)
		if eof {
			return nil
		}

		fmt.Fprintln(r.Out, "\n--- Round Outcome ---")
		fmt.Fprintf(r.Out, "Your choice: %s\n", result.Choice)
		fmt.Fprintf(r.Out, "Safety impact:    %d\n", result.Outcome.Safety)
		fmt.Fprintf(r.Out, "Equity impact:    %d\n", result.Outcome.Equity)
		fmt.Fprintf(r.Out, "Cost impact:      %d\n", result.Outcome.Cost)
		fmt.Fprintf(r.Out, "Political impact: %d\n", result.Outcome.Political)
		fmt.Fprintf(r.Out, "Round total:      %d\n", result.Outcome.Total)
		fmt.Fprintf(r.Out, "Cumulative total: %d\n", result.Score)

		fmt.Fprintln(r.Out, "\nOptional: What would you like your AI teammate to do differently next round?")
		fmt.Fprintln(r.Out, "(Examples: 'be more concise', 'focus more on equity', 'explain more detail')")
		instruction, ok := r.prompt(scanner, "Press Enter to skip: ")
		if !ok {
			instruction = ""
		}

		if err := sess.FinishRound(instruction); err != nil {
			return fmt.Errorf("record round: %w", err)
		}

		if !sess.Complete() {
			if _, ok := r.prompt(scanner, "\nPress Enter to continue to the next round..."); !ok {
				return nil
			}
		}
	}

	fmt.Fprintln(r.Out, "\n=== Experiment complete ===")
	fmt.Fprintf(r.Out, "Final total score: %d\n", sess.Score())
	if r.LogPath != "" {
		fmt.Fprintf(r.Out, "Data saved to: %s\n", r.LogPath)
	}
	return nil
}

// chatLoop reads participant messages until /decide or /quit. It
// reports (quit, eof).
func (r *Runner) chatLoop(ctx context.Context, scanner *bufio.Scanner, sess *session.Session) (bool, bool) {
	for {
		line, ok := r.prompt(scanner, "You: ")
		if !ok {
			return false, true
		}
		if line == "" {
			continue
		}

		switch strings.ToLower(line) {
		case "/quit", "/q":
			return true, false
		case "/decide", "/d":
			if err := sess.ReadyToDecide(); err != nil {
				return false, true
			}
			return false, false
		}

		reply, err := sess.SendMessage(ctx, line)
		if err != nil {
			return false, true
		}
		fmt.Fprintf(r.Out, "AI: %s\n\n", reply)
	}
}

// decisionLoop re-prompts until the engine accepts a label.
func (r *Runner) decisionLoop(scanner *bufio.Scanner, sess *session.Session) (session.Result, bool) {
	for {
		raw, ok := r.prompt(scanner, "Enter your chosen option (A/B/C/D): ")
		if !ok {
			return session.Result{}, true
		}

		result, err := sess.Decide(scenario.Option(raw))
		if errors.Is(err, session.ErrInvalidDecision) {
			fmt.Fprintln(r.Out, "Please enter A, B, C, or D.")
			continue
		}
		if err != nil {
			return session.Result{}, true
		}
		return result, false
	}
}

// prompt prints the label and reads one trimmed line. ok is false at
// end of input.
func (r *Runner) prompt(scanner *bufio.Scanner, label string) (string, bool) {
	fmt.Fprint(r.Out, label)
	if !scanner.Scan() {
		fmt.Fprintln(r.Out)
		return "", false
	}
	return strings.TrimSpace(scanner.Text()), true
}
