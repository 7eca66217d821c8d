package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/trip-planner/internal/agent"
	"github.com/sells-group/trip-planner/internal/model"
)

var chatVibe string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Plan a trip interactively in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("chat"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		a := env.newAgent(chatVibe,
			func(query string) { fmt.Printf("  [searching: %s]\n", query) },
			func(status string) { fmt.Printf("  [%s]\n", status) },
		)

		sess, err := env.store.CreateSession(ctx, a.State())
		if err != nil {
			return err
		}
		fmt.Printf("Session %s\n", sess.ID)
		fmt.Println("Where do you want to go? (ctrl-c to quit)")

		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 64*1024), 64*1024)

		onChunk := func(chunk string) error {
			fmt.Print(chunk)
			return nil
		}

		started := false
		for {
			fmt.Print("\n> ")
			if !scanner.Scan() {
				break
			}
			input := strings.TrimSpace(scanner.Text())
			if input == "" {
				continue
			}
			if input == "quit" || input == "exit" {
				break
			}

			action, payload := nextTurn(a.State(), started, input)
			started = true

			result, err := a.DispatchStream(ctx, action, payload, onChunk)
			if err != nil {
				if ctx.Err() != nil {
					break
				}
				fmt.Printf("\nSomething went wrong: %v\n", err)
				continue
			}
			fmt.Println()

			if serr := env.store.SaveSession(ctx, sess.ID, a.State()); serr != nil {
				zap.L().Warn("snapshot session failed", zap.Error(serr))
			}

			if result.Phase == model.PhaseRefinement && action != agent.ActionRefine {
				fmt.Println("\n(Describe a tweak to refine the plan, or type quit.)")
			}
		}

		a.Wait()
		if serr := env.store.SaveSession(ctx, sess.ID, a.State()); serr != nil {
			zap.L().Warn("snapshot session failed", zap.Error(serr))
		}
		fmt.Println("\nBye! Your session is saved.")
		return nil
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatVibe, "vibe", "", "trip vibe hint (e.g. relaxed, adventurous)")
	rootCmd.AddCommand(chatCmd)
}

// nextTurn maps free-text terminal input onto the phase state machine.
func nextTurn(state *model.ConversationState, started bool, input string) (agent.Action, agent.Payload) {
	if !started {
		return agent.ActionStart, agent.Payload{Prompt: input}
	}

	lowered := strings.ToLower(input)
	affirmative := lowered == "yes" || lowered == "y" || lowered == "ok" ||
		lowered == "sure" || lowered == "go ahead" || lowered == "proceed" ||
		strings.HasPrefix(lowered, "yes,") || strings.HasPrefix(lowered, "looks good")
	negative := lowered == "no" || lowered == "n" || lowered == "stop" ||
		strings.HasPrefix(lowered, "no,")

	switch state.Phase {
	case model.PhaseClarification:
		return agent.ActionClarify, agent.Payload{Answers: input}
	case model.PhaseFeasibility:
		return agent.ActionProceed, agent.Payload{Proceed: affirmative || !negative}
	case model.PhaseAssumptions:
		if state.AwaitingConfirmation && affirmative {
			return agent.ActionAssumptions, agent.Payload{Confirmed: true}
		}
		return agent.ActionAssumptions, agent.Payload{Modifications: input}
	case model.PhaseRefinement:
		return agent.ActionRefine, agent.Payload{RefinementType: input}
	default:
		return agent.ActionClarify, agent.Payload{Answers: input}
	}
}
