package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"buildloop/internal/actors"
	"buildloop/internal/display"
	"buildloop/internal/gateway"
	"buildloop/internal/listener"
	"buildloop/internal/llm_client"
	"buildloop/internal/logger"
	"buildloop/internal/orchestrator"
	"buildloop/internal/session"
	"buildloop/internal/telemetry"
)

var (
	flagTask        string
	flagRoot        string
	flagModel       string
	flagMaxAttempts int
	flagAutoApprove bool
)

// autoPrompter approves everything, for unattended runs.
type autoPrompter struct{}

func (autoPrompter) Ask(string, string) gateway.Outcome {
	return gateway.Outcome{Decision: gateway.ApprovedSkipAll}
}

var rootCmd = &cobra.Command{
	Use:   "buildloop",
	Short: "An autonomous coding agent with a build-and-verify loop",
	Long: `buildloop takes a coding task, lets a model build it with sandboxed file
and shell tools, verifies the result, and retries on failure. Destructive
tool calls pause for your approval unless --yes is set.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVarP(&flagTask, "task", "t", "", "coding task to perform (prompted for if empty)")
	rootCmd.Flags().StringVarP(&flagRoot, "root", "r", ".", "project directory the agent is confined to")
	rootCmd.Flags().StringVarP(&flagModel, "model", "m", "", "model name (backend default if empty)")
	rootCmd.Flags().IntVarP(&flagMaxAttempts, "max-attempts", "a", 3, "build/verify attempts before giving up")
	rootCmd.Flags().BoolVarP(&flagAutoApprove, "yes", "y", false, "approve all tool calls without asking")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if err := listener.Init(); err != nil {
		return fmt.Errorf("init terminal input: %w", err)
	}
	defer listener.Close()

	task := strings.TrimSpace(flagTask)
	if task == "" {
		listener.PrintAbove("What should I build?")
		task = listener.GetLine("task > ")
	}
	if task == "" {
		return fmt.Errorf("no task given")
	}

	sess, err := session.New(task, flagRoot)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	// Background processes never outlive the session, whatever the exit path.
	defer sess.Procs.Cleanup()

	sink := telemetry.NewLogSink()

	var prompter gateway.Prompter = listener.ApprovalPrompter{}
	if flagAutoApprove {
		prompter = autoPrompter{}
	}
	gw := gateway.New(sess, sink, prompter)

	model := flagModel
	if model == "" {
		model = llm_client.DefaultModel()
	}
	build := actors.NewBuildActor(sess, gw, sink, model)
	verify := actors.NewVerifyActor(sink, model)
	orch := orchestrator.New(sess, gw, build, verify, sink)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		listener.AsyncPrintln("Interrupted, cleaning up...")
		cancel()
		<-sigCh
		// Second signal: skip the graceful path.
		sess.Procs.Cleanup()
		os.Exit(1)
	}()

	listener.AsyncPrintln(fmt.Sprintf("[session %s] %s", sess.ID, task))
	logger.Log.Printf("session %s started: root=%s attempts=%d model=%s",
		sess.ID, sess.Root, flagMaxAttempts, model)

	result, sm, err := orch.Run(ctx, flagMaxAttempts)
	if err != nil {
		return err
	}

	listener.AsyncPrintln(display.FormatVerifyResult(result))
	if sm != nil {
		listener.AsyncPrintln(display.FormatSessionMetrics(sm))
	}
	return nil
}
