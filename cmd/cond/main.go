package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"conductor/internal/chat"
	"conductor/internal/config"
	"conductor/internal/engine"
	"conductor/internal/events"
	"conductor/internal/llm"
	"conductor/internal/orchestrator"
	"conductor/internal/prompt"
	"conductor/internal/seed"
	"conductor/internal/server"
	"conductor/internal/store"
	conductorsdk "conductor/sdk/go"
)

var rootCmd = &cobra.Command{
	Use:   "cond",
	Short: "Conductor CLI",
	Long: `Conductor is a chat-driven project cockpit: you talk to an AI orchestrator
persona and its replies can carry [BACKSTAGE] directives that create tasks,
confirm tasks or propose team rebalancing.

- 'cond chat' runs an interactive local session (offline demo mode without an
  API key; set GEMINI_API_KEY for the real model).
- 'cond serve' exposes the same session over HTTP.
- The inspection commands (task, team, proposal, project, journal, status,
  send) talk to a running server via --server.`,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("CONDUCTOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory (conductor.yml location)")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("server", "http://127.0.0.1:8080/v0", "conductor API base URL")
	rootCmd.PersistentFlags().Bool("verbose", false, "verbose logging")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func registerCommands() {
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(sendCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(teamCmd())
	rootCmd.AddCommand(proposalCmd())
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(journalCmd())
	rootCmd.AddCommand(configCmd())
}

// --- local session construction ---

func newLogger() (*zap.Logger, error) {
	if viper.GetBool("verbose") {
		return zap.NewDevelopment()
	}
	return zap.NewNop(), nil
}

func newSession(ctx context.Context) (*orchestrator.Session, *config.Config, error) {
	cfg, err := config.LoadOptional(viper.GetString("workspace"))
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger()
	if err != nil {
		return nil, nil, err
	}
	client, err := llm.FromEnv(ctx, prompt.System, cfg)
	if err != nil {
		return nil, nil, err
	}
	st := store.New(seed.Workspace())
	eng := engine.New(st, events.NewJournal(cfg.Journal.Capacity), cfg)
	eng.Logger = logger
	session := orchestrator.New(eng, chat.NewLog(), client)
	session.Logger = logger
	return session, cfg, nil
}

// --- chat ---

func chatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive session with the orchestrator",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			session, _, err := newSession(ctx)
			if err != nil {
				return err
			}
			go session.Run(ctx)

			if !session.Client.Configured() {
				fmt.Println("(демо режим: GEMINI_API_KEY не задан)")
			}
			for _, m := range session.Log.Messages() {
				printMessage(m.Sender, m.Content)
			}
			fmt.Println("Команды: /tasks /team /proposals /confirm <id> /accept <id> /reject <id> /quit")

			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("> ")
				if !scanner.Scan() {
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if strings.HasPrefix(line, "/") {
					if quit := runSlashCommand(session, line); quit {
						return nil
					}
					continue
				}
				msg, applied, err := session.Send(ctx, line)
				if err != nil {
					if errors.Is(err, orchestrator.ErrBusy) {
						fmt.Println("(подождите: предыдущий запрос еще обрабатывается)")
						continue
					}
					return err
				}
				printMessage(msg.Sender, msg.Content)
				if applied > 0 {
					fmt.Printf("(применено директив: %d)\n", applied)
				}
			}
		},
	}
	return cmd
}

func runSlashCommand(session *orchestrator.Session, line string) bool {
	fields := strings.Fields(line)
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}
	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/tasks":
		tw := newTable(table.Row{"ID", "Title", "Status", "Role", "Origin"})
		for _, t := range session.Engine.Store.Tasks() {
			tw.AppendRow(table.Row{t.ID, t.Title, t.Status, t.AssigneeRole, t.Origin})
		}
		tw.Render()
	case "/team":
		tw := newTable(table.Row{"ID", "Role", "Name", "Eff", "Load"})
		for _, m := range session.Engine.Store.Team() {
			tw.AppendRow(table.Row{m.ID, m.Role, m.Name, m.Effectiveness, m.Workload})
		}
		tw.Render()
	case "/proposals":
		tw := newTable(table.Row{"ID", "Reason", "Impact", "Status"})
		for _, p := range session.Engine.Store.Proposals() {
			tw.AppendRow(table.Row{p.ID, p.Reason, p.Impact, p.Status})
		}
		tw.Render()
	case "/confirm":
		if task, changed := session.ConfirmTask(arg); changed {
			fmt.Printf("Подтверждено: %s\n", task.Title)
		} else {
			fmt.Println("Нет изменений (неизвестный id или уже подтверждено).")
		}
	case "/accept":
		member, cleared := session.AcceptProposal(arg)
		fmt.Printf("Принято. Очищено предложений: %d. Новый агент: %s (%s)\n", cleared, member.Name, member.Role)
	case "/reject":
		if session.RejectProposal(arg) {
			fmt.Println("Отклонено.")
		} else {
			fmt.Println("Предложение не найдено.")
		}
	default:
		fmt.Println("Неизвестная команда:", fields[0])
	}
	return false
}

func printMessage(sender, content string) {
	label := "AI"
	if sender == "user" {
		label = "Вы"
	}
	fmt.Printf("[%s] %s\n\n", label, content)
}

// --- serve ---

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			session, _, err := newSession(ctx)
			if err != nil {
				return err
			}
			go session.Run(ctx)
			handler, err := server.New(server.Config{Session: session, BasePath: basePath})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-ctx.Done()
				sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer scancel()
				srv.Shutdown(sctx)
			}()
			mode := "gemini"
			if !session.Client.Configured() {
				mode = "offline demo"
			}
			fmt.Printf("Serving Conductor API on http://%s%s (%s mode, OpenAPI at %s/openapi.json)\n", addr, basePath, mode, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	return cmd
}

// --- remote commands ---

func apiClient() *conductorsdk.Client {
	return conductorsdk.New(viper.GetString("server"))
}

func sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <message...>",
		Short: "Send one message to a running server",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := apiClient().Send(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(res)
			}
			printMessage(res.Message.Sender, res.Message.Content)
			if res.Applied > 0 {
				fmt.Printf("(применено директив: %d)\n", res.Applied)
			}
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Session status",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := apiClient().Status(cmd.Context())
			if err != nil {
				return err
			}
			return printJSONOrTable(status)
		},
	}
}

func taskCmd() *cobra.Command {
	task := &cobra.Command{Use: "task", Short: "Inspect and confirm tasks"}
	var status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := apiClient().Tasks(cmd.Context(), status)
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(tasks)
			}
			tw := newTable(table.Row{"ID", "Title", "Status", "Role", "Origin"})
			for _, t := range tasks {
				tw.AppendRow(table.Row{t.ID, t.Title, t.Status, t.AssigneeRole, t.Origin})
			}
			tw.Render()
			return nil
		},
	}
	list.Flags().StringVar(&status, "status", "", "status filter")
	confirm := &cobra.Command{
		Use:   "confirm <id>",
		Short: "Confirm a waiting task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := apiClient().ConfirmTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(res)
			}
			if res.Changed {
				fmt.Printf("Подтверждено: %s\n", res.Task.Title)
			} else {
				fmt.Println("Нет изменений: задача уже подтверждена.")
			}
			return nil
		},
	}
	task.AddCommand(list)
	task.AddCommand(confirm)
	return task
}

func teamCmd() *cobra.Command {
	team := &cobra.Command{Use: "team", Short: "Inspect the team roster"}
	team.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List team members",
		RunE: func(cmd *cobra.Command, args []string) error {
			members, err := apiClient().Team(cmd.Context())
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(members)
			}
			tw := newTable(table.Row{"ID", "Role", "Name", "Eff", "Load"})
			for _, m := range members {
				tw.AppendRow(table.Row{m.ID, m.Role, m.Name, m.Effectiveness, m.Workload})
			}
			tw.Render()
			return nil
		},
	})
	return team
}

func proposalCmd() *cobra.Command {
	prop := &cobra.Command{Use: "proposal", Short: "Manage rebalance proposals"}
	prop.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List pending proposals",
		RunE: func(cmd *cobra.Command, args []string) error {
			props, err := apiClient().Proposals(cmd.Context())
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(props)
			}
			tw := newTable(table.Row{"ID", "Reason", "Changes", "Impact"})
			for _, p := range props {
				tw.AppendRow(table.Row{p.ID, p.Reason, strings.Join(p.Changes, "; "), p.Impact})
			}
			tw.Render()
			return nil
		},
	})
	prop.AddCommand(&cobra.Command{
		Use:   "accept <id>",
		Short: "Accept a proposal (clears the whole pending set)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := apiClient().AcceptProposal(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(res)
			}
			fmt.Printf("Принято. Очищено предложений: %d. Новый агент: %s (%s)\n", res.Cleared, res.Member.Name, res.Member.Role)
			return nil
		},
	})
	prop.AddCommand(&cobra.Command{
		Use:   "reject <id>",
		Short: "Reject a proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := apiClient().RejectProposal(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Отклонено.")
			return nil
		},
	})
	return prop
}

func projectCmd() *cobra.Command {
	prj := &cobra.Command{Use: "project", Short: "Inspect projects"}
	prj.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := apiClient().Projects(cmd.Context())
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(projects)
			}
			tw := newTable(table.Row{"ID", "Name", "Class", "Status"})
			for _, p := range projects {
				tw.AppendRow(table.Row{p.ID, p.Name, p.Class, p.Status})
			}
			tw.Render()
			return nil
		},
	})
	return prj
}

func journalCmd() *cobra.Command {
	journal := &cobra.Command{Use: "journal", Short: "Activity journal"}
	var n int
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Tail journal entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := apiClient().Events(cmd.Context(), n)
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(entries)
			}
			tw := newTable(table.Row{"ID", "TS", "Type", "Entity", "EntityID"})
			for _, e := range entries {
				tw.AppendRow(table.Row{e.ID, e.TS, e.Type, e.EntityKind, e.EntityID})
			}
			tw.Render()
			return nil
		},
	}
	tail.Flags().IntVar(&n, "n", 20, "number of entries")
	journal.AddCommand(tail)
	return journal
}

// --- config ---

func configCmd() *cobra.Command {
	cfg := &cobra.Command{Use: "config", Short: "Manage conductor.yml"}
	cfg.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default conductor.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	})
	cfg.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.LoadOptional(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			return printJSONOrTable(c)
		},
	})
	return cfg
}

// --- helpers ---

func newTable(header table.Row) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(header)
	return tw
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
