package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/theirongolddev/fburn/internal/cli"
	"github.com/theirongolddev/fburn/internal/client"
	"github.com/theirongolddev/fburn/internal/server"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	flagServeAddr         string
	flagServeEventsBuffer int
)

var serveCmd = &cobra.Command{
	Use:   "serve [statement...]",
	Short: "Serve the dashboard as an HTTP API with an event stream",
	RunE:  runServe,
}

var serveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running server's status",
	Args:  cobra.NoArgs,
	RunE:  runServeStatus,
}

var pushCmd = &cobra.Command{
	Use:   "push <statement>",
	Short: "Upload a statement to a running server",
	Args:  cobra.ExactArgs(1),
	RunE:  runPush,
}

func init() {
	serveCmd.PersistentFlags().StringVar(&flagServeAddr, "addr", "", "HTTP listen address (default from config)")
	serveCmd.Flags().IntVar(&flagServeEventsBuffer, "events-buffer", 200, "Max in-memory events retained")
	pushCmd.Flags().StringVar(&flagServeAddr, "addr", "", "Server address (default from config)")

	serveCmd.AddCommand(serveStatusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(pushCmd)
}

func runServe(_ *cobra.Command, args []string) error {
	e, err := newEnv(os.Stderr)
	if err != nil {
		return err
	}
	defer e.Close()
	if level, err := log.ParseLevel(e.cfg.Log.Level); err == nil {
		e.log.SetLevel(level)
	}

	if len(args) > 0 {
		lr, err := loadStatements(args)
		if err != nil {
			return err
		}
		e.session.SetLoad(lr)
	}

	addr := e.cfg.Server.Addr
	if flagServeAddr != "" {
		addr = flagServeAddr
	}
	svc := server.New(e.session, server.Config{
		Addr:         addr,
		MaxUploadMB:  e.cfg.Server.MaxUploadMB,
		EventsBuffer: flagServeEventsBuffer,
		Currency:     e.cfg.General.Currency,
	}, e.log.Logger)

	fmt.Printf("  fburn listening on http://%s\n", addr)
	fmt.Printf("  Store: %s in %s\n", e.cfg.Store.Backend, e.cfg.DataDir())
	fmt.Printf("  Upload with: fburn push <statement> --addr %s\n", addr)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// serverClient resolves the address from --addr or the config.
func serverClient() (*client.Client, error) {
	addr := flagServeAddr
	if addr == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		addr = cfg.Server.Addr
	}
	c := client.New(addr)
	if c == nil {
		return nil, errors.New("no server address configured")
	}
	return c, nil
}

func runServeStatus(_ *cobra.Command, _ []string) error {
	c, err := serverClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fmt.Printf("  Address: %s\n", c.BaseURL())
	st, err := c.Status(ctx)
	if err != nil {
		fmt.Printf("  API status: unreachable (%v)\n", err)
		return nil
	}

	fmt.Printf("  Up since: %s\n", st.StartedAt.Local().Format(time.RFC3339))
	if st.UploadID == "" {
		fmt.Println("  Upload: none")
	} else {
		fmt.Printf("  Upload: %s (%s, %d rows)\n", st.UploadID, st.UploadedAt.Local().Format(time.Kitchen), st.Rows)
		for _, f := range st.Files {
			fmt.Printf("    %s\n", f)
		}
	}
	fmt.Printf("  Categories: %d\n", st.Categories)
	if st.Budgets {
		state := "saved"
		if st.UnsavedBudgets {
			state = "unsaved changes"
		}
		fmt.Printf("  Budgets: %s\n", state)
	}
	fmt.Printf("  Events: %d buffered, %d subscribers\n", st.EventCount, st.SubscriberCount)
	return nil
}

func runPush(_ *cobra.Command, args []string) error {
	c, err := serverClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	res, err := c.Upload(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("  Uploaded %s as %s: %d rows (%d debits, %d credits)\n",
		res.File, res.UploadID, res.Rows, res.Debits, res.Credits)

	sum, err := c.Summary(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("  Spent %s, received %s\n",
		cli.FormatMoney(sum.Currency, sum.DebitTotal), cli.FormatMoney(sum.Currency, sum.CreditTotal))
	return nil
}
