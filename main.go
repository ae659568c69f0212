package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bookqr/book-qr/api"
	"github.com/bookqr/book-qr/config"
	"github.com/bookqr/book-qr/qr"
	"github.com/bookqr/book-qr/session"
)

var version = "v0.1.0"

func main() {
	// A missing .env is normal; variables may come from the environment.
	_ = godotenv.Load()

	var configPath string
	root := &cobra.Command{
		Use:           "book-qr",
		Short:         "Turn PDF pages, links and text into QR codes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "book-qr.yaml", "Path to config file")

	// --- pdf command ---------------------------------------------------------
	var (
		pdfPages string
		pdfLink  string
		pdfOut   string
		pdfYes   bool
	)
	pdfCmd := &cobra.Command{
		Use:   "pdf [file.pdf]",
		Short: "Generate a QR code from the text of PDF pages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPDF(cmd, configPath, args[0], session.PDFRequest{Pages: pdfPages, Link: pdfLink}, pdfOut, pdfYes)
		},
	}
	pdfCmd.Flags().StringVarP(&pdfPages, "pages", "p", "1", "Page number or range, e.g. 5 or 10-15")
	pdfCmd.Flags().StringVarP(&pdfLink, "link", "l", "", "Optional Google Drive link appended to the text")
	pdfCmd.Flags().StringVarP(&pdfOut, "out", "o", "", "Save the QR code to this PNG file")
	pdfCmd.Flags().BoolVarP(&pdfYes, "yes", "y", false, "Answer yes to all confirmation prompts")
	root.AddCommand(pdfCmd)

	// --- text command --------------------------------------------------------
	var (
		textOut string
		textYes bool
	)
	textCmd := &cobra.Command{
		Use:   "text [url-or-text]",
		Short: "Generate a QR code from a URL or free-form text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runText(cmd, configPath, strings.Join(args, " "), textOut, textYes)
		},
	}
	textCmd.Flags().StringVarP(&textOut, "out", "o", "", "Save the QR code to this PNG file")
	textCmd.Flags().BoolVarP(&textYes, "yes", "y", false, "Answer yes to all confirmation prompts")
	root.AddCommand(textCmd)

	// --- serve command -------------------------------------------------------
	var serveAddr string
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local preview UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath, serveAddr)
		},
	}
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (defaults to listen_addr from config)")
	root.AddCommand(serveCmd)

	// --- version command -----------------------------------------------------
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("book-qr %s\n", version)
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup loads config and builds the logger and session shared by all
// commands.
func setup(configPath string, logOut io.Writer) (*config.Config, *slog.Logger, *session.Session, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureOutputDir(); err != nil {
		return nil, nil, nil, fmt.Errorf("ensure output dir: %w", err)
	}

	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	log := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)

	sess := session.New(session.Options{
		Encoder:   qr.NewEncoder(cfg.ModulePixels),
		OutputDir: cfg.OutputDir,
		Log:       log,
	})
	return cfg, log, sess, nil
}

// runPDF loads a document, extracts the selected pages and encodes them.
func runPDF(cmd *cobra.Command, configPath, path string, req session.PDFRequest, out string, yes bool) error {
	_, _, sess, err := setup(configPath, os.Stderr)
	if err != nil {
		return err
	}
	defer sess.Close()

	info, err := sess.OpenDocument(path)
	if err != nil {
		return err
	}
	stdout := cmd.OutOrStdout()
	fmt.Fprintf(stdout, "Loaded %s (total pages: %d)\n", info.Name, info.TotalPages)

	res, err := sess.GenerateFromPDF(req, newPrompter(cmd.InOrStdin(), stdout, yes))
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Text extracted from %s: %d characters\n", res.Pages, res.Characters)

	return finish(sess, session.WorkflowPDF, out, stdout)
}

// runText normalizes free-form input and encodes it.
func runText(cmd *cobra.Command, configPath, input, out string, yes bool) error {
	_, _, sess, err := setup(configPath, os.Stderr)
	if err != nil {
		return err
	}
	defer sess.Close()

	stdout := cmd.OutOrStdout()
	res, err := sess.GenerateFromText(input, newPrompter(cmd.InOrStdin(), stdout, yes))
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Encoded %q: %d characters\n", res.Content, res.Characters)

	return finish(sess, session.WorkflowText, out, stdout)
}

// finish saves the artifact when out is set, otherwise previews it on the
// terminal.
func finish(sess *session.Session, wf session.Workflow, out string, stdout io.Writer) error {
	a := sess.Artifact(wf)
	fmt.Fprintf(stdout, "QR code generated (%s)\n", a.Describe())

	if out == "" {
		fmt.Fprint(stdout, a.Terminal())
		return nil
	}
	saved, err := sess.Save(wf, out)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "QR code saved to %s\n", saved)
	return nil
}

// prompter asks confirmation questions on the terminal.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
	yes bool
}

func newPrompter(in io.Reader, out io.Writer, yes bool) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out, yes: yes}
}

func (p *prompter) Confirm(title, message string) bool {
	if p.yes {
		return true
	}
	fmt.Fprintf(p.out, "%s\n%s [y/N]: ", title, message)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(p.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// runServe runs the preview UI until interrupted.
func runServe(configPath, addr string) error {
	cfg, log, sess, err := setup(configPath, os.Stdout)
	if err != nil {
		return err
	}
	defer sess.Close()

	if addr == "" {
		addr = cfg.ListenAddr
	}

	log.Info("starting book-qr preview", "version", version, "addr", addr, "output_dir", cfg.OutputDir)

	srv := &http.Server{
		Addr: addr,
		Handler: api.NewRouter(&api.Server{
			Session: sess,
			Log:     log,
			Version: version,
		}),
		ReadTimeout:  cfg.PreviewTimeout.Duration,
		WriteTimeout: cfg.PreviewTimeout.Duration,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "url", "http://"+addr+"/")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server: %w", err)
	case <-quit:
	}

	log.Info("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	log.Info("goodbye")
	return nil
}
