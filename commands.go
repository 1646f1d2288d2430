package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"complaintdesk/internal/browser"
	"complaintdesk/internal/complaint"
	"complaintdesk/internal/desk"
	cderrors "complaintdesk/internal/errors"
	"complaintdesk/internal/export"
	"complaintdesk/internal/form"
	"complaintdesk/internal/receipt"
	"complaintdesk/internal/summary"
	"complaintdesk/internal/translate"
	"complaintdesk/internal/voice"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "complaintdesk",
		Short:        "Complaint ticket desk",
		Long:         `complaintdesk registers citizen complaints, issues sequential ticket IDs (TCKT1001, TCKT1002, ...) and keeps every ticket in an append-only CSV ledger.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newFormCommand(),
		newVoiceCommand(),
		newSignupCommand(),
		newNextIDCommand(),
		newLookupCommand(),
		newDepartmentCommand(),
		newSummaryCommand(),
		newExportCommand(),
		newReceiptCommand(),
	)
	return root
}

// commandContext is cancelled on Ctrl-C.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt)
}

func newFormCommand() *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "form",
		Short: "Register a complaint with the keyboard form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Logs go to LOG_FILE so they do not draw over the form.
			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := commandContext(cmd)
			defer cancel()

			session, err := a.session(ctx, username)
			if err != nil {
				return err
			}

			model := form.New(ctx, func(ctx context.Context, f complaint.Form) (desk.Receipt, error) {
				return a.desk.Submit(ctx, session, f)
			})
			final, err := tea.NewProgram(model, tea.WithContext(ctx)).Run()
			if err != nil {
				return fmt.Errorf("form failed: %w", err)
			}

			if m, ok := final.(form.Model); ok && m.Done() {
				receipt, err := m.Result()
				if err != nil {
					return err
				}
				fmt.Printf("✅ Ticket %s registered (%s, urgency %s)\n",
					receipt.TicketID(), receipt.Record.Department, receipt.Record.UrgencyLevel)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "user", "u", "", "Log in as this user (prompts for the password)")
	return cmd
}

func newVoiceCommand() *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "voice",
		Short: "Register a complaint through a spoken dialogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := commandContext(cmd)
			defer cancel()

			session, err := a.session(ctx, username)
			if err != nil {
				return err
			}

			translator, err := translate.NewTranslator(ctx, a.cfg.GoogleTranslateAPIKey, a.cfg.Language, a.log)
			if err != nil {
				a.log.Warn("⚠️  Prompt translation unavailable", "error", err)
			}
			defer translator.Close()

			speaker, recognizer := voice.Detect(a.cfg, stdinReader, os.Stdout, a.log)
			dialogue := voice.NewDialogue(speaker, recognizer, translator,
				func(ctx context.Context, f complaint.Form) (desk.Receipt, error) {
					return a.desk.Submit(ctx, session, f)
				}, a.log)

			receipt, err := dialogue.Run(ctx)
			if errors.Is(err, voice.ErrCancelled) {
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Printf("✅ Ticket %s registered\n", receipt.TicketID())
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "user", "u", "", "Log in as this user (prompts for the password)")
	return cmd
}

func newSignupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "signup <username>",
		Short: "Create a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			password, err := readPassword("Password: ")
			if err != nil {
				return err
			}
			confirm, err := readPassword("Confirm password: ")
			if err != nil {
				return err
			}
			if password != confirm {
				return cderrors.NewAuthError(args[0], "passwords do not match")
			}

			if _, err := a.users.Create(cmd.Context(), args[0], password); err != nil {
				return err
			}
			fmt.Printf("✅ Account %s created\n", args[0])
			return nil
		},
	}
}

func newNextIDCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "next-id",
		Short: "Print the ticket ID the next complaint will receive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Println(a.desk.PeekNextID(cmd.Context()))
			return nil
		},
	}
}

func newLookupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <ticket-id>",
		Short: "Show one ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			rec, ok, err := a.desk.Lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("ticket %s not found", args[0])
			}
			printRecord(rec)
			return nil
		},
	}
}

func newDepartmentCommand() *cobra.Command {
	var openOnly bool
	cmd := &cobra.Command{
		Use:   "department [name]",
		Short: "List a department's tickets, or the department names",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			if len(args) == 0 {
				for _, name := range a.desk.Departments() {
					fmt.Println(name)
				}
				return nil
			}

			records, err := a.desk.Find(cmd.Context(), desk.Query{Department: args[0], OpenOnly: openOnly})
			if err != nil {
				return err
			}
			for _, rec := range records {
				fmt.Printf("%-10s  %-6s  %-6s  %-19s  %s: %s\n",
					rec.TicketID, rec.Status, rec.UrgencyLevel, rec.Timestamp, rec.Type, oneLine(rec.Description))
			}
			fmt.Printf("\n%d ticket(s)\n", len(records))
			return nil
		},
	}
	cmd.Flags().BoolVar(&openOnly, "open", false, "Only open tickets")
	return cmd
}

func newSummaryCommand() *cobra.Command {
	var out, title string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Render the open tickets as a PNG table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			records, err := a.desk.Open(cmd.Context())
			if err != nil {
				return err
			}
			renderer := summary.NewRenderer(title)
			if !renderer.HasFonts() {
				a.log.Warn("⚠️  No TrueType fonts found, using the built-in bitmap font")
			}
			png, err := renderer.RenderOpenTickets(records)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, png, 0644); err != nil {
				return cderrors.NewFileIOError("write", out, err)
			}
			a.log.Info("🖼️  Summary written", "path", out, "bytes", len(png))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "open_tickets.png", "Output PNG file")
	cmd.Flags().StringVar(&title, "title", "Open Complaints", "Image title")
	return cmd
}

func newExportCommand() *cobra.Command {
	var out, department string
	var openOnly bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the ledger to an Excel workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			rows, err := a.desk.ExportRows(cmd.Context(), desk.Query{Department: department, OpenOnly: openOnly})
			if err != nil {
				return err
			}

			file, err := os.Create(out)
			if err != nil {
				return cderrors.NewFileIOError("create", out, err)
			}
			n, err := export.WriteXLSX(file, a.desk.Header(), rows, a.log)
			if cerr := file.Close(); err == nil && cerr != nil {
				err = cderrors.NewFileIOError("close", out, cerr)
			}
			if err != nil {
				return err
			}
			a.log.Info("📊 Export written", "path", out, "rows", n)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "tickets.xlsx", "Output workbook")
	cmd.Flags().StringVar(&department, "department", "", "Only this department's tickets")
	cmd.Flags().BoolVar(&openOnly, "open", false, "Only open tickets")
	return cmd
}

func newReceiptCommand() *cobra.Command {
	var out string
	var htmlOnly bool
	cmd := &cobra.Command{
		Use:   "receipt <ticket-id>",
		Short: "Write a printable receipt for a ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := commandContext(cmd)
			defer cancel()

			rec, ok, err := a.desk.Lookup(ctx, args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("ticket %s not found", args[0])
			}
			if out == "" {
				out = rec.TicketID + ".pdf"
			}

			if !htmlOnly {
				holder := browser.NewHolder(browser.Options{ExecPath: a.cfg.ChromePath, Debug: a.cfg.DebugMode}, a.log)
				defer holder.Close()

				pdf, err := receipt.NewPrinter(holder, a.cfg.ReceiptTimeout, a.log).PDF(ctx, rec)
				if err == nil {
					return writeReceipt(a, out, pdf)
				}
				if !cderrors.IsServiceUnavailable(err) {
					return err
				}
				a.log.Warn("⚠️  Chrome unavailable, writing HTML receipt instead", "error", err)
			}

			doc, err := receipt.HTML(rec)
			if err != nil {
				return err
			}
			return writeReceipt(a, strings.TrimSuffix(out, filepath.Ext(out))+".html", []byte(doc))
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default <ticket-id>.pdf)")
	cmd.Flags().BoolVar(&htmlOnly, "html", false, "Write HTML without starting Chrome")
	return cmd
}

func writeReceipt(a *app, path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return cderrors.NewFileIOError("write", path, err)
	}
	a.log.Info("🧾 Receipt written", "path", path)
	return nil
}

func printRecord(rec complaint.Record) {
	for _, name := range complaint.VisibleColumns {
		value, _ := rec.Field(name)
		fmt.Printf("%-22s %s\n", name+":", value)
	}
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > 60 {
		return string(r[:59]) + "…"
	}
	return s
}
