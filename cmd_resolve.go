package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"compensation-desk/internal/panel"
	"compensation-desk/internal/tui"
)

var (
	resolveDocuments   []string
	resolveRefundProof string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve ISSUE",
	Short: "Open the interactive assessment panel for an issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := loadAttachments(resolveDocuments, resolveRefundProof)
		if err != nil {
			return err
		}

		notify, changes := panel.Notifier()
		client := newClient()
		defer client.Wait()
		p := panel.New(client, args[0],
			panel.WithLogger(logger),
			panel.WithDebounce(cfg.PreviewDebounce),
			panel.WithPreviewTimeout(cfg.RequestTimeout),
			panel.WithNotes(noteWriter()),
			panel.OnChange(notify))
		defer p.Close()

		app := tui.NewApp(cmd.Context(), p, changes,
			tui.WithAttachments(files),
			tui.WithNotes(noteWriter()))
		_, err = tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
		return err
	},
}

func init() {
	resolveCmd.Flags().StringArrayVar(&resolveDocuments, "document", nil, "Document image to upload on submit (repeatable)")
	resolveCmd.Flags().StringVar(&resolveRefundProof, "refund-proof", "", "Refund transfer proof image")
}
