package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"compensation-desk/internal/assessment"
	"compensation-desk/internal/model"
)

var (
	previewDocuments   bool
	previewNoDocuments bool
	previewValue       string
	previewRate        string
)

var previewCmd = &cobra.Command{
	Use:   "preview ISSUE",
	Short: "Calculate the compensation for one assessment without recording it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		d, err := client.FetchDetail(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		notes := noteWriter()
		form := assessment.NewForm(d, assessment.WithNotes(notes))
		if form.Phase() == assessment.PhaseResolved {
			return assessment.ErrReadOnly
		}

		valueField := assessment.FieldEstimatedMarketValue
		if previewDocuments {
			valueField = assessment.FieldDocumentValue
		}
		if _, err := form.SelectDocuments(previewDocuments); err != nil {
			return err
		}
		if _, err := form.Set(valueField, previewValue); err != nil {
			return err
		}
		if _, err := form.Set(assessment.FieldDamageRate, previewRate); err != nil {
			return err
		}
		req, ok := form.PreviewRequest()
		if !ok {
			return errors.New("a positive value is required")
		}

		b, err := client.Preview(cmd.Context(), args[0], req)
		if err != nil {
			return err
		}
		if err := form.ApplyPreview(*b); err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Case          %s\n", b.CompensationCase)
		fmt.Fprintf(w, "Goods         %s\n", notes.Money(b.GoodsCompensation))
		fmt.Fprintf(w, "Freight       %s\n", notes.Money(b.FreightRefund))
		fmt.Fprintf(w, "Total         %s\n", notes.Money(b.TotalCompensation))
		fmt.Fprintf(w, "Legal limit   %s\n", notes.Money(b.LegalLimit))
		fmt.Fprintf(w, "Explanation   %s\n", b.Explanation)
		fmt.Fprintf(w, "Staff note    %s\n", form.Draft().StaffNotes)
		for _, m := range form.Messages() {
			if m.Level == model.LevelWarning {
				fmt.Fprintf(w, "Warning       %s\n", m.Message)
			}
		}
		return nil
	},
}

func init() {
	f := previewCmd.Flags()
	f.BoolVar(&previewDocuments, "documents", false, "Value is backed by purchase documents")
	f.BoolVar(&previewNoDocuments, "no-documents", false, "Value is an estimated market value")
	f.StringVar(&previewValue, "value", "", "Document value or estimated market value")
	f.StringVar(&previewRate, "rate", "", "Damage rate in percent (0-100)")
	previewCmd.MarkFlagsMutuallyExclusive("documents", "no-documents")
	previewCmd.MarkFlagsOneRequired("documents", "no-documents")
	_ = previewCmd.MarkFlagRequired("value")
	_ = previewCmd.MarkFlagRequired("rate")
}
