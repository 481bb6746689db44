package main

import (
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"compensation-desk/internal/assessment"
	"compensation-desk/internal/model"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show ISSUE",
	Short: "Print an issue's compensation context and resolution",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newClient().FetchDetail(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if showJSON {
			out, err := json.MarshalIndent(d, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		}
		printDetail(cmd.OutOrStdout(), noteWriter(), d)
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Print the raw detail as JSON")
}

func printDetail(w io.Writer, notes assessment.NoteWriter, d *model.CompensationDetail) {
	o := d.OrderContext
	fmt.Fprintf(w, "Issue %s\n", d.IssueID)
	fmt.Fprintf(w, "  order         %s (%s), package %s\n", o.OrderCode, o.OrderID, o.PackageID)
	fmt.Fprintf(w, "  category      %s\n", o.CategoryDescription)
	fmt.Fprintf(w, "  declared      %s\n", notes.Money(o.DeclaredValue))
	fmt.Fprintf(w, "  transport fee %s\n", notes.Money(o.TransportFee))
	fmt.Fprintf(w, "  weight        %s of %s\n", o.Weight, o.TotalWeight)
	fmt.Fprintf(w, "  insured       %t\n", o.HasInsurance)
	fmt.Fprintf(w, "  limit w/o docs %s\n", notes.Money(d.PolicyInfo.MaxCompensationWithoutDocs))
	for _, img := range d.EvidenceImages {
		fmt.Fprintf(w, "  evidence      %s\n", img)
	}

	a := d.Assessment
	if a == nil {
		fmt.Fprintln(w, "Status: open")
		return
	}
	fmt.Fprintln(w, "Status: resolved")
	if a.FraudDetected {
		fmt.Fprintf(w, "  fraud         %s\n", a.FraudReason)
	} else {
		fmt.Fprintf(w, "  documents     %t\n", a.HasDocuments)
		fmt.Fprintf(w, "  damage rate   %s%%\n", assessment.FractionToPercent(a.AssessmentRate))
		fmt.Fprintf(w, "  compensation  %s\n", notes.Money(a.FinalCompensation))
		if a.AdjustReason != "" {
			fmt.Fprintf(w, "  adjusted      %s\n", a.AdjustReason)
		}
		if a.StaffNotes != "" {
			fmt.Fprintf(w, "  staff notes   %s\n", a.StaffNotes)
		}
	}
	if r := d.RefundInfo; r != nil {
		fmt.Fprintf(w, "  refund        %s to %s, %s %s\n", notes.Money(r.Amount), r.AccountHolder, r.BankName, r.AccountNumber)
		if r.ProofImage != "" {
			fmt.Fprintf(w, "  refund proof  %s\n", r.ProofImage)
		}
	}
	if a.AssessedBy != "" {
		fmt.Fprintf(w, "  assessed by   %s\n", a.AssessedBy)
	}
}
