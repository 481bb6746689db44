package sandbox

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"compensation-desk/internal/model"
)

const policyDescription = "Without documents, compensation is limited to ten times the transport fee. " +
	"Insured goods with documents are compensated up to the declared value."

type seedFile struct {
	Issues []seedIssue `yaml:"issues"`
}

type seedIssue struct {
	ID             string   `yaml:"id"`
	OrderID        string   `yaml:"order_id"`
	OrderCode      string   `yaml:"order_code"`
	PackageID      string   `yaml:"package_id"`
	DeclaredValue  string   `yaml:"declared_value"`
	TransportFee   string   `yaml:"transport_fee"`
	Weight         string   `yaml:"weight"`
	TotalWeight    string   `yaml:"total_weight"`
	Insured        bool     `yaml:"insured"`
	Category       string   `yaml:"category"`
	EvidenceImages []string `yaml:"evidence_images"`
}

// LoadSeed reads sample issues from a YAML file.
func LoadSeed(path string) ([]model.CompensationDetail, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	out := make([]model.CompensationDetail, 0, len(f.Issues))
	for _, si := range f.Issues {
		d, err := si.detail()
		if err != nil {
			return nil, fmt.Errorf("seed issue %s: %w", si.ID, err)
		}
		out = append(out, d)
	}
	return out, nil
}

func (si seedIssue) detail() (model.CompensationDetail, error) {
	var amounts [4]decimal.Decimal
	for i, raw := range []string{si.DeclaredValue, si.TransportFee, si.Weight, si.TotalWeight} {
		if raw == "" {
			continue
		}
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return model.CompensationDetail{}, err
		}
		amounts[i] = v
	}
	order := model.OrderContext{
		OrderID:             si.OrderID,
		OrderCode:           si.OrderCode,
		PackageID:           si.PackageID,
		DeclaredValue:       amounts[0],
		TransportFee:        amounts[1],
		Weight:              amounts[2],
		TotalWeight:         amounts[3],
		HasInsurance:        si.Insured,
		CategoryDescription: si.Category,
	}
	return newDetail(si.ID, order, si.EvidenceImages), nil
}

func newDetail(issueID string, order model.OrderContext, evidence []string) model.CompensationDetail {
	if evidence == nil {
		evidence = []string{}
	}
	return model.CompensationDetail{
		IssueID:      issueID,
		OrderContext: order,
		PolicyInfo: model.PolicyInfo{
			Description:                policyDescription,
			MaxCompensationWithoutDocs: order.TransportFee.Mul(freightMultiple),
		},
		EvidenceImages: evidence,
	}
}

// DefaultIssues is the built-in sample data.
func DefaultIssues() []model.CompensationDetail {
	return []model.CompensationDetail{
		newDetail("ISS-1001", model.OrderContext{
			OrderID:             "ORD-58231",
			OrderCode:           "HN-SG-58231",
			PackageID:           "PKG-58231-1",
			DeclaredValue:       decimal.NewFromInt(12_000_000),
			TransportFee:        decimal.NewFromInt(300_000),
			Weight:              decimal.NewFromInt(2),
			TotalWeight:         decimal.NewFromInt(4),
			HasInsurance:        true,
			CategoryDescription: "Electronics",
		}, []string{"https://evidence.example/ISS-1001/box.jpg"}),
		newDetail("ISS-1002", model.OrderContext{
			OrderID:             "ORD-58307",
			OrderCode:           "DN-HN-58307",
			PackageID:           "PKG-58307-1",
			DeclaredValue:       decimal.NewFromInt(5_000_000),
			TransportFee:        decimal.NewFromInt(150_000),
			Weight:              decimal.NewFromInt(1),
			TotalWeight:         decimal.NewFromInt(1),
			CategoryDescription: "Ceramics",
		}, nil),
		resolvedFraud(),
	}
}

func resolvedFraud() model.CompensationDetail {
	d := newDetail("ISS-1003", model.OrderContext{
		OrderID:             "ORD-57990",
		OrderCode:           "SG-CT-57990",
		PackageID:           "PKG-57990-2",
		DeclaredValue:       decimal.NewFromInt(30_000_000),
		TransportFee:        decimal.NewFromInt(450_000),
		Weight:              decimal.NewFromInt(3),
		TotalWeight:         decimal.NewFromInt(6),
		HasInsurance:        true,
		CategoryDescription: "Mobile phones",
	}, []string{"https://evidence.example/ISS-1003/seal.jpg"})
	at := time.Date(2024, time.March, 4, 9, 30, 0, 0, time.UTC)
	d.Assessment = &model.Assessment{
		ID:            "a0f6c1de-6a55-4d7e-9a43-5a4c2b1f0d13",
		IssueID:       d.IssueID,
		FraudDetected: true,
		FraudReason:   "Seal replaced before hand-over, matching a known claim pattern",
		AssessedBy:    "risk.team",
		AssessedAt:    &at,
	}
	return d
}
