package registry

import "github.com/terraledger/mrv-cli/internal/model"

func f64(v float64) *float64 { return &v }

// minus builds an operator node rendered between its siblings. Node ids
// are unique within a tree, so each occurrence gets its own id.
func minus(id string) *model.FormulaNode {
	return &model.FormulaNode{ID: id, Name: "-", Type: model.NodeOperator, Operator: "-"}
}

// Verra returns the Verra registry configuration with the VM0042
// improved agricultural land management protocol.
func Verra() Registry {
	return Registry{
		ID:          "verra",
		Name:        "Verra",
		Description: "Verified Carbon Standard (VCS) registry",
		Protocols: []Protocol{
			{
				ID:          "vm0042",
				Name:        "Improved Agricultural Land Management",
				Methodology: "VM0042 v2.1",
				Root: &model.FormulaNode{
					ID:      "net_corc",
					Name:    "Net CORC",
					Type:    model.NodeCalculated,
					Formula: "removal_data - project_emissions - leakage - buffer",
					Children: []*model.FormulaNode{
						{
							ID:   "removal_data",
							Name: "Removal Data",
							Type: model.NodeInput,
							RequiredInputs: []model.InputField{
								{
									ID:           "gross_removal",
									Name:         "Gross Removal",
									Type:         model.FieldNumber,
									Required:     true,
									Unit:         "tCO2e",
									InputMethods: []model.InputMethod{model.MethodManual, model.MethodExcel, model.MethodAPI},
									ValidationRules: []model.ValidationRule{
										{Type: model.RuleMin, Min: f64(0), Message: "gross removal cannot be negative"},
									},
									HelpText: "Total CO2e sequestered in the monitoring period before deductions.",
								},
								{
									ID:           "monitoring_report",
									Name:         "Monitoring Report",
									Type:         model.FieldFile,
									Required:     true,
									InputMethods: []model.InputMethod{model.MethodUpload},
									ValidationRules: []model.ValidationRule{
										{Type: model.RuleFileType, FileTypes: []string{"pdf"}},
										{Type: model.RuleFileSize, MaxSizeMB: 50},
									},
								},
								{
									ID:           "measurement_date",
									Name:         "Measurement Date",
									Type:         model.FieldDate,
									Required:     false,
									InputMethods: []model.InputMethod{model.MethodManual},
								},
							},
						},
						minus("op_minus_1"),
						{
							ID:      "project_emissions",
							Name:    "Project Emissions",
							Type:    model.NodeInput,
							Formula: "scope_1 + scope_2 + scope_3",
							RequiredInputs: []model.InputField{
								{
									ID: "scope_1", Name: "Scope 1 Emissions", Type: model.FieldNumber,
									Required: true, Unit: "tCO2e",
									InputMethods:    []model.InputMethod{model.MethodManual, model.MethodExcel},
									ValidationRules: []model.ValidationRule{{Type: model.RuleMin, Min: f64(0)}},
								},
								{
									ID: "scope_2", Name: "Scope 2 Emissions", Type: model.FieldNumber,
									Required: true, Unit: "tCO2e",
									InputMethods:    []model.InputMethod{model.MethodManual, model.MethodExcel},
									ValidationRules: []model.ValidationRule{{Type: model.RuleMin, Min: f64(0)}},
								},
								{
									ID: "scope_3", Name: "Scope 3 Emissions", Type: model.FieldNumber,
									Required: false, Unit: "tCO2e",
									InputMethods:    []model.InputMethod{model.MethodManual, model.MethodExcel},
									ValidationRules: []model.ValidationRule{{Type: model.RuleMin, Min: f64(0)}},
								},
								{
									ID: "emission_evidence", Name: "Emission Evidence", Type: model.FieldFile,
									Required:     false,
									InputMethods: []model.InputMethod{model.MethodUpload},
									ValidationRules: []model.ValidationRule{
										{Type: model.RuleFileType, FileTypes: []string{"pdf", "xlsx"}},
									},
								},
							},
						},
						minus("op_minus_2"),
						{
							ID:   "leakage",
							Name: "Leakage",
							Type: model.NodeInput,
							RequiredInputs: []model.InputField{
								{
									ID: "leakage_factor", Name: "Leakage Factor", Type: model.FieldNumber,
									Required: false, Unit: "%",
									InputMethods:    []model.InputMethod{model.MethodManual},
									ValidationRules: []model.ValidationRule{{Type: model.RuleRange, Min: f64(0), Max: f64(100)}},
									DefaultValue:    ptrValue(model.Number(5)),
									HelpText:        "Percentage of gross removal displaced outside the project boundary. Defaults to 5%.",
								},
							},
						},
						minus("op_minus_3"),
						{
							ID:   "buffer",
							Name: "Buffer Pool",
							Type: model.NodeInput,
							RequiredInputs: []model.InputField{
								{
									ID: "buffer_rate", Name: "Buffer Rate", Type: model.FieldNumber,
									Required: false, Unit: "%",
									InputMethods:    []model.InputMethod{model.MethodManual},
									ValidationRules: []model.ValidationRule{{Type: model.RuleRange, Min: f64(0), Max: f64(100)}},
									DefaultValue:    ptrValue(model.Number(15)),
									HelpText:        "Risk-reserve percentage withheld against reversals. Defaults to 15%.",
								},
								{
									ID: "risk_assessment", Name: "Risk Assessment", Type: model.FieldFile,
									Required:     false,
									InputMethods: []model.InputMethod{model.MethodUpload},
									ValidationRules: []model.ValidationRule{
										{Type: model.RuleFileType, FileTypes: []string{"pdf"}},
									},
								},
							},
						},
					},
				},
			},
		},
	}
}

func ptrValue(v model.FieldValue) *model.FieldValue { return &v }
