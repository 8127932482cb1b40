package registry

import "github.com/terraledger/mrv-cli/internal/model"

// Puro returns the Puro.earth registry configuration with the biochar
// protocol.
func Puro() Registry {
	return Registry{
		ID:          "puro",
		Name:        "Puro.earth",
		Description: "Puro.earth engineered carbon removal registry",
		Protocols: []Protocol{
			{
				ID:          "biochar",
				Name:        "Biochar Production",
				Methodology: "Puro Biochar Methodology 2022",
				Root: &model.FormulaNode{
					ID:      "net_corc",
					Name:    "Net CORC",
					Type:    model.NodeCalculated,
					Formula: "biochar_production - production_emissions - use_phase",
					Children: []*model.FormulaNode{
						{
							ID:   "biochar_production",
							Name: "Biochar Production",
							Type: model.NodeInput,
							RequiredInputs: []model.InputField{
								{
									ID: "biochar_mass", Name: "Biochar Mass", Type: model.FieldNumber,
									Required: true, Unit: "t",
									InputMethods:    []model.InputMethod{model.MethodManual, model.MethodExcel, model.MethodAPI},
									ValidationRules: []model.ValidationRule{{Type: model.RuleMin, Min: f64(0)}},
									HelpText:        "Dry mass of biochar produced in the reporting period.",
								},
								{
									ID: "carbon_content", Name: "Organic Carbon Content", Type: model.FieldNumber,
									Required: true, Unit: "%",
									InputMethods:    []model.InputMethod{model.MethodManual, model.MethodExcel},
									ValidationRules: []model.ValidationRule{{Type: model.RuleRange, Min: f64(0), Max: f64(100)}},
								},
								{
									ID: "h_c_ratio", Name: "H/Corg Ratio", Type: model.FieldNumber,
									Required: true,
									InputMethods:    []model.InputMethod{model.MethodManual},
									ValidationRules: []model.ValidationRule{{Type: model.RuleMax, Max: f64(0.7), Message: "H/Corg above 0.7 indicates unstable biochar"}},
								},
								{
									ID: "production_log", Name: "Production Log", Type: model.FieldFile,
									Required:     true,
									InputMethods: []model.InputMethod{model.MethodUpload},
									ValidationRules: []model.ValidationRule{
										{Type: model.RuleFileType, FileTypes: []string{"pdf", "csv", "xlsx"}},
									},
								},
							},
						},
						minus("op_minus_1"),
						{
							ID:   "production_emissions",
							Name: "Production Emissions",
							Type: model.NodeInput,
							RequiredInputs: []model.InputField{
								{
									ID: "energy_use", Name: "Energy Use", Type: model.FieldNumber,
									Required: true, Unit: "MWh",
									InputMethods:    []model.InputMethod{model.MethodManual, model.MethodExcel},
									ValidationRules: []model.ValidationRule{{Type: model.RuleMin, Min: f64(0)}},
								},
								{
									ID: "transport_distance", Name: "Feedstock Transport Distance", Type: model.FieldNumber,
									Required: false, Unit: "km",
									InputMethods:    []model.InputMethod{model.MethodManual},
									ValidationRules: []model.ValidationRule{{Type: model.RuleMin, Min: f64(0)}},
								},
							},
						},
						minus("op_minus_2"),
						{
							ID:   "use_phase",
							Name: "Use Phase",
							Type: model.NodeInput,
							RequiredInputs: []model.InputField{
								{
									ID: "application_site", Name: "Application Site", Type: model.FieldString,
									Required:     true,
									InputMethods: []model.InputMethod{model.MethodManual},
									ValidationRules: []model.ValidationRule{
										{Type: model.RuleEnum, Values: []string{"soil", "construction", "other"}},
									},
								},
								{
									ID: "decay_factor", Name: "Decay Factor", Type: model.FieldNumber,
									Required: false, Unit: "%",
									InputMethods:    []model.InputMethod{model.MethodManual},
									ValidationRules: []model.ValidationRule{{Type: model.RuleRange, Min: f64(0), Max: f64(100)}},
								},
							},
						},
					},
				},
			},
		},
	}
}
