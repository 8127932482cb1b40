package registry

import "github.com/terraledger/mrv-cli/internal/model"

// Isometric returns the Isometric registry configuration with the
// enhanced weathering protocol.
func Isometric() Registry {
	return Registry{
		ID:          "isometric",
		Name:        "Isometric",
		Description: "Isometric science-first carbon removal registry",
		Protocols: []Protocol{
			{
				ID:          "enhanced_weathering",
				Name:        "Enhanced Rock Weathering",
				Methodology: "Isometric ERW Protocol v1.1",
				Root: &model.FormulaNode{
					ID:      "net_corc",
					Name:    "Net CORC",
					Type:    model.NodeCalculated,
					Formula: "weathering_removal - operational_emissions - measurement_uncertainty",
					Children: []*model.FormulaNode{
						{
							ID:   "weathering_removal",
							Name: "Weathering Removal",
							Type: model.NodeInput,
							RequiredInputs: []model.InputField{
								{
									ID: "rock_mass", Name: "Rock Mass Applied", Type: model.FieldNumber,
									Required: true, Unit: "t",
									InputMethods:    []model.InputMethod{model.MethodManual, model.MethodExcel, model.MethodAPI},
									ValidationRules: []model.ValidationRule{{Type: model.RuleMin, Min: f64(0)}},
								},
								{
									ID: "rock_type", Name: "Rock Type", Type: model.FieldString,
									Required:     true,
									InputMethods: []model.InputMethod{model.MethodManual},
									ValidationRules: []model.ValidationRule{
										{Type: model.RuleEnum, Values: []string{"basalt", "olivine", "wollastonite"}},
									},
								},
								{
									ID: "surface_area", Name: "Specific Surface Area", Type: model.FieldNumber,
									Required: false, Unit: "m2/kg",
									InputMethods:    []model.InputMethod{model.MethodManual},
									ValidationRules: []model.ValidationRule{{Type: model.RuleMin, Min: f64(0)}},
								},
								{
									ID: "application_evidence", Name: "Application Evidence", Type: model.FieldFile,
									Required:     true,
									InputMethods: []model.InputMethod{model.MethodUpload},
									ValidationRules: []model.ValidationRule{
										{Type: model.RuleFileType, FileTypes: []string{"pdf", "zip"}},
										{Type: model.RuleFileSize, MaxSizeMB: 100},
									},
								},
							},
						},
						minus("op_minus_1"),
						{
							ID:   "operational_emissions",
							Name: "Operational Emissions",
							Type: model.NodeInput,
							RequiredInputs: []model.InputField{
								{
									ID: "grinding_energy", Name: "Grinding Energy", Type: model.FieldNumber,
									Required: true, Unit: "MWh",
									InputMethods:    []model.InputMethod{model.MethodManual, model.MethodExcel},
									ValidationRules: []model.ValidationRule{{Type: model.RuleMin, Min: f64(0)}},
								},
								{
									ID: "spreading_fuel", Name: "Spreading Fuel", Type: model.FieldNumber,
									Required: true, Unit: "l",
									InputMethods:    []model.InputMethod{model.MethodManual, model.MethodExcel},
									ValidationRules: []model.ValidationRule{{Type: model.RuleMin, Min: f64(0)}},
								},
								{
									ID: "transport_emissions", Name: "Transport Emissions", Type: model.FieldNumber,
									Required: false, Unit: "tCO2e",
									InputMethods:    []model.InputMethod{model.MethodManual},
									ValidationRules: []model.ValidationRule{{Type: model.RuleMin, Min: f64(0)}},
								},
							},
						},
						minus("op_minus_2"),
						{
							ID:   "measurement_uncertainty",
							Name: "Measurement Uncertainty",
							Type: model.NodeInput,
							RequiredInputs: []model.InputField{
								{
									ID: "uncertainty_discount", Name: "Uncertainty Discount", Type: model.FieldNumber,
									Required: false, Unit: "%",
									InputMethods:    []model.InputMethod{model.MethodManual},
									ValidationRules: []model.ValidationRule{{Type: model.RuleRange, Min: f64(0), Max: f64(100)}},
								},
								{
									ID: "sampling_data", Name: "Soil Sampling Data", Type: model.FieldFile,
									Required:     false,
									InputMethods: []model.InputMethod{model.MethodUpload},
									ValidationRules: []model.ValidationRule{
										{Type: model.RuleFileType, FileTypes: []string{"csv", "zip"}},
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
