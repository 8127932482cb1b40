package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/terraledger/mrv-cli/internal/model"
)

var registriesCmd = &cobra.Command{
	Use:   "registries",
	Short: "List configured registries and protocols",
	RunE: func(cmd *cobra.Command, _ []string) error {
		for _, reg := range catalog.Registries() {
			fmt.Printf("%s  %s\n", reg.ID, reg.Name)
			for _, p := range reg.Protocols {
				fmt.Printf("  %-24s %s (%s)\n", p.ID, p.Name, p.Methodology)
			}
		}
		return nil
	},
}

var registriesShowCmd = &cobra.Command{
	Use:   "show <registry> <protocol>",
	Short: "Print a protocol's formula tree and fields",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		proto, ok := catalog.Protocol(args[0], args[1])
		if !ok {
			return fmt.Errorf("protocol %s/%s not found", args[0], args[1])
		}
		fmt.Printf("%s (%s)\n", proto.Name, proto.Methodology)
		printNode(proto.Root, 0)
		return nil
	},
}

func printNode(n *model.FormulaNode, depth int) {
	indent := strings.Repeat("  ", depth)
	label := string(n.Type)
	if n.Formula != "" {
		label += ", " + n.Formula
	}
	fmt.Printf("%s%s (%s)\n", indent, n.Name, label)
	for _, f := range n.RequiredInputs {
		req := "optional"
		if f.Required {
			req = "required"
		}
		unit := ""
		if f.Unit != "" {
			unit = " [" + f.Unit + "]"
		}
		fmt.Printf("%s  - %s (%s, %s)%s\n", indent, f.ID, f.Type, req, unit)
	}
	for _, c := range n.Children {
		printNode(c, depth+1)
	}
}

func init() {
	registriesCmd.AddCommand(registriesShowCmd)
	rootCmd.AddCommand(registriesCmd)
}
