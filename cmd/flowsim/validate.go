package main

import (
	"errors"
	"fmt"

	"github.com/cuemby/flowsim/pkg/flow"
	"github.com/cuemby/flowsim/pkg/types"
	"github.com/cuemby/flowsim/pkg/validator"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a flow definition",
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().StringP("file", "f", "", "Flow YAML file (required)")
	_ = validateCmd.MarkFlagRequired("file")
}

func runValidate(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")

	def, err := readFlowDefinition(path)
	if err != nil {
		return err
	}

	f, err := flow.Build(def.Spec)
	if err != nil {
		return fmt.Errorf("building flow: %w", err)
	}

	classified, err := validator.Validate(f)
	if err != nil {
		var invalid *types.FlowInvalidError
		if errors.As(err, &invalid) {
			printIssues(invalid.Issues)
			return fmt.Errorf("flow invalid: %d fatal issue(s)", len(invalid.FatalIssues()))
		}
		return err
	}

	printIssues(classified.Warnings)
	fmt.Printf("flow %q is valid: %d task(s)\n", def.Spec.ID, len(f.Tasks))
	return nil
}

func printIssues(issues []types.ValidationIssue) {
	for _, iss := range issues {
		fmt.Println(iss.String())
	}
}
