package main

import (
	"fmt"
	"os"

	"github.com/cuemby/flowsim/pkg/types"
	"gopkg.in/yaml.v3"
)

func readFlowDefinition(path string) (*types.FlowDefinition, error) {
	var def types.FlowDefinition
	if err := readYAML(path, &def); err != nil {
		return nil, err
	}
	return &def, nil
}

func readCalendarDefinition(path string) (*types.CalendarDefinition, error) {
	var def types.CalendarDefinition
	if err := readYAML(path, &def); err != nil {
		return nil, err
	}
	return &def, nil
}

func readDemand(path string) (*types.Demand, error) {
	var d types.Demand
	if err := readYAML(path, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func readYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
