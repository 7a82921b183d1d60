// Package abi parses Cairo 1 contract ABIs and converts between Go values and calldata felts.
package abi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Entry kinds found in a Cairo 1 ABI.
const (
	kindFunction    = "function"
	kindConstructor = "constructor"
	kindL1Handler   = "l1_handler"
	kindInterface   = "interface"
	kindStruct      = "struct"
	kindEnum        = "enum"
)

// ErrFunctionNotFound is returned when the ABI has no function of the requested name.
var ErrFunctionNotFound = errors.New("function not found in abi")

// Param is a named, typed function input or struct member.
type Param struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Output is a function return value.
type Output struct {
	Type string `json:"type"`
}

// Function is an external, view, constructor or l1 handler entry point.
type Function struct {
	Name            string   `json:"name"`
	Inputs          []Param  `json:"inputs"`
	Outputs         []Output `json:"outputs"`
	StateMutability string   `json:"state_mutability"`
}

// IsView reports whether the function only reads state.
func (f *Function) IsView() bool { return f.StateMutability == "view" }

// Struct is a user defined struct.
type Struct struct {
	Name    string  `json:"name"`
	Members []Param `json:"members"`
}

// Enum is a user defined enum. Variants are encoded by their position.
type Enum struct {
	Name     string  `json:"name"`
	Variants []Param `json:"variants"`
}

type entry struct {
	Type string `json:"type"`
	Name string `json:"name"`

	Inputs          []Param  `json:"inputs"`
	Outputs         []Output `json:"outputs"`
	StateMutability string   `json:"state_mutability"`

	Items    []entry `json:"items"`
	Members  []Param `json:"members"`
	Variants []Param `json:"variants"`
}

// ABI is a parsed contract ABI.
type ABI struct {
	Constructor *Function
	functions   map[string]*Function
	structs     map[string]*Struct
	enums       map[string]*Enum
}

// Parse parses an ABI from its JSON representation. Nodes return the ABI of Sierra classes as a
// JSON encoded string, both forms are accepted.
func Parse(raw []byte) (*ABI, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.New("empty abi")
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("failed to decode abi string: %w", err)
		}
		raw = []byte(s)
	}

	var entries []entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode abi: %w", err)
	}

	a := &ABI{
		functions: map[string]*Function{},
		structs:   map[string]*Struct{},
		enums:     map[string]*Enum{},
	}
	if err := a.add(entries); err != nil {
		return nil, err
	}

	return a, nil
}

func (a *ABI) add(entries []entry) error {
	for _, e := range entries {
		switch e.Type {
		case kindFunction, kindL1Handler:
			a.functions[e.Name] = e.function()
		case kindConstructor:
			if a.Constructor != nil {
				return errors.New("abi declares more than one constructor")
			}
			a.Constructor = e.function()
		case kindInterface:
			if err := a.add(e.Items); err != nil {
				return err
			}
		case kindStruct:
			a.structs[e.Name] = &Struct{Name: e.Name, Members: e.Members}
		case kindEnum:
			a.enums[e.Name] = &Enum{Name: e.Name, Variants: e.Variants}
		}
	}

	return nil
}

func (e entry) function() *Function {
	return &Function{
		Name:            e.Name,
		Inputs:          e.Inputs,
		Outputs:         e.Outputs,
		StateMutability: e.StateMutability,
	}
}

// Function returns the function called name.
func (a *ABI) Function(name string) (*Function, error) {
	fn, ok := a.functions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFunctionNotFound, name)
	}

	return fn, nil
}

// ConstructorInputs returns the constructor parameters, empty when the contract has no
// constructor.
func (a *ABI) ConstructorInputs() []Param {
	if a.Constructor == nil {
		return nil
	}

	return a.Constructor.Inputs
}
