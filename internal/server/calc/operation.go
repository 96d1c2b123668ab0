// Package calc holds the arithmetic behind stored calculations.
package calc

import (
	"strings"

	"github.com/dmitrijs2005/calckeeper/internal/common"
)

// Operation is the canonical name of an arithmetic operation.
type Operation string

const (
	Addition       Operation = "addition"
	Subtraction    Operation = "subtraction"
	Multiplication Operation = "multiplication"
	Division       Operation = "division"
)

var aliases = map[string]Operation{
	"add":            Addition,
	"addition":       Addition,
	"subtract":       Subtraction,
	"subtraction":    Subtraction,
	"multiply":       Multiplication,
	"multiplication": Multiplication,
	"divide":         Division,
	"division":       Division,
}

// Operations lists the canonical operations in a stable order.
func Operations() []Operation {
	return []Operation{Addition, Subtraction, Multiplication, Division}
}

// ParseOperation accepts a canonical name or a short alias ("add",
// "divide", ...), ignoring case and surrounding space.
func ParseOperation(s string) (Operation, error) {
	op, ok := aliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", common.NewValidationError("type", "must be one of addition, subtraction, multiplication, division")
	}
	return op, nil
}

func (o Operation) String() string {
	return string(o)
}
