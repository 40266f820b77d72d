package mathtool

import (
	"context"
	"errors"

	"github.com/leofalp/mathchat/providers/tool"
)

// ErrDivisionByZero is returned by Divide when number2 is 0.
var ErrDivisionByZero = errors.New("division by zero")

// Add returns a + b.
func Add(_ context.Context, a, b int64) (int64, error) {
	return a + b, nil
}

// Subtract returns a - b.
func Subtract(_ context.Context, a, b int64) (int64, error) {
	return a - b, nil
}

// Multiply returns a * b.
func Multiply(_ context.Context, a, b int64) (int64, error) {
	return a * b, nil
}

// Divide returns a / b truncated toward zero.
func Divide(_ context.Context, a, b int64) (int64, error) {
	if b == 0 {
		return 0, ErrDivisionByZero
	}
	return a / b, nil
}

// Definitions returns the tool definitions in their registration order.
func Definitions() []tool.Definition {
	return []tool.Definition{
		binary("Add", "Add two integers",
			"The first integer to add", "The second integer to add", Add),
		binary("Subtract", "Subtract two integers",
			"The first integer to subtract from", "The second integer to subtract away", Subtract),
		binary("Multiply", "Multiply two integers.",
			"The first integer to multiply", "The second integer to multiply", Multiply),
		binary("Divide", "Divide two integers. Make sure the second integer is not 0.",
			"The integer to divide", "The integer to divide by", Divide),
	}
}

// Register adds every math tool to registry.
func Register(registry *tool.Registry) error {
	for _, definition := range Definitions() {
		if err := registry.Register(definition); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry holding only the math tools.
func NewRegistry() *tool.Registry {
	return tool.NewRegistry().MustRegister(Definitions()...)
}

func binary(name, description, first, second string, fn func(context.Context, int64, int64) (int64, error)) tool.Definition {
	return tool.Definition{
		Name:        name,
		Description: description,
		Parameters: []tool.Parameter{
			{Name: "number1", Type: tool.Integer, Description: first},
			{Name: "number2", Type: tool.Integer, Description: second},
		},
		// The registry has already coerced both arguments to int64
		Func: func(ctx context.Context, args []any) (any, error) {
			return fn(ctx, args[0].(int64), args[1].(int64))
		},
	}
}
