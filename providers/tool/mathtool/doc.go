// Package mathtool provides the four integer arithmetic tools offered to the
// model: Add, Subtract, Multiply and Divide.
//
// Each tool takes two integer parameters, number1 and number2. Arithmetic is
// int64 with wrapping overflow, and Divide truncates toward zero. Dividing
// by zero returns [ErrDivisionByZero], which the registry reports as an
// execution failure.
package mathtool
