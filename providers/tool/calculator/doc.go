// Package calculator provides an in-process arithmetic tool supporting the
// four basic operations over floating-point operands.
//
// [New] returns the ready-to-register [tool.Tool]; [Calc] is the underlying
// function.
package calculator
