//go:build tools

// Package tools pins the mockgen version used by go generate in contract/.
package trollbox

import (
	_ "go.uber.org/mock/mockgen"
)
