//go:build tools

// Package tools pins code-generation dependencies used by the protogen
// build, keeping protoc plugin versions in lockstep with go.mod.
package tools

import (
	_ "google.golang.org/grpc/cmd/protoc-gen-go-grpc"
)
