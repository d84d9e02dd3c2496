// Package tools builds the concrete tools the agent may call: file
// access confined by the security gate, search over the workspace
// walker, and shell execution through the sandbox runner. The registry
// only ever holds what the active mode grants, so the model never sees
// a schema for a tool its mode cannot use.
package tools

import (
	"github.com/ChamsBouzaiene/dojo/internal/engine"
	"github.com/ChamsBouzaiene/dojo/internal/policy"
	"github.com/ChamsBouzaiene/dojo/internal/sandbox"
	"github.com/ChamsBouzaiene/dojo/internal/security"
	"github.com/ChamsBouzaiene/dojo/internal/workspace"
)

// New builds the registry for one session from the mode's tool grant.
// Dispatch re-checks the grant on every call anyway; the registry is
// the first fence, not the only one. A nil runner simply leaves bash
// unregistered, which is the normal state for web modes.
func New(profile policy.ModeProfile, gate *security.Gate, walker *workspace.Walker, runner sandbox.Runner) engine.ToolRegistry {
	reg := make(engine.ToolRegistry)
	for _, name := range profile.Tools {
		switch name {
		case "read":
			reg.Register(NewReadTool(gate))
		case "write":
			reg.Register(NewWriteTool(gate))
		case "edit":
			reg.Register(NewEditTool(gate))
		case "grep":
			reg.Register(NewGrepTool(walker))
		case "glob":
			reg.Register(NewGlobTool(walker))
		case "bash":
			if runner != nil {
				reg.Register(NewBashTool(gate.Root(), runner))
			}
		}
	}
	return reg
}
