package streaming

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/loglens/loglens/internal/clierr"
)

// validateCommand adapts the teacher's SecurityChecker.ResolveBinary /
// VerifyBinary from "resolve a known BCC tool name in a fixed allow-list
// of directories" to "refuse to launch a Command source whose binary
// cannot be resolved via PATH, or whose invocation looks like a shell
// escape rather than a direct exec". LogLens never shells out through
// /bin/sh, so injection via argument content is structurally impossible;
// this only needs to guard against launching an unintended binary.
func validateCommand(command string, args []string) (string, error) {
	if command == "" {
		return "", clierr.New(clierr.KindInvalidInput, "command source requires a non-empty command")
	}
	if strings.ContainsAny(command, "|;&$`\n") {
		return "", clierr.New(clierr.KindInvalidInput, fmt.Sprintf("command %q contains shell metacharacters; use args for arguments", command))
	}
	for _, a := range args {
		if strings.ContainsAny(a, ";`\n") {
			return "", clierr.New(clierr.KindInvalidInput, "command argument contains disallowed control characters")
		}
	}

	resolved, err := exec.LookPath(command)
	if err != nil {
		return "", clierr.Wrap(clierr.KindInvalidInput, fmt.Sprintf("command %q not found on PATH", command), err)
	}
	return resolved, nil
}
