package proc

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
)

type Envs map[string]string

// Merge returns the union of e and f, f taking precedence.
func Merge(e, f Envs) Envs {
	g := make(Envs)
	for k, v := range e {
		g[k] = v
	}
	for k, v := range f {
		g[k] = v
	}
	return g
}

// Proc represents a general purpose process, local or remote.
type Proc struct {
	Name     string
	Prog     string
	Args     []string
	Envs     Envs
	Hostname string
	LogDir   string
	ChDir    string
}

// Shell creates a Proc that runs line through sh -c.
func Shell(name, line string) Proc {
	return Proc{
		Name: name,
		Prog: "sh",
		Args: []string{"-c", line},
	}
}

func (p Proc) Cmd(ctx context.Context) *exec.Cmd {
	cmd := exec.CommandContext(ctx, p.Prog, p.Args...)
	cmd.Env = updatedEnvFrom(p.Envs, os.Environ())
	if len(p.ChDir) > 0 {
		cmd.Dir = p.ChDir
	}
	return cmd
}

// CommandLine is the quoted program and arguments.
func (p Proc) CommandLine() string {
	parts := []string{Quote(p.Prog)}
	for _, a := range p.Args {
		parts = append(parts, Quote(a))
	}
	return strings.Join(parts, " ")
}

// Script is the shell script that runs p on a remote host.
func (p Proc) Script() string {
	var parts []string
	if len(p.ChDir) > 0 {
		parts = append(parts, "cd "+Quote(p.ChDir))
	}
	line := p.CommandLine()
	if len(p.Envs) > 0 {
		var kvs []string
		for _, k := range sortedKeys(p.Envs) {
			kvs = append(kvs, k+"="+Quote(p.Envs[k]))
		}
		line = "env " + strings.Join(kvs, " ") + " " + line
	}
	parts = append(parts, line)
	return strings.Join(parts, "; ")
}

// DetachedScript runs Script in the background, detached from the session,
// so that the ssh session returns as soon as the process is started.
func (p Proc) DetachedScript() string {
	return fmt.Sprintf("nohup sh -c %s > /dev/null 2>&1 < /dev/null &", Quote(p.Script()))
}

// SSHCommand is the equivalent OpenSSH invocation, kept for audit logs.
func (p Proc) SSHCommand() string {
	return fmt.Sprintf("ssh -f %s %s", p.Hostname, Quote(p.Script()))
}

// Quote quotes s for POSIX sh when needed.
func Quote(s string) string {
	if len(s) == 0 {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !isSafe(r) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func isSafe(r rune) bool {
	switch {
	case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z', '0' <= r && r <= '9':
		return true
	}
	return strings.ContainsRune("-_./:=@%+,", r)
}

func sortedKeys(e Envs) []string {
	var ks []string
	for k := range e {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return ks
}

func parseEnv(envs []string) Envs {
	envMap := make(Envs)
	for _, kv := range envs {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			envMap[parts[0]] = parts[1]
		}
	}
	return envMap
}

func updatedEnvFrom(newValues Envs, oldEnvs []string) []string {
	envMap := Merge(parseEnv(oldEnvs), newValues)
	var envs []string
	for _, k := range sortedKeys(envMap) {
		envs = append(envs, fmt.Sprintf("%s=%s", k, envMap[k]))
	}
	return envs
}
