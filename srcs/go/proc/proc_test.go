package proc

import (
	"fmt"
	"os/exec"
	"strings"
	"testing"

	"github.com/vislab/jobpool/srcs/go/utils/assert"
)

func Test_updatedEnvFrom(t *testing.T) {
	oldEnvs := []string{
		`X=1`,
		`Y=Z=2`,
	}
	newValues := make(Envs)
	newValues[`X`] = "2"
	newEnvs := updatedEnvFrom(newValues, oldEnvs)
	if l := len(newEnvs); l != 2 {
		fmt.Printf("%d: %q\n", l, newEnvs)
	}
	assert.True(len(newEnvs) == 2)
	envMap := parseEnv(newEnvs)
	assert.True(envMap[`X`] == `2`)
	assert.True(envMap[`Y`] == `Z=2`)
}

func Test_Quote(t *testing.T) {
	assert.Equal(Quote("abc/def.cmds"), "abc/def.cmds")
	assert.Equal(Quote(""), "''")
	assert.Equal(Quote("a b"), "'a b'")
	assert.Equal(Quote("it's"), `'it'\''s'`)
}

func Test_Script(t *testing.T) {
	p := Proc{
		Name:     "vision01",
		Prog:     "jobpool-exec",
		Args:     []string{"-t", "4", "/pool/job_000000000.cmds"},
		Hostname: "vision01",
		ChDir:    "/data/proj",
	}
	assert.Equal(p.Script(), "cd /data/proj; jobpool-exec -t 4 /pool/job_000000000.cmds")
	assert.Equal(p.SSHCommand(), `ssh -f vision01 'cd /data/proj; jobpool-exec -t 4 /pool/job_000000000.cmds'`)
	assert.Equal(p.DetachedScript(), `nohup sh -c 'cd /data/proj; jobpool-exec -t 4 /pool/job_000000000.cmds' > /dev/null 2>&1 < /dev/null &`)

	p.Envs = Envs{"B": "2", "A": "x y"}
	assert.Equal(p.Script(), "cd /data/proj; env A='x y' B=2 jobpool-exec -t 4 /pool/job_000000000.cmds")
}

func Test_Shell(t *testing.T) {
	p := Shell("job-1", "echo hi > out.txt")
	assert.Equal(p.CommandLine(), "sh -c 'echo hi > out.txt'")
}

func Test_SSHCommandReplay(t *testing.T) {
	p := Proc{
		Prog:     "jobpool-exec",
		Args:     []string{"a.cmds", "a.expects"},
		Hostname: "vision01",
		ChDir:    "/data/résumé $HOME `id` \\n",
	}
	line := p.SSHCommand()
	assert.Equal(line, `ssh -f vision01 'cd '\''/data/résumé $HOME `+"`id`"+` \n'\''; jobpool-exec a.cmds a.expects'`)
	// the local shell must hand the remote script over unchanged
	replay := "printf %s " + strings.TrimPrefix(line, "ssh -f vision01 ")
	out, err := exec.Command("sh", "-c", replay).Output()
	assert.OK(err)
	assert.Equal(string(out), p.Script())
}
