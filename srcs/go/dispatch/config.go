package dispatch

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/vislab/jobpool/srcs/go/config"
	"github.com/vislab/jobpool/srcs/go/plan"
	"github.com/vislab/jobpool/srcs/go/plan/hostfile"
)

// Config is the content of a dispatch INI file.
type Config struct {
	CurrDir    string
	Bin        string
	JobFile    string
	ParamsFile string
	PoolDir    string
	ExpectFile string

	Machines plan.MachineConfig
	Hostfile string

	ExecClient string
	User       string
	KeyFile    string

	HistoryDB string
}

const DefaultExecClient = `jobpool-exec`

var errMissingKey = errors.New("missing config key")

// JobName is the base name of the job file without extension. It prefixes every slot file.
func (c Config) JobName() string {
	base := filepath.Base(c.JobFile)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// CmdPrefix is prepended to each parameter line to form a job command.
func (c Config) CmdPrefix() string {
	return c.Bin + " " + c.JobFile
}

// LoadConfig reads an INI file. Section and key names are case-insensitive.
func LoadConfig(filename string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(filename)
	v.SetConfigType("ini")
	v.SetDefault("machines.host_prefix", plan.DefaultHostPrefix)
	v.SetDefault("machines.shuffle", true)
	v.SetDefault("remote.exec_client", DefaultExecClient)
	v.SetDefault("history.db", config.HistoryDB)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	for _, key := range []string{
		"environment.curr_dir",
		"job.bin",
		"job.job_file",
		"job.params_file",
		"job.pool_dir",
	} {
		if len(strings.TrimSpace(v.GetString(key))) == 0 {
			return nil, fmt.Errorf("%w: %s", errMissingKey, key)
		}
	}
	c := &Config{
		CurrDir:    v.GetString("environment.curr_dir"),
		Bin:        v.GetString("job.bin"),
		ExecClient: v.GetString("remote.exec_client"),
		User:       v.GetString("remote.user"),
		KeyFile:    v.GetString("remote.key_file"),
		HistoryDB:  v.GetString("history.db"),
	}
	c.JobFile = c.resolve(v.GetString("job.job_file"))
	c.ParamsFile = c.resolve(v.GetString("job.params_file"))
	c.PoolDir = c.resolve(v.GetString("job.pool_dir"))
	c.ExpectFile = c.resolve(v.GetString("optional.expect_file"))
	c.Hostfile = c.resolve(v.GetString("machines.hostfile"))

	c.Machines = plan.MachineConfig{
		HostPrefix: v.GetString("machines.host_prefix"),
		Shuffle:    v.GetBool("machines.shuffle"),
	}
	var err error
	if c.Machines.CPU, err = parseNumbers(v, "machines.cpu"); err != nil {
		return nil, err
	}
	if c.Machines.GPU, err = parseNumbers(v, "machines.gpu"); err != nil {
		return nil, err
	}
	return c, nil
}

func parseNumbers(v *viper.Viper, key string) ([]int, error) {
	text := strings.TrimSpace(v.GetString(key))
	if len(text) == 0 {
		return nil, nil
	}
	ns, err := plan.ParseNumbers(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return ns, nil
}

// resolve joins a relative path under CurrDir.
func (c Config) resolve(p string) string {
	p = strings.TrimSpace(p)
	if len(p) == 0 || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.CurrDir, p)
}

// MachineList lists the machines of the hostfile if any, otherwise the
// numbered pools. Shuffle applies to both.
func (c Config) MachineList(seed int64) (plan.MachineList, error) {
	if len(c.Hostfile) > 0 {
		ml, err := hostfile.ParseFile(c.Hostfile)
		if err != nil {
			return nil, err
		}
		if c.Machines.Shuffle {
			ml = ml.Shuffled(newRand(seed))
		}
		return ml, nil
	}
	return plan.BuildMachineList(c.Machines, newRand(seed)), nil
}
