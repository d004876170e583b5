// jobpool-genparams writes an example params file and its expect file:
// one line per (i, j) of a grid, each job expecting two images.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vislab/jobpool/srcs/go/log"
	"github.com/vislab/jobpool/srcs/go/utils"
)

var (
	rows        = flag.Int("rows", 10, "first grid dimension")
	cols        = flag.Int("cols", 10, "second grid dimension")
	outDir      = flag.String("out-dir", "", "directory of the expected outputs")
	paramsFile  = flag.String("params", "./para/job.params", "params file to write")
	expectsFile = flag.String("expects", "./para/job.expects", "expect file to write")
)

func main() {
	flag.Parse()
	params, expects := grid(*rows, *cols, *outDir)
	for name, bs := range map[string][]byte{*paramsFile: params, *expectsFile: expects} {
		if err := os.MkdirAll(filepath.Dir(name), os.ModePerm); err != nil {
			utils.ExitErr(err)
		}
		if err := os.WriteFile(name, bs, 0644); err != nil {
			utils.ExitErr(err)
		}
	}
	log.Infof("wrote %s to %s and %s", utils.Pluralize(*rows**cols, "job", "jobs"), *paramsFile, *expectsFile)
}

func grid(rows, cols int, outDir string) ([]byte, []byte) {
	var params, expects bytes.Buffer
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			fmt.Fprintf(&params, "%d %d\n", i, j)
			fmt.Fprintf(&expects, "%s %s\n",
				filepath.Join(outDir, fmt.Sprintf("%d_%d_output1.png", i, j)),
				filepath.Join(outDir, fmt.Sprintf("%d_%d_output2.png", i, j)))
		}
	}
	return params.Bytes(), expects.Bytes()
}
