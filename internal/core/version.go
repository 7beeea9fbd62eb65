package soundbig

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"runtime/debug"
	"strings"
)

var version = ""
var builddate = ""

// SetVersion sets the build information injected into the main package
func SetVersion(v, date string) {
	version = v
	builddate = date
}

// LogVersion print version to log
func LogVersion() {
	slog.Info("Soundbig", "version", version, "built", builddate)
}

var banner = []string{
	"\n                            _ _     _\n",
	"  ___  ___  _   _ ____   _| | |__ (_) ____\n",
	" /___)/ _ \\| | | |  _ \\ / || |  _ \\| |/ _  |\n",
	"|___ | |_| | |_| | | | ( (_|| |_) ) ( ( | |\n",
	"(___/ \\___/ \\____|_| |_|\\____|____/|_|\\_|| |\n",
	"                                     (_____| %s\n(%s)\n\n",
}

// Banner prints the version banner, to stdout if w is nil
func Banner(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	if version == "" {
		if build, ok := debug.ReadBuildInfo(); ok {
			version = build.Main.Version
		}
	}
	if !strings.Contains(builddate, runtime.Version()) {
		builddate += " using " + runtime.Version()
	}

	for _, v := range banner {
		if strings.Contains(v, "%s") {
			fmt.Fprintf(w, v, version, builddate)
		} else {
			fmt.Fprint(w, v)
		}
	}
}
