// cmd/preflight/main.go
package main

import (
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/hamed0406/apimonitor/internal/config"
)

type level int

const (
	levelOK level = iota
	levelWarn
	levelFail
)

type finding struct {
	level level
	msg   string
}

func main() {
	if !report(os.Stdout, os.Stderr, check(config.FromEnv())) {
		os.Exit(1)
	}
}

// check inspects the environment the server would start with.
func check(cfg config.Config) []finding {
	var fs []finding
	ok := func(m string) { fs = append(fs, finding{levelOK, m}) }
	warn := func(m string) { fs = append(fs, finding{levelWarn, m}) }
	fail := func(m string) { fs = append(fs, finding{levelFail, m}) }

	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		fail("API_ADDR " + cfg.Addr + " is not host:port.")
	} else {
		ok("API_ADDR=" + cfg.Addr)
	}

	if cfg.DatabaseURL == "" {
		dir := filepath.Dir(cfg.SQLitePath)
		if st, err := os.Stat(dir); err != nil || !st.IsDir() {
			fail("SQLITE_PATH directory " + dir + " does not exist.")
		} else {
			warn("DATABASE_URL empty, observations go to SQLite at " + cfg.SQLitePath)
		}
	} else if u, err := url.Parse(cfg.DatabaseURL); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
		fail("DATABASE_URL must be a postgres:// URL.")
	} else {
		ok("DATABASE_URL present")
	}

	targets, err := config.LoadTargets(cfg.TargetsFile, cfg.ProbeInterval, cfg.ProbeTimeout)
	switch {
	case err != nil:
		fail("targets: " + err.Error())
	case cfg.TargetsFile == "":
		warn(fmt.Sprintf("TARGETS_FILE empty, the %d built-in targets will be monitored.", len(targets)))
	default:
		ok(fmt.Sprintf("TARGETS_FILE=%s (%d targets)", cfg.TargetsFile, len(targets)))
	}

	if cfg.ProbeTimeout >= cfg.ProbeInterval {
		warn("PROBE_TIMEOUT_MS is not below PROBE_INTERVAL_MS; slow targets will skip ticks.")
	}

	if len(cfg.AllowedOrigins) == 0 {
		warn("ALLOWED_ORIGINS empty, any origin may read the API.")
	} else {
		ok("ALLOWED_ORIGINS=" + strings.Join(cfg.AllowedOrigins, ","))
	}

	if cfg.QueryRPM == 0 {
		warn("QUERY_RPM=0, read API is not rate limited.")
	}
	return fs
}

// report prints findings and says whether the preflight passed.
func report(out, errOut io.Writer, fs []finding) bool {
	passed := true
	for _, f := range fs {
		switch f.level {
		case levelOK:
			fmt.Fprintln(out, "✔", f.msg)
		case levelWarn:
			fmt.Fprintln(errOut, "⚠", f.msg)
		case levelFail:
			fmt.Fprintln(errOut, "✖", f.msg)
			passed = false
		}
	}
	if passed {
		fmt.Fprintln(out, "✔", "preflight passed")
	}
	return passed
}
