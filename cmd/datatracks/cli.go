// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import "flag"

var (
	flagGops bool

	flagConfigFile string
	flagPlanDir    string
	flagLogLevel   string
)

func cliInit() {
	flag.BoolVar(&flagGops, "gops", false, "Listen via github.com/google/gops/agent (for debugging)")
	flag.StringVar(&flagConfigFile, "config", "./config.json", "Overwrite the default program config with the settings in `config.json`")
	flag.StringVar(&flagPlanDir, "plan-dir", "", "Overwrite the configured plan storage directory")
	flag.StringVar(&flagLogLevel, "loglevel", "", "Overwrite the configured logging level: `[debug, info, notice, warn, err, crit]`")
	flag.Parse()
}
