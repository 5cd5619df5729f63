// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package log

import (
	"fmt"
	"runtime"
	"strings"
)

func getCallerString(settings callerSettings) (s string) {
	if !*settings.file && !*settings.line && !*settings.funC {
		return ""
	}

	const depth = 4 // log public function, log, getCallerString, runtime.Caller
	pc, file, line, ok := runtime.Caller(depth)
	if !ok {
		return ""
	}

	var fields []string

	if *settings.file {
		const maxSubPaths = 2
		parts := strings.Split(file, "/")
		if len(parts) > maxSubPaths {
			parts = parts[len(parts)-maxSubPaths:]
		}
		fields = append(fields, strings.Join(parts, "/"))
	}

	if *settings.line {
		fields = append(fields, fmt.Sprint(line))
	}

	if *settings.funC {
		details := runtime.FuncForPC(pc)
		if details != nil {
			name := details.Name()
			if i := strings.LastIndex(name, "/"); i >= 0 {
				name = name[i+1:]
			}
			fields = append(fields, name)
		}
	}

	return strings.Join(fields, ":")
}
