package wgpu

import (
	"flag"
	"os"
	"strconv"
)

// tasksMaxEnv overrides how many Execute calls a server batches into one
// command submission before flushing on its own.
const tasksMaxEnv = "CUBECL_GO_WGPU_MAX_TASKS"

// defaultTasksMax is used outside of `go test` runs.
const defaultTasksMax = 16

// testTasksMax is used under `go test`, where flushing after every single
// Execute call makes task-batching behavior deterministic to assert on.
const testTasksMax = 1

// tasksMax resolves the task-batching cap: an explicit CUBECL_GO_WGPU_MAX_TASKS
// wins outright, otherwise a test binary gets 1 and everything else gets
// defaultTasksMax.
func tasksMax() int {
	if v := os.Getenv(tasksMaxEnv); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	if flag.Lookup("test.v") != nil {
		return testTasksMax
	}
	return defaultTasksMax
}
