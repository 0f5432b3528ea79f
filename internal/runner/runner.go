package runner

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os/exec"
	"runtime"
	"sync"
)

var ErrNoCommand = errors.New("no command configured")

// Run executes a command string in root and streams each output line to
// onLog as it arrives. The combined output is returned as well.
func Run(ctx context.Context, root, cmdStr string, onLog func(string)) ([]byte, error) {
	if cmdStr == "" {
		return nil, ErrNoCommand
	}

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd", "/C", cmdStr)
	} else {
		cmd = exec.CommandContext(ctx, "sh", "-c", cmdStr)
	}
	cmd.Dir = root

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	var fullOutput []byte
	var mu sync.Mutex
	wg := sync.WaitGroup{}

	stream := func(r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			mu.Lock()
			fullOutput = append(fullOutput, (line + "\n")...)
			if onLog != nil {
				onLog(line)
			}
			mu.Unlock()
		}
	}

	wg.Add(2)
	go stream(stdout)
	go stream(stderr)

	wg.Wait()
	err = cmd.Wait()
	return fullOutput, err
}
