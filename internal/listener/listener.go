// Package listener owns the terminal. All output from concurrent parts of the
// program goes through AsyncPrintln so it never tears the active prompt, and
// approval prompts take the terminal exclusively via BeginInteractive.
package listener

import (
	"fmt"
	"strings"
	"sync"

	"github.com/chzyer/readline"
)

var rl *readline.Instance
var mu sync.Mutex
var holdAsync bool
var heldLines []string

func Init() error {
	var err error
	rl, err = readline.NewEx(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "",
		EOFPrompt:       "",
	})
	return err
}

func Close() {
	if rl != nil {
		_ = rl.Close()
	}
}

// BeginInteractive holds back async output until EndInteractive so a prompt
// and its answer stay adjacent on screen.
func BeginInteractive() {
	mu.Lock()
	holdAsync = true
	mu.Unlock()
}

func EndInteractive() {
	mu.Lock()
	defer mu.Unlock()
	holdAsync = false
	for _, s := range heldLines {
		if rl == nil {
			fmt.Println(s)
		} else {
			_, _ = rl.Write([]byte("\r\n" + s + "\r\n"))
		}
	}
	heldLines = nil
	if rl != nil {
		rl.Refresh()
	}
}

func PrintAbove(s string) {
	mu.Lock()
	defer mu.Unlock()
	if rl == nil {
		fmt.Println(s)
		return
	}
	_, _ = rl.Write([]byte("\r\n" + s + "\r\n"))
	rl.Refresh()
}

// GetLine reads one line verbatim apart from surrounding whitespace.
func GetLine(prompt string) string {
	mu.Lock()
	old := rl.Config.Prompt
	rl.SetPrompt(prompt)
	mu.Unlock()

	line, err := rl.Readline()
	if err != nil {
		line = ""
	}

	mu.Lock()
	rl.SetPrompt(old)
	mu.Unlock()
	return strings.TrimSpace(line)
}

// GetConfirmation reads one line lowercased, for single-word answers.
func GetConfirmation(prompt string) string {
	return strings.ToLower(GetLine(prompt))
}

func AsyncPrintln(s string) {
	mu.Lock()
	defer mu.Unlock()
	if holdAsync {
		heldLines = append(heldLines, s)
		return
	}
	if rl == nil {
		fmt.Println(s)
		return
	}
	_, _ = rl.Write([]byte("\r\n" + s + "\r\n"))
	rl.Refresh()
}
