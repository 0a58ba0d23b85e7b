package tools

import (
	"fmt"
	"strings"
)

type Definition struct {
	Name        string
	Description string
	Required    []string
}

// The tool catalog is fixed for the life of the binary. It drives both
// invocation validation and the tool section of the build prompt.
var definitions = []Definition{
	{
		Name:        "read_file",
		Description: "Read a UTF-8 text file under the sandbox and return its content.",
		Required:    []string{"path"},
	},
	{
		Name:        "write_file",
		Description: "Create or overwrite a UTF-8 text file under the sandbox with the given content.",
		Required:    []string{"path", "content"},
	},
	{
		Name:        "edit_file",
		Description: "Replace the first exact occurrence of old_string with new_string in a file. The match must be exact including newlines and indentation.",
		Required:    []string{"path", "old_string", "new_string"},
	},
	{
		Name:        "run_command",
		Description: "Run a shell command in the current directory. Optional args: timeout (seconds, default 60), background (bool). Background commands keep running until session cleanup; no output is captured for them. Pass non-interactive flags (e.g. --yes) so commands never hang waiting for input.",
		Required:    []string{"cmd"},
	},
	{
		Name:        "change_directory",
		Description: "Change the current working directory. The target must exist and stay under the sandbox root.",
		Required:    []string{"path"},
	},
	{
		Name:        "set_todos",
		Description: "Set or update the plan as a list of todos ({title, status}) and get it echoed back. Status is one of: active, in_progress, completed.",
		Required:    []string{"todos"},
	},
}

var definitionsMap = func() map[string]Definition {
	m := make(map[string]Definition, len(definitions))
	for _, def := range definitions {
		m[def.Name] = def
	}
	return m
}()

func GetDefinition(name string) (Definition, bool) {
	def, found := definitionsMap[name]
	return def, found
}

// Checks the invocation names a known tool and carries its required args.
func ValidateInvocation(inv *Invocation) error {
	def, found := GetDefinition(inv.Tool)
	if !found {
		return fmt.Errorf("tool '%s' is not defined in the registry", inv.Tool)
	}
	for _, requiredKey := range def.Required {
		if _, ok := inv.Args[requiredKey]; !ok {
			return fmt.Errorf("tool '%s' is missing required arg: '%s'", inv.Tool, requiredKey)
		}
	}
	return nil
}

// Creates the text block for the build prompt.
func PromptPart() string {
	var sb strings.Builder
	sb.WriteString("AVAILABLE TOOLS:\n")
	for _, def := range definitions {
		requiredKeys := strings.Join(def.Required, ", ")
		sb.WriteString(fmt.Sprintf("- `%s`: %s Args require keys: `[%s]`.\n", def.Name, def.Description, requiredKeys))
	}
	return sb.String()
}
