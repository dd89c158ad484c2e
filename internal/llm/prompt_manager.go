package llm

import (
	"embed"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

//go:embed prompts/*.md
var defaultPrompts embed.FS

const (
	generatorPromptFile = "generator.md"
	simulatorPromptFile = "simulator.md"
)

// PromptManager loads system prompts from a directory, falling back to
// the built-in ones.
type PromptManager struct {
	Directory string
}

func NewPromptManager(dir string) *PromptManager {
	return &PromptManager{Directory: dir}
}

func (pm *PromptManager) GetGeneratorPrompt() (string, error) {
	return pm.load(generatorPromptFile)
}

func (pm *PromptManager) GetSimulatorPrompt() (string, error) {
	return pm.load(simulatorPromptFile)
}

func (pm *PromptManager) load(name string) (string, error) {
	if pm.Directory != "" {
		path := filepath.Join(pm.Directory, name)
		data, err := os.ReadFile(path)
		if err == nil {
			return string(data), nil
		}
		if !os.IsNotExist(err) {
			log.Printf("Warning: Failed to read prompt file %s: %v", path, err)
		}
	}

	data, err := defaultPrompts.ReadFile("prompts/" + name)
	if err != nil {
		return "", fmt.Errorf("failed to read built-in prompt %s: %w", name, err)
	}
	return string(data), nil
}
