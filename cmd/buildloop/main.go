package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"buildloop/internal/cli"
	"buildloop/internal/llm_client"
	"buildloop/internal/logger"
)

func main() {
	// A .env file is a convenience, not a requirement.
	_ = godotenv.Load()

	if err := logger.Init("buildloop.log"); err != nil {
		log.Fatalf("Fatal Error: Could not initialize logger: %v", err)
	}

	if err := llm_client.Init(llm_client.Config{
		Backend:    os.Getenv("LLM_BACKEND"),
		Model:      os.Getenv("LLM_MODEL"),
		OllamaHost: os.Getenv("OLLAMA_HOST"),
	}); err != nil {
		log.Fatalf("Fatal Error: Could not initialize LLM client: %v", err)
	}

	cli.Execute()
}
