package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"storefront_pay/internal/app"
	"storefront_pay/internal/config"
	"storefront_pay/internal/tasks"
)

func main() {
	taskName := flag.String("task_name", "", "Name of the task (mandatory)")
	argsStr := flag.String("arguments", "{}", "JSON arguments for the task (optional)")
	flag.Parse()

	if *taskName == "" {
		fmt.Println("Usage: run_task -task_name <name> [-arguments <json_args>]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	var args map[string]interface{}
	if err := json.Unmarshal([]byte(*argsStr), &args); err != nil {
		log.Fatalf("Invalid JSON arguments: %v", err)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	ctx := context.Background()
	a, err := app.New(ctx, config.Load(), nil)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer a.Close()

	registry := a.TaskRegistry()
	if _, ok := registry.Get(*taskName); !ok {
		log.Fatalf("Unknown task %q, available: %s", *taskName, strings.Join(registry.Names(), ", "))
	}

	run, err := tasks.NewRunner(a.DB, registry, a.Logger).Run(ctx, *taskName, args)
	if err != nil {
		log.Printf("Warning: %v", err)
	}

	out, _ := json.MarshalIndent(run.Result, "", "  ")
	fmt.Printf("Task: %s\nStatus: %s\nRuntime: %dms\nResult: %s\n", run.TaskName, run.Status, run.Runtime, out)
	if run.Status != tasks.RunStatusSuccess {
		os.Exit(2)
	}
}
